package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// LocalStore keeps images as files under a base directory. It is the default
// ImageStore so the service runs without any hosted storage account, the same
// way the vision client runs offline without an API key.
type LocalStore struct {
	baseDir string
}

func NewLocalStore(baseDir string) (*LocalStore, error) {
	if strings.TrimSpace(baseDir) == "" {
		return nil, errors.New("base dir is required")
	}
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	return &LocalStore{baseDir: baseDir}, nil
}

func (s *LocalStore) Store(_ context.Context, filename string, b []byte) (string, error) {
	name, err := cleanFilename(filename)
	if err != nil {
		return "", err
	}
	path := filepath.Join(s.baseDir, name)
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return "", err
	}
	return "/images/assets/" + name, nil
}

func (s *LocalStore) Retrieve(_ context.Context, filename string) ([]byte, error) {
	name, err := cleanFilename(filename)
	if err != nil {
		return nil, err
	}
	return os.ReadFile(filepath.Join(s.baseDir, name))
}

// cleanFilename rejects anything that could escape the base dir.
func cleanFilename(filename string) (string, error) {
	name := filepath.Base(strings.TrimSpace(filename))
	if name == "" || name == "." || name == ".." || strings.ContainsAny(name, `/\`) {
		return "", errors.New("invalid filename")
	}
	return name, nil
}
