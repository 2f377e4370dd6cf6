package interfaces

import "context"

// ImageStore is the blob collaborator for capture photos and audit evidence.
// Store returns a path/URL reference to keep on the record; Retrieve serves
// the raw bytes back (content type is always image/jpeg at the edge).
type ImageStore interface {
	Store(ctx context.Context, filename string, b []byte) (string, error)
	Retrieve(ctx context.Context, filename string) ([]byte, error)
}
