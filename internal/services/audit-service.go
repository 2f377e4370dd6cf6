package services

import (
	"context"
	"crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/SundayYogurt/asset_audit_service/internal/clients/vision"
	"github.com/SundayYogurt/asset_audit_service/internal/domain"
	"github.com/SundayYogurt/asset_audit_service/internal/dto"
	"github.com/SundayYogurt/asset_audit_service/internal/interfaces"
	"github.com/SundayYogurt/asset_audit_service/internal/repository"
	"github.com/SundayYogurt/asset_audit_service/pkg/utils"
)

const (
	maxImageWidth = 1200
	jpgQuality    = 85
)

var (
	ErrInvalidInput          = errors.New("invalid input")
	ErrAuditAlreadyCompleted = errors.New("audit already completed")
)

type AssetAuditService interface {
	// Capture
	ProcessAssetImage(ctx context.Context, image []byte, auditorName string, latitude, longitude *float64) (*domain.Asset, error)

	// Audit lifecycle
	CompleteAudit(auditID uint, condition, notes, status string) (*domain.Audit, error)

	// Reads
	GetAllAssets() ([]domain.Asset, error)
	GetAssetById(assetID uint) (*domain.Asset, error)
	GetAssetsByDepartment(department string) ([]domain.Asset, error)
	GetAllAudits() ([]domain.Audit, error)
	GetAuditById(auditID uint) (*domain.Audit, error)
	GetAuditsByAuditor(auditorName string) ([]domain.Audit, error)
	GetAssetImage(ctx context.Context, filename string) ([]byte, error)
}

type assetAuditService struct {
	assetRepo repository.AssetRepository
	auditRepo repository.AuditRepository
	vision    *vision.Client
	images    interfaces.ImageStore

	// messaging
	producer interfaces.ProducerHandler
}

func NewAssetAuditService(
	assetRepo repository.AssetRepository,
	auditRepo repository.AuditRepository,
	visionClient *vision.Client,
	images interfaces.ImageStore,
	producer interfaces.ProducerHandler,
) AssetAuditService {
	return &assetAuditService{
		assetRepo: assetRepo,
		auditRepo: auditRepo,
		vision:    visionClient,
		images:    images,
		producer:  producer,
	}
}

/* =========================
   CAPTURE
========================= */

// ProcessAssetImage runs the capture pipeline: persist the photo, obtain the
// analysis (real or mock, never a failure), decode it, and create the Asset
// plus its initial open Audit. The only hard failures are image storage I/O
// and a device-number collision.
func (s *assetAuditService) ProcessAssetImage(
	ctx context.Context,
	image []byte,
	auditorName string,
	latitude, longitude *float64,
) (*domain.Asset, error) {
	auditorName = strings.TrimSpace(auditorName)
	if len(image) == 0 {
		return nil, fmt.Errorf("%w: image is required", ErrInvalidInput)
	}
	if auditorName == "" {
		return nil, fmt.Errorf("%w: auditor name is required", ErrInvalidInput)
	}
	if s.images == nil {
		return nil, errors.New("image store is not configured")
	}
	if s.vision == nil {
		return nil, errors.New("vision client is not configured")
	}

	// best effort: fix EXIF orientation and re-encode to JPEG so stored
	// evidence is always servable as image/jpeg; non-decodable bytes are
	// stored as-is
	if norm, normErr := utils.NormalizeToJPG(image, maxImageWidth, jpgQuality); normErr == nil {
		image = norm
	}

	filename := fmt.Sprintf("asset_%d.jpg", time.Now().UnixNano())
	imagePath, err := s.images.Store(ctx, filename, image)
	if err != nil {
		return nil, fmt.Errorf("store image failed: %w", err)
	}

	analysis := s.vision.AnalyzeAssetImage(ctx, image)
	result := vision.ParseAnalysisResult(analysis)

	asset := &domain.Asset{
		DeviceNumber:    pick(result, "deviceNumber", genDeviceNumber()),
		DeviceName:      deviceNameFrom(result),
		Department:      pick(result, "department", "Unknown"),
		Location:        pick(result, "location", ""),
		Barcode:         pick(result, "barcode", ""),
		SerialNumber:    pick(result, "serialNumber", ""),
		Model:           pick(result, "model", ""),
		Manufacturer:    pick(result, "manufacturer", ""),
		Status:          pick(result, "condition", "Unknown"),
		AiExtractedInfo: pick(result, "notes", analysis),
		ImagePath:       imagePath,
		Latitude:        latitude,
		Longitude:       longitude,
	}

	// the inspection that produced the asset becomes its initial open audit,
	// keeping the evidence photo and raw analysis on the trail
	audit := &domain.Audit{
		AuditType:         domain.AuditTypeAICapture,
		AuditorName:       auditorName,
		AuditLocation:     asset.Location,
		AuditLatitude:     latitude,
		AuditLongitude:    longitude,
		EvidenceImagePath: &imagePath,
		AiAnalysisResult:  &analysis,
	}

	created, err := s.assetRepo.CreateAssetWithAudit(asset, audit)
	if err != nil {
		return nil, err
	}

	if s.producer != nil {
		payload, _ := json.Marshal(dto.AssetCapturedEvent{
			AssetID:      created.ID,
			DeviceNumber: created.DeviceNumber,
			AuditorName:  auditorName,
			CapturedAt:   time.Now().Format(time.RFC3339),
		})
		_ = s.producer.PublishMessage([]byte("asset.captured"), payload)
	}

	return created, nil
}

// pick returns the trimmed value for key, or fallback when missing/blank.
func pick(m map[string]string, key, fallback string) string {
	if v, ok := m[key]; ok {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return fallback
}

// deviceNameFrom derives the required device name from the extracted
// manufacturer/model, since the analysis schema has no name field.
func deviceNameFrom(m map[string]string) string {
	manufacturer := pick(m, "manufacturer", "")
	model := pick(m, "model", "")
	name := strings.TrimSpace(manufacturer + " " + model)
	if name == "" {
		return "Unidentified Asset"
	}
	return name
}

// genDeviceNumber produces an ASSET-YYYY-NNNNN fallback so an analysis with
// no device number never feeds an empty string into the unique column.
func genDeviceNumber() string {
	n, err := rand.Int(rand.Reader, big.NewInt(100000))
	if err != nil {
		n = big.NewInt(0)
	}
	return fmt.Sprintf("ASSET-%d-%05d", time.Now().Year(), n.Int64())
}

/* =========================
   AUDIT LIFECYCLE
========================= */

// CompleteAudit applies the single open -> completed transition and
// propagates the outcome onto the asset (status refresh + last_audited).
// A completed audit cannot be completed again.
func (s *assetAuditService) CompleteAudit(auditID uint, condition, notes, status string) (*domain.Audit, error) {
	condition = strings.TrimSpace(condition)
	notes = strings.TrimSpace(notes)
	status = strings.TrimSpace(status)

	if auditID == 0 {
		return nil, fmt.Errorf("%w: invalid audit id", ErrInvalidInput)
	}
	if condition == "" || notes == "" || status == "" {
		return nil, fmt.Errorf("%w: condition, notes and status are required", ErrInvalidInput)
	}

	audit, err := s.auditRepo.FindAuditById(auditID)
	if err != nil {
		return nil, err
	}
	if audit.Completed() {
		return nil, ErrAuditAlreadyCompleted
	}

	asset, err := s.assetRepo.FindAssetById(audit.AssetID)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	audit.Complete(condition, notes, status, now)
	asset.Status = status
	asset.LastAudited = &now

	// single transition: on failure the audit stays open and the asset
	// keeps its previous status
	if err := s.auditRepo.SaveCompletion(audit, asset); err != nil {
		return nil, err
	}

	if s.producer != nil {
		payload, _ := json.Marshal(dto.AuditCompletedEvent{
			AuditID:      audit.ID,
			AssetID:      asset.ID,
			DeviceNumber: audit.DeviceNumber,
			Status:       status,
			CompletedAt:  now.Format(time.RFC3339),
		})
		_ = s.producer.PublishMessage([]byte("audit.completed"), payload)
	}

	return audit, nil
}

/* =========================
   READS
========================= */

func (s *assetAuditService) GetAllAssets() ([]domain.Asset, error) {
	return s.assetRepo.FindAllAssets()
}

func (s *assetAuditService) GetAssetById(assetID uint) (*domain.Asset, error) {
	if assetID == 0 {
		return nil, fmt.Errorf("%w: invalid asset id", ErrInvalidInput)
	}
	return s.assetRepo.FindAssetById(assetID)
}

func (s *assetAuditService) GetAssetsByDepartment(department string) ([]domain.Asset, error) {
	return s.assetRepo.FindAssetsByDepartment(strings.TrimSpace(department))
}

func (s *assetAuditService) GetAllAudits() ([]domain.Audit, error) {
	return s.auditRepo.FindAllAudits()
}

func (s *assetAuditService) GetAuditById(auditID uint) (*domain.Audit, error) {
	if auditID == 0 {
		return nil, fmt.Errorf("%w: invalid audit id", ErrInvalidInput)
	}
	return s.auditRepo.FindAuditById(auditID)
}

func (s *assetAuditService) GetAuditsByAuditor(auditorName string) ([]domain.Audit, error) {
	return s.auditRepo.FindAuditsByAuditor(strings.TrimSpace(auditorName))
}

func (s *assetAuditService) GetAssetImage(ctx context.Context, filename string) ([]byte, error) {
	if s.images == nil {
		return nil, errors.New("image store is not configured")
	}
	return s.images.Retrieve(ctx, filename)
}
