package services_test

import (
	"context"
	"errors"
	"testing"

	"github.com/SundayYogurt/asset_audit_service/internal/clients/vision"
	"github.com/SundayYogurt/asset_audit_service/internal/domain"
	"github.com/SundayYogurt/asset_audit_service/internal/repository"
	"github.com/SundayYogurt/asset_audit_service/internal/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

/* =========================
   FAKES
========================= */

// fakeStore backs both repositories with shared maps so the combined
// transactional writes can be faked with all-or-nothing semantics.
type fakeStore struct {
	assets      map[uint]*domain.Asset
	audits      map[uint]*domain.Audit
	nextAssetID uint
	nextAuditID uint

	auditWriteErr error
	completionErr error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		assets:      map[uint]*domain.Asset{},
		audits:      map[uint]*domain.Audit{},
		nextAssetID: 1,
		nextAuditID: 1,
	}
}

func (f *fakeStore) CreateAsset(asset *domain.Asset) (*domain.Asset, error) {
	for _, a := range f.assets {
		if a.DeviceNumber == asset.DeviceNumber {
			return nil, repository.ErrDuplicateDeviceNumber
		}
	}
	asset.ID = f.nextAssetID
	f.nextAssetID++
	cp := *asset
	f.assets[asset.ID] = &cp
	return asset, nil
}

func (f *fakeStore) CreateAssetWithAudit(asset *domain.Asset, audit *domain.Audit) (*domain.Asset, error) {
	for _, a := range f.assets {
		if a.DeviceNumber == asset.DeviceNumber {
			return nil, repository.ErrDuplicateDeviceNumber
		}
	}
	// rolled back: neither row lands
	if f.auditWriteErr != nil {
		return nil, f.auditWriteErr
	}

	asset.ID = f.nextAssetID
	f.nextAssetID++
	acp := *asset
	f.assets[asset.ID] = &acp

	audit.ID = f.nextAuditID
	f.nextAuditID++
	audit.AssetID = asset.ID
	audit.DeviceNumber = asset.DeviceNumber
	audit.Department = asset.Department
	ucp := *audit
	f.audits[audit.ID] = &ucp

	return asset, nil
}

func (f *fakeStore) SaveAsset(asset *domain.Asset) error {
	if _, ok := f.assets[asset.ID]; !ok {
		return repository.ErrAssetNotFound
	}
	cp := *asset
	f.assets[asset.ID] = &cp
	return nil
}

func (f *fakeStore) FindAssetById(assetID uint) (*domain.Asset, error) {
	a, ok := f.assets[assetID]
	if !ok {
		return nil, repository.ErrAssetNotFound
	}
	cp := *a
	return &cp, nil
}

func (f *fakeStore) FindAllAssets() ([]domain.Asset, error) {
	var out []domain.Asset
	for _, a := range f.assets {
		out = append(out, *a)
	}
	return out, nil
}

func (f *fakeStore) FindAssetsByDepartment(department string) ([]domain.Asset, error) {
	var out []domain.Asset
	for _, a := range f.assets {
		if a.Department == department {
			out = append(out, *a)
		}
	}
	return out, nil
}

func (f *fakeStore) CreateAudit(audit *domain.Audit) (*domain.Audit, error) {
	if f.auditWriteErr != nil {
		return nil, f.auditWriteErr
	}
	audit.ID = f.nextAuditID
	f.nextAuditID++
	cp := *audit
	f.audits[audit.ID] = &cp
	return audit, nil
}

func (f *fakeStore) SaveAudit(audit *domain.Audit) error {
	if _, ok := f.audits[audit.ID]; !ok {
		return repository.ErrAuditNotFound
	}
	cp := *audit
	f.audits[audit.ID] = &cp
	return nil
}

func (f *fakeStore) SaveCompletion(audit *domain.Audit, asset *domain.Asset) error {
	// rolled back: neither row changes
	if f.completionErr != nil {
		return f.completionErr
	}
	if _, ok := f.audits[audit.ID]; !ok {
		return repository.ErrAuditNotFound
	}
	if _, ok := f.assets[asset.ID]; !ok {
		return repository.ErrAssetNotFound
	}
	ucp := *audit
	f.audits[audit.ID] = &ucp
	acp := *asset
	f.assets[asset.ID] = &acp
	return nil
}

func (f *fakeStore) FindAuditById(auditID uint) (*domain.Audit, error) {
	a, ok := f.audits[auditID]
	if !ok {
		return nil, repository.ErrAuditNotFound
	}
	cp := *a
	return &cp, nil
}

func (f *fakeStore) FindAllAudits() ([]domain.Audit, error) {
	var out []domain.Audit
	for _, a := range f.audits {
		out = append(out, *a)
	}
	return out, nil
}

func (f *fakeStore) FindAuditsByAuditor(auditorName string) ([]domain.Audit, error) {
	var out []domain.Audit
	for _, a := range f.audits {
		if a.AuditorName == auditorName {
			out = append(out, *a)
		}
	}
	return out, nil
}

type fakeImageStore struct {
	files   map[string][]byte
	failure error
}

func newFakeImageStore() *fakeImageStore {
	return &fakeImageStore{files: map[string][]byte{}}
}

func (f *fakeImageStore) Store(_ context.Context, filename string, b []byte) (string, error) {
	if f.failure != nil {
		return "", f.failure
	}
	f.files[filename] = b
	return "/images/assets/" + filename, nil
}

func (f *fakeImageStore) Retrieve(_ context.Context, filename string) ([]byte, error) {
	b, ok := f.files[filename]
	if !ok {
		return nil, errors.New("no such file")
	}
	return b, nil
}

type fakeProducer struct {
	keys []string
}

func (f *fakeProducer) PublishMessage(key, _ []byte) error {
	f.keys = append(f.keys, string(key))
	return nil
}

type fixture struct {
	svc      services.AssetAuditService
	store    *fakeStore
	images   *fakeImageStore
	producer *fakeProducer
}

func newFixture() *fixture {
	f := &fixture{
		store:    newFakeStore(),
		images:   newFakeImageStore(),
		producer: &fakeProducer{},
	}
	// no API key: vision client stays in offline mode
	f.svc = services.NewAssetAuditService(f.store, f.store, vision.New(vision.Config{}), f.images, f.producer)
	return f
}

/* =========================
   CAPTURE
========================= */

func TestProcessAssetImageOffline(t *testing.T) {
	f := newFixture()

	asset, err := f.svc.ProcessAssetImage(context.Background(), []byte("IMG"), "J. Doe", nil, nil)
	require.NoError(t, err)
	require.NotNil(t, asset)

	// mock analysis drives the extracted fields
	assert.Equal(t, "ASSET-2025-00001", asset.DeviceNumber)
	assert.Equal(t, "Dell Technologies", asset.Manufacturer)
	assert.Equal(t, "Good", asset.Status)
	assert.Equal(t, "IT Department", asset.Department)
	assert.Equal(t, "Dell Technologies Dell OptiPlex 7090", asset.DeviceName)
	assert.Nil(t, asset.Latitude)
	assert.Nil(t, asset.Longitude)
	assert.Nil(t, asset.LastAudited)
	assert.NotEmpty(t, asset.ImagePath)

	// image persisted under the generated filename
	assert.Len(t, f.images.files, 1)

	// initial open audit recorded with frozen snapshot fields
	audits, err := f.svc.GetAuditsByAuditor("J. Doe")
	require.NoError(t, err)
	require.Len(t, audits, 1)
	assert.Equal(t, domain.AuditTypeAICapture, audits[0].AuditType)
	assert.Equal(t, asset.ID, audits[0].AssetID)
	assert.Equal(t, "ASSET-2025-00001", audits[0].DeviceNumber)
	assert.Equal(t, "IT Department", audits[0].Department)
	assert.False(t, audits[0].Completed())
	assert.Nil(t, audits[0].Condition)

	// evidence trail: the audit keeps the photo path and raw analysis
	require.NotNil(t, audits[0].EvidenceImagePath)
	assert.Equal(t, asset.ImagePath, *audits[0].EvidenceImagePath)
	require.NotNil(t, audits[0].AiAnalysisResult)
	assert.Equal(t, vision.MockAnalysis, *audits[0].AiAnalysisResult)

	assert.Contains(t, f.producer.keys, "asset.captured")
}

func TestProcessAssetImageWithCoordinates(t *testing.T) {
	f := newFixture()
	lat, lng := 13.7563, 100.5018

	asset, err := f.svc.ProcessAssetImage(context.Background(), []byte("IMG"), "J. Doe", &lat, &lng)
	require.NoError(t, err)

	require.NotNil(t, asset.Latitude)
	require.NotNil(t, asset.Longitude)
	assert.Equal(t, lat, *asset.Latitude)
	assert.Equal(t, lng, *asset.Longitude)
}

func TestProcessAssetImageValidation(t *testing.T) {
	f := newFixture()

	_, err := f.svc.ProcessAssetImage(context.Background(), nil, "J. Doe", nil, nil)
	assert.ErrorIs(t, err, services.ErrInvalidInput)

	_, err = f.svc.ProcessAssetImage(context.Background(), []byte("IMG"), "  ", nil, nil)
	assert.ErrorIs(t, err, services.ErrInvalidInput)
}

func TestProcessAssetImageStoreFailure(t *testing.T) {
	f := newFixture()
	f.images.failure = errors.New("disk full")

	_, err := f.svc.ProcessAssetImage(context.Background(), []byte("IMG"), "J. Doe", nil, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "store image failed")
	assert.Empty(t, f.store.assets)
}

func TestProcessAssetImageAuditWriteFailure(t *testing.T) {
	f := newFixture()
	f.store.auditWriteErr = errors.New("audits table locked")

	_, err := f.svc.ProcessAssetImage(context.Background(), []byte("IMG"), "J. Doe", nil, nil)
	require.Error(t, err)

	// the capture write is all-or-nothing: no asset without its audit
	assert.Empty(t, f.store.assets)
	assert.Empty(t, f.store.audits)
	assert.NotContains(t, f.producer.keys, "asset.captured")
}

func TestProcessAssetImageDuplicateDeviceNumber(t *testing.T) {
	f := newFixture()

	_, err := f.svc.ProcessAssetImage(context.Background(), []byte("IMG"), "J. Doe", nil, nil)
	require.NoError(t, err)

	// offline mode always extracts ASSET-2025-00001, so a second capture collides
	_, err = f.svc.ProcessAssetImage(context.Background(), []byte("IMG2"), "J. Doe", nil, nil)
	assert.ErrorIs(t, err, repository.ErrDuplicateDeviceNumber)
	assert.Len(t, f.store.assets, 1)
}

/* =========================
   AUDIT LIFECYCLE
========================= */

func captureAsset(t *testing.T, f *fixture) (*domain.Asset, domain.Audit) {
	t.Helper()
	asset, err := f.svc.ProcessAssetImage(context.Background(), []byte("IMG"), "J. Doe", nil, nil)
	require.NoError(t, err)
	audits, err := f.svc.GetAuditsByAuditor("J. Doe")
	require.NoError(t, err)
	require.Len(t, audits, 1)
	return asset, audits[0]
}

func TestCompleteAudit(t *testing.T) {
	f := newFixture()
	asset, open := captureAsset(t, f)

	audit, err := f.svc.CompleteAudit(open.ID, "Fair", "scuffed case", "In Use")
	require.NoError(t, err)

	require.NotNil(t, audit.CompletedAt)
	require.NotNil(t, audit.Condition)
	assert.Equal(t, "Fair", *audit.Condition)
	assert.Equal(t, "scuffed case", *audit.Notes)
	assert.Equal(t, "In Use", *audit.Status)

	// outcome propagates to the asset
	updated, err := f.svc.GetAssetById(asset.ID)
	require.NoError(t, err)
	assert.Equal(t, "In Use", updated.Status)
	require.NotNil(t, updated.LastAudited)

	assert.Contains(t, f.producer.keys, "audit.completed")
}

func TestCompleteAuditSaveFailure(t *testing.T) {
	f := newFixture()
	asset, open := captureAsset(t, f)
	f.store.completionErr = errors.New("connection reset")

	_, err := f.svc.CompleteAudit(open.ID, "Fair", "scuffed case", "In Use")
	require.Error(t, err)

	// the transition is atomic: the audit stays open and the asset is untouched
	current, err := f.svc.GetAuditById(open.ID)
	require.NoError(t, err)
	assert.False(t, current.Completed())
	assert.Nil(t, current.CompletedAt)
	assert.Nil(t, current.Condition)

	kept, err := f.svc.GetAssetById(asset.ID)
	require.NoError(t, err)
	assert.Equal(t, asset.Status, kept.Status)
	assert.Nil(t, kept.LastAudited)
	assert.NotContains(t, f.producer.keys, "audit.completed")
}

func TestCompleteAuditNotFound(t *testing.T) {
	f := newFixture()
	captureAsset(t, f)

	_, err := f.svc.CompleteAudit(999, "Fair", "scuffed case", "In Use")
	assert.ErrorIs(t, err, repository.ErrAuditNotFound)

	// nothing changed
	audits, _ := f.svc.GetAllAudits()
	require.Len(t, audits, 1)
	assert.False(t, audits[0].Completed())
}

func TestCompleteAuditTwiceRejected(t *testing.T) {
	f := newFixture()
	_, open := captureAsset(t, f)

	first, err := f.svc.CompleteAudit(open.ID, "Fair", "scuffed case", "In Use")
	require.NoError(t, err)

	_, err = f.svc.CompleteAudit(open.ID, "Poor", "second pass", "Retired")
	assert.ErrorIs(t, err, services.ErrAuditAlreadyCompleted)

	// terminal state untouched
	current, err := f.svc.GetAuditById(open.ID)
	require.NoError(t, err)
	assert.Equal(t, *first.Condition, *current.Condition)
	assert.Equal(t, *first.CompletedAt, *current.CompletedAt)
}

func TestCompleteAuditValidation(t *testing.T) {
	f := newFixture()
	_, open := captureAsset(t, f)

	for _, in := range [][3]string{
		{"", "notes", "status"},
		{"Fair", "", "status"},
		{"Fair", "notes", ""},
		{"  ", "notes", "status"},
	} {
		_, err := f.svc.CompleteAudit(open.ID, in[0], in[1], in[2])
		assert.ErrorIs(t, err, services.ErrInvalidInput)
	}
}
