package repository

import (
	"errors"
	"log"

	"github.com/SundayYogurt/asset_audit_service/internal/domain"
	"github.com/SundayYogurt/asset_audit_service/internal/helper"
	"gorm.io/gorm"
)

var (
	ErrAssetNotFound         = errors.New("asset not found")
	ErrDuplicateDeviceNumber = errors.New("device number already exists")
)

type AssetRepository interface {
	CreateAsset(asset *domain.Asset) (*domain.Asset, error)
	CreateAssetWithAudit(asset *domain.Asset, audit *domain.Audit) (*domain.Asset, error)
	SaveAsset(asset *domain.Asset) error
	FindAssetById(assetID uint) (*domain.Asset, error)
	FindAllAssets() ([]domain.Asset, error)
	FindAssetsByDepartment(department string) ([]domain.Asset, error)
}

type assetRepository struct {
	db *gorm.DB
}

func NewAssetRepository(db *gorm.DB) AssetRepository {
	return &assetRepository{db: db}
}

func (r *assetRepository) CreateAsset(asset *domain.Asset) (*domain.Asset, error) {
	if asset == nil {
		return nil, errors.New("nil asset")
	}

	if err := r.db.Create(asset).Error; err != nil {
		if helper.IsDuplicateKey(err) {
			return nil, ErrDuplicateDeviceNumber
		}
		log.Printf("create asset error: %v", err)
		return nil, err
	}

	return asset, nil
}

// CreateAssetWithAudit persists the asset and its initial open audit in one
// transaction, so a capture never leaves an asset without its audit record.
// The audit's asset reference and snapshot columns are filled from the
// freshly-created asset.
func (r *assetRepository) CreateAssetWithAudit(asset *domain.Asset, audit *domain.Audit) (*domain.Asset, error) {
	if asset == nil || audit == nil {
		return nil, errors.New("nil asset or audit")
	}

	err := r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(asset).Error; err != nil {
			return err
		}
		audit.AssetID = asset.ID
		audit.DeviceNumber = asset.DeviceNumber
		audit.Department = asset.Department
		return tx.Create(audit).Error
	})
	if err != nil {
		if helper.IsDuplicateKey(err) {
			return nil, ErrDuplicateDeviceNumber
		}
		log.Printf("create asset with audit error: %v", err)
		return nil, err
	}

	return asset, nil
}

func (r *assetRepository) SaveAsset(asset *domain.Asset) error {
	if asset == nil {
		return errors.New("nil asset")
	}

	if err := r.db.Save(asset).Error; err != nil {
		log.Printf("save asset error: %v", err)
		return err
	}
	return nil
}

func (r *assetRepository) FindAssetById(assetID uint) (*domain.Asset, error) {
	asset := &domain.Asset{}

	if err := r.db.First(asset, assetID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAssetNotFound
		}
		log.Printf("find asset by id error: %v", err)
		return nil, err
	}

	return asset, nil
}

func (r *assetRepository) FindAllAssets() ([]domain.Asset, error) {
	var assets []domain.Asset
	if err := r.db.Order("created_at DESC").Find(&assets).Error; err != nil {
		return nil, err
	}
	return assets, nil
}

func (r *assetRepository) FindAssetsByDepartment(department string) ([]domain.Asset, error) {
	var assets []domain.Asset
	if err := r.db.Where("department = ?", department).Find(&assets).Error; err != nil {
		return nil, err
	}
	return assets, nil
}
