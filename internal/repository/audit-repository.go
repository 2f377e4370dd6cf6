package repository

import (
	"errors"
	"log"

	"github.com/SundayYogurt/asset_audit_service/internal/domain"
	"gorm.io/gorm"
)

var ErrAuditNotFound = errors.New("audit not found")

type AuditRepository interface {
	CreateAudit(audit *domain.Audit) (*domain.Audit, error)
	SaveAudit(audit *domain.Audit) error
	SaveCompletion(audit *domain.Audit, asset *domain.Asset) error
	FindAuditById(auditID uint) (*domain.Audit, error)
	FindAllAudits() ([]domain.Audit, error)
	FindAuditsByAuditor(auditorName string) ([]domain.Audit, error)
}

type auditRepository struct {
	db *gorm.DB
}

func NewAuditRepository(db *gorm.DB) AuditRepository {
	return &auditRepository{db: db}
}

func (r *auditRepository) CreateAudit(audit *domain.Audit) (*domain.Audit, error) {
	if audit == nil {
		return nil, errors.New("nil audit")
	}

	if err := r.db.Create(audit).Error; err != nil {
		log.Printf("create audit error: %v", err)
		return nil, err
	}

	return audit, nil
}

func (r *auditRepository) SaveAudit(audit *domain.Audit) error {
	if audit == nil {
		return errors.New("nil audit")
	}

	if err := r.db.Save(audit).Error; err != nil {
		log.Printf("save audit error: %v", err)
		return err
	}
	return nil
}

// SaveCompletion writes the completed audit and the updated asset in one
// transaction; a failure rolls both back so the audit never ends up terminal
// without its status propagated.
func (r *auditRepository) SaveCompletion(audit *domain.Audit, asset *domain.Asset) error {
	if audit == nil || asset == nil {
		return errors.New("nil audit or asset")
	}

	err := r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Save(audit).Error; err != nil {
			return err
		}
		return tx.Save(asset).Error
	})
	if err != nil {
		log.Printf("save completion error: %v", err)
		return err
	}
	return nil
}

func (r *auditRepository) FindAuditById(auditID uint) (*domain.Audit, error) {
	audit := &domain.Audit{}

	if err := r.db.First(audit, auditID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAuditNotFound
		}
		log.Printf("find audit by id error: %v", err)
		return nil, err
	}

	return audit, nil
}

func (r *auditRepository) FindAllAudits() ([]domain.Audit, error) {
	var audits []domain.Audit
	if err := r.db.Order("audit_date DESC").Find(&audits).Error; err != nil {
		return nil, err
	}
	return audits, nil
}

func (r *auditRepository) FindAuditsByAuditor(auditorName string) ([]domain.Audit, error) {
	var audits []domain.Audit
	if err := r.db.Where("auditor_name = ?", auditorName).Find(&audits).Error; err != nil {
		return nil, err
	}
	return audits, nil
}
