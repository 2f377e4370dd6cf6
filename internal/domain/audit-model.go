package domain

import "time"

const AuditTypeAICapture = "AI_CAPTURE"

// Audit is a single inspection event against one Asset. It is created open
// (condition/notes/status/completed_at all null) and transitions to completed
// exactly once; it is never reopened.
type Audit struct {
	ID      uint  `gorm:"primaryKey" json:"id"`
	AssetID uint  `gorm:"not null;index" json:"asset_id"`
	Asset   Asset `gorm:"foreignKey:AssetID" json:"-"`

	AuditType      string   `gorm:"not null" json:"audit_type"`
	AuditorName    string   `json:"auditor_name"`
	AuditLocation  string   `json:"audit_location"`
	AuditLatitude  *float64 `json:"audit_latitude,omitempty"`
	AuditLongitude *float64 `json:"audit_longitude,omitempty"`

	// filled by completion only
	Condition *string `json:"condition,omitempty"`
	Notes     *string `gorm:"type:text" json:"notes,omitempty"`
	Status    *string `json:"status,omitempty"`

	EvidenceImagePath *string `json:"evidence_image_path,omitempty"`
	AiAnalysisResult  *string `gorm:"type:text" json:"ai_analysis_result,omitempty"`

	// snapshot of the Asset at audit-creation time, kept for query
	// convenience; intentionally never re-synchronized
	DeviceNumber string `json:"device_number"`
	Department   string `json:"department"`

	AuditDate   time.Time  `gorm:"autoCreateTime;<-:create" json:"audit_date"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// Completed reports whether the terminal transition already happened.
func (a *Audit) Completed() bool {
	return a.CompletedAt != nil
}

// Complete applies the one-shot completion transition.
func (a *Audit) Complete(condition, notes, status string, at time.Time) {
	a.Condition = &condition
	a.Notes = &notes
	a.Status = &status
	a.CompletedAt = &at
}
