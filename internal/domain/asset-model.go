package domain

import "time"

// Asset is one tracked physical item. Created exactly once by the capture
// flow; after that only a completed audit touches it (status + last_audited).
type Asset struct {
	ID           uint   `gorm:"primaryKey" json:"id"`
	DeviceNumber string `gorm:"uniqueIndex;not null" json:"device_number"`
	DeviceName   string `gorm:"not null" json:"device_name"`
	Department   string `json:"department"`
	Location     string `json:"location"`

	// nullable independently - a partial coordinate pair is allowed
	Latitude  *float64 `json:"latitude,omitempty"`
	Longitude *float64 `json:"longitude,omitempty"`

	Barcode      string `json:"barcode"`
	SerialNumber string `json:"serial_number"`
	Model        string `json:"model"`
	Manufacturer string `json:"manufacturer"`
	Status       string `json:"status"`

	AiExtractedInfo string `gorm:"type:text" json:"ai_extracted_info"`
	ImagePath       string `json:"image_path"`

	CreatedAt   time.Time  `gorm:"autoCreateTime;<-:create" json:"created_at"`
	LastAudited *time.Time `json:"last_audited,omitempty"`
}
