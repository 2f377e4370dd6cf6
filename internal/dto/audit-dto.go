package dto

type CompleteAuditRequest struct {
	Condition string `json:"condition" form:"condition"`
	Notes     string `json:"notes" form:"notes"`
	Status    string `json:"status" form:"status"`
}

type CompleteAuditResponse struct {
	AuditID     uint   `json:"audit_id"`
	Condition   string `json:"condition"`
	Status      string `json:"status"`
	CompletedAt string `json:"completed_at"`
}

type CaptureAssetResponse struct {
	AssetID      uint     `json:"asset_id"`
	DeviceNumber string   `json:"device_number"`
	DeviceName   string   `json:"device_name"`
	Department   string   `json:"department"`
	Status       string   `json:"status"`
	ImagePath    string   `json:"image_path"`
	Latitude     *float64 `json:"latitude,omitempty"`
	Longitude    *float64 `json:"longitude,omitempty"`
}

// AssetCapturedEvent / AuditCompletedEvent are the Kafka payloads.
type AssetCapturedEvent struct {
	AssetID      uint   `json:"asset_id"`
	DeviceNumber string `json:"device_number"`
	AuditorName  string `json:"auditor_name"`
	CapturedAt   string `json:"captured_at"`
}

type AuditCompletedEvent struct {
	AuditID      uint   `json:"audit_id"`
	AssetID      uint   `json:"asset_id"`
	DeviceNumber string `json:"device_number"`
	Status       string `json:"status"`
	CompletedAt  string `json:"completed_at"`
}
