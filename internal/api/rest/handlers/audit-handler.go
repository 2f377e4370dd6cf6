package handlers

import (
	"errors"
	"strconv"
	"time"

	"github.com/SundayYogurt/asset_audit_service/internal/dto"
	"github.com/SundayYogurt/asset_audit_service/internal/repository"
	"github.com/SundayYogurt/asset_audit_service/internal/services"
	"github.com/SundayYogurt/asset_audit_service/pkg/utils"
	"github.com/gofiber/fiber/v2"

	respond "github.com/SundayYogurt/asset_audit_service/internal/helper/utils"
)

// MaxImageSize caps uploads; the fiber app's BodyLimit must agree with it so
// oversized requests are refused consistently.
const MaxImageSize = 12 * 1024 * 1024 // 12MB

type AuditHandler struct {
	svc services.AssetAuditService
}

func NewAuditHandler(svc services.AssetAuditService) *AuditHandler {
	return &AuditHandler{svc: svc}
}

func (h *AuditHandler) SetupRoutes(app *fiber.App) {
	api := app.Group("/api")

	// Capture
	api.Post("/audit/capture", h.CaptureAsset)

	// Audit lifecycle
	api.Post("/audits/:auditId/complete", h.CompleteAudit)

	// Assets
	api.Get("/assets", h.GetAllAssets)
	api.Get("/assets/department/:department", h.GetAssetsByDepartment)
	api.Get("/assets/:id", h.GetAsset)

	// Audits
	api.Get("/audits", h.GetAllAudits)
	api.Get("/audits/auditor/:auditorName", h.GetAuditsByAuditor)
	api.Get("/audits/:id", h.GetAudit)

	// Evidence images
	app.Get("/images/assets/:filename", h.GetAssetImage)
}

// CaptureAsset accepts a multipart photo plus auditor context and creates the
// Asset via AI-assisted extraction.
func (h *AuditHandler) CaptureAsset(ctx *fiber.Ctx) error {
	file, err := ctx.FormFile("imageFile")
	if err != nil {
		return respond.ResponseError(ctx, fiber.StatusBadRequest, "imageFile is required")
	}

	auditorName := ctx.FormValue("auditorName")
	if auditorName == "" {
		return respond.ResponseError(ctx, fiber.StatusBadRequest, "auditorName is required")
	}

	latitude, err := optionalFloat(ctx.FormValue("latitude"))
	if err != nil {
		return respond.ResponseError(ctx, fiber.StatusBadRequest, "latitude must be a number")
	}
	longitude, err := optionalFloat(ctx.FormValue("longitude"))
	if err != nil {
		return respond.ResponseError(ctx, fiber.StatusBadRequest, "longitude must be a number")
	}

	f, err := file.Open()
	if err != nil {
		return respond.ResponseError(ctx, fiber.StatusInternalServerError, "cannot open uploaded file")
	}
	defer f.Close()

	image, err := utils.ReadAllLimit(f, MaxImageSize)
	if err != nil {
		return respond.ResponseError(ctx, fiber.StatusBadRequest, "file too large (max 12MB)")
	}

	asset, err := h.svc.ProcessAssetImage(ctx.UserContext(), image, auditorName, latitude, longitude)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrInvalidInput):
			return respond.ResponseError(ctx, fiber.StatusBadRequest, err.Error())
		case errors.Is(err, repository.ErrDuplicateDeviceNumber):
			return respond.ResponseError(ctx, fiber.StatusConflict, "device number already exists, please resubmit")
		default:
			return respond.ResponseError(ctx, fiber.StatusInternalServerError, "failed to process image: "+err.Error())
		}
	}

	return respond.ResponseSuccess(ctx, fiber.StatusCreated, fiber.Map{
		"message": "Asset captured successfully! Device Number: " + asset.DeviceNumber,
		"asset": dto.CaptureAssetResponse{
			AssetID:      asset.ID,
			DeviceNumber: asset.DeviceNumber,
			DeviceName:   asset.DeviceName,
			Department:   asset.Department,
			Status:       asset.Status,
			ImagePath:    asset.ImagePath,
			Latitude:     asset.Latitude,
			Longitude:    asset.Longitude,
		},
	})
}

func (h *AuditHandler) CompleteAudit(ctx *fiber.Ctx) error {
	auditID, err := parseID(ctx.Params("auditId"))
	if err != nil {
		return respond.ResponseError(ctx, fiber.StatusBadRequest, "invalid audit id")
	}

	var requestBody dto.CompleteAuditRequest
	if err := ctx.BodyParser(&requestBody); err != nil {
		return respond.ResponseError(ctx, fiber.StatusBadRequest, "condition, notes and status are required")
	}

	audit, err := h.svc.CompleteAudit(auditID, requestBody.Condition, requestBody.Notes, requestBody.Status)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrInvalidInput):
			return respond.ResponseError(ctx, fiber.StatusBadRequest, err.Error())
		case errors.Is(err, repository.ErrAuditNotFound):
			return respond.ResponseError(ctx, fiber.StatusNotFound, "audit not found")
		case errors.Is(err, services.ErrAuditAlreadyCompleted):
			return respond.ResponseError(ctx, fiber.StatusConflict, "audit already completed")
		default:
			return respond.ResponseError(ctx, fiber.StatusInternalServerError, "failed to complete audit: "+err.Error())
		}
	}

	return respond.ResponseSuccess(ctx, fiber.StatusOK, fiber.Map{
		"message": "Audit completed successfully!",
		"audit": dto.CompleteAuditResponse{
			AuditID:     audit.ID,
			Condition:   *audit.Condition,
			Status:      *audit.Status,
			CompletedAt: audit.CompletedAt.Format(time.RFC3339),
		},
	})
}

func (h *AuditHandler) GetAllAssets(ctx *fiber.Ctx) error {
	assets, err := h.svc.GetAllAssets()
	if err != nil {
		return respond.ResponseError(ctx, fiber.StatusInternalServerError, "failed to list assets")
	}
	return respond.ResponseSuccess(ctx, fiber.StatusOK, assets)
}

func (h *AuditHandler) GetAsset(ctx *fiber.Ctx) error {
	assetID, err := parseID(ctx.Params("id"))
	if err != nil {
		return respond.ResponseError(ctx, fiber.StatusBadRequest, "invalid asset id")
	}

	asset, err := h.svc.GetAssetById(assetID)
	if err != nil {
		if errors.Is(err, repository.ErrAssetNotFound) {
			return respond.ResponseError(ctx, fiber.StatusNotFound, "asset not found")
		}
		return respond.ResponseError(ctx, fiber.StatusInternalServerError, "failed to find asset")
	}
	return respond.ResponseSuccess(ctx, fiber.StatusOK, asset)
}

func (h *AuditHandler) GetAssetsByDepartment(ctx *fiber.Ctx) error {
	assets, err := h.svc.GetAssetsByDepartment(ctx.Params("department"))
	if err != nil {
		return respond.ResponseError(ctx, fiber.StatusInternalServerError, "failed to list assets")
	}
	return respond.ResponseSuccess(ctx, fiber.StatusOK, assets)
}

func (h *AuditHandler) GetAllAudits(ctx *fiber.Ctx) error {
	audits, err := h.svc.GetAllAudits()
	if err != nil {
		return respond.ResponseError(ctx, fiber.StatusInternalServerError, "failed to list audits")
	}
	return respond.ResponseSuccess(ctx, fiber.StatusOK, audits)
}

func (h *AuditHandler) GetAudit(ctx *fiber.Ctx) error {
	auditID, err := parseID(ctx.Params("id"))
	if err != nil {
		return respond.ResponseError(ctx, fiber.StatusBadRequest, "invalid audit id")
	}

	audit, err := h.svc.GetAuditById(auditID)
	if err != nil {
		if errors.Is(err, repository.ErrAuditNotFound) {
			return respond.ResponseError(ctx, fiber.StatusNotFound, "audit not found")
		}
		return respond.ResponseError(ctx, fiber.StatusInternalServerError, "failed to find audit")
	}
	return respond.ResponseSuccess(ctx, fiber.StatusOK, audit)
}

func (h *AuditHandler) GetAuditsByAuditor(ctx *fiber.Ctx) error {
	audits, err := h.svc.GetAuditsByAuditor(ctx.Params("auditorName"))
	if err != nil {
		return respond.ResponseError(ctx, fiber.StatusInternalServerError, "failed to list audits")
	}
	return respond.ResponseSuccess(ctx, fiber.StatusOK, audits)
}

// GetAssetImage serves stored capture photos; content type is always JPEG.
func (h *AuditHandler) GetAssetImage(ctx *fiber.Ctx) error {
	image, err := h.svc.GetAssetImage(ctx.UserContext(), ctx.Params("filename"))
	if err != nil {
		return respond.ResponseError(ctx, fiber.StatusNotFound, "image not found")
	}
	ctx.Set(fiber.HeaderContentType, "image/jpeg")
	return ctx.Status(fiber.StatusOK).Send(image)
}

func parseID(raw string) (uint, error) {
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil || id == 0 {
		return 0, errors.New("invalid id")
	}
	return uint(id), nil
}

func optionalFloat(raw string) (*float64, error) {
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil, err
	}
	return &v, nil
}
