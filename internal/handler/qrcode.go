package handler

import (
	"errors"
	"net/http"

	"shortlink/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/skip2/go-qrcode"
	"go.uber.org/zap"
)

type QRCodeHandler struct {
	service service.LinkService
	baseURL string
	logger  *zap.Logger
}

func NewQRCodeHandler(service service.LinkService, baseURL string, logger *zap.Logger) *QRCodeHandler {
	return &QRCodeHandler{
		service: service,
		baseURL: baseURL,
		logger:  logger,
	}
}

// Generate handles GET /api/links/:code/qr, returning a PNG QR code pointing
// at the short URL. The link must exist.
func (h *QRCodeHandler) Generate(c *gin.Context) {
	code := c.Param("code")

	if _, err := h.service.Get(c.Request.Context(), code); err != nil {
		if errors.Is(err, service.ErrNotFound) {
			c.JSON(http.StatusNotFound, ErrorResponse{
				Error:   "not_found",
				Message: "Link not found",
			})
			return
		}
		h.logger.Error("Failed to resolve link for QR code", zap.String("code", code), zap.Error(err))
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "internal_error",
			Message: "Failed to generate QR code",
		})
		return
	}

	png, err := qrcode.Encode(h.baseURL+"/"+code, qrcode.Medium, 256)
	if err != nil {
		h.logger.Error("Failed to encode QR code", zap.String("code", code), zap.Error(err))
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "internal_error",
			Message: "Failed to generate QR code",
		})
		return
	}

	c.Header("Content-Disposition", "inline; filename=qrcode.png")
	c.Data(http.StatusOK, "image/png", png)
}
