package handler

import (
	"errors"
	"net/http"

	"shortlink/internal/models"
	"shortlink/internal/service"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type LinkHandler struct {
	service service.LinkService
	logger  *zap.Logger
}

func NewLinkHandler(service service.LinkService, logger *zap.Logger) *LinkHandler {
	return &LinkHandler{
		service: service,
		logger:  logger,
	}
}

type CreateLinkRequest struct {
	TargetURL  string `json:"targetUrl" binding:"required"`
	CustomCode string `json:"customCode,omitempty"`
}

type CreateLinkResponse struct {
	Message string       `json:"message"`
	Link    *models.Link `json:"link"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// CreateLink handles POST /api/links.
func (h *LinkHandler) CreateLink(c *gin.Context) {
	var req CreateLinkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("Invalid request body", zap.Error(err))
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_request",
			Message: "Request body must include targetUrl",
		})
		return
	}

	link, err := h.service.Create(c.Request.Context(), &models.CreateLinkInput{
		TargetURL:  req.TargetURL,
		CustomCode: req.CustomCode,
	})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidTarget):
			c.JSON(http.StatusBadRequest, ErrorResponse{
				Error:   "invalid_target",
				Message: "Target URL must start with http:// or https:// and contain no whitespace",
			})
		case errors.Is(err, service.ErrInvalidCode):
			c.JSON(http.StatusBadRequest, ErrorResponse{
				Error:   "invalid_code",
				Message: "Custom code must be 6-8 alphanumeric characters",
			})
		case errors.Is(err, service.ErrCodeConflict):
			c.JSON(http.StatusConflict, ErrorResponse{
				Error:   "code_conflict",
				Message: "Short code is already taken, pick another one",
			})
		case errors.Is(err, service.ErrGenerationExhausted):
			c.JSON(http.StatusInternalServerError, ErrorResponse{
				Error:   "generation_exhausted",
				Message: "Could not generate a free short code, please retry",
			})
		default:
			h.logger.Error("Failed to create link", zap.Error(err))
			c.JSON(http.StatusInternalServerError, ErrorResponse{
				Error:   "internal_error",
				Message: "Failed to create link",
			})
		}
		return
	}

	c.JSON(http.StatusCreated, CreateLinkResponse{
		Message: "Link created",
		Link:    link,
	})
}

// ListLinks handles GET /api/links.
func (h *LinkHandler) ListLinks(c *gin.Context) {
	links, err := h.service.List(c.Request.Context())
	if err != nil {
		h.logger.Error("Failed to list links", zap.Error(err))
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "internal_error",
			Message: "Failed to list links",
		})
		return
	}

	c.JSON(http.StatusOK, links)
}

// GetLink handles GET /api/links/:code.
func (h *LinkHandler) GetLink(c *gin.Context) {
	code := c.Param("code")

	link, err := h.service.Get(c.Request.Context(), code)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			c.JSON(http.StatusNotFound, ErrorResponse{
				Error:   "not_found",
				Message: "Link not found",
			})
			return
		}
		h.logger.Error("Failed to get link", zap.String("code", code), zap.Error(err))
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "internal_error",
			Message: "Failed to get link",
		})
		return
	}

	c.JSON(http.StatusOK, link)
}

// DeleteLink handles DELETE /api/links/:code.
func (h *LinkHandler) DeleteLink(c *gin.Context) {
	code := c.Param("code")

	if err := h.service.Delete(c.Request.Context(), code); err != nil {
		if errors.Is(err, service.ErrNotFound) {
			c.JSON(http.StatusNotFound, ErrorResponse{
				Error:   "not_found",
				Message: "Link not found",
			})
			return
		}
		h.logger.Error("Failed to delete link", zap.String("code", code), zap.Error(err))
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "internal_error",
			Message: "Failed to delete link",
		})
		return
	}

	c.Status(http.StatusNoContent)
}

// Redirect handles GET /:code, counting the click and issuing a 302.
func (h *LinkHandler) Redirect(c *gin.Context) {
	code := c.Param("code")

	targetURL, err := h.service.RedirectAndCount(c.Request.Context(), code)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			c.JSON(http.StatusNotFound, ErrorResponse{
				Error:   "not_found",
				Message: "Link not found",
			})
			return
		}
		h.logger.Error("Failed to redirect", zap.String("code", code), zap.Error(err))
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "internal_error",
			Message: "Failed to resolve link",
		})
		return
	}

	c.Redirect(http.StatusFound, targetURL)
}
