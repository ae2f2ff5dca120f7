package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Version is stamped via -ldflags at build time.
var Version = "dev"

type HealthResponse struct {
	OK      bool   `json:"ok"`
	Version string `json:"version"`
	Message string `json:"message"`
}

// HealthCheck handles GET /healthz.
func HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, HealthResponse{
		OK:      true,
		Version: Version,
		Message: "shortlink is up",
	})
}
