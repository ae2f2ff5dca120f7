package handler

import (
	"shortlink/internal/service"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func NewRouter(linkService service.LinkService, baseURL string, logger *zap.Logger) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())

	router.Use(func(c *gin.Context) {
		c.Next()
		logger.Info("Request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.String("ip", c.ClientIP()),
		)
	})

	linkHandler := NewLinkHandler(linkService, logger)
	qrHandler := NewQRCodeHandler(linkService, baseURL, logger)

	router.GET("/healthz", HealthCheck)

	api := router.Group("/api")
	{
		api.POST("/links", linkHandler.CreateLink)
		api.GET("/links", linkHandler.ListLinks)
		api.GET("/links/:code", linkHandler.GetLink)
		api.DELETE("/links/:code", linkHandler.DeleteLink)
		api.GET("/links/:code/qr", qrHandler.Generate)
	}

	// The catch-all redirect goes last; gin prefers static routes over the
	// parameter, so /healthz and /api are never shadowed by a short code.
	router.GET("/:code", linkHandler.Redirect)

	return router
}
