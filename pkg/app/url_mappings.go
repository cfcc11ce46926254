package app

import (
	"net/http"

	"studylog/internal/controllers"
	"studylog/internal/middleware"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func SetupMappings(app *Application) {
	cfg := app.Config

	app.Engine.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	app.Engine.GET("/metrics", gin.WrapH(promhttp.Handler()))

	login := app.Engine.Group("", middleware.RateLimitLogin(app.Limiter, cfg.LoginRateLimit))
	login.POST("/api/login", controllers.NewLoginController(cfg.PasswordHash, app.Sessions, cfg.SessionTTLHours*3600).Handle)

	authed := app.Engine.Group("", middleware.SessionAuth(app.Sessions))
	{
		authed.GET("/api/data", controllers.NewGetDataController(app.Records).Handle)
		authed.POST("/api/upload", controllers.NewUploadController(app.Uploads).Handle)
		authed.POST("/api/delete", controllers.NewDeleteController(app.Deletes).Handle)
		authed.POST("/api/thumbnails", controllers.NewObserveThumbnailController(app.Pipeline).Handle)

		authed.GET("/uploads/:date/:name", controllers.NewUploadFileController(app.Store).Handle)
		authed.GET("/thumbnails/:date/:name", controllers.NewThumbnailFileController(app.Store).Handle)
	}

	if cfg.PublicDir != "" {
		app.Engine.Static("/app", cfg.PublicDir)
	}
}
