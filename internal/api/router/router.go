package router

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"gradebook/backend/config"
	"gradebook/backend/internal/api/handler"
	"gradebook/backend/internal/api/middleware"
	"gradebook/backend/pkg/redis"
)

// Setup 初始化并返回 Gin 路由引擎
// rdb 可为 nil，此时上传接口不做限流
func Setup(cfg *config.Config, h *handler.Handler, rdb *redis.Client, logger *zap.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()

	// ── 全局中间件 ──
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(logger))
	r.Use(middleware.SecurityHeaders())
	r.Use(middleware.CORS(cfg.Server.CORS.AllowOrigins))

	// ── 健康检查 ──
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	// ── API v1 ──
	v1 := r.Group("/api/v1")
	{
		workbooks := v1.Group("/workbooks")
		{
			workbooks.POST("",
				middleware.BodyLimit(cfg.Server.MaxUploadBytes()),
				middleware.RateLimit(rdb, cfg.RateLimit.UploadPerMinute, time.Minute),
				h.Workbook.Upload,
			)
			workbooks.DELETE("/:id", h.Workbook.Close)

			workbooks.GET("/:id/records", h.Workbook.ListRecords)
			workbooks.POST("/:id/records", h.Workbook.AppendRecords)
			workbooks.GET("/:id/records/:row", h.Workbook.GetRecord)
			workbooks.PUT("/:id/records/:row", h.Workbook.UpdateRecord)

			workbooks.GET("/:id/file", h.Workbook.Download)
			workbooks.GET("/:id/summary", h.Report.Summary)
			workbooks.GET("/:id/report", h.Report.ExportReport)
		}
	}

	return r
}
