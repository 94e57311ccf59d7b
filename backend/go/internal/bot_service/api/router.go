package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"StudyBot/backend/go/internal/config"
	"StudyBot/backend/go/internal/database/mysql"
	"StudyBot/backend/go/internal/database/redis"
)

// SetupRouter 配置和返回一个 Gin 引擎实例。
func SetupRouter(h *Handler, cfg *config.AppConfig) (*gin.Engine, error) {
	// 使用默认中间件 (logger, recovery) 创建一个 Gin 引擎。
	r := gin.Default()

	// webhook 路由: 验证握手与事件接收共用一个路径。
	webhook := r.Group("/webhook")
	if cfg.Middleware.RateLimiter.Enabled {
		limiter, err := createRateLimiter(cfg.Middleware.RateLimiter)
		if err != nil {
			return nil, err
		}
		webhook.Use(RateLimit(limiter))
	}
	{
		webhook.GET("", h.VerifyWebhook)
		webhook.POST("", h.ReceiveWebhook)
	}

	// 管理接口路由组，登录后持 JWT 访问。
	apiV1 := r.Group("/api/v1")
	{
		admin := apiV1.Group("/admin")
		admin.POST("/login", h.AdminLogin)

		protected := admin.Group("")
		protected.Use(AuthMiddleware(cfg.Admin.JwtSecret))
		{
			protected.GET("/users/:id/facts", h.ListUserFacts)
			protected.DELETE("/users/:id/facts/:factID", h.DeleteUserFact)
		}
	}

	// 存活探针: 依赖全部可达才算健康。
	r.GET("/healthz", func(c *gin.Context) {
		ctx := c.Request.Context()
		if err := mysql.HealthCheck(ctx); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "mysql: " + err.Error()})
			return
		}
		if err := redis.HealthCheck(ctx); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "redis: " + err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	return r, nil
}
