package router

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/Isaaja/wimas-app-sub000/config"
	"github.com/Isaaja/wimas-app-sub000/internal/api/handler"
	"github.com/Isaaja/wimas-app-sub000/internal/api/middleware"
	"github.com/Isaaja/wimas-app-sub000/internal/model"
	"github.com/Isaaja/wimas-app-sub000/pkg/jwt"
	"github.com/Isaaja/wimas-app-sub000/pkg/redis"
)

// Setup 初始化并返回 Gin 路由引擎
func Setup(cfg *config.Config, h *handler.Handler, jwtMgr *jwt.Manager, rdb *redis.Client, logger *zap.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()

	// ── 全局中间件 ──
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(logger))
	r.Use(middleware.SecurityHeaders())
	r.Use(middleware.CORS(cfg.Server.CORS.AllowOrigins))
	// 请求体上限取附件上限再加表单自身的余量
	r.Use(middleware.BodyLimit(cfg.Upload.MaxFileSize + 1<<20))

	// ── 健康检查 ──
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	// ── API v1 ──
	v1 := r.Group("/api/v1")
	{
		// 认证模块（无需认证；登录注册带限流）
		auth := v1.Group("/auth")
		{
			auth.POST("/login", middleware.RateLimit(rdb, 10, time.Minute), h.Auth.Login)
			auth.POST("/register", middleware.RateLimit(rdb, 5, time.Minute), h.Auth.Register)
			auth.POST("/refresh", h.Auth.Refresh)
		}

		// 需要认证的路由
		authorized := v1.Group("")
		authorized.Use(middleware.JWTAuth(jwtMgr, rdb))
		{
			// 认证模块（需要认证）
			authorized.POST("/auth/logout", h.Auth.Logout)
			authorized.GET("/auth/me", h.Auth.GetCurrentUser)
			authorized.PUT("/auth/password", h.Auth.ChangePassword)

			// 物资模块
			products := authorized.Group("/products")
			{
				products.GET("", h.Product.List)
				products.GET("/stock-check", middleware.RoleAuth(model.RoleAdmin), h.Product.StockCheck)
				products.GET("/:id", h.Product.Get)
				products.GET("/:id/units", middleware.RoleAuth(model.RoleAdmin), h.Product.ListUnits)
				products.PUT("/:id/units/repair", middleware.RoleAuth(model.RoleAdmin), h.Product.RepairUnit)
			}

			// 借用模块
			loans := authorized.Group("/loans")
			{
				loans.POST("", h.Loan.Create)
				loans.GET("", h.Loan.List)
				loans.GET("/:id", h.Loan.Get)
				loans.PUT("/:id/items", middleware.RoleAuth(model.RoleAdmin), h.Loan.UpdateItems)
				loans.POST("/:id/approve", middleware.RoleAuth(model.RoleAdmin), h.Loan.Approve)
				loans.POST("/:id/reject", middleware.RoleAuth(model.RoleAdmin), h.Loan.Reject)
				loans.POST("/:id/return", h.Loan.Return) // 发起人校验在 Service 层
				loans.POST("/:id/done", middleware.RoleAuth(model.RoleAdmin), h.Loan.Done)
			}

			// 导出模块
			authorized.GET("/export/loans", middleware.RoleAuth(model.RoleAdmin), h.Export.ExportLoans)
		}
	}

	return r
}
