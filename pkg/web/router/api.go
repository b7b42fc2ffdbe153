package router

import (
	"github.com/cloudwego/hertz/pkg/app/server"

	"sanchari/pkg/common/config"
	followsvc "sanchari/pkg/core/follow/service"
	"sanchari/pkg/core/storage"
	usermodel "sanchari/pkg/core/user/model"
	usersvc "sanchari/pkg/core/user/service"
	vsvc "sanchari/pkg/core/verification/service"
	"sanchari/pkg/web/handler"
	"sanchari/pkg/web/middleware"
)

// Deps 路由所需的服务实例，由 cmd/web 组装
type Deps struct {
	DB           handler.Pinger
	Users        *usersvc.UserService
	Follows      *followsvc.FollowService
	Verification *vsvc.StepGate
	Files        *storage.LocalStore
}

// RegisterAPIs 注册所有API路由
func RegisterAPIs(h *server.Hertz, cfg *config.Config, deps Deps) error {
	healthHandler := handler.NewHealthCheckHandler(deps.DB)
	userHandler := handler.NewUserHandler(deps.Users)
	followHandler := handler.NewFollowHandler(deps.Follows)
	verificationHandler := handler.NewVerificationHandler(deps.Verification, deps.Files)

	auth, err := middleware.JWTAuthMiddleware(&cfg.Middleware.JWT)
	if err != nil {
		return err
	}

	// 注册全局中间件（按执行顺序）
	h.Use(
		middleware.RecoveryMiddleware(cfg),
		middleware.RequestIDMiddleware(),
		middleware.LoggerMiddleware(),
		middleware.SecurityCheckMiddleware(cfg.Middleware.Security),
		middleware.TimeoutMiddleware(cfg.Middleware.Timeout.RequestTimeout),
		middleware.CORSMiddleware(cfg.Middleware.CORS),
		middleware.RateLimitMiddleware(
			cfg.Middleware.RateLimit.Rate,
			cfg.Middleware.RateLimit.Interval,
		),
	)

	// 基础接口组
	h.GET("/health", healthHandler.AdvancedHealthCheck)

	// 证件文件
	h.GET("/files/*path", auth, verificationHandler.Document)

	// 业务接口组
	apiGroup := h.Group("/api/v1")
	{
		// 用户相关接口
		userGroup := apiGroup.Group("/users")
		{
			userGroup.POST("/register", userHandler.Register)
			userGroup.POST("/login", userHandler.Login)

			// 需要身份认证的接口
			userGroup.GET("/me", auth, userHandler.Me)
			userGroup.PUT("/password", auth, userHandler.ChangePassword)
			userGroup.GET("/:uid", auth, userHandler.Profile)
		}

		followGroup := apiGroup.Group("/follows", auth)
		{
			followGroup.GET("/sections", followHandler.Sections)
			followGroup.POST("/:uid", followHandler.Follow)
			followGroup.DELETE("/:uid", followHandler.Unfollow)
		}

		// 账户升级认证流程
		verifyGroup := apiGroup.Group("/verification")
		{
			verifyGroup.GET("/roles/:role/steps", verificationHandler.Steps)

			changes := verifyGroup.Group("/changes", auth)
			changes.POST("", verificationHandler.Start)
			changes.GET("/current", verificationHandler.Current)
			changes.DELETE("/current", verificationHandler.Abort)
			changes.PUT("/current/steps/:step", verificationHandler.SaveStep)
			changes.POST("/current/advance", verificationHandler.Advance)
			changes.POST("/:request/steps/:step/document", verificationHandler.UploadDocument)
			changes.GET("/:request/submittable", verificationHandler.Submittable)
			changes.POST("/:request/submit", verificationHandler.Submit)
		}

		adminGroup := apiGroup.Group("/admin", auth, middleware.RequireRole(usermodel.RoleAdmin))
		{
			adminGroup.POST("/verification/changes/:request/review", verificationHandler.Review)
		}
	}
	return nil
}
