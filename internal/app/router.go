package app

import (
	"ai_tutor_backend/docs"
	"ai_tutor_backend/internal/config"
	"ai_tutor_backend/internal/middleware"
	"ai_tutor_backend/internal/model"
	"ai_tutor_backend/pkg/monitoring"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

func (a *App) registerRoutes(router *gin.Engine, c *controllers, cfg *config.Config) {
	docs.SwaggerInfo.BasePath = "/api"
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler, ginSwagger.URL("/swagger/doc.json")))

	router.GET("/metrics", monitoring.PrometheusHandler())

	// 公共路由(无需登录)
	public := router.Group("/api")
	{
		public.GET("/health", c.health.HealthCheck)
		public.POST("/register", c.auth.Register)
		public.POST("/login", c.auth.Login)
	}

	// 需要授权的路由，登录后的每次请求都计入活跃时段
	authGroup := router.Group("/api")
	authGroup.Use(middleware.AuthMiddleware(cfg), middleware.ActivityMiddleware(a.services.activity))
	{
		// 学习计划
		authGroup.POST("/plans", c.plan.CreatePlan)
		authGroup.GET("/plans/active", c.plan.GetActivePlan)
		authGroup.PUT("/plans/:id/complete", c.plan.CompletePlan)

		// 任务
		authGroup.POST("/tasks", c.task.CreateTask)
		authGroup.GET("/tasks", c.task.GetTasks)
		authGroup.GET("/tasks/:id", c.task.GetTask)
		authGroup.PUT("/tasks/:id", c.task.UpdateTask)
		authGroup.PUT("/tasks/:id/complete", c.task.CompleteTask)
		authGroup.DELETE("/tasks/:id", c.task.DeleteTask)

		// 通知
		authGroup.GET("/notifications", c.notification.GetNotifications)
		authGroup.GET("/notifications/unread-count", c.notification.GetUnreadCount)
		authGroup.PUT("/notifications/read-all", c.notification.MarkAllRead)
		authGroup.PUT("/notifications/:id/read", c.notification.MarkRead)

		// 通知偏好
		authGroup.GET("/preferences", c.preference.GetPreferences)
		authGroup.PUT("/preferences", c.preference.UpdatePreferences)
	}

	// 管理员接口
	adminGroup := router.Group("/api/admin")
	adminGroup.Use(middleware.AuthMiddleware(cfg), middleware.RoleMiddleware(model.Admin))
	{
		adminGroup.POST("/notifications/dispatch", c.notification.TriggerDispatch)
		adminGroup.GET("/notifications/queue-depth", c.notification.GetQueueDepth)
	}
}
