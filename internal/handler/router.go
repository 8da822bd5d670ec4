package handler

import (
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/youthlaunch/microintern-api/internal/middleware"
	"github.com/youthlaunch/microintern-api/internal/models"
	"github.com/youthlaunch/microintern-api/internal/service"
)

// RouterConfig tunes route registration.
type RouterConfig struct {
	APIPrefix  string
	EnableDocs bool
}

// Router registers all HTTP routes against a gin engine.
type Router struct {
	cfg           RouterConfig
	authService   *service.AuthService
	auth          *AuthHandler
	internships   *InternshipHandler
	applications  *ApplicationHandler
	tasks         *TaskHandler
	notifications *NotificationHandler
	metrics       *MetricsHandler
}

// NewRouter constructs a Router from the handler set.
func NewRouter(cfg RouterConfig, authService *service.AuthService, auth *AuthHandler, internships *InternshipHandler, applications *ApplicationHandler, tasks *TaskHandler, notifications *NotificationHandler, metrics *MetricsHandler) *Router {
	if cfg.APIPrefix == "" {
		cfg.APIPrefix = "/api/v1"
	}
	return &Router{
		cfg:           cfg,
		authService:   authService,
		auth:          auth,
		internships:   internships,
		applications:  applications,
		tasks:         tasks,
		notifications: notifications,
		metrics:       metrics,
	}
}

// Register wires every route onto the engine.
func (r *Router) Register(engine *gin.Engine) {
	engine.GET("/health", r.metrics.Health)
	engine.GET("/ready", r.metrics.Ready)
	engine.GET("/metrics", r.metrics.Prometheus)
	if r.cfg.EnableDocs {
		engine.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := engine.Group(r.cfg.APIPrefix)

	auth := api.Group("/auth")
	{
		auth.POST("/register", r.auth.Register)
		auth.POST("/login", r.auth.Login)
		auth.POST("/refresh", r.auth.Refresh)
		auth.POST("/logout", middleware.JWT(r.authService), r.auth.Logout)
		auth.GET("/me", middleware.JWT(r.authService), r.auth.Me)
	}

	internships := api.Group("/internships", middleware.OptionalJWT(r.authService))
	{
		internships.GET("", r.internships.List)
		internships.GET("/:id", r.internships.Get)
	}

	applications := api.Group("/applications", middleware.JWT(r.authService), middleware.RequireRoles(models.RoleStudent))
	{
		applications.POST("", r.applications.Submit)
		applications.GET("/me", r.applications.ListOwn)
	}

	tasks := api.Group("/tasks", middleware.JWT(r.authService), middleware.RequireRoles(models.RoleStudent))
	{
		tasks.GET("/:id", r.tasks.GetTask)
		tasks.POST("/:id/submit", r.tasks.SubmitTask)
	}

	mentor := api.Group("/mentor", middleware.JWT(r.authService), middleware.RequireRoles(models.RoleMentor))
	{
		mentor.GET("/task-progresses/:id", r.tasks.GetProgress)
		mentor.POST("/task-progresses/:id/review", r.tasks.Review)
	}

	notifications := api.Group("/notifications", middleware.JWT(r.authService))
	{
		notifications.GET("", r.notifications.List)
		notifications.GET("/unread-count", r.notifications.UnreadCount)
		notifications.POST("/read-all", r.notifications.MarkAllRead)
		notifications.POST("/:id/read", r.notifications.MarkRead)
	}

	admin := api.Group("/admin", middleware.JWT(r.authService), middleware.RequireRoles(models.RoleAdmin))
	{
		admin.POST("/internships", r.internships.Create)
		admin.PUT("/internships/:id", r.internships.Update)
		admin.POST("/internships/:id/publish", r.internships.Publish)
		admin.POST("/internships/:id/close", r.internships.Close)
		admin.GET("/mentors", r.internships.Mentors)

		admin.GET("/applications", r.applications.List)
		admin.GET("/applications/export", r.applications.Export)
		admin.GET("/applications/:id", r.applications.Get)
		admin.PATCH("/applications/:id", r.applications.Transition)
	}
}
