package httpserver

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"projecthub/internal/handler"
	"projecthub/internal/service"
	"projecthub/pkg/circuitbreaker"
	"projecthub/pkg/otel"
	"projecthub/pkg/rbac"
)

type Router struct {
	Engine *gin.Engine
}

// Handlers console 的全部 handler
type Handlers struct {
	Auth     *handler.AuthHandler
	Projects *handler.ProjectHandler
	Tasks    *handler.TaskHandler
	Collab   *handler.CollabHandler
	Tracking *handler.TrackingHandler
	Feed     *handler.FeedHandler
}

// NewHandlers 用服务集合构造所有 handler
func NewHandlers(svc *service.Services, cookieName string, sessionTTL time.Duration, logger *zap.Logger) Handlers {
	return Handlers{
		Auth:     handler.NewAuthHandler(svc.Auth, cookieName, sessionTTL, logger),
		Projects: handler.NewProjectHandler(svc.Projects, svc.Dashboard, logger),
		Tasks:    handler.NewTaskHandler(svc.Tasks, svc.Expenditures, logger),
		Collab:   handler.NewCollabHandler(svc.Comments, svc.Files, logger),
		Tracking: handler.NewTrackingHandler(svc.Risks, svc.Issues, logger),
		Feed:     handler.NewFeedHandler(svc.Notifications, svc.Activities, logger),
	}
}

// Readiness /readyz 的检查项，为 nil 的项跳过
type Readiness struct {
	Redis    redis.Cmdable
	Upstream interface{ BreakerState() circuitbreaker.State }
}

func NewRouter(
	h Handlers,
	auth *service.AuthService,
	cookieName string,
	ready Readiness,
	logger *zap.Logger,
) *Router {
	r := gin.New()
	r.Use(gin.Recovery(), TraceMiddleware(), otel.GinMiddleware(), LoggingMiddleware(logger), MetricsMiddleware())

	// Health endpoints (放在最前面)
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})
	r.HEAD("/healthz", func(c *gin.Context) {
		c.Status(200)
	})
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})
	r.HEAD("/health", func(c *gin.Context) {
		c.Status(200)
	})

	r.GET("/readyz", func(c *gin.Context) {
		if ready.Redis != nil {
			ctx, cancel := context.WithTimeout(c, 1*time.Second)
			defer cancel()

			if err := ready.Redis.Ping(ctx).Err(); err != nil {
				c.JSON(500, gin.H{"status": "redis_not_ready", "error": err.Error()})
				return
			}
		}

		// 熔断打开说明上游不可用，暂停接流量
		if ready.Upstream != nil {
			if state := ready.Upstream.BreakerState(); state == circuitbreaker.StateOpen {
				c.JSON(503, gin.H{"status": "upstream_unavailable", "breaker": state.String()})
				return
			}
		}

		c.JSON(200, gin.H{"status": "ready"})
	})

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.Group("/api")

	// Public
	api.POST("/register", h.Auth.Register)
	api.POST("/login", h.Auth.Login)

	// Protected
	authed := api.Group("/")
	authed.Use(AuthMiddleware(auth, cookieName, logger))
	{
		authed.POST("/logout", h.Auth.Logout)
		authed.GET("/user", h.Auth.CurrentUser)
		authed.GET("/users", h.Auth.Users)

		pm := RequireRole(rbac.RoleProjectManager)
		authed.GET("/dashboard", pm, h.Projects.Dashboard)
		authed.GET("/progress", pm, h.Projects.Overview)
		authed.GET("/Member-Dashboard", h.Projects.MemberDashboard)

		authed.GET("/projects", h.Projects.List)
		authed.POST("/projects", RequirePermission(rbac.PermissionCreateProject), h.Projects.Create)
		authed.GET("/projects/:projectID", h.Projects.Get)
		authed.PUT("/projects/:projectID", RequirePermission(rbac.PermissionUpdateProject), h.Projects.Update)
		authed.DELETE("/projects/:projectID", RequirePermission(rbac.PermissionDeleteProject), h.Projects.Delete)
		authed.GET("/projects/:projectID/progress", h.Projects.Progress)
		authed.GET("/projects/:projectID/gantt", h.Projects.Gantt)
		authed.GET("/projects/:projectID/members", h.Auth.ProjectMembers)
		authed.GET("/projects/:projectID/activities", h.Feed.Activities)

		// Tasks
		authed.GET("/projects/:projectID/tasks", h.Tasks.List)
		authed.POST("/projects/:projectID/tasks", RequirePermission(rbac.PermissionCreateTask), h.Tasks.Create)
		authed.PUT("/projects/:projectID/tasks/:taskID", RequirePermission(rbac.PermissionEditTask), h.Tasks.Update)
		authed.PATCH("/projects/:projectID/tasks/:taskID/status", h.Tasks.UpdateStatus)
		authed.DELETE("/projects/:projectID/tasks/:taskID", RequirePermission(rbac.PermissionDeleteTask), h.Tasks.Delete)
		authed.GET("/projects/:projectID/tasks/:taskID/activities", h.Feed.Activities)

		// Expenditures
		authed.GET("/projects/:projectID/expenditures", h.Tasks.Expenditures)
		authed.POST("/projects/:projectID/expenditures", RequirePermission(rbac.PermissionAddExpense), h.Tasks.CreateExpenditure)

		// Comments
		authed.GET("/projects/:projectID/tasks/:taskID/comments", h.Collab.ListComments)
		authed.POST("/projects/:projectID/tasks/:taskID/comments", h.Collab.CreateComment)
		authed.PUT("/projects/:projectID/tasks/:taskID/comments/:commentID", h.Collab.UpdateComment)
		authed.DELETE("/projects/:projectID/tasks/:taskID/comments/:commentID", h.Collab.DeleteComment)

		// Files
		authed.GET("/projects/:projectID/files", h.Collab.ListFiles)
		authed.POST("/projects/:projectID/files", h.Collab.UploadFile)
		authed.PUT("/projects/:projectID/files/:fileID", h.Collab.UpdateFileAccess)
		authed.DELETE("/projects/:projectID/files/:fileID", h.Collab.DeleteFile)
		authed.GET("/projects/:projectID/files/:fileID/download", h.Collab.DownloadFile)
		authed.GET("/projects/:projectID/files/:fileID/members", h.Collab.FileMembers)
		authed.POST("/projects/:projectID/files/:fileID/members", h.Collab.AddFileMembers)
		authed.DELETE("/projects/:projectID/files/:fileID/members", h.Collab.RemoveFileMembers)

		// Risks & issues
		authed.GET("/projects/:projectID/risks", h.Tracking.ListRisks)
		authed.POST("/projects/:projectID/risks", h.Tracking.CreateRisk)
		authed.PUT("/projects/:projectID/risks/:riskID", h.Tracking.UpdateRisk)
		authed.DELETE("/projects/:projectID/risks/:riskID", RequirePermission(rbac.PermissionDeleteRisk), h.Tracking.DeleteRisk)
		authed.GET("/projects/:projectID/issues", h.Tracking.ListIssues)
		authed.POST("/projects/:projectID/issues", h.Tracking.CreateIssue)
		authed.PUT("/projects/:projectID/issues/:issueID", h.Tracking.UpdateIssue)
		authed.DELETE("/projects/:projectID/issues/:issueID", RequirePermission(rbac.PermissionDeleteIssue), h.Tracking.DeleteIssue)

		// Notifications & activities
		authed.GET("/notifications", h.Feed.Notifications)
		authed.GET("/notifications/unread-count", h.Feed.UnreadCount)
		authed.POST("/notifications/mark-all-as-read", h.Feed.MarkAllRead)
		authed.POST("/notifications/:notificationID/mark-as-read", h.Feed.MarkRead)
		authed.DELETE("/notifications/:notificationID", h.Feed.DeleteNotification)
		authed.GET("/activities", h.Feed.Activities)
	}

	return &Router{Engine: r}
}

func (r *Router) Run(port string) error {
	return r.Engine.Run(port)
}
