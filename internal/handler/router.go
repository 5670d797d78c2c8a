package handler

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/tutorhub/tutorhub-api/internal/middleware"
	"github.com/tutorhub/tutorhub-api/internal/models"
	"github.com/tutorhub/tutorhub-api/internal/repository"
	"github.com/tutorhub/tutorhub-api/internal/service"
	"github.com/tutorhub/tutorhub-api/pkg/config"
)

// RouterDeps bundles everything route registration needs.
type RouterDeps struct {
	Config *config.Config

	Auth        *AuthHandler
	Admin       *AdminHandler
	Courses     *CourseHandler
	Payments    *PaymentHandler
	Enrollments *EnrollmentHandler
	Payouts     *PayoutHandler
	Sessions    *SessionHandler
	Reports     *ReportHandler
	Metrics     *MetricsHandler

	AuthService    *service.AuthService
	MetricsService *service.MetricsService
	Cache          *repository.CacheRepository
	Audits         AuditRecorder
}

// AuditRecorder persists request-level audit entries for routes whose
// services do not write their own trail.
type AuditRecorder interface {
	CreateAuditLog(ctx context.Context, log *models.AuditLog) error
}

// RegisterRoutes wires every API route group onto the engine. Admin routes
// sit behind JWT auth and the admin role; legacy endpoint aliases and the
// destructive bulk-clear routes are gated by configuration so older panel
// builds keep working without exposing them everywhere.
func RegisterRoutes(r *gin.Engine, deps RouterDeps) {
	cfg := deps.Config

	r.GET("/health", deps.Metrics.Health)
	r.GET("/ready", deps.Metrics.Health)
	r.GET("/metrics", deps.Metrics.Prometheus)

	api := r.Group(cfg.APIPrefix)

	auth := api.Group("/auth")
	{
		auth.POST("/login", deps.Auth.Login)
		auth.POST("/register", deps.Auth.Register)
		auth.POST("/refresh", deps.Auth.Refresh)
		auth.POST("/logout", middleware.JWT(deps.AuthService), deps.Auth.Logout)
		auth.GET("/me", middleware.JWT(deps.AuthService), deps.Auth.Me)
	}

	admin := api.Group("/admin")
	admin.Use(middleware.JWT(deps.AuthService), middleware.RequireAdmin())
	if cfg.AdminCache.Enabled && deps.Cache != nil {
		admin.Use(middleware.AdminCache(deps.Cache, deps.MetricsService, cfg.AdminCache.TTL))
	}
	{
		admin.GET("/students", deps.Admin.ListStudents)
		admin.GET("/teachers", deps.Admin.ListTeachers)

		admin.PUT("/approve-teacher/:id", deps.Admin.ApproveUser)
		admin.PUT("/approve-student/:id", deps.Admin.ApproveUser)
		admin.PUT("/block-user/:id", deps.Admin.BlockUser)
		admin.DELETE("/delete-user/:id", deps.Admin.DeleteUser)

		if cfg.Aliases.StudentApprovalEnabled {
			admin.PUT("/students/approve/:id", deps.Admin.ApproveUser)
			admin.PUT("/approve-user/:id", deps.Admin.ApproveUser)
		}

		if cfg.BulkClear.Enabled {
			admin.DELETE("/students/clear", deps.Admin.ClearStudents)
			admin.DELETE("/clear-students", deps.Admin.ClearStudents)
			admin.DELETE("/students", deps.Admin.ClearStudents)
		}

		admin.GET("/courses", deps.Courses.List)
		admin.PUT("/courses/:id/approve", deps.Courses.Approve)
		admin.PUT("/courses/:id/reject", deps.Courses.Reject)
		admin.DELETE("/courses/:id", deps.Courses.Delete)

		admin.GET("/payments", deps.Payments.List)
		admin.GET("/payments/:id", deps.Payments.Get)
		admin.GET("/payments/:id/screenshot", deps.Payments.ScreenshotURL)
		admin.POST("/payments/:id/screenshot",
			middleware.Audit(deps.Audits, "UPLOAD_SCREENSHOT", "payment"),
			deps.Payments.UploadScreenshot)

		admin.GET("/enrollments", deps.Enrollments.List)
		admin.PUT("/enrollments/:id/approve", deps.Enrollments.Approve)
		admin.PUT("/enrollments/:id/reject", deps.Enrollments.Reject)

		admin.GET("/payout-settings", deps.Payouts.List)
		admin.PUT("/payout-settings/:id", deps.Payouts.Update)
		admin.DELETE("/payout-settings/:id", deps.Payouts.Delete)

		admin.GET("/sessions", deps.Sessions.List)
		admin.POST("/sessions", deps.Sessions.Create)
		admin.PUT("/sessions/:id", deps.Sessions.Update)
		admin.DELETE("/sessions/:id", deps.Sessions.Delete)
		if cfg.BulkClear.Enabled {
			admin.DELETE("/sessions", deps.Sessions.ClearAll)
		}

		if cfg.Aliases.SessionDataEnabled {
			admin.GET("/session-data", deps.Sessions.List)
			admin.POST("/session-data", deps.Sessions.Create)
			admin.PUT("/session-data/:id", deps.Sessions.Update)
			admin.DELETE("/session-data/:id", deps.Sessions.Delete)
			if cfg.BulkClear.Enabled {
				admin.DELETE("/session-data", deps.Sessions.ClearAll)
			}
		}

		if cfg.Reports.Enabled {
			admin.GET("/reports/payments", deps.Reports.Export)
			admin.POST("/reports/payments",
				middleware.Audit(deps.Audits, "REQUEST_REPORT", "report"),
				deps.Reports.Enqueue)
			admin.GET("/reports/payments/:id", deps.Reports.Job)
		}
	}

	// Signed-token downloads carry their own authorization in the token, so
	// they stay outside the JWT group for use in plain browser tabs.
	if cfg.Reports.Enabled {
		api.GET("/admin/reports/download/:token", deps.Reports.Download)
	}
	api.GET("/admin/screenshots/:token", deps.Payments.ViewScreenshot)

	// Payment review lives outside /admin for compatibility with older panel
	// builds that call PUT /payments/{id}/status directly.
	payments := api.Group("/payments")
	payments.Use(middleware.JWT(deps.AuthService), middleware.RequireAdmin())
	{
		payments.PUT("/:id/status", deps.Payments.Review)
	}
}
