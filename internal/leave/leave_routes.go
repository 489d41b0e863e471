package leave

import (
	"leaveflow/internal/employee"
	"leaveflow/internal/middleware"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

func RegisterRoutes(
	r *gin.RouterGroup,
	handler *Handler,
	rdb *redis.Client,
) {
	leaves := r.Group("/leaves")
	leaves.Use(
		middleware.AuthMiddleware(),
		middleware.ContextLogger(zap.L()),
		middleware.RateLimitByActor(rate.Limit(10), 20),
	)
	{
		leaves.GET("/types", handler.ListTypes)

		leaves.POST("/requests", handler.Submit)
		leaves.GET("/requests", handler.ListOwn)
		leaves.GET("/requests/:id", handler.GetByID)

		approvers := middleware.RoleMiddleware(
			employee.RoleManager,
			employee.RoleHR,
			employee.RoleCEO,
		)
		leaves.POST("/requests/:id/approve", approvers, middleware.Idempotency(rdb), handler.Approve)
		leaves.POST("/requests/:id/reject", approvers, middleware.Idempotency(rdb), handler.Reject)
		leaves.POST("/requests/:id/cancel", middleware.Idempotency(rdb), handler.Cancel)

		leaves.GET("/queue", middleware.RoleMiddleware(
			employee.RoleManager,
			employee.RoleHR,
			employee.RoleCEO,
			employee.RoleAdmin,
		), handler.Queue)
	}
}
