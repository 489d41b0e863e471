package balance

import (
	"leaveflow/internal/middleware"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func RegisterRoutes(r *gin.RouterGroup, handler *Handler) {
	balances := r.Group("/leaves/balances")
	balances.Use(middleware.AuthMiddleware(), middleware.ContextLogger(zap.L()))
	{
		balances.GET("", handler.ListOwn)
	}
}
