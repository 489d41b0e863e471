package app

import (
	"database/sql"
	"net/http"

	"leaveflow/internal/balance"
	"leaveflow/internal/employee"
	"leaveflow/internal/leave"
	"leaveflow/internal/messaging/kafka"
	"leaveflow/internal/middleware"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
	"gorm.io/gorm"
)

func registerModules(
	router *gin.Engine,
	db *sql.DB,
	gormDB *gorm.DB,
	rdb *redis.Client,
) error {
	logger := zap.L()

	// --- Repositories ---
	employeeRepo := employee.NewRepository(gormDB)
	balanceRepo := balance.NewRepository(gormDB, db)
	leaveRepo := leave.NewRepository(gormDB, db)
	outboxRepo := kafka.NewOutboxRepository(db)

	// --- Services ---
	balanceService := balance.NewService(balanceRepo, logger)
	leaveService := leave.NewService(db, leaveRepo, balanceRepo, employeeRepo, outboxRepo, rdb, logger)

	// --- Handlers ---
	balanceHandler := balance.NewHandler(balanceService, logger)
	leaveHandler := leave.NewHandlerWithRedis(leaveService, rdb, logger)

	// --- Global middleware ---
	router.Use(middleware.RequestID())
	router.Use(middleware.RateLimitByIP(rate.Limit(50), 100))

	router.GET("/healthz", func(c *gin.Context) {
		if err := db.PingContext(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// --- Routes Registration ---
	api := router.Group("/api/v1")
	{
		leave.RegisterRoutes(api, leaveHandler, rdb)
		balance.RegisterRoutes(api, balanceHandler)
	}

	return nil
}
