// File: internal/app/server.go
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"ezm_trade_backend/internal/common"
	"ezm_trade_backend/internal/config"
	"ezm_trade_backend/internal/inventory"
	"ezm_trade_backend/internal/jobs"
	"ezm_trade_backend/internal/middleware"
	"ezm_trade_backend/internal/notification"
	"ezm_trade_backend/internal/platform/forwarder"
	"ezm_trade_backend/internal/platform/metrics"
	"ezm_trade_backend/internal/shared"
	"ezm_trade_backend/internal/user"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Server struct holds the dependencies for the HTTP server.
type Server struct {
	httpServer *http.Server
	router     *gin.Engine
	cfg        *config.Config
	logger     *zap.Logger
	db         *gorm.DB

	notificationJobs *jobs.NotificationJobs
	forwarder        *forwarder.Forwarder
}

// NewServer creates a new instance of our application server.
func NewServer(
	cfg *config.Config,
	logger *zap.Logger,
	db *gorm.DB,
	tokenService shared.TokenService,
	userHandler *user.Handler,
	inventoryHandler *inventory.Handler,
	notificationHandler *notification.Handler,
	notificationJobs *jobs.NotificationJobs,
	fwd *forwarder.Forwarder,
) (*Server, error) {
	gin.SetMode(cfg.GinMode)
	router := gin.New()

	// --- Global Middleware ---
	router.Use(middleware.ZapLogger(logger, cfg))
	router.Use(middleware.ErrorHandler(logger))
	router.Use(gin.Recovery())

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = []string{"*"}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Accept", "Authorization", middleware.RequestIDHeader}
	corsConfig.ExposeHeaders = []string{"Content-Length", middleware.RequestIDHeader}
	router.Use(cors.New(corsConfig))

	authMW := middleware.AuthMiddleware(tokenService, logger.Named("AuthMiddleware"))
	adminRoleMW := middleware.RoleAuthMiddleware(common.RoleAdmin)
	privilegedMW := middleware.RoleAuthMiddleware(common.PrivilegedRoles...)
	managerMW := middleware.RoleAuthMiddleware(common.ManagerRoles...)
	staffMW := middleware.RoleAuthMiddleware(common.StoreStaffRoles...)
	triggerLimitMW := middleware.NewRateLimiter(cfg.TriggerCheckRatePerMinute).Middleware()

	s := &Server{
		router:           router,
		cfg:              cfg,
		logger:           logger,
		db:               db,
		notificationJobs: notificationJobs,
		forwarder:        fwd,
	}

	// --- Setup Routes ---
	router.GET("/health", s.health)
	router.GET("/metrics", metrics.Handler())

	v1 := router.Group("/api/v1")
	userHandler.RegisterRoutes(v1, authMW, privilegedMW, adminRoleMW)
	inventoryHandler.RegisterRoutes(v1, authMW, staffMW, managerMW, privilegedMW)
	notificationHandler.RegisterRoutes(v1, authMW, privilegedMW, triggerLimitMW)

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf("%s:%s", cfg.ServerHost, cfg.ServerPort),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  120 * time.Second,
	}
	return s, nil
}

// Router exposes the configured engine, mainly for tests.
func (s *Server) Router() *gin.Engine {
	return s.router
}

func (s *Server) health(c *gin.Context) {
	status := http.StatusOK
	dbStatus := "UP"
	if sqlDB, err := s.db.DB(); err != nil || sqlDB.PingContext(c.Request.Context()) != nil {
		status = http.StatusServiceUnavailable
		dbStatus = "DOWN"
	}
	c.JSON(status, gin.H{"status": dbStatus, "message": "EZM Trade API", "database": dbStatus})
}

// Start starts the background jobs and blocks serving HTTP until Shutdown.
func (s *Server) Start() error {
	if s.notificationJobs != nil {
		if err := s.notificationJobs.SetupAndStart(); err != nil {
			s.logger.Error("Failed to setup and start notification jobs", zap.Error(err))
		}
	}

	s.logger.Info("HTTP Server starting",
		zap.String("address", s.httpServer.Addr),
		zap.String("gin_mode", s.cfg.GinMode),
		zap.Bool("forwarding", s.forwarder.Enabled()),
	)
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		s.logger.Error("Failed to start HTTP server", zap.Error(err))
		return err
	}
	s.logger.Info("HTTP Server stopped")
	return nil
}

// Shutdown stops accepting requests, stops the jobs and drains pending forwards.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Attempting graceful server shutdown...")
	err := s.httpServer.Shutdown(ctx)
	if s.notificationJobs != nil {
		s.notificationJobs.Stop()
	}
	s.forwarder.Wait()
	return err
}
