// Package server assembles the gin router and runs the HTTP server.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	ginzap "github.com/gin-contrib/zap"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/cleardesk/cleardesk/api/handlers"
	"github.com/cleardesk/cleardesk/internal/config"
)

// Server wraps the HTTP server with graceful shutdown.
type Server struct {
	http   *http.Server
	logger *zap.Logger
	cfg    config.ServerConfig
}

// New assembles the router and server.
func New(
	cfg config.ServerConfig,
	authCfg config.AuthConfig,
	environment string,
	requestHandler *handlers.RequestHandler,
	adminHandler *handlers.AdminHandler,
	logger *zap.Logger,
) *Server {
	if environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(ginzap.Ginzap(logger, time.RFC3339, true))
	router.Use(ginzap.RecoveryWithZap(logger, true))

	corsCfg := cors.DefaultConfig()
	if len(cfg.AllowedOrigins) > 0 {
		corsCfg.AllowOrigins = cfg.AllowedOrigins
	} else {
		corsCfg.AllowAllOrigins = true
	}
	corsCfg.AllowHeaders = append(corsCfg.AllowHeaders, "Authorization")
	router.Use(cors.New(corsCfg))

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := router.Group("/api/v1", handlers.AuthMiddleware(authCfg.JWTSecret))
	{
		v1.POST("/requests", requestHandler.Create)
		v1.GET("/requests", requestHandler.ListOwn)
		v1.GET("/requests/:id", requestHandler.Get)
		v1.POST("/requests/:id/escalate", requestHandler.Escalate)

		admin := v1.Group("/admin", handlers.RequireAdmin())
		{
			admin.GET("/requests", adminHandler.ListRequests)
			admin.PUT("/requests/:id/status", adminHandler.UpdateStatus)
			admin.GET("/restricted", adminHandler.ListRestricted)
			admin.POST("/restricted", adminHandler.AddRestricted)
			admin.DELETE("/restricted/:symbol", adminHandler.RemoveRestricted)
			admin.GET("/activity", adminHandler.RecentActivity)
			admin.GET("/status", adminHandler.SystemStatus)
		}
	}

	return &Server{
		http: &http.Server{
			Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
			Handler:      router,
			ReadTimeout:  cfg.ReadTimeout,
			WriteTimeout: cfg.WriteTimeout,
		},
		logger: logger,
		cfg:    cfg,
	}
}

// Run serves until the context is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("http server listening", zap.String("addr", s.http.Addr))
		if err := s.http.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
	defer cancel()
	s.logger.Info("shutting down http server")
	return s.http.Shutdown(shutdownCtx)
}
