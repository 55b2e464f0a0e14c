package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"mediatrack/internal/auth"
	"mediatrack/internal/auth/middleware"
	authservice "mediatrack/internal/auth/service"
	collectionservice "mediatrack/internal/collection/service"
	"mediatrack/internal/conf"
	enrichservice "mediatrack/internal/enrich/service"
	"mediatrack/internal/pkg/logger"
)

type HTTPServer struct {
	server *http.Server
	log    *logger.Logger
}

func NewHTTPServer(
	config *conf.Config,
	log *logger.Logger,
	jwtManager *auth.JWTManager,
	authSvc *authservice.AuthService,
	collectionSvc *collectionservice.CollectionService,
	enrichSvc *enrichservice.EnrichService,
) *HTTPServer {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()
	router.Use(logger.GinRecovery(log))
	router.Use(logger.GinLogger(log))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status": "ok",
			"time":   time.Now().Format(time.RFC3339),
		})
	})

	api := router.Group("/api/v1")
	authSvc.RegisterRoutes(api)

	authed := api.Group("")
	authed.Use(middleware.JWTAuth(jwtManager, log))
	{
		authed.GET("/auth/me", authSvc.Me)
		collectionSvc.RegisterRoutes(authed)
		enrichSvc.RegisterRoutes(authed)
	}

	addr := fmt.Sprintf("%s:%d", config.Server.Host, config.Server.Port)
	return &HTTPServer{
		server: &http.Server{
			Addr:    addr,
			Handler: router,
		},
		log: log,
	}
}

func (s *HTTPServer) Start() error {
	s.log.Info("starting HTTP server", zap.String("addr", s.server.Addr))

	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *HTTPServer) Stop(ctx context.Context) error {
	s.log.Info("stopping HTTP server")
	return s.server.Shutdown(ctx)
}
