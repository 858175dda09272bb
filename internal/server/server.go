// Package server wires the gin router, middleware and routes.
package server

import (
	"fmt"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/growda/pneumonia-api/internal/config"
	"github.com/growda/pneumonia-api/internal/handlers"
	"github.com/growda/pneumonia-api/internal/metrics"
)

type Server struct {
	cfg     *config.Config
	logger  *zap.Logger
	handler *handlers.Handler
}

func New(cfg *config.Config, logger *zap.Logger, handler *handlers.Handler) *Server {
	return &Server{
		cfg:     cfg,
		logger:  logger.Named("server"),
		handler: handler,
	}
}

// Router builds the engine with middleware and all routes registered.
func (s *Server) Router() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	eng := gin.New()
	eng.Use(gin.Recovery(), requestLogger(s.logger), metrics.Middleware())
	eng.MaxMultipartMemory = s.cfg.MaxUploadMB << 20

	corsCfg := cors.DefaultConfig()
	if s.cfg.FrontendURL != "" {
		corsCfg.AllowOrigins = []string{s.cfg.FrontendURL}
	} else {
		// Cloud deployment serves an unknown frontend origin.
		corsCfg.AllowAllOrigins = true
	}
	corsCfg.AllowHeaders = append(corsCfg.AllowHeaders, "Authorization")
	eng.Use(cors.New(corsCfg))

	eng.GET("/", s.handler.Root)
	eng.GET("/status", s.handler.Status)
	eng.GET("/training_status", s.handler.Status)
	eng.GET("/metrics/history", s.handler.MetricsHistory)
	eng.POST("/predict", s.handler.Predict)
	eng.GET("/model/info", s.handler.ModelInfo)
	eng.GET("/health", s.handler.Health)
	eng.GET("/predictions/recent", s.handler.RecentPredictions)
	eng.GET("/predictions/stats", s.handler.PredictionStats)
	eng.GET("/ws", s.handler.Events)
	eng.GET("/metrics", metrics.Handler())

	return eng
}

// Start blocks serving HTTP until the listener fails.
func (s *Server) Start() error {
	addr := fmt.Sprintf(":%d", s.cfg.Port)
	s.logger.Info("server starting", zap.String("addr", addr))
	return s.Router().Run(addr)
}

func requestLogger(logger *zap.Logger) gin.HandlerFunc {
	logger = logger.Named("http")
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		logger.Info("request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)))
	}
}
