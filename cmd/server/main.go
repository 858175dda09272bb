package main

import (
	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/growda/pneumonia-api/internal/cache"
	"github.com/growda/pneumonia-api/internal/config"
	"github.com/growda/pneumonia-api/internal/handlers"
	"github.com/growda/pneumonia-api/internal/model"
	"github.com/growda/pneumonia-api/internal/server"
	"github.com/growda/pneumonia-api/internal/store"
	"github.com/growda/pneumonia-api/internal/training"
	"github.com/growda/pneumonia-api/internal/ws"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()

	logger, err := zap.NewProduction(zap.AddStacktrace(zapcore.ErrorLevel), zap.AddCaller())
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	// A missing model keeps the info endpoints up; /predict and
	// /model/info degrade until the artifact is deployed.
	var engine handlers.Engine
	if modelServer, err := model.NewServer(cfg.ModelPath, cfg.MetadataPath); err != nil {
		logger.Warn("model not loaded, prediction endpoints degraded",
			zap.String("model_path", cfg.ModelPath),
			zap.Error(err))
	} else {
		defer modelServer.Close()
		engine = modelServer
		logger.Info("model loaded",
			zap.String("model_path", cfg.ModelPath),
			zap.Strings("classes", modelServer.Metadata().Classes),
			zap.Int64("total_params", modelServer.Metadata().TotalParams))
	}

	history, err := training.Load(cfg.HistoryPath)
	if err != nil {
		logger.Warn("falling back to default training history", zap.Error(err))
		history = training.Default()
	}

	var auditLog *store.Store
	if cfg.DBPath != "" {
		auditLog, err = store.New(cfg.DBPath)
		if err != nil {
			logger.Warn("prediction log disabled", zap.String("db_path", cfg.DBPath), zap.Error(err))
			auditLog = nil
		} else {
			defer auditLog.Close()
		}
	}

	var respCache cache.Cache
	if cfg.RedisAddr != "" {
		redisCache, err := cache.NewRedis(cfg.RedisAddr, cfg.RedisPassword, cfg.CacheTTL, logger)
		if err != nil {
			logger.Warn("redis unavailable, using in-memory cache",
				zap.String("addr", cfg.RedisAddr),
				zap.Error(err))
			respCache = cache.NewMemory(cfg.CacheTTL)
		} else {
			defer redisCache.Close()
			respCache = redisCache
		}
	} else {
		respCache = cache.NewMemory(cfg.CacheTTL)
	}

	hub := ws.NewHub(logger)
	go hub.Run()

	handler := handlers.New(engine, history, auditLog, respCache, hub, cfg.MaxUploadMB, logger)

	if err := server.New(cfg, logger, handler).Start(); err != nil {
		logger.Fatal("server failed", zap.Error(err))
	}
}
