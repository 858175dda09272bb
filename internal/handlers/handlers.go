package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/growda/pneumonia-api/internal/cache"
	"github.com/growda/pneumonia-api/internal/metrics"
	"github.com/growda/pneumonia-api/internal/model"
	"github.com/growda/pneumonia-api/internal/store"
	"github.com/growda/pneumonia-api/internal/training"
	"github.com/growda/pneumonia-api/internal/ws"
)

const serviceName = "Growda Cloud API"

// Engine is the inference surface the handlers need. *model.Server
// implements it; tests substitute a stub.
type Engine interface {
	Predict(input []float32) (*model.Prediction, error)
	Metadata() model.Metadata
	Info() model.Info
}

// Handler wires the HTTP endpoints to the inference engine and the
// supporting services. engine, auditLog and hub may be nil; the
// affected endpoints degrade instead of failing startup.
type Handler struct {
	engine         Engine
	history        training.History
	auditLog       *store.Store
	cache          cache.Cache
	hub            *ws.Hub
	maxUploadBytes int64
	logger         *zap.Logger
	started        time.Time
}

func New(engine Engine, history training.History, auditLog *store.Store, respCache cache.Cache, hub *ws.Hub, maxUploadMB int64, logger *zap.Logger) *Handler {
	return &Handler{
		engine:         engine,
		history:        history,
		auditLog:       auditLog,
		cache:          respCache,
		hub:            hub,
		maxUploadBytes: maxUploadMB << 20,
		logger:         logger.Named("handlers"),
		started:        time.Now(),
	}
}

// PredictResponse is the /predict payload. Field names match what the
// dashboard already parses.
type PredictResponse struct {
	ID            string             `json:"id"`
	Prediction    string             `json:"prediction"`
	Confidence    float32            `json:"confidence"`
	SeverityLevel string             `json:"severity_level"`
	Scores        map[string]float32 `json:"scores"`
	ModelInfo     string             `json:"model_info"`
}

// detail mirrors the {"detail": ...} error shape the frontend expects.
func detail(c *gin.Context, code int, msg string) {
	c.JSON(code, gin.H{"detail": msg})
}

func (h *Handler) modelInfo() model.Info {
	if h.engine == nil {
		return model.Info{ModelLoaded: false}
	}
	return h.engine.Info()
}

// Root serves the service banner on GET /.
func (h *Handler) Root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"message":    serviceName + " - Pneumonia Detection",
		"mode":       "Cloud Deployment (Static Model)",
		"model_info": h.modelInfo(),
		"features":   []string{"Prediction", "Model Info", "Training History (Read-only)"},
	})
}

// Status serves the static training status on GET /status and its
// backward-compatible alias GET /training_status.
func (h *Handler) Status(c *gin.Context) {
	c.JSON(http.StatusOK, h.history.Status())
}

// MetricsHistory serves the recorded training rounds on GET /metrics/history.
func (h *Handler) MetricsHistory(c *gin.Context) {
	c.JSON(http.StatusOK, h.history)
}

// ModelInfo serves GET /model/info.
func (h *Handler) ModelInfo(c *gin.Context) {
	info := h.modelInfo()
	if !info.ModelLoaded {
		detail(c, http.StatusNotFound, "Model not found or failed to load")
		return
	}
	c.JSON(http.StatusOK, info)
}

// Health serves the liveness probe on GET /health.
func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":         "healthy",
		"model_loaded":   h.modelInfo().ModelLoaded,
		"service":        serviceName,
		"uptime_seconds": int64(time.Since(h.started).Seconds()),
	})
}

// Predict classifies an uploaded chest X-ray on POST /predict.
func (h *Handler) Predict(c *gin.Context) {
	if h.engine == nil {
		detail(c, http.StatusServiceUnavailable, "Model not found. Please ensure the model artifact is deployed")
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		detail(c, http.StatusBadRequest, "No image file provided. Use 'file' as the form field name")
		return
	}

	if ct := fileHeader.Header.Get("Content-Type"); !strings.HasPrefix(ct, "image/") {
		detail(c, http.StatusBadRequest, "Uploaded file is not an image")
		return
	}

	// Checked before the part is read into memory; gin only bounds the
	// parse buffering, not the part size.
	if h.maxUploadBytes > 0 && fileHeader.Size > h.maxUploadBytes {
		detail(c, http.StatusRequestEntityTooLarge, "Uploaded file is too large")
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		detail(c, http.StatusBadRequest, "Failed to open uploaded file")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		detail(c, http.StatusBadRequest, "Failed to read uploaded file")
		return
	}

	key := cache.Key(data)
	if h.cache != nil {
		if payload, ok := h.cache.Get(c.Request.Context(), key); ok {
			c.Data(http.StatusOK, "application/json; charset=utf-8", payload)
			return
		}
	}

	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		detail(c, http.StatusBadRequest, "Invalid image format. Supported: JPEG, PNG")
		return
	}

	input := model.Preprocess(img, h.engine.Metadata().ImageSize)

	start := time.Now()
	pred, err := h.engine.Predict(input)
	latency := time.Since(start)
	if err != nil {
		if errors.Is(err, model.ErrNotLoaded) {
			detail(c, http.StatusServiceUnavailable, "Model not found. Please ensure the model artifact is deployed")
			return
		}
		h.logger.Error("prediction failed",
			zap.String("filename", fileHeader.Filename),
			zap.Error(err))
		detail(c, http.StatusInternalServerError, "Prediction failed")
		return
	}

	metrics.ObservePrediction(pred.Class, latency)

	resp := PredictResponse{
		ID:            uuid.NewString(),
		Prediction:    pred.Class,
		Confidence:    pred.Confidence,
		SeverityLevel: pred.Severity,
		Scores:        pred.Scores,
		ModelInfo:     "Cloud-deployed trained model",
	}

	h.logger.Info("prediction served",
		zap.String("id", resp.ID),
		zap.String("filename", fileHeader.Filename),
		zap.String("format", format),
		zap.String("class", pred.Class),
		zap.Float32("confidence", pred.Confidence),
		zap.Duration("latency", latency))

	if h.auditLog != nil {
		rec := &store.Record{
			ID:         resp.ID,
			Filename:   fileHeader.Filename,
			Class:      pred.Class,
			Confidence: pred.Confidence,
			Severity:   pred.Severity,
			LatencyMS:  latency.Milliseconds(),
			CreatedAt:  time.Now().UTC(),
		}
		if err := h.auditLog.Insert(rec); err != nil {
			h.logger.Error("failed to record prediction", zap.String("id", resp.ID), zap.Error(err))
		}
	}

	if h.hub != nil {
		h.hub.BroadcastJSON(resp)
	}

	payload, err := json.Marshal(resp)
	if err != nil {
		detail(c, http.StatusInternalServerError, "Prediction failed")
		return
	}
	if h.cache != nil {
		h.cache.Set(c.Request.Context(), key, payload)
	}

	c.Data(http.StatusOK, "application/json; charset=utf-8", payload)
}

// RecentPredictions serves GET /predictions/recent.
func (h *Handler) RecentPredictions(c *gin.Context) {
	if h.auditLog == nil {
		detail(c, http.StatusNotFound, "Prediction log is disabled")
		return
	}

	limit := 20
	if raw := c.Query("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 && n <= 200 {
			limit = n
		}
	}

	records, err := h.auditLog.Recent(limit)
	if err != nil {
		h.logger.Error("failed to query predictions", zap.Error(err))
		detail(c, http.StatusInternalServerError, "Failed to query predictions")
		return
	}
	if records == nil {
		records = []store.Record{}
	}

	c.JSON(http.StatusOK, gin.H{"predictions": records})
}

// PredictionStats serves GET /predictions/stats.
func (h *Handler) PredictionStats(c *gin.Context) {
	if h.auditLog == nil {
		detail(c, http.StatusNotFound, "Prediction log is disabled")
		return
	}

	stats, err := h.auditLog.GetStats()
	if err != nil {
		h.logger.Error("failed to aggregate predictions", zap.Error(err))
		detail(c, http.StatusInternalServerError, "Failed to aggregate predictions")
		return
	}

	c.JSON(http.StatusOK, stats)
}
