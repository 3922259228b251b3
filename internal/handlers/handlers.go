// Package handlers содержит HTTP обработчики для API
package handlers

import (
	"context"
	"net/http"
	"runtime"
	"strconv"
	"time"

	json "github.com/goccy/go-json"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"

	"github.com/idgaron/Capstone-Software/internal/metrics"
	"github.com/idgaron/Capstone-Software/internal/models"
)

// FrameCache внешнее хранилище кадров (Redis)
type FrameCache interface {
	Ping(ctx context.Context) error
	LatestFrame(ctx context.Context) (models.Frame, bool, error)
	History(ctx context.Context, count int64) ([]models.Frame, error)
}

const (
	defaultHistoryCount = 10
	maxHistoryCount     = 1000
)

// Handler содержит зависимости для HTTP обработчиков
type Handler struct {
	store     *FrameStore
	cache     FrameCache
	startTime time.Time
}

// NewHandler создает новый обработчик. cache может быть nil.
func NewHandler(store *FrameStore, cache FrameCache) *Handler {
	return &Handler{
		store:     store,
		cache:     cache,
		startTime: time.Now(),
	}
}

// SpectrumResponse ответ GET /spectrum
type SpectrumResponse struct {
	Seq         uint64      `json:"seq"`
	Frequencies []float64   `json:"frequencies"`
	Magnitudes  []float64   `json:"magnitudes"`
	Peak        models.Peak `json:"peak"`
}

// SamplesResponse ответ GET /samples
type SamplesResponse struct {
	Seq      uint64    `json:"seq"`
	TimeAxis []float64 `json:"time_axis"`
	Samples  []float64 `json:"samples"`
}

// NewRouter регистрирует маршруты API и middleware
func NewRouter(h *Handler) *mux.Router {
	router := mux.NewRouter()

	router.HandleFunc("/frame", h.FrameHandler).Methods(http.MethodGet)
	router.HandleFunc("/spectrum", h.SpectrumHandler).Methods(http.MethodGet)
	router.HandleFunc("/samples", h.SamplesHandler).Methods(http.MethodGet)
	router.HandleFunc("/frames", h.HistoryHandler).Methods(http.MethodGet)
	router.HandleFunc("/health", h.HealthHandler).Methods(http.MethodGet)
	router.HandleFunc("/stats", h.StatsHandler).Methods(http.MethodGet)

	// Prometheus метрики
	router.Handle("/prometheus", promhttp.Handler())

	router.Use(loggingMiddleware)
	return router
}

// FrameHandler обрабатывает GET /frame - последний кадр целиком.
// До первого расчета отдает кадр, сохраненный в Redis предыдущим запуском.
func (h *Handler) FrameHandler(w http.ResponseWriter, r *http.Request) {
	timer := prometheus.NewTimer(metrics.RequestDuration.WithLabelValues("/frame", r.Method))
	defer timer.ObserveDuration()

	frame, ok := h.store.Latest()
	if !ok && h.cache != nil {
		cached, found, err := h.cache.LatestFrame(r.Context())
		if err != nil {
			log.Warnf("Failed to read latest frame from cache: %v", err)
		}
		frame, ok = cached, found
	}
	if !ok {
		h.respondError(w, "No frame computed yet", http.StatusServiceUnavailable)
		metrics.RequestsTotal.WithLabelValues("/frame", r.Method, "503").Inc()
		return
	}

	metrics.RequestsTotal.WithLabelValues("/frame", r.Method, "200").Inc()
	h.respondJSON(w, frame, http.StatusOK)
}

// SpectrumHandler обрабатывает GET /spectrum - частоты и амплитуды последнего кадра
func (h *Handler) SpectrumHandler(w http.ResponseWriter, r *http.Request) {
	timer := prometheus.NewTimer(metrics.RequestDuration.WithLabelValues("/spectrum", r.Method))
	defer timer.ObserveDuration()

	frame, ok := h.store.Latest()
	if !ok {
		h.respondError(w, "No frame computed yet", http.StatusServiceUnavailable)
		metrics.RequestsTotal.WithLabelValues("/spectrum", r.Method, "503").Inc()
		return
	}

	response := SpectrumResponse{
		Seq:         frame.Seq,
		Frequencies: frame.Spectrum.Frequencies,
		Magnitudes:  frame.Spectrum.Magnitudes,
		Peak:        frame.Peak,
	}

	metrics.RequestsTotal.WithLabelValues("/spectrum", r.Method, "200").Inc()
	h.respondJSON(w, response, http.StatusOK)
}

// SamplesHandler обрабатывает GET /samples?count=N - последние N отсчетов окна
func (h *Handler) SamplesHandler(w http.ResponseWriter, r *http.Request) {
	timer := prometheus.NewTimer(metrics.RequestDuration.WithLabelValues("/samples", r.Method))
	defer timer.ObserveDuration()

	frame, ok := h.store.Latest()
	if !ok {
		h.respondError(w, "No frame computed yet", http.StatusServiceUnavailable)
		metrics.RequestsTotal.WithLabelValues("/samples", r.Method, "503").Inc()
		return
	}

	count := len(frame.Samples)
	if countStr := r.URL.Query().Get("count"); countStr != "" {
		c, err := strconv.Atoi(countStr)
		if err != nil || c <= 0 {
			h.respondError(w, "Invalid count: "+countStr, http.StatusBadRequest)
			metrics.RequestsTotal.WithLabelValues("/samples", r.Method, "400").Inc()
			return
		}
		if c < count {
			count = c
		}
	}

	from := len(frame.Samples) - count
	response := SamplesResponse{
		Seq:     frame.Seq,
		Samples: frame.Samples[from:],
	}
	if len(frame.TimeAxis) == len(frame.Samples) {
		response.TimeAxis = frame.TimeAxis[from:]
	}

	metrics.RequestsTotal.WithLabelValues("/samples", r.Method, "200").Inc()
	h.respondJSON(w, response, http.StatusOK)
}

// HistoryHandler обрабатывает GET /frames?count=N - последние кадры из Redis, от нового к старому
func (h *Handler) HistoryHandler(w http.ResponseWriter, r *http.Request) {
	timer := prometheus.NewTimer(metrics.RequestDuration.WithLabelValues("/frames", r.Method))
	defer timer.ObserveDuration()

	count := int64(defaultHistoryCount)
	if countStr := r.URL.Query().Get("count"); countStr != "" {
		c, err := strconv.ParseInt(countStr, 10, 64)
		if err != nil || c <= 0 || c > maxHistoryCount {
			h.respondError(w, "Invalid count: "+countStr, http.StatusBadRequest)
			metrics.RequestsTotal.WithLabelValues("/frames", r.Method, "400").Inc()
			return
		}
		count = c
	}

	if h.cache == nil {
		h.respondError(w, "Cache not available", http.StatusServiceUnavailable)
		metrics.RequestsTotal.WithLabelValues("/frames", r.Method, "503").Inc()
		return
	}

	frames, err := h.cache.History(r.Context(), count)
	if err != nil {
		h.respondError(w, "Failed to get frames: "+err.Error(), http.StatusInternalServerError)
		metrics.RequestsTotal.WithLabelValues("/frames", r.Method, "500").Inc()
		return
	}

	metrics.RequestsTotal.WithLabelValues("/frames", r.Method, "200").Inc()
	h.respondJSON(w, frames, http.StatusOK)
}

// HealthHandler обрабатывает GET /health - проверка здоровья
func (h *Handler) HealthHandler(w http.ResponseWriter, r *http.Request) {
	redisStatus := "disabled"
	if h.cache != nil {
		redisStatus = "disconnected"
		if h.cache.Ping(r.Context()) == nil {
			redisStatus = "connected"
		}
	}

	frames, _ := h.store.Frames()
	status := models.HealthStatus{
		Status:    "healthy",
		Timestamp: time.Now(),
		Redis:     redisStatus,
		Uptime:    time.Since(h.startTime).String(),
		LastFrame: frames,
	}

	h.respondJSON(w, status, http.StatusOK)
}

// StatsHandler обрабатывает GET /stats - статистика монитора
func (h *Handler) StatsHandler(w http.ResponseWriter, r *http.Request) {
	timer := prometheus.NewTimer(metrics.RequestDuration.WithLabelValues("/stats", r.Method))
	defer timer.ObserveDuration()

	// Обновляем метрику горутин
	metrics.ActiveGoroutines.Set(float64(runtime.NumGoroutine()))

	frame, _ := h.store.Latest()
	frames, updatedAt := h.store.Frames()

	response := models.StatsResponse{
		Frames:       frames,
		Pushes:       frame.Pushes,
		WindowSize:   len(frame.Samples),
		Bins:         frame.Spectrum.Len(),
		Peak:         frame.Peak,
		Window:       frame.Stats,
		LastUpdateAt: updatedAt,
	}

	metrics.RequestsTotal.WithLabelValues("/stats", r.Method, "200").Inc()
	h.respondJSON(w, response, http.StatusOK)
}

// respondJSON отправляет JSON ответ
func (h *Handler) respondJSON(w http.ResponseWriter, data interface{}, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Warnf("Failed to encode response: %v", err)
	}
}

// respondError отправляет ошибку в JSON формате
func (h *Handler) respondError(w http.ResponseWriter, message string, status int) {
	h.respondJSON(w, map[string]string{"error": message}, status)
}

// loggingMiddleware логирует HTTP запросы
func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		log.WithFields(log.Fields{
			"method":   r.Method,
			"path":     r.URL.Path,
			"duration": time.Since(start).String(),
		}).Debug("HTTP request")
	})
}
