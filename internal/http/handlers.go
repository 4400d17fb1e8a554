package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/newsforge/forecast-image-service/internal/cache"
	"github.com/newsforge/forecast-image-service/internal/client"
	"github.com/newsforge/forecast-image-service/internal/service"
)

const dateLayout = "2006-01-02"

// Handler holds dependencies for HTTP handlers.
type Handler struct {
	forecasts *service.ForecastService
	logger    *zap.Logger
	// cachePing, when set, is called by the health check. Set when the
	// backend is memcached.
	cachePing func() error
}

// NewHandler returns a new Handler. cachePing may be nil.
func NewHandler(forecasts *service.ForecastService, logger *zap.Logger, cachePing func() error) *Handler {
	return &Handler{
		forecasts: forecasts,
		logger:    logger,
		cachePing: cachePing,
	}
}

// GetForecastImage handles GET /forecast. Query parameters: zip (required),
// issue (ISO date, default today), width/height (default dimensions when
// absent; non-numeric or non-positive values are rejected), v (opaque
// cache-busting tag).
func (h *Handler) GetForecastImage(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	zip := strings.TrimSpace(q.Get("zip"))
	if zip == "" {
		writeTextError(w, http.StatusBadRequest, "missing zip parameter")
		return
	}

	var issue time.Time
	if raw := strings.TrimSpace(q.Get("issue")); raw != "" {
		parsed, err := time.Parse(dateLayout, raw)
		if err != nil {
			writeTextError(w, http.StatusBadRequest, "invalid issue date, expected YYYY-MM-DD")
			return
		}
		issue = parsed
	}

	width, err := parseDimension(q.Get("width"))
	if err != nil {
		writeTextError(w, http.StatusBadRequest, "invalid width parameter")
		return
	}
	height, err := parseDimension(q.Get("height"))
	if err != nil {
		writeTextError(w, http.StatusBadRequest, "invalid height parameter")
		return
	}

	svg, err := h.forecasts.Get(r.Context(), service.GetRequest{
		PostalCode: zip,
		IssueDate:  issue,
		Width:      width,
		Height:     height,
		VersionTag: q.Get("v"),
	})
	if err != nil {
		h.writeForecastError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "image/svg+xml")
	w.Header().Set("Cache-Control", "public, max-age=31536000")
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(svg))
}

// parseDimension parses an optional dimension parameter. Empty means "use
// the default" (0); anything non-numeric or non-positive fails closed.
func parseDimension(raw string) (int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, err
	}
	if n <= 0 {
		return 0, errors.New("dimension must be positive")
	}
	return n, nil
}

// writeForecastError maps service errors to responses. Error bodies are
// plain text: the success body is an image, and callers embed the URL in
// <img> tags rather than parsing JSON.
func (h *Handler) writeForecastError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, service.ErrMissingPostalCode), errors.Is(err, cache.ErrInvalidPostalCode):
		writeTextError(w, http.StatusBadRequest, err.Error())
	default:
		var ue *client.UpstreamError
		if errors.As(err, &ue) {
			writeTextError(w, http.StatusBadGateway, "upstream weather provider failed: "+ue.Stage)
		} else {
			writeTextError(w, http.StatusInternalServerError, "internal error")
		}
		if logger, ok := r.Context().Value("logger").(*zap.Logger); ok && logger != nil {
			logger.Error("forecast request failed", zap.Error(err))
		}
	}
}

func writeTextError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write([]byte("Error: " + message))
}

// GetHealth handles GET /health.
func (h *Handler) GetHealth(w http.ResponseWriter, r *http.Request) {
	status := "healthy"
	statusCode := http.StatusOK
	checks := make(map[string]string)
	if h.cachePing != nil {
		if h.cachePing() == nil {
			checks["cache"] = "healthy"
		} else {
			checks["cache"] = "unhealthy"
			status = "degraded"
			statusCode = http.StatusServiceUnavailable
		}
	}
	resp := map[string]interface{}{
		"status":    status,
		"service":   "forecast-image-service",
		"checks":    checks,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(resp)
}
