package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/user/restaurant-kb-sync/internal/delivery/http/request"
	"github.com/user/restaurant-kb-sync/internal/delivery/http/response"
	"github.com/user/restaurant-kb-sync/internal/entity"
	"github.com/user/restaurant-kb-sync/internal/knowledge"
	"github.com/user/restaurant-kb-sync/internal/usecase"
)

// HealthCheck pings one backing service.
type HealthCheck func(ctx context.Context) error

type Handler struct {
	daily   usecase.DailyContentProvider
	scrapes usecase.ScrapeManager
	sync    usecase.Synchronizer
	checks  map[string]HealthCheck
	logger  *zap.Logger
	now     func() time.Time
}

func NewHandler(
	daily usecase.DailyContentProvider,
	scrapes usecase.ScrapeManager,
	sync usecase.Synchronizer,
	checks map[string]HealthCheck,
	logger *zap.Logger,
) *Handler {
	return &Handler{
		daily:   daily,
		scrapes: scrapes,
		sync:    sync,
		checks:  checks,
		logger:  logger,
		now:     time.Now,
	}
}

func (h *Handler) HandleGetDaily(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")

	content, err := h.daily.GetDaily(r.Context(), slug)
	if err != nil {
		switch {
		case errors.Is(err, usecase.ErrRestaurantNotFound):
			h.writeJSONError(w, "Restaurant not found", http.StatusNotFound)
		case errors.Is(err, usecase.ErrSiteUnreachable):
			h.writeJSONError(w, "Restaurant website could not be fetched", http.StatusBadGateway)
		default:
			h.logger.Error("Failed to get daily content", zap.String("slug", slug), zap.Error(err))
			h.writeJSONError(w, "Internal server error", http.StatusInternalServerError)
		}
		return
	}

	h.writeJSON(w, http.StatusOK, content)
}

func (h *Handler) HandleGetKnowledge(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")

	entries, err := h.scrapes.GetKnowledge(r.Context(), slug)
	if err != nil {
		if errors.Is(err, usecase.ErrRestaurantNotFound) {
			h.writeJSONError(w, "No scraped content for restaurant", http.StatusNotFound)
			return
		}
		h.logger.Error("Failed to get knowledge entries", zap.String("slug", slug), zap.Error(err))
		h.writeJSONError(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/x-ndjson; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	if err := knowledge.WriteJSONL(w, entries); err != nil {
		h.logger.Error("Failed to write knowledge entries", zap.String("slug", slug), zap.Error(err))
	}
}

func (h *Handler) HandleSyncRestaurant(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")

	res := h.sync.SyncCustomer(r.Context(), slug, usecase.TriggerManual)
	if res.Status != entity.SyncFailed {
		h.writeJSON(w, http.StatusOK, response.NewSyncResult(res))
		return
	}

	switch {
	case errors.Is(res.Err, usecase.ErrRestaurantNotFound):
		h.writeJSONError(w, "Restaurant not found", http.StatusNotFound)
	case errors.Is(res.Err, usecase.ErrMissingConfiguration):
		h.writeJSONError(w, res.Reason, http.StatusBadRequest)
	default:
		h.writeJSONError(w, "Sync failed: "+res.Reason, http.StatusBadGateway)
	}
}

func (h *Handler) HandleScrapeURL(w http.ResponseWriter, r *http.Request) {
	var req request.ScrapeURLRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	job, err := h.scrapes.Submit(r.Context(), usecase.ScrapeRequest{
		URL:                 req.URL,
		Name:                req.Name,
		SyncToKnowledgeBase: req.SyncToElevenLabs,
		Force:               req.Force,
	})
	if err != nil {
		switch {
		case errors.Is(err, usecase.ErrInvalidScrapeRequest):
			h.writeJSONError(w, err.Error(), http.StatusBadRequest)
		case errors.Is(err, usecase.ErrRecentlyScraped):
			resp := response.ScrapeURLResponse{Message: err.Error()}
			if job != nil {
				resp.Slug = job.Slug
			}
			h.writeJSON(w, http.StatusConflict, resp)
		default:
			h.logger.Error("Failed to submit site", zap.String("url", req.URL), zap.Error(err))
			h.writeJSONError(w, "Internal server error", http.StatusInternalServerError)
		}
		return
	}

	h.writeJSON(w, http.StatusAccepted, response.ScrapeURLResponse{
		Slug:    job.Slug,
		Message: "Scraping started",
		JobID:   job.ID,
	})
}

func (h *Handler) HandleScrapeStatus(w http.ResponseWriter, r *http.Request) {
	rawURL := r.URL.Query().Get("url")
	if rawURL == "" {
		h.writeJSONError(w, "URL query parameter is required", http.StatusBadRequest)
		return
	}

	if _, err := url.ParseRequestURI(rawURL); err != nil {
		h.writeJSONError(w, "Invalid URL format in query parameter", http.StatusBadRequest)
		return
	}

	status, err := h.scrapes.GetStatus(r.Context(), rawURL)
	if err != nil {
		h.logger.Error("Failed to get scrape status", zap.String("url", rawURL), zap.Error(err))
		h.writeJSONError(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	if status.CurrentStatus == "not_found" {
		h.writeJSONError(w, "Scrape status not found for the given URL", http.StatusNotFound)
		return
	}

	h.writeJSON(w, http.StatusOK, response.ScrapeStatusResponse{
		URL:                 status.URL,
		CurrentStatus:       status.CurrentStatus,
		LastScrapeTimestamp: status.LastScrapeTimestamp,
		FailureReason:       status.FailureReason,
	})
}

// HandleCronUpdate runs the scheduled sync for ?hour=N, or the current hour
// when the parameter is absent. Per-restaurant failures are reported in the
// body and never change the status code.
func (h *Handler) HandleCronUpdate(w http.ResponseWriter, r *http.Request) {
	hour := -1
	if raw := r.URL.Query().Get("hour"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 || n > 23 {
			h.writeJSONError(w, "hour must be an integer between 0 and 23", http.StatusBadRequest)
			return
		}
		hour = n
	}

	// The batch may outlive the server's write timeout.
	if err := http.NewResponseController(w).SetWriteDeadline(time.Time{}); err != nil {
		h.logger.Debug("Could not clear write deadline", zap.Error(err))
	}

	report, err := h.sync.RunScheduled(r.Context(), hour, h.now())
	if err != nil {
		h.logger.Error("Scheduled sync could not start", zap.Error(err))
		h.writeJSONError(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	h.writeJSON(w, http.StatusOK, response.NewBatchReport(report))
}

func (h *Handler) HandleHealthCheck(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	status := map[string]string{"status": "ok"}
	healthy := true
	for name, check := range h.checks {
		if err := check(ctx); err != nil {
			status[name] = "unhealthy"
			healthy = false
			h.logger.Error("Health check failed", zap.String("service", name), zap.Error(err))
			continue
		}
		status[name] = "healthy"
	}

	if !healthy {
		status["status"] = "degraded"
		h.writeJSON(w, http.StatusServiceUnavailable, status)
		return
	}
	h.writeJSON(w, http.StatusOK, status)
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("Failed to write JSON response", zap.Error(err))
	}
}

func (h *Handler) writeJSONError(w http.ResponseWriter, message string, status int) {
	h.writeJSON(w, status, map[string]string{"error": message})
}
