package services

import (
	"crypto/subtle"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/lumeboard/lumeboard/backend/models"
	"github.com/lumeboard/lumeboard/backend/repository"
)

type NewsEndpoints struct {
	newsService   *NewsService
	repo          *repository.GORMRepository
	refreshSecret string
}

type CreateNewsSourceRequest struct {
	Name     string `json:"name" validate:"required"`
	FeedURL  string `json:"feed_url" validate:"required"`
	Category string `json:"category"`
}

func NewNewsEndpoints(newsService *NewsService, repo *repository.GORMRepository, config *Config) *NewsEndpoints {
	return &NewsEndpoints{
		newsService:   newsService,
		repo:          repo,
		refreshSecret: config.News.RefreshSecret,
	}
}

func (e *NewsEndpoints) RegisterRoutes(r chi.Router) {
	r.Route("/news", func(r chi.Router) {
		r.Get("/", e.GetItemsHandler)
		r.Get("/sources", e.GetSourcesHandler)
		r.Post("/sources", e.CreateSourceHandler)
		r.Delete("/sources/{id}", e.DeleteSourceHandler)
	})
}

// RegisterRefreshRoutes registers the cron-facing refresh hook outside the
// cookie auth middleware; it authorizes with a bearer secret instead.
func (e *NewsEndpoints) RegisterRefreshRoutes(r chi.Router) {
	r.Post("/news/refresh", e.RefreshHandler)
}

func (e *NewsEndpoints) GetItemsHandler(w http.ResponseWriter, r *http.Request) {
	user, ok := r.Context().Value("user").(*models.User)
	if !ok {
		http.Error(w, "User not found in context", http.StatusInternalServerError)
		return
	}

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	items, err := e.newsService.GetItems(r.Context(), user.ID, limit)
	if err != nil {
		slog.Error("Failed to get news items", "error", err, "user_id", user.ID)
		http.Error(w, "Failed to get news items", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"items": items,
		"count": len(items),
	})
}

func (e *NewsEndpoints) GetSourcesHandler(w http.ResponseWriter, r *http.Request) {
	user, ok := r.Context().Value("user").(*models.User)
	if !ok {
		http.Error(w, "User not found in context", http.StatusInternalServerError)
		return
	}

	sources, err := e.repo.GetNewsSources(r.Context(), user.ID)
	if err != nil {
		slog.Error("Failed to get news sources", "error", err, "user_id", user.ID)
		http.Error(w, "Failed to get news sources", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"sources": sources,
		"count":   len(sources),
	})
}

func (e *NewsEndpoints) CreateSourceHandler(w http.ResponseWriter, r *http.Request) {
	user, ok := r.Context().Value("user").(*models.User)
	if !ok {
		http.Error(w, "User not found in context", http.StatusInternalServerError)
		return
	}

	var req CreateNewsSourceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.Name == "" || req.FeedURL == "" {
		http.Error(w, "Name and feed URL are required", http.StatusBadRequest)
		return
	}
	if !strings.HasPrefix(req.FeedURL, "http://") && !strings.HasPrefix(req.FeedURL, "https://") {
		http.Error(w, "Feed URL must be http or https", http.StatusBadRequest)
		return
	}

	source, err := e.newsService.AddSource(r.Context(), user.ID, req.Name, req.FeedURL, req.Category)
	if err != nil {
		slog.Error("Failed to create news source", "error", err, "user_id", user.ID)
		http.Error(w, "Failed to create news source", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"source":  source,
		"message": "News source created successfully",
	})

	slog.Info("News source created", "source_id", source.ID, "user_id", user.ID, "url", source.FeedURL)
}

func (e *NewsEndpoints) DeleteSourceHandler(w http.ResponseWriter, r *http.Request) {
	user, ok := r.Context().Value("user").(*models.User)
	if !ok {
		http.Error(w, "User not found in context", http.StatusInternalServerError)
		return
	}

	sourceID := chi.URLParam(r, "id")
	if err := e.repo.DeleteNewsSource(r.Context(), sourceID, user.ID); err != nil {
		slog.Error("Failed to delete news source", "error", err, "source_id", sourceID)
		http.Error(w, "Failed to delete news source", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"message": "News source deleted successfully"})
}

func (e *NewsEndpoints) RefreshHandler(w http.ResponseWriter, r *http.Request) {
	auth := r.Header.Get("Authorization")
	token, ok := strings.CutPrefix(auth, "Bearer ")
	if !ok || e.refreshSecret == "" ||
		subtle.ConstantTimeCompare([]byte(token), []byte(e.refreshSecret)) != 1 {
		slog.Warn("News refresh rejected: bad secret")
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	refreshed, err := e.newsService.RefreshAll(r.Context())
	if err != nil {
		slog.Error("News refresh failed", "error", err)
		http.Error(w, "Refresh failed", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"message":   "Refresh complete",
		"refreshed": refreshed,
	})
}
