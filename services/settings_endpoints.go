package services

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/lumeboard/lumeboard/backend/models"
	"github.com/lumeboard/lumeboard/backend/repository"
)

type SettingsEndpoints struct {
	repo *repository.GORMRepository
}

type UpdateSettingsRequest struct {
	Theme        *string `json:"theme"`
	AccentColor  *string `json:"accent_color"`
	Font         *string `json:"font"`
	SidebarWidth *int    `json:"sidebar_width"`
}

type WidgetRequest struct {
	Kind      string          `json:"kind" validate:"required"`
	Slot      int             `json:"slot"`
	PosX      *int            `json:"pos_x"`
	PosY      *int            `json:"pos_y"`
	Width     int             `json:"width"`
	Height    int             `json:"height"`
	IsEnabled *bool           `json:"is_enabled"`
	Config    json.RawMessage `json:"config"`
}

func NewSettingsEndpoints(repo *repository.GORMRepository) *SettingsEndpoints {
	return &SettingsEndpoints{
		repo: repo,
	}
}

func (e *SettingsEndpoints) RegisterRoutes(r chi.Router) {
	r.Route("/settings", func(r chi.Router) {
		r.Get("/", e.GetSettingsHandler)
		r.Put("/", e.UpdateSettingsHandler)
	})
	r.Route("/widgets", func(r chi.Router) {
		r.Post("/", e.CreateWidgetHandler)
		r.Get("/", e.GetWidgetsHandler)
		r.Put("/{id}", e.UpdateWidgetHandler)
		r.Delete("/{id}", e.DeleteWidgetHandler)
	})
}

func (e *SettingsEndpoints) GetSettingsHandler(w http.ResponseWriter, r *http.Request) {
	user, ok := r.Context().Value("user").(*models.User)
	if !ok {
		http.Error(w, "User not found in context", http.StatusInternalServerError)
		return
	}

	settings, err := e.repo.GetOrCreateUserSettings(r.Context(), user.ID)
	if err != nil {
		slog.Error("Failed to get settings", "error", err, "user_id", user.ID)
		http.Error(w, "Failed to get settings", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"settings": settings,
	})
}

func (e *SettingsEndpoints) UpdateSettingsHandler(w http.ResponseWriter, r *http.Request) {
	user, ok := r.Context().Value("user").(*models.User)
	if !ok {
		http.Error(w, "User not found in context", http.StatusInternalServerError)
		return
	}

	settings, err := e.repo.GetOrCreateUserSettings(r.Context(), user.ID)
	if err != nil {
		http.Error(w, "Failed to get settings", http.StatusInternalServerError)
		return
	}

	var req UpdateSettingsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if req.Theme != nil {
		settings.Theme = *req.Theme
	}
	if req.AccentColor != nil {
		settings.AccentColor = *req.AccentColor
	}
	if req.Font != nil {
		settings.Font = *req.Font
	}
	if req.SidebarWidth != nil {
		if *req.SidebarWidth < 160 || *req.SidebarWidth > 600 {
			http.Error(w, "Sidebar width out of range", http.StatusBadRequest)
			return
		}
		settings.SidebarWidth = *req.SidebarWidth
	}

	if err := e.repo.UpdateUserSettings(r.Context(), settings); err != nil {
		slog.Error("Failed to update settings", "error", err, "user_id", user.ID)
		http.Error(w, "Failed to update settings", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"settings": settings,
		"message":  "Settings updated successfully",
	})
}

func (e *SettingsEndpoints) CreateWidgetHandler(w http.ResponseWriter, r *http.Request) {
	user, ok := r.Context().Value("user").(*models.User)
	if !ok {
		http.Error(w, "User not found in context", http.StatusInternalServerError)
		return
	}

	var req WidgetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.Kind == "" {
		http.Error(w, "Widget kind is required", http.StatusBadRequest)
		return
	}

	widget := &models.Widget{
		UserID:    user.ID,
		Kind:      req.Kind,
		Slot:      req.Slot,
		Width:     req.Width,
		Height:    req.Height,
		IsEnabled: true,
	}
	if req.PosX != nil {
		widget.PosX = *req.PosX
	}
	if req.PosY != nil {
		widget.PosY = *req.PosY
	}
	if len(req.Config) > 0 {
		widget.Config = string(req.Config)
	}

	if err := e.repo.CreateWidget(r.Context(), widget); err != nil {
		slog.Error("Failed to create widget", "error", err, "user_id", user.ID, "kind", req.Kind)
		http.Error(w, "Failed to create widget", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"widget":  widget,
		"message": "Widget created successfully",
	})
}

func (e *SettingsEndpoints) GetWidgetsHandler(w http.ResponseWriter, r *http.Request) {
	user, ok := r.Context().Value("user").(*models.User)
	if !ok {
		http.Error(w, "User not found in context", http.StatusInternalServerError)
		return
	}

	widgets, err := e.repo.GetWidgets(r.Context(), user.ID)
	if err != nil {
		slog.Error("Failed to get widgets", "error", err, "user_id", user.ID)
		http.Error(w, "Failed to get widgets", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"widgets": widgets,
		"count":   len(widgets),
	})
}

func (e *SettingsEndpoints) UpdateWidgetHandler(w http.ResponseWriter, r *http.Request) {
	user, ok := r.Context().Value("user").(*models.User)
	if !ok {
		http.Error(w, "User not found in context", http.StatusInternalServerError)
		return
	}

	widgetID := chi.URLParam(r, "id")
	widget, err := e.repo.GetWidget(r.Context(), widgetID, user.ID)
	if err != nil {
		http.Error(w, "Failed to get widget", http.StatusInternalServerError)
		return
	}
	if widget == nil {
		http.Error(w, "Widget not found", http.StatusNotFound)
		return
	}

	var req WidgetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if req.PosX != nil {
		widget.PosX = *req.PosX
	}
	if req.PosY != nil {
		widget.PosY = *req.PosY
	}
	if req.Width > 0 {
		widget.Width = req.Width
	}
	if req.Height > 0 {
		widget.Height = req.Height
	}
	if req.IsEnabled != nil {
		widget.IsEnabled = *req.IsEnabled
	}
	if len(req.Config) > 0 {
		widget.Config = string(req.Config)
	}

	if err := e.repo.UpdateWidget(r.Context(), widget); err != nil {
		slog.Error("Failed to update widget", "error", err, "widget_id", widgetID)
		http.Error(w, "Failed to update widget", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"widget":  widget,
		"message": "Widget updated successfully",
	})
}

func (e *SettingsEndpoints) DeleteWidgetHandler(w http.ResponseWriter, r *http.Request) {
	user, ok := r.Context().Value("user").(*models.User)
	if !ok {
		http.Error(w, "User not found in context", http.StatusInternalServerError)
		return
	}

	widgetID := chi.URLParam(r, "id")
	widget, err := e.repo.GetWidget(r.Context(), widgetID, user.ID)
	if err != nil {
		http.Error(w, "Failed to get widget", http.StatusInternalServerError)
		return
	}
	if widget == nil {
		http.Error(w, "Widget not found", http.StatusNotFound)
		return
	}

	if err := e.repo.DeleteWidget(r.Context(), widgetID); err != nil {
		slog.Error("Failed to delete widget", "error", err, "widget_id", widgetID)
		http.Error(w, "Failed to delete widget", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"message": "Widget deleted successfully"})
}
