package services

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"golang.org/x/oauth2"

	"github.com/lumeboard/lumeboard/backend/models"
	"github.com/lumeboard/lumeboard/backend/repository"
)

type OAuthEndpoints struct {
	oauthService *OAuthService
	repo         *repository.GORMRepository
	settingsURL  string
}

func NewOAuthEndpoints(oauthService *OAuthService, repo *repository.GORMRepository, config *Config) *OAuthEndpoints {
	return &OAuthEndpoints{
		oauthService: oauthService,
		repo:         repo,
		settingsURL:  config.Server.BaseURL + "/settings/connections",
	}
}

func (e *OAuthEndpoints) RegisterRoutes(r chi.Router) {
	r.Route("/connect", func(r chi.Router) {
		r.Get("/{provider}", e.ConnectHandler)
		r.Get("/{provider}/callback", e.CallbackHandler)
	})
	r.Route("/connections", func(r chi.Router) {
		r.Get("/", e.ListHandler)
		r.Delete("/{provider}", e.DisconnectHandler)
	})
}

func (e *OAuthEndpoints) ConnectHandler(w http.ResponseWriter, r *http.Request) {
	if _, ok := r.Context().Value("user").(*models.User); !ok {
		http.Error(w, "Not authenticated", http.StatusUnauthorized)
		return
	}

	provider := chi.URLParam(r, "provider")
	cfg := e.oauthService.ProviderConfig(provider)
	if cfg == nil {
		http.Error(w, "Unknown provider", http.StatusNotFound)
		return
	}

	state, err := e.oauthService.GenerateState()
	if err != nil {
		slog.Error("Failed to generate oauth state", "error", err)
		http.Error(w, "Failed to start connection", http.StatusInternalServerError)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     "oauth_state",
		Value:    state,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   600,
	})

	http.Redirect(w, r, cfg.AuthCodeURL(state, oauth2.AccessTypeOffline), http.StatusFound)
}

func (e *OAuthEndpoints) CallbackHandler(w http.ResponseWriter, r *http.Request) {
	user, ok := r.Context().Value("user").(*models.User)
	if !ok {
		http.Error(w, "Not authenticated", http.StatusUnauthorized)
		return
	}

	provider := chi.URLParam(r, "provider")
	if e.oauthService.ProviderConfig(provider) == nil {
		http.Error(w, "Unknown provider", http.StatusNotFound)
		return
	}

	if errCode := r.URL.Query().Get("error"); errCode != "" {
		slog.Warn("OAuth flow denied by provider", "provider", provider, "error", errCode)
		e.redirect(w, r, "?error=provider_denied")
		return
	}

	stateCookie, err := r.Cookie("oauth_state")
	if err != nil || stateCookie.Value == "" || stateCookie.Value != r.URL.Query().Get("state") {
		slog.Warn("OAuth state mismatch", "provider", provider, "user_id", user.ID)
		e.redirect(w, r, "?error=state_mismatch")
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     "oauth_state",
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		MaxAge:   -1,
	})

	code := r.URL.Query().Get("code")
	if code == "" {
		e.redirect(w, r, "?error=missing_code")
		return
	}

	if err := e.oauthService.CompleteConnection(r.Context(), user.ID, provider, code); err != nil {
		slog.Error("Failed to complete oauth connection", "error", err, "provider", provider, "user_id", user.ID)
		e.redirect(w, r, "?error=connection_failed")
		return
	}

	e.redirect(w, r, "?connected="+provider)
}

func (e *OAuthEndpoints) redirect(w http.ResponseWriter, r *http.Request, query string) {
	http.Redirect(w, r, e.settingsURL+query, http.StatusFound)
}

func (e *OAuthEndpoints) ListHandler(w http.ResponseWriter, r *http.Request) {
	user, ok := r.Context().Value("user").(*models.User)
	if !ok {
		http.Error(w, "Not authenticated", http.StatusUnauthorized)
		return
	}

	conns, err := e.repo.GetOAuthConnections(r.Context(), user.ID)
	if err != nil {
		http.Error(w, "Failed to get connections", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{"connections": conns})
}

func (e *OAuthEndpoints) DisconnectHandler(w http.ResponseWriter, r *http.Request) {
	user, ok := r.Context().Value("user").(*models.User)
	if !ok {
		http.Error(w, "Not authenticated", http.StatusUnauthorized)
		return
	}

	provider := chi.URLParam(r, "provider")
	conn, err := e.repo.GetOAuthConnection(r.Context(), user.ID, provider)
	if err != nil {
		http.Error(w, "Failed to get connection", http.StatusInternalServerError)
		return
	}
	if conn == nil {
		http.Error(w, "Connection not found", http.StatusNotFound)
		return
	}

	if err := e.repo.DeleteOAuthConnection(r.Context(), user.ID, provider); err != nil {
		http.Error(w, "Failed to disconnect", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"message": "Disconnected " + provider})
}
