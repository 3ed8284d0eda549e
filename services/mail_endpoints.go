package services

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/lumeboard/lumeboard/backend/models"
	"github.com/lumeboard/lumeboard/backend/repository"
)

type MailEndpoints struct {
	repo        *repository.GORMRepository
	mailService *MailService
}

type CreateMailAccountRequest struct {
	Provider     string `json:"provider" validate:"required"`
	Email        string `json:"email" validate:"required"`
	Label        string `json:"label"`
	IMAPHost     string `json:"imap_host"`
	IMAPPort     int    `json:"imap_port"`
	IMAPUsername string `json:"imap_username"`
	IMAPPassword string `json:"imap_password"`
}

type MailBulkActionRequest struct {
	Action     string   `json:"action" validate:"required"`
	MessageIDs []string `json:"message_ids" validate:"required"`
}

func NewMailEndpoints(repo *repository.GORMRepository, mailService *MailService) *MailEndpoints {
	return &MailEndpoints{
		repo:        repo,
		mailService: mailService,
	}
}

func (e *MailEndpoints) RegisterRoutes(r chi.Router) {
	r.Route("/mail", func(r chi.Router) {
		r.Post("/accounts", e.CreateAccountHandler)
		r.Get("/accounts", e.GetAccountsHandler)
		r.Delete("/accounts/{id}", e.DeleteAccountHandler)
		r.Get("/accounts/{id}/messages", e.ListMessagesHandler)
		r.Post("/accounts/{id}/bulk", e.BulkActionHandler)
	})
}

func (e *MailEndpoints) CreateAccountHandler(w http.ResponseWriter, r *http.Request) {
	user, ok := r.Context().Value("user").(*models.User)
	if !ok {
		http.Error(w, "User not found in context", http.StatusInternalServerError)
		return
	}

	var req CreateMailAccountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	account := &models.MailAccount{
		UserID:   user.ID,
		Provider: req.Provider,
		Email:    req.Email,
		Label:    req.Label,
		IsActive: true,
	}

	switch req.Provider {
	case "imap":
		if req.IMAPHost == "" || req.IMAPPort == 0 || req.IMAPUsername == "" || req.IMAPPassword == "" {
			http.Error(w, "IMAP host, port, username and password are required", http.StatusBadRequest)
			return
		}
		encrypted, err := e.mailService.EncryptIMAPPassword(req.IMAPPassword)
		if err != nil {
			slog.Error("Failed to encrypt imap password", "error", err, "user_id", user.ID)
			http.Error(w, "Failed to store credentials", http.StatusInternalServerError)
			return
		}
		account.IMAPHost = req.IMAPHost
		account.IMAPPort = req.IMAPPort
		account.IMAPUsername = req.IMAPUsername
		account.IMAPPassword = encrypted
	case "gmail":
		// Gmail accounts ride on the user's google OAuth connection
		conn, err := e.repo.GetOAuthConnection(r.Context(), user.ID, "google")
		if err != nil {
			http.Error(w, "Failed to check connection", http.StatusInternalServerError)
			return
		}
		if conn == nil {
			http.Error(w, "Connect your Google account first", http.StatusPreconditionFailed)
			return
		}
		account.ConnectionID = &conn.ID
	case "outlook":
		conn, err := e.repo.GetOAuthConnection(r.Context(), user.ID, "microsoft")
		if err != nil {
			http.Error(w, "Failed to check connection", http.StatusInternalServerError)
			return
		}
		if conn == nil {
			http.Error(w, "Connect your Microsoft account first", http.StatusPreconditionFailed)
			return
		}
		account.ConnectionID = &conn.ID
	default:
		http.Error(w, "Invalid provider", http.StatusBadRequest)
		return
	}

	if err := e.repo.CreateMailAccount(r.Context(), account); err != nil {
		slog.Error("Failed to create mail account", "error", err, "user_id", user.ID)
		http.Error(w, "Failed to create mail account", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"account": account,
		"message": "Mail account created successfully",
	})

	slog.Info("Mail account created", "account_id", account.ID, "user_id", user.ID, "provider", account.Provider)
}

func (e *MailEndpoints) GetAccountsHandler(w http.ResponseWriter, r *http.Request) {
	user, ok := r.Context().Value("user").(*models.User)
	if !ok {
		http.Error(w, "User not found in context", http.StatusInternalServerError)
		return
	}

	accounts, err := e.repo.GetMailAccounts(r.Context(), user.ID)
	if err != nil {
		slog.Error("Failed to get mail accounts", "error", err, "user_id", user.ID)
		http.Error(w, "Failed to get mail accounts", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"accounts": accounts,
		"count":    len(accounts),
	})
}

func (e *MailEndpoints) DeleteAccountHandler(w http.ResponseWriter, r *http.Request) {
	user, ok := r.Context().Value("user").(*models.User)
	if !ok {
		http.Error(w, "User not found in context", http.StatusInternalServerError)
		return
	}

	accountID := chi.URLParam(r, "id")
	account, err := e.repo.GetMailAccount(r.Context(), accountID, user.ID)
	if err != nil {
		http.Error(w, "Failed to get mail account", http.StatusInternalServerError)
		return
	}
	if account == nil {
		http.Error(w, "Mail account not found", http.StatusNotFound)
		return
	}

	if err := e.repo.DeleteMailAccount(r.Context(), accountID); err != nil {
		slog.Error("Failed to delete mail account", "error", err, "account_id", accountID)
		http.Error(w, "Failed to delete mail account", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"message": "Mail account deleted successfully"})

	slog.Info("Mail account deleted", "account_id", accountID, "user_id", user.ID)
}

func (e *MailEndpoints) ListMessagesHandler(w http.ResponseWriter, r *http.Request) {
	user, ok := r.Context().Value("user").(*models.User)
	if !ok {
		http.Error(w, "User not found in context", http.StatusInternalServerError)
		return
	}

	accountID := chi.URLParam(r, "id")
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	messages, err := e.mailService.ListMessages(r.Context(), user.ID, accountID, limit)
	if err != nil {
		if errors.Is(err, ErrProviderNotImplemented) {
			http.Error(w, "Provider not implemented", http.StatusNotImplemented)
			return
		}
		slog.Error("Failed to list mail messages", "error", err, "account_id", accountID)
		http.Error(w, "Failed to list messages", http.StatusBadGateway)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"messages": messages,
		"count":    len(messages),
	})
}

func (e *MailEndpoints) BulkActionHandler(w http.ResponseWriter, r *http.Request) {
	user, ok := r.Context().Value("user").(*models.User)
	if !ok {
		http.Error(w, "User not found in context", http.StatusInternalServerError)
		return
	}

	accountID := chi.URLParam(r, "id")

	var req MailBulkActionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if !ValidMailAction(req.Action) {
		http.Error(w, "Invalid action", http.StatusBadRequest)
		return
	}
	if len(req.MessageIDs) == 0 {
		http.Error(w, "Message IDs are required", http.StatusBadRequest)
		return
	}

	result, err := e.mailService.BulkAction(r.Context(), user.ID, accountID, req.Action, req.MessageIDs)
	if err != nil {
		if errors.Is(err, ErrProviderNotImplemented) {
			http.Error(w, "Provider not implemented", http.StatusNotImplemented)
			return
		}
		slog.Error("Failed to apply bulk action", "error", err, "account_id", accountID, "action", req.Action)
		http.Error(w, "Failed to apply bulk action", http.StatusBadGateway)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(result)
}
