package services

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/lumeboard/lumeboard/backend/models"
	"github.com/lumeboard/lumeboard/backend/repository"
)

type ChatEndpoints struct {
	repo             *repository.GORMRepository
	assistantService *AssistantService
}

type CreateConversationRequest struct {
	AgentID string `json:"agent_id" validate:"required"`
	Title   string `json:"title"`
}

type UpdateConversationRequest struct {
	Title  string `json:"title"`
	Status string `json:"status"`
}

func NewChatEndpoints(repo *repository.GORMRepository, assistantService *AssistantService) *ChatEndpoints {
	return &ChatEndpoints{
		repo:             repo,
		assistantService: assistantService,
	}
}

func (e *ChatEndpoints) RegisterRoutes(r chi.Router) {
	r.Route("/conversations", func(r chi.Router) {
		r.Post("/", e.CreateConversationHandler)
		r.Get("/", e.GetConversationsHandler)
		r.Get("/{id}", e.GetConversationHandler)
		r.Get("/{id}/messages", e.GetMessagesHandler)
		r.Put("/{id}", e.UpdateConversationHandler)
		r.Delete("/{id}", e.DeleteConversationHandler)
	})
}

func (e *ChatEndpoints) CreateConversationHandler(w http.ResponseWriter, r *http.Request) {
	user, ok := r.Context().Value("user").(*models.User)
	if !ok {
		http.Error(w, "User not found in context", http.StatusInternalServerError)
		return
	}

	var req CreateConversationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.AgentID == "" {
		http.Error(w, "Agent ID is required", http.StatusBadRequest)
		return
	}

	// The agent must be public or owned by the user
	agent, err := e.repo.GetAgentByID(r.Context(), req.AgentID, user.ID)
	if err != nil || agent == nil {
		http.Error(w, "Agent not found", http.StatusNotFound)
		return
	}

	conversation := &models.Conversation{
		UserID:  user.ID,
		AgentID: agent.ID,
		Title:   req.Title,
		Status:  "active",
	}

	if err := e.repo.CreateConversation(r.Context(), conversation); err != nil {
		slog.Error("Failed to create conversation", "error", err, "user_id", user.ID)
		http.Error(w, "Failed to create conversation", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"conversation": conversation,
		"message":      "Conversation created successfully",
	})

	slog.Info("Conversation created", "conversation_id", conversation.ID, "user_id", user.ID, "agent_id", agent.ID)
}

func (e *ChatEndpoints) GetConversationsHandler(w http.ResponseWriter, r *http.Request) {
	user, ok := r.Context().Value("user").(*models.User)
	if !ok {
		http.Error(w, "User not found in context", http.StatusInternalServerError)
		return
	}

	conversations, err := e.repo.GetConversations(r.Context(), user.ID)
	if err != nil {
		slog.Error("Failed to get conversations", "error", err, "user_id", user.ID)
		http.Error(w, "Failed to get conversations", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"conversations": conversations,
		"count":         len(conversations),
	})
}

func (e *ChatEndpoints) GetConversationHandler(w http.ResponseWriter, r *http.Request) {
	user, ok := r.Context().Value("user").(*models.User)
	if !ok {
		http.Error(w, "User not found in context", http.StatusInternalServerError)
		return
	}

	conversationID := chi.URLParam(r, "id")
	conversation, err := e.repo.GetConversation(r.Context(), conversationID, user.ID)
	if err != nil {
		slog.Error("Failed to get conversation", "error", err, "conversation_id", conversationID)
		http.Error(w, "Failed to get conversation", http.StatusInternalServerError)
		return
	}
	if conversation == nil {
		http.Error(w, "Conversation not found", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"conversation": conversation,
	})
}

func (e *ChatEndpoints) GetMessagesHandler(w http.ResponseWriter, r *http.Request) {
	user, ok := r.Context().Value("user").(*models.User)
	if !ok {
		http.Error(w, "User not found in context", http.StatusInternalServerError)
		return
	}

	conversationID := chi.URLParam(r, "id")
	conversation, err := e.repo.GetConversation(r.Context(), conversationID, user.ID)
	if err != nil {
		http.Error(w, "Failed to get conversation", http.StatusInternalServerError)
		return
	}
	if conversation == nil {
		http.Error(w, "Conversation not found", http.StatusNotFound)
		return
	}

	messages, err := e.repo.GetChatMessages(r.Context(), conversationID)
	if err != nil {
		slog.Error("Failed to get messages", "error", err, "conversation_id", conversationID)
		http.Error(w, "Failed to get messages", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"messages": messages,
		"count":    len(messages),
	})
}

func (e *ChatEndpoints) UpdateConversationHandler(w http.ResponseWriter, r *http.Request) {
	user, ok := r.Context().Value("user").(*models.User)
	if !ok {
		http.Error(w, "User not found in context", http.StatusInternalServerError)
		return
	}

	conversationID := chi.URLParam(r, "id")
	conversation, err := e.repo.GetConversation(r.Context(), conversationID, user.ID)
	if err != nil {
		http.Error(w, "Failed to get conversation", http.StatusInternalServerError)
		return
	}
	if conversation == nil {
		http.Error(w, "Conversation not found", http.StatusNotFound)
		return
	}

	var req UpdateConversationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if req.Title != "" {
		conversation.Title = req.Title
	}
	if req.Status != "" {
		if req.Status != "active" && req.Status != "archived" {
			http.Error(w, "Invalid status", http.StatusBadRequest)
			return
		}
		conversation.Status = req.Status
	}

	if err := e.repo.UpdateConversation(r.Context(), conversation); err != nil {
		slog.Error("Failed to update conversation", "error", err, "conversation_id", conversationID)
		http.Error(w, "Failed to update conversation", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"conversation": conversation,
		"message":      "Conversation updated successfully",
	})
}

func (e *ChatEndpoints) DeleteConversationHandler(w http.ResponseWriter, r *http.Request) {
	user, ok := r.Context().Value("user").(*models.User)
	if !ok {
		http.Error(w, "User not found in context", http.StatusInternalServerError)
		return
	}

	conversationID := chi.URLParam(r, "id")
	conversation, err := e.repo.GetConversation(r.Context(), conversationID, user.ID)
	if err != nil {
		http.Error(w, "Failed to get conversation", http.StatusInternalServerError)
		return
	}
	if conversation == nil {
		http.Error(w, "Conversation not found", http.StatusNotFound)
		return
	}

	if err := e.repo.DeleteConversation(r.Context(), conversationID); err != nil {
		slog.Error("Failed to delete conversation", "error", err, "conversation_id", conversationID)
		http.Error(w, "Failed to delete conversation", http.StatusInternalServerError)
		return
	}

	// Drop any in-memory session state for the conversation
	if e.assistantService != nil {
		e.assistantService.ClearSessionCache(conversationID)
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"message": "Conversation deleted successfully",
	})

	slog.Info("Conversation deleted", "conversation_id", conversationID, "user_id", user.ID)
}
