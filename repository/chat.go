package repository

import (
	"context"
	"log/slog"

	"github.com/lumeboard/lumeboard/backend/models"
	"gorm.io/gorm"
)

// Agent operations
func (r *GORMRepository) CreateAgent(ctx context.Context, agent *models.Agent) error {
	if err := r.db.WithContext(ctx).Create(agent).Error; err != nil {
		slog.Error("Failed to create agent", "error", err)
		return err
	}
	slog.Info("Agent created", "agent_id", agent.ID, "name", agent.Name)
	return nil
}

func (r *GORMRepository) GetAgents(ctx context.Context, userID string, includePublic bool) ([]models.Agent, error) {
	var agents []models.Agent
	query := r.db.WithContext(ctx).Where("is_active = ?", true)

	if includePublic {
		if userID == "" {
			query = query.Where("user_id IS NULL")
		} else {
			query = query.Where("(user_id IS NULL OR user_id = ?)", userID)
		}
	} else {
		if userID == "" {
			return agents, nil
		}
		query = query.Where("user_id = ?", userID)
	}

	if err := query.Find(&agents).Error; err != nil {
		slog.Error("Failed to get agents", "error", err, "user_id", userID)
		return nil, err
	}
	return agents, nil
}

// GetAgentByID returns the agent when it is public or belongs to the user.
func (r *GORMRepository) GetAgentByID(ctx context.Context, agentID string, userID string) (*models.Agent, error) {
	var agent models.Agent
	err := r.db.WithContext(ctx).Where("id = ? AND (user_id IS NULL OR user_id = ?)", agentID, userID).First(&agent).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		slog.Error("Failed to get agent by ID", "error", err, "agent_id", agentID, "user_id", userID)
		return nil, err
	}
	return &agent, nil
}

func (r *GORMRepository) UpdateAgent(ctx context.Context, agent *models.Agent) error {
	if err := r.db.WithContext(ctx).Save(agent).Error; err != nil {
		slog.Error("Failed to update agent", "error", err, "agent_id", agent.ID)
		return err
	}
	slog.Info("Agent updated", "agent_id", agent.ID, "name", agent.Name)
	return nil
}

func (r *GORMRepository) DeleteAgent(ctx context.Context, agentID string) error {
	if err := r.db.WithContext(ctx).Where("id = ?", agentID).Delete(&models.Agent{}).Error; err != nil {
		slog.Error("Failed to delete agent", "error", err, "agent_id", agentID)
		return err
	}
	slog.Info("Agent deleted", "agent_id", agentID)
	return nil
}

// Conversation operations
func (r *GORMRepository) CreateConversation(ctx context.Context, conv *models.Conversation) error {
	if err := r.db.WithContext(ctx).Create(conv).Error; err != nil {
		slog.Error("Failed to create conversation", "error", err, "user_id", conv.UserID)
		return err
	}
	slog.Info("Conversation created", "conversation_id", conv.ID, "user_id", conv.UserID)
	return nil
}

func (r *GORMRepository) GetConversations(ctx context.Context, userID string) ([]models.Conversation, error) {
	var convs []models.Conversation
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Preload("Agent").
		Order("updated_at DESC").
		Find(&convs).Error
	if err != nil {
		slog.Error("Failed to get conversations", "error", err, "user_id", userID)
		return nil, err
	}
	return convs, nil
}

func (r *GORMRepository) GetConversation(ctx context.Context, conversationID, userID string) (*models.Conversation, error) {
	var conv models.Conversation
	err := r.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", conversationID, userID).
		Preload("Agent").
		First(&conv).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		slog.Error("Failed to get conversation", "error", err, "conversation_id", conversationID, "user_id", userID)
		return nil, err
	}
	return &conv, nil
}

func (r *GORMRepository) UpdateConversation(ctx context.Context, conv *models.Conversation) error {
	if err := r.db.WithContext(ctx).Save(conv).Error; err != nil {
		slog.Error("Failed to update conversation", "error", err, "conversation_id", conv.ID)
		return err
	}
	return nil
}

func (r *GORMRepository) DeleteConversation(ctx context.Context, conversationID string) error {
	if err := r.db.WithContext(ctx).Where("conversation_id = ?", conversationID).Delete(&models.ChatMessage{}).Error; err != nil {
		slog.Error("Failed to delete conversation messages", "error", err, "conversation_id", conversationID)
		return err
	}
	if err := r.db.WithContext(ctx).Where("id = ?", conversationID).Delete(&models.Conversation{}).Error; err != nil {
		slog.Error("Failed to delete conversation", "error", err, "conversation_id", conversationID)
		return err
	}
	slog.Info("Conversation deleted", "conversation_id", conversationID)
	return nil
}

// Chat message operations
func (r *GORMRepository) CreateChatMessage(ctx context.Context, msg *models.ChatMessage) error {
	if err := r.db.WithContext(ctx).Create(msg).Error; err != nil {
		slog.Error("Failed to create chat message", "error", err, "conversation_id", msg.ConversationID)
		return err
	}
	return nil
}

func (r *GORMRepository) GetChatMessages(ctx context.Context, conversationID string) ([]models.ChatMessage, error) {
	var msgs []models.ChatMessage
	err := r.db.WithContext(ctx).
		Where("conversation_id = ?", conversationID).
		Order("turn_order").
		Find(&msgs).Error
	if err != nil {
		slog.Error("Failed to get chat messages", "error", err, "conversation_id", conversationID)
		return nil, err
	}
	return msgs, nil
}
