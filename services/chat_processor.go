package services

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"

	"github.com/lumeboard/lumeboard/backend/models"
	"github.com/lumeboard/lumeboard/backend/repository"
	ws "github.com/lumeboard/lumeboard/backend/websocket"
)

// ChatReplyCost is the credit cost of one generated assistant reply
const ChatReplyCost = 1

type ChatProcessor struct {
	assistantService *AssistantService
	billingService   *BillingService
	repo             *repository.GORMRepository
}

func NewChatProcessor(
	assistantService *AssistantService,
	billingService *BillingService,
	repo *repository.GORMRepository,
) *ChatProcessor {
	return &ChatProcessor{
		assistantService: assistantService,
		billingService:   billingService,
		repo:             repo,
	}
}

// sendMessage sends a typed frame to the WebSocket client
func (p *ChatProcessor) sendMessage(client *ws.Client, messageType, content string) {
	message := ws.Message{
		Type:           messageType,
		Content:        content,
		ConversationID: client.ConversationID,
	}

	messageBytes, err := json.Marshal(message)
	if err != nil {
		slog.Error("Failed to marshal message", "error", err, "conversation_id", client.ConversationID)
		return
	}

	// The hub closes Send on disconnect; safeSend absorbs the race
	safeSend(client.Send, messageBytes)
	slog.Info("Message sent to client", "conversation_id", client.ConversationID, "type", messageType, "content_length", len(content))
}

func (p *ChatProcessor) sendErrorMessage(client *ws.Client, message string) {
	p.sendMessage(client, "error", message)
}

// SendGreeting pushes the agent's opening message on a fresh conversation.
// Conversations that already have messages are left alone.
func (p *ChatProcessor) SendGreeting(client *ws.Client) {
	ctx := context.Background()

	existing, err := p.repo.GetChatMessages(ctx, client.ConversationID)
	if err != nil {
		slog.Error("Failed to check existing messages", "error", err, "conversation_id", client.ConversationID)
		return
	}
	if len(existing) > 0 {
		return
	}

	conversation, err := p.repo.GetConversation(ctx, client.ConversationID, client.UserID)
	if err != nil || conversation == nil {
		slog.Error("Failed to get conversation for greeting", "error", err, "conversation_id", client.ConversationID)
		return
	}

	agent, err := p.repo.GetAgentByID(ctx, conversation.AgentID, client.UserID)
	if err != nil || agent == nil {
		slog.Error("Failed to get agent for greeting", "error", err, "agent_id", conversation.AgentID)
		return
	}

	greeting := "Hi! I'm " + agent.Name + ". " + agent.Description + " What can I help you with today?"

	message := &models.ChatMessage{
		ConversationID: client.ConversationID,
		Role:           "assistant",
		Content:        greeting,
		TurnOrder:      1,
	}
	if err := p.repo.CreateChatMessage(ctx, message); err != nil {
		slog.Error("Failed to save greeting", "error", err, "conversation_id", client.ConversationID)
	}

	p.sendMessage(client, "assistant", greeting)
}

// ProcessTextMessage handles a user chat turn: persist, debit, generate, reply
func (p *ChatProcessor) ProcessTextMessage(client *ws.Client, content string) {
	ctx := context.Background()

	if strings.TrimSpace(content) == "" {
		p.sendErrorMessage(client, "Empty message")
		return
	}

	conversation, err := p.repo.GetConversation(ctx, client.ConversationID, client.UserID)
	if err != nil {
		slog.Error("Failed to get conversation", "error", err, "conversation_id", client.ConversationID)
		p.sendErrorMessage(client, "Failed to retrieve conversation")
		return
	}
	if conversation == nil {
		p.sendErrorMessage(client, "Conversation not found")
		return
	}

	agent, err := p.repo.GetAgentByID(ctx, conversation.AgentID, client.UserID)
	if err != nil || agent == nil {
		slog.Error("Failed to get agent", "error", err, "agent_id", conversation.AgentID)
		p.sendErrorMessage(client, "Failed to retrieve agent")
		return
	}

	history, err := p.repo.GetChatMessages(ctx, client.ConversationID)
	if err != nil {
		slog.Error("Failed to get conversation history", "error", err, "conversation_id", client.ConversationID)
		history = []models.ChatMessage{}
	}

	userMessage := &models.ChatMessage{
		ConversationID: client.ConversationID,
		Role:           "user",
		Content:        content,
		TurnOrder:      len(history) + 1,
	}
	if err := p.repo.CreateChatMessage(ctx, userMessage); err != nil {
		slog.Error("Failed to save user message", "error", err, "conversation_id", client.ConversationID)
	}

	if p.assistantService == nil {
		slog.Warn("Assistant service not available", "conversation_id", client.ConversationID)
		p.sendErrorMessage(client, "AI service not available")
		return
	}

	// Each generated reply costs one credit; the ledger decides
	if p.billingService != nil {
		_, err := p.billingService.DebitCredits(ctx, client.UserID, ChatReplyCost, "chat_message", client.ConversationID)
		if err != nil {
			if errors.Is(err, repository.ErrInsufficientCredits) {
				p.sendErrorMessage(client, "You're out of credits. Upgrade your plan to keep chatting.")
				return
			}
			slog.Error("Failed to debit credits", "error", err, "user_id", client.UserID)
			p.sendErrorMessage(client, "Failed to process message")
			return
		}
	}

	p.sendMessage(client, "typing", "")

	response, err := p.assistantService.GenerateReply(ctx, client.ConversationID, agent, content, history)
	if err != nil {
		slog.Error("Failed to generate reply", "error", err, "conversation_id", client.ConversationID)
		// The charge preceded the failure; give the credit back
		if p.billingService != nil {
			if _, refundErr := p.billingService.RefundCredits(ctx, client.UserID, ChatReplyCost, "chat_refund", client.ConversationID); refundErr != nil {
				slog.Error("Failed to refund credits", "error", refundErr, "user_id", client.UserID)
			}
		}
		p.sendErrorMessage(client, "Failed to generate reply")
		return
	}

	assistantMessage := &models.ChatMessage{
		ConversationID: client.ConversationID,
		Role:           "assistant",
		Content:        response,
		TurnOrder:      len(history) + 2,
	}
	if err := p.repo.CreateChatMessage(ctx, assistantMessage); err != nil {
		slog.Error("Failed to save assistant message", "error", err, "conversation_id", client.ConversationID)
	}

	// First user turn names the conversation
	if conversation.Title == "" {
		if title, err := p.assistantService.GenerateTitle(ctx, content); err == nil && title != "" {
			conversation.Title = title
			if err := p.repo.UpdateConversation(ctx, conversation); err != nil {
				slog.Error("Failed to save conversation title", "error", err, "conversation_id", client.ConversationID)
			}
		}
	}

	p.sendMessage(client, "assistant", response)
}
