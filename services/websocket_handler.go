package services

import (
	"encoding/json"
	"log/slog"

	ws "github.com/lumeboard/lumeboard/backend/websocket"
)

// safeSend tries to send a message to the client channel, recovers if closed
func safeSend(ch chan<- []byte, msg []byte) {
	defer func() {
		if r := recover(); r != nil {
			// Channel is closed, ignore
		}
	}()
	select {
	case ch <- msg:
		// sent
	default:
		// channel full or closed
	}
}

type WebSocketHandler struct {
	chatProcessor *ChatProcessor
}

func NewWebSocketHandler(chatProcessor *ChatProcessor) *WebSocketHandler {
	return &WebSocketHandler{
		chatProcessor: chatProcessor,
	}
}

// HandleWebSocketConnection handles the initial WebSocket connection
func (h *WebSocketHandler) HandleWebSocketConnection(client *ws.Client) {
	slog.Info("WebSocket connection handled", "user_id", client.UserID, "conversation_id", client.ConversationID)

	if h.chatProcessor != nil {
		h.chatProcessor.SendGreeting(client)
	} else {
		slog.Warn("Chat processor not available for greeting", "conversation_id", client.ConversationID)
	}
}

// HandleWebSocketMessage routes incoming WebSocket frames to the chat processor
func (h *WebSocketHandler) HandleWebSocketMessage(client *ws.Client, messageBytes []byte) {
	var msg ws.Message
	if err := json.Unmarshal(messageBytes, &msg); err != nil {
		slog.Error("Failed to unmarshal WebSocket message", "error", err)
		return
	}

	slog.Info("WebSocket message received", "type", msg.Type, "user_id", client.UserID, "conversation_id", client.ConversationID)

	switch msg.Type {
	case "text":
		if h.chatProcessor != nil {
			h.chatProcessor.ProcessTextMessage(client, msg.Content)
		} else {
			slog.Warn("Chat processor not available", "conversation_id", client.ConversationID)
		}
	case "typing":
		// Client-side indicator, nothing to do server-side
	default:
		slog.Warn("Unknown message type", "type", msg.Type, "conversation_id", client.ConversationID)
		errMsg := ws.Message{Type: "error", Content: "Unknown message type"}
		if b, err := json.Marshal(errMsg); err == nil {
			safeSend(client.Send, b)
		}
	}
}
