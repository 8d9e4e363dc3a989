package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/avolkov/quickchat/internal/relay"
	"github.com/avolkov/quickchat/internal/store"
)

// MessageHandlers provides HTTP handlers for message persistence and history.
type MessageHandlers struct {
	store store.Store
	hub   *relay.Hub
	log   *zerolog.Logger
}

// NewMessageHandlers creates a new message handlers instance.
func NewMessageHandlers(st store.Store, hub *relay.Hub, logger *zerolog.Logger) *MessageHandlers {
	return &MessageHandlers{
		store: st,
		hub:   hub,
		log:   logger,
	}
}

// AddMessageRequest persists a message from one user to another.
type AddMessageRequest struct {
	From    string `json:"from" binding:"required"`
	To      string `json:"to" binding:"required"`
	Message string `json:"message" binding:"required"`
}

// GetMessagesRequest fetches the conversation between two users.
type GetMessagesRequest struct {
	From string `json:"from" binding:"required"`
	To   string `json:"to" binding:"required"`
}

// MessageItem is one history entry as the client consumes it.
type MessageItem struct {
	FromSelf  bool      `json:"fromSelf"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"createdAt"`
}

// AddMessage persists a message, then triggers the live relay forward
// server-side. Doing both here removes the client's dual write and the
// race between persistence and delivery.
// POST /api/messages/addmsg
func (h *MessageHandlers) AddMessage(c *gin.Context) {
	var req AddMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	uid, ok := currentUserID(c)
	if !ok || uid != req.From {
		c.JSON(http.StatusForbidden, ErrorResponse{Error: "sender does not match session"})
		return
	}

	msg := &store.Message{
		FromID:    req.From,
		ToID:      req.To,
		Body:      req.Message,
		CreatedAt: time.Now().UTC(),
	}
	if err := h.store.SaveMessage(c.Request.Context(), msg); err != nil {
		h.log.Error().Err(err).Str("from", req.From).Str("to", req.To).Msg("failed to save message")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "failed to add message"})
		return
	}

	// Best-effort live delivery; dropped silently when the recipient
	// has no active connection.
	h.hub.Forward(req.To, req.Message)

	c.JSON(http.StatusCreated, gin.H{"status": true, "id": msg.ID})
}

// GetMessages returns the ordered history between two users, projected
// to the client view: fromSelf is computed against the requesting side.
// POST /api/messages/getmsg
func (h *MessageHandlers) GetMessages(c *gin.Context) {
	var req GetMessagesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	uid, ok := currentUserID(c)
	if !ok || uid != req.From {
		c.JSON(http.StatusForbidden, ErrorResponse{Error: "requester does not match session"})
		return
	}

	msgs, err := h.store.ListConversation(c.Request.Context(), req.From, req.To)
	if err != nil {
		h.log.Error().Err(err).Str("from", req.From).Str("to", req.To).Msg("failed to list conversation")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "failed to get messages"})
		return
	}

	items := make([]MessageItem, 0, len(msgs))
	for _, m := range msgs {
		items = append(items, MessageItem{
			FromSelf:  m.FromID == req.From,
			Message:   m.Body,
			CreatedAt: m.CreatedAt,
		})
	}

	c.JSON(http.StatusOK, items)
}
