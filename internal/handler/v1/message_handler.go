package v1

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/manulsahu/MediSight/internal/domain"
	"github.com/manulsahu/MediSight/internal/domain/message"
)

type MessageService interface {
	SendMessage(ctx context.Context, cmd *message.SendMessageCommand, caller domain.Caller) (*message.Message, error)
	ListConversations(ctx context.Context, caller domain.Caller) ([]*message.Conversation, error)
	ListMessages(ctx context.Context, conversationID string, before *time.Time, limit int, caller domain.Caller) ([]*message.Message, error)
	MarkRead(ctx context.Context, conversationID string, caller domain.Caller) (int64, error)
}

type MessageHandler struct {
	svc MessageService
}

func NewMessageHandler(svc MessageService) *MessageHandler {
	return &MessageHandler{svc: svc}
}

type sendMessageRequest struct {
	RecipientID uuid.UUID `json:"recipient_id" binding:"required"`
	Body        string    `json:"body" binding:"required"`
}

type markReadResponse struct {
	Updated int64 `json:"updated"`
}

// POST /api/v1/messages
func (h *MessageHandler) Send(c *gin.Context) {
	caller, ok := mustCaller(c)
	if !ok {
		return
	}
	var req sendMessageRequest
	if !bindJSON(c, &req) {
		return
	}

	msg, err := h.svc.SendMessage(c.Request.Context(), &message.SendMessageCommand{
		RecipientID: req.RecipientID,
		Body:        req.Body,
	}, caller)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondCreated(c, msg)
}

// GET /api/v1/conversations
func (h *MessageHandler) Conversations(c *gin.Context) {
	caller, ok := mustCaller(c)
	if !ok {
		return
	}
	convs, err := h.svc.ListConversations(c.Request.Context(), caller)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, convs)
}

// GET /api/v1/conversations/:id/messages?before=RFC3339&limit=
func (h *MessageHandler) Messages(c *gin.Context) {
	caller, ok := mustCaller(c)
	if !ok {
		return
	}

	var before *time.Time
	if raw := c.Query("before"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			respondError(c, http.StatusBadRequest, "invalid before: expected RFC3339 timestamp")
			return
		}
		before = &t
	}

	msgs, err := h.svc.ListMessages(c.Request.Context(), c.Param("id"), before, parseQueryInt(c, "limit", 0), caller)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, msgs)
}

// POST /api/v1/conversations/:id/read
func (h *MessageHandler) MarkRead(c *gin.Context) {
	caller, ok := mustCaller(c)
	if !ok {
		return
	}
	n, err := h.svc.MarkRead(c.Request.Context(), c.Param("id"), caller)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, markReadResponse{Updated: n})
}
