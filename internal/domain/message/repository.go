package message

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	// Append stores msg and upserts its conversation's last-message summary.
	Append(ctx context.Context, conv *Conversation, msg *Message) error
	GetConversation(ctx context.Context, id string) (*Conversation, error)
	ListConversations(ctx context.Context, userID uuid.UUID) ([]*Conversation, error)
	// ListMessages returns newest first.
	ListMessages(ctx context.Context, q *ListMessagesQuery) ([]*Message, error)
	MarkRead(ctx context.Context, conversationID string, readerID uuid.UUID) (int64, error)
}
