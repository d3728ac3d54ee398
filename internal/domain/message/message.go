package message

import (
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
)

const MaxBodyLength = 4000

// ConversationID is deterministic for a pair of users regardless of who
// starts the thread: both ids sorted and joined with "_".
func ConversationID(a, b uuid.UUID) string {
	ids := []string{a.String(), b.String()}
	sort.Strings(ids)
	return strings.Join(ids, "_")
}

type Conversation struct {
	ID            string      `gorm:"type:varchar(80);primaryKey" json:"id"`
	CreatedAt     time.Time   `gorm:"autoCreateTime" json:"created_at"`
	Participants  []uuid.UUID `gorm:"column:participants;serializer:json;type:jsonb;not null" json:"participants"`
	LastMessage   string      `gorm:"column:last_message;type:text" json:"last_message"`
	LastMessageAt *time.Time  `gorm:"column:last_message_at;index" json:"last_message_at,omitempty"`
}

func (Conversation) TableName() string {
	return "clinical.conversations"
}

func (c *Conversation) HasParticipant(id uuid.UUID) bool {
	for _, p := range c.Participants {
		if p == id {
			return true
		}
	}
	return false
}

// Counterpart returns the other participant of a two-party thread.
func (c *Conversation) Counterpart(id uuid.UUID) uuid.UUID {
	for _, p := range c.Participants {
		if p != id {
			return p
		}
	}
	return uuid.Nil
}

type Message struct {
	ID             uuid.UUID  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	ConversationID string     `gorm:"column:conversation_id;type:varchar(80);not null;index:idx_msg_conv_time" json:"conversation_id"`
	SenderID       uuid.UUID  `gorm:"column:sender_id;type:uuid;not null" json:"sender_id"`
	RecipientID    uuid.UUID  `gorm:"column:recipient_id;type:uuid;not null;index" json:"recipient_id"`
	Body           string     `gorm:"column:body;type:text;not null" json:"body"`
	CreatedAt      time.Time  `gorm:"autoCreateTime;index:idx_msg_conv_time" json:"created_at"`
	ReadAt         *time.Time `gorm:"column:read_at" json:"read_at,omitempty"`
}

func (Message) TableName() string {
	return "clinical.messages"
}

type SendMessageCommand struct {
	RecipientID uuid.UUID
	Body        string
}

type ListMessagesQuery struct {
	ConversationID string
	Before         *time.Time
	Limit          int
}
