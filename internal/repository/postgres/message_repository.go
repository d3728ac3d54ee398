package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/manulsahu/MediSight/internal/domain/message"
)

type MessageRepository struct {
	db *gorm.DB
}

func NewMessageRepository(db *gorm.DB) *MessageRepository {
	return &MessageRepository{db: db}
}

// Append stores msg and upserts the conversation summary in one transaction.
func (r *MessageRepository) Append(ctx context.Context, conv *message.Conversation, msg *message.Message) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns([]string{"last_message", "last_message_at"}),
		}).Create(conv).Error
		if err != nil {
			return fmt.Errorf("upserting conversation: %w", err)
		}

		if msg.ID == uuid.Nil {
			msg.ID = uuid.New()
		}
		if err := tx.Create(msg).Error; err != nil {
			return fmt.Errorf("inserting message: %w", err)
		}
		return nil
	})
}

func (r *MessageRepository) GetConversation(ctx context.Context, id string) (*message.Conversation, error) {
	var c message.Conversation
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&c).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, message.ErrConversationNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("loading conversation: %w", err)
	}
	return &c, nil
}

func (r *MessageRepository) ListConversations(ctx context.Context, userID uuid.UUID) ([]*message.Conversation, error) {
	convs := make([]*message.Conversation, 0)
	err := r.db.WithContext(ctx).
		Where("participants @> ?::jsonb", fmt.Sprintf(`[%q]`, userID.String())).
		Order("last_message_at DESC NULLS LAST").
		Find(&convs).Error
	if err != nil {
		return nil, fmt.Errorf("listing conversations: %w", err)
	}
	return convs, nil
}

func (r *MessageRepository) ListMessages(ctx context.Context, q *message.ListMessagesQuery) ([]*message.Message, error) {
	tx := r.db.WithContext(ctx).Where("conversation_id = ?", q.ConversationID)
	if q.Before != nil {
		tx = tx.Where("created_at < ?", *q.Before)
	}

	msgs := make([]*message.Message, 0)
	if err := tx.Order("created_at DESC").Limit(q.Limit).Find(&msgs).Error; err != nil {
		return nil, fmt.Errorf("listing messages: %w", err)
	}
	return msgs, nil
}

func (r *MessageRepository) MarkRead(ctx context.Context, conversationID string, readerID uuid.UUID) (int64, error) {
	res := r.db.WithContext(ctx).Model(&message.Message{}).
		Where("conversation_id = ? AND recipient_id = ? AND read_at IS NULL", conversationID, readerID).
		Update("read_at", time.Now().UTC())
	if res.Error != nil {
		return 0, fmt.Errorf("marking messages read: %w", res.Error)
	}
	return res.RowsAffected, nil
}
