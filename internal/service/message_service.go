package service

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/manulsahu/MediSight/internal/domain"
	"github.com/manulsahu/MediSight/internal/domain/message"
	"github.com/manulsahu/MediSight/internal/notify"
	"github.com/manulsahu/MediSight/pkg/metrics"
)

const (
	defaultMessagePage = 50
	maxMessagePage     = 200
	previewLength      = 120
)

// UserLookup resolves message participants.
type UserLookup interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
}

type MessageService struct {
	repo     message.Repository
	users    UserLookup
	notifier Notifier
	metrics  *metrics.Collector
	log      *zap.Logger
}

func NewMessageService(repo message.Repository, users UserLookup, notifier Notifier, m *metrics.Collector, log *zap.Logger) *MessageService {
	return &MessageService{
		repo:     repo,
		users:    users,
		notifier: notifierOrNop(notifier),
		metrics:  m,
		log:      log,
	}
}

// SendMessage appends to the caller's conversation with the recipient,
// creating it on first contact. Patients may only message clinicians.
func (s *MessageService) SendMessage(ctx context.Context, cmd *message.SendMessageCommand, caller domain.Caller) (*message.Message, error) {
	body := strings.TrimSpace(cmd.Body)
	switch {
	case body == "":
		return nil, message.ErrEmptyMessage
	case utf8.RuneCountInString(body) > message.MaxBodyLength:
		return nil, message.ErrMessageTooLong
	case cmd.RecipientID == caller.UserID:
		return nil, message.ErrSelfMessage
	}

	recipient, err := s.users.GetByID(ctx, cmd.RecipientID)
	if err != nil {
		return nil, err
	}
	if !recipient.IsActive {
		return nil, domain.ErrUserNotFound
	}
	if !caller.Role.IsClinician() && !recipient.Role.IsClinician() {
		return nil, ErrForbidden
	}

	now := time.Now().UTC()
	participants := []uuid.UUID{caller.UserID, recipient.ID}
	slices.SortFunc(participants, func(a, b uuid.UUID) int {
		return strings.Compare(a.String(), b.String())
	})

	conv := &message.Conversation{
		ID:            message.ConversationID(caller.UserID, recipient.ID),
		Participants:  participants,
		LastMessage:   preview(body),
		LastMessageAt: &now,
	}
	msg := &message.Message{
		ConversationID: conv.ID,
		SenderID:       caller.UserID,
		RecipientID:    recipient.ID,
		Body:           body,
		CreatedAt:      now,
	}

	if err := s.repo.Append(ctx, conv, msg); err != nil {
		s.log.Error("failed to store message", zap.String("conversation_id", conv.ID), zap.Error(err))
		return nil, fmt.Errorf("sending message: %w", err)
	}

	if s.metrics != nil {
		s.metrics.MessagesSentTotal.Inc()
	}

	title := "New message"
	if sender, err := s.users.GetByID(ctx, caller.UserID); err == nil && sender.DisplayName != "" {
		title = "New message from " + sender.DisplayName
	}
	s.notifier.Notify(ctx, recipient.ID, notify.New(notify.TypeMessage, title, preview(body)))

	return msg, nil
}

func (s *MessageService) ListConversations(ctx context.Context, caller domain.Caller) ([]*message.Conversation, error) {
	return s.repo.ListConversations(ctx, caller.UserID)
}

// ListMessages returns up to limit messages older than before, oldest first.
func (s *MessageService) ListMessages(ctx context.Context, conversationID string, before *time.Time, limit int, caller domain.Caller) ([]*message.Message, error) {
	if _, err := s.participantConversation(ctx, conversationID, caller); err != nil {
		return nil, err
	}

	if limit <= 0 || limit > maxMessagePage {
		limit = defaultMessagePage
	}

	msgs, err := s.repo.ListMessages(ctx, &message.ListMessagesQuery{
		ConversationID: conversationID,
		Before:         before,
		Limit:          limit,
	})
	if err != nil {
		return nil, err
	}
	slices.Reverse(msgs)
	return msgs, nil
}

// MarkRead flags every message addressed to the caller in the conversation.
func (s *MessageService) MarkRead(ctx context.Context, conversationID string, caller domain.Caller) (int64, error) {
	if _, err := s.participantConversation(ctx, conversationID, caller); err != nil {
		return 0, err
	}
	return s.repo.MarkRead(ctx, conversationID, caller.UserID)
}

func (s *MessageService) participantConversation(ctx context.Context, id string, caller domain.Caller) (*message.Conversation, error) {
	conv, err := s.repo.GetConversation(ctx, id)
	if err != nil {
		return nil, err
	}
	if !conv.HasParticipant(caller.UserID) {
		return nil, message.ErrNotParticipant
	}
	return conv, nil
}

func preview(body string) string {
	if utf8.RuneCountInString(body) <= previewLength {
		return body
	}
	r := []rune(body)
	return string(r[:previewLength-1]) + "…"
}
