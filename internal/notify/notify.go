// Package notify delivers per-user portal notifications over Redis pub/sub.
package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/manulsahu/MediSight/pkg/metrics"
)

type Type string

const (
	TypeMessage     Type = "message"
	TypeAppointment Type = "appointment"
	TypeReport      Type = "report"
	TypeMedication  Type = "medication"
	TypeInsight     Type = "insight"
)

type Notification struct {
	ID        uuid.UUID `json:"id"`
	Type      Type      `json:"type"`
	Title     string    `json:"title"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"created_at"`
}

func New(t Type, title, body string) Notification {
	return Notification{
		ID:        uuid.New(),
		Type:      t,
		Title:     title,
		Body:      body,
		CreatedAt: time.Now().UTC(),
	}
}

// Channel is the pub/sub channel a user's notifications are published on.
func Channel(userID uuid.UUID) string {
	return "notifications:" + userID.String()
}

const subscriberBuffer = 32

type RedisNotifier struct {
	rdb     *redis.Client
	log     *zap.Logger
	metrics *metrics.Collector
}

func NewRedisNotifier(rdb *redis.Client, log *zap.Logger, m *metrics.Collector) *RedisNotifier {
	return &RedisNotifier{rdb: rdb, log: log, metrics: m}
}

// Notify publishes n to userID. Delivery is best effort: errors are logged
// and counted, never returned.
func (r *RedisNotifier) Notify(ctx context.Context, userID uuid.UUID, n Notification) {
	if userID == uuid.Nil {
		return
	}
	if err := r.Publish(ctx, userID, n); err != nil {
		r.log.Warn("notification publish failed",
			zap.String("user_id", userID.String()),
			zap.String("type", string(n.Type)),
			zap.Error(err),
		)
		r.observe(n.Type, "error")
		return
	}
	r.observe(n.Type, "ok")
}

func (r *RedisNotifier) Publish(ctx context.Context, userID uuid.UUID, n Notification) error {
	data, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("encoding notification: %w", err)
	}
	if err := r.rdb.Publish(ctx, Channel(userID), data).Err(); err != nil {
		return fmt.Errorf("publishing notification: %w", err)
	}
	return nil
}

// Subscribe streams userID's notifications until ctx is cancelled, at which
// point the returned channel is closed.
func (r *RedisNotifier) Subscribe(ctx context.Context, userID uuid.UUID) (<-chan Notification, error) {
	pubsub := r.rdb.Subscribe(ctx, Channel(userID))
	// Receive blocks until the subscription is confirmed so no message
	// published after Subscribe returns can be missed.
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return nil, fmt.Errorf("subscribing to notifications: %w", err)
	}

	out := make(chan Notification, subscriberBuffer)
	go func() {
		defer close(out)
		defer pubsub.Close()

		ch := pubsub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				var n Notification
				if err := json.Unmarshal([]byte(msg.Payload), &n); err != nil {
					r.log.Warn("dropping malformed notification", zap.String("channel", msg.Channel), zap.Error(err))
					continue
				}
				select {
				case out <- n:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return out, nil
}

func (r *RedisNotifier) observe(t Type, outcome string) {
	if r.metrics != nil {
		r.metrics.NotificationsPublished.WithLabelValues(string(t), outcome).Inc()
	}
}
