package v1

import (
	"context"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/manulsahu/MediSight/internal/notify"
)

const heartbeatInterval = 30 * time.Second

type NotificationSubscriber interface {
	Subscribe(ctx context.Context, userID uuid.UUID) (<-chan notify.Notification, error)
}

type NotificationHandler struct {
	sub       NotificationSubscriber
	log       *zap.Logger
	heartbeat time.Duration
}

func NewNotificationHandler(sub NotificationSubscriber, log *zap.Logger) *NotificationHandler {
	return &NotificationHandler{sub: sub, log: log, heartbeat: heartbeatInterval}
}

// Stream relays the caller's notifications as Server-Sent Events.
// GET /api/v1/notifications/stream
func (h *NotificationHandler) Stream(c *gin.Context) {
	caller, ok := mustCaller(c)
	if !ok {
		return
	}

	ctx := c.Request.Context()
	events, err := h.sub.Subscribe(ctx, caller.UserID)
	if err != nil {
		h.log.Error("notification subscribe failed", zap.String("user_id", caller.UserID.String()), zap.Error(err))
		respondError(c, http.StatusServiceUnavailable, "notifications unavailable")
		return
	}

	// Streams outlive the server's write timeout.
	_ = http.NewResponseController(c.Writer).SetWriteDeadline(time.Time{})

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")

	c.SSEvent("connected", gin.H{"user_id": caller.UserID, "timestamp": time.Now().UTC()})
	c.Writer.Flush()

	ticker := time.NewTicker(h.heartbeat)
	defer ticker.Stop()

	c.Stream(func(w io.Writer) bool {
		select {
		case <-ctx.Done():
			return false
		case <-ticker.C:
			c.SSEvent("heartbeat", gin.H{"timestamp": time.Now().UTC()})
			return true
		case n, ok := <-events:
			if !ok {
				return false
			}
			c.SSEvent(string(n.Type), n)
			return true
		}
	})
}
