package service

import (
	"context"

	"github.com/google/uuid"

	"github.com/manulsahu/MediSight/internal/notify"
)

// Notifier delivers best-effort user notifications. Implementations must
// not block the caller for long and never report failures.
type Notifier interface {
	Notify(ctx context.Context, userID uuid.UUID, n notify.Notification)
}

type nopNotifier struct{}

func (nopNotifier) Notify(context.Context, uuid.UUID, notify.Notification) {}

func notifierOrNop(n Notifier) Notifier {
	if n == nil {
		return nopNotifier{}
	}
	return n
}
