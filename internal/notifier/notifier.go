package notifier

import "context"

// Notifier delivers an already formatted message.
type Notifier interface {
	SendNotification(ctx context.Context, text string) error
}
