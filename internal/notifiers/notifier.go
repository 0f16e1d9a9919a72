package notifiers

import (
	"context"

	"ocstat/internal/models"
)

// Notifier delivers rendered reports and short text notices to a chat.
//
//go:generate mockgen -source=notifier.go -destination=./mocks/notifier_mock.go -package=mocks
type Notifier interface {
	SendPhoto(ctx context.Context, image *models.ImageBlob, caption string) error
	SendMessage(ctx context.Context, text string) error
}
