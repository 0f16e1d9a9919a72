package notifiers

import (
	"context"

	"ocstat/internal/models"
	"ocstat/internal/shared/loggers"
)

type logNotifier struct{}

// NewLogNotifier only logs what would have been sent. Used by test deployments.
func NewLogNotifier() Notifier {
	return &logNotifier{}
}

func (n *logNotifier) SendPhoto(ctx context.Context, image *models.ImageBlob, caption string) error {
	if image == nil || len(image.Data) == 0 {
		return ErrEmptyImage
	}
	loggers.Ctx(ctx).Info().
		Str("filename", image.Filename).
		Int("bytes", len(image.Data)).
		Str("caption", caption).
		Msg("would send photo")
	return nil
}

func (n *logNotifier) SendMessage(ctx context.Context, text string) error {
	if text == "" {
		return nil
	}
	loggers.Ctx(ctx).Info().Str("text", text).Msg("would send message")
	return nil
}
