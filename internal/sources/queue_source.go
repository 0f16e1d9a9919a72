package sources

import (
	"context"
	"time"

	"ocstat/internal/models"
	"ocstat/internal/shared/metrics"
	"ocstat/internal/streams"
)

// QueueSource drains records pushed over HTTP or RADIUS.
type QueueSource struct {
	consumer streams.SessionConsumer
	limit    int
}

// NewQueueSource drains at most limit records per fetch; limit <= 0 drains all.
func NewQueueSource(consumer streams.SessionConsumer, limit int) *QueueSource {
	return &QueueSource{consumer: consumer, limit: limit}
}

func (s *QueueSource) Name() string { return NamePush }

// FetchSince ignores since; everything queued is new by construction.
func (s *QueueSource) FetchSince(ctx context.Context, _ time.Time) ([]models.SessionRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, errSourceUnavailable(NamePush, err)
	}
	records := s.consumer.Drain(s.limit)
	metricFetchesTotal.WithLabelValues(NamePush, metrics.ValueNoError).Inc()
	metricRecordsFetchedTotal.WithLabelValues(NamePush).Add(float64(len(records)))
	return records, nil
}
