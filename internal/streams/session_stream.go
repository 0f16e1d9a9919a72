package streams

import (
	"context"

	"ocstat/internal/models"
	"ocstat/internal/shared/metrics"
	"ocstat/internal/shared/svcerrors"
)

// SessionProducer publishes pushed session records for the collect job.
//
// Records are partitioned by raw username: every event of one account lands
// in the same partition, so a connect is always drained before the
// disconnect that follows it.
//
//go:generate mockgen -source=session_stream.go -destination=./mocks/session_stream_mock.go -package=mocks
type SessionProducer interface {
	Produce(ctx context.Context, batch *models.SessionBatch) *svcerrors.ServiceError
}

// SessionConsumer hands queued records to a single reader.
type SessionConsumer interface {
	Drain(limit int) []models.SessionRecord
	Pending() int
}

type sessionProducer struct {
	queue *PartitionedQueue[models.SessionRecord]
}

func NewSessionProducer(queue *PartitionedQueue[models.SessionRecord]) SessionProducer {
	return &sessionProducer{queue: queue}
}

func (producer *sessionProducer) Produce(ctx context.Context, batch *models.SessionBatch) *svcerrors.ServiceError {
	defer metricQueueDepth.WithLabelValues(streamSessionRecords).Set(float64(producer.queue.Len()))

	for i, record := range batch.Records {
		if record == nil {
			continue
		}
		if err := producer.queue.Publish(ctx, record.Username, *record); err != nil {
			svcErr := errQueueFull(i, len(batch.Records), err)
			metricSessionRecordsPublishedTotal.WithLabelValues(streamSessionRecords, svcErr.Code).Add(float64(len(batch.Records) - i))
			return svcErr
		}
		metricSessionRecordsPublishedTotal.WithLabelValues(streamSessionRecords, metrics.ValueNoError).Inc()
	}
	return nil
}

type sessionConsumer struct {
	queue *PartitionedQueue[models.SessionRecord]
}

func NewSessionConsumer(queue *PartitionedQueue[models.SessionRecord]) SessionConsumer {
	return &sessionConsumer{queue: queue}
}

func (consumer *sessionConsumer) Drain(limit int) []models.SessionRecord {
	records := consumer.queue.Drain(limit)
	metricQueueDepth.WithLabelValues(streamSessionRecords).Set(float64(consumer.queue.Len()))
	return records
}

func (consumer *sessionConsumer) Pending() int {
	return consumer.queue.Len()
}
