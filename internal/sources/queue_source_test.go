package sources

import (
	"context"
	"testing"
	"time"

	"ocstat/internal/models"
	"ocstat/internal/streams"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueueSource_DrainsPushedRecords(t *testing.T) {
	t.Parallel()

	queue := streams.NewPartitionedQueue[models.SessionRecord]()
	producer := streams.NewSessionProducer(queue)
	source := NewQueueSource(streams.NewSessionConsumer(queue), 2)
	ctx := context.Background()

	require.Nil(t, producer.Produce(ctx, &models.SessionBatch{Records: []*models.SessionRecord{
		{Username: "alice"}, {Username: "alice"}, {Username: "alice"},
	}}))

	records, err := source.FetchSince(ctx, time.Time{})
	require.NoError(t, err)
	assert.Len(t, records, 2)
	records, err = source.FetchSince(ctx, time.Time{})
	require.NoError(t, err)
	assert.Len(t, records, 1)
	records, err = source.FetchSince(ctx, time.Time{})
	require.NoError(t, err)
	assert.Empty(t, records)
	assert.Equal(t, NamePush, source.Name())
}

func TestQueueSource_CanceledContext(t *testing.T) {
	t.Parallel()

	queue := streams.NewPartitionedQueue[models.SessionRecord]()
	source := NewQueueSource(streams.NewSessionConsumer(queue), 0)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := source.FetchSince(ctx, time.Time{})
	assert.ErrorContains(t, err, codeSourceUnavailable)
}
