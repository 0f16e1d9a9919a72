package jobs_test

import (
	"context"
	"errors"
	"testing"
	"time"

	aggmocks "ocstat/internal/aggregators/mocks"
	"ocstat/internal/aggregators"
	"ocstat/internal/events"
	"ocstat/internal/jobs"
	"ocstat/internal/models"
	notifiermocks "ocstat/internal/notifiers/mocks"
	"ocstat/internal/reports"
	reportmocks "ocstat/internal/reports/mocks"
	rollovermocks "ocstat/internal/rollovers/mocks"
	"ocstat/internal/shared/filestorages"
	"ocstat/internal/shared/svcerrors"
	sourcemocks "ocstat/internal/sources/mocks"
	"ocstat/internal/stores"

	"github.com/coder/quartz"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

var now = time.Date(2025, 12, 29, 0, 0, 30, 0, time.UTC)

type collectFixture struct {
	source     *sourcemocks.MockSource
	aggregator *aggmocks.MockAggregator
	rollover   *rollovermocks.MockManager
	generator  *reportmocks.MockGenerator
	deliverer  *reportmocks.MockDeliverer
	notifier   *notifiermocks.MockNotifier
	cursors    stores.SourceOffsetStore
	clock      *quartz.Mock
}

func newCollectFixture(t *testing.T) *collectFixture {
	t.Helper()
	ctrl := gomock.NewController(t)
	storage, err := filestorages.NewFileStorage(t.TempDir())
	require.NoError(t, err)
	clock := quartz.NewMock(t)
	clock.Set(now)

	f := &collectFixture{
		source:     sourcemocks.NewMockSource(ctrl),
		aggregator: aggmocks.NewMockAggregator(ctrl),
		rollover:   rollovermocks.NewMockManager(ctrl),
		generator:  reportmocks.NewMockGenerator(ctrl),
		deliverer:  reportmocks.NewMockDeliverer(ctrl),
		notifier:   notifiermocks.NewMockNotifier(ctrl),
		cursors:    stores.NewSourceCursorStore(storage),
		clock:      clock,
	}
	f.source.EXPECT().Name().Return("postgres").AnyTimes()
	return f
}

func (f *collectFixture) job(opts jobs.CollectOptions) *jobs.CollectJob {
	return jobs.NewCollectJob(f.source, f.aggregator, f.rollover, f.generator, f.deliverer, f.notifier, f.cursors, f.clock, opts)
}

func TestCollectJob_FullTick(t *testing.T) {
	t.Parallel()

	f := newCollectFixture(t)
	ctx := context.Background()
	initial := time.Date(2025, 12, 1, 0, 0, 0, 0, time.UTC)
	latest := time.Date(2025, 12, 28, 23, 59, 0, 0, time.UTC)
	records := []models.SessionRecord{{Username: "alice", EventKind: models.EventDisconnect, Timestamp: latest}}
	closedDay := models.WindowSnapshot{WindowKind: models.WindowDaily, WindowStart: time.Date(2025, 12, 28, 0, 0, 0, 0, time.UTC)}
	dailyReport := &models.Report{WindowKind: models.WindowDaily}
	notice := events.ConnectionNotice{Kind: events.NoticeNewIP, Username: "alice", IPReal: "203.0.113.7"}

	gomock.InOrder(
		f.source.EXPECT().FetchSince(gomock.Any(), initial).Return(records, nil),
		f.aggregator.EXPECT().Ingest(gomock.Any(), records).Return(&aggregators.IngestResult{
			Accepted:        1,
			Notices:         []events.ConnectionNotice{notice},
			LatestTimestamp: latest,
		}),
		f.notifier.EXPECT().SendMessage(gomock.Any(), "vps1: User: alice connected from IP address: 203.0.113.7.").Return(nil),
		f.rollover.EXPECT().CheckBoundaries(gomock.Any(), now).Return([]events.RolloverEvent{
			{WindowKind: models.WindowDaily, Snapshot: closedDay},
			{WindowKind: models.WindowMonthly},
		}, nil),
		f.generator.EXPECT().BuildSnapshot(closedDay).Return(dailyReport),
		f.deliverer.EXPECT().Deliver(gomock.Any(), dailyReport).Return(&reports.DeliveryResult{Sent: true}, nil),
		f.rollover.EXPECT().Checkpoint(gomock.Any()).Return(nil),
	)

	job := f.job(jobs.CollectOptions{Tag: "vps1", ReportOnRollover: []models.WindowKind{models.WindowDaily}, InitialCursor: initial})
	require.NoError(t, job.Run(ctx))

	saved, err := f.cursors.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[string]int64{"postgres": latest.UnixNano()}, saved)

	// The next tick resumes from the saved cursor.
	f.source.EXPECT().FetchSince(gomock.Any(), latest).Return(nil, nil)
	f.aggregator.EXPECT().Ingest(gomock.Any(), gomock.Nil()).Return(&aggregators.IngestResult{})
	f.rollover.EXPECT().CheckBoundaries(gomock.Any(), now).Return(nil, nil)
	f.rollover.EXPECT().Checkpoint(gomock.Any()).Return(nil)
	require.NoError(t, job.Run(ctx))
}

func TestCollectJob_CursorSurvivesRestart(t *testing.T) {
	t.Parallel()

	f := newCollectFixture(t)
	ctx := context.Background()
	saved := time.Date(2025, 12, 28, 20, 0, 0, 0, time.UTC)
	require.NoError(t, f.cursors.Save(ctx, map[string]int64{"postgres": saved.UnixNano()}))

	f.source.EXPECT().FetchSince(gomock.Any(), saved).Return(nil, nil)
	f.aggregator.EXPECT().Ingest(gomock.Any(), gomock.Any()).Return(&aggregators.IngestResult{})
	f.rollover.EXPECT().CheckBoundaries(gomock.Any(), gomock.Any()).Return(nil, nil)
	f.rollover.EXPECT().Checkpoint(gomock.Any()).Return(nil)

	require.NoError(t, f.job(jobs.CollectOptions{InitialCursor: time.Date(2025, 12, 1, 0, 0, 0, 0, time.UTC)}).Run(ctx))
}

func TestCollectJob_SourceUnavailableStillChecksBoundaries(t *testing.T) {
	t.Parallel()

	f := newCollectFixture(t)
	sourceErr := svcerrors.NewUnavailableError("SRC_9000", "session source \"postgres\" unavailable", errors.New("connection refused"))

	f.source.EXPECT().FetchSince(gomock.Any(), gomock.Any()).Return(nil, sourceErr)
	f.rollover.EXPECT().CheckBoundaries(gomock.Any(), now).Return(nil, nil)
	f.rollover.EXPECT().Checkpoint(gomock.Any()).Return(nil)

	err := f.job(jobs.CollectOptions{}).Run(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, sourceErr)

	saved, lerr := f.cursors.Load(context.Background())
	require.NoError(t, lerr)
	assert.Empty(t, saved, "cursor must not move when nothing was read")
}

func TestCollectJob_CheckpointFailureKeepsReadPosition(t *testing.T) {
	t.Parallel()

	f := newCollectFixture(t)
	ctx := context.Background()
	initial := time.Date(2025, 12, 1, 0, 0, 0, 0, time.UTC)
	latest := time.Date(2025, 12, 28, 23, 0, 0, 0, time.UTC)
	job := f.job(jobs.CollectOptions{InitialCursor: initial})

	f.source.EXPECT().FetchSince(gomock.Any(), initial).Return([]models.SessionRecord{{Username: "alice"}}, nil)
	f.aggregator.EXPECT().Ingest(gomock.Any(), gomock.Any()).Return(&aggregators.IngestResult{LatestTimestamp: latest})
	f.rollover.EXPECT().CheckBoundaries(gomock.Any(), gomock.Any()).Return(nil, nil)
	f.rollover.EXPECT().Checkpoint(gomock.Any()).Return(assert.AnError)

	err := job.Run(ctx)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "JOB_9000")

	saved, lerr := f.cursors.Load(ctx)
	require.NoError(t, lerr)
	assert.Empty(t, saved, "cursor must not be durable before a checkpoint")

	// The next tick reads past alice's record even though it was never checkpointed.
	f.source.EXPECT().FetchSince(gomock.Any(), latest).Return(nil, nil)
	f.aggregator.EXPECT().Ingest(gomock.Any(), gomock.Any()).Return(&aggregators.IngestResult{})
	f.rollover.EXPECT().CheckBoundaries(gomock.Any(), gomock.Any()).Return(nil, nil)
	f.rollover.EXPECT().Checkpoint(gomock.Any()).Return(nil)

	require.NoError(t, job.Run(ctx))

	saved, lerr = f.cursors.Load(ctx)
	require.NoError(t, lerr)
	assert.Equal(t, map[string]int64{"postgres": latest.UnixNano()}, saved)
}

func TestCollectJob_NoticeAndDeliveryFailuresDoNotStopTheTick(t *testing.T) {
	t.Parallel()

	f := newCollectFixture(t)
	closedDay := models.WindowSnapshot{WindowKind: models.WindowDaily}

	f.source.EXPECT().FetchSince(gomock.Any(), gomock.Any()).Return(nil, nil)
	f.aggregator.EXPECT().Ingest(gomock.Any(), gomock.Any()).Return(&aggregators.IngestResult{
		Notices: []events.ConnectionNotice{
			{Kind: events.NoticeNewIP, Username: "alice"},
			{Kind: events.NoticeNewIP, Username: "bob"},
		},
	})
	f.notifier.EXPECT().SendMessage(gomock.Any(), gomock.Any()).Return(errors.New("telegram down")).Times(2)
	f.rollover.EXPECT().CheckBoundaries(gomock.Any(), gomock.Any()).Return([]events.RolloverEvent{{WindowKind: models.WindowDaily, Snapshot: closedDay}}, nil)
	f.generator.EXPECT().BuildSnapshot(closedDay).Return(&models.Report{})
	f.deliverer.EXPECT().Deliver(gomock.Any(), gomock.Any()).Return(nil, errors.New("REP_9001"))
	f.rollover.EXPECT().Checkpoint(gomock.Any()).Return(nil)

	err := f.job(jobs.CollectOptions{ReportOnRollover: []models.WindowKind{models.WindowDaily}}).Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "JOB_9002")
}

func TestCollectJob_AcknowledgesSourceAfterCheckpoint(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	f := newCollectFixture(t)
	ack := sourcemocks.NewMockAcknowledger(ctrl)
	source := &ackingSource{MockSource: f.source, MockAcknowledger: ack}

	gomock.InOrder(
		f.source.EXPECT().FetchSince(gomock.Any(), gomock.Any()).Return(nil, nil),
		f.aggregator.EXPECT().Ingest(gomock.Any(), gomock.Any()).Return(&aggregators.IngestResult{}),
		f.rollover.EXPECT().CheckBoundaries(gomock.Any(), gomock.Any()).Return(nil, nil),
		f.rollover.EXPECT().Checkpoint(gomock.Any()).Return(nil),
		ack.EXPECT().Ack(gomock.Any()).Return(nil),
	)

	job := jobs.NewCollectJob(source, f.aggregator, f.rollover, f.generator, f.deliverer, f.notifier, f.cursors, f.clock, jobs.CollectOptions{})
	require.NoError(t, job.Run(context.Background()))
}

// ackingSource is a source that also acknowledges reads, like the file source.
type ackingSource struct {
	*sourcemocks.MockSource
	*sourcemocks.MockAcknowledger
}
