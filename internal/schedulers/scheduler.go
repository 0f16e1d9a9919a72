package schedulers

import (
	"context"
	"fmt"
	"runtime/debug"
	"sort"
	"sync"
	"time"

	"ocstat/internal/shared/loggers"
	"ocstat/internal/shared/metrics"
	"ocstat/internal/shared/svcerrors"
	"ocstat/internal/shared/ulid"

	"github.com/coder/quartz"
	"github.com/robfig/cron/v3"
)

const (
	defaultPollDelay  = time.Second
	defaultJobTimeout = 5 * time.Minute
)

// Job is one unit of scheduled work. The context is canceled when the run
// is abandoned after the job timeout.
type Job func(ctx context.Context) error

// Trigger says when a job fires. Exactly one field must be set.
type Trigger struct {
	// DailyAt is a wall-clock time "HH:MM" in the scheduler's location.
	DailyAt string
	Every   time.Duration
}

func (t Trigger) String() string {
	if t.DailyAt != "" {
		return "daily at " + t.DailyAt
	}
	return "every " + t.Every.String()
}

// ReportTrigger returns the daily trigger, or a fixed interval in test mode.
func ReportTrigger(testMode bool, dailyAt string, testInterval time.Duration) Trigger {
	if testMode {
		return Trigger{Every: testInterval}
	}
	return Trigger{DailyAt: dailyAt}
}

type Options struct {
	// PollDelay bounds how long Run sleeps between checks.
	PollDelay  time.Duration
	JobTimeout time.Duration
	// Location is the timezone DailyAt triggers are read in.
	Location *time.Location
}

// JobStatus is a point-in-time view of one registered job.
type JobStatus struct {
	Name          string    `json:"name"`
	Trigger       string    `json:"trigger"`
	NextFire      time.Time `json:"nextFire"`
	LastRun       time.Time `json:"lastRun,omitempty"`
	LastErrorCode string    `json:"lastErrorCode,omitempty"`
	Running       bool      `json:"running"`
}

type entry struct {
	name     string
	trigger  Trigger
	schedule cron.Schedule
	location *time.Location
	job      Job

	next          time.Time
	lastRun       time.Time
	lastErrorCode string
	// inflight is closed when an abandoned run finally returns.
	inflight chan struct{}
}

func (e *entry) nextAfter(t time.Time) time.Time {
	if e.schedule != nil {
		// A cron expression without CRON_TZ is evaluated in the location of its argument.
		return e.schedule.Next(t.In(e.location))
	}
	return t.Add(e.trigger.Every)
}

// Scheduler is a single-threaded cooperative job loop. Due jobs run one at a
// time in registration order; a failing, panicking or hung job is logged and
// never stops the loop. Fire times missed while the process was busy or down
// collapse into a single run.
type Scheduler struct {
	clock quartz.Clock
	opts  Options

	mu   sync.Mutex
	jobs []*entry
}

func NewScheduler(clock quartz.Clock, opts Options) *Scheduler {
	if opts.PollDelay <= 0 {
		opts.PollDelay = defaultPollDelay
	}
	if opts.JobTimeout <= 0 {
		opts.JobTimeout = defaultJobTimeout
	}
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	return &Scheduler{clock: clock, opts: opts}
}

// RegisterDaily fires job once a day at hhmm.
func (s *Scheduler) RegisterDaily(name, hhmm string, job Job) error {
	return s.Register(name, Trigger{DailyAt: hhmm}, job)
}

// RegisterInterval fires job every seconds, first after one interval.
func (s *Scheduler) RegisterInterval(name string, seconds int, job Job) error {
	if seconds <= 0 {
		return errInvalidTrigger(fmt.Sprintf("job %q: interval must be positive, got %d", name, seconds), nil)
	}
	return s.Register(name, Trigger{Every: time.Duration(seconds) * time.Second}, job)
}

func (s *Scheduler) Register(name string, trigger Trigger, job Job) error {
	if name == "" || job == nil {
		return errInvalidTrigger("job name and function are required", nil)
	}

	e := &entry{name: name, trigger: trigger, job: job, location: s.opts.Location}
	switch {
	case trigger.DailyAt != "" && trigger.Every != 0:
		return errInvalidTrigger(fmt.Sprintf("job %q: set either DailyAt or Every", name), nil)
	case trigger.DailyAt != "":
		schedule, err := parseDaily(trigger.DailyAt)
		if err != nil {
			return errInvalidTrigger(fmt.Sprintf("job %q: invalid daily time %q", name, trigger.DailyAt), err)
		}
		e.schedule = schedule
	case trigger.Every > 0:
	default:
		return errInvalidTrigger(fmt.Sprintf("job %q: interval must be positive", name), nil)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.jobs {
		if existing.name == name {
			return errInvalidTrigger(fmt.Sprintf("job %q already registered", name), nil)
		}
	}
	e.next = e.nextAfter(s.clock.Now())
	s.jobs = append(s.jobs, e)
	metricJobNextFireSeconds.WithLabelValues(name).Set(float64(e.next.Unix()))
	return nil
}

// parseDaily turns "HH:MM" into a cron schedule firing once a day.
func parseDaily(hhmm string) (cron.Schedule, error) {
	at, err := time.Parse("15:04", hhmm)
	if err != nil {
		return nil, err
	}
	return cron.ParseStandard(fmt.Sprintf("%d %d * * *", at.Minute(), at.Hour()))
}

// Jobs returns the registered jobs ordered by next fire time.
func (s *Scheduler) Jobs() []JobStatus {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]JobStatus, 0, len(s.jobs))
	for _, e := range s.jobs {
		running := false
		if e.inflight != nil {
			select {
			case <-e.inflight:
			default:
				running = true
			}
		}
		out = append(out, JobStatus{
			Name:          e.name,
			Trigger:       e.trigger.String(),
			NextFire:      e.next,
			LastRun:       e.lastRun,
			LastErrorCode: e.lastErrorCode,
			Running:       running,
		})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].NextFire.Before(out[j].NextFire) })
	return out
}

// RunPending runs every job due at the current time, in registration order,
// and schedules each one's next fire from the time it finished.
func (s *Scheduler) RunPending(ctx context.Context) {
	now := s.clock.Now()

	s.mu.Lock()
	var due []*entry
	for _, e := range s.jobs {
		if !now.Before(e.next) {
			due = append(due, e)
		}
	}
	s.mu.Unlock()

	for _, e := range due {
		if ctx.Err() != nil {
			return
		}
		s.runJob(ctx, e)

		s.mu.Lock()
		e.next = e.nextAfter(s.clock.Now())
		s.mu.Unlock()
		metricJobNextFireSeconds.WithLabelValues(e.name).Set(float64(e.next.Unix()))
	}
}

// Run loops until ctx is canceled.
func (s *Scheduler) Run(ctx context.Context) error {
	logger := loggers.Ctx(ctx)
	logger.Info().Int("jobs", len(s.Jobs())).Dur("poll_delay", s.opts.PollDelay).Msg("scheduler started")

	for {
		s.RunPending(ctx)

		wait := s.opts.PollDelay
		if next, ok := s.nextFire(); ok {
			if d := next.Sub(s.clock.Now()); d < wait {
				wait = max(d, 0)
			}
		}

		timer := s.clock.NewTimer(wait, "scheduler", "poll")
		select {
		case <-ctx.Done():
			timer.Stop()
			logger.Info().Msg("scheduler stopped")
			return nil
		case <-timer.C:
		}
	}
}

func (s *Scheduler) nextFire() (time.Time, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var next time.Time
	for _, e := range s.jobs {
		if next.IsZero() || e.next.Before(next) {
			next = e.next
		}
	}
	return next, !next.IsZero()
}

func (s *Scheduler) runJob(ctx context.Context, e *entry) {
	start := s.clock.Now()
	logger := loggers.Ctx(ctx).With().
		Str(loggers.FieldJob, e.name).
		Str(loggers.FieldRunID, ulid.NewULIDAt(start)).
		Logger()
	ctx = logger.WithContext(ctx)

	s.mu.Lock()
	inflight := e.inflight
	s.mu.Unlock()
	if inflight != nil {
		select {
		case <-inflight:
			s.mu.Lock()
			e.inflight = nil
			s.mu.Unlock()
		default:
			metricJobRunsTotal.WithLabelValues(e.name, outcomeSkipped, metrics.ValueNoError).Inc()
			logger.Warn().Msg("previous run still in progress, skipping")
			return
		}
	}

	jobCtx, cancel := context.WithCancel(ctx)
	finished := make(chan struct{})
	result := make(chan error, 1)
	go func() {
		defer close(finished)
		defer func() {
			if r := recover(); r != nil {
				logger.Error().
					Bytes(loggers.FieldErrorStack, debug.Stack()).
					Msg("job panic recovered")
				result <- errJobPanicked(e.name, r)
			}
		}()
		result <- e.job(jobCtx)
	}()

	timer := s.clock.NewTimer(s.opts.JobTimeout, "scheduler", "timeout")
	var err error
	select {
	case err = <-result:
		timer.Stop()
		cancel()
	case <-timer.C:
		cancel()
		s.mu.Lock()
		e.inflight = finished
		s.mu.Unlock()
		err = errJobTimedOut(e.name, s.opts.JobTimeout)
	case <-ctx.Done():
		timer.Stop()
		cancel()
		s.mu.Lock()
		e.inflight = finished
		s.mu.Unlock()
		logger.Info().Msg("scheduler stopping, run abandoned")
		return
	}

	elapsed := s.clock.Since(start)
	metricJobDurationSeconds.WithLabelValues(e.name).Observe(elapsed.Seconds())

	code := ""
	if err != nil {
		svcErr, ok := svcerrors.AsServiceError(err)
		if !ok || (svcErr.Code != codeJobTimedOut && svcErr.Code != codeJobPanicked) {
			svcErr = errJobFailed(e.name, err)
		}
		code = svcErr.Code
		metricJobRunsTotal.WithLabelValues(e.name, outcomeFailed, code).Inc()
		logger.Error().Err(svcErr).
			Str(loggers.FieldErrorCode, code).
			Str("cause_code", svcerrors.CodeOf(err)).
			Dur(loggers.FieldDuration, elapsed).
			Msg("job failed")
	} else {
		metricJobRunsTotal.WithLabelValues(e.name, outcomeSucceeded, metrics.ValueNoError).Inc()
		logger.Debug().Dur(loggers.FieldDuration, elapsed).Msg("job finished")
	}

	s.mu.Lock()
	e.lastRun = start
	e.lastErrorCode = code
	s.mu.Unlock()
}
