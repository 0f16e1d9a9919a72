package hook

import (
	"context"
	"fmt"
	"io"
	"strings"

	"ocstat/internal/aggregators"
	"ocstat/internal/events"
	"ocstat/internal/models"
	"ocstat/internal/notifiers"
	"ocstat/internal/reports"
	"ocstat/internal/shared/loggers"
	"ocstat/internal/sources"

	"github.com/coder/quartz"
)

// Environment variables set by ocserv for connect-script and disconnect-script.
const (
	EnvUsername      = "USERNAME"
	EnvReason        = "REASON"
	EnvIPReal        = "IP_REAL"
	EnvIPRemote      = "IP_REMOTE"
	EnvStatsBytesIn  = "STATS_BYTES_IN"
	EnvStatsBytesOut = "STATS_BYTES_OUT"
	EnvStatsDuration = "STATS_DURATION"

	reasonConnect = "connect"
)

// LookupEnv reads one variable; os.Getenv satisfies it.
type LookupEnv func(key string) string

type KnownIPChecker interface {
	HasKnownIP(ctx context.Context, username, ip string) (bool, error)
}

type Options struct {
	Tag               string
	UsernameSeparator string
	NotifyNewIPs      bool
	NotifyDisconnects bool
}

// Runner records one ocserv event. With a notifier it also sends the
// connection notices, which is how the postgres backend gets them: its
// server side never sees the raw events.
type Runner struct {
	writer    sources.SessionWriter
	registry  KnownIPChecker
	notifier  notifiers.Notifier
	validator *aggregators.SessionValidator
	clock     quartz.Clock
	opts      Options
	out       io.Writer
}

// NewRunner builds a runner. registry and notifier may both be nil, in
// which case no notices are sent.
func NewRunner(writer sources.SessionWriter, registry KnownIPChecker, notifier notifiers.Notifier, clock quartz.Clock, out io.Writer, opts Options) *Runner {
	return &Runner{
		writer:    writer,
		registry:  registry,
		notifier:  notifier,
		validator: aggregators.NewSessionValidator(opts.UsernameSeparator),
		clock:     clock,
		opts:      opts,
		out:       out,
	}
}

// RecordFromEnv maps the ocserv script environment to a record. Any REASON
// other than "connect" is a disconnect.
func RecordFromEnv(env LookupEnv, usernameSeparator string) models.SessionRecord {
	reason := strings.TrimSpace(env(EnvReason))
	kind := models.EventDisconnect
	if reason == reasonConnect {
		kind = models.EventConnect
	}
	return models.SessionRecord{
		Username:        models.NormalizeUsername(env(EnvUsername), usernameSeparator),
		EventKind:       kind,
		IPReal:          strings.TrimSpace(env(EnvIPReal)),
		IPRemote:        strings.TrimSpace(env(EnvIPRemote)),
		BytesIn:         strings.TrimSpace(env(EnvStatsBytesIn)),
		BytesOut:        strings.TrimSpace(env(EnvStatsBytesOut)),
		DurationSeconds: strings.TrimSpace(env(EnvStatsDuration)),
		Reason:          reason,
	}
}

// Run records the event described by env.
func (r *Runner) Run(ctx context.Context, env LookupEnv) error {
	logger := loggers.Ctx(ctx)
	record := RecordFromEnv(env, r.opts.UsernameSeparator)
	record.Timestamp = r.clock.Now().UTC()

	if record.EventKind == models.EventDisconnect &&
		(record.BytesIn == "" || record.BytesOut == "" || record.DurationSeconds == "") {
		_, _ = fmt.Fprintln(r.out, "One or more statistics values are empty.")
		return nil
	}

	var notice *events.ConnectionNotice
	switch record.EventKind {
	case models.EventConnect:
		if err := r.validator.ValidateConnect(record); err != nil {
			return fmt.Errorf("invalid connect event: %w", err)
		}
		n, err := r.newIPNotice(ctx, record)
		if err != nil {
			return err
		}
		notice = n
	default:
		usage, err := r.validator.ValidateDisconnect(record, record.Timestamp)
		if err != nil {
			return fmt.Errorf("invalid disconnect event: %w", err)
		}
		if r.notifier != nil && r.opts.NotifyDisconnects {
			notice = &events.ConnectionNotice{
				Kind:      events.NoticeDisconnect,
				Username:  record.Username,
				Reason:    record.Reason,
				IPReal:    record.IPReal,
				IPRemote:  record.IPRemote,
				Usage:     usage,
				Timestamp: record.Timestamp,
			}
		}
	}

	if err := r.writer.Write(ctx, record); err != nil {
		return fmt.Errorf("failed to record %s for %s: %w", record.EventKind, record.Username, err)
	}
	_, _ = fmt.Fprintf(r.out, "Recorded %s for user %s.\n", record.EventKind, record.Username)

	if notice != nil {
		// The event is already stored; a chat outage must not fail ocserv's script.
		if err := r.notifier.SendMessage(ctx, reports.FormatNotice(*notice, r.opts.Tag)); err != nil {
			logger.Warn().Err(err).
				Str(loggers.FieldUsername, record.Username).
				Str("notice", string(notice.Kind)).
				Msg("failed to send connection notice")
		}
	}
	return nil
}

// newIPNotice must run before the write: writing a connect registers the address.
func (r *Runner) newIPNotice(ctx context.Context, record models.SessionRecord) (*events.ConnectionNotice, error) {
	if r.notifier == nil || r.registry == nil || !r.opts.NotifyNewIPs || record.IPReal == "" {
		return nil, nil
	}
	known, err := r.registry.HasKnownIP(ctx, record.Username, record.IPReal)
	if err != nil {
		return nil, fmt.Errorf("failed to look up known ip: %w", err)
	}
	if known {
		return nil, nil
	}
	return &events.ConnectionNotice{
		Kind:      events.NoticeNewIP,
		Username:  record.Username,
		IPReal:    record.IPReal,
		IPRemote:  record.IPRemote,
		Timestamp: record.Timestamp,
	}, nil
}
