package sources

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"ocstat/internal/models"
	"ocstat/internal/shared/metrics"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PgxConn is the part of *pgxpool.Pool the Postgres source uses.
type PgxConn interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

const (
	createUserIPsTable = `CREATE TABLE IF NOT EXISTS user_ips (
	username   TEXT NOT NULL,
	ip_address TEXT NOT NULL,
	first_seen TIMESTAMPTZ NOT NULL DEFAULT now(),
	PRIMARY KEY (username, ip_address)
)`

	createUserSessionsTable = `CREATE TABLE IF NOT EXISTS user_sessions (
	username        TEXT NOT NULL,
	disconnect_time TIMESTAMPTZ NOT NULL,
	duration        BIGINT NOT NULL,
	bytes_in        BIGINT NOT NULL,
	bytes_out       BIGINT NOT NULL,
	ip_real         TEXT NOT NULL DEFAULT '',
	ip_remote       TEXT NOT NULL DEFAULT '',
	reason          TEXT NOT NULL DEFAULT '',
	PRIMARY KEY (username, disconnect_time)
)`

	selectSessionsSince = `SELECT username, disconnect_time, duration, bytes_in, bytes_out, ip_real, ip_remote, reason
FROM user_sessions
WHERE disconnect_time > $1
ORDER BY disconnect_time, username`

	selectSessionsSinceLimit = selectSessionsSince + `
LIMIT $2`

	insertSession = `INSERT INTO user_sessions (username, disconnect_time, duration, bytes_in, bytes_out, ip_real, ip_remote, reason)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
ON CONFLICT (username, disconnect_time) DO NOTHING`

	selectKnownIP = `SELECT EXISTS (SELECT 1 FROM user_ips WHERE username = $1 AND ip_address = $2)`

	insertKnownIP = `INSERT INTO user_ips (username, ip_address)
VALUES ($1, $2)
ON CONFLICT (username, ip_address) DO NOTHING`

	selectKnownIPs = `SELECT username, ip_address, first_seen FROM user_ips ORDER BY username, ip_address`
)

// SessionRow is one completed session as stored in user_sessions.
type SessionRow struct {
	Username        string
	DisconnectTime  time.Time
	DurationSeconds int64
	BytesIn         int64
	BytesOut        int64
	IPReal          string
	IPRemote        string
	Reason          string
}

type KnownIP struct {
	Username  string
	IPAddress string
	FirstSeen time.Time
}

// PostgresSource reads completed sessions from user_sessions and doubles as
// the known-IP registry backed by user_ips. All statements are parameterized.
type PostgresSource struct {
	conn PgxConn
}

func NewPostgresSource(conn PgxConn) *PostgresSource {
	return &PostgresSource{conn: conn}
}

// OpenPostgresPool connects and pings so a bad DSN fails at start-up.
func OpenPostgresPool(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to create postgres pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping postgres: %w", err)
	}
	return pool, nil
}

func (s *PostgresSource) Name() string { return NamePostgres }

// EnsureSchema creates the session tables when they are missing.
func (s *PostgresSource) EnsureSchema(ctx context.Context) error {
	for _, stmt := range []string{createUserIPsTable, createUserSessionsTable} {
		if _, err := s.conn.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("failed to create schema: %w", err)
		}
	}
	return nil
}

func (s *PostgresSource) FetchSince(ctx context.Context, since time.Time) ([]models.SessionRecord, error) {
	rows, err := s.ListSessions(ctx, since, 0)
	if err != nil {
		svcErr := errSourceUnavailable(NamePostgres, err)
		metricFetchesTotal.WithLabelValues(NamePostgres, svcErr.Code).Inc()
		return nil, svcErr
	}

	records := make([]models.SessionRecord, 0, len(rows))
	for _, row := range rows {
		records = append(records, models.SessionRecord{
			Username:        row.Username,
			EventKind:       models.EventDisconnect,
			IPReal:          row.IPReal,
			IPRemote:        row.IPRemote,
			BytesIn:         strconv.FormatInt(row.BytesIn, 10),
			BytesOut:        strconv.FormatInt(row.BytesOut, 10),
			DurationSeconds: strconv.FormatInt(row.DurationSeconds, 10),
			Timestamp:       row.DisconnectTime,
			Reason:          row.Reason,
		})
	}
	metricFetchesTotal.WithLabelValues(NamePostgres, metrics.ValueNoError).Inc()
	metricRecordsFetchedTotal.WithLabelValues(NamePostgres).Add(float64(len(records)))
	return records, nil
}

// ListSessions returns sessions that ended after since, oldest first.
// limit <= 0 means no limit.
func (s *PostgresSource) ListSessions(ctx context.Context, since time.Time, limit int) ([]SessionRow, error) {
	var (
		rows pgx.Rows
		err  error
	)
	if limit > 0 {
		rows, err = s.conn.Query(ctx, selectSessionsSinceLimit, since, limit)
	} else {
		rows, err = s.conn.Query(ctx, selectSessionsSince, since)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query sessions: %w", err)
	}
	defer rows.Close()

	var out []SessionRow
	for rows.Next() {
		var row SessionRow
		if err := rows.Scan(&row.Username, &row.DisconnectTime, &row.DurationSeconds, &row.BytesIn, &row.BytesOut, &row.IPReal, &row.IPRemote, &row.Reason); err != nil {
			return nil, fmt.Errorf("failed to scan session: %w", err)
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate sessions: %w", err)
	}
	return out, nil
}

// RecordSession inserts a completed session. A second insert for the same
// user and disconnect time is ignored.
func (s *PostgresSource) RecordSession(ctx context.Context, row SessionRow) error {
	_, err := s.conn.Exec(ctx, insertSession,
		row.Username,
		row.DisconnectTime,
		row.DurationSeconds,
		row.BytesIn,
		row.BytesOut,
		row.IPReal,
		row.IPRemote,
		row.Reason,
	)
	if err != nil {
		return fmt.Errorf("failed to insert session: %w", err)
	}
	return nil
}

func (s *PostgresSource) HasKnownIP(ctx context.Context, username, ip string) (bool, error) {
	var exists bool
	if err := s.conn.QueryRow(ctx, selectKnownIP, username, ip).Scan(&exists); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("failed to look up known ip: %w", err)
	}
	return exists, nil
}

func (s *PostgresSource) RememberIP(ctx context.Context, username, ip string) error {
	if _, err := s.conn.Exec(ctx, insertKnownIP, username, ip); err != nil {
		return fmt.Errorf("failed to insert known ip: %w", err)
	}
	return nil
}

func (s *PostgresSource) ListKnownIPs(ctx context.Context) ([]KnownIP, error) {
	rows, err := s.conn.Query(ctx, selectKnownIPs)
	if err != nil {
		return nil, fmt.Errorf("failed to query known ips: %w", err)
	}
	defer rows.Close()

	var out []KnownIP
	for rows.Next() {
		var ip KnownIP
		if err := rows.Scan(&ip.Username, &ip.IPAddress, &ip.FirstSeen); err != nil {
			return nil, fmt.Errorf("failed to scan known ip: %w", err)
		}
		out = append(out, ip)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate known ips: %w", err)
	}
	return out, nil
}

// PostgresSessionWriter stores hook events. Connects register the client
// address and disconnects insert a session row.
type PostgresSessionWriter struct {
	source *PostgresSource
	now    func() time.Time
}

func NewPostgresSessionWriter(source *PostgresSource, now func() time.Time) *PostgresSessionWriter {
	return &PostgresSessionWriter{source: source, now: now}
}

func (w *PostgresSessionWriter) Write(ctx context.Context, record models.SessionRecord) error {
	if record.EventKind == models.EventConnect {
		if record.IPReal == "" {
			return nil
		}
		return w.source.RememberIP(ctx, record.Username, record.IPReal)
	}

	row := SessionRow{
		Username:       record.Username,
		DisconnectTime: record.Timestamp,
		IPReal:         record.IPReal,
		IPRemote:       record.IPRemote,
		Reason:         record.Reason,
	}
	if row.DisconnectTime.IsZero() {
		row.DisconnectTime = w.now()
	}
	var err error
	if row.BytesIn, err = strconv.ParseInt(record.BytesIn, 10, 64); err != nil {
		return fmt.Errorf("bytesIn: %w", err)
	}
	if row.BytesOut, err = strconv.ParseInt(record.BytesOut, 10, 64); err != nil {
		return fmt.Errorf("bytesOut: %w", err)
	}
	if row.DurationSeconds, err = strconv.ParseInt(record.DurationSeconds, 10, 64); err != nil {
		return fmt.Errorf("durationSeconds: %w", err)
	}
	return w.source.RecordSession(ctx, row)
}
