package sources

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"maps"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"ocstat/internal/models"
	"ocstat/internal/shared/loggers"
	"ocstat/internal/shared/metrics"
	"ocstat/internal/stores"

	"github.com/spf13/afero"
)

type FileSourceOptions struct {
	Dir string
	// Suffix selects the per-user files, named <username><suffix>.
	Suffix string
}

// FileSource reads JSON lines appended to per-user files in one directory.
// Only files ending in Suffix are opened, and nothing is ever truncated: a
// byte offset per file marks what has been consumed. A trailing line without
// a newline is left for the next pass.
//
// Offsets advance in memory as soon as lines are returned, so a later fetch
// never hands out the same line twice. Ack makes them durable.
type FileSource struct {
	fs      afero.Fs
	offsets stores.SourceOffsetStore
	opts    FileSourceOptions

	mu    sync.Mutex
	read  map[string]int64
	saved map[string]int64
}

func NewFileSource(fs afero.Fs, offsets stores.SourceOffsetStore, opts FileSourceOptions) *FileSource {
	return &FileSource{fs: fs, offsets: offsets, opts: opts}
}

func (s *FileSource) Name() string { return NameFile }

// FetchSince ignores since; the per-file offsets are the cursor.
func (s *FileSource) FetchSince(ctx context.Context, _ time.Time) ([]models.SessionRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	records, err := s.fetch(ctx)
	if err != nil {
		svcErr := errSourceUnavailable(NameFile, err)
		metricFetchesTotal.WithLabelValues(NameFile, svcErr.Code).Inc()
		return nil, svcErr
	}
	metricFetchesTotal.WithLabelValues(NameFile, metrics.ValueNoError).Inc()
	metricRecordsFetchedTotal.WithLabelValues(NameFile).Add(float64(len(records)))
	return records, nil
}

func (s *FileSource) fetch(ctx context.Context) ([]models.SessionRecord, error) {
	if s.read == nil {
		offsets, err := s.offsets.Load(ctx)
		if err != nil {
			return nil, err
		}
		s.read = offsets
		s.saved = maps.Clone(offsets)
	}

	infos, err := afero.ReadDir(s.fs, s.opts.Dir)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", s.opts.Dir, err)
	}

	next := make(map[string]int64, len(infos))
	var out []models.SessionRecord
	for _, info := range infos {
		name := info.Name()
		if !info.Mode().IsRegular() || !strings.HasSuffix(name, s.opts.Suffix) || name == s.opts.Suffix {
			continue
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		offset := s.read[name]
		if info.Size() < offset {
			loggers.Ctx(ctx).Warn().Str("file", name).Int64("offset", offset).Int64("size", info.Size()).Msg("session file shrank, reading from the start")
			offset = 0
		}

		records, end, err := s.readFile(ctx, name, offset)
		if err != nil {
			return nil, err
		}
		next[name] = end
		out = append(out, records...)
	}

	s.read = next
	return out, nil
}

func (s *FileSource) readFile(ctx context.Context, name string, offset int64) ([]models.SessionRecord, int64, error) {
	f, err := s.fs.Open(filepath.Join(s.opts.Dir, name))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, offset, nil
		}
		return nil, offset, fmt.Errorf("failed to open %s: %w", name, err)
	}
	defer f.Close()

	if _, err := f.Seek(offset, io.SeekStart); err != nil {
		return nil, offset, fmt.Errorf("failed to seek %s: %w", name, err)
	}

	fallbackUser := strings.TrimSuffix(name, s.opts.Suffix)
	reader := bufio.NewReader(f)
	var records []models.SessionRecord
	for {
		line, err := reader.ReadBytes('\n')
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, offset, fmt.Errorf("failed to read %s: %w", name, err)
		}
		lineOffset := offset
		offset += int64(len(line))

		line = bytes.TrimSpace(line)
		if len(line) == 0 {
			continue
		}
		var rec models.SessionRecord
		if err := json.Unmarshal(line, &rec); err != nil {
			metricMalformedLinesTotal.WithLabelValues(NameFile).Inc()
			loggers.Ctx(ctx).Warn().Err(err).Str("file", name).Int64("offset", lineOffset).Msg("skipping malformed session line")
			continue
		}
		if rec.Username == "" {
			rec.Username = fallbackUser
		}
		records = append(records, rec)
	}
	return records, offset, nil
}

// Ack persists the offsets reached so far. A failed Ack is retried by the
// next one.
func (s *FileSource) Ack(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.read == nil || maps.Equal(s.read, s.saved) {
		return nil
	}
	offsets := maps.Clone(s.read)
	if err := s.offsets.Save(ctx, offsets); err != nil {
		return errAckFailed(NameFile, err)
	}
	s.saved = offsets
	return nil
}

// FileSessionWriter appends records to <dir>/<username><suffix>, the files
// FileSource reads.
type FileSessionWriter struct {
	fs   afero.Fs
	opts FileSourceOptions
}

func NewFileSessionWriter(fs afero.Fs, opts FileSourceOptions) *FileSessionWriter {
	return &FileSessionWriter{fs: fs, opts: opts}
}

func (w *FileSessionWriter) Write(ctx context.Context, record models.SessionRecord) error {
	if record.Username == "" || strings.ContainsAny(record.Username, `/\`) || strings.HasPrefix(record.Username, ".") {
		return fmt.Errorf("invalid username %q for a session file", record.Username)
	}
	line, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to marshal session record: %w", err)
	}
	line = append(line, '\n')

	if err := w.fs.MkdirAll(w.opts.Dir, 0o755); err != nil {
		return fmt.Errorf("failed to create %s: %w", w.opts.Dir, err)
	}
	path := filepath.Join(w.opts.Dir, record.Username+w.opts.Suffix)
	f, err := w.fs.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", path, err)
	}
	// One write per line keeps concurrent appenders from interleaving.
	if _, err := f.Write(line); err != nil {
		_ = f.Close()
		return fmt.Errorf("failed to append to %s: %w", path, err)
	}
	return f.Close()
}
