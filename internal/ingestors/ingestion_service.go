package ingestors

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"strconv"
	"strings"
	"time"

	"ocstat/internal/models"
	"ocstat/internal/shared/loggers"
	"ocstat/internal/shared/metrics"
	"ocstat/internal/shared/ulid"
	"ocstat/internal/stores"
	"ocstat/internal/streams"

	"github.com/coder/quartz"
)

const (
	maxBatchBytes   = 2 * 1024 * 1024
	maxUsernameLen  = 256
	maxReasonLen    = 64
	maxIdempotencyK = 128
)

const (
	FormatJSON = "json"
)

// IngestResult represents the result of a batch ingestion operation.
type IngestResult struct {
	BatchID     string
	StoredCount int
}

//go:generate mockgen -source=ingestion_service.go -destination=./mocks/ingestion_service_mock.go -package=mocks
type IngestionService interface {
	// IngestBatch accepts a JSON array of session records pushed by a hook.
	IngestBatch(ctx context.Context, idempotencyKey string, format string, r io.Reader) (*IngestResult, error)
}

type ingestionService struct {
	batchStore      stores.SessionBatchStore
	sessionProducer streams.SessionProducer
	clock           quartz.Clock
}

func NewIngestionService(batchStore stores.SessionBatchStore, sessionProducer streams.SessionProducer, clock quartz.Clock) IngestionService {
	return &ingestionService{
		batchStore:      batchStore,
		sessionProducer: sessionProducer,
		clock:           clock,
	}
}

func (s *ingestionService) IngestBatch(ctx context.Context, idempotencyKey string, format string, r io.Reader) (*IngestResult, error) {
	logger := loggers.Ctx(ctx)
	logger.Debug().Msgf("started ingesting session batch with idempotency key: %s, format: %s", idempotencyKey, format)

	batchID := strings.TrimSpace(idempotencyKey)
	if len(batchID) > maxIdempotencyK || strings.ContainsAny(batchID, `/\.`) {
		svcErr := errValidationFailed("invalid idempotency key", nil)
		metricBatchIngestedTotal.WithLabelValues(svcErr.Code).Inc()
		return nil, svcErr
	}

	records, err := s.validateSessionBatch(format, r)
	if err != nil {
		metricBatchIngestedTotal.WithLabelValues(codeValidationFailed).Inc()
		return nil, err
	}

	receivedAt := s.clock.Now()
	if batchID == "" {
		batchID = ulid.NewULIDAt(receivedAt)
	}

	batch := &models.SessionBatch{
		BatchID:    batchID,
		ReceivedAt: receivedAt,
		Records:    records,
	}

	// Store the batch first so a retried request is recognised.
	err = s.batchStore.Put(ctx, batch)
	if err != nil {
		if errors.Is(err, stores.ErrSessionBatchAlreadyExist) {
			svcError := errSessionBatchAlreadyProcessed(err)
			metricBatchIngestedTotal.WithLabelValues(svcError.Code).Inc()
			return nil, svcError
		}
		svcError := errInternalSessionBatchStoreFailed(err)
		metricBatchIngestedTotal.WithLabelValues(svcError.Code).Inc()
		return nil, svcError
	}

	if svcErr := s.sessionProducer.Produce(ctx, batch); svcErr != nil {
		metricBatchIngestedTotal.WithLabelValues(svcErr.Code).Inc()
		if svcErr.IsUnavailable() {
			return nil, svcErr
		}
		return nil, errInternalSessionProducerFailed(svcErr)
	}

	metricBatchIngestedTotal.WithLabelValues(metrics.ValueNoError).Inc()
	metricRecordsIngestedTotal.Add(float64(len(records)))
	logger.Debug().Str("batch_id", batchID).Int("records", len(records)).Msg("session batch queued")
	return &IngestResult{BatchID: batchID, StoredCount: len(records)}, nil
}

func (s *ingestionService) validateSessionBatch(format string, r io.Reader) ([]*models.SessionRecord, error) {
	if r == nil {
		return nil, errValidationFailed("empty request body", nil)
	}

	buf, err := s.readWithLimit(r, maxBatchBytes)
	if err != nil {
		return nil, errValidationFailed("batch too large: must be <= 2MB", nil)
	}

	if !strings.Contains(strings.ToLower(format), FormatJSON) {
		return nil, errValidationFailed(fmt.Sprintf("unsupported input format: %q", format), nil)
	}

	records, err := s.parseJSON(buf)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, errValidationFailed("session records cannot be empty", nil)
	}
	return records, nil
}

// readWithLimit reads up to max+1 bytes from r and checks if it exceeds max.
func (s *ingestionService) readWithLimit(r io.Reader, max int) ([]byte, error) {
	buf, err := io.ReadAll(io.LimitReader(r, int64(max+1)))
	if err != nil {
		return nil, err
	}
	if len(buf) > max {
		return nil, errValidationFailed("batch too large", nil)
	}
	return buf, nil
}

// parseJSON parses buf as a JSON array of session objects.
func (s *ingestionService) parseJSON(buf []byte) ([]*models.SessionRecord, error) {
	var arr []map[string]any
	if err := json.Unmarshal(buf, &arr); err != nil {
		return nil, errValidationFailed("invalid json", err)
	}

	records := make([]*models.SessionRecord, 0, len(arr))
	for i, item := range arr {
		record, err := s.jsonObjectToSessionRecord(item, i)
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	return records, nil
}

// jsonObjectToSessionRecord checks structure only. Counter values are parsed
// when the record is folded, where a bad value rejects that one record.
func (s *ingestionService) jsonObjectToSessionRecord(obj map[string]any, index int) (*models.SessionRecord, error) {
	record := &models.SessionRecord{}

	username, err := stringField(obj, "username", index, true)
	if err != nil {
		return nil, err
	}
	record.Username = strings.TrimSpace(username)
	if record.Username == "" {
		return nil, errValidationFailed(fmt.Sprintf("item at index %d: username cannot be empty", index), nil)
	}
	if len(record.Username) > maxUsernameLen {
		return nil, errValidationFailed(fmt.Sprintf("item at index %d: username too long: max %d characters", index, maxUsernameLen), nil)
	}

	kind, err := stringField(obj, "eventKind", index, true)
	if err != nil {
		return nil, err
	}
	if record.EventKind, err = models.NewEventKindFromString(kind); err != nil {
		return nil, errValidationFailed(fmt.Sprintf("item at index %d: %s", index, err.Error()), nil)
	}

	if record.IPReal, err = ipField(obj, "ipReal", index); err != nil {
		return nil, err
	}
	if record.IPRemote, err = ipField(obj, "ipRemote", index); err != nil {
		return nil, err
	}

	for key, dst := range map[string]*string{
		"bytesIn":         &record.BytesIn,
		"bytesOut":        &record.BytesOut,
		"durationSeconds": &record.DurationSeconds,
	} {
		if *dst, err = counterField(obj, key, index); err != nil {
			return nil, err
		}
	}
	if record.EventKind == models.EventDisconnect && (record.BytesIn == "" || record.BytesOut == "" || record.DurationSeconds == "") {
		return nil, errValidationFailed(fmt.Sprintf("item at index %d: disconnect requires bytesIn, bytesOut and durationSeconds", index), nil)
	}

	if record.Reason, err = stringField(obj, "reason", index, false); err != nil {
		return nil, err
	}
	if len(record.Reason) > maxReasonLen {
		return nil, errValidationFailed(fmt.Sprintf("item at index %d: reason too long: max %d characters", index, maxReasonLen), nil)
	}

	timestamp, err := stringField(obj, "timestamp", index, false)
	if err != nil {
		return nil, err
	}
	if timestamp != "" {
		if record.Timestamp, err = parseTime(timestamp, index); err != nil {
			return nil, err
		}
	}
	return record, nil
}

func stringField(obj map[string]any, key string, index int, required bool) (string, error) {
	val, ok := obj[key]
	if !ok || val == nil {
		if required {
			return "", errValidationFailed(fmt.Sprintf("item at index %d: missing %s", index, key), nil)
		}
		return "", nil
	}
	str, ok := val.(string)
	if !ok {
		return "", errValidationFailed(fmt.Sprintf("item at index %d: %s must be a string", index, key), nil)
	}
	return str, nil
}

func ipField(obj map[string]any, key string, index int) (string, error) {
	str, err := stringField(obj, key, index, false)
	if err != nil || str == "" {
		return str, err
	}
	str = strings.TrimSpace(str)
	if net.ParseIP(str) == nil {
		return "", errValidationFailed(fmt.Sprintf("item at index %d: %s is not an ip address: %q", index, key, str), nil)
	}
	return str, nil
}

// counterField accepts a decimal string or a JSON number.
func counterField(obj map[string]any, key string, index int) (string, error) {
	switch v := obj[key].(type) {
	case nil:
		return "", nil
	case string:
		return strings.TrimSpace(v), nil
	case float64:
		if v != float64(int64(v)) {
			return "", errValidationFailed(fmt.Sprintf("item at index %d: %s must be an integer", index, key), nil)
		}
		return strconv.FormatInt(int64(v), 10), nil
	default:
		return "", errValidationFailed(fmt.Sprintf("item at index %d: %s must be a string or number", index, key), nil)
	}
}

// parseTime parses a time string in RFC3339 or ISO-8601 format.
func parseTime(timeStr string, index int) (time.Time, error) {
	t, err := time.Parse("2006-01-02T15:04:05.000Z", timeStr)
	if err == nil {
		return t, nil
	}

	t, err = time.Parse(time.RFC3339Nano, timeStr)
	if err == nil {
		return t, nil
	}

	return time.Time{}, errValidationFailed(fmt.Sprintf("item at index %d: invalid time format: %s", index, timeStr), nil)
}
