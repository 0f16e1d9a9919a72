package sources

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"ocstat/internal/models"
	"ocstat/internal/shared/ulid"
)

// HTTPSessionWriter pushes records to a running server's POST /sessions.
type HTTPSessionWriter struct {
	client   *http.Client
	endpoint string
}

func NewHTTPSessionWriter(baseURL string, timeout time.Duration) *HTTPSessionWriter {
	return &HTTPSessionWriter{
		client:   &http.Client{Timeout: timeout},
		endpoint: strings.TrimRight(baseURL, "/") + "/sessions",
	}
}

func (w *HTTPSessionWriter) Write(ctx context.Context, record models.SessionRecord) error {
	body, err := json.Marshal([]models.SessionRecord{record})
	if err != nil {
		return fmt.Errorf("failed to marshal session record: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Idempotency-Key", ulid.NewULID())

	resp, err := w.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to push session record: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("push rejected with status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}
	return nil
}
