package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"sync"
	"sync/atomic"
	"time"
)

// ### Start - fixed configs (no change)
// These values define deterministic test data and must match expected results.
const (
	usersCount        = 8  // Distinct ocserv accounts
	sessionsPerUser   = 50 // Completed sessions per account
	sessionsPerBatch  = 10 // Events per POST /sessions request (connect + disconnect pairs count as 2)
	bytesInPerSession = 1_000_000
	bytesOutPerUnit   = 250_000
	durationPerUnit   = 30
)

// ### End - fixed configs

type sessionEvent struct {
	Username        string `json:"username"`
	EventKind       string `json:"eventKind"`
	IPReal          string `json:"ipReal,omitempty"`
	IPRemote        string `json:"ipRemote,omitempty"`
	BytesIn         string `json:"bytesIn,omitempty"`
	BytesOut        string `json:"bytesOut,omitempty"`
	DurationSeconds string `json:"durationSeconds,omitempty"`
	Reason          string `json:"reason,omitempty"`
}

type batchToSend struct {
	key        string
	jsonData   []byte
	isOriginal bool
}

type reportTotals struct {
	OutgoingBytes        int64 `json:"outgoingBytes"`
	IncomingBytes        int64 `json:"incomingBytes"`
	ConnectionCount      int64 `json:"connectionCount"`
	TotalDurationSeconds int64 `json:"totalDurationSeconds"`
}

type reportResponse struct {
	WindowKind string       `json:"windowKind"`
	Totals     reportTotals `json:"totals"`
	Rows       []struct {
		Username        string `json:"username"`
		ConnectionCount int64  `json:"connectionCount"`
	} `json:"rows"`
}

// main runs the e2e scenario: 001_push_daily_totals
//
// It pushes connect/disconnect events for several accounts to a server
// running with source.backend=push, resends a share of the batches under the
// same idempotency key, waits for the collect job and then compares the open
// daily report with totals computed locally.
//
// What it tests:
//   - Session ingestion via POST /sessions
//   - Idempotency key handling for duplicate batches (409 on resend)
//   - Username normalisation at the separator (alice_phone and alice_laptop are one account)
//   - Collect job draining the queue into the daily accumulators
//   - GET /reports/daily reflecting exactly one count per disconnect
//
// Expected results:
//   - Every original batch is accepted (202) and every duplicate conflicts (409)
//   - The daily report has usersCount/2 rows, since device suffixes are stripped
//   - Totals equal the sums of the disconnect events sent, duplicates excluded
func main() {
	// these configs can be changed to run the scenario
	baseURL := getEnv("BASE_URL", "http://localhost:8080")
	parallel := getEnvInt("PARALLEL", 2)
	duplicateEvery := getEnvInt("DUPLICATE_EVERY", 3) // resend every Nth batch
	collectWait := time.Duration(getEnvInt("COLLECT_WAIT_SECONDS", 5)) * time.Second

	fmt.Println("Starting e2e scenario: 001_push_daily_totals")
	fmt.Printf("BASE_URL: %s\n", baseURL)
	fmt.Printf("USERS: %d, SESSIONS_PER_USER: %d\n", usersCount, sessionsPerUser)
	fmt.Printf("PARALLEL: %d, DUPLICATE_EVERY: %d\n", parallel, duplicateEvery)
	fmt.Println()

	events, want := generateEvents()
	batches, err := generateBatches(events, duplicateEvery)
	if err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: Failed to generate batches: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Generated %d events in %d batches\n", len(events), len(batches))

	workerChan := make(chan struct{}, parallel)
	var wg sync.WaitGroup
	var failed, accepted, conflicted, unexpected int64

	// Originals go first so every duplicate is a true resend.
	for _, originals := range []bool{true, false} {
		for _, batch := range batches {
			if batch.isOriginal != originals {
				continue
			}
			wg.Add(1)
			workerChan <- struct{}{}

			go func(b batchToSend) {
				defer wg.Done()
				defer func() { <-workerChan }()

				statusCode, err := sendBatch(baseURL, b)
				if err != nil {
					atomic.AddInt64(&failed, 1)
					fmt.Fprintf(os.Stderr, "ERROR: %s failed: %v\n", b.key, err)
					return
				}
				switch {
				case statusCode == http.StatusAccepted && b.isOriginal:
					atomic.AddInt64(&accepted, 1)
				case statusCode == http.StatusConflict && !b.isOriginal:
					atomic.AddInt64(&conflicted, 1)
				default:
					atomic.AddInt64(&unexpected, 1)
					fmt.Fprintf(os.Stderr, "ERROR: %s (original=%v) got status %d\n", b.key, b.isOriginal, statusCode)
				}
			}(batch)
		}
		wg.Wait()
	}

	fmt.Println("=== Ingestion ===")
	fmt.Printf("Accepted: %d\n", accepted)
	fmt.Printf("Conflicted: %d\n", conflicted)
	fmt.Printf("Unexpected: %d\n", unexpected)
	if failed > 0 || unexpected > 0 {
		os.Exit(1)
	}

	fmt.Printf("Waiting %s for the collect job...\n", collectWait)
	time.Sleep(collectWait)

	report, err := fetchDailyReport(baseURL)
	if err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: Failed to fetch report: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("=== Daily report ===")
	fmt.Printf("Rows: %d (want %d)\n", len(report.Rows), usersCount/2)
	fmt.Printf("Totals: %+v\n", report.Totals)
	fmt.Printf("Want:   %+v\n", want)

	if len(report.Rows) != usersCount/2 || report.Totals != want {
		fmt.Fprintln(os.Stderr, "ERROR: daily report does not match what was sent")
		fmt.Fprintln(os.Stderr, "Note: the server must have started today and run with an empty daily window")
		os.Exit(1)
	}
	fmt.Println("Scenario completed successfully")
}

// generateEvents pairs every session's connect with its disconnect. Two
// device suffixes share each account.
func generateEvents() ([]sessionEvent, reportTotals) {
	var events []sessionEvent
	var want reportTotals

	for u := 0; u < usersCount; u++ {
		account := fmt.Sprintf("user%02d", u/2)
		device := []string{"phone", "laptop"}[u%2]
		username := account + "_" + device
		for s := 0; s < sessionsPerUser; s++ {
			ip := fmt.Sprintf("198.51.100.%d", 1+(u*7+s)%200)
			units := int64(1 + (u+s)%5)
			bytesOut := units * bytesOutPerUnit
			duration := units * durationPerUnit

			events = append(events,
				sessionEvent{Username: username, EventKind: "connect", IPReal: ip, IPRemote: "10.10.0.2"},
				sessionEvent{
					Username:        username,
					EventKind:       "disconnect",
					IPReal:          ip,
					IPRemote:        "10.10.0.2",
					BytesIn:         fmt.Sprint(bytesInPerSession),
					BytesOut:        fmt.Sprint(bytesOut),
					DurationSeconds: fmt.Sprint(duration),
					Reason:          "user disconnected",
				},
			)

			want.IncomingBytes += bytesInPerSession
			want.OutgoingBytes += bytesOut
			want.TotalDurationSeconds += duration
			want.ConnectionCount++
		}
	}
	return events, want
}

func generateBatches(events []sessionEvent, duplicateEvery int) ([]batchToSend, error) {
	var batches []batchToSend
	for i, n := 0, 1; i < len(events); i, n = i+sessionsPerBatch, n+1 {
		end := min(i+sessionsPerBatch, len(events))
		data, err := json.Marshal(events[i:end])
		if err != nil {
			return nil, err
		}
		key := fmt.Sprintf("sessions-%06d", n)
		batches = append(batches, batchToSend{key: key, jsonData: data, isOriginal: true})
		if duplicateEvery > 0 && n%duplicateEvery == 0 {
			batches = append(batches, batchToSend{key: key, jsonData: data})
		}
	}
	return batches, nil
}

func sendBatch(baseURL string, batch batchToSend) (int, error) {
	req, err := http.NewRequest(http.MethodPost, baseURL+"/sessions", bytes.NewReader(batch.jsonData))
	if err != nil {
		return 0, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("idempotency-key", batch.key)

	client := &http.Client{Timeout: 30 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	return resp.StatusCode, nil
}

func fetchDailyReport(baseURL string) (*reportResponse, error) {
	client := &http.Client{Timeout: 30 * time.Second}
	resp, err := client.Get(baseURL + "/reports/daily")
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("status %d: %s", resp.StatusCode, body)
	}
	var report reportResponse
	if err := json.NewDecoder(resp.Body).Decode(&report); err != nil {
		return nil, err
	}
	return &report, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		var n int
		if _, err := fmt.Sscan(value, &n); err == nil {
			return n
		}
	}
	return defaultValue
}
