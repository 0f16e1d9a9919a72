package notifiers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"
	"time"

	"ocstat/internal/models"
	"ocstat/internal/shared/metrics"
)

const (
	methodSendPhoto   = "sendPhoto"
	methodSendMessage = "sendMessage"

	defaultTelegramTimeout = 30 * time.Second
)

type TelegramOptions struct {
	BotToken   string
	ChatID     string
	APIBaseURL string
	Timeout    time.Duration
}

type apiResponse struct {
	OK          bool   `json:"ok"`
	ErrorCode   int    `json:"error_code,omitempty"`
	Description string `json:"description,omitempty"`
	Parameters  *struct {
		RetryAfter int `json:"retry_after,omitempty"`
	} `json:"parameters,omitempty"`
}

type telegramNotifier struct {
	httpClient *http.Client
	baseURL    string
	chatID     string
}

// NewTelegramNotifier sends through the Bot API. Messages are posted silently
// so per-connection notices do not ping the chat.
func NewTelegramNotifier(opts TelegramOptions) (Notifier, error) {
	if opts.BotToken == "" {
		return nil, errors.New("telegram bot token is required")
	}
	if opts.ChatID == "" {
		return nil, errors.New("telegram chat id is required")
	}
	if opts.Timeout <= 0 {
		opts.Timeout = defaultTelegramTimeout
	}
	base := strings.TrimRight(opts.APIBaseURL, "/")
	if base == "" {
		base = "https://api.telegram.org"
	}

	return &telegramNotifier{
		httpClient: &http.Client{Timeout: opts.Timeout},
		baseURL:    fmt.Sprintf("%s/bot%s", base, opts.BotToken),
		chatID:     opts.ChatID,
	}, nil
}

func (n *telegramNotifier) SendPhoto(ctx context.Context, image *models.ImageBlob, caption string) error {
	if image == nil || len(image.Data) == 0 {
		return ErrEmptyImage
	}

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	if err := mw.WriteField("chat_id", n.chatID); err != nil {
		return fmt.Errorf("failed to write chat_id: %w", err)
	}
	if caption != "" {
		if err := mw.WriteField("caption", caption); err != nil {
			return fmt.Errorf("failed to write caption: %w", err)
		}
	}
	filename := image.Filename
	if filename == "" {
		filename = "report.png"
	}
	part, err := mw.CreateFormFile("photo", filename)
	if err != nil {
		return fmt.Errorf("failed to create photo part: %w", err)
	}
	if _, err := part.Write(image.Data); err != nil {
		return fmt.Errorf("failed to write photo: %w", err)
	}
	if err := mw.Close(); err != nil {
		return fmt.Errorf("failed to close multipart body: %w", err)
	}

	return n.post(ctx, methodSendPhoto, mw.FormDataContentType(), &body)
}

func (n *telegramNotifier) SendMessage(ctx context.Context, text string) error {
	if text == "" {
		return nil
	}
	payload, err := json.Marshal(map[string]any{
		"chat_id":              n.chatID,
		"text":                 text,
		"parse_mode":           "Markdown",
		"disable_notification": true,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal request body: %w", err)
	}
	return n.post(ctx, methodSendMessage, "application/json", bytes.NewReader(payload))
}

func (n *telegramNotifier) post(ctx context.Context, method, contentType string, body io.Reader) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.baseURL+"/"+method, body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)

	resp, err := n.httpClient.Do(req)
	if err != nil {
		metricNotifierSendsTotal.WithLabelValues(method, "transport").Inc()
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	var result apiResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		metricNotifierSendsTotal.WithLabelValues(method, strconv.Itoa(resp.StatusCode)).Inc()
		return fmt.Errorf("failed to decode response (status %d): %w", resp.StatusCode, err)
	}

	if !result.OK {
		apiErr := &APIError{ErrorCode: result.ErrorCode, Description: result.Description}
		if apiErr.ErrorCode == 0 {
			apiErr.ErrorCode = resp.StatusCode
		}
		if result.Parameters != nil {
			apiErr.RetryAfter = result.Parameters.RetryAfter
		}
		metricNotifierSendsTotal.WithLabelValues(method, strconv.Itoa(apiErr.ErrorCode)).Inc()
		return apiErr
	}

	metricNotifierSendsTotal.WithLabelValues(method, metrics.ValueNoError).Inc()
	return nil
}
