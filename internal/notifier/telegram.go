package notifier

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/amishk599/jobradar/internal/model"
)

// DefaultTelegramAPI is the public Bot API host.
const DefaultTelegramAPI = "https://api.telegram.org"

// Ensure TelegramSender implements model.Sender.
var _ model.Sender = (*TelegramSender)(nil)

// TelegramSender delivers messages through the Telegram Bot API sendMessage method.
type TelegramSender struct {
	endpoint   string
	httpClient *http.Client
	limiter    *rate.Limiter
	logger     *slog.Logger
}

// NewTelegramSender returns a sender for the bot identified by token. Sends are
// paced to ratePerSecond; zero or less disables pacing.
func NewTelegramSender(apiURL, token string, ratePerSecond float64, httpClient *http.Client, logger *slog.Logger) *TelegramSender {
	if apiURL == "" {
		apiURL = DefaultTelegramAPI
	}
	limit := rate.Inf
	if ratePerSecond > 0 {
		limit = rate.Limit(ratePerSecond)
	}
	return &TelegramSender{
		endpoint:   strings.TrimRight(apiURL, "/") + "/bot" + token + "/sendMessage",
		httpClient: httpClient,
		limiter:    rate.NewLimiter(limit, 1),
		logger:     logger,
	}
}

type telegramMessage struct {
	ChatID    int64  `json:"chat_id"`
	Text      string `json:"text"`
	ParseMode string `json:"parse_mode"`
}

type telegramResponse struct {
	OK          bool   `json:"ok"`
	ErrorCode   int    `json:"error_code"`
	Description string `json:"description"`
	Parameters  struct {
		RetryAfter int `json:"retry_after"`
	} `json:"parameters"`
}

// Send posts text to chatID. A 429 is retried once after the advertised delay.
func (s *TelegramSender) Send(ctx context.Context, chatID int64, text string) error {
	body, err := json.Marshal(telegramMessage{ChatID: chatID, Text: text, ParseMode: "HTML"})
	if err != nil {
		return fmt.Errorf("%w: marshal telegram payload: %w", model.ErrDeliveryFailure, err)
	}

	retryAfter, err := s.post(ctx, body)
	if err == nil {
		return nil
	}
	if retryAfter <= 0 {
		return fmt.Errorf("%w: chat %d: %w", model.ErrDeliveryFailure, chatID, err)
	}

	s.logger.Warn("telegram rate limited, retrying", "chat_id", chatID, "retry_after", retryAfter)
	timer := time.NewTimer(retryAfter)
	select {
	case <-ctx.Done():
		timer.Stop()
		return fmt.Errorf("%w: chat %d: %w", model.ErrDeliveryFailure, chatID, ctx.Err())
	case <-timer.C:
	}

	if _, err := s.post(ctx, body); err != nil {
		return fmt.Errorf("%w: chat %d (retry): %w", model.ErrDeliveryFailure, chatID, err)
	}
	return nil
}

// post sends one request. On 429 it returns the delay to wait before retrying.
func (s *TelegramSender) post(ctx context.Context, body []byte) (time.Duration, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return 0, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, bytes.NewReader(body))
	if err != nil {
		return 0, errors.New("building telegram request")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		// The request URL carries the bot token; keep it out of logs.
		var urlErr *url.Error
		if errors.As(err, &urlErr) {
			err = urlErr.Err
		}
		return 0, fmt.Errorf("post to telegram: %w", err)
	}
	defer resp.Body.Close()

	var tr telegramResponse
	data, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	_ = json.Unmarshal(data, &tr)

	if resp.StatusCode == http.StatusTooManyRequests {
		secs := tr.Parameters.RetryAfter
		if secs <= 0 {
			secs, _ = strconv.Atoi(resp.Header.Get("Retry-After"))
		}
		if secs <= 0 {
			secs = 1
		}
		return time.Duration(secs) * time.Second, errors.New("telegram returned 429")
	}

	if resp.StatusCode != http.StatusOK || !tr.OK {
		if tr.Description != "" {
			return 0, fmt.Errorf("telegram returned %d: %s", resp.StatusCode, tr.Description)
		}
		return 0, fmt.Errorf("telegram returned %d", resp.StatusCode)
	}
	return 0, nil
}
