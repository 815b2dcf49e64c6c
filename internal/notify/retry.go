package notify

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"
)

const (
	defaultTimeout    = 10 * time.Second
	defaultMaxRetries = 3
	defaultBaseDelay  = 1000 * time.Millisecond
)

// SendResult is the outcome of one delivery, including how many retries
// were spent on it. StatusCode is 0 when no HTTP response was received.
type SendResult struct {
	Success    bool   `json:"success"`
	StatusCode int    `json:"status_code,omitempty"`
	Error      string `json:"error,omitempty"`
	Retries    int    `json:"retries"`
}

// httpSender posts JSON payloads with bounded exponential-backoff retry.
// 5xx, 429 and transport errors are retryable; any other non-2xx status is
// terminal. Each attempt is bounded by Timeout. Delay before retry n is
// BaseDelay * 2^(n-1), so attempts run at 0s, 1s, 2s, 4s with the defaults.
type httpSender struct {
	Client     *http.Client
	Timeout    time.Duration
	MaxRetries int
	BaseDelay  time.Duration
}

func newHTTPSender() httpSender {
	return httpSender{
		Client:     &http.Client{},
		Timeout:    defaultTimeout,
		MaxRetries: defaultMaxRetries,
		BaseDelay:  defaultBaseDelay,
	}
}

func (s *httpSender) post(ctx context.Context, url string, headers map[string]string, payload []byte, wantOKBody bool) SendResult {
	for attempt := 0; ; attempt++ {
		result, retryable := s.attempt(ctx, url, headers, payload, wantOKBody)
		result.Retries = attempt

		if result.Success || !retryable || attempt >= s.MaxRetries {
			return result
		}

		delay := s.BaseDelay * (1 << attempt)
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			result.Error = fmt.Sprintf("delivery canceled: %v", ctx.Err())
			return result
		}
	}
}

func (s *httpSender) attempt(ctx context.Context, url string, headers map[string]string, payload []byte, wantOKBody bool) (SendResult, bool) {
	reqCtx, cancel := context.WithTimeout(ctx, s.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return SendResult{Error: fmt.Sprintf("failed to create request: %v", err)}, false
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := s.Client.Do(req)
	if err != nil {
		// Timeout, DNS failure, connection reset -- all retryable
		return SendResult{Error: fmt.Sprintf("request failed: %v", err)}, true
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	code := resp.StatusCode

	if code >= 200 && code < 300 {
		if wantOKBody && strings.TrimSpace(string(body)) != "ok" {
			// Slack sometimes varies the body slightly; treat as success
			log.Printf("Warning: webhook returned %d with unexpected body %q", code, string(body))
		}
		return SendResult{Success: true, StatusCode: code}, false
	}

	result := SendResult{
		StatusCode: code,
		Error:      fmt.Sprintf("webhook returned status %d", code),
	}
	if code == http.StatusTooManyRequests || code >= 500 {
		return result, true
	}
	return result, false
}
