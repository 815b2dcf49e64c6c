package notify

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fastWebhookService() *WebhookService {
	w := NewWebhookService()
	w.BaseDelay = time.Millisecond
	return w
}

func TestWebhookSendSignsPayload(t *testing.T) {
	var gotSignature string
	var gotBody []byte
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotSignature = r.Header.Get("X-Qarote-Signature")
		gotBody, _ = io.ReadAll(r.Body)
	}))
	defer srv.Close()

	svc := fastWebhookService()
	result := svc.Send(context.Background(), srv.URL, "s3cret", makeAlerts(2), "acme", "rabbit-1")

	require.True(t, result.Success)
	assert.Equal(t, Sign("s3cret", gotBody), gotSignature)

	var payload map[string]interface{}
	require.NoError(t, json.Unmarshal(gotBody, &payload))
	assert.Equal(t, "alerts.triggered", payload["event"])
	assert.Equal(t, "acme", payload["workspace"])
	assert.Equal(t, "rabbit-1", payload["server"])
	assert.Len(t, payload["alerts"], 2)
}

func TestWebhookSendSkipsSignatureWithoutSecret(t *testing.T) {
	var gotSignature string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotSignature = r.Header.Get("X-Qarote-Signature")
	}))
	defer srv.Close()

	svc := fastWebhookService()
	result := svc.Send(context.Background(), srv.URL, "", makeAlerts(1), "acme", "rabbit-1")

	require.True(t, result.Success)
	assert.Empty(t, gotSignature)
}

func TestWebhookAnyTwoxxIsSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	svc := fastWebhookService()
	result := svc.Send(context.Background(), srv.URL, "", makeAlerts(1), "acme", "rabbit-1")

	assert.True(t, result.Success)
	assert.Equal(t, http.StatusNoContent, result.StatusCode)
}

func TestWebhookNetworkErrorIsFailureAfterRetries(t *testing.T) {
	svc := fastWebhookService()
	// Nothing listens on this port
	result := svc.Send(context.Background(), "http://127.0.0.1:1", "", makeAlerts(1), "acme", "rabbit-1")

	assert.False(t, result.Success)
	assert.Equal(t, 0, result.StatusCode)
	assert.Equal(t, svc.MaxRetries, result.Retries)
	assert.NotEmpty(t, result.Error)
}
