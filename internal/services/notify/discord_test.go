package notify

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ternarybob/gapscan/internal/common"
)

func TestDiscordSink_SendPostsWebhook(t *testing.T) {
	var got webhookPayload
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		require.NoError(t, json.Unmarshal(body, &got))
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	s := NewDiscordSink(server.URL, "gapscan", true, 0, common.GetLogger())

	err := s.Send(context.Background(), "GNP", "Contract Win\n*2026-08-28 10:32*")
	require.NoError(t, err)
	assert.Equal(t, "**GNP**: Contract Win\n*2026-08-28 10:32*", got.Content)
	assert.Equal(t, "gapscan", got.Username)
}

func TestDiscordSink_DisabledIsNoop(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
	}))
	defer server.Close()

	s := NewDiscordSink(server.URL, "gapscan", false, 0, common.GetLogger())

	err := s.Send(context.Background(), "GNP", "Contract Win")
	require.NoError(t, err)
	assert.Equal(t, int32(0), atomic.LoadInt32(&calls))
}

func TestDiscordSink_ErrorStatusReturned(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	s := NewDiscordSink(server.URL, "gapscan", true, 0, common.GetLogger())

	err := s.Send(context.Background(), "GNP", "Contract Win")
	assert.Error(t, err)
}

func TestDiscordSink_RateLimitSpacesSends(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	interval := 50 * time.Millisecond
	s := NewDiscordSink(server.URL, "gapscan", true, interval, common.GetLogger())

	start := time.Now()
	require.NoError(t, s.Send(context.Background(), "A", "first"))
	require.NoError(t, s.Send(context.Background(), "B", "second"))
	elapsed := time.Since(start)

	assert.GreaterOrEqual(t, elapsed, interval)
}
