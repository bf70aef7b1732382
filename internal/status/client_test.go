package status

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sawtfeel/livesync/internal/domain"
	"github.com/sawtfeel/livesync/internal/errors"
)

func newTestClient(baseURL string) *Client {
	c := NewClient(baseURL, clockwork.NewRealClock())
	c.retryOpts.BaseDelay = time.Millisecond
	c.retryOpts.MaxDelay = 5 * time.Millisecond
	return c
}

func TestClient_FetchStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/files/file-1/status", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"processing","progress":0.4}`))
	}))
	defer server.Close()

	got, err := newTestClient(server.URL).FetchStatus(context.Background(), "file-1")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusProcessing, got.Status)
	assert.InDelta(t, 0.4, got.Progress, 1e-9)
	assert.False(t, got.Terminal())
}

func TestClient_RetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			http.Error(w, "boom", http.StatusInternalServerError)
			return
		}
		w.Write([]byte(`{"status":"completed","progress":1}`))
	}))
	defer server.Close()

	got, err := newTestClient(server.URL).FetchStatus(context.Background(), "file-1")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCompleted, got.Status)
	assert.True(t, got.Terminal())
	assert.Equal(t, int32(2), calls.Load())
}

func TestClient_NotFoundIsNotRetried(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, "unknown file", http.StatusNotFound)
	}))
	defer server.Close()

	_, err := newTestClient(server.URL).FetchStatus(context.Background(), "file-404")
	require.Error(t, err)
	assert.Equal(t, int32(1), calls.Load())

	statusErr, ok := errors.As(err)
	require.True(t, ok)
	assert.Equal(t, http.StatusNotFound, statusErr.StatusCode)
}

func TestClient_ConnectionRefusedIsExhaustedAfterRetries(t *testing.T) {
	client := newTestClient("http://127.0.0.1:1")

	_, err := client.FetchStatus(context.Background(), "file-1")
	require.Error(t, err)
	assert.True(t, errors.IsKind(err, errors.KindExhaustion))
}

func TestClient_MalformedBodyIsAProtocolError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status":`))
	}))
	defer server.Close()

	_, err := newTestClient(server.URL).FetchStatus(context.Background(), "file-1")
	require.Error(t, err)
	assert.True(t, errors.IsKind(err, errors.KindProtocol))
}

func TestClient_FailedStatusCarriesTheBackendError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status":"failed","progress":0.7,"error":"ffmpeg exited 1"}`))
	}))
	defer server.Close()

	got, err := newTestClient(server.URL).FetchStatus(context.Background(), "file-1")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusFailed, got.Status)
	assert.Equal(t, "ffmpeg exited 1", got.Error)
	assert.True(t, got.Terminal())
}
