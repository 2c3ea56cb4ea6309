package summarize

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fsdrift/internal/drift"
)

func newTestClient(url, key string) *Client {
	return NewClient(key, Options{
		Endpoint:  url,
		Model:     "gpt-4o-mini",
		MaxTokens: 200,
		Timeout:   5 * time.Second,
		Prompt:    "Summarize: ",
	}, drift.NewNopLogger())
}

func TestClient_Summarize(t *testing.T) {
	t.Parallel()

	var got chatRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "Bearer sk-test-123456", r.Header.Get("Authorization"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"  Short version.  "},"finish_reason":"stop"}],"usage":{"total_tokens":42}}`))
	}))
	defer srv.Close()

	summary, err := newTestClient(srv.URL, "sk-test-123456").Summarize(context.Background(), "long text")
	require.NoError(t, err)
	assert.Equal(t, "Short version.", summary)

	assert.Equal(t, "gpt-4o-mini", got.Model)
	assert.Equal(t, 200, got.MaxTokens)
	require.Len(t, got.Messages, 1)
	assert.Equal(t, "user", got.Messages[0].Role)
	assert.Equal(t, "Summarize: long text", got.Messages[0].Content)
}

func TestClient_Errors(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantErr error
	}{
		{name: "unauthorized", status: http.StatusUnauthorized, body: `{"error":"bad key"}`, wantErr: drift.ErrSummarizerStatus},
		{name: "server error", status: http.StatusInternalServerError, body: "boom", wantErr: drift.ErrSummarizerStatus},
		{name: "malformed body", status: http.StatusOK, body: "not json", wantErr: drift.ErrMalformedResponse},
		{name: "no choices", status: http.StatusOK, body: `{"choices":[]}`, wantErr: drift.ErrEmptyResult},
		{name: "blank content", status: http.StatusOK, body: `{"choices":[{"message":{"content":"   "}}]}`, wantErr: drift.ErrEmptyResult},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			_, err := newTestClient(srv.URL, "key").Summarize(context.Background(), "text")
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.wantErr), "error = %v, want %v", err, tt.wantErr)
			assert.True(t, errors.Is(err, drift.ErrSummarization))

			if tt.wantErr == drift.ErrSummarizerStatus {
				var statusErr *drift.StatusError
				require.True(t, errors.As(err, &statusErr))
				assert.Equal(t, tt.status, statusErr.StatusCode)
				assert.Equal(t, tt.body, statusErr.Body)
			}
		})
	}
}

func TestClient_MissingCredential(t *testing.T) {
	t.Parallel()

	called := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL, "").Summarize(context.Background(), "text")
	assert.ErrorIs(t, err, drift.ErrMissingCredential)
	assert.False(t, called, "no request should be sent without a key")
}

func TestClient_NetworkError(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	_, err := newTestClient(url, "key").Summarize(context.Background(), "text")
	assert.ErrorIs(t, err, drift.ErrSummarizerNetwork)
}

func TestClient_Timeout(t *testing.T) {
	t.Parallel()

	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	c := NewClient("key", Options{Endpoint: srv.URL, Timeout: 50 * time.Millisecond}, drift.NewNopLogger())
	_, err := c.Summarize(context.Background(), "text")
	assert.ErrorIs(t, err, drift.ErrSummarizerNetwork)
}

func TestMaskKey(t *testing.T) {
	assert.Equal(t, "(not set)", MaskKey(""))
	assert.Equal(t, "sk-abcde...", MaskKey("sk-abcdefghijkl"))
	assert.Equal(t, "short...", MaskKey("short"))
	assert.False(t, strings.Contains(MaskKey("sk-abcdefghijkl"), "ghijkl"))
}
