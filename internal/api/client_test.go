package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/boom-astro/babamul/internal/config"
	"github.com/boom-astro/babamul/internal/domain"
)

func TestRequest_RequiresToken(t *testing.T) {
	var hits atomic.Int32
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
	}), WithToken(""))

	_, err := client.Request(context.Background(), http.MethodGet, "/babamul/profile", nil, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrAuthentication)

	var apiErr *domain.APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusUnauthorized, apiErr.StatusCode)
	assert.Contains(t, apiErr.Message, "authentication required")
	assert.Zero(t, hits.Load())
}

func TestRequest_SendsBearerAndJSON(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.Equal(t, "v", r.URL.Query().Get("k"))

		var body map[string]any
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "x", body["name"])

		writeJSON(w, http.StatusOK, map[string]any{"big": 2000000000000000001})
	}))

	out, err := client.Request(context.Background(), http.MethodPost, "/echo", map[string][]string{"k": {"v"}}, map[string]string{"name": "x"})
	require.NoError(t, err)

	m, ok := out.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, json.Number("2000000000000000001"), m["big"])
}

func TestRequest_ErrorMapping(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		kind    error
		message string
	}{
		{"unauthorized", http.StatusUnauthorized, `{"message":"bad token"}`, domain.ErrAuthentication, "bad token"},
		{"not found", http.StatusNotFound, `{"message":"no such object"}`, domain.ErrNotFound, "no such object"},
		{"message field", http.StatusBadRequest, `{"message":"radius too large"}`, domain.ErrAPI, "radius too large"},
		{"detail field", http.StatusUnprocessableEntity, `{"detail":"field required"}`, domain.ErrAPI, "field required"},
		{"raw text", http.StatusForbidden, "forbidden here", domain.ErrAPI, "forbidden here"},
		{"empty body", http.StatusConflict, "", domain.ErrAPI, "Conflict"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var hits atomic.Int32
			client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				hits.Add(1)
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))

			_, err := client.Request(context.Background(), http.MethodGet, "/babamul/thing", nil, nil)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.kind)

			var apiErr *domain.APIError
			require.True(t, errors.As(err, &apiErr))
			assert.Equal(t, tt.status, apiErr.StatusCode)
			assert.Equal(t, tt.message, apiErr.Message)
			assert.Equal(t, "/babamul/thing", apiErr.Path)
			assert.Equal(t, int32(1), hits.Load(), "client errors are not retried")
		})
	}
}

func TestRequest_RetriesServerErrors(t *testing.T) {
	var attempts atomic.Int32
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch attempts.Add(1) {
		case 1:
			w.WriteHeader(http.StatusServiceUnavailable)
		case 2:
			w.WriteHeader(http.StatusTooManyRequests)
		default:
			writeJSON(w, http.StatusOK, map[string]any{"ok": true})
		}
	}))

	out, err := client.Request(context.Background(), http.MethodGet, "/flaky", nil, nil)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"ok": true}, out)
	assert.Equal(t, int32(3), attempts.Load())
}

func TestRequest_MaxRetriesExceeded(t *testing.T) {
	var attempts atomic.Int32
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts.Add(1)
		writeJSON(w, http.StatusBadGateway, map[string]any{"message": "upstream down"})
	}), WithMaxRetries(2))

	_, err := client.Request(context.Background(), http.MethodGet, "/down", nil, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrAPI)
	assert.Contains(t, err.Error(), "upstream down")
	assert.Equal(t, int32(3), attempts.Load())
}

func TestRequest_ConnectionError(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	url := server.URL
	server.Close()

	client := NewClient(url, WithToken("t"), WithMaxRetries(0))
	_, err := client.Request(context.Background(), http.MethodGet, "/x", nil, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrConnection)
}

func TestRequest_InvalidJSON(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("{not json"))
	}))

	_, err := client.Request(context.Background(), http.MethodGet, "/broken", nil, nil)
	assert.ErrorIs(t, err, domain.ErrDeserialization)
}

func TestRequest_ContextCancelledDuringBackoff(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}), WithRetryDelay(time.Hour), WithMaxDelay(time.Hour))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := client.Request(ctx, http.MethodGet, "/slow", nil, nil)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestNew_ValidatesConfig(t *testing.T) {
	_, err := New(config.APIConfig{BaseURL: "::bad"})
	assert.ErrorIs(t, err, domain.ErrConfiguration)

	client, err := New(config.APIConfig{BaseURL: "https://example.org/api/", Token: "tok", Timeout: time.Second})
	require.NoError(t, err)
	assert.Equal(t, "https://example.org/api", client.BaseURL())
	assert.Equal(t, "tok", client.Token())
}
