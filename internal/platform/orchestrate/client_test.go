package orchestrate_test

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lumenvoice/feedback-api/internal/capability"
	"github.com/lumenvoice/feedback-api/internal/config"
	"github.com/lumenvoice/feedback-api/internal/platform/orchestrate"
)

func newTestClient(t *testing.T, serverURL string) *orchestrate.Client {
	t.Helper()

	client, err := orchestrate.NewClient(config.AutomationConfig{
		BaseURL: serverURL,
		APIKey:  "test-key",
		Timeout: 5 * time.Second,
	}, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)

	return client
}

func TestNewClient(t *testing.T) {
	t.Parallel()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	t.Run("missing base URL", func(t *testing.T) {
		t.Parallel()

		_, err := orchestrate.NewClient(config.AutomationConfig{APIKey: "key"}, logger)
		assert.ErrorIs(t, err, capability.ErrInvalidConfig)
	})

	t.Run("missing API key", func(t *testing.T) {
		t.Parallel()

		_, err := orchestrate.NewClient(config.AutomationConfig{BaseURL: "http://localhost"}, logger)
		assert.ErrorIs(t, err, capability.ErrInvalidConfig)
	})

	t.Run("nil logger", func(t *testing.T) {
		t.Parallel()

		_, err := orchestrate.NewClient(config.AutomationConfig{
			BaseURL: "http://localhost",
			APIKey:  "key",
		}, nil)
		assert.Error(t, err)
	})
}

func TestDispatch(t *testing.T) {
	t.Parallel()

	t.Run("accepted run with run_id reference", func(t *testing.T) {
		t.Parallel()

		var gotPath, gotAuth string
		var gotBody map[string]any
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotPath = r.URL.Path
			gotAuth = r.Header.Get("Authorization")
			require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))

			w.WriteHeader(http.StatusAccepted)
			_, _ = w.Write([]byte(`{"run_id":"run-42","status":"submitted"}`))
		}))
		defer server.Close()

		payload := json.RawMessage(`{"ticket_type":"customer_feedback"}`)
		result, err := newTestClient(t, server.URL).Dispatch(
			context.Background(), "create_support_ticket", payload)
		require.NoError(t, err)

		assert.Equal(t, "/v1/skills/create_support_ticket/run", gotPath)
		assert.Equal(t, "Bearer test-key", gotAuth)
		assert.Equal(t, "customer_feedback", gotBody["ticket_type"])

		assert.True(t, result.Success)
		assert.Equal(t, "run-42", result.ExternalRef)
		assert.JSONEq(t, `{"run_id":"run-42","status":"submitted"}`, string(result.Response))
	})

	t.Run("falls back to id when run_id absent", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(`{"id":"wf-7"}`))
		}))
		defer server.Close()

		result, err := newTestClient(t, server.URL).Dispatch(
			context.Background(), "send_alert_notification", json.RawMessage(`{}`))
		require.NoError(t, err)

		assert.True(t, result.Success)
		assert.Equal(t, "wf-7", result.ExternalRef)
	})

	t.Run("upstream rejection is not an error", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusUnprocessableEntity)
			_, _ = w.Write([]byte(`{"detail":"unknown skill"}`))
		}))
		defer server.Close()

		result, err := newTestClient(t, server.URL).Dispatch(
			context.Background(), "create_support_ticket", json.RawMessage(`{}`))
		require.NoError(t, err)

		assert.False(t, result.Success)
		assert.Equal(t, "API error: 422", result.Error)
		assert.JSONEq(t, `{"detail":"unknown skill"}`, string(result.Response))
	})

	t.Run("transport failure is unavailable", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
		server.Close()

		_, err := newTestClient(t, server.URL).Dispatch(
			context.Background(), "create_support_ticket", json.RawMessage(`{}`))
		assert.ErrorIs(t, err, capability.ErrUnavailable)
	})

	t.Run("malformed accepted body", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(`not json`))
		}))
		defer server.Close()

		_, err := newTestClient(t, server.URL).Dispatch(
			context.Background(), "create_support_ticket", json.RawMessage(`{}`))
		assert.ErrorIs(t, err, capability.ErrInvalidResponse)
	})

	t.Run("empty skill ID", func(t *testing.T) {
		t.Parallel()

		_, err := newTestClient(t, "http://localhost:0").Dispatch(
			context.Background(), "", json.RawMessage(`{}`))
		assert.Error(t, err)
	})
}
