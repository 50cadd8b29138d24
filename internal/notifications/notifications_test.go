package notifications

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thatsimonsguy/sprinkler-controller/internal/config"
	"github.com/thatsimonsguy/sprinkler-controller/internal/env"
)

func withConfig(t *testing.T, cfg *config.Config) {
	t.Helper()
	prev := env.Cfg
	env.Cfg = cfg
	t.Cleanup(func() {
		env.Cfg = prev
		initialized = false
	})
}

func TestSend(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	withConfig(t, &config.Config{NtfyServer: srv.URL + "/", NtfyTopic: "yard"})
	Init()

	require.NoError(t, Send(ControllerDisabled()))
	assert.Equal(t, "yard", got["topic"])
	assert.Equal(t, "Sprinkler Controller Disabled", got["title"])
	assert.Equal(t, float64(PriorityHigh), got["priority"])
	assert.Equal(t, []any{"no_entry", "droplet"}, got["tags"])
}

func TestSend_OmitsEmptyPriorityAndTags(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
	}))
	defer srv.Close()

	withConfig(t, &config.Config{NtfyServer: srv.URL, NtfyTopic: "yard"})
	Init()

	require.NoError(t, Send(Event{Title: "t", Message: "m"}))
	assert.NotContains(t, got, "priority")
	assert.NotContains(t, got, "tags")
}

func TestEvents(t *testing.T) {
	tests := []struct {
		name     string
		event    Event
		title    string
		priority Priority
		message  string
	}{
		{"unreachable", ControllerUnreachable(3, errors.New("connection refused")),
			"Sprinkler Controller Unreachable", PriorityHigh, "3 consecutive polls failed: connection refused"},
		{"reachable", ControllerReachable(), "Sprinkler Controller Reachable", PriorityLow, "Snapshot polling has recovered"},
		{"disabled", ControllerDisabled(), "Sprinkler Controller Disabled", PriorityHigh, "scheduled programs will not run"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.title, tt.event.Title)
			assert.Equal(t, tt.priority, tt.event.Priority)
			assert.Contains(t, tt.event.Message, tt.message)
		})
	}
}

func TestSend_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	withConfig(t, &config.Config{NtfyServer: srv.URL, NtfyTopic: "yard"})
	Init()

	err := Send(ControllerReachable())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "429")
}

func TestSend_NotInitialized(t *testing.T) {
	withConfig(t, &config.Config{})
	Init()
	assert.ErrorIs(t, Send(ControllerReachable()), ErrNotInitialized)
}
