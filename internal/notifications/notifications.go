package notifications

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/thatsimonsguy/sprinkler-controller/internal/env"
)

const titlePrefix = "Sprinkler Controller"

var ErrNotInitialized = errors.New("notifications not initialized")

// Priority follows ntfy's 1 (min) to 5 (urgent) scale.
type Priority int

const (
	PriorityLow     Priority = 2
	PriorityDefault Priority = 3
	PriorityHigh    Priority = 4
)

// Event is one push notification about the irrigation controller.
type Event struct {
	Title    string
	Message  string
	Priority Priority
	Tags     []string
}

func ControllerUnreachable(failures int, cause error) Event {
	return Event{
		Title:    titlePrefix + " Unreachable",
		Message:  fmt.Sprintf("%d consecutive polls failed: %v", failures, cause),
		Priority: PriorityHigh,
		Tags:     []string{"warning", "droplet"},
	}
}

func ControllerReachable() Event {
	return Event{
		Title:    titlePrefix + " Reachable",
		Message:  "Snapshot polling has recovered",
		Priority: PriorityLow,
		Tags:     []string{"white_check_mark"},
	}
}

func ControllerDisabled() Event {
	return Event{
		Title:    titlePrefix + " Disabled",
		Message:  "The irrigation controller has stopped operating; scheduled programs will not run",
		Priority: PriorityHigh,
		Tags:     []string{"no_entry", "droplet"},
	}
}

// publish is ntfy's JSON publish body.
type publish struct {
	Topic    string   `json:"topic"`
	Title    string   `json:"title"`
	Message  string   `json:"message"`
	Priority Priority `json:"priority,omitempty"`
	Tags     []string `json:"tags,omitempty"`
}

var client *http.Client
var server string
var topic string
var initialized bool

// Init initializes the notification client
func Init() {
	if env.Cfg.NtfyTopic == "" {
		log.Warn().Msg("Ntfy topic not configured - notifications disabled")
		return
	}

	client = &http.Client{
		Timeout: 10 * time.Second,
	}
	server = strings.TrimRight(env.Cfg.NtfyServer, "/")
	topic = env.Cfg.NtfyTopic
	initialized = true

	log.Info().
		Str("server", server).
		Str("topic", topic).
		Msg("Ntfy notifications initialized")
}

// Send publishes e to the configured ntfy server. ntfy accepts JSON
// publishes at the server root.
func Send(e Event) error {
	if !initialized {
		return ErrNotInitialized
	}

	body, err := json.Marshal(publish{
		Topic:    topic,
		Title:    e.Title,
		Message:  e.Message,
		Priority: e.Priority,
		Tags:     e.Tags,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal notification: %w", err)
	}

	req, err := http.NewRequest(http.MethodPost, server, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send notification %q: %w", e.Title, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("ntfy rejected %q: status %d", e.Title, resp.StatusCode)
	}

	log.Debug().
		Str("title", e.Title).
		Int("priority", int(e.Priority)).
		Msg("Notification sent")
	return nil
}
