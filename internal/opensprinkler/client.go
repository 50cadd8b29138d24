package opensprinkler

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/thatsimonsguy/sprinkler-controller/internal/snapshot"
)

// maxResponseSize bounds a /ja document read.
const maxResponseSize = 1 << 20

type Client struct {
	base   string
	digest string
	http   *http.Client
}

// New creates a client for the device at base (e.g. "http://10.0.1.31:8080").
// The password is sent as its MD5 hex digest.
func New(base, password string, timeout time.Duration) *Client {
	return &Client{
		base:   strings.TrimRight(base, "/"),
		digest: Digest(password),
		http:   &http.Client{Timeout: timeout},
	}
}

func Digest(password string) string {
	sum := md5.Sum([]byte(password))
	return hex.EncodeToString(sum[:])
}

// FetchSnapshot reads the full device state (/ja).
func (c *Client) FetchSnapshot(ctx context.Context) (snapshot.Snapshot, []byte, error) {
	body, err := c.get(ctx, "ja", nil)
	if err != nil {
		return nil, nil, err
	}

	// A rejected password comes back as a bare result document.
	var res struct {
		Result *int `json:"result"`
	}
	if json.Unmarshal(body, &res) == nil && res.Result != nil {
		if err := resultError("ja", *res.Result); err != nil {
			return nil, nil, err
		}
	}

	snap, err := snapshot.Parse(body)
	if err != nil {
		return nil, nil, &DeviceError{Sentinel: ErrUnexpected, Verb: "ja", Err: err}
	}
	return snap, body, nil
}

// RunStation opens station sid for the given number of seconds (/cm).
func (c *Client) RunStation(ctx context.Context, sid, seconds int) error {
	return c.command(ctx, "cm", url.Values{
		"sid": {strconv.Itoa(sid)},
		"en":  {"1"},
		"t":   {strconv.Itoa(seconds)},
	})
}

// StopStation closes station sid (/cm).
func (c *Client) StopStation(ctx context.Context, sid int) error {
	return c.command(ctx, "cm", url.Values{
		"sid": {strconv.Itoa(sid)},
		"en":  {"0"},
	})
}

// RunProgram starts program pid immediately (/mp).
func (c *Client) RunProgram(ctx context.Context, pid int, useWeather bool) error {
	return c.command(ctx, "mp", url.Values{
		"pid": {strconv.Itoa(pid)},
		"uwt": {boolParam(useWeather)},
	})
}

// SetEnabled turns controller operation on or off (/cv).
func (c *Client) SetEnabled(ctx context.Context, enabled bool) error {
	return c.command(ctx, "cv", url.Values{"en": {boolParam(enabled)}})
}

// SetRainDelay sets the rain delay in hours; 0 clears it (/cv).
func (c *Client) SetRainDelay(ctx context.Context, hours int) error {
	return c.command(ctx, "cv", url.Values{"rd": {strconv.Itoa(hours)}})
}

func boolParam(b bool) string {
	if b {
		return "1"
	}
	return "0"
}

func (c *Client) command(ctx context.Context, verb string, args url.Values) error {
	body, err := c.get(ctx, verb, args)
	if err != nil {
		return err
	}
	var res struct {
		Result int `json:"result"`
	}
	if err := json.Unmarshal(body, &res); err != nil {
		return &DeviceError{Sentinel: ErrUnexpected, Verb: verb, Err: err}
	}
	if err := resultError(verb, res.Result); err != nil {
		return err
	}

	log.Info().Str("verb", verb).Str("args", args.Encode()).Msg("Device command accepted")
	return nil
}

func (c *Client) get(ctx context.Context, verb string, args url.Values) ([]byte, error) {
	// pw leads the query string
	uri := fmt.Sprintf("%s/%s?pw=%s", c.base, verb, c.digest)
	if len(args) > 0 {
		uri += "&" + args.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, uri, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &DeviceError{Sentinel: ErrUnavailable, Verb: verb, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, &DeviceError{Sentinel: ErrUnavailable, Verb: verb, Status: resp.StatusCode, Err: err}
	}

	log.Debug().
		Str("verb", verb).
		Int("status", resp.StatusCode).
		Int("bytes", len(body)).
		Msg("Device response")

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		return nil, &DeviceError{Sentinel: ErrUnauthorized, Verb: verb, Status: resp.StatusCode}
	case resp.StatusCode == http.StatusNotFound:
		return nil, &DeviceError{Sentinel: ErrPageNotFound, Verb: verb, Status: resp.StatusCode}
	case resp.StatusCode != http.StatusOK:
		return nil, &DeviceError{Sentinel: ErrUnexpected, Verb: verb, Status: resp.StatusCode}
	}
	return body, nil
}
