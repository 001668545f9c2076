// Package actuator talks to the remote door controller over HTTP and
// normalizes its outcomes into typed results. Every call is single-attempt;
// only SilenceAlarm walks an ordered list of known path variants.
package actuator

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

// State describes the alarm state reported by the controller.
type State string

const (
	StateActive   State = "active"
	StateInactive State = "inactive"
	// StateUnknown is reported whenever the controller cannot be queried.
	// Callers must never substitute StateInactive for it.
	StateUnknown State = "unknown"
)

// Kind classifies a gateway failure.
type Kind string

const (
	// KindUnreachable covers timeouts and connection failures.
	KindUnreachable Kind = "unreachable"
	// KindRejected covers non-success HTTP responses from the controller.
	KindRejected Kind = "rejected"
)

// Error is the typed failure returned by every gateway call, forcing call
// sites to decide how to log or propagate the outcome.
type Error struct {
	Op         string
	Kind       Kind
	StatusCode int
	cause      error
}

func (e *Error) Error() string {
	if e.Kind == KindRejected {
		return fmt.Sprintf("actuator %s rejected: status %d", e.Op, e.StatusCode)
	}
	return fmt.Sprintf("actuator %s unreachable: %v", e.Op, e.cause)
}

func (e *Error) Unwrap() error {
	return e.cause
}

// NewError builds a typed gateway failure. It lets fakes in other packages
// produce the same outcomes as the real gateway.
func NewError(op string, kind Kind, statusCode int, cause error) *Error {
	return &Error{Op: op, Kind: kind, StatusCode: statusCode, cause: cause}
}

// Detail returns a short human-readable reason suitable for audit records.
func (e *Error) Detail() string {
	if e.Kind == KindRejected {
		return fmt.Sprintf("controller status %d", e.StatusCode)
	}
	if isTimeout(e.cause) {
		return "timeout"
	}
	if e.cause != nil {
		return e.cause.Error()
	}
	return "unreachable"
}

// silenceAlarmPaths lists the stop-alarm endpoint spellings the controller
// firmware has shipped under, in priority order.
var silenceAlarmPaths = []string{"/alarm-stop", "/alarmstop"}

// Gateway issues door and alarm commands against the controller.
type Gateway struct {
	httpClient *http.Client
	baseURL    string
	logger     *slog.Logger
}

// NewGateway constructs a gateway for the controller at baseURL. Every call
// is bounded by the supplied timeout.
func NewGateway(baseURL string, timeout time.Duration, logger *slog.Logger) *Gateway {
	if timeout <= 0 {
		timeout = 8 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Gateway{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    strings.TrimRight(baseURL, "/"),
		logger:     logger,
	}
}

// Open commands the controller to open the door.
func (g *Gateway) Open(ctx context.Context) error {
	return g.post(ctx, "open", "/open", map[string]string{"action": "open"})
}

// SoundAlarm commands the controller to sound the alarm.
func (g *Gateway) SoundAlarm(ctx context.Context) error {
	return g.post(ctx, "sound_alarm", "/alarm", nil)
}

// SilenceAlarm commands the controller to stop the alarm, trying each known
// path variant in order. A response, success or rejection, ends the walk; a
// transport failure falls through to the next variant, and the last error is
// returned when every variant fails.
func (g *Gateway) SilenceAlarm(ctx context.Context) error {
	var lastErr error
	for _, path := range silenceAlarmPaths {
		err := g.post(ctx, "silence_alarm", path, nil)
		var actErr *Error
		if errors.As(err, &actErr) && actErr.Kind == KindUnreachable {
			g.logger.WarnContext(ctx, "silence alarm path unreachable", "path", path, "error", err)
			lastErr = err
			continue
		}
		return err
	}
	return lastErr
}

// Status queries the controller's alarm state. Any failure yields
// StateUnknown alongside the error.
func (g *Gateway) Status(ctx context.Context) (State, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.baseURL+"/status", nil)
	if err != nil {
		return StateUnknown, &Error{Op: "status", Kind: KindUnreachable, cause: err}
	}

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return StateUnknown, &Error{Op: "status", Kind: KindUnreachable, cause: err}
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return StateUnknown, &Error{Op: "status", Kind: KindRejected, StatusCode: resp.StatusCode}
	}

	var payload struct {
		Alarm string `json:"alarm"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		// The controller responded; a malformed body still means the alarm
		// is not known to be active.
		return StateInactive, nil
	}
	if payload.Alarm == string(StateActive) {
		return StateActive, nil
	}
	return StateInactive, nil
}

func (g *Gateway) post(ctx context.Context, op, path string, payload any) error {
	var body *bytes.Buffer
	if payload != nil {
		body = &bytes.Buffer{}
		if err := json.NewEncoder(body).Encode(payload); err != nil {
			return &Error{Op: op, Kind: KindUnreachable, cause: err}
		}
	}

	var reader io.Reader
	if body != nil {
		reader = body
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+path, reader)
	if err != nil {
		return &Error{Op: op, Kind: KindUnreachable, cause: err}
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return &Error{Op: op, Kind: KindUnreachable, cause: err}
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &Error{Op: op, Kind: KindRejected, StatusCode: resp.StatusCode}
	}

	return nil
}

func isTimeout(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var timeoutErr interface{ Timeout() bool }
	if errors.As(err, &timeoutErr) {
		return timeoutErr.Timeout()
	}
	return false
}
