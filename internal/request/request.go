// Package request models the network requests shown on the waterfall and
// the feed-owned store that holds them.
package request

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// State is the lifecycle state of a request.
type State string

const (
	// StatePending means the request has started but not finished. EndTime is unset.
	StatePending State = "pending"
	// StateComplete means the request finished successfully.
	StateComplete State = "complete"
	// StateError means the request failed.
	StateError State = "error"
)

var (
	// ErrInvalidRequest is returned for requests missing an id or start time.
	ErrInvalidRequest = errors.New("invalid request")
	// ErrInvalidUpdate is returned for patches that do not carry a terminal state.
	ErrInvalidUpdate = errors.New("invalid update")
	// ErrDuplicate is returned when a request id is already present in the store.
	ErrDuplicate = errors.New("duplicate request id")
)

// String returns the string representation of State.
func (s State) String() string {
	return string(s)
}

// IsTerminal reports whether the state ends the request lifecycle.
func (s State) IsTerminal() bool {
	return s == StateComplete || s == StateError
}

// ParseState parses a state name case-insensitively.
func ParseState(s string) (State, error) {
	switch State(strings.ToLower(strings.TrimSpace(s))) {
	case StatePending, "":
		return StatePending, nil
	case StateComplete, "completed", "done":
		return StateComplete, nil
	case StateError, "failed":
		return StateError, nil
	default:
		return "", fmt.Errorf("unknown request state %q", s)
	}
}

// Request is one time-bounded event on the timeline.
type Request struct {
	ID     string `json:"id" yaml:"id"`
	Label  string `json:"label,omitempty" yaml:"label,omitempty"`
	Method string `json:"method" yaml:"method"`
	URL    string `json:"url" yaml:"url"`
	Type   string `json:"type,omitempty" yaml:"type,omitempty"`
	Status int    `json:"status,omitempty" yaml:"status,omitempty"`
	Size   int64  `json:"size,omitempty" yaml:"size,omitempty"`

	StartTime time.Time `json:"start_time" yaml:"start_time"`
	// EndTime is the zero time while the request is pending.
	EndTime time.Time `json:"end_time,omitempty" yaml:"end_time,omitempty"`
	State   State     `json:"state" yaml:"state"`

	// Updates counts terminal patches applied by the store.
	Updates int `json:"updates,omitempty" yaml:"-"`
}

// Validate checks the fields every request must carry.
func (r Request) Validate() error {
	if strings.TrimSpace(r.ID) == "" {
		return fmt.Errorf("%w: missing id", ErrInvalidRequest)
	}
	if r.StartTime.IsZero() {
		return fmt.Errorf("%w: %s has no start time", ErrInvalidRequest, r.ID)
	}
	return nil
}

// IsPending reports whether the request has no terminal timestamp yet.
func (r Request) IsPending() bool {
	return r.EndTime.IsZero()
}

// Duration returns the elapsed time of the request. Pending requests are
// measured against now. The result is never negative.
func (r Request) Duration(now time.Time) time.Duration {
	end := r.EndTime
	if end.IsZero() {
		end = now
	}
	d := end.Sub(r.StartTime)
	if d < 0 {
		return 0
	}
	return d
}

// DisplayLabel returns Label, or the last path segment of the URL.
func (r Request) DisplayLabel() string {
	if r.Label != "" {
		return r.Label
	}
	return LastSegment(r.URL)
}

// Target returns Label, or the URL without scheme, query or fragment.
func (r Request) Target() string {
	if r.Label != "" {
		return r.Label
	}
	return ShortURL(r.URL)
}

// ShortURL strips the scheme, query string, fragment and trailing slash.
func ShortURL(url string) string {
	u := url
	if i := strings.Index(u, "://"); i >= 0 {
		u = u[i+3:]
	}
	if i := strings.IndexAny(u, "?#"); i >= 0 {
		u = u[:i]
	}
	u = strings.TrimRight(u, "/")
	if u == "" {
		return url
	}
	return u
}

// LastSegment returns the final non-empty path segment of a URL, without
// query string or fragment.
func LastSegment(url string) string {
	u := url
	if i := strings.IndexAny(u, "?#"); i >= 0 {
		u = u[:i]
	}
	u = strings.TrimRight(u, "/")
	if i := strings.LastIndex(u, "/"); i >= 0 {
		u = u[i+1:]
	}
	if u == "" {
		return url
	}
	return u
}

// Update is a terminal patch for a request, keyed by id.
type Update struct {
	ID      string    `json:"id" yaml:"id"`
	EndTime time.Time `json:"end_time" yaml:"end_time"`
	State   State     `json:"state" yaml:"state"`
	Status  int       `json:"status,omitempty" yaml:"status,omitempty"`
}

// Validate checks that the update targets an id and carries a terminal state.
func (u Update) Validate() error {
	if strings.TrimSpace(u.ID) == "" {
		return fmt.Errorf("%w: missing id", ErrInvalidUpdate)
	}
	if !u.State.IsTerminal() {
		return fmt.Errorf("%w: %s has non-terminal state %q", ErrInvalidUpdate, u.ID, u.State)
	}
	if u.EndTime.IsZero() {
		return fmt.Errorf("%w: %s has no end time", ErrInvalidUpdate, u.ID)
	}
	return nil
}
