package feed

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Dicklesworthstone/netfall/internal/request"
)

// Op is the kind of a wire event.
type Op string

const (
	// OpCreate starts a new pending request.
	OpCreate Op = "create"
	// OpUpdate moves an existing request to a terminal state.
	OpUpdate Op = "update"
)

// ErrUnknownOp is returned for events whose op is neither create nor update.
var ErrUnknownOp = errors.New("unknown event op")

// Event is the JSON wire form of a lifecycle event. Times may be given as
// RFC 3339 strings or as epoch milliseconds; the string form wins when both
// are set.
type Event struct {
	Op     Op     `json:"op"`
	ID     string `json:"id"`
	Label  string `json:"label,omitempty"`
	Method string `json:"method,omitempty"`
	URL    string `json:"url,omitempty"`
	Type   string `json:"type,omitempty"`
	Status int    `json:"status,omitempty"`
	Size   int64  `json:"size,omitempty"`
	State  string `json:"state,omitempty"`

	StartTime time.Time `json:"start_time,omitempty"`
	StartMs   int64     `json:"start_ms,omitempty"`
	EndTime   time.Time `json:"end_time,omitempty"`
	EndMs     int64     `json:"end_ms,omitempty"`
}

// DecodeEvent parses one JSON event.
func DecodeEvent(data []byte) (Event, error) {
	var e Event
	if err := json.Unmarshal(data, &e); err != nil {
		return Event{}, fmt.Errorf("decoding event: %w", err)
	}
	e.Op = Op(strings.ToLower(strings.TrimSpace(string(e.Op))))
	return e, nil
}

func (e Event) start() time.Time {
	if !e.StartTime.IsZero() || e.StartMs == 0 {
		return e.StartTime
	}
	return time.UnixMilli(e.StartMs)
}

func (e Event) end() time.Time {
	if !e.EndTime.IsZero() || e.EndMs == 0 {
		return e.EndTime
	}
	return time.UnixMilli(e.EndMs)
}

// Request converts a create event.
func (e Event) Request() request.Request {
	return request.Request{
		ID:        e.ID,
		Label:     e.Label,
		Method:    strings.ToUpper(e.Method),
		URL:       e.URL,
		Type:      e.Type,
		Size:      e.Size,
		StartTime: e.start(),
		State:     request.StatePending,
	}
}

// Update converts an update event.
func (e Event) Update() (request.Update, error) {
	state, err := request.ParseState(e.State)
	if err != nil {
		return request.Update{}, fmt.Errorf("%w: %v", request.ErrInvalidUpdate, err)
	}
	return request.Update{
		ID:      e.ID,
		EndTime: e.end(),
		State:   state,
		Status:  e.Status,
	}, nil
}

// Dispatch writes the event into sink.
func (e Event) Dispatch(sink Sink) error {
	switch e.Op {
	case OpCreate:
		return sink.Add(e.Request())
	case OpUpdate:
		u, err := e.Update()
		if err != nil {
			return err
		}
		_, err = sink.Apply(u)
		return err
	default:
		return fmt.Errorf("%w: %q", ErrUnknownOp, e.Op)
	}
}
