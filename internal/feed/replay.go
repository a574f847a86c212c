package feed

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/Dicklesworthstone/netfall/internal/request"
)

// ErrInvalidScript is returned for replay scripts that fail validation.
var ErrInvalidScript = errors.New("invalid replay script")

// Script is a recorded session. YAML and JSON are both accepted.
//
//	loop: false
//	requests:
//	  - id: login
//	    method: POST
//	    url: https://api.example.com/login
//	    start_ms: 0
//	    duration_ms: 420
//	  - id: stream
//	    url: https://api.example.com/events
//	    start_ms: 500        # no duration: stays pending
type Script struct {
	Loop     bool          `yaml:"loop" json:"loop"`
	Requests []ScriptEntry `yaml:"requests" json:"requests"`
}

// ScriptEntry is one request of a script. Offsets are relative to the
// start of the replay.
type ScriptEntry struct {
	ID     string `yaml:"id" json:"id"`
	Label  string `yaml:"label,omitempty" json:"label,omitempty"`
	Method string `yaml:"method,omitempty" json:"method,omitempty"`
	URL    string `yaml:"url" json:"url"`
	Type   string `yaml:"type,omitempty" json:"type,omitempty"`
	Size   int64  `yaml:"size,omitempty" json:"size,omitempty"`

	StartMs    int64  `yaml:"start_ms" json:"start_ms"`
	DurationMs *int64 `yaml:"duration_ms,omitempty" json:"duration_ms,omitempty"`
	State      string `yaml:"state,omitempty" json:"state,omitempty"`
	Status     int    `yaml:"status,omitempty" json:"status,omitempty"`
}

// ParseScript decodes and validates a script.
func ParseScript(data []byte) (*Script, error) {
	var s Script
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parsing replay script: %w", err)
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

// LoadScript reads a script file.
func LoadScript(path string) (*Script, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading replay script: %w", err)
	}
	return ParseScript(data)
}

// Validate checks ids, offsets and terminal states.
func (s *Script) Validate() error {
	if len(s.Requests) == 0 {
		return fmt.Errorf("%w: no requests", ErrInvalidScript)
	}
	seen := make(map[string]struct{}, len(s.Requests))
	for i, e := range s.Requests {
		if strings.TrimSpace(e.ID) == "" {
			return fmt.Errorf("%w: request %d has no id", ErrInvalidScript, i)
		}
		if _, dup := seen[e.ID]; dup {
			return fmt.Errorf("%w: duplicate id %q", ErrInvalidScript, e.ID)
		}
		seen[e.ID] = struct{}{}
		if e.StartMs < 0 {
			return fmt.Errorf("%w: %s starts before the replay", ErrInvalidScript, e.ID)
		}
		if e.DurationMs != nil && *e.DurationMs < 0 {
			return fmt.Errorf("%w: %s has negative duration", ErrInvalidScript, e.ID)
		}
		if _, err := e.terminalState(); err != nil {
			return fmt.Errorf("%w: %s: %v", ErrInvalidScript, e.ID, err)
		}
	}
	return nil
}

func (e ScriptEntry) terminalState() (request.State, error) {
	if e.State == "" {
		return request.StateComplete, nil
	}
	st, err := request.ParseState(e.State)
	if err != nil {
		return "", err
	}
	if !st.IsTerminal() {
		return "", fmt.Errorf("state %q is not terminal", e.State)
	}
	return st, nil
}

// Length is the offset of the last event in the script.
func (s *Script) Length() time.Duration {
	var end int64
	for _, e := range s.Requests {
		last := e.StartMs
		if e.DurationMs != nil {
			last += *e.DurationMs
		}
		end = max(end, last)
	}
	return time.Duration(end) * time.Millisecond
}

type scheduled struct {
	at     time.Duration
	create *request.Request
	update *request.Update
}

// schedule lays the script out against base. Each pass of a looping replay
// gets a distinct id suffix.
func (s *Script) schedule(base time.Time, pass int) []scheduled {
	out := make([]scheduled, 0, 2*len(s.Requests))
	for _, e := range s.Requests {
		id := e.ID
		if pass > 0 {
			id = fmt.Sprintf("%s#%d", e.ID, pass)
		}
		start := base.Add(time.Duration(e.StartMs) * time.Millisecond)
		r := request.Request{
			ID:        id,
			Label:     e.Label,
			Method:    strings.ToUpper(e.Method),
			URL:       e.URL,
			Type:      e.Type,
			Size:      e.Size,
			StartTime: start,
			State:     request.StatePending,
		}
		out = append(out, scheduled{at: time.Duration(e.StartMs) * time.Millisecond, create: &r})

		if e.DurationMs == nil {
			continue
		}
		st, _ := e.terminalState()
		status := e.Status
		if status == 0 {
			status = 200
			if st == request.StateError {
				status = 500
			}
		}
		d := time.Duration(*e.DurationMs) * time.Millisecond
		out = append(out, scheduled{
			at:     time.Duration(e.StartMs)*time.Millisecond + d,
			update: &request.Update{ID: id, EndTime: start.Add(d), State: st, Status: status},
		})
	}
	// Stable, so each create stays ahead of its own zero-duration update.
	sort.SliceStable(out, func(i, j int) bool { return out[i].at < out[j].at })
	return out
}

// Replay plays a Script back in real time.
type Replay struct {
	script *Script
	now    func() time.Time
	after  func(time.Duration) <-chan time.Time
}

// NewReplay creates a replay source. A nil now uses time.Now.
func NewReplay(script *Script, now func() time.Time) *Replay {
	if now == nil {
		now = time.Now
	}
	return &Replay{script: script, now: now, after: time.After}
}

// Name implements Source.
func (r *Replay) Name() string { return "replay" }

// Run replays the script relative to the moment Run is called. A
// non-looping replay returns once the last event has been delivered.
func (r *Replay) Run(ctx context.Context, sink Sink) error {
	if r.script == nil {
		return fmt.Errorf("%w: no script", ErrInvalidScript)
	}
	length := r.script.Length()
	for pass := 0; ; pass++ {
		base := r.now()
		var elapsed time.Duration
		for _, ev := range r.script.schedule(base, pass) {
			if wait := ev.at - elapsed; wait > 0 {
				select {
				case <-ctx.Done():
					return nil
				case <-r.after(wait):
				}
				elapsed = ev.at
			}
			if ev.create != nil {
				add(sink, r.Name(), *ev.create)
			} else {
				apply(sink, r.Name(), *ev.update)
			}
		}
		if !r.script.Loop {
			return nil
		}
		// A zero-length loop would spin; leave a beat between passes.
		if length == 0 {
			select {
			case <-ctx.Done():
				return nil
			case <-r.after(time.Second):
			}
		}
		if ctx.Err() != nil {
			return nil
		}
	}
}
