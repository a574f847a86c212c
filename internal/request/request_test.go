package request

import (
	"errors"
	"testing"
	"time"
)

func TestParseState(t *testing.T) {
	tests := []struct {
		in      string
		want    State
		wantErr bool
	}{
		{"pending", StatePending, false},
		{"", StatePending, false},
		{"COMPLETE", StateComplete, false},
		{"done", StateComplete, false},
		{" error ", StateError, false},
		{"failed", StateError, false},
		{"exploded", "", true},
	}

	for _, tt := range tests {
		got, err := ParseState(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseState(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseState(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestStateIsTerminal(t *testing.T) {
	if StatePending.IsTerminal() {
		t.Error("pending should not be terminal")
	}
	if !StateComplete.IsTerminal() || !StateError.IsTerminal() {
		t.Error("complete and error should be terminal")
	}
}

func TestRequestDuration(t *testing.T) {
	r := Request{ID: "a", StartTime: time.UnixMilli(1000)}

	if got := r.Duration(time.UnixMilli(1500)); got != 500*time.Millisecond {
		t.Errorf("pending Duration = %v, want 500ms", got)
	}
	if got := r.Duration(time.UnixMilli(500)); got != 0 {
		t.Errorf("Duration before start = %v, want 0", got)
	}

	r.EndTime = time.UnixMilli(2500)
	if got := r.Duration(time.UnixMilli(99999)); got != 1500*time.Millisecond {
		t.Errorf("terminal Duration = %v, want 1500ms", got)
	}
}

func TestLastSegment(t *testing.T) {
	tests := map[string]string{
		"https://api.example.com/endpoint/abc123":  "abc123",
		"https://api.example.com/endpoint/abc123/": "abc123",
		"https://api.example.com/search?q=a/b":     "search",
		"https://api.example.com/app.js#frag":      "app.js",
		"plain":                                    "plain",
		"":                                         "",
	}
	for in, want := range tests {
		if got := LastSegment(in); got != want {
			t.Errorf("LastSegment(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestDisplayLabel(t *testing.T) {
	r := Request{URL: "https://x.test/a/b"}
	if r.DisplayLabel() != "b" {
		t.Errorf("DisplayLabel = %q", r.DisplayLabel())
	}
	r.Label = "custom"
	if r.DisplayLabel() != "custom" {
		t.Errorf("DisplayLabel = %q", r.DisplayLabel())
	}
}

func TestShortURL(t *testing.T) {
	tests := map[string]string{
		"https://api.example.com/endpoint/abc123/": "api.example.com/endpoint/abc123",
		"http://api.example.com/search?q=a/b":      "api.example.com/search",
		"https://cdn.example.com/app.js#frag":      "cdn.example.com/app.js",
		"/relative/path":                           "/relative/path",
		"https://":                                 "https://",
	}
	for in, want := range tests {
		if got := ShortURL(in); got != want {
			t.Errorf("ShortURL(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestTarget(t *testing.T) {
	r := Request{URL: "https://api.example.com/users/42?expand=1"}
	if got := r.Target(); got != "api.example.com/users/42" {
		t.Errorf("Target = %q", got)
	}
	r.Label = "profile"
	if got := r.Target(); got != "profile" {
		t.Errorf("Target with label = %q", got)
	}
}

func TestUpdateValidate(t *testing.T) {
	ok := Update{ID: "a", EndTime: time.UnixMilli(1), State: StateError}
	if err := ok.Validate(); err != nil {
		t.Errorf("valid update rejected: %v", err)
	}
	bad := []Update{
		{EndTime: time.UnixMilli(1), State: StateError},
		{ID: "a", EndTime: time.UnixMilli(1), State: StatePending},
		{ID: "a", State: StateComplete},
	}
	for _, u := range bad {
		if err := u.Validate(); !errors.Is(err, ErrInvalidUpdate) {
			t.Errorf("Validate(%+v) = %v, want ErrInvalidUpdate", u, err)
		}
	}
}
