package feed

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Dicklesworthstone/netfall/internal/request"
)

type funcSource struct {
	name string
	run  func(ctx context.Context, sink Sink) error
}

func (f funcSource) Name() string { return f.name }
func (f funcSource) Run(ctx context.Context, sink Sink) error { return f.run(ctx, sink) }

func TestRunAll_DeliversFromEverySource(t *testing.T) {
	store := request.NewStore(request.StoreConfig{})
	mk := func(id string) Source {
		return funcSource{name: id, run: func(ctx context.Context, sink Sink) error {
			return sink.Add(request.Request{ID: id, StartTime: time.UnixMilli(1)})
		}}
	}

	if err := RunAll(context.Background(), store, mk("a"), mk("b"), mk("c")); err != nil {
		t.Fatalf("RunAll: %v", err)
	}
	if store.Len() != 3 {
		t.Errorf("store has %d requests, want 3", store.Len())
	}
}

func TestRunAll_FailureCancelsOthers(t *testing.T) {
	boom := errors.New("boom")
	blocking := funcSource{name: "blocking", run: func(ctx context.Context, sink Sink) error {
		<-ctx.Done()
		return ctx.Err()
	}}
	failing := funcSource{name: "failing", run: func(ctx context.Context, sink Sink) error {
		return boom
	}}

	done := make(chan error, 1)
	go func() { done <- RunAll(context.Background(), request.NewStore(request.StoreConfig{}), blocking, failing) }()

	select {
	case err := <-done:
		if !errors.Is(err, boom) {
			t.Errorf("RunAll error = %v, want boom", err)
		}
		t.Logf("FEED_TEST: RunAll returned %v", err)
	case <-time.After(5 * time.Second):
		t.Fatal("RunAll did not return after a source failed")
	}
}

func TestRunAll_CancellationIsNotAnError(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	src := funcSource{name: "s", run: func(ctx context.Context, sink Sink) error {
		<-ctx.Done()
		return ctx.Err()
	}}
	if err := RunAll(ctx, request.NewStore(request.StoreConfig{}), src); err != nil {
		t.Errorf("RunAll = %v, want nil", err)
	}
}

func TestDecodeEvent(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantOp  Op
		wantErr bool
	}{
		{"create with epoch ms", `{"op":"create","id":"a","method":"get","url":"https://x/a","start_ms":1000}`, OpCreate, false},
		{"update upper-case op", `{"op":"UPDATE","id":"a","state":"complete","end_ms":2500,"status":200}`, OpUpdate, false},
		{"rfc3339 time", `{"op":"create","id":"b","start_time":"2024-01-01T12:00:00Z"}`, OpCreate, false},
		{"not json", `{"op":`, "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ev, err := DecodeEvent([]byte(tt.input))
			if (err != nil) != tt.wantErr {
				t.Fatalf("DecodeEvent error = %v, wantErr %v", err, tt.wantErr)
			}
			if err == nil && ev.Op != tt.wantOp {
				t.Errorf("Op = %q, want %q", ev.Op, tt.wantOp)
			}
		})
	}
}

func TestEventDispatch(t *testing.T) {
	store := request.NewStore(request.StoreConfig{})

	create, _ := DecodeEvent([]byte(`{"op":"create","id":"a","method":"post","url":"https://api/x","start_ms":1000}`))
	if err := create.Dispatch(store); err != nil {
		t.Fatalf("create: %v", err)
	}
	r, _ := store.Get("a")
	if r.Method != "POST" || !r.StartTime.Equal(time.UnixMilli(1000)) || r.State != request.StatePending {
		t.Errorf("created request = %+v", r)
	}

	update, _ := DecodeEvent([]byte(`{"op":"update","id":"a","state":"error","end_ms":1800,"status":503}`))
	if err := update.Dispatch(store); err != nil {
		t.Fatalf("update: %v", err)
	}
	r, _ = store.Get("a")
	if r.State != request.StateError || r.Status != 503 || !r.EndTime.Equal(time.UnixMilli(1800)) {
		t.Errorf("updated request = %+v", r)
	}

	bad := Event{Op: "delete", ID: "a"}
	if err := bad.Dispatch(store); !errors.Is(err, ErrUnknownOp) {
		t.Errorf("unknown op error = %v", err)
	}
	pending := Event{Op: OpUpdate, ID: "a", State: "pending", EndMs: 5}
	if err := pending.Dispatch(store); !errors.Is(err, request.ErrInvalidUpdate) {
		t.Errorf("non-terminal update error = %v", err)
	}
	weird := Event{Op: OpUpdate, ID: "a", State: "teleported", EndMs: 5}
	if err := weird.Dispatch(store); !errors.Is(err, request.ErrInvalidUpdate) {
		t.Errorf("unknown state error = %v", err)
	}
}
