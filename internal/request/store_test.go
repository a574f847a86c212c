package request

import (
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"
)

func pending(id string, startMs int64) Request {
	return Request{
		ID:        id,
		Method:    "GET",
		URL:       "https://api.example.com/endpoint/" + id,
		StartTime: time.UnixMilli(startMs),
	}
}

func TestStore_AddAndSnapshotOrder(t *testing.T) {
	s := NewStore(StoreConfig{})

	for _, id := range []string{"c", "a", "b"} {
		if err := s.Add(pending(id, 1000)); err != nil {
			t.Fatalf("Add(%s): %v", id, err)
		}
	}

	snap := s.Snapshot()
	if len(snap) != 3 {
		t.Fatalf("expected 3 requests, got %d", len(snap))
	}
	for i, want := range []string{"c", "a", "b"} {
		if snap[i].ID != want {
			t.Errorf("snapshot[%d] = %q, want %q", i, snap[i].ID, want)
		}
		if snap[i].State != StatePending {
			t.Errorf("snapshot[%d] state = %v, want pending", i, snap[i].State)
		}
	}
}

func TestStore_AddNormalisesTerminalFields(t *testing.T) {
	s := NewStore(StoreConfig{})
	r := pending("a", 1000)
	r.State = StateComplete
	r.EndTime = time.UnixMilli(2000)
	r.Status = 200

	if err := s.Add(r); err != nil {
		t.Fatalf("Add: %v", err)
	}
	got, _ := s.Get("a")
	if got.State != StatePending || !got.EndTime.IsZero() || got.Status != 0 {
		t.Errorf("Add kept terminal fields: %+v", got)
	}
}

func TestStore_AddRejectsInvalid(t *testing.T) {
	s := NewStore(StoreConfig{})

	tests := []struct {
		name string
		req  Request
		want error
	}{
		{"missing id", Request{StartTime: time.UnixMilli(1)}, ErrInvalidRequest},
		{"missing start", Request{ID: "x"}, ErrInvalidRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := s.Add(tt.req); !errors.Is(err, tt.want) {
				t.Errorf("Add() error = %v, want %v", err, tt.want)
			}
		})
	}

	if err := s.Add(pending("dup", 1)); err != nil {
		t.Fatal(err)
	}
	if err := s.Add(pending("dup", 2)); !errors.Is(err, ErrDuplicate) {
		t.Errorf("duplicate Add() error = %v, want ErrDuplicate", err)
	}
	if s.Len() != 1 {
		t.Errorf("Len = %d, want 1", s.Len())
	}
}

func TestStore_ApplyUnknownIDIsNoop(t *testing.T) {
	s := NewStore(StoreConfig{})
	before := s.Version()

	applied, err := s.Apply(Update{ID: "ghost", EndTime: time.UnixMilli(10), State: StateComplete})
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if applied {
		t.Error("expected applied=false for unknown id")
	}
	if s.Version() != before {
		t.Error("version changed on no-op update")
	}
}

func TestStore_ApplyRejectsNonTerminal(t *testing.T) {
	s := NewStore(StoreConfig{})
	_ = s.Add(pending("a", 1000))

	_, err := s.Apply(Update{ID: "a", EndTime: time.UnixMilli(2000), State: StatePending})
	if !errors.Is(err, ErrInvalidUpdate) {
		t.Errorf("Apply(pending) error = %v, want ErrInvalidUpdate", err)
	}
	_, err = s.Apply(Update{ID: "a", State: StateComplete})
	if !errors.Is(err, ErrInvalidUpdate) {
		t.Errorf("Apply(no end) error = %v, want ErrInvalidUpdate", err)
	}
}

func TestStore_DuplicateTerminalUpdatesLastWriteWins(t *testing.T) {
	s := NewStore(StoreConfig{})
	_ = s.Add(pending("a", 1000))

	if _, err := s.Apply(Update{ID: "a", EndTime: time.UnixMilli(2500), State: StateComplete, Status: 200}); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Apply(Update{ID: "a", EndTime: time.UnixMilli(2600), State: StateError, Status: 500}); err != nil {
		t.Fatal(err)
	}

	snap := s.Snapshot()
	if len(snap) != 1 {
		t.Fatalf("expected a single entry, got %d", len(snap))
	}
	got := snap[0]
	if got.State != StateError || got.Status != 500 || got.EndTime.UnixMilli() != 2600 {
		t.Errorf("last write did not win: %+v", got)
	}
	if got.Updates != 2 {
		t.Errorf("Updates = %d, want 2", got.Updates)
	}
	t.Logf("STORE_TEST: final state=%s status=%d end=%d", got.State, got.Status, got.EndTime.UnixMilli())
}

func TestStore_ApplyClampsEndBeforeStart(t *testing.T) {
	s := NewStore(StoreConfig{})
	_ = s.Add(pending("a", 1000))

	if _, err := s.Apply(Update{ID: "a", EndTime: time.UnixMilli(400), State: StateComplete}); err != nil {
		t.Fatal(err)
	}
	got, _ := s.Get("a")
	if !got.EndTime.Equal(got.StartTime) {
		t.Errorf("EndTime = %v, want clamped to start %v", got.EndTime, got.StartTime)
	}
	if got.Duration(time.UnixMilli(99999)) != 0 {
		t.Errorf("Duration = %v, want 0", got.Duration(time.UnixMilli(99999)))
	}
}

func TestStore_EvictsOldest(t *testing.T) {
	s := NewStore(StoreConfig{Capacity: 3})
	for i := 0; i < 5; i++ {
		if err := s.Add(pending(fmt.Sprintf("r%d", i), int64(i*100+1))); err != nil {
			t.Fatal(err)
		}
	}

	snap := s.Snapshot()
	if len(snap) != 3 {
		t.Fatalf("expected 3 requests after eviction, got %d", len(snap))
	}
	if snap[0].ID != "r2" || snap[2].ID != "r4" {
		t.Errorf("unexpected survivors: %s..%s", snap[0].ID, snap[2].ID)
	}
	if _, ok := s.Get("r0"); ok {
		t.Error("evicted request still retrievable")
	}
	if st := s.Stats(); st.Evicted != 2 || st.Pending != 3 {
		t.Errorf("Stats = %+v", st)
	}

	applied, err := s.Apply(Update{ID: "r0", EndTime: time.UnixMilli(9000), State: StateComplete})
	if err != nil || applied {
		t.Errorf("update to evicted id: applied=%v err=%v", applied, err)
	}
}

func TestStore_Stats(t *testing.T) {
	s := NewStore(StoreConfig{})
	_ = s.Add(pending("a", 1))
	_ = s.Add(pending("b", 2))
	_ = s.Add(pending("c", 3))
	_, _ = s.Apply(Update{ID: "a", EndTime: time.UnixMilli(5), State: StateComplete})
	_, _ = s.Apply(Update{ID: "b", EndTime: time.UnixMilli(5), State: StateError})

	st := s.Stats()
	if st.Total != 3 || st.Pending != 1 || st.Complete != 1 || st.Error != 1 {
		t.Errorf("Stats = %+v", st)
	}
}

func TestStore_OnChange(t *testing.T) {
	s := NewStore(StoreConfig{})
	var seen []State
	s.OnChange(func(r Request) {
		seen = append(seen, r.State)
		// Re-entrant reads must not deadlock.
		_ = s.Len()
	})

	_ = s.Add(pending("a", 1))
	_, _ = s.Apply(Update{ID: "a", EndTime: time.UnixMilli(5), State: StateComplete})

	if len(seen) != 2 || seen[0] != StatePending || seen[1] != StateComplete {
		t.Errorf("callbacks saw %v", seen)
	}
}

func TestStore_ConcurrentReadersNeverSeeTornRequests(t *testing.T) {
	s := NewStore(StoreConfig{Capacity: 500})
	const n = 200

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := 0; i < n; i++ {
			id := fmt.Sprintf("r%d", i)
			_ = s.Add(pending(id, int64(i+1)))
			_, _ = s.Apply(Update{ID: id, EndTime: time.UnixMilli(int64(i + 50)), State: StateComplete})
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < n; i++ {
			for _, r := range s.Snapshot() {
				if r.State.IsTerminal() == r.EndTime.IsZero() {
					t.Errorf("torn request observed: %+v", r)
					return
				}
			}
		}
	}()
	wg.Wait()
}
