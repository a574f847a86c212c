package feed

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Dicklesworthstone/netfall/internal/request"
)

var (
	simMethods = []string{"GET", "POST", "PUT", "DELETE"}
	simTypes   = []string{"fetch", "xhr", "document", "stylesheet", "script"}
)

// SimulatorConfig tunes the synthetic traffic generator.
type SimulatorConfig struct {
	// Interval between new requests. The first request is emitted at once.
	Interval time.Duration
	// MinDuration and MaxDuration bound how long a request stays pending.
	MinDuration time.Duration
	MaxDuration time.Duration
	// ErrorRate is the fraction of requests that end in the error state.
	ErrorRate float64
	// BaseURL is prefixed to the request id to form the URL.
	BaseURL string
	// MaxSize bounds the random response size in bytes.
	MaxSize int64
}

// DefaultSimulatorConfig returns the demo traffic settings.
func DefaultSimulatorConfig() SimulatorConfig {
	return SimulatorConfig{
		Interval:    2 * time.Second,
		MinDuration: 500 * time.Millisecond,
		MaxDuration: 3500 * time.Millisecond,
		ErrorRate:   0.1,
		BaseURL:     "https://api.example.com/endpoint/",
		MaxSize:     1_000_000,
	}
}

// Simulator generates demo traffic: a new pending request every Interval
// that completes after a random duration.
type Simulator struct {
	cfg SimulatorConfig

	mu    sync.Mutex
	rng   *rand.Rand
	now   func() time.Time
	newID func() string
}

// SimulatorOption customises a Simulator.
type SimulatorOption func(*Simulator)

// WithRand makes the simulator deterministic.
func WithRand(rng *rand.Rand) SimulatorOption {
	return func(s *Simulator) { s.rng = rng }
}

// WithClock injects the time source.
func WithClock(now func() time.Time) SimulatorOption {
	return func(s *Simulator) { s.now = now }
}

// WithIDs injects the id generator.
func WithIDs(newID func() string) SimulatorOption {
	return func(s *Simulator) { s.newID = newID }
}

// NewSimulator creates a simulator. Zero config fields take defaults.
func NewSimulator(cfg SimulatorConfig, opts ...SimulatorOption) *Simulator {
	d := DefaultSimulatorConfig()
	if cfg.Interval <= 0 {
		cfg.Interval = d.Interval
	}
	if cfg.MinDuration <= 0 {
		cfg.MinDuration = d.MinDuration
	}
	if cfg.MaxDuration < cfg.MinDuration {
		cfg.MaxDuration = max(d.MaxDuration, cfg.MinDuration)
	}
	if cfg.ErrorRate < 0 || cfg.ErrorRate > 1 {
		cfg.ErrorRate = d.ErrorRate
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = d.BaseURL
	}
	if cfg.MaxSize <= 0 {
		cfg.MaxSize = d.MaxSize
	}

	s := &Simulator{
		cfg:   cfg,
		rng:   rand.New(rand.NewSource(time.Now().UnixNano())),
		now:   time.Now,
		newID: func() string { return uuid.NewString()[:8] },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Name implements Source.
func (s *Simulator) Name() string { return "simulator" }

// Next generates one request and the terminal update that will end it,
// along with how long after the start the update is due.
func (s *Simulator) Next() (request.Request, request.Update, time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.newID()
	start := s.now()
	span := s.cfg.MaxDuration - s.cfg.MinDuration
	dur := s.cfg.MinDuration
	if span > 0 {
		dur += time.Duration(s.rng.Int63n(int64(span)))
	}

	r := request.Request{
		ID:        id,
		Method:    simMethods[s.rng.Intn(len(simMethods))],
		URL:       s.cfg.BaseURL + id,
		Type:      simTypes[s.rng.Intn(len(simTypes))],
		Size:      s.rng.Int63n(s.cfg.MaxSize),
		StartTime: start,
		State:     request.StatePending,
	}
	u := request.Update{
		ID:      id,
		EndTime: start.Add(dur),
		State:   request.StateComplete,
		Status:  200,
	}
	if s.rng.Float64() < s.cfg.ErrorRate {
		u.State = request.StateError
		u.Status = 500
	}
	return r, u, dur
}

// Run emits requests until ctx is cancelled. Completions still scheduled
// at cancellation are dropped.
func (s *Simulator) Run(ctx context.Context, sink Sink) error {
	ticker := time.NewTicker(s.cfg.Interval)
	defer ticker.Stop()

	var wg sync.WaitGroup
	defer wg.Wait()

	emit := func() {
		r, u, dur := s.Next()
		if !add(sink, s.Name(), r) {
			return
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			timer := time.NewTimer(dur)
			defer timer.Stop()
			select {
			case <-ctx.Done():
			case <-timer.C:
				apply(sink, s.Name(), u)
			}
		}()
	}

	emit()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			emit()
		}
	}
}

// String describes the simulator settings for logs.
func (s *Simulator) String() string {
	return fmt.Sprintf("simulator(every %s, %s-%s, %.0f%% errors)",
		s.cfg.Interval, s.cfg.MinDuration, s.cfg.MaxDuration, s.cfg.ErrorRate*100)
}

var _ slog.LogValuer = (*Simulator)(nil)

// LogValue implements slog.LogValuer.
func (s *Simulator) LogValue() slog.Value {
	return slog.StringValue(s.String())
}
