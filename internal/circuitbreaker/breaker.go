// Package circuitbreaker guards the gateway's outbound dependencies (the
// retrieval backend, the completion gateway, Redis) so a dead dependency
// fails fast instead of tying up request handlers until their deadlines.
package circuitbreaker

import (
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"
)

// State is the breaker position. Closed passes traffic, open rejects it,
// half-open lets a bounded number of probes through after the cooldown.
type State int

const (
	StateClosed State = iota
	StateHalfOpen
	StateOpen
)

func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateHalfOpen:
		return "half-open"
	case StateOpen:
		return "open"
	default:
		return "unknown"
	}
}

var (
	// ErrOpen is returned without running the call while the breaker cools down.
	ErrOpen = errors.New("circuit breaker open")
	// ErrProbeLimit is returned when the half-open probe budget is spent.
	ErrProbeLimit = errors.New("circuit breaker probe limit reached")
)

// Settings tunes one breaker. Zero values fall back to the defaults below.
type Settings struct {
	TripAfter      uint32        // consecutive failures that open the breaker
	CloseAfter     uint32        // consecutive probe successes that close it again
	ProbeLimit     uint32        // concurrent attempts admitted while half-open
	Cooldown       time.Duration // how long the breaker stays open before probing
	CountingWindow time.Duration // closed-state stats reset cadence; 0 keeps them forever

	// OnStateChange, when set, runs inside the breaker lock on every transition.
	OnStateChange func(name string, from, to State)
}

func defaultSettings() Settings {
	return Settings{
		TripAfter:      3,
		CloseAfter:     2,
		ProbeLimit:     5,
		Cooldown:       15 * time.Second,
		CountingWindow: 30 * time.Second,
	}
}

// Stats is a snapshot of the counters for the current epoch.
type Stats struct {
	Attempts   uint32
	Successes  uint32
	Failures   uint32
	SuccessRun uint32
	FailureRun uint32
}

// Breaker is a consecutive-failure circuit breaker. Counters belong to an
// epoch that is bumped on every state change and window reset, so an attempt
// admitted under one epoch cannot pollute the counters of the next.
type Breaker struct {
	name    string
	service string
	set     Settings
	log     *zap.Logger

	mu      sync.Mutex
	state   State
	epoch   uint64
	stats   Stats
	resetAt time.Time
}

func New(name, service string, set Settings, log *zap.Logger) *Breaker {
	def := defaultSettings()
	if set.TripAfter == 0 {
		set.TripAfter = def.TripAfter
	}
	if set.CloseAfter == 0 {
		set.CloseAfter = def.CloseAfter
	}
	if set.ProbeLimit == 0 {
		set.ProbeLimit = def.ProbeLimit
	}
	if set.Cooldown == 0 {
		set.Cooldown = def.Cooldown
	}
	if log == nil {
		log = zap.NewNop()
	}
	b := &Breaker{name: name, service: service, set: set, log: log}
	if set.CountingWindow > 0 {
		b.resetAt = time.Now().Add(set.CountingWindow)
	}
	breakerState.WithLabelValues(name, service).Set(float64(StateClosed))
	return b
}

// Do runs fn if the breaker admits the attempt. The error from fn is passed
// through; ErrOpen and ErrProbeLimit mean fn never ran.
func (b *Breaker) Do(fn func() error) error {
	epoch, err := b.admit()
	if err != nil {
		return err
	}

	defer func() {
		if r := recover(); r != nil {
			b.settle(epoch, false)
			panic(r)
		}
	}()

	err = fn()
	b.settle(epoch, err == nil)
	return err
}

// State reports the current position, applying any due cooldown transition.
func (b *Breaker) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.advance(time.Now())
	return b.state
}

// Stats returns the counters for the current epoch.
func (b *Breaker) Stats() Stats {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.stats
}

func (b *Breaker) admit() (uint64, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	now := time.Now()
	b.advance(now)

	switch {
	case b.state == StateOpen:
		b.observe("rejected")
		return b.epoch, ErrOpen
	case b.state == StateHalfOpen && b.stats.Attempts >= b.set.ProbeLimit:
		b.observe("rejected")
		return b.epoch, ErrProbeLimit
	}

	b.stats.Attempts++
	return b.epoch, nil
}

func (b *Breaker) settle(epoch uint64, ok bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	now := time.Now()
	b.advance(now)
	if epoch != b.epoch {
		// The epoch rolled while the call was in flight; its outcome no
		// longer says anything about the current window.
		return
	}

	if ok {
		b.observe("success")
		b.stats.Successes++
		b.stats.SuccessRun++
		b.stats.FailureRun = 0
		if b.state == StateHalfOpen && b.stats.SuccessRun >= b.set.CloseAfter {
			b.transition(StateClosed, now)
		}
		return
	}

	b.observe("failure")
	b.stats.Failures++
	b.stats.FailureRun++
	b.stats.SuccessRun = 0
	switch b.state {
	case StateClosed:
		if b.stats.FailureRun >= b.set.TripAfter {
			b.transition(StateOpen, now)
		}
	case StateHalfOpen:
		b.transition(StateOpen, now)
	}
}

// advance applies time-driven transitions. Callers hold the lock.
func (b *Breaker) advance(now time.Time) {
	switch b.state {
	case StateClosed:
		if !b.resetAt.IsZero() && now.After(b.resetAt) {
			b.epoch++
			b.stats = Stats{}
			b.resetAt = now.Add(b.set.CountingWindow)
		}
	case StateOpen:
		if now.After(b.resetAt) {
			b.transition(StateHalfOpen, now)
		}
	}
}

// transition moves to a new state, starting a fresh epoch. Callers hold the lock.
func (b *Breaker) transition(to State, now time.Time) {
	if b.state == to {
		return
	}
	from := b.state
	b.state = to
	b.epoch++
	b.stats = Stats{}

	switch to {
	case StateClosed:
		if b.set.CountingWindow > 0 {
			b.resetAt = now.Add(b.set.CountingWindow)
		} else {
			b.resetAt = time.Time{}
		}
	case StateOpen:
		b.resetAt = now.Add(b.set.Cooldown)
	default:
		b.resetAt = time.Time{}
	}

	breakerState.WithLabelValues(b.name, b.service).Set(float64(to))
	breakerTransitions.WithLabelValues(b.name, b.service, from.String(), to.String()).Inc()
	if to == StateOpen {
		breakerOpenSince.WithLabelValues(b.name, b.service).SetToCurrentTime()
	} else if from == StateOpen {
		breakerOpenSince.WithLabelValues(b.name, b.service).Set(0)
	}

	if b.set.OnStateChange != nil {
		b.set.OnStateChange(b.name, from, to)
	}
	b.log.Info("circuit breaker state changed",
		zap.String("name", b.name),
		zap.String("service", b.service),
		zap.String("from", from.String()),
		zap.String("to", to.String()),
	)
}

// observe counts one attempt outcome. Callers hold the lock.
func (b *Breaker) observe(result string) {
	breakerAttempts.WithLabelValues(b.name, b.service, b.state.String(), result).Inc()
}
