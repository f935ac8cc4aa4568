package resilience

import (
	"sync"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// ErrOpen is returned when a host's breaker rejects a call.
var ErrOpen = eris.New("resilience: circuit open")

// State of a Breaker.
type State int

const (
	Closed State = iota
	Open
	HalfOpen
)

func (s State) String() string {
	switch s {
	case Closed:
		return "closed"
	case Open:
		return "open"
	case HalfOpen:
		return "half-open"
	}
	return "unknown"
}

// Breaker stops calling a host after Threshold consecutive failures and
// lets a single probe through once Cooldown has elapsed.
type Breaker struct {
	name      string
	threshold int
	cooldown  time.Duration
	now       func() time.Time

	mu       sync.Mutex
	state    State
	failures int
	openedAt time.Time
}

// NewBreaker returns a closed breaker. threshold <= 0 disables tripping.
func NewBreaker(name string, threshold int, cooldown time.Duration) *Breaker {
	if cooldown <= 0 {
		cooldown = 30 * time.Second
	}
	return &Breaker{name: name, threshold: threshold, cooldown: cooldown, now: time.Now}
}

// Allow returns ErrOpen while the breaker is open and the cooldown has not
// elapsed. After the cooldown it moves to half-open and admits the caller
// as the probe.
func (b *Breaker) Allow() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.state != Open {
		return nil
	}
	if b.now().Sub(b.openedAt) < b.cooldown {
		return eris.Wrapf(ErrOpen, "host %s", b.name)
	}
	b.setState(HalfOpen)
	return nil
}

// Record feeds the outcome of an admitted call back into the breaker.
// Only transient failures count; a 404 says nothing about host health.
func (b *Breaker) Record(err error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if err == nil || !IsTransient(err) {
		b.failures = 0
		if b.state == HalfOpen {
			b.setState(Closed)
		}
		return
	}

	b.failures++
	if b.state == HalfOpen || (b.threshold > 0 && b.failures >= b.threshold) {
		b.openedAt = b.now()
		b.setState(Open)
	}
}

// State reports the current state.
func (b *Breaker) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

func (b *Breaker) setState(s State) {
	if b.state == s {
		return
	}
	zap.L().Info("resilience: breaker state change",
		zap.String("host", b.name),
		zap.Stringer("from", b.state),
		zap.Stringer("to", s),
	)
	b.state = s
}

// HostBreakers lazily creates one Breaker per host.
type HostBreakers struct {
	threshold int
	cooldown  time.Duration

	mu       sync.Mutex
	breakers map[string]*Breaker
}

// NewHostBreakers returns an empty registry sharing threshold and cooldown.
func NewHostBreakers(threshold int, cooldown time.Duration) *HostBreakers {
	return &HostBreakers{threshold: threshold, cooldown: cooldown, breakers: map[string]*Breaker{}}
}

// For returns the breaker for host.
func (h *HostBreakers) For(host string) *Breaker {
	h.mu.Lock()
	defer h.mu.Unlock()
	b, ok := h.breakers[host]
	if !ok {
		b = NewBreaker(host, h.threshold, h.cooldown)
		h.breakers[host] = b
	}
	return b
}

// Snapshot returns the state of every known host.
func (h *HostBreakers) Snapshot() map[string]State {
	h.mu.Lock()
	hosts := make(map[string]*Breaker, len(h.breakers))
	for k, v := range h.breakers {
		hosts[k] = v
	}
	h.mu.Unlock()

	out := make(map[string]State, len(hosts))
	for k, b := range hosts {
		out[k] = b.State()
	}
	return out
}
