package transport

import (
	"math/rand"
	"sync"
	"time"
)

// Redial backoff defaults.
const (
	// InitialBackoff is the delay before the first redial.
	InitialBackoff = 500 * time.Millisecond

	// MaxBackoff caps the redial delay.
	MaxBackoff = 30 * time.Second

	// BackoffMultiplier grows the delay between consecutive failures.
	BackoffMultiplier = 2.0

	// JitterFactor is the maximum jitter as a fraction of the base delay.
	JitterFactor = 0.25
)

// Backoff computes exponential redial delays with jitter. Safe for
// concurrent use.
type Backoff struct {
	mu       sync.Mutex
	current  time.Duration
	initial  time.Duration
	max      time.Duration
	attempts int
	rng      *rand.Rand
}

// NewBackoff creates a backoff with the default schedule.
func NewBackoff() *Backoff {
	return &Backoff{
		current: InitialBackoff,
		initial: InitialBackoff,
		max:     MaxBackoff,
		rng:     rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Next returns the next jittered delay and advances the schedule.
func (b *Backoff) Next() time.Duration {
	b.mu.Lock()
	defer b.mu.Unlock()

	delay := b.addJitter(b.current)

	b.attempts++
	next := time.Duration(float64(b.current) * BackoffMultiplier)
	if next > b.max {
		next = b.max
	}
	b.current = next

	return delay
}

// Reset restores the initial delay. Call after a successful handshake.
func (b *Backoff) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.current = b.initial
	b.attempts = 0
}

// Attempts returns the number of delays issued since the last reset.
func (b *Backoff) Attempts() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.attempts
}

func (b *Backoff) addJitter(d time.Duration) time.Duration {
	return d + time.Duration(float64(d)*JitterFactor*b.rng.Float64())
}
