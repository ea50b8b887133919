package connmgr

import "time"

const (
	backoffStart = 1 * time.Second
	backoffCap   = 5 * time.Minute
)

// Backoff tracks the reconnect delay for one remote address: it starts
// at 1 second, doubles on every failed attempt, caps at 5 minutes, and
// resets back to the start the moment the address reaches Ready.
type Backoff struct {
	next time.Duration
}

// NewBackoff returns a Backoff ready to hand out its first delay.
func NewBackoff() *Backoff {
	return &Backoff{next: backoffStart}
}

// Next returns the delay to wait before the next connection attempt,
// then doubles it (capped at backoffCap) for the attempt after that.
func (b *Backoff) Next() time.Duration {
	d := b.next
	b.next *= 2
	if b.next > backoffCap {
		b.next = backoffCap
	}
	return d
}

// Reset returns the schedule to its starting delay, called after a
// connection reaches the Ready state.
func (b *Backoff) Reset() {
	b.next = backoffStart
}
