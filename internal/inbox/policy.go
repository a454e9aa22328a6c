package inbox

import "time"

// State is the connection state of a Socket.
type State int

const (
	Disconnected State = iota
	Connecting
	Connected
	Reconnecting
)

func (s State) String() string {
	switch s {
	case Disconnected:
		return "disconnected"
	case Connecting:
		return "connecting"
	case Connected:
		return "connected"
	case Reconnecting:
		return "reconnecting"
	default:
		return "unknown"
	}
}

// MinDelay is the shortest wait between reconnect attempts, whatever the
// policy says.
const MinDelay = 50 * time.Millisecond

// Policy controls reconnection. MaxAttempts counts consecutive failed
// attempts; zero or less means retry forever.
type Policy struct {
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64
	MaxAttempts  int
}

func DefaultPolicy() Policy {
	return Policy{
		InitialDelay: time.Second,
		MaxDelay:     30 * time.Second,
		Multiplier:   2,
		MaxAttempts:  10,
	}
}

// Delay returns the wait before the given attempt (1-based).
func (p Policy) Delay(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	mult := p.Multiplier
	if mult < 1 {
		mult = 1
	}
	d := float64(p.InitialDelay)
	for i := 1; i < attempt; i++ {
		d *= mult
		if p.MaxDelay > 0 && d >= float64(p.MaxDelay) {
			return max(p.MaxDelay, MinDelay)
		}
	}
	if p.MaxDelay > 0 && time.Duration(d) > p.MaxDelay {
		d = float64(p.MaxDelay)
	}
	return max(time.Duration(d), MinDelay)
}

// exhausted reports whether attempt exceeds the policy limit.
func (p Policy) exhausted(attempt int) bool {
	return p.MaxAttempts > 0 && attempt > p.MaxAttempts
}
