package xbl

import (
	"sync/atomic"
	"time"
)

const (
	defaultAlivePeriod = 180 * time.Second
	maxAlivePeriod     = 900 * time.Second
)

// Session owns the key material and cancellation state for one bind
// attempt. Sessions are single-use: one Run per session, then discard.
type Session struct {
	key         *signingKey
	alivePeriod time.Duration
	active      atomic.Bool

	// cookies holds the correlation cookie set by the device-code
	// response. login.live.com ties polling calls to the device code
	// through it, not just through the code itself.
	cookies []string
}

// NewSession generates fresh key material and clamps the alive period.
// Zero or negative falls back to the default; anything above the cap is
// clamped rather than rejected, matching the upstream client.
func NewSession(alivePeriod time.Duration) (*Session, error) {
	key, err := newSigningKey()
	if err != nil {
		return nil, err
	}

	switch {
	case alivePeriod <= 0:
		alivePeriod = defaultAlivePeriod
	case alivePeriod > maxAlivePeriod:
		alivePeriod = maxAlivePeriod
	}

	s := &Session{
		key:         key,
		alivePeriod: alivePeriod,
	}
	s.active.Store(true)
	return s, nil
}

// Cancel asks the session to stop. Cancellation is cooperative: an
// in-flight remote call completes, but no new call is issued afterward.
func (s *Session) Cancel() {
	s.active.Store(false)
}

// Active reports whether the session may still issue remote calls.
func (s *Session) Active() bool {
	return s.active.Load()
}

// ProofKey returns the session's public key descriptor. Immutable for
// the session's lifetime.
func (s *Session) ProofKey() ProofKey {
	return s.key.proofKey
}

// AlivePeriod returns the clamped polling budget.
func (s *Session) AlivePeriod() time.Duration {
	return s.alivePeriod
}
