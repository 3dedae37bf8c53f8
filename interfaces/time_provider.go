package interfaces

import "time"

// TimeProvider supplies the current time for lease bookkeeping.
// Injected so tests can drive expiry with a mock clock instead of sleeping.
//
// Used by service.serviceRegistry and myredis.serviceRegistry to stamp and check expires_at.
// *clock.Mock from github.com/benbjohnson/clock satisfies it in tests.
//
//go:generate moq -stub -out mock/time_provider.go -pkg mock . TimeProvider
type TimeProvider interface {
	// Now returns the current time (UTC in production).
	Now() time.Time
}
