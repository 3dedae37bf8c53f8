package domain

import "time"

// RegistryEntry is one published provider of (ServiceType, Qualifier) held under a lease.
// The entry is visible while now <= ExpiresAt.
type RegistryEntry struct {
	ID            string            `json:"id"`
	ServiceType   string            `json:"service_type"`
	Qualifier     string            `json:"qualifier"`
	Properties    ServiceProperties `json:"properties"`
	LeaseDuration time.Duration     `json:"lease_duration"`
	ExpiresAt     time.Time         `json:"expires_at"`
}

// IsExpired reports whether the lease ran out at now. The boundary instant itself is still live.
func (e RegistryEntry) IsExpired(now time.Time) bool {
	return now.After(e.ExpiresAt)
}

// Clone returns a copy that shares no mutable state with e.
func (e RegistryEntry) Clone() RegistryEntry {
	e.Properties = e.Properties.Clone()
	return e
}
