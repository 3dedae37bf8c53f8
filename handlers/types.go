package handlers

import "time"

// PublishRequest is the body of POST /v1/publish.
type PublishRequest struct {
	ServiceType string            `json:"service_type"`
	Qualifier   string            `json:"qualifier"`
	Properties  map[string]string `json:"properties"`
	LeaseMs     int64             `json:"lease_ms"`
}

// PublishResponse is the body answered by POST /v1/publish.
type PublishResponse struct {
	EntryID string `json:"entry_id"`
}

// Entry is one element of EntriesResponse.
type Entry struct {
	EntryID     string            `json:"entry_id"`
	ServiceType string            `json:"service_type"`
	Qualifier   string            `json:"qualifier"`
	Properties  map[string]string `json:"properties"`
	LeaseMs     int64             `json:"lease_ms"`
	ExpiresAt   time.Time         `json:"expires_at"`
}

// EntriesResponse is the body answered by GET /v1/entries.
type EntriesResponse struct {
	Entries []Entry `json:"entries"`
}
