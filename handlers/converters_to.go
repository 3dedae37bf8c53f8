package handlers

import (
	"myremoting/domain"
)

// toEntriesResponse converts registry entries to API response.
func toEntriesResponse(entries []domain.RegistryEntry) EntriesResponse {
	out := make([]Entry, 0, len(entries))
	for _, e := range entries {
		props := e.Properties
		if props == nil {
			props = domain.ServiceProperties{}
		}
		out = append(out, Entry{
			EntryID:     e.ID,
			ServiceType: e.ServiceType,
			Qualifier:   e.Qualifier,
			Properties:  props,
			LeaseMs:     e.LeaseDuration.Milliseconds(),
			ExpiresAt:   e.ExpiresAt,
		})
	}
	return EntriesResponse{Entries: out}
}
