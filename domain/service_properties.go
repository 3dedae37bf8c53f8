package domain

import (
	"encoding/hex"
	"sort"
	"strconv"

	"github.com/spaolacci/murmur3"
)

// Well-known service property names.
const (
	PropertyComponent             = "component"
	PropertyZone                  = "zone"
	PropertyPublished             = "published"
	PropertyAPIVersion            = "apiVersion"
	PropertyServiceType           = "serviceType"
	PropertyQualifier             = "qualifier"
	PropertyApplicationInstanceID = "applicationInstanceId"
	PropertyPublicAPI             = "publicApi"
)

// ServiceProperties describe how to reach a published provider. JSON encoding of the map sorts keys,
// so the serialized form is stable.
type ServiceProperties map[string]string

// Clone returns an independent copy. Clone of nil is an empty map.
func (p ServiceProperties) Clone() ServiceProperties {
	out := make(ServiceProperties, len(p))
	for k, v := range p {
		out[k] = v
	}
	return out
}

// With returns a copy with key set to value.
func (p ServiceProperties) With(key, value string) ServiceProperties {
	out := p.Clone()
	out[key] = value
	return out
}

// Keys returns property names in ascending order.
func (p ServiceProperties) Keys() []string {
	keys := make([]string, 0, len(p))
	for k := range p {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Fingerprint hashes every property in key order. Equal property sets give equal fingerprints.
func (p ServiceProperties) Fingerprint() string {
	h := murmur3.New128()
	for _, k := range p.Keys() {
		_, _ = h.Write([]byte(k))
		_, _ = h.Write([]byte{0})
		_, _ = h.Write([]byte(p[k]))
		_, _ = h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil))
}

// Component names the service component that can bind to the provider.
func (p ServiceProperties) Component() string {
	return p[PropertyComponent]
}

// Zone returns the parsed zone of the provider.
func (p ServiceProperties) Zone() Zone {
	return ParseZone(p[PropertyZone])
}

// IsPublished reports whether the provider currently takes live traffic. Missing or malformed means false.
func (p ServiceProperties) IsPublished() bool {
	return parseBool(p[PropertyPublished])
}

// IsPublicAPI reports whether the provider may be consumed from other subsystems.
func (p ServiceProperties) IsPublicAPI() bool {
	return parseBool(p[PropertyPublicAPI])
}

// PublisherID is the application instance that published the entry.
func (p ServiceProperties) PublisherID() string {
	return p[PropertyApplicationInstanceID]
}

func parseBool(s string) bool {
	b, err := strconv.ParseBool(s)
	return err == nil && b
}
