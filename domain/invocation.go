package domain

import "github.com/spaolacci/murmur3"

// RoutingKey selects one partition. Equal keys land on the same partition for a given partition count.
type RoutingKey struct {
	hash uint32
}

// RoutingKeyOf derives a routing key from an application value (an account id, an order id).
func RoutingKeyOf(value string) RoutingKey {
	// The streaming hasher reads blocks through slice elements; the one-shot Sum32 walks a uintptr,
	// which the race detector's pointer checks reject.
	h := murmur3.New32()
	_, _ = h.Write([]byte(value))
	return RoutingKey{hash: h.Sum32()}
}

// Partition maps the key onto [0, count). A non-positive count yields 0.
func (k RoutingKey) Partition(count int) int {
	if count <= 0 {
		return 0
	}
	return int(k.hash % uint32(count))
}

// InvocationRequest is a serialized method call: service identity, method identifier, argument payload
// and correlation id. Partition is filled in by the dispatcher before the request leaves the process.
type InvocationRequest struct {
	Service       string `json:"service"`
	Method        string `json:"method"`
	Payload       []byte `json:"payload,omitempty"`
	CorrelationID string `json:"correlation_id"`
	Partition     int    `json:"partition"`
}

// InvocationResponse carries either a result payload or an error indicator (ErrorCode non-empty).
type InvocationResponse struct {
	CorrelationID string `json:"correlation_id"`
	Payload       []byte `json:"payload,omitempty"`
	ErrorCode     string `json:"error_code,omitempty"`
	ErrorMessage  string `json:"error_message,omitempty"`
}

// Failed reports whether the response carries an error indicator.
func (r InvocationResponse) Failed() bool {
	return r.ErrorCode != ""
}

// RoutedRequest pairs a request with the key deciding its partition.
type RoutedRequest struct {
	Request    InvocationRequest
	RoutingKey RoutingKey
}
