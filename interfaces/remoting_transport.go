package interfaces

import (
	"myremoting/domain"
	"myremoting/stream"
)

// RemotingTransport is the transport SPI consumed by remote service stubs. Every operation returns a
// lazy stream: nothing is sent before the stream is subscribed.
//
// Implemented by service.remotingDispatcher. Called from service.RemoteServiceInvoker.
type RemotingTransport interface {
	// SubmitRoutedRequest sends req to the partition selected by key and yields its response.
	SubmitRoutedRequest(req domain.InvocationRequest, key domain.RoutingKey) *stream.Stream[domain.InvocationResponse]

	// SubmitRoutedRequests sends every request to its own partition concurrently and yields all responses
	// in completion order. Fails as a whole when any call fails. Empty input yields an empty list
	// without touching the transport.
	SubmitRoutedRequests(reqs []domain.RoutedRequest) *stream.Stream[[]domain.InvocationResponse]

	// SubmitBroadcastRequest sends req to every partition and yields one response per partition.
	SubmitBroadcastRequest(req domain.InvocationRequest) *stream.Stream[[]domain.InvocationResponse]

	// PartitionCount returns the partition count of the underlying transport, never cached.
	PartitionCount() int
}
