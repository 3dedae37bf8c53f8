package interfaces

// Codec serializes invocation arguments and results.
//
// Implemented by service.JSONCodec. Called from service.RemoteServiceInvoker and service.Method.
type Codec interface {
	Marshal(v any) ([]byte, error)
	Unmarshal(data []byte, v any) error
}
