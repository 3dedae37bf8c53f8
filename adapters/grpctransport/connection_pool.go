package grpctransport

import (
	"context"
	"errors"
	"sync"

	"myremoting/helpers"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

// ErrConnPoolClosed is returned by Get when the pool has been closed.
var ErrConnPoolClosed = errors.New("conn pool is closed")

// ConnFactory opens a client connection to address.
type ConnFactory func(ctx context.Context, address string) (*grpc.ClientConn, error)

// InsecureConnFactory dials without transport security; used for in-cluster traffic and tests.
func InsecureConnFactory(_ context.Context, address string) (*grpc.ClientConn, error) {
	return grpc.NewClient(address, grpc.WithTransportCredentials(insecure.NewCredentials()))
}

// ConnectionPool caches one client connection per provider address. Every TaskDispatcher dialed
// through the same pool shares its connections; OnFailure drops the connection of an address that
// stopped answering so the next call dials again. Fields: factory, logger; under mu: conns
// (address → conn), closed.
type ConnectionPool struct {
	factory ConnFactory
	logger  log.Logger

	mu     sync.Mutex
	conns  map[string]*grpc.ClientConn
	closed bool
}

// NewConnectionPool creates an empty pool. Panics on nil factory or logger.
//
// Parameters: factory: (ctx, address) → (*grpc.ClientConn, error), InsecureConnFactory in most
// wirings; logger: logger for dropped connections.
//
// Called from application wiring; the pool is handed to Dialer.
func NewConnectionPool(factory ConnFactory, logger log.Logger) *ConnectionPool {
	return &ConnectionPool{
		factory: helpers.NilPanic(factory, "grpctransport.connection_pool.go: factory is required"),
		logger:  log.With(helpers.NilPanic(logger, "grpctransport.connection_pool.go: logger is required"), "component", "connection_pool"),
		conns:   make(map[string]*grpc.ClientConn),
	}
}

// Get returns the cached connection of address or creates it via factory. On factory error the
// connection is not cached.
//
// Returns: (conn, nil) on success; (nil, ErrConnPoolClosed) after Close; (nil, error) on factory error.
//
// Called from TaskDispatcher.Dispatch for every partition call.
func (p *ConnectionPool) Get(ctx context.Context, address string) (*grpc.ClientConn, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil, ErrConnPoolClosed
	}
	if conn := p.conns[address]; conn != nil {
		return conn, nil
	}
	conn, err := p.factory(ctx, address)
	if err != nil {
		return nil, err
	}
	p.conns[address] = conn
	return conn, nil
}

// OnFailure closes and forgets the connection of address.
//
// Called from TaskDispatcher.Dispatch when a call ended with codes.Unavailable.
func (p *ConnectionPool) OnFailure(address string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if conn := p.conns[address]; conn != nil {
		_ = conn.Close()
		delete(p.conns, address)
		level.Debug(p.logger).Log("msg", "dropped connection", "address", address)
	}
}

// Len returns the number of cached connections.
func (p *ConnectionPool) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.conns)
}

// Close marks the pool closed and closes all cached connections. Idempotent.
func (p *ConnectionPool) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil
	}
	p.closed = true
	for _, conn := range p.conns {
		_ = conn.Close()
	}
	p.conns = map[string]*grpc.ClientConn{}
	return nil
}
