package grpctransport

import (
	"context"
	"errors"
	"net"
	"testing"
	"time"

	"myremoting/domain"
	"myremoting/interfaces"
	"myremoting/interfaces/mock"
	"myremoting/service"

	"github.com/go-kit/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

type quote struct {
	Symbol string  `json:"symbol"`
	Price  float64 `json:"price"`
}

// QuoteService is the remote service used by the transport tests.
type QuoteService interface {
	Quote(ctx context.Context, symbol string) (quote, error)
}

type quoteImpl struct{}

func (quoteImpl) Quote(ctx context.Context, symbol string) (quote, error) {
	switch symbol {
	case "":
		return quote{}, service.NewBadParameterError("symbol is required", nil)
	case "slow":
		select {
		case <-time.After(2 * time.Second):
		case <-ctx.Done():
			return quote{}, ctx.Err()
		}
	}
	p, _ := service.PartitionFromContext(ctx)
	return quote{Symbol: symbol, Price: float64(p)}, nil
}

func quoteMethods(impl QuoteService) interfaces.MethodTable {
	return interfaces.MethodTable{"Quote": service.Method(service.JSONCodec{}, impl.Quote)}
}

type quoteStub struct {
	inv *service.RemoteServiceInvoker
}

func (s quoteStub) Quote(ctx context.Context, symbol string) (quote, error) {
	return service.InvokeRouted[string, quote](s.inv, "Quote", domain.RoutingKeyOf(symbol), symbol).Await(ctx)
}

type quoteProxy struct {
	bean *service.StatefulBean[QuoteService]
}

func newQuoteProxy(bean *service.StatefulBean[QuoteService]) QuoteService {
	return quoteProxy{bean: bean}
}

func (p quoteProxy) Quote(ctx context.Context, symbol string) (quote, error) {
	return service.Call(p.bean, func(q QuoteService) (quote, error) { return q.Quote(ctx, symbol) })
}

// startServer serves handler on a random loopback port and returns its address.
func startServer(t *testing.T, handler interfaces.InvocationHandler) string {
	t.Helper()
	lis, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	gs := grpc.NewServer(grpc.ChainUnaryInterceptor(ErrorToGRPCUnaryInterceptor(log.NewNopLogger())))
	NewServer(handler, log.NewNopLogger()).Register(gs)
	go func() { _ = gs.Serve(lis) }()
	t.Cleanup(gs.Stop)
	return lis.Addr().String()
}

func newQuoteExporter(t *testing.T) *service.ServiceExporter {
	t.Helper()
	exporter := service.NewServiceExporter(log.NewNopLogger())
	require.NoError(t, exporter.Export("quotes", quoteMethods(quoteImpl{})))
	return exporter
}

func newPool(t *testing.T) *ConnectionPool {
	t.Helper()
	pool := NewConnectionPool(InsecureConnFactory, log.NewNopLogger())
	t.Cleanup(func() { _ = pool.Close() })
	return pool
}

func TestConstructors_Panic(t *testing.T) {
	assert.PanicsWithValue(t, "grpctransport.server.go: handler is required", func() {
		NewServer(nil, log.NewNopLogger())
	})
	assert.PanicsWithValue(t, "grpctransport.connection_pool.go: factory is required", func() {
		NewConnectionPool(nil, log.NewNopLogger())
	})
	assert.PanicsWithValue(t, "grpctransport.dispatcher.go: pool is required", func() {
		_, _ = NewTaskDispatcher(nil, []string{"a"}, 0)
	})
}

func TestNewTaskDispatcher(t *testing.T) {
	pool := newPool(t)

	_, err := NewTaskDispatcher(pool, []string{" ", ""}, 0)
	assert.True(t, service.IsBadParameterError(err))
	_, err = NewTaskDispatcher(pool, []string{"a:1"}, -1)
	assert.True(t, service.IsBadParameterError(err))

	d, err := NewTaskDispatcher(pool, []string{"a:1", " b:2 "}, 0)
	require.NoError(t, err)
	assert.Equal(t, 2, d.PartitionCount())
	assert.Equal(t, []string{"a:1", "b:2"}, d.addresses)

	d, err = NewTaskDispatcher(pool, []string{"a:1"}, 8)
	require.NoError(t, err)
	assert.Equal(t, 8, d.PartitionCount())
}

func TestDialer(t *testing.T) {
	ctx := context.Background()
	dial := Dialer(newPool(t))

	_, err := dial(ctx, domain.ServiceProperties{})
	assert.True(t, service.IsBadParameterError(err))
	_, err = dial(ctx, domain.ServiceProperties{PropertyAddresses: "a:1", PropertyPartitions: "x"})
	assert.True(t, service.IsBadParameterError(err))

	d, err := dial(ctx, AdvertisedProperties([]string{"a:1", "b:2"}, 4))
	require.NoError(t, err)
	assert.Equal(t, 4, d.PartitionCount())

	props := AdvertisedProperties([]string{"a:1"}, 0)
	assert.Equal(t, domain.ServiceProperties{PropertyAddresses: "a:1"}, props)
}

func TestTaskDispatcher_Dispatch(t *testing.T) {
	ctx := context.Background()
	addr := startServer(t, newQuoteExporter(t))
	pool := newPool(t)
	d, err := NewTaskDispatcher(pool, []string{addr}, 3)
	require.NoError(t, err)

	t.Run("payload and partition reach the handler", func(t *testing.T) {
		resp, err := d.Dispatch(ctx, 2, domain.InvocationRequest{Service: "quotes", Method: "Quote", Payload: []byte(`"ACME"`), CorrelationID: "c-1"})
		require.NoError(t, err)
		assert.False(t, resp.Failed())
		assert.Equal(t, "c-1", resp.CorrelationID)
		assert.JSONEq(t, `{"symbol":"ACME","price":2}`, string(resp.Payload))
		assert.Equal(t, 1, pool.Len())
	})

	t.Run("application errors travel in headers", func(t *testing.T) {
		resp, err := d.Dispatch(ctx, 0, domain.InvocationRequest{Service: "quotes", Method: "Quote", Payload: []byte(`""`)})
		require.NoError(t, err)
		assert.Equal(t, service.ErrBadParameter, resp.ErrorCode)
		assert.Equal(t, "symbol is required", resp.ErrorMessage)
	})

	t.Run("unknown service", func(t *testing.T) {
		resp, err := d.Dispatch(ctx, 0, domain.InvocationRequest{Service: "nope", Method: "Quote"})
		require.NoError(t, err)
		assert.Equal(t, service.ErrServiceUnavailable, resp.ErrorCode)
	})

	t.Run("partition out of range", func(t *testing.T) {
		_, err := d.Dispatch(ctx, 3, domain.InvocationRequest{Service: "quotes", Method: "Quote"})
		assert.True(t, service.IsBadParameterError(err))
	})

	t.Run("missing routing metadata", func(t *testing.T) {
		_, err := d.Dispatch(ctx, 0, domain.InvocationRequest{Method: "Quote"})
		assert.True(t, service.IsBadParameterError(err))
	})

	t.Run("caller cancellation", func(t *testing.T) {
		cctx, cancel := context.WithTimeout(ctx, 50*time.Millisecond)
		defer cancel()
		_, err := d.Dispatch(cctx, 0, domain.InvocationRequest{Service: "quotes", Method: "Quote", Payload: []byte(`"slow"`)})
		require.Error(t, err)
		assert.True(t, service.IsTimeoutError(err) || errors.Is(err, context.DeadlineExceeded), "got %v", err)
	})
}

func TestServer_RoutingMetadataRoundTrip(t *testing.T) {
	handler := &mock.InvocationHandlerMock{
		HandleFunc: func(ctx context.Context, req domain.InvocationRequest) domain.InvocationResponse {
			return domain.InvocationResponse{CorrelationID: req.CorrelationID, ErrorCode: service.ErrEntityNotFound, ErrorMessage: "konto saknas: åäö"}
		},
	}
	addr := startServer(t, handler)
	d, err := NewTaskDispatcher(newPool(t), []string{addr}, 4)
	require.NoError(t, err)

	resp, err := d.Dispatch(context.Background(), 3, domain.InvocationRequest{Service: "accounts", Method: "Balance", Payload: []byte(`"a-1"`), CorrelationID: "c-9"})
	require.NoError(t, err)
	assert.Equal(t, "c-9", resp.CorrelationID)
	assert.Equal(t, service.ErrEntityNotFound, resp.ErrorCode)
	assert.Equal(t, "konto saknas: åäö", resp.ErrorMessage)

	require.Len(t, handler.HandleCalls(), 1)
	assert.Equal(t, domain.InvocationRequest{
		Service:       "accounts",
		Method:        "Balance",
		Payload:       []byte(`"a-1"`),
		CorrelationID: "c-9",
		Partition:     3,
	}, handler.HandleCalls()[0].Req)
}

func TestTaskDispatcher_UnreachablePeer(t *testing.T) {
	lis, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := lis.Addr().String()
	require.NoError(t, lis.Close())

	pool := newPool(t)
	d, err := NewTaskDispatcher(pool, []string{addr}, 1)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	_, err = d.Dispatch(ctx, 0, domain.InvocationRequest{Service: "quotes", Method: "Quote"})
	assert.True(t, service.IsServiceUnavailableError(err))
	assert.Equal(t, 0, pool.Len(), "failed connection is dropped")
}

func TestConnectionPool(t *testing.T) {
	ctx := context.Background()
	dials := 0
	pool := NewConnectionPool(func(ctx context.Context, address string) (*grpc.ClientConn, error) {
		dials++
		if address == "bad" {
			return nil, errors.New("dial failed")
		}
		return InsecureConnFactory(ctx, address)
	}, log.NewNopLogger())

	c1, err := pool.Get(ctx, "127.0.0.1:1")
	require.NoError(t, err)
	c2, err := pool.Get(ctx, "127.0.0.1:1")
	require.NoError(t, err)
	assert.Same(t, c1, c2)
	assert.Equal(t, 1, dials)

	_, err = pool.Get(ctx, "bad")
	require.Error(t, err)
	assert.Equal(t, 1, pool.Len())

	pool.OnFailure("127.0.0.1:1")
	assert.Equal(t, 0, pool.Len())

	require.NoError(t, pool.Close())
	require.NoError(t, pool.Close())
	_, err = pool.Get(ctx, "127.0.0.1:1")
	assert.ErrorIs(t, err, ErrConnPoolClosed)
}

func TestErrorToGRPC(t *testing.T) {
	tests := []struct {
		name string
		err  error
		code codes.Code
	}{
		{name: "nil", err: nil, code: codes.OK},
		{name: "status kept", err: status.Error(codes.PermissionDenied, "no"), code: codes.PermissionDenied},
		{name: "bad parameter", err: service.NewBadParameterError("x", nil), code: codes.InvalidArgument},
		{name: "not found", err: service.NewEntityNotFoundError("x", nil), code: codes.NotFound},
		{name: "unavailable", err: service.NewServiceUnavailableError("x", nil), code: codes.Unavailable},
		{name: "rejected", err: service.NewMyError(service.ErrRejected, "x", nil), code: codes.ResourceExhausted},
		{name: "deadline", err: context.DeadlineExceeded, code: codes.DeadlineExceeded},
		{name: "plain", err: errors.New("boom"), code: codes.Internal},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.code, status.Code(errorToGRPC(tt.err)))
		})
	}
}

func TestGRPCToError(t *testing.T) {
	assert.Nil(t, grpcToError(nil))
	assert.True(t, service.IsServiceUnavailableError(grpcToError(status.Error(codes.Unavailable, "down"))))
	assert.True(t, service.IsServiceUnavailableError(grpcToError(status.Error(codes.Unimplemented, "gone"))))
	assert.True(t, service.IsBadParameterError(grpcToError(status.Error(codes.InvalidArgument, "bad"))))
	assert.True(t, service.IsTimeoutError(grpcToError(status.Error(codes.DeadlineExceeded, "slow"))))
	assert.ErrorIs(t, grpcToError(status.Error(codes.Canceled, "stop")), context.Canceled)
	assert.True(t, service.IsRemoteFailureError(grpcToError(status.Error(codes.Internal, "boom"))))
	assert.True(t, service.IsRemoteFailureError(grpcToError(errors.New("plain"))))
}

func grpcRuntimeConfig(instance string) domain.Config {
	cfg := domain.DefaultConfig()
	cfg.ApplicationInstanceID = instance
	cfg.Subsystem = "quotes"
	cfg.LeaseDuration = 2 * time.Second
	cfg.RenewInterval = 20 * time.Millisecond
	cfg.BindInterval = 20 * time.Millisecond
	cfg.BindTimeout = 500 * time.Millisecond
	return cfg
}

func TestRuntimesOverGRPC(t *testing.T) {
	ctx := context.Background()
	registry := service.NewMemoryServiceRegistry(service.NewTimeProvider(service.UTCNow), log.NewNopLogger(), nil)
	defer registry.Close()
	pool := newPool(t)

	exporter := service.NewServiceExporter(log.NewNopLogger())
	addr := startServer(t, exporter)

	serverCfg := grpcRuntimeConfig("server")
	serverCfg.ServiceComponent = "grpc"
	server, err := service.NewRuntime(serverCfg, registry, service.WithRemoting(service.RemotingSpec{
		Name:       "grpc",
		Exporter:   exporter,
		Advertised: AdvertisedProperties([]string{addr}, 2),
		Dial:       Dialer(pool),
	}))
	require.NoError(t, err)
	require.NoError(t, server.Start(ctx))
	defer server.Close(ctx)

	client, err := service.NewRuntime(grpcRuntimeConfig("client"), registry, service.WithRemoting(service.RemotingSpec{
		Name: "grpc",
		Dial: Dialer(pool),
	}))
	require.NoError(t, err)
	require.NoError(t, client.Start(ctx))
	defer client.Close(ctx)

	var impl QuoteService = quoteImpl{}
	require.NoError(t, service.ExportService(ctx, server, "", impl, quoteMethods(impl)))
	service.RegisterRemoteStub(client, func(inv *service.RemoteServiceInvoker) QuoteService { return quoteStub{inv: inv} })
	require.NoError(t, service.RegisterServiceBean[QuoteService](client, "", newQuoteProxy))

	waitCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	bean, err := service.WaitForBean[QuoteService](waitCtx, client, "")
	require.NoError(t, err)

	q, err := bean.Quote(ctx, "ACME")
	require.NoError(t, err)
	assert.Equal(t, "ACME", q.Symbol)
	assert.Equal(t, float64(domain.RoutingKeyOf("ACME").Partition(2)), q.Price)

	_, err = bean.Quote(ctx, "")
	assert.True(t, service.IsBadParameterError(err))

	admin, err := client.ServiceAdministrator(ctx, "server")
	require.NoError(t, err)
	require.NoError(t, admin.SetPublishServices(ctx, false))
	published, err := admin.PublishServices(ctx)
	require.NoError(t, err)
	assert.False(t, published)
}
