package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"testing"

	"myremoting/domain"
	"myremoting/interfaces"
	"myremoting/interfaces/mock"

	"github.com/go-kit/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type performanceQuery struct {
	Account string `json:"account"`
}

type performance struct {
	Account string `json:"account"`
}

const performanceService = "myremoting/service.AccountPerformance"

// exporterTasks routes partition calls straight into exporter.
func exporterTasks(exporter *ServiceExporter, partitions int) *mock.TaskDispatcherMock {
	return &mock.TaskDispatcherMock{
		PartitionCountFunc: func() int { return partitions },
		DispatchFunc: func(ctx context.Context, partition int, req domain.InvocationRequest) (domain.InvocationResponse, error) {
			return exporter.Handle(ctx, req), nil
		},
	}
}

func newPerformanceExporter(t *testing.T) *ServiceExporter {
	t.Helper()
	codec := JSONCodec{}
	exporter := NewServiceExporter(log.NewNopLogger())
	require.NoError(t, exporter.Export(performanceService, interfaces.MethodTable{
		"Performance": Method(codec, func(ctx context.Context, q performanceQuery) (performance, error) {
			if q.Account == "" {
				return performance{}, NewBadParameterError("account is required", nil)
			}
			return performance{Account: q.Account}, nil
		}),
		"Panic": Method(codec, func(ctx context.Context, q performanceQuery) (performance, error) {
			panic("boom")
		}),
		"Plain": Method(codec, func(ctx context.Context, q performanceQuery) (string, error) {
			return "", errors.New("disk full")
		}),
	}))
	return exporter
}

func newPerformanceInvoker(t *testing.T, partitions int) *RemoteServiceInvoker {
	exporter := newPerformanceExporter(t)
	d := NewRemotingDispatcher(exporterTasks(exporter, partitions), NoFaultTolerance{}, "cmd", log.NewNopLogger(), nil)
	return NewRemoteServiceInvoker(performanceService, d, JSONCodec{})
}

func TestNewRemoteServiceInvoker_Panics(t *testing.T) {
	d := NewRemotingDispatcher(echoTasks(1), NoFaultTolerance{}, "cmd", log.NewNopLogger(), nil)
	assert.PanicsWithValue(t, "service.remote_invoker.go: service is required", func() {
		NewRemoteServiceInvoker("", d, JSONCodec{})
	})
	assert.PanicsWithValue(t, "service.remote_invoker.go: transport is required", func() {
		NewRemoteServiceInvoker("svc", nil, JSONCodec{})
	})
	assert.PanicsWithValue(t, "service.remote_invoker.go: codec is required", func() {
		NewRemoteServiceInvoker("svc", d, nil)
	})
}

func TestInvokeRouted(t *testing.T) {
	inv := newPerformanceInvoker(t, 4)
	assert.Equal(t, performanceService, inv.Service())
	assert.Equal(t, 4, inv.PartitionCount())

	got, err := InvokeRouted[performanceQuery, performance](inv, "Performance", domain.RoutingKeyOf("acc-1"), performanceQuery{Account: "acc-1"}).Await(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "acc-1", got.Account)
}

func TestInvokeRouted_RemoteErrorsAreTyped(t *testing.T) {
	inv := newPerformanceInvoker(t, 2)
	ctx := context.Background()
	key := domain.RoutingKeyOf("acc-1")

	_, err := InvokeRouted[performanceQuery, performance](inv, "Performance", key, performanceQuery{}).Await(ctx)
	assert.True(t, IsBadParameterError(err))
	assert.Contains(t, err.Error(), "account is required")

	_, err = InvokeRouted[performanceQuery, performance](inv, "Missing", key, performanceQuery{}).Await(ctx)
	assert.True(t, IsBadParameterError(err))

	_, err = InvokeRouted[performanceQuery, performance](inv, "Panic", key, performanceQuery{}).Await(ctx)
	assert.True(t, IsInternalServerError(err))

	_, err = InvokeRouted[performanceQuery, string](inv, "Plain", key, performanceQuery{}).Await(ctx)
	assert.True(t, IsInternalServerError(err))
	assert.Contains(t, err.Error(), "disk full")

	other := NewRemoteServiceInvoker("myremoting/service.Unknown", NewRemotingDispatcher(exporterTasks(newPerformanceExporter(t), 2), NoFaultTolerance{}, "cmd", log.NewNopLogger(), nil), JSONCodec{})
	_, err = InvokeRouted[performanceQuery, performance](other, "Performance", key, performanceQuery{Account: "a"}).Await(ctx)
	assert.True(t, IsServiceUnavailableError(err))
}

func TestInvokeRouted_EncodeFailure(t *testing.T) {
	inv := newPerformanceInvoker(t, 1)
	_, err := InvokeRouted[chan int, performance](inv, "Performance", domain.RoutingKeyOf("a"), make(chan int)).Await(context.Background())
	assert.True(t, IsBadParameterError(err))
}

func TestInvokeRoutedMany(t *testing.T) {
	inv := newPerformanceInvoker(t, 3)
	var args []RoutedArg[performanceQuery]
	var want []string
	for i := 0; i < 5; i++ {
		acc := fmt.Sprintf("acc-%d", i)
		args = append(args, RoutedArg[performanceQuery]{Key: domain.RoutingKeyOf(acc), Arg: performanceQuery{Account: acc}})
		want = append(want, acc)
	}

	got, err := InvokeRoutedMany[performanceQuery, performance](inv, "Performance", args).Await(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 5)
	var accounts []string
	for _, p := range got {
		accounts = append(accounts, p.Account)
	}
	sort.Strings(accounts)
	assert.Equal(t, want, accounts)

	empty, err := InvokeRoutedMany[performanceQuery, performance](inv, "Performance", nil).Await(context.Background())
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestInvokeRoutedMany_OneFailureFailsBatch(t *testing.T) {
	inv := newPerformanceInvoker(t, 3)
	args := []RoutedArg[performanceQuery]{
		{Key: domain.RoutingKeyOf("a"), Arg: performanceQuery{Account: "a"}},
		{Key: domain.RoutingKeyOf("b"), Arg: performanceQuery{}},
	}
	got, err := InvokeRoutedMany[performanceQuery, performance](inv, "Performance", args).Await(context.Background())
	assert.True(t, IsBadParameterError(err))
	assert.Nil(t, got)
}

func TestInvokeBroadcast(t *testing.T) {
	inv := newPerformanceInvoker(t, 3)
	got, err := InvokeBroadcast[performanceQuery, performance](inv, "Performance", performanceQuery{Account: "all"}).Await(context.Background())
	require.NoError(t, err)
	assert.Len(t, got, 3)
}

func TestServiceExporter_Export(t *testing.T) {
	e := NewServiceExporter(log.NewNopLogger())
	noop := func(ctx context.Context, payload []byte) ([]byte, error) { return nil, nil }

	assert.True(t, IsBadParameterError(e.Export("", interfaces.MethodTable{"m": noop})))
	assert.True(t, IsBadParameterError(e.Export("svc", nil)))
	assert.True(t, IsBadParameterError(e.Export("svc", interfaces.MethodTable{"m": nil})))

	require.NoError(t, e.Export("svc", interfaces.MethodTable{"m": noop}))
	assert.True(t, IsConfigurationError(e.Export("svc", interfaces.MethodTable{"m": noop})))
	require.NoError(t, e.Export("another", interfaces.MethodTable{"m": noop}))
	assert.Equal(t, []string{"another", "svc"}, e.Services())

	e.Unexport("svc")
	resp := e.Handle(context.Background(), domain.InvocationRequest{Service: "svc", Method: "m", CorrelationID: "c-9"})
	assert.Equal(t, "c-9", resp.CorrelationID)
	assert.Equal(t, ErrServiceUnavailable, resp.ErrorCode)
}

func TestMethod_BadPayload(t *testing.T) {
	h := Method(JSONCodec{}, func(ctx context.Context, q performanceQuery) (performance, error) {
		return performance{}, nil
	})
	_, err := h(context.Background(), []byte("{not json"))
	assert.True(t, IsBadParameterError(err))
}

func TestServiceExporter_PartitionFromContext(t *testing.T) {
	exporter := NewServiceExporter(log.NewNopLogger())
	require.NoError(t, exporter.Export("partitioned", interfaces.MethodTable{
		"Where": Method(JSONCodec{}, func(ctx context.Context, _ struct{}) (int, error) {
			p, ok := PartitionFromContext(ctx)
			if !ok {
				return -1, nil
			}
			return p, nil
		}),
	}))
	d := NewRemotingDispatcher(exporterTasks(exporter, 4), NoFaultTolerance{}, "cmd", log.NewNopLogger(), nil)
	inv := NewRemoteServiceInvoker("partitioned", d, JSONCodec{})

	got, err := InvokeBroadcast[struct{}, int](inv, "Where", struct{}{}).Await(context.Background())
	require.NoError(t, err)
	assert.ElementsMatch(t, []int{0, 1, 2, 3}, got)

	_, ok := PartitionFromContext(context.Background())
	assert.False(t, ok)
}
