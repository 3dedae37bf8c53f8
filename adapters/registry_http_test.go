package adapters

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"myremoting/domain"
	"myremoting/handlers"
	"myremoting/helpers"
	"myremoting/service"

	"github.com/benbjohnson/clock"
	"github.com/go-kit/log"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRegistryServer(t *testing.T, registry *service.MemoryServiceRegistry) *httptest.Server {
	t.Helper()
	e := echo.New()
	service.RegisterErrorHandler(e, log.NewNopLogger())
	doc, err := handlers.GetSwagger()
	require.NoError(t, err)
	validator, err := handlers.OpenAPIRequestValidator(doc)
	require.NoError(t, err)
	e.Use(validator)
	handlers.RegisterHandlers(e, handlers.NewHTTPServer(registry, log.NewNopLogger()))
	srv := httptest.NewServer(e)
	t.Cleanup(srv.Close)
	return srv
}

func publisherProps(instance string) domain.ServiceProperties {
	return domain.ServiceProperties{
		domain.PropertyApplicationInstanceID: instance,
		domain.PropertyZone:                  "inventory",
		domain.PropertyPublished:             "true",
		domain.PropertyComponent:             domain.ComponentDirect,
	}
}

func TestServiceRegistryHTTP_Panics(t *testing.T) {
	assert.PanicsWithValue(t, "adapters.registry_http.go: baseURL is required", func() {
		ServiceRegistryHTTP("", http.DefaultClient)
	})
	assert.PanicsWithValue(t, "adapters.registry_http.go: http client is required", func() {
		ServiceRegistryHTTP("http://localhost", nil)
	})
}

func TestServiceRegistryHTTP_RoundTrip(t *testing.T) {
	ctx := context.Background()
	mock := clock.NewMock()
	mock.Set(helpers.TestNow())
	memory := service.NewMemoryServiceRegistry(mock, log.NewNopLogger(), nil)
	defer memory.Close()
	srv := newRegistryServer(t, memory)
	registry := ServiceRegistryHTTP(srv.URL, srv.Client())

	id, err := registry.Publish(ctx, "svc", "q", publisherProps("server-1"), 10*time.Second)
	require.NoError(t, err)
	require.NotEmpty(t, id)

	again, err := registry.Publish(ctx, "svc", "q", publisherProps("server-1"), 10*time.Second)
	require.NoError(t, err)
	assert.Equal(t, id, again)

	entries, err := registry.List(ctx, "svc", "q")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, id, entries[0].ID)
	assert.Equal(t, "server-1", entries[0].Properties.PublisherID())
	assert.Equal(t, 10*time.Second, entries[0].LeaseDuration)
	assert.True(t, mock.Now().Add(10*time.Second).Equal(entries[0].ExpiresAt))

	entries, err = registry.List(ctx, "svc", "")
	require.NoError(t, err)
	assert.Empty(t, entries)

	require.NoError(t, registry.Renew(ctx, id))

	mock.Add(10*time.Second + time.Millisecond)
	err = registry.Renew(ctx, id)
	assert.True(t, service.IsEntityNotFoundError(err))

	_, err = registry.Publish(ctx, "svc", "q", domain.ServiceProperties{}, time.Second)
	assert.True(t, service.IsBadParameterError(err))

	id, err = registry.Publish(ctx, "svc", "q", publisherProps("server-2"), 10*time.Second)
	require.NoError(t, err)
	require.NoError(t, registry.Unpublish(ctx, id))
	entries, err = registry.List(ctx, "svc", "q")
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestServiceRegistryHTTP_ErrorsWithoutEnvelope(t *testing.T) {
	ctx := context.Background()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/v1/renew/gone" {
			http.NotFound(w, r)
			return
		}
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()
	registry := ServiceRegistryHTTP(srv.URL, srv.Client())

	err := registry.Renew(ctx, "gone")
	assert.True(t, service.IsEntityNotFoundError(err))

	_, err = registry.List(ctx, "svc", "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "returned 502")
	assert.Nil(t, service.ToMyError(err))
}

func TestServiceRegistryHTTP_RuntimesShareRemoteRegistry(t *testing.T) {
	ctx := context.Background()
	memory := service.NewMemoryServiceRegistry(service.NewTimeProvider(service.UTCNow), log.NewNopLogger(), nil)
	defer memory.Close()
	srv := newRegistryServer(t, memory)
	directs := service.NewDirectRegistry()

	server, err := service.NewRuntime(localRuntimeConfig("server"), ServiceRegistryHTTP(srv.URL, srv.Client()), service.WithDirectRegistry(directs))
	require.NoError(t, err)
	require.NoError(t, server.Start(ctx))
	defer server.Close(ctx)

	client, err := service.NewRuntime(localRuntimeConfig("client"), ServiceRegistryHTTP(srv.URL, srv.Client()), service.WithDirectRegistry(directs))
	require.NoError(t, err)
	require.NoError(t, client.Start(ctx))
	defer client.Close(ctx)

	require.NoError(t, service.ExportService[Inventory](ctx, server, "", inventoryImpl{}, nil))
	require.NoError(t, service.RegisterServiceBean[Inventory](client, "", newInventoryProxy))

	waitCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	bean, err := service.WaitForBean[Inventory](waitCtx, client, "")
	require.NoError(t, err)
	stock, err := bean.Stock(ctx, "abc")
	require.NoError(t, err)
	assert.Equal(t, 3, stock)
}
