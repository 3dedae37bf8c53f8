package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"myremoting/domain"
	"myremoting/interfaces"
	"myremoting/interfaces/mock"

	"github.com/go-kit/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mutableLookup returns whatever entry was set last.
type mutableLookup struct {
	mu    sync.Mutex
	entry domain.RegistryEntry
	found bool
	err   error
}

func (l *mutableLookup) set(entry domain.RegistryEntry, found bool, err error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entry, l.found, l.err = entry, found, err
}

func (l *mutableLookup) mock() *mock.ServiceLookupMock {
	return &mock.ServiceLookupMock{
		LookupFunc: func(ctx context.Context, key domain.BeanKey) (domain.RegistryEntry, bool, error) {
			l.mu.Lock()
			defer l.mu.Unlock()
			return l.entry, l.found, l.err
		},
	}
}

func greeterEntry(id, partitions string) domain.RegistryEntry {
	return domain.RegistryEntry{
		ID:          id,
		ServiceType: domain.KeyOf[Greeter]("").TypeName(),
		Properties: domain.ServiceProperties{
			domain.PropertyComponent: "grpc",
			"grpc.addresses":         "10.0.0.1:9090",
			"grpc.partitions":        partitions,
		},
	}
}

// greeterComponent binds to an englishGreeter for every provider and records the properties it saw.
func greeterComponent() *mock.ServiceComponentMock {
	return &mock.ServiceComponentMock{
		NameFunc: func() string { return "grpc" },
		BindFunc: func(ctx context.Context, key domain.BeanKey, properties domain.ServiceProperties) (any, error) {
			return englishGreeter{}, nil
		},
	}
}

func newGreeterBinder(lookup interfaces.ServiceLookup, component interfaces.ServiceComponent) *serviceBinder[Greeter] {
	return &serviceBinder[Greeter]{
		key:    domain.KeyOf[Greeter](""),
		lookup: lookup,
		components: func(name string) (interfaces.ServiceComponent, bool) {
			if component == nil || name != component.Name() {
				return nil, false
			}
			return component, true
		},
	}
}

func TestServiceBinder_Bind(t *testing.T) {
	lookup := &mutableLookup{}
	component := greeterComponent()
	binder := newGreeterBinder(lookup.mock(), component)
	ctx := context.Background()

	_, err := binder.Bind(ctx)
	assert.True(t, IsServiceUnavailableError(err), "no provider")
	assert.Empty(t, component.BindCalls())

	lookup.set(greeterEntry("entry-1", "2"), true, nil)
	binding, err := binder.Bind(ctx)
	require.NoError(t, err)
	assert.Equal(t, "entry-1", binding.EntryID)
	assert.Equal(t, greeterEntry("entry-1", "2").Properties.Fingerprint(), binding.Fingerprint)
	assert.Equal(t, "hello ada", binding.Instance.Greet("ada"))
	require.Len(t, component.BindCalls(), 1)
	assert.Equal(t, "2", component.BindCalls()[0].Properties["grpc.partitions"])

	other := greeterEntry("entry-2", "2")
	other.Properties[domain.PropertyComponent] = "carrier-pigeon"
	lookup.set(other, true, nil)
	_, err = binder.Bind(ctx)
	assert.True(t, IsServiceUnavailableError(err), "unknown component")

	component.BindFunc = func(context.Context, domain.BeanKey, domain.ServiceProperties) (any, error) {
		return "not a greeter", nil
	}
	lookup.set(greeterEntry("entry-1", "2"), true, nil)
	_, err = binder.Bind(ctx)
	assert.True(t, IsConfigurationError(err))
}

func TestServiceBinder_Verify(t *testing.T) {
	lookup := &mutableLookup{}
	binder := newGreeterBinder(lookup.mock(), greeterComponent())
	ctx := context.Background()
	bound := greeterEntry("entry-1", "2")
	fingerprint := bound.Properties.Fingerprint()

	cases := []struct {
		name  string
		entry domain.RegistryEntry
		found bool
		err   error
		ok    bool
		fails bool
	}{
		{name: "same provider", entry: bound, found: true, ok: true},
		{name: "other provider", entry: greeterEntry("entry-2", "2"), found: true},
		{name: "same entry with new topology", entry: greeterEntry("entry-1", "4"), found: true},
		{name: "provider gone"},
		{name: "isolation", err: NewMyError(ErrIllegalSubsystem, "foreign subsystem", nil)},
		{name: "registry down", err: errors.New("connection refused"), fails: true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			lookup.set(tc.entry, tc.found, tc.err)
			ok, err := binder.Verify(ctx, "entry-1", fingerprint)
			if tc.fails {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.ok, ok)
		})
	}
}

func TestStatefulBean_RebindsWhenProviderTopologyChanges(t *testing.T) {
	lookup := &mutableLookup{}
	component := greeterComponent()
	bean := newStatefulBean[Greeter](domain.KeyOf[Greeter](""), newGreeterBinder(lookup.mock(), component), log.NewNopLogger(), nil)
	ctx := context.Background()

	lookup.set(greeterEntry("entry-1", "2"), true, nil)
	require.NoError(t, bean.Bind(ctx))
	require.NoError(t, bean.Verify(ctx))
	assert.Equal(t, domain.BeanStateBound, bean.State())

	lookup.set(greeterEntry("entry-1", "4"), true, nil)
	require.NoError(t, bean.Verify(ctx))
	assert.Equal(t, domain.BeanStateBroken, bean.State())

	require.NoError(t, bean.Bind(ctx))
	assert.Equal(t, domain.BeanStateBound, bean.State())
	assert.Equal(t, "entry-1", bean.BoundEntryID())
	require.Len(t, component.BindCalls(), 2)
	assert.Equal(t, "4", component.BindCalls()[1].Properties["grpc.partitions"])
}
