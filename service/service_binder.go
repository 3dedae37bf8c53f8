package service

import (
	"context"
	"fmt"

	"myremoting/domain"
	"myremoting/interfaces"
)

// serviceBinder binds a stateful bean through the registry: lookup selects the provider entry and the
// component named in its properties produces the instance.
type serviceBinder[T any] struct {
	key        domain.BeanKey
	lookup     interfaces.ServiceLookup
	components func(name string) (interfaces.ServiceComponent, bool)
}

var _ Binder[any] = (*serviceBinder[any])(nil)

func (b *serviceBinder[T]) Bind(ctx context.Context) (Binding[T], error) {
	entry, found, err := b.lookup.Lookup(ctx, b.key)
	if err != nil {
		return Binding[T]{}, err
	}
	if !found {
		return Binding[T]{}, NewServiceUnavailableError(fmt.Sprintf("no live provider of %s", b.key), nil)
	}
	name := entry.Properties.Component()
	component, ok := b.components(name)
	if !ok {
		return Binding[T]{}, NewServiceUnavailableError(fmt.Sprintf("provider %s of %s uses unknown component %q", entry.ID, b.key, name), nil)
	}
	instance, err := component.Bind(ctx, b.key, entry.Properties)
	if err != nil {
		return Binding[T]{}, err
	}
	typed, ok := instance.(T)
	if !ok {
		return Binding[T]{}, NewConfigurationError(fmt.Sprintf("component %s returned %T for %s", name, instance, b.key), nil)
	}
	return Binding[T]{Instance: typed, EntryID: entry.ID, Fingerprint: entry.Properties.Fingerprint()}, nil
}

// Verify fails a binding whose provider re-published under the same entry with different properties.
func (b *serviceBinder[T]) Verify(ctx context.Context, entryID, fingerprint string) (bool, error) {
	entry, found, err := b.lookup.Lookup(ctx, b.key)
	if err != nil {
		if IsIllegalSubsystemError(err) {
			return false, nil
		}
		return false, err
	}
	return found && entry.ID == entryID && entry.Properties.Fingerprint() == fingerprint, nil
}
