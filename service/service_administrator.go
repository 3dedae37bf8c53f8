package service

import (
	"context"

	"myremoting/domain"
	"myremoting/interfaces"
)

// serviceAdministrator implements interfaces.ServiceAdministrator for one Runtime.
type serviceAdministrator struct {
	client *ServiceRegistryClient
}

var _ interfaces.ServiceAdministrator = (*serviceAdministrator)(nil)

func (a *serviceAdministrator) SetPublishServices(_ context.Context, publish bool) error {
	a.client.SetPublishServices(publish)
	return nil
}

func (a *serviceAdministrator) PublishServices(_ context.Context) (bool, error) {
	return a.client.PublishServices(), nil
}

// Method identifiers of the administrator over remoting.
const (
	adminSetPublishServices = "SetPublishServices"
	adminPublishServices    = "PublishServices"
)

// adminRoutingKey pins administrator calls to one partition; the administrator holds no partitioned state.
var adminRoutingKey = domain.RoutingKeyOf("service-administrator")

// administratorMethods exposes admin over remoting.
func administratorMethods(admin interfaces.ServiceAdministrator, codec interfaces.Codec) interfaces.MethodTable {
	return interfaces.MethodTable{
		adminSetPublishServices: Method(codec, func(ctx context.Context, publish bool) (struct{}, error) {
			return struct{}{}, admin.SetPublishServices(ctx, publish)
		}),
		adminPublishServices: Method(codec, func(ctx context.Context, _ struct{}) (bool, error) {
			return admin.PublishServices(ctx)
		}),
	}
}

// administratorStub is the remote client of another instance's administrator.
type administratorStub struct {
	inv *RemoteServiceInvoker
}

func (s administratorStub) SetPublishServices(ctx context.Context, publish bool) error {
	_, err := InvokeRouted[bool, struct{}](s.inv, adminSetPublishServices, adminRoutingKey, publish).Await(ctx)
	return err
}

func (s administratorStub) PublishServices(ctx context.Context) (bool, error) {
	return InvokeRouted[struct{}, bool](s.inv, adminPublishServices, adminRoutingKey, struct{}{}).Await(ctx)
}

// administratorProxy forwards through the stateful bean of a remote administrator.
type administratorProxy struct {
	bean *StatefulBean[interfaces.ServiceAdministrator]
}

func newAdministratorProxy(bean *StatefulBean[interfaces.ServiceAdministrator]) interfaces.ServiceAdministrator {
	return administratorProxy{bean: bean}
}

func (p administratorProxy) SetPublishServices(ctx context.Context, publish bool) error {
	return p.bean.Invoke(func(a interfaces.ServiceAdministrator) error {
		return a.SetPublishServices(ctx, publish)
	})
}

func (p administratorProxy) PublishServices(ctx context.Context) (bool, error) {
	return Call(p.bean, func(a interfaces.ServiceAdministrator) (bool, error) {
		return a.PublishServices(ctx)
	})
}
