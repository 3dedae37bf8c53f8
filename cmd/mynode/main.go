// Package main is the entry point of a myremoting node. It loads the runtime configuration (YAML + env),
// connects to the registry server over HTTP (adapters.ServiceRegistryHTTP), and builds a service.Runtime
// with the gRPC remoting component (grpctransport.Dialer over a shared ConnectionPool). When
// SERVICE_PORT_GRPC is set the node serves its exported services on that port and advertises
// GRPC_ADVERTISE_ADDR. Every node exports its ServiceAdministrator.
//
// With -admin-instance and -publish the binary instead runs once: it binds to the administrator of the
// named instance, sets its publish flag and exits.
package main

import (
	"context"
	"flag"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"myremoting/adapters"
	"myremoting/adapters/grpctransport"
	"myremoting/domain"
	"myremoting/interfaces"
	"myremoting/service"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"google.golang.org/grpc"
)

func main() {
	adminInstance := flag.String("admin-instance", "", "application instance whose publish flag is set")
	publish := flag.Bool("publish", true, "publish flag value for -admin-instance")
	flag.Parse()

	logger := log.NewLogfmtLogger(log.NewSyncWriter(os.Stderr))
	logger = log.WithPrefix(logger, "ts", log.DefaultTimestampUTC)

	cfg, err := LoadConfig()
	if err != nil {
		level.Error(logger).Log("msg", "failed to load configuration", "err", err)
		os.Exit(1)
	}
	level.Info(logger).Log(
		"msg", "configuration loaded",
		"instance", cfg.Runtime.ApplicationInstanceID,
		"zone", cfg.Runtime.Zone().String(),
		"registry_url", cfg.Runtime.RegistryURL,
		"service_component", cfg.Runtime.ServiceComponent,
		"grpc_port", cfg.GRPCPort,
	)

	registry := adapters.ServiceRegistryHTTP(cfg.Runtime.RegistryURL, &http.Client{Timeout: 10 * time.Second})
	pool := grpctransport.NewConnectionPool(grpctransport.InsecureConnFactory, logger)
	defer pool.Close()

	exporter := service.NewServiceExporter(logger)
	remoting := service.RemotingSpec{
		Name:     domain.ComponentGRPC,
		Exporter: exporter,
		Dial:     grpctransport.Dialer(pool),
	}
	if cfg.GRPCPort > 0 {
		remoting.Advertised = grpctransport.AdvertisedProperties([]string{cfg.AdvertiseAddr}, cfg.Partitions)
	}

	rt, err := service.NewRuntime(cfg.Runtime, registry, service.WithLogger(logger), service.WithRemoting(remoting))
	if err != nil {
		level.Error(logger).Log("msg", "invalid runtime", "err", err)
		os.Exit(1)
	}

	if *adminInstance != "" {
		if err := runAdmin(rt, *adminInstance, *publish, cfg.Runtime.BindTimeout, logger); err != nil {
			level.Error(logger).Log("msg", "admin command failed", "instance", *adminInstance, "err", err)
			os.Exit(1)
		}
		return
	}

	var srv *grpc.Server
	if cfg.GRPCPort > 0 {
		srv = grpc.NewServer(grpc.ChainUnaryInterceptor(grpctransport.ErrorToGRPCUnaryInterceptor(logger)))
		grpctransport.NewServer(exporter, logger).Register(srv)

		lis, err := net.Listen("tcp", ":"+strconv.Itoa(cfg.GRPCPort))
		if err != nil {
			level.Error(logger).Log("msg", "listen", "err", err)
			os.Exit(1)
		}
		level.Info(logger).Log("msg", "starting gRPC server", "port", cfg.GRPCPort, "advertise", cfg.AdvertiseAddr)
		go func() {
			if err := srv.Serve(lis); err != nil {
				level.Error(logger).Log("msg", "serve", "err", err)
				os.Exit(1)
			}
		}()
	}

	ctx := context.Background()
	if err := rt.Start(ctx); err != nil {
		level.Error(logger).Log("msg", "failed to start runtime", "err", err)
		os.Exit(1)
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	level.Info(logger).Log("msg", "shutting down")

	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	// Unpublish before the server stops accepting calls.
	if err := rt.Close(shutdownCtx); err != nil {
		level.Error(logger).Log("msg", "error closing runtime", "err", err)
	}
	if srv != nil {
		stopped := make(chan struct{})
		go func() {
			srv.GracefulStop()
			close(stopped)
		}()
		select {
		case <-stopped:
		case <-time.After(5 * time.Second):
			srv.Stop()
		}
	}
}

// runAdmin binds to the ServiceAdministrator of instanceID and sets its publish flag.
func runAdmin(rt *service.Runtime, instanceID string, publish bool, bindTimeout time.Duration, logger log.Logger) error {
	ctx := context.Background()
	if err := rt.Start(ctx); err != nil {
		return err
	}
	defer rt.Close(ctx)

	if _, err := rt.ServiceAdministrator(ctx, instanceID); err != nil {
		return err
	}
	waitCtx, cancel := context.WithTimeout(ctx, 3*bindTimeout)
	defer cancel()
	admin, err := service.WaitForBean[interfaces.ServiceAdministrator](waitCtx, rt, instanceID)
	if err != nil {
		return err
	}
	if err := admin.SetPublishServices(ctx, publish); err != nil {
		return err
	}
	level.Info(logger).Log("msg", "publish flag set", "instance", instanceID, "publish", publish)
	return nil
}
