package main

import (
	"fmt"
	"net"
	"os"
	"strconv"

	"myremoting/config"
	"myremoting/domain"
)

type MyNodeConfig struct {
	Runtime domain.Config
	// GRPCPort is 0 when this node only consumes remote services.
	GRPCPort      int
	AdvertiseAddr string
	Partitions    int
}

// LoadConfig loads the runtime configuration (config.LoadFromEnv) and the node's transport settings.
// MYREMOTING_REGISTRY_URL is required. SERVICE_PORT_GRPC is required when the service component is grpc;
// GRPC_ADVERTISE_ADDR defaults to localhost:<port> and GRPC_PARTITIONS to 1.
func LoadConfig() (*MyNodeConfig, error) {
	runtimeCfg, err := config.LoadFromEnv()
	if err != nil {
		return nil, err
	}
	if runtimeCfg.RegistryURL == "" {
		return nil, fmt.Errorf("%s is required", config.EnvRegistryURL)
	}

	var grpcPort int
	if v := os.Getenv("SERVICE_PORT_GRPC"); v != "" {
		grpcPort, err = strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("invalid SERVICE_PORT_GRPC: %w", err)
		}
	}
	if runtimeCfg.ServiceComponent == domain.ComponentGRPC && grpcPort == 0 {
		return nil, fmt.Errorf("SERVICE_PORT_GRPC is required for the %s service component", domain.ComponentGRPC)
	}

	partitions := 1
	if v := os.Getenv("GRPC_PARTITIONS"); v != "" {
		partitions, err = strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("invalid GRPC_PARTITIONS: %w", err)
		}
		if partitions <= 0 {
			return nil, fmt.Errorf("GRPC_PARTITIONS must be positive")
		}
	}

	advertise := os.Getenv("GRPC_ADVERTISE_ADDR")
	if advertise == "" && grpcPort > 0 {
		advertise = net.JoinHostPort("localhost", strconv.Itoa(grpcPort))
	}

	return &MyNodeConfig{
		Runtime:       runtimeCfg,
		GRPCPort:      grpcPort,
		AdvertiseAddr: advertise,
		Partitions:    partitions,
	}, nil
}
