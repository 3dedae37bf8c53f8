package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"myremoting/adapters/myredis"
	"myremoting/handlers"
	"myremoting/interfaces"
	"myremoting/service"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/hashicorp/go-metrics"
	"github.com/labstack/echo/v4"
)

func main() {
	// Initialize logger
	logger := log.NewLogfmtLogger(log.NewSyncWriter(os.Stderr))
	logger = log.WithPrefix(logger, "ts", log.DefaultTimestampUTC)
	logger = log.WithPrefix(logger, "caller", log.DefaultCaller)

	level.Info(logger).Log("msg", "Starting MyRegistry service")

	// Load configuration
	config, err := LoadConfig()
	if err != nil {
		level.Error(logger).Log("msg", "Failed to load configuration", "err", err)
		os.Exit(1)
	}
	level.Info(logger).Log(
		"msg", "Configuration loaded",
		"service_port_http", config.HTTPPort,
		"redis_addr", config.Redis.Addr,
		"reaper_interval", config.ReaperInterval,
	)

	// In-memory metrics, dumped to stderr on SIGUSR1
	sink := metrics.NewInmemSink(10*time.Second, time.Minute)
	metrics.DefaultInmemSignal(sink)

	now := service.NewTimeProvider(service.UTCNow)

	var registry interfaces.ServiceRegistry
	var closeRegistry func() error
	{
		if config.Redis.Addr != "" {
			redisClient, err := myredis.NewRedisUniversalClient(config.Redis.Addr)
			if err != nil {
				level.Error(logger).Log("msg", "Failed to create Redis client", "err", err)
				os.Exit(1)
			}

			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := redisClient.Ping(ctx).Err(); err != nil {
				level.Error(logger).Log("msg", "Failed to connect to Redis", "err", err)
				os.Exit(1)
			}
			level.Info(logger).Log("msg", "Connected to Redis", "prefix", config.Redis.Prefix)

			registry = myredis.NewServiceRegistry(redisClient, config.Redis.Prefix, now, logger)
			closeRegistry = redisClient.Close
		} else {
			memory := service.NewMemoryServiceRegistry(now, logger, sink)
			memory.StartReaper(config.ReaperInterval)
			level.Info(logger).Log("msg", "Using in-memory registry")

			registry = memory
			closeRegistry = memory.Close
		}
	}

	// Create HTTPServer
	var httpServer handlers.ServerInterface
	{
		httpServer = handlers.NewHTTPServer(registry, logger)
	}

	// Create HTTP server (Echo)
	var e *echo.Echo
	{
		swagger, err := handlers.GetSwagger()
		if err != nil {
			level.Error(logger).Log("msg", "Failed to load OpenAPI document", "err", err)
			os.Exit(1)
		}
		validator, err := handlers.OpenAPIRequestValidator(swagger)
		if err != nil {
			level.Error(logger).Log("msg", "Failed to create request validator", "err", err)
			os.Exit(1)
		}

		e = echo.New()
		e.HideBanner = true
		service.RegisterErrorHandler(e, logger)
		e.Use(validator)
		handlers.RegisterHandlers(e, httpServer)
	}

	// Setup graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	// Start server in a goroutine
	go func() {
		addr := fmt.Sprintf(":%d", config.HTTPPort)
		level.Info(logger).Log("msg", "Starting HTTP server", "addr", addr)
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			level.Error(logger).Log("msg", "HTTP server error", "err", err)
		}
	}()

	// Wait for interrupt signal
	<-quit
	level.Info(logger).Log("msg", "Shutting down server...")

	// Graceful shutdown with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		level.Error(logger).Log("msg", "Error during server shutdown", "err", err)
	}
	if err := closeRegistry(); err != nil {
		level.Error(logger).Log("msg", "Error closing registry", "err", err)
	}

	level.Info(logger).Log("msg", "Server stopped")
}
