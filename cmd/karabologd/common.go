package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/karabo-go/karabologd/internal/config"
	"github.com/karabo-go/karabologd/pkg/health"
	"github.com/karabo-go/karabologd/pkg/log"
	"github.com/spf13/cobra"
	"google.golang.org/grpc"
)

// loadConfig reads the YAML file named by --config (if any) and
// applies KARABO_* environment overrides on top, the same two-layer
// scheme the teacher's cobra tree applies to flags plus env defaults.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("load configuration: %w", err)
	}
	return cfg, nil
}

// runServers starts grpcServer on lis and a plain HTTP mux (metrics +
// health) on metricsAddr, then blocks until SIGINT/SIGTERM, shutting
// both down gracefully.
func runServers(ctx context.Context, grpcServer *grpc.Server, lis net.Listener, metricsMux http.Handler, metricsAddr string) error {
	logger := log.WithComponent("main")

	errCh := make(chan error, 2)
	go func() {
		logger.Info().Str("addr", lis.Addr().String()).Msg("grpc slot surface listening")
		if err := grpcServer.Serve(lis); err != nil {
			errCh <- fmt.Errorf("grpc server: %w", err)
		}
	}()

	httpServer := &http.Server{Addr: metricsAddr, Handler: metricsMux}
	go func() {
		logger.Info().Str("addr", metricsAddr).Msg("metrics/health endpoint listening")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		logger.Info().Str("signal", sig.String()).Msg("shutting down")
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = httpServer.Shutdown(shutdownCtx)
	grpcServer.GracefulStop()
	return nil
}

// backendReachabilityProbe periodically polls the time-series
// backend's reachability independent of whether a write or query is
// currently in flight, via pkg/health's HTTPChecker, so a role's
// /healthz can report backend degradation before the Backend Client's
// circuit breaker trips on accumulated request failures.
type backendReachabilityProbe struct {
	mu      sync.RWMutex
	healthy bool
	message string
}

func (p *backendReachabilityProbe) Healthy() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.healthy
}

func (p *backendReachabilityProbe) Message() string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.message
}

func (p *backendReachabilityProbe) set(healthy bool, message string) {
	p.mu.Lock()
	p.healthy = healthy
	p.message = message
	p.mu.Unlock()
}

// startBackendReachabilityProbe launches a goroutine that checks
// pingURL on health.DefaultConfig's interval until ctx is done, and
// returns a handle the /healthz handler can read concurrently.
func startBackendReachabilityProbe(ctx context.Context, pingURL string) *backendReachabilityProbe {
	checker := health.NewHTTPChecker(pingURL)
	status := health.NewStatus()
	cfg := health.DefaultConfig()
	probe := &backendReachabilityProbe{healthy: true}

	go func() {
		ticker := time.NewTicker(cfg.Interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				result := checker.Check(ctx)
				status.Update(result, cfg)
				probe.set(status.Healthy, result.Message)
			}
		}
	}()
	return probe
}
