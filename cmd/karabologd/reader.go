package main

import (
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/karabo-go/karabologd/pkg/backendclient"
	"github.com/karabo-go/karabologd/pkg/logreader"
	"github.com/karabo-go/karabologd/pkg/metrics"
	"github.com/karabo-go/karabologd/pkg/rpc"
	"github.com/karabo-go/karabologd/pkg/schemacache"
	"github.com/spf13/cobra"
	"google.golang.org/grpc"
)

var readerCmd = &cobra.Command{
	Use:   "reader",
	Short: "Run the Log Reader: property-history and configuration queries",
	RunE:  runReader,
}

func init() {
	readerCmd.Flags().String("grpc-addr", ":7072", "gRPC listen address for the slot surface")
	readerCmd.Flags().String("schema-cache-path", "./schemacache.db", "Path to the bbolt-backed schema cache")
}

func runReader(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	grpcAddr, _ := cmd.Flags().GetString("grpc-addr")
	schemaCachePath, _ := cmd.Flags().GetString("schema-cache-path")

	write, read, err := cfg.BackendConfigs(10 * time.Second)
	if err != nil {
		return fmt.Errorf("build backend config: %w", err)
	}
	backend := backendclient.New(write, read)
	backendHealth := startBackendReachabilityProbe(cmd.Context(), read.URL+"/ping")

	cache, err := schemacache.Open(schemaCachePath)
	if err != nil {
		return fmt.Errorf("open schema cache: %w", err)
	}
	defer cache.Close()

	rdr := logreader.New(logreader.DefaultConfig(), backend, cache)

	server := rpc.NewServer(nil, rdr)
	grpcServer := grpc.NewServer()
	grpcServer.RegisterService(&rpc.ServiceDesc, server)

	lis, err := net.Listen("tcp", grpcAddr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", grpcAddr, err)
	}

	metrics.SetCriticalComponents([]string{"logreader", "backend"})

	metricsMux := http.NewServeMux()
	metricsMux.Handle("/metrics", metrics.Handler())
	metricsMux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		metrics.UpdateComponent("logreader", rdr.State() != logreader.StateERROR, rdr.Status())
		metrics.UpdateComponent("backend", backendHealth.Healthy(), backendHealth.Message())
		metrics.HealthHandler()(w, r)
	})
	metricsMux.HandleFunc("/readyz", func(w http.ResponseWriter, r *http.Request) {
		metrics.ReadyHandler()(w, r)
	})

	return runServers(cmd.Context(), grpcServer, lis, metricsMux, cfg.MetricsAddr)
}
