package main

import (
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/karabo-go/karabologd/pkg/backendclient"
	"github.com/karabo-go/karabologd/pkg/datalogger"
	"github.com/karabo-go/karabologd/pkg/metrics"
	"github.com/karabo-go/karabologd/pkg/rpc"
	"github.com/spf13/cobra"
	"google.golang.org/grpc"
)

var loggerCmd = &cobra.Command{
	Use:   "logger",
	Short: "Run a Data Logger instance: the property-update write path",
	RunE:  runLogger,
}

func init() {
	loggerCmd.Flags().String("grpc-addr", ":7071", "gRPC listen address for the slot surface")
	loggerCmd.Flags().String("logger-server-id", "", "This instance's logger server ID (required)")
	loggerCmd.MarkFlagRequired("logger-server-id")
}

func runLogger(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	grpcAddr, _ := cmd.Flags().GetString("grpc-addr")
	loggerServerID, _ := cmd.Flags().GetString("logger-server-id")

	write, read, err := cfg.BackendConfigs(10 * time.Second)
	if err != nil {
		return fmt.Errorf("build backend config: %w", err)
	}
	backend := backendclient.New(write, read)
	backendHealth := startBackendReachabilityProbe(cmd.Context(), read.URL+"/ping")

	dl := datalogger.New(cfg.DataLoggerConfig(loggerServerID), backend)
	dl.Start()
	defer dl.Stop()

	server := rpc.NewServer(nil, nil)
	server.RegisterDataLogger(loggerServerID, dl)
	grpcServer := grpc.NewServer()
	grpcServer.RegisterService(&rpc.ServiceDesc, server)

	lis, err := net.Listen("tcp", grpcAddr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", grpcAddr, err)
	}

	metrics.SetCriticalComponents([]string{"datalogger", "backend"})

	metricsMux := http.NewServeMux()
	metricsMux.Handle("/metrics", metrics.Handler())
	metricsMux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		metrics.UpdateComponent("datalogger", dl.State() != datalogger.StateERROR, dl.Status())
		metrics.UpdateComponent("backend", backendHealth.Healthy(), backendHealth.Message())
		metrics.HealthHandler()(w, r)
	})
	metricsMux.HandleFunc("/readyz", func(w http.ResponseWriter, r *http.Request) {
		metrics.ReadyHandler()(w, r)
	})

	return runServers(cmd.Context(), grpcServer, lis, metricsMux, cfg.MetricsAddr)
}
