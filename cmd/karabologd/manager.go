package main

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/karabo-go/karabologd/pkg/events"
	"github.com/karabo-go/karabologd/pkg/manager"
	"github.com/karabo-go/karabologd/pkg/metrics"
	"github.com/karabo-go/karabologd/pkg/reconciler"
	"github.com/karabo-go/karabologd/pkg/rpc"
	"github.com/spf13/cobra"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/protobuf/types/known/structpb"
)

var managerCmd = &cobra.Command{
	Use:   "manager",
	Short: "Run the Logger Manager: device-to-logger assignment",
	RunE:  runManager,
}

func init() {
	managerCmd.Flags().String("grpc-addr", ":7070", "gRPC listen address for the slot surface")
}

func runManager(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	grpcAddr, _ := cmd.Flags().GetString("grpc-addr")

	broker := events.NewBroker()
	broker.Start()
	defer broker.Stop()

	mgr, err := manager.NewManager(cfg.ManagerConfig(), broker)
	if err != nil {
		return fmt.Errorf("create manager: %w", err)
	}
	if err := mgr.Start(); err != nil {
		return fmt.Errorf("start manager: %w", err)
	}
	defer mgr.Stop()

	staleness := newLoggerStalenessClient(cfg.LoggerAddrs)
	defer staleness.close()

	recon := reconciler.NewReconciler(mgr, staleness.probe)
	recon.Start()
	defer recon.Stop()

	server := rpc.NewServer(mgr, nil)
	grpcServer := grpc.NewServer()
	grpcServer.RegisterService(&rpc.ServiceDesc, server)

	lis, err := net.Listen("tcp", grpcAddr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", grpcAddr, err)
	}

	metrics.SetCriticalComponents([]string{"manager"})

	metricsMux := http.NewServeMux()
	metricsMux.Handle("/metrics", metrics.Handler())
	metricsMux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		healthy := mgr.State() != manager.StateERROR
		metrics.UpdateComponent("manager", healthy, mgr.Status())
		metrics.HealthHandler()(w, r)
	})
	metricsMux.HandleFunc("/readyz", func(w http.ResponseWriter, r *http.Request) {
		metrics.ReadyHandler()(w, r)
	})

	return runServers(cmd.Context(), grpcServer, lis, metricsMux, cfg.MetricsAddr)
}

// loggerStalenessClient implements reconciler.StalenessProbe by
// dialing the gRPC slot surface of whichever process runs each logger
// server, per cfg.LoggerAddrs, and calling slotGetLoggerStaleness.
// Connections are dialed lazily and cached for reuse; the Logger
// Manager never has a DataLogger in-process (each run mode owns only
// its own role), so this is the only way its reconciler can observe
// logger liveness.
type loggerStalenessClient struct {
	addrs map[string]string

	mu    sync.Mutex
	conns map[string]*grpc.ClientConn
}

func newLoggerStalenessClient(addrs map[string]string) *loggerStalenessClient {
	return &loggerStalenessClient{
		addrs: addrs,
		conns: make(map[string]*grpc.ClientConn),
	}
}

func (c *loggerStalenessClient) connFor(loggerServerID string) (*grpc.ClientConn, bool) {
	addr, ok := c.addrs[loggerServerID]
	if !ok {
		return nil, false
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if cc, ok := c.conns[loggerServerID]; ok {
		return cc, true
	}
	cc, err := grpc.NewClient(addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, false
	}
	c.conns[loggerServerID] = cc
	return cc, true
}

// probe implements reconciler.StalenessProbe.
func (c *loggerStalenessClient) probe(loggerServerID string) (time.Duration, bool) {
	cc, ok := c.connFor(loggerServerID)
	if !ok {
		return 0, false
	}

	req, err := structpb.NewStruct(map[string]interface{}{"loggerServerId": loggerServerID})
	if err != nil {
		return 0, false
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	reply, err := rpc.Invoke(ctx, cc, "slotGetLoggerStaleness", req)
	if err != nil {
		return 0, false
	}
	if !reply.Fields["ok"].GetBoolValue() {
		return 0, false
	}
	return time.Duration(reply.Fields["staleSeconds"].GetNumberValue() * float64(time.Second)), true
}

func (c *loggerStalenessClient) close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, cc := range c.conns {
		_ = cc.Close()
	}
}
