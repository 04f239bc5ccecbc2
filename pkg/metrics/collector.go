package metrics

import (
	"time"

	"github.com/karabo-go/karabologd/pkg/manager"
)

// Collector periodically samples observable state from the Logger
// Manager that doesn't naturally update a metric at the moment it
// changes (e.g. per-server device counts derived from the logger map).
type Collector struct {
	manager *manager.Manager
	stopCh  chan struct{}
}

// NewCollector creates a new metrics collector bound to mgr.
func NewCollector(mgr *manager.Manager) *Collector {
	return &Collector{
		manager: mgr,
		stopCh:  make(chan struct{}),
	}
}

// Start begins periodic collection.
func (c *Collector) Start() {
	ticker := time.NewTicker(15 * time.Second)
	go func() {
		c.collect()

		for {
			select {
			case <-ticker.C:
				c.collect()
			case <-c.stopCh:
				ticker.Stop()
				return
			}
		}
	}()
}

// Stop stops the collector.
func (c *Collector) Stop() {
	close(c.stopCh)
}

func (c *Collector) collect() {
	c.collectManagerMetrics()
}

func (c *Collector) collectManagerMetrics() {
	if c.manager.State() == manager.StateON {
		ManagerState.Set(1)
	} else {
		ManagerState.Set(0)
	}

	perServer := make(map[string]int)
	for _, entry := range c.manager.LoggerMap() {
		perServer[entry.LoggerServerID]++
	}
	for server, count := range perServer {
		DevicesLoggedTotal.WithLabelValues(server).Set(float64(count))
	}
}
