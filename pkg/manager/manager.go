package manager

import (
	"fmt"
	"sort"
	"sync"

	"github.com/karabo-go/karabologd/pkg/events"
	"github.com/karabo-go/karabologd/pkg/log"
	"github.com/karabo-go/karabologd/pkg/loggermap"
	"github.com/karabo-go/karabologd/pkg/metrics"
	"github.com/karabo-go/karabologd/pkg/types"
	"github.com/rs/zerolog"
)

// State is the Logger Manager's state machine: ON while the map and
// the configured server list are consistent, ERROR otherwise.
type State int

const (
	StateON State = iota
	StateERROR
)

func (s State) String() string {
	if s == StateERROR {
		return "ERROR"
	}
	return "ON"
}

// Manager assigns devices to Data Logger instances and keeps the
// assignment durable across restarts.
type Manager struct {
	mu     sync.RWMutex
	logger zerolog.Logger

	store      *loggermap.Store
	serverList []string
	state      State
	status     string

	discontinued   map[string]bool
	discontinuedAt map[string]types.Timestamp
	rrIndex        int

	broker *events.Broker
	sub    events.Subscriber
	stopCh chan struct{}
}

// Config configures a Manager instance.
type Config struct {
	LoggerMapPath string
	ServerList    []string
}

// NewManager opens (or creates) the persisted logger map at
// cfg.LoggerMapPath and returns an un-started Manager.
func NewManager(cfg Config, broker *events.Broker) (*Manager, error) {
	store, err := loggermap.Open(cfg.LoggerMapPath)
	if err != nil {
		return nil, fmt.Errorf("open logger map: %w", err)
	}

	return &Manager{
		logger:         log.WithComponent("manager"),
		store:          store,
		serverList:     cfg.ServerList,
		discontinued:   make(map[string]bool),
		discontinuedAt: make(map[string]types.Timestamp),
		broker:         broker,
		stopCh:         make(chan struct{}),
	}, nil
}

// Start validates the persisted logger map against serverList and, if
// consistent, begins watching device-topology events. It enters ERROR
// if and only if some server referenced by the map is absent from
// serverList.
func (m *Manager) Start() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	allowed := make(map[string]bool, len(m.serverList))
	for _, s := range m.serverList {
		allowed[s] = true
	}

	for _, server := range m.store.LoggerServers() {
		if !allowed[server] {
			m.state = StateERROR
			m.status = fmt.Sprintf(
				"Inconsistent 'loggermap.xml' and 'serverList' configuration: '%s' is in map, but not in list.",
				server,
			)
			metrics.ManagerState.Set(0)
			m.logger.Error().Str("logger_server", server).Msg(m.status)
			return fmt.Errorf("%s", m.status)
		}
	}

	m.state = StateON
	m.status = "ok"
	metrics.ManagerState.Set(1)

	if m.broker != nil {
		m.sub = m.broker.Subscribe()
		go m.watch()
	}

	m.logger.Info().Int("servers", len(m.serverList)).Int("devices", len(m.store.Entries())).Msg("manager started")
	return nil
}

// Stop releases the event subscription.
func (m *Manager) Stop() {
	close(m.stopCh)
	if m.broker != nil && m.sub != nil {
		m.broker.Unsubscribe(m.sub)
	}
}

func (m *Manager) watch() {
	for {
		select {
		case evt, ok := <-m.sub:
			if !ok {
				return
			}
			switch evt.Type {
			case events.EventDeviceAppeared:
				if _, err := m.AddDevicesToBeLogged([]string{evt.DeviceID}); err != nil {
					m.logger.Warn().Err(err).Str("device_id", evt.DeviceID).Msg("assignment failed")
				}
			case events.EventDeviceDiscontinued:
				if err := m.TagDeviceToBeDiscontinued(evt.Message, evt.DeviceID); err != nil {
					m.logger.Warn().Err(err).Str("device_id", evt.DeviceID).Msg("discontinue failed")
				}
			}
		case <-m.stopCh:
			return
		}
	}
}

// State returns the current Manager state.
func (m *Manager) State() State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state
}

// Status returns the current human-readable status string.
func (m *Manager) Status() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.status
}

// LoggerMap returns a table of {device, dataLogger} rows; all rows for
// a given loggerServer share the same dataLogger value.
func (m *Manager) LoggerMap() []types.LoggerMapEntry {
	rows := m.store.Entries()
	sort.Slice(rows, func(i, j int) bool { return rows[i].DeviceID < rows[j].DeviceID })
	return rows
}

// AddDevicesToBeLogged assigns any of ids not already present in the
// map to a live server, round-robin. Already-assigned devices are left
// untouched: restart never silently re-homes a device. Idempotent.
func (m *Manager) AddDevicesToBeLogged(ids []string) ([]types.LoggerMapEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state == StateERROR {
		return nil, fmt.Errorf("manager is in ERROR state: %s", m.status)
	}
	if len(m.serverList) == 0 {
		return nil, fmt.Errorf("no logger servers configured")
	}

	timer := metrics.NewTimer()
	defer timer.ObserveDuration(metrics.AssignmentDuration)

	var assigned []types.LoggerMapEntry
	for _, id := range ids {
		if m.discontinued[id] {
			continue
		}
		if existing, ok := m.store.Lookup(id); ok {
			assigned = append(assigned, existing)
			continue
		}

		server := m.serverList[m.rrIndex%len(m.serverList)]
		m.rrIndex++

		entry := types.LoggerMapEntry{
			DeviceID:           id,
			DataLoggerInstance: "DataLogger-" + server,
			LoggerServerID:     server,
		}
		if err := m.store.Assign(entry); err != nil {
			return assigned, fmt.Errorf("persist assignment for %s: %w", id, err)
		}
		metrics.DevicesLoggedTotal.WithLabelValues(server).Inc()
		m.logger.Info().Str("device_id", id).Str("logger_server", server).Msg("device assigned")
		assigned = append(assigned, entry)
	}
	return assigned, nil
}

// TagDeviceToBeDiscontinued removes device from the active set; the
// next update from it is ignored. Idempotent.
func (m *Manager) TagDeviceToBeDiscontinued(reason, deviceID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.discontinued[deviceID] = true
	m.discontinuedAt[deviceID] = types.Now()
	if err := m.store.Remove(deviceID); err != nil {
		return fmt.Errorf("remove %s from logger map: %w", deviceID, err)
	}
	m.logger.Info().Str("device_id", deviceID).Str("reason", reason).Msg("device discontinued")
	return nil
}

// LookupDevice returns the logger map entry a device is currently
// assigned to, if any.
func (m *Manager) LookupDevice(deviceID string) (types.LoggerMapEntry, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.store.Lookup(deviceID)
}

// DiscontinuedAt reports the time a device was tagged discontinued, if
// it ever was. Matches logreader.DiscontinuedProbe.
func (m *Manager) DiscontinuedAt(deviceID string) (types.Timestamp, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ts, ok := m.discontinuedAt[deviceID]
	return ts, ok
}
