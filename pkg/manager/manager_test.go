package manager

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/karabo-go/karabologd/pkg/events"
	"github.com/karabo-go/karabologd/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	assertEventuallyTimeout = time.Second
	assertEventuallyTick    = 10 * time.Millisecond
)

func entryFor(t *testing.T, deviceID, loggerServerID string) types.LoggerMapEntry {
	t.Helper()
	return types.LoggerMapEntry{
		DeviceID:           deviceID,
		DataLoggerInstance: "DataLogger-" + loggerServerID,
		LoggerServerID:     loggerServerID,
	}
}

func newTestManager(t *testing.T, serverList []string) *Manager {
	t.Helper()
	path := filepath.Join(t.TempDir(), "loggermap.xml")
	mgr, err := NewManager(Config{LoggerMapPath: path, ServerList: serverList}, nil)
	require.NoError(t, err)
	require.NoError(t, mgr.Start())
	t.Cleanup(mgr.Stop)
	return mgr
}

func TestStartDetectsInconsistentMap(t *testing.T) {
	path := filepath.Join(t.TempDir(), "loggermap.xml")
	mgr, err := NewManager(Config{LoggerMapPath: path, ServerList: []string{"serverA"}}, nil)
	require.NoError(t, err)
	require.NoError(t, mgr.store.Assign(entryFor(t, "dev1", "serverB")))

	err = mgr.Start()
	require.Error(t, err)
	assert.Equal(t, StateERROR, mgr.State())
	assert.Contains(t, mgr.Status(), "'serverB' is in map, but not in list.")
}

func TestAddDevicesToBeLoggedRoundRobinsAndIsIdempotent(t *testing.T) {
	mgr := newTestManager(t, []string{"serverA", "serverB"})

	assigned, err := mgr.AddDevicesToBeLogged([]string{"dev1", "dev2", "dev3"})
	require.NoError(t, err)
	require.Len(t, assigned, 3)
	assert.Equal(t, "serverA", assigned[0].LoggerServerID)
	assert.Equal(t, "serverB", assigned[1].LoggerServerID)
	assert.Equal(t, "serverA", assigned[2].LoggerServerID)

	again, err := mgr.AddDevicesToBeLogged([]string{"dev1"})
	require.NoError(t, err)
	require.Len(t, again, 1)
	assert.Equal(t, assigned[0], again[0])
}

func TestTagDeviceToBeDiscontinuedRemovesFromMapAndRecordsTime(t *testing.T) {
	mgr := newTestManager(t, []string{"serverA"})
	_, err := mgr.AddDevicesToBeLogged([]string{"dev1"})
	require.NoError(t, err)

	require.NoError(t, mgr.TagDeviceToBeDiscontinued("end of campaign", "dev1"))

	_, ok := mgr.LookupDevice("dev1")
	assert.False(t, ok)

	_, ok = mgr.DiscontinuedAt("dev1")
	assert.True(t, ok)

	reassigned, err := mgr.AddDevicesToBeLogged([]string{"dev1"})
	require.NoError(t, err)
	assert.Empty(t, reassigned)
}

func TestLookupDeviceReportsCurrentAssignment(t *testing.T) {
	mgr := newTestManager(t, []string{"serverA"})
	_, err := mgr.AddDevicesToBeLogged([]string{"dev1"})
	require.NoError(t, err)

	entry, ok := mgr.LookupDevice("dev1")
	require.True(t, ok)
	assert.Equal(t, "serverA", entry.LoggerServerID)

	_, ok = mgr.LookupDevice("nonexistent")
	assert.False(t, ok)
}

func TestDiscontinuedAtAbsentByDefault(t *testing.T) {
	mgr := newTestManager(t, []string{"serverA"})
	_, ok := mgr.DiscontinuedAt("dev1")
	assert.False(t, ok)
}

func TestEventBrokerDrivesAssignmentAndDiscontinuation(t *testing.T) {
	broker := events.NewBroker()
	broker.Start()
	defer broker.Stop()

	path := filepath.Join(t.TempDir(), "loggermap.xml")
	mgr, err := NewManager(Config{LoggerMapPath: path, ServerList: []string{"serverA"}}, broker)
	require.NoError(t, err)
	require.NoError(t, mgr.Start())
	defer mgr.Stop()

	broker.Publish(&events.Event{Type: events.EventDeviceAppeared, DeviceID: "dev1"})
	require.Eventually(t, func() bool {
		_, ok := mgr.LookupDevice("dev1")
		return ok
	}, assertEventuallyTimeout, assertEventuallyTick)

	broker.Publish(&events.Event{Type: events.EventDeviceDiscontinued, DeviceID: "dev1", Message: "gone"})
	require.Eventually(t, func() bool {
		_, ok := mgr.LookupDevice("dev1")
		return !ok
	}, assertEventuallyTimeout, assertEventuallyTick)
}
