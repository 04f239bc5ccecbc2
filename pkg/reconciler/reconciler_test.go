package reconciler

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/karabo-go/karabologd/pkg/manager"
	"github.com/stretchr/testify/require"
)

func newTestManagerWithAssignment(t *testing.T, deviceID, loggerServerID string) *manager.Manager {
	t.Helper()
	path := filepath.Join(t.TempDir(), "loggermap.xml")
	mgr, err := manager.NewManager(manager.Config{LoggerMapPath: path, ServerList: []string{loggerServerID}}, nil)
	require.NoError(t, err)
	require.NoError(t, mgr.Start())
	t.Cleanup(mgr.Stop)
	_, err = mgr.AddDevicesToBeLogged([]string{deviceID})
	require.NoError(t, err)
	return mgr
}

func TestCheckStaleLoggersSkipsWithNilProbe(t *testing.T) {
	mgr := newTestManagerWithAssignment(t, "dev1", "serverA")
	r := NewReconciler(mgr, nil)
	// Must not panic with a nil probe.
	r.checkStaleLoggers()
}

func TestCheckStaleLoggersQueriesEachDistinctServerOnce(t *testing.T) {
	mgr := newTestManagerWithAssignment(t, "dev1", "serverA")
	_, err := mgr.AddDevicesToBeLogged([]string{"dev2"})
	require.NoError(t, err)

	var calls []string
	probe := func(loggerServerID string) (time.Duration, bool) {
		calls = append(calls, loggerServerID)
		return 0, true
	}

	r := NewReconciler(mgr, probe)
	r.checkStaleLoggers()

	require.Len(t, calls, 1)
	require.Equal(t, "serverA", calls[0])
}

func TestCheckStaleLoggersToleratesProbeMiss(t *testing.T) {
	mgr := newTestManagerWithAssignment(t, "dev1", "serverA")
	probe := func(loggerServerID string) (time.Duration, bool) {
		return 0, false
	}

	r := NewReconciler(mgr, probe)
	// Must not panic when the probe reports no data.
	r.checkStaleLoggers()
}

func TestStartStopDoesNotPanic(t *testing.T) {
	mgr := newTestManagerWithAssignment(t, "dev1", "serverA")
	r := NewReconciler(mgr, nil)
	r.Start()
	r.Stop()
}
