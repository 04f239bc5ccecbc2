package rpc

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/karabo-go/karabologd/pkg/backendclient"
	"github.com/karabo-go/karabologd/pkg/datalogger"
	"github.com/karabo-go/karabologd/pkg/events"
	"github.com/karabo-go/karabologd/pkg/manager"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

func newTestBackend(t *testing.T) *backendclient.Client {
	t.Helper()
	srv := httptest.NewServer(http.NotFoundHandler())
	t.Cleanup(srv.Close)
	cfg := backendclient.Config{URL: srv.URL, User: "u", Password: "p", DBName: "karabo", Timeout: time.Second}
	return backendclient.New(cfg, cfg)
}

func newTestManagerForRPC(t *testing.T) *manager.Manager {
	t.Helper()
	path := filepath.Join(t.TempDir(), "loggermap.xml")
	mgr, err := manager.NewManager(manager.Config{LoggerMapPath: path, ServerList: []string{"serverA"}}, events.NewBroker())
	require.NoError(t, err)
	require.NoError(t, mgr.Start())
	t.Cleanup(mgr.Stop)
	return mgr
}

func TestSlotsReturnUnimplementedWhenRoleMissing(t *testing.T) {
	srv := NewServer(nil, nil)
	ctx := context.Background()

	_, err := srv.SlotGetPropertyHistory(ctx, newStruct(nil))
	assertUnimplemented(t, err)

	_, err = srv.SlotGetConfigurationFromPast(ctx, newStruct(nil))
	assertUnimplemented(t, err)

	_, err = srv.SlotGetBadData(ctx, newStruct(nil))
	assertUnimplemented(t, err)

	_, err = srv.SlotTagDeviceToBeDiscontinued(ctx, newStruct(nil))
	assertUnimplemented(t, err)

	_, err = srv.SlotAddDevicesToBeLogged(ctx, newStruct(nil))
	assertUnimplemented(t, err)
}

func assertUnimplemented(t *testing.T, err error) {
	t.Helper()
	st, ok := status.FromError(err)
	require.True(t, ok)
	assert.Equal(t, codes.Unimplemented, st.Code())
}

func TestSlotAddDevicesToBeLoggedAssignsThroughManager(t *testing.T) {
	mgr := newTestManagerForRPC(t)
	srv := NewServer(mgr, nil)

	req := newStruct(map[string]*structpb.Value{
		"deviceIds": structpb.NewListValue(&structpb.ListValue{
			Values: []*structpb.Value{structpb.NewStringValue("XFEL/MOTOR/1")},
		}),
	})

	resp, err := srv.SlotAddDevicesToBeLogged(context.Background(), req)
	require.NoError(t, err)

	assigned := resp.Fields["assigned"].GetListValue().GetValues()
	require.Len(t, assigned, 1)
	entry := assigned[0].GetStructValue()
	assert.Equal(t, "XFEL/MOTOR/1", entry.Fields["deviceId"].GetStringValue())
	assert.Equal(t, "serverA", entry.Fields["loggerServerId"].GetStringValue())
}

func TestSlotTagDeviceToBeDiscontinuedRoutesToOwningLoggerBeforeRemoval(t *testing.T) {
	mgr := newTestManagerForRPC(t)
	_, err := mgr.AddDevicesToBeLogged([]string{"XFEL/MOTOR/1"})
	require.NoError(t, err)

	dl := datalogger.New(datalogger.DefaultConfig("serverA"), newTestBackend(t))
	dl.Start()
	t.Cleanup(dl.Stop)

	srv := NewServer(mgr, nil)
	srv.RegisterDataLogger("serverA", dl)

	req := newStruct(map[string]*structpb.Value{
		"deviceId": structpb.NewStringValue("XFEL/MOTOR/1"),
		"reason":   structpb.NewStringValue("end of campaign"),
	})
	_, err = srv.SlotTagDeviceToBeDiscontinued(context.Background(), req)
	require.NoError(t, err)

	_, ok := mgr.LookupDevice("XFEL/MOTOR/1")
	assert.False(t, ok)
}

func TestSlotLoggerLevelRejectsUnknownLoggerServer(t *testing.T) {
	srv := NewServer(nil, nil)
	req := newStruct(map[string]*structpb.Value{
		"loggerServerId": structpb.NewStringValue("serverX"),
		"level":          structpb.NewStringValue("debug"),
	})
	_, err := srv.SlotLoggerLevel(context.Background(), req)
	assert.Error(t, err)
}

func TestSlotGetLoggerStalenessReportsNotOkForUnregisteredServer(t *testing.T) {
	srv := NewServer(nil, nil)
	req := newStruct(map[string]*structpb.Value{"loggerServerId": structpb.NewStringValue("serverX")})

	resp, err := srv.SlotGetLoggerStaleness(context.Background(), req)
	require.NoError(t, err)
	assert.False(t, resp.Fields["ok"].GetBoolValue())
}

func TestSlotGetLoggerStalenessReportsNotOkBeforeAnyAcknowledgedWrite(t *testing.T) {
	dl := datalogger.New(datalogger.DefaultConfig("serverA"), newTestBackend(t))
	dl.Start()
	t.Cleanup(dl.Stop)

	srv := NewServer(nil, nil)
	srv.RegisterDataLogger("serverA", dl)

	req := newStruct(map[string]*structpb.Value{"loggerServerId": structpb.NewStringValue("serverA")})
	resp, err := srv.SlotGetLoggerStaleness(context.Background(), req)
	require.NoError(t, err)
	assert.False(t, resp.Fields["ok"].GetBoolValue())
}
