package rpc

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/karabo-go/karabologd/pkg/datalogger"
	"github.com/karabo-go/karabologd/pkg/log"
	"github.com/karabo-go/karabologd/pkg/logreader"
	"github.com/karabo-go/karabologd/pkg/manager"
	"github.com/karabo-go/karabologd/pkg/rpcerr"
	"github.com/rs/zerolog"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

// errUnimplemented reports that this process owns neither the Manager
// nor the Log Reader role the requested slot needs, since each of the
// three run modes only builds the roles it owns.
func errUnimplemented(slot string) error {
	return status.Errorf(codes.Unimplemented, "this process does not run the role required by %s", slot)
}

// Server implements SlotServiceServer over the already-running
// Manager, Data Logger instances and Log Reader of one karabologd
// process.
type Server struct {
	mgr    *manager.Manager
	reader *logreader.Reader

	mu      sync.RWMutex
	loggers map[string]*datalogger.DataLogger // keyed by LoggerServerID
}

// NewServer builds a Server. mgr and reader may be nil in a process
// that does not run those roles; Data Loggers are added afterwards
// with RegisterDataLogger.
func NewServer(mgr *manager.Manager, reader *logreader.Reader) *Server {
	return &Server{
		mgr:     mgr,
		reader:  reader,
		loggers: make(map[string]*datalogger.DataLogger),
	}
}

// RegisterDataLogger makes a running DataLogger reachable by its
// loggerServerID through the slot surface.
func (s *Server) RegisterDataLogger(loggerServerID string, dl *datalogger.DataLogger) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loggers[loggerServerID] = dl
}

func (s *Server) loggerFor(deviceID string) (*datalogger.DataLogger, error) {
	entry, ok := s.mgr.LookupDevice(deviceID)
	if !ok {
		return nil, fmt.Errorf("device %s is not assigned to any logger", deviceID)
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	dl, ok := s.loggers[entry.LoggerServerID]
	if !ok {
		return nil, fmt.Errorf("logger server %s is not registered on this process", entry.LoggerServerID)
	}
	return dl, nil
}

// SlotGetPropertyHistory implements slotGetPropertyHistory.
func (s *Server) SlotGetPropertyHistory(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	if s.reader == nil {
		return nil, errUnimplemented("slotGetPropertyHistory")
	}
	deviceID := fieldString(req, "deviceId")
	path := fieldString(req, "propertyPath")
	from := fieldTimestamp(req, "from")
	to := fieldTimestamp(req, "to")
	maxNumData := fieldInt(req, "maxNumData")

	points, err := s.reader.GetPropertyHistory(ctx, deviceID, path, from, to, maxNumData)
	if err != nil {
		return nil, rpcerr.ToStatus(err)
	}

	data := make([]*structpb.Value, 0, len(points))
	for _, p := range points {
		data = append(data, structpb.NewStructValue(newStruct(map[string]*structpb.Value{
			"value": valueToStructValue(p.Value),
			"stamp": structpb.NewStringValue(p.Stamp.ISO8601Micros()),
		})))
	}

	return newStruct(map[string]*structpb.Value{
		"deviceId":     structpb.NewStringValue(deviceID),
		"propertyPath": structpb.NewStringValue(path),
		"data":         structpb.NewListValue(&structpb.ListValue{Values: data}),
	}), nil
}

// SlotGetConfigurationFromPast implements slotGetConfigurationFromPast.
func (s *Server) SlotGetConfigurationFromPast(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	if s.reader == nil {
		return nil, errUnimplemented("slotGetConfigurationFromPast")
	}
	deviceID := fieldString(req, "deviceId")
	atTime := fieldTimestamp(req, "atTime")

	var discontinued logreader.DiscontinuedProbe
	if s.mgr != nil {
		discontinued = s.mgr.DiscontinuedAt
	}
	result, err := s.reader.GetConfigurationFromPast(ctx, deviceID, atTime, discontinued)
	if err != nil {
		return nil, rpcerr.ToStatus(err)
	}

	values := make(map[string]*structpb.Value, len(result.Values))
	for k, v := range result.Values {
		values[k] = valueToStructValue(v)
	}

	return newStruct(map[string]*structpb.Value{
		"configHash":       structpb.NewStringValue(result.ConfigHash),
		"configAtTimeFlag": structpb.NewBoolValue(result.ConfigAtTimeFlag),
		"configTimepoint":  structpb.NewStringValue(result.ConfigTimepoint),
		"schema":           structpb.NewStringValue(string(result.Schema)),
		"values":           structpb.NewStructValue(newStruct(values)),
	}), nil
}

// SlotGetBadData implements slotGetBadData, querying across every
// device currently in the logger map.
func (s *Server) SlotGetBadData(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	if s.reader == nil || s.mgr == nil {
		return nil, errUnimplemented("slotGetBadData")
	}
	from := fieldTimestamp(req, "fromIso")
	to := fieldTimestamp(req, "toIso")

	entries := s.mgr.LoggerMap()
	deviceIDs := make([]string, 0, len(entries))
	for _, e := range entries {
		deviceIDs = append(deviceIDs, e.DeviceID)
	}

	byDevice, err := s.reader.GetBadData(ctx, deviceIDs, from, to)
	if err != nil {
		return nil, rpcerr.ToStatus(err)
	}

	out := make(map[string]*structpb.Value, len(byDevice))
	for deviceID, rows := range byDevice {
		vals := make([]*structpb.Value, 0, len(rows))
		for _, r := range rows {
			vals = append(vals, structpb.NewStructValue(newStruct(map[string]*structpb.Value{
				"info": structpb.NewStringValue(r.Info),
				"time": structpb.NewStringValue(r.Time.ISO8601Micros()),
			})))
		}
		out[deviceID] = structpb.NewListValue(&structpb.ListValue{Values: vals})
	}
	return newStruct(out), nil
}

// SlotTagDeviceToBeDiscontinued implements slotTagDeviceToBeDiscontinued.
func (s *Server) SlotTagDeviceToBeDiscontinued(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	if s.mgr == nil {
		return nil, errUnimplemented("slotTagDeviceToBeDiscontinued")
	}
	deviceID := fieldString(req, "deviceId")
	reason := fieldString(req, "reason")

	dl, lookupErr := s.loggerFor(deviceID)

	if err := s.mgr.TagDeviceToBeDiscontinued(reason, deviceID); err != nil {
		return nil, rpcerr.ToStatus(err)
	}
	if lookupErr == nil {
		dl.TagDeviceToBeDiscontinued(reason, deviceID)
	}
	return newStruct(nil), nil
}

// SlotAddDevicesToBeLogged implements slotAddDevicesToBeLogged.
func (s *Server) SlotAddDevicesToBeLogged(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	if s.mgr == nil {
		return nil, errUnimplemented("slotAddDevicesToBeLogged")
	}
	var deviceIDs []string
	if v, ok := req.Fields["deviceIds"]; ok {
		for _, item := range v.GetListValue().GetValues() {
			deviceIDs = append(deviceIDs, item.GetStringValue())
		}
	}

	entries, err := s.mgr.AddDevicesToBeLogged(deviceIDs)
	if err != nil {
		return nil, rpcerr.ToStatus(err)
	}

	assigned := make([]*structpb.Value, 0, len(entries))
	for _, e := range entries {
		assigned = append(assigned, structpb.NewStructValue(newStruct(map[string]*structpb.Value{
			"deviceId":           structpb.NewStringValue(e.DeviceID),
			"loggerServerId":     structpb.NewStringValue(e.LoggerServerID),
			"dataLoggerInstance": structpb.NewStringValue(e.DataLoggerInstance),
		})))
	}
	return newStruct(map[string]*structpb.Value{
		"assigned": structpb.NewListValue(&structpb.ListValue{Values: assigned}),
	}), nil
}

// Flush implements the flush slot, forwarding to every registered
// Data Logger when loggerServerId is empty, or to just one otherwise.
func (s *Server) Flush(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	loggerServerID := fieldString(req, "loggerServerId")
	timeoutSec := fieldInt(req, "timeoutSec")
	if timeoutSec <= 0 {
		timeoutSec = 10
	}
	flushCtx, cancel := context.WithTimeout(ctx, time.Duration(timeoutSec)*time.Second)
	defer cancel()

	s.mu.RLock()
	targets := make([]*datalogger.DataLogger, 0, len(s.loggers))
	if loggerServerID != "" {
		if dl, ok := s.loggers[loggerServerID]; ok {
			targets = append(targets, dl)
		}
	} else {
		for _, dl := range s.loggers {
			targets = append(targets, dl)
		}
	}
	s.mu.RUnlock()

	for _, dl := range targets {
		if err := dl.Flush(flushCtx); err != nil {
			return nil, rpcerr.ToStatus(err)
		}
	}
	return newStruct(nil), nil
}

// SlotLoggerLevel implements slotLoggerLevel: an adjustable per-logger
// log verbosity, per SPEC_FULL.md §4's supplemental feature.
func (s *Server) SlotLoggerLevel(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	loggerServerID := fieldString(req, "loggerServerId")
	levelStr := fieldString(req, "level")

	level, err := zerolog.ParseLevel(levelStr)
	if err != nil {
		return nil, rpcerr.ToStatus(fmt.Errorf("invalid log level %q: %w", levelStr, err))
	}

	s.mu.RLock()
	dl, ok := s.loggers[loggerServerID]
	s.mu.RUnlock()
	if !ok {
		return nil, rpcerr.ToStatus(fmt.Errorf("logger server %s is not registered on this process", loggerServerID))
	}
	dl.SetLevel(level)

	log.WithComponent("rpc").Info().Str("logger_server_id", loggerServerID).Str("level", levelStr).Msg("adjusted data logger verbosity")
	return newStruct(nil), nil
}

// SlotGetLoggerStaleness reports how long it has been since the named
// logger server last acknowledged a write, for the Logger Manager's
// reconciler to call across process boundaries. "ok" is false when
// this process doesn't run that logger server, or it has not
// acknowledged any write yet.
func (s *Server) SlotGetLoggerStaleness(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	loggerServerID := fieldString(req, "loggerServerId")

	s.mu.RLock()
	dl, ok := s.loggers[loggerServerID]
	s.mu.RUnlock()
	if !ok {
		return newStruct(map[string]*structpb.Value{"ok": structpb.NewBoolValue(false)}), nil
	}

	age, found := dl.StalenessSince(time.Now())
	if !found {
		return newStruct(map[string]*structpb.Value{"ok": structpb.NewBoolValue(false)}), nil
	}

	return newStruct(map[string]*structpb.Value{
		"ok":           structpb.NewBoolValue(true),
		"staleSeconds": structpb.NewNumberValue(age.Seconds()),
	}), nil
}
