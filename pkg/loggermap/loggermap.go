// Package loggermap persists the Logger Manager's device -> logger
// assignment to the loggermap.xml artifact named in the external
// interfaces, and restores it on restart.
package loggermap

import (
	"encoding/xml"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/karabo-go/karabologd/pkg/types"
)

// document is the XML shape of loggermap.xml.
type document struct {
	XMLName xml.Name                 `xml:"loggermap"`
	Rows    []types.LoggerMapEntry    `xml:"row"`
}

// Store guards the in-memory logger map and its on-disk mirror.
type Store struct {
	mu   sync.RWMutex
	path string
	rows map[string]types.LoggerMapEntry // deviceId -> entry
}

// Open loads path if it exists, or starts with an empty map.
func Open(path string) (*Store, error) {
	s := &Store{path: path, rows: make(map[string]types.LoggerMapEntry)}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read loggermap %s: %w", path, err)
	}

	var doc document
	if err := xml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse loggermap %s: %w", path, err)
	}
	for _, row := range doc.Rows {
		s.rows[row.DeviceID] = row
	}
	return s, nil
}

// Entries returns a snapshot of all rows.
func (s *Store) Entries() []types.LoggerMapEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]types.LoggerMapEntry, 0, len(s.rows))
	for _, row := range s.rows {
		out = append(out, row)
	}
	return out
}

// Lookup returns the assignment for a device, if any.
func (s *Store) Lookup(deviceID string) (types.LoggerMapEntry, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	row, ok := s.rows[deviceID]
	return row, ok
}

// LoggerServers returns the distinct set of logger server IDs referenced
// by the map, used by the Manager's serverList consistency check.
func (s *Store) LoggerServers() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	seen := make(map[string]bool)
	var servers []string
	for _, row := range s.rows {
		if !seen[row.LoggerServerID] {
			seen[row.LoggerServerID] = true
			servers = append(servers, row.LoggerServerID)
		}
	}
	return servers
}

// Assign records a new device -> logger assignment and persists the
// map atomically. It never overwrites an existing assignment silently;
// callers must check Lookup first if re-homing is not intended.
func (s *Store) Assign(entry types.LoggerMapEntry) error {
	s.mu.Lock()
	s.rows[entry.DeviceID] = entry
	snapshot := s.snapshotLocked()
	s.mu.Unlock()

	return s.persist(snapshot)
}

// Remove drops a device from the map (used when a device is tagged
// discontinued) and persists the result.
func (s *Store) Remove(deviceID string) error {
	s.mu.Lock()
	delete(s.rows, deviceID)
	snapshot := s.snapshotLocked()
	s.mu.Unlock()

	return s.persist(snapshot)
}

func (s *Store) snapshotLocked() []types.LoggerMapEntry {
	out := make([]types.LoggerMapEntry, 0, len(s.rows))
	for _, row := range s.rows {
		out = append(out, row)
	}
	return out
}

// persist rewrites path atomically: write to a temp file in the same
// directory, then rename over the target, so a crash mid-write never
// leaves a truncated loggermap.xml behind.
func (s *Store) persist(rows []types.LoggerMapEntry) error {
	doc := document{Rows: rows}
	data, err := xml.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal loggermap: %w", err)
	}

	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, ".loggermap-*.xml")
	if err != nil {
		return fmt.Errorf("create loggermap temp file: %w", err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("write loggermap temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("close loggermap temp file: %w", err)
	}
	if err := os.Rename(tmpPath, s.path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("rename loggermap temp file: %w", err)
	}
	return nil
}
