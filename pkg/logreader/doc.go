/*
Package logreader implements the Log Reader: the read path over
property history, past configuration reconstruction, and historical
bad-data lookup, querying the same time-series backend the Data Logger
writes through pkg/backendclient.

# Architecture

	┌───────────────────── READER ──────────────────────┐
	│  GetPropertyHistory(device, path, from, to, n)      │
	│    -> raw rows, or n-bucket uniform-time average    │
	│                                                       │
	│  GetConfigurationFromPast(device, atTime)            │
	│    -> latest schema <= atTime (pkg/schemacache +     │
	│       backend), latest value per property <= atTime  │
	│                                                       │
	│  GetBadData(deviceIDs, from, to)                     │
	│    -> backend query, grouped by device               │
	│                                                       │
	│  state: ON -> ERROR on first failed backend access   │
	└───────────────────────────────────────────────────────┘

# Usage

	import "github.com/karabo-go/karabologd/pkg/logreader"

	r := logreader.New(logreader.DefaultConfig(), backend, cache)
	points, err := r.GetPropertyHistory(ctx, "XFEL/MOTOR/1", "position", from, to, 500)

# Integration Points

  - pkg/backendclient: issues all query traffic
  - pkg/schemacache: keeps schema blobs by digest; the schema query
    still runs on every lookup, and a cached digest's bytes are returned
    instead of the reply's blob
  - pkg/rpc: exposes these operations as gRPC slots
*/
package logreader
