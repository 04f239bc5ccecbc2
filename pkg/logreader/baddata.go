package logreader

import (
	"context"
	"fmt"

	"github.com/karabo-go/karabologd/pkg/backendclient"
	"github.com/karabo-go/karabologd/pkg/metrics"
	"github.com/karabo-go/karabologd/pkg/types"
)

// BadDataEntry is one row of a slotGetBadData reply.
type BadDataEntry struct {
	Info string
	Time types.Timestamp
}

// GetBadData implements slotGetBadData: bad-data rows across
// deviceIDs in [from, to], grouped by device. deviceIDs is supplied by
// the caller (typically the current loggermap entries) since the
// backend measurement namespace is per-device.
func (r *Reader) GetBadData(ctx context.Context, deviceIDs []string, from, to types.Timestamp) (map[string][]BadDataEntry, error) {
	timer := metrics.NewTimer()
	defer timer.ObserveDurationVec(metrics.QueryDuration, "bad_data")

	r.mu.Lock()
	r.numGetBadData++
	r.mu.Unlock()
	metrics.BadDataQueriesTotal.Inc()

	out := make(map[string][]BadDataEntry)
	for _, deviceID := range deviceIDs {
		queryText := backendclient.BadDataQuery(backendclient.BadDataMeasurement(deviceID), from, to)
		result, err := r.backend.QueryDB(ctx, queryText)
		if err != nil {
			r.enterError(err)
			return nil, fmt.Errorf("query bad data for %s: %w", deviceID, err)
		}
		r.recoverOK()

		infoIdx, timeIdx := colIndex(result.Columns, "info"), colIndex(result.Columns, "time")
		if infoIdx == -1 || timeIdx == -1 {
			continue
		}
		for _, row := range result.Rows {
			stamp, err := microsToTimestamp(row[timeIdx])
			if err != nil {
				continue
			}
			info, _ := row[infoIdx].(string)
			out[deviceID] = append(out[deviceID], BadDataEntry{Info: info, Time: stamp})
		}
	}
	return out, nil
}
