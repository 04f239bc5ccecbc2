package logreader

import (
	"context"
	"fmt"

	"github.com/karabo-go/karabologd/pkg/backendclient"
	"github.com/karabo-go/karabologd/pkg/metrics"
	"github.com/karabo-go/karabologd/pkg/types"
)

// DiscontinuedProbe reports the timestamp at which deviceID was last
// tagged discontinued, if ever. Injected so logreader stays
// independent of pkg/manager; a nil probe means configAtTimeFlag is
// always true.
type DiscontinuedProbe func(deviceID string) (types.Timestamp, bool)

// ConfigurationFromPast is the reply to slotGetConfigurationFromPast.
type ConfigurationFromPast struct {
	ConfigHash      string
	Schema          []byte
	ConfigAtTimeFlag bool
	ConfigTimepoint  string
	Values           map[string]types.Value
}

// GetConfigurationFromPast implements slotGetConfigurationFromPast:
// the latest schema revision with firstSeenAt <= atTime, the latest
// value of every property of that schema with stamp <= atTime, and
// whether the device was still being logged at atTime.
func (r *Reader) GetConfigurationFromPast(ctx context.Context, deviceID string, atTime types.Timestamp, discontinued DiscontinuedProbe) (*ConfigurationFromPast, error) {
	timer := metrics.NewTimer()
	defer timer.ObserveDurationVec(metrics.QueryDuration, "configuration_from_past")

	r.mu.Lock()
	r.numGetConfigurationFromPast++
	r.mu.Unlock()
	metrics.ConfigurationFromPastQueriesTotal.Inc()

	digest, blob, err := r.latestSchemaAtOrBefore(ctx, deviceID, atTime)
	if err != nil {
		r.enterError(err)
		return nil, err
	}
	if digest == "" {
		return nil, fmt.Errorf("No active schema could be found for device at (or before) timepoint.")
	}
	r.recoverOK()

	values, maxStamp, err := r.latestValuesAtOrBefore(ctx, deviceID, atTime)
	if err != nil {
		r.enterError(err)
		return nil, fmt.Errorf("query latest values: %w", err)
	}
	r.recoverOK()

	atTimeFlag := true
	if discontinued != nil {
		if goneAt, ok := discontinued(deviceID); ok && !goneAt.After(atTime) {
			atTimeFlag = false
		}
	}

	return &ConfigurationFromPast{
		ConfigHash:       digest,
		Schema:           blob,
		ConfigAtTimeFlag: atTimeFlag,
		ConfigTimepoint:  maxStamp.ISO8601Micros(),
		Values:           values,
	}, nil
}

func (r *Reader) latestSchemaAtOrBefore(ctx context.Context, deviceID string, atTime types.Timestamp) (digest string, blob []byte, err error) {
	queryText := backendclient.SchemaAtOrBeforeQuery(deviceID, atTime)
	result, err := r.backend.QueryDB(ctx, queryText)
	if err != nil {
		return "", nil, fmt.Errorf("query schema: %w", err)
	}
	if len(result.Rows) == 0 {
		return "", nil, nil
	}

	digestIdx, blobIdx := colIndex(result.Columns, "digest"), colIndex(result.Columns, "blob")
	if digestIdx == -1 || blobIdx == -1 {
		return "", nil, fmt.Errorf("schema reply missing digest/blob columns")
	}
	row := result.Rows[0]
	digest, _ = row[digestIdx].(string)
	blobStr, _ := row[blobIdx].(string)

	if r.cache != nil {
		if cached, ok := r.cache.Get(digest); ok {
			metrics.SchemaCacheHitsTotal.WithLabelValues("hit").Inc()
			return digest, cached, nil
		}
		metrics.SchemaCacheHitsTotal.WithLabelValues("miss").Inc()
		_ = r.cache.Put(digest, []byte(blobStr))
	}
	return digest, []byte(blobStr), nil
}

func (r *Reader) latestValuesAtOrBefore(ctx context.Context, deviceID string, atTime types.Timestamp) (map[string]types.Value, types.Timestamp, error) {
	queryText := backendclient.LatestValuesAtOrBeforeQuery(deviceID, atTime)
	result, err := r.backend.QueryDB(ctx, queryText)
	if err != nil {
		return nil, types.Timestamp{}, fmt.Errorf("query latest values: %w", err)
	}

	timeIdx, valueIdx, propIdx := colIndex(result.Columns, "time"), colIndex(result.Columns, "value"), colIndex(result.Columns, "property")
	if timeIdx == -1 || valueIdx == -1 {
		return map[string]types.Value{}, types.Timestamp{}, nil
	}

	values := make(map[string]types.Value)
	var maxStamp types.Timestamp
	for _, row := range result.Rows {
		stamp, err := microsToTimestamp(row[timeIdx])
		if err != nil {
			continue
		}
		if stamp.After(maxStamp) {
			maxStamp = stamp
		}
		path := ""
		if propIdx != -1 {
			path, _ = row[propIdx].(string)
		}
		values[path] = queryCellToValue(row[valueIdx])
	}
	return values, maxStamp, nil
}

func colIndex(columns []string, name string) int {
	for i, c := range columns {
		if c == name {
			return i
		}
	}
	return -1
}
