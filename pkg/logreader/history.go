package logreader

import (
	"context"
	"fmt"
	"math"

	"github.com/karabo-go/karabologd/pkg/backendclient"
	"github.com/karabo-go/karabologd/pkg/metrics"
	"github.com/karabo-go/karabologd/pkg/types"
)

// HistoryPoint is one (value, stamp) pair returned by
// GetPropertyHistory, either a raw row or a down-sampled bucket
// average.
type HistoryPoint struct {
	Value types.Value
	Stamp types.Timestamp
}

// GetPropertyHistory implements slotGetPropertyHistory: raw rows if
// the interval holds at most maxNumData points, otherwise a uniform
// time-bucket average down-sampled to exactly maxNumData buckets.
func (r *Reader) GetPropertyHistory(ctx context.Context, deviceID, path string, from, to types.Timestamp, maxNumData int) ([]HistoryPoint, error) {
	if err := r.validateMaxNumData(maxNumData); err != nil {
		return nil, err
	}
	if maxNumData == 0 {
		maxNumData = r.cfg.DefaultNumData
	}

	timer := metrics.NewTimer()
	defer timer.ObserveDurationVec(metrics.QueryDuration, "property_history")

	r.mu.Lock()
	r.numGetPropertyHistory++
	r.mu.Unlock()
	metrics.PropertyHistoryQueriesTotal.Inc()

	queryText := backendclient.PropertyHistoryQuery(deviceID, path, from, to)
	result, err := r.backend.QueryDB(ctx, queryText)
	if err != nil {
		r.enterError(err)
		return nil, fmt.Errorf("query property history: %w", err)
	}
	r.recoverOK()

	rows, err := parseHistoryRows(result)
	if err != nil {
		return nil, fmt.Errorf("parse property history reply: %w", err)
	}

	if len(rows) <= maxNumData {
		return rows, nil
	}
	return downsample(rows, from, to, maxNumData)
}

// validateMaxNumData enforces 0 <= n <= maxHistorySize, with the exact
// two-phrase message external tests grep for.
func (r *Reader) validateMaxNumData(n int) error {
	if n >= 0 && n <= r.cfg.MaxHistorySize {
		return nil
	}
	return fmt.Errorf(
		"Requested maximum number of data points ('maxNumData') is %d, which surpasses the limit of %d",
		n, r.cfg.MaxHistorySize,
	)
}

func parseHistoryRows(result *backendclient.QueryResult) ([]HistoryPoint, error) {
	timeIdx, valueIdx := -1, -1
	for i, col := range result.Columns {
		switch col {
		case "time":
			timeIdx = i
		case "value":
			valueIdx = i
		}
	}
	if timeIdx == -1 || valueIdx == -1 {
		return nil, fmt.Errorf("reply missing time/value columns")
	}

	points := make([]HistoryPoint, 0, len(result.Rows))
	for _, row := range result.Rows {
		stamp, err := microsToTimestamp(row[timeIdx])
		if err != nil {
			return nil, err
		}
		points = append(points, HistoryPoint{
			Value: queryCellToValue(row[valueIdx]),
			Stamp: stamp,
		})
	}
	return points, nil
}

func microsToTimestamp(cell interface{}) (types.Timestamp, error) {
	us, ok := toFloat64(cell)
	if !ok {
		return types.Timestamp{}, fmt.Errorf("non-numeric time cell %v", cell)
	}
	whole := int64(us) / 1_000_000
	frac := int64(us) % 1_000_000
	return types.Timestamp{Seconds: whole, Atto: uint64(frac) * 1_000_000_000_000}, nil
}

func queryCellToValue(cell interface{}) types.Value {
	switch v := cell.(type) {
	case string:
		return types.NewString(v)
	case float64:
		return types.NewFloat64(v)
	case bool:
		return types.Value{Type: types.TypeBool, Bool: v}
	default:
		return types.NewString(fmt.Sprintf("%v", v))
	}
}

func toFloat64(cell interface{}) (float64, bool) {
	switch v := cell.(type) {
	case float64:
		return v, true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	default:
		return 0, false
	}
}

// downsample buckets rows into exactly n uniform-time buckets over
// [from, to], averaging numeric values within each bucket and
// ignoring NaN contributions; a bucket with no numeric values yields
// NaN. Non-numeric (e.g. string) properties cannot be averaged and
// are returned unchanged, since the algorithm's invariant only
// applies to numeric history.
func downsample(rows []HistoryPoint, from, to types.Timestamp, n int) ([]HistoryPoint, error) {
	if len(rows) == 0 || n <= 0 {
		return rows, nil
	}
	if _, err := rows[0].Value.AsFloat64(); err != nil {
		return rows, nil
	}

	spanMicros := to.MicrosSinceEpoch() - from.MicrosSinceEpoch()
	if spanMicros <= 0 {
		return rows, nil
	}
	bucketMicros := spanMicros / int64(n)
	if bucketMicros <= 0 {
		bucketMicros = 1
	}

	sums := make([]float64, n)
	counts := make([]int, n)
	lastStamp := make([]types.Timestamp, n)

	fromMicros := from.MicrosSinceEpoch()
	for _, pt := range rows {
		idx := int((pt.Stamp.MicrosSinceEpoch() - fromMicros) / bucketMicros)
		if idx < 0 {
			idx = 0
		}
		if idx >= n {
			idx = n - 1
		}
		f, err := pt.Value.AsFloat64()
		if err != nil || math.IsNaN(f) {
			continue
		}
		sums[idx] += f
		counts[idx]++
		lastStamp[idx] = pt.Stamp
	}

	out := make([]HistoryPoint, n)
	for i := 0; i < n; i++ {
		avg := math.NaN()
		if counts[i] > 0 {
			avg = sums[i] / float64(counts[i])
		}
		stamp := lastStamp[i]
		if stamp == (types.Timestamp{}) {
			stamp = types.Timestamp{
				Seconds: fromMicros/1_000_000 + (int64(i)*bucketMicros)/1_000_000,
			}
		}
		out[i] = HistoryPoint{Value: types.NewFloat64(avg), Stamp: stamp}
	}
	return out, nil
}
