package backendclient

import (
	"fmt"
	"strings"

	"github.com/karabo-go/karabologd/pkg/types"
)

// microsLiteral formats a Timestamp as the backend's u-suffixed
// microsecond time literal, e.g. "1700000000000000u".
func microsLiteral(t types.Timestamp) string {
	return fmt.Sprintf("%du", t.MicrosSinceEpoch())
}

// PropertyHistoryQuery builds the SQL-like query text for retrieving
// raw rows of one device property over [from, to].
func PropertyHistoryQuery(deviceID, path string, from, to types.Timestamp) string {
	return fmt.Sprintf(
		`SELECT value FROM "%s" WHERE "property" = '%s' AND time >= %s AND time <= %s ORDER BY time ASC`,
		ValueMeasurement(deviceID), escapeLiteral(path), microsLiteral(from), microsLiteral(to),
	)
}

// SchemaAtOrBeforeQuery builds the query text for the latest schema
// revision with firstSeenAt <= atTime.
func SchemaAtOrBeforeQuery(deviceID string, atTime types.Timestamp) string {
	return fmt.Sprintf(
		`SELECT digest, chunk_index, chunk_count, blob FROM "%s" WHERE time <= %s ORDER BY time DESC LIMIT 1`,
		SchemaMeasurement(deviceID), microsLiteral(atTime),
	)
}

// LatestValueAtOrBeforeQuery builds the query text for the latest
// value of one property with stamp <= atTime.
func LatestValueAtOrBeforeQuery(deviceID, path string, atTime types.Timestamp) string {
	return fmt.Sprintf(
		`SELECT value FROM "%s" WHERE "property" = '%s' AND time <= %s ORDER BY time DESC LIMIT 1`,
		ValueMeasurement(deviceID), escapeLiteral(path), microsLiteral(atTime),
	)
}

// BadDataQuery builds the query text for bad-data rows across all
// devices in [from, to]; the reader groups the reply by device.
func BadDataQuery(measurementPattern string, from, to types.Timestamp) string {
	return fmt.Sprintf(
		`SELECT info, reason_code FROM "%s" WHERE time >= %s AND time <= %s`,
		measurementPattern, microsLiteral(from), microsLiteral(to),
	)
}

// LatestValuesAtOrBeforeQuery builds the query text for the latest
// value of every property of a device with stamp <= atTime, one row
// per property, used to assemble slotGetConfigurationFromPast.
func LatestValuesAtOrBeforeQuery(deviceID string, atTime types.Timestamp) string {
	return fmt.Sprintf(
		`SELECT LAST(value) FROM "%s" WHERE time <= %s GROUP BY "property"`,
		ValueMeasurement(deviceID), microsLiteral(atTime),
	)
}

func escapeLiteral(s string) string {
	return strings.ReplaceAll(s, "'", "\\'")
}
