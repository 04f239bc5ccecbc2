package backendclient

import (
	"strconv"
	"strings"

	"github.com/karabo-go/karabologd/pkg/types"
)

// ValueMeasurement returns the line-protocol measurement name for a
// device's property values.
func ValueMeasurement(deviceID string) string { return deviceID }

// SchemaMeasurement returns the line-protocol measurement name for a
// device's schema revisions.
func SchemaMeasurement(deviceID string) string { return deviceID + "__SCHEMAS" }

// BadDataMeasurement returns the line-protocol measurement name for a
// device's bad-data records.
func BadDataMeasurement(deviceID string) string { return deviceID + "__BAD_DATA" }

// escapeTag escapes commas, spaces and equals signs in a tag key/value,
// per line-protocol's tag escaping rules.
func escapeTag(s string) string {
	r := strings.NewReplacer(",", "\\,", " ", "\\ ", "=", "\\=")
	return r.Replace(s)
}

// escapeFieldString escapes a string field value: backslash then quote.
func escapeFieldString(s string) string {
	r := strings.NewReplacer("\\", "\\\\", "\"", "\\\"")
	return r.Replace(s)
}

// FormatFloat32 formats a float32 field preserving 7 significant
// decimal digits without rounding away undisplayed bits, per the
// Backend Client's precision contract.
func FormatFloat32(v float32) string {
	return strconv.FormatFloat(float64(v), 'g', 7, 32)
}

// FormatFloat64 formats a float64 (double) field preserving 15
// significant decimal digits.
func FormatFloat64(v float64) string {
	return strconv.FormatFloat(v, 'g', 15, 64)
}

// Line builds one line-protocol line for a single property update:
//
//	<deviceId>,property=<path> value=<encoded> <timestampMicros>
func Line(deviceID, path string, v types.Value, stamp types.Timestamp) string {
	var b strings.Builder
	b.WriteString(ValueMeasurement(deviceID))
	b.WriteByte(',')
	b.WriteString("property=")
	b.WriteString(escapeTag(path))
	b.WriteByte(' ')
	writeField(&b, v)
	b.WriteByte(' ')
	b.WriteString(strconv.FormatInt(stamp.MicrosSinceEpoch(), 10))
	return b.String()
}

func writeField(b *strings.Builder, v types.Value) {
	b.WriteString("value=")
	switch v.Type {
	case types.TypeBool:
		if v.Bool {
			b.WriteString("true")
		} else {
			b.WriteString("false")
		}
	case types.TypeInt8, types.TypeInt16, types.TypeInt32, types.TypeInt64:
		b.WriteString(strconv.FormatInt(v.Int, 10))
		b.WriteByte('i')
	case types.TypeUint8, types.TypeUint16, types.TypeUint32, types.TypeUint64:
		b.WriteString(strconv.FormatUint(v.Uint, 10))
		b.WriteByte('i')
	case types.TypeFloat32:
		b.WriteString(FormatFloat32(v.Float32))
	case types.TypeFloat64:
		b.WriteString(FormatFloat64(v.Float64))
	case types.TypeString:
		b.WriteByte('"')
		b.WriteString(escapeFieldString(v.Str))
		b.WriteByte('"')
	default:
		// Vectors and tables are stored as their JSON encoding under a
		// single string field; InfluxLogReader-equivalent paths decode
		// it back on read.
		b.WriteByte('"')
		b.WriteString(escapeFieldString(vectorToJSON(v)))
		b.WriteByte('"')
	}
}

// SchemaLine builds a line-protocol line for a schema revision or
// chunk thereof.
func SchemaLine(deviceID string, digest string, chunkIndex, chunkCount int, chunk []byte, stamp types.Timestamp) string {
	var b strings.Builder
	b.WriteString(SchemaMeasurement(deviceID))
	b.WriteString(",digest=")
	b.WriteString(escapeTag(digest))
	b.WriteString(" chunk_index=")
	b.WriteString(strconv.Itoa(chunkIndex))
	b.WriteString("i,chunk_count=")
	b.WriteString(strconv.Itoa(chunkCount))
	b.WriteString("i,blob=\"")
	b.WriteString(escapeFieldString(string(chunk)))
	b.WriteString("\" ")
	b.WriteString(strconv.FormatInt(stamp.MicrosSinceEpoch(), 10))
	return b.String()
}

// BadDataLine builds a line-protocol line for a bad-data record.
func BadDataLine(deviceID, info string, reasonCode int, stamp types.Timestamp) string {
	var b strings.Builder
	b.WriteString(BadDataMeasurement(deviceID))
	b.WriteString(" info=\"")
	b.WriteString(escapeFieldString(info))
	b.WriteString("\",reason_code=")
	b.WriteString(strconv.Itoa(reasonCode))
	b.WriteString("i ")
	b.WriteString(strconv.FormatInt(stamp.MicrosSinceEpoch(), 10))
	return b.String()
}
