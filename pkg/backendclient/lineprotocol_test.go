package backendclient

import (
	"testing"
	"time"

	"github.com/karabo-go/karabologd/pkg/types"
	"github.com/stretchr/testify/assert"
)

func TestValueMeasurementNamesMatchConvention(t *testing.T) {
	assert.Equal(t, "XFEL/DET/1", ValueMeasurement("XFEL/DET/1"))
	assert.Equal(t, "XFEL/DET/1__SCHEMAS", SchemaMeasurement("XFEL/DET/1"))
	assert.Equal(t, "XFEL/DET/1__BAD_DATA", BadDataMeasurement("XFEL/DET/1"))
}

func TestLineEncodesScalarTypes(t *testing.T) {
	stamp := types.FromTime(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))

	tests := []struct {
		name string
		v    types.Value
		want string
	}{
		{"bool true", types.Value{Type: types.TypeBool, Bool: true}, "value=true"},
		{"bool false", types.Value{Type: types.TypeBool, Bool: false}, "value=false"},
		{"int32", types.NewInt32(42), "value=42i"},
		{"uint32", types.Value{Type: types.TypeUint32, Uint: 7}, "value=7i"},
		{"string", types.NewString(`say "hi"`), `value="say \"hi\""`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			line := Line("dev1", "prop", tt.v, stamp)
			assert.Contains(t, line, tt.want)
			assert.Contains(t, line, "dev1,property=prop ")
		})
	}
}

func TestLineEscapesTagPath(t *testing.T) {
	stamp := types.FromTime(time.Now())
	line := Line("dev1", "a,b c=d", types.NewInt32(1), stamp)
	assert.Contains(t, line, `property=a\,b\ c\=d`)
}

func TestLineEncodesVectorAsJSONString(t *testing.T) {
	stamp := types.FromTime(time.Now())
	line := Line("dev1", "prop", types.NewVectorString([]string{"a", "b"}), stamp)
	assert.Contains(t, line, `value="[\"a\",\"b\"]"`)
}

func TestFormatFloat32PreservesPrecision(t *testing.T) {
	assert.Equal(t, "3.141593", FormatFloat32(3.1415927))
}

func TestFormatFloat64PreservesPrecision(t *testing.T) {
	assert.Equal(t, "3.14159265358979", FormatFloat64(3.14159265358979))
}

func TestSchemaLineIncludesChunkFields(t *testing.T) {
	stamp := types.FromTime(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	line := SchemaLine("dev1", "abc123", 1, 3, []byte(`{"x":1}`), stamp)

	assert.Contains(t, line, "dev1__SCHEMAS,digest=abc123")
	assert.Contains(t, line, "chunk_index=1i,chunk_count=3i")
	assert.Contains(t, line, `blob="{\"x\":1}"`)
}

func TestBadDataLineIncludesReasonCode(t *testing.T) {
	stamp := types.FromTime(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	line := BadDataLine("dev1", "value out of range", int(types.ReasonFarFuture), stamp)

	assert.Contains(t, line, "dev1__BAD_DATA info=\"value out of range\"")
	assert.Contains(t, line, "reason_code=")
}
