package rpc

import (
	"testing"
	"time"

	"github.com/karabo-go/karabologd/pkg/types"
	"github.com/stretchr/testify/assert"
	"google.golang.org/protobuf/types/known/structpb"
)

func TestFieldAccessorsHandleMissingAndNilStruct(t *testing.T) {
	assert.Equal(t, "", fieldString(nil, "deviceId"))
	assert.Equal(t, 0, fieldInt(nil, "maxNumData"))
	assert.Equal(t, types.Timestamp{}, fieldTimestamp(nil, "from"))

	s := newStruct(map[string]*structpb.Value{
		"deviceId":   structpb.NewStringValue("SA/MOTOR/1"),
		"maxNumData": structpb.NewNumberValue(1000),
	})
	assert.Equal(t, "SA/MOTOR/1", fieldString(s, "deviceId"))
	assert.Equal(t, 1000, fieldInt(s, "maxNumData"))
	assert.Equal(t, "", fieldString(s, "missing"))
}

func TestFieldTimestampParsesRFC3339Nano(t *testing.T) {
	ts := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	s := newStruct(map[string]*structpb.Value{
		"from": structpb.NewStringValue(ts.Format(time.RFC3339Nano)),
	})
	got := fieldTimestamp(s, "from")
	assert.Equal(t, ts.Unix(), got.Seconds)
}

func TestValueToStructValueByType(t *testing.T) {
	assert.Equal(t, true, valueToStructValue(types.Value{Type: types.TypeBool, Bool: true}).GetBoolValue())
	assert.Equal(t, "hello", valueToStructValue(types.NewString("hello")).GetStringValue())
	assert.Equal(t, float64(7), valueToStructValue(types.NewInt32(7)).GetNumberValue())
}
