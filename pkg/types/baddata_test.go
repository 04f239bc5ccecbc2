package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBadDataReasonStringCoversAllReasons(t *testing.T) {
	cases := map[BadDataReason]string{
		ReasonFarFuture:           "far_future",
		ReasonVectorOversize:      "vector_oversize",
		ReasonStringOversize:      "string_oversize",
		ReasonPropertyRateLimited: "property_rate_limited",
		ReasonSchemaRateLimited:   "schema_rate_limited",
	}
	for reason, want := range cases {
		assert.Equal(t, want, reason.String())
	}
}

func TestBadDataReasonStringUnknownFallsBack(t *testing.T) {
	assert.Equal(t, "unknown", BadDataReason(99).String())
}

func TestPropertyUpdateByteSizeIncludesPathAndDeviceOverhead(t *testing.T) {
	u := PropertyUpdate{DeviceID: "dev1", Path: "speed", Value: NewInt32(1)}
	assert.Equal(t, u.Value.ByteSize()+len("dev1")+len("speed")+24, u.ByteSize())
}
