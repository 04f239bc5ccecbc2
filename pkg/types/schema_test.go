package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDigestIsStableAndContentAddressed(t *testing.T) {
	a := Digest([]byte("schema-v1"))
	b := Digest([]byte("schema-v1"))
	c := Digest([]byte("schema-v2"))

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
	assert.Len(t, a, 64)
}

func TestNewSchemaRevisionComputesDigestAndSize(t *testing.T) {
	blob := []byte(`{"x":1}`)
	seenAt := Now()

	rev := NewSchemaRevision("dev1", blob, seenAt)

	assert.Equal(t, "dev1", rev.DeviceID)
	assert.Equal(t, Digest(blob), rev.Digest)
	assert.Equal(t, len(blob), rev.Size)
	assert.Equal(t, seenAt, rev.FirstSeenAt)
}
