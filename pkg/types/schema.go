package types

import (
	"crypto/sha256"
	"encoding/hex"
)

// SchemaRevision is one content-addressed snapshot of a device's
// schema. A given Digest may legitimately recur for the same device;
// see the safe-schema-retention invariant enforced in pkg/datalogger.
type SchemaRevision struct {
	DeviceID    string
	SchemaBlob  []byte
	Digest      string
	FirstSeenAt Timestamp
	Size        int
}

// Digest computes the content digest of a schema blob. The digest
// identifies a schema revision independent of when or how many times
// it was observed.
func Digest(blob []byte) string {
	sum := sha256.Sum256(blob)
	return hex.EncodeToString(sum[:])
}

// NewSchemaRevision builds a SchemaRevision from a raw blob, computing
// its digest and size.
func NewSchemaRevision(deviceID string, blob []byte, seenAt Timestamp) SchemaRevision {
	return SchemaRevision{
		DeviceID:    deviceID,
		SchemaBlob:  blob,
		Digest:      Digest(blob),
		FirstSeenAt: seenAt,
		Size:        len(blob),
	}
}
