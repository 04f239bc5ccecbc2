package datalogger

import (
	"fmt"
	"time"

	"github.com/karabo-go/karabologd/pkg/backendclient"
	"github.com/karabo-go/karabologd/pkg/metrics"
	"github.com/karabo-go/karabologd/pkg/types"
)

// maxSchemaChunkSize bounds a single line-protocol field; schemas
// larger than this are split across multiple chunk lines sharing a
// digest, reassembled by the Log Reader on read.
const maxSchemaChunkSize = 64 * 1024

// handleSchema de-duplicates a schema revision against the last
// digest written for this device within the safe schema retention
// period, rate-limits genuinely new revisions, and batches them.
func (d *DataLogger) handleSchema(msg schemaMsg) {
	d.mu.RLock()
	discontinued := d.discontinued[msg.deviceID]
	d.mu.RUnlock()
	if discontinued {
		return
	}

	now := time.Now()
	digest := types.Digest(msg.blob)

	if d.isRetainedDigest(msg.deviceID, digest, now) {
		metrics.SchemaWritesTotal.WithLabelValues("deduplicated").Inc()
		return
	}

	window := d.schemaWindowFor(msg.deviceID)
	if !window.Admit(now, len(msg.blob)) {
		metrics.RateLimitRejectionsTotal.WithLabelValues("schema").Inc()
		info := fmt.Sprintf("%s::schema log rate exceeded", msg.deviceID)
		d.reject(msg.deviceID, now, types.ReasonSchemaRateLimited, info)
		return
	}

	chunks := chunkSchema(msg.blob, maxSchemaChunkSize)
	for i, chunk := range chunks {
		line := backendclient.SchemaLine(msg.deviceID, digest, i, len(chunks), chunk, msg.seenAt)
		d.enqueue(msg.deviceID, msg.seenAt, line)
	}
	metrics.SchemaWritesTotal.WithLabelValues("written").Inc()

	d.markDigestWritten(msg.deviceID, digest, now)
}

// isRetainedDigest reports whether digest was already written for
// deviceId within the safe schema retention period; a digest that
// recurs after the window closes is written again, since spec.md
// treats revisiting-the-same-schema-after-a-long-gap as a genuine new
// observation rather than noise.
func (d *DataLogger) isRetainedDigest(deviceID, digest string, now time.Time) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()

	byDigest, ok := d.schemaLastWritten[deviceID]
	if !ok {
		return false
	}
	last, ok := byDigest[digest]
	if !ok {
		return false
	}
	return now.Sub(last) < d.cfg.SafeSchemaRetentionPeriod
}

func (d *DataLogger) markDigestWritten(deviceID, digest string, now time.Time) {
	d.mu.Lock()
	defer d.mu.Unlock()

	byDigest, ok := d.schemaLastWritten[deviceID]
	if !ok {
		byDigest = make(map[string]time.Time)
		d.schemaLastWritten[deviceID] = byDigest
	}
	byDigest[digest] = now
}

func chunkSchema(blob []byte, chunkSize int) [][]byte {
	if len(blob) <= chunkSize {
		return [][]byte{blob}
	}
	var chunks [][]byte
	for i := 0; i < len(blob); i += chunkSize {
		end := i + chunkSize
		if end > len(blob) {
			end = len(blob)
		}
		chunks = append(chunks, blob[i:end])
	}
	return chunks
}
