package types

// StampOrigin records whether a PropertyUpdate's Timestamp was
// supplied by the device or assigned by the logger because the
// device-supplied stamp was judged untrustworthy.
type StampOrigin int

const (
	StampUserAssigned StampOrigin = iota
	StampLoggerAssigned
)

// PropertyUpdate is one device property change as received from the
// transport layer, prior to classification.
type PropertyUpdate struct {
	DeviceID string
	Path     string
	Value    Value
	Stamp    Timestamp
	Origin   StampOrigin
}

// ByteSize is the cost this update contributes to rate-limit
// accounting: the Value's estimated size plus a fixed per-event
// overhead for the path and timestamp.
func (p PropertyUpdate) ByteSize() int {
	return p.Value.ByteSize() + len(p.DeviceID) + len(p.Path) + 24
}
