package backendclient

import (
	"encoding/json"

	"github.com/karabo-go/karabologd/pkg/types"
)

// vectorToJSON encodes a vector or table Value as JSON text for
// storage under a single string field. Scalars never reach this path.
func vectorToJSON(v types.Value) string {
	var payload interface{}
	switch v.Type {
	case types.TypeVectorBool:
		payload = v.VecBool
	case types.TypeVectorInt8, types.TypeVectorInt16, types.TypeVectorInt32, types.TypeVectorInt64:
		payload = v.VecInt
	case types.TypeVectorUint8, types.TypeVectorUint16, types.TypeVectorUint32, types.TypeVectorUint64:
		payload = v.VecUint
	case types.TypeVectorFloat32:
		payload = v.VecFloat32
	case types.TypeVectorFloat64:
		payload = v.VecFloat64
	case types.TypeVectorString:
		payload = v.VecString
	case types.TypeTable:
		payload = v.Table
	default:
		payload = nil
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return "[]"
	}
	return string(data)
}

// vectorFromJSON decodes a JSON-encoded vector back into a Value of
// the given ReferenceType. Used by the Log Reader reconstructing
// historical values.
func vectorFromJSON(t types.ReferenceType, data string) (types.Value, error) {
	v := types.Value{Type: t}
	var err error
	switch t {
	case types.TypeVectorBool:
		err = json.Unmarshal([]byte(data), &v.VecBool)
	case types.TypeVectorInt8, types.TypeVectorInt16, types.TypeVectorInt32, types.TypeVectorInt64:
		err = json.Unmarshal([]byte(data), &v.VecInt)
	case types.TypeVectorUint8, types.TypeVectorUint16, types.TypeVectorUint32, types.TypeVectorUint64:
		err = json.Unmarshal([]byte(data), &v.VecUint)
	case types.TypeVectorFloat32:
		err = json.Unmarshal([]byte(data), &v.VecFloat32)
	case types.TypeVectorFloat64:
		err = json.Unmarshal([]byte(data), &v.VecFloat64)
	case types.TypeVectorString:
		err = json.Unmarshal([]byte(data), &v.VecString)
	case types.TypeTable:
		err = json.Unmarshal([]byte(data), &v.Table)
	}
	return v, err
}
