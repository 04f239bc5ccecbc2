package types

import "fmt"

// ReferenceType tags the dynamic type carried by a Value.
type ReferenceType int

const (
	TypeBool ReferenceType = iota
	TypeInt8
	TypeUint8
	TypeInt16
	TypeUint16
	TypeInt32
	TypeUint32
	TypeInt64
	TypeUint64
	TypeFloat32
	TypeFloat64
	TypeString
	TypeVectorBool
	TypeVectorInt8
	TypeVectorUint8
	TypeVectorInt16
	TypeVectorUint16
	TypeVectorInt32
	TypeVectorUint32
	TypeVectorInt64
	TypeVectorUint64
	TypeVectorFloat32
	TypeVectorFloat64
	TypeVectorString
	TypeTable
)

// IsVector reports whether t is one of the vector-of-scalar tags.
func (t ReferenceType) IsVector() bool {
	return t >= TypeVectorBool && t <= TypeVectorString
}

// Row is one record of a Table value: an ordered map of column name to
// scalar Value.
type Row map[string]Value

// Value is a tagged scalar, vector or table property value. Exactly one
// of the embedded fields is meaningful, selected by Type.
type Value struct {
	Type ReferenceType

	Bool    bool
	Int     int64
	Uint    uint64
	Float32 float32
	Float64 float64
	Str     string

	VecBool    []bool
	VecInt     []int64
	VecUint    []uint64
	VecFloat32 []float32
	VecFloat64 []float64
	VecString  []string

	Table []Row
}

// NewString constructs a scalar string Value.
func NewString(s string) Value {
	return Value{Type: TypeString, Str: s}
}

// NewInt32 constructs a scalar int32 Value.
func NewInt32(v int32) Value {
	return Value{Type: TypeInt32, Int: int64(v)}
}

// NewFloat64 constructs a scalar double Value.
func NewFloat64(v float64) Value {
	return Value{Type: TypeFloat64, Float64: v}
}

// NewVectorString constructs a vector<string> Value.
func NewVectorString(v []string) Value {
	return Value{Type: TypeVectorString, VecString: v}
}

// ByteSize estimates the serialized size of v for rate/size limiting.
// Scalars cost a fixed overhead plus their natural width; strings and
// vectors cost their element count times element width plus overhead.
func (v Value) ByteSize() int {
	const overhead = 16
	switch v.Type {
	case TypeBool, TypeInt8, TypeUint8:
		return overhead + 1
	case TypeInt16, TypeUint16:
		return overhead + 2
	case TypeInt32, TypeUint32, TypeFloat32:
		return overhead + 4
	case TypeInt64, TypeUint64, TypeFloat64:
		return overhead + 8
	case TypeString:
		return overhead + len(v.Str)
	case TypeVectorBool, TypeVectorInt8, TypeVectorUint8:
		return overhead + len(v.VecBool) + len(v.VecInt) + len(v.VecUint)
	case TypeVectorInt16, TypeVectorUint16:
		return overhead + 2*(len(v.VecInt)+len(v.VecUint))
	case TypeVectorInt32, TypeVectorUint32, TypeVectorFloat32:
		return overhead + 4*(len(v.VecInt)+len(v.VecUint)+len(v.VecFloat32))
	case TypeVectorInt64, TypeVectorUint64, TypeVectorFloat64:
		return overhead + 8*(len(v.VecInt)+len(v.VecUint)+len(v.VecFloat64))
	case TypeVectorString:
		n := overhead
		for _, s := range v.VecString {
			n += len(s)
		}
		return n
	case TypeTable:
		n := overhead
		for _, row := range v.Table {
			for _, cell := range row {
				n += cell.ByteSize()
			}
		}
		return n
	default:
		return overhead
	}
}

// VectorLen returns the element count of a vector-typed Value, or 0 for
// scalars and tables.
func (v Value) VectorLen() int {
	switch v.Type {
	case TypeVectorBool:
		return len(v.VecBool)
	case TypeVectorInt8, TypeVectorInt16, TypeVectorInt32, TypeVectorInt64:
		return len(v.VecInt)
	case TypeVectorUint8, TypeVectorUint16, TypeVectorUint32, TypeVectorUint64:
		return len(v.VecUint)
	case TypeVectorFloat32:
		return len(v.VecFloat32)
	case TypeVectorFloat64:
		return len(v.VecFloat64)
	case TypeVectorString:
		return len(v.VecString)
	default:
		return 0
	}
}

// AsFloat64 converts a numeric scalar Value to float64 for averaging
// during down-sampling. Returns an error for non-numeric types.
func (v Value) AsFloat64() (float64, error) {
	switch v.Type {
	case TypeFloat64:
		return v.Float64, nil
	case TypeFloat32:
		return float64(v.Float32), nil
	case TypeInt8, TypeInt16, TypeInt32, TypeInt64:
		return float64(v.Int), nil
	case TypeUint8, TypeUint16, TypeUint32, TypeUint64:
		return float64(v.Uint), nil
	case TypeBool:
		if v.Bool {
			return 1, nil
		}
		return 0, nil
	default:
		return 0, fmt.Errorf("value of type %v is not numeric", v.Type)
	}
}
