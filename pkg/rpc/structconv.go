package rpc

import (
	"time"

	"github.com/karabo-go/karabologd/pkg/types"
	"google.golang.org/protobuf/types/known/structpb"
)

func fieldString(s *structpb.Struct, key string) string {
	if s == nil {
		return ""
	}
	v, ok := s.Fields[key]
	if !ok {
		return ""
	}
	return v.GetStringValue()
}

func fieldInt(s *structpb.Struct, key string) int {
	if s == nil {
		return 0
	}
	v, ok := s.Fields[key]
	if !ok {
		return 0
	}
	return int(v.GetNumberValue())
}

// fieldTimestamp reads an RFC3339 or ISO-8601-micros string field and
// converts it to a types.Timestamp.
func fieldTimestamp(s *structpb.Struct, key string) types.Timestamp {
	str := fieldString(s, key)
	t, err := time.Parse(time.RFC3339Nano, str)
	if err != nil {
		return types.Timestamp{}
	}
	return types.FromTime(t)
}

func valueToStructValue(v types.Value) *structpb.Value {
	switch v.Type {
	case types.TypeBool:
		return structpb.NewBoolValue(v.Bool)
	case types.TypeString:
		return structpb.NewStringValue(v.Str)
	default:
		if f, err := v.AsFloat64(); err == nil {
			return structpb.NewNumberValue(f)
		}
		return structpb.NewStringValue(v.Str)
	}
}

func newStruct(fields map[string]*structpb.Value) *structpb.Struct {
	return &structpb.Struct{Fields: fields}
}
