package schema

import (
	"encoding"
	"reflect"
	"time"

	"google.golang.org/protobuf/types/descriptorpb"
)

// Well-known type names and import paths referenced by command arguments.
const (
	WellKnownDuration = ".google.protobuf.Duration"
	DurationProto     = "google/protobuf/duration.proto"
)

var (
	durationType        = reflect.TypeOf(time.Duration(0))
	textUnmarshalerType = reflect.TypeOf((*encoding.TextUnmarshaler)(nil)).Elem()
)

// IsDurationType checks if a type is time.Duration.
func IsDurationType(t reflect.Type) bool {
	return t == durationType
}

// IsTextType reports whether values of t are given on the command line in
// their text form, so the schema describes them as strings.
func IsTextType(t reflect.Type) bool {
	return t.Kind() != reflect.Ptr && reflect.PointerTo(t).Implements(textUnmarshalerType)
}

// scalarType maps a flag value's Go kind to its protobuf scalar type.
func scalarType(t reflect.Type) (descriptorpb.FieldDescriptorProto_Type, bool) {
	switch t.Kind() { //nolint:exhaustive // Unsupported kinds handled in default case
	case reflect.String:
		return descriptorpb.FieldDescriptorProto_TYPE_STRING, true
	case reflect.Bool:
		return descriptorpb.FieldDescriptorProto_TYPE_BOOL, true
	case reflect.Int8, reflect.Int16, reflect.Int32:
		return descriptorpb.FieldDescriptorProto_TYPE_INT32, true
	case reflect.Int, reflect.Int64:
		return descriptorpb.FieldDescriptorProto_TYPE_INT64, true
	case reflect.Uint8, reflect.Uint16, reflect.Uint32:
		return descriptorpb.FieldDescriptorProto_TYPE_UINT32, true
	case reflect.Uint, reflect.Uint64:
		return descriptorpb.FieldDescriptorProto_TYPE_UINT64, true
	case reflect.Float32:
		return descriptorpb.FieldDescriptorProto_TYPE_FLOAT, true
	case reflect.Float64:
		return descriptorpb.FieldDescriptorProto_TYPE_DOUBLE, true
	default:
		return 0, false
	}
}
