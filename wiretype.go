package main

import "fmt"

// ScalarKind enumerates the proto3 scalar types a field can carry.
type ScalarKind int

const (
	ScalarDouble ScalarKind = iota
	ScalarFloat
	ScalarInt32
	ScalarInt64
	ScalarUint32
	ScalarUint64
	ScalarBool
	ScalarString
	ScalarBytes
)

func (k ScalarKind) String() string {
	switch k {
	case ScalarDouble:
		return "double"
	case ScalarFloat:
		return "float"
	case ScalarInt32:
		return "int32"
	case ScalarInt64:
		return "int64"
	case ScalarUint32:
		return "uint32"
	case ScalarUint64:
		return "uint64"
	case ScalarBool:
		return "bool"
	case ScalarString:
		return "string"
	case ScalarBytes:
		return "bytes"
	default:
		return "unknown"
	}
}

// Integral reports whether k is a proto3 integer type.
func (k ScalarKind) Integral() bool {
	switch k {
	case ScalarInt32, ScalarInt64, ScalarUint32, ScalarUint64:
		return true
	}
	return false
}

// scalarTable maps source intrinsic names to target scalars.
var scalarTable = map[string]ScalarKind{
	"bytes":   ScalarBytes,
	"boolean": ScalarBool,
	"int32":   ScalarInt32,
	"int64":   ScalarInt64,
	"uint32":  ScalarUint32,
	"uint64":  ScalarUint64,
	"string":  ScalarString,
	"float32": ScalarFloat,
	"float64": ScalarDouble,
}

// WireType is the closed set of field value representations: scalar,
// reference to a message, or map. The marker method seals the set.
type WireType interface {
	wireType()
}

// Scalar is a proto3 scalar wire type.
type Scalar struct {
	Kind ScalarKind
}

// Reference names a message declared elsewhere in the file set.
type Reference struct {
	Message string
}

// MapType is a proto3 map. Key is restricted to string or integral scalars;
// Value is any wire type except another map.
type MapType struct {
	Key   Scalar
	Value WireType
}

func (Scalar) wireType()    {}
func (Reference) wireType() {}
func (MapType) wireType()   {}

// placeholderName is the sentinel substituted when translation fails, so
// downstream consumers always hold a well-formed value.
const placeholderName = "<unreachable>"

func placeholderReference() Reference {
	return Reference{Message: placeholderName}
}

// IsPlaceholder reports whether r is the error sentinel.
func (r Reference) IsPlaceholder() bool {
	return r.Message == placeholderName
}

// newMapType builds a map wire type, enforcing the key and value
// restrictions. Violations are reported by the caller as diagnostics.
func newMapType(key Scalar, value WireType) (MapType, error) {
	if key.Kind != ScalarString && !key.Kind.Integral() {
		return MapType{}, fmt.Errorf("map key must be string or integral, got %s", key.Kind)
	}
	if _, ok := value.(MapType); ok {
		return MapType{}, fmt.Errorf("map value must not be another map")
	}
	return MapType{Key: key, Value: value}, nil
}

// MatchWireType dispatches exhaustively over the wire-type variants. Adding
// a variant forces every call site to grow an arm.
func MatchWireType[T any](t WireType, scalar func(Scalar) T, ref func(Reference) T, mp func(MapType) T) T {
	switch v := t.(type) {
	case Scalar:
		return scalar(v)
	case Reference:
		return ref(v)
	case MapType:
		return mp(v)
	default:
		panic(fmt.Sprintf("unknown wire type %T", t))
	}
}
