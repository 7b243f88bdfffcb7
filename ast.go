package main

// Target AST for one lowering pass. Nodes are built once by the collector
// and mapper and never mutated afterwards; the whole tree is discarded after
// serialization.

// File is one output proto file: optional package name, file options and
// top-level declarations in discovery order.
type File struct {
	Package string
	Options OptionSet
	Decls   []Decl
}

// Decl is a top-level declaration: *ServiceDecl, *MessageDecl or *EnumDecl.
type Decl interface {
	decl()
}

// ServiceDecl is a service with its methods in declaration order.
type ServiceDecl struct {
	Name    string
	Methods []*Method
}

// Method is a single rpc. Input and Output must name messages declared in
// the same file set, or be the placeholder when translation failed.
type Method struct {
	Name   string
	Input  Reference
	Output Reference
}

// MessageDecl is a message with nested declarations in declaration order.
// Reserved entries are representable but never populated by the mapper.
type MessageDecl struct {
	Name     string
	Decls    []MsgDecl
	Reserved []Reservation
}

// MsgDecl is a declaration inside a message: *Field, *OneofDecl or a nested
// *MessageDecl.
type MsgDecl interface {
	msgDecl()
}

// Field is a single message field.
type Field struct {
	Name     string
	Type     WireType
	Index    int64
	Repeated bool
	Options  OptionSet
}

// OneofDecl is a oneof group. Fields must be non-empty.
type OneofDecl struct {
	Name   string
	Fields []*Field
}

// EnumDecl is an enum. It renders like any other declaration but the mapper
// never produces one; callers may attach enums to a File directly.
type EnumDecl struct {
	Name   string
	Values []EnumValue
}

// EnumValue is one enum member.
type EnumValue struct {
	Name   string
	Number int32
}

// Reservation is one reserved statement entry: a single number, an inclusive
// number range, or a name.
type Reservation struct {
	Number int64
	End    int64 // 0 for a single number; otherwise inclusive range end
	Name   string
}

func (*ServiceDecl) decl() {}
func (*MessageDecl) decl() {}
func (*EnumDecl) decl()    {}

func (*Field) msgDecl()       {}
func (*OneofDecl) msgDecl()   {}
func (*MessageDecl) msgDecl() {}

// maxFieldIndex is the largest legal wire tag.
const maxFieldIndex = 1<<29 - 1

// Reserved implementation range for wire tags. Advisory only.
const (
	reservedRangeLo = 19000
	reservedRangeHi = 19999
)

// OptionValue is a string or bool option value.
type OptionValue struct {
	Str    string
	Bool   bool
	IsBool bool
}

// OptionSet is a sparse key-value option set. Only keys from the fixed
// vocabulary for the containing position render, in canonical order.
type OptionSet map[string]OptionValue

// knownFileOptions is the canonical render order for file-level options.
var knownFileOptions = []string{
	"go_package",
	"java_package",
	"java_outer_classname",
	"java_multiple_files",
}

// knownFieldOptions is the canonical render order for field options.
var knownFieldOptions = []string{
	"json_name",
	"packed",
	"deprecated",
}

// SetString sets a string-valued option.
func (o OptionSet) SetString(key, value string) {
	o[key] = OptionValue{Str: value}
}

// SetBool sets a bool-valued option.
func (o OptionSet) SetBool(key string, value bool) {
	o[key] = OptionValue{Bool: value, IsBool: true}
}
