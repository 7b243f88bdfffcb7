package main

// The source schema is an in-memory graph of namespaces, interfaces and
// models. The lowering pass consumes it read-only; identity is pointer
// identity, so a model reached through two paths is the same node.

// Namespace is a scope in the source schema. Namespaces nest and own
// interfaces in declaration order.
type Namespace struct {
	Name       string
	Namespaces []*Namespace
	Interfaces []*Interface
}

// Interface is a named group of operations.
type Interface struct {
	Name       string
	Operations []*Operation
}

// Operation is a single remote call. Params is the parameter bag: a model
// whose properties are the declared parameters. The wire form requires the
// bag to hold exactly one model-typed property.
type Operation struct {
	Name   string
	Params *Model
	Return Type
}

// Model is a structural record type. Builtin models ("map", "array") carry
// template arguments instead of properties.
type Model struct {
	Name         string
	Properties   []*Property
	Builtin      bool
	TemplateArgs []Type
}

// IsMap reports whether m is the builtin map construct.
func (m *Model) IsMap() bool {
	return m != nil && m.Builtin && m.Name == "map" && len(m.TemplateArgs) == 2
}

// IsArray reports whether m is the builtin array construct.
func (m *Model) IsArray() bool {
	return m != nil && m.Builtin && m.Name == "array" && len(m.TemplateArgs) == 1
}

// Property is a named, typed member of a model.
type Property struct {
	Name string
	Type Type
}

// Type is either an intrinsic primitive (Intrinsic non-empty) or a reference
// to a model (Model non-nil). Exactly one side is set; a Type with neither is
// an internal invariant violation.
type Type struct {
	Intrinsic string
	Model     *Model
}

// IsZero reports whether the type has neither side set.
func (t Type) IsZero() bool {
	return t.Intrinsic == "" && t.Model == nil
}

// Bindings holds the metadata an annotation layer attached to graph nodes,
// keyed by node identity. The lowering pass never mutates these maps.
type Bindings struct {
	// PackageNames marks namespaces that become one output file each and
	// gives the dotted package name.
	PackageNames map[*Namespace]string

	// Services marks interfaces that export remote operations.
	Services map[*Interface]bool

	// FieldIndexes gives the wire tag for a property. Absence means the
	// schema never attached one, which the validator reports.
	FieldIndexes map[*Property]int64

	// PackageOptions carries file-level options for a package namespace.
	PackageOptions map[*Namespace]OptionSet
}
