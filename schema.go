package main

import (
	"fmt"
	"strings"

	"github.com/BurntSushi/toml"
)

// The schema loader turns a TOML schema definition into the source graph and
// binding maps the lowering pass consumes. Everything TOML-specific stays
// here; the core only ever sees the graph.

type schemaDoc struct {
	Namespaces []nsDef    `toml:"namespaces"`
	Interfaces []ifaceDef `toml:"interfaces"`
	Models     []modelDef `toml:"models"`
}

type nsDef struct {
	Name    string         `toml:"name"`
	Package string         `toml:"package"`
	Options map[string]any `toml:"options"`
}

type ifaceDef struct {
	Namespace  string  `toml:"namespace"`
	Name       string  `toml:"name"`
	Service    bool    `toml:"service"`
	Operations []opDef `toml:"operations"`
}

type opDef struct {
	Name   string     `toml:"name"`
	Input  string     `toml:"input"`
	Output string     `toml:"output"`
	Params []paramDef `toml:"params"`
}

type paramDef struct {
	Name string `toml:"name"`
	Type string `toml:"type"`
}

type modelDef struct {
	Name   string     `toml:"name"`
	Fields []fieldDef `toml:"fields"`
}

type fieldDef struct {
	Name  string `toml:"name"`
	Type  string `toml:"type"`
	Index *int64 `toml:"index"`
}

// LoadSchema reads a schema definition file and builds the source graph plus
// the metadata bindings for one lowering pass.
func LoadSchema(path string) (*Namespace, Bindings, error) {
	var doc schemaDoc
	if _, err := toml.DecodeFile(path, &doc); err != nil {
		return nil, Bindings{}, &ParseError{Err: err}
	}
	return buildGraph(path, doc)
}

func buildGraph(path string, doc schemaDoc) (*Namespace, Bindings, error) {
	root := &Namespace{}
	bind := Bindings{
		PackageNames:   make(map[*Namespace]string),
		Services:       make(map[*Interface]bool),
		FieldIndexes:   make(map[*Property]int64),
		PackageOptions: make(map[*Namespace]OptionSet),
	}

	for _, def := range doc.Namespaces {
		ns := ensureNamespace(root, def.Name)
		if def.Package != "" {
			bind.PackageNames[ns] = def.Package
		}
		if len(def.Options) > 0 {
			opts, err := decodeOptions(path, def.Options)
			if err != nil {
				return nil, Bindings{}, err
			}
			bind.PackageOptions[ns] = opts
		}
	}

	// Declare every model first so fields can reference models in any order.
	models := make(map[string]*Model)
	for _, def := range doc.Models {
		if def.Name == "" {
			return nil, Bindings{}, &SchemaError{Path: path, Reason: "model with empty name"}
		}
		if models[def.Name] != nil {
			return nil, Bindings{}, &SchemaError{Path: path, Reason: "model " + def.Name + " declared twice"}
		}
		models[def.Name] = &Model{Name: def.Name}
	}
	for _, def := range doc.Models {
		m := models[def.Name]
		for _, fd := range def.Fields {
			t, err := parseTypeRef(path, fd.Type, models)
			if err != nil {
				return nil, Bindings{}, err
			}
			prop := &Property{Name: fd.Name, Type: t}
			m.Properties = append(m.Properties, prop)
			if fd.Index != nil {
				bind.FieldIndexes[prop] = *fd.Index
			}
		}
	}

	for _, def := range doc.Interfaces {
		ns := ensureNamespace(root, def.Namespace)
		iface := &Interface{Name: def.Name}
		ns.Interfaces = append(ns.Interfaces, iface)
		if def.Service {
			bind.Services[iface] = true
		}
		for _, od := range def.Operations {
			op, err := buildOperation(path, od, models)
			if err != nil {
				return nil, Bindings{}, err
			}
			iface.Operations = append(iface.Operations, op)
		}
	}

	return root, bind, nil
}

func buildOperation(path string, def opDef, models map[string]*Model) (*Operation, error) {
	op := &Operation{Name: def.Name}

	// The parameter bag: either the input shorthand (one property of the
	// named type) or an explicit params list.
	bag := &Model{Name: def.Name + "Params"}
	switch {
	case def.Input != "" && len(def.Params) > 0:
		return nil, &SchemaError{Path: path, Reason: "operation " + def.Name + " sets both input and params"}
	case def.Input != "":
		t, err := parseTypeRef(path, def.Input, models)
		if err != nil {
			return nil, err
		}
		bag.Properties = []*Property{{Name: "request", Type: t}}
	default:
		for _, pd := range def.Params {
			t, err := parseTypeRef(path, pd.Type, models)
			if err != nil {
				return nil, err
			}
			bag.Properties = append(bag.Properties, &Property{Name: pd.Name, Type: t})
		}
	}
	op.Params = bag

	if def.Output == "" {
		return nil, &SchemaError{Path: path, Reason: "operation " + def.Name + " has no output"}
	}
	out, err := parseTypeRef(path, def.Output, models)
	if err != nil {
		return nil, err
	}
	op.Return = out

	return op, nil
}

// ensureNamespace resolves a dotted path under root, creating intermediate
// namespaces as needed. The empty path is root itself.
func ensureNamespace(root *Namespace, path string) *Namespace {
	if path == "" {
		return root
	}
	ns := root
	for _, seg := range strings.Split(path, ".") {
		var next *Namespace
		for _, child := range ns.Namespaces {
			if child.Name == seg {
				next = child
				break
			}
		}
		if next == nil {
			next = &Namespace{Name: seg}
			ns.Namespaces = append(ns.Namespaces, next)
		}
		ns = next
	}
	return ns
}

// parseTypeRef resolves a type expression: map<K, V>, array<T>, a declared
// model name, or an intrinsic. Unknown names pass through as intrinsics so
// the mapper can report them with full diagnostics.
func parseTypeRef(path, expr string, models map[string]*Model) (Type, error) {
	expr = strings.TrimSpace(expr)
	if expr == "" {
		return Type{}, &SchemaError{Path: path, Reason: "empty type expression"}
	}

	if arg, ok := genericArg(expr, "array"); ok {
		elem, err := parseTypeRef(path, arg, models)
		if err != nil {
			return Type{}, err
		}
		return Type{Model: &Model{Name: "array", Builtin: true, TemplateArgs: []Type{elem}}}, nil
	}

	if args, ok := genericArg(expr, "map"); ok {
		key, value, err := splitTypeArgs(args)
		if err != nil {
			return Type{}, &SchemaError{Path: path, Reason: fmt.Sprintf("bad map type %q: %v", expr, err)}
		}
		k, err := parseTypeRef(path, key, models)
		if err != nil {
			return Type{}, err
		}
		v, err := parseTypeRef(path, value, models)
		if err != nil {
			return Type{}, err
		}
		return Type{Model: &Model{Name: "map", Builtin: true, TemplateArgs: []Type{k, v}}}, nil
	}

	if m := models[expr]; m != nil {
		return Type{Model: m}, nil
	}
	return Type{Intrinsic: expr}, nil
}

// genericArg matches "name<args>" and returns the argument text.
func genericArg(expr, name string) (string, bool) {
	if !strings.HasPrefix(expr, name+"<") || !strings.HasSuffix(expr, ">") {
		return "", false
	}
	return expr[len(name)+1 : len(expr)-1], true
}

// splitTypeArgs splits "K, V" at the top-level comma, respecting nested
// angle brackets.
func splitTypeArgs(args string) (string, string, error) {
	depth := 0
	for i := 0; i < len(args); i++ {
		switch args[i] {
		case '<':
			depth++
		case '>':
			depth--
		case ',':
			if depth == 0 {
				return strings.TrimSpace(args[:i]), strings.TrimSpace(args[i+1:]), nil
			}
		}
	}
	return "", "", fmt.Errorf("expected two type arguments")
}

// decodeOptions converts a TOML options table into an OptionSet, restricted
// to the known file-option vocabulary.
func decodeOptions(path string, raw map[string]any) (OptionSet, error) {
	opts := OptionSet{}
	for key, value := range raw {
		known := false
		for _, k := range knownFileOptions {
			if k == key {
				known = true
				break
			}
		}
		if !known {
			return nil, &SchemaError{Path: path, Reason: "unknown file option " + key}
		}
		switch v := value.(type) {
		case string:
			opts.SetString(key, v)
		case bool:
			opts.SetBool(key, v)
		default:
			return nil, &SchemaError{Path: path, Reason: fmt.Sprintf("option %s must be a string or bool, got %T", key, value)}
		}
	}
	return opts, nil
}
