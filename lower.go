package main

import "strconv"

// Lower runs one lowering pass over the source graph: it discovers the
// declared packages, collects every reachable service, translates the
// transitively reachable models into messages, and returns the per-package
// files plus accumulated diagnostics.
//
// Bad declarations never abort the pass; they produce diagnostics and
// placeholder values so sibling declarations still translate. The returned
// error is reserved for internal invariant violations (a malformed graph),
// never for user-level schema mistakes.
func Lower(root *Namespace, bind Bindings) (*Result, error) {
	p := &pass{bind: bind}

	pkgs := collectPackages(root, bind)
	if len(pkgs) == 0 {
		// No declared packages: everything reachable lands in one
		// default file with no package name.
		if err := p.lowerPackage(root, ""); err != nil {
			return nil, err
		}
	} else {
		for _, ns := range pkgs {
			if err := p.lowerPackage(ns, bind.PackageNames[ns]); err != nil {
				return nil, err
			}
		}
	}

	return &Result{Files: p.files, Diagnostics: p.diags}, nil
}

// collectPackages returns the namespaces carrying a package binding, in
// stable pre-order traversal order.
func collectPackages(root *Namespace, bind Bindings) []*Namespace {
	var pkgs []*Namespace
	var walk func(ns *Namespace)
	walk = func(ns *Namespace) {
		if _, ok := bind.PackageNames[ns]; ok {
			pkgs = append(pkgs, ns)
		}
		for _, child := range ns.Namespaces {
			walk(child)
		}
	}
	walk(root)
	return pkgs
}

// pass holds the state of one Lower invocation.
type pass struct {
	bind  Bindings
	files []*File
	diags []Diagnostic
}

// fileState scopes message memoization to one output file. Models shared
// across services translate once per file; the visited map is keyed by model
// identity and marked before descending so reference cycles terminate.
type fileState struct {
	file    *File
	visited map[*Model]*MessageDecl
}

func (p *pass) report(code, detail string, sev Severity, node any, params ...string) {
	p.diags = append(p.diags, Diagnostic{
		Code:     code,
		Detail:   detail,
		Severity: sev,
		Params:   params,
		Node:     node,
	})
}

// lowerPackage builds one File rooted at ns. Recursion into descendant
// namespaces stops at any namespace that is itself a different declared
// package, so a service never appears in two files.
func (p *pass) lowerPackage(ns *Namespace, pkg string) error {
	fs := &fileState{
		file:    &File{Package: pkg, Options: p.bind.PackageOptions[ns]},
		visited: make(map[*Model]*MessageDecl),
	}
	if fs.file.Options == nil {
		fs.file.Options = OptionSet{}
	}
	if err := p.walkNamespace(fs, ns); err != nil {
		return err
	}
	p.files = append(p.files, fs.file)
	return nil
}

func (p *pass) walkNamespace(fs *fileState, ns *Namespace) error {
	for _, iface := range ns.Interfaces {
		if !p.bind.Services[iface] {
			continue
		}
		if err := p.lowerService(fs, iface); err != nil {
			return err
		}
	}
	for _, child := range ns.Namespaces {
		if _, ok := p.bind.PackageNames[child]; ok {
			continue // package boundary
		}
		if err := p.walkNamespace(fs, child); err != nil {
			return err
		}
	}
	return nil
}

func (p *pass) lowerService(fs *fileState, iface *Interface) error {
	svc := &ServiceDecl{Name: iface.Name}
	fs.file.Decls = append(fs.file.Decls, svc)
	for _, op := range iface.Operations {
		m, err := p.lowerOperation(fs, op)
		if err != nil {
			return err
		}
		svc.Methods = append(svc.Methods, m)
	}
	return nil
}

// lowerOperation turns one operation into an rpc. The parameter bag must
// hold exactly one model-typed property; the return type must be a model.
// Violations substitute the placeholder reference and translation continues.
func (p *pass) lowerOperation(fs *fileState, op *Operation) (*Method, error) {
	m := &Method{Name: op.Name, Input: placeholderReference(), Output: placeholderReference()}

	var props []*Property
	if op.Params != nil {
		props = op.Params.Properties
	}
	if len(props) != 1 {
		p.report(CodeUnsupportedInputType, DetailWrongNumber, SeverityError, op,
			op.Name, strconv.Itoa(len(props)))
	} else if prop := props[0]; prop.Type.Model == nil || prop.Type.Model.Builtin {
		p.report(CodeUnsupportedInputType, DetailWrongType, SeverityError, op,
			op.Name, prop.Name)
	} else {
		in, err := p.message(fs, prop.Type.Model)
		if err != nil {
			return nil, err
		}
		m.Input = Reference{Message: in.Name}
	}

	if op.Return.Model == nil || op.Return.Model.Builtin {
		p.report(CodeUnsupportedReturnType, DetailWrongType, SeverityError, op, op.Name)
	} else {
		out, err := p.message(fs, op.Return.Model)
		if err != nil {
			return nil, err
		}
		m.Output = Reference{Message: out.Name}
	}

	return m, nil
}

// message translates a model into a message declaration, memoized by model
// identity within the file. The model is marked visited before its fields
// are translated so self-referential and mutually-referential models do not
// recurse forever.
func (p *pass) message(fs *fileState, model *Model) (*MessageDecl, error) {
	if md, ok := fs.visited[model]; ok {
		return md, nil
	}
	md := &MessageDecl{Name: model.Name}
	fs.visited[model] = md
	fs.file.Decls = append(fs.file.Decls, md)
	for _, prop := range model.Properties {
		f, err := p.lowerProperty(fs, prop)
		if err != nil {
			return nil, err
		}
		md.Decls = append(md.Decls, f)
	}
	return md, nil
}

// lowerProperty turns one property into a field declaration: wire type from
// the type mapping, index from the field-index binding.
func (p *pass) lowerProperty(fs *fileState, prop *Property) (*Field, error) {
	f := &Field{Name: prop.Name, Options: OptionSet{}}

	t := prop.Type
	if m := t.Model; m.IsArray() {
		f.Repeated = true
		t = m.TemplateArgs[0]
	}
	wt, err := p.wireTypeOf(fs, prop, t)
	if err != nil {
		return nil, err
	}
	if f.Repeated {
		if _, isMap := wt.(MapType); isMap {
			p.report(CodeUnsupportedFieldType, DetailUnconvertible, SeverityError, prop,
				prop.Name, "a repeated map is not representable")
			wt = placeholderReference()
		}
	}
	f.Type = wt

	idx, ok := p.bind.FieldIndexes[prop]
	switch {
	case !ok:
		p.report(CodeFieldIndex, DetailInvalid, SeverityError, prop, prop.Name)
	case idx <= 0 || idx > maxFieldIndex:
		p.report(CodeFieldIndex, DetailOutOfBounds, SeverityError, prop,
			prop.Name, strconv.FormatInt(idx, 10))
		f.Index = idx
	case idx >= reservedRangeLo && idx <= reservedRangeHi:
		// Advisory: the field still emits with this index.
		p.report(CodeFieldIndex, DetailReserved, SeverityWarning, prop,
			prop.Name, strconv.FormatInt(idx, 10))
		f.Index = idx
	default:
		f.Index = idx
	}

	return f, nil
}

// wireTypeOf maps one source type to its wire representation. Failures are
// reported and yield the placeholder reference; only a malformed graph
// returns an error.
func (p *pass) wireTypeOf(fs *fileState, prop *Property, t Type) (WireType, error) {
	if t.IsZero() {
		return nil, &InternalError{Reason: "property " + prop.Name + " has no type"}
	}

	if t.Intrinsic != "" {
		kind, ok := scalarTable[t.Intrinsic]
		if !ok {
			p.report(CodeUnsupportedFieldType, DetailUnknownIntrinsic, SeverityError, prop,
				prop.Name, t.Intrinsic)
			return placeholderReference(), nil
		}
		return Scalar{Kind: kind}, nil
	}

	model := t.Model
	switch {
	case model.IsMap():
		keyWT, err := p.wireTypeOf(fs, prop, model.TemplateArgs[0])
		if err != nil {
			return nil, err
		}
		valWT, err := p.wireTypeOf(fs, prop, model.TemplateArgs[1])
		if err != nil {
			return nil, err
		}
		key, ok := keyWT.(Scalar)
		if !ok {
			p.report(CodeUnsupportedFieldType, DetailUnconvertible, SeverityError, prop,
				prop.Name, "map key must be a string or integral scalar")
			return placeholderReference(), nil
		}
		mt, err := newMapType(key, valWT)
		if err != nil {
			p.report(CodeUnsupportedFieldType, DetailUnconvertible, SeverityError, prop,
				prop.Name, err.Error())
			return placeholderReference(), nil
		}
		return mt, nil
	case model.IsArray():
		// Arrays are unwrapped to the repeated flag at the field level;
		// reaching one here means array-of-array or map-of-array.
		p.report(CodeUnsupportedFieldType, DetailUnconvertible, SeverityError, prop,
			prop.Name, "nested arrays are not representable")
		return placeholderReference(), nil
	case model.Builtin:
		p.report(CodeUnsupportedFieldType, DetailUnconvertible, SeverityError, prop,
			prop.Name, "builtin construct "+model.Name+" has no wire representation")
		return placeholderReference(), nil
	default:
		md, err := p.message(fs, model)
		if err != nil {
			return nil, err
		}
		return Reference{Message: md.Name}, nil
	}
}
