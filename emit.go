package main

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
)

// defaultStem names the output file when no package is declared.
const defaultStem = "main"

// protoExt is the output file extension.
const protoExt = ".proto"

// FilePath derives the output path from a dotted package name: all but the
// last segment become directories, the last segment is the file stem.
func FilePath(pkg string) string {
	if pkg == "" {
		return defaultStem + protoExt
	}
	segs := strings.Split(pkg, ".")
	segs[len(segs)-1] += protoExt
	return filepath.Join(segs...)
}

// Emit renders a file-level AST into proto3 source text. Declarations render
// in stored order; repeated runs over the same AST are byte-identical.
func Emit(file *File) string {
	var out strings.Builder

	out.WriteString("syntax = \"proto3\";\n")

	if file.Package != "" {
		out.WriteByte('\n')
		out.WriteString("package ")
		out.WriteString(file.Package)
		out.WriteString(";\n")
	}

	writeFileOptions(&out, file.Options)

	for _, d := range file.Decls {
		out.WriteByte('\n')
		switch decl := d.(type) {
		case *ServiceDecl:
			writeService(&out, decl)
		case *MessageDecl:
			writeMessage(&out, decl, 0)
		case *EnumDecl:
			writeEnum(&out, decl)
		}
	}

	return out.String()
}

// writeFileOptions renders the options present, in canonical key order.
func writeFileOptions(out *strings.Builder, opts OptionSet) {
	wrote := false
	for _, key := range knownFileOptions {
		v, ok := opts[key]
		if !ok {
			continue
		}
		if !wrote {
			out.WriteByte('\n')
			wrote = true
		}
		out.WriteString("option ")
		out.WriteString(key)
		out.WriteString(" = ")
		out.WriteString(optionValueText(v))
		out.WriteString(";\n")
	}
}

func optionValueText(v OptionValue) string {
	if v.IsBool {
		return strconv.FormatBool(v.Bool)
	}
	return strconv.Quote(v.Str)
}

func writeService(out *strings.Builder, svc *ServiceDecl) {
	out.WriteString("service ")
	out.WriteString(svc.Name)
	out.WriteString(" {\n")
	for _, m := range svc.Methods {
		fmt.Fprintf(out, "  rpc %s(%s) returns (%s);\n", m.Name, m.Input.Message, m.Output.Message)
	}
	out.WriteString("}\n")
}

func writeMessage(out *strings.Builder, msg *MessageDecl, depth int) {
	indent := strings.Repeat("  ", depth)
	out.WriteString(indent)
	out.WriteString("message ")
	out.WriteString(msg.Name)
	out.WriteString(" {\n")

	writeReserved(out, msg.Reserved, indent+"  ")

	for _, d := range msg.Decls {
		switch decl := d.(type) {
		case *Field:
			writeField(out, decl, indent+"  ")
		case *OneofDecl:
			out.WriteString(indent)
			out.WriteString("  oneof ")
			out.WriteString(decl.Name)
			out.WriteString(" {\n")
			for _, f := range decl.Fields {
				writeField(out, f, indent+"    ")
			}
			out.WriteString(indent)
			out.WriteString("  }\n")
		case *MessageDecl:
			writeMessage(out, decl, depth+1)
		}
	}

	out.WriteString(indent)
	out.WriteString("}\n")
}

// writeReserved renders reservations as two statements at most: one for
// numbers and ranges, one for names.
func writeReserved(out *strings.Builder, rs []Reservation, indent string) {
	var nums, names []string
	for _, r := range rs {
		switch {
		case r.Name != "":
			names = append(names, strconv.Quote(r.Name))
		case r.End != 0:
			nums = append(nums, fmt.Sprintf("%d to %d", r.Number, r.End))
		default:
			nums = append(nums, strconv.FormatInt(r.Number, 10))
		}
	}
	if len(nums) > 0 {
		out.WriteString(indent)
		out.WriteString("reserved ")
		out.WriteString(strings.Join(nums, ", "))
		out.WriteString(";\n")
	}
	if len(names) > 0 {
		out.WriteString(indent)
		out.WriteString("reserved ")
		out.WriteString(strings.Join(names, ", "))
		out.WriteString(";\n")
	}
}

func writeField(out *strings.Builder, f *Field, indent string) {
	out.WriteString(indent)
	if f.Repeated {
		out.WriteString("repeated ")
	}
	out.WriteString(wireTypeText(f.Type))
	out.WriteByte(' ')
	out.WriteString(f.Name)
	out.WriteString(" = ")
	out.WriteString(strconv.FormatInt(f.Index, 10))
	out.WriteString(fieldOptionsText(f.Options))
	out.WriteString(";\n")
}

// fieldOptionsText renders the bracketed option list, sparse and in
// canonical key order, or the empty string when no options are set.
func fieldOptionsText(opts OptionSet) string {
	var parts []string
	for _, key := range knownFieldOptions {
		v, ok := opts[key]
		if !ok {
			continue
		}
		parts = append(parts, key+" = "+optionValueText(v))
	}
	if len(parts) == 0 {
		return ""
	}
	return " [" + strings.Join(parts, ", ") + "]"
}

// wireTypeText renders a wire type with the target's native syntax.
func wireTypeText(t WireType) string {
	return MatchWireType(t,
		func(s Scalar) string { return s.Kind.String() },
		func(r Reference) string { return r.Message },
		func(m MapType) string {
			return "map<" + m.Key.Kind.String() + ", " + wireTypeText(m.Value) + ">"
		},
	)
}

func writeEnum(out *strings.Builder, e *EnumDecl) {
	out.WriteString("enum ")
	out.WriteString(e.Name)
	out.WriteString(" {\n")
	for _, v := range e.Values {
		fmt.Fprintf(out, "  %s = %d;\n", v.Name, v.Number)
	}
	out.WriteString("}\n")
}
