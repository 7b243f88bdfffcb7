package main

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"google.golang.org/protobuf/proto"
	descriptorpb "google.golang.org/protobuf/types/descriptorpb"
)

// Verify checks that emitted text faithfully round-trips the AST it was
// rendered from: re-scanning it recovers the same declarations, methods and
// field indices. When protoc is available it additionally compiles the text
// and compares the resulting descriptor against the AST.
func Verify(file *File, text string, opts Options) error {
	if err := verifyRoundTrip(file, text); err != nil {
		return fmt.Errorf("round-trip check failed: %w", err)
	}
	if !opts.SkipVerify {
		if err := verifyDescriptor(file, text, opts); err != nil {
			return fmt.Errorf("descriptor verification failed: %w", err)
		}
	}
	return nil
}

// verifyRoundTrip re-scans text and compares the recovered structure with
// the AST.
func verifyRoundTrip(file *File, text string) error {
	blocks, err := ScanProto(text)
	if err != nil {
		return fmt.Errorf("scanning output: %w", err)
	}

	byKey := make(map[string]*Block)
	var pkgBlock, syntaxBlock *Block
	optionNames := make(map[string]bool)
	for _, b := range blocks {
		switch b.Kind {
		case BlockSyntax:
			syntaxBlock = b
		case BlockPackage:
			pkgBlock = b
		case BlockOption:
			optionNames[b.Name] = true
		default:
			key := b.Kind.String() + ":" + b.Name
			if byKey[key] != nil {
				return fmt.Errorf("declaration %q appears twice", key)
			}
			byKey[key] = b
		}
	}

	if syntaxBlock == nil || syntaxBlock.Name != "proto3" {
		return fmt.Errorf("output does not declare proto3 syntax")
	}
	switch {
	case file.Package == "" && pkgBlock != nil:
		return fmt.Errorf("unexpected package %q in output", pkgBlock.Name)
	case file.Package != "" && pkgBlock == nil:
		return fmt.Errorf("package %q missing from output", file.Package)
	case file.Package != "" && pkgBlock.Name != file.Package:
		return fmt.Errorf("package mismatch: want %q, got %q", file.Package, pkgBlock.Name)
	}

	for _, key := range knownFileOptions {
		if _, ok := file.Options[key]; ok && !optionNames[key] {
			return fmt.Errorf("option %q missing from output", key)
		}
	}

	declCount := 0
	for _, d := range file.Decls {
		declCount++
		switch decl := d.(type) {
		case *ServiceDecl:
			b := byKey["service:"+decl.Name]
			if b == nil {
				return fmt.Errorf("service %q missing from output", decl.Name)
			}
			if err := compareService(decl, b); err != nil {
				return err
			}
		case *MessageDecl:
			b := byKey["message:"+decl.Name]
			if b == nil {
				return fmt.Errorf("message %q missing from output", decl.Name)
			}
			if err := compareMessage(decl, b); err != nil {
				return err
			}
		case *EnumDecl:
			if byKey["enum:"+decl.Name] == nil {
				return fmt.Errorf("enum %q missing from output", decl.Name)
			}
		}
	}
	if declCount != len(byKey) {
		return fmt.Errorf("declaration count mismatch: AST has %d, output has %d", declCount, len(byKey))
	}

	return nil
}

func compareService(svc *ServiceDecl, b *Block) error {
	rpcs := ExtractRPCs(b)
	if len(rpcs) != len(svc.Methods) {
		return fmt.Errorf("service %s: method count mismatch: AST has %d, output has %d",
			svc.Name, len(svc.Methods), len(rpcs))
	}
	for i, m := range svc.Methods {
		got := rpcs[i]
		if got.Name != m.Name || got.RequestType != m.Input.Message || got.ResponseType != m.Output.Message {
			return fmt.Errorf("service %s: method %d: want %s(%s) returns (%s), got %s(%s) returns (%s)",
				svc.Name, i, m.Name, m.Input.Message, m.Output.Message,
				got.Name, got.RequestType, got.ResponseType)
		}
	}
	return nil
}

func compareMessage(msg *MessageDecl, b *Block) error {
	want := flattenFields(msg)
	got := ExtractFields(b)
	if len(got) != len(want) {
		return fmt.Errorf("message %s: field count mismatch: AST has %d, output has %d",
			msg.Name, len(want), len(got))
	}
	// Keyed by name: the map-field regex pass reorders scanned fields.
	byName := make(map[string]ScannedField, len(got))
	for _, g := range got {
		byName[g.Name] = g
	}
	for _, f := range want {
		g, ok := byName[f.Name]
		if !ok {
			return fmt.Errorf("message %s: field %q missing from output", msg.Name, f.Name)
		}
		if g.Index != f.Index || g.Repeated != f.Repeated || g.TypeText != wireTypeText(f.Type) {
			return fmt.Errorf("message %s: field %s: want %s %s = %d, got %s %s = %d",
				msg.Name, f.Name, wireTypeText(f.Type), f.Name, f.Index,
				g.TypeText, g.Name, g.Index)
		}
	}
	return nil
}

// flattenFields collects a message's fields in render order, descending into
// oneofs and nested messages the way ExtractFields sees the flat body text.
func flattenFields(msg *MessageDecl) []*Field {
	var out []*Field
	for _, d := range msg.Decls {
		switch decl := d.(type) {
		case *Field:
			out = append(out, decl)
		case *OneofDecl:
			out = append(out, decl.Fields...)
		case *MessageDecl:
			out = append(out, flattenFields(decl)...)
		}
	}
	return out
}

// verifyDescriptor compiles the emitted text with protoc and checks the
// FileDescriptorSet against the AST.
func verifyDescriptor(file *File, text string, opts Options) error {
	protocPath := opts.ProtocPath
	if protocPath == "" {
		protocPath = "protoc"
	}
	if _, err := exec.LookPath(protocPath); err != nil {
		fmt.Fprintf(os.Stderr, "warning: protoc not found, skipping descriptor verification (use -skip-verify to silence)\n")
		return nil
	}

	tmpDir, err := os.MkdirTemp("", "protolower-verify-*")
	if err != nil {
		return fmt.Errorf("creating temp dir: %w", err)
	}
	defer os.RemoveAll(tmpDir)

	protoFile := filepath.Join(tmpDir, "file.proto")
	descOut := filepath.Join(tmpDir, "file.pb")
	if err := os.WriteFile(protoFile, []byte(text), 0644); err != nil {
		return err
	}

	args := []string{"--proto_path=" + tmpDir}
	for _, p := range opts.ProtoPaths {
		args = append(args, "--proto_path="+p)
	}
	args = append(args, "--descriptor_set_out="+descOut, protoFile)
	if out, err := exec.Command(protocPath, args...).CombinedOutput(); err != nil {
		return fmt.Errorf("protoc failed: %s: %w", string(out), err)
	}

	raw, err := os.ReadFile(descOut)
	if err != nil {
		return err
	}
	fds := &descriptorpb.FileDescriptorSet{}
	if err := proto.Unmarshal(raw, fds); err != nil {
		return fmt.Errorf("parsing descriptor set: %w", err)
	}
	if len(fds.GetFile()) != 1 {
		return fmt.Errorf("expected one file descriptor, got %d", len(fds.GetFile()))
	}

	return compareDescriptor(file, fds.GetFile()[0])
}

func compareDescriptor(file *File, fd *descriptorpb.FileDescriptorProto) error {
	if fd.GetPackage() != file.Package {
		return fmt.Errorf("descriptor package mismatch: want %q, got %q", file.Package, fd.GetPackage())
	}

	messages := make(map[string]*descriptorpb.DescriptorProto)
	for _, mt := range fd.GetMessageType() {
		messages[mt.GetName()] = mt
	}
	services := make(map[string]*descriptorpb.ServiceDescriptorProto)
	for _, sv := range fd.GetService() {
		services[sv.GetName()] = sv
	}

	for _, d := range file.Decls {
		switch decl := d.(type) {
		case *MessageDecl:
			mt := messages[decl.Name]
			if mt == nil {
				return fmt.Errorf("message %q missing from descriptor", decl.Name)
			}
			if err := compareMessageDescriptor(decl, mt); err != nil {
				return err
			}
		case *ServiceDecl:
			sv := services[decl.Name]
			if sv == nil {
				return fmt.Errorf("service %q missing from descriptor", decl.Name)
			}
			if len(sv.GetMethod()) != len(decl.Methods) {
				return fmt.Errorf("service %s: descriptor method count mismatch", decl.Name)
			}
			for i, m := range decl.Methods {
				md := sv.GetMethod()[i]
				if md.GetName() != m.Name ||
					!strings.HasSuffix(md.GetInputType(), "."+m.Input.Message) ||
					!strings.HasSuffix(md.GetOutputType(), "."+m.Output.Message) {
					return fmt.Errorf("service %s: method %s differs in descriptor", decl.Name, m.Name)
				}
			}
		}
	}
	return nil
}

func compareMessageDescriptor(msg *MessageDecl, mt *descriptorpb.DescriptorProto) error {
	fields := make(map[string]*descriptorpb.FieldDescriptorProto)
	for _, fd := range mt.GetField() {
		fields[fd.GetName()] = fd
	}
	for _, f := range flattenFields(msg) {
		fd := fields[f.Name]
		if fd == nil {
			return fmt.Errorf("message %s: field %q missing from descriptor", msg.Name, f.Name)
		}
		if int64(fd.GetNumber()) != f.Index {
			return fmt.Errorf("message %s: field %s: descriptor number %d, AST index %d",
				msg.Name, f.Name, fd.GetNumber(), f.Index)
		}
		_, isMap := f.Type.(MapType)
		repeated := fd.GetLabel() == descriptorpb.FieldDescriptorProto_LABEL_REPEATED
		if !isMap && repeated != f.Repeated {
			return fmt.Errorf("message %s: field %s: repeated flag differs in descriptor", msg.Name, f.Name)
		}
	}
	return nil
}
