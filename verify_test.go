package main

import (
	"strings"
	"testing"
)

func TestScanProto_BasicElements(t *testing.T) {
	input := `syntax = "proto3";

package test.v1;

option go_package = "test/v1";

service Svc {
  rpc Get(GetReq) returns (GetRes);
}

message GetReq {
  string id = 1;
}

enum Kind {
  KIND_UNSPECIFIED = 0;
}
`
	blocks, err := ScanProto(input)
	if err != nil {
		t.Fatalf("ScanProto failed: %v", err)
	}

	wantKinds := []BlockKind{BlockSyntax, BlockPackage, BlockOption, BlockService, BlockMessage, BlockEnum}
	if len(blocks) != len(wantKinds) {
		t.Fatalf("expected %d blocks, got %d", len(wantKinds), len(blocks))
	}
	for i, want := range wantKinds {
		if blocks[i].Kind != want {
			t.Errorf("block %d kind = %s, want %s", i, blocks[i].Kind, want)
		}
	}
	if blocks[0].Name != "proto3" {
		t.Errorf("syntax name = %q, want proto3", blocks[0].Name)
	}
	if blocks[1].Name != "test.v1" {
		t.Errorf("package name = %q, want test.v1", blocks[1].Name)
	}
	if blocks[2].Name != "go_package" {
		t.Errorf("option name = %q, want go_package", blocks[2].Name)
	}
	if blocks[3].Name != "Svc" || blocks[4].Name != "GetReq" || blocks[5].Name != "Kind" {
		t.Errorf("declaration names wrong: %q %q %q", blocks[3].Name, blocks[4].Name, blocks[5].Name)
	}
}

func TestScanProto_SkipsComments(t *testing.T) {
	input := "// leading\nsyntax = \"proto3\";\n/* block\ncomment */\nmessage M {\n  string v = 1; // inline\n}\n"
	blocks, err := ScanProto(input)
	if err != nil {
		t.Fatalf("ScanProto failed: %v", err)
	}
	if len(blocks) != 2 {
		t.Fatalf("expected 2 blocks, got %d", len(blocks))
	}
	if blocks[1].Kind != BlockMessage || blocks[1].Name != "M" {
		t.Errorf("message block wrong: kind=%s name=%q", blocks[1].Kind, blocks[1].Name)
	}
}

func TestScanProto_RejectsGarbage(t *testing.T) {
	if _, err := ScanProto("what is this\n"); err == nil {
		t.Error("expected an error for non-proto input")
	}
}

func TestExtractRPCs(t *testing.T) {
	block := &Block{Kind: BlockService, Name: "Svc", DeclText: `service Svc {
  rpc Get(GetReq) returns (GetRes);
  rpc List(ListReq) returns (ListRes);
}`}
	rpcs := ExtractRPCs(block)
	if len(rpcs) != 2 {
		t.Fatalf("expected 2 rpcs, got %d", len(rpcs))
	}
	if rpcs[0] != (ScannedRPC{Name: "Get", RequestType: "GetReq", ResponseType: "GetRes"}) {
		t.Errorf("rpc 0 = %+v", rpcs[0])
	}
	if rpcs[1].Name != "List" {
		t.Errorf("rpc 1 = %+v", rpcs[1])
	}
}

func TestExtractFields(t *testing.T) {
	block := &Block{Kind: BlockMessage, Name: "M", DeclText: `message M {
  reserved 5;
  string name = 1;
  repeated Item items = 2;
  map<int32, string> labels = 3;
  oneof choice {
    bool flag = 4;
  }
}`}
	fields := ExtractFields(block)
	if len(fields) != 4 {
		t.Fatalf("expected 4 fields, got %d: %+v", len(fields), fields)
	}

	byName := make(map[string]ScannedField)
	for _, f := range fields {
		byName[f.Name] = f
	}
	if f := byName["name"]; f.TypeText != "string" || f.Index != 1 || f.Repeated {
		t.Errorf("field name = %+v", f)
	}
	if f := byName["items"]; f.TypeText != "Item" || f.Index != 2 || !f.Repeated {
		t.Errorf("field items = %+v", f)
	}
	if f := byName["labels"]; f.TypeText != "map<int32, string>" || f.Index != 3 {
		t.Errorf("field labels = %+v", f)
	}
	if f := byName["flag"]; f.TypeText != "bool" || f.Index != 4 {
		t.Errorf("field flag = %+v", f)
	}
}

// buildRoundTripFixture returns a lowered result with services, maps,
// arrays, shared models and file options, for round-trip checks.
func buildRoundTripFixture(t *testing.T) *Result {
	t.Helper()
	bind := testBindings()

	item := &Model{Name: "Item"}
	addField(bind, item, "id", intrinsic("string"), 1)
	addField(bind, item, "weight", intrinsic("float64"), 2)

	in := &Model{Name: "SearchRequest"}
	addField(bind, in, "query", intrinsic("string"), 1)
	addField(bind, in, "filters", mapOf(intrinsic("string"), intrinsic("string")), 2)

	out := &Model{Name: "SearchResponse"}
	addField(bind, out, "items", arrayOf(modelRef(item)), 1)
	addField(bind, out, "total", intrinsic("uint64"), 2)

	ns := &Namespace{Name: "search"}
	addService(bind, ns, "Search",
		op("Query", in, out),
		op("Lookup", item, item),
	)
	root := &Namespace{Namespaces: []*Namespace{ns}}
	bind.PackageNames[ns] = "search"
	bind.PackageOptions[ns] = OptionSet{}
	bind.PackageOptions[ns].SetString("go_package", "example.com/gen/search")

	result := mustLower(t, root, bind)
	if result.HasErrors() {
		t.Fatalf("fixture must be error-free: %v", result.Diagnostics)
	}
	return result
}

// Round-trip property: re-scanning emitted text recovers the same
// declarations, methods and field indices the AST holds.
func TestVerify_RoundTrip(t *testing.T) {
	result := buildRoundTripFixture(t)
	for _, file := range result.Files {
		text := Emit(file)
		if err := verifyRoundTrip(file, text); err != nil {
			t.Errorf("%s: %v\noutput:\n%s", FilePath(file.Package), err, text)
		}
	}
}

func TestVerify_DetectsMissingMessage(t *testing.T) {
	result := buildRoundTripFixture(t)
	file := result.Files[0]
	text := Emit(file)

	start := strings.Index(text, "message Item {")
	end := strings.Index(text[start:], "}") + start + 2
	tampered := text[:start] + text[end:]

	if err := verifyRoundTrip(file, tampered); err == nil {
		t.Error("expected round-trip failure after removing a message")
	}
}

func TestVerify_DetectsIndexChange(t *testing.T) {
	result := buildRoundTripFixture(t)
	file := result.Files[0]
	text := Emit(file)

	tampered := strings.Replace(text, "total = 2;", "total = 42;", 1)
	if tampered == text {
		t.Fatal("fixture did not contain the expected field")
	}
	if err := verifyRoundTrip(file, tampered); err == nil {
		t.Error("expected round-trip failure after changing a field index")
	}
}

func TestVerify_DetectsMethodChange(t *testing.T) {
	result := buildRoundTripFixture(t)
	file := result.Files[0]
	text := Emit(file)

	tampered := strings.Replace(text, "rpc Query(SearchRequest)", "rpc Query(Item)", 1)
	if tampered == text {
		t.Fatal("fixture did not contain the expected rpc")
	}
	if err := verifyRoundTrip(file, tampered); err == nil {
		t.Error("expected round-trip failure after changing a method input")
	}
}

func TestVerify_DetectsMissingOption(t *testing.T) {
	result := buildRoundTripFixture(t)
	file := result.Files[0]
	text := Emit(file)

	tampered := strings.Replace(text, "option go_package = \"example.com/gen/search\";\n", "", 1)
	if tampered == text {
		t.Fatal("fixture did not contain the expected option")
	}
	if err := verifyRoundTrip(file, tampered); err == nil {
		t.Error("expected round-trip failure after removing an option")
	}
}

func TestVerify_DetectsWrongPackage(t *testing.T) {
	result := buildRoundTripFixture(t)
	file := result.Files[0]
	text := strings.Replace(Emit(file), "package search;", "package other;", 1)
	if err := verifyRoundTrip(file, text); err == nil {
		t.Error("expected round-trip failure on package mismatch")
	}
}

func TestDiffStrings(t *testing.T) {
	a := "one\ntwo\nthree\n"
	b := "one\nTWO\nthree\n"
	diff := DiffStrings(a, b, "a", "b")
	if !strings.Contains(diff, "-two") || !strings.Contains(diff, "+TWO") {
		t.Errorf("diff missing expected lines:\n%s", diff)
	}
	if DiffStrings(a, a, "a", "a") != "" {
		t.Error("identical inputs should produce an empty diff")
	}
}
