package main

import (
	"regexp"
	"strconv"
	"strings"
)

// Structural fact extraction from scanned blocks, used by the verifier to
// compare emitted text against the AST it came from.

var (
	rpcRe      = regexp.MustCompile(`rpc\s+(\w+)\s*\(\s*([\w.]+)\s*\)\s*returns\s*\(\s*([\w.]+)\s*\)`)
	fieldRe    = regexp.MustCompile(`(?m)^\s*(repeated\s+)?([\w.]+)\s+(\w+)\s*=\s*(-?\d+)`)
	mapFieldRe = regexp.MustCompile(`(?m)^\s*map\s*<\s*([\w.]+)\s*,\s*([^>]+)\s*>\s*(\w+)\s*=\s*(-?\d+)`)
)

// ScannedRPC is one rpc declaration recovered from emitted text.
type ScannedRPC struct {
	Name         string
	RequestType  string
	ResponseType string
}

// ScannedField is one field declaration recovered from emitted text.
type ScannedField struct {
	Name     string
	TypeText string
	Index    int64
	Repeated bool
}

// ExtractRPCs parses rpc declarations from a service block.
func ExtractRPCs(block *Block) []ScannedRPC {
	if block.Kind != BlockService {
		return nil
	}
	var rpcs []ScannedRPC
	for _, m := range rpcRe.FindAllStringSubmatch(block.DeclText, -1) {
		rpcs = append(rpcs, ScannedRPC{
			Name:         m[1],
			RequestType:  m[2],
			ResponseType: m[3],
		})
	}
	return rpcs
}

// ExtractFields parses field declarations from a message block, map fields
// included. Nested message bodies are included; the verifier compares flat
// field sets per top-level message, which matches what the mapper emits
// (no nested nominal messages).
func ExtractFields(block *Block) []ScannedField {
	if block.Kind != BlockMessage {
		return nil
	}
	body := extractBody(block.DeclText)

	var fields []ScannedField
	seen := make(map[string]bool)

	for _, m := range mapFieldRe.FindAllStringSubmatch(body, -1) {
		idx, _ := strconv.ParseInt(m[4], 10, 64)
		fields = append(fields, ScannedField{
			Name:     m[3],
			TypeText: "map<" + m[1] + ", " + strings.TrimSpace(m[2]) + ">",
			Index:    idx,
		})
		seen[m[3]] = true
	}

	for _, m := range fieldRe.FindAllStringSubmatch(body, -1) {
		name := m[3]
		if seen[name] || isProtoKeyword(m[2]) {
			continue
		}
		idx, _ := strconv.ParseInt(m[4], 10, 64)
		fields = append(fields, ScannedField{
			Name:     name,
			TypeText: m[2],
			Index:    idx,
			Repeated: m[1] != "",
		})
	}

	return fields
}

// isProtoKeyword filters lines the field regex would otherwise match.
func isProtoKeyword(word string) bool {
	switch word {
	case "reserved", "option", "oneof", "map":
		return true
	}
	return false
}

// extractBody returns the text between the first { and last } in a
// declaration.
func extractBody(declText string) string {
	start := strings.IndexByte(declText, '{')
	end := strings.LastIndexByte(declText, '}')
	if start < 0 || end < 0 || end <= start {
		return ""
	}
	return declText[start+1 : end]
}
