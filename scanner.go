package main

import (
	"fmt"
	"strings"
)

// The scanner re-parses emitted proto3 text into top-level blocks so the
// verifier can compare the output against the AST it was rendered from.
// Emitted text carries no comments, but the scanner still skips them so it
// also accepts hand-maintained golden files.

// BlockKind represents the type of a top-level proto element.
type BlockKind int

const (
	BlockSyntax BlockKind = iota
	BlockPackage
	BlockOption
	BlockImport
	BlockMessage
	BlockEnum
	BlockService
)

func (k BlockKind) String() string {
	switch k {
	case BlockSyntax:
		return "syntax"
	case BlockPackage:
		return "package"
	case BlockOption:
		return "option"
	case BlockImport:
		return "import"
	case BlockMessage:
		return "message"
	case BlockEnum:
		return "enum"
	case BlockService:
		return "service"
	default:
		return "unknown"
	}
}

// Block is one top-level element with its raw text.
type Block struct {
	Kind     BlockKind
	Name     string
	DeclText string
}

// ScanProto parses proto source into a sequence of top-level blocks.
func ScanProto(content string) ([]*Block, error) {
	s := &protoScanner{content: content}
	return s.scan()
}

type protoScanner struct {
	content string
	pos     int
}

func (s *protoScanner) atEnd() bool {
	return s.pos >= len(s.content)
}

func (s *protoScanner) peek() byte {
	if s.atEnd() {
		return 0
	}
	return s.content[s.pos]
}

func (s *protoScanner) peekAt(offset int) byte {
	i := s.pos + offset
	if i >= len(s.content) {
		return 0
	}
	return s.content[i]
}

func (s *protoScanner) scan() ([]*Block, error) {
	var blocks []*Block
	for {
		s.skipTrivia()
		if s.atEnd() {
			return blocks, nil
		}
		block, err := s.readDeclaration()
		if err != nil {
			return nil, err
		}
		blocks = append(blocks, block)
	}
}

// skipTrivia discards whitespace and comments.
func (s *protoScanner) skipTrivia() {
	for !s.atEnd() {
		c := s.peek()
		if c == ' ' || c == '\t' || c == '\r' || c == '\n' {
			s.pos++
			continue
		}
		if c == '/' && s.peekAt(1) == '/' {
			s.skipToEndOfLine()
			continue
		}
		if c == '/' && s.peekAt(1) == '*' {
			s.skipBlockComment()
			continue
		}
		return
	}
}

func (s *protoScanner) skipToEndOfLine() {
	for !s.atEnd() && s.peek() != '\n' {
		s.pos++
	}
	if !s.atEnd() {
		s.pos++
	}
}

func (s *protoScanner) skipBlockComment() {
	s.pos += 2
	for !s.atEnd() {
		if s.peek() == '*' && s.peekAt(1) == '/' {
			s.pos += 2
			return
		}
		s.pos++
	}
}

func (s *protoScanner) readDeclaration() (*Block, error) {
	keyword := s.matchKeyword()
	if keyword == "" {
		end := s.pos + 40
		if end > len(s.content) {
			end = len(s.content)
		}
		return nil, fmt.Errorf("expected declaration keyword at position %d: %q", s.pos, s.content[s.pos:end])
	}

	start := s.pos
	var kind BlockKind

	switch keyword {
	case "syntax":
		kind = BlockSyntax
		s.readUntilSemicolon()
	case "package":
		kind = BlockPackage
		s.readUntilSemicolon()
	case "import":
		kind = BlockImport
		s.readUntilSemicolon()
	case "option":
		kind = BlockOption
		s.readUntilSemicolon()
	case "message":
		kind = BlockMessage
		s.readBracedBlock()
	case "enum":
		kind = BlockEnum
		s.readBracedBlock()
	case "service":
		kind = BlockService
		s.readBracedBlock()
	default:
		return nil, fmt.Errorf("unknown keyword %q at position %d", keyword, s.pos)
	}

	declText := s.content[start:s.pos]

	return &Block{
		Kind:     kind,
		Name:     extractDeclName(keyword, declText),
		DeclText: declText,
	}, nil
}

// matchKeyword checks if the current position starts with a known keyword
// followed by a non-identifier character.
func (s *protoScanner) matchKeyword() string {
	keywords := []string{"syntax", "package", "import", "option", "message", "enum", "service"}
	rest := s.content[s.pos:]
	for _, kw := range keywords {
		if strings.HasPrefix(rest, kw) && len(rest) > len(kw) && !isIdentChar(rest[len(kw)]) {
			return kw
		}
	}
	return ""
}

func isIdentChar(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9') || c == '_'
}

// readUntilSemicolon reads until ';', consuming strings and comments.
func (s *protoScanner) readUntilSemicolon() {
	for !s.atEnd() {
		c := s.peek()
		if c == ';' {
			s.pos++
			return
		}
		if c == '"' || c == '\'' {
			s.skipString(c)
			continue
		}
		if c == '/' && s.peekAt(1) == '/' {
			s.skipToEndOfLine()
			continue
		}
		if c == '/' && s.peekAt(1) == '*' {
			s.skipBlockComment()
			continue
		}
		s.pos++
	}
}

// readBracedBlock reads a braced declaration until the matching closing
// brace.
func (s *protoScanner) readBracedBlock() {
	depth := 0
	for !s.atEnd() {
		c := s.peek()
		if c == '"' || c == '\'' {
			s.skipString(c)
			continue
		}
		if c == '/' && s.peekAt(1) == '/' {
			s.skipToEndOfLine()
			continue
		}
		if c == '/' && s.peekAt(1) == '*' {
			s.skipBlockComment()
			continue
		}
		if c == '{' {
			depth++
			s.pos++
			continue
		}
		if c == '}' {
			depth--
			s.pos++
			if depth == 0 {
				return
			}
			continue
		}
		s.pos++
	}
}

func (s *protoScanner) skipString(quote byte) {
	s.pos++
	for !s.atEnd() {
		c := s.peek()
		if c == '\\' {
			s.pos += 2
			continue
		}
		if c == quote {
			s.pos++
			return
		}
		s.pos++
	}
}

// extractDeclName extracts the name from a declaration's text.
func extractDeclName(keyword, text string) string {
	rest := strings.TrimLeft(text[len(keyword):], " \t\r\n")

	switch keyword {
	case "import":
		if len(rest) > 0 && (rest[0] == '"' || rest[0] == '\'') {
			end := strings.IndexByte(rest[1:], rest[0])
			if end >= 0 {
				return rest[1 : end+1]
			}
		}
		return rest
	case "option":
		if eqIdx := strings.IndexByte(rest, '='); eqIdx >= 0 {
			return strings.TrimSpace(rest[:eqIdx])
		}
		return rest
	case "syntax":
		if eqIdx := strings.IndexByte(rest, '='); eqIdx >= 0 {
			val := strings.TrimSpace(rest[eqIdx+1:])
			val = strings.TrimRight(val, ";")
			return strings.Trim(val, "\"' ")
		}
		return rest
	case "package":
		if semiIdx := strings.IndexByte(rest, ';'); semiIdx >= 0 {
			return strings.TrimSpace(rest[:semiIdx])
		}
		return strings.TrimSpace(rest)
	}

	// message, enum, service: first identifier
	var name strings.Builder
	for _, c := range rest {
		if c < 128 && isIdentChar(byte(c)) {
			name.WriteRune(c)
		} else {
			break
		}
	}
	return name.String()
}
