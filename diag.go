package main

import (
	"fmt"
	"strings"
)

// Diagnostic codes. Each code groups related violations; the Detail sub-code
// selects the specific message.
const (
	CodeUnsupportedInputType  = "unsupported-input-type"
	CodeUnsupportedReturnType = "unsupported-return-type"
	CodeUnsupportedFieldType  = "unsupported-field-type"
	CodeFieldIndex            = "field-index"
)

// Diagnostic sub-codes.
const (
	DetailWrongNumber      = "wrong-number"
	DetailWrongType        = "wrong-type"
	DetailUnconvertible    = "unconvertible"
	DetailUnknownIntrinsic = "unknown-intrinsic"
	DetailInvalid          = "invalid"
	DetailOutOfBounds      = "out-of-bounds"
	DetailReserved         = "reserved"
)

// Severity separates blocking violations from advisory ones.
type Severity int

const (
	SeverityError Severity = iota
	SeverityWarning
)

func (s Severity) String() string {
	if s == SeverityWarning {
		return "warning"
	}
	return "error"
}

// Diagnostic is one structured violation event. Node references the
// offending source graph node for location reporting; Params feed message
// interpolation.
type Diagnostic struct {
	Code     string
	Detail   string
	Severity Severity
	Params   []string
	Node     any
}

// diagMessages maps code/detail pairs to message templates. %s slots are
// filled from Params in order.
var diagMessages = map[string]string{
	CodeUnsupportedInputType + "/" + DetailWrongNumber:      "operation %s must take exactly one parameter, got %s",
	CodeUnsupportedInputType + "/" + DetailWrongType:        "operation %s parameter %s must be a model type",
	CodeUnsupportedReturnType + "/" + DetailWrongType:       "operation %s return type must be a model type",
	CodeUnsupportedFieldType + "/" + DetailUnconvertible:    "field %s has no wire representation: %s",
	CodeUnsupportedFieldType + "/" + DetailUnknownIntrinsic: "field %s uses unknown intrinsic type %s",
	CodeFieldIndex + "/" + DetailInvalid:                    "field %s has no field index attached",
	CodeFieldIndex + "/" + DetailOutOfBounds:                "field %s index %s is out of bounds (must be 1..536870911)",
	CodeFieldIndex + "/" + DetailReserved:                   "field %s index %s falls in the reserved range 19000-19999",
}

// Message interpolates the diagnostic into human-readable text.
func (d Diagnostic) Message() string {
	tmpl, ok := diagMessages[d.Code+"/"+d.Detail]
	if !ok {
		return d.Code + "/" + d.Detail
	}
	args := make([]any, len(d.Params))
	for i, p := range d.Params {
		args[i] = p
	}
	return fmt.Sprintf(tmpl, args...)
}

func (d Diagnostic) String() string {
	var b strings.Builder
	b.WriteString(d.Severity.String())
	b.WriteString(": ")
	b.WriteString(d.Message())
	b.WriteString(" [")
	b.WriteString(d.Code)
	if d.Detail != "" {
		b.WriteByte('/')
		b.WriteString(d.Detail)
	}
	b.WriteByte(']')
	return b.String()
}

// Result is the outcome of one lowering pass: the per-package files and
// every diagnostic recorded along the way. The AST is complete even when
// errors were recorded; callers must check HasErrors before writing output.
type Result struct {
	Files       []*File
	Diagnostics []Diagnostic
}

// HasErrors reports whether any error-severity diagnostic was recorded.
func (r *Result) HasErrors() bool {
	for _, d := range r.Diagnostics {
		if d.Severity == SeverityError {
			return true
		}
	}
	return false
}

// Warnings returns the advisory diagnostics.
func (r *Result) Warnings() []Diagnostic {
	var out []Diagnostic
	for _, d := range r.Diagnostics {
		if d.Severity == SeverityWarning {
			out = append(out, d)
		}
	}
	return out
}
