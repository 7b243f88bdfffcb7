package main

import "fmt"

// SchemaError reports an inconsistency in a schema definition file, such as
// a field referencing an undeclared model.
type SchemaError struct {
	Path   string
	Reason string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("invalid schema %s: %s", e.Path, e.Reason)
}

// ParseError wraps a decoding error from the schema loader or the proto
// re-scanner.
type ParseError struct {
	Err error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse error: %v", e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// InternalError reports a violated invariant of the source graph itself, as
// opposed to a user-level schema mistake. It indicates a bug in whatever
// constructed the graph.
type InternalError struct {
	Reason string
}

func (e *InternalError) Error() string {
	return "internal error: " + e.Reason
}
