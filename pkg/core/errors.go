package core

import "fmt"

// ParseError is returned when source text does not conform to the grammar
// of the analyzed language.
type ParseError struct {
	File   string
	Line   int
	Column int
	Msg    string
}

func (e *ParseError) Error() string {
	file := e.File
	if file == "" {
		file = "<stdin>"
	}
	return fmt.Sprintf("%s:%d:%d: %s", file, e.Line, e.Column, e.Msg)
}

// SerializationError is returned when persisted schema data does not match
// the expected shape.
type SerializationError struct {
	Path string
	Err  error
}

func (e *SerializationError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("invalid schema document: %v", e.Err)
	}
	return fmt.Sprintf("invalid schema document %s: %v", e.Path, e.Err)
}

func (e *SerializationError) Unwrap() error {
	return e.Err
}
