package parser

import (
	"errors"
	"fmt"
	"strings"
)

// ParseError represents malformed administration tool output.
type ParseError struct {
	Adaptor  string // Adaptor name (e.g. "gridengine"), may be empty
	Line     string // Offending raw line
	Token    string // Offending token within the line, if any
	Expected string // Expected shape
	Reason   string // Reason for parse failure
}

func (e *ParseError) Error() string {
	var msg strings.Builder
	if e.Adaptor != "" {
		msg.WriteString(e.Adaptor + " ")
	}
	msg.WriteString("parse error: " + e.Reason)
	if e.Expected != "" {
		msg.WriteString(fmt.Sprintf(" (expected %s)", e.Expected))
	}
	if e.Token != "" {
		msg.WriteString(fmt.Sprintf(" in token %q", e.Token))
	}
	if e.Line != "" {
		msg.WriteString(fmt.Sprintf(" at line %q", e.Line))
	}
	return msg.String()
}

// WithAdaptor returns a copy of the error attributed to adaptor.
func (e *ParseError) WithAdaptor(adaptor string) *ParseError {
	c := *e
	c.Adaptor = adaptor
	return &c
}

// IsParseError checks if an error is a ParseError
func IsParseError(err error) bool {
	var pe *ParseError
	return errors.As(err, &pe)
}
