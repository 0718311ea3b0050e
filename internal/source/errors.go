package source

import (
	"fmt"
	"strings"
)

// FormatError reports input that is malformed or in an unsupported format:
// missing columns, unparseable values, or an unrecognised binary header.
type FormatError struct {
	Format Format
	// Line is the 1-based line of tabular input, zero when not applicable.
	Line   int
	Reason string
	Err    error
}

func (e *FormatError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "invalid %s input", e.Format)
	if e.Line > 0 {
		fmt.Fprintf(&b, " at line %d", e.Line)
	}
	if e.Reason != "" {
		b.WriteString(": ")
		b.WriteString(e.Reason)
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *FormatError) Unwrap() error { return e.Err }

// AmbiguousTraceError is returned when a binary container holds more than one
// trace and no selection policy was given.
type AmbiguousTraceError struct {
	Count int
	IDs   []string
}

func (e *AmbiguousTraceError) Error() string {
	return fmt.Sprintf("input holds %d traces (%s) and no trace selection was given", e.Count, strings.Join(e.IDs, ", "))
}
