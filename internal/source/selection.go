package source

import (
	"fmt"
	"strconv"
	"strings"
)

// SelectMode names a policy for choosing one trace from a multi-trace input.
type SelectMode int

const (
	// SelectNone requires the input to hold exactly one trace.
	SelectNone SelectMode = iota
	// SelectFirst takes the first trace and logs a warning naming the rest.
	SelectFirst
	// SelectIndex takes the trace at a zero-based position.
	SelectIndex
	// SelectID takes the first trace with a matching NET.STA.LOC.CHA id.
	SelectID
)

// TraceSelection is the policy applied when a binary input holds several
// traces. The zero value refuses to guess.
type TraceSelection struct {
	Mode  SelectMode
	Index int
	ID    string
}

// FirstTrace is the policy matching the historical behaviour of reading only
// the first trace.
func FirstTrace() TraceSelection { return TraceSelection{Mode: SelectFirst} }

// ParseTraceSelection parses "", "first", a zero-based index, or a SEED id.
func ParseTraceSelection(s string) (TraceSelection, error) {
	s = strings.TrimSpace(s)
	switch {
	case s == "" || strings.EqualFold(s, "none"):
		return TraceSelection{}, nil
	case strings.EqualFold(s, "first"):
		return FirstTrace(), nil
	}
	if n, err := strconv.Atoi(s); err == nil {
		if n < 0 {
			return TraceSelection{}, fmt.Errorf("trace index must be non-negative, got %d", n)
		}
		return TraceSelection{Mode: SelectIndex, Index: n}, nil
	}
	if strings.Count(s, ".") != 3 {
		return TraceSelection{}, fmt.Errorf("trace selection %q is not first, an index, or NET.STA.LOC.CHA", s)
	}
	return TraceSelection{Mode: SelectID, ID: s}, nil
}

func (s TraceSelection) String() string {
	switch s.Mode {
	case SelectFirst:
		return "first"
	case SelectIndex:
		return strconv.Itoa(s.Index)
	case SelectID:
		return s.ID
	default:
		return "none"
	}
}
