package source

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/banshee-data/moonquake.report/internal/waveform"
)

func loadCSV(r io.Reader, opts Options) (*waveform.Waveform, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true
	cr.ReuseRecord = false

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, &FormatError{Format: FormatCSV, Reason: "missing header row"}
	}
	if err != nil {
		return nil, csvError(err)
	}

	schema, err := schemaFromHeader(header)
	if err != nil {
		return nil, err
	}

	var (
		times, amps []float64
		aux         [][]string
		keepAux     = schema.Width() > 2
	)
	for {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, csvError(err)
		}
		line, _ := cr.FieldPos(0)

		t, err := parseField(row[schema.TimeColumn])
		if err != nil {
			return nil, &FormatError{Format: FormatCSV, Line: line, Reason: fmt.Sprintf("bad %s value %q", waveform.TimeColumn, row[schema.TimeColumn]), Err: err}
		}
		v, err := parseField(row[schema.AmplitudeColumn])
		if err != nil {
			return nil, &FormatError{Format: FormatCSV, Line: line, Reason: fmt.Sprintf("bad %s value %q", waveform.VelocityColumn, row[schema.AmplitudeColumn]), Err: err}
		}
		if n := len(times); n > 0 && t <= times[n-1] {
			return nil, &FormatError{Format: FormatCSV, Line: line, Reason: fmt.Sprintf("%s must increase strictly (%g after %g)", waveform.TimeColumn, t, times[n-1])}
		}

		times = append(times, t)
		amps = append(amps, v)
		if keepAux {
			aux = append(aux, row)
		}
	}
	if len(times) == 0 {
		return nil, &FormatError{Format: FormatCSV, Reason: "no data rows"}
	}

	w, err := waveform.New(times, amps, waveform.Meta{ID: opts.Label, Schema: schema, Aux: aux})
	if err != nil {
		return nil, &FormatError{Format: FormatCSV, Err: err}
	}
	return w, nil
}

// schemaFromHeader locates the required columns. Headers are matched after
// trimming whitespace and a UTF-8 byte order mark.
func schemaFromHeader(header []string) (waveform.Schema, error) {
	schema := waveform.Schema{Columns: make([]string, len(header)), TimeColumn: -1, AmplitudeColumn: -1}
	for i, name := range header {
		name = strings.TrimSpace(strings.TrimPrefix(name, "\ufeff"))
		schema.Columns[i] = name
		switch name {
		case waveform.TimeColumn:
			if schema.TimeColumn < 0 {
				schema.TimeColumn = i
			}
		case waveform.VelocityColumn:
			if schema.AmplitudeColumn < 0 {
				schema.AmplitudeColumn = i
			}
		}
	}
	if schema.TimeColumn < 0 {
		return schema, &FormatError{Format: FormatCSV, Line: 1, Reason: fmt.Sprintf("missing required column %q", waveform.TimeColumn)}
	}
	if schema.AmplitudeColumn < 0 {
		return schema, &FormatError{Format: FormatCSV, Line: 1, Reason: fmt.Sprintf("missing required column %q", waveform.VelocityColumn)}
	}
	return schema, nil
}

func parseField(s string) (float64, error) {
	return strconv.ParseFloat(strings.TrimSpace(s), 64)
}

func csvError(err error) error {
	var pe *csv.ParseError
	if errors.As(err, &pe) {
		return &FormatError{Format: FormatCSV, Line: pe.Line, Err: pe.Err}
	}
	return &FormatError{Format: FormatCSV, Err: err}
}
