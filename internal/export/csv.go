package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/banshee-data/moonquake.report/internal/detect"
	"github.com/banshee-data/moonquake.report/internal/waveform"
)

// FilteredColumn is appended to the header when events were detected on a
// filtered waveform.
const FilteredColumn = "filtered_velocity(m/s)"

// WriteCSV writes events with the same header layout the tabular loader
// reads, so every row is the recorded input row of an exceeding sample.
// Passthrough columns are copied from each event's input row; the time and
// velocity cells are re-rendered from the event's recorded values. Filtered
// sets gain a trailing FilteredColumn holding the value that was scanned.
func WriteCSV(w io.Writer, events detect.EventSet) error {
	schema := events.Schema
	if schema.IsZero() {
		schema = waveform.DefaultSchema()
	}

	header := schema.Columns
	if events.Filtered {
		header = append(schema.Clone().Columns, FilteredColumn)
	}
	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return err
	}

	row := make([]string, len(header))
	for _, ev := range events.Events {
		for i := range row {
			row[i] = ""
		}
		if len(ev.Aux) > 0 {
			if len(ev.Aux) != schema.Width() {
				return fmt.Errorf("event at sample %d has %d columns, schema has %d", ev.Index, len(ev.Aux), schema.Width())
			}
			copy(row, ev.Aux)
		}
		row[schema.TimeColumn] = formatFloat(ev.Time)
		row[schema.AmplitudeColumn] = formatFloat(ev.Input)
		if events.Filtered {
			row[len(row)-1] = formatFloat(ev.Amplitude)
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// formatFloat is the shortest text that parses back to exactly v.
func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
