package export

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	parquet "github.com/parquet-go/parquet-go"

	"github.com/banshee-data/moonquake.report/internal/detect"
)

// EventRow is the Parquet record for one event. Velocity is the recorded
// value; FilteredVelocity is set only for events detected on a filtered
// waveform.
type EventRow struct {
	SourceID         string   `parquet:"source_id"`
	Index            int64    `parquet:"sample_index"`
	TimeRel          float64  `parquet:"time_rel"`
	Velocity         float64  `parquet:"velocity"`
	FilteredVelocity *float64 `parquet:"filtered_velocity,optional"`
	Threshold        float64  `parquet:"threshold"`
}

// WriteParquet writes events as a single snappy-compressed row group.
func WriteParquet(w io.Writer, events detect.EventSet) error {
	rows := make([]EventRow, len(events.Events))
	for i, ev := range events.Events {
		rows[i] = EventRow{
			SourceID:  events.SourceID,
			Index:     int64(ev.Index),
			TimeRel:   ev.Time,
			Velocity:  ev.Input,
			Threshold: events.Threshold,
		}
		if events.Filtered {
			v := ev.Amplitude
			rows[i].FilteredVelocity = &v
		}
	}

	pw := parquet.NewGenericWriter[EventRow](w, parquet.Compression(&parquet.Snappy))
	if _, err := pw.Write(rows); err != nil {
		pw.Close()
		return fmt.Errorf("failed to write parquet rows: %w", err)
	}
	if err := pw.Close(); err != nil {
		return fmt.Errorf("failed to finish parquet file: %w", err)
	}
	return nil
}

// ReadParquet decodes rows written by WriteParquet.
func ReadParquet(data []byte) ([]EventRow, error) {
	gr := parquet.NewGenericReader[EventRow](bytes.NewReader(data))
	defer gr.Close()

	out := make([]EventRow, 0, gr.NumRows())
	batch := make([]EventRow, 256)
	for {
		n, err := gr.Read(batch)
		out = append(out, batch[:n]...)
		if errors.Is(err, io.EOF) {
			return out, nil
		}
		if err != nil {
			return nil, err
		}
	}
}
