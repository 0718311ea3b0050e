package source

import (
	"io"
	"strings"

	"github.com/banshee-data/moonquake.report/internal/monitoring"
	"github.com/banshee-data/moonquake.report/internal/mseed"
	"github.com/banshee-data/moonquake.report/internal/waveform"
)

func loadMiniSEED(r io.Reader, opts Options) (*waveform.Waveform, error) {
	traces, err := mseed.Read(r)
	if err != nil {
		return nil, &FormatError{Format: FormatMiniSEED, Err: err}
	}
	if len(traces) == 0 {
		return nil, &FormatError{Format: FormatMiniSEED, Reason: "no data records with samples"}
	}

	tr, err := selectTrace(traces, opts.Trace)
	if err != nil {
		return nil, err
	}

	w, err := waveform.FromSamples(tr.Samples, tr.SampleRate, waveform.Meta{ID: tr.ID(), Start: tr.Start})
	if err != nil {
		return nil, &FormatError{Format: FormatMiniSEED, Reason: "trace " + tr.ID(), Err: err}
	}
	return w, nil
}

func selectTrace(traces []mseed.Trace, sel TraceSelection) (mseed.Trace, error) {
	ids := make([]string, len(traces))
	for i, tr := range traces {
		ids[i] = tr.ID()
	}

	switch sel.Mode {
	case SelectNone:
		if len(traces) > 1 {
			return mseed.Trace{}, &AmbiguousTraceError{Count: len(traces), IDs: ids}
		}
		return traces[0], nil
	case SelectFirst:
		if len(traces) > 1 {
			monitoring.Warnf("input holds %d traces, using the first (%s) and ignoring %s",
				len(traces), ids[0], strings.Join(ids[1:], ", "))
		}
		return traces[0], nil
	case SelectIndex:
		if sel.Index < 0 || sel.Index >= len(traces) {
			return mseed.Trace{}, &FormatError{Format: FormatMiniSEED, Reason: "trace index out of range: " + sel.String() + " of " + strings.Join(ids, ", ")}
		}
		return traces[sel.Index], nil
	case SelectID:
		for _, tr := range traces {
			if tr.ID() == sel.ID {
				return tr, nil
			}
		}
		return mseed.Trace{}, &FormatError{Format: FormatMiniSEED, Reason: "no trace " + sel.ID + " in " + strings.Join(ids, ", ")}
	default:
		return mseed.Trace{}, &FormatError{Format: FormatMiniSEED, Reason: "unknown trace selection " + sel.String()}
	}
}
