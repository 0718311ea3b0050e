package mseed

import (
	"fmt"
	"io"
	"math"
)

// Record is one decoded data record.
type Record struct {
	Header
	Samples []float64
}

// ReadRecords decodes every data record in r. Records with no samples
// (log or detection records) are returned with an empty Samples slice.
func ReadRecords(r io.Reader) ([]Record, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read miniSEED data: %w", err)
	}
	return DecodeRecords(data)
}

// DecodeRecords decodes back-to-back records from data.
func DecodeRecords(data []byte) ([]Record, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty input", ErrInvalidHeader)
	}
	var records []Record
	for offset := 0; offset < len(data); {
		if allZero(data[offset:]) {
			// trailing padding after the last record
			break
		}
		h, err := parseHeader(data[offset:])
		if err != nil {
			return nil, fmt.Errorf("record at byte %d: %w", offset, err)
		}
		end := offset + h.RecordLength
		if end > len(data) {
			return nil, fmt.Errorf("record at byte %d: %w: need %d bytes, have %d", offset, ErrTruncated, h.RecordLength, len(data)-offset)
		}
		rec := Record{Header: h}
		if h.NumSamples > 0 {
			rec.Samples, err = decodePayload(data[offset+h.DataOffset:end], h)
			if err != nil {
				return nil, fmt.Errorf("record at byte %d (%s): %w", offset, h.SourceID(), err)
			}
		}
		records = append(records, rec)
		offset = end
	}
	return records, nil
}

func decodePayload(payload []byte, h Header) ([]float64, error) {
	n := h.NumSamples
	order := h.DataOrder
	switch h.Encoding {
	case EncodingInt16:
		if len(payload) < 2*n {
			return nil, fmt.Errorf("%w: int16 payload", ErrTruncated)
		}
		out := make([]float64, n)
		for i := range out {
			out[i] = float64(int16(order.Uint16(payload[2*i:])))
		}
		return out, nil
	case EncodingInt32:
		if len(payload) < 4*n {
			return nil, fmt.Errorf("%w: int32 payload", ErrTruncated)
		}
		out := make([]float64, n)
		for i := range out {
			out[i] = float64(int32(order.Uint32(payload[4*i:])))
		}
		return out, nil
	case EncodingFloat32:
		if len(payload) < 4*n {
			return nil, fmt.Errorf("%w: float32 payload", ErrTruncated)
		}
		out := make([]float64, n)
		for i := range out {
			out[i] = float64(math.Float32frombits(order.Uint32(payload[4*i:])))
		}
		return out, nil
	case EncodingFloat64:
		if len(payload) < 8*n {
			return nil, fmt.Errorf("%w: float64 payload", ErrTruncated)
		}
		out := make([]float64, n)
		for i := range out {
			out[i] = math.Float64frombits(order.Uint64(payload[8*i:]))
		}
		return out, nil
	case EncodingSteim1:
		return decodeSteim(payload, n, order, steim1Diffs)
	case EncodingSteim2:
		return decodeSteim(payload, n, order, steim2Diffs)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedEncoding, h.Encoding)
	}
}

func allZero(b []byte) bool {
	for _, c := range b {
		if c != 0 {
			return false
		}
	}
	return true
}
