package mseed

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"math/bits"
	"time"
)

// DefaultRecordLength matches the common archive record size.
const DefaultRecordLength = 4096

// dataOffset leaves room for the fixed header, blockette 1000 and blockette
// 100, rounded up to a 64-byte frame boundary.
const dataOffset = 128

// EncodeOptions controls record layout when writing.
type EncodeOptions struct {
	// Encoding of the payload: EncodingInt32, EncodingFloat32 or
	// EncodingFloat64 (default).
	Encoding Encoding
	// RecordLength in bytes; a power of two between 256 and 65536.
	// Defaults to DefaultRecordLength.
	RecordLength int
	// Quality indicator, 'D' by default.
	Quality byte
}

// Encode writes t as big-endian miniSEED records. Integer encoding rejects
// samples that are not whole numbers within int32 range.
func Encode(w io.Writer, t Trace, opts EncodeOptions) error {
	if opts.Encoding == 0 {
		opts.Encoding = EncodingFloat64
	}
	if opts.RecordLength == 0 {
		opts.RecordLength = DefaultRecordLength
	}
	if opts.Quality == 0 {
		opts.Quality = 'D'
	}
	if opts.RecordLength < 256 || opts.RecordLength > 1<<maxRecordExp || opts.RecordLength&(opts.RecordLength-1) != 0 {
		return fmt.Errorf("invalid record length %d", opts.RecordLength)
	}
	exp := bits.TrailingZeros(uint(opts.RecordLength))
	if t.SampleRate <= 0 {
		return fmt.Errorf("invalid sample rate %g", t.SampleRate)
	}
	if len(t.Samples) == 0 {
		return fmt.Errorf("trace %s has no samples", t.ID())
	}

	var width int
	switch opts.Encoding {
	case EncodingInt32, EncodingFloat32:
		width = 4
	case EncodingFloat64:
		width = 8
	default:
		return fmt.Errorf("%w for writing: %s", ErrUnsupportedEncoding, opts.Encoding)
	}
	perRecord := (opts.RecordLength - dataOffset) / width

	for seq, first := 1, 0; first < len(t.Samples); seq, first = seq+1, first+perRecord {
		last := first + perRecord
		if last > len(t.Samples) {
			last = len(t.Samples)
		}
		start := t.Start.Add(secondsToDuration(float64(first) / t.SampleRate))
		rec := make([]byte, opts.RecordLength)
		writeHeader(rec, t, seq, start, last-first, byte(exp), opts)
		if err := writePayload(rec[dataOffset:], t.Samples[first:last], opts.Encoding); err != nil {
			return fmt.Errorf("record %d: %w", seq, err)
		}
		if _, err := w.Write(rec); err != nil {
			return fmt.Errorf("failed to write record %d: %w", seq, err)
		}
	}
	return nil
}

func writeHeader(rec []byte, t Trace, seq int, start time.Time, n int, exp byte, opts EncodeOptions) {
	order := binary.BigEndian
	copy(rec[0:6], fmt.Sprintf("%06d", seq%1000000))
	rec[6] = opts.Quality
	rec[7] = ' '
	putField(rec[8:13], t.Station)
	putField(rec[13:15], t.Location)
	putField(rec[15:18], t.Channel)
	putField(rec[18:20], t.Network)
	encodeBTime(rec[20:30], start, order)
	order.PutUint16(rec[30:32], uint16(n))
	factor, multiplier := rateFactorMultiplier(t.SampleRate)
	order.PutUint16(rec[32:34], uint16(factor))
	order.PutUint16(rec[34:36], uint16(multiplier))
	rec[39] = 2 // blockettes 1000 and 100
	order.PutUint16(rec[44:46], dataOffset)
	order.PutUint16(rec[46:48], fixedHeaderSize)

	b1000 := rec[fixedHeaderSize:]
	order.PutUint16(b1000[0:2], blocketteDataOnly)
	order.PutUint16(b1000[2:4], fixedHeaderSize+8)
	b1000[4] = byte(opts.Encoding)
	b1000[5] = 1 // big-endian words
	b1000[6] = exp

	b100 := rec[fixedHeaderSize+8:]
	order.PutUint16(b100[0:2], blocketteSampleRate)
	order.PutUint16(b100[2:4], 0)
	order.PutUint32(b100[4:8], math.Float32bits(float32(t.SampleRate)))
}

func writePayload(dst []byte, samples []float64, enc Encoding) error {
	order := binary.BigEndian
	for i, v := range samples {
		switch enc {
		case EncodingInt32:
			if v != math.Trunc(v) || v < math.MinInt32 || v > math.MaxInt32 {
				return fmt.Errorf("sample %d (%g) is not representable as int32", i, v)
			}
			order.PutUint32(dst[4*i:], uint32(int32(v)))
		case EncodingFloat32:
			order.PutUint32(dst[4*i:], math.Float32bits(float32(v)))
		case EncodingFloat64:
			order.PutUint64(dst[8*i:], math.Float64bits(v))
		}
	}
	return nil
}

// putField writes s left-justified and space padded.
func putField(dst []byte, s string) {
	for i := range dst {
		dst[i] = ' '
	}
	copy(dst, s)
}
