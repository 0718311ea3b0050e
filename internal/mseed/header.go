package mseed

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"
)

const (
	fixedHeaderSize = 48
	minRecordExp    = 7  // 128 bytes
	maxRecordExp    = 16 // 64 KiB

	blocketteSampleRate = 100
	blocketteDataOnly   = 1000
	blocketteDataExt    = 1001

	// Activity flag bit set when the time correction is already applied.
	flagTimeCorrected = 0x02
)

var (
	ErrInvalidHeader       = errors.New("unrecognized miniSEED header")
	ErrMissingBlockette    = errors.New("record has no blockette 1000")
	ErrUnsupportedEncoding = errors.New("unsupported data encoding")
	ErrTruncated           = errors.New("record is truncated")
)

// Encoding identifies the payload format of a data record (blockette 1000).
type Encoding uint8

const (
	EncodingASCII   Encoding = 0
	EncodingInt16   Encoding = 1
	EncodingInt32   Encoding = 3
	EncodingFloat32 Encoding = 4
	EncodingFloat64 Encoding = 5
	EncodingSteim1  Encoding = 10
	EncodingSteim2  Encoding = 11
)

func (e Encoding) String() string {
	switch e {
	case EncodingASCII:
		return "ascii"
	case EncodingInt16:
		return "int16"
	case EncodingInt32:
		return "int32"
	case EncodingFloat32:
		return "float32"
	case EncodingFloat64:
		return "float64"
	case EncodingSteim1:
		return "steim1"
	case EncodingSteim2:
		return "steim2"
	default:
		return fmt.Sprintf("encoding(%d)", uint8(e))
	}
}

// Header is the decoded fixed section plus the blockettes we honour.
type Header struct {
	Sequence   string
	Quality    byte
	Network    string
	Station    string
	Location   string
	Channel    string
	Start      time.Time
	NumSamples int
	SampleRate float64
	Encoding   Encoding
	// RecordLength in bytes, from blockette 1000.
	RecordLength int
	// DataOffset is the byte offset of the payload within the record.
	DataOffset int
	// HeaderOrder is the byte order of the fixed header; DataOrder the word
	// order of the payload declared by blockette 1000.
	HeaderOrder binary.ByteOrder
	DataOrder   binary.ByteOrder
}

// SourceID returns the NET.STA.LOC.CHA identifier.
func (h Header) SourceID() string {
	return strings.Join([]string{h.Network, h.Station, h.Location, h.Channel}, ".")
}

// parseHeader decodes the fixed section and blockettes at the start of buf.
// buf may extend past the record; only the header region is inspected.
func parseHeader(buf []byte) (Header, error) {
	var h Header
	if len(buf) < fixedHeaderSize {
		return h, ErrTruncated
	}
	if !validPreamble(buf) {
		return h, ErrInvalidHeader
	}

	order, ok := detectHeaderOrder(buf)
	if !ok {
		return h, fmt.Errorf("%w: implausible start time", ErrInvalidHeader)
	}
	h.HeaderOrder = order
	h.Sequence = strings.TrimSpace(string(buf[0:6]))
	h.Quality = buf[6]
	h.Station = strings.TrimSpace(string(buf[8:13]))
	h.Location = strings.TrimSpace(string(buf[13:15]))
	h.Channel = strings.TrimSpace(string(buf[15:18]))
	h.Network = strings.TrimSpace(string(buf[18:20]))

	start := decodeBTime(buf[20:30], order)
	h.NumSamples = int(order.Uint16(buf[30:32]))
	h.SampleRate = nominalRate(int16(order.Uint16(buf[32:34])), int16(order.Uint16(buf[34:36])))
	activity := buf[36]
	numBlockettes := int(buf[39])
	correction := int32(order.Uint32(buf[40:44]))
	h.DataOffset = int(order.Uint16(buf[44:46]))
	next := int(order.Uint16(buf[46:48]))

	found1000 := false
	for i := 0; i < numBlockettes && next != 0; i++ {
		if next+4 > len(buf) || next < fixedHeaderSize {
			return h, fmt.Errorf("%w: blockette offset %d", ErrTruncated, next)
		}
		kind := order.Uint16(buf[next : next+2])
		following := int(order.Uint16(buf[next+2 : next+4]))
		switch kind {
		case blocketteDataOnly:
			if next+8 > len(buf) {
				return h, fmt.Errorf("%w: blockette 1000", ErrTruncated)
			}
			h.Encoding = Encoding(buf[next+4])
			if buf[next+5] == 0 {
				h.DataOrder = binary.LittleEndian
			} else {
				h.DataOrder = binary.BigEndian
			}
			exp := int(buf[next+6])
			if exp < minRecordExp || exp > maxRecordExp {
				return h, fmt.Errorf("%w: record length 2^%d", ErrInvalidHeader, exp)
			}
			h.RecordLength = 1 << exp
			found1000 = true
		case blocketteSampleRate:
			if next+8 > len(buf) {
				return h, fmt.Errorf("%w: blockette 100", ErrTruncated)
			}
			rate := math.Float32frombits(order.Uint32(buf[next+4 : next+8]))
			if rate > 0 {
				h.SampleRate = float64(rate)
			}
		case blocketteDataExt:
			if next+6 > len(buf) {
				return h, fmt.Errorf("%w: blockette 1001", ErrTruncated)
			}
			usec := int8(buf[next+5])
			start = start.Add(time.Duration(usec) * time.Microsecond)
		}
		if following != 0 && following <= next {
			return h, fmt.Errorf("%w: blockette chain loops at %d", ErrInvalidHeader, following)
		}
		next = following
	}
	if !found1000 {
		return h, ErrMissingBlockette
	}
	if activity&flagTimeCorrected == 0 && correction != 0 {
		start = start.Add(time.Duration(correction) * 100 * time.Microsecond)
	}
	h.Start = start
	if h.NumSamples > 0 && (h.DataOffset < fixedHeaderSize || h.DataOffset >= h.RecordLength) {
		return h, fmt.Errorf("%w: data offset %d", ErrInvalidHeader, h.DataOffset)
	}
	return h, nil
}

// validPreamble checks the sequence number and quality indicator, which is
// enough to reject text and other binary formats early.
func validPreamble(buf []byte) bool {
	for _, c := range buf[0:6] {
		if (c < '0' || c > '9') && c != ' ' && c != 0 {
			return false
		}
	}
	switch buf[6] {
	case 'D', 'R', 'Q', 'M':
	default:
		return false
	}
	return buf[7] == ' ' || buf[7] == 0
}

// detectHeaderOrder picks the byte order under which the BTIME year and day
// are plausible. Big-endian is preferred as the SEED default.
func detectHeaderOrder(buf []byte) (binary.ByteOrder, bool) {
	for _, order := range []binary.ByteOrder{binary.BigEndian, binary.LittleEndian} {
		year := order.Uint16(buf[20:22])
		day := order.Uint16(buf[22:24])
		if year >= 1900 && year <= 2100 && day >= 1 && day <= 366 {
			return order, true
		}
	}
	return nil, false
}

func decodeBTime(b []byte, order binary.ByteOrder) time.Time {
	year := int(order.Uint16(b[0:2]))
	day := int(order.Uint16(b[2:4]))
	hour, minute, sec := int(b[4]), int(b[5]), int(b[6])
	fract := int(order.Uint16(b[8:10])) // 0.0001 s
	t := time.Date(year, time.January, 1, hour, minute, sec, fract*100000, time.UTC)
	return t.AddDate(0, 0, day-1)
}

func encodeBTime(b []byte, t time.Time, order binary.ByteOrder) {
	t = t.UTC()
	order.PutUint16(b[0:2], uint16(t.Year()))
	order.PutUint16(b[2:4], uint16(t.YearDay()))
	b[4] = byte(t.Hour())
	b[5] = byte(t.Minute())
	b[6] = byte(t.Second())
	b[7] = 0
	order.PutUint16(b[8:10], uint16(t.Nanosecond()/100000))
}

// nominalRate applies the SEED sample rate factor/multiplier rules.
func nominalRate(factor, multiplier int16) float64 {
	f, m := float64(factor), float64(multiplier)
	switch {
	case factor == 0 || multiplier == 0:
		return 0
	case factor > 0 && multiplier > 0:
		return f * m
	case factor > 0 && multiplier < 0:
		return -f / m
	case factor < 0 && multiplier > 0:
		return -m / f
	default:
		return 1 / (f * m)
	}
}

// rateFactorMultiplier finds the factor/multiplier pair closest to rate.
// Blockette 100 carries the exact value, so a close approximation suffices.
func rateFactorMultiplier(rate float64) (int16, int16) {
	if rate <= 0 {
		return 0, 0
	}
	if rate == math.Trunc(rate) && rate <= math.MaxInt16 {
		return int16(rate), 1
	}
	if period := 1 / rate; period == math.Trunc(period) && period <= math.MaxInt16 {
		return -int16(period), 1
	}
	if rate >= 1 {
		// rate = factor / -multiplier
		bestF, bestM, bestErr := int16(math.Round(rate)), int16(-1), math.Abs(math.Round(rate)-rate)
		for d := 2; d <= math.MaxInt16; d++ {
			n := math.Round(rate * float64(d))
			if n > math.MaxInt16 {
				break
			}
			if e := math.Abs(n/float64(d) - rate); e < bestErr {
				bestF, bestM, bestErr = int16(n), int16(-d), e
				if e == 0 {
					break
				}
			}
		}
		return bestF, bestM
	}
	// rate < 1: rate = -multiplier / factor with negative factor
	period := 1 / rate
	if period > math.MaxInt16 {
		return -math.MaxInt16, 1
	}
	return -int16(math.Round(period)), 1
}
