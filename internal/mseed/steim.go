package mseed

import (
	"encoding/binary"
	"fmt"

	"github.com/banshee-data/moonquake.report/internal/monitoring"
)

const (
	steimFrameSize  = 64
	steimFrameWords = 16
)

// diffUnpacker appends the differences packed in word w under the 2-bit
// control nibble c and reports whether the combination was valid.
type diffUnpacker func(dst []int32, c uint32, w uint32) ([]int32, bool)

// decodeSteim expands Steim-compressed frames into n samples. The first frame
// carries the forward (X0) and reverse (Xn) integration constants in words 1
// and 2; the very first difference is relative to the previous record and is
// discarded.
func decodeSteim(payload []byte, n int, order binary.ByteOrder, unpack diffUnpacker) ([]float64, error) {
	frames := len(payload) / steimFrameSize
	if frames == 0 {
		return nil, fmt.Errorf("%w: no steim frames", ErrTruncated)
	}

	var x0, xn int32
	diffs := make([]int32, 0, n)
	for f := 0; f < frames && len(diffs) < n; f++ {
		frame := payload[f*steimFrameSize : (f+1)*steimFrameSize]
		control := order.Uint32(frame[0:4])
		for i := 1; i < steimFrameWords; i++ {
			w := order.Uint32(frame[4*i:])
			c := (control >> uint(30-2*i)) & 0x3
			if f == 0 && i == 1 {
				x0 = int32(w)
				continue
			}
			if f == 0 && i == 2 {
				xn = int32(w)
				continue
			}
			if c == 0 {
				continue
			}
			var ok bool
			diffs, ok = unpack(diffs, c, w)
			if !ok {
				return nil, fmt.Errorf("invalid steim control nibble %d in frame %d word %d", c, f, i)
			}
		}
	}
	if len(diffs) < n {
		return nil, fmt.Errorf("%w: steim frames hold %d of %d samples", ErrTruncated, len(diffs), n)
	}

	out := make([]float64, n)
	cur := x0
	out[0] = float64(cur)
	for i := 1; i < n; i++ {
		cur += diffs[i]
		out[i] = float64(cur)
	}
	if cur != xn {
		monitoring.Warnf("steim reverse integration constant %d does not match last sample %d", xn, cur)
	}
	return out, nil
}

func steim1Diffs(dst []int32, c uint32, w uint32) ([]int32, bool) {
	switch c {
	case 1:
		for shift := 24; shift >= 0; shift -= 8 {
			dst = append(dst, int32(int8(w>>uint(shift))))
		}
	case 2:
		dst = append(dst, int32(int16(w>>16)), int32(int16(w)))
	case 3:
		dst = append(dst, int32(w))
	default:
		return dst, false
	}
	return dst, true
}

func steim2Diffs(dst []int32, c uint32, w uint32) ([]int32, bool) {
	dnib := w >> 30
	switch c {
	case 1:
		return steim1Diffs(dst, 1, w)
	case 2:
		switch dnib {
		case 1:
			return appendPacked(dst, w, 1, 30), true
		case 2:
			return appendPacked(dst, w, 2, 15), true
		case 3:
			return appendPacked(dst, w, 3, 10), true
		}
	case 3:
		switch dnib {
		case 0:
			return appendPacked(dst, w, 5, 6), true
		case 1:
			return appendPacked(dst, w, 6, 5), true
		case 2:
			return appendPacked(dst, w, 7, 4), true
		}
	}
	return dst, false
}

// appendPacked extracts count sign-extended values of width bits, most
// significant first, from the low count*width bits of w.
func appendPacked(dst []int32, w uint32, count, width int) []int32 {
	mask := uint32(1)<<uint(width) - 1
	for k := count - 1; k >= 0; k-- {
		v := (w >> uint(k*width)) & mask
		dst = append(dst, signExtend(v, width))
	}
	return dst
}

func signExtend(v uint32, width int) int32 {
	shift := uint(32 - width)
	return int32(v<<shift) >> shift
}
