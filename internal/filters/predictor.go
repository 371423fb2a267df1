package filters

import (
	"fmt"

	"github.com/tsawler/pdfstream/logger"
)

// Row predictor types. PNG rows carry their own type in a leading tag byte
// (0..4), represented here as 10+tag.
const (
	PredictorNone       = 1
	PredictorTIFF       = 2
	PredictorPNGNone    = 10
	PredictorPNGSub     = 11
	PredictorPNGUp      = 12
	PredictorPNGAvg     = 13
	PredictorPNGPaeth   = 14
	PredictorPNGOptimum = 15
)

// rowLength returns the number of bytes in one unpredicted row.
func rowLength(colors, bitsPerComponent, columns int) int {
	return (columns*colors*bitsPerComponent + 7) / 8
}

// Unpredict reverses a predictor over a whole buffer of rows. PNG input rows
// are one tag byte longer than output rows. A short final row is zero padded
// before decoding.
func Unpredict(data []byte, pp PredictorParams) ([]byte, error) {
	if pp.Predictor == PredictorNone {
		return data, nil
	}

	rowLen := rowLength(pp.Colors, pp.BitsPerComponent, pp.Columns)
	png := pp.Predictor >= PredictorPNGNone
	inLen := rowLen
	if png {
		inLen++
	}

	// Row buffers are swapped after each row, never reallocated.
	cur := make([]byte, rowLen)
	prev := make([]byte, rowLen)
	out := make([]byte, 0, (len(data)+inLen-1)/inLen*rowLen)

	for off := 0; off < len(data); off += inLen {
		end := off + inLen
		if end > len(data) {
			end = len(data)
		}
		chunk := data[off:end]

		predictor := pp.Predictor
		if png {
			tag := chunk[0]
			if tag > 4 {
				return nil, atOffset(int64(off), fmt.Errorf("%w: PNG row filter type %d", ErrUnsupportedPredictor, tag))
			}
			predictor = PredictorPNGNone + int(tag)
			chunk = chunk[1:]
		}

		n := copy(cur, chunk)
		if n < rowLen {
			logger.Warn("predictor: short final row zero padded", "have", n, "want", rowLen)
			for i := n; i < rowLen; i++ {
				cur[i] = 0
			}
		}

		if err := DecodeRow(predictor, pp.Colors, pp.BitsPerComponent, pp.Columns, cur, prev); err != nil {
			return nil, err
		}
		out = append(out, cur...)
		cur, prev = prev, cur
	}

	return out, nil
}

// Predict applies a predictor to raw rows, the inverse of Unpredict. For
// PredictorPNGOptimum and above each row gets the PNG type with the smallest
// sum of absolute differences.
func Predict(data []byte, pp PredictorParams) ([]byte, error) {
	if pp.Predictor == PredictorNone {
		return data, nil
	}

	rowLen := rowLength(pp.Colors, pp.BitsPerComponent, pp.Columns)
	png := pp.Predictor >= PredictorPNGNone
	rows := (len(data) + rowLen - 1) / rowLen

	prev := make([]byte, rowLen)
	raw := make([]byte, rowLen)
	enc := make([]byte, rowLen)
	var out []byte
	if png {
		out = make([]byte, 0, rows*(rowLen+1))
	} else {
		out = make([]byte, 0, rows*rowLen)
	}

	for r := 0; r < rows; r++ {
		n := copy(raw, data[r*rowLen:])
		for i := n; i < rowLen; i++ {
			raw[i] = 0
		}

		predictor := pp.Predictor
		if predictor >= PredictorPNGOptimum {
			predictor = bestPNGPredictor(raw, prev, pp, enc)
		}

		copy(enc, raw)
		if err := EncodeRow(predictor, pp.Colors, pp.BitsPerComponent, pp.Columns, enc, prev); err != nil {
			return nil, err
		}
		if png {
			out = append(out, byte(predictor-PredictorPNGNone))
		}
		out = append(out, enc...)
		raw, prev = prev, raw
	}

	return out, nil
}

// bestPNGPredictor picks the PNG row type whose output has the smallest sum
// of absolute values, reading each byte as signed. scratch is clobbered.
func bestPNGPredictor(raw, prev []byte, pp PredictorParams, scratch []byte) int {
	best, bestSum := PredictorPNGNone, -1
	for p := PredictorPNGNone; p <= PredictorPNGPaeth; p++ {
		copy(scratch, raw)
		_ = EncodeRow(p, pp.Colors, pp.BitsPerComponent, pp.Columns, scratch, prev)
		sum := 0
		for _, b := range scratch {
			sum += abs(int(int8(b)))
		}
		if bestSum < 0 || sum < bestSum {
			best, bestSum = p, sum
		}
	}
	return best
}

// DecodeRow reverses predictor on cur in place. prev must hold the previous
// decoded row (zeros for the first row) and have the same length as cur.
func DecodeRow(predictor, colors, bitsPerComponent, columns int, cur, prev []byte) error {
	bytesPerPixel := (colors*bitsPerComponent + 7) / 8
	rowLen := len(cur)

	switch predictor {
	case PredictorNone, PredictorPNGNone:

	case PredictorTIFF:
		switch {
		case bitsPerComponent == 8:
			for p := bytesPerPixel; p < rowLen; p++ {
				cur[p] += cur[p-bytesPerPixel]
			}
		case bitsPerComponent == 16:
			for p := bytesPerPixel; p < rowLen-1; p += 2 {
				sum := get16(cur, p) + get16(cur, p-bytesPerPixel)
				put16(cur, p, sum)
			}
		case bitsPerComponent == 1 && colors == 1:
			// Samples are packed bits, so the left neighbour of bit 7 is
			// bit 0 of the previous byte.
			for i := 1; i < rowLen*8; i++ {
				setBit(cur, i, getBit(cur, i)^getBit(cur, i-1))
			}
		case bitsPerComponent > 0 && bitsPerComponent < 8 && 8%bitsPerComponent == 0:
			elements := columns * colors
			for p := colors; p < elements; p++ {
				sum := getSample(cur, p, bitsPerComponent) + getSample(cur, p-colors, bitsPerComponent)
				setSample(cur, p, bitsPerComponent, sum)
			}
		default:
			return fmt.Errorf("%w: TIFF predictor with %d bits per component", ErrUnsupportedPredictor, bitsPerComponent)
		}

	case PredictorPNGSub:
		for p := bytesPerPixel; p < rowLen; p++ {
			cur[p] += cur[p-bytesPerPixel]
		}

	case PredictorPNGUp:
		for p := 0; p < rowLen; p++ {
			cur[p] += prev[p]
		}

	case PredictorPNGAvg:
		for p := 0; p < rowLen; p++ {
			var left int
			if p >= bytesPerPixel {
				left = int(cur[p-bytesPerPixel])
			}
			cur[p] += byte((left + int(prev[p])) / 2)
		}

	case PredictorPNGPaeth:
		for p := 0; p < rowLen; p++ {
			var left, upLeft byte
			if p >= bytesPerPixel {
				left = cur[p-bytesPerPixel]
				upLeft = prev[p-bytesPerPixel]
			}
			cur[p] += paethPredictor(left, prev[p], upLeft)
		}

	default:
		return fmt.Errorf("%w: %d", ErrUnsupportedPredictor, predictor)
	}
	return nil
}

// EncodeRow applies predictor to the raw row cur in place. prev is the
// previous raw row. Rows are processed right to left so that every
// neighbour read is still raw.
func EncodeRow(predictor, colors, bitsPerComponent, columns int, cur, prev []byte) error {
	bytesPerPixel := (colors*bitsPerComponent + 7) / 8
	rowLen := len(cur)

	switch predictor {
	case PredictorNone, PredictorPNGNone:

	case PredictorTIFF:
		switch {
		case bitsPerComponent == 8:
			for p := rowLen - 1; p >= bytesPerPixel; p-- {
				cur[p] -= cur[p-bytesPerPixel]
			}
		case bitsPerComponent == 16:
			if rowLen-2-bytesPerPixel >= 0 {
				for p := bytesPerPixel + (rowLen-2-bytesPerPixel)/2*2; p >= bytesPerPixel; p -= 2 {
					put16(cur, p, get16(cur, p)-get16(cur, p-bytesPerPixel))
				}
			}
		case bitsPerComponent == 1 && colors == 1:
			for i := rowLen*8 - 1; i >= 1; i-- {
				setBit(cur, i, getBit(cur, i)^getBit(cur, i-1))
			}
		case bitsPerComponent > 0 && bitsPerComponent < 8 && 8%bitsPerComponent == 0:
			for p := columns*colors - 1; p >= colors; p-- {
				diff := getSample(cur, p, bitsPerComponent) - getSample(cur, p-colors, bitsPerComponent)
				setSample(cur, p, bitsPerComponent, diff)
			}
		default:
			return fmt.Errorf("%w: TIFF predictor with %d bits per component", ErrUnsupportedPredictor, bitsPerComponent)
		}

	case PredictorPNGSub:
		for p := rowLen - 1; p >= bytesPerPixel; p-- {
			cur[p] -= cur[p-bytesPerPixel]
		}

	case PredictorPNGUp:
		for p := 0; p < rowLen; p++ {
			cur[p] -= prev[p]
		}

	case PredictorPNGAvg:
		for p := rowLen - 1; p >= 0; p-- {
			var left int
			if p >= bytesPerPixel {
				left = int(cur[p-bytesPerPixel])
			}
			cur[p] -= byte((left + int(prev[p])) / 2)
		}

	case PredictorPNGPaeth:
		for p := rowLen - 1; p >= 0; p-- {
			var left, upLeft byte
			if p >= bytesPerPixel {
				left = cur[p-bytesPerPixel]
				upLeft = prev[p-bytesPerPixel]
			}
			cur[p] -= paethPredictor(left, prev[p], upLeft)
		}

	default:
		return fmt.Errorf("%w: %d", ErrUnsupportedPredictor, predictor)
	}
	return nil
}

// paethPredictor implements the Paeth predictor algorithm from the PNG specification.
// It selects the neighbor (left, above, or upper-left) closest to a linear prediction.
func paethPredictor(a, b, c byte) byte {
	// a = left, b = above, c = upper left
	p := int(a) + int(b) - int(c)
	pa := abs(p - int(a))
	pb := abs(p - int(b))
	pc := abs(p - int(c))

	if pa <= pb && pa <= pc {
		return a
	} else if pb <= pc {
		return b
	}
	return c
}

func get16(row []byte, p int) uint16 {
	return uint16(row[p])<<8 | uint16(row[p+1])
}

func put16(row []byte, p int, v uint16) {
	row[p] = byte(v >> 8)
	row[p+1] = byte(v)
}

// getBit returns bit i of row, counting from the high bit of row[0].
func getBit(row []byte, i int) byte {
	return row[i/8] >> (7 - uint(i%8)) & 1
}

func setBit(row []byte, i int, v byte) {
	mask := byte(0x80) >> uint(i%8)
	if v&1 == 1 {
		row[i/8] |= mask
	} else {
		row[i/8] &^= mask
	}
}

// getSample returns sample p of a row packed with bpc bits per sample,
// where bpc divides 8.
func getSample(row []byte, p, bpc int) int {
	shift := uint(8 - p*bpc%8 - bpc)
	mask := 1<<uint(bpc) - 1
	return int(row[p*bpc/8]>>shift) & mask
}

// setSample stores v modulo 2^bpc as sample p.
func setSample(row []byte, p, bpc int, v int) {
	shift := uint(8 - p*bpc%8 - bpc)
	mask := byte(1<<uint(bpc)-1) << shift
	i := p * bpc / 8
	row[i] = row[i]&^mask | byte(v<<shift)&mask
}

// abs returns the absolute value of an integer.
func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
