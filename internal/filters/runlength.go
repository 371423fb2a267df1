package filters

import (
	"github.com/tsawler/pdfstream/logger"
)

const runLengthEOD = 128

// RunLength is the RunLengthDecode filter.
type RunLength struct{}

func (r *RunLength) Name() string { return NameRunLength }

func (r *RunLength) Decode(data []byte, _ Params) (*Result, error) {
	return &Result{Data: RunLengthDecode(data)}, nil
}

func (r *RunLength) Encode(data []byte, _ Params) ([]byte, error) {
	return RunLengthEncode(data), nil
}

// RunLengthDecode expands PDF run-length data. A length byte L of 0 to 127
// is followed by L+1 literal bytes; 129 to 255 by one byte repeated 257-L
// times; 128 ends the data. Truncated input stops decoding with a warning.
func RunLengthDecode(data []byte) []byte {
	out := make([]byte, 0, len(data)*2)
	for i := 0; i < len(data); {
		l := int(data[i])
		i++
		switch {
		case l == runLengthEOD:
			return out
		case l < runLengthEOD:
			end := i + l + 1
			if end > len(data) {
				logger.Warn("runlength: literal run truncated", "filter", NameRunLength, "offset", i-1)
				return append(out, data[i:]...)
			}
			out = append(out, data[i:end]...)
			i = end
		default:
			if i >= len(data) {
				logger.Warn("runlength: repeat run truncated", "filter", NameRunLength, "offset", i-1)
				return out
			}
			b := data[i]
			for n := 257 - l; n > 0; n-- {
				out = append(out, b)
			}
			i++
		}
	}
	return out
}

// RunLengthEncode compresses data greedily: two or more equal bytes become
// a repeat run, anything else a literal run, each at most 128 bytes long.
// The output always ends with the EOD byte.
func RunLengthEncode(data []byte) []byte {
	out := make([]byte, 0, len(data)+len(data)/128+2)
	for i := 0; i < len(data); {
		run := 1
		for i+run < len(data) && run < 128 && data[i+run] == data[i] {
			run++
		}
		if run >= 2 {
			out = append(out, byte(257-run), data[i])
			i += run
			continue
		}

		// Literal run up to the next pair of equal bytes.
		start := i
		i++
		for i < len(data) && i-start < 128 {
			if i+1 < len(data) && data[i] == data[i+1] {
				break
			}
			i++
		}
		out = append(out, byte(i-start-1))
		out = append(out, data[start:i]...)
	}
	return append(out, runLengthEOD)
}
