package filters

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/klauspost/compress/flate"
	"github.com/klauspost/compress/zlib"

	"github.com/tsawler/pdfstream/logger"
)

// Flate is the FlateDecode filter.
type Flate struct {
	// Level is the compression level used by Encode.
	Level int
}

func (f *Flate) Name() string { return NameFlate }

func (f *Flate) Decode(data []byte, params Params) (*Result, error) {
	out, err := FlateDecode(data, params)
	if err != nil {
		return nil, err
	}
	return &Result{Data: out}, nil
}

func (f *Flate) Encode(data []byte, params Params) ([]byte, error) {
	return FlateEncode(data, params, f.Level)
}

// FlateDecode decompresses Flate (zlib/deflate) compressed data.
// This is the most common compression filter in PDFs. It optionally applies
// a predictor algorithm for image data decompression.
//
// Broken trailers are common in real files, so a stream that ends early, or
// turns corrupt after some bytes were inflated, yields the bytes inflated so
// far and a logged warning instead of an error.
func FlateDecode(data []byte, params Params) ([]byte, error) {
	decompressed, err := inflate(data)
	if err != nil {
		return nil, fmt.Errorf("zlib decompression failed: %w", err)
	}
	return applyPredictor(decompressed, params)
}

// FlateEncode compresses data into a zlib stream at the given level, after
// applying the predictor named in params, if any.
func FlateEncode(data []byte, params Params, level int) ([]byte, error) {
	predicted, err := predict(data, params)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	w, err := zlib.NewWriterLevel(&buf, level)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnsupportedFilterConfig, err)
	}
	if _, err := w.Write(predicted); err != nil {
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// hasZlibHeader reports whether data starts with a valid zlib CMF/FLG pair
// announcing the deflate method.
func hasZlibHeader(data []byte) bool {
	if len(data) < 2 {
		return false
	}
	cmf, flg := data[0], data[1]
	return cmf&0x0f == 8 && cmf>>4 <= 7 && (uint16(cmf)<<8|uint16(flg))%31 == 0
}

// inflate runs a raw inflate over data, skipping the zlib header when there
// is one. The Adler-32 trailer is never checked.
func inflate(data []byte) ([]byte, error) {
	body := data
	if hasZlibHeader(data) {
		skip := 2
		if data[1]&0x20 != 0 {
			skip += 4 // preset dictionary id
		}
		if skip > len(data) {
			skip = len(data)
		}
		body = data[skip:]
	}

	reader := flate.NewReader(bytes.NewReader(body))
	defer reader.Close()

	var buf bytes.Buffer
	_, err := io.Copy(&buf, reader)
	switch {
	case err == nil:
		return buf.Bytes(), nil
	case errors.Is(err, io.ErrUnexpectedEOF):
		logger.Warn("flate: missing end of stream, keeping inflated bytes", "filter", NameFlate, "decoded", buf.Len())
		return buf.Bytes(), nil
	case buf.Len() > 0:
		logger.Warn("flate: premature end of stream", "filter", NameFlate, "decoded", buf.Len(), "error", err)
		return buf.Bytes(), nil
	}

	var corrupt flate.CorruptInputError
	if errors.As(err, &corrupt) {
		return nil, atOffset(int64(corrupt), fmt.Errorf("%w: %v", ErrCorruptStream, err))
	}
	return nil, fmt.Errorf("%w: %v", ErrCorruptStream, err)
}

// predictorFor returns the predictor parameters in params, or ok == false
// when no predictor applies (Predictor absent or <= 1).
func predictorFor(params Params) (pp PredictorParams, ok bool, err error) {
	if getIntParam(params, "Predictor", 1) <= 1 {
		return pp, false, nil
	}
	pp, err = predictorParams(params)
	if err != nil {
		return pp, false, err
	}
	return pp, true, nil
}

// applyPredictor reverses the predictor named in params, if any.
func applyPredictor(data []byte, params Params) ([]byte, error) {
	pp, ok, err := predictorFor(params)
	if err != nil {
		return nil, fmt.Errorf("predictor failed: %w", err)
	}
	if !ok {
		return data, nil
	}
	out, err := Unpredict(data, pp)
	if err != nil {
		return nil, fmt.Errorf("predictor failed: %w", err)
	}
	return out, nil
}

// predict applies the predictor named in params, if any.
func predict(data []byte, params Params) ([]byte, error) {
	pp, ok, err := predictorFor(params)
	if err != nil {
		return nil, err
	}
	if !ok {
		return data, nil
	}
	return Predict(data, pp)
}
