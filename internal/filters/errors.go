package filters

import (
	"errors"
	"fmt"
)

// Error categories. Every error returned by a filter matches exactly one of
// these with errors.Is.
var (
	// ErrCorruptStream reports encoded data that cannot be decoded.
	ErrCorruptStream = errors.New("corrupt stream")

	// ErrUnsupportedFilterConfig reports decode parameters the filter
	// cannot honour.
	ErrUnsupportedFilterConfig = errors.New("unsupported filter configuration")

	// ErrUnknownFilter reports a filter name that is not registered.
	ErrUnknownFilter = errors.New("unknown filter")

	// ErrEncodingNotImplemented is returned by Encode on decode-only
	// filters. Callers should treat it as expected, not as a bug.
	ErrEncodingNotImplemented = errors.New("encoding not implemented")
)

// Specific failures, each wrapping one of the categories above.
var (
	ErrInvalidASCII85Data    = fmt.Errorf("%w: invalid ASCII85 data", ErrCorruptStream)
	ErrRowLengthMismatch     = fmt.Errorf("%w: sum of run lengths does not equal row width", ErrCorruptStream)
	ErrTableOverflow         = fmt.Errorf("%w: code table overflow", ErrCorruptStream)
	ErrUnexpectedEndOfStream = fmt.Errorf("%w: unexpected end of stream", ErrCorruptStream)
	ErrUnsupportedPredictor  = fmt.Errorf("%w: predictor", ErrUnsupportedFilterConfig)
)

// FilterError attaches the failing stage to an error from a filter chain.
type FilterError struct {
	Filter string // filter name as written in the stream dictionary
	Index  int    // position in the /Filter array
	Offset int64  // byte offset into the stage input, -1 when unknown
	Err    error
}

func (e *FilterError) Error() string {
	if e.Offset >= 0 {
		return fmt.Sprintf("filter %d (%s) at offset %d: %v", e.Index, e.Filter, e.Offset, e.Err)
	}
	return fmt.Sprintf("filter %d (%s): %v", e.Index, e.Filter, e.Err)
}

func (e *FilterError) Unwrap() error { return e.Err }

// offsetError carries the input position at which a codec gave up. The
// dispatcher lifts it into FilterError.Offset.
type offsetError struct {
	offset int64
	err    error
}

func (e *offsetError) Error() string { return fmt.Sprintf("%v (offset %d)", e.err, e.offset) }
func (e *offsetError) Unwrap() error { return e.err }

func atOffset(offset int64, err error) error {
	return &offsetError{offset: offset, err: err}
}

// ErrorOffset returns the input offset recorded in err, or -1.
func ErrorOffset(err error) int64 {
	var oe *offsetError
	if errors.As(err, &oe) {
		return oe.offset
	}
	return -1
}
