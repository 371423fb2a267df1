package core

import "github.com/tsawler/pdfstream/internal/filters"

// FilterError reports the stage of a filter chain that failed: the filter
// name, its index in /Filter and, when known, the byte offset into that
// stage's input. Unwrap it with errors.Is against the sentinels below.
type FilterError = filters.FilterError

// Error categories returned by the filter chain.
var (
	ErrCorruptStream           = filters.ErrCorruptStream
	ErrUnsupportedFilterConfig = filters.ErrUnsupportedFilterConfig
	ErrUnknownFilter           = filters.ErrUnknownFilter
	ErrEncodingNotImplemented  = filters.ErrEncodingNotImplemented

	ErrInvalidASCII85Data    = filters.ErrInvalidASCII85Data
	ErrRowLengthMismatch     = filters.ErrRowLengthMismatch
	ErrTableOverflow         = filters.ErrTableOverflow
	ErrUnexpectedEndOfStream = filters.ErrUnexpectedEndOfStream
	ErrUnsupportedPredictor  = filters.ErrUnsupportedPredictor
)
