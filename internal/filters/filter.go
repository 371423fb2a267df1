package filters

import (
	"fmt"
	"sort"

	"github.com/klauspost/compress/flate"
)

// Filter is one PDF stream filter. Implementations keep no state between
// calls; New returns a fresh value for every stream.
type Filter interface {
	// Name returns the canonical PDF filter name, e.g. "FlateDecode".
	Name() string

	// Decode converts encoded stream bytes to their logical content.
	Decode(data []byte, params Params) (*Result, error)

	// Encode is the inverse of Decode. Decode-only filters return
	// ErrEncodingNotImplemented.
	Encode(data []byte, params Params) ([]byte, error)
}

// Result is the outcome of one Decode call.
type Result struct {
	Data []byte

	// Repaired holds dictionary entries the filter had to supply, for
	// example ColorSpace DeviceGray for a bi-level image without one. The
	// dispatcher merges them back into the stream dictionary.
	Repaired Params

	// ColorSpace is the color space implied by the decoded data, if any.
	ColorSpace string
}

// Options configure filters created by New.
type Options struct {
	// FlateLevel is the deflate compression level used by FlateDecode's
	// encoder, from flate.HuffmanOnly (-2) to flate.BestCompression (9).
	FlateLevel int
}

// DefaultOptions returns the options used when none are given.
func DefaultOptions() Options {
	return Options{FlateLevel: flate.DefaultCompression}
}

// Canonical filter names.
const (
	NameFlate     = "FlateDecode"
	NameLZW       = "LZWDecode"
	NameASCIIHex  = "ASCIIHexDecode"
	NameASCII85   = "ASCII85Decode"
	NameRunLength = "RunLengthDecode"
	NameCCITTFax  = "CCITTFaxDecode"
	NameDCT       = "DCTDecode"
	NameJPX       = "JPXDecode"
	NameJBIG2     = "JBIG2Decode"
	NameCrypt     = "Crypt"
	NameIdentity  = "Identity"
)

// abbreviations maps the short names allowed in inline images to the
// canonical names.
var abbreviations = map[string]string{
	"Fl":  NameFlate,
	"LZW": NameLZW,
	"AHx": NameASCIIHex,
	"A85": NameASCII85,
	"RL":  NameRunLength,
	"CCF": NameCCITTFax,
	"DCT": NameDCT,
}

var registry = map[string]func(Options) Filter{
	NameFlate:     func(o Options) Filter { return &Flate{Level: o.FlateLevel} },
	NameLZW:       func(Options) Filter { return &LZW{} },
	NameASCIIHex:  func(Options) Filter { return &ASCIIHex{} },
	NameASCII85:   func(Options) Filter { return &ASCII85{} },
	NameRunLength: func(Options) Filter { return &RunLength{} },
	NameCCITTFax:  func(Options) Filter { return &CCITTFax{} },
	NameDCT:       func(Options) Filter { return &imagePassthrough{name: NameDCT} },
	NameJPX:       func(Options) Filter { return &imagePassthrough{name: NameJPX} },
	NameJBIG2:     func(Options) Filter { return &imagePassthrough{name: NameJBIG2, bilevel: true} },
	NameCrypt:     func(Options) Filter { return Crypt{} },
	NameIdentity:  func(Options) Filter { return Identity{} },
}

// Canonical resolves a filter name or abbreviation to its canonical name.
func Canonical(name string) (string, bool) {
	if full, ok := abbreviations[name]; ok {
		return full, true
	}
	if _, ok := registry[name]; ok {
		return name, true
	}
	return "", false
}

// New returns a new Filter for name, which may be a canonical name or an
// abbreviation.
func New(name string, opts Options) (Filter, error) {
	full, ok := Canonical(name)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownFilter, name)
	}
	return registry[full](opts), nil
}

// Names returns the canonical names of all registered filters, sorted.
func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
