// Package filters implements the PDF stream filters.
//
// PDF streams can be compressed or encoded using various algorithms, chained
// through the /Filter array of the stream dictionary. This package provides
// one codec per standard filter and a registry that maps filter names,
// including the abbreviations allowed in inline images, to them.
//
// # Supported Filters
//
// FlateDecode (zlib/deflate):
//
//	decoded, err := filters.FlateDecode(data, params)
//
// FlateDecode and LZWDecode support predictors for improved compression of
// image data. The Predictor parameter specifies the algorithm:
//   - 1: No prediction (default)
//   - 2: TIFF Predictor 2
//   - 10-15: PNG predictors (None, Sub, Up, Average, Paeth, Optimum)
//
// LZWDecode:
//
//	decoded, err := filters.LZWDecode(data, filters.Params{"EarlyChange": 1})
//
// CCITTFaxDecode (Group 3 and Group 4 fax):
//
//	decoded, err := filters.CCITTFaxDecode(data, filters.Params{"K": -1, "Columns": 1728})
//
// ASCIIHexDecode, ASCII85Decode and RunLengthDecode take no parameters:
//
//	decoded, err := filters.ASCII85Decode(data)
//
// DCTDecode, JPXDecode and JBIG2Decode produce images rather than bytes;
// their Decode returns the data unchanged along with the implied color
// space. Crypt accepts only the Identity crypt filter.
//
// # Filter Interface
//
// New returns a Filter for a name. Every Filter decodes, and all but the
// image filters encode:
//
//	f, err := filters.New("Fl", filters.DefaultOptions())
//	res, err := f.Decode(data, params)
//	encoded, err := f.Encode(res.Data, params)
//
// # Decode Parameters
//
// Filters accept a Params map for additional parameters:
//
//	params := filters.Params{
//	    "Predictor": 12,
//	    "Columns":   100,
//	    "Colors":    3,
//	}
//	decoded, err := filters.FlateDecode(data, params)
//
// # Errors
//
// Errors match one of ErrCorruptStream, ErrUnsupportedFilterConfig,
// ErrUnknownFilter or ErrEncodingNotImplemented with errors.Is. Recoverable
// damage, such as a missing Flate checksum or a truncated LZW stream, is
// logged through the logger package and the data decoded so far is returned.
package filters
