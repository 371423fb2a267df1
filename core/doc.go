// Package core runs PDF streams through their filter chains.
//
// A [Stream] pairs a stream dictionary with its encoded bytes. The
// dictionary's /Filter entry names the filters in decoding order and
// /DecodeParms holds one parameter dictionary per filter:
//
//	s, err := core.ParseStream(src) // "<< /Filter /FlateDecode /Length 42 >> stream ... endstream"
//	data, err := s.Decode()
//
// # Object Types
//
// The PDF object types that appear in stream dictionaries are implemented as
// types satisfying the Object interface:
//
//   - [Null] - represents the PDF null object
//   - [Bool] - represents PDF boolean values (true/false)
//   - [Int] - represents PDF integers
//   - [Real] - represents PDF real numbers (floating point)
//   - [String] - represents PDF string objects (literal or hexadecimal)
//   - [Name] - represents PDF name objects (e.g., /Filter, /Columns)
//   - [Array] - represents PDF arrays
//   - [Dict] - represents PDF dictionaries
//
// [Parser] reads them from PDF object syntax and [ParseStream] reads a whole
// stream object. Indirect references are read as null; resolving them needs
// a document, which this package does not model.
//
// # Decoding
//
// [Stream.Decode] applies the filters left to right. Every stage gets its
// DecodeParms entry merged with the stream's Height, Length and ColorSpace
// (see [Stream.DecodeParms]). A failing stage stops the chain with a
// [FilterError] naming the filter, its index and, when known, the byte
// offset of the failure. Entries a filter repairs are written back into the
// stream dictionary.
//
// [DecodeStreams] decodes many streams concurrently under a [Config].
//
// # Encoding
//
// [Encode] runs one filter's encoder and [NewStream] builds a stream from
// raw bytes and a filter list, filling in Filter, DecodeParms and Length.
// Image filters other than CCITTFaxDecode (Group 4) are decode only and fail
// with [ErrEncodingNotImplemented].
package core
