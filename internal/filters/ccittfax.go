package filters

import (
	"fmt"

	"github.com/tsawler/pdfstream/logger"
)

// CCITTFax is the CCITTFaxDecode filter.
type CCITTFax struct{}

func (c *CCITTFax) Name() string { return NameCCITTFax }

// Decode decodes the image and reports DeviceGray as its color space. A
// stream dictionary without ColorSpace is repaired with DeviceGray.
func (c *CCITTFax) Decode(data []byte, params Params) (*Result, error) {
	out, err := CCITTFaxDecode(data, params)
	if err != nil {
		return nil, err
	}
	res := &Result{Data: out, ColorSpace: "DeviceGray"}
	if !params.Has("ColorSpace") {
		logger.Debug("ccitt: missing ColorSpace, using DeviceGray", "filter", NameCCITTFax)
		res.Repaired = Params{"ColorSpace": "DeviceGray"}
	}
	return res, nil
}

func (c *CCITTFax) Encode(data []byte, params Params) ([]byte, error) {
	return CCITTFaxEncode(data, params)
}

// CCITTFaxDecode decodes CCITT Group 3/4 fax compressed data.
// This is commonly used for bi-level (black and white) images in PDFs,
// particularly for scanned documents.
//
// Parameters from the PDF decode parameters dictionary:
//   - K: Group selector (<0 = Group 4, 0 = Group 3 1-D, >0 = Group 3 2-D)
//   - Columns: Image width in pixels (default 1728)
//   - Rows: Image height in pixels, reconciled with the image Height
//   - EncodedByteAlign: rows start on byte boundaries
//   - BlackIs1: 1 bits are black in the output (default false, 0 is black)
//
// The output has one row of ceil(Columns/8) bytes per decoded row.
func CCITTFaxDecode(data []byte, params Params) ([]byte, error) {
	fp, err := faxParams(params)
	if err != nil {
		return nil, err
	}
	out, err := decodeFax(data, fp)
	if err != nil {
		return nil, err
	}
	if !fp.BlackIs1 {
		invert(out)
	}
	return out, nil
}

// CCITTFaxEncode encodes packed bi-level rows as Group 4. Only K < 0 is
// supported. The input uses the same polarity as CCITTFaxDecode output, so
// that decoding with the same parameters gives the input back.
func CCITTFaxEncode(data []byte, params Params) ([]byte, error) {
	fp, err := faxParams(params)
	if err != nil {
		return nil, err
	}
	if fp.K >= 0 {
		return nil, fmt.Errorf("%w: CCITT encoding with K=%d, only Group 4 (K<0) is supported", ErrEncodingNotImplemented, fp.K)
	}
	src := data
	if !fp.BlackIs1 {
		src = append([]byte(nil), data...)
		invert(src)
	}
	return encodeG4(src, fp.Columns, fp.FillOrder), nil
}

func invert(b []byte) {
	for i := range b {
		b[i] = ^b[i]
	}
}
