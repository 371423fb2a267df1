package filters

import (
	"fmt"

	"github.com/tsawler/pdfstream/logger"
)

// Identity returns its input unchanged in both directions.
type Identity struct{}

func (Identity) Name() string { return NameIdentity }

func (Identity) Decode(data []byte, _ Params) (*Result, error) {
	return &Result{Data: data}, nil
}

func (Identity) Encode(data []byte, _ Params) ([]byte, error) {
	return data, nil
}

// Crypt is the Crypt filter. Decryption is outside this package, so only
// the Identity crypt filter is accepted; any other Name parameter is an
// unsupported configuration.
type Crypt struct{}

func (Crypt) Name() string { return NameCrypt }

func (c Crypt) Decode(data []byte, params Params) (*Result, error) {
	if err := c.check(params); err != nil {
		return nil, err
	}
	return &Result{Data: data}, nil
}

func (c Crypt) Encode(data []byte, params Params) ([]byte, error) {
	if err := c.check(params); err != nil {
		return nil, err
	}
	return data, nil
}

func (Crypt) check(params Params) error {
	if name := getNameParam(params, "Name", NameIdentity); name != NameIdentity {
		return fmt.Errorf("%w: crypt filter %s", ErrUnsupportedFilterConfig, name)
	}
	return nil
}

// imagePassthrough handles the image codecs whose output is an image rather
// than a byte stream (DCT, JPX, JBIG2). Decode returns the encoded bytes for
// an image decoder to consume and reports the color space they imply.
type imagePassthrough struct {
	name    string
	bilevel bool
}

func (p *imagePassthrough) Name() string { return p.name }

func (p *imagePassthrough) Decode(data []byte, params Params) (*Result, error) {
	res := &Result{Data: data, ColorSpace: getNameParam(params, "ColorSpace", "")}
	if p.bilevel {
		res.ColorSpace = "DeviceGray"
		if !params.Has("ColorSpace") {
			logger.Debug("image filter: missing ColorSpace, using DeviceGray", "filter", p.name)
			res.Repaired = Params{"ColorSpace": "DeviceGray"}
		}
	}
	return res, nil
}

func (p *imagePassthrough) Encode([]byte, Params) ([]byte, error) {
	return nil, fmt.Errorf("%w: %s", ErrEncodingNotImplemented, p.name)
}
