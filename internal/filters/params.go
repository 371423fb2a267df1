package filters

import (
	"fmt"

	"github.com/go-playground/validator/v10"
)

// Params represents decode parameters from PDF stream dictionaries.
// Common parameters include Predictor, Columns, Colors, and BitsPerComponent.
//
// The dispatcher also copies the stream dictionary entries Height, Length and
// ColorSpace into the Params of every stage, so a filter sees one flat record.
// Values are Go primitives: int, float64, bool or string (for names).
type Params map[string]interface{}

// Has reports whether key is present.
func (p Params) Has(key string) bool {
	_, ok := p[key]
	return ok
}

// Clone returns a shallow copy of p. A nil p clones to an empty record.
func (p Params) Clone() Params {
	out := make(Params, len(p))
	for k, v := range p {
		out[k] = v
	}
	return out
}

// Merge returns a copy of p with every entry of other that p does not
// already define.
func (p Params) Merge(other Params) Params {
	out := p.Clone()
	for k, v := range other {
		if _, ok := out[k]; !ok {
			out[k] = v
		}
	}
	return out
}

// getIntParam extracts an integer parameter from Params, returning defaultValue
// if the parameter is missing or cannot be converted to an integer.
func getIntParam(params Params, key string, defaultValue int) int {
	if params == nil {
		return defaultValue
	}

	obj, ok := params[key]
	if !ok {
		return defaultValue
	}

	switch v := obj.(type) {
	case int:
		return v
	case int64:
		return int(v)
	case int32:
		return int(v)
	case float64:
		return int(v)
	default:
		return defaultValue
	}
}

// getBoolParam extracts a boolean parameter from Params, returning defaultValue
// if the parameter is missing or cannot be converted to a boolean.
func getBoolParam(params Params, key string, defaultValue bool) bool {
	if params == nil {
		return defaultValue
	}

	obj, ok := params[key]
	if !ok {
		return defaultValue
	}

	switch v := obj.(type) {
	case bool:
		return v
	default:
		return defaultValue
	}
}

// getNameParam extracts a name (or string) parameter from Params.
func getNameParam(params Params, key string, defaultValue string) string {
	if params == nil {
		return defaultValue
	}
	if v, ok := params[key].(string); ok {
		return v
	}
	return defaultValue
}

var validate = validator.New()

// PredictorParams is the validated view of the predictor entries shared by
// FlateDecode and LZWDecode.
type PredictorParams struct {
	Predictor        int `validate:"oneof=1 2|min=10"`
	Colors           int `validate:"min=1,max=32"`
	BitsPerComponent int `validate:"oneof=1 2 4 8 16"`
	Columns          int `validate:"min=1,max=16777216"`
}

// predictorParams reads and validates the predictor entries of p. Values
// outside the PDF ranges report ErrUnsupportedPredictor.
func predictorParams(p Params) (PredictorParams, error) {
	pp := PredictorParams{
		Predictor:        getIntParam(p, "Predictor", 1),
		Colors:           getIntParam(p, "Colors", 1),
		BitsPerComponent: getIntParam(p, "BitsPerComponent", 8),
		Columns:          getIntParam(p, "Columns", 1),
	}
	if err := validate.Struct(pp); err != nil {
		return pp, fmt.Errorf("%w: %v", ErrUnsupportedPredictor, err)
	}
	return pp, nil
}

// LZWParams is the validated view of LZWDecode parameters.
type LZWParams struct {
	EarlyChange int `validate:"oneof=0 1"`
	PredictorParams
}

func lzwParams(p Params) (LZWParams, error) {
	lp := LZWParams{EarlyChange: getIntParam(p, "EarlyChange", 1)}
	if err := validate.Var(lp.EarlyChange, "oneof=0 1"); err != nil {
		return lp, fmt.Errorf("%w: EarlyChange %d", ErrUnsupportedFilterConfig, lp.EarlyChange)
	}
	pp, ok, err := predictorFor(p)
	if err != nil {
		return lp, err
	}
	if !ok {
		pp = PredictorParams{Predictor: PredictorNone, Colors: 1, BitsPerComponent: 8, Columns: 1}
	}
	lp.PredictorParams = pp
	return lp, nil
}

// maxFaxImageBytes bounds the decoded size of a fax image whose row count is
// given, since missing rows are filled in.
const maxFaxImageBytes = 1 << 28

// FaxParams is the validated view of CCITTFaxDecode parameters after the
// Rows/Height reconciliation.
type FaxParams struct {
	K                int
	Columns          int `validate:"min=1,max=1048576"`
	Rows             int `validate:"min=0,max=1048576"`
	EncodedByteAlign bool
	BlackIs1         bool
	FillOrder        FillOrder
}

// faxParams reads CCITT parameters. Rows from DecodeParms are reconciled with
// the image Height: when both are positive Height wins (DecodeParms Rows is
// known to be wrong in real files), otherwise the larger of the two is used.
func faxParams(p Params) (FaxParams, error) {
	fp := FaxParams{
		K:                getIntParam(p, "K", 0),
		Columns:          getIntParam(p, "Columns", 1728),
		EncodedByteAlign: getBoolParam(p, "EncodedByteAlign", false),
		BlackIs1:         getBoolParam(p, "BlackIs1", false),
		FillOrder:        MSBFirst,
	}
	if getIntParam(p, "FillOrder", 1) == 2 {
		fp.FillOrder = LSBFirst
	}

	rows := getIntParam(p, "Rows", 0)
	height := getIntParam(p, "Height", getIntParam(p, "H", 0))
	if rows > 0 && height > 0 {
		rows = height
	} else if height > rows {
		rows = height
	}
	fp.Rows = rows

	if err := validate.Struct(fp); err != nil {
		return fp, fmt.Errorf("%w: %v", ErrUnsupportedFilterConfig, err)
	}
	if rowBytes := (fp.Columns + 7) / 8; fp.Rows > maxFaxImageBytes/rowBytes {
		return fp, fmt.Errorf("%w: %d rows of %d columns exceed %d bytes", ErrUnsupportedFilterConfig, fp.Rows, fp.Columns, maxFaxImageBytes)
	}
	return fp, nil
}
