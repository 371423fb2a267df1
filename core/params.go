package core

import (
	"github.com/tsawler/pdfstream/internal/filters"
)

// Params is the flat parameter record handed to one filter stage. Values
// are Go primitives: int, float64, bool or string for names and strings.
type Params = filters.Params

// dictToParams converts a Dict to Params, translating PDF object types to
// Go primitive types (Int->int, Real->float64, Bool->bool, etc.). A nil
// dict converts to an empty record.
func dictToParams(dict Dict) Params {
	params := make(Params, len(dict))
	for k, v := range dict {
		if _, ok := v.(Null); ok {
			// A null value is the same as an absent key.
			continue
		}
		params[k] = toValue(v)
	}
	return params
}

func toValue(obj Object) interface{} {
	switch v := obj.(type) {
	case Int:
		return int(v)
	case Real:
		return float64(v)
	case Bool:
		return bool(v)
	case String:
		return string(v)
	case Name:
		return string(v)
	default:
		// Arrays and dictionaries (an indexed ColorSpace, say) are kept
		// as objects.
		return v
	}
}

// paramsToDict is the inverse of dictToParams. Strings become names, which
// is what every filter parameter of string type is.
func paramsToDict(params Params) Dict {
	dict := make(Dict, len(params))
	for k, v := range params {
		dict[k] = toObject(v)
	}
	return dict
}

func toObject(v interface{}) Object {
	switch v := v.(type) {
	case Object:
		return v
	case int:
		return Int(v)
	case int64:
		return Int(v)
	case float64:
		return Real(v)
	case bool:
		return Bool(v)
	case string:
		return Name(v)
	default:
		return Null{}
	}
}
