package core

import (
	"fmt"

	"github.com/tsawler/pdfstream/internal/filters"
	"github.com/tsawler/pdfstream/logger"
)

// streamKeys are the stream dictionary entries copied into the parameters
// of every stage, with their inline image abbreviations.
var streamKeys = []struct{ full, abbr string }{
	{"Height", "H"},
	{"Length", "L"},
	{"ColorSpace", "CS"},
}

// lookup returns d[full], or d[abbr] when full is absent.
func (d Dict) lookup(full, abbr string) Object {
	if v, ok := d[full]; ok {
		return v
	}
	return d[abbr]
}

// Filters returns the filter names of the stream in decoding order. Names
// are returned as written, abbreviations included. A stream without
// /Filter has no filters.
func (s *Stream) Filters() ([]string, error) {
	obj := s.Dict.Get("Filter")
	if obj == nil {
		// Inline images abbreviate Filter as F. In a stream dictionary F
		// is a file specification, which is never a name or an array.
		switch f := s.Dict.Get("F").(type) {
		case Name, Array:
			obj = f
		}
	}

	switch f := obj.(type) {
	case nil, Null:
		return nil, nil
	case Name:
		return []string{string(f)}, nil
	case Array:
		names := make([]string, len(f))
		for i := range f {
			name, ok := f.GetName(i)
			if !ok {
				return nil, fmt.Errorf("filter %d is not a name: %v", i, f[i])
			}
			names[i] = string(name)
		}
		return names, nil
	default:
		return nil, fmt.Errorf("invalid Filter type: %v", obj.Type())
	}
}

// DecodeParms returns the parameters of filter stage index: its DecodeParms
// entry plus the stream's Height, Length and ColorSpace. When DecodeParms is
// an array that is short or holds null at index, the stage gets only the
// stream entries. A single dictionary applies to every stage.
func (s *Stream) DecodeParms(index int) Params {
	return s.stageParams(index, nil)
}

// stageParams is DecodeParms with the stream entries in repaired taking the
// place of those in s.Dict.
func (s *Stream) stageParams(index int, repaired Params) Params {
	var stage Dict
	switch dp := s.Dict.lookup("DecodeParms", "DP").(type) {
	case Dict:
		stage = dp
	case Array:
		stage, _ = dp.GetDict(index)
	}

	params := dictToParams(stage)
	for _, k := range streamKeys {
		if params.Has(k.full) {
			continue
		}
		if v, ok := repaired[k.full]; ok {
			params[k.full] = v
			continue
		}
		switch v := s.Dict.lookup(k.full, k.abbr).(type) {
		case nil, Null:
		default:
			params[k.full] = toValue(v)
		}
	}
	return params
}

// repair is a dictionary entry supplied by a filter stage.
type repair struct {
	filter string
	key    string
	value  any
}

// Decode runs the stream data through every filter in /Filter, left to
// right, and returns the result. Every filter name is resolved before any
// data is decoded. A stage that fails stops the chain with a *FilterError
// and leaves s.Dict as it was. Entries a filter repairs, such as a missing
// ColorSpace on a fax image, are seen by the later stages and written back
// into s.Dict once the whole chain has succeeded.
//
// A Stream must not be decoded from two goroutines at once.
func (s *Stream) Decode() ([]byte, error) {
	return s.decode(filters.DefaultOptions())
}

func (s *Stream) decode(opts filters.Options) ([]byte, error) {
	names, err := s.Filters()
	if err != nil {
		return nil, err
	}

	chain := make([]filters.Filter, len(names))
	for i, name := range names {
		if chain[i], err = newFilter(name, i, opts); err != nil {
			return nil, err
		}
	}

	data := s.Data
	var repaired Params
	var repairs []repair
	for i, f := range chain {
		res, err := runStage(f, names[i], i, data, s.stageParams(i, repaired))
		if err != nil {
			return nil, err
		}
		for k, v := range res.Repaired {
			if repaired == nil {
				repaired = make(Params)
			}
			repaired[k] = v
			repairs = append(repairs, repair{filter: names[i], key: k, value: v})
		}
		data = res.Data
	}

	s.applyRepairs(repairs)
	return data, nil
}

// DecodeStage runs only filter stage index over data, which should be the
// output of the stages before it. Entries the stage repairs are written
// into s.Dict.
func (s *Stream) DecodeStage(data []byte, index int) ([]byte, error) {
	names, err := s.Filters()
	if err != nil {
		return nil, err
	}
	if index < 0 || index >= len(names) {
		return nil, fmt.Errorf("filter index %d out of range (%d filters)", index, len(names))
	}

	f, err := newFilter(names[index], index, filters.DefaultOptions())
	if err != nil {
		return nil, err
	}
	res, err := runStage(f, names[index], index, data, s.DecodeParms(index))
	if err != nil {
		return nil, err
	}

	var repairs []repair
	for k, v := range res.Repaired {
		repairs = append(repairs, repair{filter: names[index], key: k, value: v})
	}
	s.applyRepairs(repairs)
	return res.Data, nil
}

func newFilter(name string, index int, opts filters.Options) (filters.Filter, error) {
	f, err := filters.New(name, opts)
	if err != nil {
		return nil, &FilterError{Filter: name, Index: index, Offset: -1, Err: err}
	}
	return f, nil
}

func runStage(f filters.Filter, name string, index int, data []byte, params Params) (*filters.Result, error) {
	res, err := f.Decode(data, params)
	if err != nil {
		return nil, &FilterError{Filter: name, Index: index, Offset: filters.ErrorOffset(err), Err: err}
	}
	return res, nil
}

func (s *Stream) applyRepairs(repairs []repair) {
	if len(repairs) == 0 {
		return
	}
	if s.Dict == nil {
		s.Dict = make(Dict)
	}
	for _, r := range repairs {
		logger.Debug("core: stream dictionary repaired", "filter", r.filter, "key", r.key, "value", r.value)
		s.Dict.Set(r.key, toObject(r.value))
	}
}

// Encode runs the encoder of one filter over data. parms may be nil; a nil
// cfg uses the defaults.
func Encode(data []byte, name string, parms Dict, cfg *Config) ([]byte, error) {
	return encodeStage(data, 0, name, parms, cfg)
}

func encodeStage(data []byte, index int, name string, parms Dict, cfg *Config) ([]byte, error) {
	f, err := filters.New(name, cfg.options())
	if err != nil {
		return nil, &FilterError{Filter: name, Index: index, Offset: -1, Err: err}
	}
	out, err := f.Encode(data, dictToParams(parms))
	if err != nil {
		return nil, &FilterError{Filter: name, Index: index, Offset: -1, Err: err}
	}
	return out, nil
}

// NewStream encodes data through names and returns a stream whose Decode
// gives data back. names are in decoding order, so they are applied right
// to left; parms[i], which may be nil or absent, belongs to names[i]. The
// dictionary gets Filter, DecodeParms (when any stage has parameters) and
// Length.
func NewStream(data []byte, names []string, parms []Dict, cfg *Config) (*Stream, error) {
	stageParms := make([]Dict, len(names))
	copy(stageParms, parms)

	for i := len(names) - 1; i >= 0; i-- {
		out, err := encodeStage(data, i, names[i], stageParms[i], cfg)
		if err != nil {
			return nil, err
		}
		data = out
	}

	dict := Dict{"Length": Int(len(data))}
	if len(names) == 1 {
		dict["Filter"] = Name(names[0])
		if len(stageParms[0]) > 0 {
			dict["DecodeParms"] = stageParms[0]
		}
	} else if len(names) > 1 {
		filterArr := make(Array, len(names))
		parmsArr := make(Array, len(names))
		hasParms := false
		for i, name := range names {
			filterArr[i] = Name(name)
			parmsArr[i] = Null{}
			if len(stageParms[i]) > 0 {
				parmsArr[i] = stageParms[i]
				hasParms = true
			}
		}
		dict["Filter"] = filterArr
		if hasParms {
			dict["DecodeParms"] = parmsArr
		}
	}

	return &Stream{Dict: dict, Data: data}, nil
}
