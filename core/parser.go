package core

import (
	"bytes"
	"fmt"
	"io"
	"strconv"

	"github.com/tsawler/pdfstream/logger"
)

// Parser reads PDF objects from object syntax. It is used to read stream
// dictionaries and DecodeParms written by hand or cut out of a PDF file.
type Parser struct {
	lex *Lexer
}

// NewParser creates a new PDF parser over src.
func NewParser(src []byte) *Parser {
	return &Parser{lex: NewLexer(src)}
}

// ParseObject parses and returns the next PDF object from the input. It
// returns io.EOF when the input is exhausted.
//
// Indirect references (num gen R) cannot be resolved without a document
// and are read as null.
func (p *Parser) ParseObject() (Object, error) {
	tok, err := p.lex.NextToken()
	if err != nil {
		return nil, err
	}
	return p.parse(tok)
}

func (p *Parser) parse(tok *Token) (Object, error) {
	switch tok.Type {
	case TokenEOF:
		return nil, io.EOF

	case TokenKeyword:
		switch string(tok.Value) {
		case "null":
			return Null{}, nil
		case "true":
			return Bool(true), nil
		case "false":
			return Bool(false), nil
		}
		return nil, fmt.Errorf("unexpected keyword %q at position %d", tok.Value, tok.Pos)

	case TokenInteger:
		return p.parseInteger(tok)

	case TokenReal:
		val, err := strconv.ParseFloat(string(tok.Value), 64)
		if err != nil {
			return nil, fmt.Errorf("invalid real number %q at position %d", tok.Value, tok.Pos)
		}
		return Real(val), nil

	case TokenString, TokenHexString:
		return String(tok.Value), nil

	case TokenName:
		return Name(tok.Value), nil

	case TokenArrayStart:
		return p.parseArray()

	case TokenDictStart:
		return p.parseDict()
	}
	return nil, fmt.Errorf("unexpected %q at position %d", tok.Value, tok.Pos)
}

// parseInteger parses an integer, or skips an indirect reference.
func (p *Parser) parseInteger(tok *Token) (Object, error) {
	n, err := strconv.ParseInt(string(tok.Value), 10, 64)
	if err != nil {
		// Out of int64 range, or a lone sign.
		f, ferr := strconv.ParseFloat(string(tok.Value), 64)
		if ferr != nil {
			return nil, fmt.Errorf("invalid number %q at position %d", tok.Value, tok.Pos)
		}
		return Real(f), nil
	}

	if p.skipKeywordAfterInteger("R") {
		logger.Debug("core: indirect reference read as null", "position", tok.Pos)
		return Null{}, nil
	}
	return Int(n), nil
}

// skipKeywordAfterInteger consumes "gen keyword" if that is what follows,
// and otherwise leaves the input untouched.
func (p *Parser) skipKeywordAfterInteger(keyword string) bool {
	mark := p.lex.pos
	gen, err := p.lex.NextToken()
	if err == nil && gen.Type == TokenInteger {
		kw, err := p.lex.NextToken()
		if err == nil && kw.Type == TokenKeyword && string(kw.Value) == keyword {
			return true
		}
	}
	p.lex.pos = mark
	return false
}

// parseArray parses a PDF array "[obj1 obj2 ...]".
func (p *Parser) parseArray() (Object, error) {
	arr := Array{}
	for {
		tok, err := p.lex.NextToken()
		if err != nil {
			return nil, err
		}
		switch tok.Type {
		case TokenArrayEnd:
			return arr, nil
		case TokenEOF:
			return nil, fmt.Errorf("unexpected EOF in array")
		}

		obj, err := p.parse(tok)
		if err != nil {
			return nil, fmt.Errorf("error parsing array element: %w", err)
		}
		arr = append(arr, obj)
	}
}

// parseDict parses a PDF dictionary "<< /Key value ... >>".
func (p *Parser) parseDict() (Object, error) {
	dict := make(Dict)
	for {
		tok, err := p.lex.NextToken()
		if err != nil {
			return nil, err
		}
		switch tok.Type {
		case TokenDictEnd:
			return dict, nil
		case TokenEOF:
			return nil, fmt.Errorf("unexpected EOF in dictionary")
		case TokenName:
		default:
			return nil, fmt.Errorf("expected name for dictionary key at position %d, got %q", tok.Pos, tok.Value)
		}
		key := string(tok.Value)

		value, err := p.ParseObject()
		if err != nil {
			return nil, fmt.Errorf("error parsing dictionary value for key '%s': %w", key, err)
		}
		dict[key] = value
	}
}

// ParseDict parses src as a single dictionary.
func ParseDict(src []byte) (Dict, error) {
	obj, err := NewParser(src).ParseObject()
	if err != nil {
		return nil, err
	}
	dict, ok := obj.(Dict)
	if !ok {
		return nil, fmt.Errorf("expected a dictionary, got %v", obj.Type())
	}
	return dict, nil
}

// ParseStream reads a stream object: an optional "num gen obj" header, the
// stream dictionary, the stream keyword and the data up to endstream.
//
// When /Length is missing, indirect or does not end at endstream, the data
// is taken up to the endstream keyword instead and /Length is corrected.
func ParseStream(src []byte) (*Stream, error) {
	p := NewParser(src)

	mark := p.lex.pos
	if tok, err := p.lex.NextToken(); err != nil || tok.Type != TokenInteger || !p.skipKeywordAfterInteger("obj") {
		p.lex.pos = mark
	}

	obj, err := p.ParseObject()
	if err != nil {
		return nil, fmt.Errorf("error parsing stream dictionary: %w", err)
	}
	dict, ok := obj.(Dict)
	if !ok {
		return nil, fmt.Errorf("stream must start with a dictionary, got %v", obj.Type())
	}

	tok, err := p.lex.NextToken()
	if err != nil {
		return nil, err
	}
	if tok.Type != TokenKeyword || string(tok.Value) != "stream" {
		return nil, fmt.Errorf("expected 'stream' keyword at position %d", tok.Pos)
	}
	p.lex.skipStreamEOL()

	data, err := p.streamData(dict)
	if err != nil {
		return nil, err
	}
	return &Stream{Dict: dict, Data: data}, nil
}

func (p *Parser) streamData(dict Dict) ([]byte, error) {
	src := p.lex.src
	start := p.lex.pos

	if length, ok := dict.GetInt("Length"); ok && length >= 0 && int64(start)+int64(length) <= int64(len(src)) {
		end := start + int(length)
		p.lex.pos = end
		tok, err := p.lex.NextToken()
		if err == nil && tok.Type == TokenKeyword && string(tok.Value) == "endstream" {
			return src[start:end], nil
		}
		p.lex.pos = start
	}

	idx := bytes.Index(src[start:], []byte("endstream"))
	if idx < 0 {
		return nil, fmt.Errorf("stream data at position %d is not terminated by endstream", start)
	}
	end := start + idx
	// The EOL before endstream is not part of the data.
	if end > start && src[end-1] == '\n' {
		end--
	}
	if end > start && src[end-1] == '\r' {
		end--
	}
	p.lex.pos = start + idx + len("endstream")

	logger.Warn("core: stream length repaired", "length", end-start)
	dict.Set("Length", Int(end-start))
	return src[start:end], nil
}
