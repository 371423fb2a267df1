package core

import (
	"bytes"
	"fmt"
)

// TokenType represents the type of token
type TokenType int

const (
	TokenEOF        TokenType = iota
	TokenKeyword              // true, false, null, obj, endobj, stream, R
	TokenInteger              // 123
	TokenReal                 // 3.14
	TokenString               // (hello)
	TokenHexString            // <48656C6C6F>
	TokenName                 // /Type
	TokenArrayStart           // [
	TokenArrayEnd             // ]
	TokenDictStart            // <<
	TokenDictEnd              // >>
)

// Token represents a lexical token
type Token struct {
	Type  TokenType
	Value []byte
	Pos   int // offset of the first byte
}

// Lexer splits PDF object syntax into tokens. Comments are skipped along
// with whitespace.
type Lexer struct {
	src []byte
	pos int
}

// NewLexer creates a lexer over src
func NewLexer(src []byte) *Lexer {
	return &Lexer{src: src}
}

// Pos returns the offset of the next unread byte.
func (l *Lexer) Pos() int { return l.pos }

// NextToken returns the next token from the input
func (l *Lexer) NextToken() (*Token, error) {
	l.skipWhitespace()

	if l.pos >= len(l.src) {
		return &Token{Type: TokenEOF, Pos: l.pos}, nil
	}

	start := l.pos
	switch b := l.src[l.pos]; b {
	case '[':
		l.pos++
		return &Token{Type: TokenArrayStart, Value: l.src[start:l.pos], Pos: start}, nil
	case ']':
		l.pos++
		return &Token{Type: TokenArrayEnd, Value: l.src[start:l.pos], Pos: start}, nil
	case '(':
		return l.readString()
	case '<':
		if l.hasPrefix("<<") {
			l.pos += 2
			return &Token{Type: TokenDictStart, Value: l.src[start:l.pos], Pos: start}, nil
		}
		return l.readHexString()
	case '>':
		if l.hasPrefix(">>") {
			l.pos += 2
			return &Token{Type: TokenDictEnd, Value: l.src[start:l.pos], Pos: start}, nil
		}
		return nil, fmt.Errorf("unexpected '>' at position %d", start)
	case '/':
		return l.readName()
	default:
		if isDigit(b) || b == '-' || b == '+' || b == '.' {
			return l.readNumber(), nil
		}
		if isRegular(b) {
			for l.pos < len(l.src) && isRegular(l.src[l.pos]) {
				l.pos++
			}
			return &Token{Type: TokenKeyword, Value: l.src[start:l.pos], Pos: start}, nil
		}
		return nil, fmt.Errorf("unexpected character %q at position %d", b, start)
	}
}

func (l *Lexer) hasPrefix(s string) bool {
	return bytes.HasPrefix(l.src[l.pos:], []byte(s))
}

// skipWhitespace skips whitespace and comments.
func (l *Lexer) skipWhitespace() {
	for l.pos < len(l.src) {
		switch b := l.src[l.pos]; {
		case isWhitespace(b):
			l.pos++
		case b == '%':
			for l.pos < len(l.src) && l.src[l.pos] != '\r' && l.src[l.pos] != '\n' {
				l.pos++
			}
		default:
			return
		}
	}
}

// readString reads a literal string (hello), resolving escapes and
// balanced parentheses.
func (l *Lexer) readString() (*Token, error) {
	start := l.pos
	l.pos++ // (

	var buf bytes.Buffer
	depth := 1
	for {
		if l.pos >= len(l.src) {
			return nil, fmt.Errorf("unterminated string at position %d", start)
		}
		b := l.src[l.pos]
		l.pos++

		switch b {
		case '(':
			depth++
		case ')':
			depth--
			if depth == 0 {
				return &Token{Type: TokenString, Value: buf.Bytes(), Pos: start}, nil
			}
		case '\\':
			if l.pos >= len(l.src) {
				continue
			}
			next := l.src[l.pos]
			l.pos++
			switch next {
			case 'n':
				buf.WriteByte('\n')
			case 'r':
				buf.WriteByte('\r')
			case 't':
				buf.WriteByte('\t')
			case 'b':
				buf.WriteByte('\b')
			case 'f':
				buf.WriteByte('\f')
			case '\r':
				// Line continuation
				if l.pos < len(l.src) && l.src[l.pos] == '\n' {
					l.pos++
				}
			case '\n':
			default:
				if !isOctalDigit(next) {
					buf.WriteByte(next)
					continue
				}
				val := next - '0'
				for i := 0; i < 2 && l.pos < len(l.src) && isOctalDigit(l.src[l.pos]); i++ {
					val = val*8 + (l.src[l.pos] - '0')
					l.pos++
				}
				buf.WriteByte(val)
			}
			continue
		}
		buf.WriteByte(b)
	}
}

// readHexString reads a hexadecimal string <48656C6C6F>. Whitespace is
// ignored and an odd final digit is followed by an implicit 0.
func (l *Lexer) readHexString() (*Token, error) {
	start := l.pos
	l.pos++ // <

	var buf bytes.Buffer
	var hi byte
	half := false
	for {
		if l.pos >= len(l.src) {
			return nil, fmt.Errorf("unterminated hex string at position %d", start)
		}
		b := l.src[l.pos]
		l.pos++
		if b == '>' {
			break
		}
		if isWhitespace(b) {
			continue
		}
		if !isHexDigit(b) {
			return nil, fmt.Errorf("invalid hex digit %q at position %d", b, l.pos-1)
		}
		if half {
			buf.WriteByte(hi<<4 | hexValue(b))
		} else {
			hi = hexValue(b)
		}
		half = !half
	}
	if half {
		buf.WriteByte(hi << 4)
	}
	return &Token{Type: TokenHexString, Value: buf.Bytes(), Pos: start}, nil
}

// readName reads a name object /Type, resolving #xx escapes.
func (l *Lexer) readName() (*Token, error) {
	start := l.pos
	l.pos++ // /

	var buf bytes.Buffer
	for l.pos < len(l.src) && isRegular(l.src[l.pos]) {
		b := l.src[l.pos]
		l.pos++
		if b == '#' {
			if l.pos+2 > len(l.src) || !isHexDigit(l.src[l.pos]) || !isHexDigit(l.src[l.pos+1]) {
				return nil, fmt.Errorf("invalid hex escape in name at position %d", l.pos-1)
			}
			b = hexValue(l.src[l.pos])<<4 | hexValue(l.src[l.pos+1])
			l.pos += 2
		}
		buf.WriteByte(b)
	}
	return &Token{Type: TokenName, Value: buf.Bytes(), Pos: start}, nil
}

// readNumber reads an integer or real number
func (l *Lexer) readNumber() *Token {
	start := l.pos
	typ := TokenInteger
	if b := l.src[l.pos]; b == '-' || b == '+' {
		l.pos++
	}
	for l.pos < len(l.src) {
		b := l.src[l.pos]
		if b == '.' && typ == TokenInteger {
			typ = TokenReal
		} else if !isDigit(b) {
			break
		}
		l.pos++
	}
	return &Token{Type: typ, Value: l.src[start:l.pos], Pos: start}
}

// skipStreamEOL skips the end-of-line marker after the stream keyword:
// LF, CR LF, or (in damaged files) a lone CR.
func (l *Lexer) skipStreamEOL() {
	if l.hasPrefix("\r\n") {
		l.pos += 2
	} else if l.pos < len(l.src) && (l.src[l.pos] == '\n' || l.src[l.pos] == '\r') {
		l.pos++
	}
}

func isWhitespace(b byte) bool {
	// PDF whitespace: space, tab, LF, CR, FF, null
	return b == ' ' || b == '\t' || b == '\n' || b == '\r' || b == '\f' || b == 0
}

func isDelimiter(b byte) bool {
	return b == '(' || b == ')' || b == '<' || b == '>' || b == '[' || b == ']' ||
		b == '{' || b == '}' || b == '/' || b == '%'
}

func isRegular(b byte) bool {
	return !isWhitespace(b) && !isDelimiter(b)
}

func isDigit(b byte) bool {
	return b >= '0' && b <= '9'
}

func isOctalDigit(b byte) bool {
	return b >= '0' && b <= '7'
}

func isHexDigit(b byte) bool {
	return (b >= '0' && b <= '9') || (b >= 'a' && b <= 'f') || (b >= 'A' && b <= 'F')
}

func hexValue(b byte) byte {
	switch {
	case b >= '0' && b <= '9':
		return b - '0'
	case b >= 'a' && b <= 'f':
		return b - 'a' + 10
	case b >= 'A' && b <= 'F':
		return b - 'A' + 10
	}
	return 0
}
