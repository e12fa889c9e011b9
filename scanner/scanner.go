// Package scanner turns Lox source text into tokens. Scanning is lazy: each
// call to Next produces one token, and the sequence can be restarted from
// the beginning with Reset. Errors are accumulated rather than fatal so a
// single pass reports every bad character in the input.
package scanner

import (
	"iter"
	"strconv"
	"unicode/utf8"

	"github.com/rubiojr/lox/diag"
	"modernc.org/token"
)

// Scanner iterates byte-by-byte over source text, tracking line starts in a
// token.File so every token carries a line and column.
type Scanner struct {
	src   string
	file  *token.File
	start int // offset of the first byte of the token being scanned
	pos   int // offset of the next unread byte
	done  bool
	errs  diag.List
}

// New creates a Scanner for src. name is used in token positions.
func New(name, src string) *Scanner {
	s := &Scanner{src: src}
	s.file = token.NewFile(name, len(src))
	if src != "" {
		s.file.SetLinesForContent([]byte(src))
	}
	return s
}

// Reset rewinds the scanner to the start of the source and clears errors.
func (s *Scanner) Reset() {
	s.start, s.pos, s.done = 0, 0, false
	s.errs = nil
}

// Errors returns the lexical errors seen so far.
func (s *Scanner) Errors() diag.List { return s.errs }

// Next scans and returns the next token. After the EOF token has been
// returned, further calls keep returning EOF.
func (s *Scanner) Next() Token {
	for {
		s.skipSpace()
		s.start = s.pos
		if s.atEnd() {
			s.done = true
			return s.make(EOF)
		}
		ch := s.advance()
		switch {
		case isAlpha(ch):
			return s.identifier()
		case isDigit(ch):
			return s.number()
		}
		switch ch {
		case '(':
			return s.make(LeftParen)
		case ')':
			return s.make(RightParen)
		case '{':
			return s.make(LeftBrace)
		case '}':
			return s.make(RightBrace)
		case ',':
			return s.make(Comma)
		case '.':
			return s.make(Dot)
		case '-':
			return s.make(Minus)
		case '+':
			return s.make(Plus)
		case ';':
			return s.make(Semicolon)
		case '*':
			return s.make(Star)
		case '/':
			if s.match('/') {
				s.skipLine()
				continue
			}
			return s.make(Slash)
		case '!':
			return s.make(s.either('=', BangEqual, Bang))
		case '=':
			return s.make(s.either('=', EqualEqual, Equal))
		case '<':
			return s.make(s.either('=', LessEqual, Less))
		case '>':
			return s.make(s.either('=', GreaterEqual, Greater))
		case '"':
			return s.string()
		}
		if ch >= utf8.RuneSelf {
			_, size := utf8.DecodeRuneInString(s.src[s.start:])
			s.pos = s.start + size
		}
		return s.illegal("Unexpected character.")
	}
}

// Tokens returns a lazy sequence over the whole source, restarting from the
// first byte each time it is ranged over. The sequence ends after EOF.
func (s *Scanner) Tokens() iter.Seq[Token] {
	return func(yield func(Token) bool) {
		s.Reset()
		for {
			tok := s.Next()
			if !yield(tok) || tok.Kind == EOF {
				return
			}
		}
	}
}

// ScanAll scans src to completion and returns the tokens (EOF included) and
// any lexical errors.
func ScanAll(name, src string) ([]Token, diag.List) {
	s := New(name, src)
	var toks []Token
	for tok := range s.Tokens() {
		toks = append(toks, tok)
	}
	return toks, s.Errors()
}

// Position returns the source position of a byte offset.
func (s *Scanner) Position(offset int) token.Position {
	return s.file.Position(s.file.Pos(offset))
}

func (s *Scanner) atEnd() bool { return s.pos >= len(s.src) }

func (s *Scanner) advance() byte {
	ch := s.src[s.pos]
	s.pos++
	return ch
}

func (s *Scanner) peek() byte {
	if s.atEnd() {
		return 0
	}
	return s.src[s.pos]
}

func (s *Scanner) peekNext() byte {
	if s.pos+1 >= len(s.src) {
		return 0
	}
	return s.src[s.pos+1]
}

func (s *Scanner) match(want byte) bool {
	if s.atEnd() || s.src[s.pos] != want {
		return false
	}
	s.pos++
	return true
}

func (s *Scanner) either(next byte, two, one Kind) Kind {
	if s.match(next) {
		return two
	}
	return one
}

func (s *Scanner) skipSpace() {
	for !s.atEnd() {
		switch s.src[s.pos] {
		case ' ', '\r', '\t', '\n':
			s.pos++
		default:
			return
		}
	}
}

func (s *Scanner) skipLine() {
	for !s.atEnd() && s.peek() != '\n' {
		s.pos++
	}
}

func (s *Scanner) make(kind Kind) Token {
	return Token{Kind: kind, Lexeme: s.src[s.start:s.pos], Pos: s.Position(s.start)}
}

func (s *Scanner) illegal(msg string) Token {
	tok := s.make(Illegal)
	tok.Literal = msg
	s.errs.Add(diag.Lexical, tok.Pos, "", msg)
	return tok
}

func (s *Scanner) identifier() Token {
	for isAlpha(s.peek()) || isDigit(s.peek()) {
		s.pos++
	}
	return s.make(Lookup(s.src[s.start:s.pos]))
}

func (s *Scanner) number() Token {
	for isDigit(s.peek()) {
		s.pos++
	}
	// A trailing '.' without digits belongs to the next token.
	if s.peek() == '.' && isDigit(s.peekNext()) {
		s.pos++
		for isDigit(s.peek()) {
			s.pos++
		}
	}
	tok := s.make(Number)
	v, err := strconv.ParseFloat(tok.Lexeme, 64)
	if err != nil {
		return s.illegal("Invalid number literal.")
	}
	tok.Literal = v
	return tok
}

// string scans a single-line literal. The opening quote has been consumed.
func (s *Scanner) string() Token {
	for !s.atEnd() && s.peek() != '"' && s.peek() != '\n' {
		s.pos++
	}
	if s.atEnd() || s.peek() == '\n' {
		return s.illegal("Unterminated string.")
	}
	s.pos++
	tok := s.make(String)
	tok.Literal = s.src[s.start+1 : s.pos-1]
	return tok
}

func isDigit(ch byte) bool { return ch >= '0' && ch <= '9' }

func isAlpha(ch byte) bool {
	return ch >= 'a' && ch <= 'z' || ch >= 'A' && ch <= 'Z' || ch == '_'
}
