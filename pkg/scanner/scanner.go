package scanner

import (
	"fmt"
	"unicode"
	"unicode/utf8"

	"pyfer/pkg/token"
)

// Error is a positioned scan error.
type Error struct {
	Pos token.Position
	Msg string
}

func (e Error) Error() string { return fmt.Sprintf("%s: %s", e.Pos, e.Msg) }

type ErrorList []Error

func (l ErrorList) Error() string {
	switch len(l) {
	case 0:
		return "no errors"
	case 1:
		return l[0].Error()
	}
	return fmt.Sprintf("%s (and %d more errors)", l[0], len(l)-1)
}

func (l *ErrorList) add(pos token.Position, msg string) {
	*l = append(*l, Error{Pos: pos, Msg: msg})
}

// Token is one lexical token with its source span.
type Token struct {
	Kind token.Kind
	Lit  string
	Pos  token.Pos
	End  token.Pos
}

// Scanner tokenizes one source file of the analyzed dialect. Indentation is
// turned into INDENT/DEDENT tokens; both are suppressed inside brackets.
type Scanner struct {
	file    *token.File
	src     string
	offset  int
	ch      rune
	chLen   int
	indents []int
	pending []Token // queued INDENT/DEDENT
	nesting int     // bracket depth
	atLine  bool    // at the start of a logical line
	Errors  ErrorList
}

func New(file *token.File, src string) *Scanner {
	s := &Scanner{file: file, src: src, indents: []int{0}, atLine: true}
	s.next()
	return s
}

// Source returns the raw source being scanned. The parser uses it for
// single-byte lookahead.
func (s *Scanner) Source() string { return s.src }

func (s *Scanner) next() {
	if s.offset+s.chLen >= len(s.src) {
		s.offset = len(s.src)
		s.ch = -1
		s.chLen = 0
		return
	}
	s.offset += s.chLen
	r, w := utf8.DecodeRuneInString(s.src[s.offset:])
	if r == utf8.RuneError && w == 1 {
		s.error(s.offset, "invalid UTF-8 encoding")
	}
	if r == '\n' {
		s.file.AddLine(s.offset + 1)
	}
	s.ch, s.chLen = r, w
}

func (s *Scanner) error(offset int, msg string) {
	s.Errors.add(s.file.Position(s.file.Pos(offset)), msg)
}

func (s *Scanner) make(kind token.Kind, start int) Token {
	return Token{Kind: kind, Lit: s.src[start:s.offset], Pos: s.file.Pos(start), End: s.file.Pos(s.offset)}
}

// Scan returns the next token. At EOF it first drains open indent levels.
func (s *Scanner) Scan() Token {
	if len(s.pending) > 0 {
		tok := s.pending[0]
		s.pending = s.pending[1:]
		return tok
	}
	if s.atLine && s.nesting == 0 {
		if tok, ok := s.scanIndentation(); ok {
			return tok
		}
	}
	s.skipSpaces()
	start := s.offset
	switch ch := s.ch; {
	case ch == -1:
		for len(s.indents) > 1 {
			s.indents = s.indents[:len(s.indents)-1]
			s.pending = append(s.pending, s.make(token.DEDENT, start))
		}
		s.pending = append(s.pending, s.make(token.EOF, start))
		tok := s.pending[0]
		s.pending = s.pending[1:]
		return tok
	case ch == '\n':
		s.next()
		s.atLine = true
		if s.nesting > 0 {
			return s.Scan()
		}
		return s.make(token.NEWLINE, start)
	case ch == '#':
		for s.ch != '\n' && s.ch != -1 {
			s.next()
		}
		return s.Scan()
	case isNameStart(ch):
		for isNamePart(s.ch) {
			s.next()
		}
		tok := s.make(token.NAME, start)
		tok.Kind = token.Lookup(tok.Lit)
		return tok
	case unicode.IsDigit(ch):
		for unicode.IsDigit(s.ch) || s.ch == '.' || s.ch == '_' {
			s.next()
		}
		return s.make(token.NUMBER, start)
	case ch == '"' || ch == '\'':
		return s.scanString(start, ch)
	default:
		return s.scanOperator(start)
	}
}

func (s *Scanner) scanIndentation() (Token, bool) {
	s.atLine = false
	start := s.offset
	level := 0
	for {
		switch s.ch {
		case ' ':
			level++
			s.next()
			continue
		case '\t':
			level += 8 - level%8
			s.next()
			continue
		}
		break
	}
	// Blank lines and comment-only lines carry no indentation meaning.
	if s.ch == '\n' || s.ch == '#' || s.ch == -1 {
		return Token{}, false
	}
	cur := s.indents[len(s.indents)-1]
	if level > cur {
		s.indents = append(s.indents, level)
		return s.make(token.INDENT, start), true
	}
	for level < s.indents[len(s.indents)-1] {
		s.indents = s.indents[:len(s.indents)-1]
		s.pending = append(s.pending, s.make(token.DEDENT, start))
	}
	if level != s.indents[len(s.indents)-1] {
		s.error(start, "unindent does not match any outer indentation level")
	}
	if len(s.pending) > 0 {
		tok := s.pending[0]
		s.pending = s.pending[1:]
		return tok, true
	}
	return Token{}, false
}

func (s *Scanner) skipSpaces() {
	for s.ch == ' ' || s.ch == '\t' || s.ch == '\r' {
		s.next()
	}
}

func (s *Scanner) scanString(start int, quote rune) Token {
	s.next()
	for s.ch != quote {
		if s.ch == '\n' || s.ch == -1 {
			s.error(start, "string literal not terminated")
			break
		}
		if s.ch == '\\' {
			s.next()
		}
		s.next()
	}
	if s.ch == quote {
		s.next()
	}
	return s.make(token.STRING, start)
}

func (s *Scanner) scanOperator(start int) Token {
	ch := s.ch
	s.next()
	kind := token.ILLEGAL
	switch ch {
	case '(':
		kind, s.nesting = token.LPAREN, s.nesting+1
	case ')':
		kind, s.nesting = token.RPAREN, max(0, s.nesting-1)
	case '[':
		kind, s.nesting = token.LBRACK, s.nesting+1
	case ']':
		kind, s.nesting = token.RBRACK, max(0, s.nesting-1)
	case '{':
		kind, s.nesting = token.LBRACE, s.nesting+1
	case '}':
		kind, s.nesting = token.RBRACE, max(0, s.nesting-1)
	case ',':
		kind = token.COMMA
	case ':':
		kind = token.COLON
	case '.':
		kind = token.DOT
	case '@':
		kind = token.AT
	case '+':
		kind = token.ADD
	case '/':
		kind = token.QUO
	case '%':
		kind = token.REM
	case '*':
		kind = token.STAR
		if s.ch == '*' {
			s.next()
			kind = token.DBLSTAR
		}
	case '-':
		kind = token.SUB
		if s.ch == '>' {
			s.next()
			kind = token.ARROW
		}
	case '=':
		kind = token.ASSIGN
		if s.ch == '=' {
			s.next()
			kind = token.EQL
		}
	case '!':
		if s.ch == '=' {
			s.next()
			kind = token.NEQ
		} else {
			s.error(start, "unexpected character '!'")
		}
	case '<':
		kind = token.LSS
		if s.ch == '=' {
			s.next()
			kind = token.LEQ
		}
	case '>':
		kind = token.GTR
		if s.ch == '=' {
			s.next()
			kind = token.GEQ
		}
	default:
		s.error(start, fmt.Sprintf("unexpected character %q", ch))
	}
	return s.make(kind, start)
}

func isNameStart(ch rune) bool {
	return ch == '_' || unicode.IsLetter(ch)
}

func isNamePart(ch rune) bool {
	return isNameStart(ch) || unicode.IsDigit(ch)
}
