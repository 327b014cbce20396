package scanner

import (
	"testing"

	tassert "github.com/stretchr/testify/assert"

	"pyfer/pkg/token"
)

func scanKinds(src string) []token.Kind {
	fset := token.NewFileSet()
	s := New(fset.AddFile("main.py", len(src)), src)
	var kinds []token.Kind
	for {
		tok := s.Scan()
		kinds = append(kinds, tok.Kind)
		if tok.Kind == token.EOF {
			return kinds
		}
	}
}

func TestScanFunctionDef(t *testing.T) {
	src := "def f(x):\n    return x\n"
	tassert.Equal(t, []token.Kind{
		token.DEF, token.NAME, token.LPAREN, token.NAME, token.RPAREN, token.COLON, token.NEWLINE,
		token.INDENT, token.RETURN, token.NAME, token.NEWLINE,
		token.DEDENT, token.EOF,
	}, scanKinds(src))
}

func TestNestedIndentationDrainsAtEOF(t *testing.T) {
	src := "if x:\n    if y:\n        pass"
	kinds := scanKinds(src)
	dedents := 0
	for _, k := range kinds {
		if k == token.DEDENT {
			dedents++
		}
	}
	tassert.Equal(t, 2, dedents)
	tassert.Equal(t, token.EOF, kinds[len(kinds)-1])
}

func TestBracketsSuppressNewlines(t *testing.T) {
	src := "f(1,\n  2)\n"
	kinds := scanKinds(src)
	tassert.Equal(t, []token.Kind{
		token.NAME, token.LPAREN, token.NUMBER, token.COMMA, token.NUMBER, token.RPAREN,
		token.NEWLINE, token.EOF,
	}, kinds)
}

func TestCommentsCarryNoTokens(t *testing.T) {
	src := "# header\n\nx = 1  # trailing\n"
	tassert.Equal(t, []token.Kind{
		token.NEWLINE, token.NEWLINE,
		token.NAME, token.ASSIGN, token.NUMBER, token.NEWLINE, token.EOF,
	}, scanKinds(src))
}

func TestOperatorScanning(t *testing.T) {
	src := "a == b != c <= d >= e -> f ** g\n"
	tassert.Equal(t, []token.Kind{
		token.NAME, token.EQL, token.NAME, token.NEQ, token.NAME, token.LEQ, token.NAME,
		token.GEQ, token.NAME, token.ARROW, token.NAME, token.DBLSTAR, token.NAME,
		token.NEWLINE, token.EOF,
	}, scanKinds(src))
}

func TestUnterminatedStringProducesError(t *testing.T) {
	src := "x = \"abc\n"
	fset := token.NewFileSet()
	s := New(fset.AddFile("main.py", len(src)), src)
	for s.Scan().Kind != token.EOF {
	}
	tassert.NotEmpty(t, s.Errors)
}

func TestInconsistentDedentProducesError(t *testing.T) {
	src := "if x:\n        pass\n    pass\n"
	fset := token.NewFileSet()
	s := New(fset.AddFile("main.py", len(src)), src)
	for s.Scan().Kind != token.EOF {
	}
	tassert.NotEmpty(t, s.Errors)
}

func TestPositionsRoundTrip(t *testing.T) {
	src := "x = 1\ny = 2\n"
	fset := token.NewFileSet()
	file := fset.AddFile("main.py", len(src))
	s := New(file, src)
	var toks []Token
	for {
		tok := s.Scan()
		if tok.Kind == token.EOF {
			break
		}
		toks = append(toks, tok)
	}
	y := toks[4]
	tassert.Equal(t, "y", y.Lit)
	pos := file.Position(y.Pos)
	tassert.Equal(t, 2, pos.Line)
	tassert.Equal(t, 1, pos.Column)
}
