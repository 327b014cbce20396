package parser

import (
	"pyfer/pkg/ast"
	"pyfer/pkg/token"
)

func (p *Parser) parseExpr() ast.Expr {
	return p.parseOr()
}

func (p *Parser) parseOr() ast.Expr {
	x := p.parseAnd()
	for x != nil && p.tok.Kind == token.OR {
		op := p.tok.Kind
		p.next()
		y := p.parseAnd()
		if y == nil {
			return x
		}
		x = &ast.BinOp{NodeBase: p.base(x.Pos(), y.End()), X: x, Op: op, Y: y}
	}
	return x
}

func (p *Parser) parseAnd() ast.Expr {
	x := p.parseNot()
	for x != nil && p.tok.Kind == token.AND {
		op := p.tok.Kind
		p.next()
		y := p.parseNot()
		if y == nil {
			return x
		}
		x = &ast.BinOp{NodeBase: p.base(x.Pos(), y.End()), X: x, Op: op, Y: y}
	}
	return x
}

func (p *Parser) parseNot() ast.Expr {
	if p.tok.Kind == token.NOT {
		start := p.tok.Pos
		p.next()
		x := p.parseNot()
		if x == nil {
			return nil
		}
		return &ast.UnaryOp{NodeBase: p.base(start, x.End()), Op: token.NOT, X: x}
	}
	return p.parseComparison()
}

func (p *Parser) parseComparison() ast.Expr {
	x := p.parseAdditive()
	for x != nil && isCompareOp(p.tok.Kind) {
		op := p.tok.Kind
		p.next()
		y := p.parseAdditive()
		if y == nil {
			return x
		}
		x = &ast.Compare{NodeBase: p.base(x.Pos(), y.End()), X: x, Op: op, Y: y}
	}
	return x
}

func isCompareOp(k token.Kind) bool {
	switch k {
	case token.EQL, token.NEQ, token.LSS, token.GTR, token.LEQ, token.GEQ:
		return true
	}
	return false
}

func (p *Parser) parseAdditive() ast.Expr {
	x := p.parseTerm()
	for x != nil && (p.tok.Kind == token.ADD || p.tok.Kind == token.SUB) {
		op := p.tok.Kind
		p.next()
		y := p.parseTerm()
		if y == nil {
			return x
		}
		x = &ast.BinOp{NodeBase: p.base(x.Pos(), y.End()), X: x, Op: op, Y: y}
	}
	return x
}

func (p *Parser) parseTerm() ast.Expr {
	x := p.parseUnary()
	for x != nil && (p.tok.Kind == token.STAR || p.tok.Kind == token.QUO || p.tok.Kind == token.REM) {
		op := p.tok.Kind
		p.next()
		y := p.parseUnary()
		if y == nil {
			return x
		}
		x = &ast.BinOp{NodeBase: p.base(x.Pos(), y.End()), X: x, Op: op, Y: y}
	}
	return x
}

func (p *Parser) parseUnary() ast.Expr {
	if p.tok.Kind == token.SUB || p.tok.Kind == token.ADD {
		start := p.tok.Pos
		op := p.tok.Kind
		p.next()
		x := p.parseUnary()
		if x == nil {
			return nil
		}
		return &ast.UnaryOp{NodeBase: p.base(start, x.End()), Op: op, X: x}
	}
	return p.parsePostfix()
}

func (p *Parser) parsePostfix() ast.Expr {
	x := p.parseAtom()
	if x == nil {
		return nil
	}
	for {
		switch p.tok.Kind {
		case token.DOT:
			p.next()
			attr := p.expect(token.NAME)
			x = &ast.Attribute{NodeBase: p.base(x.Pos(), attr.End), Value: x, Attr: attr.Lit}
		case token.LPAREN:
			p.next()
			var args []ast.Expr
			var keywords []ast.Keyword
			for p.tok.Kind != token.RPAREN && p.tok.Kind != token.EOF {
				if p.tok.Kind == token.NAME && p.peekIsKeywordArg() {
					name := p.expect(token.NAME)
					p.expect(token.ASSIGN)
					keywords = append(keywords, ast.Keyword{Name: name.Lit, Value: p.parseExpr()})
				} else {
					args = append(args, p.parseExpr())
				}
				if !p.accept(token.COMMA) {
					break
				}
			}
			end := p.expect(token.RPAREN).End
			x = &ast.Call{NodeBase: p.base(x.Pos(), end), Fun: x, Args: args, Keywords: keywords}
		case token.LBRACK:
			p.next()
			var indices []ast.Expr
			for p.tok.Kind != token.RBRACK && p.tok.Kind != token.EOF {
				indices = append(indices, p.parseExpr())
				if !p.accept(token.COMMA) {
					break
				}
			}
			end := p.expect(token.RBRACK).End
			x = &ast.Subscript{NodeBase: p.base(x.Pos(), end), Value: x, Indices: indices}
		default:
			return x
		}
	}
}

// peekIsKeywordArg reports whether the NAME under the cursor starts a
// "name=value" keyword argument. The scanner is not rewindable, so this
// re-scans from the token's end offset.
func (p *Parser) peekIsKeywordArg() bool {
	off := p.file.Offset(p.tok.End)
	return p.nextNonSpaceByte(off) == '='
}

func (p *Parser) nextNonSpaceByte(off int) byte {
	src := p.scan.Source()
	for off < len(src) {
		c := src[off]
		if c != ' ' && c != '\t' {
			if c == '=' && off+1 < len(src) && src[off+1] == '=' {
				return 0
			}
			return c
		}
		off++
	}
	return 0
}

func (p *Parser) parseAtom() ast.Expr {
	tok := p.tok
	switch tok.Kind {
	case token.NAME:
		p.next()
		return &ast.Name{NodeBase: p.base(tok.Pos, tok.End), Ident: tok.Lit}
	case token.NUMBER:
		p.next()
		kind := ast.ConstInt
		for _, c := range tok.Lit {
			if c == '.' {
				kind = ast.ConstFloat
				break
			}
		}
		return &ast.Constant{NodeBase: p.base(tok.Pos, tok.End), Kind: kind, Lit: tok.Lit}
	case token.STRING:
		p.next()
		return &ast.Constant{NodeBase: p.base(tok.Pos, tok.End), Kind: ast.ConstStr, Lit: tok.Lit}
	case token.TRUE, token.FALSE:
		p.next()
		return &ast.Constant{NodeBase: p.base(tok.Pos, tok.End), Kind: ast.ConstBool, Lit: tok.Lit}
	case token.NONE:
		p.next()
		return &ast.Constant{NodeBase: p.base(tok.Pos, tok.End), Kind: ast.ConstNone, Lit: tok.Lit}
	case token.LPAREN:
		p.next()
		var elts []ast.Expr
		for p.tok.Kind != token.RPAREN && p.tok.Kind != token.EOF {
			elts = append(elts, p.parseExpr())
			if !p.accept(token.COMMA) {
				break
			}
		}
		end := p.expect(token.RPAREN).End
		if len(elts) == 1 {
			return elts[0]
		}
		return &ast.Tuple{NodeBase: p.base(tok.Pos, end), Elts: elts}
	case token.LBRACK:
		p.next()
		var elts []ast.Expr
		for p.tok.Kind != token.RBRACK && p.tok.Kind != token.EOF {
			elts = append(elts, p.parseExpr())
			if !p.accept(token.COMMA) {
				break
			}
		}
		end := p.expect(token.RBRACK).End
		return &ast.List{NodeBase: p.base(tok.Pos, end), Elts: elts}
	default:
		p.errorf(tok.Pos, "unexpected token %q", tok.Lit)
		p.next()
		return nil
	}
}
