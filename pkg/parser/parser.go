package parser

import (
	"fmt"
	"strings"

	"pyfer/pkg/ast"
	"pyfer/pkg/scanner"
	"pyfer/pkg/token"
)

// Parser builds a best-effort syntax tree: a malformed statement produces an
// error and is skipped, the rest of the module still parses.
type Parser struct {
	file    *token.File
	scan    *scanner.Scanner
	tok     scanner.Token
	alloc   *ast.IDAllocator
	yielded []bool // one frame per enclosing def
	errors  scanner.ErrorList
}

// ParseModule parses src and returns the module, the node-id allocator (the
// analysis draws synthesized node ids from it), and the accumulated errors.
func ParseModule(fset *token.FileSet, filename, src string) (*ast.Module, *ast.IDAllocator, error) {
	file := fset.AddFile(filename, len(src))
	p := &Parser{
		file:  file,
		scan:  scanner.New(file, src),
		alloc: &ast.IDAllocator{},
	}
	p.next()
	mod := p.parseModule(filename)
	p.errors = append(p.errors, p.scan.Errors...)
	if len(p.errors) > 0 {
		return mod, p.alloc, p.errors
	}
	return mod, p.alloc, nil
}

func (p *Parser) next() {
	p.tok = p.scan.Scan()
}

func (p *Parser) errorf(pos token.Pos, format string, args ...any) {
	p.errors = append(p.errors, scanner.Error{
		Pos: p.file.Position(pos),
		Msg: fmt.Sprintf(format, args...),
	})
}

func (p *Parser) expect(kind token.Kind) scanner.Token {
	tok := p.tok
	if tok.Kind != kind {
		p.errorf(tok.Pos, "expected %q, found %q", kind.String(), tok.Lit)
	} else {
		p.next()
	}
	return tok
}

func (p *Parser) accept(kind token.Kind) bool {
	if p.tok.Kind == kind {
		p.next()
		return true
	}
	return false
}

func (p *Parser) base(pos, end token.Pos) ast.NodeBase {
	return ast.NewBase(pos, end, p.alloc.Next())
}

// skipLine consumes tokens to the end of the current logical line so that a
// malformed statement does not poison the rest of the module.
func (p *Parser) skipLine() {
	for p.tok.Kind != token.NEWLINE && p.tok.Kind != token.EOF && p.tok.Kind != token.DEDENT {
		p.next()
	}
	p.accept(token.NEWLINE)
}

func (p *Parser) parseModule(name string) *ast.Module {
	start := p.tok.Pos
	var body []ast.Stmt
	for p.tok.Kind != token.EOF {
		if s := p.parseStmt(); s != nil {
			body = append(body, s)
		}
	}
	mod := &ast.Module{NodeBase: p.base(start, p.tok.End), Name: strings.TrimSuffix(name, ".py"), Body: body}
	return mod
}

func (p *Parser) parseStmt() ast.Stmt {
	switch p.tok.Kind {
	case token.NEWLINE:
		p.next()
		return nil
	case token.AT:
		return p.parseDecorated()
	case token.DEF:
		return p.parseFunctionDef(nil)
	case token.CLASS:
		return p.parseClassDef()
	case token.IF:
		return p.parseIf()
	case token.WHILE:
		return p.parseWhile()
	case token.INDENT, token.DEDENT:
		p.errorf(p.tok.Pos, "unexpected indentation")
		p.next()
		return nil
	default:
		return p.parseSimpleStmt()
	}
}

func (p *Parser) parseDecorated() ast.Stmt {
	var decorators []ast.Expr
	for p.tok.Kind == token.AT {
		p.next()
		// a malformed decorator expression is reported and dropped
		if d := p.parseExpr(); d != nil {
			decorators = append(decorators, d)
		}
		p.accept(token.NEWLINE)
	}
	switch p.tok.Kind {
	case token.DEF:
		return p.parseFunctionDef(decorators)
	default:
		p.errorf(p.tok.Pos, "expected function definition after decorators")
		p.skipLine()
		return nil
	}
}

func (p *Parser) parseFunctionDef(decorators []ast.Expr) ast.Stmt {
	start := p.expect(token.DEF).Pos
	name := p.expect(token.NAME)
	p.expect(token.LPAREN)
	args := p.parseParams()
	p.expect(token.RPAREN)
	var returns ast.Expr
	if p.accept(token.ARROW) {
		returns = p.parseExpr()
	}
	p.expect(token.COLON)
	p.yielded = append(p.yielded, false)
	body := p.parseSuite()
	isGen := p.yielded[len(p.yielded)-1]
	p.yielded = p.yielded[:len(p.yielded)-1]
	end := start
	if len(body) > 0 {
		end = body[len(body)-1].End()
	}
	return &ast.FunctionDef{
		NodeBase:      p.base(start, end),
		Name:          name.Lit,
		NamePos:       name.Pos,
		Args:          args,
		Body:          body,
		DecoratorList: decorators,
		Returns:       returns,
		IsGenerator:   isGen,
	}
}

func (p *Parser) parseParams() []*ast.Arg {
	var args []*ast.Arg
	for p.tok.Kind != token.RPAREN && p.tok.Kind != token.EOF {
		kind := ast.ArgPositional
		start := p.tok.Pos
		if p.accept(token.STAR) {
			kind = ast.ArgVararg
		} else if p.accept(token.DBLSTAR) {
			kind = ast.ArgKwarg
		}
		name := p.expect(token.NAME)
		arg := &ast.Arg{NodeBase: p.base(start, name.End), Name: name.Lit, Kind: kind}
		if p.accept(token.COLON) {
			arg.Annotation = p.parseExpr()
		}
		if p.accept(token.ASSIGN) {
			arg.Default = p.parseExpr()
		}
		args = append(args, arg)
		if !p.accept(token.COMMA) {
			break
		}
	}
	return args
}

func (p *Parser) parseClassDef() ast.Stmt {
	start := p.expect(token.CLASS).Pos
	name := p.expect(token.NAME)
	var bases []ast.Expr
	if p.accept(token.LPAREN) {
		for p.tok.Kind != token.RPAREN && p.tok.Kind != token.EOF {
			bases = append(bases, p.parseExpr())
			if !p.accept(token.COMMA) {
				break
			}
		}
		p.expect(token.RPAREN)
	}
	p.expect(token.COLON)
	body := p.parseSuite()
	end := start
	if len(body) > 0 {
		end = body[len(body)-1].End()
	}
	return &ast.ClassDef{NodeBase: p.base(start, end), Name: name.Lit, NamePos: name.Pos, Bases: bases, Body: body}
}

func (p *Parser) parseIf() ast.Stmt {
	// an elif clause re-enters here with ELIF as the introducer
	start := p.tok.Pos
	if !p.accept(token.ELIF) {
		p.expect(token.IF)
	}
	cond := p.parseExpr()
	p.expect(token.COLON)
	body := p.parseSuite()
	var els []ast.Stmt
	switch p.tok.Kind {
	case token.ELIF:
		els = []ast.Stmt{p.parseIf()}
	case token.ELSE:
		p.next()
		p.expect(token.COLON)
		els = p.parseSuite()
	}
	end := start
	if len(body) > 0 {
		end = body[len(body)-1].End()
	}
	return &ast.If{NodeBase: p.base(start, end), Cond: cond, Body: body, Else: els}
}

func (p *Parser) parseWhile() ast.Stmt {
	start := p.expect(token.WHILE).Pos
	cond := p.parseExpr()
	p.expect(token.COLON)
	body := p.parseSuite()
	end := start
	if len(body) > 0 {
		end = body[len(body)-1].End()
	}
	return &ast.While{NodeBase: p.base(start, end), Cond: cond, Body: body}
}

func (p *Parser) parseSuite() []ast.Stmt {
	if !p.accept(token.NEWLINE) {
		// Single-line suite: "def f(): return x"
		s := p.parseSimpleStmt()
		if s != nil {
			return []ast.Stmt{s}
		}
		return nil
	}
	if !p.accept(token.INDENT) {
		p.errorf(p.tok.Pos, "expected an indented block")
		return nil
	}
	var body []ast.Stmt
	for p.tok.Kind != token.DEDENT && p.tok.Kind != token.EOF {
		if s := p.parseStmt(); s != nil {
			body = append(body, s)
		}
	}
	p.accept(token.DEDENT)
	return body
}

func (p *Parser) parseSimpleStmt() ast.Stmt {
	start := p.tok.Pos
	switch p.tok.Kind {
	case token.PASS:
		p.next()
		s := &ast.Pass{NodeBase: p.base(start, start+4)}
		p.accept(token.NEWLINE)
		return s
	case token.GLOBAL, token.NONLOCAL:
		// Scope directives carry no type information for this engine.
		p.skipLine()
		return nil
	case token.RETURN:
		p.next()
		var val ast.Expr
		end := start
		if p.tok.Kind != token.NEWLINE && p.tok.Kind != token.EOF && p.tok.Kind != token.DEDENT {
			val = p.parseExpr()
			end = val.End()
		}
		p.accept(token.NEWLINE)
		return &ast.Return{NodeBase: p.base(start, end), Value: val}
	case token.YIELD:
		p.next()
		if len(p.yielded) > 0 {
			p.yielded[len(p.yielded)-1] = true
		} else {
			p.errorf(start, "yield outside function")
		}
		var val ast.Expr
		end := start
		if p.tok.Kind != token.NEWLINE && p.tok.Kind != token.EOF && p.tok.Kind != token.DEDENT {
			val = p.parseExpr()
			end = val.End()
		}
		p.accept(token.NEWLINE)
		return &ast.Yield{NodeBase: p.base(start, end), Value: val}
	default:
		lhs := p.parseExpr()
		if lhs == nil {
			p.skipLine()
			return nil
		}
		if p.accept(token.ASSIGN) {
			rhs := p.parseExpr()
			if rhs == nil {
				p.skipLine()
				return nil
			}
			p.accept(token.NEWLINE)
			switch lhs.(type) {
			case *ast.Name, *ast.Attribute:
			default:
				p.errorf(lhs.Pos(), "cannot assign to this expression")
			}
			return &ast.Assign{NodeBase: p.base(start, rhs.End()), Target: lhs, Value: rhs}
		}
		p.accept(token.NEWLINE)
		return &ast.ExprStmt{NodeBase: p.base(start, lhs.End()), X: lhs}
	}
}
