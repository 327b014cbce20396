package ast

import "pyfer/pkg/token"

// NodeID is a stable identity assigned when a node is allocated. Analysis
// state (decorator memoization, unit tables) keys off it, never off the
// in-memory pointer.
type NodeID int

const NoID NodeID = 0

// IDAllocator hands out NodeIDs. The parser owns one per module; the analysis
// draws synthesized nodes (decorator call expressions) from the same counter.
type IDAllocator struct {
	next NodeID
}

func (a *IDAllocator) Next() NodeID {
	a.next++
	return a.next
}

type Node interface {
	Pos() token.Pos
	End() token.Pos
	ID() NodeID
}

type Expr interface {
	Node
	exprNode()
}

type Stmt interface {
	Node
	stmtNode()
}

type NodeBase struct {
	PosPos token.Pos
	EndPos token.Pos
	NodeID NodeID
}

func (b NodeBase) Pos() token.Pos { return b.PosPos }
func (b NodeBase) End() token.Pos { return b.EndPos }
func (b NodeBase) ID() NodeID     { return b.NodeID }

// NewBase is used by the parser and by the analysis for synthesized nodes.
func NewBase(pos, end token.Pos, id NodeID) NodeBase {
	return NodeBase{PosPos: pos, EndPos: end, NodeID: id}
}

// ---- Expressions ----

type Name struct {
	NodeBase
	Ident string
}

type Attribute struct {
	NodeBase
	Value Expr
	Attr  string
}

type Keyword struct {
	Name  string
	Value Expr
}

type Call struct {
	NodeBase
	Fun      Expr
	Args     []Expr
	Keywords []Keyword
}

type ConstKind int

const (
	ConstInt ConstKind = iota
	ConstFloat
	ConstStr
	ConstBool
	ConstNone
)

type Constant struct {
	NodeBase
	Kind ConstKind
	Lit  string
}

type BinOp struct {
	NodeBase
	X  Expr
	Op token.Kind
	Y  Expr
}

type Compare struct {
	NodeBase
	X  Expr
	Op token.Kind
	Y  Expr
}

type UnaryOp struct {
	NodeBase
	Op token.Kind
	X  Expr
}

type Subscript struct {
	NodeBase
	Value   Expr
	Indices []Expr
}

type List struct {
	NodeBase
	Elts []Expr
}

type Tuple struct {
	NodeBase
	Elts []Expr
}

func (*Name) exprNode()      {}
func (*Attribute) exprNode() {}
func (*Call) exprNode()      {}
func (*Constant) exprNode()  {}
func (*BinOp) exprNode()     {}
func (*Compare) exprNode()   {}
func (*UnaryOp) exprNode()   {}
func (*Subscript) exprNode() {}
func (*List) exprNode()      {}
func (*Tuple) exprNode()     {}

// ---- Statements ----

type Module struct {
	NodeBase
	Name string
	Body []Stmt
}

// ArgKind distinguishes plain parameters from the variadic and keyword
// collectors; collectors never receive default-value seeding.
type ArgKind int

const (
	ArgPositional ArgKind = iota
	ArgVararg
	ArgKwarg
)

type Arg struct {
	NodeBase
	Name       string
	Kind       ArgKind
	Annotation Expr // nil if absent
	Default    Expr // nil if absent
}

type FunctionDef struct {
	NodeBase
	Name          string
	NamePos       token.Pos
	Args          []*Arg
	Body          []Stmt
	DecoratorList []Expr
	Returns       Expr // return annotation, nil if absent
	IsGenerator   bool // body contains a yield
}

type ClassDef struct {
	NodeBase
	Name    string
	NamePos token.Pos
	Bases   []Expr
	Body    []Stmt
}

type Assign struct {
	NodeBase
	Target Expr // Name or Attribute
	Value  Expr
}

type Return struct {
	NodeBase
	Value Expr // nil for bare return
}

type Yield struct {
	NodeBase
	Value Expr // nil for bare yield
}

type ExprStmt struct {
	NodeBase
	X Expr
}

type If struct {
	NodeBase
	Cond Expr
	Body []Stmt
	Else []Stmt
}

type While struct {
	NodeBase
	Cond Expr
	Body []Stmt
}

type Pass struct {
	NodeBase
}

func (*Module) stmtNode()      {}
func (*FunctionDef) stmtNode() {}
func (*ClassDef) stmtNode()    {}
func (*Assign) stmtNode()      {}
func (*Return) stmtNode()      {}
func (*Yield) stmtNode()       {}
func (*ExprStmt) stmtNode()    {}
func (*If) stmtNode()          {}
func (*While) stmtNode()       {}
func (*Pass) stmtNode()        {}
func (*Arg) stmtNode()         {}
