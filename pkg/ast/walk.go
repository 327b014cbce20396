package ast

// Inspect traverses the tree in depth-first order, calling f for each node.
// If f returns false for a node, its children are skipped. f is also called
// with nil after a node's children have been visited.
func Inspect(node Node, f func(Node) bool) {
	if node == nil {
		return
	}
	if !f(node) {
		return
	}
	switch n := node.(type) {
	case *Module:
		inspectStmts(n.Body, f)
	case *FunctionDef:
		for _, d := range n.DecoratorList {
			Inspect(d, f)
		}
		for _, a := range n.Args {
			Inspect(a, f)
		}
		if n.Returns != nil {
			Inspect(n.Returns, f)
		}
		inspectStmts(n.Body, f)
	case *Arg:
		if n.Annotation != nil {
			Inspect(n.Annotation, f)
		}
		if n.Default != nil {
			Inspect(n.Default, f)
		}
	case *ClassDef:
		for _, b := range n.Bases {
			Inspect(b, f)
		}
		inspectStmts(n.Body, f)
	case *Assign:
		Inspect(n.Target, f)
		Inspect(n.Value, f)
	case *Return:
		if n.Value != nil {
			Inspect(n.Value, f)
		}
	case *Yield:
		if n.Value != nil {
			Inspect(n.Value, f)
		}
	case *ExprStmt:
		Inspect(n.X, f)
	case *If:
		Inspect(n.Cond, f)
		inspectStmts(n.Body, f)
		inspectStmts(n.Else, f)
	case *While:
		Inspect(n.Cond, f)
		inspectStmts(n.Body, f)
	case *Pass:
	case *Name, *Constant:
	case *Attribute:
		Inspect(n.Value, f)
	case *Call:
		Inspect(n.Fun, f)
		for _, a := range n.Args {
			Inspect(a, f)
		}
		for _, k := range n.Keywords {
			Inspect(k.Value, f)
		}
	case *BinOp:
		Inspect(n.X, f)
		Inspect(n.Y, f)
	case *Compare:
		Inspect(n.X, f)
		Inspect(n.Y, f)
	case *UnaryOp:
		Inspect(n.X, f)
	case *Subscript:
		Inspect(n.Value, f)
		for _, e := range n.Indices {
			Inspect(e, f)
		}
	case *List:
		for _, e := range n.Elts {
			Inspect(e, f)
		}
	case *Tuple:
		for _, e := range n.Elts {
			Inspect(e, f)
		}
	}
	f(nil)
}

func inspectStmts(stmts []Stmt, f func(Node) bool) {
	for _, s := range stmts {
		Inspect(s, f)
	}
}
