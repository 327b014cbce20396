package types

import (
	"fmt"

	"pyfer/pkg/ast"
)

// Type is one inferred runtime type identity. Key is the stable identity
// used for set membership; String is the human-readable form for tooling.
type Type interface {
	Key() string
	String() string
}

// Class is a class object (the class itself, not an instance of it).
// Builtin classes have no definition node.
type Class struct {
	Name    string
	Builtin bool
	Def     *ast.ClassDef // nil for builtins
	inst    *Instance
}

func NewClass(name string, def *ast.ClassDef) *Class {
	c := &Class{Name: name, Def: def, Builtin: def == nil}
	c.inst = &Instance{Of: c}
	return c
}

func (c *Class) Key() string {
	if c.Builtin {
		return "class:" + c.Name
	}
	return fmt.Sprintf("class:%s#%d", c.Name, c.Def.ID())
}

func (c *Class) String() string { return "type[" + c.Name + "]" }

// Instance returns the canonical instance-of-this-class identity.
func (c *Class) Instance() *Instance { return c.inst }

// Instance is an instance of a class.
type Instance struct {
	Of *Class
}

func (i *Instance) Key() string    { return "inst:" + i.Of.Key() }
func (i *Instance) String() string { return i.Of.Name }

// Function is the identity of one source function definition. There is one
// entry per definition; the classification flags are written only by the unit
// analyzing that exact definition (single writer, rewrites are idempotent).
type Function struct {
	Name          string
	Def           *ast.FunctionDef
	IsProperty    bool
	IsStatic      bool
	IsClassMethod bool
}

func NewFunction(def *ast.FunctionDef) *Function {
	return &Function{Name: def.Name, Def: def}
}

func (f *Function) Key() string    { return fmt.Sprintf("func:%s#%d", f.Name, f.Def.ID()) }
func (f *Function) String() string { return "def " + f.Name + "(...)" }

// Callable returns the function's own undecorated callable type as a
// one-element set.
func (f *Function) Callable() Set { return NewSet(f) }

// Generator is the generator-shaped identity denoted by an annotation such
// as Generator[yield, send, return]. The element sets are fixed at
// evaluation time; the live inferred sets live in unit-owned accumulators.
type Generator struct {
	Yield  Set
	Send   Set
	Return Set
}

func (g *Generator) Key() string {
	return fmt.Sprintf("gen:[%s|%s|%s]", g.Yield.key(), g.Send.key(), g.Return.key())
}

func (g *Generator) String() string { return "generator" }
