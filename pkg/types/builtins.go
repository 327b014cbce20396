package types

// Builtins holds the canonical identities the engine tests against:
// the decorator marker classes, `type`, and the primitive value classes.
type Builtins struct {
	Property     *Class
	StaticMethod *Class
	ClassMethod  *Class
	Type         *Class
	Object       *Class
	Int          *Class
	Float        *Class
	Str          *Class
	Bool         *Class
	NoneType     *Class
	List         *Class
	Tuple        *Class
	GeneratorCls *Class

	byName map[string]*Class
}

func NewBuiltins() *Builtins {
	b := &Builtins{
		Property:     NewClass("property", nil),
		StaticMethod: NewClass("staticmethod", nil),
		ClassMethod:  NewClass("classmethod", nil),
		Type:         NewClass("type", nil),
		Object:       NewClass("object", nil),
		Int:          NewClass("int", nil),
		Float:        NewClass("float", nil),
		Str:          NewClass("str", nil),
		Bool:         NewClass("bool", nil),
		NoneType:     NewClass("NoneType", nil),
		List:         NewClass("list", nil),
		Tuple:        NewClass("tuple", nil),
		GeneratorCls: NewClass("Generator", nil),
	}
	b.byName = map[string]*Class{
		"property":     b.Property,
		"staticmethod": b.StaticMethod,
		"classmethod":  b.ClassMethod,
		"type":         b.Type,
		"object":       b.Object,
		"int":          b.Int,
		"float":        b.Float,
		"str":          b.Str,
		"bool":         b.Bool,
		"NoneType":     b.NoneType,
		"list":         b.List,
		"tuple":        b.Tuple,
		"Generator":    b.GeneratorCls,
		"generator":    b.GeneratorCls,
	}
	return b
}

// Lookup resolves a builtin class by name, or nil.
func (b *Builtins) Lookup(name string) *Class {
	return b.byName[name]
}

// None is the canonical None value identity.
func (b *Builtins) None() *Instance { return b.NoneType.Instance() }
