package pyfer

import (
	"context"
	"testing"

	tassert "github.com/stretchr/testify/assert"

	"pyfer/pkg/types"
)

type Test struct {
	state *State
	errs  []AnalysisError
}

func NewTest(src string) *Test {
	return NewTestWith(Config{}, src)
}

func NewTestWith(cfg Config, src string) *Test {
	st := NewState(cfg, WithReporter(NopReporter{}))
	errs := st.Check(context.Background(), "main.py", src)
	return &Test{state: st, errs: errs}
}

func (t *Test) TypeAt(row, col int) string {
	return t.state.TypeAt(row, col).String()
}

// VarTypes renders the set accumulated for name inside the named function.
func (t *Test) VarTypes(unit, name string) string {
	u := t.state.UnitByName(unit)
	if u == nil {
		return "<no unit>"
	}
	acc, ok := u.Scope().Lookup(name)
	if !ok {
		return "<unbound>"
	}
	return acc.Types().String()
}

// ModuleTypes renders the set bound to a module-level name.
func (t *Test) ModuleTypes(name string) string {
	acc, ok := t.state.ModuleScope().TryGet(name)
	if !ok {
		return "<unbound>"
	}
	return acc.Types().String()
}

func TestModuleAssignment(t *testing.T) {
	src := `x = 1
y = "a"
z = x
`
	tt := NewTest(src)
	tassert.Empty(t, tt.errs)
	tassert.Equal(t, "int", tt.ModuleTypes("x"))
	tassert.Equal(t, "str", tt.ModuleTypes("y"))
	tassert.Equal(t, "int", tt.ModuleTypes("z"))
	tassert.Equal(t, "int", tt.TypeAt(1, 1))
}

func TestParameterTypesFlowFromCallSites(t *testing.T) {
	src := `def f(x):
    return x

a = f(1)
b = f("s")
`
	tt := NewTest(src)
	tassert.Equal(t, "int | str", tt.VarTypes("f", "x"))
	tassert.Equal(t, "int | str", tt.state.UnitByName("f").ReturnValue().Types().String())
	tassert.Equal(t, "int | str", tt.ModuleTypes("a"))
}

func TestForwardReferenceReachesFixpoint(t *testing.T) {
	src := `def f():
    return g()

def g():
    return 1
`
	tt := NewTest(src)
	tassert.Equal(t, "int", tt.state.UnitByName("f").ReturnValue().Types().String())
}

func TestDefaultAndAnnotationUnion(t *testing.T) {
	src := `def f(x: int = "a"):
    pass
`
	tt := NewTest(src)
	tassert.Equal(t, "int | str", tt.VarTypes("f", "x"))
}

func TestMethodSelfGetsInstance(t *testing.T) {
	src := `class C:
    def m(self):
        pass
`
	tt := NewTest(src)
	tassert.Equal(t, "C", tt.VarTypes("m", "self"))
}

func TestClassMethodClsGetsClassType(t *testing.T) {
	src := `class C:
    @classmethod
    def m(cls):
        pass
`
	tt := NewTest(src)
	tassert.Equal(t, "type[C]", tt.VarTypes("m", "cls"))
	tassert.True(t, tt.state.UnitByName("m").Function().IsClassMethod)
}

func TestStaticMethodGetsNoInjection(t *testing.T) {
	src := `class C:
    @staticmethod
    def m(x):
        pass
`
	tt := NewTest(src)
	tassert.Equal(t, "Unknown", tt.VarTypes("m", "x"))
	tassert.True(t, tt.state.UnitByName("m").Function().IsStatic)
}

func TestStaticWinsWhenBothMarkersPresent(t *testing.T) {
	src := `class C:
    @staticmethod
    @classmethod
    def m(x):
        pass
`
	tt := NewTest(src)
	fn := tt.state.UnitByName("m").Function()
	tassert.True(t, fn.IsStatic)
	tassert.True(t, fn.IsClassMethod)
	tassert.Equal(t, "Unknown", tt.VarTypes("m", "x"))
}

func TestPropertyStopsWrappingAndReadsAsReturnSet(t *testing.T) {
	src := `class C:
    @property
    def size(self):
        return 1

c = C()
x = c.size
y = C.size
`
	tt := NewTest(src)
	tassert.True(t, tt.state.UnitByName("size").Function().IsProperty)
	tassert.Equal(t, "int", tt.ModuleTypes("x"))
	// through the class the undecorated callable stays visible
	tassert.Equal(t, "def size(...)", tt.ModuleTypes("y"))
}

func TestDecoratorCompositionAppliesInnermostFirst(t *testing.T) {
	src := `def d1(f):
    return 1

def d2(f):
    return "s"

@d1
@d2
def f():
    pass
`
	tt := NewTestWith(Config{CustomDecorators: true}, src)
	tassert.Equal(t, "int", tt.ModuleTypes("f"))
	tassert.Equal(t, "def f(...)", tt.VarTypes("d2", "f"))
	tassert.Equal(t, "str", tt.VarTypes("d1", "f"))
}

func TestMalformedDecoratorLineDegrades(t *testing.T) {
	src := `@
def f():
    return 1
`
	tt := NewTestWith(Config{CustomDecorators: true}, src)
	tassert.NotEmpty(t, tt.errs)
	tassert.Equal(t, "def f(...)", tt.ModuleTypes("f"))
	tassert.Equal(t, "int", tt.state.UnitByName("f").ReturnValue().Types().String())
}

func TestUnresolvedDecoratorIsIdentityByDefault(t *testing.T) {
	src := `def d(f):
    return 1

@d
def f():
    pass
`
	tt := NewTest(src)
	tassert.Equal(t, "def f(...)", tt.ModuleTypes("f"))
}

func TestSelfReferentialDecoratorTerminates(t *testing.T) {
	src := `@f
def f():
    pass
`
	tt := NewTestWith(Config{CustomDecorators: true}, src)
	tassert.Equal(t, "def f(...)", tt.ModuleTypes("f"))
	tassert.Less(t, tt.state.Scheduler().Passes(), defaultMaxPasses)
}

func TestEnclosingFunctionDecoratorIsSkipped(t *testing.T) {
	src := `def outer():
    @outer
    def inner():
        pass
    return inner

outer()
`
	tt := NewTestWith(Config{CustomDecorators: true}, src)
	tassert.Equal(t, "def inner(...)", tt.VarTypes("outer", "inner"))
	tassert.Less(t, tt.state.Scheduler().Passes(), defaultMaxPasses)
}

func TestInitReceivesConstructorArguments(t *testing.T) {
	src := `class C:
    def __init__(self, n):
        self.n = n

c = C(1)
m = c.n
`
	tt := NewTest(src)
	tassert.Equal(t, "C", tt.ModuleTypes("c"))
	tassert.Equal(t, "int", tt.VarTypes("__init__", "n"))
	tassert.Equal(t, "int", tt.ModuleTypes("m"))
}

func TestMethodCallBindsReceiverAndArguments(t *testing.T) {
	src := `class C:
    def m(self, x):
        return x

c = C()
r = c.m("a")
`
	tt := NewTest(src)
	tassert.Equal(t, "C", tt.VarTypes("m", "self"))
	tassert.Equal(t, "str", tt.VarTypes("m", "x"))
	tassert.Equal(t, "str", tt.ModuleTypes("r"))
}

func TestKeywordArgumentsBindAndAreRecorded(t *testing.T) {
	src := `def f(a, b):
    return a

f(b=1, a="x")
`
	tt := NewTest(src)
	tassert.Equal(t, "str", tt.VarTypes("f", "a"))
	tassert.Equal(t, "int", tt.VarTypes("f", "b"))
	tassert.Equal(t, []string{"a", "b"}, tt.state.UnitByName("f").KeywordNames())
}

func TestGeneratorAnnotationMergesElementSets(t *testing.T) {
	src := `def g(n) -> Generator[int, str, bool]:
    yield 1.5

a = g(1)
`
	tt := NewTest(src)
	u := tt.state.UnitByName("g")
	tassert.Equal(t, "float | int", u.YieldValue().Types().String())
	tassert.Equal(t, "str", u.SendValue().Types().String())
	tassert.Equal(t, "bool", u.ReturnValue().Types().String())
	tassert.Equal(t, "Generator", tt.ModuleTypes("a"))
}

func TestNonGeneratorAnnotationFeedsReturnSet(t *testing.T) {
	src := `def f() -> int:
    pass
`
	tt := NewTest(src)
	tassert.Equal(t, "int", tt.state.UnitByName("f").ReturnValue().Types().String())
}

func TestArithmeticCollapsesNumericOperands(t *testing.T) {
	src := `a = 1 + 2
b = 1 + 2.5
c = 1 + "s"
`
	tt := NewTest(src)
	tassert.Equal(t, "int", tt.ModuleTypes("a"))
	tassert.Equal(t, "float", tt.ModuleTypes("b"))
	tassert.Equal(t, "int | str", tt.ModuleTypes("c"))
}

func TestIdempotentRerun(t *testing.T) {
	src := `def f(x: int):
    return x

f(1)
`
	tt := NewTest(src)
	before := tt.ModuleTypes("f")
	u := tt.state.UnitByName("f")
	params := tt.VarTypes("f", "x")
	tassert.NoError(t, u.Analyze(context.Background()))
	tassert.Equal(t, before, tt.ModuleTypes("f"))
	tassert.Equal(t, params, tt.VarTypes("f", "x"))
}

func TestCancelledPassLeavesPriorPublish(t *testing.T) {
	src := `def f():
    return 1
`
	tt := NewTest(src)
	before := tt.ModuleTypes("f")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	u := tt.state.UnitByName("f")
	tassert.Error(t, u.Analyze(ctx))
	tassert.Equal(t, before, tt.ModuleTypes("f"))
}

func TestCancelledCheckReportsInterruption(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	st := NewState(Config{}, WithReporter(NopReporter{}))
	errs := st.Check(ctx, "main.py", "x = 1\n")
	tassert.NotEmpty(t, errs, "an interrupted run must be distinguishable from a clean fixpoint")
}

func TestClosureUnitSharesCapturedAccumulators(t *testing.T) {
	src := `def outer():
    def inner(x):
        y = x
        return y
    return inner
`
	tt := NewTest(src)
	inner := tt.state.UnitByName("inner")
	tassert.NotNil(t, inner)
	cu := tt.state.NewClosureUnit(inner)
	tassert.True(t, cu.IsClosure())

	bs := tt.state.Builtins()
	cu.Scope().Declare("x").AddTypes(nil, types.NewSet(bs.Str.Instance()), true)
	acc, ok := inner.Scope().Lookup("x")
	tassert.True(t, ok)
	tassert.True(t, acc.Types().Contains(bs.Str.Instance()))

	inner.Scope().Declare("x").AddTypes(nil, types.NewSet(bs.Int.Instance()), true)
	back, ok := cu.Scope().Lookup("x")
	tassert.True(t, ok)
	tassert.True(t, back.Types().Contains(bs.Int.Instance()))
}

func TestClosureUnitInstallsNoPlaceholders(t *testing.T) {
	src := `def outer():
    def inner(x):
        return x
    return inner
`
	tt := NewTest(src)
	cu := tt.state.NewClosureUnit(tt.state.UnitByName("inner"))
	cu.EnsureParameters()
	tassert.Empty(t, cu.Scope().Names())
}

type recordingReporter struct {
	units []*FunctionUnit
}

func (r *recordingReporter) UnitCreated(u *FunctionUnit) { r.units = append(r.units, u) }

func TestCallSpecializationIsMemoizedPerCallSite(t *testing.T) {
	src := `def outer(a):
    def inner():
        return a
    return inner

outer(1)
`
	rep := &recordingReporter{}
	st := NewState(Config{CallSpecialization: true}, WithReporter(rep))
	errs := st.Check(context.Background(), "main.py", src)
	tassert.Empty(t, errs)
	closures := 0
	for _, u := range rep.units {
		if u.IsClosure() {
			closures++
		}
	}
	// the module unit re-runs several times but the call site specializes once
	tassert.Equal(t, 1, closures)
}

func TestSchedulerReachesFixpoint(t *testing.T) {
	src := `def f(x):
    return x

f(f(1))
`
	tt := NewTest(src)
	tassert.Zero(t, tt.state.Scheduler().Pending())
	tassert.Greater(t, tt.state.Scheduler().Passes(), 0)
	tassert.Less(t, tt.state.Scheduler().Passes(), defaultMaxPasses)
}

func TestParseErrorsBecomeDiagnostics(t *testing.T) {
	src := `def f(:
    pass
`
	tt := NewTest(src)
	tassert.NotEmpty(t, tt.errs)
}

func TestHoverDumpListsNamedSpans(t *testing.T) {
	src := `x = 1
`
	tt := NewTest(src)
	tassert.Contains(t, tt.state.HoverDump(), "x -> int")
}

func TestCompletionsIncludeKeywordParameterNames(t *testing.T) {
	src := `def f(alpha, beta):
    return alpha

f(beta=1)
`
	tt := NewTest(src)
	names := tt.state.Completions()
	tassert.Contains(t, names, "f")
	tassert.Contains(t, names, "beta")
}
