package compiler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quelaag/evsc/internal/ir"
	"github.com/quelaag/evsc/internal/namespace"
)

func compileErr(t *testing.T, def *EventDef, opts ...Option) CompileErrors {
	t.Helper()
	ev, err := Compile(def, opts...)
	require.Error(t, err)
	require.Nil(t, ev, "no partial output on error")

	var errs CompileErrors
	require.ErrorAs(t, err, &errs)
	return errs
}

func TestCompileUnknownTest(t *testing.T) {
	def := NewEvent(100).Tag(ir.NeverRestart).Body(Test("NoSuchTest", ir.Int(1)))

	errs := compileErr(t, def)
	require.Len(t, errs, 1)
	assert.Equal(t, ErrUnknownTest, errs[0].Code)
	assert.Contains(t, errs[0].Message, "NoSuchTest")
}

func TestCompileArgumentType(t *testing.T) {
	def := NewEvent(100).Tag(ir.NeverRestart).Body(Test("FlagEnabled", ir.Int(-3)))

	errs := compileErr(t, def)
	require.Len(t, errs, 1)
	assert.Equal(t, ErrArgumentType, errs[0].Code)
	assert.Contains(t, errs[0].Message, `"flag"`, "error names the offending parameter")
}

func TestCompileNestingDepth(t *testing.T) {
	deep := AllOf(
		AnyOf(
			AllOf(Test("IsHost")),
		),
	)
	def := NewEvent(100).Tag(ir.NeverRestart).Body(deep)

	errs := compileErr(t, def)
	require.Len(t, errs, 1)
	assert.Equal(t, ErrNestingDepth, errs[0].Code)
	assert.Equal(t, "body[0].and[0].or[0]", errs[0].Where)
}

func TestCompileAwaitInsideCondition(t *testing.T) {
	def := NewEvent(100).Tag(ir.NeverRestart).Body(
		AllOf(Test("IsHost"), Await(Test("IsDead", ir.Int(100)))),
	)

	errs := compileErr(t, def)
	require.Len(t, errs, 1)
	assert.Equal(t, ErrUsage, errs[0].Code)
	assert.Contains(t, errs[0].Message, "statement level")
	assert.Equal(t, "body[0].and[1]", errs[0].Where)
}

func TestCompileNegationOfNonNegatable(t *testing.T) {
	def := NewEvent(100).Tag(ir.NeverRestart).Body(
		Not(Test("WorldTendency", ir.Int(0), ir.Int(2), ir.Int(50))),
	)

	errs := compileErr(t, def)
	require.Len(t, errs, 1)
	assert.Equal(t, ErrUsage, errs[0].Code)
	assert.Contains(t, errs[0].Message, "negation")
}

func TestCompileNegatedAwait(t *testing.T) {
	def := NewEvent(100).Tag(ir.NeverRestart).Body(
		Not(Await(Test("FlagEnabled", ir.Int(42)))),
		End(),
	)

	errs := compileErr(t, def)
	require.Len(t, errs, 1)
	assert.Equal(t, ErrUsage, errs[0].Code)
	assert.Contains(t, errs[0].Message, "not cannot be applied to await")
	assert.Equal(t, "body[0]", errs[0].Where)
}

func TestCompileNegatedTerminator(t *testing.T) {
	def := NewEvent(100).Tag(ir.NeverRestart).Body(Not(End()))

	errs := compileErr(t, def)
	require.Len(t, errs, 1)
	assert.Equal(t, ErrUsage, errs[0].Code)
	assert.Contains(t, errs[0].Message, "not cannot be applied to end terminator")

	def = NewEvent(100).Tag(ir.NeverRestart).Body(Not(Restart()))

	errs = compileErr(t, def)
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0].Message, "restart terminator")
}

func TestCompileNegatedTerminatorInsideGroup(t *testing.T) {
	def := NewEvent(100).Tag(ir.NeverRestart).Body(
		AllOf(Test("IsHost"), Not(End())),
	)

	errs := compileErr(t, def)
	require.Len(t, errs, 1)
	assert.Equal(t, ErrUsage, errs[0].Code)
	assert.Equal(t, "body[0].and[1]", errs[0].Where)
}

func TestCompileHeldAwait(t *testing.T) {
	def := NewEvent(100).Tag(ir.NeverRestart).Body(
		Hold(Await(Test("IsDead", ir.Int(100)))),
		End(),
	)

	errs := compileErr(t, def)
	require.Len(t, errs, 1)
	assert.Equal(t, ErrUsage, errs[0].Code)
	assert.Contains(t, errs[0].Message, "hold cannot be applied to await")
	assert.Equal(t, "body[0]", errs[0].Where)
}

func TestCompileEmptyGroup(t *testing.T) {
	def := NewEvent(100).Tag(ir.NeverRestart).Body(AllOf())

	errs := compileErr(t, def)
	require.Len(t, errs, 1)
	assert.Equal(t, ErrEmptyGroup, errs[0].Code)
}

func TestCompileUnreachableAfterTerminator(t *testing.T) {
	def := NewEvent(100).Tag(ir.NeverRestart).Body(End(), Test("IsHost"))

	errs := compileErr(t, def)
	require.Len(t, errs, 1)
	assert.Equal(t, ErrUsage, errs[0].Code)
	assert.Contains(t, errs[0].Message, "unreachable")
}

func TestCompileUnknownSymbol(t *testing.T) {
	def := NewEvent(100).Tag(ir.NeverRestart).Body(Test("FlagEnabled", ir.Sym("NOT_A_FLAG")))

	errs := compileErr(t, def)
	require.Len(t, errs, 1)
	assert.Equal(t, ErrUnknownSymbol, errs[0].Code)
	assert.Contains(t, errs[0].Message, "NOT_A_FLAG")
}

func TestCompileSymbolResolution(t *testing.T) {
	table, err := namespace.FromMap(map[string]int64{"BOSS_DEFEATED": 11810900})
	require.NoError(t, err)

	ev, cerr := Compile(
		NewEvent(100).Tag(ir.NeverRestart).Body(Test("FlagEnabled", ir.Sym("BOSS_DEFEATED"))),
		WithNamespace(table),
	)
	require.NoError(t, cerr)
	require.NotEmpty(t, ev.Lines)
	assert.Equal(t, []ir.Value{ir.Int(11810900)}, ev.Lines[0].Args)
}

func TestCompileThisFlagResolution(t *testing.T) {
	ev, err := Compile(
		NewEvent(11810000).Tag(ir.RestartOnRest).Body(Test("FlagDisabled", ir.ThisFlag{})),
	)
	require.NoError(t, err)
	assert.Equal(t, []ir.Value{ir.Int(11810000)}, ev.Lines[0].Args)
}

func TestCompileCollectsAllErrors(t *testing.T) {
	def := NewEvent(100).Tag(ir.NeverRestart).Body(
		Test("NoSuchTest"),
		Test("FlagEnabled", ir.Int(-1)),
	)

	errs := compileErr(t, def)
	require.Len(t, errs, 2, "validation collects every error before aborting")
	assert.Equal(t, ErrUnknownTest, errs[0].Code)
	assert.Equal(t, ErrArgumentType, errs[1].Code)
}

func TestHasCodeHelpers(t *testing.T) {
	_, err := Compile(NewEvent(1).Tag(ir.NeverRestart).Body(AllOf(Await(Test("IsHost")))))
	assert.True(t, IsUsageError(err))
	assert.False(t, IsSlotExhaustion(err))
	assert.True(t, HasCode(err, ErrUsage))
	assert.False(t, HasCode(err, ErrNestingDepth))
}
