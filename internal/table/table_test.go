package table_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/halvard/murre/internal/automaton"
	"github.com/halvard/murre/internal/grammar"
	"github.com/halvard/murre/internal/lalr"
	"github.com/halvard/murre/internal/table"
)

func noopAction(args []any) any { return nil }

func prepare(t *testing.T, g *grammar.Grammar) (*automaton.Automaton, *table.Table, *table.Report) {
	t.Helper()
	require.NoError(t, g.Validate())
	a, err := automaton.Build(g)
	require.NoError(t, err)
	lookaheads := lalr.Lookaheads(a, g)
	tbl, report := table.Build(g, a, lookaheads)
	return a, tbl, report
}

// TestTrivialGrammarAccepts rebuilds the S -> a grammar from the
// automaton tests and checks the full action/goto table: shift a,
// reduce S -> a, goto on S, shift @end to the accept-pending state, and
// finally Accept.
func TestTrivialGrammarAccepts(t *testing.T) {
	g := grammar.New()
	a, err := g.RegisterTerminal("a", nil)
	require.NoError(t, err)
	s, err := g.SetStartSymbol("S")
	require.NoError(t, err)
	_, err = g.AddRule("S", []string{"a"}, noopAction, nil)
	require.NoError(t, err)

	auto, tbl, report := prepare(t, g)
	assert.True(t, report.Empty())

	act, ok := tbl.Action(auto.Start, a)
	require.True(t, ok)
	assert.Equal(t, table.Shift, act.Kind)

	stateOnA := act.State
	act, ok = tbl.Action(stateOnA, g.EndSymbol())
	require.True(t, ok)
	assert.Equal(t, table.Reduce, act.Kind)
	assert.Equal(t, 1, act.Rule)

	stateOnS, ok := tbl.Goto(auto.Start, s)
	require.True(t, ok)
	act, ok = tbl.Action(stateOnS, g.EndSymbol())
	require.True(t, ok)
	assert.Equal(t, table.Shift, act.Kind)

	acceptState := act.State
	act, ok = tbl.Action(acceptState, g.EndSymbol())
	require.True(t, ok)
	assert.Equal(t, table.Accept, act.Kind)
	assert.Equal(t, g.StartRule(), act.Rule)
}

// TestConflictReportOrderForSequenceMaybeaGrammar reproduces the
// conflict-detection scenario: sequence -> sequence a | maybea | <eps>;
// maybea -> a | <eps>. State 0's closure contains both epsilon reduce
// items directly and a shift on a from maybea -> . a, so placing the
// epsilon reduces after the shifts have already been written produces,
// in this exact order: a shift/reduce conflict for sequence -> <eps>
// (lookahead a, already-shifted state wins), a reduce/reduce conflict
// between the two epsilon rules on lookahead @end (lower rule index
// wins), and a second shift/reduce conflict for maybea -> <eps>.
func TestConflictReportOrderForSequenceMaybeaGrammar(t *testing.T) {
	g := grammar.New()
	_, err := g.RegisterTerminal("a", nil)
	require.NoError(t, err)
	_, err = g.SetStartSymbol("sequence")
	require.NoError(t, err)
	_, err = g.AddRule("sequence", []string{"sequence", "a"}, noopAction, nil)
	require.NoError(t, err)
	_, err = g.AddRule("sequence", []string{"maybea"}, noopAction, nil)
	require.NoError(t, err)
	_, err = g.AddRule("sequence", nil, noopAction, nil)
	require.NoError(t, err)
	_, err = g.AddRule("maybea", []string{"a"}, noopAction, nil)
	require.NoError(t, err)
	_, err = g.AddRule("maybea", nil, noopAction, nil)
	require.NoError(t, err)

	_, _, report := prepare(t, g)

	require.False(t, report.Empty())
	require.Len(t, report.ShiftReduce, 2)
	require.Len(t, report.ReduceReduce, 1)
	assert.Equal(t, 3, report.NumberOfIssues())

	assert.Equal(t, "a", report.ShiftReduce[0].Symbol)
	assert.Equal(t, "sequence -> <eps>", report.ShiftReduce[0].Rule)
	assert.Equal(t, 0, report.ShiftReduce[0].State)

	assert.Equal(t, "sequence -> <eps>", report.ReduceReduce[0].Rule1)
	assert.Equal(t, "maybea -> <eps>", report.ReduceReduce[0].Rule2)
	assert.Equal(t, 0, report.ReduceReduce[0].State)

	assert.Equal(t, "a", report.ShiftReduce[1].Symbol)
	assert.Equal(t, "maybea -> <eps>", report.ShiftReduce[1].Rule)
	assert.Equal(t, 0, report.ShiftReduce[1].State)
}

// TestPrecedenceResolvesArithmeticAmbiguity builds the classic ambiguous
// E -> E + E | E * E | num grammar with + at level 1 (left) and * at
// level 2 (left), and checks that no unresolved conflicts are reported
// and that, in the state after E + E, the conflict with reducing
// E -> E + E resolves to shift on * (since * binds tighter) and to
// reduce on + (since + is left-associative).
func TestPrecedenceResolvesArithmeticAmbiguity(t *testing.T) {
	g := grammar.New()
	plus, err := g.RegisterTerminal("+", &grammar.Precedence{Level: 1, Assoc: grammar.AssocLeft})
	require.NoError(t, err)
	star, err := g.RegisterTerminal("*", &grammar.Precedence{Level: 2, Assoc: grammar.AssocLeft})
	require.NoError(t, err)
	_, err = g.RegisterTerminal("num", nil)
	require.NoError(t, err)
	_, err = g.SetStartSymbol("E")
	require.NoError(t, err)
	_, err = g.AddRule("E", []string{"E", "+", "E"}, noopAction, nil)
	require.NoError(t, err)
	_, err = g.AddRule("E", []string{"E", "*", "E"}, noopAction, nil)
	require.NoError(t, err)
	_, err = g.AddRule("E", []string{"num"}, noopAction, nil)
	require.NoError(t, err)

	auto, tbl, report := prepare(t, g)
	assert.True(t, report.Empty(), "precedence must resolve every shift/reduce conflict here")
	assert.Equal(t, 0, report.NumberOfIssues())

	// Drive the automaton along E + E, then check the action on *: it
	// must be Shift (tighter-binding operator wins over the pending +
	// reduce).
	numSym, _ := g.SymbolByName("num")
	s1, ok := auto.Goto(auto.Start, numSym)
	require.True(t, ok)
	act, ok := tbl.Action(s1, plus)
	require.True(t, ok)
	require.Equal(t, table.Reduce, act.Kind) // E -> num immediately

	eSym := g.StartSymbol()
	s2, ok := auto.Goto(auto.Start, eSym)
	require.True(t, ok)
	s3, ok := auto.Goto(s2, plus)
	require.True(t, ok)
	s4, ok := auto.Goto(s3, eSym)
	require.True(t, ok)

	onStar, ok := tbl.Action(s4, star)
	require.True(t, ok)
	assert.Equal(t, table.Shift, onStar.Kind, "* must bind tighter than a pending + reduce")

	onPlus, ok := tbl.Action(s4, plus)
	require.True(t, ok)
	assert.Equal(t, table.Reduce, onPlus.Kind, "left-associative + reduces before another +")
}
