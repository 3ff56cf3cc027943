package lalr_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/halvard/murre/internal/automaton"
	"github.com/halvard/murre/internal/grammar"
	"github.com/halvard/murre/internal/lalr"
)

func noopAction(args []any) any { return nil }

// TestLookaheadsOfTrivialGrammar hand-verifies the S -> a grammar: the
// only real reduce item (S -> a ., in the state reached by shifting a)
// must get lookahead {@end}, since nothing but end-of-input can follow
// the start symbol.
func TestLookaheadsOfTrivialGrammar(t *testing.T) {
	g := grammar.New()
	a, err := g.RegisterTerminal("a", nil)
	require.NoError(t, err)
	_, err = g.SetStartSymbol("S")
	require.NoError(t, err)
	_, err = g.AddRule("S", []string{"a"}, noopAction, nil)
	require.NoError(t, err)
	require.NoError(t, g.Validate())

	auto, err := automaton.Build(g)
	require.NoError(t, err)

	stateOnA, ok := auto.Goto(auto.Start, a)
	require.True(t, ok)

	lookaheads := lalr.Lookaheads(auto, g)
	set, ok := lookaheads[lalr.ReduceItem{State: stateOnA, Rule: 1}]
	require.True(t, ok)
	assert.True(t, set.Has(g.EndSymbol()))
	assert.Len(t, set, 1)
}

// TestLookaheadsDistinguishBalancedGrammarNesting exercises a
// balanced a^n b^n grammar (S -> a S b | a b): the reduce item for S -> a b
// and for S -> a S b both live in states reached after shifting b, and
// each must carry lookahead {b, @end} since a completed S can itself be
// immediately followed by an enclosing b, or by end of input.
func TestLookaheadsDistinguishBalancedGrammarNesting(t *testing.T) {
	g := grammar.New()
	aSym, err := g.RegisterTerminal("a", nil)
	require.NoError(t, err)
	bSym, err := g.RegisterTerminal("b", nil)
	require.NoError(t, err)
	_, err = g.SetStartSymbol("S")
	require.NoError(t, err)
	_, err = g.AddRule("S", []string{"a", "S", "b"}, noopAction, nil)
	require.NoError(t, err)
	_, err = g.AddRule("S", []string{"a", "b"}, noopAction, nil)
	require.NoError(t, err)
	require.NoError(t, g.Validate())

	auto, err := automaton.Build(g)
	require.NoError(t, err)
	lookaheads := lalr.Lookaheads(auto, g)

	// Follow the path a, b from the start state: this reaches the state
	// with the completed item S -> a b .
	stateOnAB, ok := auto.GotoPath(auto.Start, []int{aSym, bSym})
	require.True(t, ok)
	set, ok := lookaheads[lalr.ReduceItem{State: stateOnAB, Rule: 2}]
	require.True(t, ok)
	assert.True(t, set.Has(bSym))
	assert.True(t, set.Has(g.EndSymbol()))
	assert.Len(t, set, 2)
}
