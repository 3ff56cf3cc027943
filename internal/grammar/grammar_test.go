package grammar_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/halvard/murre/internal/grammar"
)

func noopAction(args []any) any { return nil }

// buildBalanced registers S -> a S b | a b, a balanced a^n b^n grammar,
// and returns the assembled Grammar plus the index of every symbol a
// caller might want to query.
func buildBalanced(t *testing.T) (g *grammar.Grammar, a, b, s int) {
	t.Helper()
	g = grammar.New()

	var err error
	a, err = g.RegisterTerminal("a", nil)
	require.NoError(t, err)
	b, err = g.RegisterTerminal("b", nil)
	require.NoError(t, err)

	s, err = g.SetStartSymbol("S")
	require.NoError(t, err)

	_, err = g.AddRule("S", []string{"a", "S", "b"}, noopAction, nil)
	require.NoError(t, err)
	_, err = g.AddRule("S", []string{"a", "b"}, noopAction, nil)
	require.NoError(t, err)

	require.NoError(t, g.Validate())
	return g, a, b, s
}

func TestEmptyTerminalsAreNeverNullable(t *testing.T) {
	g, a, b, _ := buildBalanced(t)
	assert.False(t, g.Empty(a))
	assert.False(t, g.Empty(b))
}

func TestEmptyNonterminalRequiresAnAllNullableProduction(t *testing.T) {
	g, _, _, s := buildBalanced(t)
	assert.False(t, g.Empty(s), "S has no epsilon production, so it cannot be nullable")
}

func TestEmptyNullableNonterminal(t *testing.T) {
	g := grammar.New()
	_, err := g.SetStartSymbol("X")
	require.NoError(t, err)
	_, err = g.AddRule("X", nil, noopAction, nil)
	require.NoError(t, err)

	assert.True(t, g.Empty(g.StartSymbol()))
}

func TestEmptyBreaksRecursionWithoutStackOverflow(t *testing.T) {
	g := grammar.New()
	_, err := g.SetStartSymbol("X")
	require.NoError(t, err)
	// X -> X   has no base case and can never derive epsilon; a naive
	// recursive Empty would loop forever without the exploring-set guard.
	_, err = g.AddRule("X", []string{"X"}, noopAction, nil)
	require.NoError(t, err)

	assert.False(t, g.Empty(g.StartSymbol()))
}

func TestFirstOfBalancedGrammar(t *testing.T) {
	g, a, _, s := buildBalanced(t)
	first := g.First(s)
	assert.True(t, first.Has(a))
	assert.Len(t, first, 1)
}

func TestFirstThroughNullablePrefix(t *testing.T) {
	g := grammar.New()
	_, err := g.SetStartSymbol("X")
	require.NoError(t, err)
	c, err := g.RegisterTerminal("c", nil)
	require.NoError(t, err)
	_, err = g.AddRule("Y", nil, noopAction, nil) // Y -> epsilon
	require.NoError(t, err)
	_, err = g.AddRule("X", []string{"Y", "c"}, noopAction, nil) // X -> Y c
	require.NoError(t, err)

	first := g.First(g.StartSymbol())
	assert.True(t, first.Has(c), "First(X) must include c reached through nullable Y")
}

func TestFollowOfStartSymbolIncludesEnd(t *testing.T) {
	g, _, _, s := buildBalanced(t)
	follow := g.Follow(s)
	assert.True(t, follow.Has(g.EndSymbol()))
}

func TestFollowPropagatesThroughRecursiveRule(t *testing.T) {
	g, _, b, s := buildBalanced(t)
	// S -> a S b: S is followed by b in this production.
	follow := g.Follow(s)
	assert.True(t, follow.Has(b))
}

func TestRuleStringFormIncludesEpsilonMarker(t *testing.T) {
	g := grammar.New()
	_, err := g.SetStartSymbol("X")
	require.NoError(t, err)
	idx, err := g.AddRule("X", nil, noopAction, nil)
	require.NoError(t, err)

	assert.Equal(t, "X -> <eps>", g.Rule(idx).String(g))
}

func TestRuleStringFormListsRHSSymbols(t *testing.T) {
	g, _, _, _ := buildBalanced(t)
	// rule 0 is the synthesized <start> -> S @end
	assert.Equal(t, "S -> a S b", g.Rule(1).String(g))
	assert.Equal(t, "S -> a b", g.Rule(2).String(g))
}

func TestEffectivePrecedenceFallsBackToRightmostTerminal(t *testing.T) {
	g := grammar.New()
	plus, err := g.RegisterTerminal("+", &grammar.Precedence{Level: 1, Assoc: grammar.AssocLeft})
	require.NoError(t, err)
	_ = plus
	_, err = g.SetStartSymbol("E")
	require.NoError(t, err)
	idx, err := g.AddRule("E", []string{"E", "+", "E"}, noopAction, nil)
	require.NoError(t, err)

	prec, ok := g.Rule(idx).EffectivePrecedence(g)
	require.True(t, ok)
	assert.Equal(t, uint(1), prec.Level)
	assert.Equal(t, grammar.AssocLeft, prec.Assoc)
}

func TestEffectivePrecedenceOverrideWins(t *testing.T) {
	g := grammar.New()
	_, err := g.RegisterTerminal("-", &grammar.Precedence{Level: 1, Assoc: grammar.AssocLeft})
	require.NoError(t, err)
	_, err = g.SetStartSymbol("E")
	require.NoError(t, err)
	idx, err := g.AddRule("E", []string{"-", "E"}, noopAction, &grammar.Precedence{Level: 3, Assoc: grammar.AssocRight})
	require.NoError(t, err)

	prec, ok := g.Rule(idx).EffectivePrecedence(g)
	require.True(t, ok)
	assert.Equal(t, uint(3), prec.Level)
	assert.Equal(t, grammar.AssocRight, prec.Assoc)
}

func TestAnyUndeclaredRHSNameBecomesATerminal(t *testing.T) {
	g := grammar.New()
	_, err := g.SetStartSymbol("X")
	require.NoError(t, err)
	_, err = g.AddRule("X", []string{"never_declared"}, noopAction, nil)
	require.NoError(t, err)

	idx, ok := g.SymbolByName("never_declared")
	require.True(t, ok)
	assert.True(t, g.Symbol(idx).IsTerminal())
}

func TestRHSNameLaterDeclaredAsLHSIsPromotedToNonterminal(t *testing.T) {
	g := grammar.New()
	_, err := g.SetStartSymbol("X")
	require.NoError(t, err)
	_, err = g.AddRule("X", []string{"Y"}, noopAction, nil)
	require.NoError(t, err)

	idx, _ := g.SymbolByName("Y")
	assert.True(t, g.Symbol(idx).IsTerminal(), "Y is only a tentative terminal until it appears as an LHS")

	_, err = g.AddRule("Y", nil, noopAction, nil)
	require.NoError(t, err)
	assert.True(t, g.Symbol(idx).IsNonterminal(), "Y must be promoted once it is used as a rule LHS")
}

func TestValidateRejectsNonterminalWithNoProductions(t *testing.T) {
	g := grammar.New()
	_, err := g.SetStartSymbol("X")
	require.NoError(t, err)
	_, err = g.AddRule("Y", []string{"c"}, noopAction, nil) // X itself never gets a production
	require.NoError(t, err)

	assert.Error(t, g.Validate())
}

func TestValidateRejectsMissingStartSymbol(t *testing.T) {
	g := grammar.New()
	assert.Error(t, g.Validate())
}
