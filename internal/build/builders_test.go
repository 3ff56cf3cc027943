package build_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/halvard/murre/internal/build"
)

func TestAssembleRequiresStartSymbol(t *testing.T) {
	b := build.New()
	b.Token("a").Symbol("a")
	b.Rule("S").Production("a")
	_, _, err := b.Assemble()
	assert.Error(t, err)
}

func TestAssembleRegistersTokensAndRules(t *testing.T) {
	b := build.New()
	b.Token(`\s+`) // silent, no Symbol call
	b.Token("a").Symbol("a")
	b.SetStartSymbol("S")
	b.Rule("S").Production("a").Action(func(args []any) any { return args[0] })

	g, lx, err := b.Assemble()
	require.NoError(t, err)
	require.NoError(t, g.Validate())

	idx, ok := g.SymbolByName("a")
	require.True(t, ok)
	assert.True(t, g.Symbol(idx).IsTerminal())

	require.Len(t, lx.Specs(), 2)
	assert.Equal(t, "", lx.Specs()[0].Symbol, "whitespace token has no Symbol and is silent")
	assert.Equal(t, "a", lx.Specs()[1].Symbol)
}

func TestDefaultActionForwardsSingleSymbol(t *testing.T) {
	b := build.New()
	b.Token("a").Symbol("a")
	b.SetStartSymbol("S")
	b.Rule("S").Production("a") // no explicit Action

	g, _, err := b.Assemble()
	require.NoError(t, err)

	rule := g.Rule(1) // rule 0 is the synthesized <start> -> S @end
	assert.Equal(t, any("x"), rule.Action()([]any{"x"}))
}

func TestDefaultActionYieldsNilForMultiSymbolProduction(t *testing.T) {
	b := build.New()
	b.Token("a").Symbol("a")
	b.Token("b").Symbol("b")
	b.SetStartSymbol("S")
	b.Rule("S").Production("a", "b")

	g, _, err := b.Assemble()
	require.NoError(t, err)

	rule := g.Rule(1)
	assert.Nil(t, rule.Action()([]any{"x", "y"}))
}

func TestMidruleActionSynthesizesAnonymousNonterminal(t *testing.T) {
	b := build.New()
	b.Token("a").Symbol("a")
	b.Token("b").Symbol("b")
	b.SetStartSymbol("S")

	var sawMidrule bool
	b.Rule("S").
		Production("a", func(args []any) any { sawMidrule = true; return "mid" }, "b").
		Action(func(args []any) any { return args[1] })

	g, _, err := b.Assemble()
	require.NoError(t, err)
	require.NoError(t, g.Validate())
	assert.False(t, sawMidrule, "the midrule action must not run at Assemble time, only when the rule reduces")

	// The synthesized midrule nonterminal's rule must come before the
	// containing S rule, and its name must follow the _LHS#idx.n scheme.
	found := false
	for _, r := range g.Rules() {
		name := g.Symbol(r.LHS()).Name()
		if len(name) > 0 && name[0] == '_' {
			found = true
			assert.Equal(t, 0, r.Len(), "midrule nonterminal has an empty production")
			assert.Equal(t, "mid", r.Action()(nil))
		}
	}
	assert.True(t, found, "expected a synthesized midrule nonterminal rule")

	sRule := g.Rule(g.NumRules() - 1)
	assert.Len(t, sRule.RHS(), 3, "a, the synthesized nonterminal, and b")
}
