package diag_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/halvard/murre/internal/automaton"
	"github.com/halvard/murre/internal/diag"
	"github.com/halvard/murre/internal/grammar"
	"github.com/halvard/murre/internal/lalr"
	"github.com/halvard/murre/internal/table"
)

func noopAction(args []any) any { return nil }

// buildConflictGrammar reconstructs sequence -> sequence a | maybea |
// <eps>; maybea -> a | <eps>, the same grammar the table package's
// conflict-detection test uses, since its state 0 gives the Includes
// relation exactly one edge to render: rule sequence -> maybea makes
// (0,maybea) Includes (0,sequence) (maybea has an empty, trivially
// nullable, tail in it), while every other rule's nonterminal is
// followed by a non-nullable terminal and contributes no edge.
func buildConflictGrammar(t *testing.T) *grammar.Grammar {
	t.Helper()
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
	require.NoError(t, g.Validate())
	return g
}

func TestRenderTableAndAutomatonAreNonEmpty(t *testing.T) {
	g := buildConflictGrammar(t)
	a, err := automaton.Build(g)
	require.NoError(t, err)
	lookaheads := lalr.Lookaheads(a, g)
	tbl, _ := table.Build(g, a, lookaheads)

	tableDump := diag.RenderTable(g, a, tbl)
	assert.Contains(t, tableDump, "state")
	assert.Contains(t, tableDump, "A:a")

	autoDump := diag.RenderAutomaton(g, a)
	assert.Contains(t, autoDump, "state 0:")
	assert.Contains(t, autoDump, "sequence -> <eps>")
}

// TestRenderIncludesGraphRendersTheSingleEdge hand-verifies the only
// Includes edge this grammar produces: rule sequence -> maybea gives
// (0,maybea) Includes (0,sequence).
func TestRenderIncludesGraphRendersTheSingleEdge(t *testing.T) {
	g := buildConflictGrammar(t)
	a, err := automaton.Build(g)
	require.NoError(t, err)

	dump := diag.RenderIncludesGraph(g, a)
	assert.Contains(t, dump, "digraph Includes {")
	assert.Contains(t, dump, `"(0,maybea)" -> "(0,sequence)";`)

	// No other (state,nonterminal) pair in this grammar has a nullable
	// tail after it in any rule, so there is exactly one edge.
	assert.Equal(t, 1, strings.Count(dump, "->"))
}
