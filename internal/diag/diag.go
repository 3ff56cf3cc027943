// Package diag renders the compiled automaton, parsing table, and
// Includes relation as plain text — a column-aligned ACTION/GOTO dump, a
// per-state item listing, and a DOT-style Includes graph — used in place
// of pog's HTML report since nothing in this module's dependency stack
// does HTML templating.
package diag

import (
	"fmt"
	"sort"
	"strings"

	"github.com/dekarrin/rosed"

	"github.com/halvard/murre/internal/automaton"
	"github.com/halvard/murre/internal/grammar"
	"github.com/halvard/murre/internal/lalr"
	"github.com/halvard/murre/internal/table"
)

// RenderTable produces a column-aligned dump of every ACTION and GOTO
// entry in t, one row per automaton state.
func RenderTable(g *grammar.Grammar, a *automaton.Automaton, t *table.Table) string {
	terms := append(append([]int(nil), g.Terminals()...), g.EndSymbol())
	sort.Ints(terms)
	nts := append([]int(nil), g.Nonterminals()...)
	sort.Ints(nts)

	headers := []string{"state"}
	for _, term := range terms {
		headers = append(headers, "A:"+g.Symbol(term).Name())
	}
	headers = append(headers, "|")
	for _, nt := range nts {
		headers = append(headers, "G:"+g.Symbol(nt).Name())
	}

	data := [][]string{headers}
	for _, st := range a.States {
		row := []string{fmt.Sprintf("%d", st.Index)}
		for _, term := range terms {
			cell := ""
			if act, ok := t.Action(st.Index, term); ok {
				switch act.Kind {
				case table.Shift:
					cell = fmt.Sprintf("s%d", act.State)
				case table.Reduce:
					cell = fmt.Sprintf("r(%s)", g.Rule(act.Rule).String(g))
				case table.Accept:
					cell = "acc"
				}
			}
			row = append(row, cell)
		}
		row = append(row, "|")
		for _, nt := range nts {
			cell := ""
			if next, ok := t.Goto(st.Index, nt); ok {
				cell = fmt.Sprintf("%d", next)
			}
			row = append(row, cell)
		}
		data = append(data, row)
	}

	return rosed.
		Edit("").
		InsertTableOpts(0, data, 20, rosed.Options{
			TableHeaders:             true,
			NoTrailingLineSeparators: true,
		}).
		String()
}

// RenderAutomaton dumps every state's item set, one state per block.
func RenderAutomaton(g *grammar.Grammar, a *automaton.Automaton) string {
	var b strings.Builder
	for _, st := range a.States {
		fmt.Fprintf(&b, "state %d:\n", st.Index)
		for _, it := range st.Items {
			rule := g.Rule(it.Rule)
			fmt.Fprintf(&b, "  %s [dot=%d]\n", rule.String(g), it.Dot)
		}
	}
	return b.String()
}

// RenderIncludesGraph dumps the Includes relation computed for a's
// transitions as a DOT-style directed graph, one edge per line: (p,A) ->
// (p',B) read as "(p,A) Includes (p',B)". Nodes are labeled with the
// symbol name rather than its index for readability.
func RenderIncludesGraph(g *grammar.Grammar, a *automaton.Automaton) string {
	graph := lalr.IncludesGraph(a, g)

	nodes := make([]lalr.Node, 0, len(graph))
	for n := range graph {
		nodes = append(nodes, n)
	}
	sort.Slice(nodes, func(i, j int) bool {
		if nodes[i].State != nodes[j].State {
			return nodes[i].State < nodes[j].State
		}
		return nodes[i].Sym < nodes[j].Sym
	})

	label := func(n lalr.Node) string {
		return fmt.Sprintf("(%d,%s)", n.State, g.Symbol(n.Sym).Name())
	}

	var b strings.Builder
	b.WriteString("digraph Includes {\n")
	for _, n := range nodes {
		dsts := append([]lalr.Node(nil), graph[n]...)
		sort.Slice(dsts, func(i, j int) bool {
			if dsts[i].State != dsts[j].State {
				return dsts[i].State < dsts[j].State
			}
			return dsts[i].Sym < dsts[j].Sym
		})
		for _, d := range dsts {
			fmt.Fprintf(&b, "  %q -> %q;\n", label(n), label(d))
		}
	}
	b.WriteString("}\n")
	return b.String()
}
