// Package table synthesizes the shift/reduce/accept/goto parsing table
// from an LR(0) automaton and its LALR(1) lookahead sets, resolving
// shift/reduce conflicts by terminal/rule precedence and associativity
// and reduce/reduce conflicts by lowest-rule-index-wins, recording in a
// Report every conflict that precedence does not settle.
package table

import (
	"sort"

	"github.com/halvard/murre/internal/automaton"
	"github.com/halvard/murre/internal/grammar"
	"github.com/halvard/murre/internal/icerrors"
	"github.com/halvard/murre/internal/lalr"
)

// Table is the finished parsing table: an ACTION entry per
// (state, terminal) and a GOTO entry per (state, nonterminal).
type Table struct {
	g      *grammar.Grammar
	a      *automaton.Automaton
	action map[[2]int]Action
	goTo   map[[2]int]int
}

// Action returns the table's action for (state, terminal), and whether
// one is defined.
func (t *Table) Action(state, terminal int) (Action, bool) {
	a, ok := t.action[[2]int{state, terminal}]
	return a, ok
}

// Goto returns the table's goto target for (state, nonterminal).
func (t *Table) Goto(state, nonterminal int) (int, bool) {
	s, ok := t.goTo[[2]int{state, nonterminal}]
	return s, ok
}

// Start returns the automaton's initial state.
func (t *Table) Start() int { return t.a.Start }

// Automaton exposes the underlying LR(0) collection, for diagnostics.
func (t *Table) Automaton() *automaton.Automaton { return t.a }

// Grammar exposes the grammar the table was built from, for diagnostics.
func (t *Table) Grammar() *grammar.Grammar { return t.g }

// ActionEntries exposes the full (state, terminal) -> Action map, for
// callers that need to freeze the table wholesale (see tablecache) rather
// than query it one cell at a time.
func (t *Table) ActionEntries() map[[2]int]Action { return t.action }

// GotoEntries exposes the full (state, nonterminal) -> state map, for the
// same reason as ActionEntries.
func (t *Table) GotoEntries() map[[2]int]int { return t.goTo }

// Rehydrate reassembles a Table from previously computed action and goto
// maps, skipping conflict resolution entirely. It is used to restore a
// Table a tablecache entry froze earlier, for the same grammar and
// automaton that produced it.
func Rehydrate(g *grammar.Grammar, a *automaton.Automaton, action map[[2]int]Action, goTo map[[2]int]int) *Table {
	return &Table{g: g, a: a, action: action, goTo: goTo}
}

// Build constructs the parsing table for g's automaton a, given the
// LALR(1) lookahead sets computed for its reduce items.
func Build(g *grammar.Grammar, a *automaton.Automaton, lookaheads map[lalr.ReduceItem]grammar.IntSet) (*Table, *Report) {
	t := &Table{g: g, a: a, action: map[[2]int]Action{}, goTo: map[[2]int]int{}}
	report := &Report{}

	for _, st := range a.States {
		for _, nt := range g.Nonterminals() {
			if next, ok := a.Goto(st.Index, nt); ok {
				t.goTo[[2]int{st.Index, nt}] = next
			}
		}
	}

	shiftSymbols := append(append([]int(nil), g.Terminals()...), g.EndSymbol())
	sort.Ints(shiftSymbols)
	for _, st := range a.States {
		for _, sym := range shiftSymbols {
			if next, ok := a.Goto(st.Index, sym); ok {
				t.place(st.Index, sym, Action{Kind: Shift, State: next}, report)
			}
		}
	}

	items := make([]lalr.ReduceItem, 0, len(lookaheads))
	for item := range lookaheads {
		items = append(items, item)
	}
	sort.Slice(items, func(i, j int) bool {
		if items[i].State != items[j].State {
			return items[i].State < items[j].State
		}
		return items[i].Rule < items[j].Rule
	})

	for _, item := range items {
		terms := lookaheads[item].Slice()
		sort.Ints(terms)
		act := Action{Kind: Reduce, Rule: item.Rule}
		for _, term := range terms {
			t.place(item.State, term, act, report)
		}
	}

	// The augmenting rule <start> -> S @end never gets a lookahead from
	// the LALR relations: <start> is synthetic and is never read by any
	// GOTO transition, so it never appears as a valid (state, symbol)
	// pair in the Reads/Includes closure. Acceptance doesn't need a
	// computed lookahead anyway — reaching the completed item means the
	// entire input matched, so place Accept directly at @end wherever
	// that item appears.
	for _, st := range a.States {
		for _, it := range st.Items {
			if it.Rule == g.StartRule() && it.Dot == g.Rule(it.Rule).Len() {
				t.place(st.Index, g.EndSymbol(), Action{Kind: Accept, Rule: it.Rule}, report)
			}
		}
	}

	return t, report
}

func (t *Table) place(state, term int, newAct Action, report *Report) {
	key := [2]int{state, term}
	existing, ok := t.action[key]
	if !ok {
		t.action[key] = newAct
		return
	}
	if existing == newAct {
		return
	}

	switch {
	case existing.Kind == Shift && newAct.Kind == Reduce:
		t.resolveShiftReduce(state, term, existing, newAct, report)
	case existing.Kind == Reduce && newAct.Kind == Shift:
		t.resolveShiftReduce(state, term, newAct, existing, report)
	case existing.Kind == Reduce && newAct.Kind == Reduce:
		t.resolveReduceReduce(state, term, existing, newAct, report)
	default:
		t.action[key] = newAct
	}
}

// resolveShiftReduce decides between a shift and a reduce action for the
// same (state, terminal) cell using precedence/associativity: higher
// precedence wins outright; equal precedence defers to the terminal's
// associativity (left favors reduce, right favors shift); if either side
// lacks a declared precedence the conflict is unresolvable and defaults
// to shift, same as pog and as most LALR generators.
func (t *Table) resolveShiftReduce(state, term int, shiftAct, reduceAct Action, report *Report) {
	key := [2]int{state, term}
	termSym := t.g.Symbol(term)
	rule := t.g.Rule(reduceAct.Rule)

	tp, tok := termSym.Precedence()
	rp, rok := rule.EffectivePrecedence(t.g)
	if tok && rok {
		switch {
		case tp.Level > rp.Level:
			t.action[key] = shiftAct
			return
		case rp.Level > tp.Level:
			t.action[key] = reduceAct
			return
		case tp.Assoc == grammar.AssocLeft:
			t.action[key] = reduceAct
			return
		case tp.Assoc == grammar.AssocRight:
			t.action[key] = shiftAct
			return
		}
	}

	report.ShiftReduce = append(report.ShiftReduce, &icerrors.ShiftReduceConflict{
		Symbol: termSym.Name(),
		Rule:   rule.String(t.g),
		State:  state,
	})
	t.action[key] = shiftAct
}

// resolveReduceReduce picks the rule with the lower index as the winner,
// i.e. the one declared first, and records the conflict either way.
func (t *Table) resolveReduceReduce(state, term int, a1, a2 Action, report *Report) {
	key := [2]int{state, term}
	r1 := t.g.Rule(a1.Rule)
	r2 := t.g.Rule(a2.Rule)

	winner := a1
	if a2.Rule < a1.Rule {
		winner = a2
	}

	report.ReduceReduce = append(report.ReduceReduce, &icerrors.ReduceReduceConflict{
		Rule1: r1.String(t.g),
		Rule2: r2.String(t.g),
		State: state,
	})
	t.action[key] = winner
}
