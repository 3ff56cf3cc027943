// Package automaton builds the canonical LR(0) collection for a grammar:
// states are closed item sets, numbered in the order they are
// discovered, connected by a deterministic GOTO table over symbol
// indices.
package automaton

import (
	"github.com/halvard/murre/internal/grammar"
)

// State is one node of the canonical LR(0) collection.
type State struct {
	Index  int
	Kernel []Item
	Items  []Item
}

// Automaton is the canonical LR(0) collection together with its GOTO
// transitions.
type Automaton struct {
	States []*State
	trans  map[[2]int]int // (state, symbol) -> state
	Start  int
}

// Transitions exposes the full (state, symbol) -> state GOTO map, for
// callers that need to freeze or rebuild an Automaton wholesale (see
// tablecache.Freeze/Rehydrate) rather than query it one edge at a time.
func (a *Automaton) Transitions() map[[2]int]int { return a.trans }

// Rehydrate reassembles an Automaton from previously computed states and
// transitions, skipping the closure/goto work Build does. It is used to
// restore an Automaton a tablecache entry froze earlier, for the same
// grammar that produced it.
func Rehydrate(states []*State, trans map[[2]int]int, start int) *Automaton {
	return &Automaton{States: states, trans: trans, Start: start}
}

// Goto returns the state reached from state by symbol, and whether a
// transition is defined.
func (a *Automaton) Goto(state, symbol int) (int, bool) {
	s, ok := a.trans[[2]int{state, symbol}]
	return s, ok
}

// GotoPath follows a sequence of symbols from state, returning the
// resulting state and whether every step in the path was defined.
func (a *Automaton) GotoPath(state int, symbols []int) (int, bool) {
	cur := state
	for _, sym := range symbols {
		next, ok := a.Goto(cur, sym)
		if !ok {
			return 0, false
		}
		cur = next
	}
	return cur, true
}

// OutgoingSymbols returns the symbols on which state has a defined
// transition, in no particular order.
func (a *Automaton) OutgoingSymbols(state int) []int {
	var out []int
	for k := range a.trans {
		if k[0] == state {
			out = append(out, k[1])
		}
	}
	return out
}

// Build constructs the canonical LR(0) collection for g. g must have a
// start symbol set (see grammar.Grammar.SetStartSymbol); Build fails with
// the same error grammar.Validate would if not.
func Build(g *grammar.Grammar) (*Automaton, error) {
	if err := g.Validate(); err != nil {
		return nil, err
	}

	startKernel := sortItems([]Item{{Rule: g.StartRule(), Dot: 0}})
	startItems := Closure(g, startKernel)

	a := &Automaton{trans: map[[2]int]int{}}
	byKernel := map[string]int{}

	newState := func(kernel, items []Item) *State {
		idx := len(a.States)
		st := &State{Index: idx, Kernel: kernel, Items: items}
		a.States = append(a.States, st)
		byKernel[kernelKey(kernel)] = idx
		return st
	}

	start := newState(startKernel, startItems)
	a.Start = start.Index

	queue := []*State{start}
	for len(queue) > 0 {
		st := queue[0]
		queue = queue[1:]

		symbols := outgoingSymbolsOf(g, st.Items)
		for _, sym := range symbols {
			target := Goto(g, st.Items, sym)
			if len(target) == 0 {
				continue
			}
			kernel := kernelOf(g, target, g.StartRule())
			key := kernelKey(kernel)
			if existing, ok := byKernel[key]; ok {
				a.trans[[2]int{st.Index, sym}] = existing
				continue
			}
			ns := newState(kernel, target)
			a.trans[[2]int{st.Index, sym}] = ns.Index
			queue = append(queue, ns)
		}
	}

	return a, nil
}

// outgoingSymbolsOf returns, in ascending symbol-index order, the
// distinct symbols that appear immediately after a dot in items. Visiting
// symbols in a fixed order is what makes state numbering deterministic
// across runs for the same grammar.
func outgoingSymbolsOf(g *grammar.Grammar, items []Item) []int {
	seen := make(map[int]bool)
	var out []int
	for i := 0; i < g.NumSymbols(); i++ {
		for _, it := range items {
			sym, ok := symbolAtDot(g, it)
			if ok && sym == i && !seen[i] {
				seen[i] = true
				out = append(out, i)
				break
			}
		}
	}
	return out
}
