// Package lalr computes LALR(1) lookahead sets for a grammar's LR(0)
// automaton using the DeRemer-Pennello relational method: Reads and
// Includes relations over (state, nonterminal) transition pairs, closed
// via a single-pass strongly-connected-components digraph walk, feeding
// a Lookback relation that turns each reduce item's lookahead into a
// union of Follow-relation values.
package lalr

import (
	"github.com/halvard/murre/internal/automaton"
	"github.com/halvard/murre/internal/grammar"
)

// ntNode is a nonterminal-transition pair (p, A): state p has a defined
// GOTO transition on nonterminal A. Both Reads and Includes, and the
// Read/Follow operations built from them, are relations over this node
// type.
type ntNode struct {
	State int
	Sym   int
}

// Node is the exported form of ntNode, for callers outside this package
// that want to inspect a relation directly (see IncludesGraph).
type Node struct {
	State int
	Sym   int
}

// ReduceItem identifies a reduce item by the state it appears in and the
// rule it reduces by.
type ReduceItem struct {
	State int
	Rule  int
}

func ntPairs(a *automaton.Automaton, g *grammar.Grammar) []ntNode {
	var out []ntNode
	for _, st := range a.States {
		for _, nt := range g.Nonterminals() {
			if _, ok := a.Goto(st.Index, nt); ok {
				out = append(out, ntNode{st.Index, nt})
			}
		}
	}
	return out
}

// directReads computes DirectReads(p,A): the terminals t for which
// GOTO(GOTO(p,A), t) is defined. @end counts as a terminal here: the
// augmenting rule <start> -> S @end gives the state after S a
// transition on @end, and that transition is the only way @end ever
// enters a Follow set.
func directReads(a *automaton.Automaton, g *grammar.Grammar, n ntNode) grammar.IntSet {
	r, _ := a.Goto(n.State, n.Sym)
	set := grammar.IntSet{}
	terms := append(append([]int(nil), g.Terminals()...), g.EndSymbol())
	for _, t := range terms {
		if _, ok := a.Goto(r, t); ok {
			set.Add(t)
		}
	}
	return set
}

// readsEdges computes the Reads relation: (p,A) Reads (r,C) iff
// r = GOTO(p,A) and C is a nullable nonterminal with GOTO(r,C) defined.
func readsEdges(a *automaton.Automaton, g *grammar.Grammar, n ntNode) []ntNode {
	r, _ := a.Goto(n.State, n.Sym)
	var out []ntNode
	for _, c := range g.Nonterminals() {
		if !g.Empty(c) {
			continue
		}
		if _, ok := a.Goto(r, c); ok {
			out = append(out, ntNode{r, c})
		}
	}
	return out
}

// computeRead closes DirectReads under Reads, giving Read(p,A) for every
// valid transition pair.
func computeRead(a *automaton.Automaton, g *grammar.Grammar) map[ntNode]grammar.IntSet {
	nodes := ntPairs(a, g)
	initial := make(map[ntNode]grammar.IntSet, len(nodes))
	adj := make(map[ntNode][]ntNode, len(nodes))
	for _, n := range nodes {
		initial[n] = directReads(a, g, n)
		adj[n] = readsEdges(a, g, n)
	}
	return sccClose(nodes, initial, adj)
}

// includesEdges computes the Includes relation (p,A) Includes (p',B):
// there is a rule B -> beta A gamma with gamma nullable, and
// GOTO(p', beta) = p. Returned as an adjacency list keyed by the source
// node (p,A), since that is the direction the Follow fixpoint walks.
func includesEdges(a *automaton.Automaton, g *grammar.Grammar) map[ntNode][]ntNode {
	adj := map[ntNode][]ntNode{}
	for _, r := range g.Rules() {
		rhs := r.RHS()
		B := r.LHS()
		for i, sym := range rhs {
			if !g.Symbol(sym).IsNonterminal() {
				continue
			}
			gamma := rhs[i+1:]
			if !g.EmptyOfSequence(gamma) {
				continue
			}
			beta := rhs[:i]
			for _, pPrime := range a.States {
				p, ok := a.GotoPath(pPrime.Index, beta)
				if !ok {
					continue
				}
				if _, ok := a.Goto(p, sym); !ok {
					continue
				}
				if _, ok := a.Goto(pPrime.Index, B); !ok {
					continue
				}
				src := ntNode{p, sym}
				dst := ntNode{pPrime.Index, B}
				adj[src] = append(adj[src], dst)
			}
		}
	}
	return adj
}

// IncludesGraph exposes the Includes relation computed by includesEdges
// as a plain adjacency map, for diagnostic rendering (spec §6's "Includes
// relation as a graph" export). Every key (p,A) maps to every (p',B) it
// includes.
func IncludesGraph(a *automaton.Automaton, g *grammar.Grammar) map[Node][]Node {
	adj := includesEdges(a, g)
	out := make(map[Node][]Node, len(adj))
	for src, dsts := range adj {
		converted := make([]Node, len(dsts))
		for i, d := range dsts {
			converted[i] = Node(d)
		}
		out[Node(src)] = converted
	}
	return out
}

// computeFollowRelation closes Read under Includes, giving the
// DeRemer-Pennello Follow(p,A) for every valid transition pair.
func computeFollowRelation(a *automaton.Automaton, g *grammar.Grammar) map[ntNode]grammar.IntSet {
	nodes := ntPairs(a, g)
	read := computeRead(a, g)
	adj := includesEdges(a, g)
	return sccClose(nodes, read, adj)
}

// computeLookback computes, for each reduce item (q, r) in the
// automaton, the set of (p, A) pairs such that GOTO(p, rhs(r)) = q and A
// is r's left-hand side.
func computeLookback(a *automaton.Automaton, g *grammar.Grammar) map[ReduceItem][]ntNode {
	result := map[ReduceItem][]ntNode{}
	for _, st := range a.States {
		for _, r := range g.Rules() {
			if !hasReduceItem(st, r) {
				continue
			}
			key := ReduceItem{State: st.Index, Rule: r.Index()}
			A := r.LHS()
			for _, pPrime := range a.States {
				q, ok := a.GotoPath(pPrime.Index, r.RHS())
				if !ok || q != st.Index {
					continue
				}
				if _, ok := a.Goto(pPrime.Index, A); ok {
					result[key] = append(result[key], ntNode{pPrime.Index, A})
				}
			}
		}
	}
	return result
}

func hasReduceItem(st *automaton.State, r *grammar.Rule) bool {
	dot := len(r.RHS())
	for _, it := range st.Items {
		if it.Rule == r.Index() && it.Dot == dot {
			return true
		}
	}
	return false
}

// Lookaheads computes LALR(1) lookahead sets for every reduce item in the
// automaton.
func Lookaheads(a *automaton.Automaton, g *grammar.Grammar) map[ReduceItem]grammar.IntSet {
	followRel := computeFollowRelation(a, g)
	lookback := computeLookback(a, g)
	result := make(map[ReduceItem]grammar.IntSet, len(lookback))
	for key, pairs := range lookback {
		set := grammar.IntSet{}
		for _, pa := range pairs {
			set.AddAll(followRel[pa])
		}
		result[key] = set
	}
	return result
}
