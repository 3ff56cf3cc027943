package lalr

import "github.com/halvard/murre/internal/grammar"

// sccClose computes, for every node, the union of its own initial value
// and the values of every node reachable from it via adj, in a single
// pass: Tarjan's algorithm visits the digraph once, and because it
// finishes each strongly-connected component only after every node it
// can reach has either been finished or is part of the same component,
// a component's final value can be assigned the moment it is popped —
// no repeated fixpoint iteration is needed.
func sccClose(nodes []ntNode, initial map[ntNode]grammar.IntSet, adj map[ntNode][]ntNode) map[ntNode]grammar.IntSet {
	t := &tarjanWalk{
		initial: initial,
		adj:     adj,
		indices: map[ntNode]int{},
		low:     map[ntNode]int{},
		onStack: map[ntNode]bool{},
		result:  map[ntNode]grammar.IntSet{},
	}
	for _, n := range nodes {
		if _, ok := t.indices[n]; !ok {
			t.strongconnect(n)
		}
	}
	return t.result
}

type tarjanWalk struct {
	initial map[ntNode]grammar.IntSet
	adj     map[ntNode][]ntNode

	index   int
	indices map[ntNode]int
	low     map[ntNode]int
	onStack map[ntNode]bool
	stack   []ntNode
	result  map[ntNode]grammar.IntSet
}

func (t *tarjanWalk) strongconnect(v ntNode) {
	t.indices[v] = t.index
	t.low[v] = t.index
	t.index++
	t.stack = append(t.stack, v)
	t.onStack[v] = true

	for _, w := range t.adj[v] {
		if _, ok := t.indices[w]; !ok {
			t.strongconnect(w)
			if t.low[w] < t.low[v] {
				t.low[v] = t.low[w]
			}
		} else if t.onStack[w] {
			if t.indices[w] < t.low[v] {
				t.low[v] = t.indices[w]
			}
		}
	}

	if t.low[v] != t.indices[v] {
		return
	}

	var members []ntNode
	for {
		n := len(t.stack) - 1
		w := t.stack[n]
		t.stack = t.stack[:n]
		t.onStack[w] = false
		members = append(members, w)
		if w == v {
			break
		}
	}

	memberSet := make(map[ntNode]bool, len(members))
	combined := grammar.IntSet{}
	for _, m := range members {
		memberSet[m] = true
		combined.AddAll(t.initial[m])
	}
	for _, m := range members {
		for _, w := range t.adj[m] {
			if !memberSet[w] {
				combined.AddAll(t.result[w])
			}
		}
	}
	for m := range memberSet {
		t.result[m] = combined
	}
}
