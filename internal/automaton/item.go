package automaton

import (
	"sort"

	"github.com/halvard/murre/internal/grammar"
)

// Item is an LR(0) item: a rule together with a dot position into its
// right-hand side. Dot == len(rule.RHS()) means the item is a reduce
// item.
type Item struct {
	Rule int
	Dot  int
}

func less(a, b Item) bool {
	if a.Rule != b.Rule {
		return a.Rule < b.Rule
	}
	return a.Dot < b.Dot
}

// sortItems sorts and dedupes a slice of items in place, returning the
// deduplicated slice. Canonical ordering is what makes two states with
// the same item set compare equal as kernels.
func sortItems(items []Item) []Item {
	sort.Slice(items, func(i, j int) bool { return less(items[i], items[j]) })
	out := items[:0]
	var prev Item
	havePrev := false
	for _, it := range items {
		if havePrev && it == prev {
			continue
		}
		out = append(out, it)
		prev = it
		havePrev = true
	}
	return out
}

// symbolAtDot returns the RHS symbol index at the item's dot and true, or
// (0, false) if the dot is at the end of the rule.
func symbolAtDot(g *grammar.Grammar, it Item) (int, bool) {
	rhs := g.Rule(it.Rule).RHS()
	if it.Dot >= len(rhs) {
		return 0, false
	}
	return rhs[it.Dot], true
}

// Closure computes the closure of a kernel item set: for every item with
// the dot immediately before a nonterminal A, every production of A is
// added with its dot at position 0, repeated to a fixpoint.
func Closure(g *grammar.Grammar, kernel []Item) []Item {
	items := append([]Item(nil), kernel...)
	seen := make(map[Item]bool, len(items)*2)
	for _, it := range items {
		seen[it] = true
	}
	worklist := append([]Item(nil), items...)
	for len(worklist) > 0 {
		it := worklist[len(worklist)-1]
		worklist = worklist[:len(worklist)-1]
		sym, ok := symbolAtDot(g, it)
		if !ok || !g.Symbol(sym).IsNonterminal() {
			continue
		}
		for _, r := range g.Rules() {
			if r.LHS() != sym {
				continue
			}
			cand := Item{Rule: r.Index(), Dot: 0}
			if !seen[cand] {
				seen[cand] = true
				items = append(items, cand)
				worklist = append(worklist, cand)
			}
		}
	}
	return sortItems(items)
}

// Goto computes GOTO(items, sym): advance the dot past sym in every item
// that has sym immediately after its dot, then take the closure.
func Goto(g *grammar.Grammar, items []Item, sym int) []Item {
	var moved []Item
	for _, it := range items {
		s, ok := symbolAtDot(g, it)
		if ok && s == sym {
			moved = append(moved, Item{Rule: it.Rule, Dot: it.Dot + 1})
		}
	}
	if len(moved) == 0 {
		return nil
	}
	return Closure(g, moved)
}

// kernelOf extracts the kernel of a closed item set: the items that were
// not added purely by closure, i.e. those with Dot > 0, plus the seed
// item(s) with Dot == 0 for the augmenting start rule (the only rule
// whose Dot==0 item is ever a kernel item).
func kernelOf(g *grammar.Grammar, items []Item, startRule int) []Item {
	var kernel []Item
	for _, it := range items {
		if it.Dot > 0 || it.Rule == startRule {
			kernel = append(kernel, it)
		}
	}
	return sortItems(kernel)
}

func kernelKey(kernel []Item) string {
	b := make([]byte, 0, len(kernel)*8)
	for _, it := range kernel {
		b = appendInt(b, it.Rule)
		b = append(b, ':')
		b = appendInt(b, it.Dot)
		b = append(b, ',')
	}
	return string(b)
}

func appendInt(b []byte, v int) []byte {
	if v == 0 {
		return append(b, '0')
	}
	neg := v < 0
	if neg {
		v = -v
		b = append(b, '-')
	}
	start := len(b)
	for v > 0 {
		b = append(b, byte('0'+v%10))
		v /= 10
	}
	// reverse the digits just appended
	end := len(b) - 1
	for i, j := start, end; i < j; i, j = i+1, j-1 {
		b[i], b[j] = b[j], b[i]
	}
	return b
}
