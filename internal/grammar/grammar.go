// Package grammar holds the grammar analysis layer: symbols, rules, and
// the Empty/First/Follow computations the rest of the generator builds
// on. Symbols and rules live in dense [0,N) index spaces; every other
// package refers to them by index rather than by name once a Grammar has
// been assembled.
package grammar

import (
	"fmt"
)

// Grammar is the registration-time and query-time home for a single
// context-free grammar. It starts life with two synthetic symbols
// already registered (the augmenting start symbol and the end-of-input
// marker) and grows by RegisterTerminal/RegisterNonterminal/AddRule
// calls, typically driven by the build package's fluent builders.
type Grammar struct {
	symbols []*Symbol
	byName  map[string]int
	rules   []*Rule

	startIndex int // synthetic <start>
	endIndex   int // synthetic @end
	start      int // user's start nonterminal, -1 until SetStartSymbol
	startRule  int // index of <start> -> S @end, -1 until SetStartSymbol

	emptyMemo  map[int]bool
	firstMemo  map[int]IntSet
	followMemo map[int]IntSet
}

// New returns an empty Grammar with its two synthetic symbols already
// registered.
func New() *Grammar {
	g := &Grammar{
		byName: map[string]int{},
		start:  -1,
	}
	g.startIndex = g.addSymbol("<start>", KindStart, nil)
	g.endIndex = g.addSymbol("@end", KindEnd, nil)
	return g
}

func (g *Grammar) addSymbol(name string, kind SymbolKind, prec *Precedence) int {
	idx := len(g.symbols)
	g.symbols = append(g.symbols, &Symbol{index: idx, name: name, kind: kind, prec: prec})
	g.byName[name] = idx
	return idx
}

func (g *Grammar) invalidateMemo() {
	g.emptyMemo = nil
	g.firstMemo = nil
	g.followMemo = nil
}

// RegisterTerminal returns the index of the terminal named name, creating
// it (with the given precedence, which may be nil) if this is the first
// time it has been seen. Calling it again for a name already registered
// as a terminal updates the precedence if one is given.
func (g *Grammar) RegisterTerminal(name string, prec *Precedence) (int, error) {
	if idx, ok := g.byName[name]; ok {
		sym := g.symbols[idx]
		switch sym.kind {
		case KindStart, KindEnd:
			return 0, fmt.Errorf("grammar: %q is a reserved symbol name", name)
		case KindNonterminal:
			return 0, fmt.Errorf("grammar: %q is already registered as a nonterminal", name)
		}
		if prec != nil {
			sym.prec = prec
		}
		return idx, nil
	}
	return g.addSymbol(name, KindTerminal, prec), nil
}

// RegisterNonterminal returns the index of the nonterminal named name,
// creating it if necessary. If name was previously seen only as a
// right-hand-side reference (and so tentatively registered as a
// terminal), it is promoted to a nonterminal here — this is how the
// grammar tells terminals from nonterminals without requiring tokens to
// be declared before rules: any name that is ever the left-hand side of
// a rule is a nonterminal, full stop.
func (g *Grammar) RegisterNonterminal(name string) (int, error) {
	if idx, ok := g.byName[name]; ok {
		sym := g.symbols[idx]
		switch sym.kind {
		case KindStart, KindEnd:
			return 0, fmt.Errorf("grammar: %q is a reserved symbol name", name)
		case KindTerminal:
			sym.kind = KindNonterminal
			sym.prec = nil
		}
		return idx, nil
	}
	return g.addSymbol(name, KindNonterminal, nil), nil
}

// resolveRHS returns the index for a right-hand-side reference, creating
// a tentative terminal if the name has never been seen.
func (g *Grammar) resolveRHS(name string) int {
	if idx, ok := g.byName[name]; ok {
		return idx
	}
	return g.addSymbol(name, KindTerminal, nil)
}

// SetStartSymbol registers name as the grammar's start nonterminal and
// synthesizes the augmenting rule <start> -> name @end. It may be called
// only once.
func (g *Grammar) SetStartSymbol(name string) (int, error) {
	if g.start >= 0 {
		return 0, fmt.Errorf("grammar: start symbol already set to %q", g.symbols[g.start].name)
	}
	idx, err := g.RegisterNonterminal(name)
	if err != nil {
		return 0, err
	}
	g.start = idx
	r := &Rule{
		index: len(g.rules),
		lhs:   g.startIndex,
		rhs:   []int{idx, g.endIndex},
		act: func(args []any) any {
			if len(args) > 0 {
				return args[0]
			}
			return nil
		},
	}
	g.startRule = r.index
	g.rules = append(g.rules, r)
	g.invalidateMemo()
	return idx, nil
}

// AddRule appends a production lhsName -> rhsNames to the grammar. Both
// sides are resolved/registered as described by RegisterNonterminal and
// resolveRHS. prec may be nil, in which case the rule's effective
// precedence falls back to its rightmost terminal's.
func (g *Grammar) AddRule(lhsName string, rhsNames []string, act Action, prec *Precedence) (int, error) {
	lhs, err := g.RegisterNonterminal(lhsName)
	if err != nil {
		return 0, err
	}
	rhs := make([]int, len(rhsNames))
	for i, n := range rhsNames {
		rhs[i] = g.resolveRHS(n)
	}
	r := &Rule{index: len(g.rules), lhs: lhs, rhs: rhs, act: act, prec: prec}
	g.rules = append(g.rules, r)
	g.invalidateMemo()
	return r.index, nil
}

func (g *Grammar) Symbol(i int) *Symbol { return g.symbols[i] }
func (g *Grammar) NumSymbols() int      { return len(g.symbols) }

func (g *Grammar) SymbolByName(name string) (int, bool) {
	idx, ok := g.byName[name]
	return idx, ok
}

func (g *Grammar) Rule(i int) *Rule  { return g.rules[i] }
func (g *Grammar) Rules() []*Rule    { return g.rules }
func (g *Grammar) NumRules() int     { return len(g.rules) }
func (g *Grammar) EndSymbol() int    { return g.endIndex }
func (g *Grammar) AugStart() int     { return g.startIndex }
func (g *Grammar) StartSymbol() int  { return g.start }
func (g *Grammar) StartRule() int    { return g.startRule }

func (g *Grammar) Terminals() []int {
	var out []int
	for _, s := range g.symbols {
		if s.kind == KindTerminal {
			out = append(out, s.index)
		}
	}
	return out
}

func (g *Grammar) Nonterminals() []int {
	var out []int
	for _, s := range g.symbols {
		if s.kind == KindNonterminal {
			out = append(out, s.index)
		}
	}
	return out
}

// Validate checks that the grammar is ready for automaton construction:
// a start symbol has been set, and every nonterminal has at least one
// production. A name that only ever appears on right-hand sides is a
// terminal and is not checked here, so in practice this fails only for a
// start symbol that was never given a rule.
func (g *Grammar) Validate() error {
	if g.start < 0 {
		return fmt.Errorf("grammar: no start symbol set")
	}
	hasRule := make([]bool, len(g.symbols))
	for _, r := range g.rules {
		hasRule[r.lhs] = true
	}
	for _, s := range g.symbols {
		if s.kind == KindNonterminal && !hasRule[s.index] {
			return fmt.Errorf("grammar: nonterminal %q has no productions", s.name)
		}
	}
	return nil
}

// Empty reports whether the symbol at idx can derive the empty string.
func (g *Grammar) Empty(idx int) bool {
	if g.emptyMemo == nil {
		g.emptyMemo = make(map[int]bool, len(g.symbols))
	}
	if v, ok := g.emptyMemo[idx]; ok {
		return v
	}
	v := g.emptyRec(idx, IntSet{})
	g.emptyMemo[idx] = v
	return v
}

func (g *Grammar) emptyRec(idx int, exploring IntSet) bool {
	if v, ok := g.emptyMemo[idx]; ok {
		return v
	}
	sym := g.symbols[idx]
	if sym.IsTerminal() {
		return false
	}
	if exploring.Has(idx) {
		return false
	}
	exploring.Add(idx)
	for _, r := range g.rules {
		if r.lhs != idx {
			continue
		}
		if g.emptySeq(r.rhs, exploring) {
			return true
		}
	}
	return false
}

func (g *Grammar) emptySeq(seq []int, exploring IntSet) bool {
	for _, s := range seq {
		if !g.emptyRec(s, exploring) {
			return false
		}
	}
	return true
}

// First returns the set of terminals that can begin some string derived
// from the symbol at idx.
func (g *Grammar) First(idx int) IntSet {
	if g.firstMemo == nil {
		g.firstMemo = make(map[int]IntSet, len(g.symbols))
	}
	if v, ok := g.firstMemo[idx]; ok {
		return v
	}
	v := g.firstRec(idx, IntSet{})
	g.firstMemo[idx] = v
	return v
}

func (g *Grammar) firstRec(idx int, exploring IntSet) IntSet {
	if v, ok := g.firstMemo[idx]; ok {
		return v
	}
	sym := g.symbols[idx]
	if sym.IsTerminal() {
		return NewIntSet(idx)
	}
	if exploring.Has(idx) {
		return IntSet{}
	}
	exploring.Add(idx)
	result := IntSet{}
	for _, r := range g.rules {
		if r.lhs != idx {
			continue
		}
		result.AddAll(g.firstOfSeq(r.rhs, exploring))
	}
	return result
}

func (g *Grammar) firstOfSeq(seq []int, exploring IntSet) IntSet {
	result := IntSet{}
	for _, s := range seq {
		result.AddAll(g.firstRec(s, exploring))
		if !g.Empty(s) {
			break
		}
	}
	return result
}

// FirstOfSequence returns First(seq[0] seq[1] ...), the set Follow uses
// for the multi-symbol tail after a nonterminal in a rule.
func (g *Grammar) FirstOfSequence(seq []int) IntSet {
	return g.firstOfSeq(seq, IntSet{})
}

// EmptyOfSequence reports whether every symbol in seq is nullable
// (vacuously true for an empty seq).
func (g *Grammar) EmptyOfSequence(seq []int) bool {
	return g.emptySeq(seq, IntSet{})
}

// Follow returns the set of terminals that can immediately follow the
// nonterminal at idx in some derivation from the start symbol.
func (g *Grammar) Follow(idx int) IntSet {
	g.ensureFollow()
	return g.followMemo[idx]
}

func (g *Grammar) ensureFollow() {
	if g.followMemo != nil {
		return
	}
	follow := make(map[int]IntSet, len(g.symbols))
	for i := range g.symbols {
		follow[i] = IntSet{}
	}
	if g.start >= 0 {
		follow[g.start].Add(g.endIndex)
	}
	changed := true
	for changed {
		changed = false
		for _, r := range g.rules {
			for i, s := range r.rhs {
				if !g.symbols[s].IsNonterminal() {
					continue
				}
				beta := r.rhs[i+1:]
				if follow[s].AddAll(g.FirstOfSequence(beta)) {
					changed = true
				}
				if g.EmptyOfSequence(beta) {
					if follow[s].AddAll(follow[r.lhs]) {
						changed = true
					}
				}
			}
		}
	}
	g.followMemo = follow
}
