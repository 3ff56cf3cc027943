// Package murre is an embeddable LALR(1) parser generator: register
// tokens and rules with the fluent builder API, call Prepare to run
// grammar analysis, build the LR(0) automaton, compute LALR(1)
// lookaheads and synthesize the parsing table, then call Parse to run
// the table-driven shift/reduce loop over an input stream.
//
// The API mirrors pog's Parser<ValueT>, generalized to Go's lack of
// destructors (builder chains mutate a pending spec directly rather than
// committing on scope exit) and parameterized on the parser's result
// type with a generic rather than a template.
package murre

import (
	"errors"
	"fmt"
	"io"
	"sort"

	"github.com/google/uuid"

	"github.com/halvard/murre/internal/automaton"
	"github.com/halvard/murre/internal/build"
	"github.com/halvard/murre/internal/grammar"
	"github.com/halvard/murre/internal/icerrors"
	"github.com/halvard/murre/internal/lalr"
	"github.com/halvard/murre/internal/lexer"
	"github.com/halvard/murre/internal/table"
)

// Re-exported types so callers never need to import an internal package
// to use the public API.
type (
	Associativity        = grammar.Associativity
	TokenBuilder         = build.TokenBuilder
	RuleBuilder          = build.RuleBuilder
	Report               = table.Report
	SyntaxError          = icerrors.SyntaxError
	TokenizationError    = icerrors.TokenizationError
	ShiftReduceConflict  = icerrors.ShiftReduceConflict
	ReduceReduceConflict = icerrors.ReduceReduceConflict
)

const (
	AssocNone  = grammar.AssocNone
	AssocLeft  = grammar.AssocLeft
	AssocRight = grammar.AssocRight
)

// Parser is a generic LALR(1) parser: V is the type every semantic
// action ultimately produces and the type Parse hands back.
type Parser[V any] struct {
	b *build.Builders

	g   *grammar.Grammar
	a   *automaton.Automaton
	lx  *lexer.Tokenizer
	tbl *table.Table

	trace    func(string)
	prepared bool
}

// New returns an empty Parser ready for Token/Rule declarations.
func New[V any]() *Parser[V] {
	return &Parser[V]{b: build.New()}
}

// Token begins declaring a new lexical pattern.
func (p *Parser[V]) Token(pattern string) *TokenBuilder { return p.b.Token(pattern) }

// EndToken begins declaring an action for the synthetic end-of-input
// token.
func (p *Parser[V]) EndToken() *TokenBuilder { return p.b.EndToken() }

// Rule begins declaring the productions for lhs.
func (p *Parser[V]) Rule(lhs string) *RuleBuilder { return p.b.Rule(lhs) }

// SetStartSymbol records the grammar's start nonterminal.
func (p *Parser[V]) SetStartSymbol(name string) *Parser[V] {
	p.b.SetStartSymbol(name)
	return p
}

// WithNormalization requests NFC normalization of parse input before
// tokenizing.
func (p *Parser[V]) WithNormalization() *Parser[V] {
	p.b.WithNormalization()
	return p
}

// RegisterTraceListener installs a callback invoked with a one-line
// description of every shift, reduce, and accept the runtime performs,
// mirroring ictiobus's lrParser.RegisterTraceListener.
func (p *Parser[V]) RegisterTraceListener(fn func(string)) *Parser[V] {
	p.trace = fn
	return p
}

// Prepare assembles the grammar and tokenizer, builds the LR(0)
// automaton, computes LALR(1) lookaheads, and synthesizes the parsing
// table. The returned Report is non-nil and may describe conflicts even
// when err is nil: conflicts are resolved rather than fatal, the same as
// pog's prepare(). err is non-nil only for a structural problem (no
// start symbol, undefined nonterminal, bad regex).
func (p *Parser[V]) Prepare() (*Report, error) {
	g, lx, err := p.b.Assemble()
	if err != nil {
		return nil, err
	}
	a, err := automaton.Build(g)
	if err != nil {
		return nil, err
	}
	lookaheads := lalr.Lookaheads(a, g)
	tbl, report := table.Build(g, a, lookaheads)

	p.g = g
	p.a = a
	p.lx = lx
	p.tbl = tbl
	p.prepared = true
	return report, nil
}

// Grammar exposes the assembled grammar for diagnostics. Valid only
// after Prepare.
func (p *Parser[V]) Grammar() *grammar.Grammar { return p.g }

// Automaton exposes the built LR(0) collection for diagnostics. Valid
// only after Prepare.
func (p *Parser[V]) Automaton() *automaton.Automaton { return p.a }

// Table exposes the synthesized parsing table for diagnostics. Valid
// only after Prepare.
func (p *Parser[V]) Table() *table.Table { return p.tbl }

// Tokenizer exposes the assembled tokenizer, for diagnostics and for
// tablecache fingerprinting. Valid only after Prepare.
func (p *Parser[V]) Tokenizer() *lexer.Tokenizer { return p.lx }

// Installed reports whether the parser already has an automaton and
// table, either from Prepare or from InstallTable.
func (p *Parser[V]) Installed() bool { return p.prepared }

// InstallTable wires a previously computed automaton and table into the
// parser directly, bypassing automaton construction, lookahead
// computation and table synthesis. It is how a cache hit in
// internal/tablecache feeds a rehydrated table back into a fresh
// Parser: the caller still calls p.Token/p.Rule/... and p.Assemble
// (a Prepare-less path) to get a live grammar and
// tokenizer with real semantic actions, then substitutes the cached
// automaton/table for the ones Prepare would otherwise build.
func (p *Parser[V]) InstallTable(g *grammar.Grammar, lx *lexer.Tokenizer, a *automaton.Automaton, tbl *table.Table) {
	p.g = g
	p.lx = lx
	p.a = a
	p.tbl = tbl
	p.prepared = true
}

// Assemble resolves every pending Token/Rule declaration into a grammar
// and tokenizer without building the automaton or table, for callers
// (tablecache-aware CLIs) that want to fingerprint the grammar before
// deciding whether to run the expensive part of Prepare or restore a
// cached table with InstallTable instead.
func (p *Parser[V]) Assemble() (*grammar.Grammar, *lexer.Tokenizer, error) {
	return p.b.Assemble()
}

// Parse runs the table-driven shift/reduce loop over r and returns the
// value the start rule's action produced.
func (p *Parser[V]) Parse(r io.Reader) (V, error) {
	var zero V
	if !p.prepared {
		return zero, fmt.Errorf("murre: Parse called before Prepare")
	}

	sessionID := uuid.NewString()
	p.notifyTrace(fmt.Sprintf("[%s] parse starting", sessionID))

	if err := p.lx.SetInput(r); err != nil {
		return zero, err
	}

	stateStack := []int{p.tbl.Start()}
	valueStack := []any{}

	for {
		state := stateStack[len(stateStack)-1]

		tok, err := p.lx.Peek()
		if err != nil {
			var te *icerrors.TokenizationError
			if errors.As(err, &te) {
				return zero, &icerrors.SyntaxError{Known: false, Expected: p.expectedNames(state), Offset: te.Offset}
			}
			return zero, err
		}

		symIdx := p.g.EndSymbol()
		if !tok.IsEnd {
			idx, ok := p.g.SymbolByName(tok.Symbol)
			if !ok {
				return zero, fmt.Errorf("murre: tokenizer produced symbol %q not declared in the grammar", tok.Symbol)
			}
			symIdx = idx
		}

		act, ok := p.tbl.Action(state, symIdx)
		if !ok {
			name := p.g.Symbol(symIdx).Name()
			return zero, &icerrors.SyntaxError{Known: true, Unexpected: name, Expected: p.expectedNames(state), Offset: tok.Offset}
		}

		p.notifyAction(state, symIdx, act)

		switch act.Kind {
		case table.Shift:
			valueStack = append(valueStack, tok.Value)
			stateStack = append(stateStack, act.State)
			p.lx.Consume()

		case table.Reduce:
			rule := p.g.Rule(act.Rule)
			n := rule.Len()
			args := append([]any(nil), valueStack[len(valueStack)-n:]...)
			valueStack = valueStack[:len(valueStack)-n]
			stateStack = stateStack[:len(stateStack)-n]

			result := rule.Action()(args)

			top := stateStack[len(stateStack)-1]
			next, ok := p.tbl.Goto(top, rule.LHS())
			if !ok {
				return zero, fmt.Errorf("murre: no goto from state %d on %s", top, p.g.Symbol(rule.LHS()).Name())
			}
			stateStack = append(stateStack, next)
			valueStack = append(valueStack, result)

		case table.Accept:
			rule := p.g.Rule(act.Rule)
			n := rule.Len()
			args := valueStack[len(valueStack)-n:]
			result := rule.Action()(args)
			p.notifyTrace(fmt.Sprintf("[%s] parse accepted", sessionID))
			if result == nil {
				return zero, nil
			}
			v, ok := result.(V)
			if !ok {
				return zero, fmt.Errorf("murre: start rule produced %T, want %T", result, zero)
			}
			return v, nil
		}
	}
}

func (p *Parser[V]) expectedNames(state int) []string {
	terms := append(append([]int(nil), p.g.Terminals()...), p.g.EndSymbol())
	var names []string
	for _, t := range terms {
		if _, ok := p.tbl.Action(state, t); ok {
			names = append(names, p.g.Symbol(t).Name())
		}
	}
	sort.Strings(names)
	return names
}

func (p *Parser[V]) notifyTrace(s string) {
	if p.trace != nil {
		p.trace(s)
	}
}

func (p *Parser[V]) notifyAction(state, sym int, act table.Action) {
	if p.trace == nil {
		return
	}
	p.trace(fmt.Sprintf("state %d, symbol %s: %s", state, p.g.Symbol(sym).Name(), act.Kind))
}
