// Package build provides the fluent TokenBuilder/RuleBuilder API used to
// register a grammar's tokens and rules before assembly. Each builder
// method mutates a pending spec held by the owning Builders rather than
// waiting for an explicit terminal call — Go has no destructors to hang
// a ".done()" off of the way pog's token_builder.h/rule_builder.h do, so
// the pending spec is simply live in the owner's slice from the moment
// the chain starts; Assemble is the single explicit point where
// everything pending is resolved into a grammar.Grammar and a
// lexer.Tokenizer.
package build

import (
	"fmt"

	"github.com/halvard/murre/internal/grammar"
	"github.com/halvard/murre/internal/lexer"
)

type pendingToken struct {
	pattern    string
	symbol     string
	states     []string
	enterState string
	fullword   bool
	hasPrec    bool
	precLevel  uint
	precAssoc  grammar.Associativity
	action     func(string) any
}

type midruleMarker struct {
	fn grammar.Action
}

type pendingProduction struct {
	rhs       []any // string (symbol name) or *midruleMarker
	action    grammar.Action
	hasPrec   bool
	precLevel uint
	precAssoc grammar.Associativity
}

type pendingRule struct {
	lhs         string
	productions []*pendingProduction
}

// Builders accumulates token and rule declarations until Assemble
// resolves them into a grammar.Grammar and a lexer.Tokenizer.
type Builders struct {
	pendingTokens []*pendingToken
	pendingRules  []*pendingRule

	startSymbol string
	startSet    bool

	endAction func() any
	normalize bool

	midruleSeq map[string]int
}

// New returns an empty Builders ready to accept Token/Rule declarations.
func New() *Builders {
	return &Builders{midruleSeq: map[string]int{}}
}

// WithNormalization requests NFC input normalization on the assembled
// Tokenizer (see lexer.WithNormalization).
func (b *Builders) WithNormalization() *Builders {
	b.normalize = true
	return b
}

// Token begins declaring a new lexical pattern.
func (b *Builders) Token(pattern string) *TokenBuilder {
	pt := &pendingToken{pattern: pattern}
	b.pendingTokens = append(b.pendingTokens, pt)
	return &TokenBuilder{spec: pt}
}

// EndToken begins declaring an action for the synthetic end-of-input
// token. Only Action is meaningful on the returned builder.
func (b *Builders) EndToken() *TokenBuilder {
	return &TokenBuilder{owner: b, isEnd: true, spec: &pendingToken{}}
}

// SetStartSymbol records the grammar's start nonterminal.
func (b *Builders) SetStartSymbol(name string) *Builders {
	b.startSymbol = name
	b.startSet = true
	return b
}

// Rule begins declaring the productions for lhs.
func (b *Builders) Rule(lhs string) *RuleBuilder {
	pr := &pendingRule{lhs: lhs}
	b.pendingRules = append(b.pendingRules, pr)
	return &RuleBuilder{owner: b, lhs: lhs, pr: pr}
}

// Assemble resolves every pending token and rule declaration into a
// grammar.Grammar and a matching lexer.Tokenizer. It is the build
// package's equivalent of pog's prepare(): the one point where deferred
// registration turns into a concrete, indexed grammar.
func (b *Builders) Assemble() (*grammar.Grammar, *lexer.Tokenizer, error) {
	if !b.startSet {
		return nil, nil, fmt.Errorf("build: no start symbol set")
	}

	g := grammar.New()

	for _, pt := range b.pendingTokens {
		if pt.symbol == "" {
			continue
		}
		var prec *grammar.Precedence
		if pt.hasPrec {
			prec = &grammar.Precedence{Level: pt.precLevel, Assoc: pt.precAssoc}
		}
		if _, err := g.RegisterTerminal(pt.symbol, prec); err != nil {
			return nil, nil, err
		}
	}

	if _, err := g.SetStartSymbol(b.startSymbol); err != nil {
		return nil, nil, err
	}

	for _, pr := range b.pendingRules {
		for _, prod := range pr.productions {
			markers := 0
			for _, part := range prod.rhs {
				if _, ok := part.(*midruleMarker); ok {
					markers++
				}
			}
			containingIndex := g.NumRules() + markers

			rhsNames := make([]string, 0, len(prod.rhs))
			n := 0
			for _, part := range prod.rhs {
				switch v := part.(type) {
				case string:
					rhsNames = append(rhsNames, v)
				case *midruleMarker:
					n++
					name := fmt.Sprintf("_%s#%d.%d", pr.lhs, containingIndex, n)
					if _, err := g.AddRule(name, nil, v.fn, nil); err != nil {
						return nil, nil, err
					}
					rhsNames = append(rhsNames, name)
				default:
					return nil, nil, fmt.Errorf("build: unexpected production element %T", part)
				}
			}

			act := prod.action
			if act == nil {
				act = defaultAction(len(rhsNames))
			}
			var prec *grammar.Precedence
			if prod.hasPrec {
				prec = &grammar.Precedence{Level: prod.precLevel, Assoc: prod.precAssoc}
			}
			if _, err := g.AddRule(pr.lhs, rhsNames, act, prec); err != nil {
				return nil, nil, err
			}
		}
	}

	if err := g.Validate(); err != nil {
		return nil, nil, err
	}

	specs := make([]*lexer.TokenSpec, 0, len(b.pendingTokens))
	for i, pt := range b.pendingTokens {
		spec, err := lexer.NewTokenSpec(i, pt.pattern, pt.symbol, pt.states, pt.enterState, pt.fullword, pt.action)
		if err != nil {
			return nil, nil, err
		}
		specs = append(specs, spec)
	}

	var opts []lexer.Option
	if b.normalize {
		opts = append(opts, lexer.WithNormalization())
	}
	if b.endAction != nil {
		opts = append(opts, lexer.WithEndAction(b.endAction))
	}

	return g, lexer.New(specs, opts...), nil
}

// defaultAction is used when a production declares no explicit action: a
// single-symbol rule forwards its one value, anything else yields nil.
func defaultAction(rhsLen int) grammar.Action {
	return func(args []any) any {
		if rhsLen == 1 && len(args) == 1 {
			return args[0]
		}
		return nil
	}
}
