package build

import (
	"fmt"

	"github.com/halvard/murre/internal/grammar"
)

// RuleBuilder is the fluent chain returned by Builders.Rule. A single
// RuleBuilder can declare several alternative productions for the same
// left-hand side by calling Production more than once.
type RuleBuilder struct {
	owner *Builders
	lhs   string
	pr    *pendingRule
	cur   *pendingProduction
}

// Production declares one right-hand side. Each part is either a symbol
// name (string) or a mid-rule action (func([]any) any): an action
// interleaved between symbols is spliced in as an anonymous
// epsilon-producing nonterminal whose sole production runs that action
// when its dot is crossed, the same way pog splits a midrule action into
// its own synthesized rule.
func (rb *RuleBuilder) Production(parts ...any) *RuleBuilder {
	prod := &pendingProduction{}
	for _, p := range parts {
		switch v := p.(type) {
		case string:
			prod.rhs = append(prod.rhs, v)
		case func([]any) any:
			prod.rhs = append(prod.rhs, &midruleMarker{fn: grammar.Action(v)})
		case grammar.Action:
			prod.rhs = append(prod.rhs, &midruleMarker{fn: v})
		default:
			panic(fmt.Sprintf("build: production part must be a symbol name or a mid-rule action func, got %T", p))
		}
	}
	rb.pr.productions = append(rb.pr.productions, prod)
	rb.cur = prod
	return rb
}

// Action attaches the semantic action for the production most recently
// started with Production.
func (rb *RuleBuilder) Action(fn func(args []any) any) *RuleBuilder {
	rb.cur.action = grammar.Action(fn)
	return rb
}

// Precedence overrides the precedence used to resolve a shift/reduce
// conflict where the most recently started production is the reduce
// candidate, instead of defaulting to its rightmost terminal's.
func (rb *RuleBuilder) Precedence(level uint, assoc grammar.Associativity) *RuleBuilder {
	rb.cur.hasPrec = true
	rb.cur.precLevel = level
	rb.cur.precAssoc = assoc
	return rb
}
