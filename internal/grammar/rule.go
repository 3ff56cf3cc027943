package grammar

import "strings"

// Action is the semantic action attached to a rule. It receives the
// values produced by each symbol on the rule's right-hand side, in
// order, and returns the value for the left-hand nonterminal. The
// synthesized start rule's action forwards args[0]. A production declared
// through the build package without an explicit action gets a default
// that forwards args[0] for a single-symbol right-hand side and yields nil
// otherwise; a midrule-action helper nonterminal's rule carries the
// midrule function itself.
type Action func(args []any) any

// Rule is one production, LHS -> RHS, in the grammar's dense rule table.
// Index is its position in that table and is what items, actions, and
// conflict reports refer to.
type Rule struct {
	index int
	lhs   int
	rhs   []int
	act   Action
	prec  *Precedence
}

func (r *Rule) Index() int   { return r.index }
func (r *Rule) LHS() int     { return r.lhs }
func (r *Rule) RHS() []int   { return r.rhs }
func (r *Rule) Len() int     { return len(r.rhs) }
func (r *Rule) Action() Action { return r.act }

// EffectivePrecedence returns the precedence used to resolve a
// shift/reduce conflict where this rule is the reduce candidate: the
// rule's own override if it declared one, else the precedence of the
// rightmost terminal on its right-hand side, else ok=false.
func (r *Rule) EffectivePrecedence(g *Grammar) (Precedence, bool) {
	if r.prec != nil {
		return *r.prec, true
	}
	for i := len(r.rhs) - 1; i >= 0; i-- {
		sym := g.Symbol(r.rhs[i])
		if sym.IsTerminal() {
			if p, ok := sym.Precedence(); ok {
				return p, true
			}
			return Precedence{}, false
		}
	}
	return Precedence{}, false
}

// String renders the rule the way the original pog grammar does:
// "LHS -> s1 s2", or "LHS -> <eps>" for an empty right-hand side.
func (r *Rule) String(g *Grammar) string {
	var b strings.Builder
	b.WriteString(g.Symbol(r.lhs).Name())
	b.WriteString(" -> ")
	if len(r.rhs) == 0 {
		b.WriteString("<eps>")
		return b.String()
	}
	for i, s := range r.rhs {
		if i > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(g.Symbol(s).Name())
	}
	return b.String()
}
