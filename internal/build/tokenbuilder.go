package build

import "github.com/halvard/murre/internal/grammar"

// TokenBuilder is the fluent chain returned by Builders.Token /
// Builders.EndToken.
type TokenBuilder struct {
	owner *Builders
	spec  *pendingToken
	isEnd bool
}

// Symbol gives this pattern a grammar-visible name. A token with no
// Symbol call is silent: it is matched and discarded by the tokenizer
// but never reaches the parser (the usual way to declare whitespace or
// comments).
func (tb *TokenBuilder) Symbol(name string) *TokenBuilder {
	tb.spec.symbol = name
	return tb
}

// States restricts this pattern to the named lexer states. Unset, a
// token is active in the @default state only.
func (tb *TokenBuilder) States(names ...string) *TokenBuilder {
	tb.spec.states = names
	return tb
}

// EnterState applies a lexer-state transition when this pattern matches;
// see lexer.Tokenizer.EnterState for the "@" vs plain name semantics.
func (tb *TokenBuilder) EnterState(name string) *TokenBuilder {
	tb.spec.enterState = name
	return tb
}

// Fullword requires the match to fall on word boundaries, equivalent to
// wrapping the pattern in \b...(\b|$).
func (tb *TokenBuilder) Fullword() *TokenBuilder {
	tb.spec.fullword = true
	return tb
}

// Precedence declares this terminal's precedence level and
// associativity, used to resolve shift/reduce conflicts against rules
// that end with it.
func (tb *TokenBuilder) Precedence(level uint, assoc grammar.Associativity) *TokenBuilder {
	tb.spec.hasPrec = true
	tb.spec.precLevel = level
	tb.spec.precAssoc = assoc
	return tb
}

// Action attaches the function that turns matched text into a value.
func (tb *TokenBuilder) Action(fn func(matched string) any) *TokenBuilder {
	if tb.isEnd {
		tb.owner.endAction = func() any { return fn("") }
		return tb
	}
	tb.spec.action = fn
	return tb
}
