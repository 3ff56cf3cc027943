// Package icerrors holds the concrete error types returned by grammar
// preparation and by the runtime parse loop. They satisfy the standard
// error interface and are meant to be inspected with errors.As by callers
// that want more than the formatted message.
package icerrors

import (
	"fmt"
	"strings"
)

// SyntaxError is returned by Parser.Parse when the token stream does not
// match any entry in the parsing table for the current state. It covers
// two distinct situations: a token the tokenizer recognized but that the
// grammar does not accept here, and input the tokenizer could not turn
// into any token at all.
type SyntaxError struct {
	// Unexpected is the name of the offending symbol. Empty when Known is
	// false.
	Unexpected string

	// Known is true when the tokenizer produced a real token that the
	// table simply did not expect in the current state.
	Known bool

	// Expected holds the names of the symbols that would have been
	// accepted, sorted by name.
	Expected []string

	// Offset is the byte offset of the offending input, if known.
	Offset int
}

func (e *SyntaxError) Error() string {
	expected := strings.Join(e.Expected, ", ")
	if e.Known {
		return fmt.Sprintf("Syntax error: Unexpected %s, expected one of %s", e.Unexpected, expected)
	}
	return fmt.Sprintf("Syntax error: Unknown symbol on input, expected one of %s", expected)
}

// TokenizationError is produced internally by the tokenizer when no
// registered pattern matches at the current cursor position in the
// active lexer state. The runtime catches this and re-surfaces it as a
// SyntaxError with Known set to false, but code operating on the
// tokenizer directly (such as the lexer tests) can inspect it on its own.
type TokenizationError struct {
	Offset int
	State  string
}

func (e *TokenizationError) Error() string {
	return fmt.Sprintf("tokenization error at byte offset %d: no pattern matched in state %q", e.Offset, e.State)
}

// ShiftReduceConflict records a single shift/reduce conflict discovered
// while building the parsing table.
type ShiftReduceConflict struct {
	Symbol string
	Rule   string
	State  int
}

func (e *ShiftReduceConflict) Error() string {
	return fmt.Sprintf("Shift-reduce conflict of symbol '%s' and rule '%s' in state %d", e.Symbol, e.Rule, e.State)
}

// ReduceReduceConflict records a single reduce/reduce conflict discovered
// while building the parsing table.
type ReduceReduceConflict struct {
	Rule1 string
	Rule2 string
	State int
}

func (e *ReduceReduceConflict) Error() string {
	return fmt.Sprintf("Reduce-reduce conflict of rule '%s' and rule '%s' in state %d", e.Rule1, e.Rule2, e.State)
}

// GrammarError carries a free-form message about a grammar problem. The
// grammar, build and murre packages report their assembly errors as
// fmt.Errorf values; none of them returns a GrammarError.
type GrammarError struct {
	Msg string
}

func (e *GrammarError) Error() string {
	return e.Msg
}
