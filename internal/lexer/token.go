package lexer

import (
	"fmt"
	"regexp"
)

// TokenSpec is one registered lexical pattern: a regular expression, the
// lexer states in which it is tried, an optional state transition to
// apply on match, and the action that turns the matched text into a
// value. A TokenSpec with an empty Symbol is silent: it is recognized
// and discarded (whitespace, comments) rather than ever reaching the
// parser.
type TokenSpec struct {
	Index      int
	Pattern    string
	Regexp     *regexp.Regexp
	Symbol     string
	States     []string
	EnterState string
	Fullword   bool
	Action     func(matched string) any
}

// NewTokenSpec compiles pattern (after applying the fullword transform,
// if requested) into an anchored regular expression suitable for
// matching against the remaining unconsumed input starting at offset
// zero, and returns the assembled TokenSpec.
func NewTokenSpec(index int, pattern, symbol string, states []string, enterState string, fullword bool, action func(string) any) (*TokenSpec, error) {
	effective := pattern
	if fullword {
		effective = `\b` + pattern + `(\b|$)`
	}
	re, err := regexp.Compile("^(?:" + effective + ")")
	if err != nil {
		return nil, fmt.Errorf("lexer: invalid pattern %q: %w", pattern, err)
	}
	if len(states) == 0 {
		states = []string{DefaultState}
	}
	return &TokenSpec{
		Index:      index,
		Pattern:    pattern,
		Regexp:     re,
		Symbol:     symbol,
		States:     states,
		EnterState: enterState,
		Fullword:   fullword,
		Action:     action,
	}, nil
}

func (t *TokenSpec) activeIn(state string) bool {
	for _, s := range t.States {
		if s == state {
			return true
		}
	}
	return false
}

// Silent reports whether matches of this token are discarded rather than
// emitted to the parser.
func (t *TokenSpec) Silent() bool { return t.Symbol == "" }
