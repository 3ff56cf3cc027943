// Package lexer implements the stateful longest-match tokenizer: a set
// of registered regular-expression patterns, grouped by named lexer
// state, scanned longest-match-wins with ties broken by registration
// order, with support for silent (discarded) tokens and enter_state
// transitions that switch which patterns are active.
package lexer

import (
	"io"
	"strings"

	"github.com/halvard/murre/internal/icerrors"
	"golang.org/x/text/unicode/norm"
)

// DefaultState is the name every TokenSpec is active in unless it
// declares its own States list.
const DefaultState = "@default"

// Token is one lexical unit produced by the tokenizer: either a real
// token (Symbol non-empty) or the synthetic end-of-input marker
// (IsEnd true).
type Token struct {
	Symbol string
	Value  any
	Offset int
	Length int
	IsEnd  bool
}

type inputFrame struct {
	data []byte
	pos  int
}

// Tokenizer scans a byte stream into a sequence of Tokens according to a
// registered set of TokenSpecs. It keeps a stack of input frames (so a
// nested include can be tokenized and then control returns to the
// enclosing source) and a stack of named lexer states (so enter_state
// transitions can nest, with an @-prefixed target name replacing the top
// of the stack instead of pushing).
type Tokenizer struct {
	tokens    []*TokenSpec
	endAction func() any
	normalize bool

	frames     []*inputFrame
	stateStack []string
	cached     *Token
}

// Option configures a Tokenizer at construction time.
type Option func(*Tokenizer)

// WithNormalization enables an NFC normalization pass over input bytes
// before tokenizing begins. This is distinct from Unicode-aware regex
// character classes (out of scope, per spec Non-goals): it only
// canonicalizes composed/decomposed accents and the like so that a
// pattern written with one normalization form still matches input
// written with another.
func WithNormalization() Option {
	return func(t *Tokenizer) { t.normalize = true }
}

// WithEndAction attaches an action that produces the value for the
// synthetic end-of-input token, mirroring pog's end_token().action(...).
func WithEndAction(action func() any) Option {
	return func(t *Tokenizer) { t.endAction = action }
}

// Specs returns every registered TokenSpec in registration order. It
// exists for callers outside this package that need to inspect declared
// patterns without tokenizing — notably tablecache, which fingerprints a
// grammar's tokens to detect when a cached table has gone stale.
func (t *Tokenizer) Specs() []*TokenSpec { return t.tokens }

// New returns a Tokenizer over the given token specs, in registration
// order (registration order is what breaks longest-match ties).
func New(tokens []*TokenSpec, opts ...Option) *Tokenizer {
	t := &Tokenizer{tokens: tokens}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// SetInput discards any previous input and lexer state and begins
// tokenizing r from the @default state.
func (t *Tokenizer) SetInput(r io.Reader) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	if t.normalize {
		data = norm.NFC.Bytes(data)
	}
	t.frames = []*inputFrame{{data: data}}
	t.stateStack = []string{DefaultState}
	t.cached = nil
	return nil
}

// PushInclude stacks r on top of the current input: once it is
// exhausted, tokenizing resumes on whatever was active before, without
// emitting an end-of-input token for the nested source.
func (t *Tokenizer) PushInclude(r io.Reader) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	if t.normalize {
		data = norm.NFC.Bytes(data)
	}
	t.frames = append(t.frames, &inputFrame{data: data})
	t.cached = nil
	return nil
}

func (t *Tokenizer) currentState() string {
	return t.stateStack[len(t.stateStack)-1]
}

// EnterState applies an enter_state transition: a name beginning with
// "@" replaces the top of the state stack (an absolute switch), anything
// else is pushed as a new, nested state.
func (t *Tokenizer) EnterState(name string) {
	if strings.HasPrefix(name, "@") {
		t.stateStack[len(t.stateStack)-1] = name
		return
	}
	t.stateStack = append(t.stateStack, name)
}

// ExitState pops the current lexer state, returning to whatever was
// active before it was pushed. It is a no-op at the outermost state.
func (t *Tokenizer) ExitState() {
	if len(t.stateStack) > 1 {
		t.stateStack = t.stateStack[:len(t.stateStack)-1]
	}
}

func (t *Tokenizer) currentFrame() *inputFrame {
	return t.frames[len(t.frames)-1]
}

// Peek returns the next token without advancing past it: calling Peek
// repeatedly without an intervening Consume returns the same token.
func (t *Tokenizer) Peek() (Token, error) {
	if t.cached != nil {
		return *t.cached, nil
	}
	tok, err := t.scan()
	if err != nil {
		return Token{}, err
	}
	t.cached = &tok
	return tok, nil
}

// Consume commits the token returned by the most recent Peek, allowing
// the next Peek to scan ahead.
func (t *Tokenizer) Consume() {
	t.cached = nil
}

// Next is Peek immediately followed by Consume, for callers (tests,
// diagnostic tools) that want the stream one token at a time without
// lookahead.
func (t *Tokenizer) Next() (Token, error) {
	tok, err := t.Peek()
	if err != nil {
		return Token{}, err
	}
	t.Consume()
	return tok, nil
}

// scan runs the core longest-match loop: find every active pattern that
// matches at the current cursor, take the longest (ties go to whichever
// was registered first), apply its action and state transition, advance
// the cursor, and either return it (if it carries a symbol) or loop
// around and try again (if it is silent).
func (t *Tokenizer) scan() (Token, error) {
	for {
		fr := t.currentFrame()
		if fr.pos >= len(fr.data) {
			if len(t.frames) > 1 {
				t.frames = t.frames[:len(t.frames)-1]
				continue
			}
			value := any(nil)
			if t.endAction != nil {
				value = t.endAction()
			}
			return Token{IsEnd: true, Offset: fr.pos, Value: value}, nil
		}

		remaining := string(fr.data[fr.pos:])
		state := t.currentState()

		bestIdx := -1
		bestLen := -1
		for i, spec := range t.tokens {
			if !spec.activeIn(state) {
				continue
			}
			loc := spec.Regexp.FindStringIndex(remaining)
			if loc == nil {
				continue
			}
			length := loc[1]
			if length > bestLen {
				bestLen = length
				bestIdx = i
			}
		}

		if bestIdx == -1 {
			return Token{}, &icerrors.TokenizationError{Offset: fr.pos, State: state}
		}

		spec := t.tokens[bestIdx]
		matched := remaining[:bestLen]

		var value any
		if spec.Action != nil {
			value = spec.Action(matched)
		}
		if spec.EnterState != "" {
			t.EnterState(spec.EnterState)
		}

		offset := fr.pos
		fr.pos += bestLen

		if spec.Silent() {
			continue
		}
		return Token{Symbol: spec.Symbol, Value: value, Offset: offset, Length: bestLen}, nil
	}
}
