package main

import (
	"fmt"

	"github.com/BurntSushi/toml"

	"github.com/halvard/murre"
)

// tomlPrecedence is the [token.precedence] / [rule.production.precedence]
// shape: a level and an associativity name, decoded with BurntSushi/toml.
type tomlPrecedence struct {
	Level uint   `toml:"level"`
	Assoc string `toml:"assoc"`
}

type tomlToken struct {
	Pattern    string          `toml:"pattern"`
	Symbol     string          `toml:"symbol"`
	States     []string        `toml:"states"`
	EnterState string          `toml:"enter_state"`
	Fullword   bool            `toml:"fullword"`
	Action     string          `toml:"action"`
	Precedence *tomlPrecedence `toml:"precedence"`
}

type tomlProduction struct {
	RHS        []string        `toml:"rhs"`
	Action     string          `toml:"action"`
	Precedence *tomlPrecedence `toml:"precedence"`
}

type tomlRule struct {
	LHS        string           `toml:"lhs"`
	Production []tomlProduction `toml:"production"`
}

type tomlGrammar struct {
	Start string      `toml:"start"`
	Token []tomlToken `toml:"token"`
	Rule  []tomlRule  `toml:"rule"`
}

func assoc(name string) (murre.Associativity, error) {
	switch name {
	case "", "none":
		return murre.AssocNone, nil
	case "left":
		return murre.AssocLeft, nil
	case "right":
		return murre.AssocRight, nil
	default:
		return murre.AssocNone, fmt.Errorf("parsergen: unknown associativity %q", name)
	}
}

// LoadGrammar decodes the TOML grammar definition at path and assembles a
// murre.Parser[float64] from it, resolving each named token/production
// action against the actions registry in actions.go. The float64 result
// type matches the demo calculator grammar; a grammar file that needs a
// different value type is out of scope for this CLI.
func LoadGrammar(path string) (*calcParser, error) {
	var tg tomlGrammar
	if _, err := toml.DecodeFile(path, &tg); err != nil {
		return nil, fmt.Errorf("parsergen: decode %s: %w", path, err)
	}
	return buildGrammar(tg)
}

// LoadGrammarString decodes a TOML grammar definition already in memory,
// the same way LoadGrammar does for a file on disk. Used for the bundled
// default grammar, embedded at compile time.
func LoadGrammarString(data string) (*calcParser, error) {
	var tg tomlGrammar
	if _, err := toml.Decode(data, &tg); err != nil {
		return nil, fmt.Errorf("parsergen: decode embedded grammar: %w", err)
	}
	return buildGrammar(tg)
}

func buildGrammar(tg tomlGrammar) (*calcParser, error) {
	p := murre.New[float64]()

	for _, tok := range tg.Token {
		tb := p.Token(tok.Pattern)
		if tok.Symbol != "" {
			tb.Symbol(tok.Symbol)
		}
		if len(tok.States) > 0 {
			tb.States(tok.States...)
		}
		if tok.EnterState != "" {
			tb.EnterState(tok.EnterState)
		}
		if tok.Fullword {
			tb.Fullword()
		}
		if tok.Precedence != nil {
			a, err := assoc(tok.Precedence.Assoc)
			if err != nil {
				return nil, err
			}
			tb.Precedence(tok.Precedence.Level, a)
		}
		if tok.Action != "" {
			fn, ok := tokenActions[tok.Action]
			if !ok {
				return nil, fmt.Errorf("parsergen: unknown token action %q", tok.Action)
			}
			tb.Action(fn)
		}
	}

	for _, r := range tg.Rule {
		rb := p.Rule(r.LHS)
		for _, prod := range r.Production {
			parts := make([]any, len(prod.RHS))
			for i, s := range prod.RHS {
				parts[i] = s
			}
			rb.Production(parts...)
			if prod.Action != "" {
				fn, ok := ruleActions[prod.Action]
				if !ok {
					return nil, fmt.Errorf("parsergen: unknown rule action %q", prod.Action)
				}
				rb.Action(fn)
			}
			if prod.Precedence != nil {
				a, err := assoc(prod.Precedence.Assoc)
				if err != nil {
					return nil, err
				}
				rb.Precedence(prod.Precedence.Level, a)
			}
		}
	}

	if tg.Start == "" {
		return nil, fmt.Errorf("parsergen: grammar file has no start symbol")
	}
	p.SetStartSymbol(tg.Start)

	return p, nil
}
