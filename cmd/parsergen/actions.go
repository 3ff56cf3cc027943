package main

import "strconv"

// tokenActions maps a grammar file's token action name to the Go
// function that turns matched text into a value. Grammar files reference
// actions by name rather than embedding code, the same way the demo
// calculator.toml does for its number token and every production.
var tokenActions = map[string]func(matched string) any{
	"num": func(matched string) any {
		v, err := strconv.ParseFloat(matched, 64)
		if err != nil {
			// the regex that feeds this action only ever matches digits
			// and an optional decimal point, so ParseFloat cannot fail.
			panic(err)
		}
		return v
	},
}

// ruleActions maps a grammar file's production action name to the Go
// function that combines its right-hand-side values into one result.
var ruleActions = map[string]func(args []any) any{
	"add": func(args []any) any { return args[0].(float64) + args[2].(float64) },
	"sub": func(args []any) any { return args[0].(float64) - args[2].(float64) },
	"mul": func(args []any) any { return args[0].(float64) * args[2].(float64) },
	"neg": func(args []any) any { return -args[1].(float64) },
	"paren": func(args []any) any { return args[1] },
	"identity": func(args []any) any { return args[0] },
}
