/*
Parsergen builds and exercises a murre grammar declared in a TOML file.

Usage:

	parsergen build [flags]
	parsergen repl [flags]
	parsergen serve [flags]

The "build" subcommand assembles the grammar, runs Prepare, and prints
the conflict report (if any). The "repl" subcommand additionally starts
an interactive readline-driven loop that parses each line typed and
prints the resulting value or syntax error. The "serve" subcommand
exposes the compiled automaton and parsing table as a diagnostic HTTP
endpoint instead of writing a static report to disk.

The flags are:

	-g, --grammar FILE
		Path to a TOML grammar definition. Defaults to the bundled
		four-function calculator demo grammar.

	-t, --trace
		Print a line for every shift/reduce/accept the runtime performs.

	-c, --cache DIR
		Cache the compiled table under DIR, keyed by a fingerprint of
		the grammar, so a second run with an unchanged grammar skips
		automaton construction and LALR lookahead computation entirely.
		Applies to every subcommand, since repl and serve build first.

	-l, --listen ADDRESS
		(serve only) Address to listen on. Defaults to localhost:8080.
*/
package main

import (
	"context"
	_ "embed"
	"fmt"
	"log"
	"net/http"
	"os"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/spf13/pflag"

	"github.com/chzyer/readline"

	"github.com/halvard/murre"
	"github.com/halvard/murre/internal/diag"
	"github.com/halvard/murre/internal/tablecache"
)

// calcParser is the parser type every grammar file in this CLI builds:
// the demo grammar and every action in actions.go produce a float64.
type calcParser = murre.Parser[float64]

//go:embed calculator.toml
var defaultGrammar string

var (
	flagGrammar = pflag.StringP("grammar", "g", "", "Path to a TOML grammar definition; defaults to the bundled calculator demo")
	flagTrace   = pflag.BoolP("trace", "t", false, "Print a line for every shift/reduce/accept the runtime performs")
	flagCache   = pflag.StringP("cache", "c", "", "(build) cache the compiled table under this directory")
	flagListen  = pflag.StringP("listen", "l", "localhost:8080", "(serve) address to listen on")
)

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, "usage: parsergen <build|repl|serve> [flags]")
		os.Exit(2)
	}
	sub := os.Args[1]
	pflag.CommandLine.Parse(os.Args[2:])

	p, err := loadGrammar()
	if err != nil {
		log.Fatalf("parsergen: %v", err)
	}
	if *flagTrace {
		p.RegisterTraceListener(func(s string) { log.Print(s) })
	}

	switch sub {
	case "build":
		runBuild(p)
	case "repl":
		runBuild(p)
		runRepl(p)
	case "serve":
		runBuild(p)
		runServe(p)
	default:
		fmt.Fprintf(os.Stderr, "parsergen: unknown subcommand %q\n", sub)
		os.Exit(2)
	}
}

func loadGrammar() (*calcParser, error) {
	if *flagGrammar != "" {
		return LoadGrammar(*flagGrammar)
	}
	return LoadGrammarString(defaultGrammar)
}

// runBuild runs Prepare (consulting the table cache first, if one was
// requested) and prints the conflict report.
func runBuild(p *calcParser) {
	if *flagCache != "" {
		if err := prepareWithCache(p, *flagCache); err != nil {
			log.Fatalf("parsergen: %v", err)
		}
	} else {
		report, err := p.Prepare()
		if err != nil {
			log.Fatalf("parsergen: prepare: %v", err)
		}
		printReport(report)
	}
}

func printReport(report interface{ Empty() bool }) {
	if report.Empty() {
		fmt.Println("grammar is LALR(1) with no conflicts")
		return
	}
	if s, ok := report.(fmt.Stringer); ok {
		fmt.Println(s.String())
	}
}

// prepareWithCache assembles the grammar, computes its fingerprint, and
// either rehydrates a cached table or runs Prepare and stores the
// result for next time.
func prepareWithCache(p *calcParser, dir string) error {
	g, lx, err := p.Assemble()
	if err != nil {
		return err
	}
	fp := tablecache.Fingerprint(g, lx)

	cache, err := tablecache.Open(dir)
	if err != nil {
		return err
	}
	defer cache.Close()

	ctx := context.Background()
	if a, tbl, ok, err := cache.Get(ctx, fp, g); err != nil {
		return err
	} else if ok {
		p.InstallTable(g, lx, a, tbl)
		fmt.Println("build: restored compiled table from cache")
		return nil
	}

	report, err := p.Prepare()
	if err != nil {
		return err
	}
	printReport(report)

	if err := cache.Put(ctx, fp, p.Automaton(), p.Table()); err != nil {
		return fmt.Errorf("cache put: %w", err)
	}
	fmt.Println("build: compiled table stored in cache")
	return nil
}

// runRepl starts an interactive readline loop, parsing each line the
// user types and printing the resulting value or the syntax error.
func runRepl(p *calcParser) {
	rl, err := readline.NewEx(&readline.Config{Prompt: "parsergen> "})
	if err != nil {
		log.Fatalf("parsergen: readline: %v", err)
	}
	defer rl.Close()

	for {
		line, err := rl.Readline()
		if err != nil {
			return
		}
		if line == "" {
			continue
		}
		v, err := p.Parse(strings.NewReader(line))
		if err != nil {
			fmt.Println(err)
			continue
		}
		fmt.Println(v)
	}
}

// runServe exposes the compiled automaton/table dump over HTTP, serving
// the same diagnostic data the out-of-scope HTML report would have
// rendered to a file.
func runServe(p *calcParser) {
	r := chi.NewRouter()
	r.Get("/table", func(w http.ResponseWriter, req *http.Request) {
		fmt.Fprint(w, diag.RenderTable(p.Grammar(), p.Automaton(), p.Table()))
	})
	r.Get("/automaton", func(w http.ResponseWriter, req *http.Request) {
		fmt.Fprint(w, diag.RenderAutomaton(p.Grammar(), p.Automaton()))
	})
	r.Get("/includes", func(w http.ResponseWriter, req *http.Request) {
		fmt.Fprint(w, diag.RenderIncludesGraph(p.Grammar(), p.Automaton()))
	})

	log.Printf("parsergen: serving diagnostics on %s", *flagListen)
	log.Fatal(http.ListenAndServe(*flagListen, r))
}
