// Package tablecache persists a prepared parsing table across process
// runs, keyed by a fingerprint of the grammar and tokenizer that produced
// it: a grammar's registration (symbols, rules, declared tokens, in
// registration order) is hashed with blake2b, and the frozen
// automaton/table shape is serialized with rezi into a SQLite-backed
// store (modernc.org/sqlite, pure Go, no cgo). This lets a CLI build step
// skip re-running Prepare's automaton construction and LALR lookahead
// computation when the grammar hasn't changed since the last build.
//
// Only the data-carrying shape of the automaton and table is frozen:
// item sets, GOTO edges, and ACTION/GOTO cells, all plain integers. The
// grammar's semantic actions are Go closures and cannot be serialized;
// the caller always supplies a live *grammar.Grammar (with its rule
// actions already attached) alongside a cache hit, and tablecache only
// ever replaces the expensive structural computation, never the actions.
package tablecache

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/dekarrin/rezi"
	"golang.org/x/crypto/blake2b"
	"modernc.org/sqlite"

	"github.com/halvard/murre/internal/automaton"
	"github.com/halvard/murre/internal/grammar"
	"github.com/halvard/murre/internal/lexer"
	"github.com/halvard/murre/internal/table"
)

// frozenItem is the serializable form of automaton.Item.
type frozenItem struct {
	Rule int
	Dot  int
}

// frozenState is the serializable form of automaton.State.
type frozenState struct {
	Index  int
	Kernel []frozenItem
	Items  []frozenItem
}

// frozenEdge is one entry of a (state, symbol) -> target map, used for
// both automaton GOTO transitions and the table's GOTO entries.
type frozenEdge struct {
	State  int
	Symbol int
	Target int
}

// frozenAction is one entry of the table's ACTION map.
type frozenAction struct {
	State  int
	Symbol int
	Kind   int
	Target int
}

// frozenTable is the full serialized payload stored per fingerprint: the
// automaton's states and transitions, plus the table's resolved action
// and goto cells.
type frozenTable struct {
	Start       int
	States      []frozenState
	Transitions []frozenEdge
	Actions     []frozenAction
	Gotos       []frozenEdge
}

// Fingerprint hashes a grammar's symbols and rules (with their
// precedences) together with a tokenizer's declared token specs, in
// registration order, into a deterministic digest. Rebuilding the
// identical grammar and tokenizer yields the identical fingerprint;
// adding, removing, or reordering a symbol, rule, or token, or changing a
// precedence, changes it.
func Fingerprint(g *grammar.Grammar, lx *lexer.Tokenizer) []byte {
	h, err := blake2b.New256(nil)
	if err != nil {
		// blake2b.New256 only fails for a bad key, and we pass none.
		panic(fmt.Sprintf("tablecache: blake2b.New256: %v", err))
	}
	for i := 0; i < g.NumSymbols(); i++ {
		s := g.Symbol(i)
		p, ok := s.Precedence()
		fmt.Fprintf(h, "sym\x00%d\x00%s\x00%d\x00%t\x00%d\x00%d\x00", i, s.Name(), s.Kind(), ok, p.Level, p.Assoc)
	}
	for i := 0; i < g.NumRules(); i++ {
		p, ok := g.Rule(i).EffectivePrecedence(g)
		fmt.Fprintf(h, "rule\x00%d\x00%s\x00%t\x00%d\x00%d\x00", i, g.Rule(i).String(g), ok, p.Level, p.Assoc)
	}
	for _, spec := range lx.Specs() {
		fmt.Fprintf(h, "tok\x00%s\x00%s\x00%v\x00%s\x00%v\x00", spec.Pattern, spec.Symbol, spec.States, spec.EnterState, spec.Fullword)
	}
	return h.Sum(nil)
}

// Freeze captures the data-carrying shape of a's states/transitions and
// t's action/goto cells into a serializable payload.
func Freeze(a *automaton.Automaton, t *table.Table) *frozenTable {
	f := &frozenTable{Start: a.Start}

	for _, st := range a.States {
		f.States = append(f.States, frozenState{
			Index:  st.Index,
			Kernel: freezeItems(st.Kernel),
			Items:  freezeItems(st.Items),
		})
	}
	for k, v := range a.Transitions() {
		f.Transitions = append(f.Transitions, frozenEdge{State: k[0], Symbol: k[1], Target: v})
	}
	for k, act := range t.ActionEntries() {
		target := act.State
		if act.Kind != table.Shift {
			target = act.Rule
		}
		f.Actions = append(f.Actions, frozenAction{State: k[0], Symbol: k[1], Kind: int(act.Kind), Target: target})
	}
	for k, v := range t.GotoEntries() {
		f.Gotos = append(f.Gotos, frozenEdge{State: k[0], Symbol: k[1], Target: v})
	}
	return f
}

func freezeItems(items []automaton.Item) []frozenItem {
	out := make([]frozenItem, len(items))
	for i, it := range items {
		out[i] = frozenItem{Rule: it.Rule, Dot: it.Dot}
	}
	return out
}

// thaw reconstructs the Automaton and Table a frozenTable describes,
// bound to the given live grammar (the grammar must be the same one the
// fingerprint was computed against).
func (f *frozenTable) thaw(g *grammar.Grammar) (*automaton.Automaton, *table.Table) {
	states := make([]*automaton.State, len(f.States))
	for i, fs := range f.States {
		states[i] = &automaton.State{
			Index:  fs.Index,
			Kernel: thawItems(fs.Kernel),
			Items:  thawItems(fs.Items),
		}
	}
	trans := make(map[[2]int]int, len(f.Transitions))
	for _, e := range f.Transitions {
		trans[[2]int{e.State, e.Symbol}] = e.Target
	}
	a := automaton.Rehydrate(states, trans, f.Start)

	actions := make(map[[2]int]table.Action, len(f.Actions))
	for _, fa := range f.Actions {
		act := table.Action{Kind: table.Kind(fa.Kind)}
		if act.Kind == table.Shift {
			act.State = fa.Target
		} else {
			act.Rule = fa.Target
		}
		actions[[2]int{fa.State, fa.Symbol}] = act
	}
	gotos := make(map[[2]int]int, len(f.Gotos))
	for _, e := range f.Gotos {
		gotos[[2]int{e.State, e.Symbol}] = e.Target
	}
	t := table.Rehydrate(g, a, actions, gotos)
	return a, t
}

func thawItems(items []frozenItem) []automaton.Item {
	out := make([]automaton.Item, len(items))
	for i, it := range items {
		out[i] = automaton.Item{Rule: it.Rule, Dot: it.Dot}
	}
	return out
}

// Cache is a SQLite-backed store of frozen tables, keyed by the
// fingerprint that produced them.
type Cache struct {
	db *sql.DB
}

// Open opens (creating if necessary) a table cache database under dir.
func Open(dir string) (*Cache, error) {
	path := filepath.Join(dir, "parsergen-cache.db")
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, wrapErr(err)
	}
	const stmt = `CREATE TABLE IF NOT EXISTS tables (
		fingerprint BLOB NOT NULL PRIMARY KEY,
		payload BLOB NOT NULL,
		created INTEGER NOT NULL
	);`
	if _, err := db.Exec(stmt); err != nil {
		return nil, wrapErr(err)
	}
	return &Cache{db: db}, nil
}

// Close releases the cache's underlying database handle.
func (c *Cache) Close() error { return c.db.Close() }

// Get looks up the table frozen for fingerprint and, on a hit, rebuilds
// it against g. ok is false on a cache miss.
func (c *Cache) Get(ctx context.Context, fingerprint []byte, g *grammar.Grammar) (*automaton.Automaton, *table.Table, bool, error) {
	row := c.db.QueryRowContext(ctx, `SELECT payload FROM tables WHERE fingerprint = ?`, fingerprint)
	var payload []byte
	if err := row.Scan(&payload); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil, false, nil
		}
		return nil, nil, false, wrapErr(err)
	}

	var f frozenTable
	n, err := rezi.DecBinary(payload, &f)
	if err != nil {
		return nil, nil, false, fmt.Errorf("tablecache: rezi decode: %w", err)
	}
	if n != len(payload) {
		return nil, nil, false, fmt.Errorf("tablecache: rezi decode consumed %d/%d bytes", n, len(payload))
	}

	a, t := f.thaw(g)
	return a, t, true, nil
}

// Put freezes a and t and stores them under fingerprint, replacing any
// previous entry for the same key.
func (c *Cache) Put(ctx context.Context, fingerprint []byte, a *automaton.Automaton, t *table.Table) error {
	f := Freeze(a, t)
	payload := rezi.EncBinary(*f)
	_, err := c.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO tables (fingerprint, payload, created) VALUES (?, ?, ?)`,
		fingerprint, payload, time.Now().Unix(),
	)
	return wrapErr(err)
}

func wrapErr(err error) error {
	if err == nil {
		return nil
	}
	var sqliteErr *sqlite.Error
	if errors.As(err, &sqliteErr) {
		return fmt.Errorf("tablecache: %s", sqlite.ErrorCodeString[sqliteErr.Code()])
	}
	return fmt.Errorf("tablecache: %w", err)
}
