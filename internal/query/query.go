// Package query implements the incremental, memoizing query database (spec.md §4.1).
// A query is a pure function `run(*Context) (Out, error)` keyed by an arbitrary
// comparable value. The engine records, for every invocation, the set of other queries
// it read (Context.deps); on a later Get of the same key it walks that recorded
// dependency set, re-validating each dependency before deciding whether to re-run —
// and if a re-run produces a value equal (by reflect.DeepEqual) to what was cached,
// downstream queries are never re-run at all ("early cutoff").
//
// This mirrors the caching shape the teacher's internal/module/loader.go already uses
// (a mutex-guarded map keyed by module identity) generalized to arbitrary dependency
// graphs instead of one import tree, since nothing in the example pack implements a
// full incremental-recomputation engine (see DESIGN.md).
package query

import (
	"reflect"
	"sync"

	"github.com/sunholo/ailang/internal/diagnostics"
)

// Dependency records one query this invocation read, and the value it read at the
// time, so a later validation pass can detect whether that value has since changed.
type Dependency struct {
	Key   any
	Value any
}

type entry struct {
	value        any
	err          error
	deps         []Dependency
	diags        []diagnostics.Diagnostic
	run          func(*Context) (any, error)
	validatedGen uint64
}

// Database is the incremental query store. All primary inputs and all derived query
// results live here; there is no other mutable shared state (design note §9).
type Database struct {
	mu         sync.Mutex
	entries    map[any]*entry
	generation uint64
}

// NewDatabase creates an empty query database.
func NewDatabase() *Database {
	return &Database{entries: make(map[any]*entry)}
}

// Context is threaded through every running query so it can read other queries
// (recording them as dependencies) and accumulate diagnostics. A fresh Context is
// created per query execution — never shared across concurrent queries — so
// dependency tracking needs no global stack and queries may run in parallel (§5).
type Context struct {
	db    *Database
	diags *diagnostics.Accumulator
	deps  []Dependency
}

// Accumulate records a diagnostic produced by the query currently running under this
// Context. Accumulated diagnostics are associated with the query's cache entry, so
// invalidating the query discards exactly these diagnostics on the next recompute.
func (c *Context) Accumulate(d diagnostics.Diagnostic) {
	if c == nil {
		return
	}
	c.diags.Accumulate(d)
}

// Get runs, or returns the cached result of, the memoized query identified by key. run
// is only invoked when key has never been computed, or validation determines one of
// its recorded dependencies now reads differently. The call is recorded as a
// dependency of the enclosing query (the one that owns c), if any.
func Get[Out any](c *Context, db *Database, key any, run func(*Context) (Out, error)) (Out, error) {
	erased := func(ctx *Context) (any, error) { return run(ctx) }
	val, err := db.resolve(key, erased)
	if c != nil {
		c.deps = append(c.deps, Dependency{Key: key, Value: val})
	}
	out, _ := val.(Out)
	return out, err
}

// resolve is the type-erased core of Get: look up key, validate it if present,
// otherwise execute run and cache the result.
func (db *Database) resolve(key any, run func(*Context) (any, error)) (any, error) {
	db.mu.Lock()
	e, ok := db.entries[key]
	gen := db.generation
	db.mu.Unlock()

	if ok {
		e = db.refresh(key, e, gen)
		return e.value, e.err
	}
	e = db.computeEntry(key, run, gen)
	return e.value, e.err
}

// refresh validates e (recursively refreshing its dependencies first) and, if any
// dependency's value has changed since it was read, recomputes e by re-running its
// stored run closure. A dependency that is itself stale but recomputes to an
// unchanged value does NOT force e to recompute — this is early cutoff (§4.1, §8.8).
func (db *Database) refresh(key any, e *entry, gen uint64) *entry {
	if e.validatedGen == gen {
		return e
	}

	stale := false
	for _, dep := range e.deps {
		db.mu.Lock()
		depEntry, ok := db.entries[dep.Key]
		db.mu.Unlock()
		if !ok {
			stale = true
			break
		}
		depEntry = db.refresh(dep.Key, depEntry, gen)
		if !reflect.DeepEqual(depEntry.value, dep.Value) {
			stale = true
			break
		}
	}

	if !stale {
		db.mu.Lock()
		e.validatedGen = gen
		db.mu.Unlock()
		return e
	}

	return db.computeEntry(key, e.run, gen)
}

func (db *Database) computeEntry(key any, run func(*Context) (any, error), gen uint64) *entry {
	child := &Context{db: db, diags: diagnostics.NewAccumulator()}
	val, err := run(child)
	e := &entry{
		value:        val,
		err:          err,
		deps:         append([]Dependency(nil), child.deps...),
		diags:        child.diags.Diagnostics(),
		run:          run,
		validatedGen: gen,
	}
	db.mu.Lock()
	db.entries[key] = e
	db.mu.Unlock()
	return e
}

// SetInput installs or updates a primary input value (source-file contents, the crate
// graph, ...) and advances the database's generation so every dependent query is
// lazily re-validated on next Get (§4.1 "Cancellation"). Inputs have no dependencies
// of their own — they are the leaves of the graph.
func SetInput[T any](db *Database, key any, value T) {
	db.mu.Lock()
	db.generation++
	gen := db.generation
	db.entries[key] = &entry{
		value:        value,
		run:          func(*Context) (any, error) { return value, nil },
		validatedGen: gen,
	}
	db.mu.Unlock()
}

// GetInput reads a primary input previously installed with SetInput, recording it as a
// dependency of the enclosing query.
func GetInput[T any](c *Context, db *Database, key any) (T, bool) {
	db.mu.Lock()
	e, ok := db.entries[key]
	db.mu.Unlock()
	if !ok {
		var zero T
		return zero, false
	}
	if c != nil {
		c.deps = append(c.deps, Dependency{Key: key, Value: e.value})
	}
	out, ok2 := e.value.(T)
	return out, ok2
}

// AllDiagnostics gathers every diagnostic currently cached across all entries in the
// database, exactly as the prior full compile would emit (§7: "exit non-zero after
// printing all diagnostics accumulated across all queries").
func AllDiagnostics(db *Database) []diagnostics.Diagnostic {
	db.mu.Lock()
	defer db.mu.Unlock()
	var out []diagnostics.Diagnostic
	for _, e := range db.entries {
		out = append(out, e.diags...)
	}
	return out
}

// EntryCount reports how many query results (including inputs) are currently cached.
func EntryCount(db *Database) int {
	db.mu.Lock()
	defer db.mu.Unlock()
	return len(db.entries)
}
