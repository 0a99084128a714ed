// Package querydb is the optional persisted query cache named in spec.md §6
// ("Persisted state: query results are serializable... formats are
// implementation-defined"). It stores one row per cached query result, keyed by a
// string query key and an input-hash fingerprint, so a later process can skip
// recomputation entirely when the fingerprint still matches.
//
// This is a layer ABOVE internal/query rather than a drop-in storage backend for its
// in-memory Database: query.Get's run closures cannot themselves be serialized. The
// CLI driver (cmd/ailang) opens a Store when -i is given and closes it at exit; no
// compilation query reads from or writes to it, so every run recomputes from scratch.
// See DESIGN.md for this simplification.
package querydb

import (
	"encoding/json"
	"fmt"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// CacheRow is the one model this package persists: a query result keyed by its string
// identity, fingerprinted by the hash of whatever inputs produced it, carrying its
// JSON-encoded value and the string keys of the dependencies it was computed from.
type CacheRow struct {
	Key       string `gorm:"primaryKey"`
	InputHash string
	ValueJSON string
	DepsJSON  string
}

// Store wraps a gorm-backed sqlite database holding CacheRows. Store is safe only for
// the single-process, single-compilation-round use the CLI driver makes of it; it is
// not a concurrent KV store.
type Store struct {
	db *gorm.DB
}

// Open opens (creating if necessary) the sqlite file at path and migrates the CacheRow
// schema into it. The CLI's `-i` incremental flag opens `.ailang-cache/local.db` in the
// working directory.
func Open(path string) (*Store, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		return nil, fmt.Errorf("querydb: opening %s: %w", path, err)
	}
	if err := db.AutoMigrate(&CacheRow{}); err != nil {
		return nil, fmt.Errorf("querydb: migrating schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Get looks up key and, if its stored InputHash matches inputHash, decodes the cached
// value into out (which must be a pointer) and returns true. A hash mismatch or a
// missing row returns false with no error — the caller should recompute and Put.
func (s *Store) Get(key, inputHash string, out any) (bool, error) {
	var row CacheRow
	err := s.db.Where("key = ?", key).First(&row).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return false, nil
		}
		return false, fmt.Errorf("querydb: reading %s: %w", key, err)
	}
	if row.InputHash != inputHash {
		return false, nil
	}
	if err := json.Unmarshal([]byte(row.ValueJSON), out); err != nil {
		return false, fmt.Errorf("querydb: decoding cached value for %s: %w", key, err)
	}
	return true, nil
}

// Put stores (or overwrites) the cached value for key, fingerprinted by inputHash,
// along with the string keys of the dependencies value was computed from.
func (s *Store) Put(key, inputHash string, value any, deps []string) error {
	valueJSON, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("querydb: encoding value for %s: %w", key, err)
	}
	depsJSON, err := json.Marshal(deps)
	if err != nil {
		return fmt.Errorf("querydb: encoding deps for %s: %w", key, err)
	}
	row := CacheRow{Key: key, InputHash: inputHash, ValueJSON: string(valueJSON), DepsJSON: string(depsJSON)}
	return s.db.Save(&row).Error
}

// Deps returns the dependency keys previously stored alongside key's cached value, or
// nil if key has no row.
func (s *Store) Deps(key string) ([]string, error) {
	var row CacheRow
	err := s.db.Where("key = ?", key).First(&row).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, fmt.Errorf("querydb: reading %s: %w", key, err)
	}
	var deps []string
	if err := json.Unmarshal([]byte(row.DepsJSON), &deps); err != nil {
		return nil, fmt.Errorf("querydb: decoding deps for %s: %w", key, err)
	}
	return deps, nil
}

// Close releases the underlying sqlite connection.
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
