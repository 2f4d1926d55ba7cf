// Package persistfilter is the exact, on-disk half of the composite
// dedup filter: a SQLite table of (domain_hash, url_hash) pairs. Ported
// from original_source/illume/filter/persistent_key_filter.py.
package persistfilter

import (
	"database/sql"
	"encoding/binary"
	"fmt"
	"os"
	"path/filepath"

	"github.com/cespare/xxhash/v2"
	_ "github.com/mattn/go-sqlite3"

	"github.com/cametumbling/crawler-shard/internal/crawlerr"
)

const (
	domainIndexName = "domain_idx"
	urlIndexName    = "url_idx"
)

var schemaObjects = []string{"filter", domainIndexName, urlIndexName}

// Filter is the persistent, exact half of the composite filter. KeySize
// controls the fixed width (in bytes) of the hashed domain/url keys
// stored in the table (FILTER_HASHER_KEY_SIZE in spec §6); only 8 is
// currently implemented, matching xxhash's 64-bit digest.
type Filter struct {
	db      *sql.DB
	keySize int
}

// Open connects to (and, if necessary, creates) the SQLite database at
// path. Ported from PersistentKeyFilter.__init__ / _init_db.
func Open(path string, keySize int) (*Filter, error) {
	if keySize != 8 {
		return nil, crawlerr.New(crawlerr.CodeAllocationValueError, "only an 8-byte key size is supported")
	}

	_, statErr := os.Stat(path)
	dbExists := statErr == nil

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, crawlerr.Wrap(crawlerr.CodeQueryError, "creating filter directory", err)
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, crawlerr.Wrap(crawlerr.CodeQueryError, "opening filter database", err)
	}
	db.SetMaxOpenConns(1) // go-sqlite3 serializes writers; one conn avoids SQLITE_BUSY churn

	f := &Filter{db: db, keySize: keySize}

	if !dbExists {
		if err := f.createSchema(); err != nil {
			db.Close()
			return nil, err
		}
	} else if ok, err := f.schemaIntact(); err != nil {
		db.Close()
		return nil, err
	} else if !ok {
		db.Close()
		return nil, crawlerr.New(crawlerr.CodeDatabaseCorrupt, "filter tables out of sync")
	}

	return f, nil
}

func (f *Filter) createSchema() error {
	tx, err := f.db.Begin()
	if err != nil {
		return crawlerr.Wrap(crawlerr.CodeQueryError, "begin schema transaction", err)
	}

	statements := []string{
		fmt.Sprintf(`CREATE TABLE filter (
			domain BLOB(%d),
			url BLOB(%d),
			PRIMARY KEY (domain, url)
		)`, f.keySize, f.keySize),
		fmt.Sprintf("CREATE INDEX %s ON filter (domain)", domainIndexName),
		fmt.Sprintf("CREATE INDEX %s ON filter (url)", urlIndexName),
	}

	for _, stmt := range statements {
		if _, err := tx.Exec(stmt); err != nil {
			tx.Rollback()
			return crawlerr.Wrap(crawlerr.CodeQueryError, "creating filter schema", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return crawlerr.Wrap(crawlerr.CodeQueryError, "committing filter schema", err)
	}
	return nil
}

// schemaIntact checks that the table and both indices the original's
// CHECKER query looks for are all present, raising DatabaseCorrupt
// (by the caller) otherwise.
func (f *Filter) schemaIntact() (bool, error) {
	rows, err := f.db.Query(`
		SELECT name FROM sqlite_master
		WHERE (type = 'table' AND name = 'filter')
		OR    (type = 'index' AND name = ?)
		OR    (type = 'index' AND name = ?)
	`, domainIndexName, urlIndexName)
	if err != nil {
		return false, crawlerr.Wrap(crawlerr.CodeQueryError, "checking filter schema", err)
	}
	defer rows.Close()

	count := 0
	for rows.Next() {
		count++
	}
	return count == len(schemaObjects), rows.Err()
}

// Close releases the underlying database handle.
func (f *Filter) Close() error {
	return f.db.Close()
}

// HashKey hashes a raw domain or URL string into its fixed-width stored
// form using xxHash-64, per spec §4.5's "64-bit non-cryptographic hash
// (xxHash-64 in the reference design)".
func HashKey(s string) []byte {
	key := make([]byte, 8)
	binary.BigEndian.PutUint64(key, xxhash.Sum64String(s))
	return key
}

// Add inserts one (domain, url) pair, both pre-hashed via HashKey. Ported
// from PersistentKeyFilter.add.
func (f *Filter) Add(domainHash, urlHash []byte) error {
	_, err := f.db.Exec("INSERT INTO filter (domain, url) VALUES (?, ?)", domainHash, urlHash)
	if err != nil {
		return crawlerr.Wrap(crawlerr.CodeQueryError, "inserting filter row", err)
	}
	return nil
}

// Pair is one (domain, url) hash pair for bulk insertion.
type Pair struct {
	DomainHash []byte
	URLHash    []byte
}

// AddBulk inserts each pair in its own commit, exactly mirroring the
// original's add_bulk generator: a primary-key collision fails only that
// row (not the whole batch), and the per-row outcome is reported back in
// order.
func (f *Filter) AddBulk(pairs []Pair) ([]bool, error) {
	results := make([]bool, len(pairs))

	for i, pair := range pairs {
		_, err := f.db.Exec("INSERT INTO filter (domain, url) VALUES (?, ?)", pair.DomainHash, pair.URLHash)
		results[i] = err == nil
	}

	return results, nil
}

// ExistsDomain reports whether domainHash has been seen at all.
func (f *Filter) ExistsDomain(domainHash []byte) (bool, error) {
	return f.exists("SELECT 1 FROM filter WHERE domain = ?", domainHash)
}

// ExistsURL reports whether the exact (domainHash, urlHash) pair has been
// seen. Ported from PersistentKeyFilter.exists_url (domain is part of the
// original's composite key even though the column name alone is "url").
func (f *Filter) ExistsURL(domainHash, urlHash []byte) (bool, error) {
	rows, err := f.db.Query("SELECT 1 FROM filter WHERE domain = ? AND url = ?", domainHash, urlHash)
	if err != nil {
		return false, crawlerr.Wrap(crawlerr.CodeQueryError, "querying filter row", err)
	}
	defer rows.Close()
	return rows.Next(), rows.Err()
}

func (f *Filter) exists(query string, arg []byte) (bool, error) {
	rows, err := f.db.Query(query, arg)
	if err != nil {
		return false, crawlerr.Wrap(crawlerr.CodeQueryError, "querying filter row", err)
	}
	defer rows.Close()
	return rows.Next(), rows.Err()
}
