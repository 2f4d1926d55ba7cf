// Package graphlog stores the crawl's observed source->target domain
// edges for later analytics. Ported from
// original_source/illume/filter/graph.py (EntityGraph).
package graphlog

import (
	"database/sql"
	"os"
	"path/filepath"
	"strings"

	_ "github.com/mattn/go-sqlite3"

	"github.com/cametumbling/crawler-shard/internal/crawlerr"
)

// Graph is an append-only log of (source, target, observed) domain edges.
type Graph struct {
	db *sql.DB
}

// Open connects to (and, if necessary, creates) the graph database at path.
func Open(path string) (*Graph, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, crawlerr.Wrap(crawlerr.CodeQueryError, "creating graph directory", err)
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, crawlerr.Wrap(crawlerr.CodeQueryError, "opening graph database", err)
	}
	db.SetMaxOpenConns(1)

	g := &Graph{db: db}

	exists, err := g.tableExists()
	if err != nil {
		db.Close()
		return nil, err
	}
	if !exists {
		if _, err := db.Exec(`CREATE TABLE graph (
			source TEXT,
			target TEXT,
			observed INTEGER
		)`); err != nil {
			db.Close()
			return nil, crawlerr.Wrap(crawlerr.CodeQueryError, "creating graph schema", err)
		}
	}

	return g, nil
}

func (g *Graph) tableExists() (bool, error) {
	rows, err := g.db.Query(`SELECT name FROM sqlite_master WHERE type = 'table' AND name = 'graph'`)
	if err != nil {
		return false, crawlerr.Wrap(crawlerr.CodeQueryError, "checking graph schema", err)
	}
	defer rows.Close()
	return rows.Next(), rows.Err()
}

// Close releases the underlying database handle.
func (g *Graph) Close() error {
	return g.db.Close()
}

// AddEntities records one edge per distinct target domain reached from
// source, all at the given observed timestamp, in a single INSERT
// statement. Ported from EntityGraph.add_entities: the original collapses
// the target list through a set before building the VALUES clause, so
// duplicate targets in one call contribute only one edge.
func (g *Graph) AddEntities(source string, targets []string, observed int64) error {
	distinct := make(map[string]struct{}, len(targets))
	unique := make([]string, 0, len(targets))
	for _, t := range targets {
		if _, ok := distinct[t]; ok {
			continue
		}
		distinct[t] = struct{}{}
		unique = append(unique, t)
	}

	if len(unique) == 0 {
		return nil
	}

	placeholders := make([]string, len(unique))
	args := make([]any, 0, len(unique)*3)
	for i, target := range unique {
		placeholders[i] = "(?, ?, ?)"
		args = append(args, source, target, observed)
	}

	query := "INSERT INTO graph (source, target, observed) VALUES " + strings.Join(placeholders, ",")
	if _, err := g.db.Exec(query, args...); err != nil {
		return crawlerr.Wrap(crawlerr.CodeQueryError, "inserting graph entities", err)
	}
	return nil
}
