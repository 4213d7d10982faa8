package gtfs2neo4j

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"sync"

	"crawshaw.io/sqlite"
	"crawshaw.io/sqlite/sqlitex"
)

var sqliteGraphPragmas = map[string]string{
	"synchronous":  "OFF",
	"foreign_keys": "ON",
}

const sqliteGraphTables = `
CREATE TABLE IF NOT EXISTS nodes (
	id INTEGER PRIMARY KEY,
	label TEXT NOT NULL,
	props TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS nodes_label ON nodes (label);
CREATE TABLE IF NOT EXISTS edges (
	id INTEGER PRIMARY KEY,
	src INTEGER NOT NULL REFERENCES nodes (id),
	type TEXT NOT NULL,
	dst INTEGER NOT NULL REFERENCES nodes (id),
	UNIQUE (src, type, dst)
);
`

var identifierPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

func sqliteNoop(*sqlite.Stmt) error { return nil }

// SQLiteGraph is a property graph stored in a single SQLite file. Node
// properties are a JSON object; constraints and indexes are expression
// indexes over them.
type SQLiteGraph struct {
	mu sync.Mutex
	db *sqlite.Conn
}

func OpenSQLiteGraph(path string) (*SQLiteGraph, error) {
	if path == "" {
		panic("Missing path")
	}
	db, err := sqlite.OpenConn(path, 0)
	if err != nil {
		return nil, err
	}
	for pragma, value := range sqliteGraphPragmas {
		if err := sqlitex.Exec(db, "PRAGMA "+pragma+" = "+value, sqliteNoop); err != nil {
			_ = db.Close()
			return nil, err
		}
	}
	if err := sqlitex.ExecScript(db, sqliteGraphTables); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create graph tables: %w", err)
	}
	return &SQLiteGraph{db: db}, nil
}

func (g *SQLiteGraph) Close() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.db.Close()
}

func schemaObjectName(decl SchemaDecl) string {
	return fmt.Sprintf("%s_%s_%s", decl.Kind, decl.Label, decl.Property)
}

func (g *SQLiteGraph) Declare(ctx context.Context, decl SchemaDecl) error {
	if !identifierPattern.MatchString(decl.Label) || !identifierPattern.MatchString(decl.Property) {
		return fmt.Errorf("invalid schema identifier %s", decl)
	}
	g.mu.Lock()
	defer g.mu.Unlock()

	unique := ""
	if decl.Kind == UniqueConstraint {
		unique = "UNIQUE "
	}
	query := fmt.Sprintf("CREATE %sINDEX %s ON nodes (json_extract(props, '$.%s')) WHERE label = '%s'",
		unique, schemaObjectName(decl), decl.Property, decl.Label)
	err := sqlitex.ExecTransient(g.db, query, sqliteNoop)
	if err != nil && strings.Contains(err.Error(), "already exists") {
		return fmt.Errorf("%w: %s", ErrSchemaExists, decl)
	}
	return err
}

func encodeProps(props Props) (string, error) {
	clean := make(map[string]any, len(props))
	for k, v := range props {
		if v != nil {
			clean[k] = v
		}
	}
	b, err := json.Marshal(clean)
	return string(b), err
}

func (g *SQLiteGraph) CreateNode(ctx context.Context, label string, props Props) error {
	encoded, err := encodeProps(props)
	if err != nil {
		return err
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	return sqlitex.Exec(g.db, "INSERT INTO nodes (label, props) VALUES (?, ?)", sqliteNoop, label, encoded)
}

// lookup returns the rowid of the first node matching ref.
func (g *SQLiteGraph) lookup(ref NodeRef) (int64, error) {
	// The label is inlined so the partial indexes of Declare apply.
	if !identifierPattern.MatchString(ref.Label) {
		return 0, fmt.Errorf("invalid label %q", ref.Label)
	}
	query := fmt.Sprintf("SELECT id FROM nodes WHERE label = '%s'", ref.Label)
	var args []any
	for _, key := range ref.Keys() {
		if !identifierPattern.MatchString(key) {
			return 0, fmt.Errorf("invalid key %q", key)
		}
		query += fmt.Sprintf(" AND json_extract(props, '$.%s') = ?", key)
		args = append(args, ref.Key[key])
	}
	query += " ORDER BY id LIMIT 1"

	var id int64
	found := false
	err := sqlitex.Exec(g.db, query, func(stmt *sqlite.Stmt) error {
		id = stmt.GetInt64("id")
		found = true
		return nil
	}, args...)
	if err != nil {
		return 0, err
	}
	if !found {
		return 0, fmt.Errorf("%w: %s", ErrNodeNotFound, ref)
	}
	return id, nil
}

func (g *SQLiteGraph) CreateEdge(ctx context.Context, from NodeRef, rel string, to NodeRef) (int, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	src, err := g.lookup(from)
	if err != nil {
		return 0, err
	}
	dst, err := g.lookup(to)
	if err != nil {
		return 0, err
	}
	err = sqlitex.Exec(g.db, "INSERT OR IGNORE INTO edges (src, type, dst) VALUES (?, ?, ?)", sqliteNoop, src, rel, dst)
	if err != nil {
		return 0, err
	}
	return g.db.Changes(), nil
}

func (g *SQLiteGraph) CreateNodeWithEdges(ctx context.Context, label string, props Props, edges []EdgeTo) (err error) {
	encoded, err := encodeProps(props)
	if err != nil {
		return err
	}
	g.mu.Lock()
	defer g.mu.Unlock()

	targets := make([]int64, len(edges))
	for i, e := range edges {
		if targets[i], err = g.lookup(e.Target); err != nil {
			return err
		}
	}

	defer sqlitex.Save(g.db)(&err)
	err = sqlitex.Exec(g.db, "INSERT INTO nodes (label, props) VALUES (?, ?)", sqliteNoop, label, encoded)
	if err != nil {
		return err
	}
	src := g.db.LastInsertRowID()
	for i, e := range edges {
		err = sqlitex.Exec(g.db, "INSERT INTO edges (src, type, dst) VALUES (?, ?, ?)", sqliteNoop, src, e.Rel, targets[i])
		if err != nil {
			return err
		}
	}
	return nil
}

func (g *SQLiteGraph) CountNodes(label string) (int, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.count("SELECT count(*) AS n FROM nodes WHERE label = ?", label)
}

func (g *SQLiteGraph) CountEdges(rel string) (int, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.count("SELECT count(*) AS n FROM edges WHERE type = ?", rel)
}

func (g *SQLiteGraph) count(query string, args ...any) (int, error) {
	var n int
	err := sqlitex.Exec(g.db, query, func(stmt *sqlite.Stmt) error {
		n = int(stmt.GetInt64("n"))
		return nil
	}, args...)
	return n, err
}

// Dump renders the graph as sorted Cypher-like lines, one per node and edge.
func (g *SQLiteGraph) Dump() ([]string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	nodes := make(map[int64]string)
	var out []string
	err := sqlitex.Exec(g.db, "SELECT id, label, props FROM nodes", func(stmt *sqlite.Stmt) error {
		var props Props
		if err := json.Unmarshal([]byte(stmt.GetText("props")), &props); err != nil {
			return err
		}
		line := fmt.Sprintf("(:%s %s)", stmt.GetText("label"), formatProps(props))
		nodes[stmt.GetInt64("id")] = line
		out = append(out, line)
		return nil
	})
	if err != nil {
		return nil, err
	}

	err = sqlitex.Exec(g.db, "SELECT src, type, dst FROM edges", func(stmt *sqlite.Stmt) error {
		src, ok := nodes[stmt.GetInt64("src")]
		dst, ok2 := nodes[stmt.GetInt64("dst")]
		if !ok || !ok2 {
			return errors.New("edge references unknown node")
		}
		out = append(out, fmt.Sprintf("%s-[:%s]->%s", src, stmt.GetText("type"), dst))
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(out)
	return out, nil
}
