package gtfs2neo4j

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
)

// Neo4jGraph writes to a Neo4j server. Each call runs as its own auto-commit
// transaction.
type Neo4jGraph struct {
	driver   neo4j.DriverWithContext
	database string
}

type Neo4jOpts struct {
	URI      string
	Username string
	Password string
	// Database is the target database, empty for the server default.
	Database string
}

// OpenNeo4j connects and verifies the server is reachable.
func OpenNeo4j(ctx context.Context, opts Neo4jOpts) (*Neo4jGraph, error) {
	driver, err := neo4j.NewDriverWithContext(opts.URI, neo4j.BasicAuth(opts.Username, opts.Password, ""))
	if err != nil {
		return nil, fmt.Errorf("create neo4j driver for %s: %w", opts.URI, err)
	}
	if err := driver.VerifyConnectivity(ctx); err != nil {
		_ = driver.Close(ctx)
		return nil, fmt.Errorf("connect to %s as %s: %w", opts.URI, opts.Username, err)
	}
	return &Neo4jGraph{driver: driver, database: opts.Database}, nil
}

func (g *Neo4jGraph) Close() error {
	return g.driver.Close(context.Background())
}

// run executes query in an auto-commit transaction, which the driver does not
// retry.
func (g *Neo4jGraph) run(ctx context.Context, query string, params map[string]any) (*neo4j.EagerResult, error) {
	session := g.driver.NewSession(ctx, neo4j.SessionConfig{
		DatabaseName: g.database,
		AccessMode:   neo4j.AccessModeWrite,
	})
	defer func() { _ = session.Close(ctx) }()

	result, err := session.Run(ctx, query, params)
	if err != nil {
		return nil, err
	}
	keys, err := result.Keys()
	if err != nil {
		return nil, err
	}
	records, err := result.Collect(ctx)
	if err != nil {
		return nil, err
	}
	summary, err := result.Consume(ctx)
	if err != nil {
		return nil, err
	}
	return &neo4j.EagerResult{Keys: keys, Records: records, Summary: summary}, nil
}

func (g *Neo4jGraph) Declare(ctx context.Context, decl SchemaDecl) error {
	_, err := g.run(ctx, declareCypher(decl), nil)
	if isSchemaExists(err) {
		return fmt.Errorf("%w: %s", ErrSchemaExists, decl)
	}
	return err
}

func (g *Neo4jGraph) CreateNode(ctx context.Context, label string, props Props) error {
	_, err := g.run(ctx, createNodeCypher(label), map[string]any{"props": cleanProps(props)})
	return err
}

func (g *Neo4jGraph) CreateEdge(ctx context.Context, from NodeRef, rel string, to NodeRef) (int, error) {
	query, params := createEdgeCypher(from, rel, to)
	res, err := g.run(ctx, query, params)
	if err != nil {
		return 0, err
	}
	if len(res.Records) == 0 {
		return 0, fmt.Errorf("%w: %s or %s", ErrNodeNotFound, from, to)
	}
	return res.Summary.Counters().RelationshipsCreated(), nil
}

func (g *Neo4jGraph) CreateNodeWithEdges(ctx context.Context, label string, props Props, edges []EdgeTo) error {
	query, params := createNodeWithEdgesCypher(label, props, edges)
	res, err := g.run(ctx, query, params)
	if err != nil {
		return err
	}
	if len(res.Records) == 0 {
		targets := make([]string, len(edges))
		for i, e := range edges {
			targets[i] = e.Target.String()
		}
		return fmt.Errorf("%w: one of %s", ErrNodeNotFound, strings.Join(targets, ", "))
	}
	return nil
}

func isSchemaExists(err error) bool {
	var neoErr *neo4j.Neo4jError
	if !errors.As(err, &neoErr) {
		return false
	}
	return strings.HasPrefix(neoErr.Code, "Neo.ClientError.Schema.") && strings.HasSuffix(neoErr.Code, "AlreadyExists")
}

func cleanProps(props Props) map[string]any {
	clean := make(map[string]any, len(props))
	for k, v := range props {
		if v != nil {
			clean[k] = v
		}
	}
	return clean
}

func quoteIdent(name string) string {
	return "`" + strings.ReplaceAll(name, "`", "``") + "`"
}

func declareCypher(decl SchemaDecl) string {
	switch decl.Kind {
	case UniqueConstraint:
		return fmt.Sprintf("CREATE CONSTRAINT FOR (n:%s) REQUIRE n.%s IS UNIQUE",
			quoteIdent(decl.Label), quoteIdent(decl.Property))
	case PropertyIndex:
		return fmt.Sprintf("CREATE INDEX FOR (n:%s) ON (n.%s)",
			quoteIdent(decl.Label), quoteIdent(decl.Property))
	default:
		panic("unknown schema kind")
	}
}

func createNodeCypher(label string) string {
	return fmt.Sprintf("CREATE (n:%s) SET n = $props", quoteIdent(label))
}

// matchPattern renders a node pattern for ref, adding its key values to
// params under names prefixed with alias.
func matchPattern(alias string, ref NodeRef, params map[string]any) string {
	var parts []string
	for i, key := range ref.Keys() {
		param := fmt.Sprintf("%s_%d", alias, i)
		params[param] = ref.Key[key]
		parts = append(parts, fmt.Sprintf("%s: $%s", quoteIdent(key), param))
	}
	return fmt.Sprintf("(%s:%s {%s})", alias, quoteIdent(ref.Label), strings.Join(parts, ", "))
}

func createEdgeCypher(from NodeRef, rel string, to NodeRef) (string, map[string]any) {
	params := make(map[string]any)
	query := fmt.Sprintf("MATCH %s MATCH %s WITH a, b LIMIT 1 MERGE (a)-[:%s]->(b) RETURN 1 AS ok",
		matchPattern("a", from, params), matchPattern("b", to, params), quoteIdent(rel))
	return query, params
}

func createNodeWithEdgesCypher(label string, props Props, edges []EdgeTo) (string, map[string]any) {
	params := map[string]any{"props": cleanProps(props)}
	var b strings.Builder
	aliases := make([]string, len(edges))
	for i, e := range edges {
		aliases[i] = fmt.Sprintf("t%d", i)
		fmt.Fprintf(&b, "MATCH %s ", matchPattern(aliases[i], e.Target, params))
	}
	if len(edges) > 0 {
		fmt.Fprintf(&b, "WITH %s LIMIT 1 ", strings.Join(aliases, ", "))
	}
	fmt.Fprintf(&b, "CREATE (n:%s) SET n = $props", quoteIdent(label))
	for i, e := range edges {
		fmt.Fprintf(&b, " CREATE (n)-[:%s]->(%s)", quoteIdent(e.Rel), aliases[i])
	}
	b.WriteString(" RETURN 1 AS ok")
	return b.String(), params
}
