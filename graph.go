package gtfs2neo4j

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	ErrSchemaExists = errors.New("schema object already exists")
	ErrNodeNotFound = errors.New("node not found")
)

// Graph is a labeled property graph store. Every method is a single request
// to the store.
type Graph interface {
	// Declare creates a constraint or index. It returns an error wrapping
	// ErrSchemaExists if the object is already present.
	Declare(ctx context.Context, decl SchemaDecl) error

	CreateNode(ctx context.Context, label string, props Props) error

	// CreateEdge looks up both endpoints by business key and links them
	// unless an edge of the same type already joins them. It returns the
	// number of edges created, or an error wrapping ErrNodeNotFound if an
	// endpoint is missing.
	CreateEdge(ctx context.Context, from NodeRef, rel string, to NodeRef) (int, error)

	// CreateNodeWithEdges creates a node and outgoing edges to existing
	// nodes atomically. Nothing is created if any target is missing.
	CreateNodeWithEdges(ctx context.Context, label string, props Props, edges []EdgeTo) error

	Close() error
}

// NodeRef identifies a node by label and business key.
type NodeRef struct {
	Label string
	Key   Props
}

func ref(label, property string, value any) NodeRef {
	return NodeRef{Label: label, Key: Props{property: value}}
}

// Keys returns the key property names in a stable order.
func (r NodeRef) Keys() []string {
	keys := make([]string, 0, len(r.Key))
	for k := range r.Key {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func (r NodeRef) String() string {
	var parts []string
	for _, k := range r.Keys() {
		parts = append(parts, fmt.Sprintf("%s: %s", k, formatValue(r.Key[k])))
	}
	return fmt.Sprintf("(:%s {%s})", r.Label, strings.Join(parts, ", "))
}

type EdgeTo struct {
	Rel    string
	Target NodeRef
}

func formatValue(v any) string {
	switch v := v.(type) {
	case string:
		return fmt.Sprintf("%q", v)
	case nil:
		return "null"
	default:
		return fmt.Sprint(v)
	}
}

func formatProps(props Props) string {
	keys := make([]string, 0, len(props))
	for k := range props {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	var parts []string
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s: %s", k, formatValue(props[k])))
	}
	return "{" + strings.Join(parts, ", ") + "}"
}
