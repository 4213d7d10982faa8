package gtfs2neo4j

import (
	"context"
	"log/slog"
)

// Stats counts what one phase wrote.
type Stats struct {
	Nodes    int
	Edges    int
	Failures int
	Skipped  int
}

func (s *Stats) add(other Stats) {
	s.Nodes += other.Nodes
	s.Edges += other.Edges
	s.Failures += other.Failures
	s.Skipped += other.Skipped
}

func (s Stats) Entities() int {
	return s.Nodes + s.Edges
}

// gateway is the only way importers write to the graph. A failed write is
// logged and counted, never returned.
type gateway struct {
	graph Graph
	log   *slog.Logger
	stats *Stats
}

func (g *gateway) createNode(ctx context.Context, label string, props Props) bool {
	if err := g.graph.CreateNode(ctx, label, props); err != nil {
		g.stats.Failures++
		g.log.Error("Failed to create node", "label", label, "props", formatProps(props), "err", err)
		return false
	}
	g.stats.Nodes++
	return true
}

func (g *gateway) createEdge(ctx context.Context, from NodeRef, rel string, to NodeRef) bool {
	n, err := g.graph.CreateEdge(ctx, from, rel, to)
	if err != nil {
		g.stats.Failures++
		g.log.Error("Failed to create relationship, skipping",
			"from", from.String(), "rel", rel, "to", to.String(), "err", err)
		return false
	}
	g.stats.Edges += n
	return true
}

func (g *gateway) createNodeWithEdges(ctx context.Context, label string, props Props, edges []EdgeTo) bool {
	if err := g.graph.CreateNodeWithEdges(ctx, label, props, edges); err != nil {
		g.stats.Failures++
		attrs := []any{"label", label, "props", formatProps(props), "err", err}
		for _, e := range edges {
			attrs = append(attrs, e.Rel, e.Target.String())
		}
		g.log.Error("Failed to create node with relationships", attrs...)
		return false
	}
	g.stats.Nodes++
	g.stats.Edges += len(edges)
	return true
}
