package gtfs2neo4j

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

// failingGraph rejects every write.
type failingGraph struct{}

var errRejected = errors.New("rejected")

func (failingGraph) Declare(context.Context, SchemaDecl) error { return errRejected }
func (failingGraph) CreateNode(context.Context, string, Props) error { return errRejected }
func (failingGraph) Close() error { return nil }
func (failingGraph) CreateEdge(context.Context, NodeRef, string, NodeRef) (int, error) {
	return 0, errRejected
}
func (failingGraph) CreateNodeWithEdges(context.Context, string, Props, []EdgeTo) error {
	return errRejected
}

func TestGatewayCountsOnlySuccess(t *testing.T) {
	ctx := context.Background()
	g := testGraph(t)
	var stats Stats
	gw := &gateway{graph: g, log: slog.Default(), stats: &stats}

	assert.True(t, gw.createNode(ctx, LabelStop, Props{"stop_id": "A"}))
	assert.True(t, gw.createNode(ctx, LabelStop, Props{"stop_id": "B"}))
	assert.True(t, gw.createEdge(ctx, ref(LabelStop, "stop_id", "A"), RelPartOf, ref(LabelStop, "stop_id", "B")))
	// already linked
	assert.True(t, gw.createEdge(ctx, ref(LabelStop, "stop_id", "A"), RelPartOf, ref(LabelStop, "stop_id", "B")))
	assert.False(t, gw.createEdge(ctx, ref(LabelStop, "stop_id", "A"), RelPartOf, ref(LabelStop, "stop_id", "C")))

	assert.Equal(t, Stats{Nodes: 2, Edges: 1, Failures: 1}, stats)
}

func TestGatewayFailuresLeaveCountsUnchanged(t *testing.T) {
	ctx := context.Background()
	var stats Stats
	gw := &gateway{graph: failingGraph{}, log: slog.Default(), stats: &stats}

	assert.False(t, gw.createNode(ctx, LabelAgency, Props{"agency_id": int64(1)}))
	assert.False(t, gw.createEdge(ctx, ref(LabelAgency, "agency_id", int64(1)), RelOperates, ref(LabelRoute, "route_id", "R1")))
	assert.False(t, gw.createNodeWithEdges(ctx, LabelStopTime, Props{}, []EdgeTo{{Rel: RelPartOfTrip, Target: ref(LabelTrip, "trip_id", int64(1))}}))

	assert.Equal(t, Stats{Failures: 3}, stats)
}

func TestImportWithRejectingStore(t *testing.T) {
	summary, err := ImportFS(context.Background(), sampleFeed().fs(), failingGraph{}, nil)
	assert.NoError(t, err)
	assert.Equal(t, 0, summary.Total.Entities())
	// one per row: agency, route, trip, stop and two stop times
	assert.Equal(t, 6, summary.Total.Failures)
}

func TestInitSchemaReportsFailures(t *testing.T) {
	err := InitSchema(context.Background(), failingGraph{}, nil)
	assert.ErrorIs(t, err, errRejected)
}
