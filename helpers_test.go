package gtfs2neo4j

import (
	"archive/zip"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/hexops/gotextdiff"
	"github.com/hexops/gotextdiff/myers"
	"github.com/hexops/gotextdiff/span"
	"github.com/stretchr/testify/require"
)

type testFeed map[string]string

func sampleFeed() testFeed {
	return testFeed{
		"agency.txt": "agency_id,agency_name,agency_url,agency_timezone\n" +
			"1,Test,http://example.com,Europe/Prague\n",
		"routes.txt": "route_id,agency_id,route_short_name,route_long_name,route_type\n" +
			"R1,1,1,Line one,3\n",
		"trips.txt": "route_id,service_id,trip_id,trip_headsign\n" +
			"R1,1,1,Centre\n",
		"stops.txt": "stop_id,stop_name,stop_lat,stop_lon\n" +
			"S1,Main square,49.19,16.61\n",
		"stop_times.txt": "trip_id,arrival_time,departure_time,stop_id,stop_sequence\n" +
			"1,08:00:00,08:00:00,S1,1\n" +
			"1,08:05:00,08:05:00,S1,2\n",
	}
}

func (f testFeed) with(name, contents string) testFeed {
	out := make(testFeed, len(f))
	for k, v := range f {
		out[k] = v
	}
	out[name] = contents
	return out
}

func (f testFeed) without(name string) testFeed {
	out := make(testFeed, len(f))
	for k, v := range f {
		if k != name {
			out[k] = v
		}
	}
	return out
}

func (f testFeed) fs() fstest.MapFS {
	out := make(fstest.MapFS, len(f))
	for name, contents := range f {
		out[name] = &fstest.MapFile{Data: []byte(contents)}
	}
	return out
}

func (f testFeed) writeZip(t *testing.T, path string) {
	t.Helper()
	out, err := os.Create(path)
	require.NoError(t, err)
	w := zip.NewWriter(out)
	for name, contents := range f {
		entry, err := w.Create(name)
		require.NoError(t, err)
		_, err = entry.Write([]byte(contents))
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	require.NoError(t, out.Close())
}

func (f testFeed) writeDir(t *testing.T, dir string) {
	t.Helper()
	for name, contents := range f {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(contents), 0o644))
	}
}

func testTempdir(t *testing.T) string {
	dir, err := os.MkdirTemp("", "")
	require.NoError(t, err)
	t.Cleanup(func() {
		if t.Failed() {
			fmt.Println("Preserving tempdir after failed test", dir)
		} else {
			_ = os.RemoveAll(dir)
		}
	})
	return dir
}

func testGraph(t *testing.T) *SQLiteGraph {
	t.Helper()
	g, err := OpenSQLiteGraph(testTempdir(t) + "/graph.db")
	require.NoError(t, err)
	t.Cleanup(func() { _ = g.Close() })
	return g
}

func requireCount(t *testing.T, want int, count func(string) (int, error), name string) {
	t.Helper()
	got, err := count(name)
	require.NoError(t, err)
	require.Equal(t, want, got, name)
}

func assertDumpEqual(t *testing.T, expected []string, g *SQLiteGraph) {
	t.Helper()

	actual, err := g.Dump()
	require.NoError(t, err)

	expected = append([]string(nil), expected...)
	sort.Strings(expected)
	expectedText := strings.Join(expected, "\n") + "\n"
	actualText := strings.Join(actual, "\n") + "\n"

	edits := myers.ComputeEdits(span.URIFromPath("graph"), expectedText, actualText)
	if len(edits) > 0 {
		t.Error("graph differs from expected\n" + fmt.Sprint(gotextdiff.ToUnified("expected", "actual", expectedText, edits)))
	}
}
