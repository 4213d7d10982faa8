package gtfs2neo4j

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleConfig = `
neo4j:
  uri: neo4j://localhost:7687
  username: neo4j
  password: secret
import:
  delimiter: ";"
  progressEvery: 500
`

func writeConfig(t *testing.T, contents string) string {
	t.Helper()
	path := testTempdir(t) + "/config.yml"
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))
	return path
}

func TestLoadConfig(t *testing.T) {
	cfg, err := LoadConfig(writeConfig(t, sampleConfig))
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, Neo4jOpts{URI: "neo4j://localhost:7687", Username: "neo4j", Password: "secret"}, cfg.Neo4jOpts())

	opts, err := cfg.ImportOpts()
	require.NoError(t, err)
	assert.Equal(t, ';', opts.Delimiter)
	assert.Equal(t, 500, opts.ProgressEvery)
}

func TestLoadConfigMissingFile(t *testing.T) {
	_, err := LoadConfig(testTempdir(t) + "/nope.yml")
	require.ErrorIs(t, err, os.ErrNotExist)
}

func TestLoadConfigEmptyPath(t *testing.T) {
	cfg, err := LoadConfig("")
	require.NoError(t, err)
	assert.Equal(t, &Config{}, cfg)
}

func TestConfigValidate(t *testing.T) {
	t.Run("neo4j required", func(t *testing.T) {
		cfg := &Config{}
		require.Error(t, cfg.Validate())
	})
	t.Run("sqlite needs no neo4j", func(t *testing.T) {
		cfg := &Config{SQLite: "graph.db"}
		require.NoError(t, cfg.Validate())
	})
	t.Run("bad uri", func(t *testing.T) {
		cfg := &Config{Neo4j: Neo4jConfig{URI: "not a uri", Username: "neo4j"}}
		require.Error(t, cfg.Validate())
	})
	t.Run("long delimiter", func(t *testing.T) {
		cfg := &Config{SQLite: "graph.db", Import: ImportConfig{Delimiter: ";;"}}
		require.Error(t, cfg.Validate())
	})
	t.Run("missing clip feature", func(t *testing.T) {
		cfg := &Config{SQLite: "graph.db", Import: ImportConfig{ClipFeature: "/does/not/exist.json"}}
		require.Error(t, cfg.Validate())
	})
}

func TestConfigApplyEnv(t *testing.T) {
	t.Setenv("NEO4J_URI", "bolt://db:7687")
	t.Setenv("NEO4J_USERNAME", "importer")
	t.Setenv("NEO4J_PASSWORD", "hunter2")
	t.Setenv("NEO4J_DATABASE", "")
	t.Setenv("GTFS_DELIMITER", "\t")

	cfg, err := LoadConfig(writeConfig(t, sampleConfig))
	require.NoError(t, err)
	cfg.ApplyEnv()

	assert.Equal(t, Neo4jConfig{URI: "bolt://db:7687", Username: "importer", Password: "hunter2"}, cfg.Neo4j)
	opts, err := cfg.ImportOpts()
	require.NoError(t, err)
	assert.Equal(t, '\t', opts.Delimiter)
}

func TestConfigClipFeature(t *testing.T) {
	path := testTempdir(t) + "/clip.json"
	require.NoError(t, os.WriteFile(path, []byte(clipSquare), 0o644))

	cfg := &Config{SQLite: "graph.db", Import: ImportConfig{ClipFeature: path}}
	require.NoError(t, cfg.Validate())
	opts, err := cfg.ImportOpts()
	require.NoError(t, err)
	assert.Equal(t, clipSquare, opts.ClipFeature)
}

func TestConfigInvalidDelimiter(t *testing.T) {
	cfg := &Config{Import: ImportConfig{Delimiter: "\""}}
	_, err := cfg.ImportOpts()
	require.ErrorIs(t, err, ErrInvalidDelimiter)
}
