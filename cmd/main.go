package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/dzfranklin/gtfs2neo4j"
	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
)

/* Runtime notes: one request per entity, so expect hours for feeds with
hundreds of thousands of stop times against a remote server. Writing to
--sqlite is much faster.
*/

func usageAndDie() {
	fmt.Println("Example usage:\n" +
		"    gtfs2neo4j --uri neo4j://localhost:7687 --user neo4j --password secret <timetable.zip>\n" +
		"    gtfs2neo4j --sqlite timetable.graph.db <timetable.zip>\n" +
		"    gtfs2neo4j --config gtfs2neo4j.yml <timetable.zip>")
	os.Exit(1)
}

func main() {
	configPath := pflag.StringP("config", "c", "", "YAML config file")
	uri := pflag.StringP("uri", "u", "", "Neo4j URI (env NEO4J_URI)")
	user := pflag.String("user", "", "Neo4j username (env NEO4J_USERNAME)")
	password := pflag.StringP("password", "p", "", "Neo4j password (env NEO4J_PASSWORD)")
	database := pflag.String("database", "", "Neo4j database, defaults to the server default (env NEO4J_DATABASE)")
	sqlitePath := pflag.String("sqlite", "", "Write the graph to this SQLite file instead of Neo4j")
	delim := pflag.StringP("delim", "d", "", "CSV delimiter of the GTFS files (default \",\")")
	clipFeature := pflag.String("clip-feature", "", "Only import stops inside the GeoJSON feature in this file")
	progress := pflag.Int("progress", 0, "Rows between progress lines, -1 to disable")
	pflag.Parse()

	if pflag.NArg() != 1 {
		usageAndDie()
	}
	inputPath := pflag.Arg(0)

	_ = godotenv.Load()

	cfg, err := gtfs2neo4j.LoadConfig(*configPath)
	if err != nil {
		die(err)
	}
	cfg.ApplyEnv()

	flags := pflag.CommandLine
	if flags.Changed("uri") {
		cfg.Neo4j.URI = *uri
	}
	if flags.Changed("user") {
		cfg.Neo4j.Username = *user
	}
	if flags.Changed("password") {
		cfg.Neo4j.Password = *password
	}
	if flags.Changed("database") {
		cfg.Neo4j.Database = *database
	}
	if flags.Changed("sqlite") {
		cfg.SQLite = *sqlitePath
	}
	if flags.Changed("delim") {
		cfg.Import.Delimiter = *delim
	}
	if flags.Changed("clip-feature") {
		cfg.Import.ClipFeature = *clipFeature
	}
	if flags.Changed("progress") {
		cfg.Import.ProgressEvery = *progress
	}

	if err := cfg.Validate(); err != nil {
		die(err)
	}
	opts, err := cfg.ImportOpts()
	if err != nil {
		die(err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	var graph gtfs2neo4j.Graph
	if cfg.SQLite != "" {
		graph, err = gtfs2neo4j.OpenSQLiteGraph(cfg.SQLite)
	} else {
		graph, err = gtfs2neo4j.OpenNeo4j(ctx, cfg.Neo4jOpts())
	}
	if err != nil {
		die(err)
	}
	defer func() { _ = graph.Close() }()

	summary, err := gtfs2neo4j.Import(ctx, inputPath, graph, opts)
	if err != nil {
		_ = graph.Close()
		die(err)
	}

	fmt.Printf("Import complete, took %s for %d nodes and %d edges (%d failures)\n",
		summary.Elapsed.Round(time.Millisecond), summary.Total.Nodes, summary.Total.Edges, summary.Total.Failures)
}

func die(err error) {
	fmt.Printf("Error: %s\n", err)
	os.Exit(1)
}
