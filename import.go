package gtfs2neo4j

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
)

var ErrInvalidDelimiter = errors.New("invalid CSV delimiter")

const defaultProgressEvery = 10000

type ImportOpts struct {
	// Delimiter separates fields in every table. Defaults to ','.
	Delimiter rune
	// ClipFeature is a GeoJSON object. If set only stops inside it are
	// imported.
	ClipFeature string
	// ProgressEvery is the number of rows between progress lines. Negative
	// disables progress output.
	ProgressEvery int
	Logger        *slog.Logger
}

type PhaseSummary struct {
	Name    string
	Stats   Stats
	Elapsed time.Duration
}

type Summary struct {
	RunID   string
	Phases  []PhaseSummary
	Total   Stats
	Elapsed time.Duration
}

// Import loads the GTFS feed at inputPath, a zip archive or a directory,
// into graph.
func Import(ctx context.Context, inputPath string, graph Graph, opts *ImportOpts) (*Summary, error) {
	if inputPath == "" {
		panic("Missing inputPath")
	}
	fsys, closer, err := openFeed(inputPath)
	if err != nil {
		return nil, err
	}
	defer func() { _ = closer.Close() }()

	return ImportFS(ctx, fsys, graph, opts)
}

// ImportFS is like Import but reads the tables from the root of fsys.
func ImportFS(ctx context.Context, fsys fs.FS, graph Graph, opts *ImportOpts) (*Summary, error) {
	if graph == nil {
		panic("Missing graph")
	}
	if opts == nil {
		opts = &ImportOpts{}
	}

	delim := opts.Delimiter
	if delim == 0 {
		delim = ','
	}
	if !validDelimiter(delim) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidDelimiter, delim)
	}
	progressEvery := opts.ProgressEvery
	if progressEvery == 0 {
		progressEvery = defaultProgressEvery
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	clip, err := newStopClip(opts.ClipFeature)
	if err != nil {
		return nil, err
	}
	if err := checkTables(fsys); err != nil {
		return nil, err
	}

	runID := uuid.NewString()
	r := &run{
		fsys:          fsys,
		graph:         graph,
		log:           logger.With("run", runID),
		delim:         delim,
		progressEvery: progressEvery,
		clip:          clip,
		sequences:     make(map[any][]int64),
	}
	if clip != nil {
		r.log.Info(fmt.Sprintf("Clipping stops to feature with %d points", clip.numPoints()))
	}

	summary := &Summary{RunID: runID}
	start := time.Now()

	r.log.Info("Creating constraints and indexes")
	if err := InitSchema(ctx, graph, r.log); err != nil {
		r.log.Error("Some schema declarations failed", "err", err)
	}

	phases := []struct {
		name string
		fn   func(ctx context.Context) (Stats, error)
	}{
		{"agencies", r.importAgencies},
		{"routes", r.importRoutes},
		{"trips", r.importTrips},
		{"stops", r.importStops},
		{"stop_times", r.importStopTimes},
		{"stop_time sequences", r.linkSequences},
	}
	for _, phase := range phases {
		phaseStart := time.Now()
		stats, err := phase.fn(ctx)
		r.total.add(stats)
		summary.Phases = append(summary.Phases, PhaseSummary{Name: phase.name, Stats: stats, Elapsed: time.Since(phaseStart)})
		if err != nil {
			summary.Total = r.total
			summary.Elapsed = time.Since(start)
			return summary, fmt.Errorf("import %s: %w", phase.name, err)
		}
		r.log.Info(fmt.Sprintf("Imported %s: %d nodes, %d edges, %d failures",
			phase.name, stats.Nodes, stats.Edges, stats.Failures))
	}

	summary.Total = r.total
	summary.Elapsed = time.Since(start)
	r.log.Info(fmt.Sprintf("Import complete, took %s for %d nodes and %d edges",
		summary.Elapsed.Round(time.Millisecond), summary.Total.Nodes, summary.Total.Edges))
	return summary, nil
}

// InitSchema declares every constraint and index. Objects that already exist
// are skipped. Other failures are returned together once every declaration
// has been attempted.
func InitSchema(ctx context.Context, graph Graph, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.Default()
	}
	var errs []error
	for _, decl := range graphSchema {
		err := graph.Declare(ctx, decl)
		switch {
		case err == nil:
			logger.Info("Created " + decl.String())
		case errors.Is(err, ErrSchemaExists):
			logger.Info(decl.String() + " already exists")
		default:
			logger.Error("Failed to create "+decl.String(), "err", err)
			errs = append(errs, fmt.Errorf("%s: %w", decl, err))
		}
	}
	return errors.Join(errs...)
}

func validDelimiter(r rune) bool {
	return r != 0 && r != '"' && r != '\r' && r != '\n' && utf8.ValidRune(r) && r != utf8.RuneError
}

// run holds the state shared between the phases of one import.
type run struct {
	fsys          fs.FS
	graph         Graph
	log           *slog.Logger
	delim         rune
	progressEvery int
	clip          *stopClip
	total         Stats

	agencyIDs []any
	// sequences holds the stop_sequence values of every created StopTime,
	// grouped by trip_id. tripOrder keeps trips in first-seen order.
	sequences map[any][]int64
	tripOrder []any
}

func (r *run) gateway(stats *Stats) *gateway {
	return &gateway{graph: r.graph, log: r.log, stats: stats}
}

// eachRow decodes every data row of table and passes it to fn. Malformed
// lines and unconvertible fields are logged and do not stop the table.
func (r *run) eachRow(ctx context.Context, table tableSchema, stats *Stats, fn func(props Props, errs []fieldError)) error {
	f, err := r.fsys.Open(table.File)
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()

	reader := csv.NewReader(f)
	reader.Comma = r.delim
	reader.FieldsPerRecord = -1 // Allow variable numbers of fields
	reader.ReuseRecord = true

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		r.log.Warn(fmt.Sprintf("%s is empty", table.File))
		return nil
	} else if err != nil {
		return fmt.Errorf("read %s header: %w", table.File, err)
	}
	decoder := newRowDecoder(table, header)
	if missing := decoder.missingRequired(); len(missing) > 0 {
		r.log.Warn(fmt.Sprintf("%s is missing required columns %v", table.File, missing))
	}

	rows := 0
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		var parseErr *csv.ParseError
		if errors.As(err, &parseErr) {
			stats.Failures++
			r.log.Error("Skipping malformed row", "file", table.File, "line", parseErr.Line, "err", err)
			continue
		} else if err != nil {
			return fmt.Errorf("read %s: %w", table.File, err)
		}

		props, fieldErrs := decoder.decode(row)
		if len(fieldErrs) > 0 {
			line, _ := reader.FieldPos(0)
			for _, fe := range fieldErrs {
				r.log.Warn("Failed to convert field, using fallback",
					"file", table.File, "line", line, "err", fe.Error(), "row", fmt.Sprint(row))
			}
		}
		fn(props, fieldErrs)

		rows++
		if r.progressEvery > 0 && rows%r.progressEvery == 0 {
			r.log.Info(fmt.Sprintf("Entities: %d", r.total.Entities()+stats.Entities()), "file", table.File, "rows", rows)
		}
	}
	r.log.Info(fmt.Sprintf("Read %d rows from %s", rows, table.File))
	return nil
}
