package gtfs2neo4j

import (
	"archive/zip"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
)

var ErrMissingTable = errors.New("missing required GTFS table")

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// openFeed opens a GTFS zip archive, or a directory holding an extracted feed.
func openFeed(path string) (fs.FS, io.Closer, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, nil, fmt.Errorf("open feed: %w", err)
	}
	if info.IsDir() {
		return os.DirFS(path), nopCloser{}, nil
	}
	r, err := zip.OpenReader(path)
	if err != nil {
		return nil, nil, fmt.Errorf("open feed archive %s: %w", path, err)
	}
	return r, r, nil
}

func checkTables(fsys fs.FS) error {
	var missing []string
	for _, table := range requiredTables {
		info, err := fs.Stat(fsys, table.File)
		if err != nil || info.IsDir() {
			missing = append(missing, table.File)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %v", ErrMissingTable, missing)
	}
	return nil
}
