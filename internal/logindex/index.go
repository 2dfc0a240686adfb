// Package logindex maintains the date -> log file mapping built from a
// directory scan.
package logindex

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/okofen-viewer/backend/internal/models"
	"github.com/okofen-viewer/backend/internal/parser"
)

// AccessError reports a directory that could not be listed. The index
// is left unchanged when it occurs.
type AccessError struct {
	Dir string
	Err error
}

func (e *AccessError) Error() string {
	return fmt.Sprintf("cannot open directory %s: %v", e.Dir, e.Err)
}

func (e *AccessError) Unwrap() error {
	return e.Err
}

// ProgressFunc is called after each file is indexed during a scan.
type ProgressFunc func(indexed, total int)

// Result summarizes a completed scan.
type Result struct {
	FilesTotal   int // files matching the naming pattern
	FilesIndexed int
}

// NoMatches reports whether the scan found zero matching files. Not an
// error: the index simply stays as it was.
func (r *Result) NoMatches() bool {
	return r.FilesTotal == 0
}

// Index maps calendar dates (YYYY-MM-DD) to log file paths. Scans stage
// their work and commit in one step, so readers never observe a partial
// scan and a failed or cancelled scan leaves the previous mapping intact.
// Scans themselves run one at a time: a scan stages against a snapshot,
// so an overlapping scan committing later would discard the earlier
// scan's entries.
type Index struct {
	scanMu sync.Mutex
	mu     sync.RWMutex
	files  map[string]string
}

// New returns an empty index.
func New() *Index {
	return &Index{files: make(map[string]string)}
}

// Scan enumerates dir (non-recursive) for daily log files, derives each
// file's embedded date and merges date -> path entries into the index.
// The last file with a given date wins. Cancellation is checked between
// files; a cancelled scan commits nothing.
func (ix *Index) Scan(ctx context.Context, dir string, onProgress ProgressFunc) (*Result, error) {
	ix.scanMu.Lock()
	defer ix.scanMu.Unlock()

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, &AccessError{Dir: dir, Err: err}
	}

	var names []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if parser.MatchesLogName(entry.Name()) {
			names = append(names, entry.Name())
		}
	}

	result := &Result{FilesTotal: len(names)}
	if len(names) == 0 {
		return result, nil
	}

	// Stage into a copy of the current mapping; commit only when every
	// file has been indexed.
	staged := ix.snapshot()
	for i, name := range names {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		path := filepath.Join(dir, name)
		date, err := parser.FileDate(path)
		if err != nil {
			return nil, fmt.Errorf("indexing %s: %w", path, err)
		}
		staged[date] = path

		result.FilesIndexed = i + 1
		if onProgress != nil {
			onProgress(result.FilesIndexed, result.FilesTotal)
		}
	}

	ix.mu.Lock()
	ix.files = staged
	ix.mu.Unlock()
	return result, nil
}

func (ix *Index) snapshot() map[string]string {
	ix.mu.RLock()
	defer ix.mu.RUnlock()

	copied := make(map[string]string, len(ix.files))
	for date, path := range ix.files {
		copied[date] = path
	}
	return copied
}

// Lookup returns the log file path for a date.
func (ix *Index) Lookup(date string) (string, bool) {
	ix.mu.RLock()
	defer ix.mu.RUnlock()

	path, ok := ix.files[date]
	return path, ok
}

// Dates returns all indexed dates in ascending order.
func (ix *Index) Dates() []string {
	ix.mu.RLock()
	defer ix.mu.RUnlock()

	dates := make([]string, 0, len(ix.files))
	for date := range ix.files {
		dates = append(dates, date)
	}
	sort.Strings(dates)
	return dates
}

// Files returns the indexed log files sorted by date, for the overview
// list.
func (ix *Index) Files() []models.LogFileInfo {
	ix.mu.RLock()
	defer ix.mu.RUnlock()

	infos := make([]models.LogFileInfo, 0, len(ix.files))
	for date, path := range ix.files {
		infos = append(infos, models.LogFileInfo{
			Date: date,
			Name: filepath.Base(path),
			Path: path,
		})
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].Date < infos[j].Date })
	return infos
}

// Len returns the number of indexed dates.
func (ix *Index) Len() int {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return len(ix.files)
}
