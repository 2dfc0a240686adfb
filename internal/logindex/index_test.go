package logindex

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const logHeader = "Datum ;Zeit ;KF ;RGF ;SP FRT;FRT ;ES ;PA ;LL ;SZ ;SP uP;uP ;SM\n"

// writeLogFile writes a minimal valid daily log with the given embedded date.
func writeLogFile(t *testing.T, dir, name, date string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	content := logHeader + date + ";12:00:00;1;2;3;4;5;6;7;8;9;10;Burning\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestScanIndexesMatchingFiles(t *testing.T) {
	dir := t.TempDir()
	writeLogFile(t, dir, "CM130513.csv", "13.05.2013")
	writeLogFile(t, dir, "CM130514.csv", "14.05.2013")
	// Non-matching names are never indexed, whatever their contents.
	writeLogFile(t, dir, "CM130515.CSV", "15.05.2013")
	writeLogFile(t, dir, "notes.csv", "16.05.2013")
	require.NoError(t, os.Mkdir(filepath.Join(dir, "CM999999.csv"), 0755))

	ix := New()
	result, err := ix.Scan(context.Background(), dir, nil)
	require.NoError(t, err)

	assert.Equal(t, 2, result.FilesTotal)
	assert.Equal(t, 2, result.FilesIndexed)
	assert.False(t, result.NoMatches())
	assert.Equal(t, []string{"2013-05-13", "2013-05-14"}, ix.Dates())

	path, ok := ix.Lookup("2013-05-13")
	require.True(t, ok)
	assert.Equal(t, filepath.Join(dir, "CM130513.csv"), path)

	_, ok = ix.Lookup("2013-05-15")
	assert.False(t, ok)
}

func TestScanDateComesFromFirstDataRow(t *testing.T) {
	dir := t.TempDir()
	// The name encodes no date the index cares about; only the first
	// data row's first column counts.
	writeLogFile(t, dir, "CM000042.csv", "01.01.24")

	ix := New()
	_, err := ix.Scan(context.Background(), dir, nil)
	require.NoError(t, err)

	path, ok := ix.Lookup("2024-01-01")
	require.True(t, ok)
	assert.Equal(t, filepath.Join(dir, "CM000042.csv"), path)
}

func TestScanNoMatchesLeavesIndexUnchanged(t *testing.T) {
	prior := t.TempDir()
	writeLogFile(t, prior, "CM130513.csv", "13.05.2013")

	ix := New()
	_, err := ix.Scan(context.Background(), prior, nil)
	require.NoError(t, err)

	empty := t.TempDir()
	result, err := ix.Scan(context.Background(), empty, nil)
	require.NoError(t, err)

	assert.True(t, result.NoMatches())
	assert.Equal(t, []string{"2013-05-13"}, ix.Dates())
}

func TestScanDirectoryAccessFailure(t *testing.T) {
	ix := New()
	_, err := ix.Scan(context.Background(), filepath.Join(t.TempDir(), "missing"), nil)

	var accessErr *AccessError
	require.ErrorAs(t, err, &accessErr)
	assert.Equal(t, 0, ix.Len())
}

func TestScanMergesAndLastFileWins(t *testing.T) {
	first := t.TempDir()
	writeLogFile(t, first, "CM130513.csv", "13.05.2013")

	ix := New()
	_, err := ix.Scan(context.Background(), first, nil)
	require.NoError(t, err)

	// Second directory: a new date plus a duplicate of an indexed one.
	second := t.TempDir()
	writeLogFile(t, second, "CM000001.csv", "13.05.2013")
	writeLogFile(t, second, "CM000002.csv", "14.05.2013")

	_, err = ix.Scan(context.Background(), second, nil)
	require.NoError(t, err)

	assert.Equal(t, []string{"2013-05-13", "2013-05-14"}, ix.Dates())
	path, _ := ix.Lookup("2013-05-13")
	assert.Equal(t, filepath.Join(second, "CM000001.csv"), path)
}

func TestRescanIsIdempotent(t *testing.T) {
	dir := t.TempDir()
	for i := 1; i <= 3; i++ {
		writeLogFile(t, dir, fmt.Sprintf("CM00000%d.csv", i), fmt.Sprintf("0%d.05.2013", i))
	}

	ix := New()
	_, err := ix.Scan(context.Background(), dir, nil)
	require.NoError(t, err)
	want := ix.Files()

	_, err = ix.Scan(context.Background(), dir, nil)
	require.NoError(t, err)

	assert.Equal(t, want, ix.Files())
}

func TestScanCancelRestoresPriorIndex(t *testing.T) {
	prior := t.TempDir()
	writeLogFile(t, prior, "CM130513.csv", "13.05.2013")

	ix := New()
	_, err := ix.Scan(context.Background(), prior, nil)
	require.NoError(t, err)
	want := ix.Files()

	dir := t.TempDir()
	for i := 1; i <= 5; i++ {
		writeLogFile(t, dir, fmt.Sprintf("CM00000%d.csv", i), fmt.Sprintf("0%d.06.2013", i))
	}

	ctx, cancel := context.WithCancel(context.Background())
	_, err = ix.Scan(ctx, dir, func(indexed, total int) {
		if indexed == 2 {
			cancel()
		}
	})
	require.ErrorIs(t, err, context.Canceled)

	// Not a 2-file partial index: exactly the pre-scan state.
	assert.Equal(t, want, ix.Files())
}

func TestScanMalformedFileAbortsAndPreservesIndex(t *testing.T) {
	prior := t.TempDir()
	writeLogFile(t, prior, "CM130513.csv", "13.05.2013")

	ix := New()
	_, err := ix.Scan(context.Background(), prior, nil)
	require.NoError(t, err)
	want := ix.Files()

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "CM000001.csv"),
		[]byte(logHeader+"not-a-date;12:00:00;1;2;3;4;5;6;7;8;9;10;Burning\n"), 0644))

	_, err = ix.Scan(context.Background(), dir, nil)
	require.Error(t, err)
	assert.Equal(t, want, ix.Files())
}

func TestOverlappingScansBothCommit(t *testing.T) {
	const scans = 4
	dirs := make([]string, scans)
	for i := range dirs {
		dirs[i] = t.TempDir()
		writeLogFile(t, dirs[i], "CM000001.csv", fmt.Sprintf("0%d.05.2013", i+1))
	}

	// Scans must not run interleaved: a scan staging against a stale
	// snapshot would wipe out another scan's committed entries.
	var active, overlapped int32
	slowProgress := func(indexed, total int) {
		if atomic.AddInt32(&active, 1) > 1 {
			atomic.StoreInt32(&overlapped, 1)
		}
		time.Sleep(2 * time.Millisecond)
		atomic.AddInt32(&active, -1)
	}

	ix := New()
	var wg sync.WaitGroup
	for _, dir := range dirs {
		wg.Add(1)
		go func(dir string) {
			defer wg.Done()
			_, err := ix.Scan(context.Background(), dir, slowProgress)
			assert.NoError(t, err)
		}(dir)
	}
	wg.Wait()

	assert.Zero(t, overlapped, "scans ran interleaved")
	assert.Equal(t,
		[]string{"2013-05-01", "2013-05-02", "2013-05-03", "2013-05-04"},
		ix.Dates())
}

func TestScanReportsProgress(t *testing.T) {
	dir := t.TempDir()
	for i := 1; i <= 3; i++ {
		writeLogFile(t, dir, fmt.Sprintf("CM00000%d.csv", i), fmt.Sprintf("0%d.05.2013", i))
	}

	var calls [][2]int
	ix := New()
	_, err := ix.Scan(context.Background(), dir, func(indexed, total int) {
		calls = append(calls, [2]int{indexed, total})
	})
	require.NoError(t, err)

	assert.Equal(t, [][2]int{{1, 3}, {2, 3}, {3, 3}}, calls)
}
