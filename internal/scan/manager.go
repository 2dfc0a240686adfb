// Package scan runs directory scan sessions against the log index.
package scan

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/okofen-viewer/backend/internal/logindex"
	"github.com/okofen-viewer/backend/internal/models"
	"github.com/okofen-viewer/backend/internal/parser"
)

// MaxScans limits how many scan sessions are kept around.
const MaxScans = 10

// ErrNoLogForDate is returned when a date has no indexed log file.
var ErrNoLogForDate = errors.New("no log for date")

// Manager owns the log index, runs scan sessions against it and caches
// parsed days. Scans run one goroutine each; files within a scan are
// processed strictly in sequence.
type Manager struct {
	mu    sync.RWMutex
	scans map[string]*scanState
	index *logindex.Index

	cacheMu sync.RWMutex
	days    map[string]*models.DayLog
}

type scanState struct {
	session *models.ScanSession
	cancel  context.CancelFunc
}

// NewManager creates a manager around an index.
func NewManager(index *logindex.Index) *Manager {
	return &Manager{
		scans: make(map[string]*scanState),
		index: index,
		days:  make(map[string]*models.DayLog),
	}
}

// Index returns the managed index, for read access by handlers.
func (m *Manager) Index() *logindex.Index {
	return m.index
}

// StartScan begins scanning a directory in the background and returns
// the new session.
func (m *Manager) StartScan(directory string) (*models.ScanSession, error) {
	m.dropFinishedScansIfNeeded()

	scanID := uuid.New().String()
	session := models.NewScanSession(scanID, directory)
	session.Status = models.ScanStatusScanning

	ctx, cancel := context.WithCancel(context.Background())

	m.mu.Lock()
	m.scans[scanID] = &scanState{session: session, cancel: cancel}
	m.mu.Unlock()

	go m.runScan(ctx, scanID, directory)

	copied := *session
	return &copied, nil
}

func (m *Manager) runScan(ctx context.Context, scanID, directory string) {
	defer func() {
		if r := recover(); r != nil {
			fmt.Printf("[Scan %s] PANIC recovered: %v\n", scanID[:8], r)
			m.finishScan(scanID, func(s *models.ScanSession) {
				s.Status = models.ScanStatusError
				s.Error = fmt.Sprintf("scan panicked: %v", r)
			})
		}
	}()

	fmt.Printf("[Scan %s] Scanning %s\n", scanID[:8], directory)

	onProgress := func(indexed, total int) {
		m.mu.Lock()
		if state, ok := m.scans[scanID]; ok {
			state.session.FilesIndexed = indexed
			state.session.FilesTotal = total
			state.session.Progress = float64(indexed) * 100.0 / float64(total)
		}
		m.mu.Unlock()
	}

	result, err := m.index.Scan(ctx, directory, onProgress)
	switch {
	case errors.Is(err, context.Canceled):
		fmt.Printf("[Scan %s] Cancelled, index restored\n", scanID[:8])
		m.finishScan(scanID, func(s *models.ScanSession) {
			s.Status = models.ScanStatusCancelled
		})
	case err != nil:
		fmt.Printf("[Scan %s] ERROR: %v\n", scanID[:8], err)
		m.finishScan(scanID, func(s *models.ScanSession) {
			s.Status = models.ScanStatusError
			s.Error = err.Error()
		})
	default:
		fmt.Printf("[Scan %s] Complete: %d of %d files indexed\n", scanID[:8], result.FilesIndexed, result.FilesTotal)
		m.finishScan(scanID, func(s *models.ScanSession) {
			s.Status = models.ScanStatusComplete
			s.Progress = 100
			s.FilesTotal = result.FilesTotal
			s.FilesIndexed = result.FilesIndexed
			s.NoMatches = result.NoMatches()
		})
		// Paths behind already-cached dates may have changed.
		m.invalidateDays()
	}
}

func (m *Manager) finishScan(scanID string, update func(*models.ScanSession)) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if state, ok := m.scans[scanID]; ok {
		update(state.session)
	}
}

// GetScan returns a snapshot of a scan session.
func (m *Manager) GetScan(id string) (*models.ScanSession, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	state, ok := m.scans[id]
	if !ok {
		return nil, false
	}
	copied := *state.session
	return &copied, true
}

// CancelScan requests cooperative cancellation of a running scan.
// Returns false if the scan does not exist.
func (m *Manager) CancelScan(id string) bool {
	m.mu.RLock()
	state, ok := m.scans[id]
	m.mu.RUnlock()

	if !ok {
		return false
	}
	state.cancel()
	return true
}

// Day returns the parsed log for a date, from cache when possible.
func (m *Manager) Day(date string) (*models.DayLog, error) {
	m.cacheMu.RLock()
	day, ok := m.days[date]
	m.cacheMu.RUnlock()
	if ok {
		return day, nil
	}

	path, ok := m.index.Lookup(date)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNoLogForDate, date)
	}

	day, err := parser.ParseDay(path)
	if err != nil {
		return nil, err
	}

	m.cacheMu.Lock()
	m.days[date] = day
	m.cacheMu.Unlock()
	return day, nil
}

func (m *Manager) invalidateDays() {
	m.cacheMu.Lock()
	m.days = make(map[string]*models.DayLog)
	m.cacheMu.Unlock()
}

// dropFinishedScansIfNeeded removes finished sessions once the table is
// at capacity.
func (m *Manager) dropFinishedScansIfNeeded() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.scans) < MaxScans {
		return
	}

	toFree := len(m.scans) - MaxScans + 1
	for id, state := range m.scans {
		if toFree == 0 {
			break
		}
		switch state.session.Status {
		case models.ScanStatusComplete, models.ScanStatusCancelled, models.ScanStatusError:
			delete(m.scans, id)
			toFree--
		}
	}
}
