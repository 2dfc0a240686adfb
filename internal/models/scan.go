package models

// ScanStatus represents the status of a directory scan session.
type ScanStatus string

const (
	ScanStatusPending   ScanStatus = "pending"
	ScanStatusScanning  ScanStatus = "scanning"
	ScanStatusComplete  ScanStatus = "complete"
	ScanStatusCancelled ScanStatus = "cancelled"
	ScanStatusError     ScanStatus = "error"
)

// ScanSession represents one directory scan. A scan walks the chosen
// directory once, indexes every matching log file, and either commits
// the whole result or leaves the index untouched.
type ScanSession struct {
	ID           string     `json:"id"`
	Directory    string     `json:"directory"`
	Status       ScanStatus `json:"status"`
	Progress     float64    `json:"progress"` // 0-100
	FilesTotal   int        `json:"filesTotal"`
	FilesIndexed int        `json:"filesIndexed"`
	NoMatches    bool       `json:"noMatches,omitempty"` // zero files matched the naming pattern
	Error        string     `json:"error,omitempty"`
}

// NewScanSession creates a ScanSession in pending status.
func NewScanSession(id, directory string) *ScanSession {
	return &ScanSession{
		ID:        id,
		Directory: directory,
		Status:    ScanStatusPending,
	}
}
