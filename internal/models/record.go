// Package models contains domain types for the Ökofen log viewer.
package models

import "time"

// BurnerStatus is the SM column of a log row: the operating phase the
// pellet burner was in when the row was written.
type BurnerStatus string

const (
	StatusZuendung BurnerStatus = "Zuendung" // ignition
	StatusSoftstrt BurnerStatus = "Softstrt" // soft start
	StatusBurning  BurnerStatus = "Burning"
	StatusNachlauf BurnerStatus = "Nachlauf" // post-run
)

// KnownStatuses lists the burner phases the controller writes. Anything
// else in the SM column is folded into StatusBurning, matching the
// controller software's own fallback.
var KnownStatuses = map[BurnerStatus]struct{}{
	StatusZuendung: {},
	StatusSoftstrt: {},
	StatusBurning:  {},
	StatusNachlauf: {},
}

// NormalizeStatus maps a raw SM field to a BurnerStatus. Unknown or
// empty values become StatusBurning.
func NormalizeStatus(raw string) BurnerStatus {
	s := BurnerStatus(raw)
	if _, ok := KnownStatuses[s]; ok {
		return s
	}
	return StatusBurning
}

// LogRecord is one row of a daily Ökofen log file. The column order is
// fixed by the controller's CSV export. Records are never mutated after
// parsing.
type LogRecord struct {
	Timestamp time.Time    `json:"timestamp"` // file date + row time-of-day
	Time      string       `json:"time"`      // HH:MM:SS, for table display
	KF        int          `json:"kf"`
	RGF       int          `json:"rgf"`
	SPFRT     int          `json:"spFrt"`
	FRT       int          `json:"frt"`
	ES        int          `json:"es"`
	PA        int          `json:"pa"`
	LL        int          `json:"ll"`
	SZ        int          `json:"sz"`
	SPuP      int          `json:"spUp"`
	UP        int          `json:"up"`
	SM        BurnerStatus `json:"sm"`
}

// ColumnNames is the header row of the detail table, in record order.
var ColumnNames = []string{
	"Time", "KF", "RGF", "SP_FRT", "FRT", "ES", "PA", "LL", "SZ", "SP_uP", "uP", "SM",
}
