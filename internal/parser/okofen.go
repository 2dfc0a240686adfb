// Package parser reads daily Ökofen CSV log files into typed records.
package parser

import (
	"bufio"
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/okofen-viewer/backend/internal/models"
)

// Daily log files are named CM + 6 digits + .csv. Matching is exact;
// the controller never writes an uppercase extension.
var fileNameRegex = regexp.MustCompile(`^CM[0-9]{6}\.csv$`)

// MatchesLogName reports whether a base file name is a daily log export.
func MatchesLogName(name string) bool {
	return fileNameRegex.MatchString(name)
}

// rawColumns is the number of semicolon-separated fields a data row must
// have: a raw timestamp prefix followed by the 12 logical columns.
const rawColumns = 13

// RowError reports a data row that could not be parsed. A RowError is
// fatal for the whole file: the export format is fixed, so a bad row
// means the file is not a valid log.
type RowError struct {
	Line   int
	Reason string
}

func (e *RowError) Error() string {
	return fmt.Sprintf("line %d: %s", e.Line, e.Reason)
}

// FileDate returns the date a log file was written, in YYYY-MM-DD form.
// The date comes from the first field of the first data row; all rows of
// a file share it.
func FileDate(path string) (string, error) {
	file, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer file.Close()

	sc := newLineScanner(file)
	if _, _, ok := sc.next(); !ok { // header
		return "", fmt.Errorf("%s: empty file", path)
	}
	line, lineNum, ok := sc.next()
	if !ok {
		return "", fmt.Errorf("%s: no data rows", path)
	}
	if err := sc.err(); err != nil {
		return "", err
	}

	first := line
	if i := strings.IndexByte(line, ';'); i >= 0 {
		first = line[:i]
	}
	date, err := parseFileDate(first)
	if err != nil {
		return "", &RowError{Line: lineNum, Reason: fmt.Sprintf("invalid date %q: %v", first, err)}
	}
	return date.Format("2006-01-02"), nil
}

// ParseDay parses a full log file into a DayLog. Records come back in
// file order. Any malformed row aborts the parse; there is no partial
// result.
func ParseDay(path string) (*models.DayLog, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	sc := newLineScanner(file)
	if _, _, ok := sc.next(); !ok { // header
		return nil, fmt.Errorf("%s: empty file", path)
	}

	var (
		date    time.Time
		records []models.LogRecord
	)
	for {
		line, lineNum, ok := sc.next()
		if !ok {
			break
		}

		fields := strings.Split(line, ";")
		if len(fields) < rawColumns {
			return nil, &RowError{Line: lineNum, Reason: fmt.Sprintf("expected %d columns, got %d", rawColumns, len(fields))}
		}

		// The file's date is fixed by the first data row; only the
		// time-of-day varies after that.
		if date.IsZero() {
			d, err := parseFileDate(strings.TrimSpace(fields[0]))
			if err != nil {
				return nil, &RowError{Line: lineNum, Reason: fmt.Sprintf("invalid date %q: %v", fields[0], err)}
			}
			date = d
		}

		rec, err := parseRow(date, fields, lineNum)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	if err := sc.err(); err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("%s: no data rows", path)
	}

	return &models.DayLog{
		Date:     date.Format("2006-01-02"),
		FilePath: path,
		Records:  records,
	}, nil
}

// parseRow turns raw columns 2-13 of a data row into a LogRecord.
// Column 1 (the raw timestamp prefix) is ignored for row data.
func parseRow(date time.Time, fields []string, lineNum int) (models.LogRecord, error) {
	ts, err := parseRowTime(date, strings.TrimSpace(fields[1]))
	if err != nil {
		return models.LogRecord{}, &RowError{Line: lineNum, Reason: fmt.Sprintf("invalid time %q: %v", fields[1], err)}
	}

	ints := [10]int{}
	names := models.ColumnNames[1:11] // KF .. uP
	for i := 0; i < 10; i++ {
		raw := strings.TrimSpace(fields[2+i])
		v, err := strconv.Atoi(raw)
		if err != nil {
			return models.LogRecord{}, &RowError{Line: lineNum, Reason: fmt.Sprintf("column %s: %q is not an integer", names[i], raw)}
		}
		ints[i] = v
	}

	return models.LogRecord{
		Timestamp: ts,
		Time:      ts.Format("15:04:05"),
		KF:        ints[0],
		RGF:       ints[1],
		SPFRT:     ints[2],
		FRT:       ints[3],
		ES:        ints[4],
		PA:        ints[5],
		LL:        ints[6],
		SZ:        ints[7],
		SPuP:      ints[8],
		UP:        ints[9],
		SM:        models.NormalizeStatus(strings.TrimSpace(fields[12])),
	}, nil
}

// parseFileDate parses the controller's D.M.YYYY date field. Day and
// month may or may not carry leading zeros. Some firmware revisions
// write two-digit years; those are 20xx.
func parseFileDate(raw string) (time.Time, error) {
	if t, err := time.Parse("2.1.2006", raw); err == nil {
		return t, nil
	}
	return time.Parse("2.1.06", raw)
}

// parseRowTime combines the file date with an H:M:S field that may lack
// leading zeros (e.g. "9:5:3").
func parseRowTime(date time.Time, raw string) (time.Time, error) {
	parts := strings.Split(raw, ":")
	if len(parts) != 3 {
		return time.Time{}, fmt.Errorf("want H:M:S")
	}
	var hms [3]int
	for i, p := range parts {
		v, err := strconv.Atoi(p)
		if err != nil {
			return time.Time{}, err
		}
		hms[i] = v
	}
	if hms[0] < 0 || hms[0] > 23 || hms[1] < 0 || hms[1] > 59 || hms[2] < 0 || hms[2] > 59 {
		return time.Time{}, fmt.Errorf("out of range")
	}
	return time.Date(date.Year(), date.Month(), date.Day(), hms[0], hms[1], hms[2], 0, time.UTC), nil
}

// lineScanner yields non-blank lines with NUL bytes stripped. The
// controller occasionally pads exports with stray NULs and blank lines.
type lineScanner struct {
	sc      *bufio.Scanner
	lineNum int
}

func newLineScanner(f *os.File) *lineScanner {
	return &lineScanner{sc: bufio.NewScanner(f)}
}

func (l *lineScanner) next() (line string, lineNum int, ok bool) {
	for l.sc.Scan() {
		l.lineNum++
		line := strings.ReplaceAll(l.sc.Text(), "\x00", "")
		if strings.TrimSpace(line) == "" {
			continue
		}
		return line, l.lineNum, true
	}
	return "", 0, false
}

func (l *lineScanner) err() error {
	return l.sc.Err()
}
