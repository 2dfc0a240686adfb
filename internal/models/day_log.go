package models

// DayLog is the parsed content of one daily log file. Records are in
// file order, which the controller writes chronologically.
type DayLog struct {
	Date     string      `json:"date"` // YYYY-MM-DD
	FilePath string      `json:"filePath"`
	Records  []LogRecord `json:"records"`
}

// LogFileInfo describes one indexed log file for the overview list.
type LogFileInfo struct {
	Date string `json:"date"` // YYYY-MM-DD
	Name string `json:"name"` // base name, e.g. CM130513.csv
	Path string `json:"path"`
}
