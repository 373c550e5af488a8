package common

import (
	"errors"
	"io/fs"
	"log/slog"
)

// LoadStatus classifies the outcome of reading a line-delimited data file.
type LoadStatus string

const (
	LoadOK         LoadStatus = "loaded"
	LoadEmpty      LoadStatus = "empty"      // file read fine but held no usable lines
	LoadMissing    LoadStatus = "missing"    // no such file, or no path configured
	LoadUnreadable LoadStatus = "unreadable" // file exists but could not be read
)

// LoadReport describes a data file load. Loaders never fail; they return empty
// data and a report so callers can tell "nothing configured" from "broken".
type LoadReport struct {
	Source  string
	Status  LoadStatus
	Entries int
	Err     error
}

// Degraded is true when the load fell back to empty data because of a problem.
func (r LoadReport) Degraded() bool {
	return r.Status == LoadMissing || r.Status == LoadUnreadable
}

// ReportFromError classifies a read error.
func ReportFromError(source string, err error) LoadReport {
	if errors.Is(err, fs.ErrNotExist) {
		return LoadReport{Source: source, Status: LoadMissing, Err: err}
	}
	return LoadReport{Source: source, Status: LoadUnreadable, Err: err}
}

// ReportEntries builds the report for a successful read of n entries.
func ReportEntries(source string, n int) LoadReport {
	if n == 0 {
		return LoadReport{Source: source, Status: LoadEmpty}
	}
	return LoadReport{Source: source, Status: LoadOK, Entries: n}
}

// Log writes the report at a level matching its status.
func (r LoadReport) Log(logger *slog.Logger, event string) {
	if logger == nil {
		logger = slog.Default()
	}
	switch r.Status {
	case LoadOK:
		logger.Debug(event, "source", r.Source, "status", r.Status, "entries", r.Entries)
	case LoadEmpty:
		logger.Info(event, "source", r.Source, "status", r.Status)
	default:
		logger.Warn(event, "source", r.Source, "status", r.Status, "error", r.Err)
	}
}
