package batch

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
)

// CSVWriter appends rows to the batch output file. The header is written
// only when the file is new or empty.
type CSVWriter struct {
	f *os.File
	w *csv.Writer
}

func OpenCSV(path string, header []string) (*CSVWriter, error) {
	st, err := os.Stat(path)
	fresh := errors.Is(err, fs.ErrNotExist) || (err == nil && st.Size() == 0)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open output: %w", err)
	}
	cw := &CSVWriter{f: f, w: csv.NewWriter(f)}
	if fresh {
		if err := cw.Write(append(append([]string{}, header...), FilePathColumn)); err != nil {
			_ = f.Close()
			return nil, err
		}
	}
	return cw, nil
}

// Write appends one row and flushes so a crash loses at most the current file.
func (c *CSVWriter) Write(row []string) error {
	if err := c.w.Write(row); err != nil {
		return err
	}
	c.w.Flush()
	return c.w.Error()
}

func (c *CSVWriter) Close() error {
	c.w.Flush()
	if err := c.w.Error(); err != nil {
		_ = c.f.Close()
		return err
	}
	return c.f.Close()
}

// ReadCSV loads every row of a batch output file, header included.
func ReadCSV(r io.Reader) ([][]string, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	return cr.ReadAll()
}
