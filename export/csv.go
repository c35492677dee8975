package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"runtime"

	"directory-scraper/models"
)

// CSVWriter writes records to a CSV file, replacing previous content
type CSVWriter struct {
	path string
}

// NewCSVWriter creates a writer for path
func NewCSVWriter(path string) *CSVWriter {
	return &CSVWriter{path: path}
}

// Path returns the destination file
func (w *CSVWriter) Path() string {
	return w.path
}

// WriteRecords creates or truncates the file and writes the header followed
// by one row per record in order
func (w *CSVWriter) WriteRecords(records []models.Record) (err error) {
	f, err := os.Create(w.path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", w.path, err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("failed to close %s: %w", w.path, cerr)
		}
	}()

	return WriteCSV(f, records)
}

// WriteCSV encodes records with the fixed header. Line endings follow the
// platform convention.
func WriteCSV(out io.Writer, records []models.Record) error {
	cw := csv.NewWriter(out)
	cw.UseCRLF = runtime.GOOS == "windows"

	if err := cw.Write(models.CSVHeader); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	for i, record := range records {
		if err := cw.Write(record.Row()); err != nil {
			return fmt.Errorf("failed to write record %d: %w", i+1, err)
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("failed to flush CSV: %w", err)
	}
	return nil
}
