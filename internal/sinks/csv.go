package sinks

import (
	"bufio"
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
)

// CSVWriter writes each table to `<dir>/<name>.csv` with a header row. The
// directory is only created once the first table is written.
type CSVWriter struct {
	dir string
}

func NewCSVWriter(dir string) (CSVWriter, error) {
	if dir == "" {
		return CSVWriter{}, fmt.Errorf("csv output directory is empty")
	}
	return CSVWriter{dir: dir}, nil
}

func (w CSVWriter) Path(name string) string {
	return filepath.Join(w.dir, name+".csv")
}

func (w CSVWriter) WriteTable(ctx context.Context, table Table) error {
	err := table.validate()
	if err != nil {
		return err
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}

	err = os.MkdirAll(w.dir, 0777)
	if err != nil {
		return fmt.Errorf("create csv directory: %w", err)
	}
	file, err := os.Create(w.Path(table.Name))
	if err != nil {
		return fmt.Errorf("create %s: %w", table.Name, err)
	}
	defer file.Close()

	buffered := bufio.NewWriter(file)
	csvWriter := csv.NewWriter(buffered)
	err = csvWriter.Write(table.Header)
	if err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	err = csvWriter.WriteAll(table.Rows)
	if err != nil {
		return fmt.Errorf("write %s rows: %w", table.Name, err)
	}
	err = buffered.Flush()
	if err != nil {
		return fmt.Errorf("flush %s: %w", table.Name, err)
	}
	return file.Close()
}

func (w CSVWriter) Close() error {
	return nil
}
