package sinks

import (
	"context"
	"fmt"
)

// Table is a named header + rows, every row has exactly len(Header) cells.
type Table struct {
	Name   string
	Header []string
	Rows   [][]string
}

func (t Table) validate() error {
	if t.Name == "" {
		return fmt.Errorf("table has no name")
	}
	if len(t.Header) == 0 {
		return fmt.Errorf("table %s has no columns", t.Name)
	}
	for i, row := range t.Rows {
		if len(row) != len(t.Header) {
			return fmt.Errorf("table %s: row %d has %d cells, expected %d", t.Name, i, len(row), len(t.Header))
		}
	}
	return nil
}

// TableWriter persists tables somewhere, Close flushes whatever is buffered.
type TableWriter interface {
	WriteTable(ctx context.Context, table Table) error
	Close() error
}

// MultiWriter writes every table to all of its writers in order.
type MultiWriter []TableWriter

func (m MultiWriter) WriteTable(ctx context.Context, table Table) error {
	for _, w := range m {
		err := w.WriteTable(ctx, table)
		if err != nil {
			return err
		}
	}
	return nil
}

func (m MultiWriter) Close() error {
	var firstErr error
	for _, w := range m {
		err := w.Close()
		if err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
