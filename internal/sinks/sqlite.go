package sinks

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"

	_ "modernc.org/sqlite"
)

// SQLiteWriter replaces one sqlite table per written table. Columns whose
// every cell is an integer are declared INTEGER, everything else is TEXT.
type SQLiteWriter struct {
	db *sql.DB
}

func OpenSQLite(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}
	// every connection to ":memory:" is a separate database
	db.SetMaxOpenConns(1)
	return db, nil
}

func NewSQLiteWriter(db *sql.DB) SQLiteWriter {
	return SQLiteWriter{db: db}
}

func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

func integerColumns(table Table) []bool {
	out := make([]bool, len(table.Header))
	for col := range table.Header {
		out[col] = len(table.Rows) > 0
		for _, row := range table.Rows {
			_, err := strconv.ParseInt(row[col], 10, 64)
			if err != nil {
				out[col] = false
				break
			}
		}
	}
	return out
}

func (w SQLiteWriter) WriteTable(ctx context.Context, table Table) error {
	err := table.validate()
	if err != nil {
		return err
	}

	integers := integerColumns(table)
	columns := make([]string, len(table.Header))
	names := make([]string, len(table.Header))
	placeholders := make([]string, len(table.Header))
	for i, col := range table.Header {
		kind := "TEXT"
		if integers[i] {
			kind = "INTEGER"
		}
		columns[i] = quoteIdent(col) + " " + kind
		names[i] = quoteIdent(col)
		placeholders[i] = "?"
	}
	name := quoteIdent(table.Name)

	tx, err := w.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, "DROP TABLE IF EXISTS "+name)
	if err != nil {
		return fmt.Errorf("drop %s: %w", table.Name, err)
	}
	_, err = tx.ExecContext(ctx, fmt.Sprintf("CREATE TABLE %s (%s)", name, strings.Join(columns, ", ")))
	if err != nil {
		return fmt.Errorf("create %s: %w", table.Name, err)
	}

	stmt, err := tx.PrepareContext(ctx, fmt.Sprintf(
		"INSERT INTO %s (%s) VALUES (%s)",
		name,
		strings.Join(names, ", "),
		strings.Join(placeholders, ", "),
	))
	if err != nil {
		return fmt.Errorf("prepare insert %s: %w", table.Name, err)
	}
	defer stmt.Close()

	args := make([]any, len(table.Header))
	for i, row := range table.Rows {
		for col, cell := range row {
			args[col] = cell
			if integers[col] {
				n, _ := strconv.ParseInt(cell, 10, 64)
				args[col] = n
			}
		}
		_, err = stmt.ExecContext(ctx, args...)
		if err != nil {
			return fmt.Errorf("insert %s row %d: %w", table.Name, i, err)
		}
	}

	return tx.Commit()
}

func (w SQLiteWriter) Close() error {
	return w.db.Close()
}
