// Package sqlstore keeps line datasets and loss results in a SQLite database.
package sqlstore

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"regexp"
	"strings"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/kilianp07/lineloss/core/batch"
	"github.com/kilianp07/lineloss/core/datasource"
	"github.com/kilianp07/lineloss/core/factory"
	"github.com/kilianp07/lineloss/core/model"
)

const (
	DefaultRecordsTable = "line_records"
	DefaultResultsTable = "loss_results"
)

var identRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

func init() {
	_ = datasource.Register("sqlite", func(conf map[string]any) (datasource.Source, error) {
		var c struct {
			Path  string `json:"path"`
			Table string `json:"table"`
		}
		if err := factory.Decode(conf, &c); err != nil {
			return nil, err
		}
		if c.Path == "" {
			return nil, fmt.Errorf("path is required")
		}
		return NewSource(c.Path, c.Table)
	})
}

type recordRow struct {
	Position int `db:"position"`
	model.LineRecord
}

type resultRow struct {
	Position int `db:"position"`
	model.LossResult
}

func checkIdent(name string) error {
	if !identRe.MatchString(name) {
		return fmt.Errorf("invalid table name %q", name)
	}
	return nil
}

// Source reads a dataset from an existing database file.
type Source struct {
	path  string
	table string
}

// NewSource returns a Source reading table from the database at path. An
// empty table name selects DefaultRecordsTable.
func NewSource(path, table string) (Source, error) {
	if table == "" {
		table = DefaultRecordsTable
	}
	if err := checkIdent(table); err != nil {
		return Source{}, err
	}
	return Source{path: path, table: table}, nil
}

// Load implements datasource.Source. The database is opened per call so the
// file may be replaced between loads.
func (s Source) Load(ctx context.Context) ([]model.LineRecord, error) {
	if _, err := os.Stat(s.path); errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%s: %w", s.path, datasource.ErrNotFound)
	}
	db, err := sqlx.Open("sqlite", s.path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = db.Close() }()
	return selectRecords(ctx, db, s.table)
}

func selectRecords(ctx context.Context, q sqlx.QueryerContext, table string) ([]model.LineRecord, error) {
	var rows []recordRow
	query := fmt.Sprintf(`SELECT position, %s FROM %s ORDER BY position`, strings.Join(recordCols, ", "), table)
	if err := sqlx.SelectContext(ctx, q, &rows, query); err != nil {
		if strings.Contains(err.Error(), "no such table") {
			return nil, fmt.Errorf("table %s: %w", table, datasource.ErrNotFound)
		}
		return nil, err
	}
	out := make([]model.LineRecord, len(rows))
	for i, r := range rows {
		out[i] = r.LineRecord
	}
	return out, nil
}

var recordCols = []string{
	"line_id", "area_name", "load_kw", "power_factor", "line_length_km",
	"resistance_ohm_km", "reactance_ohm_km", "conductor_type", "transformer_efficiency",
}

var resultCols = []string{
	"line_id", "area_name", "current_amps", "line_losses_kw", "transformer_losses_kw",
	"total_losses_kw", "loss_percentage", "voltage_drop_v", "efficiency",
}

// Store is a writable database holding one records table and one results
// table.
type Store struct {
	db      *sqlx.DB
	records string
	results string
}

// Open opens or creates the database at path and ensures the schema.
func Open(ctx context.Context, path string) (*Store, error) {
	db, err := sqlx.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	s := &Store{db: db, records: DefaultRecordsTable, results: DefaultResultsTable}
	schema := []string{
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
        position INTEGER PRIMARY KEY,
        line_id TEXT NOT NULL UNIQUE,
        area_name TEXT NOT NULL,
        load_kw REAL NOT NULL,
        power_factor REAL NOT NULL,
        line_length_km REAL NOT NULL,
        resistance_ohm_km REAL NOT NULL,
        reactance_ohm_km REAL NOT NULL,
        conductor_type TEXT NOT NULL,
        transformer_efficiency REAL NOT NULL
    );`, s.records),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
        position INTEGER PRIMARY KEY,
        line_id TEXT NOT NULL UNIQUE,
        area_name TEXT NOT NULL,
        current_amps REAL,
        line_losses_kw REAL,
        transformer_losses_kw REAL,
        total_losses_kw REAL,
        loss_percentage REAL,
        voltage_drop_v REAL,
        efficiency REAL
    );`, s.results),
	}
	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			_ = db.Close()
			return nil, err
		}
	}
	return s, nil
}

// ReplaceRecords swaps the stored dataset for recs in one transaction.
func (s *Store) ReplaceRecords(ctx context.Context, recs []model.LineRecord) error {
	rows := make([]any, len(recs))
	for i, r := range recs {
		rows[i] = recordRow{Position: i, LineRecord: r}
	}
	return s.replace(ctx, s.records, recordCols, rows)
}

// ReplaceResults swaps the stored results for res in one transaction.
func (s *Store) ReplaceResults(ctx context.Context, res []model.LossResult) error {
	rows := make([]any, len(res))
	for i, r := range res {
		rows[i] = resultRow{Position: i, LossResult: r}
	}
	return s.replace(ctx, s.results, resultCols, rows)
}

func (s *Store) replace(ctx context.Context, table string, cols []string, rows []any) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()
	if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
		return err
	}
	insert := fmt.Sprintf(`INSERT INTO %s (position, %s) VALUES (:position, :%s)`,
		table, strings.Join(cols, ", "), strings.Join(cols, ", :"))
	for _, r := range rows {
		if _, err := tx.NamedExecContext(ctx, insert, r); err != nil {
			return fmt.Errorf("insert into %s: %w", table, err)
		}
	}
	return tx.Commit()
}

// Records returns the stored dataset in insertion order.
func (s *Store) Records(ctx context.Context) ([]model.LineRecord, error) {
	return selectRecords(ctx, s.db, s.records)
}

// Results returns the stored results in insertion order.
func (s *Store) Results(ctx context.Context) ([]model.LossResult, error) {
	var rows []resultRow
	query := fmt.Sprintf(`SELECT position, %s FROM %s ORDER BY position`, strings.Join(resultCols, ", "), s.results)
	if err := s.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, err
	}
	out := make([]model.LossResult, len(rows))
	for i, r := range rows {
		out[i] = r.LossResult
	}
	return out, nil
}

// Publish stores a simulator cycle: the perturbed records and the results of
// the lines that computed.
func (s *Store) Publish(ctx context.Context, recs []model.LineRecord, snap batch.Snapshot) error {
	if err := s.ReplaceRecords(ctx, recs); err != nil {
		return err
	}
	return s.ReplaceResults(ctx, snap.Results())
}

// Close closes the underlying database.
func (s *Store) Close() error { return s.db.Close() }
