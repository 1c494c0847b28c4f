package csvstore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/kilianp07/lineloss/core/batch"
	"github.com/kilianp07/lineloss/core/datasource"
	"github.com/kilianp07/lineloss/core/factory"
	"github.com/kilianp07/lineloss/core/model"
)

func init() {
	_ = datasource.Register("csv", func(conf map[string]any) (datasource.Source, error) {
		var c struct {
			Path string `json:"path"`
		}
		if err := factory.Decode(conf, &c); err != nil {
			return nil, err
		}
		if c.Path == "" {
			return nil, fmt.Errorf("path is required")
		}
		return Source{Path: c.Path}, nil
	})
}

// Source loads a line dataset from a CSV file.
type Source struct {
	Path string
}

// Load implements datasource.Source. A missing file is reported as
// datasource.ErrNotFound.
func (s Source) Load(context.Context) ([]model.LineRecord, error) {
	var recs []model.LineRecord
	err := readFile(s.Path, func(r io.Reader) (err error) {
		recs, err = ReadRecords(r)
		return err
	})
	return recs, err
}

// LoadResults reads a result table written by WriteResultsFile.
func LoadResults(path string) ([]model.LossResult, error) {
	var res []model.LossResult
	err := readFile(path, func(r io.Reader) (err error) {
		res, err = ReadResults(r)
		return err
	})
	return res, err
}

func readFile(path string, fn func(io.Reader) error) error {
	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("%s: %w", path, datasource.ErrNotFound)
	}
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()
	if err := fn(f); err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	return nil
}

// WriteFileAtomic writes through a temporary file in the target directory and
// renames it into place, so readers see either the old or the new content.
func WriteFileAtomic(path string, write func(io.Writer) error) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return err
	}
	defer func() { _ = os.Remove(tmp.Name()) }()
	if err := write(tmp); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}

// WriteRecordsFile replaces path with recs.
func WriteRecordsFile(path string, recs []model.LineRecord) error {
	return WriteFileAtomic(path, func(w io.Writer) error { return WriteRecords(w, recs) })
}

// WriteResultsFile replaces path with res.
func WriteResultsFile(path string, res []model.LossResult) error {
	return WriteFileAtomic(path, func(w io.Writer) error { return WriteResults(w, res) })
}

// Publisher hands simulator cycles to readers through two CSV files.
type Publisher struct {
	RecordsPath string
	ResultsPath string
}

// Publish writes the perturbed records then the computed results. Lines that
// failed to compute are present in the records file only.
func (p Publisher) Publish(_ context.Context, recs []model.LineRecord, snap batch.Snapshot) error {
	if err := WriteRecordsFile(p.RecordsPath, recs); err != nil {
		return fmt.Errorf("write records: %w", err)
	}
	if err := WriteResultsFile(p.ResultsPath, snap.Results()); err != nil {
		return fmt.Errorf("write results: %w", err)
	}
	return nil
}
