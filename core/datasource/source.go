// Package datasource defines how line datasets enter the engine. Sources are
// pluggable through the factory registry; infra packages register the csv
// and sqlite implementations.
package datasource

import (
	"context"
	"errors"
	"fmt"

	"github.com/kilianp07/lineloss/core/factory"
	"github.com/kilianp07/lineloss/core/model"
)

// ErrNotFound reports that the backing data does not exist yet. Callers may
// treat it as recoverable, unlike malformed data.
var ErrNotFound = errors.New("data source not found")

// Source loads a complete dataset in row order.
type Source interface {
	Load(ctx context.Context) ([]model.LineRecord, error)
}

// Static serves an in-memory dataset.
type Static []model.LineRecord

// Load returns a copy of the records.
func (s Static) Load(context.Context) ([]model.LineRecord, error) {
	if s == nil {
		return nil, ErrNotFound
	}
	return model.CloneRecords(s), nil
}

// Fallback reads from Primary and switches to Secondary when Primary reports
// ErrNotFound. Any other error is returned as is.
type Fallback struct {
	Primary   Source
	Secondary Source
}

// Load implements Source.
func (f Fallback) Load(ctx context.Context) ([]model.LineRecord, error) {
	recs, _, err := f.LoadWithOrigin(ctx)
	return recs, err
}

// LoadWithOrigin also reports whether the secondary source was used.
func (f Fallback) LoadWithOrigin(ctx context.Context) ([]model.LineRecord, bool, error) {
	recs, err := f.Primary.Load(ctx)
	if err == nil {
		return recs, false, nil
	}
	if !errors.Is(err, ErrNotFound) || f.Secondary == nil {
		return nil, false, err
	}
	recs, serr := f.Secondary.Load(ctx)
	if serr != nil {
		return nil, true, fmt.Errorf("fallback after %v: %w", err, serr)
	}
	return recs, true, nil
}

var registry = factory.NewRegistry[Source]()

// Register adds a source factory identified by name.
func Register(name string, f factory.Factory[Source]) error {
	return registry.Register(name, f)
}

// New builds the source described by cfg.
func New(cfg factory.ModuleConfig) (Source, error) {
	return registry.Create(cfg)
}
