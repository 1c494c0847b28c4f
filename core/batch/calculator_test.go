package batch

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/lineloss/core/loss"
	"github.com/kilianp07/lineloss/core/model"
)

func dataset() []model.LineRecord {
	return []model.LineRecord{
		{LineID: "LINE_001", AreaName: "Area A", LoadKW: 850, PowerFactor: 0.85, LineLengthKM: 8.5, ResistanceOhmKM: 0.3, ReactanceOhmKM: 0.4, ConductorType: "ACSR Dog", TransformerEfficiency: 0.98},
		{LineID: "LINE_002", AreaName: "Area B", LoadKW: 1200, PowerFactor: 0.82, LineLengthKM: 12.3, ResistanceOhmKM: 0.25, ReactanceOhmKM: 0.38, ConductorType: "ACSR Wolf", TransformerEfficiency: 0.975},
		{LineID: "LINE_003", AreaName: "Area C", LoadKW: 650, PowerFactor: 0.88, LineLengthKM: 6.8, ResistanceOhmKM: 0.35, ReactanceOhmKM: 0.42, ConductorType: "ACSR Rabbit", TransformerEfficiency: 0.985},
		{LineID: "LINE_004", AreaName: "Area D", LoadKW: 1500, PowerFactor: 0.80, LineLengthKM: 15.2, ResistanceOhmKM: 0.22, ReactanceOhmKM: 0.36, ConductorType: "ACSR Panther", TransformerEfficiency: 0.97},
		{LineID: "LINE_005", AreaName: "Area E", LoadKW: 950, PowerFactor: 0.87, LineLengthKM: 9.7, ResistanceOhmKM: 0.28, ReactanceOhmKM: 0.39, ConductorType: "ACSR Dog", TransformerEfficiency: 0.98},
	}
}

func newCalc(t *testing.T, cfg Config) *Calculator {
	t.Helper()
	m, err := loss.New(loss.Config{})
	require.NoError(t, err)
	fixed := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	c, err := New(m, cfg, WithClock(func() time.Time { return fixed }), WithIDGenerator(func() string { return "snap-1" }))
	require.NoError(t, err)
	return c
}

func TestComputeSnapshot(t *testing.T) {
	c := newCalc(t, Config{})
	snap, err := c.Compute(dataset())
	require.NoError(t, err)
	require.NoError(t, snap.Err())

	assert.Equal(t, "snap-1", snap.ID)
	assert.Equal(t, 11.0, snap.VoltageKV)
	assert.Equal(t, Config{HighLossPct: 3.5, HighVoltageDropV: 150}, snap.Thresholds)
	require.Len(t, snap.Lines, 5)
	for i, l := range snap.Lines {
		assert.Equal(t, dataset()[i].LineID, l.Result.LineID, "order preserved")
		assert.Equal(t, l.Record.LineID, l.Result.LineID)
	}

	var wantLoss float64
	for _, l := range snap.Lines {
		wantLoss += l.Result.TotalLossesKW
	}
	s := snap.Summary
	assert.Equal(t, 5, s.LineCount)
	assert.Equal(t, 0, s.FailedCount)
	assert.Equal(t, 5150.0, s.TotalLoadKW)
	assert.InDelta(t, wantLoss, s.TotalLossKW, 1e-9)
	assert.InDelta(t, s.TotalLossKW/s.TotalLoadKW*100, s.OverallLossPct, 1e-12)
	assert.InDelta(t, 100, s.OverallEfficiency+s.OverallLossPct, 1e-12)
	assert.NotEqual(t, s.OverallLossPct, s.AvgLossPct, "weighted and unweighted losses differ")
}

func TestComputeFlags(t *testing.T) {
	snap, err := newCalc(t, Config{}).Compute(dataset())
	require.NoError(t, err)
	// LINE_003 is 3.15 % and 133.79 V, below both thresholds.
	l3, ok := snap.Line("LINE_003")
	require.True(t, ok)
	assert.False(t, l3.HighLoss)
	assert.False(t, l3.HighVoltageDrop)
	l1, _ := snap.Line("LINE_001")
	assert.True(t, l1.HighLoss)
	assert.True(t, l1.HighVoltageDrop)

	assert.Len(t, snap.HighLoss(), 4)
	assert.Len(t, snap.HighVoltageDrop(), 4)

	strict, err := newCalc(t, Config{HighLossPct: 50, HighVoltageDropV: 1000}).Compute(dataset())
	require.NoError(t, err)
	assert.Empty(t, strict.HighLoss())
	assert.Empty(t, strict.HighVoltageDrop())
}

func TestComputeCollectsLineFailures(t *testing.T) {
	recs := dataset()
	recs[1].LoadKW = 0
	recs[3].PowerFactor = 1.5
	snap, err := newCalc(t, Config{}).Compute(recs)
	require.NoError(t, err)

	require.Len(t, snap.Lines, 3)
	require.Len(t, snap.Failures, 2)
	assert.Equal(t, "LINE_002", snap.Failures[0].LineID)
	assert.ErrorIs(t, snap.Failures[0].Err, loss.ErrUndefinedResult)
	assert.Equal(t, "LINE_004", snap.Failures[1].LineID)
	assert.ErrorIs(t, snap.Failures[1].Err, loss.ErrInvalidInput)
	assert.Equal(t, 2, snap.Summary.FailedCount)
	assert.Equal(t, 3, snap.Summary.LineCount)
	assert.Equal(t, 850.0+650+950, snap.Summary.TotalLoadKW)

	err = snap.Err()
	assert.ErrorIs(t, err, loss.ErrUndefinedResult)
	assert.ErrorIs(t, err, loss.ErrInvalidInput)
}

func TestComputeRejectsDuplicateIDs(t *testing.T) {
	recs := dataset()
	recs[4].LineID = "LINE_001"
	_, err := newCalc(t, Config{}).Compute(recs)
	require.Error(t, err)
	assert.ErrorIs(t, err, loss.ErrDatasetMismatch)
	var le *loss.LineError
	require.True(t, errors.As(err, &le))
	assert.Equal(t, "LINE_001", le.LineID)
}

func TestComputeEmpty(t *testing.T) {
	snap, err := newCalc(t, Config{}).Compute(nil)
	require.NoError(t, err)
	assert.Empty(t, snap.Lines)
	assert.Equal(t, Summary{}, snap.Summary)
	_, ok := snap.Worst()
	assert.False(t, ok)
}

func TestComputeDoesNotMutateInput(t *testing.T) {
	recs := dataset()
	before := model.CloneRecords(recs)
	_, err := newCalc(t, Config{}).Compute(recs)
	require.NoError(t, err)
	assert.Equal(t, before, recs)
}

func TestConfigZeroMeansDefault(t *testing.T) {
	c := Config{HighVoltageDropV: 0.01}
	c.SetDefaults()
	assert.Equal(t, Config{HighLossPct: 3.5, HighVoltageDropV: 0.01}, c)
	assert.Error(t, Config{HighVoltageDropV: 150}.Validate(), "zero is not a usable threshold")

	snap, err := newCalc(t, Config{HighLossPct: 0.01, HighVoltageDropV: 0.01}).Compute(dataset())
	require.NoError(t, err)
	assert.Len(t, snap.HighLoss(), 5)
	assert.Len(t, snap.HighVoltageDrop(), 5)
}

func TestConfigValidate(t *testing.T) {
	assert.Error(t, Config{HighLossPct: -1}.Validate())
	assert.Error(t, Config{HighLossPct: 101}.Validate())
	assert.Error(t, Config{HighVoltageDropV: -5}.Validate())
	m, err := loss.New(loss.Config{})
	require.NoError(t, err)
	_, err = New(m, Config{HighVoltageDropV: -1})
	assert.Error(t, err)
}
