package loss

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/lineloss/core/model"
)

func line1() model.LineRecord {
	return model.LineRecord{
		LineID:                "L1",
		AreaName:              "Area A",
		LoadKW:                850,
		PowerFactor:           0.85,
		LineLengthKM:          8.5,
		ResistanceOhmKM:       0.3,
		ReactanceOhmKM:        0.4,
		ConductorType:         "ACSR Dog",
		TransformerEfficiency: 0.98,
	}
}

func newModel(t *testing.T) Model {
	t.Helper()
	m, err := New(Config{})
	require.NoError(t, err)
	return m
}

func TestComputeReferenceLine(t *testing.T) {
	res, err := newModel(t).Compute(line1())
	require.NoError(t, err)
	assert.Equal(t, "L1", res.LineID)
	assert.Equal(t, "Area A", res.AreaName)
	assert.Equal(t, 52.49, res.CurrentAmps)
	assert.Equal(t, 21.07, res.LineLossesKW)
	assert.Equal(t, 17.0, res.TransformerLossesKW)
	assert.Equal(t, 38.07, res.TotalLossesKW)
	assert.Equal(t, 4.48, res.LossPercentage)
	assert.Equal(t, 207.77, res.VoltageDropV)
	assert.Equal(t, 95.52, res.Efficiency)
}

func TestComputeOtherVoltageClass(t *testing.T) {
	m, err := New(Config{VoltageKV: 33})
	require.NoError(t, err)
	assert.Equal(t, 33.0, m.VoltageKV())
	res, err := m.Compute(line1())
	require.NoError(t, err)
	assert.Equal(t, 17.5, res.CurrentAmps)
	assert.Equal(t, 2.34, res.LineLossesKW)
	assert.Equal(t, 19.34, res.TotalLossesKW)
	assert.Equal(t, 2.28, res.LossPercentage)
	assert.Equal(t, 97.72, res.Efficiency)
}

func TestComputeInvariants(t *testing.T) {
	m := newModel(t)
	recs := []model.LineRecord{
		line1(),
		{LineID: "L2", LoadKW: 1200, PowerFactor: 0.82, LineLengthKM: 12.3, ResistanceOhmKM: 0.25, ReactanceOhmKM: 0.38, TransformerEfficiency: 0.975},
		{LineID: "L3", LoadKW: 650, PowerFactor: 0.88, LineLengthKM: 6.8, ResistanceOhmKM: 0.35, ReactanceOhmKM: 0.42, TransformerEfficiency: 0.985},
		{LineID: "L4", LoadKW: 1500, PowerFactor: 0.80, LineLengthKM: 15.2, ResistanceOhmKM: 0.22, ReactanceOhmKM: 0.36, TransformerEfficiency: 0.97},
		{LineID: "L5", LoadKW: 0.5, PowerFactor: 0.99, LineLengthKM: 0.1, ResistanceOhmKM: 1.2, ReactanceOhmKM: 0, TransformerEfficiency: 0.999},
	}
	for _, rec := range recs {
		t.Run(rec.LineID, func(t *testing.T) {
			res, err := m.Compute(rec)
			require.NoError(t, err)
			// Each field is rounded independently, so sums may differ by one unit in the last place.
			assert.InDelta(t, 100, res.Efficiency+res.LossPercentage, 0.011)
			assert.InDelta(t, res.TotalLossesKW, res.LineLossesKW+res.TransformerLossesKW, 0.011)
			assert.False(t, math.IsNaN(res.LossPercentage))
		})
	}
}

func TestComputeUnityPowerFactor(t *testing.T) {
	rec := model.LineRecord{
		LineID: "U1", LoadKW: 500, PowerFactor: 1, LineLengthKM: 2,
		ResistanceOhmKM: 0.5, ReactanceOhmKM: 0.4, TransformerEfficiency: 1,
	}
	res, err := newModel(t).Compute(rec)
	require.NoError(t, err)
	// Only the resistive term contributes: I * R * 1.
	assert.Equal(t, res.CurrentAmps, res.VoltageDropV)
	assert.Equal(t, 0.0, res.TransformerLossesKW)
	assert.Equal(t, 26.24, res.CurrentAmps)
}

func TestComputeZeroLoad(t *testing.T) {
	rec := line1()
	rec.LoadKW = 0
	res, err := newModel(t).Compute(rec)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUndefinedResult)
	assert.NotErrorIs(t, err, ErrInvalidInput)
	assert.Equal(t, model.LossResult{}, res)

	var le *LineError
	require.True(t, errors.As(err, &le))
	assert.Equal(t, "L1", le.LineID)
	assert.Equal(t, "load_kw", le.Field)
}

func TestComputeRejectsOverflow(t *testing.T) {
	cases := map[string]func(*model.LineRecord){
		"tiny power factor": func(r *model.LineRecord) { r.PowerFactor = 1e-200 },
		"huge load":         func(r *model.LineRecord) { r.LoadKW = 1e306 },
		"huge length":       func(r *model.LineRecord) { r.LineLengthKM = 1e307 },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			rec := line1()
			mutate(&rec)
			require.NoError(t, Validate(rec), "finite inputs pass validation")
			res, err := newModel(t).Compute(rec)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrUndefinedResult)
			assert.Equal(t, model.LossResult{}, res)
			var le *LineError
			require.True(t, errors.As(err, &le))
			assert.Equal(t, "L1", le.LineID)
		})
	}
}

func TestComputeRejectsInvalidInput(t *testing.T) {
	cases := map[string]func(*model.LineRecord){
		"empty id":           func(r *model.LineRecord) { r.LineID = "" },
		"negative load":      func(r *model.LineRecord) { r.LoadKW = -1 },
		"nan load":           func(r *model.LineRecord) { r.LoadKW = math.NaN() },
		"zero power factor":  func(r *model.LineRecord) { r.PowerFactor = 0 },
		"power factor > 1":   func(r *model.LineRecord) { r.PowerFactor = 1.01 },
		"zero length":        func(r *model.LineRecord) { r.LineLengthKM = 0 },
		"negative length":    func(r *model.LineRecord) { r.LineLengthKM = -2 },
		"zero resistance":    func(r *model.LineRecord) { r.ResistanceOhmKM = 0 },
		"negative reactance": func(r *model.LineRecord) { r.ReactanceOhmKM = -0.1 },
		"infinite reactance": func(r *model.LineRecord) { r.ReactanceOhmKM = math.Inf(1) },
		"zero xfmr eff":      func(r *model.LineRecord) { r.TransformerEfficiency = 0 },
		"xfmr eff above one": func(r *model.LineRecord) { r.TransformerEfficiency = 1.2 },
	}
	m := newModel(t)
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			rec := line1()
			mutate(&rec)
			_, err := m.Compute(rec)
			assert.ErrorIs(t, err, ErrInvalidInput)
		})
	}
}

func TestComputeIsPure(t *testing.T) {
	m := newModel(t)
	a, err := m.Compute(line1())
	require.NoError(t, err)
	b, err := m.Compute(line1())
	require.NoError(t, err)
	assert.Equal(t, a, b)
	assert.Equal(t, math.Float64bits(a.VoltageDropV), math.Float64bits(b.VoltageDropV))
}

func TestNewRejectsBadVoltage(t *testing.T) {
	_, err := New(Config{VoltageKV: -11})
	assert.Error(t, err)
	_, err = New(Config{VoltageKV: math.Inf(1)})
	assert.Error(t, err)
}

func TestZeroModelFails(t *testing.T) {
	_, err := Model{}.Compute(line1())
	assert.Error(t, err)
}

func TestRound(t *testing.T) {
	assert.Equal(t, 52.49, Round(52.4864))
	assert.Equal(t, 0.01, Round(0.005))
	assert.Equal(t, -1.24, Round(-1.2351))
}
