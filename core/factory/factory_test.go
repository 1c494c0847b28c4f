package factory

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type source struct {
	Path     string
	Interval time.Duration
}

type sourceConf struct {
	Path     string        `json:"path"`
	Interval time.Duration `json:"interval"`
}

// Test registry registration and instantiation using Decode.
func TestRegistry_Create(t *testing.T) {
	reg := NewRegistry[*source]()
	require.NoError(t, reg.Register("csv", func(conf map[string]any) (*source, error) {
		var c sourceConf
		if err := Decode(conf, &c); err != nil {
			return nil, err
		}
		return &source{Path: c.Path, Interval: c.Interval}, nil
	}))
	inst, err := reg.Create(ModuleConfig{Type: "csv", Conf: map[string]any{"path": "data/lines.csv", "interval": "5s"}})
	require.NoError(t, err)
	assert.Equal(t, "data/lines.csv", inst.Path)
	assert.Equal(t, 5*time.Second, inst.Interval)
}

// Test duplicate registration and unknown type errors.
func TestRegistry_Errors(t *testing.T) {
	reg := NewRegistry[int]()
	require.NoError(t, reg.Register("x", func(map[string]any) (int, error) { return 1, nil }))
	assert.Error(t, reg.Register("x", func(map[string]any) (int, error) { return 2, nil }), "duplicate")
	assert.Error(t, reg.Register("z", nil), "nil factory")

	_, err := reg.Create(ModuleConfig{Type: "y"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "known: x")
}

func TestRegistry_FactoryErrorIsWrapped(t *testing.T) {
	boom := errors.New("boom")
	reg := NewRegistry[int]()
	require.NoError(t, reg.Register("bad", func(map[string]any) (int, error) { return 0, boom }))
	_, err := reg.Create(ModuleConfig{Type: "bad"})
	assert.ErrorIs(t, err, boom)
}

func TestRegistry_Names(t *testing.T) {
	reg := NewRegistry[int]()
	for _, n := range []string{"sqlite", "csv", "static"} {
		require.NoError(t, reg.Register(n, func(map[string]any) (int, error) { return 0, nil }))
	}
	assert.Equal(t, []string{"csv", "sqlite", "static"}, reg.Names())
}

func TestDecode_WeakTypes(t *testing.T) {
	var c struct {
		Port int `json:"port"`
	}
	require.NoError(t, Decode(map[string]any{"port": "9100"}, &c))
	assert.Equal(t, 9100, c.Port)
}
