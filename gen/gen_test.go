package gen

import (
	"bytes"
	"context"
	"math"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/phil-mansfield/ssbar/dataset"
	"github.com/phil-mansfield/ssbar/event"
	"github.com/phil-mansfield/ssbar/pdg"
)

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.Events = 50
	cfg.Seed = 12345
	return cfg
}

func newGenerator(t *testing.T, cfg Config) *Generator {
	g, err := New(cfg)
	require.NoError(t, err)
	return g
}

func TestConfigValidate(t *testing.T) {
	table := []struct {
		name   string
		modify func(*Config)
	}{
		{"Events", func(c *Config) { c.Events = -1 }},
		{"PtMin", func(c *Config) { c.PtMin = -0.1 }},
		{"EtaMax", func(c *Config) { c.EtaMax = 0 }},
		{"Multiplicity", func(c *Config) { c.Multiplicity = 0 }},
		{"Multiplicity", func(c *Config) { c.Multiplicity = 1000 }},
		{"PairRate", func(c *Config) { c.PairRate = 1.5 }},
		{"NonFinal", func(c *Config) { c.NonFinal = 1 }},
	}

	def := DefaultConfig()
	require.NoError(t, def.Validate())
	for _, test := range table {
		cfg := DefaultConfig()
		test.modify(&cfg)
		err := cfg.Validate()
		require.Error(t, err, test.name)
		assert.Contains(t, err.Error(), test.name)

		_, err = New(cfg)
		assert.Error(t, err)
	}
}

func TestSeed(t *testing.T) {
	g := newGenerator(t, testConfig())
	assert.Equal(t, int64(12345), g.Seed())
	assert.Equal(t, int64(12345), g.Header().Seed)
	assert.Equal(t, g.RunID(), g.Header().RunID)

	cfg := testConfig()
	cfg.Seed = 0
	g = newGenerator(t, cfg)
	assert.NotZero(t, g.Seed())
	assert.Less(t, g.Seed(), int64(900000000))
}

func TestDeterministic(t *testing.T) {
	a := newGenerator(t, testConfig())
	b := newGenerator(t, testConfig())
	for i := 0; i < 20; i++ {
		assert.Equal(t, a.Raw(), b.Raw())
	}
	assert.NotEqual(t, a.RunID(), b.RunID())
}

func TestRaw(t *testing.T) {
	cfg := testConfig()
	cfg.PairRate = 1
	g := newGenerator(t, cfg)

	for i := 0; i < 20; i++ {
		ev := g.Raw()
		require.NoError(t, ev.Validate())
		require.True(t, ev.Len() >= 4)
		assert.Equal(t, SystemCode, ev.ID[0])

		n := ev.Len()
		assert.Equal(t, StringCode, ev.ID[n-3])
		assert.Equal(t, pdg.Xi, ev.ID[n-2])
		assert.Equal(t, -pdg.Xi, ev.ID[n-1])
		assert.Equal(t, float64(n-3), ev.Mother[n-1])
		assert.Equal(t, float64(StringCode), ev.MotherID[n-2])
		assert.Equal(t, -1.0, ev.Charge[n-2])
		assert.Equal(t, +1.0, ev.Charge[n-1])

		for j := 1; j < n; j++ {
			assert.True(t, ev.Phi[j] >= -math.Pi && ev.Phi[j] < math.Pi)
			assert.True(t, ev.PT[j] >= 0)
		}
	}
}

func TestSelect(t *testing.T) {
	cfg := testConfig()
	g := newGenerator(t, cfg)

	raw := event.FromParticles(
		event.Particle{ID: SystemCode, Status: statusSystem},
		event.Particle{ID: pdg.Xi, PT: 1, Eta: 0.5, Status: statusFinal, Charge: -1},
		event.Particle{ID: -pdg.Lambda, PT: 2, Eta: -3.9, Status: statusFinal},
		event.Particle{ID: pdg.PiPlus, PT: 1, Status: statusFinal, Charge: 1},
		event.Particle{ID: pdg.KPlus, PT: 0.1, Status: statusFinal, Charge: 1},
		event.Particle{ID: pdg.KPlus, PT: 1, Eta: 4.5, Status: statusFinal, Charge: 1},
		event.Particle{ID: pdg.Omega, PT: 1, Status: statusDecayed, Charge: -1},
		event.Particle{ID: pdg.Phi, PT: 0.15, Eta: -4, Status: statusFinal},
	)
	ev := g.Select(raw)
	require.NoError(t, ev.Validate())
	assert.Equal(t, []int{pdg.Xi, -pdg.Lambda, pdg.Phi}, ev.ID)

	idx, _ := g.Monitor.Size.X.Index(1)
	assert.Equal(t, 1.0, g.Monitor.Size.Get(idx))
	idx, _ = g.Monitor.StrangePart.X.Index(3)
	assert.Equal(t, 1.0, g.Monitor.StrangePart.Get(idx))
	assert.Equal(t, 3.0, g.Monitor.IDStrange.Sum())
}

func TestNextPassesCuts(t *testing.T) {
	g := newGenerator(t, testConfig())
	for i := 0; i < 100; i++ {
		ev := g.Next()
		for j := 0; j < ev.Len(); j++ {
			p := ev.Particle(j)
			assert.True(t, pdg.IsStrange(p.ID))
			assert.True(t, p.Status > 0)
			assert.True(t, p.PT >= 0.15)
			assert.True(t, math.Abs(p.Eta) <= 4)
		}
	}
	assert.Equal(t, 100.0, g.Monitor.Size.Sum())
	assert.Equal(t, 100.0, g.Monitor.StrangePart.Sum())
}

func TestRun(t *testing.T) {
	buf := &bytes.Buffer{}
	g := newGenerator(t, testConfig())
	w, err := dataset.NewBinaryWriter(buf, g.Header())
	require.NoError(t, err)

	stats, err := g.Run(context.Background(), w, zap.NewNop(), nil)
	require.NoError(t, err)
	require.NoError(t, w.Close())
	assert.Equal(t, int64(50), stats.Generated)
	assert.Equal(t, int64(50), stats.Written)

	r, err := dataset.NewBinaryReader(buf)
	require.NoError(t, err)
	assert.Equal(t, g.RunID(), r.Header.RunID)
	evs, err := dataset.ReadAll(r)
	require.NoError(t, err)
	require.Len(t, evs, 50)

	n := int64(0)
	for _, ev := range evs {
		n += int64(ev.Len())
	}
	assert.Equal(t, stats.Particles, n)

	// The same seed reproduces the dataset.
	again := newGenerator(t, testConfig())
	for _, ev := range evs {
		assert.Equal(t, again.Next().ID, ev.ID)
	}
}

func TestRunSkipEmpty(t *testing.T) {
	cfg := testConfig()
	cfg.Multiplicity = 1
	cfg.PairRate = 0
	cfg.SkipEmpty = true
	g := newGenerator(t, cfg)

	buf := &bytes.Buffer{}
	w, err := dataset.NewBinaryWriter(buf, g.Header())
	require.NoError(t, err)
	stats, err := g.Run(context.Background(), w, nil, nil)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	assert.True(t, stats.Empty > 0)
	assert.Equal(t, stats.Generated-stats.Empty, stats.Written)

	r, err := dataset.NewBinaryReader(buf)
	require.NoError(t, err)
	evs, err := dataset.ReadAll(r)
	require.NoError(t, err)
	assert.Len(t, evs, int(stats.Written))
	for _, ev := range evs {
		assert.NotZero(t, ev.Len())
	}
}

func TestRunCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	g := newGenerator(t, testConfig())
	w, err := dataset.NewBinaryWriter(&bytes.Buffer{}, g.Header())
	require.NoError(t, err)
	_, err = g.Run(ctx, w, nil, nil)
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestMonitorHistograms(t *testing.T) {
	m := NewMonitor()
	hs := m.Histograms()
	require.Len(t, hs, 3)
	assert.Equal(t, SizeName, hs[0].HistName())
	assert.Equal(t, 301, m.Size.X.Bins)
	assert.Equal(t, 12000, m.IDStrange.X.Bins)
}
