// Package gen is a toy Monte Carlo event generator. It stands in for a full
// hadronization generator when producing test datasets: events are a Poisson
// number of hadrons drawn from a fixed species table, plus correlated
// Xi-/anti-Xi+ pairs, after which the strange-hadron selection used for the
// reference datasets is applied.
package gen

import (
	"context"
	"math"
	"math/rand"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/phil-mansfield/ssbar/dataset"
	"github.com/phil-mansfield/ssbar/event"
	"github.com/phil-mansfield/ssbar/kin"
	"github.com/phil-mansfield/ssbar/metrics"
	"github.com/phil-mansfield/ssbar/pdg"
)

// Identity codes of the bookkeeping entries which act as mothers.
const (
	SystemCode = 90
	StringCode = 92
)

// Status codes. Positive statuses are final-state particles.
const (
	statusSystem   = -11
	statusString   = -71
	statusDecayed  = -91
	statusFinal    = 91
	statusFromPair = 83
)

// Config controls a generator run.
type Config struct {
	Events int
	// Seed of the random number generator. Zero derives a seed from the
	// clock and the process ID.
	Seed int64

	// Kinematic acceptance of the written particles.
	PtMin, EtaMax float64

	// Multiplicity is the mean number of hadrons per event.
	Multiplicity float64
	// PairRate is the probability that an event contains a correlated
	// Xi-/anti-Xi+ pair.
	PairRate float64
	// NonFinal is the fraction of hadrons which are marked as decayed.
	NonFinal float64

	// SkipEmpty drops events with no accepted particles instead of writing
	// empty records.
	SkipEmpty bool
}

// DefaultConfig returns the reference generator settings.
func DefaultConfig() Config {
	return Config{
		Events:       1000,
		PtMin:        0.15,
		EtaMax:       4,
		Multiplicity: 60,
		PairRate:     0.2,
		NonFinal:     0.1,
	}
}

// pairMeanPT is the mean momentum of Xi hadrons from correlated pairs.
const pairMeanPT = 0.9

// maxMultiplicity keeps the Poisson sampler away from exp() underflow.
const maxMultiplicity = 500

// Validate returns an error describing the first invalid field.
func (c *Config) Validate() error {
	switch {
	case c.Events < 0:
		return errors.Errorf("Events = %d, must be non-negative", c.Events)
	case c.PtMin < 0:
		return errors.Errorf("PtMin = %g, must be non-negative", c.PtMin)
	case c.EtaMax <= 0:
		return errors.Errorf("EtaMax = %g, must be positive", c.EtaMax)
	case c.Multiplicity <= 0 || c.Multiplicity > maxMultiplicity:
		return errors.Errorf("Multiplicity = %g, must be in (0, %d]",
			c.Multiplicity, maxMultiplicity)
	case c.PairRate < 0 || c.PairRate > 1:
		return errors.Errorf("PairRate = %g, must be in [0, 1]", c.PairRate)
	case c.NonFinal < 0 || c.NonFinal >= 1:
		return errors.Errorf("NonFinal = %g, must be in [0, 1)", c.NonFinal)
	}
	return nil
}

// TimeSeed returns a seed built from the current time and the process ID.
func TimeSeed() int64 {
	seed := (time.Now().Unix() + int64(os.Getpid())) % 900000000
	if seed == 0 {
		seed = 1
	}
	return seed
}

type species struct {
	code     int
	weight   float64
	charge   float64 // of the particle, flipped for the antiparticle
	meanPT   float64
	selfConj bool
}

// Relative yields are loosely modelled on minimum-bias pp collisions.
var speciesTable = []species{
	{pdg.PiPlus, 40, +1, 0.45, false},
	{pdg.Pi0, 20, 0, 0.45, true},
	{pdg.KPlus, 6, +1, 0.6, false},
	{pdg.KShort, 3, 0, 0.6, true},
	{pdg.KLong, 3, 0, 0.6, true},
	{pdg.Proton, 5, +1, 0.7, false},
	{pdg.Neutron, 5, 0, 0.7, false},
	{pdg.Phi, 0.8, 0, 0.8, true},
	{pdg.Lambda, 1.5, 0, 0.8, false},
	{pdg.SigmaP, 0.4, +1, 0.85, false},
	{pdg.Sigma0, 0.4, 0, 0.85, false},
	{pdg.SigmaM, 0.4, -1, 0.85, false},
	{pdg.Xi0, 0.15, 0, 0.9, false},
	{pdg.Xi, 0.15, -1, 0.9, false},
	{pdg.Omega, 0.03, -1, 1.0, false},
}

// Generator produces events. It is not safe for concurrent use.
type Generator struct {
	cfg   Config
	seed  int64
	runID uuid.UUID
	rng   *rand.Rand
	cdf   []float64

	// Monitor holds the acceptance histograms of every event selected so
	// far.
	Monitor *Monitor
}

// New returns a generator for cfg.
func New(cfg Config) (*Generator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid generator config")
	}
	seed := cfg.Seed
	if seed == 0 {
		seed = TimeSeed()
	}

	cdf := make([]float64, len(speciesTable))
	total := 0.0
	for i, s := range speciesTable {
		total += s.weight
		cdf[i] = total
	}
	for i := range cdf {
		cdf[i] /= total
	}

	return &Generator{
		cfg:     cfg,
		seed:    seed,
		runID:   uuid.New(),
		rng:     rand.New(rand.NewSource(seed)),
		cdf:     cdf,
		Monitor: NewMonitor(),
	}, nil
}

// Seed returns the seed actually used.
func (g *Generator) Seed() int64 { return g.seed }

// RunID identifies this generator run.
func (g *Generator) RunID() uuid.UUID { return g.runID }

// Header returns the dataset header describing this run.
func (g *Generator) Header() dataset.Header {
	return dataset.Header{
		Version: dataset.FormatVersion,
		RunID:   g.runID,
		Seed:    g.seed,
		Created: time.Now().Unix(),
	}
}

// poisson uses Knuth's multiplication method, which is fine for the small
// means allowed by Config.
func (g *Generator) poisson(mean float64) int {
	limit, k, p := math.Exp(-mean), 0, 1.0
	for {
		p *= g.rng.Float64()
		if p <= limit {
			return k
		}
		k++
	}
}

func (g *Generator) drawSpecies() species {
	u := g.rng.Float64()
	for i, c := range g.cdf {
		if u < c {
			return speciesTable[i]
		}
	}
	return speciesTable[len(speciesTable)-1]
}

func (g *Generator) phi() float64 { return g.rng.Float64()*2*math.Pi - math.Pi }
func (g *Generator) eta() float64 { return g.rng.Float64()*10 - 5 }

// Raw generates the full record of one event, before any selection. Entry 0
// is the event system, and every other entry points at a mother.
func (g *Generator) Raw() *event.Event {
	n := g.poisson(g.cfg.Multiplicity)
	ev := event.New(n + 3)
	ev.Append(event.Particle{ID: SystemCode, Status: statusSystem})

	for i := 0; i < n; i++ {
		s := g.drawSpecies()
		code, charge := s.code, s.charge
		if !s.selfConj && g.rng.Intn(2) == 0 {
			code, charge = -code, -charge
		}
		status := float64(statusFinal)
		if g.rng.Float64() < g.cfg.NonFinal {
			status = statusDecayed
		}
		ev.Append(event.Particle{
			ID:       code,
			PT:       g.rng.ExpFloat64() * s.meanPT,
			Phi:      g.phi(),
			Eta:      g.eta(),
			Status:   status,
			Mother:   0,
			MotherID: SystemCode,
			Charge:   charge,
		})
	}

	if g.rng.Float64() < g.cfg.PairRate {
		g.appendPair(ev)
	}
	return ev
}

// appendPair adds a string fragmenting into an ss-bar pair which hadronizes
// into Xi- and anti-Xi+, emitted either on the near side or back-to-back.
func (g *Generator) appendPair(ev *event.Event) {
	str := float64(ev.Len())
	ev.Append(event.Particle{
		ID: StringCode, Status: statusString, MotherID: SystemCode,
	})

	phi, eta := g.phi(), g.eta()
	dPhi := g.rng.NormFloat64() * 0.3
	if g.rng.Intn(2) == 0 {
		dPhi += math.Pi
	}

	ev.Append(event.Particle{
		ID: pdg.Xi, PT: g.rng.ExpFloat64() * pairMeanPT, Phi: phi, Eta: eta,
		Status: statusFromPair, Mother: str, MotherID: StringCode, Charge: -1,
	})
	ev.Append(event.Particle{
		ID:     -pdg.Xi,
		PT:     g.rng.ExpFloat64() * pairMeanPT,
		Phi:    kin.WrapPhi(phi + dPhi),
		Eta:    eta + g.rng.NormFloat64()*0.5,
		Status: statusFromPair, Mother: str, MotherID: StringCode, Charge: +1,
	})
}

// Select returns the accepted particles of a raw event: final-state strange
// hadrons with PT >= PtMin and |Eta| <= EtaMax. The monitoring histograms are
// filled for every call.
func (g *Generator) Select(raw *event.Event) *event.Event {
	out := event.New(0)
	charged := 0
	for i := 0; i < raw.Len(); i++ {
		p := raw.Particle(i)
		if p.Status <= 0 || !pdg.IsStrange(p.ID) {
			continue
		}
		if p.PT < g.cfg.PtMin || math.Abs(p.Eta) > g.cfg.EtaMax {
			continue
		}
		if p.Charge != 0 {
			charged++
		}
		g.Monitor.IDStrange.Fill(float64(p.ID), 1)
		out.Append(p)
	}
	g.Monitor.Size.Fill(float64(charged), 1)
	g.Monitor.StrangePart.Fill(float64(out.Len()), 1)
	return out
}

// Next generates and selects one event.
func (g *Generator) Next() *event.Event { return g.Select(g.Raw()) }

// Stats summarizes a generator run.
type Stats struct {
	Generated, Written, Empty int64
	Particles                 int64
	Elapsed                   time.Duration
}

// Run generates Config.Events events and writes them to w. It does not close
// w.
func (g *Generator) Run(
	ctx context.Context, w dataset.Writer, log *zap.Logger, rec *metrics.Recorder,
) (Stats, error) {
	if log == nil {
		log = zap.NewNop()
	}
	start := time.Now()
	stats := Stats{}
	progress := int64(g.cfg.Events / 10)

	for i := 0; i < g.cfg.Events; i++ {
		if err := ctx.Err(); err != nil {
			stats.Elapsed = time.Since(start)
			return stats, err
		}

		ev := g.Next()
		stats.Generated++
		if ev.Len() == 0 {
			stats.Empty++
			if g.cfg.SkipEmpty {
				continue
			}
		}
		if err := w.Write(ev); err != nil {
			stats.Elapsed = time.Since(start)
			return stats, errors.Wrapf(err, "writing event %d", i)
		}
		stats.Written++
		stats.Particles += int64(ev.Len())
		rec.Event(ev.Len())

		if progress > 0 && stats.Generated%progress == 0 {
			log.Info("Progress", zap.Int64("generated", stats.Generated),
				zap.Int64("written", stats.Written))
		}
	}

	stats.Elapsed = time.Since(start)
	rec.Duration(stats.Elapsed)
	return stats, nil
}
