// Package event defines the per-event particle record shared by the
// generator, the dataset readers and the analysis routines.
package event

import (
	"fmt"

	"github.com/pkg/errors"
)

// ErrSchemaViolation is matched by every *SchemaError.
var ErrSchemaViolation = errors.New("event schema violation")

// Particle is a read-only view of one row of an Event.
type Particle struct {
	ID                       int
	PT, Phi, Eta             float64
	Status, Mother, MotherID float64
	Charge                   float64
}

// Event stores the particles of one collision as parallel slices. Index i of
// every slice describes the same particle.
type Event struct {
	ID       []int
	PT       []float64
	Phi      []float64
	Eta      []float64
	Status   []float64
	Mother   []float64
	MotherID []float64

	// Charge is optional: a nil slice means the source had no charge column.
	Charge []float64
}

// SchemaError reports an attribute slice whose length disagrees with ID.
type SchemaError struct {
	Field     string
	Len, Want int
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf(
		"event schema violation: %s has %d entries, but ID has %d",
		e.Field, e.Len, e.Want,
	)
}

// Is lets errors.Is match ErrSchemaViolation.
func (e *SchemaError) Is(target error) bool { return target == ErrSchemaViolation }

// New allocates an empty event with capacity for n particles.
func New(n int) *Event {
	return &Event{
		ID:       make([]int, 0, n),
		PT:       make([]float64, 0, n),
		Phi:      make([]float64, 0, n),
		Eta:      make([]float64, 0, n),
		Status:   make([]float64, 0, n),
		Mother:   make([]float64, 0, n),
		MotherID: make([]float64, 0, n),
		Charge:   make([]float64, 0, n),
	}
}

// Len returns the number of particles in the event. It is only meaningful
// for events which pass Validate.
func (ev *Event) Len() int { return len(ev.ID) }

// Validate returns a *SchemaError if the attribute slices do not all have the
// same length.
func (ev *Event) Validate() error {
	n := len(ev.ID)
	fields := []struct {
		name string
		n    int
	}{
		{"PT", len(ev.PT)},
		{"Phi", len(ev.Phi)},
		{"Eta", len(ev.Eta)},
		{"Status", len(ev.Status)},
		{"Mother", len(ev.Mother)},
		{"MotherID", len(ev.MotherID)},
	}
	for _, f := range fields {
		if f.n != n {
			return &SchemaError{Field: f.name, Len: f.n, Want: n}
		}
	}
	if ev.Charge != nil && len(ev.Charge) != n {
		return &SchemaError{Field: "Charge", Len: len(ev.Charge), Want: n}
	}
	return nil
}

// Particle returns the ith particle. The event must be valid.
func (ev *Event) Particle(i int) Particle {
	p := Particle{
		ID:       ev.ID[i],
		PT:       ev.PT[i],
		Phi:      ev.Phi[i],
		Eta:      ev.Eta[i],
		Status:   ev.Status[i],
		Mother:   ev.Mother[i],
		MotherID: ev.MotherID[i],
	}
	if ev.Charge != nil {
		p.Charge = ev.Charge[i]
	}
	return p
}

// Append adds a particle to the end of the event.
func (ev *Event) Append(p Particle) {
	ev.ID = append(ev.ID, p.ID)
	ev.PT = append(ev.PT, p.PT)
	ev.Phi = append(ev.Phi, p.Phi)
	ev.Eta = append(ev.Eta, p.Eta)
	ev.Status = append(ev.Status, p.Status)
	ev.Mother = append(ev.Mother, p.Mother)
	ev.MotherID = append(ev.MotherID, p.MotherID)
	ev.Charge = append(ev.Charge, p.Charge)
}

// Clone returns a deep copy of the event.
func (ev *Event) Clone() *Event {
	out := &Event{
		ID:       append([]int(nil), ev.ID...),
		PT:       append([]float64(nil), ev.PT...),
		Phi:      append([]float64(nil), ev.Phi...),
		Eta:      append([]float64(nil), ev.Eta...),
		Status:   append([]float64(nil), ev.Status...),
		Mother:   append([]float64(nil), ev.Mother...),
		MotherID: append([]float64(nil), ev.MotherID...),
	}
	if ev.Charge != nil {
		out.Charge = append([]float64{}, ev.Charge...)
	}
	return out
}

// FromParticles builds an event from a list of particles.
func FromParticles(ps ...Particle) *Event {
	ev := New(len(ps))
	for _, p := range ps {
		ev.Append(p)
	}
	return ev
}
