// Package procedure defines the lesson data model: an ordered, immutable
// list of steps a user performs under guidance. Wire names match the
// verifier API, so a Procedure marshals directly to the JSON the backend
// stores and serves.
package procedure

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
)

// Common errors returned when validating procedures.
var (
	ErrNoSteps      = errors.New("procedure: no steps defined")
	ErrEmptyTitle   = errors.New("procedure: title must not be empty")
	ErrStepNotFound = errors.New("procedure: step not found")
)

// MistakePattern describes a known way a step commonly goes wrong.
type MistakePattern struct {
	Type        string `json:"type"`
	Description string `json:"description"`
}

// Step is a single procedural step within a procedure. Steps are read-only
// once the procedure is configured into an engine.
type Step struct {
	ID                      int              `json:"step_id"`
	Title                   string           `json:"title"`
	Description             string           `json:"description"`
	ExpectedObjects         []string         `json:"expected_objects,omitempty"`
	ExpectedMotion          string           `json:"expected_motion,omitempty"`
	ExpectedDurationSeconds int              `json:"expected_duration_seconds,omitempty"`
	MistakePatterns         []MistakePattern `json:"mistake_patterns,omitempty"`

	// Position in the source demo video, if the step was authored from one.
	StartTime float64 `json:"start_time,omitempty"`
	EndTime   float64 `json:"end_time,omitempty"`
	ClipURL   string  `json:"clip_url,omitempty"`
}

// Procedure is an ordered set of steps for one guided session. It is
// created once and never mutated while a session is running.
type Procedure struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Steps     []Step    `json:"steps"`
	CreatedAt time.Time `json:"created_at"`
}

// New creates a procedure with a generated ID and the current timestamp.
func New(title string, steps []Step) *Procedure {
	return &Procedure{
		ID:        uuid.NewString(),
		Title:     title,
		Steps:     steps,
		CreatedAt: time.Now().UTC(),
	}
}

// LoadFile reads a procedure from a JSON file. Files without an ID get one
// assigned, so locally authored procedures work without a round trip to the
// backend.
func LoadFile(path string) (*Procedure, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("procedure: read %s: %w", path, err)
	}

	var p Procedure
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("procedure: parse %s: %w", path, err)
	}
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now().UTC()
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return &p, nil
}

// Validate checks that the procedure is usable for a guided session.
func (p *Procedure) Validate() error {
	if p.Title == "" {
		return ErrEmptyTitle
	}
	if len(p.Steps) == 0 {
		return ErrNoSteps
	}
	for i, s := range p.Steps {
		if s.Title == "" {
			return fmt.Errorf("procedure: step %d has no title", i)
		}
	}
	return nil
}

// StepByID returns the step with the given identifier.
func (p *Procedure) StepByID(id int) (Step, error) {
	for _, s := range p.Steps {
		if s.ID == id {
			return s, nil
		}
	}
	return Step{}, fmt.Errorf("%w: step_id %d", ErrStepNotFound, id)
}

// NumSteps returns the number of steps in the procedure.
func (p *Procedure) NumSteps() int {
	return len(p.Steps)
}
