package pipeline

import (
	"fmt"
	"strings"
	"time"

	"github.com/wayfarer-ai/wayfarer/internal/task"
)

// RiskLevel is the traveler's stated risk tolerance.
type RiskLevel string

const (
	RiskLow    RiskLevel = "low"
	RiskMedium RiskLevel = "medium"
	RiskHigh   RiskLevel = "high"
)

func (r RiskLevel) Valid() bool {
	switch r {
	case RiskLow, RiskMedium, RiskHigh:
		return true
	}
	return false
}

// TripRequest is the single inbound surface of the engine. It is treated as
// immutable for the duration of a run.
type TripRequest struct {
	Origin     string
	Candidates []string // candidate destinations
	StartDate  string   // ISO date, YYYY-MM-DD
	EndDate    string   // ISO date, YYYY-MM-DD
	Interests  string
	Budget     int
	Country    string
	Diet       string
	Risk       RiskLevel

	// Stages toggles optional work unit kinds. A nil map enables all of
	// task.ToggleableKinds.
	Stages map[task.Kind]bool

	// DeepSearch grants reasoning units access to research tools for this
	// run.
	DeepSearch bool
}

func (r TripRequest) Validate() error {
	if strings.TrimSpace(r.Origin) == "" {
		return fmt.Errorf("origin is required")
	}
	if len(r.Candidates) == 0 {
		return fmt.Errorf("at least one candidate destination is required")
	}
	for _, d := range []string{r.StartDate, r.EndDate} {
		if _, err := time.Parse("2006-01-02", d); err != nil {
			return fmt.Errorf("dates must be YYYY-MM-DD: %w", err)
		}
	}
	if !r.Risk.Valid() {
		return fmt.Errorf("risk must be one of low, medium, high")
	}
	for k := range r.Stages {
		switch k {
		case task.KindWeather, task.KindEvents, task.KindSafety, task.KindBudget,
			task.KindFlights, task.KindHotels, task.KindTraffic:
		default:
			return fmt.Errorf("kind %q cannot be toggled", k)
		}
	}
	return nil
}

// StageEnabled reports whether an optional kind runs. Kinds outside the
// toggleable set are always on.
func (r TripRequest) StageEnabled(k task.Kind) bool {
	if r.Stages == nil {
		return true
	}
	switch k {
	case task.KindWeather, task.KindEvents, task.KindSafety, task.KindBudget,
		task.KindFlights, task.KindHotels, task.KindTraffic:
		return r.Stages[k]
	}
	return true
}

// Run binds one request to its stage outputs. It lives only for the duration
// of the call that produced it; persistence is the caller's business.
type Run struct {
	ID          string
	Request     TripRequest
	Destination string

	// Prefetch holds raw provider payloads (or error payloads) keyed by
	// data category name.
	Prefetch map[string]map[string]any

	// Findings holds each specialize unit's text, or an "Error: ..." string
	// if the unit failed. Every enabled kind is present.
	Findings map[task.Kind]string

	Itinerary string
	StartedAt time.Time
}
