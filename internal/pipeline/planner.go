package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/wayfarer-ai/wayfarer/internal/fetch"
	"github.com/wayfarer-ai/wayfarer/internal/observability"
	"github.com/wayfarer-ai/wayfarer/internal/reason"
	"github.com/wayfarer-ai/wayfarer/internal/task"
)

var (
	// ErrSelection marks a run that failed before a destination was
	// resolved. Nothing downstream can proceed without one.
	ErrSelection = errors.New("destination selection failed")

	// ErrSynthesis marks a run that failed at the final call, after all
	// parallel work completed. Retryable at the pipeline level.
	ErrSynthesis = errors.New("itinerary synthesis failed")
)

// Config tunes the pipeline stages. Zero values fall back to the defaults.
type Config struct {
	PrefetchWorkers   int           // default 8
	PrefetchTimeout   time.Duration // per prefetch unit, default 12s
	SpecializeTimeout time.Duration // per reasoning unit, default 180s
	SelectionRetries  int           // extra selection attempts, default 2
}

func (c Config) withDefaults() Config {
	if c.PrefetchWorkers <= 0 {
		c.PrefetchWorkers = 8
	}
	if c.PrefetchTimeout <= 0 {
		c.PrefetchTimeout = 12 * time.Second
	}
	if c.SpecializeTimeout <= 0 {
		c.SpecializeTimeout = 180 * time.Second
	}
	if c.SelectionRetries < 0 {
		c.SelectionRetries = 0
	} else if c.SelectionRetries == 0 {
		c.SelectionRetries = 2
	}
	return c
}

// Planner sequences a run through its four stages: select destination,
// prefetch external data, run specialized reasoning units, synthesize the
// itinerary. Stages are strictly sequential; parallelism lives inside a
// stage and is fully joined at the stage boundary.
type Planner struct {
	exec   *reason.Executor
	data   *fetch.Service
	cfg    Config
	logger *zap.Logger
}

func New(exec *reason.Executor, data *fetch.Service, cfg Config, logger *zap.Logger) *Planner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Planner{
		exec:   exec,
		data:   data,
		cfg:    cfg.withDefaults(),
		logger: logger,
	}
}

// Plan executes one TripRequest. Only destination selection and synthesis
// can fail the run; every intermediate failure is folded into the results as
// an error value.
func (p *Planner) Plan(ctx context.Context, req TripRequest) (*Run, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("invalid trip request: %w", err)
	}

	run := &Run{
		ID:        uuid.NewString(),
		Request:   req,
		Prefetch:  make(map[string]map[string]any),
		Findings:  make(map[task.Kind]string),
		StartedAt: time.Now(),
	}
	logger := p.logger.With(zap.String("run_id", run.ID))
	observability.RunsStarted.Inc()

	dest, err := p.selectDestination(ctx, req)
	if err != nil {
		observability.RunsCompleted.WithLabelValues("selection_failed").Inc()
		return nil, err
	}
	run.Destination = dest
	logger.Info("destination selected", zap.String("destination", dest))

	p.prefetch(ctx, run, logger)
	p.specialize(ctx, run, logger)

	if err := p.synthesize(ctx, run); err != nil {
		observability.RunsCompleted.WithLabelValues("synthesis_failed").Inc()
		return nil, err
	}

	observability.RunsCompleted.WithLabelValues("ok").Inc()
	logger.Info("run complete",
		zap.String("destination", run.Destination),
		zap.Int("findings", len(run.Findings)),
		zap.Duration("elapsed", time.Since(run.StartedAt)))
	return run, nil
}

func (p *Planner) taskParams(req TripRequest, dest string) task.Params {
	return task.Params{
		Origin:      req.Origin,
		Candidates:  req.Candidates,
		Destination: dest,
		StartDate:   req.StartDate,
		EndDate:     req.EndDate,
		Interests:   req.Interests,
		Budget:      req.Budget,
		Country:     req.Country,
		Diet:        req.Diet,
		Risk:        string(req.Risk),
	}
}

// selectDestination asks for a bare destination name and accepts the answer
// only if it matches a candidate. Rejected answers trigger a reworded retry
// so the repeat is not served from the memo cache.
func (p *Planner) selectDestination(ctx context.Context, req TripRequest) (string, error) {
	defer observeStage("select_destination", time.Now())

	base, err := task.NewDescriptor(task.KindDestinationSelector, p.taskParams(req, ""))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrSelection, err)
	}

	attempts := 1 + p.cfg.SelectionRetries
	var lastErr error
	for i := 0; i < attempts; i++ {
		d := base
		if i > 0 {
			d.Description = fmt.Sprintf(
				"%s\n\nYour previous answer was not one of the candidates. Attempt %d: respond with exactly one candidate name.",
				base.Description, i+1)
		}

		out, err := p.exec.Run(ctx, d, req.DeepSearch)
		if err != nil {
			lastErr = err
			continue
		}
		name := reduceDestination(out)
		if match, ok := matchCandidate(name, req.Candidates); ok {
			return match, nil
		}
		lastErr = fmt.Errorf("answer %q is not a candidate", name)
		p.logger.Warn("selection answer rejected", zap.String("answer", name))
	}
	return "", fmt.Errorf("%w: %v", ErrSelection, lastErr)
}

// prefetch fans the enabled data lookups out through the provider caches.
// Failures become error payload values; the stage itself cannot fail.
func (p *Planner) prefetch(ctx context.Context, run *Run, logger *zap.Logger) {
	defer observeStage("prefetch", time.Now())
	req, dest := run.Request, run.Destination

	units := make(map[string]Unit[map[string]any])
	if req.StageEnabled(task.KindWeather) {
		units["weather"] = func(ctx context.Context) (map[string]any, error) {
			lat, lon, err := p.data.Locate(ctx, dest)
			if err != nil {
				return nil, err
			}
			return p.data.Weather(ctx, lat, lon, req.StartDate, req.EndDate), nil
		}
	}
	if req.StageEnabled(task.KindEvents) {
		units["events"] = func(ctx context.Context) (map[string]any, error) {
			return p.data.Events(ctx, dest, req.StartDate, req.EndDate), nil
		}
	}
	if req.StageEnabled(task.KindFlights) {
		units["flights"] = func(ctx context.Context) (map[string]any, error) {
			return p.data.Flights(ctx, req.Origin, dest, req.StartDate, req.EndDate), nil
		}
	}
	if req.StageEnabled(task.KindHotels) {
		units["hotels"] = func(ctx context.Context) (map[string]any, error) {
			return p.data.Hotels(ctx, dest, req.StartDate, req.EndDate, req.Budget), nil
		}
	}

	for label, r := range FanOut(ctx, units, p.cfg.PrefetchWorkers, p.cfg.PrefetchTimeout) {
		if r.Err != nil {
			observability.UnitFailures.WithLabelValues(label).Inc()
			logger.Warn("prefetch unit failed", zap.String("category", label), zap.Error(r.Err))
			run.Prefetch[label] = map[string]any{"error": r.Err.Error()}
			continue
		}
		run.Prefetch[label] = r.Value
	}
}

// specialize runs every enabled reasoning unit in parallel, one worker per
// unit, and records each output or an "Error: ..." stand-in. It starts only
// after prefetch has fully joined so units see the freshest data, but it
// does not require prefetch to have succeeded.
func (p *Planner) specialize(ctx context.Context, run *Run, logger *zap.Logger) {
	defer observeStage("specialize", time.Now())
	req, dest := run.Request, run.Destination

	units := make(map[string]Unit[string])
	for _, k := range task.SpecializeKinds {
		if !req.StageEnabled(k) {
			continue
		}
		params := p.taskParams(req, dest)
		switch k {
		case task.KindFlights:
			params.Prefetched = encodePrefetch(run.Prefetch["flights"])
		case task.KindHotels:
			params.Prefetched = encodePrefetch(run.Prefetch["hotels"])
		}

		d, err := task.NewDescriptor(k, params)
		if err != nil {
			run.Findings[k] = "Error: " + err.Error()
			continue
		}
		units[k.String()] = func(ctx context.Context) (string, error) {
			return p.exec.Run(ctx, d, req.DeepSearch)
		}
	}

	for label, r := range FanOut(ctx, units, len(units), p.cfg.SpecializeTimeout) {
		k := task.Kind(label)
		if r.Err != nil {
			observability.UnitFailures.WithLabelValues(label).Inc()
			logger.Warn("specialize unit failed", zap.String("kind", label), zap.Error(r.Err))
			run.Findings[k] = "Error: " + r.Err.Error()
			continue
		}
		run.Findings[k] = r.Value
	}
}

// synthesize makes the single final call over the complete findings report.
func (p *Planner) synthesize(ctx context.Context, run *Run) error {
	defer observeStage("synthesize", time.Now())

	desc, err := task.DescribeSynthesis(p.taskParams(run.Request, run.Destination), run.Findings)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrSynthesis, err)
	}
	out, err := p.exec.Run(ctx,
		task.Descriptor{Kind: task.KindItinerarySynthesizer, Description: desc},
		run.Request.DeepSearch)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrSynthesis, err)
	}
	run.Itinerary = out
	return nil
}

// reduceDestination extracts a destination name from a model answer: first
// line, truncated at the first period, trimmed of whitespace and quotes.
func reduceDestination(answer string) string {
	line, _, _ := strings.Cut(answer, "\n")
	line, _, _ = strings.Cut(line, ".")
	return strings.Trim(strings.TrimSpace(line), `"'`)
}

func matchCandidate(name string, candidates []string) (string, bool) {
	for _, c := range candidates {
		if strings.EqualFold(strings.TrimSpace(c), name) {
			return strings.TrimSpace(c), true
		}
	}
	return "", false
}

func encodePrefetch(payload map[string]any) string {
	if payload == nil {
		return ""
	}
	b, err := json.Marshal(payload)
	if err != nil {
		return ""
	}
	return string(b)
}

func observeStage(stage string, start time.Time) {
	observability.StageDuration.WithLabelValues(stage).Observe(time.Since(start).Seconds())
}
