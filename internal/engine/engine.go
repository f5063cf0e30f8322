package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"sync"
	"time"

	"github.com/planbiir/daytrips/internal/chart"
	"github.com/planbiir/daytrips/internal/config"
	"github.com/planbiir/daytrips/internal/sample"
	"github.com/planbiir/daytrips/internal/summary"
	"github.com/planbiir/daytrips/internal/trip"
)

// ErrInvalidInterval is returned when end is not after start.
var ErrInvalidInterval = errors.New("interval end must be after start")

// Collector supplies time-ordered samples of the half-open interval
// [start,end).
type Collector interface {
	Steps(ctx context.Context, start, end time.Time) ([]sample.Step, error)
	Locations(ctx context.Context, start, end time.Time) ([]sample.Location, error)
	Activities(ctx context.Context, start, end time.Time) ([]sample.Activity, error)
	Battery(ctx context.Context, start, end time.Time) ([]sample.Battery, error)
}

// Result is the finished output for one interval.
type Result struct {
	Start   time.Time          `json:"start"`
	End     time.Time          `json:"end"`
	Trips   []trip.Trip        `json:"trips"`
	Summary summary.DaySummary `json:"summary"`
	Battery []sample.Battery   `json:"battery,omitempty"`

	// Chart is the normalized chart the trips index into.
	Chart []chart.Element `json:"-"`
}

// Engine turns collected samples into trips. It holds no state between
// calls; concurrent calls for disjoint intervals are safe.
type Engine struct {
	collector Collector
	cfg       config.Config
	logger    *slog.Logger
	now       func() time.Time
}

// Option customizes an Engine.
type Option func(*Engine)

// WithLogger sets the logger used for per-stage diagnostics.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// WithClock replaces time.Now, which decides where the closing element of
// the current day goes.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// New creates an Engine reading from collector.
func New(collector Collector, cfg config.Config, opts ...Option) *Engine {
	e := &Engine{
		collector: collector,
		cfg:       cfg,
		logger:    slog.Default(),
		now:       time.Now,
	}
	e.cfg.Tunables = cfg.Tunables.Normalize()
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// ComputeResults builds, normalizes, segments and corrects the chart of
// [start,end) and aggregates the day summary.
func (e *Engine) ComputeResults(ctx context.Context, start, end time.Time) (Result, error) {
	if !end.After(start) {
		return Result{}, ErrInvalidInterval
	}

	in, battery, err := e.collect(ctx, start, end)
	if err != nil {
		return Result{}, err
	}

	startMs, endMs := sample.Millis(start), sample.Millis(end)
	elems := chart.Build(in, startMs, endMs, sample.Millis(e.now()))
	elems = chart.NewNormalizer(e.cfg.Tunables, e.logger).Normalize(elems)

	tl := trip.NewTimeline(elems, startMs, e.cfg.Tunables)
	trip.NewClassifier(e.cfg.Tunables, e.cfg.DayFlags, e.logger).Correct(tl)

	sum := summary.Aggregate(tl.Trips).WithBattery(battery)

	e.logger.Info("day computed",
		"start", start.Format(time.DateOnly),
		"steps", len(in.Steps),
		"locations", len(in.Locations),
		"activities", len(in.Activities),
		"trips", len(tl.Trips),
		"steps_total", sum.StepsTotal)

	return Result{
		Start:   start,
		End:     end,
		Trips:   tl.Trips,
		Summary: sum,
		Battery: battery,
		Chart:   tl.Chart,
	}, nil
}

func (e *Engine) collect(ctx context.Context, start, end time.Time) (chart.Input, []sample.Battery, error) {
	var in chart.Input
	var err error

	if in.Steps, err = e.collector.Steps(ctx, start, end); err != nil {
		return in, nil, fmt.Errorf("failed to collect steps: %w", err)
	}
	if in.Locations, err = e.collector.Locations(ctx, start, end); err != nil {
		return in, nil, fmt.Errorf("failed to collect locations: %w", err)
	}
	if in.Activities, err = e.collector.Activities(ctx, start, end); err != nil {
		return in, nil, fmt.Errorf("failed to collect activities: %w", err)
	}
	battery, err := e.collector.Battery(ctx, start, end)
	if err != nil {
		return in, nil, fmt.Errorf("failed to collect battery: %w", err)
	}
	return in, battery, nil
}

// Day returns the local calendar day containing t as [midnight, next midnight).
func Day(t time.Time) (time.Time, time.Time) {
	y, m, d := t.Date()
	start := time.Date(y, m, d, 0, 0, 0, 0, t.Location())
	return start, start.AddDate(0, 0, 1)
}

// ComputeDays computes every day in days in parallel. Each day owns its
// chart, so runs never share mutable state. Results keep the input order;
// the first error encountered is returned alongside whatever completed.
func (e *Engine) ComputeDays(ctx context.Context, days []time.Time) ([]Result, error) {
	results := make([]Result, len(days))
	errs := make([]error, len(days))

	var wg sync.WaitGroup
	chunkSize := max(len(days)/runtime.NumCPU(), 1)

	for i := 0; i < len(days); i += chunkSize {
		wg.Add(1)
		go func(s, end int) {
			defer wg.Done()
			for idx := s; idx < end; idx++ {
				from, to := Day(days[idx])
				results[idx], errs[idx] = e.ComputeResults(ctx, from, to)
			}
		}(i, min(i+chunkSize, len(days)))
	}
	wg.Wait()

	for i, err := range errs {
		if err != nil {
			return results, fmt.Errorf("day %s: %w", days[i].Format(time.DateOnly), err)
		}
	}
	return results, nil
}
