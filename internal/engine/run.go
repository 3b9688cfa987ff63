package engine

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/rand"
	"os"
	"time"

	"github.com/gyaneshwarpardhi/boa/internal/config"
	"github.com/gyaneshwarpardhi/boa/internal/dag"
	"github.com/gyaneshwarpardhi/boa/internal/diagram"
	"github.com/gyaneshwarpardhi/boa/internal/fitness"
	"github.com/gyaneshwarpardhi/boa/internal/learn"
	"github.com/gyaneshwarpardhi/boa/internal/metrics"
	"github.com/gyaneshwarpardhi/boa/internal/population"
	"github.com/gyaneshwarpardhi/boa/internal/sample"
	"github.com/gyaneshwarpardhi/boa/internal/stats"
)

// Reason says why a run stopped.
type Reason string

const (
	ReasonNone            Reason = "none"
	ReasonMaxGenerations  Reason = "max-generations"
	ReasonEpsilon         Reason = "epsilon"
	ReasonMaxOptimal      Reason = "max-optimal"
	ReasonOptimumFound    Reason = "optimum-found"
	ReasonMaxFitnessCalls Reason = "max-fitness-calls"
	ReasonCancelled       Reason = "cancelled"
)

// Result is the outcome of one run.
type Result struct {
	Generations  int                `json:"generations"`
	FitnessCalls int64              `json:"fitness_calls"`
	Reason       Reason             `json:"reason"`
	Final        stats.Generation   `json:"final"`
	Best         string             `json:"best"`
	BestFitness  float64            `json:"best_fitness"`
	Edges        []dag.Edge         `json:"edges"`
	Model        [][]diagram.Record `json:"model"`
	LastSearch   learn.Stats        `json:"last_search"`
}

// RunOption configures Run.
type RunOption func(*runner)

// WithLogger sets the run's logger.
func WithLogger(l *slog.Logger) RunOption {
	return func(r *runner) { r.log = l }
}

// WithProgress delivers the statistics of every generation to ch. Sends
// never block; a slow reader misses updates.
func WithProgress(ch chan<- stats.Generation) RunOption {
	return func(r *runner) { r.progress = ch }
}

// WithReport writes the generation and final statistics blocks to w as the
// run progresses.
func WithReport(w io.Writer) RunOption {
	return func(r *runner) { r.report = w }
}

type runner struct {
	conf     config.RunConf
	fn       fitness.Function
	eval     *fitness.Evaluator
	rng      *rand.Rand
	log      *slog.Logger
	progress chan<- stats.Generation

	report      io.Writer
	logFile     io.Writer
	fitnessFile io.Writer
	modelFile   io.Writer
	reported    int64
}

// Run optimizes fn with the given parameters until a termination criterion
// holds. The run is single-threaded and draws all randomness from a source
// seeded with conf.Seed.
func Run(ctx context.Context, conf config.RunConf, fn fitness.Function, opts ...RunOption) (*Result, error) {
	r := &runner{
		conf: conf,
		fn:   fn,
		eval: fitness.NewEvaluator(fn),
		rng:  rand.New(rand.NewSource(conf.Seed)),
		log:  slog.Default(),
	}
	for _, o := range opts {
		o(r)
	}
	if err := fn.Validate(conf.ProblemSize); err != nil {
		return nil, err
	}
	sel, err := population.NewSelector(conf.Selection, conf.TournamentSize)
	if err != nil {
		return nil, err
	}
	closeFiles, err := r.openOutputs()
	if err != nil {
		return nil, err
	}
	defer closeFiles()
	return r.loop(ctx, sel)
}

func (r *runner) loop(ctx context.Context, sel population.Selector) (*Result, error) {
	c := r.conf
	n := c.ProblemSize
	numOffspring := max(int(float64(c.PopulationSize)*c.OffspringPercent/100), 1)

	pop := population.New(c.PopulationSize, n)
	parents := population.New(c.PopulationSize, n)
	offspring := population.New(numOffspring, n)

	pop.Randomize(r.rng)
	pop.Evaluate(r.eval)

	r.log.Info("run started", "fitness", r.fn.Name(), "n", n, "N", c.PopulationSize, "seed", c.Seed)

	res := &Result{}
	gen := 0
	st := r.observe(gen, pop)
	for {
		reason := r.terminate(ctx, st, pop)
		if reason != ReasonNone {
			res.Reason = reason
			break
		}

		sel(pop, parents, r.rng)

		start := time.Now()
		model, err := learn.Learn(parents, learn.Params{
			MaxIncoming: c.MaxIncoming,
			AllowMerge:  c.AllowMerge,
		}, learn.WithLogger(r.log))
		if err != nil {
			return nil, fmt.Errorf("generation %d: %w", gen, err)
		}
		metrics.ModelBuildDuration.Observe(float64(time.Since(start).Milliseconds()))
		metrics.OperatorsApplied.WithLabelValues("split").Add(float64(model.Stats.Splits))
		metrics.OperatorsApplied.WithLabelValues("merge").Add(float64(model.Stats.Merges))
		metrics.OperatorsApplied.WithLabelValues("discarded").Add(float64(model.Stats.Discarded))

		if r.modelFile != nil {
			if err := stats.WriteModel(r.modelFile, gen, model.Diagrams); err != nil {
				return nil, fmt.Errorf("write model: %w", err)
			}
		}

		if err := sample.Generate(offspring, model.Graph, sample.FromDiagrams(model.Diagrams), r.rng); err != nil {
			return nil, fmt.Errorf("generation %d: %w", gen, err)
		}
		offspring.Evaluate(r.eval)
		population.ReplaceWorst(pop, offspring)

		res.Edges = model.Graph.Edges()
		res.Model = modelReport(model.Diagrams)
		res.LastSearch = model.Stats

		gen++
		metrics.Generations.Inc()
		st = r.observe(gen, pop)
	}

	res.Generations = gen
	res.FitnessCalls = r.eval.Calls()
	res.Final = st
	res.Best = st.Best
	res.BestFitness = st.BestFitness
	for _, w := range r.logs() {
		if err := stats.WriteFinal(w, string(res.Reason), st, true); err != nil {
			return nil, fmt.Errorf("write final statistics: %w", err)
		}
	}
	r.log.Info("run finished", "reason", res.Reason, "generations", gen,
		"fitness_calls", res.FitnessCalls, "best", res.BestFitness)
	return res, nil
}

// terminate checks the stop criteria in a fixed order and returns the first
// that holds.
func (r *runner) terminate(ctx context.Context, st stats.Generation, pop *population.Population) Reason {
	c := r.conf
	switch {
	case c.MaxOptimal >= 0 && st.OptimalPercent >= c.MaxOptimal:
		return ReasonMaxOptimal
	case c.StopWhenOptimal && r.fn.Optimal(pop.Row(pop.Best())):
		return ReasonOptimumFound
	case c.Epsilon >= 0 && stats.Converged(st.P1, c.Epsilon):
		return ReasonEpsilon
	case c.MaxGenerations >= 0 && st.Generation >= c.MaxGenerations:
		return ReasonMaxGenerations
	case c.MaxFitnessCalls >= 0 && r.eval.Calls() >= c.MaxFitnessCalls:
		return ReasonMaxFitnessCalls
	case ctx.Err() != nil:
		return ReasonCancelled
	}
	return ReasonNone
}

// observe computes, reports and publishes the statistics of gen.
func (r *runner) observe(gen int, pop *population.Population) stats.Generation {
	calls := r.eval.Calls()
	metrics.FitnessEvaluations.WithLabelValues(r.fn.Name()).Add(float64(calls - r.reported))
	r.reported = calls

	st := stats.Compute(gen, pop, calls, r.fn.Optimal, r.conf.GuidanceThreshold)
	r.log.Debug("generation", "generation", gen, "max", st.Max, "avg", st.Avg, "min", st.Min,
		"guidance", st.Guidance)

	for _, w := range r.logs() {
		if err := stats.WriteGeneration(w, st, true); err != nil {
			r.log.Warn("write generation statistics", "err", err)
		}
	}
	if r.fitnessFile != nil {
		if err := stats.WriteFitness(r.fitnessFile, st); err != nil {
			r.log.Warn("write fitness trace", "err", err)
		}
	}
	if r.progress != nil {
		select {
		case r.progress <- st:
		default:
		}
	}
	return st
}

func (r *runner) logs() []io.Writer {
	var ws []io.Writer
	for _, w := range []io.Writer{r.report, r.logFile} {
		if w != nil {
			ws = append(ws, w)
		}
	}
	return ws
}

// openOutputs creates <output>.log, <output>.fitness and <output>.model
// when an output base name is configured.
func (r *runner) openOutputs() (func(), error) {
	base := r.conf.Output
	if base == "" {
		return func() {}, nil
	}
	var files []*os.File
	closeAll := func() {
		for _, f := range files {
			if err := f.Close(); err != nil {
				r.log.Warn("close output", "file", f.Name(), "err", err)
			}
		}
	}
	for _, ext := range []string{".log", ".fitness", ".model"} {
		f, err := os.Create(base + ext)
		if err != nil {
			closeAll()
			return nil, fmt.Errorf("create output: %w", err)
		}
		files = append(files, f)
	}
	r.logFile, r.fitnessFile, r.modelFile = files[0], files[1], files[2]
	return closeAll, nil
}

func modelReport(ds []*diagram.Diagram) [][]diagram.Record {
	out := make([][]diagram.Record, len(ds))
	for i, d := range ds {
		out[i] = d.Records()
	}
	return out
}

// IsCancelled reports whether err came from a cancelled or expired context.
func IsCancelled(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
