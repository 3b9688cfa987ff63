package config

import (
	"fmt"
	"strings"
)

// FitnessCheck reports whether the named fitness function exists and is
// defined for n variables.
type FitnessCheck func(name string, n int) error

// Validate checks the server settings and the default run.
func Validate(cfg *Config, check FitnessCheck) error {
	if cfg.Version == "" {
		return fmt.Errorf("config: version is required")
	}
	var errs []string
	s := cfg.Server
	if s.Addr == "" {
		errs = append(errs, "server.addr is required")
	}
	if s.Workers < 1 {
		errs = append(errs, fmt.Sprintf("server.workers must be at least 1, got %d", s.Workers))
	}
	if s.QueueDepth < 1 {
		errs = append(errs, fmt.Sprintf("server.queue_depth must be at least 1, got %d", s.QueueDepth))
	}
	if s.RunTimeoutMs < 0 {
		errs = append(errs, fmt.Sprintf("server.run_timeout_ms must not be negative, got %d", s.RunTimeoutMs))
	}
	errs = append(errs, runErrors("run.", cfg.Run, check)...)
	return joined(errs)
}

// ValidateRun checks run parameters on their own, e.g. those submitted for
// a single run.
func ValidateRun(r RunConf, check FitnessCheck) error {
	return joined(runErrors("", r, check))
}

func runErrors(prefix string, r RunConf, check FitnessCheck) []string {
	var errs []string
	add := func(format string, args ...any) {
		errs = append(errs, prefix+fmt.Sprintf(format, args...))
	}
	if r.PopulationSize < 1 {
		add("population_size must be at least 1, got %d", r.PopulationSize)
	}
	if r.ProblemSize < 1 {
		add("problem_size must be at least 1, got %d", r.ProblemSize)
	}
	if r.OffspringPercent <= 0 || r.OffspringPercent > 100 {
		add("offspring_percent must be in (0, 100], got %g", r.OffspringPercent)
	}
	switch r.Selection {
	case "tournament", "truncation":
	default:
		add("selection must be tournament or truncation, got %q", r.Selection)
	}
	if r.TournamentSize < 1 {
		add("tournament_size must be at least 1, got %d", r.TournamentSize)
	}
	if r.MaxIncoming < 0 {
		add("max_incoming must not be negative, got %d", r.MaxIncoming)
	}
	if r.GuidanceThreshold < 0 || r.GuidanceThreshold > 0.5 {
		add("guidance_threshold must be in [0, 0.5], got %g", r.GuidanceThreshold)
	}
	if r.MaxOptimal > 100 {
		add("max_optimal must be at most 100, got %g", r.MaxOptimal)
	}
	if check != nil && r.ProblemSize > 0 {
		if err := check(r.Fitness, r.ProblemSize); err != nil {
			add("fitness: %v", err)
		}
	}
	return errs
}

func joined(errs []string) error {
	if len(errs) > 0 {
		return fmt.Errorf("config validation errors:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}
