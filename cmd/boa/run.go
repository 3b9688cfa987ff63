package main

import (
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/gyaneshwarpardhi/boa/internal/config"
	"github.com/gyaneshwarpardhi/boa/internal/engine"
	"github.com/gyaneshwarpardhi/boa/internal/fitness"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run one optimization and print its statistics",
	Args:  cobra.NoArgs,
	RunE:  runOnce,
}

var (
	runOpts  config.RunConf
	jsonOut  bool
	listFunc bool
)

func init() {
	d := config.DefaultRun()
	f := runCmd.Flags()
	f.IntVarP(&runOpts.ProblemSize, "problem-size", "n", d.ProblemSize, "Number of binary variables")
	f.IntVarP(&runOpts.PopulationSize, "population-size", "N", d.PopulationSize, "Population size")
	f.StringVarP(&runOpts.Fitness, "fitness", "f", d.Fitness, "Fitness function")
	f.Float64Var(&runOpts.OffspringPercent, "offspring", d.OffspringPercent, "Offspring per generation in percent of the population")
	f.StringVar(&runOpts.Selection, "selection", d.Selection, "Selection: tournament or truncation")
	f.IntVar(&runOpts.TournamentSize, "tournament-size", d.TournamentSize, "Tournament size (truncation ratio for truncation)")
	f.IntVar(&runOpts.MaxGenerations, "max-generations", d.MaxGenerations, "Generation limit, negative disables")
	f.Int64Var(&runOpts.MaxFitnessCalls, "max-fitness-calls", d.MaxFitnessCalls, "Fitness evaluation limit, negative disables")
	f.Float64Var(&runOpts.Epsilon, "epsilon", d.Epsilon, "Bit-convergence threshold, negative disables")
	f.BoolVar(&runOpts.StopWhenOptimal, "stop-when-optimal", d.StopWhenOptimal, "Stop once an optimum is found")
	f.Float64Var(&runOpts.MaxOptimal, "max-optimal", d.MaxOptimal, "Stop when this percentage of the population is optimal, negative disables")
	f.IntVarP(&runOpts.MaxIncoming, "max-incoming", "k", d.MaxIncoming, "Maximum number of parents per variable")
	f.BoolVar(&runOpts.AllowMerge, "allow-merge", d.AllowMerge, "Allow merge operators during model construction")
	f.Float64Var(&runOpts.GuidanceThreshold, "guidance-threshold", d.GuidanceThreshold, "Threshold of the population bias string")
	f.Int64Var(&runOpts.Seed, "seed", d.Seed, "Random seed")
	f.StringVarP(&runOpts.Output, "output", "o", d.Output, "Base name of the .log, .fitness and .model files")
	f.BoolVar(&jsonOut, "json", false, "Print the result as JSON instead of the text report")
	f.BoolVar(&listFunc, "list-fitness", false, "List the available fitness functions and exit")
}

// overrides maps flag names to the RunConf field they set.
var overrides = map[string]func(dst *config.RunConf){
	"problem-size":       func(d *config.RunConf) { d.ProblemSize = runOpts.ProblemSize },
	"population-size":    func(d *config.RunConf) { d.PopulationSize = runOpts.PopulationSize },
	"fitness":            func(d *config.RunConf) { d.Fitness = runOpts.Fitness },
	"offspring":          func(d *config.RunConf) { d.OffspringPercent = runOpts.OffspringPercent },
	"selection":          func(d *config.RunConf) { d.Selection = runOpts.Selection },
	"tournament-size":    func(d *config.RunConf) { d.TournamentSize = runOpts.TournamentSize },
	"max-generations":    func(d *config.RunConf) { d.MaxGenerations = runOpts.MaxGenerations },
	"max-fitness-calls":  func(d *config.RunConf) { d.MaxFitnessCalls = runOpts.MaxFitnessCalls },
	"epsilon":            func(d *config.RunConf) { d.Epsilon = runOpts.Epsilon },
	"stop-when-optimal":  func(d *config.RunConf) { d.StopWhenOptimal = runOpts.StopWhenOptimal },
	"max-optimal":        func(d *config.RunConf) { d.MaxOptimal = runOpts.MaxOptimal },
	"max-incoming":       func(d *config.RunConf) { d.MaxIncoming = runOpts.MaxIncoming },
	"allow-merge":        func(d *config.RunConf) { d.AllowMerge = runOpts.AllowMerge },
	"guidance-threshold": func(d *config.RunConf) { d.GuidanceThreshold = runOpts.GuidanceThreshold },
	"seed":               func(d *config.RunConf) { d.Seed = runOpts.Seed },
	"output":             func(d *config.RunConf) { d.Output = runOpts.Output },
}

// applyFlags copies every explicitly set flag over rc.
func applyFlags(fs *pflag.FlagSet, rc *config.RunConf) {
	fs.Visit(func(f *pflag.Flag) {
		if set, ok := overrides[f.Name]; ok {
			set(rc)
		}
	})
}

func runOnce(cmd *cobra.Command, args []string) error {
	reg := fitness.Default()
	out := cmd.OutOrStdout()
	if listFunc {
		for _, name := range reg.Names() {
			f, _ := reg.Get(name)
			fmt.Fprintf(out, "%-26s %s\n", name, f.Description())
		}
		return nil
	}

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		return err
	}
	rc := cfg.Run
	applyFlags(cmd.Flags(), &rc)
	if err := config.ValidateRun(rc, reg.Check); err != nil {
		return err
	}
	fn, err := reg.Get(rc.Fitness)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var opts []engine.RunOption
	if !jsonOut {
		opts = append(opts, engine.WithReport(out))
	}
	res, err := engine.Run(ctx, rc, fn, opts...)
	if err != nil {
		return err
	}
	if jsonOut {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(res)
	}
	return nil
}
