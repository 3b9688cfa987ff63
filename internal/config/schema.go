package config

// Config is the top-level YAML structure.
type Config struct {
	Version string     `yaml:"version"`
	Server  ServerConf `yaml:"server"`
	Run     RunConf    `yaml:"run"`
}

// ServerConf holds tunable service settings.
type ServerConf struct {
	Addr         string `yaml:"addr"`
	Workers      int    `yaml:"workers"`
	QueueDepth   int    `yaml:"queue_depth"`
	DataPath     string `yaml:"data_path"`
	RunTimeoutMs int    `yaml:"run_timeout_ms"`
}

// RunConf parameterizes one optimization run. Negative limits disable the
// corresponding termination criterion.
type RunConf struct {
	PopulationSize    int     `yaml:"population_size" json:"population_size"`
	ProblemSize       int     `yaml:"problem_size" json:"problem_size"`
	Fitness           string  `yaml:"fitness" json:"fitness"`
	OffspringPercent  float64 `yaml:"offspring_percent" json:"offspring_percent"`
	Selection         string  `yaml:"selection" json:"selection"`
	TournamentSize    int     `yaml:"tournament_size" json:"tournament_size"`
	MaxGenerations    int     `yaml:"max_generations" json:"max_generations"`
	MaxFitnessCalls   int64   `yaml:"max_fitness_calls" json:"max_fitness_calls"`
	Epsilon           float64 `yaml:"epsilon" json:"epsilon"`
	StopWhenOptimal   bool    `yaml:"stop_when_optimal" json:"stop_when_optimal"`
	MaxOptimal        float64 `yaml:"max_optimal" json:"max_optimal"`
	MaxIncoming       int     `yaml:"max_incoming" json:"max_incoming"`
	AllowMerge        bool    `yaml:"allow_merge" json:"allow_merge"`
	GuidanceThreshold float64 `yaml:"guidance_threshold" json:"guidance_threshold"`
	Seed              int64   `yaml:"seed" json:"seed"`
	Output            string  `yaml:"output" json:"output"`
}

// Default returns the configuration used for every field a file leaves out.
func Default() *Config {
	return &Config{
		Version: "v1",
		Server: ServerConf{
			Addr:         ":8080",
			Workers:      4,
			QueueDepth:   64,
			DataPath:     "data",
			RunTimeoutMs: 600000,
		},
		Run: DefaultRun(),
	}
}

// DefaultRun returns the default run parameters.
func DefaultRun() RunConf {
	return RunConf{
		PopulationSize:    400,
		ProblemSize:       50,
		Fitness:           "onemax",
		OffspringPercent:  50,
		Selection:         "tournament",
		TournamentSize:    4,
		MaxGenerations:    200,
		MaxFitnessCalls:   -1,
		Epsilon:           0.01,
		StopWhenOptimal:   true,
		MaxOptimal:        -1,
		MaxIncoming:       20,
		AllowMerge:        true,
		GuidanceThreshold: 0.3,
		Seed:              1,
	}
}
