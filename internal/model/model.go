package model

// Objective selects single-objective or Pareto search.
type Objective string

const (
	ObjectiveSingle Objective = "single" // weighted scalar fitness, truncation elite
	ObjectiveMulti  Objective = "multi"  // fitness vector, NSGA-II selection
)

// Refiner selects the local search run on the optimizer's result.
type Refiner string

const (
	RefinerNone       Refiner = "none"
	RefinerTryFail    Refiner = "try_fail"
	RefinerNelderMead Refiner = "nelder_mead"
)

// SearchSettings holds optimizer configuration.
type SearchSettings struct {
	Objective      Objective `json:"objective" yaml:"objective"`
	PopulationSize int       `json:"population_size" yaml:"population_size"`
	Generations    int       `json:"generations" yaml:"generations"`
	MutationRate   float64   `json:"mutation_rate" yaml:"mutation_rate"`     // per item
	MixProbability float64   `json:"mix_probability" yaml:"mix_probability"` // crossover: chance to take parent A's instance
	Jitter         float64   `json:"jitter" yaml:"jitter"`                   // metres
	EliteFraction  float64   `json:"elite_fraction" yaml:"elite_fraction"`
	Workers        int       `json:"workers" yaml:"workers"` // 0 = one per CPU
	Seed           int64     `json:"seed" yaml:"seed"`

	Refiner          Refiner `json:"refiner" yaml:"refiner"`
	RefineIterations int     `json:"refine_iterations" yaml:"refine_iterations"`

	PlacementAttempts int     `json:"placement_attempts" yaml:"placement_attempts"`
	GridResolution    float64 `json:"grid_resolution" yaml:"grid_resolution"` // pathfinding cell size, metres
	SoftRounds        int     `json:"soft_rounds" yaml:"soft_rounds"`
}

// DefaultSettings returns the default optimizer configuration.
func DefaultSettings() SearchSettings {
	return SearchSettings{
		Objective:         ObjectiveSingle,
		PopulationSize:    20,
		Generations:       30,
		MutationRate:      0.1,
		MixProbability:    0.7,
		Jitter:            0.5,
		EliteFraction:     0.5,
		Workers:           0,
		Seed:              42,
		Refiner:           RefinerTryFail,
		RefineIterations:  50,
		PlacementAttempts: 200,
		GridResolution:    0.5,
		SoftRounds:        5,
	}
}

// Objective term names used as weight keys and in score breakdowns.
const (
	TermComfort       = "comfort"
	TermAccessibility = "accessibility"
	TermSpace         = "space_utilization"
	TermAesthetics    = "aesthetics"
	TermSpacing       = "spacing"
	TermRelations     = "relations"
	TermCompleteness  = "completeness"
)

// Weights maps objective terms to their weight in the scalar fitness.
type Weights map[string]float64

// DefaultWeights returns an explicit copy of the built-in weights.
func DefaultWeights() Weights {
	return Weights{
		TermComfort:       1.0,
		TermAccessibility: 1.0,
		TermSpace:         1.0,
		TermAesthetics:    1.0,
		TermSpacing:       1.0,
		TermRelations:     1.0,
		TermCompleteness:  0,
	}
}

// Get returns the weight for term. Missing terms default to 1.0, except
// completeness which defaults to 0.
func (w Weights) Get(term string) float64 {
	if v, ok := w[term]; ok {
		return v
	}
	if term == TermCompleteness {
		return 0
	}
	return 1.0
}

// Config is the immutable configuration for one run. It is constructed once
// and passed by pointer into every component that needs it.
type Config struct {
	Rules    *RuleTable
	Weights  Weights
	Settings SearchSettings
}

// DefaultConfig returns the built-in configuration.
func DefaultConfig() *Config {
	return &Config{
		Rules:    DefaultRules(),
		Weights:  DefaultWeights(),
		Settings: DefaultSettings(),
	}
}

// Result is the outcome of an optimization stored with a project.
type Result struct {
	Layout    []Record           `json:"layout"`
	Score     float64            `json:"score"`
	Breakdown map[string]float64 `json:"breakdown,omitempty"`
	Front     [][]Record         `json:"front,omitempty"`
	Removed   []string           `json:"removed,omitempty"`
}

// Project ties everything together for save/load.
type Project struct {
	Name        string         `json:"name"`
	Room        Room           `json:"room"`
	Manifest    Manifest       `json:"manifest"`
	Constraints ConstraintSet  `json:"constraints"`
	Settings    SearchSettings `json:"settings"`
	Weights     Weights        `json:"weights,omitempty"`
	Result      *Result        `json:"result,omitempty"`
}

func NewProject() Project {
	return Project{
		Name:     "Untitled",
		Room:     NewRoom(5, 4),
		Manifest: Manifest{},
		Settings: DefaultSettings(),
	}
}
