package engine

import (
	"fmt"

	"github.com/piwi3910/roomlayout/internal/model"
)

// ComparisonScenario defines a named configuration to compare.
type ComparisonScenario struct {
	Name   string
	Config *model.Config
}

// ComparisonResult holds the optimization result and summary statistics for
// a single scenario.
type ComparisonResult struct {
	Scenario  ComparisonScenario
	Result    *Result
	Err       error
	Score     float64
	Placed    int
	Removed   int
	Relations float64 // percent of relation rules satisfied
	Grown     bool
}

// CompareScenarios optimizes the same room and manifest under each scenario
// and returns the results in scenario order. A scenario with a configuration
// error gets Err set; the others still run.
func CompareScenarios(scenarios []ComparisonScenario, room model.Room, manifest model.Manifest, constraints *model.ConstraintSet) []ComparisonResult {
	results := make([]ComparisonResult, 0, len(scenarios))

	for _, scenario := range scenarios {
		opt := New(scenario.Config)
		opt.Constraints = constraints
		res, err := opt.Optimize(room, manifest)
		if err != nil {
			results = append(results, ComparisonResult{Scenario: scenario, Err: err})
			continue
		}
		results = append(results, ComparisonResult{
			Scenario:  scenario,
			Result:    res,
			Score:     res.Best.Score,
			Placed:    res.Best.Layout.Len(),
			Removed:   len(res.Removed),
			Relations: res.Best.Breakdown.Relations,
			Grown:     res.Room.Width != room.Width || res.Room.Height != room.Height,
		})
	}

	return results
}

// BuildDefaultScenarios generates what-if alternatives to base: the other
// objective mode, the other refiner, wider door clearances and a larger
// population.
func BuildDefaultScenarios(base *model.Config) []ComparisonScenario {
	scenarios := []ComparisonScenario{{Name: "Current Settings", Config: base}}

	alt := *base
	if base.Settings.Objective == model.ObjectiveMulti {
		alt.Settings.Objective = model.ObjectiveSingle
		scenarios = append(scenarios, ComparisonScenario{Name: "Single Objective", Config: &alt})
	} else {
		alt.Settings.Objective = model.ObjectiveMulti
		scenarios = append(scenarios, ComparisonScenario{Name: "Multi-Objective (NSGA-II)", Config: &alt})
	}

	refine := *base
	if base.Settings.Refiner == model.RefinerNelderMead {
		refine.Settings.Refiner = model.RefinerTryFail
		scenarios = append(scenarios, ComparisonScenario{Name: "Try-Fail Refinement", Config: &refine})
	} else {
		refine.Settings.Refiner = model.RefinerNelderMead
		scenarios = append(scenarios, ComparisonScenario{Name: "Nelder-Mead Refinement", Config: &refine})
	}

	const extra = 0.5
	doors := *base
	doors.Rules = base.Rules.Clone()
	for t, rule := range doors.Rules.Types {
		rule.MinDoorDistance = base.Rules.DoorDistance(t) + extra
		doors.Rules.Types[t] = rule
	}
	doors.Rules.DefaultDoorDistance += extra
	scenarios = append(scenarios, ComparisonScenario{
		Name:   fmt.Sprintf("Door Clearance +%.1fm", extra),
		Config: &doors,
	})

	if base.Settings.PopulationSize > 0 && base.Settings.PopulationSize <= 50 {
		bigger := *base
		bigger.Settings.PopulationSize = base.Settings.PopulationSize * 2
		scenarios = append(scenarios, ComparisonScenario{
			Name:   fmt.Sprintf("Population %d", bigger.Settings.PopulationSize),
			Config: &bigger,
		})
	}

	return scenarios
}
