package model

// AppConfig holds application-wide preferences and default settings.
type AppConfig struct {
	// Defaults applied to new projects
	DefaultPopulation     int       `json:"default_population"`
	DefaultGenerations    int       `json:"default_generations"`
	DefaultObjective      Objective `json:"default_objective"`
	DefaultRefiner        Refiner   `json:"default_refiner"`
	DefaultWorkers        int       `json:"default_workers"`
	DefaultGridResolution float64   `json:"default_grid_resolution"`

	// Application preferences
	RecentProjects []string `json:"recent_projects"`
	LabelsPerPage  int      `json:"labels_per_page"`
}

// DefaultAppConfig returns an AppConfig populated with the values from
// DefaultSettings().
func DefaultAppConfig() AppConfig {
	defaults := DefaultSettings()
	return AppConfig{
		DefaultPopulation:     defaults.PopulationSize,
		DefaultGenerations:    defaults.Generations,
		DefaultObjective:      defaults.Objective,
		DefaultRefiner:        defaults.Refiner,
		DefaultWorkers:        defaults.Workers,
		DefaultGridResolution: defaults.GridResolution,
		RecentProjects:        []string{},
		LabelsPerPage:         8,
	}
}

// ApplyToSettings copies the default values from AppConfig into s. Used when
// creating a new project so it inherits the user's saved defaults.
func (c AppConfig) ApplyToSettings(s *SearchSettings) {
	if c.DefaultPopulation > 0 {
		s.PopulationSize = c.DefaultPopulation
	}
	if c.DefaultGenerations > 0 {
		s.Generations = c.DefaultGenerations
	}
	if c.DefaultObjective != "" {
		s.Objective = c.DefaultObjective
	}
	if c.DefaultRefiner != "" {
		s.Refiner = c.DefaultRefiner
	}
	s.Workers = c.DefaultWorkers
	if c.DefaultGridResolution > 0 {
		s.GridResolution = c.DefaultGridResolution
	}
}

// MaxRecentProjects bounds AppConfig.RecentProjects.
const MaxRecentProjects = 10

// AddRecent records path as the most recently used project, keeping at most
// MaxRecentProjects entries.
func (c *AppConfig) AddRecent(path string) {
	out := []string{path}
	for _, p := range c.RecentProjects {
		if p != path && len(out) < MaxRecentProjects {
			out = append(out, p)
		}
	}
	c.RecentProjects = out
}
