package project

import (
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/piwi3910/roomlayout/internal/model"
)

// RoomConfig is the content of a YAML room configuration file: the room,
// what goes in it, and the rule/weight/search configuration for the run.
type RoomConfig struct {
	Name        string
	Room        model.Room
	Manifest    model.Manifest
	Constraints model.ConstraintSet
	Config      *model.Config
}

// Project converts the configuration into a new project.
func (c *RoomConfig) Project() model.Project {
	p := model.NewProject()
	if c.Name != "" {
		p.Name = c.Name
	}
	p.Room = c.Room.Clone()
	p.Manifest = append(model.Manifest{}, c.Manifest...)
	p.Constraints = c.Constraints
	p.Settings = c.Config.Settings
	p.Weights = c.Config.Weights
	return p
}

type rulesFile struct {
	Types               map[model.FurnitureType]yaml.Node `yaml:"types"`
	Pairs               []model.PairRule                  `yaml:"pairs"`
	DefaultNearDistance *float64                          `yaml:"default_near_distance"`
	DefaultDoorDistance *float64                          `yaml:"default_door_distance"`
	MinSpacing          *float64                          `yaml:"min_spacing"`
	GridStep            *float64                          `yaml:"grid_step"`
}

type configFile struct {
	Name        string               `yaml:"name"`
	Room        model.Room           `yaml:"room"`
	Manifest    model.Manifest       `yaml:"manifest"`
	Constraints model.ConstraintSet  `yaml:"constraints"`
	Rules       rulesFile            `yaml:"rules"`
	Weights     map[string]float64   `yaml:"weights"`
	Settings    model.SearchSettings `yaml:"settings"`
}

// LoadConfig reads a YAML room configuration. Every section is optional and
// layered over the built-in defaults: a type listed under rules.types only
// overrides the fields it names, weights merge key by key and settings
// override field by field.
func LoadConfig(path string) (*RoomConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: config file not found: %s", model.ErrConfiguration, path)
		}
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	return ParseConfig(data)
}

// ParseConfig decodes a YAML room configuration.
func ParseConfig(data []byte) (*RoomConfig, error) {
	file := configFile{Settings: model.DefaultSettings()}
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("%w: parsing config YAML: %v", model.ErrConfiguration, err)
	}

	rules, err := mergeRules(model.DefaultRules(), file.Rules)
	if err != nil {
		return nil, err
	}
	if err := rules.Validate(); err != nil {
		return nil, err
	}

	weights := model.DefaultWeights()
	for term, w := range file.Weights {
		if w < 0 {
			return nil, fmt.Errorf("%w: weight %s is negative", model.ErrConfiguration, term)
		}
		weights[term] = w
	}

	if file.Room.Doors == nil {
		file.Room.Doors = []model.Rect{}
	}
	if file.Room.Windows == nil {
		file.Room.Windows = []model.Rect{}
	}
	if file.Manifest == nil {
		file.Manifest = model.Manifest{}
	}
	if err := file.Manifest.Validate(rules); err != nil {
		return nil, err
	}

	return &RoomConfig{
		Name:        file.Name,
		Room:        file.Room,
		Manifest:    file.Manifest,
		Constraints: file.Constraints,
		Config: &model.Config{
			Rules:    rules,
			Weights:  weights,
			Settings: file.Settings,
		},
	}, nil
}

func mergeRules(base *model.RuleTable, file rulesFile) (*model.RuleTable, error) {
	rules := base.Clone()

	names := make([]string, 0, len(file.Types))
	for t := range file.Types {
		names = append(names, string(t))
	}
	sort.Strings(names)
	for _, name := range names {
		t := model.FurnitureType(name)
		if !t.Valid() {
			return nil, fmt.Errorf("%w: rule for unknown type %q", model.ErrConfiguration, t)
		}
		node := file.Types[t]
		rule := rules.Types[t]
		if err := node.Decode(&rule); err != nil {
			return nil, fmt.Errorf("%w: rule for %s: %v", model.ErrConfiguration, t, err)
		}
		rules.Types[t] = rule
	}

	for _, p := range file.Pairs {
		replaced := false
		for i, q := range rules.Pairs {
			if (q.A == p.A && q.B == p.B) || (q.A == p.B && q.B == p.A) {
				rules.Pairs[i] = p
				replaced = true
				break
			}
		}
		if !replaced {
			rules.Pairs = append(rules.Pairs, p)
		}
	}

	if file.DefaultNearDistance != nil {
		rules.DefaultNearDistance = *file.DefaultNearDistance
	}
	if file.DefaultDoorDistance != nil {
		rules.DefaultDoorDistance = *file.DefaultDoorDistance
	}
	if file.MinSpacing != nil {
		rules.MinSpacing = *file.MinSpacing
	}
	if file.GridStep != nil {
		rules.GridStep = *file.GridStep
	}
	return rules, nil
}

// SaveConfig writes c as a complete YAML configuration, including the full
// rule table, so it can be edited and loaded back with LoadConfig.
func SaveConfig(path string, c *RoomConfig) error {
	out := struct {
		Name        string               `yaml:"name,omitempty"`
		Room        model.Room           `yaml:"room"`
		Manifest    model.Manifest       `yaml:"manifest"`
		Constraints model.ConstraintSet  `yaml:"constraints,omitempty"`
		Rules       *model.RuleTable     `yaml:"rules"`
		Weights     model.Weights        `yaml:"weights"`
		Settings    model.SearchSettings `yaml:"settings"`
	}{
		Name:        c.Name,
		Room:        c.Room,
		Manifest:    c.Manifest,
		Constraints: c.Constraints,
		Rules:       c.Config.Rules,
		Weights:     c.Config.Weights,
		Settings:    c.Config.Settings,
	}
	data, err := yaml.Marshal(&out)
	if err != nil {
		return fmt.Errorf("marshaling config YAML: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}
