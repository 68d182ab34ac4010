package project

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/piwi3910/roomlayout/internal/model"
)

// Extension is the file extension used for saved projects.
const Extension = ".roomlayout"

// Save writes a project to path as indented JSON, creating parent
// directories as needed.
func Save(path string, p model.Project) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal project: %w", err)
	}
	return os.WriteFile(path, data, 0644)
}

// Load reads a project written by Save. Missing settings fall back to
// DefaultSettings and the room is validated.
func Load(path string) (model.Project, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return model.Project{}, err
	}
	p := model.NewProject()
	if err := json.Unmarshal(data, &p); err != nil {
		return model.Project{}, fmt.Errorf("%w: parsing project %s: %v", model.ErrConfiguration, path, err)
	}
	if p.Manifest == nil {
		p.Manifest = model.Manifest{}
	}
	if p.Room.Doors == nil {
		p.Room.Doors = []model.Rect{}
	}
	if p.Room.Windows == nil {
		p.Room.Windows = []model.Rect{}
	}
	if err := p.Room.Validate(); err != nil {
		return model.Project{}, fmt.Errorf("project %s: %w", path, err)
	}
	return p, nil
}

// ResultLayout rebuilds the saved best layout of p, restoring relational
// rules from rules. It returns nil when the project has no result.
func ResultLayout(p model.Project, rules *model.RuleTable) (*model.Layout, error) {
	if p.Result == nil {
		return nil, nil
	}
	return model.LayoutFromRecords(p.Result.Layout, rules)
}

// SaveLayout writes l in the layout interchange format.
func SaveLayout(path string, l *model.Layout) error {
	data, err := model.MarshalLayout(l)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// LoadLayout reads a layout interchange file.
func LoadLayout(path string, rules *model.RuleTable) (*model.Layout, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return model.ParseLayout(data, rules)
}
