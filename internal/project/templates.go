package project

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/piwi3910/roomlayout/internal/model"
)

// DefaultTemplatePath returns the default file path for the templates store,
// ~/.roomlayout/templates.json.
func DefaultTemplatePath() string {
	return filepath.Join(DefaultConfigDir(), "templates.json")
}

// SaveTemplates writes the template store to a JSON file.
func SaveTemplates(path string, store model.TemplateStore) error {
	return writeJSON(path, store)
}

// LoadTemplates reads a template store from a JSON file.
// If the file does not exist, returns an empty store.
func LoadTemplates(path string) (model.TemplateStore, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return model.NewTemplateStore(), nil
		}
		return model.TemplateStore{}, err
	}
	var store model.TemplateStore
	if err := json.Unmarshal(data, &store); err != nil {
		return model.TemplateStore{}, err
	}
	if store.Templates == nil {
		store.Templates = []model.RoomTemplate{}
	}
	return store, nil
}

// LoadAllTemplates returns the built-in templates followed by the user's
// saved ones from path. A user template whose name matches a built-in one
// replaces it.
func LoadAllTemplates(path string) (model.TemplateStore, error) {
	user, err := LoadTemplates(path)
	if err != nil {
		return model.TemplateStore{}, err
	}
	store := model.NewTemplateStore()
	for _, t := range model.BuiltinTemplates() {
		if user.FindByName(t.Name) == nil {
			store.Add(t)
		}
	}
	for _, t := range user.Templates {
		store.Add(t)
	}
	return store, nil
}
