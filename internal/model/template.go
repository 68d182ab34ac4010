package model

import (
	"time"

	"github.com/google/uuid"
)

// RoomTemplate is a reusable room description: the room, the furniture it
// should hold and any constraints, but no optimization results.
type RoomTemplate struct {
	ID          string        `json:"id"`
	Name        string        `json:"name"`
	Description string        `json:"description"`
	CreatedAt   string        `json:"created_at"`
	UpdatedAt   string        `json:"updated_at"`
	Room        Room          `json:"room"`
	Manifest    Manifest      `json:"manifest"`
	Constraints ConstraintSet `json:"constraints"`
}

// NewRoomTemplate creates a template from the given project data.
func NewRoomTemplate(name, description string, room Room, manifest Manifest, constraints ConstraintSet) RoomTemplate {
	now := time.Now().UTC().Format(time.RFC3339)
	return RoomTemplate{
		ID:          uuid.New().String()[:8],
		Name:        name,
		Description: description,
		CreatedAt:   now,
		UpdatedAt:   now,
		Room:        room.Clone(),
		Manifest:    copyManifest(manifest),
		Constraints: constraints,
	}
}

// ToProject creates a new Project from this template.
func (t RoomTemplate) ToProject(projectName string) Project {
	p := NewProject()
	p.Name = projectName
	p.Room = t.Room.Clone()
	p.Manifest = copyManifest(t.Manifest)
	p.Constraints = ConstraintSet{
		Fixed:    append([]FixedConstraint(nil), t.Constraints.Fixed...),
		Relative: append([]RelativeConstraint(nil), t.Constraints.Relative...),
	}
	return p
}

// BuiltinTemplates returns the room templates shipped with the tool.
func BuiltinTemplates() []RoomTemplate {
	bedroom := NewRoom(4.5, 4)
	bedroom.Doors = []Rect{{X: 0.2, Y: 0, Width: 0.9, Height: 0.1}}
	bedroom.Windows = []Rect{{X: 1.5, Y: 3.9, Width: 1.5, Height: 0.1}}

	living := NewRoom(6, 5)
	living.Doors = []Rect{{X: 5, Y: 0, Width: 0.9, Height: 0.1}}
	living.Windows = []Rect{{X: 0, Y: 2, Width: 0.1, Height: 1.5}}

	studio := NewRoom(8, 6)
	studio.Doors = []Rect{{X: 3.5, Y: 0, Width: 1, Height: 0.1}}
	studio.Windows = []Rect{{X: 2, Y: 5.9, Width: 2, Height: 0.1}}
	studio.Zones = []Zone{
		{Name: "sleep", Function: "bedroom", Rect: Rect{X: 0, Y: 3, Width: 4, Height: 3}},
		{Name: "lounge", Function: "living", Rect: Rect{X: 4, Y: 3, Width: 4, Height: 3}},
		{Name: "eat", Function: "dining", Rect: Rect{X: 4, Y: 0, Width: 4, Height: 3}},
	}

	return []RoomTemplate{
		NewRoomTemplate("Bedroom", "Double bed with wardrobe and nightstands", bedroom, Manifest{
			{Type: TypeBed, Count: 1},
			{Type: TypeWardrobe, Count: 1},
			{Type: TypeNightstand, Count: 2},
		}, ConstraintSet{}),
		NewRoomTemplate("Living room", "Sofa, coffee table and TV", living, Manifest{
			{Type: TypeSofa, Count: 1},
			{Type: TypeCoffeeTable, Count: 1},
			{Type: TypeTVStand, Count: 1},
			{Type: TypeBookshelf, Count: 1},
		}, ConstraintSet{}),
		NewRoomTemplate("Studio", "Open plan studio with dining set", studio, Manifest{
			{Type: TypeBed, Count: 1},
			{Type: TypeWardrobe, Count: 1},
			{Type: TypeSofa, Count: 1},
			{Type: TypeCoffeeTable, Count: 1},
			{Type: TypeTVStand, Count: 1},
			{Type: TypeTable, Count: 1},
			{Type: TypeChair, Count: 4},
			{Type: TypeShoeCabinet, Count: 1},
		}, ConstraintSet{}),
	}
}

// TemplateStore holds a collection of room templates.
type TemplateStore struct {
	Templates []RoomTemplate `json:"templates"`
}

// NewTemplateStore creates an empty template store.
func NewTemplateStore() TemplateStore {
	return TemplateStore{
		Templates: []RoomTemplate{},
	}
}

// Add adds a template to the store.
func (ts *TemplateStore) Add(t RoomTemplate) {
	ts.Templates = append(ts.Templates, t)
}

// Remove removes a template by ID. Returns true if found and removed.
func (ts *TemplateStore) Remove(id string) bool {
	for i, t := range ts.Templates {
		if t.ID == id {
			ts.Templates = append(ts.Templates[:i], ts.Templates[i+1:]...)
			return true
		}
	}
	return false
}

// FindByID returns a pointer to the template with the given ID, or nil.
func (ts *TemplateStore) FindByID(id string) *RoomTemplate {
	for i := range ts.Templates {
		if ts.Templates[i].ID == id {
			return &ts.Templates[i]
		}
	}
	return nil
}

// FindByName returns a pointer to the first template with the given name, or nil.
func (ts *TemplateStore) FindByName(name string) *RoomTemplate {
	for i := range ts.Templates {
		if ts.Templates[i].Name == name {
			return &ts.Templates[i]
		}
	}
	return nil
}

// Names returns the template names in store order.
func (ts *TemplateStore) Names() []string {
	names := make([]string, len(ts.Templates))
	for i, t := range ts.Templates {
		names[i] = t.Name
	}
	return names
}

func copyManifest(m Manifest) Manifest {
	if m == nil {
		return Manifest{}
	}
	cp := make(Manifest, len(m))
	copy(cp, m)
	return cp
}
