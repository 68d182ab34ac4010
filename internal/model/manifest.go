package model

import (
	"fmt"
)

// ManifestItem requests Count items of a type. Zero size or a negative
// clearance means "use the rule table default". When ID is set the items get
// stable ids (ID, or ID-1, ID-2, ... for counts above one) so constraints can
// refer to them.
type ManifestItem struct {
	ID        string        `json:"id,omitempty" yaml:"id,omitempty"`
	Label     string        `json:"label,omitempty" yaml:"label,omitempty"`
	Type      FurnitureType `json:"type" yaml:"type"`
	Count     int           `json:"count" yaml:"count"`
	Width     float64       `json:"width,omitempty" yaml:"width,omitempty"`
	Height    float64       `json:"height,omitempty" yaml:"height,omitempty"`
	Clearance *float64      `json:"clearance,omitempty" yaml:"clearance,omitempty"`
}

// Manifest is the requested furniture for one room.
type Manifest []ManifestItem

// Total returns the number of requested items.
func (m Manifest) Total() int {
	n := 0
	for _, it := range m {
		n += it.Count
	}
	return n
}

// Counts returns the requested count per type.
func (m Manifest) Counts() map[FurnitureType]int {
	counts := make(map[FurnitureType]int)
	for _, it := range m {
		counts[it.Type] += it.Count
	}
	return counts
}

// Validate checks every entry against the rule table. It is run before any
// optimization starts so that configuration problems abort early.
func (m Manifest) Validate(rules *RuleTable) error {
	named := make(map[string]int)
	for i, it := range m {
		if it.ID == "" {
			continue
		}
		for k := 0; k < it.Count; k++ {
			id := namedID(it, k)
			if j, dup := named[id]; dup {
				return fmt.Errorf("%w: manifest entries %d and %d both produce item id %q", ErrConfiguration, j, i, id)
			}
			named[id] = i
		}
	}
	for i, it := range m {
		if !it.Type.Valid() {
			return fmt.Errorf("%w: manifest entry %d has unknown type %q", ErrConfiguration, i, it.Type)
		}
		if it.Count < 0 {
			return fmt.Errorf("%w: manifest entry %d (%s) has negative count", ErrConfiguration, i, it.Type)
		}
		if it.Clearance != nil && *it.Clearance < 0 {
			return fmt.Errorf("%w: manifest entry %d (%s) has negative clearance", ErrConfiguration, i, it.Type)
		}
		if it.Width > 0 && it.Height > 0 {
			continue
		}
		if _, _, err := rules.DefaultSize(it.Type); err != nil {
			return fmt.Errorf("manifest entry %d: %w", i, err)
		}
	}
	return nil
}

// Expand creates the unplaced items the manifest asks for, all at the origin.
// Entries without an ID get "<type>-<n>" ids, numbered per type, so the same
// manifest always expands to the same ids.
func (m Manifest) Expand(rules *RuleTable) ([]*Furniture, error) {
	if err := m.Validate(rules); err != nil {
		return nil, err
	}
	used := make(map[string]bool)
	for _, it := range m {
		if it.ID == "" {
			continue
		}
		for k := 0; k < it.Count; k++ {
			used[namedID(it, k)] = true
		}
	}
	next := make(map[FurnitureType]int)
	var out []*Furniture
	for _, it := range m {
		for k := 0; k < it.Count; k++ {
			f, err := m.newItem(rules, it)
			if err != nil {
				return nil, err
			}
			if it.ID != "" {
				f.ID = namedID(it, k)
			} else {
				for {
					next[it.Type]++
					id := fmt.Sprintf("%s-%d", it.Type, next[it.Type])
					if !used[id] {
						f.ID = id
						used[id] = true
						break
					}
				}
			}
			out = append(out, f)
		}
	}
	return out, nil
}

func namedID(it ManifestItem, k int) string {
	if it.Count > 1 {
		return fmt.Sprintf("%s-%d", it.ID, k+1)
	}
	return it.ID
}

func (m Manifest) newItem(rules *RuleTable, it ManifestItem) (*Furniture, error) {
	rule := rules.Types[it.Type]
	w, h := it.Width, it.Height
	if w <= 0 || h <= 0 {
		var err error
		if w, h, err = rules.DefaultSize(it.Type); err != nil {
			return nil, err
		}
	}
	f := NewFurniture(it.Type, 0, 0, w, h)
	f.Clearance = rule.Clearance
	if it.Clearance != nil {
		f.Clearance = *it.Clearance
	}
	rules.ApplyRelations(f)
	return f, nil
}

// Float returns a pointer to v, for optional manifest fields.
func Float(v float64) *float64 {
	return &v
}
