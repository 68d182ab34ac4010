package model

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"
)

// Layout is an ordered set of furniture. Order only matters for serialization
// and for which item wins when two collide.
type Layout struct {
	Items []*Furniture
}

// NewLayout creates a layout from items. The slice is not copied.
func NewLayout(items ...*Furniture) *Layout {
	return &Layout{Items: items}
}

// Len returns the number of items.
func (l *Layout) Len() int {
	return len(l.Items)
}

// Clone deep-copies the layout and every item in it.
func (l *Layout) Clone() *Layout {
	cp := &Layout{Items: make([]*Furniture, len(l.Items))}
	for i, f := range l.Items {
		cp.Items[i] = f.Clone()
	}
	return cp
}

// Find returns the item with id, or nil.
func (l *Layout) Find(id string) *Furniture {
	if i := l.IndexOf(id); i >= 0 {
		return l.Items[i]
	}
	return nil
}

// IndexOf returns the position of id, or -1.
func (l *Layout) IndexOf(id string) int {
	for i, f := range l.Items {
		if f.ID == id {
			return i
		}
	}
	return -1
}

// Add appends an item.
func (l *Layout) Add(f *Furniture) {
	l.Items = append(l.Items, f)
}

// Remove deletes the item with id. Returns true if found and removed.
func (l *Layout) Remove(id string) bool {
	i := l.IndexOf(id)
	if i < 0 {
		return false
	}
	l.Items = append(l.Items[:i], l.Items[i+1:]...)
	return true
}

// ByType returns the items of type t in layout order.
func (l *Layout) ByType(t FurnitureType) []*Furniture {
	var out []*Furniture
	for _, f := range l.Items {
		if f.Type == t {
			out = append(out, f)
		}
	}
	return out
}

// CountByType returns how many items of each type the layout holds.
func (l *Layout) CountByType() map[FurnitureType]int {
	counts := make(map[FurnitureType]int)
	for _, f := range l.Items {
		counts[f.Type]++
	}
	return counts
}

// UsedArea returns the summed footprint area.
func (l *Layout) UsedArea() float64 {
	var total float64
	for _, f := range l.Items {
		total += f.Area()
	}
	return total
}

// Validate checks id uniqueness and every item's own invariants.
func (l *Layout) Validate() error {
	seen := make(map[string]bool, len(l.Items))
	for _, f := range l.Items {
		if seen[f.ID] {
			return fmt.Errorf("%w: duplicate furniture id %q", ErrConfiguration, f.ID)
		}
		seen[f.ID] = true
		if err := f.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// Equal reports whether both layouts hold the same items in the same order
// with poses equal within tol.
func (l *Layout) Equal(o *Layout, tol float64) bool {
	if l.Len() != o.Len() {
		return false
	}
	for i, a := range l.Items {
		b := o.Items[i]
		if a.ID != b.ID || a.Type != b.Type {
			return false
		}
		for _, d := range [...]float64{a.X - b.X, a.Y - b.Y, a.Width - b.Width, a.Height - b.Height, a.Rotation - b.Rotation, a.Clearance - b.Clearance} {
			if math.Abs(d) > tol {
				return false
			}
		}
	}
	return true
}

// Record is one furniture entry of the layout interchange format.
type Record struct {
	ID        string  `json:"id"`
	Type      string  `json:"type"`
	X         float64 `json:"x"`
	Y         float64 `json:"y"`
	Width     float64 `json:"width"`
	Height    float64 `json:"height"`
	Rotation  float64 `json:"rotation"`
	Clearance float64 `json:"clearance"`
}

// Records converts the layout to interchange records.
func (l *Layout) Records() []Record {
	out := make([]Record, len(l.Items))
	for i, f := range l.Items {
		out[i] = Record{
			ID:        f.ID,
			Type:      string(f.Type),
			X:         f.X,
			Y:         f.Y,
			Width:     f.Width,
			Height:    f.Height,
			Rotation:  f.Rotation,
			Clearance: f.Clearance,
		}
	}
	return out
}

// LayoutFromRecords rebuilds a layout. Relational rules (must-near, facing)
// are not part of the interchange format and are restored from rules when
// rules is non-nil.
func LayoutFromRecords(records []Record, rules *RuleTable) (*Layout, error) {
	l := &Layout{Items: make([]*Furniture, 0, len(records))}
	for i, r := range records {
		t, err := ParseFurnitureType(r.Type)
		if err != nil {
			return nil, fmt.Errorf("record %d: %w", i, err)
		}
		f := &Furniture{
			ID:        r.ID,
			Type:      t,
			X:         r.X,
			Y:         r.Y,
			Width:     r.Width,
			Height:    r.Height,
			Rotation:  r.Rotation,
			Clearance: r.Clearance,
		}
		if rules != nil {
			rules.ApplyRelations(f)
		}
		l.Add(f)
	}
	if err := l.Validate(); err != nil {
		return nil, err
	}
	return l, nil
}

// MarshalLayout encodes the layout in the interchange format.
func MarshalLayout(l *Layout) ([]byte, error) {
	return json.MarshalIndent(l.Records(), "", "  ")
}

// ParseLayout decodes the interchange format.
func ParseLayout(data []byte, rules *RuleTable) (*Layout, error) {
	var records []Record
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("%w: decoding layout: %v", ErrConfiguration, err)
	}
	return LayoutFromRecords(records, rules)
}

// SortedIDs returns the item ids in lexical order.
func (l *Layout) SortedIDs() []string {
	ids := make([]string, len(l.Items))
	for i, f := range l.Items {
		ids[i] = f.ID
	}
	sort.Strings(ids)
	return ids
}
