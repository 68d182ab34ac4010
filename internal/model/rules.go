package model

import (
	"fmt"
	"sort"
)

// TypeRule is the per-type rule table entry.
type TypeRule struct {
	Width     float64 `json:"width" yaml:"width"`
	Height    float64 `json:"height" yaml:"height"`
	Clearance float64 `json:"clearance" yaml:"clearance"`

	// MustNear lists acceptable neighbour types; one of them has to be within
	// NearDistance, measured between buffered polygons.
	MustNear     []FurnitureType `json:"must_near,omitempty" yaml:"must_near,omitempty"`
	NearDistance float64         `json:"near_distance,omitempty" yaml:"near_distance,omitempty"`

	Facing *FacingRule `json:"facing,omitempty" yaml:"facing,omitempty"`

	// MinDoorDistance is the radius of the keep-out zone around every door.
	MinDoorDistance float64 `json:"min_door_distance,omitempty" yaml:"min_door_distance,omitempty"`

	WallAligned bool   `json:"wall_aligned,omitempty" yaml:"wall_aligned,omitempty"`
	Zone        string `json:"zone,omitempty" yaml:"zone,omitempty"`

	// ChairCount is the number of chairs arranged around the item as a group
	// (dining set, office desk). Zero disables group arrangement.
	ChairCount int `json:"chair_count,omitempty" yaml:"chair_count,omitempty"`
}

// PairRule is a minimum footprint-to-footprint distance between two types.
type PairRule struct {
	A        FurnitureType `json:"a" yaml:"a"`
	B        FurnitureType `json:"b" yaml:"b"`
	Distance float64       `json:"distance" yaml:"distance"`
}

// RuleTable is the immutable furniture rule configuration. It is built once
// and passed by pointer to every component; nothing mutates it after load.
type RuleTable struct {
	Types map[FurnitureType]TypeRule `json:"types" yaml:"types"`
	Pairs []PairRule                 `json:"pairs,omitempty" yaml:"pairs,omitempty"`

	// DefaultNearDistance applies when a type rule leaves NearDistance unset.
	DefaultNearDistance float64 `json:"default_near_distance" yaml:"default_near_distance"`
	// DefaultDoorDistance applies when a type rule leaves MinDoorDistance unset.
	DefaultDoorDistance float64 `json:"default_door_distance" yaml:"default_door_distance"`
	// MinSpacing is the footprint gap below which scoring applies a spacing
	// penalty.
	MinSpacing float64 `json:"min_spacing" yaml:"min_spacing"`
	// GridStep is the snapping step used by alignment heuristics and scoring.
	GridStep float64 `json:"grid_step" yaml:"grid_step"`
}

// DefaultRules returns the built-in rule table. Sizes are in metres.
func DefaultRules() *RuleTable {
	return &RuleTable{
		Types: map[FurnitureType]TypeRule{
			TypeBed: {
				Width: 2.0, Height: 1.6, Clearance: 0.6,
				MustNear:        []FurnitureType{TypeWardrobe},
				MinDoorDistance: 1.2,
				WallAligned:     true,
				Zone:            "bedroom",
			},
			TypeSofa: {
				Width: 2.2, Height: 0.9, Clearance: 0.5,
				MustNear: []FurnitureType{TypeCoffeeTable},
				Facing:   &FacingRule{Target: TypeTVStand, Threshold: 30},
				Zone:     "living",
			},
			TypeTable: {
				Width: 1.6, Height: 0.9, Clearance: 0.4,
				MustNear:   []FurnitureType{TypeChair},
				Zone:       "dining",
				ChairCount: 4,
			},
			TypeChair: {
				Width: 0.5, Height: 0.5, Clearance: 0.2,
				MustNear: []FurnitureType{TypeDesk, TypeTable},
				Facing:   &FacingRule{Target: TypeDesk, Threshold: 45},
			},
			TypeWardrobe: {
				Width: 1.2, Height: 0.6, Clearance: 0.5,
				MinDoorDistance: 1.2,
				WallAligned:     true,
				Zone:            "bedroom",
			},
			TypeTVStand: {
				Width: 1.6, Height: 0.45, Clearance: 0.4,
				Facing:      &FacingRule{Target: TypeSofa, Threshold: 35},
				WallAligned: true,
				Zone:        "living",
			},
			TypeCoffeeTable: {
				Width: 1.0, Height: 0.6, Clearance: 0.2,
				MustNear: []FurnitureType{TypeSofa},
				Zone:     "living",
			},
			TypeBookshelf: {
				Width: 1.0, Height: 0.35, Clearance: 0.3,
				WallAligned: true,
			},
			TypeDesk: {
				Width: 1.4, Height: 0.7, Clearance: 0.4,
				MustNear:    []FurnitureType{TypeChair},
				WallAligned: true,
				Zone:        "office",
				ChairCount:  1,
			},
			TypeShoeCabinet: {
				Width: 0.9, Height: 0.35, Clearance: 0.2,
				WallAligned: true,
			},
			TypeNightstand: {
				Width: 0.5, Height: 0.45, Clearance: 0.1,
				MustNear: []FurnitureType{TypeBed},
				Zone:     "bedroom",
			},
		},
		Pairs: []PairRule{
			{A: TypeBed, B: TypeWardrobe, Distance: 1.0},
			{A: TypeSofa, B: TypeTVStand, Distance: 2.0},
			{A: TypeDesk, B: TypeBed, Distance: 1.0},
		},
		DefaultNearDistance: 1.0,
		DefaultDoorDistance: 1.0,
		MinSpacing:          0.3,
		GridStep:            0.5,
	}
}

// Rule returns the rule for t.
func (r *RuleTable) Rule(t FurnitureType) (TypeRule, bool) {
	rule, ok := r.Types[t]
	return rule, ok
}

// DefaultSize returns the configured size of t, or a configuration error when
// the type has no usable default.
func (r *RuleTable) DefaultSize(t FurnitureType) (float64, float64, error) {
	rule, ok := r.Types[t]
	if !ok || rule.Width <= 0 || rule.Height <= 0 {
		return 0, 0, fmt.Errorf("%w: no default size for %s", ErrConfiguration, t)
	}
	return rule.Width, rule.Height, nil
}

// NearDistance returns the must-near radius for t.
func (r *RuleTable) NearDistance(t FurnitureType) float64 {
	if rule, ok := r.Types[t]; ok && rule.NearDistance > 0 {
		return rule.NearDistance
	}
	return r.DefaultNearDistance
}

// DoorDistance returns the door keep-out radius for t.
func (r *RuleTable) DoorDistance(t FurnitureType) float64 {
	if rule, ok := r.Types[t]; ok && rule.MinDoorDistance > 0 {
		return rule.MinDoorDistance
	}
	return r.DefaultDoorDistance
}

// PairClearance returns the minimum footprint distance between a and b. The
// lookup is symmetric; unlisted pairs need no extra distance beyond their
// clearance buffers.
func (r *RuleTable) PairClearance(a, b FurnitureType) float64 {
	for _, p := range r.Pairs {
		if (p.A == a && p.B == b) || (p.A == b && p.B == a) {
			return p.Distance
		}
	}
	return 0
}

// NewItem creates an item of type t with its default size, clearance and
// relational rules.
func (r *RuleTable) NewItem(t FurnitureType) (*Furniture, error) {
	w, h, err := r.DefaultSize(t)
	if err != nil {
		return nil, err
	}
	f := NewFurniture(t, 0, 0, w, h)
	f.Clearance = r.Types[t].Clearance
	r.ApplyRelations(f)
	return f, nil
}

// ApplyRelations copies the must-near and facing rules for f's type onto f.
func (r *RuleTable) ApplyRelations(f *Furniture) {
	rule, ok := r.Types[f.Type]
	if !ok {
		f.MustNear, f.Facing = nil, nil
		return
	}
	f.MustNear = append([]FurnitureType(nil), rule.MustNear...)
	if rule.Facing != nil {
		facing := *rule.Facing
		f.Facing = &facing
	} else {
		f.Facing = nil
	}
}

// Validate checks the table for unknown types and impossible values.
func (r *RuleTable) Validate() error {
	types := make([]string, 0, len(r.Types))
	for t := range r.Types {
		types = append(types, string(t))
	}
	sort.Strings(types)
	for _, name := range types {
		t := FurnitureType(name)
		rule := r.Types[t]
		if !t.Valid() {
			return fmt.Errorf("%w: rule for unknown type %q", ErrConfiguration, t)
		}
		if rule.Clearance < 0 {
			return fmt.Errorf("%w: %s clearance %.3f is negative", ErrConfiguration, t, rule.Clearance)
		}
		for _, m := range rule.MustNear {
			if !m.Valid() {
				return fmt.Errorf("%w: %s must be near unknown type %q", ErrConfiguration, t, m)
			}
		}
		if rule.Facing != nil && !rule.Facing.Target.Valid() {
			return fmt.Errorf("%w: %s faces unknown type %q", ErrConfiguration, t, rule.Facing.Target)
		}
	}
	for _, p := range r.Pairs {
		if !p.A.Valid() || !p.B.Valid() || p.Distance < 0 {
			return fmt.Errorf("%w: invalid pair rule %s-%s %.3f", ErrConfiguration, p.A, p.B, p.Distance)
		}
	}
	if r.GridStep <= 0 {
		return fmt.Errorf("%w: grid step must be positive", ErrConfiguration)
	}
	return nil
}

// Clone returns a deep copy, used when a caller wants to derive a modified
// table (for example a scenario with a different door distance).
func (r *RuleTable) Clone() *RuleTable {
	cp := *r
	cp.Types = make(map[FurnitureType]TypeRule, len(r.Types))
	for t, rule := range r.Types {
		rule.MustNear = append([]FurnitureType(nil), rule.MustNear...)
		if rule.Facing != nil {
			facing := *rule.Facing
			rule.Facing = &facing
		}
		cp.Types[t] = rule
	}
	cp.Pairs = append([]PairRule(nil), r.Pairs...)
	return &cp
}

// WithRule returns a copy of the table with t's rule replaced.
func (r *RuleTable) WithRule(t FurnitureType, rule TypeRule) *RuleTable {
	cp := r.Clone()
	cp.Types[t] = rule
	return cp
}
