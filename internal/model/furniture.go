package model

import (
	"fmt"
	"math"
	"strings"

	"github.com/google/uuid"
	"github.com/paulmach/orb"

	"github.com/piwi3910/roomlayout/internal/geom"
)

// FurnitureType is the closed set of furniture categories.
type FurnitureType string

const (
	TypeBed         FurnitureType = "bed"
	TypeSofa        FurnitureType = "sofa"
	TypeTable       FurnitureType = "table"
	TypeChair       FurnitureType = "chair"
	TypeWardrobe    FurnitureType = "wardrobe"
	TypeTVStand     FurnitureType = "tv_stand"
	TypeCoffeeTable FurnitureType = "coffee_table"
	TypeBookshelf   FurnitureType = "bookshelf"
	TypeDesk        FurnitureType = "desk"
	TypeShoeCabinet FurnitureType = "shoe_cabinet"
	TypeNightstand  FurnitureType = "nightstand"
)

// AllTypes lists every furniture type in a stable order.
var AllTypes = []FurnitureType{
	TypeBed, TypeSofa, TypeTable, TypeChair, TypeWardrobe, TypeTVStand,
	TypeCoffeeTable, TypeBookshelf, TypeDesk, TypeShoeCabinet, TypeNightstand,
}

func (t FurnitureType) String() string {
	return string(t)
}

// Label returns a human readable name, e.g. "TV Stand".
func (t FurnitureType) Label() string {
	if t == TypeTVStand {
		return "TV Stand"
	}
	words := strings.Split(string(t), "_")
	for i, w := range words {
		if w != "" {
			words[i] = strings.ToUpper(w[:1]) + w[1:]
		}
	}
	return strings.Join(words, " ")
}

// Valid reports whether t is one of the known types.
func (t FurnitureType) Valid() bool {
	for _, k := range AllTypes {
		if k == t {
			return true
		}
	}
	return false
}

// ParseFurnitureType accepts the canonical names in any case, with spaces or
// dashes in place of underscores ("TV_STAND", "tv stand", "Coffee-Table").
func ParseFurnitureType(s string) (FurnitureType, error) {
	norm := strings.ToLower(strings.TrimSpace(s))
	norm = strings.NewReplacer(" ", "_", "-", "_").Replace(norm)
	switch norm {
	case "tv", "television":
		norm = string(TypeTVStand)
	case "dining_table":
		norm = string(TypeTable)
	}
	t := FurnitureType(norm)
	if !t.Valid() {
		return "", fmt.Errorf("%w: unknown furniture type %q", ErrConfiguration, s)
	}
	return t, nil
}

// FacingRule requires the item to point toward the nearest instance of Target
// within Threshold degrees.
type FacingRule struct {
	Target    FurnitureType `json:"target" yaml:"target"`
	Threshold float64       `json:"threshold" yaml:"threshold"`
}

// Furniture is a single rectangular item. X and Y locate the lower-left corner
// of the unrotated footprint; Rotation turns the footprint about its center and
// doubles as the item's heading for facing rules.
type Furniture struct {
	ID        string          `json:"id"`
	Type      FurnitureType   `json:"type"`
	X         float64         `json:"x"`
	Y         float64         `json:"y"`
	Width     float64         `json:"width"`
	Height    float64         `json:"height"`
	Rotation  float64         `json:"rotation"`  // degrees, [0, 360)
	Clearance float64         `json:"clearance"` // walking clearance added around the footprint
	MustNear  []FurnitureType `json:"must_near,omitempty"`
	Facing    *FacingRule     `json:"facing,omitempty"`

	cache polygonCache
}

// polygonCache remembers the geometry built for a given pose. Any change to
// the pose fields makes the key stale, so direct field writes are safe.
type polygonCache struct {
	key      [6]float64
	valid    bool
	polygon  orb.Ring
	buffered orb.Ring
}

// BufferSegments is the number of arc segments per rounded corner used when
// buffering footprints.
const BufferSegments = 8

// NewFurniture creates an item with a fresh short id.
func NewFurniture(t FurnitureType, x, y, w, h float64) *Furniture {
	return &Furniture{
		ID:     uuid.New().String()[:8],
		Type:   t,
		X:      x,
		Y:      y,
		Width:  w,
		Height: h,
	}
}

func (f *Furniture) poseKey() [6]float64 {
	return [6]float64{f.X, f.Y, f.Width, f.Height, f.Rotation, f.Clearance}
}

func (f *Furniture) refresh() {
	key := f.poseKey()
	if f.cache.valid && f.cache.key == key {
		return
	}
	f.cache.polygon = geom.RotatedRect(f.X, f.Y, f.Width, f.Height, f.Rotation)
	f.cache.buffered = geom.Buffer(f.cache.polygon, f.Clearance, BufferSegments)
	f.cache.key = key
	f.cache.valid = true
}

// Polygon returns the rotated footprint.
func (f *Furniture) Polygon() orb.Ring {
	f.refresh()
	return f.cache.polygon
}

// BufferedPolygon returns the footprint expanded by the clearance. All
// collision and proximity checks use this polygon.
func (f *Furniture) BufferedPolygon() orb.Ring {
	f.refresh()
	return f.cache.buffered
}

// Center returns the footprint center, which rotation does not move.
func (f *Furniture) Center() orb.Point {
	return orb.Point{f.X + f.Width/2, f.Y + f.Height/2}
}

// Area returns the footprint area.
func (f *Furniture) Area() float64 {
	return f.Width * f.Height
}

// SetPosition moves the lower-left corner to (x, y).
func (f *Furniture) SetPosition(x, y float64) {
	f.X, f.Y = x, y
}

// SetCenter moves the item so its center is at p.
func (f *Furniture) SetCenter(p orb.Point) {
	f.X, f.Y = p[0]-f.Width/2, p[1]-f.Height/2
}

// MoveBy shifts the item by (dx, dy).
func (f *Furniture) MoveBy(dx, dy float64) {
	f.X += dx
	f.Y += dy
}

// SetRotation sets the rotation, normalized into [0, 360).
func (f *Furniture) SetRotation(deg float64) {
	f.Rotation = geom.NormalizeAngle(deg)
}

// Requires reports whether t satisfies the item's must-near rule.
func (f *Furniture) Requires(t FurnitureType) bool {
	for _, m := range f.MustNear {
		if m == t {
			return true
		}
	}
	return false
}

// Validate checks the invariants a single item must satisfy.
func (f *Furniture) Validate() error {
	if f.ID == "" {
		return fmt.Errorf("%w: furniture without id", ErrConfiguration)
	}
	if !f.Type.Valid() {
		return fmt.Errorf("%w: furniture %s has unknown type %q", ErrConfiguration, f.ID, f.Type)
	}
	if f.Clearance < 0 || math.IsNaN(f.Clearance) {
		return fmt.Errorf("%w: furniture %s has negative clearance %.3f", ErrGeometry, f.ID, f.Clearance)
	}
	if f.Rotation < 0 || f.Rotation >= 360 || math.IsNaN(f.Rotation) {
		return fmt.Errorf("%w: furniture %s rotation %.3f outside [0,360)", ErrGeometry, f.ID, f.Rotation)
	}
	if f.Width <= 0 || f.Height <= 0 {
		return fmt.Errorf("%w: furniture %s has size %.3fx%.3f", ErrGeometry, f.ID, f.Width, f.Height)
	}
	if err := geom.Validate(f.Polygon()); err != nil {
		return fmt.Errorf("%w: furniture %s: %v", ErrGeometry, f.ID, err)
	}
	return nil
}

// Clone returns a deep copy. Speculative changes are always made on clones.
func (f *Furniture) Clone() *Furniture {
	cp := *f
	if f.MustNear != nil {
		cp.MustNear = make([]FurnitureType, len(f.MustNear))
		copy(cp.MustNear, f.MustNear)
	}
	if f.Facing != nil {
		facing := *f.Facing
		cp.Facing = &facing
	}
	// rings are never mutated in place, sharing them is safe
	return &cp
}

// String returns a short description for logs.
func (f *Furniture) String() string {
	return fmt.Sprintf("%s[%s] (%.2f, %.2f) %.2fx%.2f @%.0f°", f.Type, f.ID, f.X, f.Y, f.Width, f.Height, f.Rotation)
}
