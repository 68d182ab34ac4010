package model

import (
	"encoding/json"
	"fmt"

	"github.com/paulmach/orb"
	"gopkg.in/yaml.v3"

	"github.com/piwi3910/roomlayout/internal/geom"
)

// Rect is an axis-aligned rectangle. In configuration files it is written as
// a four element array [x, y, w, h].
type Rect struct {
	X      float64
	Y      float64
	Width  float64
	Height float64
}

// Ring returns the rectangle as a closed ring.
func (r Rect) Ring() orb.Ring {
	return geom.Rect(r.X, r.Y, r.Width, r.Height)
}

// Bound returns the rectangle as an orb.Bound.
func (r Rect) Bound() orb.Bound {
	return orb.Bound{Min: orb.Point{r.X, r.Y}, Max: orb.Point{r.X + r.Width, r.Y + r.Height}}
}

// Center returns the rectangle center.
func (r Rect) Center() orb.Point {
	return orb.Point{r.X + r.Width/2, r.Y + r.Height/2}
}

func (r Rect) array() [4]float64 {
	return [4]float64{r.X, r.Y, r.Width, r.Height}
}

func rectFromSlice(v []float64) (Rect, error) {
	if len(v) != 4 {
		return Rect{}, fmt.Errorf("%w: rectangle needs [x, y, w, h], got %d values", ErrConfiguration, len(v))
	}
	return Rect{X: v[0], Y: v[1], Width: v[2], Height: v[3]}, nil
}

// MarshalJSON writes the rectangle as [x, y, w, h].
func (r Rect) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.array())
}

// UnmarshalJSON reads [x, y, w, h].
func (r *Rect) UnmarshalJSON(data []byte) error {
	var v []float64
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	rect, err := rectFromSlice(v)
	if err != nil {
		return err
	}
	*r = rect
	return nil
}

// MarshalYAML writes the rectangle as a flow sequence.
func (r Rect) MarshalYAML() (interface{}, error) {
	node := &yaml.Node{Kind: yaml.SequenceNode, Style: yaml.FlowStyle}
	for _, v := range r.array() {
		node.Content = append(node.Content, &yaml.Node{Kind: yaml.ScalarNode, Value: fmt.Sprint(v)})
	}
	return node, nil
}

// UnmarshalYAML reads [x, y, w, h].
func (r *Rect) UnmarshalYAML(value *yaml.Node) error {
	var v []float64
	if err := value.Decode(&v); err != nil {
		return err
	}
	rect, err := rectFromSlice(v)
	if err != nil {
		return err
	}
	*r = rect
	return nil
}

// Zone is a named sub-region of the room tagged with a function such as
// "bedroom" or "dining".
type Zone struct {
	Name     string `json:"name" yaml:"name"`
	Function string `json:"function" yaml:"function"`
	Rect     Rect   `json:"rect" yaml:"rect"`
}

// Segment is a wall segment.
type Segment struct {
	A orb.Point
	B orb.Point
}

// Room is the rectangular boundary furniture is placed in, with its origin at
// the lower-left corner.
type Room struct {
	Width   float64 `json:"width" yaml:"width"`
	Height  float64 `json:"height" yaml:"height"`
	Doors   []Rect  `json:"doors" yaml:"doors"`
	Windows []Rect  `json:"windows" yaml:"windows"`
	Zones   []Zone  `json:"zones,omitempty" yaml:"zones,omitempty"`
}

// NewRoom creates an empty room of the given size.
func NewRoom(w, h float64) Room {
	return Room{Width: w, Height: h, Doors: []Rect{}, Windows: []Rect{}}
}

// Validate checks the room dimensions.
func (r Room) Validate() error {
	if r.Width <= 0 || r.Height <= 0 {
		return fmt.Errorf("%w: room size %.3fx%.3f must be positive", ErrConfiguration, r.Width, r.Height)
	}
	for i, z := range r.Zones {
		if z.Rect.Width <= 0 || z.Rect.Height <= 0 {
			return fmt.Errorf("%w: zone %d (%s) has empty rectangle", ErrConfiguration, i, z.Name)
		}
	}
	return nil
}

// Bound returns the room boundary.
func (r Room) Bound() orb.Bound {
	return orb.Bound{Min: orb.Point{0, 0}, Max: orb.Point{r.Width, r.Height}}
}

// Polygon returns the room boundary as a ring.
func (r Room) Polygon() orb.Ring {
	return geom.Rect(0, 0, r.Width, r.Height)
}

// Center returns the room center.
func (r Room) Center() orb.Point {
	return orb.Point{r.Width / 2, r.Height / 2}
}

// Area returns the floor area.
func (r Room) Area() float64 {
	return r.Width * r.Height
}

// Contains reports whether poly lies entirely inside the room.
func (r Room) Contains(poly orb.Ring) bool {
	return geom.Within(poly, r.Bound())
}

// WallSegments returns the four walls counter-clockwise from the bottom wall.
func (r Room) WallSegments() [4]Segment {
	return [4]Segment{
		{A: orb.Point{0, 0}, B: orb.Point{r.Width, 0}},
		{A: orb.Point{r.Width, 0}, B: orb.Point{r.Width, r.Height}},
		{A: orb.Point{r.Width, r.Height}, B: orb.Point{0, r.Height}},
		{A: orb.Point{0, r.Height}, B: orb.Point{0, 0}},
	}
}

// ZonesFor returns the zones tagged with function.
func (r Room) ZonesFor(function string) []Zone {
	var out []Zone
	for _, z := range r.Zones {
		if z.Function == function {
			out = append(out, z)
		}
	}
	return out
}

// PlacementBound returns the region an item of the given zone function should
// be kept in: the first matching zone, or the whole room.
func (r Room) PlacementBound(function string) orb.Bound {
	if function != "" {
		if zones := r.ZonesFor(function); len(zones) > 0 {
			return zones[0].Rect.Bound()
		}
	}
	return r.Bound()
}

// DoorZone returns door i expanded by dist in every direction.
func (r Room) DoorZone(i int, dist float64) orb.Ring {
	return geom.Buffer(r.Doors[i].Ring(), dist, BufferSegments)
}

// ExpandToFit grows the room so a w x h footprint fits. It never shrinks the
// room and reports whether anything changed. Only initial placement uses it.
func (r *Room) ExpandToFit(w, h float64) bool {
	changed := false
	if w > r.Width {
		r.Width = w
		changed = true
	}
	if h > r.Height {
		r.Height = h
		changed = true
	}
	return changed
}

// Clone returns a deep copy of the room.
func (r Room) Clone() Room {
	cp := r
	cp.Doors = append([]Rect(nil), r.Doors...)
	cp.Windows = append([]Rect(nil), r.Windows...)
	cp.Zones = append([]Zone(nil), r.Zones...)
	return cp
}
