package project

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/piwi3910/roomlayout/internal/model"
)

const guestRoom = `
name: Guest room
room:
  width: 5
  height: 4
  doors:
    - [0, 1, 0.1, 0.9]
  windows:
    - [2, 3.9, 1.2, 0.1]
  zones:
    - name: sleep
      function: bedroom
      rect: [0, 0, 3, 4]
manifest:
  - type: bed
    count: 1
  - type: nightstand
    count: 2
    width: 0.4
    height: 0.4
constraints:
  fixed:
    - id: bed-1
      x: 0.5
      y: 0.5
      tolerance: 0.05
rules:
  types:
    bed:
      width: 1.9
    sofa:
      must_near: [bookshelf]
  pairs:
    - {a: wardrobe, b: bed, distance: 1.5}
    - {a: desk, b: sofa, distance: 0.8}
  grid_step: 0.25
weights:
  comfort: 2
settings:
  population_size: 12
  objective: multi
`

func TestParseConfig(t *testing.T) {
	c, err := ParseConfig([]byte(guestRoom))
	require.NoError(t, err)

	assert.Equal(t, "Guest room", c.Name)
	assert.Equal(t, 5.0, c.Room.Width)
	require.Len(t, c.Room.Doors, 1)
	assert.Equal(t, model.Rect{X: 0, Y: 1, Width: 0.1, Height: 0.9}, c.Room.Doors[0])
	assert.Equal(t, model.Rect{X: 2, Y: 3.9, Width: 1.2, Height: 0.1}, c.Room.Windows[0])
	require.Len(t, c.Room.Zones, 1)
	assert.Equal(t, "bedroom", c.Room.Zones[0].Function)

	require.Len(t, c.Manifest, 2)
	assert.Equal(t, 0.4, c.Manifest[1].Width)
	assert.True(t, c.Constraints.IsFixed("bed-1"))

	rules := c.Config.Rules
	bed := rules.Types[model.TypeBed]
	assert.Equal(t, 1.9, bed.Width)
	assert.Equal(t, 1.6, bed.Height, "unlisted fields keep their defaults")
	assert.Equal(t, 1.2, bed.MinDoorDistance)
	assert.Equal(t, []model.FurnitureType{model.TypeWardrobe}, bed.MustNear)

	sofa := rules.Types[model.TypeSofa]
	assert.Equal(t, []model.FurnitureType{model.TypeBookshelf}, sofa.MustNear)
	require.NotNil(t, sofa.Facing)
	assert.Equal(t, model.TypeTVStand, sofa.Facing.Target)

	assert.Equal(t, 1.5, rules.PairClearance(model.TypeBed, model.TypeWardrobe))
	assert.Equal(t, 0.8, rules.PairClearance(model.TypeSofa, model.TypeDesk))
	assert.Len(t, rules.Pairs, 4)
	assert.Equal(t, 0.25, rules.GridStep)
	assert.Equal(t, 1.0, rules.DefaultNearDistance)

	assert.Equal(t, 2.0, c.Config.Weights.Get(model.TermComfort))
	assert.Equal(t, 1.0, c.Config.Weights.Get(model.TermSpace))
	assert.Equal(t, 0.0, c.Config.Weights.Get(model.TermCompleteness))

	assert.Equal(t, 12, c.Config.Settings.PopulationSize)
	assert.Equal(t, model.ObjectiveMulti, c.Config.Settings.Objective)
	assert.Equal(t, model.DefaultSettings().Generations, c.Config.Settings.Generations)

	// defaults are never modified by a load
	assert.Equal(t, 2.0, model.DefaultRules().Types[model.TypeBed].Width)
}

func TestParseConfigEmptyUsesDefaults(t *testing.T) {
	c, err := ParseConfig([]byte(""))
	require.NoError(t, err)
	assert.Equal(t, model.DefaultRules(), c.Config.Rules)
	assert.Equal(t, model.DefaultWeights(), c.Config.Weights)
	assert.Equal(t, model.DefaultSettings(), c.Config.Settings)
	assert.NotNil(t, c.Room.Doors)
	assert.Empty(t, c.Manifest)
}

func TestParseConfigErrors(t *testing.T) {
	cases := map[string]string{
		"unknown rule type": "rules:\n  types:\n    piano:\n      width: 1\n",
		"negative weight":   "weights:\n  comfort: -1\n",
		"short rect":        "room:\n  width: 3\n  height: 3\n  doors:\n    - [0, 1, 0.1]\n",
		"unknown item":      "manifest:\n  - type: piano\n    count: 1\n",
		"bad grid step":     "rules:\n  grid_step: 0\n",
		"not yaml":          "room: [",
	}
	for name, doc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := ParseConfig([]byte(doc))
			require.Error(t, err)
			assert.True(t, errors.Is(err, model.ErrConfiguration), err.Error())
		})
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "room.yaml"))
	assert.True(t, errors.Is(err, model.ErrConfiguration))
}

func TestSaveConfigRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "room.yaml")
	c, err := ParseConfig([]byte(guestRoom))
	require.NoError(t, err)

	require.NoError(t, SaveConfig(path, c))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "[0, 1, 0.1, 0.9]")

	back, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, c.Room, back.Room)
	assert.Equal(t, c.Config.Rules, back.Config.Rules)
	assert.Equal(t, c.Config.Settings, back.Config.Settings)
	assert.Equal(t, c.Config.Weights, back.Config.Weights)
	assert.Equal(t, c.Constraints, back.Constraints)
}

func TestRoomConfigProject(t *testing.T) {
	c, err := ParseConfig([]byte(guestRoom))
	require.NoError(t, err)
	p := c.Project()
	assert.Equal(t, "Guest room", p.Name)
	assert.Equal(t, c.Room, p.Room)
	assert.Equal(t, 12, p.Settings.PopulationSize)
	assert.Nil(t, p.Result)

	p.Manifest[0].Count = 5
	assert.Equal(t, 1, c.Manifest[0].Count)
}
