package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/piwi3910/roomlayout/internal/model"
	"github.com/piwi3910/roomlayout/internal/project"
)

func (c *CLI) validateCommand() *cobra.Command {
	var opts inputOpts

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Check a room configuration without optimizing",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rc, err := c.loadInput(opts)
			if err != nil {
				return err
			}
			return c.runValidate(rc)
		},
	}

	opts.register(cmd)
	return cmd
}

// runValidate performs the checks Optimize does before searching, and warns
// when the furniture plainly cannot fit.
func (c *CLI) runValidate(rc *project.RoomConfig) error {
	cfg := rc.Config
	if err := cfg.Rules.Validate(); err != nil {
		return err
	}
	if err := rc.Room.Validate(); err != nil {
		return err
	}
	items, err := rc.Manifest.Expand(cfg.Rules)
	if err != nil {
		return err
	}
	if err := rc.Constraints.Validate(model.NewLayout(items...)); err != nil {
		return err
	}

	out := c.printer()
	out.success("Configuration is valid")
	out.keyValue("Room", fmt.Sprintf("%.2f x %.2f m, %d doors, %d windows, %d zones",
		rc.Room.Width, rc.Room.Height, len(rc.Room.Doors), len(rc.Room.Windows), len(rc.Room.Zones)))
	out.keyValue("Furniture", fmt.Sprintf("%d items", len(items)))
	out.keyValue("Objective", string(cfg.Settings.Objective))
	out.keyValue("Refiner", string(cfg.Settings.Refiner))

	footprint := 0.0
	for _, f := range items {
		footprint += f.Area()
	}
	ratio := footprint / rc.Room.Area()
	out.keyValue("Footprint", fmt.Sprintf("%.2f m² (%.0f%% of floor)", footprint, 100*ratio))
	if ratio > 0.6 {
		out.warning("Furniture covers more than 60%% of the floor, some items will likely not be placed")
	}
	if len(rc.Room.Doors) == 0 {
		out.warning("Room has no doors, accessibility scores 0")
	}
	return nil
}
