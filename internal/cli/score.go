package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/piwi3910/roomlayout/internal/model"
	"github.com/piwi3910/roomlayout/internal/project"
	"github.com/piwi3910/roomlayout/internal/rules"
	"github.com/piwi3910/roomlayout/internal/scoring"
)

type scoreOpts struct {
	input inputOpts
	focus string
}

func (c *CLI) scoreCommand() *cobra.Command {
	var opts scoreOpts

	cmd := &cobra.Command{
		Use:   "score <layout.json>",
		Short: "Evaluate a layout file against a room configuration",
		Long: `Score reads a layout in the interchange format and reports every objective
term, the weighted score, rule violations and constraint violations. With
--focus it also prints the per-item reward used by external placement agents.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rc, err := c.loadInput(opts.input)
			if err != nil {
				return err
			}
			return c.runScore(rc, args[0], opts.focus)
		},
	}

	opts.input.register(cmd)
	cmd.Flags().StringVar(&opts.focus, "focus", "", "item id to compute the placement reward for")
	return cmd
}

func (c *CLI) runScore(rc *project.RoomConfig, path, focus string) error {
	cfg := rc.Config
	l, err := project.LoadLayout(path, cfg.Rules)
	if err != nil {
		return err
	}
	if focus != "" && l.Find(focus) == nil {
		return fmt.Errorf("%w: layout has no item %q", model.ErrConfiguration, focus)
	}

	s := scoring.New(rc.Room, cfg.Rules, cfg.Weights, scoring.Options{
		GridResolution: cfg.Settings.GridResolution,
		Requested:      rc.Manifest.Total(),
	})
	b := s.Evaluate(l)
	eng := rules.New(rc.Room, cfg.Rules, rules.Options{Constraints: &rc.Constraints, Logger: c.Logger})

	out := c.printer()
	out.title("%s (%d items)", path, l.Len())
	out.breakdown(b.Terms(), cfg.Weights, scoring.Scalar(b, cfg.Weights))

	if focus != "" {
		out.keyValue("Reward", fmt.Sprintf("%.4f (%s)", scoring.Reward(rc.Room, cfg.Rules, cfg.Weights, l, focus), focus))
	}

	if eng.Valid(l) {
		out.success("No overlaps, every item inside the room")
	} else {
		out.failure("Items overlap or leave the room")
	}
	if n := eng.HardViolations(l); n > 0 {
		out.warning("%d items break door or pair clearance rules", n)
	}
	for _, err := range rc.Constraints.Check(l) {
		out.warning("%v", err)
	}
	return nil
}
