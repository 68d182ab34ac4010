package cli

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/spf13/cobra"

	"github.com/piwi3910/roomlayout/internal/engine"
	"github.com/piwi3910/roomlayout/internal/export"
	"github.com/piwi3910/roomlayout/internal/model"
	"github.com/piwi3910/roomlayout/internal/project"
	"github.com/piwi3910/roomlayout/internal/rules"
)

// optimizeOpts holds the command-line flags for the optimize command.
type optimizeOpts struct {
	input   inputOpts
	output  string // project file; exports are written next to it
	layout  string // optional layout interchange file
	formats string

	objective   string
	refiner     string
	population  int
	generations int
	workers     int
	seed        int64
}

func (c *CLI) optimizeCommand() *cobra.Command {
	var opts optimizeOpts

	cmd := &cobra.Command{
		Use:   "optimize",
		Short: "Search for a furniture layout and save it as a project",
		Example: `  roomlayout optimize -c bedroom.yaml -f pdf,labels
  roomlayout optimize -t "Living room" --objective multi
  roomlayout optimize -m furniture.csv -r flat.dxf -o flat.roomlayout`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			formats, err := parseFormats(opts.formats)
			if err != nil {
				return err
			}
			rc, err := c.loadInput(opts.input)
			if err != nil {
				return err
			}
			if err := applyOverrides(cmd, &rc.Config.Settings, opts); err != nil {
				return err
			}
			return c.runOptimize(rc, opts, formats)
		},
	}

	opts.input.register(cmd)
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "project file to write (default: <name>"+project.Extension+")")
	cmd.Flags().StringVarP(&opts.layout, "layout", "l", "", "also write the best layout as an interchange JSON file")
	cmd.Flags().StringVarP(&opts.formats, "format", "f", "", "comma-separated exports: pdf, labels, dxf, xlsx, all")
	cmd.Flags().StringVar(&opts.objective, "objective", "", "single or multi")
	cmd.Flags().StringVar(&opts.refiner, "refiner", "", "none, try_fail or nelder_mead")
	cmd.Flags().IntVar(&opts.population, "population", 0, "population size")
	cmd.Flags().IntVar(&opts.generations, "generations", 0, "number of generations")
	cmd.Flags().IntVar(&opts.workers, "workers", 0, "evaluation workers (0 = one per CPU)")
	cmd.Flags().Int64Var(&opts.seed, "seed", 0, "random seed")

	return cmd
}

// applyOverrides copies the search flags the user set onto s.
func applyOverrides(cmd *cobra.Command, s *model.SearchSettings, opts optimizeOpts) error {
	flags := cmd.Flags()
	if flags.Changed("objective") {
		switch o := model.Objective(opts.objective); o {
		case model.ObjectiveSingle, model.ObjectiveMulti:
			s.Objective = o
		default:
			return fmt.Errorf("%w: unknown objective %q", model.ErrConfiguration, opts.objective)
		}
	}
	if flags.Changed("refiner") {
		switch r := model.Refiner(opts.refiner); r {
		case model.RefinerNone, model.RefinerTryFail, model.RefinerNelderMead:
			s.Refiner = r
		default:
			return fmt.Errorf("%w: unknown refiner %q", model.ErrConfiguration, opts.refiner)
		}
	}
	if flags.Changed("population") {
		if opts.population < 2 {
			return fmt.Errorf("%w: population must be at least 2", model.ErrConfiguration)
		}
		s.PopulationSize = opts.population
	}
	if flags.Changed("generations") {
		if opts.generations < 0 {
			return fmt.Errorf("%w: generations must not be negative", model.ErrConfiguration)
		}
		s.Generations = opts.generations
	}
	if flags.Changed("workers") {
		s.Workers = opts.workers
	}
	if flags.Changed("seed") {
		s.Seed = opts.seed
	}
	return nil
}

var slugRe = regexp.MustCompile(`[^a-z0-9]+`)

// slug turns a project name into a file name.
func slug(name string) string {
	s := strings.Trim(slugRe.ReplaceAllString(strings.ToLower(name), "-"), "-")
	if s == "" {
		return "layout"
	}
	return s
}

func (c *CLI) runOptimize(rc *project.RoomConfig, opts optimizeOpts, formats []string) error {
	p := rc.Project()
	if rc.Name == "" {
		p.Name = "Layout"
	}
	output := opts.output
	if output == "" {
		output = slug(p.Name) + project.Extension
	}

	opt := engine.New(rc.Config)
	opt.Constraints = &rc.Constraints
	opt.Logger = c.Logger

	c.Logger.Info("optimizing", "room", fmt.Sprintf("%.2fx%.2f", rc.Room.Width, rc.Room.Height),
		"items", rc.Manifest.Total(), "objective", rc.Config.Settings.Objective,
		"refiner", rc.Config.Settings.Refiner)
	prog := newProgress(c.Logger)
	res, err := opt.Optimize(rc.Room, rc.Manifest)
	if err != nil {
		return err
	}
	prog.done(fmt.Sprintf("Optimized %d items", rc.Manifest.Total()))
	rules.LogStats(c.Logger, res.RuleStats)

	p.Room = res.Room
	p.Result = res.Record()
	if err := project.Save(output, p); err != nil {
		return fmt.Errorf("saving project: %w", err)
	}
	if opts.layout != "" {
		if err := project.SaveLayout(opts.layout, res.Best.Layout); err != nil {
			return fmt.Errorf("saving layout: %w", err)
		}
	}

	app := c.appConfig()
	if abs, err := filepath.Abs(output); err == nil {
		app.AddRecent(abs)
		if err := project.SaveAppConfig(c.appConfigPath(), app); err != nil {
			c.Logger.Warn("could not update recent projects", "err", err)
		}
	}

	out := c.printer()
	out.title("%s", p.Name)
	if res.Room.Width != rc.Room.Width || res.Room.Height != rc.Room.Height {
		out.warning("Room grown to %.2f x %.2f m to fit the furniture", res.Room.Width, res.Room.Height)
	}
	out.layout(res.Best.Layout)
	out.breakdown(p.Result.Breakdown, rc.Config.Weights, res.Best.Score)
	if len(res.Front) > 0 {
		out.keyValue("Pareto front", fmt.Sprintf("%d layouts", len(res.Front)))
	}
	if len(res.Removed) > 0 {
		out.warning("Not placed: %s", strings.Join(res.Removed, ", "))
	}
	out.success("Saved project")
	out.file(output)
	if opts.layout != "" {
		out.file(opts.layout)
	}

	base := strings.TrimSuffix(output, filepath.Ext(output))
	plan := export.NewPlan(p.Name, p.Room, res.Best.Layout, p.Result)
	written, err := c.exportPlan(plan, base, formats, app.LabelsPerPage)
	for _, f := range written {
		out.file(f)
	}
	return err
}
