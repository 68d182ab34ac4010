// Package cli implements the roomlayout command-line interface.
//
// # Commands
//
//   - optimize: search for a furniture layout and save it as a project
//   - score: evaluate an existing layout file
//   - validate: check a room configuration without optimizing
//   - compare: run what-if scenarios side by side
//   - export: render a saved project to PDF, labels, DXF or XLSX
//   - templates: list, save, remove and expand room templates
//
// All commands support --verbose (-v) for debug-level logging.
package cli

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/piwi3910/roomlayout/internal/importer"
	"github.com/piwi3910/roomlayout/internal/model"
	"github.com/piwi3910/roomlayout/internal/project"
)

const appName = "roomlayout"

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// Version is set at build time.
var Version = "dev"

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger
	Out    io.Writer
	// Home holds config.json and templates.json.
	Home string
}

// New creates a CLI that prints results to out and logs to logw.
func New(out, logw io.Writer, level log.Level) *CLI {
	return &CLI{
		Logger: newLogger(logw, level),
		Out:    out,
		Home:   project.DefaultConfigDir(),
	}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:          appName,
		Short:        "Roomlayout arranges furniture in a room",
		Long:         `Roomlayout finds furniture arrangements that respect clearances, door access and placement rules, and scores them for comfort, accessibility, space use and aesthetics.`,
		Version:      Version,
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&c.Home, "home", c.Home, "directory holding preferences and templates")

	root.AddCommand(c.optimizeCommand())
	root.AddCommand(c.scoreCommand())
	root.AddCommand(c.validateCommand())
	root.AddCommand(c.compareCommand())
	root.AddCommand(c.exportCommand())
	root.AddCommand(c.templatesCommand())

	return root
}

func (c *CLI) printer() printer {
	return printer{w: c.Out}
}

func (c *CLI) appConfigPath() string {
	return filepath.Join(c.Home, "config.json")
}

func (c *CLI) templatePath() string {
	return filepath.Join(c.Home, "templates.json")
}

// appConfig loads the user's preferences, falling back to defaults when the
// file is unreadable.
func (c *CLI) appConfig() model.AppConfig {
	cfg, err := project.LoadAppConfig(c.appConfigPath())
	if err != nil {
		c.Logger.Warn("ignoring unreadable preferences", "path", c.appConfigPath(), "err", err)
		return model.DefaultAppConfig()
	}
	return cfg
}

// inputOpts are the flags shared by commands that need a room to work on.
type inputOpts struct {
	config   string
	template string
	manifest string
	room     string
}

func (o *inputOpts) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&o.config, "config", "c", "", "YAML room configuration")
	cmd.Flags().StringVarP(&o.template, "template", "t", "", "room template name or id")
	cmd.Flags().StringVarP(&o.manifest, "manifest", "m", "", "furniture manifest (.csv or .xlsx), replaces the configured one")
	cmd.Flags().StringVarP(&o.room, "room", "r", "", "DXF drawing of the room, replaces the configured size and openings")
}

// loadInput resolves the room, manifest and configuration from a YAML file or
// a template, then applies any imported manifest or room drawing.
func (c *CLI) loadInput(o inputOpts) (*project.RoomConfig, error) {
	var rc *project.RoomConfig
	switch {
	case o.config != "" && o.template != "":
		return nil, fmt.Errorf("%w: --config and --template are mutually exclusive", model.ErrConfiguration)

	case o.config != "":
		cfg, err := project.LoadConfig(o.config)
		if err != nil {
			return nil, err
		}
		rc = cfg

	case o.template != "":
		t, err := c.findTemplate(o.template)
		if err != nil {
			return nil, err
		}
		rc = &project.RoomConfig{
			Name:        t.Name,
			Room:        t.Room.Clone(),
			Manifest:    append(model.Manifest{}, t.Manifest...),
			Constraints: t.Constraints,
			Config:      model.DefaultConfig(),
		}
		c.appConfig().ApplyToSettings(&rc.Config.Settings)

	case o.manifest != "" && o.room != "":
		rc = &project.RoomConfig{Name: strings.TrimSuffix(filepath.Base(o.room), filepath.Ext(o.room)), Config: model.DefaultConfig()}
		c.appConfig().ApplyToSettings(&rc.Config.Settings)

	default:
		return nil, fmt.Errorf("%w: one of --config, --template or --manifest with --room is required", model.ErrConfiguration)
	}

	if o.manifest != "" {
		m, err := c.importManifest(o.manifest)
		if err != nil {
			return nil, err
		}
		if err := m.Validate(rc.Config.Rules); err != nil {
			return nil, err
		}
		rc.Manifest = m
	}
	if o.room != "" {
		room, err := c.importRoom(o.room)
		if err != nil {
			return nil, err
		}
		room.Zones = rc.Room.Zones
		if err := room.Validate(); err != nil {
			c.Logger.Warn("dropping zones that do not fit the imported room", "err", err)
			room.Zones = nil
		}
		rc.Room = room
	}
	return rc, nil
}

func (c *CLI) findTemplate(key string) (*model.RoomTemplate, error) {
	store, err := project.LoadAllTemplates(c.templatePath())
	if err != nil {
		return nil, err
	}
	if t := store.FindByName(key); t != nil {
		return t, nil
	}
	if t := store.FindByID(key); t != nil {
		return t, nil
	}
	return nil, fmt.Errorf("%w: no template %q (have: %s)", model.ErrConfiguration, key, strings.Join(store.Names(), ", "))
}

func (c *CLI) importManifest(path string) (model.Manifest, error) {
	var res importer.ImportResult
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv", ".tsv", ".txt":
		res = importer.ImportCSV(path)
	case ".xlsx":
		res = importer.ImportExcel(path)
	default:
		return nil, fmt.Errorf("%w: unsupported manifest format %q", model.ErrConfiguration, filepath.Ext(path))
	}
	for _, w := range res.Warnings {
		c.Logger.Debug(w, "file", path)
	}
	if len(res.Errors) > 0 {
		return nil, fmt.Errorf("%w: manifest %s: %s", model.ErrConfiguration, path, strings.Join(res.Errors, "; "))
	}
	if len(res.Manifest) == 0 {
		return nil, fmt.Errorf("%w: manifest %s lists no furniture", model.ErrConfiguration, path)
	}
	c.Logger.Info("imported manifest", "file", path, "entries", len(res.Manifest), "items", res.Manifest.Total())
	return res.Manifest, nil
}

func (c *CLI) importRoom(path string) (model.Room, error) {
	res := importer.ImportRoomDXF(path)
	for _, w := range res.Warnings {
		c.Logger.Warn(w, "file", path)
	}
	if len(res.Errors) > 0 {
		return model.Room{}, fmt.Errorf("%w: room drawing %s: %s", model.ErrConfiguration, path, strings.Join(res.Errors, "; "))
	}
	c.Logger.Info("imported room", "file", path,
		"size", fmt.Sprintf("%.2fx%.2f", res.Room.Width, res.Room.Height),
		"doors", len(res.Room.Doors), "windows", len(res.Room.Windows))
	return res.Room, nil
}

// fileExists reports whether path names an existing file.
func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
