package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/piwi3910/roomlayout/internal/model"
	"github.com/piwi3910/roomlayout/internal/project"
)

func (c *CLI) templatesCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "templates",
		Aliases: []string{"template"},
		Short:   "Manage room templates",
	}
	cmd.AddCommand(c.templatesListCommand())
	cmd.AddCommand(c.templatesSaveCommand())
	cmd.AddCommand(c.templatesRemoveCommand())
	cmd.AddCommand(c.templatesInitCommand())
	cmd.AddCommand(c.templatesBackupCommand())
	cmd.AddCommand(c.templatesRestoreCommand())
	return cmd
}

func (c *CLI) templatesListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List built-in and saved templates",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := project.LoadAllTemplates(c.templatePath())
			if err != nil {
				return err
			}
			rows := make([][]string, 0, len(store.Templates))
			for _, t := range store.Templates {
				rows = append(rows, []string{
					t.ID,
					t.Name,
					fmt.Sprintf("%.1f x %.1f", t.Room.Width, t.Room.Height),
					fmt.Sprintf("%d", t.Manifest.Total()),
					t.Description,
				})
			}
			c.printer().table([]string{"ID", "Name", "Room (m)", "Items", "Description"}, rows)
			return nil
		},
	}
}

func (c *CLI) templatesSaveCommand() *cobra.Command {
	var config, description string

	cmd := &cobra.Command{
		Use:   "save <name>",
		Short: "Save a YAML room configuration as a template",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rc, err := project.LoadConfig(config)
			if err != nil {
				return err
			}
			store, err := project.LoadTemplates(c.templatePath())
			if err != nil {
				return err
			}
			name := args[0]
			if old := store.FindByName(name); old != nil {
				store.Remove(old.ID)
			}
			t := model.NewRoomTemplate(name, description, rc.Room, rc.Manifest, rc.Constraints)
			store.Add(t)
			if err := project.SaveTemplates(c.templatePath(), store); err != nil {
				return err
			}
			c.printer().success("Saved template %q (%s)", name, t.ID)
			return nil
		},
	}
	cmd.Flags().StringVarP(&config, "config", "c", "", "YAML room configuration")
	cmd.Flags().StringVarP(&description, "description", "d", "", "template description")
	_ = cmd.MarkFlagRequired("config")
	return cmd
}

func (c *CLI) templatesRemoveCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "remove <name-or-id>",
		Short: "Delete a saved template",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := project.LoadTemplates(c.templatePath())
			if err != nil {
				return err
			}
			t := store.FindByName(args[0])
			if t == nil {
				t = store.FindByID(args[0])
			}
			if t == nil {
				return fmt.Errorf("%w: no saved template %q", model.ErrConfiguration, args[0])
			}
			name := t.Name
			store.Remove(t.ID)
			if err := project.SaveTemplates(c.templatePath(), store); err != nil {
				return err
			}
			c.printer().success("Removed template %q", name)
			return nil
		},
	}
}

func (c *CLI) templatesInitCommand() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "init <name-or-id>",
		Short: "Write a template as an editable YAML configuration",
		Long: `Init expands a template into a complete YAML configuration, including the
full rule table, default weights and search settings, ready to edit and pass
to optimize --config.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := c.findTemplate(args[0])
			if err != nil {
				return err
			}
			if output == "" {
				output = slug(t.Name) + ".yaml"
			}
			if fileExists(output) {
				return fmt.Errorf("%s already exists", output)
			}
			rc := &project.RoomConfig{
				Name:        t.Name,
				Room:        t.Room,
				Manifest:    t.Manifest,
				Constraints: t.Constraints,
				Config:      model.DefaultConfig(),
			}
			c.appConfig().ApplyToSettings(&rc.Config.Settings)
			if err := project.SaveConfig(output, rc); err != nil {
				return err
			}
			c.printer().success("Wrote configuration for %q", t.Name)
			c.printer().file(output)
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "YAML file to write (default: <name>.yaml)")
	return cmd
}

func (c *CLI) templatesBackupCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "backup <file>",
		Short: "Export preferences and saved templates to one file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := project.LoadTemplates(c.templatePath())
			if err != nil {
				return err
			}
			if err := project.ExportAllData(args[0], c.appConfig(), store); err != nil {
				return err
			}
			c.printer().success("Backed up %d templates", len(store.Templates))
			c.printer().file(args[0])
			return nil
		},
	}
}

func (c *CLI) templatesRestoreCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "restore <file>",
		Short: "Restore preferences and templates from a backup",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := project.ImportAllData(args[0])
			if err != nil {
				return err
			}
			if err := project.SaveAppConfig(c.appConfigPath(), data.Config); err != nil {
				return err
			}
			if err := project.SaveTemplates(c.templatePath(), data.Templates); err != nil {
				return err
			}
			names := make([]string, 0, len(data.Templates.Templates))
			for _, t := range data.Templates.Templates {
				names = append(names, t.Name)
			}
			c.printer().success("Restored backup from %s (version %s)", data.CreatedAt, data.Version)
			if len(names) > 0 {
				c.printer().keyValue("Templates", strings.Join(names, ", "))
			}
			return nil
		},
	}
}
