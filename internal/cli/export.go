package cli

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/piwi3910/roomlayout/internal/export"
	"github.com/piwi3910/roomlayout/internal/model"
	"github.com/piwi3910/roomlayout/internal/project"
)

// Export formats accepted by --format.
const (
	formatPDF    = "pdf"
	formatLabels = "labels"
	formatDXF    = "dxf"
	formatXLSX   = "xlsx"
)

var allFormats = []string{formatPDF, formatLabels, formatDXF, formatXLSX}

// parseFormats splits a comma-separated --format value. "all" selects every
// format; an empty value selects none.
func parseFormats(s string) ([]string, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	var out []string
	for _, f := range strings.Split(s, ",") {
		f = strings.ToLower(strings.TrimSpace(f))
		if f == "all" {
			return allFormats, nil
		}
		valid := false
		for _, known := range allFormats {
			if f == known {
				valid = true
				break
			}
		}
		if !valid {
			return nil, fmt.Errorf("%w: unknown export format %q (valid: %s, all)", model.ErrConfiguration, f, strings.Join(allFormats, ", "))
		}
		out = append(out, f)
	}
	return out, nil
}

// exportPath returns the output file for one format next to base.
func exportPath(base, format string) string {
	switch format {
	case formatLabels:
		return base + "-labels.pdf"
	case formatXLSX:
		return base + "-schedule.xlsx"
	default:
		return base + "." + format
	}
}

// exportPlan writes plan in each format and returns the files written.
func (c *CLI) exportPlan(plan export.Plan, base string, formats []string, labelsPerPage int) ([]string, error) {
	var written []string
	for _, format := range formats {
		path := exportPath(base, format)
		var err error
		switch format {
		case formatPDF:
			err = export.ExportPDF(path, plan)
		case formatLabels:
			err = export.ExportLabels(path, plan, labelsPerPage)
		case formatDXF:
			err = export.ExportDXF(path, plan)
		case formatXLSX:
			err = export.ExportSchedule(path, plan)
		}
		if errors.Is(err, export.ErrEmptyPlan) {
			c.Logger.Warn("nothing to export", "format", format)
			continue
		}
		if err != nil {
			return written, fmt.Errorf("exporting %s: %w", format, err)
		}
		c.Logger.Debug("exported", "format", format, "path", path)
		written = append(written, path)
	}
	return written, nil
}

type exportOpts struct {
	formats string
	output  string
}

func (c *CLI) exportCommand() *cobra.Command {
	opts := exportOpts{formats: strings.Join(allFormats, ",")}

	cmd := &cobra.Command{
		Use:   "export <project>",
		Short: "Render a saved project's layout to PDF, labels, DXF or XLSX",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			formats, err := parseFormats(opts.formats)
			if err != nil {
				return err
			}
			return c.runExport(args[0], formats, opts.output)
		},
	}

	cmd.Flags().StringVarP(&opts.formats, "format", "f", opts.formats, "comma-separated formats: pdf, labels, dxf, xlsx, all")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "base path for exported files (default: project path without extension)")
	return cmd
}

func (c *CLI) runExport(path string, formats []string, output string) error {
	p, err := project.Load(path)
	if err != nil {
		return err
	}
	if p.Result == nil {
		return fmt.Errorf("%w: project %s has no optimized layout", model.ErrPlacement, path)
	}
	layout, err := project.ResultLayout(p, model.DefaultRules())
	if err != nil {
		return err
	}

	base := output
	if base == "" {
		base = strings.TrimSuffix(path, filepath.Ext(path))
	}
	app := c.appConfig()
	written, err := c.exportPlan(export.NewPlan(p.Name, p.Room, layout, p.Result), base, formats, app.LabelsPerPage)
	if err != nil {
		return err
	}

	out := c.printer()
	out.success("Exported %s", p.Name)
	for _, f := range written {
		out.file(f)
	}
	return nil
}
