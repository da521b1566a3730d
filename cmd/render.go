package main

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/choropleth/internal/fips"
	"github.com/sells-group/choropleth/internal/monitoring"
	"github.com/sells-group/choropleth/internal/pipeline"
	"github.com/sells-group/choropleth/internal/render"
)

var (
	renderOutput string
	renderSVGDir string
)

var renderCmd = &cobra.Command{
	Use:   "render",
	Short: "Render the three maps to a standalone HTML page",
	RunE: func(cmd *cobra.Command, args []string) error {
		if renderOutput != "" {
			cfg.Render.Output = renderOutput
		}
		if err := cfg.Validate("render"); err != nil {
			return err
		}

		p := pipeline.New(cfg, pipeline.NewResolver(cfg.Fetch), fips.MassachusettsCounties(), monitoring.NewMetrics(), nil)
		res, err := p.Run(cmd.Context())
		if err != nil {
			return err
		}

		if err := writePageFile(cfg.Render.Output, render.Page{Title: cfg.Render.Title, Maps: res.Maps}); err != nil {
			return err
		}
		zap.L().Info("wrote page", zap.String("path", cfg.Render.Output))

		if renderSVGDir != "" {
			if err := writeSVGFiles(renderSVGDir, res.Maps); err != nil {
				return err
			}
		}

		printSummary(cmd.OutOrStdout(), res)
		return nil
	},
}

func writePageFile(path string, page render.Page) error {
	var buf bytes.Buffer
	if err := render.WritePage(&buf, page); err != nil {
		return err
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return eris.Wrapf(err, "render: create %s", dir)
		}
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return eris.Wrapf(err, "render: write %s", path)
	}
	return nil
}

func writeSVGFiles(dir string, maps []render.Map) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return eris.Wrapf(err, "render: create %s", dir)
	}
	for _, m := range maps {
		var buf bytes.Buffer
		if err := render.WriteSVG(&buf, m); err != nil {
			return err
		}
		path := filepath.Join(dir, m.ID+".svg")
		if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
			return eris.Wrapf(err, "render: write %s", path)
		}
		zap.L().Info("wrote map", zap.String("map", m.ID), zap.String("path", path))
	}
	return nil
}

func printSummary(w io.Writer, res *pipeline.Result) {
	for _, d := range res.Diagnostics {
		fmt.Fprintln(w, d.String())
	}
	fmt.Fprintf(w, "run %s: %d regions, %d joined, %d unmatched\n",
		res.RunID, len(res.Regions.Regions), res.Lookup.Len(), len(res.Diagnostics))
	for _, m := range res.Maps {
		fmt.Fprintf(w, "  %s  %-40s missing=%d\n", m.ID, m.Title, m.Missing())
	}
}

func init() {
	renderCmd.Flags().StringVar(&renderOutput, "output", "", "output HTML path (default from config)")
	renderCmd.Flags().StringVar(&renderSVGDir, "svg-dir", "", "also write each map as <dir>/<fig>.svg")
	rootCmd.AddCommand(renderCmd)
}
