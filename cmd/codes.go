package main

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/choropleth/internal/fips"
)

var codesFormat string

var codesCmd = &cobra.Command{
	Use:   "codes",
	Short: "Print the county reference table",
	RunE: func(cmd *cobra.Command, args []string) error {
		return writeCodes(cmd.OutOrStdout(), fips.MassachusettsCounties().Entries(), codesFormat)
	},
}

func writeCodes(w io.Writer, entries []fips.Entry, format string) error {
	switch format {
	case "table", "":
		tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "FIPS\tCOUNTY")
		for _, e := range entries {
			fmt.Fprintf(tw, "%d\t%s\n", e.Code, e.County)
		}
		return tw.Flush()
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(entries)
	case "yaml":
		enc := yaml.NewEncoder(w)
		defer enc.Close() //nolint:errcheck
		return enc.Encode(entries)
	default:
		return eris.Errorf("codes: unknown format %q (want table, json or yaml)", format)
	}
}

func init() {
	codesCmd.Flags().StringVar(&codesFormat, "format", "table", "output format: table, json or yaml")
	rootCmd.AddCommand(codesCmd)
}
