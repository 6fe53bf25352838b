package main

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/artpar/blogapi/bootstrap"
	"github.com/artpar/blogapi/core/serializer"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var definitionsFormat string

var definitionsCmd = &cobra.Command{
	Use:     "definitions",
	Aliases: []string{"defs"},
	Short:   "List loaded serializer definitions",
	Long: `List the serializer definitions in effect: the embedded ones plus any
overrides from api.definitions_dir.`,
	Args: cobra.NoArgs,
	RunE: runDefinitions,
}

func init() {
	rootCmd.AddCommand(definitionsCmd)

	definitionsCmd.Flags().StringVarP(&definitionsFormat, "format", "f", "table", "output format: table or yaml")
}

func runDefinitions(cmd *cobra.Command, args []string) error {
	a, err := bootstrap.New(appOptions(cmd))
	if err != nil {
		return fmt.Errorf("create app: %w", err)
	}
	defer a.Shutdown()

	var defs []serializer.Definition
	for _, s := range a.Catalog.Registry().All() {
		defs = append(defs, s.Definition())
	}

	out := cmd.OutOrStdout()
	switch definitionsFormat {
	case "yaml":
		enc := yaml.NewEncoder(out)
		enc.SetIndent(2)
		defer enc.Close()
		return enc.Encode(map[string]any{"serializers": defs})
	case "table":
		tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "NAME\tTYPE\tNAMESPACE\tATTRIBUTES\tHAS ONE\tHAS MANY")
		for _, d := range defs {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
				d.Name, d.Type, dash(d.Namespace),
				list(d.Attributes), list(d.HasOne), list(d.HasMany))
		}
		return tw.Flush()
	default:
		return fmt.Errorf("unknown format %q (available: table, yaml)", definitionsFormat)
	}
}

func list(items []string) string {
	return dash(strings.Join(items, ","))
}

func dash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
