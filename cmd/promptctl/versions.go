package main

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"promptlab/internal/version"
)

type versionsExport struct {
	Project  string                  `json:"project" yaml:"project"`
	Name     string                  `json:"name" yaml:"name"`
	Versions []version.PromptVersion `json:"versions" yaml:"versions"`
}

func newVersionsCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "versions",
		Short: "Prompt version commands",
	}

	list := &cobra.Command{
		Use:   "list <project>",
		Short: "List the versions of a project (by id or name)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			projects, err := opts.loadProjects(cmd.Context())
			if err != nil {
				return err
			}
			p, err := findProject(projects, args[0])
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "NAME\tID\tFINGERPRINT\tSLOTS\tSAVED\tACTIVE")
			for _, v := range p.Versions {
				active := ""
				if v.ID == p.ActiveVersionID {
					active = "*"
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%s\t%s\n",
					v.Name, v.ID, v.Fingerprint, len(v.Slots),
					time.UnixMilli(v.Timestamp).Format(time.RFC3339), active)
			}
			return tw.Flush()
		},
	}

	var format string
	export := &cobra.Command{
		Use:   "export <project>",
		Short: "Export a project's versions as yaml or json",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			projects, err := opts.loadProjects(cmd.Context())
			if err != nil {
				return err
			}
			p, err := findProject(projects, args[0])
			if err != nil {
				return err
			}
			doc := versionsExport{Project: p.ID, Name: p.Name, Versions: p.Versions}
			out := cmd.OutOrStdout()
			switch format {
			case "yaml", "yml":
				enc := yaml.NewEncoder(out)
				enc.SetIndent(2)
				if err := enc.Encode(doc); err != nil {
					return fmt.Errorf("encode yaml: %w", err)
				}
				return enc.Close()
			case "json":
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(doc)
			default:
				return fmt.Errorf("unsupported output format %q (want yaml or json)", format)
			}
		},
	}
	export.Flags().StringVarP(&format, "output", "o", "yaml", "Output format: yaml or json")

	cmd.AddCommand(list, export)
	return cmd
}
