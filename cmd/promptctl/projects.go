package main

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
)

func newProjectsCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "projects",
		Short: "Project commands",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List projects, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			list, err := opts.loadProjects(cmd.Context())
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tNAME\tSLOTS\tVERSIONS\tRESULTS\tUPDATED")
			for _, p := range list {
				updated := "-"
				if p.UpdatedAt > 0 {
					updated = time.UnixMilli(p.UpdatedAt).Format(time.RFC3339)
				}
				fmt.Fprintf(tw, "%s\t%s\t%d\t%d\t%d\t%s\n", p.ID, p.Name, len(p.Slots), len(p.Versions), len(p.Results), updated)
			}
			return tw.Flush()
		},
	})
	return cmd
}
