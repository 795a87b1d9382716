package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"promptlab/internal/gateway/repository/projectstore"
	"promptlab/internal/project"
)

type rootOptions struct {
	storePath string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	root := &cobra.Command{
		Use:   "promptctl",
		Short: "Inspect prompt lab projects and compose prompts offline",
		Long: `promptctl works against the same project store as the gateway.

The backend is picked the way the gateway picks it: PROJECT_STORE_PG_DSN,
then PROJECT_STORE_SQLITE_PATH, then the JSON file at PROJECT_STORE_PATH.
--store forces the JSON file backend at the given path.`,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			_ = godotenv.Load()
		},
	}
	root.PersistentFlags().StringVar(&opts.storePath, "store", "",
		"Path to a JSON project store (overrides the environment)")

	root.AddCommand(
		newFingerprintCmd(),
		newComposeCmd(),
		newProjectsCmd(opts),
		newVersionsCmd(opts),
	)
	return root
}

// loadProjects reads projects without bootstrapping or writing anything.
func (o *rootOptions) loadProjects(ctx context.Context) ([]project.Project, error) {
	cfg := projectstore.Config{
		PostgresDSN: os.Getenv("PROJECT_STORE_PG_DSN"),
		SQLitePath:  os.Getenv("PROJECT_STORE_SQLITE_PATH"),
		FilePath:    os.Getenv("PROJECT_STORE_PATH"),
	}
	if p := strings.TrimSpace(o.storePath); p != "" {
		cfg = projectstore.Config{FilePath: p}
	}
	repo, _, err := projectstore.Open(cfg, nil)
	if err != nil {
		return nil, err
	}
	if c, ok := repo.(interface{ Close() error }); ok {
		defer c.Close()
	}
	list, err := repo.LoadProjects(ctx)
	if err != nil {
		return nil, fmt.Errorf("load projects: %w", err)
	}
	for i := range list {
		list[i] = project.Normalize(list[i])
	}
	return list, nil
}

// findProject matches an id first, then an exact name.
func findProject(list []project.Project, ref string) (project.Project, error) {
	for _, p := range list {
		if p.ID == ref {
			return p, nil
		}
	}
	for _, p := range list {
		if p.Name == ref {
			return p, nil
		}
	}
	return project.Project{}, fmt.Errorf("project %q not found", ref)
}
