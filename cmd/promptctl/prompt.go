package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"promptlab/internal/prompt"
)

func newFingerprintCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "fingerprint [text]",
		Short: "Print the fingerprint of a text (reads stdin without an argument)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var text string
			if len(args) == 1 {
				text = args[0]
			} else {
				b, err := io.ReadAll(cmd.InOrStdin())
				if err != nil {
					return fmt.Errorf("read stdin: %w", err)
				}
				text = strings.TrimRight(string(b), "\r\n")
			}
			fmt.Fprintln(cmd.OutOrStdout(), prompt.Fingerprint(text))
			return nil
		},
	}
}

func newComposeCmd() *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "compose",
		Short: "Compose canonical and final prompts from a slot list",
		RunE: func(cmd *cobra.Command, args []string) error {
			if file == "" {
				return fmt.Errorf("--file is required")
			}
			b, err := os.ReadFile(file)
			if err != nil {
				return fmt.Errorf("read slots: %w", err)
			}
			var slots []prompt.Slot
			if err := json.Unmarshal(b, &slots); err != nil {
				return fmt.Errorf("parse slots: %w", err)
			}
			canonical := prompt.ComposeCanonical(slots)
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "canonical:\n%s\n\n", canonical)
			fmt.Fprintf(out, "final:\n%s\n\n", prompt.ComposeFinal(slots))
			fmt.Fprintf(out, "fingerprint: %s\n", prompt.Fingerprint(canonical))
			return nil
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "JSON file holding an array of slots")
	return cmd
}
