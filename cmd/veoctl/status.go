package main

import (
	"encoding/json"
	"fmt"

	"veo-console/internal/config"
	"veo-console/internal/poller"
	"veo-console/internal/presentation"

	"github.com/spf13/cobra"
)

func newStatusCommand(cfg *config.Config, root *rootOptions) *cobra.Command {
	var raw bool

	cmd := &cobra.Command{
		Use:   "status <operation>",
		Short: "Show the normalized status of an operation",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			operation := args[0]
			report, err := root.client(cfg).Status(cmd.Context(), operation)
			if err != nil {
				return err
			}

			if raw {
				encoder := json.NewEncoder(cmd.OutOrStdout())
				encoder.SetIndent("", "  ")
				return encoder.Encode(report)
			}

			status, ok := poller.Normalize(report)
			if !ok {
				return fmt.Errorf("unrecognized backend status %q", report.Status)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", presentation.DisplayFor(status).Label, operation)
			return nil
		},
	}

	cmd.Flags().BoolVar(&raw, "raw", false, "print the backend response as is")
	return cmd
}
