package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"kvitt/internal/services/ledger"
)

func newDirectoryCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "directory [campus-id]",
		Short: "List campuses, or the departments of one campus",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			client := ledger.NewClient(cfg)
			out := cmd.OutOrStdout()

			if len(args) == 0 {
				campuses, err := client.Campuses(cmd.Context())
				if err != nil {
					return err
				}
				rows := make([][]string, 0, len(campuses))
				for _, campus := range campuses {
					rows = append(rows, []string{campus.ID, campus.Name})
				}
				fmt.Fprintln(out, renderTable([]string{"ID", "Campus"}, rows, []columnAlignment{alignLeft, alignLeft}))
				return nil
			}

			departments, err := client.Departments(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			rows := make([][]string, 0, len(departments))
			for _, department := range departments {
				rows = append(rows, []string{department.ID, department.Name})
			}
			fmt.Fprintln(out, renderTable([]string{"ID", "Department"}, rows, []columnAlignment{alignLeft, alignLeft}))
			return nil
		},
	}
	return cmd
}
