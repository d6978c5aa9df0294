package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/i474232898/weather-ku/internal/store"
)

func newCheckCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "check FILE",
		Short: "Parse FILE and report whether it is a valid observation table",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			table, err := store.NewFileStore(args[0]).Load()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			dates := table.Dates()
			if len(dates) == 0 {
				fmt.Fprintf(out, "%s: ok, no records\n", args[0])
				return nil
			}
			fmt.Fprintf(out, "%s: ok, %d records from %s to %s\n", args[0], len(dates), dates[0], dates[len(dates)-1])
			return nil
		},
	}
}
