package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newAlertsCmd(g *globals) *cobra.Command {
	alerts := &cobra.Command{
		Use:   "alerts",
		Short: "Manage the live tracking alert history",
	}
	alerts.AddCommand(
		&cobra.Command{
			Use:   "list",
			Short: "List recent alerts, newest first",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				client, err := g.client()
				if err != nil {
					return err
				}
				history, err := client.ListAlerts(cmd.Context())
				if err != nil {
					return err
				}
				if g.jsonOut {
					return printJSON(cmd.OutOrStdout(), history)
				}
				if len(history) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "No alerts yet")
					return nil
				}
				for _, a := range history {
					printAlert(cmd.OutOrStdout(), a)
				}
				return nil
			},
		},
		&cobra.Command{
			Use:   "clear",
			Short: "Delete the alert history",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				client, err := g.client()
				if err != nil {
					return err
				}
				if err := client.ClearAlerts(cmd.Context()); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "Alerts cleared")
				return nil
			},
		},
	)
	return alerts
}
