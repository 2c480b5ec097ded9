package main

import (
	"context"
	"fmt"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/yukikurage/kanban-board/internal/app"
)

func usersCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "users",
		Short: "List and activate accounts",
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List accounts",
		RunE: func(cmd *cobra.Command, args []string) error {
			activeOnly, _ := cmd.Flags().GetBool("active-only")
			return withApp(func(ctx context.Context, a *app.App) error {
				result := a.Workflow.ListUsers(ctx, activeOnly)
				if !result.Success {
					return resultError(result.Errors)
				}
				w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
				fmt.Fprintln(w, "PHONE\tNAME\tPOSITION\tACTIVE")
				for _, u := range result.Data {
					fmt.Fprintf(w, "%d\t%s\t%s\t%t\n", u.PhoneNumber, u.Name, u.Position, u.IsActive)
				}
				return w.Flush()
			})
		},
	}
	list.Flags().Bool("active-only", false, "Only show active accounts")

	cmd.AddCommand(list)
	cmd.AddCommand(activationCmd("activate", true))
	cmd.AddCommand(activationCmd("deactivate", false))
	return cmd
}

func activationCmd(use string, active bool) *cobra.Command {
	return &cobra.Command{
		Use:   use + " [phone]",
		Short: fmt.Sprintf("Set an account's active flag to %t", active),
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			phone, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid phone number %q", args[0])
			}
			return withApp(func(ctx context.Context, a *app.App) error {
				result := a.Workflow.SetUserActive(ctx, phone, active)
				if !result.Success {
					return resultError(result.Errors)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "User %d active=%t\n", phone, active)
				return nil
			})
		},
	}
}
