package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/yukikurage/kanban-board/internal/app"
	"github.com/yukikurage/kanban-board/internal/render"
)

func notifyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "notify",
		Short: "Show tasks that are coming due",
		RunE: func(cmd *cobra.Command, args []string) error {
			days, _ := cmd.Flags().GetInt("days")
			rawFormat, _ := cmd.Flags().GetString("format")
			format, err := render.ParseFormat(rawFormat)
			if err != nil {
				return err
			}

			return withApp(func(ctx context.Context, a *app.App) error {
				if days <= 0 {
					days = a.Config.NotifyDaysAhead
				}
				result := a.Workflow.Upcoming(ctx, days)
				if !result.Success {
					return resultError(result.Errors)
				}
				fmt.Fprint(cmd.OutOrStdout(), render.Notifications(result.Data, format, days))
				return nil
			})
		},
	}

	cmd.Flags().IntP("days", "d", 0, "Days ahead to look (default from config)")
	cmd.Flags().StringP("format", "f", string(render.FormatDetailed), "Output format (detailed, summary)")

	return cmd
}

func boardCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "board",
		Short: "Print the board grouped by status",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(func(ctx context.Context, a *app.App) error {
				result := a.Workflow.ListBoard(ctx)
				if !result.Success {
					return resultError(result.Errors)
				}
				fmt.Fprint(cmd.OutOrStdout(), render.Board(result.Data))
				return nil
			})
		},
	}
}

func adviceCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "advice",
		Short: "Flag crowded columns and unbalanced assignees",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(func(ctx context.Context, a *app.App) error {
				result := a.Workflow.Advice(ctx)
				if !result.Success {
					return resultError(result.Errors)
				}
				fmt.Fprint(cmd.OutOrStdout(), render.Advice(result.Data))
				return nil
			})
		},
	}
}

func resultError(messages []string) error {
	return fmt.Errorf("%s", strings.Join(messages, "; "))
}
