package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func newProjectCmd(o *options) *cobra.Command {
	project := &cobra.Command{Use: "project", Short: "Manage projects"}

	project.AddCommand(&cobra.Command{
		Use:   "add <name> [task...]",
		Short: "Register a project, optionally with tasks",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return o.withApp(cmd, func(ctx context.Context, a *app) error {
				if err := a.engine.AddProject(ctx, args[0], args[1:]...); err != nil {
					return err
				}
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "project %s saved\n", strings.TrimSpace(args[0]))
				return nil
			})
		},
	})

	project.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List projects and their tasks",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return o.withApp(cmd, func(_ context.Context, a *app) error {
				reg := a.engine.Registry()
				out := cmd.OutOrStdout()
				for _, p := range reg.ProjectNames() {
					_, _ = fmt.Fprintln(out, p)
					for _, t := range reg.Tasks(p) {
						marker := " "
						if p == reg.ActiveProject && t == reg.ActiveTask {
							marker = "*"
						}
						_, _ = fmt.Fprintf(out, "  %s %s\n", marker, t)
					}
				}
				return nil
			})
		},
	})
	return project
}

func newTaskCmd(o *options) *cobra.Command {
	task := &cobra.Command{Use: "task", Short: "Manage tasks"}
	task.AddCommand(&cobra.Command{
		Use:   "add <project> <task>",
		Short: "Add a task to an existing project",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return o.withApp(cmd, func(ctx context.Context, a *app) error {
				if err := a.engine.AddTask(ctx, args[0], args[1]); err != nil {
					return err
				}
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "task %s saved\n", pair(strings.TrimSpace(args[0]), strings.TrimSpace(args[1])))
				return nil
			})
		},
	})
	return task
}

func newRecentCmd(o *options) *cobra.Command {
	return &cobra.Command{
		Use:   "recent",
		Short: "List recently used project and task pairs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return o.withApp(cmd, func(_ context.Context, a *app) error {
				recent := a.engine.RecentCombinations()
				out := cmd.OutOrStdout()
				if len(recent) == 0 {
					_, _ = fmt.Fprintln(out, "no recent combinations")
					return nil
				}
				for i, c := range recent {
					_, _ = fmt.Fprintf(out, "%2d. %s\n", i+1, c)
				}
				return nil
			})
		},
	}
}
