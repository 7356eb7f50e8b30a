package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/sadopc/taskonaut/internal/engine"
	"github.com/sadopc/taskonaut/internal/export"
	"github.com/sadopc/taskonaut/internal/report"
	"github.com/sadopc/taskonaut/internal/store"
)

func newStartCmd(o *options) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start working on the active project and task",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return o.withApp(cmd, func(ctx context.Context, a *app) error {
				st, err := a.engine.StartWork(ctx)
				if err != nil {
					return err
				}
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "started %s at %s (session %s)\n",
					pair(st.Current.Project, st.Current.Task),
					st.Current.Start.Format("15:04:05"),
					export.ShortID(st.Current.ID))
				return nil
			})
		},
	}
}

func newPauseCmd(o *options) *cobra.Command {
	return &cobra.Command{
		Use:   "pause",
		Short: "Close the running session and start a pause",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return o.withApp(cmd, func(ctx context.Context, a *app) error {
				before := a.engine.CurrentState()
				if _, err := a.engine.StopOrPause(ctx); err != nil {
					return err
				}
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "paused %s after %s\n",
					pair(before.Current.Project, before.Current.Task),
					formatSpan(before.Elapsed(a.engine.Now())))
				return nil
			})
		},
	}
}

func newEndDayCmd(o *options) *cobra.Command {
	return &cobra.Command{
		Use:   "end-day",
		Short: "Close the running session and finish the day",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return o.withApp(cmd, func(ctx context.Context, a *app) error {
				if _, err := a.engine.EndDay(ctx); err != nil {
					return err
				}
				rec, err := a.engine.DayRecord(ctx, store.DateOf(a.engine.Now()))
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				_, _ = fmt.Fprintln(out, "day ended")
				printDay(out, rec.WorkSeconds, rec.BreakSeconds, rec.TargetSeconds, report.StatusLabel(rec))
				return nil
			})
		},
	}
}

func newSwitchCmd(o *options) *cobra.Command {
	return &cobra.Command{
		Use:   "switch <project> <task>",
		Short: "Switch the active project and task",
		Long: "Switch the active project and task. A running session younger than\n" +
			"auto_split_minutes is relabelled; an older one is closed and a new one\n" +
			"starts at the same instant.",
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return o.withApp(cmd, func(ctx context.Context, a *app) error {
				before := a.engine.CurrentState()
				st, err := a.engine.SwitchProject(ctx, engine.SwitchRequest{Project: args[0], Task: args[1]})
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				switch {
				case before.Current == nil:
					_, _ = fmt.Fprintf(out, "active: %s\n", pair(st.ActiveProject, st.ActiveTask))
				case before.Current.ID != st.Current.ID:
					_, _ = fmt.Fprintf(out, "split: closed %s, now on %s (session %s)\n",
						export.ShortID(before.Current.ID), pair(st.ActiveProject, st.ActiveTask), export.ShortID(st.Current.ID))
				default:
					_, _ = fmt.Fprintf(out, "switched %s to %s\n",
						export.ShortID(st.Current.ID), pair(st.ActiveProject, st.ActiveTask))
				}
				return nil
			})
		},
	}
}

func newStatusCmd(o *options) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the current state and today's totals",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return o.withApp(cmd, func(ctx context.Context, a *app) error {
				now := a.engine.Now()
				st := a.engine.CurrentState()
				out := cmd.OutOrStdout()

				_, _ = fmt.Fprintf(out, "state:   %s\n", st.Phase)
				_, _ = fmt.Fprintf(out, "active:  %s\n", pair(st.ActiveProject, st.ActiveTask))
				switch st.Phase {
				case engine.Running:
					_, _ = fmt.Fprintf(out, "session: %s, started %s (%s)\n",
						export.ShortID(st.Current.ID),
						humanize.RelTime(st.Current.Start, now, "ago", "from now"),
						st.Current.Start.Format("15:04"))
				case engine.Paused:
					_, _ = fmt.Fprintf(out, "pause:   %s\n", formatSpan(st.PauseElapsed(now)))
				}

				rec, err := a.engine.DayRecord(ctx, store.DateOf(now))
				if err != nil {
					return err
				}
				printDay(out, rec.WorkSeconds, rec.BreakSeconds, rec.TargetSeconds, report.StatusLabel(rec))
				if n := a.engine.Pending(); n > 0 {
					_, _ = fmt.Fprintf(out, "pending: %d unsaved %s\n", n, plural(n, "write", "writes"))
				}
				return nil
			})
		},
	}
}

func printDay(out io.Writer, work, brk, target int64, status string) {
	remaining := target - work
	if remaining < 0 {
		remaining = 0
	}
	_, _ = fmt.Fprintf(out, "today:   work %s, break %s, target %s, remaining %s (%s)\n",
		formatSpan(seconds(work)), formatSpan(seconds(brk)),
		formatSpan(seconds(target)), formatSpan(seconds(remaining)), status)
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
