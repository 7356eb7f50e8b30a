package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/sadopc/taskonaut/internal/apperrors"
	"github.com/sadopc/taskonaut/internal/export"
	"github.com/sadopc/taskonaut/internal/report"
	"github.com/sadopc/taskonaut/internal/store"
)

func newSessionsCmd(o *options) *cobra.Command {
	var date string
	cmd := &cobra.Command{
		Use:   "sessions",
		Short: "List the sessions of a day",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return o.withApp(cmd, func(ctx context.Context, a *app) error {
				day, err := a.parseDate(date)
				if err != nil {
					return err
				}
				sessions, err := a.engine.Sessions(ctx, store.DateOf(day))
				if err != nil {
					return err
				}
				return export.WriteSessionTable(cmd.OutOrStdout(), report.Sessions(sessions))
			})
		},
	}
	cmd.Flags().StringVar(&date, "date", "", "day to list, YYYY-MM-DD (default today)")
	return cmd
}

func newBreakCmd(o *options) *cobra.Command {
	var from, to, date, note string
	cmd := &cobra.Command{
		Use:   "break",
		Short: "Record a manual break",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if from == "" || to == "" {
				return apperrors.InvalidInput("--from and --to are required")
			}
			return o.withApp(cmd, func(ctx context.Context, a *app) error {
				day, err := a.parseDate(date)
				if err != nil {
					return err
				}
				start, err := atClock(day, from)
				if err != nil {
					return err
				}
				end, err := atClock(day, to)
				if err != nil {
					return err
				}
				s, err := a.engine.AddManualBreak(ctx, start, end, note)
				if err != nil {
					return err
				}
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "break %s-%s recorded (session %s)\n",
					s.Start.Format("15:04"), s.End.Format("15:04"), export.ShortID(s.ID))
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&from, "from", "", "break start, HH:MM")
	cmd.Flags().StringVar(&to, "to", "", "break end, HH:MM")
	cmd.Flags().StringVar(&date, "date", "", "day of the break, YYYY-MM-DD (default today)")
	cmd.Flags().StringVar(&note, "note", "", "note for the break")
	return cmd
}

func newAddCmd(o *options) *cobra.Command {
	var from, to, date, note string
	cmd := &cobra.Command{
		Use:   "add <project> <task>",
		Short: "Record a work session after the fact",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if from == "" || to == "" {
				return apperrors.InvalidInput("--from and --to are required")
			}
			return o.withApp(cmd, func(ctx context.Context, a *app) error {
				day, err := a.parseDate(date)
				if err != nil {
					return err
				}
				start, err := atClock(day, from)
				if err != nil {
					return err
				}
				end, err := atClock(day, to)
				if err != nil {
					return err
				}
				s, err := a.engine.AddSession(ctx, start, end, args[0], args[1], note)
				if err != nil {
					return err
				}
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s - %s %s-%s recorded (session %s)\n", s.Project, s.Task,
					s.Start.Format("15:04"), s.End.Format("15:04"), export.ShortID(s.ID))
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&from, "from", "", "session start, HH:MM")
	cmd.Flags().StringVar(&to, "to", "", "session end, HH:MM")
	cmd.Flags().StringVar(&date, "date", "", "day of the session, YYYY-MM-DD (default today)")
	cmd.Flags().StringVar(&note, "note", "", "note for the session")
	return cmd
}

func newNoteCmd(o *options) *cobra.Command {
	return &cobra.Command{
		Use:   "note <id> <text>",
		Short: "Replace the note of a closed session",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return o.withApp(cmd, func(ctx context.Context, a *app) error {
				id, err := a.resolveID(ctx, args[0])
				if err != nil {
					return err
				}
				s, err := a.engine.EditNote(ctx, id, strings.Join(args[1:], " "))
				if err != nil {
					return err
				}
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "note saved on %s\n", export.ShortID(s.ID))
				return nil
			})
		},
	}
}

func newCloseCmd(o *options) *cobra.Command {
	var at string
	cmd := &cobra.Command{
		Use:   "close <id>",
		Short: "Close a session left open on a past day",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if at == "" {
				return apperrors.InvalidInput("--at is required")
			}
			return o.withApp(cmd, func(ctx context.Context, a *app) error {
				id, err := a.resolveID(ctx, args[0])
				if err != nil {
					return err
				}
				sessions, err := a.engine.Sessions(ctx, "")
				if err != nil {
					return err
				}
				date := ""
				for _, s := range sessions {
					if s.ID == id {
						date = s.Date
						break
					}
				}
				day, err := a.parseDate(date)
				if err != nil {
					return err
				}
				end, err := atClock(day, at)
				if err != nil {
					return err
				}
				s, err := a.engine.CloseSession(ctx, id, end)
				if err != nil {
					return err
				}
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "closed %s at %s %s\n",
					export.ShortID(s.ID), s.Date, s.End.Format("15:04"))
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&at, "at", "", "end time on the session's day, HH:MM")
	return cmd
}

func newDeleteCmd(o *options) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a closed session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return o.withApp(cmd, func(ctx context.Context, a *app) error {
				id, err := a.resolveID(ctx, args[0])
				if err != nil {
					return err
				}
				if err := a.engine.DeleteSession(ctx, id); err != nil {
					return err
				}
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "deleted %s\n", export.ShortID(id))
				return nil
			})
		},
	}
}
