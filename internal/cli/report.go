package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/sadopc/taskonaut/internal/aggregate"
	"github.com/sadopc/taskonaut/internal/apperrors"
	"github.com/sadopc/taskonaut/internal/export"
	"github.com/sadopc/taskonaut/internal/report"
	"github.com/sadopc/taskonaut/internal/store"
)

const (
	formatTable = "table"
	formatCSV   = "csv"
	formatJSON  = "json"
	formatYAML  = "yaml"
)

type reportFlags struct {
	date   string
	from   string
	to     string
	format string
	out    string
}

func newReportCmd(o *options) *cobra.Command {
	f := &reportFlags{}
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Summarize days and sessions",
		Long: "Summarize one day (--date) or a range (--from/--to). Without --out the\n" +
			"report goes to stdout. The csv format writes <out> for sessions and\n" +
			"<out-base>-summary.csv for the day summaries.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return o.withApp(cmd, func(ctx context.Context, a *app) error {
				return runReport(ctx, cmd.OutOrStdout(), a, f)
			})
		},
	}
	cmd.Flags().StringVar(&f.date, "date", "", "single day, YYYY-MM-DD (default today)")
	cmd.Flags().StringVar(&f.from, "from", "", "first day of a range, YYYY-MM-DD")
	cmd.Flags().StringVar(&f.to, "to", "", "last day of a range, YYYY-MM-DD (default today)")
	cmd.Flags().StringVarP(&f.format, "format", "f", formatTable, "table|csv|json|yaml")
	cmd.Flags().StringVarP(&f.out, "out", "o", "", "write to this file instead of stdout")
	return cmd
}

// span turns the date flags into an inclusive [from, to] range.
func (f *reportFlags) span(a *app) (string, string, error) {
	if f.date != "" && (f.from != "" || f.to != "") {
		return "", "", apperrors.InvalidInput("--date cannot be combined with --from/--to")
	}
	if f.to != "" && f.from == "" {
		return "", "", apperrors.InvalidInput("--to needs --from")
	}
	if f.from == "" {
		day, err := a.parseDate(f.date)
		if err != nil {
			return "", "", err
		}
		return store.DateOf(day), store.DateOf(day), nil
	}
	from, err := a.parseDate(f.from)
	if err != nil {
		return "", "", err
	}
	to, err := a.parseDate(f.to)
	if err != nil {
		return "", "", err
	}
	return store.DateOf(from), store.DateOf(to), nil
}

func runReport(ctx context.Context, out io.Writer, a *app, f *reportFlags) error {
	from, to, err := f.span(a)
	if err != nil {
		return err
	}
	days, sessions, err := a.engine.Range(ctx, from, to)
	if err != nil {
		return err
	}
	r := report.Build(days, sessions, aggregate.Projects(sessions))

	format := strings.ToLower(f.format)
	if f.out == "" {
		return writeReport(out, format, r)
	}

	switch format {
	case formatCSV:
		summary := summaryPath(f.out)
		if err := export.ToCSV(r.SessionRows(), f.out); err != nil {
			return err
		}
		if err := export.SummaryToCSV(r.SummaryRows(), summary); err != nil {
			return err
		}
		_, _ = fmt.Fprintf(out, "wrote %s and %s\n", f.out, summary)
		return nil
	case formatJSON:
		err = export.ToJSON(r, f.out)
	case formatYAML:
		err = export.ToYAML(r, f.out)
	case formatTable:
		err = writeTableFile(r, f.out)
	default:
		return unknownFormat(f.format)
	}
	if err != nil {
		return err
	}
	_, _ = fmt.Fprintf(out, "wrote %s\n", f.out)
	return nil
}

func writeReport(out io.Writer, format string, r report.Report) error {
	switch format {
	case formatTable:
		return export.WriteTable(out, r)
	case formatCSV:
		if err := export.WriteCSV(out, r.SessionRows()); err != nil {
			return err
		}
		if _, err := fmt.Fprintln(out); err != nil {
			return err
		}
		return export.WriteSummaryCSV(out, r.SummaryRows())
	case formatJSON:
		return export.WriteJSON(out, r)
	case formatYAML:
		return export.WriteYAML(out, r)
	default:
		return unknownFormat(format)
	}
}

func writeTableFile(r report.Report, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create file: %w", err)
	}
	if err := export.WriteTable(f, r); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// summaryPath maps report.csv to report-summary.csv.
func summaryPath(out string) string {
	ext := filepath.Ext(out)
	return strings.TrimSuffix(out, ext) + "-summary.csv"
}

func unknownFormat(format string) error {
	return apperrors.InvalidInput(fmt.Sprintf("unknown format %q (want table, csv, json or yaml)", format))
}
