package commands

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/sync/errgroup"

	"github.com/fivetwenty-io/libadmin/internal/constants"
	"github.com/fivetwenty-io/libadmin/pkg/libadmin"
)

// Report holds both loan reports for one date range.
type Report struct {
	Start   string                  `json:"start"   yaml:"start"`
	End     string                  `json:"end"     yaml:"end"`
	Daily   []libadmin.DailySummary `json:"daily"   yaml:"daily"`
	Overdue []libadmin.OverdueEntry `json:"overdue" yaml:"overdue"`
}

// NewReportsCommand creates the reports command.
func NewReportsCommand() *cobra.Command {
	var (
		start string
		end   string
		days  int
	)

	cmd := &cobra.Command{
		Use:   "reports",
		Short: "Show loan activity reports",
		Long:  "Display the daily loan summary and the overdue loans for a range of days (inclusive)",
		RunE: func(cmd *cobra.Command, args []string) error {
			from, to, err := reportRange(start, end, days, time.Now())
			if err != nil {
				return err
			}

			return runWithClient(cmd, func(ctx context.Context, client libadmin.Client) error {
				err := requireCapability(ctx, client, libadmin.CapViewReports)
				if err != nil {
					return err
				}

				report, err := fetchReport(ctx, client.Reports(), from, to)
				if err != nil {
					return err
				}

				renderer := OutputRenderer[*Report]{
					RenderJSON:  StandardJSONRenderer[*Report],
					RenderYAML:  StandardYAMLRenderer[*Report],
					RenderTable: renderReportTables,
				}

				return renderer.Render(cmd.OutOrStdout(), report, viper.GetString(keyOutput))
			})
		},
	}

	cmd.Flags().StringVar(&start, "start", "", "first day (YYYY-MM-DD)")
	cmd.Flags().StringVar(&end, "end", "", "last day (YYYY-MM-DD), defaults to today")
	cmd.Flags().IntVar(&days, "days", defaultReportDays, "number of days ending at --end when --start is omitted")

	return cmd
}

const defaultReportDays = 7

// reportRange resolves the flags to an inclusive day range.
func reportRange(start, end string, days int, now time.Time) (time.Time, time.Time, error) {
	to := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.Local)

	if end != "" {
		parsed, err := time.ParseInLocation(constants.DateLayout, end, time.Local)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("parsing --end: %w", err)
		}

		to = parsed
	}

	if start == "" {
		if days <= 0 {
			days = 1
		}

		return to.AddDate(0, 0, 1-days), to, nil
	}

	from, err := time.ParseInLocation(constants.DateLayout, start, time.Local)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("parsing --start: %w", err)
	}

	if to.Before(from) {
		return time.Time{}, time.Time{}, constants.ErrInvalidDateRange
	}

	return from, to, nil
}

// fetchReport loads the daily summary and the overdue entries concurrently.
func fetchReport(ctx context.Context, reports libadmin.ReportsAPI, from, to time.Time) (*Report, error) {
	report := &Report{
		Start: from.Format(constants.DateLayout),
		End:   to.Format(constants.DateLayout),
	}

	group, groupCtx := errgroup.WithContext(ctx)

	group.Go(func() error {
		daily, err := reports.DailySummary(groupCtx, from, to)
		if err != nil {
			return fmt.Errorf("loading daily summary: %w", err)
		}

		report.Daily = daily

		return nil
	})

	group.Go(func() error {
		overdue, err := reports.Overdue(groupCtx, from, to)
		if err != nil {
			return fmt.Errorf("loading overdue report: %w", err)
		}

		report.Overdue = overdue

		return nil
	})

	err := group.Wait()
	if err != nil {
		return nil, err
	}

	return report, nil
}

func renderReportTables(w io.Writer, report *Report) error {
	_, _ = fmt.Fprintf(w, "Daily summary %s to %s\n", report.Start, report.End)

	daily := make([][]string, 0, len(report.Daily))
	for _, day := range report.Daily {
		daily = append(daily, []string{
			day.ReportDate,
			strconv.Itoa(day.TotalBorrowed),
			strconv.Itoa(day.TotalReturned),
			strconv.Itoa(day.TotalOverdue),
			formatAmount(day.TotalFeeEstimate),
		})
	}

	err := renderRows(w, []string{"Date", "Borrowed", "Returned", "Overdue", "Fee Estimate"}, daily)
	if err != nil {
		return err
	}

	_, _ = fmt.Fprintf(w, "\nOverdue loans\n")

	if len(report.Overdue) == 0 {
		_, _ = fmt.Fprintln(w, "No overdue loans")

		return nil
	}

	overdue := make([][]string, 0, len(report.Overdue))
	for _, entry := range report.Overdue {
		overdue = append(overdue, []string{
			entry.ReportDate,
			strconv.FormatInt(entry.LoanID, 10),
			strconv.FormatInt(entry.StudentID, 10),
			strconv.FormatInt(entry.BookID, 10),
			entry.DueDate,
			strconv.Itoa(entry.DaysOverdue),
			formatAmount(entry.EstimatedFee),
		})
	}

	return renderRows(w, []string{"Date", "Loan", "Student", "Book", "Due", "Days Overdue", "Fee"}, overdue)
}

func formatAmount(amount float64) string {
	return strconv.FormatFloat(amount, 'f', -1, 64)
}
