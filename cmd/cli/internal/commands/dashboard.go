package commands

import (
	"context"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/wolfeidau/sentiview/internal/guard"
	"github.com/wolfeidau/sentiview/internal/models"
)

const recentLimit = 3

// DashboardCmd shows analysis totals and the most recent analyses.
type DashboardCmd struct{}

func (d *DashboardCmd) Run(ctx context.Context, globals *Globals) error {
	a, err := newApp(ctx, globals)
	if err != nil {
		return err
	}
	defer a.close()

	return showDashboard(ctx, a)
}

func showDashboard(ctx context.Context, a *app) error {
	s, err := a.require(guard.LandingPath)
	if err != nil {
		return err
	}

	reports, err := a.client.ListReports(ctx, s.Token)
	if err != nil {
		return fmt.Errorf("failed to load analyses: %w", err)
	}

	st := dashboardStats(reports, time.Now())

	fmt.Fprintf(a.out, "Welcome back, %s\n\n", s.User.Name)

	w := tabwriter.NewWriter(a.out, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "Total analyses\t%d\n", st.Total)
	fmt.Fprintf(w, "This month\t%d\n", st.ThisMonth)
	fmt.Fprintf(w, "Last 7 days\t%d\n", st.Recent)
	if err := w.Flush(); err != nil {
		return err
	}

	if len(reports) == 0 {
		fmt.Fprintln(a.out, "\nNo analyses yet. Run one with: sentiview analyze <query>")
		return nil
	}

	fmt.Fprintln(a.out, "\nRecent analyses")
	w = tabwriter.NewWriter(a.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tQUERY\tCREATED")
	for _, r := range reports[:min(recentLimit, len(reports))] {
		fmt.Fprintf(w, "%s\t%s\t%s\n", r.ID, r.Query, formatDate(r.CreatedAt))
	}
	return w.Flush()
}

type stats struct {
	Total     int
	ThisMonth int
	Recent    int
}

// dashboardStats counts all analyses, those created in the current calendar
// month and those from the last seven days.
func dashboardStats(reports []models.AnalysisResult, now time.Time) stats {
	s := stats{Total: len(reports)}
	weekAgo := now.Add(-7 * 24 * time.Hour)

	for _, r := range reports {
		created, ok := parseDate(r.CreatedAt)
		if !ok {
			continue
		}
		created = created.In(now.Location())
		if created.Year() == now.Year() && created.Month() == now.Month() {
			s.ThisMonth++
		}
		if created.After(weekAgo) {
			s.Recent++
		}
	}

	return s
}
