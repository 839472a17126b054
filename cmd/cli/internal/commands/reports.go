package commands

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"text/tabwriter"
	"time"

	"github.com/wolfeidau/sentiview/internal/analysis"
)

// ReportsCmd browses past analyses.
type ReportsCmd struct {
	List ReportsListCmd `cmd:"" default:"1" help:"List past analyses"`
	Show ReportsShowCmd `cmd:"" help:"Show the charts of an analysis"`
	Pdf  ReportsPdfCmd  `cmd:"" name:"pdf" help:"Download the PDF report of an analysis"`
}

type ReportsListCmd struct {
	Page     int `help:"Page number" default:"1"`
	PageSize int `help:"Analyses per page" default:"10"`
}

func (l *ReportsListCmd) Run(ctx context.Context, globals *Globals) error {
	a, err := newApp(ctx, globals)
	if err != nil {
		return err
	}
	defer a.close()

	s, err := a.require("/reports")
	if err != nil {
		return err
	}

	reports, err := a.client.ListReports(ctx, s.Token)
	if err != nil {
		return fmt.Errorf("failed to list analyses: %w", err)
	}

	if len(reports) == 0 {
		fmt.Fprintln(a.out, "No analyses found. Run one with: sentiview analyze <query>")
		return nil
	}

	pageSize := max(l.PageSize, 1)
	lastPage := (len(reports) + pageSize - 1) / pageSize
	page := min(max(l.Page, 1), lastPage)
	start := (page - 1) * pageSize
	end := min(start+pageSize, len(reports))

	w := tabwriter.NewWriter(a.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tQUERY\tCREATED\tSTATUS")
	for _, r := range reports[start:end] {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", r.ID, r.Query, formatDate(r.CreatedAt), "Completed")
	}
	if err := w.Flush(); err != nil {
		return err
	}

	fmt.Fprintf(a.out, "\n%d-%d of %d", start+1, end, len(reports))
	if page < lastPage {
		fmt.Fprintf(a.out, ", use --page=%d to see the next page", page+1)
	}
	fmt.Fprintln(a.out)

	return nil
}

type ReportsShowCmd struct {
	ID string `arg:"" help:"Analysis ID"`
}

func (c *ReportsShowCmd) Run(ctx context.Context, globals *Globals) error {
	a, err := newApp(ctx, globals)
	if err != nil {
		return err
	}
	defer a.close()

	s, err := a.require("/analysis/" + c.ID)
	if err != nil {
		return err
	}

	res, err := a.client.GetReport(ctx, s.Token, c.ID)
	if err != nil {
		return fmt.Errorf("failed to load analysis %s: %w", c.ID, err)
	}

	return analysis.Render(a.out, res)
}

type ReportsPdfCmd struct {
	ID     string `arg:"" help:"Analysis ID"`
	Output string `help:"Output file, - for stdout (default analysis-<query>-<date>.pdf)" short:"o"`
}

func (c *ReportsPdfCmd) Run(ctx context.Context, globals *Globals) error {
	a, err := newApp(ctx, globals)
	if err != nil {
		return err
	}
	defer a.close()

	s, err := a.require("/reports")
	if err != nil {
		return err
	}

	if c.Output == "-" {
		_, err := a.client.DownloadPDF(ctx, s.Token, c.ID, a.out)
		return err
	}

	output := c.Output
	if output == "" {
		res, err := a.client.GetReport(ctx, s.Token, c.ID)
		if err != nil {
			return fmt.Errorf("failed to load analysis %s: %w", c.ID, err)
		}
		output = pdfFileName(res.Query, time.Now())
	}

	n, err := downloadTo(ctx, a, s.Token, c.ID, output)
	if err != nil {
		return err
	}

	fmt.Fprintf(globals.stderr(), "Saved %s (%d bytes)\n", output, n)
	return nil
}

// downloadTo writes the PDF next to output and renames it into place, so a
// failed download never leaves a truncated file behind.
func downloadTo(ctx context.Context, a *app, token, id, output string) (int64, error) {
	tmp, err := os.CreateTemp(filepath.Dir(output), ".sentiview-*.pdf")
	if err != nil {
		return 0, fmt.Errorf("failed to create output file: %w", err)
	}
	defer os.Remove(tmp.Name())

	n, err := a.client.DownloadPDF(ctx, token, id, tmp)
	if closeErr := tmp.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		return 0, fmt.Errorf("failed to download report: %w", err)
	}

	if err := os.Rename(tmp.Name(), output); err != nil {
		return 0, fmt.Errorf("failed to save report: %w", err)
	}

	return n, nil
}
