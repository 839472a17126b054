package commands

import (
	"context"
	"fmt"
	"strings"

	"github.com/wolfeidau/sentiview/internal/analysis"
	"github.com/wolfeidau/sentiview/internal/models"
)

// AnalyzeCmd runs a new sentiment analysis and prints its charts.
type AnalyzeCmd struct {
	Query string `arg:"" help:"Search query to analyze"`
	Live  bool   `help:"Fetch live social media data instead of the sample set"`
}

func (c *AnalyzeCmd) Run(ctx context.Context, globals *Globals) error {
	if err := check(required("query", c.Query, "Please enter a search query")); err != nil {
		return err
	}

	a, err := newApp(ctx, globals)
	if err != nil {
		return err
	}
	defer a.close()

	s, err := a.require("/analysis")
	if err != nil {
		return err
	}

	res, err := a.client.RunAnalysis(ctx, s.Token, models.AnalysisRequest{
		Query:       strings.TrimSpace(c.Query),
		UseLiveData: c.Live,
	})
	if err != nil {
		return fmt.Errorf("failed to run analysis: %w", err)
	}

	if err := analysis.Render(a.out, res); err != nil {
		return err
	}

	fmt.Fprintf(a.out, "\nShow again with: sentiview reports show %s\n", res.ID)
	return nil
}
