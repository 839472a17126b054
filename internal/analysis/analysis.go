// Package analysis shapes analysis results into the tables the terminal views print.
package analysis

import (
	"fmt"
	"io"
	"math"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/wolfeidau/sentiview/internal/models"
)

// Sentiments is the fixed display order of sentiment classes.
var Sentiments = []string{"negative", "neutral", "positive"}

// CountsRow is one model's sentiment counts.
type CountsRow struct {
	Model    string
	Negative int
	Neutral  int
	Positive int
}

// SentimentCountsTable pivots per model counts into rows, one per model sorted
// by name. Sentiments a model did not report count as zero.
func SentimentCountsTable(res *models.AnalysisResult) []CountsRow {
	names := make([]string, 0, len(res.SentimentCounts))
	for name := range res.SentimentCounts {
		names = append(names, name)
	}
	sort.Strings(names)

	rows := make([]CountsRow, 0, len(names))
	for _, name := range names {
		row := CountsRow{Model: name}
		for _, d := range res.SentimentCounts[name] {
			switch strings.ToLower(d.Sentiment) {
			case "negative":
				row.Negative += d.Count
			case "neutral":
				row.Neutral += d.Count
			case "positive":
				row.Positive += d.Count
			}
		}
		rows = append(rows, row)
	}

	return rows
}

// ModelScore is a model's accuracy.
type ModelScore struct {
	Model    string
	Accuracy float64
}

// ModelRanking orders models by accuracy, best first.
func ModelRanking(res *models.AnalysisResult) []ModelScore {
	scores := make([]ModelScore, 0, len(res.ModelComparison))
	for name, acc := range res.ModelComparison {
		scores = append(scores, ModelScore{Model: name, Accuracy: acc})
	}

	sort.Slice(scores, func(i, j int) bool {
		if scores[i].Accuracy != scores[j].Accuracy {
			return scores[i].Accuracy > scores[j].Accuracy
		}
		return scores[i].Model < scores[j].Model
	})

	return scores
}

// Distribution returns the overall sentiment split with percentages filled in
// when the backend left them out.
func Distribution(res *models.AnalysisResult) []models.SentimentData {
	total := 0
	for _, d := range res.SentimentDistribution {
		total += d.Count
	}

	out := make([]models.SentimentData, 0, len(res.SentimentDistribution))
	for _, d := range res.SentimentDistribution {
		if d.Percentage == 0 && total > 0 {
			d.Percentage = math.Round(float64(d.Count)*1000/float64(total)) / 10
		}
		out = append(out, d)
	}

	return out
}

// Render writes a text summary of every chart block present in res.
func Render(w io.Writer, res *models.AnalysisResult) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)

	fmt.Fprintf(tw, "Analysis %s: %q\n", res.ID, res.Query)
	if res.CreatedAt != "" {
		fmt.Fprintf(tw, "Created:\t%s\n", res.CreatedAt)
	}

	if dist := Distribution(res); len(dist) > 0 {
		fmt.Fprintln(tw, "\nSentiment distribution")
		for _, d := range dist {
			fmt.Fprintf(tw, "  %s\t%d\t%.1f%%\n", d.Sentiment, d.Count, d.Percentage)
		}
	}

	if ranking := ModelRanking(res); len(ranking) > 0 {
		fmt.Fprintln(tw, "\nModel accuracy")
		for _, s := range ranking {
			fmt.Fprintf(tw, "  %s\t%.1f%%\n", s.Model, s.Accuracy*100)
		}
	}

	if rows := SentimentCountsTable(res); len(rows) > 0 {
		fmt.Fprintln(tw, "\nSentiment count by model")
		fmt.Fprintln(tw, "  MODEL\tNEGATIVE\tNEUTRAL\tPOSITIVE")
		for _, r := range rows {
			fmt.Fprintf(tw, "  %s\t%d\t%d\t%d\n", r.Model, r.Negative, r.Neutral, r.Positive)
		}
	}

	if len(res.TimeSeriesData) > 0 {
		fmt.Fprintln(tw, "\nSentiment over time")
		fmt.Fprintln(tw, "  DATE\tPOSITIVE\tNEGATIVE\tNEUTRAL")
		for _, p := range res.TimeSeriesData {
			fmt.Fprintf(tw, "  %s\t%d\t%d\t%d\n", p.Date, p.Positive, p.Negative, p.Neutral)
		}
	}

	for _, name := range sortedKeys(res.ConfusionMatrices) {
		fmt.Fprintf(tw, "\nConfusion matrix: %s (rows actual, columns predicted)\n", name)
		fmt.Fprintln(tw, "  \tNEG\tNEU\tPOS")
		for i, row := range res.ConfusionMatrices[name] {
			label := fmt.Sprintf("row %d", i)
			if i < len(Sentiments) {
				label = Sentiments[i][:3]
			}
			cells := make([]string, len(row))
			for j, v := range row {
				cells[j] = fmt.Sprint(v)
			}
			fmt.Fprintf(tw, "  %s\t%s\n", strings.ToUpper(label), strings.Join(cells, "\t"))
		}
	}

	for _, sentiment := range sortedKeys(res.WordCloudData) {
		words := res.WordCloudData[sentiment]
		if len(words) > 10 {
			words = words[:10]
		}
		fmt.Fprintf(tw, "\nTop %s words:\t%s\n", sentiment, strings.Join(words, ", "))
	}

	if len(res.Charts) > 0 {
		fmt.Fprintln(tw, "\nAdditional charts")
		for _, c := range res.Charts {
			fmt.Fprintf(tw, "  %s\t%d bytes\n", c.Type, len(c.Data))
		}
	}

	return tw.Flush()
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
