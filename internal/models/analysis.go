package models

import "encoding/json"

// AnalysisRequest is the body of POST /api/analyze_query/.
type AnalysisRequest struct {
	Query       string `json:"query"`
	UseLiveData bool   `json:"useLiveData"`
}

// SentimentData is one slice of a sentiment breakdown.
type SentimentData struct {
	Sentiment  string  `json:"sentiment"`
	Count      int     `json:"count"`
	Percentage float64 `json:"percentage,omitempty"`
}

// TimeSeriesPoint is the sentiment mix for one day.
type TimeSeriesPoint struct {
	Date     string `json:"date"`
	Positive int    `json:"positive"`
	Negative int    `json:"negative"`
	Neutral  int    `json:"neutral"`
}

// ChartData is a generic chart block the backend may attach to a result.
type ChartData struct {
	Type    string          `json:"type"`
	Data    json.RawMessage `json:"data"`
	Options json.RawMessage `json:"options,omitempty"`
}

// AnalysisResult is a completed analysis as returned by the analyze and report endpoints.
type AnalysisResult struct {
	ID        ID             `json:"id"`
	Query     string         `json:"query"`
	CreatedAt string         `json:"createdAt"`
	Charts    []ChartData    `json:"charts,omitempty"`
	Metrics   map[string]any `json:"metrics,omitempty"`

	SentimentDistribution []SentimentData            `json:"sentimentDistribution,omitempty"`
	ModelComparison       map[string]float64         `json:"modelComparison,omitempty"`
	SentimentCounts       map[string][]SentimentData `json:"sentimentCounts,omitempty"`
	TimeSeriesData        []TimeSeriesPoint          `json:"timeSeriesData,omitempty"`
	ConfusionMatrices     map[string][][]int         `json:"confusionMatrices,omitempty"`
	WordCloudData         map[string][]string        `json:"wordCloudData,omitempty"`
}
