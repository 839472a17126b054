package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/wolfeidau/sentiview/internal/models"
)

// ErrInvalidID is returned for report IDs that cannot name a single report.
var ErrInvalidID = errors.New("invalid report id")

// reportPath escapes id as one path segment. Dot segments would be cleaned
// away by the URL join and address a different endpoint.
func reportPath(op, id string) (string, error) {
	switch strings.TrimSpace(id) {
	case "", ".", "..":
		return "", fmt.Errorf("%s: %w %q", op, ErrInvalidID, id)
	}
	return url.PathEscape(id), nil
}

// RunAnalysis starts a query analysis. It is not idempotent and is never retried.
func (c *Client) RunAnalysis(ctx context.Context, token string, req models.AnalysisRequest) (*models.AnalysisResult, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("analyze: failed to marshal request: %w", err)
	}

	var res models.AnalysisResult
	err = c.doJSON(ctx, call{
		op:          "analyze",
		method:      http.MethodPost,
		path:        "/api/analyze_query/",
		token:       token,
		body:        bytes.NewReader(body),
		contentType: "application/json",
	}, &res)
	if err != nil {
		return nil, err
	}

	return &res, nil
}

// ListReports returns the analysis history of the token's owner.
func (c *Client) ListReports(ctx context.Context, token string) ([]models.AnalysisResult, error) {
	resp, err := c.doRead(ctx, call{
		op:     "list reports",
		method: http.MethodGet,
		path:   "/api/reports/",
		token:  token,
	})
	if err != nil {
		return nil, err
	}

	var reports []models.AnalysisResult
	if err := decodeJSON("list reports", resp, &reports); err != nil {
		return nil, err
	}

	return reports, nil
}

// GetReport returns a single analysis. Responses may be served from the cache.
func (c *Client) GetReport(ctx context.Context, token, id string) (*models.AnalysisResult, error) {
	seg, err := reportPath("get report", id)
	if err != nil {
		return nil, err
	}

	resp, err := c.doRead(ctx, call{
		op:         "get report",
		method:     http.MethodGet,
		path:       "/api/reports/" + seg,
		token:      token,
		httpClient: c.reader(token),
	})
	if err != nil {
		return nil, err
	}

	var res models.AnalysisResult
	if err := decodeJSON("get report", resp, &res); err != nil {
		return nil, err
	}

	return &res, nil
}

// DownloadPDF streams the PDF report for an analysis into w.
func (c *Client) DownloadPDF(ctx context.Context, token, id string, w io.Writer) (int64, error) {
	seg, err := reportPath("download pdf", id)
	if err != nil {
		return 0, err
	}

	resp, err := c.doRead(ctx, call{
		op:         "download pdf",
		method:     http.MethodGet,
		path:       "/api/" + seg + "/pdf/",
		token:      token,
		accept:     "application/pdf",
		httpClient: c.reader(token),
	})
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	n, err := io.Copy(w, resp.Body)
	if err != nil {
		return n, fmt.Errorf("download pdf: failed to read response: %w", err)
	}

	return n, nil
}
