package clients

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
)

func (c *Client) Themes(ctx context.Context) ([]Theme, error) {
	var out []Theme
	if err := c.do(ctx, http.MethodGet, "/themes", nil, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// CurrentTheme returns the student's active theme. A student without one gets
// a notFound error.
func (c *Client) CurrentTheme(ctx context.Context) (*Theme, error) {
	var out Theme
	if err := c.do(ctx, http.MethodGet, "/themes/current", nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) CreateTheme(ctx context.Context, in ThemeInput) (*Theme, error) {
	var out Theme
	if err := c.do(ctx, http.MethodPost, "/themes", nil, in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) AnalyzeReport(ctx context.Context, in AnalyzeRequest) (*AnalysisResult, error) {
	var out AnalysisResult
	if err := c.do(ctx, http.MethodPost, "/reports/analyze", nil, in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) CreateReport(ctx context.Context, in ReportCreate) (*Report, error) {
	var out Report
	if err := c.do(ctx, http.MethodPost, "/reports", nil, in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UploadImage posts the photo as multipart field "file" and returns the
// stored image URL.
func (c *Client) UploadImage(ctx context.Context, filename string, data []byte) (string, error) {
	var out struct {
		URL string `json:"url"`
	}
	if err := c.upload(ctx, "/reports/upload", "file", filename, data, &out); err != nil {
		return "", err
	}
	return out.URL, nil
}

func (c *Client) Reports(ctx context.Context, limit int) ([]Report, error) {
	var out []Report
	query := url.Values{}
	if limit > 0 {
		query.Set("limit", strconv.Itoa(limit))
	}
	if err := c.do(ctx, http.MethodGet, "/reports", query, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) ReportsByDate(ctx context.Context, date string) ([]DatedReport, error) {
	var out []DatedReport
	if err := c.do(ctx, http.MethodGet, "/reports/by-date/"+url.PathEscape(date), nil, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) Calendar(ctx context.Context, year, month int) (*CalendarResponse, error) {
	var out CalendarResponse
	query := url.Values{
		"year":  []string{strconv.Itoa(year)},
		"month": []string{strconv.Itoa(month)},
	}
	if err := c.do(ctx, http.MethodGet, "/reports/calendar", query, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Streak(ctx context.Context) (*Streak, error) {
	var out Streak
	if err := c.do(ctx, http.MethodGet, "/reports/streak", nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
