package clients

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
)

func (c *Client) Students(ctx context.Context) ([]StudentSummary, error) {
	var out []StudentSummary
	if err := c.do(ctx, http.MethodGet, "/dashboard/students", nil, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) Student(ctx context.Context, studentID string) (*StudentDetail, error) {
	var out StudentDetail
	if err := c.do(ctx, http.MethodGet, "/dashboard/students/"+url.PathEscape(studentID), nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) StudentReports(ctx context.Context, studentID string, limit int) ([]Report, error) {
	var out []Report
	query := url.Values{}
	if limit > 0 {
		query.Set("limit", strconv.Itoa(limit))
	}
	path := "/dashboard/students/" + url.PathEscape(studentID) + "/reports"
	if err := c.do(ctx, http.MethodGet, path, query, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) UpdateStudent(ctx context.Context, studentID string, in StudentUpdate) error {
	return c.do(ctx, http.MethodPut, "/dashboard/students/"+url.PathEscape(studentID), nil, in, nil)
}

func (c *Client) ScatterData(ctx context.Context) (*ScatterData, error) {
	var out ScatterData
	if err := c.do(ctx, http.MethodGet, "/dashboard/scatter-data", nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) StudentThemes(ctx context.Context, studentID string) ([]Theme, error) {
	var out []Theme
	if err := c.do(ctx, http.MethodGet, "/teacher/themes/student/"+url.PathEscape(studentID), nil, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) CreateStudentTheme(ctx context.Context, studentID string, in ThemeInput) (*Theme, error) {
	var out Theme
	if err := c.do(ctx, http.MethodPost, "/teacher/themes/student/"+url.PathEscape(studentID), nil, in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) UpdateTheme(ctx context.Context, themeID string, in ThemeInput) (*Theme, error) {
	var out Theme
	if err := c.do(ctx, http.MethodPut, "/teacher/themes/"+url.PathEscape(themeID), nil, in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) DeleteTheme(ctx context.Context, themeID string) error {
	return c.do(ctx, http.MethodDelete, "/teacher/themes/"+url.PathEscape(themeID), nil, nil, nil)
}
