package clients

import (
	"context"
	"net/http"
	"net/url"
)

func (c *Client) Abilities(ctx context.Context) ([]Ability, error) {
	var out []Ability
	if err := c.do(ctx, http.MethodGet, "/master/abilities", nil, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) ResearchPhases(ctx context.Context) ([]Phase, error) {
	var out []Phase
	if err := c.do(ctx, http.MethodGet, "/master/research-phases", nil, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) Books(ctx context.Context) ([]Book, error) {
	var out []Book
	if err := c.do(ctx, http.MethodGet, "/master/books", nil, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// SeminarLabs lists labs. Inactive labs are included so they can be
// reactivated from the management screen.
func (c *Client) SeminarLabs(ctx context.Context) ([]SeminarLab, error) {
	var out []SeminarLab
	query := url.Values{"include_inactive": []string{"true"}}
	if err := c.do(ctx, http.MethodGet, "/master/seminar-labs", query, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) CreateSeminarLab(ctx context.Context, in SeminarLabInput) (*SeminarLab, error) {
	var out SeminarLab
	if err := c.do(ctx, http.MethodPost, "/master/seminar-labs", nil, in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) UpdateSeminarLab(ctx context.Context, labID string, in SeminarLabInput) (*SeminarLab, error) {
	var out SeminarLab
	if err := c.do(ctx, http.MethodPut, "/master/seminar-labs/"+url.PathEscape(labID), nil, in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) DeleteSeminarLab(ctx context.Context, labID string) error {
	return c.do(ctx, http.MethodDelete, "/master/seminar-labs/"+url.PathEscape(labID), nil, nil, nil)
}

// AssignSeminarLab moves a student into labID. An empty labID unassigns.
func (c *Client) AssignSeminarLab(ctx context.Context, studentID, labID string) error {
	query := url.Values{}
	if labID != "" {
		query.Set("seminar_lab_id", labID)
	}
	return c.do(ctx, http.MethodPut, "/master/students/"+url.PathEscape(studentID)+"/seminar-lab", query, nil, nil)
}

func (c *Client) Chat(ctx context.Context, in ChatRequest) (*ChatResponse, error) {
	var out ChatResponse
	if err := c.do(ctx, http.MethodPost, "/ai/chat", nil, in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
