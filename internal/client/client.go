// Package client talks to the catalog API over HTTP.
package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"muscledynamics/workout-planner/internal/api"
	"muscledynamics/workout-planner/internal/domain"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// DefaultTimeout bounds every request made by the client.
const DefaultTimeout = 10 * time.Second

// Client is a catalog API client. It is safe for concurrent use.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// New returns a client for the API rooted at baseURL (including any base path).
func New(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Exercises runs a filter query.
func (c *Client) Exercises(ctx context.Context, criteria domain.SelectionCriteria, page domain.Pagination) (*domain.ExercisePage, error) {
	q := url.Values{}
	for _, m := range criteria.Muscles {
		q.Add("muscles", m)
	}
	for _, e := range criteria.Equipment {
		q.Add("equipment", string(e))
	}
	if criteria.Difficulty != "" {
		q.Set("difficulty", string(criteria.Difficulty))
	}
	if page.Limit > 0 {
		q.Set("limit", strconv.Itoa(page.Limit))
	}
	if page.Offset > 0 {
		q.Set("offset", strconv.Itoa(page.Offset))
	}

	var resp api.ExerciseListResponse
	if err := c.get(ctx, "/exercises", q, &resp); err != nil {
		return nil, err
	}
	items := make([]domain.Exercise, 0, len(resp.Items))
	for i := range resp.Items {
		items = append(items, fromResponse(&resp.Items[i]))
	}
	return &domain.ExercisePage{Items: items, Total: resp.Total, Limit: resp.Limit, Offset: resp.Offset}, nil
}

// Exercise fetches one record by id.
func (c *Client) Exercise(ctx context.Context, id string) (*domain.Exercise, error) {
	var resp api.ExerciseResponse
	if err := c.get(ctx, "/exercises/"+url.PathEscape(id), nil, &resp); err != nil {
		return nil, err
	}
	ex := fromResponse(&resp)
	return &ex, nil
}

func (c *Client) Muscles(ctx context.Context) ([]string, error) {
	var resp api.TagsResponse
	if err := c.get(ctx, "/exercises/muscles", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Tags, nil
}

func (c *Client) Equipment(ctx context.Context) ([]string, error) {
	var resp api.TagsResponse
	if err := c.get(ctx, "/exercises/equipment", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Tags, nil
}

func (c *Client) Health(ctx context.Context) (*api.HealthResponse, error) {
	var resp api.HealthResponse
	if err := c.get(ctx, "/health", nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) get(ctx context.Context, path string, query url.Values, out interface{}) error {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return domain.Query("build request", err)
	}
	req.Header.Set("Accept", "application/json")

	res, err := c.httpClient.Do(req)
	if err != nil {
		var netErr interface{ Timeout() bool }
		if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
			return domain.Query("request timed out", err)
		}
		return domain.Query("catalog unreachable", err)
	}
	defer res.Body.Close()

	body, err := io.ReadAll(io.LimitReader(res.Body, 4<<20))
	if err != nil {
		return domain.Query("read response", err)
	}

	switch {
	case res.StatusCode == http.StatusNotFound:
		return domain.NotFound(errorMessage(body, "exercise no longer available"))
	case res.StatusCode >= 400:
		return domain.Query(errorMessage(body, res.Status), fmt.Errorf("GET %s: %s", path, res.Status))
	}

	if err := json.Unmarshal(body, out); err != nil {
		return domain.Query("decode response", err)
	}
	return nil
}

// errorMessage extracts {"error": "..."} from an error body.
func errorMessage(body []byte, fallback string) string {
	var e struct {
		Error string `json:"error"`
	}
	if json.Unmarshal(body, &e) == nil && e.Error != "" {
		return e.Error
	}
	return fallback
}

// fromResponse maps an API record back to the domain type. Images carry the
// resolved URLs rather than storage references.
func fromResponse(r *api.ExerciseResponse) domain.Exercise {
	id, _ := primitive.ObjectIDFromHex(r.ID)
	images := r.AllImages
	if len(images) == 0 {
		images = r.Images
	}
	return domain.Exercise{
		ID:               id,
		Name:             r.Name,
		Description:      r.Description,
		PrimaryMuscles:   r.PrimaryMuscles,
		SecondaryMuscles: r.SecondaryMuscles,
		Equipment:        domain.Equipment(r.Equipment),
		Category:         domain.Category(r.Category),
		Difficulty:       domain.Difficulty(r.Difficulty),
		Force:            r.Force,
		Mechanic:         r.Mechanic,
		Instructions:     r.Instructions,
		Images:           images,
		Aliases:          r.Aliases,
		Reps:             r.Reps,
		Sets:             r.Sets,
		RestSeconds:      r.RestSeconds,
		Rating:           r.Rating,
		UsageCount:       r.UsageCount,
		CreatedAt:        r.CreatedAt,
		UpdatedAt:        r.UpdatedAt,
	}
}
