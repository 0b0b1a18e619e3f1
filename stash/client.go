// Package stash provides a client for the Stash GraphQL API.
package stash

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/samber/lo"
	"github.com/sceneplay/sceneplay/log"
	"github.com/sceneplay/sceneplay/network"
	"github.com/sceneplay/sceneplay/scene"
	"github.com/sceneplay/sceneplay/util"
)

// ErrNotFound is returned when the server has no scene with the requested ID.
var ErrNotFound = errors.New("scene not found")

// Client talks to one Stash server.
type Client struct {
	endpoint string
	apiKey   string
	http     *http.Client
}

// NewClient creates a client for the server at baseURL. apiKey may be empty for
// servers without authentication.
func NewClient(baseURL, apiKey string) *Client {
	return &Client{
		endpoint: strings.TrimRight(baseURL, "/") + "/graphql",
		apiKey:   apiKey,
		http:     network.Client,
	}
}

type graphqlError struct {
	Message string `json:"message"`
}

type graphqlResponse[T any] struct {
	Data   T              `json:"data"`
	Errors []graphqlError `json:"errors"`
}

func do[T any](ctx context.Context, c *Client, query string, variables map[string]any) (T, error) {
	var zero T

	body, err := json.Marshal(map[string]any{
		"query":     query,
		"variables": variables,
	})
	if err != nil {
		return zero, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return zero, err
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set("ApiKey", c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		log.Error(err)
		return zero, err
	}
	defer util.Ignore(resp.Body.Close)

	if resp.StatusCode != http.StatusOK {
		log.Errorf("stash returned status code %d", resp.StatusCode)
		return zero, fmt.Errorf("stash: invalid response code %d", resp.StatusCode)
	}

	var response graphqlResponse[T]
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		log.Error(err)
		return zero, fmt.Errorf("stash: decode response: %w", err)
	}

	if len(response.Errors) > 0 {
		messages := lo.Map(response.Errors, func(e graphqlError, _ int) string { return e.Message })
		return zero, fmt.Errorf("stash: %s", strings.Join(messages, "; "))
	}

	return response.Data, nil
}

// FindScene fetches the full scene snapshot.
func (c *Client) FindScene(ctx context.Context, id string) (*scene.Scene, error) {
	log.Scene(id).Info("fetching scene from stash")

	data, err := do[struct {
		FindScene *scene.Scene `json:"findScene"`
	}](ctx, c, findSceneQuery, map[string]any{"id": id})
	if err != nil {
		return nil, err
	}

	if data.FindScene == nil {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return data.FindScene, nil
}

// SaveActivity records the resume point and adds played seconds to the scene's play duration.
func (c *Client) SaveActivity(ctx context.Context, id string, resume, played float64) error {
	_, err := do[json.RawMessage](ctx, c, saveActivityMutation, map[string]any{
		"id":     id,
		"resume": resume,
		"played": played,
	})
	if err != nil {
		return fmt.Errorf("save activity: %w", err)
	}
	return nil
}

// IncrementPlayCount bumps the scene's play counter and returns the new count.
func (c *Client) IncrementPlayCount(ctx context.Context, id string) (int, error) {
	data, err := do[struct {
		Count int `json:"sceneIncrementPlayCount"`
	}](ctx, c, incrementPlayCountMutation, map[string]any{"id": id})
	if err != nil {
		return 0, fmt.Errorf("increment play count: %w", err)
	}
	return data.Count, nil
}
