// Package api is the HTTP client for the Baby Bootcamp backend. The wire
// format is owned by the backend; this package maps its response envelopes
// onto the model types and its error envelope onto RequestError.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/aubrey-sherman/baby-bootcamp/internal/model"
	"github.com/aubrey-sherman/baby-bootcamp/internal/timezone"
)

const defaultBaseURL = "http://localhost:3001"

// ErrNotFound reports a 404 from the backend, e.g. an unknown username.
var ErrNotFound = errors.New("not found")

// RequestError carries the backend's field-level validation messages for a
// non-2xx response. The backend may return a single message or a list;
// either way callers see a list they can fan out to per-field display.
type RequestError struct {
	StatusCode int
	Messages   []string
}

func (e *RequestError) Error() string {
	return fmt.Sprintf("api request failed with status %d: %s", e.StatusCode, strings.Join(e.Messages, "; "))
}

// Client talks to the backend. The token is held per instance, not in
// package state, so separate sessions and tests never interfere.
type Client struct {
	BaseURL    string
	Token      string
	HTTPClient *http.Client
	Timezone   *timezone.Handler
}

func New(baseURL, token string, tz *timezone.Handler) *Client {
	return &Client{BaseURL: baseURL, Token: token, Timezone: tz}
}

func (c *Client) tz() *timezone.Handler {
	if c.Timezone == nil {
		c.Timezone = timezone.NewLocal()
	}
	return c.Timezone
}

// request performs one call against the backend. Every request carries the
// bearer token, the caller's resolved timezone, and a request id.
func (c *Client) request(ctx context.Context, method, path string, query url.Values, body, out any) error {
	baseURL := strings.TrimRight(strings.TrimSpace(c.BaseURL), "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	httpClient := c.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 15 * time.Second}
	}

	fullURL := baseURL + "/" + strings.TrimLeft(path, "/")
	if len(query) > 0 {
		fullURL += "?" + query.Encode()
	}

	var reqBody io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request payload: %w", err)
		}
		reqBody = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, fullURL, reqBody)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.Token)
	req.Header.Set("X-User-Timezone", c.tz().CurrentTimezone())
	req.Header.Set("X-Request-ID", uuid.NewString())

	resp, err := httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("execute %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response for %s %s: %w", method, path, err)
	}
	if resp.StatusCode == http.StatusNotFound {
		return fmt.Errorf("%s %s: %w", method, path, ErrNotFound)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return decodeError(resp.StatusCode, raw)
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode response for %s %s: %w", method, path, err)
	}
	return nil
}

// decodeError maps the backend's error envelope onto a RequestError. The
// envelope is {"error": {"message": <string or [string]>}}.
func decodeError(status int, raw []byte) error {
	var envelope struct {
		Error struct {
			Message json.RawMessage `json:"message"`
		} `json:"error"`
	}
	out := &RequestError{StatusCode: status}
	if err := json.Unmarshal(raw, &envelope); err == nil && len(envelope.Error.Message) > 0 {
		var list []string
		var single string
		if err := json.Unmarshal(envelope.Error.Message, &list); err == nil {
			out.Messages = list
		} else if err := json.Unmarshal(envelope.Error.Message, &single); err == nil {
			out.Messages = []string{single}
		}
	}
	if len(out.Messages) == 0 {
		out.Messages = []string{http.StatusText(status)}
	}
	return out
}

// GetCurrentUser fetches the signed-in user's profile.
func (c *Client) GetCurrentUser(ctx context.Context, username string) (model.UserProfile, error) {
	var resp struct {
		User model.UserProfile `json:"user"`
	}
	if err := c.request(ctx, http.MethodGet, "users/"+url.PathEscape(username), nil, nil, &resp); err != nil {
		return model.UserProfile{}, err
	}
	return resp.User, nil
}

// GetUserBlocksWithEntries fetches all of the user's blocks and their
// entries, ordered by block number.
func (c *Client) GetUserBlocksWithEntries(ctx context.Context) ([]model.FeedingBlock, error) {
	var resp struct {
		Blocks []model.FeedingBlock `json:"blocks"`
	}
	if err := c.request(ctx, http.MethodGet, "feeding-routes/blocks/entries", nil, nil, &resp); err != nil {
		return nil, err
	}
	sort.SliceStable(resp.Blocks, func(i, j int) bool {
		return resp.Blocks[i].Number < resp.Blocks[j].Number
	})
	return resp.Blocks, nil
}

// GetBlocksForWeek fetches blocks with their entries filtered to the given
// week. The backend seeds missing entries from each block's time pattern.
func (c *Client) GetBlocksForWeek(ctx context.Context, weekStart, weekEnd time.Time) ([]model.FeedingBlock, error) {
	startStr, err := c.tz().ToAPIString(weekStart)
	if err != nil {
		return nil, err
	}
	endStr, err := c.tz().ToAPIString(weekEnd)
	if err != nil {
		return nil, err
	}
	query := url.Values{}
	query.Set("startDate", startStr)
	query.Set("endDate", endStr)

	var resp struct {
		Blocks []model.FeedingBlock `json:"blocks"`
	}
	if err := c.request(ctx, http.MethodGet, "feeding-routes/blocks/entries", query, nil, &resp); err != nil {
		return nil, err
	}
	sort.SliceStable(resp.Blocks, func(i, j int) bool {
		return resp.Blocks[i].Number < resp.Blocks[j].Number
	})
	return resp.Blocks, nil
}

// CreateBlockWithEntries creates a new feeding block; the backend assigns
// the id and the next sequential number and seeds initial entries.
func (c *Client) CreateBlockWithEntries(ctx context.Context, isEliminating bool) (model.FeedingBlock, error) {
	var resp struct {
		Block   model.FeedingBlock   `json:"block"`
		Entries []model.FeedingEntry `json:"entries"`
	}
	body := map[string]any{"isEliminating": isEliminating}
	if err := c.request(ctx, http.MethodPost, "feeding-routes/blocks", nil, body, &resp); err != nil {
		return model.FeedingBlock{}, err
	}
	block := resp.Block
	block.FeedingEntries = resp.Entries
	return block, nil
}

// DeleteBlock deletes a feeding block; the backend handles resequencing of
// the remaining block numbers. Returns the deleted id.
func (c *Client) DeleteBlock(ctx context.Context, id string) (string, error) {
	var resp struct {
		Deleted string `json:"deleted"`
	}
	if err := c.request(ctx, http.MethodDelete, "feeding-routes/blocks/"+url.PathEscape(id), nil, map[string]any{}, &resp); err != nil {
		return "", err
	}
	return resp.Deleted, nil
}

// UpdateIsEliminating persists the eliminating flag for a block.
func (c *Client) UpdateIsEliminating(ctx context.Context, isEliminating bool, blockID string) (model.FeedingBlock, error) {
	var resp struct {
		Block model.FeedingBlock `json:"block"`
	}
	body := map[string]any{"isEliminating": isEliminating}
	if err := c.request(ctx, http.MethodPatch, "feeding-routes/blocks/"+url.PathEscape(blockID), nil, body, &resp); err != nil {
		return model.FeedingBlock{}, err
	}
	return resp.Block, nil
}

// SetStartDateForElimination records the baseline volume and the starting
// point for the block's elimination schedule.
func (c *Client) SetStartDateForElimination(ctx context.Context, baselineVolume float64, blockID string, startDate time.Time) (model.FeedingBlock, error) {
	formatted, err := c.tz().ToAPIString(startDate)
	if err != nil {
		return model.FeedingBlock{}, err
	}
	var resp struct {
		Block model.FeedingBlock `json:"block"`
	}
	body := map[string]any{"startDate": formatted, "baselineVolume": baselineVolume}
	if err := c.request(ctx, http.MethodPost, "feeding-routes/blocks/"+url.PathEscape(blockID)+"/elimination", nil, body, &resp); err != nil {
		return model.FeedingBlock{}, err
	}
	return resp.Block, nil
}

// UpdateTime updates the feeding time for the current and all subsequent
// entries in a block. Returns the block with updated entries.
func (c *Client) UpdateTime(ctx context.Context, blockID string, newTime time.Time) (model.FeedingBlock, error) {
	formatted, err := c.tz().ToAPIString(newTime)
	if err != nil {
		return model.FeedingBlock{}, err
	}
	var resp struct {
		Block model.FeedingBlock `json:"block"`
	}
	body := map[string]any{"feedingTime": formatted}
	if err := c.request(ctx, http.MethodPatch, "feeding-routes/blocks/"+url.PathEscape(blockID)+"/feeding-time", nil, body, &resp); err != nil {
		return model.FeedingBlock{}, err
	}
	return resp.Block, nil
}

// UpdateFeedingAmount saves a feeding volume. For an eliminating block the
// volume becomes the new baseline for the server's elimination schedule.
func (c *Client) UpdateFeedingAmount(ctx context.Context, volumeInOunces float64, entryID string) (model.FeedingBlock, error) {
	var resp struct {
		Block model.FeedingBlock `json:"block"`
	}
	body := map[string]any{"volumeInOunces": volumeInOunces}
	if err := c.request(ctx, http.MethodPatch, "feeding-routes/entries/"+url.PathEscape(entryID)+"/volume", nil, body, &resp); err != nil {
		return model.FeedingBlock{}, err
	}
	return resp.Block, nil
}

// RegisterUser signs up a new user and returns the session token.
func (c *Client) RegisterUser(ctx context.Context, params model.RegisterParams) (string, error) {
	var resp struct {
		Token string `json:"token"`
	}
	if err := c.request(ctx, http.MethodPost, "auth/register", nil, params, &resp); err != nil {
		return "", err
	}
	return resp.Token, nil
}

// LogInUser exchanges credentials for a session token.
func (c *Client) LogInUser(ctx context.Context, creds model.Credentials) (string, error) {
	var resp struct {
		Token string `json:"token"`
	}
	if err := c.request(ctx, http.MethodPost, "auth/token", nil, creds, &resp); err != nil {
		return "", err
	}
	c.Token = resp.Token
	return resp.Token, nil
}
