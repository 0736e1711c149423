package search

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/sirupsen/logrus"
)

// Searcher is what the search screen needs from a backend.
type Searcher interface {
	Search(ctx context.Context, query string) ([]string, error)
}

// Error is the single failure kind of a search: transport, status or
// decoding. Reason is meant for display.
type Error struct {
	Query string
	Err   error
}

func (e *Error) Error() string {
	return fmt.Sprintf("search %q failed: %v", e.Query, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func (e *Error) Reason() string {
	return e.Err.Error()
}

var ErrUnexpectedStatus = errors.New("unexpected status")

type Client struct {
	endpoint   *url.URL
	httpClient *http.Client
	log        logrus.FieldLogger
}

var _ Searcher = (*Client)(nil)

func NewClient(endpoint string, timeout time.Duration, log logrus.FieldLogger) (*Client, error) {
	u, err := url.Parse(endpoint)
	if err != nil {
		return nil, fmt.Errorf("invalid endpoint: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("invalid endpoint: unsupported scheme %q", u.Scheme)
	}
	if log == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		log = l
	}

	return &Client{
		endpoint:   u,
		httpClient: &http.Client{Timeout: timeout},
		log:        log,
	}, nil
}

// Search returns the backend's matches for query in backend order. An empty
// query returns an empty list without touching the network.
func (c *Client) Search(ctx context.Context, query string) ([]string, error) {
	if query == "" {
		return []string{}, nil
	}

	results, err := c.fetch(ctx, query)
	if err != nil {
		c.log.WithError(err).WithField("query", query).Warn("search failed")
		return nil, &Error{Query: query, Err: err}
	}

	c.log.WithFields(logrus.Fields{"query": query, "results": len(results)}).Debug("search complete")
	return results, nil
}

func (c *Client) fetch(ctx context.Context, query string) ([]string, error) {
	u := *c.endpoint
	params := u.Query()
	params.Set("q", query)
	u.RawQuery = params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close() //nolint:errcheck

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%w: %s", ErrUnexpectedStatus, resp.Status)
	}

	var results []string
	if err := json.Unmarshal(body, &results); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	if results == nil {
		results = []string{}
	}

	return results, nil
}
