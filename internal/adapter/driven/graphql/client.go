// Package graphql implements the Gateway port against a GraphQL-style POST
// endpoint: one query in, one JSON envelope out, with a bounded fixed-interval
// retry state machine absorbing transient and rate-limit failures.
package graphql

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/githarvest/githarvest/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.Gateway = (*Client)(nil)

// RetryPolicy bounds the client's retry behavior. Every failure class is
// retried the same bounded number of times; only the sleep interval differs.
type RetryPolicy struct {
	// Retries is the number of additional attempts after the first failure.
	Retries int
	// ShortInterval is slept after transport errors, non-200 statuses and
	// malformed bodies.
	ShortInterval time.Duration
	// RateLimitInterval is slept when the response carries errors but no
	// data, which is read as a quota or rate-limit condition.
	RateLimitInterval time.Duration
}

// DefaultRetryPolicy is three retries with a one minute short wait and a
// thirty minute rate-limit wait.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		Retries:           3,
		ShortInterval:     60 * time.Second,
		RateLimitInterval: 1800 * time.Second,
	}
}

// Client executes queries against a single remote endpoint with bearer-token
// auth. It is safe for concurrent use; each call runs its own retry loop.
type Client struct {
	url    string
	token  string
	policy RetryPolicy
	httpc  *http.Client
	log    *slog.Logger
}

// NewClient creates a gateway client for the given endpoint.
func NewClient(url, token string, policy RetryPolicy, log *slog.Logger) *Client {
	if log == nil {
		log = slog.Default()
	}
	return &Client{
		url:    url,
		token:  token,
		policy: policy,
		httpc:  &http.Client{Timeout: 30 * time.Second},
		log:    log,
	}
}

// request is the JSON body sent to the remote endpoint.
type request struct {
	Query string `json:"query"`
}

// envelope is the outer response shape: either data or errors is present.
type envelope struct {
	Data   json.RawMessage `json:"data"`
	Errors json.RawMessage `json:"errors"`
}

// Execute runs one logical query. Failures are classified and retried on a
// fixed interval up to the policy's budget; the sleeps select on ctx so a
// long rate-limit wait can be aborted by cancellation or deadline.
func (c *Client) Execute(ctx context.Context, query string) (json.RawMessage, error) {
	attempts := c.policy.Retries + 1

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		data, err := c.once(ctx, query)
		if err == nil {
			return data, nil
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		lastErr = err

		if attempt == attempts {
			break
		}

		wait := c.policy.ShortInterval
		if errors.Is(err, ErrRateLimited) {
			wait = c.policy.RateLimitInterval
		}
		c.log.Warn("query failed, backing off",
			"attempt", attempt,
			"wait", wait,
			"error", err,
		)
		if err := sleep(ctx, wait); err != nil {
			return nil, err
		}
	}

	return nil, &ExhaustedError{Attempts: attempts, Query: query, Last: lastErr}
}

// once performs a single request/classify cycle.
func (c *Client) once(ctx context.Context, query string) (json.RawMessage, error) {
	body, err := json.Marshal(request{Query: query})
	if err != nil {
		return nil, fmt.Errorf("marshaling query: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	httpReq.Header.Set("Authorization", "bearer "+c.token)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpc.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("executing request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, &StatusError{Code: resp.StatusCode}
	}

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	if len(env.Data) > 0 && string(env.Data) != "null" {
		return env.Data, nil
	}
	if len(env.Errors) > 0 && string(env.Errors) != "null" {
		return nil, fmt.Errorf("%w: %s", ErrRateLimited, truncate(env.Errors, 512))
	}
	return nil, fmt.Errorf("%w: body has neither data nor errors", ErrMalformed)
}

// sleep blocks for d or until ctx is done, whichever comes first.
func sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func truncate(raw json.RawMessage, limit int) string {
	if len(raw) <= limit {
		return string(raw)
	}
	return string(raw[:limit]) + "..."
}
