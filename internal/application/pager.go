// Package application holds the harvesting pipeline: the cursor walker, the
// completion oracle, the dependency-ordered task graph and its scheduler, and
// the per-entity fetch tasks that tie them to the remote API.
package application

import (
	"context"
	"encoding/json"
	"fmt"
)

// Edge is one element of a paginated connection: the node payload plus the
// cursor naming its position.
type Edge struct {
	Cursor string          `json:"cursor"`
	Node   json.RawMessage `json:"node"`
}

// Page is one window of a paginated connection.
type Page struct {
	TotalCount  int    `json:"totalCount"`
	HasNextPage bool   `json:"hasNextPage"`
	EndCursor   string `json:"endCursor"`
	Edges       []Edge `json:"edges"`
}

// PageFetcher retrieves one page starting after the given cursor. An empty
// cursor means the first page.
type PageFetcher func(ctx context.Context, after string) (Page, error)

// WalkOutcome reports how a connection walk terminated.
type WalkOutcome int

const (
	// WalkComplete means the accumulated count reached the expected total.
	WalkComplete WalkOutcome = iota
	// WalkShortReturn means the remote reported no further pages before the
	// expected total was reached. The remote's declared count was wrong or
	// items vanished mid-walk; the caller decides whether that is terminal.
	WalkShortReturn
)

// PageSink receives each fetched page. Returning an error aborts the walk;
// the sink is expected to persist progress so a later walk can resume.
type PageSink func(page Page) error

// WalkConnection pulls pages from fetch until expected items have been seen
// or the remote reports no more pages. Each page is handed to sink before the
// next fetch, so progress persisted by the sink survives an abort. resume, if
// non-empty, is the cursor of the last persisted page; already counts the
// items accumulated before this walk started.
func WalkConnection(ctx context.Context, fetch PageFetcher, sink PageSink, expected, already int, resume string) (WalkOutcome, error) {
	cursor := resume
	seen := already

	for seen < expected {
		page, err := fetch(ctx, cursor)
		if err != nil {
			return WalkShortReturn, err
		}

		if len(page.Edges) == 0 {
			// An empty page with more promised would loop forever.
			return WalkShortReturn, nil
		}

		if err := sink(page); err != nil {
			return WalkShortReturn, fmt.Errorf("handling page after %q: %w", cursor, err)
		}

		seen += len(page.Edges)
		cursor = page.EndCursor

		if !page.HasNextPage {
			break
		}
	}

	if seen < expected {
		return WalkShortReturn, nil
	}
	return WalkComplete, nil
}
