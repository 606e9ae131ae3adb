// Package driven defines the outbound ports of the harvesting engine.
package driven

import (
	"context"
	"encoding/json"
)

// Gateway issues one logical query against the remote paginated API and
// returns the parsed data payload. Implementations own retry and backoff;
// a returned error means the bounded retry budget is exhausted and the
// failure is terminal for the calling task.
type Gateway interface {
	Execute(ctx context.Context, query string) (json.RawMessage, error)
}
