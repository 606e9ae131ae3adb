package application

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/githarvest/githarvest/internal/domain/model"
	"github.com/githarvest/githarvest/internal/domain/port/driven"
)

// ActorCache resolves opaque identity references to typed actors, memoized
// for the lifetime of a run. The identity space is bounded by the run's own
// data, so the cache is unbounded. Safe for concurrent use.
type ActorCache struct {
	gateway       driven.Gateway
	log           *slog.Logger
	pageSize      int
	cacheNegative bool

	mu      sync.Mutex
	byID    map[string]model.Actor
	byLogin map[string]model.Actor
}

// NewActorCache creates an empty cache. cacheNegative controls whether
// unresolved lookups are memoized as UNKNOWN for the rest of the run or
// re-attempted on the next reference.
func NewActorCache(gateway driven.Gateway, pageSize int, cacheNegative bool, log *slog.Logger) *ActorCache {
	if log == nil {
		log = slog.Default()
	}
	return &ActorCache{
		gateway:       gateway,
		log:           log,
		pageSize:      pageSize,
		cacheNegative: cacheNegative,
		byID:          make(map[string]model.Actor),
		byLogin:       make(map[string]model.Actor),
	}
}

// ResolveByID types the actor behind a node id with a single typename
// lookup. An absent or unrecognized identity resolves to UNKNOWN; only
// gateway failures are errors.
func (c *ActorCache) ResolveByID(ctx context.Context, id string) (model.Actor, error) {
	if id == "" {
		return model.UnknownActor(""), nil
	}

	c.mu.Lock()
	if actor, ok := c.byID[id]; ok {
		c.mu.Unlock()
		return actor, nil
	}
	c.mu.Unlock()

	raw, err := c.gateway.Execute(ctx, typenameQuery(id))
	if err != nil {
		return model.Actor{}, fmt.Errorf("resolving actor %s: %w", id, err)
	}
	typename, err := decodeTypename(raw)
	if err != nil {
		return model.Actor{}, fmt.Errorf("resolving actor %s: %w", id, err)
	}

	actor := model.Actor{ID: id, Type: model.ActorTypeFromTypename(typename)}
	if actor.Type != model.ActorUnknown || c.cacheNegative {
		c.mu.Lock()
		c.byID[id] = actor
		c.mu.Unlock()
	}
	if actor.Type == model.ActorUnknown {
		c.log.Warn("actor id did not resolve to a known type", "id", id, "typename", typename)
	}
	return actor, nil
}

// searchNode is the per-edge payload of a user search page.
type searchNode struct {
	Typename string `json:"__typename"`
	ID       string `json:"id"`
	Login    string `json:"login"`
}

// ResolveByLogin finds the actor behind a display login via a paginated
// search with exact-match filtering. When no page yields an exact match the
// search's own pagination is exhausted and an UNKNOWN sentinel carrying the
// login as its id is returned.
func (c *ActorCache) ResolveByLogin(ctx context.Context, login string) (model.Actor, error) {
	if login == "" {
		return model.UnknownActor(""), nil
	}

	c.mu.Lock()
	if actor, ok := c.byLogin[login]; ok {
		c.mu.Unlock()
		return actor, nil
	}
	c.mu.Unlock()

	actor, err := c.searchLogin(ctx, login)
	if err != nil {
		return model.Actor{}, fmt.Errorf("resolving login %q: %w", login, err)
	}

	if actor.Type != model.ActorUnknown || c.cacheNegative {
		c.mu.Lock()
		c.byLogin[login] = actor
		if actor.Type != model.ActorUnknown {
			c.byID[actor.ID] = actor
		}
		c.mu.Unlock()
	}
	if actor.Type == model.ActorUnknown {
		c.log.Warn("login did not resolve to an actor", "login", login)
	}
	return actor, nil
}

func (c *ActorCache) searchLogin(ctx context.Context, login string) (model.Actor, error) {
	after := ""
	for {
		raw, err := c.gateway.Execute(ctx, userSearchQuery(login, c.pageSize, after))
		if err != nil {
			return model.Actor{}, err
		}
		page, err := decodeSearch(raw)
		if err != nil {
			return model.Actor{}, err
		}

		for _, edge := range page.Edges {
			var node searchNode
			if err := json.Unmarshal(edge.Node, &node); err != nil {
				continue
			}
			if strings.EqualFold(node.Login, login) {
				return model.Actor{ID: node.ID, Type: model.ActorTypeFromTypename(node.Typename)}, nil
			}
		}

		if !page.HasNextPage || len(page.Edges) == 0 {
			return model.UnknownActor(login), nil
		}
		after = page.EndCursor
	}
}
