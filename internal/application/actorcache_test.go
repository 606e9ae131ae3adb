package application_test

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/githarvest/githarvest/internal/application"
	"github.com/githarvest/githarvest/internal/domain/model"
)

// fakeGateway scripts responses per query and records traffic.
type fakeGateway struct {
	calls   int
	queries []string
	handler func(query string) (json.RawMessage, error)
}

func (g *fakeGateway) Execute(_ context.Context, query string) (json.RawMessage, error) {
	g.calls++
	g.queries = append(g.queries, query)
	return g.handler(query)
}

func typenameResponse(typename string) json.RawMessage {
	return json.RawMessage(`{"node":{"__typename":"` + typename + `"}}`)
}

func searchResponse(hasNext bool, endCursor string, nodes ...string) json.RawMessage {
	body := `{"search":{"userCount":` + "2" + `,"pageInfo":{"hasNextPage":` +
		boolJSON(hasNext) + `,"endCursor":"` + endCursor + `"},"edges":[`
	for i, n := range nodes {
		if i > 0 {
			body += ","
		}
		body += `{"cursor":"c","node":` + n + `}`
	}
	return json.RawMessage(body + `]}}`)
}

func boolJSON(b bool) string {
	if b {
		return "true"
	}
	return "false"
}

func TestResolveByIDMemoizes(t *testing.T) {
	gw := &fakeGateway{handler: func(string) (json.RawMessage, error) {
		return typenameResponse("Bot"), nil
	}}
	cache := application.NewActorCache(gw, 100, true, nil)

	first, err := cache.ResolveByID(context.Background(), "A1")
	require.NoError(t, err)
	second, err := cache.ResolveByID(context.Background(), "A1")
	require.NoError(t, err)

	assert.Equal(t, model.Actor{ID: "A1", Type: model.ActorBot}, first)
	assert.Equal(t, first, second)
	assert.Equal(t, 1, gw.calls)
}

func TestResolveByIDUnknownTypename(t *testing.T) {
	gw := &fakeGateway{handler: func(string) (json.RawMessage, error) {
		return typenameResponse("Topic"), nil
	}}
	cache := application.NewActorCache(gw, 100, true, nil)

	actor, err := cache.ResolveByID(context.Background(), "T1")
	require.NoError(t, err)
	assert.Equal(t, model.ActorUnknown, actor.Type)

	// Negative result is memoized when negative caching is on.
	_, err = cache.ResolveByID(context.Background(), "T1")
	require.NoError(t, err)
	assert.Equal(t, 1, gw.calls)
}

func TestResolveByIDNegativeCachingOff(t *testing.T) {
	gw := &fakeGateway{handler: func(string) (json.RawMessage, error) {
		return json.RawMessage(`{"node":null}`), nil
	}}
	cache := application.NewActorCache(gw, 100, false, nil)

	_, err := cache.ResolveByID(context.Background(), "gone")
	require.NoError(t, err)
	_, err = cache.ResolveByID(context.Background(), "gone")
	require.NoError(t, err)
	assert.Equal(t, 2, gw.calls)
}

func TestResolveByLoginExactMatchOnly(t *testing.T) {
	gw := &fakeGateway{handler: func(query string) (json.RawMessage, error) {
		require.Contains(t, query, "search(")
		return searchResponse(false, "",
			`{"__typename":"User","id":"U9","login":"alice-bot"}`,
			`{"__typename":"User","id":"U1","login":"alice"}`,
		), nil
	}}
	cache := application.NewActorCache(gw, 100, true, nil)

	actor, err := cache.ResolveByLogin(context.Background(), "alice")
	require.NoError(t, err)
	assert.Equal(t, model.Actor{ID: "U1", Type: model.ActorUser}, actor)

	// A positive login resolution also seeds the id cache.
	byID, err := cache.ResolveByID(context.Background(), "U1")
	require.NoError(t, err)
	assert.Equal(t, actor, byID)
	assert.Equal(t, 1, gw.calls)
}

func TestResolveByLoginExhaustsPagination(t *testing.T) {
	gw := &fakeGateway{handler: func(query string) (json.RawMessage, error) {
		if strings.Contains(query, `after: "next"`) {
			return searchResponse(false, "",
				`{"__typename":"User","id":"U2","login":"bobby"}`), nil
		}
		return searchResponse(true, "next",
			`{"__typename":"User","id":"U9","login":"bob-smith"}`), nil
	}}
	cache := application.NewActorCache(gw, 100, true, nil)

	actor, err := cache.ResolveByLogin(context.Background(), "bob")
	require.NoError(t, err)
	assert.Equal(t, model.UnknownActor("bob"), actor)
	assert.Equal(t, 2, gw.calls)

	// Memoized negative: no further search traffic for the same login.
	_, err = cache.ResolveByLogin(context.Background(), "bob")
	require.NoError(t, err)
	assert.Equal(t, 2, gw.calls)
}

func TestResolveEmptyInputs(t *testing.T) {
	gw := &fakeGateway{handler: func(string) (json.RawMessage, error) {
		t.Fatal("gateway should not be called")
		return nil, nil
	}}
	cache := application.NewActorCache(gw, 100, true, nil)

	actor, err := cache.ResolveByID(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, model.ActorUnknown, actor.Type)

	actor, err = cache.ResolveByLogin(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, model.ActorUnknown, actor.Type)
}
