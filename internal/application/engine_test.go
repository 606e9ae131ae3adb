package application_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/githarvest/githarvest/internal/adapter/driven/memstore"
	"github.com/githarvest/githarvest/internal/application"
	"github.com/githarvest/githarvest/internal/domain/model"
	"github.com/githarvest/githarvest/internal/domain/port/driven"
)

func connResponse(total int, hasNext bool, endCursor string, nodes ...string) (json.RawMessage, error) {
	edges := make([]string, 0, len(nodes))
	for i, n := range nodes {
		edges = append(edges, fmt.Sprintf(`{"cursor":"edge-%d","node":%s}`, i, n))
	}
	body := fmt.Sprintf(
		`{"node":{"connection":{"totalCount":%d,"pageInfo":{"hasNextPage":%s,"endCursor":%q},"edges":[%s]}}}`,
		total, boolJSON(hasNext), endCursor, strings.Join(edges, ","))
	return json.RawMessage(body), nil
}

func nodeResponse(body string) (json.RawMessage, error) {
	return json.RawMessage(`{"node":` + body + `}`), nil
}

func newPipeline(store driven.DocumentStore, gw *fakeGateway, pageSize int) *application.Pipeline {
	actors := application.NewActorCache(gw, pageSize, true, nil)
	oracle := application.NewOracle(store, false, nil)
	engine := application.NewEngine(store, gw, actors, oracle, pageSize, nil)
	scheduler := application.NewScheduler(oracle, nil)
	return application.NewPipeline(engine, scheduler, 1, nil)
}

const aliceAuthor = `{"__typename":"User","login":"alice"}`

func prNode(reviews int) string {
	return fmt.Sprintf(`{"author":%s,"authorAssociation":"MEMBER","bodyText":"change","state":"MERGED","createdAt":"2024-03-01T10:00:00Z",
		"participants":{"totalCount":0},"comments":{"totalCount":0},"reviews":{"totalCount":%d},
		"commits":{"totalCount":0},"userContentEdits":{"totalCount":0},"reactions":{"totalCount":0}}`, aliceAuthor, reviews)
}

const reviewNodeJSON = `{"author":` + aliceAuthor + `,"authorAssociation":"MEMBER","bodyText":"lgtm","state":"APPROVED","createdAt":"2024-03-02T10:00:00Z",
	"comments":{"totalCount":5},"userContentEdits":{"totalCount":0},"reactions":{"totalCount":0}}`

const commentNodeJSON = `{"author":` + aliceAuthor + `,"authorAssociation":"MEMBER","bodyText":"nit","createdAt":"2024-03-02T11:00:00Z",
	"isMinimized":false,"minimizedReason":"","userContentEdits":{"totalCount":0},"reactions":{"totalCount":0}}`

// harvestHandler scripts a repository with three pull requests. PR1 carries
// one review that declares five inline comments but only ever returns four.
func harvestHandler(query string) (json.RawMessage, error) {
	switch {
	case strings.Contains(query, `repository(owner: "acme", name: "widgets")`):
		return json.RawMessage(`{"repository":{"id":"R1","isFork":false,"forkCount":2,"pullRequests":{"totalCount":3}}}`), nil

	case strings.Contains(query, `node(id: "R1")`) && strings.Contains(query, "connection: pullRequests("):
		return connResponse(3, false, "pr-end", `{"id":"PR1"}`, `{"id":"PR2"}`, `{"id":"PR3"}`)

	case strings.Contains(query, "search("):
		return searchResponse(false, "", `{"__typename":"User","id":"U1","login":"alice"}`), nil

	case strings.Contains(query, `node(id: "PR1")`) && strings.Contains(query, "connection: reviews("):
		return connResponse(1, false, "rv-end", `{"id":"RV1"}`)

	case strings.Contains(query, `node(id: "PR1")`):
		return nodeResponse(prNode(1))
	case strings.Contains(query, `node(id: "PR2")`):
		return nodeResponse(prNode(0))
	case strings.Contains(query, `node(id: "PR3")`):
		return nodeResponse(prNode(0))

	case strings.Contains(query, `node(id: "RV1")`) && strings.Contains(query, "connection: comments("):
		return connResponse(5, false, "cm-end",
			`{"id":"C1"}`, `{"id":"C2"}`, `{"id":"C3"}`, `{"id":"C4"}`)
	case strings.Contains(query, `node(id: "RV1")`):
		return nodeResponse(reviewNodeJSON)

	case strings.Contains(query, `node(id: "C1")`),
		strings.Contains(query, `node(id: "C2")`),
		strings.Contains(query, `node(id: "C3")`),
		strings.Contains(query, `node(id: "C4")`):
		return nodeResponse(commentNodeJSON)

	case strings.Contains(query, `node(id: "U1")`) && strings.Contains(query, "connection: organizations("):
		return connResponse(1, false, "org-end", `{"id":"O1"}`)
	case strings.Contains(query, `node(id: "U1")`):
		return nodeResponse(`{"login":"alice","name":"Alice","company":"Acme","email":"","location":"","createdAt":"2020-01-01T00:00:00Z","organizations":{"totalCount":1}}`)

	case strings.Contains(query, `node(id: "O1")`):
		return nodeResponse(`{"login":"acme-inc","name":"Acme Inc","email":"","location":"","createdAt":"2019-01-01T00:00:00Z"}`)
	}
	return nil, fmt.Errorf("unexpected query: %s", query)
}

func TestPipelineHarvestsRepository(t *testing.T) {
	store := memstore.New()
	gw := &fakeGateway{handler: harvestHandler}
	pipeline := newPipeline(store, gw, 100)

	report, err := pipeline.Run(context.Background(), []application.Scope{testScope})
	require.NoError(t, err)
	require.Empty(t, report.Failed())
	assert.True(t, report.Clean())

	ctx := context.Background()

	repo, err := store.FindOne(ctx, driven.Filter{ID: "R1", ObjectType: model.ObjectRepository})
	require.NoError(t, err)
	assert.Equal(t, 3, repo.TotalPullRequests)
	assert.ElementsMatch(t, []string{"PR1", "PR2", "PR3"}, repo.PullRequestIDs)
	assert.Equal(t, model.LoadedSuccessfully, repo.StatusFor(model.RelationPullRequests))

	prs, err := store.Find(ctx, driven.Filter{ObjectType: model.ObjectPullRequest, RepositoryID: "R1"})
	require.NoError(t, err)
	require.Len(t, prs, 3)
	for _, pr := range prs {
		require.NotNil(t, pr.Author)
		assert.Equal(t, model.Actor{ID: "U1", Type: model.ActorUser}, *pr.Author)
	}

	// The review declared 5 comments but the remote only returned 4: the
	// document carries the degraded marker and exactly 4 comment documents
	// exist.
	review, err := store.FindOne(ctx, driven.Filter{ID: "RV1", ObjectType: model.ObjectPullRequestReview})
	require.NoError(t, err)
	assert.Equal(t, 5, review.TotalComments)
	assert.Len(t, review.CommentIDs, 4)
	assert.Equal(t, model.ReturnedLess, review.StatusFor(model.RelationComments))

	n, err := store.Count(ctx, driven.Filter{ObjectType: model.ObjectPullRequestReviewComment})
	require.NoError(t, err)
	assert.Equal(t, int64(4), n)

	user, err := store.FindOne(ctx, driven.Filter{ID: "U1", ObjectType: model.ObjectUser})
	require.NoError(t, err)
	assert.Equal(t, "alice", user.Login)
	assert.Equal(t, []string{"O1"}, user.OrganizationIDs)

	_, err = store.FindOne(ctx, driven.Filter{ID: "O1", ObjectType: model.ObjectOrganization})
	require.NoError(t, err)
}

func TestPipelineSecondRunMakesNoRemoteCalls(t *testing.T) {
	store := memstore.New()
	gw := &fakeGateway{handler: harvestHandler}
	pipeline := newPipeline(store, gw, 100)

	_, err := pipeline.Run(context.Background(), []application.Scope{testScope})
	require.NoError(t, err)
	firstRunCalls := gw.calls
	firstRunDocs := store.Len()

	report, err := pipeline.Run(context.Background(), []application.Scope{testScope})
	require.NoError(t, err)
	assert.True(t, report.Clean())
	assert.Equal(t, firstRunCalls, gw.calls, "second run must not touch the remote")
	assert.Equal(t, firstRunDocs, store.Len())
}

func TestPipelineActorResolvedOncePerRun(t *testing.T) {
	store := memstore.New()
	gw := &fakeGateway{handler: harvestHandler}
	pipeline := newPipeline(store, gw, 100)

	_, err := pipeline.Run(context.Background(), []application.Scope{testScope})
	require.NoError(t, err)

	searches := 0
	for _, q := range gw.queries {
		if strings.Contains(q, "search(") {
			searches++
		}
	}
	assert.Equal(t, 1, searches, "alice appears on many documents but resolves once")
}

// resumableHandler scripts a two-page pull request id walk whose second page
// fails until recover is set.
type resumableHandler struct {
	recover   bool
	pageAfter []string
}

func (h *resumableHandler) handle(query string) (json.RawMessage, error) {
	switch {
	case strings.Contains(query, `repository(owner: "acme", name: "widgets")`):
		return json.RawMessage(`{"repository":{"id":"R1","isFork":false,"forkCount":0,"pullRequests":{"totalCount":4}}}`), nil

	case strings.Contains(query, `node(id: "R1")`) && strings.Contains(query, "connection: pullRequests("):
		if strings.Contains(query, `after: "p1"`) {
			h.pageAfter = append(h.pageAfter, "p1")
			if !h.recover {
				return nil, errors.New("connection reset")
			}
			return connResponse(4, false, "p2", `{"id":"PR3"}`, `{"id":"PR4"}`)
		}
		h.pageAfter = append(h.pageAfter, "")
		return connResponse(4, true, "p1", `{"id":"PR1"}`, `{"id":"PR2"}`)

	case strings.Contains(query, `node(id: "PR`):
		return nodeResponse(`{"author":null,"authorAssociation":"NONE","bodyText":"","state":"CLOSED","createdAt":"2024-01-01T00:00:00Z",
			"participants":{"totalCount":0},"comments":{"totalCount":0},"reviews":{"totalCount":0},
			"commits":{"totalCount":0},"userContentEdits":{"totalCount":0},"reactions":{"totalCount":0}}`)
	}
	return nil, fmt.Errorf("unexpected query: %s", query)
}

func TestPipelineResumesInterruptedWalk(t *testing.T) {
	store := memstore.New()
	handler := &resumableHandler{}
	gw := &fakeGateway{handler: handler.handle}
	pipeline := newPipeline(store, gw, 2)

	report, err := pipeline.Run(context.Background(), []application.Scope{testScope})
	require.NoError(t, err)
	require.Len(t, report.Failed(), 1)

	// The first page was persisted together with its resume cursor before
	// the failure.
	repo, err := store.FindOne(context.Background(), driven.Filter{ID: "R1", ObjectType: model.ObjectRepository})
	require.NoError(t, err)
	assert.Equal(t, []string{"PR1", "PR2"}, repo.PullRequestIDs)
	assert.Equal(t, "p1", repo.CursorFor(model.RelationPullRequests))

	handler.recover = true
	handler.pageAfter = nil

	report, err = pipeline.Run(context.Background(), []application.Scope{testScope})
	require.NoError(t, err)
	assert.True(t, report.Clean())

	// The resumed walk continued from the stored cursor; page one was never
	// fetched again.
	assert.Equal(t, []string{"p1"}, handler.pageAfter)

	repo, err = store.FindOne(context.Background(), driven.Filter{ID: "R1", ObjectType: model.ObjectRepository})
	require.NoError(t, err)
	assert.Equal(t, []string{"PR1", "PR2", "PR3", "PR4"}, repo.PullRequestIDs)

	n, err := store.Count(context.Background(), driven.Filter{ObjectType: model.ObjectPullRequest})
	require.NoError(t, err)
	assert.Equal(t, int64(4), n)
}
