package application_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/githarvest/githarvest/internal/adapter/driven/memstore"
	"github.com/githarvest/githarvest/internal/application"
	"github.com/githarvest/githarvest/internal/domain/model"
	"github.com/githarvest/githarvest/internal/domain/port/driven"
)

var testScope = application.Scope{Owner: "acme", Name: "widgets"}

func seedRepository(t *testing.T, store *memstore.Store, totalPRs int, prIDs ...string) *model.Document {
	t.Helper()
	repo := model.NewRepository("acme", "widgets", time.Now())
	repo.ID = "R1"
	repo.TotalPullRequests = totalPRs
	repo.PullRequestIDs = prIDs
	require.NoError(t, store.InsertOne(context.Background(), repo))
	return repo
}

func TestOracleExistence(t *testing.T) {
	store := memstore.New()
	oracle := application.NewOracle(store, false, nil)
	completion := application.Completion{Kind: application.CheckExistence, Scope: testScope}

	ok, err := oracle.Satisfied(context.Background(), completion)
	require.NoError(t, err)
	assert.False(t, ok)

	seedRepository(t, store, 3)
	ok, err = oracle.Satisfied(context.Background(), completion)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestOracleRelationFill(t *testing.T) {
	store := memstore.New()
	oracle := application.NewOracle(store, false, nil)
	seedRepository(t, store, 3, "PR1", "PR2")

	completion := application.Completion{
		Kind:       application.CheckRelationFill,
		Scope:      testScope,
		ParentType: model.ObjectRepository,
		Relation:   model.RelationPullRequests,
	}

	expected, actual, err := oracle.CountsFor(context.Background(), completion)
	require.NoError(t, err)
	assert.Equal(t, 3, expected)
	assert.Equal(t, 2, actual)

	update := (&model.Update{}).SetRelation(model.RelationPullRequests,
		model.RelationPayload{IDs: []string{"PR1", "PR2", "PR3"}})
	require.NoError(t, store.UpdateOne(context.Background(),
		driven.Filter{ID: "R1", ObjectType: model.ObjectRepository}, *update))

	ok, err := oracle.Satisfied(context.Background(), completion)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestOracleRelationFillTreatsShortReturnAsSatisfied(t *testing.T) {
	store := memstore.New()
	seedRepository(t, store, 1, "PR1")

	review := model.NewReview("RV1", "R1", time.Now())
	review.TotalComments = 5
	review.CommentIDs = []string{"C1", "C2", "C3", "C4"}
	review.LoadStatus = map[model.Relation]model.LoadStatus{
		model.RelationComments: model.ReturnedLess,
	}
	require.NoError(t, store.InsertOne(context.Background(), review))

	completion := application.Completion{
		Kind:       application.CheckRelationFill,
		Scope:      testScope,
		ParentType: model.ObjectPullRequestReview,
		Relation:   model.RelationComments,
	}

	oracle := application.NewOracle(store, false, nil)
	ok, err := oracle.Satisfied(context.Background(), completion)
	require.NoError(t, err)
	assert.True(t, ok)

	// With short-return retry enabled the mismatch surfaces again.
	strict := application.NewOracle(store, true, nil)
	ok, err = strict.Satisfied(context.Background(), completion)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestOracleChildCountDeduplicatesSharedChildren(t *testing.T) {
	store := memstore.New()
	seedRepository(t, store, 2, "PR1", "PR2")
	now := time.Now()

	pr1 := model.NewPullRequest("PR1", "R1", now)
	pr1.TotalCommits = 2
	pr1.CommitIDs = []string{"CM1", "CM2"}
	pr2 := model.NewPullRequest("PR2", "R1", now)
	pr2.TotalCommits = 2
	pr2.CommitIDs = []string{"CM2", "CM3"}
	require.NoError(t, store.InsertOne(context.Background(), pr1))
	require.NoError(t, store.InsertOne(context.Background(), pr2))

	for _, id := range []string{"CM1", "CM2", "CM3"} {
		require.NoError(t, store.InsertOne(context.Background(), model.NewCommit(id, "R1", now)))
	}

	oracle := application.NewOracle(store, false, nil)
	expected, actual, err := oracle.CountsFor(context.Background(), application.Completion{
		Kind:       application.CheckChildCount,
		Scope:      testScope,
		ParentType: model.ObjectPullRequest,
		Relation:   model.RelationCommits,
		ChildType:  model.ObjectCommit,
	})
	require.NoError(t, err)
	assert.Equal(t, 3, expected)
	assert.Equal(t, 3, actual)
}

func TestOracleCustomCounts(t *testing.T) {
	store := memstore.New()
	oracle := application.NewOracle(store, false, nil)

	ok, err := oracle.Satisfied(context.Background(), application.Completion{
		Kind: application.CheckCustom,
		Counts: func(context.Context, driven.DocumentStore) (int, int, error) {
			return 2, 1, nil
		},
	})
	require.NoError(t, err)
	assert.False(t, ok)
}
