package application

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/githarvest/githarvest/internal/domain/model"
	"github.com/githarvest/githarvest/internal/domain/port/driven"
)

// task builds a scope-qualified task name.
func (s Scope) task(name string) string {
	return s.String() + ":" + name
}

// repositoryTask loads the repository's identity and declared pull request
// total by owner and name. Every other task in the repository subgraph hangs
// off the id this one persists.
func (e *Engine) repositoryTask(scope Scope) *Task {
	return &Task{
		Name: scope.task("repository"),
		Completion: Completion{
			Kind:  CheckExistence,
			Scope: scope,
		},
		Run: func(ctx context.Context) error {
			return e.loadRepository(ctx, scope)
		},
	}
}

func (e *Engine) loadRepository(ctx context.Context, scope Scope) error {
	raw, err := e.gateway.Execute(ctx, repositoryQuery(scope.Owner, scope.Name))
	if err != nil {
		return fmt.Errorf("loading repository %s: %w", scope, err)
	}
	env, err := decodeRepository(raw)
	if err != nil {
		return err
	}
	if env.Repository == nil {
		return fmt.Errorf("repository %s not found upstream", scope)
	}

	now := e.now()
	doc := model.NewRepository(scope.Owner, scope.Name, now)
	doc.ID = env.Repository.ID
	doc.IsFork = env.Repository.IsFork
	doc.TotalForks = env.Repository.ForkCount
	doc.TotalPullRequests = env.Repository.PullRequests.TotalCount

	existing, err := e.store.FindOne(ctx, driven.Filter{
		ObjectType: model.ObjectRepository,
		Owner:      scope.Owner,
		Name:       scope.Name,
	})
	if err != nil && !errors.Is(err, driven.ErrNotFound) {
		return err
	}
	if existing != nil {
		// Repository exists from a partial run; refresh identity in place.
		update := (&model.Update{}).
			SetTotal(model.RelationPullRequests, doc.TotalPullRequests).
			Touch(now)
		return e.store.UpdateOne(ctx, driven.Filter{
			ID:         existing.ID,
			ObjectType: model.ObjectRepository,
		}, *update)
	}
	return e.store.InsertOne(ctx, doc)
}

// pullRequestIDsTask accumulates the repository's pull request id list.
func (e *Engine) pullRequestIDsTask(scope Scope) *Task {
	return &Task{
		Name:     scope.task("repository-pull-request-ids"),
		Requires: []string{scope.task("repository")},
		Completion: Completion{
			Kind:       CheckRelationFill,
			Scope:      scope,
			ParentType: model.ObjectRepository,
			Relation:   model.RelationPullRequests,
		},
		Run: func(ctx context.Context) error {
			return e.fillRelation(ctx, scope, relationSpec{
				parentType: model.ObjectRepository,
				typeName:   "Repository",
				field:      "pullRequests",
				relation:   model.RelationPullRequests,
				selection:  "... on PullRequest { id }",
				mapNode:    idMapper,
			})
		},
	}
}

// idMapper extracts the node's own id.
func idMapper(_ context.Context, _ *Engine, node json.RawMessage) (model.RelationPayload, error) {
	var n struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(node, &n); err != nil {
		return model.RelationPayload{}, fmt.Errorf("decoding id node: %w", err)
	}
	if n.ID == "" {
		return model.RelationPayload{}, nil
	}
	return model.RelationPayload{IDs: []string{n.ID}}, nil
}

// typedActorMapper extracts an actor whose node exposes id and __typename
// directly, needing no cache lookup.
func typedActorMapper(_ context.Context, _ *Engine, node json.RawMessage) (model.RelationPayload, error) {
	var n struct {
		Typename string `json:"__typename"`
		ID       string `json:"id"`
	}
	if err := json.Unmarshal(node, &n); err != nil {
		return model.RelationPayload{}, fmt.Errorf("decoding actor node: %w", err)
	}
	if n.ID == "" {
		return model.RelationPayload{Actors: []model.Actor{model.UnknownActor("")}}, nil
	}
	actor := model.Actor{ID: n.ID, Type: model.ActorTypeFromTypename(n.Typename)}
	return model.RelationPayload{Actors: []model.Actor{actor}}, nil
}
