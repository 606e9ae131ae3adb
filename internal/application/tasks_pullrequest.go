package application

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/githarvest/githarvest/internal/domain/model"
)

type pullRequestNode struct {
	Author            *actorRef `json:"author"`
	AuthorAssociation string    `json:"authorAssociation"`
	BodyText          string    `json:"bodyText"`
	State             string    `json:"state"`
	CreatedAt         time.Time `json:"createdAt"`
	Participants      struct {
		TotalCount int `json:"totalCount"`
	} `json:"participants"`
	Comments struct {
		TotalCount int `json:"totalCount"`
	} `json:"comments"`
	Reviews struct {
		TotalCount int `json:"totalCount"`
	} `json:"reviews"`
	Commits struct {
		TotalCount int `json:"totalCount"`
	} `json:"commits"`
	UserContentEdits struct {
		TotalCount int `json:"totalCount"`
	} `json:"userContentEdits"`
	Reactions struct {
		TotalCount int `json:"totalCount"`
	} `json:"reactions"`
}

const pullRequestSelection = `author { __typename login }
      authorAssociation
      bodyText
      state
      createdAt
      participants { totalCount }
      comments { totalCount }
      reviews { totalCount }
      commits { totalCount }
      userContentEdits { totalCount }
      reactions { totalCount }`

// pullRequestsTask materializes one document per pull request id accumulated
// on the repository, carrying the declared totals every nested relation task
// compares against.
func (e *Engine) pullRequestsTask(scope Scope) *Task {
	return &Task{
		Name:     scope.task("pull-requests"),
		Requires: []string{scope.task("repository-pull-request-ids")},
		Completion: Completion{
			Kind:       CheckChildCount,
			Scope:      scope,
			ParentType: model.ObjectRepository,
			Relation:   model.RelationPullRequests,
			ChildType:  model.ObjectPullRequest,
		},
		Run: func(ctx context.Context) error {
			return e.fetchDocuments(ctx, scope, docSpec{
				parentType: model.ObjectRepository,
				relation:   model.RelationPullRequests,
				childType:  model.ObjectPullRequest,
				typeName:   "PullRequest",
				selection:  pullRequestSelection,
				build:      buildPullRequest,
			})
		},
	}
}

func buildPullRequest(ctx context.Context, e *Engine, parent *model.Document, id string, node json.RawMessage) (*model.Document, error) {
	doc := model.NewPullRequest(id, repositoryID(parent), e.now())
	if node == nil {
		doc.IsDeleted = true
		return doc, nil
	}

	var n pullRequestNode
	if err := json.Unmarshal(node, &n); err != nil {
		return nil, fmt.Errorf("decoding pull request node: %w", err)
	}

	author, err := resolveRef(ctx, e, n.Author)
	if err != nil {
		return nil, err
	}
	doc.Author = &author
	doc.AuthorAssociation = n.AuthorAssociation
	doc.BodyText = n.BodyText
	doc.State = n.State
	doc.CreatedAt = n.CreatedAt
	doc.TotalParticipants = n.Participants.TotalCount
	doc.TotalComments = n.Comments.TotalCount
	doc.TotalReviews = n.Reviews.TotalCount
	doc.TotalCommits = n.Commits.TotalCount
	doc.TotalEdits = n.UserContentEdits.TotalCount
	doc.TotalReactions = n.Reactions.TotalCount
	return doc, nil
}

// participantsTask fills the typed participant list of every pull request.
func (e *Engine) participantsTask(scope Scope) *Task {
	return &Task{
		Name:     scope.task("pull-request-participants"),
		Requires: []string{scope.task("pull-requests")},
		Completion: Completion{
			Kind:       CheckRelationFill,
			Scope:      scope,
			ParentType: model.ObjectPullRequest,
			Relation:   model.RelationParticipants,
		},
		Run: func(ctx context.Context) error {
			return e.fillRelation(ctx, scope, relationSpec{
				parentType: model.ObjectPullRequest,
				typeName:   "PullRequest",
				field:      "participants",
				relation:   model.RelationParticipants,
				selection:  "__typename id",
				mapNode:    typedActorMapper,
			})
		},
	}
}

// commentIDsTask accumulates the discussion comment ids of every pull
// request.
func (e *Engine) commentIDsTask(scope Scope) *Task {
	return &Task{
		Name:     scope.task("pull-request-comment-ids"),
		Requires: []string{scope.task("pull-requests")},
		Completion: Completion{
			Kind:       CheckRelationFill,
			Scope:      scope,
			ParentType: model.ObjectPullRequest,
			Relation:   model.RelationComments,
		},
		Run: func(ctx context.Context) error {
			return e.fillRelation(ctx, scope, relationSpec{
				parentType: model.ObjectPullRequest,
				typeName:   "PullRequest",
				field:      "comments",
				relation:   model.RelationComments,
				selection:  "id",
				mapNode:    idMapper,
			})
		},
	}
}

// reviewIDsTask accumulates the review ids of every pull request.
func (e *Engine) reviewIDsTask(scope Scope) *Task {
	return &Task{
		Name:     scope.task("pull-request-review-ids"),
		Requires: []string{scope.task("pull-requests")},
		Completion: Completion{
			Kind:       CheckRelationFill,
			Scope:      scope,
			ParentType: model.ObjectPullRequest,
			Relation:   model.RelationReviews,
		},
		Run: func(ctx context.Context) error {
			return e.fillRelation(ctx, scope, relationSpec{
				parentType: model.ObjectPullRequest,
				typeName:   "PullRequest",
				field:      "reviews",
				relation:   model.RelationReviews,
				selection:  "id",
				mapNode:    idMapper,
			})
		},
	}
}

// commitIDMapper unwraps the commit id from the pull request's commit edge,
// which nests the commit inside a join node.
func commitIDMapper(_ context.Context, _ *Engine, node json.RawMessage) (model.RelationPayload, error) {
	var n struct {
		Commit struct {
			ID string `json:"id"`
		} `json:"commit"`
	}
	if err := json.Unmarshal(node, &n); err != nil {
		return model.RelationPayload{}, fmt.Errorf("decoding commit edge: %w", err)
	}
	if n.Commit.ID == "" {
		return model.RelationPayload{}, nil
	}
	return model.RelationPayload{IDs: []string{n.Commit.ID}}, nil
}

// commitIDsTask accumulates the commit ids of every pull request.
func (e *Engine) commitIDsTask(scope Scope) *Task {
	return &Task{
		Name:     scope.task("pull-request-commit-ids"),
		Requires: []string{scope.task("pull-requests")},
		Completion: Completion{
			Kind:       CheckRelationFill,
			Scope:      scope,
			ParentType: model.ObjectPullRequest,
			Relation:   model.RelationCommits,
		},
		Run: func(ctx context.Context) error {
			return e.fillRelation(ctx, scope, relationSpec{
				parentType: model.ObjectPullRequest,
				typeName:   "PullRequest",
				field:      "commits",
				relation:   model.RelationCommits,
				selection:  "commit { id }",
				mapNode:    commitIDMapper,
			})
		},
	}
}

// pullRequestCommentsTask materializes the discussion comment documents.
func (e *Engine) pullRequestCommentsTask(scope Scope) *Task {
	return &Task{
		Name:     scope.task("pull-request-comments"),
		Requires: []string{scope.task("pull-request-comment-ids")},
		Completion: Completion{
			Kind:       CheckChildCount,
			Scope:      scope,
			ParentType: model.ObjectPullRequest,
			Relation:   model.RelationComments,
			ChildType:  model.ObjectPullRequestComment,
		},
		Run: func(ctx context.Context) error {
			return e.fetchDocuments(ctx, scope, docSpec{
				parentType: model.ObjectPullRequest,
				relation:   model.RelationComments,
				childType:  model.ObjectPullRequestComment,
				typeName:   "IssueComment",
				selection:  commentSelection,
				build: func(ctx context.Context, e *Engine, parent *model.Document, id string, node json.RawMessage) (*model.Document, error) {
					return buildComment(ctx, e, parent, id, node, model.ObjectPullRequestComment)
				},
			})
		},
	}
}
