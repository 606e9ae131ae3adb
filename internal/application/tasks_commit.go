package application

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/githarvest/githarvest/internal/domain/model"
)

type commitNode struct {
	MessageHeadline string     `json:"messageHeadline"`
	Additions       int        `json:"additions"`
	Deletions       int        `json:"deletions"`
	CommittedDate   *time.Time `json:"committedDate"`
	PushedDate      *time.Time `json:"pushedDate"`
	Authors         struct {
		TotalCount int `json:"totalCount"`
	} `json:"authors"`
	Comments struct {
		TotalCount int `json:"totalCount"`
	} `json:"comments"`
	CheckSuites struct {
		TotalCount int `json:"totalCount"`
	} `json:"checkSuites"`
	AssociatedPullRequests struct {
		TotalCount int `json:"totalCount"`
	} `json:"associatedPullRequests"`
}

const commitSelection = `messageHeadline
      additions
      deletions
      committedDate
      pushedDate
      authors { totalCount }
      comments { totalCount }
      checkSuites { totalCount }
      associatedPullRequests { totalCount }`

// commitsTask materializes one commit document per commit id accumulated on
// pull requests. Commits are shared between pull requests and stored once.
func (e *Engine) commitsTask(scope Scope) *Task {
	return &Task{
		Name:     scope.task("commits"),
		Requires: []string{scope.task("pull-request-commit-ids")},
		Completion: Completion{
			Kind:       CheckChildCount,
			Scope:      scope,
			ParentType: model.ObjectPullRequest,
			Relation:   model.RelationCommits,
			ChildType:  model.ObjectCommit,
		},
		Run: func(ctx context.Context) error {
			return e.fetchDocuments(ctx, scope, docSpec{
				parentType: model.ObjectPullRequest,
				relation:   model.RelationCommits,
				childType:  model.ObjectCommit,
				typeName:   "Commit",
				selection:  commitSelection,
				build:      buildCommit,
			})
		},
	}
}

func buildCommit(_ context.Context, e *Engine, parent *model.Document, id string, node json.RawMessage) (*model.Document, error) {
	doc := model.NewCommit(id, repositoryID(parent), e.now())
	if node == nil {
		doc.IsDeleted = true
		return doc, nil
	}

	var n commitNode
	if err := json.Unmarshal(node, &n); err != nil {
		return nil, fmt.Errorf("decoding commit node: %w", err)
	}

	doc.MessageHeadline = n.MessageHeadline
	doc.Additions = n.Additions
	doc.Deletions = n.Deletions
	doc.CommittedAt = n.CommittedDate
	doc.PushedAt = n.PushedDate
	doc.TotalAuthors = n.Authors.TotalCount
	doc.TotalComments = n.Comments.TotalCount
	doc.TotalCheckSuites = n.CheckSuites.TotalCount
	doc.TotalPullRequests = n.AssociatedPullRequests.TotalCount
	return doc, nil
}

// commitAuthorMapper types a commit authorship entry. The committer record
// carries an optional user; absent users stay UNKNOWN.
func commitAuthorMapper(_ context.Context, _ *Engine, node json.RawMessage) (model.RelationPayload, error) {
	var n struct {
		User *struct {
			ID string `json:"id"`
		} `json:"user"`
	}
	if err := json.Unmarshal(node, &n); err != nil {
		return model.RelationPayload{}, fmt.Errorf("decoding commit author node: %w", err)
	}
	actor := model.UnknownActor("")
	if n.User != nil && n.User.ID != "" {
		actor = model.Actor{ID: n.User.ID, Type: model.ActorUser}
	}
	return model.RelationPayload{Actors: []model.Actor{actor}}, nil
}

// commitAuthorsTask fills the author list of every commit.
func (e *Engine) commitAuthorsTask(scope Scope) *Task {
	return &Task{
		Name:     scope.task("commit-authors"),
		Requires: []string{scope.task("commits")},
		Completion: Completion{
			Kind:       CheckRelationFill,
			Scope:      scope,
			ParentType: model.ObjectCommit,
			Relation:   model.RelationAuthors,
		},
		Run: func(ctx context.Context) error {
			return e.fillRelation(ctx, scope, relationSpec{
				parentType: model.ObjectCommit,
				typeName:   "Commit",
				field:      "authors",
				relation:   model.RelationAuthors,
				selection:  "user { id }",
				mapNode:    commitAuthorMapper,
			})
		},
	}
}

// commitCommentIDsTask accumulates the comment ids of every commit.
func (e *Engine) commitCommentIDsTask(scope Scope) *Task {
	return &Task{
		Name:     scope.task("commit-comment-ids"),
		Requires: []string{scope.task("commits")},
		Completion: Completion{
			Kind:       CheckRelationFill,
			Scope:      scope,
			ParentType: model.ObjectCommit,
			Relation:   model.RelationComments,
		},
		Run: func(ctx context.Context) error {
			return e.fillRelation(ctx, scope, relationSpec{
				parentType: model.ObjectCommit,
				typeName:   "Commit",
				field:      "comments",
				relation:   model.RelationComments,
				selection:  "id",
				mapNode:    idMapper,
			})
		},
	}
}

// commitCheckSuiteIDsTask accumulates the check suite ids of every commit.
func (e *Engine) commitCheckSuiteIDsTask(scope Scope) *Task {
	return &Task{
		Name:     scope.task("commit-check-suite-ids"),
		Requires: []string{scope.task("commits")},
		Completion: Completion{
			Kind:       CheckRelationFill,
			Scope:      scope,
			ParentType: model.ObjectCommit,
			Relation:   model.RelationCheckSuites,
		},
		Run: func(ctx context.Context) error {
			return e.fillRelation(ctx, scope, relationSpec{
				parentType: model.ObjectCommit,
				typeName:   "Commit",
				field:      "checkSuites",
				relation:   model.RelationCheckSuites,
				selection:  "id",
				mapNode:    idMapper,
			})
		},
	}
}

// commitPullRequestIDsTask accumulates the pull requests each commit is
// associated with, a lookup list rather than ownership.
func (e *Engine) commitPullRequestIDsTask(scope Scope) *Task {
	return &Task{
		Name:     scope.task("commit-pull-request-ids"),
		Requires: []string{scope.task("commits")},
		Completion: Completion{
			Kind:       CheckRelationFill,
			Scope:      scope,
			ParentType: model.ObjectCommit,
			Relation:   model.RelationPullRequests,
		},
		Run: func(ctx context.Context) error {
			return e.fillRelation(ctx, scope, relationSpec{
				parentType: model.ObjectCommit,
				typeName:   "Commit",
				field:      "associatedPullRequests",
				relation:   model.RelationPullRequests,
				selection:  "id",
				mapNode:    idMapper,
			})
		},
	}
}

// commitCommentsTask materializes the commit comment documents.
func (e *Engine) commitCommentsTask(scope Scope) *Task {
	return &Task{
		Name:     scope.task("commit-comments"),
		Requires: []string{scope.task("commit-comment-ids")},
		Completion: Completion{
			Kind:       CheckChildCount,
			Scope:      scope,
			ParentType: model.ObjectCommit,
			Relation:   model.RelationComments,
			ChildType:  model.ObjectCommitComment,
		},
		Run: func(ctx context.Context) error {
			return e.fetchDocuments(ctx, scope, docSpec{
				parentType: model.ObjectCommit,
				relation:   model.RelationComments,
				childType:  model.ObjectCommitComment,
				typeName:   "CommitComment",
				selection:  commentSelection,
				build: func(ctx context.Context, e *Engine, parent *model.Document, id string, node json.RawMessage) (*model.Document, error) {
					return buildComment(ctx, e, parent, id, node, model.ObjectCommitComment)
				},
			})
		},
	}
}

type checkSuiteNode struct {
	Status     string    `json:"status"`
	Conclusion string    `json:"conclusion"`
	CreatedAt  time.Time `json:"createdAt"`
}

// checkSuitesTask materializes the check suite documents of every commit.
func (e *Engine) checkSuitesTask(scope Scope) *Task {
	return &Task{
		Name:     scope.task("check-suites"),
		Requires: []string{scope.task("commit-check-suite-ids")},
		Completion: Completion{
			Kind:       CheckChildCount,
			Scope:      scope,
			ParentType: model.ObjectCommit,
			Relation:   model.RelationCheckSuites,
			ChildType:  model.ObjectCheckSuite,
		},
		Run: func(ctx context.Context) error {
			return e.fetchDocuments(ctx, scope, docSpec{
				parentType: model.ObjectCommit,
				relation:   model.RelationCheckSuites,
				childType:  model.ObjectCheckSuite,
				typeName:   "CheckSuite",
				selection:  "status conclusion createdAt",
				build:      buildCheckSuite,
			})
		},
	}
}

func buildCheckSuite(_ context.Context, e *Engine, parent *model.Document, id string, node json.RawMessage) (*model.Document, error) {
	doc := model.NewCheckSuite(id, repositoryID(parent), parent.ID, e.now())
	if node == nil {
		doc.IsDeleted = true
		return doc, nil
	}

	var n checkSuiteNode
	if err := json.Unmarshal(node, &n); err != nil {
		return nil, fmt.Errorf("decoding check suite node: %w", err)
	}
	doc.CheckStatus = n.Status
	doc.CheckConclusion = n.Conclusion
	doc.CreatedAt = n.CreatedAt
	return doc, nil
}
