package application

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/githarvest/githarvest/internal/domain/model"
)

type reviewNode struct {
	Author            *actorRef `json:"author"`
	AuthorAssociation string    `json:"authorAssociation"`
	BodyText          string    `json:"bodyText"`
	State             string    `json:"state"`
	CreatedAt         time.Time `json:"createdAt"`
	Comments          struct {
		TotalCount int `json:"totalCount"`
	} `json:"comments"`
	UserContentEdits struct {
		TotalCount int `json:"totalCount"`
	} `json:"userContentEdits"`
	Reactions struct {
		TotalCount int `json:"totalCount"`
	} `json:"reactions"`
}

const reviewSelection = `author { __typename login }
      authorAssociation
      bodyText
      state
      createdAt
      comments { totalCount }
      userContentEdits { totalCount }
      reactions { totalCount }`

// reviewsTask materializes one review document per review id accumulated on
// pull requests.
func (e *Engine) reviewsTask(scope Scope) *Task {
	return &Task{
		Name:     scope.task("reviews"),
		Requires: []string{scope.task("pull-request-review-ids")},
		Completion: Completion{
			Kind:       CheckChildCount,
			Scope:      scope,
			ParentType: model.ObjectPullRequest,
			Relation:   model.RelationReviews,
			ChildType:  model.ObjectPullRequestReview,
		},
		Run: func(ctx context.Context) error {
			return e.fetchDocuments(ctx, scope, docSpec{
				parentType: model.ObjectPullRequest,
				relation:   model.RelationReviews,
				childType:  model.ObjectPullRequestReview,
				typeName:   "PullRequestReview",
				selection:  reviewSelection,
				build:      buildReview,
			})
		},
	}
}

func buildReview(ctx context.Context, e *Engine, parent *model.Document, id string, node json.RawMessage) (*model.Document, error) {
	doc := model.NewReview(id, repositoryID(parent), e.now())
	doc.PullRequestID = parent.ID
	if node == nil {
		doc.IsDeleted = true
		return doc, nil
	}

	var n reviewNode
	if err := json.Unmarshal(node, &n); err != nil {
		return nil, fmt.Errorf("decoding review node: %w", err)
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
	doc.TotalComments = n.Comments.TotalCount
	doc.TotalEdits = n.UserContentEdits.TotalCount
	doc.TotalReactions = n.Reactions.TotalCount
	return doc, nil
}

// reviewCommentIDsTask accumulates the inline comment ids of every review.
func (e *Engine) reviewCommentIDsTask(scope Scope) *Task {
	return &Task{
		Name:     scope.task("review-comment-ids"),
		Requires: []string{scope.task("reviews")},
		Completion: Completion{
			Kind:       CheckRelationFill,
			Scope:      scope,
			ParentType: model.ObjectPullRequestReview,
			Relation:   model.RelationComments,
		},
		Run: func(ctx context.Context) error {
			return e.fillRelation(ctx, scope, relationSpec{
				parentType: model.ObjectPullRequestReview,
				typeName:   "PullRequestReview",
				field:      "comments",
				relation:   model.RelationComments,
				selection:  "id",
				mapNode:    idMapper,
			})
		},
	}
}

// reviewCommentsTask materializes the inline review comment documents.
func (e *Engine) reviewCommentsTask(scope Scope) *Task {
	return &Task{
		Name:     scope.task("review-comments"),
		Requires: []string{scope.task("review-comment-ids")},
		Completion: Completion{
			Kind:       CheckChildCount,
			Scope:      scope,
			ParentType: model.ObjectPullRequestReview,
			Relation:   model.RelationComments,
			ChildType:  model.ObjectPullRequestReviewComment,
		},
		Run: func(ctx context.Context) error {
			return e.fetchDocuments(ctx, scope, docSpec{
				parentType: model.ObjectPullRequestReview,
				relation:   model.RelationComments,
				childType:  model.ObjectPullRequestReviewComment,
				typeName:   "PullRequestReviewComment",
				selection:  commentSelection,
				build: func(ctx context.Context, e *Engine, parent *model.Document, id string, node json.RawMessage) (*model.Document, error) {
					return buildComment(ctx, e, parent, id, node, model.ObjectPullRequestReviewComment)
				},
			})
		},
	}
}
