package model

import "time"

// MinimizedStatusNone is stored when a comment has not been minimized.
const MinimizedStatusNone = "NOT_MINIMIZED"

// newComment is the shared base for the three comment document classes.
func newComment(objectType ObjectType, id, repositoryID string, now time.Time) *Document {
	return &Document{
		ID:              id,
		ObjectType:      objectType,
		RepositoryID:    repositoryID,
		MinimizedStatus: MinimizedStatusNone,
		InsertedAt:      now,
		UpdatedAt:       now,
	}
}

// NewPullRequestComment creates a discussion comment on a pull request.
func NewPullRequestComment(id, repositoryID string, now time.Time) *Document {
	return newComment(ObjectPullRequestComment, id, repositoryID, now)
}

// NewReviewComment creates an inline comment belonging to a review.
func NewReviewComment(id, repositoryID string, now time.Time) *Document {
	return newComment(ObjectPullRequestReviewComment, id, repositoryID, now)
}

// NewCommitComment creates a comment attached directly to a commit.
func NewCommitComment(id, repositoryID string, now time.Time) *Document {
	return newComment(ObjectCommitComment, id, repositoryID, now)
}

// CommentRelations lists the paginated relations every comment class carries.
var CommentRelations = []Relation{RelationEdits, RelationReactions}
