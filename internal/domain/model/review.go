package model

import "time"

// NewReview creates a pull request review document.
func NewReview(id, repositoryID string, now time.Time) *Document {
	return &Document{
		ID:           id,
		ObjectType:   ObjectPullRequestReview,
		RepositoryID: repositoryID,
		InsertedAt:   now,
		UpdatedAt:    now,
	}
}

// ReviewRelations lists the paginated relations carried by a review document.
var ReviewRelations = []Relation{RelationComments, RelationEdits, RelationReactions}
