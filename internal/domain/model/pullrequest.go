package model

import "time"

// NewPullRequest creates a pull request document. Declared totals for every
// nested relation arrive with the initial fetch; the accumulated arrays start
// empty and are filled in place by later tasks.
func NewPullRequest(id, repositoryID string, now time.Time) *Document {
	return &Document{
		ID:           id,
		ObjectType:   ObjectPullRequest,
		RepositoryID: repositoryID,
		InsertedAt:   now,
		UpdatedAt:    now,
	}
}

// PullRequestRelations lists the paginated relations carried by a pull
// request document.
var PullRequestRelations = []Relation{
	RelationParticipants,
	RelationComments,
	RelationReviews,
	RelationCommits,
	RelationEdits,
	RelationReactions,
}
