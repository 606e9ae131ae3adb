package model

import "time"

// NewCommit creates a commit document. Commits are shared between pull
// requests; repository_id is a lookup back-reference, not ownership.
func NewCommit(id, repositoryID string, now time.Time) *Document {
	return &Document{
		ID:           id,
		ObjectType:   ObjectCommit,
		RepositoryID: repositoryID,
		InsertedAt:   now,
		UpdatedAt:    now,
	}
}

// NewCheckSuite creates a check suite document for a commit.
func NewCheckSuite(id, repositoryID, commitID string, now time.Time) *Document {
	return &Document{
		ID:           id,
		ObjectType:   ObjectCheckSuite,
		RepositoryID: repositoryID,
		CommitID:     commitID,
		InsertedAt:   now,
		UpdatedAt:    now,
	}
}

// CommitRelations lists the paginated relations carried by a commit document.
var CommitRelations = []Relation{
	RelationAuthors,
	RelationComments,
	RelationCheckSuites,
	RelationPullRequests,
}
