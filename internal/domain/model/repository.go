package model

import "time"

// NewRepository creates the repository document for (owner, name). The id and
// declared pull request total are filled in by the repository load task once
// the remote API has answered; until then the document does not exist.
func NewRepository(owner, name string, now time.Time) *Document {
	return &Document{
		ObjectType: ObjectRepository,
		Owner:      owner,
		Name:       name,
		InsertedAt: now,
		UpdatedAt:  now,
	}
}

// RepositoryRelations lists the paginated relations carried by a repository
// document.
var RepositoryRelations = []Relation{RelationPullRequests}
