package model

import "time"

// NewUser creates a top-level user document. Users are global, not
// repository-scoped: the same user can author content in many repositories.
func NewUser(id string, now time.Time) *Document {
	return &Document{
		ID:         id,
		ObjectType: ObjectUser,
		InsertedAt: now,
		UpdatedAt:  now,
	}
}

// NewOrganization creates a top-level organization document.
func NewOrganization(id string, now time.Time) *Document {
	return &Document{
		ID:         id,
		ObjectType: ObjectOrganization,
		InsertedAt: now,
		UpdatedAt:  now,
	}
}

// UserRelations lists the paginated relations carried by a user document.
var UserRelations = []Relation{RelationOrganizations}
