package mongo

import (
	"go.mongodb.org/mongo-driver/bson"

	"github.com/githarvest/githarvest/internal/domain/model"
	"github.com/githarvest/githarvest/internal/domain/port/driven"
)

// filterToBson translates the port-level filter into a Mongo match document.
// Zero-valued filter fields are not part of the match.
func filterToBson(f driven.Filter) bson.M {
	m := bson.M{}
	if f.ID != "" {
		m["id"] = f.ID
	}
	if f.ObjectType != "" {
		m["object_type"] = f.ObjectType
	}
	if f.RepositoryID != "" {
		m["repository_id"] = f.RepositoryID
	}
	if f.Owner != "" {
		m["owner"] = f.Owner
	}
	if f.Name != "" {
		m["name"] = f.Name
	}
	return m
}

// totalField names the declared-total field for a relation.
func totalField(r model.Relation) string {
	return "total_" + string(r)
}

// valueField names the accumulated field for a relation.
func valueField(r model.Relation) string {
	switch r {
	case model.RelationPullRequests:
		return "pull_request_ids"
	case model.RelationParticipants:
		return "participants"
	case model.RelationComments:
		return "comment_ids"
	case model.RelationReviews:
		return "review_ids"
	case model.RelationCommits:
		return "commit_ids"
	case model.RelationEdits:
		return "edits"
	case model.RelationReactions:
		return "reactions"
	case model.RelationCheckSuites:
		return "check_suite_ids"
	case model.RelationAuthors:
		return "authors"
	case model.RelationOrganizations:
		return "organization_ids"
	default:
		return string(r)
	}
}

// payloadValue picks the populated slice matching the relation's shape.
func payloadValue(r model.Relation, p model.RelationPayload) any {
	switch r {
	case model.RelationParticipants, model.RelationAuthors:
		return p.Actors
	case model.RelationEdits:
		return p.Edits
	case model.RelationReactions:
		return p.Reactions
	default:
		return p.IDs
	}
}

// updateToBson flattens a typed update into $set fields. Relation statuses
// and cursors use dot notation so concurrent updates to different relations
// on the same document do not clobber each other's map entries.
func updateToBson(u model.Update) bson.M {
	set := bson.M{}
	for r, total := range u.Totals {
		set[totalField(r)] = total
	}
	for r, payload := range u.Relations {
		set[valueField(r)] = payloadValue(r, payload)
	}
	for r, status := range u.Statuses {
		set["load_status."+string(r)] = status
	}
	for r, cursor := range u.Cursors {
		set["cursors."+string(r)] = cursor
	}
	if u.IsDeleted != nil {
		set["is_deleted"] = *u.IsDeleted
	}
	if u.UpdatedAt != nil {
		set["update_timestamp"] = *u.UpdatedAt
	}
	return set
}
