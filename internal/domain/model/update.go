package model

import "time"

// RelationPayload carries the accumulated value for one relation. Exactly one
// of the slices is populated, matching the relation's storage shape.
type RelationPayload struct {
	IDs       []string
	Actors    []Actor
	Edits     []ContentEdit
	Reactions []Reaction
}

// Len returns the number of accumulated children in the payload.
func (p RelationPayload) Len() int {
	return len(p.IDs) + len(p.Actors) + len(p.Edits) + len(p.Reactions)
}

// Append returns the concatenation of two payloads of the same shape.
func (p RelationPayload) Append(more RelationPayload) RelationPayload {
	return RelationPayload{
		IDs:       append(p.IDs, more.IDs...),
		Actors:    append(p.Actors, more.Actors...),
		Edits:     append(p.Edits, more.Edits...),
		Reactions: append(p.Reactions, more.Reactions...),
	}
}

// Update is a typed partial update applied to one document. The store
// adapters translate it into their native partial-update form; only fields
// that were explicitly set are written.
type Update struct {
	Totals    map[Relation]int
	Relations map[Relation]RelationPayload
	Statuses  map[Relation]LoadStatus
	Cursors   map[Relation]string
	IsDeleted *bool
	UpdatedAt *time.Time
}

// IsZero reports whether the update carries no changes.
func (u Update) IsZero() bool {
	return len(u.Totals) == 0 && len(u.Relations) == 0 && len(u.Statuses) == 0 &&
		len(u.Cursors) == 0 && u.IsDeleted == nil && u.UpdatedAt == nil
}

// SetTotal records a new declared total for a relation.
func (u *Update) SetTotal(r Relation, total int) *Update {
	if u.Totals == nil {
		u.Totals = map[Relation]int{}
	}
	u.Totals[r] = total
	return u
}

// SetRelation replaces a relation's accumulated value.
func (u *Update) SetRelation(r Relation, payload RelationPayload) *Update {
	if u.Relations == nil {
		u.Relations = map[Relation]RelationPayload{}
	}
	u.Relations[r] = payload
	return u
}

// SetStatus records the fill outcome for a relation.
func (u *Update) SetStatus(r Relation, s LoadStatus) *Update {
	if u.Statuses == nil {
		u.Statuses = map[Relation]LoadStatus{}
	}
	u.Statuses[r] = s
	return u
}

// SetCursor records the resume cursor for a relation.
func (u *Update) SetCursor(r Relation, cursor string) *Update {
	if u.Cursors == nil {
		u.Cursors = map[Relation]string{}
	}
	u.Cursors[r] = cursor
	return u
}

// SetDeleted marks the document's content as deleted upstream.
func (u *Update) SetDeleted(deleted bool) *Update {
	u.IsDeleted = &deleted
	return u
}

// Touch records an update timestamp.
func (u *Update) Touch(t time.Time) *Update {
	u.UpdatedAt = &t
	return u
}

// Apply mutates the document in place. Used by the in-memory store; the
// Mongo adapter translates the update into a $set document instead.
func (d *Document) Apply(u Update) {
	for r, total := range u.Totals {
		d.setTotal(r, total)
	}
	for r, payload := range u.Relations {
		d.setRelation(r, payload)
	}
	for r, s := range u.Statuses {
		if d.LoadStatus == nil {
			d.LoadStatus = map[Relation]LoadStatus{}
		}
		d.LoadStatus[r] = s
	}
	for r, c := range u.Cursors {
		if d.Cursors == nil {
			d.Cursors = map[Relation]string{}
		}
		d.Cursors[r] = c
	}
	if u.IsDeleted != nil {
		d.IsDeleted = *u.IsDeleted
	}
	if u.UpdatedAt != nil {
		d.UpdatedAt = *u.UpdatedAt
	}
}

func (d *Document) setTotal(r Relation, total int) {
	switch r {
	case RelationPullRequests:
		d.TotalPullRequests = total
	case RelationParticipants:
		d.TotalParticipants = total
	case RelationComments:
		d.TotalComments = total
	case RelationReviews:
		d.TotalReviews = total
	case RelationCommits:
		d.TotalCommits = total
	case RelationEdits:
		d.TotalEdits = total
	case RelationReactions:
		d.TotalReactions = total
	case RelationCheckSuites:
		d.TotalCheckSuites = total
	case RelationAuthors:
		d.TotalAuthors = total
	case RelationOrganizations:
		d.TotalOrganizations = total
	}
}

func (d *Document) setRelation(r Relation, payload RelationPayload) {
	switch r {
	case RelationPullRequests:
		d.PullRequestIDs = payload.IDs
	case RelationParticipants:
		d.Participants = payload.Actors
	case RelationComments:
		d.CommentIDs = payload.IDs
	case RelationReviews:
		d.ReviewIDs = payload.IDs
	case RelationCommits:
		d.CommitIDs = payload.IDs
	case RelationEdits:
		d.Edits = payload.Edits
	case RelationReactions:
		d.Reactions = payload.Reactions
	case RelationCheckSuites:
		d.CheckSuiteIDs = payload.IDs
	case RelationAuthors:
		d.Authors = payload.Actors
	case RelationOrganizations:
		d.OrganizationIDs = payload.IDs
	}
}
