package model

import "time"

// Relation names a declared-total / accumulated-value pair on a document.
// The pair is the single source of truth for completion: a relation is done
// exactly when the accumulated length matches the declared total.
type Relation string

const (
	RelationPullRequests  Relation = "pull_requests"
	RelationParticipants  Relation = "participants"
	RelationComments      Relation = "comments"
	RelationReviews       Relation = "reviews"
	RelationCommits       Relation = "commits"
	RelationEdits         Relation = "edits"
	RelationReactions     Relation = "reactions"
	RelationCheckSuites   Relation = "check_suites"
	RelationAuthors       Relation = "authors"
	RelationOrganizations Relation = "organizations"
)

// Document is the wide persisted shape shared by every entity class. All
// entities live in one flat collection keyed by (id, object_type) with a
// secondary index on (repository_id, object_type); fields that do not apply
// to a given class stay at their zero value and are omitted from storage.
type Document struct {
	ID           string     `bson:"id"`
	ObjectType   ObjectType `bson:"object_type"`
	RepositoryID string     `bson:"repository_id,omitempty"`

	// Repository fields. Owner/Name double as the user login / display name
	// on USER and ORGANIZATION documents.
	Owner      string `bson:"owner,omitempty"`
	Name       string `bson:"name,omitempty"`
	IsFork     bool   `bson:"is_fork,omitempty"`
	TotalForks int    `bson:"total_forks,omitempty"`

	// Authored-content fields.
	Author            *Actor `bson:"author,omitempty"`
	AuthorAssociation string `bson:"author_association,omitempty"`
	BodyText          string `bson:"text,omitempty"`
	State             string `bson:"state,omitempty"`
	MinimizedStatus   string `bson:"minimized_status,omitempty"`
	IsDeleted         bool   `bson:"is_deleted,omitempty"`

	// Back-references. Lookup pointers only, never ownership.
	PullRequestID string `bson:"pull_request_id,omitempty"`
	ReviewID      string `bson:"review_id,omitempty"`
	CommitID      string `bson:"commit_id,omitempty"`

	// User / organization fields.
	Login    string `bson:"login,omitempty"`
	Company  string `bson:"company,omitempty"`
	Email    string `bson:"email,omitempty"`
	Location string `bson:"location,omitempty"`

	// Commit fields.
	MessageHeadline string     `bson:"message_headline,omitempty"`
	Additions       int        `bson:"additions,omitempty"`
	Deletions       int        `bson:"deletions,omitempty"`
	CommittedAt     *time.Time `bson:"committed_timestamp,omitempty"`
	PushedAt        *time.Time `bson:"pushed_timestamp,omitempty"`

	// Check suite fields.
	CheckStatus     string `bson:"check_status,omitempty"`
	CheckConclusion string `bson:"check_conclusion,omitempty"`

	// Declared cardinalities and their accumulated counterparts. A relation
	// is complete exactly when the accumulated length equals the total.
	TotalPullRequests  int           `bson:"total_pull_requests,omitempty"`
	PullRequestIDs     []string      `bson:"pull_request_ids,omitempty"`
	TotalParticipants  int           `bson:"total_participants,omitempty"`
	Participants       []Actor       `bson:"participants,omitempty"`
	TotalComments      int           `bson:"total_comments,omitempty"`
	CommentIDs         []string      `bson:"comment_ids,omitempty"`
	TotalReviews       int           `bson:"total_reviews,omitempty"`
	ReviewIDs          []string      `bson:"review_ids,omitempty"`
	TotalCommits       int           `bson:"total_commits,omitempty"`
	CommitIDs          []string      `bson:"commit_ids,omitempty"`
	TotalEdits         int           `bson:"total_edits,omitempty"`
	Edits              []ContentEdit `bson:"edits,omitempty"`
	TotalReactions     int           `bson:"total_reactions,omitempty"`
	Reactions          []Reaction    `bson:"reactions,omitempty"`
	TotalCheckSuites   int           `bson:"total_check_suites,omitempty"`
	CheckSuiteIDs      []string      `bson:"check_suite_ids,omitempty"`
	TotalAuthors       int           `bson:"total_authors,omitempty"`
	Authors            []Actor       `bson:"authors,omitempty"`
	TotalOrganizations int           `bson:"total_organizations,omitempty"`
	OrganizationIDs    []string      `bson:"organization_ids,omitempty"`

	// Per-relation fill outcome and resume cursors. Cursors let an
	// interrupted walk continue from the last persisted page instead of
	// re-fetching it; they live on the parent document, not in a separate
	// checkpoint store.
	LoadStatus map[Relation]LoadStatus `bson:"load_status,omitempty"`
	Cursors    map[Relation]string     `bson:"cursors,omitempty"`

	InsertedAt time.Time `bson:"insert_timestamp,omitempty"`
	UpdatedAt  time.Time `bson:"update_timestamp,omitempty"`
	CreatedAt  time.Time `bson:"create_timestamp,omitempty"`
}

// Declared returns the declared total for a relation.
func (d *Document) Declared(r Relation) int {
	switch r {
	case RelationPullRequests:
		return d.TotalPullRequests
	case RelationParticipants:
		return d.TotalParticipants
	case RelationComments:
		return d.TotalComments
	case RelationReviews:
		return d.TotalReviews
	case RelationCommits:
		return d.TotalCommits
	case RelationEdits:
		return d.TotalEdits
	case RelationReactions:
		return d.TotalReactions
	case RelationCheckSuites:
		return d.TotalCheckSuites
	case RelationAuthors:
		return d.TotalAuthors
	case RelationOrganizations:
		return d.TotalOrganizations
	default:
		return 0
	}
}

// Loaded returns the number of children accumulated so far for a relation.
func (d *Document) Loaded(r Relation) int {
	switch r {
	case RelationPullRequests:
		return len(d.PullRequestIDs)
	case RelationParticipants:
		return len(d.Participants)
	case RelationComments:
		return len(d.CommentIDs)
	case RelationReviews:
		return len(d.ReviewIDs)
	case RelationCommits:
		return len(d.CommitIDs)
	case RelationEdits:
		return len(d.Edits)
	case RelationReactions:
		return len(d.Reactions)
	case RelationCheckSuites:
		return len(d.CheckSuiteIDs)
	case RelationAuthors:
		return len(d.Authors)
	case RelationOrganizations:
		return len(d.OrganizationIDs)
	default:
		return 0
	}
}

// IDList returns the accumulated id list for a relation, or nil when the
// relation embeds full values instead of ids.
func (d *Document) IDList(r Relation) []string {
	switch r {
	case RelationPullRequests:
		return d.PullRequestIDs
	case RelationComments:
		return d.CommentIDs
	case RelationReviews:
		return d.ReviewIDs
	case RelationCommits:
		return d.CommitIDs
	case RelationCheckSuites:
		return d.CheckSuiteIDs
	case RelationOrganizations:
		return d.OrganizationIDs
	default:
		return nil
	}
}

// StatusFor returns the recorded fill outcome for a relation.
func (d *Document) StatusFor(r Relation) LoadStatus {
	return d.LoadStatus[r]
}

// CursorFor returns the persisted resume cursor for a relation.
func (d *Document) CursorFor(r Relation) string {
	return d.Cursors[r]
}
