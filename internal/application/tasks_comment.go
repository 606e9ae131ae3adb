package application

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/githarvest/githarvest/internal/domain/model"
)

// actorRef is the shape of an authorship field: the remote exposes only a
// display login for the actor interface, so the id must come from the
// resolution cache.
type actorRef struct {
	Typename string `json:"__typename"`
	Login    string `json:"login"`
}

// resolveRef resolves an authorship reference through the cache. A nil
// reference is an absent author, which is data, not an error.
func resolveRef(ctx context.Context, e *Engine, ref *actorRef) (model.Actor, error) {
	if ref == nil || ref.Login == "" {
		return model.UnknownActor(""), nil
	}
	return e.actors.ResolveByLogin(ctx, ref.Login)
}

// editMapper decodes one content edit, resolving the editor by login.
func editMapper(ctx context.Context, e *Engine, node json.RawMessage) (model.RelationPayload, error) {
	var n struct {
		ID        string     `json:"id"`
		Editor    *actorRef  `json:"editor"`
		EditedAt  time.Time  `json:"editedAt"`
		DeletedAt *time.Time `json:"deletedAt"`
		Diff      string     `json:"diff"`
	}
	if err := json.Unmarshal(node, &n); err != nil {
		return model.RelationPayload{}, fmt.Errorf("decoding edit node: %w", err)
	}

	editor, err := resolveRef(ctx, e, n.Editor)
	if err != nil {
		return model.RelationPayload{}, err
	}
	edit := model.ContentEdit{
		ID:         n.ID,
		Editor:     editor,
		EditedAt:   n.EditedAt,
		Difference: n.Diff,
		IsDelete:   n.DeletedAt != nil,
	}
	return model.RelationPayload{Edits: []model.ContentEdit{edit}}, nil
}

// reactionMapper decodes one reaction, typing its author through the cache.
func reactionMapper(ctx context.Context, e *Engine, node json.RawMessage) (model.RelationPayload, error) {
	var n struct {
		ID        string    `json:"id"`
		Content   string    `json:"content"`
		CreatedAt time.Time `json:"createdAt"`
		User      *struct {
			ID string `json:"id"`
		} `json:"user"`
	}
	if err := json.Unmarshal(node, &n); err != nil {
		return model.RelationPayload{}, fmt.Errorf("decoding reaction node: %w", err)
	}

	author := model.UnknownActor("")
	if n.User != nil && n.User.ID != "" {
		resolved, err := e.actors.ResolveByID(ctx, n.User.ID)
		if err != nil {
			return model.RelationPayload{}, err
		}
		author = resolved
	}
	reaction := model.Reaction{ID: n.ID, Author: author, Content: n.Content, CreatedAt: n.CreatedAt}
	return model.RelationPayload{Reactions: []model.Reaction{reaction}}, nil
}

const editSelection = "id editor { __typename login } editedAt deletedAt diff"

const reactionSelection = "id content createdAt user { id }"

// editsTask fills the content-edit history of every document of parentType.
func (e *Engine) editsTask(scope Scope, name string, parentType model.ObjectType, typeName string, requires ...string) *Task {
	return &Task{
		Name:     scope.task(name),
		Requires: requires,
		Completion: Completion{
			Kind:       CheckRelationFill,
			Scope:      scope,
			ParentType: parentType,
			Relation:   model.RelationEdits,
		},
		Run: func(ctx context.Context) error {
			return e.fillRelation(ctx, scope, relationSpec{
				parentType: parentType,
				typeName:   typeName,
				field:      "userContentEdits",
				relation:   model.RelationEdits,
				selection:  editSelection,
				mapNode:    editMapper,
			})
		},
	}
}

// reactionsTask fills the reactions of every document of parentType.
func (e *Engine) reactionsTask(scope Scope, name string, parentType model.ObjectType, typeName string, requires ...string) *Task {
	return &Task{
		Name:     scope.task(name),
		Requires: requires,
		Completion: Completion{
			Kind:       CheckRelationFill,
			Scope:      scope,
			ParentType: parentType,
			Relation:   model.RelationReactions,
		},
		Run: func(ctx context.Context) error {
			return e.fillRelation(ctx, scope, relationSpec{
				parentType: parentType,
				typeName:   typeName,
				field:      "reactions",
				relation:   model.RelationReactions,
				selection:  reactionSelection,
				mapNode:    reactionMapper,
			})
		},
	}
}

// commentNode is the shared wire shape of the three comment classes.
type commentNode struct {
	Author            *actorRef `json:"author"`
	AuthorAssociation string    `json:"authorAssociation"`
	BodyText          string    `json:"bodyText"`
	CreatedAt         time.Time `json:"createdAt"`
	IsMinimized       bool      `json:"isMinimized"`
	MinimizedReason   string    `json:"minimizedReason"`
	UserContentEdits  struct {
		TotalCount int `json:"totalCount"`
	} `json:"userContentEdits"`
	Reactions struct {
		TotalCount int `json:"totalCount"`
	} `json:"reactions"`
}

const commentSelection = `author { __typename login }
      authorAssociation
      bodyText
      createdAt
      isMinimized
      minimizedReason
      userContentEdits { totalCount }
      reactions { totalCount }`

// buildComment materializes one comment document of the given class. A nil
// node means the comment was deleted upstream; the id is preserved with a
// deletion marker so the accumulated id list stays authoritative.
func buildComment(ctx context.Context, e *Engine, parent *model.Document, id string, node json.RawMessage, objectType model.ObjectType) (*model.Document, error) {
	now := e.now()
	var doc *model.Document
	switch objectType {
	case model.ObjectPullRequestComment:
		doc = model.NewPullRequestComment(id, repositoryID(parent), now)
		doc.PullRequestID = parent.ID
	case model.ObjectPullRequestReviewComment:
		doc = model.NewReviewComment(id, repositoryID(parent), now)
		doc.ReviewID = parent.ID
		doc.PullRequestID = parent.PullRequestID
	case model.ObjectCommitComment:
		doc = model.NewCommitComment(id, repositoryID(parent), now)
		doc.CommitID = parent.ID
	default:
		return nil, fmt.Errorf("unexpected comment class %s", objectType)
	}

	if node == nil {
		doc.IsDeleted = true
		return doc, nil
	}

	var n commentNode
	if err := json.Unmarshal(node, &n); err != nil {
		return nil, fmt.Errorf("decoding comment node: %w", err)
	}

	author, err := resolveRef(ctx, e, n.Author)
	if err != nil {
		return nil, err
	}
	doc.Author = &author
	doc.AuthorAssociation = n.AuthorAssociation
	doc.BodyText = n.BodyText
	doc.CreatedAt = n.CreatedAt
	if n.IsMinimized {
		doc.MinimizedStatus = n.MinimizedReason
	}
	doc.TotalEdits = n.UserContentEdits.TotalCount
	doc.TotalReactions = n.Reactions.TotalCount
	return doc, nil
}
