package application

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/githarvest/githarvest/internal/domain/model"
	"github.com/githarvest/githarvest/internal/domain/port/driven"
)

// Engine carries the shared collaborators every fetch task needs. Tasks are
// built from two generic capabilities: fillRelation walks a paginated
// connection on parent documents, fetchDocuments materializes child
// documents from accumulated id lists.
type Engine struct {
	store    driven.DocumentStore
	gateway  driven.Gateway
	actors   *ActorCache
	oracle   *Oracle
	log      *slog.Logger
	pageSize int
	now      func() time.Time
}

// NewEngine wires an engine. pageSize bounds every connection request.
func NewEngine(store driven.DocumentStore, gateway driven.Gateway, actors *ActorCache, oracle *Oracle, pageSize int, log *slog.Logger) *Engine {
	if log == nil {
		log = slog.Default()
	}
	return &Engine{
		store:    store,
		gateway:  gateway,
		actors:   actors,
		oracle:   oracle,
		log:      log,
		pageSize: pageSize,
		now:      time.Now,
	}
}

// nodeMapper turns one connection edge node into a relation payload
// fragment. Mappers may resolve actors through the cache.
type nodeMapper func(ctx context.Context, e *Engine, node json.RawMessage) (model.RelationPayload, error)

// relationSpec parameterizes a paginated fill of one relation across every
// parent document in scope.
type relationSpec struct {
	parentType model.ObjectType
	// typeName is the remote schema type the parent node casts to.
	typeName  string
	field     string
	relation  model.Relation
	selection string
	mapNode   nodeMapper
}

// fillRelation walks the configured connection for each parent document whose
// relation is not yet satisfied. Pages are persisted as they arrive together
// with the resume cursor, so an interrupted walk continues from the last
// persisted page instead of starting over.
func (e *Engine) fillRelation(ctx context.Context, scope Scope, spec relationSpec) error {
	parents, err := e.oracle.parents(ctx, Completion{Scope: scope, ParentType: spec.parentType})
	if err != nil {
		return err
	}

	for i := range parents {
		parent := &parents[i]
		if e.relationSatisfied(parent, spec.relation) {
			continue
		}
		if err := e.fillOne(ctx, parent, spec); err != nil {
			return fmt.Errorf("filling %s of %s %s: %w",
				spec.relation, parent.ObjectType, parent.ID, err)
		}
	}
	return nil
}

func (e *Engine) relationSatisfied(parent *model.Document, r model.Relation) bool {
	if parent.Loaded(r) >= parent.Declared(r) {
		return true
	}
	return parent.StatusFor(r) == model.ReturnedLess && !e.oracle.retryShortReturns
}

func (e *Engine) fillOne(ctx context.Context, parent *model.Document, spec relationSpec) error {
	accumulated := payloadOf(parent, spec.relation)
	filter := driven.Filter{ID: parent.ID, ObjectType: parent.ObjectType}

	fetch := func(ctx context.Context, after string) (Page, error) {
		raw, err := e.gateway.Execute(ctx, connectionQuery(
			parent.ID, spec.typeName, spec.field,
			connectionArgs(e.pageSize, after), spec.selection))
		if err != nil {
			return Page{}, err
		}
		return decodeConnection(raw)
	}

	sink := func(page Page) error {
		for _, edge := range page.Edges {
			fragment, err := spec.mapNode(ctx, e, edge.Node)
			if err != nil {
				return err
			}
			accumulated = accumulated.Append(fragment)
		}
		update := (&model.Update{}).
			SetRelation(spec.relation, accumulated).
			SetCursor(spec.relation, page.EndCursor).
			Touch(e.now())
		return e.store.UpdateOne(ctx, filter, *update)
	}

	outcome, err := WalkConnection(ctx, fetch, sink,
		parent.Declared(spec.relation), accumulated.Len(), parent.CursorFor(spec.relation))
	if err != nil {
		return err
	}

	status := model.LoadedSuccessfully
	if outcome == WalkShortReturn {
		status = model.ReturnedLess
		e.log.Warn("remote returned fewer children than declared",
			"parent", parent.ID,
			"object_type", parent.ObjectType,
			"relation", spec.relation,
			"declared", parent.Declared(spec.relation),
			"loaded", accumulated.Len(),
		)
	}
	update := (&model.Update{}).SetStatus(spec.relation, status).Touch(e.now())
	return e.store.UpdateOne(ctx, filter, *update)
}

// payloadOf extracts the accumulated payload for a relation in its native
// shape, so a resumed walk appends to what is already persisted.
func payloadOf(d *model.Document, r model.Relation) model.RelationPayload {
	switch r {
	case model.RelationParticipants:
		return model.RelationPayload{Actors: d.Participants}
	case model.RelationAuthors:
		return model.RelationPayload{Actors: d.Authors}
	case model.RelationEdits:
		return model.RelationPayload{Edits: d.Edits}
	case model.RelationReactions:
		return model.RelationPayload{Reactions: d.Reactions}
	default:
		return model.RelationPayload{IDs: d.IDList(r)}
	}
}

// docBuilder turns a fetched node into a new child document. A nil node
// means the remote no longer exposes the id; builders decide how to record
// the absence.
type docBuilder func(ctx context.Context, e *Engine, parent *model.Document, id string, node json.RawMessage) (*model.Document, error)

// docSpec parameterizes materializing child documents from the id lists a
// fill task accumulated on parents.
type docSpec struct {
	parentType model.ObjectType
	relation   model.Relation
	childType  model.ObjectType
	// typeName is the remote schema type the child node casts to.
	typeName  string
	selection string
	build     docBuilder
}

// fetchDocuments creates one child document per id referenced by the scope's
// parents. Already-persisted children are skipped without a remote call, so
// re-runs and shared children (commits appear in many pull requests) cost
// nothing.
func (e *Engine) fetchDocuments(ctx context.Context, scope Scope, spec docSpec) error {
	parents, err := e.oracle.parents(ctx, Completion{Scope: scope, ParentType: spec.parentType})
	if err != nil {
		return err
	}

	seen := map[string]struct{}{}
	for i := range parents {
		parent := &parents[i]
		for _, id := range parent.IDList(spec.relation) {
			if _, dup := seen[id]; dup {
				continue
			}
			seen[id] = struct{}{}

			if err := e.fetchOne(ctx, parent, id, spec); err != nil {
				return fmt.Errorf("fetching %s %s: %w", spec.childType, id, err)
			}
		}
	}
	return nil
}

func (e *Engine) fetchOne(ctx context.Context, parent *model.Document, id string, spec docSpec) error {
	_, err := e.store.FindOne(ctx, driven.Filter{ID: id, ObjectType: spec.childType})
	if err == nil {
		return nil
	}
	if !errors.Is(err, driven.ErrNotFound) {
		return err
	}

	raw, err := e.gateway.Execute(ctx, nodeQuery(id, spec.typeName, spec.selection))
	if err != nil {
		return err
	}
	node, err := decodeNode(raw)
	if err != nil {
		return err
	}

	doc, err := spec.build(ctx, e, parent, id, node)
	if err != nil {
		return err
	}
	if doc == nil {
		return nil
	}
	return e.store.InsertOne(ctx, doc)
}

// repositoryID resolves the repository back-reference for a child of parent.
func repositoryID(parent *model.Document) string {
	if parent.ObjectType == model.ObjectRepository {
		return parent.ID
	}
	return parent.RepositoryID
}
