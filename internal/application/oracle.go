package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/githarvest/githarvest/internal/domain/model"
	"github.com/githarvest/githarvest/internal/domain/port/driven"
)

// Scope names the repository a task operates over. The zero scope is global.
type Scope struct {
	Owner string
	Name  string
}

// IsGlobal reports whether the scope spans every repository.
func (s Scope) IsGlobal() bool {
	return s.Owner == "" && s.Name == ""
}

func (s Scope) String() string {
	if s.IsGlobal() {
		return "global"
	}
	return s.Owner + "/" + s.Name
}

// CheckKind selects how a task's completion is computed from stored state.
type CheckKind int

const (
	// CheckExistence is satisfied when the scope's repository document has
	// been persisted with its remote identity filled in.
	CheckExistence CheckKind = iota
	// CheckRelationFill compares declared totals against accumulated lengths
	// for one relation across all parent documents in scope.
	CheckRelationFill
	// CheckChildCount compares the distinct ids accumulated on parents
	// against the number of persisted child documents.
	CheckChildCount
	// CheckCustom delegates the expected/actual computation to the task.
	CheckCustom
)

// Completion declares how the oracle decides a task's work is already done.
// Everything is computed from persisted state; no remote call is ever made.
type Completion struct {
	Kind       CheckKind
	Scope      Scope
	ParentType model.ObjectType
	Relation   model.Relation
	ChildType  model.ObjectType
	// Counts supplies expected/actual for CheckCustom.
	Counts func(ctx context.Context, store driven.DocumentStore) (expected, actual int, err error)
}

// Oracle answers "is this task's work already persisted?" purely from store
// reads. Declared totals vs accumulated lengths are the only bookkeeping; no
// separate checkpoint or journal exists.
type Oracle struct {
	store driven.DocumentStore
	log   *slog.Logger
	// retryShortReturns, when set, stops treating the degraded
	// returned-less-than-declared marker as satisfied, so those relations
	// are re-attempted on every run.
	retryShortReturns bool
}

// NewOracle wires the oracle to its store.
func NewOracle(store driven.DocumentStore, retryShortReturns bool, log *slog.Logger) *Oracle {
	if log == nil {
		log = slog.Default()
	}
	return &Oracle{store: store, log: log, retryShortReturns: retryShortReturns}
}

// Satisfied reports whether the completion's expected and actual counts
// already agree.
func (o *Oracle) Satisfied(ctx context.Context, c Completion) (bool, error) {
	expected, actual, err := o.CountsFor(ctx, c)
	if err != nil {
		return false, err
	}
	return expected == actual, nil
}

// CountsFor computes the expected and actual cardinality for a completion.
func (o *Oracle) CountsFor(ctx context.Context, c Completion) (expected, actual int, err error) {
	switch c.Kind {
	case CheckExistence:
		return o.existenceCounts(ctx, c)
	case CheckRelationFill:
		return o.relationFillCounts(ctx, c)
	case CheckChildCount:
		return o.childCountCounts(ctx, c)
	case CheckCustom:
		if c.Counts == nil {
			return 0, 0, errors.New("custom completion without a counts function")
		}
		return c.Counts(ctx, o.store)
	default:
		return 0, 0, fmt.Errorf("unknown completion kind %d", c.Kind)
	}
}

func (o *Oracle) existenceCounts(ctx context.Context, c Completion) (int, int, error) {
	doc, err := o.repositoryDoc(ctx, c.Scope)
	if err != nil {
		return 0, 0, err
	}
	if doc == nil || doc.ID == "" {
		return 1, 0, nil
	}
	return 1, 1, nil
}

// relationFillCounts sums declared totals and accumulated lengths across the
// scope's parent documents. A parent marked returned-less counts its
// accumulated length as the expectation, so a remote that under-delivers
// does not wedge the graph.
func (o *Oracle) relationFillCounts(ctx context.Context, c Completion) (int, int, error) {
	parents, err := o.parents(ctx, c)
	if err != nil {
		return 0, 0, err
	}

	var expected, actual int
	for i := range parents {
		p := &parents[i]
		declared := p.Declared(c.Relation)
		loaded := p.Loaded(c.Relation)
		if p.StatusFor(c.Relation) == model.ReturnedLess && !o.retryShortReturns {
			declared = loaded
		}
		expected += declared
		actual += loaded
	}
	return expected, actual, nil
}

// childCountCounts compares the distinct child ids referenced by parents in
// scope against the persisted child documents. Distinct because children
// like commits are shared between parents but stored once.
func (o *Oracle) childCountCounts(ctx context.Context, c Completion) (int, int, error) {
	parents, err := o.parents(ctx, c)
	if err != nil {
		return 0, 0, err
	}

	distinct := map[string]struct{}{}
	for i := range parents {
		for _, id := range parents[i].IDList(c.Relation) {
			distinct[id] = struct{}{}
		}
	}

	filter := driven.Filter{ObjectType: c.ChildType}
	if !c.Scope.IsGlobal() {
		repo, err := o.repositoryDoc(ctx, c.Scope)
		if err != nil {
			return 0, 0, err
		}
		if repo == nil {
			return len(distinct), 0, nil
		}
		filter.RepositoryID = repo.ID
	}

	n, err := o.store.Count(ctx, filter)
	if err != nil {
		return 0, 0, fmt.Errorf("counting %s documents: %w", c.ChildType, err)
	}
	return len(distinct), int(n), nil
}

// parents loads the scope's parent documents for a relation-based check.
func (o *Oracle) parents(ctx context.Context, c Completion) ([]model.Document, error) {
	filter := driven.Filter{ObjectType: c.ParentType}

	if c.ParentType == model.ObjectRepository && !c.Scope.IsGlobal() {
		doc, err := o.repositoryDoc(ctx, c.Scope)
		if err != nil {
			return nil, err
		}
		if doc == nil {
			return nil, nil
		}
		return []model.Document{*doc}, nil
	}

	if !c.Scope.IsGlobal() {
		repo, err := o.repositoryDoc(ctx, c.Scope)
		if err != nil {
			return nil, err
		}
		if repo == nil {
			return nil, nil
		}
		filter.RepositoryID = repo.ID
	}

	docs, err := o.store.Find(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("loading %s parents: %w", c.ParentType, err)
	}
	return docs, nil
}

// repositoryDoc fetches the scope's repository document, nil when absent.
func (o *Oracle) repositoryDoc(ctx context.Context, s Scope) (*model.Document, error) {
	doc, err := o.store.FindOne(ctx, driven.Filter{
		ObjectType: model.ObjectRepository,
		Owner:      s.Owner,
		Name:       s.Name,
	})
	if errors.Is(err, driven.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("loading repository %s: %w", s, err)
	}
	return doc, nil
}
