package application

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/githarvest/githarvest/internal/domain/model"
	"github.com/githarvest/githarvest/internal/domain/port/driven"
)

// referencedUserIDs collects the distinct user ids named by any actor
// reference across the whole store: authors, participants, committers,
// editors and reaction authors.
func referencedUserIDs(ctx context.Context, store driven.DocumentStore) ([]string, error) {
	docs, err := store.Find(ctx, driven.Filter{})
	if err != nil {
		return nil, fmt.Errorf("scanning documents for actors: %w", err)
	}

	seen := map[string]struct{}{}
	var ids []string
	add := func(a model.Actor) {
		if a.Type != model.ActorUser || a.ID == "" {
			return
		}
		if _, dup := seen[a.ID]; dup {
			return
		}
		seen[a.ID] = struct{}{}
		ids = append(ids, a.ID)
	}

	for i := range docs {
		d := &docs[i]
		if d.Author != nil {
			add(*d.Author)
		}
		for _, a := range d.Participants {
			add(a)
		}
		for _, a := range d.Authors {
			add(a)
		}
		for _, edit := range d.Edits {
			add(edit.Editor)
		}
		for _, reaction := range d.Reactions {
			add(reaction.Author)
		}
	}
	return ids, nil
}

type userNode struct {
	Login         string    `json:"login"`
	Name          string    `json:"name"`
	Company       string    `json:"company"`
	Email         string    `json:"email"`
	Location      string    `json:"location"`
	CreatedAt     time.Time `json:"createdAt"`
	Organizations struct {
		TotalCount int `json:"totalCount"`
	} `json:"organizations"`
}

const userSelection = `login
      name
      company
      email
      location
      createdAt
      organizations { totalCount }`

// usersTask materializes a user document for every user id referenced by
// the harvested content. It runs after every repository subgraph so the
// reference scan sees the full dataset.
func (e *Engine) usersTask() *Task {
	scope := Scope{}
	return &Task{
		Name: scope.task("users"),
		Completion: Completion{
			Kind:  CheckCustom,
			Scope: scope,
			Counts: func(ctx context.Context, store driven.DocumentStore) (int, int, error) {
				ids, err := referencedUserIDs(ctx, store)
				if err != nil {
					return 0, 0, err
				}
				n, err := store.Count(ctx, driven.Filter{ObjectType: model.ObjectUser})
				if err != nil {
					return 0, 0, err
				}
				return len(ids), int(n), nil
			},
		},
		Run: func(ctx context.Context) error {
			return e.loadUsers(ctx)
		},
	}
}

func (e *Engine) loadUsers(ctx context.Context) error {
	ids, err := referencedUserIDs(ctx, e.store)
	if err != nil {
		return err
	}

	for _, id := range ids {
		_, err := e.store.FindOne(ctx, driven.Filter{ID: id, ObjectType: model.ObjectUser})
		if err == nil {
			continue
		}
		if !errors.Is(err, driven.ErrNotFound) {
			return err
		}
		if err := e.loadUser(ctx, id); err != nil {
			return fmt.Errorf("loading user %s: %w", id, err)
		}
	}
	return nil
}

func (e *Engine) loadUser(ctx context.Context, id string) error {
	raw, err := e.gateway.Execute(ctx, nodeQuery(id, "User", userSelection))
	if err != nil {
		return err
	}
	node, err := decodeNode(raw)
	if err != nil {
		return err
	}

	doc := model.NewUser(id, e.now())
	if node == nil {
		doc.IsDeleted = true
		return e.store.InsertOne(ctx, doc)
	}

	var n userNode
	if err := json.Unmarshal(node, &n); err != nil {
		return fmt.Errorf("decoding user node: %w", err)
	}
	doc.Login = n.Login
	doc.Name = n.Name
	doc.Company = n.Company
	doc.Email = n.Email
	doc.Location = n.Location
	doc.CreatedAt = n.CreatedAt
	doc.TotalOrganizations = n.Organizations.TotalCount
	return e.store.InsertOne(ctx, doc)
}

// organizationIDsTask accumulates the organization memberships of every
// harvested user.
func (e *Engine) organizationIDsTask() *Task {
	scope := Scope{}
	return &Task{
		Name:     scope.task("user-organization-ids"),
		Requires: []string{scope.task("users")},
		Completion: Completion{
			Kind:       CheckRelationFill,
			Scope:      scope,
			ParentType: model.ObjectUser,
			Relation:   model.RelationOrganizations,
		},
		Run: func(ctx context.Context) error {
			return e.fillRelation(ctx, scope, relationSpec{
				parentType: model.ObjectUser,
				typeName:   "User",
				field:      "organizations",
				relation:   model.RelationOrganizations,
				selection:  "id",
				mapNode:    idMapper,
			})
		},
	}
}

type organizationNode struct {
	Login     string    `json:"login"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Location  string    `json:"location"`
	CreatedAt time.Time `json:"createdAt"`
}

// organizationsTask materializes the organization documents users belong to.
func (e *Engine) organizationsTask() *Task {
	scope := Scope{}
	return &Task{
		Name:     scope.task("organizations"),
		Requires: []string{scope.task("user-organization-ids")},
		Completion: Completion{
			Kind:       CheckChildCount,
			Scope:      scope,
			ParentType: model.ObjectUser,
			Relation:   model.RelationOrganizations,
			ChildType:  model.ObjectOrganization,
		},
		Run: func(ctx context.Context) error {
			return e.fetchDocuments(ctx, scope, docSpec{
				parentType: model.ObjectUser,
				relation:   model.RelationOrganizations,
				childType:  model.ObjectOrganization,
				typeName:   "Organization",
				selection:  "login name email location createdAt",
				build:      buildOrganization,
			})
		},
	}
}

func buildOrganization(_ context.Context, e *Engine, _ *model.Document, id string, node json.RawMessage) (*model.Document, error) {
	doc := model.NewOrganization(id, e.now())
	if node == nil {
		doc.IsDeleted = true
		return doc, nil
	}

	var n organizationNode
	if err := json.Unmarshal(node, &n); err != nil {
		return nil, fmt.Errorf("decoding organization node: %w", err)
	}
	doc.Login = n.Login
	doc.Name = n.Name
	doc.Email = n.Email
	doc.Location = n.Location
	doc.CreatedAt = n.CreatedAt
	return doc, nil
}
