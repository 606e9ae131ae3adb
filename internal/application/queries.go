package application

import (
	"encoding/json"
	"fmt"
)

// Query construction. Every nested relation is fetched through the same
// node-scoped shape with the connection aliased to a fixed name, so one typed
// envelope decodes every relation regardless of the underlying field.

type pageInfo struct {
	HasNextPage bool   `json:"hasNextPage"`
	EndCursor   string `json:"endCursor"`
}

// repositoryQuery loads a repository's identity and declared totals by
// owner and name.
func repositoryQuery(owner, name string) string {
	return fmt.Sprintf(`{
  repository(owner: %q, name: %q) {
    id
    isFork
    forkCount
    pullRequests { totalCount }
  }
}`, owner, name)
}

type repositoryEnvelope struct {
	Repository *struct {
		ID           string `json:"id"`
		IsFork       bool   `json:"isFork"`
		ForkCount    int    `json:"forkCount"`
		PullRequests struct {
			TotalCount int `json:"totalCount"`
		} `json:"pullRequests"`
	} `json:"repository"`
}

func decodeRepository(raw json.RawMessage) (*repositoryEnvelope, error) {
	var env repositoryEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("decoding repository response: %w", err)
	}
	return &env, nil
}

// connectionQuery fetches one page of a paginated field on a node. The field
// is aliased to "connection" so decodeConnection works for every relation.
// args carries the field's argument list without the surrounding parens,
// e.g. `first: 100` or `first: 100, after: "abc"`.
func connectionQuery(nodeID, typeName, field, args, selection string) string {
	return fmt.Sprintf(`{
  node(id: %q) {
    ... on %s {
      connection: %s(%s) {
        totalCount
        pageInfo { hasNextPage endCursor }
        edges { cursor node { %s } }
      }
    }
  }
}`, nodeID, typeName, field, args, selection)
}

// connectionArgs renders the standard pagination arguments.
func connectionArgs(first int, after string) string {
	if after == "" {
		return fmt.Sprintf("first: %d", first)
	}
	return fmt.Sprintf("first: %d, after: %q", first, after)
}

type connectionEnvelope struct {
	Node struct {
		Connection struct {
			TotalCount int      `json:"totalCount"`
			PageInfo   pageInfo `json:"pageInfo"`
			Edges      []Edge   `json:"edges"`
		} `json:"connection"`
	} `json:"node"`
}

func decodeConnection(raw json.RawMessage) (Page, error) {
	var env connectionEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return Page{}, fmt.Errorf("decoding connection response: %w", err)
	}
	conn := env.Node.Connection
	return Page{
		TotalCount:  conn.TotalCount,
		HasNextPage: conn.PageInfo.HasNextPage,
		EndCursor:   conn.PageInfo.EndCursor,
		Edges:       conn.Edges,
	}, nil
}

// nodeQuery fetches a single node by id with a caller-provided selection.
func nodeQuery(id, typeName, selection string) string {
	return fmt.Sprintf(`{
  node(id: %q) {
    ... on %s {
      %s
    }
  }
}`, id, typeName, selection)
}

type nodeEnvelope struct {
	Node json.RawMessage `json:"node"`
}

// decodeNode returns the raw node object, or nil when the remote reports no
// node for the id (deleted or inaccessible upstream).
func decodeNode(raw json.RawMessage) (json.RawMessage, error) {
	var env nodeEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("decoding node response: %w", err)
	}
	if len(env.Node) == 0 || string(env.Node) == "null" {
		return nil, nil
	}
	return env.Node, nil
}

// typenameQuery resolves the concrete type behind an opaque node id.
func typenameQuery(id string) string {
	return fmt.Sprintf(`{
  node(id: %q) { __typename }
}`, id)
}

func decodeTypename(raw json.RawMessage) (string, error) {
	var env struct {
		Node *struct {
			Typename string `json:"__typename"`
		} `json:"node"`
	}
	if err := json.Unmarshal(raw, &env); err != nil {
		return "", fmt.Errorf("decoding typename response: %w", err)
	}
	if env.Node == nil {
		return "", nil
	}
	return env.Node.Typename, nil
}

// userSearchQuery pages through a user search filtered later by exact login
// match, since the remote search is fuzzy.
func userSearchQuery(login string, first int, after string) string {
	return fmt.Sprintf(`{
  search(query: %q, type: USER, %s) {
    userCount
    pageInfo { hasNextPage endCursor }
    edges {
      cursor
      node {
        __typename
        ... on User { id login }
        ... on Organization { id login }
      }
    }
  }
}`, login, connectionArgs(first, after))
}

type searchEnvelope struct {
	Search struct {
		UserCount int      `json:"userCount"`
		PageInfo  pageInfo `json:"pageInfo"`
		Edges     []Edge   `json:"edges"`
	} `json:"search"`
}

func decodeSearch(raw json.RawMessage) (Page, error) {
	var env searchEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return Page{}, fmt.Errorf("decoding search response: %w", err)
	}
	return Page{
		TotalCount:  env.Search.UserCount,
		HasNextPage: env.Search.PageInfo.HasNextPage,
		EndCursor:   env.Search.PageInfo.EndCursor,
		Edges:       env.Search.Edges,
	}, nil
}
