package model

import "strings"

// ActorType classifies the identity behind an authorship or edit relation.
type ActorType string

const (
	ActorUser                  ActorType = "USER"
	ActorBot                   ActorType = "BOT"
	ActorMannequin             ActorType = "MANNEQUIN"
	ActorOrganization          ActorType = "ORGANIZATION"
	ActorEnterpriseUserAccount ActorType = "ENTERPRISE_USER_ACCOUNT"
	ActorUnknown               ActorType = "UNKNOWN"
)

// Actor is a typed identity reference. Actors are embedded by value inside
// every document that names an author, editor, participant or committer;
// they are small and resolved once per run through the resolution cache.
type Actor struct {
	ID   string    `bson:"id" json:"id"`
	Type ActorType `bson:"actor_type" json:"actor_type"`
}

// UnknownActor returns the sentinel actor used when an identity cannot be
// resolved. An absent author is data, not an error.
func UnknownActor(id string) Actor {
	return Actor{ID: id, Type: ActorUnknown}
}

// ActorTypeFromTypename maps a GraphQL __typename onto an ActorType.
// Unrecognized typenames map to ActorUnknown.
func ActorTypeFromTypename(typename string) ActorType {
	switch strings.ToUpper(typename) {
	case "USER":
		return ActorUser
	case "BOT":
		return ActorBot
	case "MANNEQUIN":
		return ActorMannequin
	case "ORGANIZATION":
		return ActorOrganization
	case "ENTERPRISEUSERACCOUNT", "ENTERPRISE_USER_ACCOUNT":
		return ActorEnterpriseUserAccount
	default:
		return ActorUnknown
	}
}
