// Package model defines the harvested entity documents and their enums.
package model

// ObjectType discriminates the entity classes stored in the single flat
// collection. Every persisted document carries exactly one of these.
type ObjectType string

const (
	ObjectRepository               ObjectType = "REPOSITORY"
	ObjectPullRequest              ObjectType = "PULL_REQUEST"
	ObjectPullRequestComment       ObjectType = "PULL_REQUEST_COMMENT"
	ObjectPullRequestReview        ObjectType = "PULL_REQUEST_REVIEW"
	ObjectPullRequestReviewComment ObjectType = "PULL_REQUEST_REVIEW_COMMENT"
	ObjectCommit                   ObjectType = "COMMIT"
	ObjectCommitComment            ObjectType = "COMMIT_COMMENT"
	ObjectCheckSuite               ObjectType = "CHECK_SUITE"
	ObjectUser                     ObjectType = "USER"
	ObjectOrganization             ObjectType = "ORGANIZATION"
)

// LoadStatus records the outcome of filling a paginated relation on a parent
// document. The empty string means the relation has not been attempted yet.
type LoadStatus string

const (
	// LoadedSuccessfully means the relation reached its declared cardinality.
	LoadedSuccessfully LoadStatus = "LOADED_SUCCESSFULLY"
	// ReturnedLess means the remote API exhausted its pages while returning
	// fewer children than it declared. The relation is treated as satisfied
	// to avoid livelock, but the discrepancy is surfaced as a data-quality
	// warning.
	ReturnedLess LoadStatus = "GIT_RETURNED_LESS"
)
