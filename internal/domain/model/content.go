package model

import "time"

// ContentEdit is one revision (or deletion) of a body of text. Edits are
// embedded inside the document they belong to, never stored top-level.
type ContentEdit struct {
	ID         string    `bson:"id" json:"id"`
	Editor     Actor     `bson:"editor" json:"editor"`
	EditedAt   time.Time `bson:"edited_timestamp" json:"edited_timestamp"`
	Difference string    `bson:"difference,omitempty" json:"difference,omitempty"`
	IsDelete   bool      `bson:"is_delete,omitempty" json:"is_delete,omitempty"`
}

// Reaction is an emoji reaction on a comment, review or pull request.
// Like edits, reactions are embedded sub-documents.
type Reaction struct {
	ID        string    `bson:"id" json:"id"`
	Author    Actor     `bson:"author" json:"author"`
	Content   string    `bson:"content" json:"content"`
	CreatedAt time.Time `bson:"create_timestamp" json:"create_timestamp"`
}
