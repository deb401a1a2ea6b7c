package entities

import (
	"time"

	"github.com/osstd/The-Blog/internal/db/interfaces"
)

// Comment is a user's comment on a post. One per (author, post), enforced by
// a unique index so concurrent submissions cannot slip past the pre-check.
type Comment struct {
	ID        interfaces.ID
	PostID    interfaces.ID
	AuthorID  interfaces.ID
	Text      string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// CommentSchema returns the schema for the comments table.
func CommentSchema() *interfaces.Schema {
	return &interfaces.Schema{
		TableName: "comments",
		Fields: map[string]interfaces.FieldSchema{
			"id":         {Type: "int64", PrimaryKey: true},
			"post_id":    {Type: "int64", ForeignKey: &interfaces.ForeignKey{Table: "blog_posts", Column: "id", OnDelete: "CASCADE"}},
			"author_id":  {Type: "int64", ForeignKey: &interfaces.ForeignKey{Table: "users_blog", Column: "id", OnDelete: "RESTRICT"}},
			"text":       {Type: "string"},
			"created_at": {Type: "time"},
			"updated_at": {Type: "time"},
		},
		Indexes: []interfaces.Index{
			{Name: "comments_author_post_key", Columns: []string{"author_id", "post_id"}, Unique: true},
		},
	}
}

// CommentFromRow converts a stored row into a Comment.
func CommentFromRow(row interfaces.Row) *Comment {
	return &Comment{
		ID:        interfaces.ID(asInt64(row["id"])),
		PostID:    interfaces.ID(asInt64(row["post_id"])),
		AuthorID:  interfaces.ID(asInt64(row["author_id"])),
		Text:      asString(row["text"]),
		CreatedAt: asTime(row["created_at"]),
		UpdatedAt: asTime(row["updated_at"]),
	}
}

// Row converts the comment into a row for insertion.
func (c *Comment) Row() interfaces.Row {
	return interfaces.Row{
		"post_id":   int64(c.PostID),
		"author_id": int64(c.AuthorID),
		"text":      c.Text,
	}
}
