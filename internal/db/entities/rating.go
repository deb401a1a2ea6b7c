package entities

import (
	"time"

	"github.com/osstd/The-Blog/internal/db/interfaces"
)

// Rating is a user's score for a post, in [0, 10]. One per (author, post).
type Rating struct {
	ID        interfaces.ID
	PostID    interfaces.ID
	AuthorID  interfaces.ID
	Value     float64
	CreatedAt time.Time
	UpdatedAt time.Time
}

// RatingSchema returns the schema for the ratings table.
func RatingSchema() *interfaces.Schema {
	return &interfaces.Schema{
		TableName: "ratings",
		Fields: map[string]interfaces.FieldSchema{
			"id":         {Type: "int64", PrimaryKey: true},
			"post_id":    {Type: "int64", ForeignKey: &interfaces.ForeignKey{Table: "blog_posts", Column: "id", OnDelete: "CASCADE"}},
			"author_id":  {Type: "int64", ForeignKey: &interfaces.ForeignKey{Table: "users_blog", Column: "id", OnDelete: "RESTRICT"}},
			"value":      {Type: "float64"},
			"created_at": {Type: "time"},
			"updated_at": {Type: "time"},
		},
		Indexes: []interfaces.Index{
			{Name: "ratings_author_post_key", Columns: []string{"author_id", "post_id"}, Unique: true},
		},
	}
}

// RatingFromRow converts a stored row into a Rating.
func RatingFromRow(row interfaces.Row) *Rating {
	return &Rating{
		ID:        interfaces.ID(asInt64(row["id"])),
		PostID:    interfaces.ID(asInt64(row["post_id"])),
		AuthorID:  interfaces.ID(asInt64(row["author_id"])),
		Value:     asFloat64(row["value"]),
		CreatedAt: asTime(row["created_at"]),
		UpdatedAt: asTime(row["updated_at"]),
	}
}

// Row converts the rating into a row for insertion.
func (r *Rating) Row() interfaces.Row {
	return interfaces.Row{
		"post_id":   int64(r.PostID),
		"author_id": int64(r.AuthorID),
		"value":     r.Value,
	}
}
