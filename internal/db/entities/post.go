package entities

import (
	"time"

	"github.com/osstd/The-Blog/internal/db/interfaces"
)

// Post is a published article. Deleting a post removes its comments and
// ratings via the cascade declared by their schemas.
type Post struct {
	ID        interfaces.ID
	AuthorID  interfaces.ID
	Title     string
	Subtitle  string
	Body      string
	ImgURL    string
	Date      string // display date, fixed at creation
	CreatedAt time.Time
	UpdatedAt time.Time
}

// PostSchema returns the schema for the posts table.
func PostSchema() *interfaces.Schema {
	return &interfaces.Schema{
		TableName: "blog_posts",
		Fields: map[string]interfaces.FieldSchema{
			"id":         {Type: "int64", PrimaryKey: true},
			"author_id":  {Type: "int64", ForeignKey: &interfaces.ForeignKey{Table: "users_blog", Column: "id", OnDelete: "RESTRICT"}},
			"title":      {Type: "string", Unique: true},
			"subtitle":   {Type: "string"},
			"body":       {Type: "string"},
			"img_url":    {Type: "string"},
			"date":       {Type: "string"},
			"created_at": {Type: "time"},
			"updated_at": {Type: "time"},
		},
	}
}

// PostFromRow converts a stored row into a Post.
func PostFromRow(row interfaces.Row) *Post {
	return &Post{
		ID:        interfaces.ID(asInt64(row["id"])),
		AuthorID:  interfaces.ID(asInt64(row["author_id"])),
		Title:     asString(row["title"]),
		Subtitle:  asString(row["subtitle"]),
		Body:      asString(row["body"]),
		ImgURL:    asString(row["img_url"]),
		Date:      asString(row["date"]),
		CreatedAt: asTime(row["created_at"]),
		UpdatedAt: asTime(row["updated_at"]),
	}
}

// Row converts the post into a row for insertion.
func (p *Post) Row() interfaces.Row {
	return interfaces.Row{
		"author_id": int64(p.AuthorID),
		"title":     p.Title,
		"subtitle":  p.Subtitle,
		"body":      p.Body,
		"img_url":   p.ImgURL,
		"date":      p.Date,
	}
}
