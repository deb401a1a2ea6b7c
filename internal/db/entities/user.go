package entities

import (
	"time"

	"github.com/osstd/The-Blog/internal/db/interfaces"
)

// Roles. Admin is a data property of the account, not a magic ID.
const (
	RoleMember = "member"
	RoleAdmin  = "admin"
)

// User is a registered account. Users are never deleted.
type User struct {
	ID                interfaces.ID
	Email             string
	PasswordHash      string
	Name              string
	Role              string
	CanPost           bool
	HasPendingRequest bool
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// IsAdmin reports whether the user holds the admin role.
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// UserSchema returns the schema for the users table.
func UserSchema() *interfaces.Schema {
	return &interfaces.Schema{
		TableName: "users_blog",
		Fields: map[string]interfaces.FieldSchema{
			"id":                  {Type: "int64", PrimaryKey: true},
			"email":               {Type: "string", Unique: true},
			"password":            {Type: "string"},
			"name":                {Type: "string"},
			"role":                {Type: "string", DefaultValue: RoleMember},
			"can_post":            {Type: "bool", DefaultValue: false},
			"has_pending_request": {Type: "bool", DefaultValue: false},
			"created_at":          {Type: "time"},
			"updated_at":          {Type: "time"},
		},
	}
}

// UserFromRow converts a stored row into a User.
func UserFromRow(row interfaces.Row) *User {
	return &User{
		ID:                interfaces.ID(asInt64(row["id"])),
		Email:             asString(row["email"]),
		PasswordHash:      asString(row["password"]),
		Name:              asString(row["name"]),
		Role:              asString(row["role"]),
		CanPost:           asBool(row["can_post"]),
		HasPendingRequest: asBool(row["has_pending_request"]),
		CreatedAt:         asTime(row["created_at"]),
		UpdatedAt:         asTime(row["updated_at"]),
	}
}

// Row converts the user into a row for insertion.
func (u *User) Row() interfaces.Row {
	return interfaces.Row{
		"email":               u.Email,
		"password":            u.PasswordHash,
		"name":                u.Name,
		"role":                u.Role,
		"can_post":            u.CanPost,
		"has_pending_request": u.HasPendingRequest,
	}
}
