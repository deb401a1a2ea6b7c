package db

import (
	"context"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"github.com/osstd/The-Blog/internal/db/entities"
	"github.com/osstd/The-Blog/internal/db/interfaces"
)

// AllSchemas returns every entity schema in dependency order, parents first.
func AllSchemas() []*interfaces.Schema {
	return []*interfaces.Schema{
		entities.UserSchema(),
		entities.PostSchema(),
		entities.CommentSchema(),
		entities.RatingSchema(),
	}
}

// SeedAdmin ensures the configured admin account exists. Re-running against
// an already seeded store is a no-op; the unique email constraint makes the
// insert skip.
func SeedAdmin(ctx context.Context, database interfaces.Database, email, password, name string) error {
	if email == "" || password == "" {
		return fmt.Errorf("admin email and password must be configured")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash admin password: %w", err)
	}

	admin := &entities.User{
		Email:        email,
		PasswordHash: string(hash),
		Name:         name,
		Role:         entities.RoleAdmin,
		CanPost:      true,
	}

	return database.Seed(ctx, entities.UserSchema(), []interfaces.Row{admin.Row()})
}
