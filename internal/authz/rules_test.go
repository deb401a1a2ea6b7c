package authz

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/osstd/The-Blog/internal/db/entities"
)

func TestCanCreatePost(t *testing.T) {
	assert.False(t, CanCreatePost(nil))
	assert.False(t, CanCreatePost(&entities.User{ID: 2}))
	assert.True(t, CanCreatePost(&entities.User{ID: 2, CanPost: true}))

	// The admin role alone grants nothing; posting requires the flag.
	assert.False(t, CanCreatePost(&entities.User{ID: 1, Role: entities.RoleAdmin}))
}

func TestCanModifyPost(t *testing.T) {
	author := &entities.User{ID: 2}
	admin := &entities.User{ID: 1, Role: entities.RoleAdmin}
	stranger := &entities.User{ID: 3}
	post := &entities.Post{ID: 10, AuthorID: 2}

	assert.True(t, CanModifyPost(author, post))
	assert.True(t, CanModifyPost(admin, post))
	assert.False(t, CanModifyPost(stranger, post))
	assert.False(t, CanModifyPost(nil, post))
	assert.False(t, CanModifyPost(author, nil))
}

func TestCanModifyCommentNoAdminOverride(t *testing.T) {
	author := &entities.User{ID: 2}
	admin := &entities.User{ID: 1, Role: entities.RoleAdmin}
	comment := &entities.Comment{ID: 5, AuthorID: 2}

	assert.True(t, CanModifyComment(author, comment))
	assert.False(t, CanModifyComment(admin, comment))
	assert.False(t, CanModifyComment(&entities.User{ID: 3}, comment))
}

func TestCanModifyRatingNoAdminOverride(t *testing.T) {
	author := &entities.User{ID: 2}
	admin := &entities.User{ID: 1, Role: entities.RoleAdmin}
	rating := &entities.Rating{ID: 5, AuthorID: 2}

	assert.True(t, CanModifyRating(author, rating))
	assert.False(t, CanModifyRating(admin, rating))
	assert.False(t, CanModifyRating(&entities.User{ID: 3}, rating))
}

func TestCanApproveRequests(t *testing.T) {
	assert.True(t, CanApproveRequests(&entities.User{ID: 1, Role: entities.RoleAdmin}))
	assert.False(t, CanApproveRequests(&entities.User{ID: 2}))
	assert.False(t, CanApproveRequests(nil))
}
