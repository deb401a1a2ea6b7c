// Package authz holds the authorization rules. All functions are pure:
// they inspect already-loaded entities and perform no I/O, so callers decide
// how to resolve the inputs and how to surface a denial.
package authz

import "github.com/osstd/The-Blog/internal/db/entities"

// CanCreatePost reports whether the user may author new posts.
func CanCreatePost(user *entities.User) bool {
	return user != nil && user.CanPost
}

// CanModifyPost reports whether the user may edit or delete the post.
// Admins may modify any post; everyone else only their own.
func CanModifyPost(user *entities.User, post *entities.Post) bool {
	if user == nil || post == nil {
		return false
	}
	return user.IsAdmin() || user.ID == post.AuthorID
}

// CanModifyComment reports whether the user may edit or delete the comment.
// Only the comment's author may; there is no admin override.
func CanModifyComment(user *entities.User, comment *entities.Comment) bool {
	if user == nil || comment == nil {
		return false
	}
	return user.ID == comment.AuthorID
}

// CanModifyRating reports whether the user may edit or delete the rating.
// Only the rating's author may; there is no admin override.
func CanModifyRating(user *entities.User, rating *entities.Rating) bool {
	if user == nil || rating == nil {
		return false
	}
	return user.ID == rating.AuthorID
}

// CanApproveRequests reports whether the user may decide posting requests.
func CanApproveRequests(user *entities.User) bool {
	return user != nil && user.IsAdmin()
}
