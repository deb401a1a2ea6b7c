package blog

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/osstd/The-Blog/internal/authz"
	"github.com/osstd/The-Blog/internal/db/entities"
	"github.com/osstd/The-Blog/internal/db/interfaces"
)

// CommentService handles comment CRUD. One comment per user per post.
type CommentService struct {
	database interfaces.Database
	comments interfaces.Repository
	posts    interfaces.Repository
	logger   *zap.SugaredLogger
}

// NewCommentService creates a comment service over the given database.
func NewCommentService(database interfaces.Database, logger *zap.SugaredLogger) *CommentService {
	return &CommentService{
		database: database,
		comments: database.Repository(entities.CommentSchema()),
		posts:    database.Repository(entities.PostSchema()),
		logger:   logger,
	}
}

// Create adds the actor's comment to a post. The pre-check gives the
// friendly duplicate message; the unique index backstops the race.
func (s *CommentService) Create(ctx context.Context, actor *entities.User, postID interfaces.ID, text string) (*entities.Comment, error) {
	if _, err := s.posts.GetByID(ctx, postID); err != nil {
		if errors.Is(err, interfaces.ErrNotFound) {
			return nil, notFound("Post record not found")
		}
		s.logger.Errorw("failed to load post", "post_id", postID, "error", err)
		return nil, storage(err)
	}

	text = SanitizeInput(text)
	if text == "" {
		return nil, invalid("Comment text is required.")
	}

	_, err := s.comments.FindOne(ctx, &interfaces.Query{
		Where: []interfaces.Filter{
			{Field: "author_id", Value: int64(actor.ID)},
			{Field: "post_id", Value: int64(postID)},
		},
	})
	if err == nil {
		return nil, conflict("You have already commented on this post.")
	}
	if !errors.Is(err, interfaces.ErrNotFound) {
		s.logger.Errorw("failed to check for existing comment", "post_id", postID, "error", err)
		return nil, storage(err)
	}

	comment := &entities.Comment{PostID: postID, AuthorID: actor.ID, Text: text}

	var row interfaces.Row
	err = s.database.Transaction(ctx, func(ctx context.Context) error {
		var err error
		row, err = s.comments.Create(ctx, comment.Row())
		return err
	})
	if err != nil {
		if errors.Is(err, interfaces.ErrUniqueConstraint) {
			return nil, conflict("You have already commented on this post.")
		}
		s.logger.Errorw("failed to create comment", "post_id", postID, "error", err)
		return nil, storage(err)
	}

	return entities.CommentFromRow(row), nil
}

// Edit rewrites the actor's comment. Author only.
func (s *CommentService) Edit(ctx context.Context, actor *entities.User, id interfaces.ID, text string) (*entities.Comment, error) {
	comment, err := s.resolve(ctx, id)
	if err != nil {
		return nil, err
	}
	if !authz.CanModifyComment(actor, comment) {
		return nil, forbidden("You are not allowed to edit this comment!")
	}

	text = SanitizeInput(text)
	if text == "" {
		return nil, invalid("Comment text is required.")
	}

	var row interfaces.Row
	err = s.database.Transaction(ctx, func(ctx context.Context) error {
		var err error
		row, err = s.comments.Update(ctx, id, interfaces.Row{"text": text})
		return err
	})
	if err != nil {
		s.logger.Errorw("failed to update comment", "comment_id", id, "error", err)
		return nil, storage(err)
	}

	return entities.CommentFromRow(row), nil
}

// Delete removes the actor's comment. Author only.
func (s *CommentService) Delete(ctx context.Context, actor *entities.User, id interfaces.ID) (*entities.Comment, error) {
	comment, err := s.resolve(ctx, id)
	if err != nil {
		return nil, err
	}
	if !authz.CanModifyComment(actor, comment) {
		return nil, forbidden("You are not allowed to delete this comment!")
	}

	err = s.database.Transaction(ctx, func(ctx context.Context) error {
		return s.comments.Delete(ctx, id)
	})
	if err != nil {
		s.logger.Errorw("failed to delete comment", "comment_id", id, "error", err)
		return nil, storage(err)
	}

	return comment, nil
}

// GetOwn loads a comment for its author, for the edit form.
func (s *CommentService) GetOwn(ctx context.Context, actor *entities.User, id interfaces.ID) (*entities.Comment, error) {
	comment, err := s.resolve(ctx, id)
	if err != nil {
		return nil, err
	}
	if !authz.CanModifyComment(actor, comment) {
		return nil, forbidden("You are not allowed to edit this comment!")
	}
	return comment, nil
}

// ListByAuthor returns the actor's comments, for the dashboard.
func (s *CommentService) ListByAuthor(ctx context.Context, authorID interfaces.ID) ([]*entities.Comment, error) {
	result, err := s.comments.FindMany(ctx, &interfaces.Query{
		Where:   []interfaces.Filter{{Field: "author_id", Value: int64(authorID)}},
		OrderBy: []interfaces.OrderBy{{Field: "id", Direction: "desc"}},
	})
	if err != nil {
		s.logger.Errorw("failed to list comments by author", "author_id", authorID, "error", err)
		return nil, storage(err)
	}

	comments := make([]*entities.Comment, 0, len(result.Data))
	for _, row := range result.Data {
		comments = append(comments, entities.CommentFromRow(row))
	}
	return comments, nil
}

func (s *CommentService) resolve(ctx context.Context, id interfaces.ID) (*entities.Comment, error) {
	row, err := s.comments.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, interfaces.ErrNotFound) {
			return nil, notFound("Comment record not found")
		}
		s.logger.Errorw("failed to load comment", "comment_id", id, "error", err)
		return nil, storage(err)
	}
	return entities.CommentFromRow(row), nil
}
