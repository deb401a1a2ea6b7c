package blog

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/osstd/The-Blog/internal/authz"
	"github.com/osstd/The-Blog/internal/db/entities"
	"github.com/osstd/The-Blog/internal/db/interfaces"
)

// RatingService handles rating CRUD. One rating per user per post; values
// are validated before they reach the gateway.
type RatingService struct {
	database interfaces.Database
	ratings  interfaces.Repository
	posts    interfaces.Repository
	logger   *zap.SugaredLogger
}

// NewRatingService creates a rating service over the given database.
func NewRatingService(database interfaces.Database, logger *zap.SugaredLogger) *RatingService {
	return &RatingService{
		database: database,
		ratings:  database.Repository(entities.RatingSchema()),
		posts:    database.Repository(entities.PostSchema()),
		logger:   logger,
	}
}

func validRatingValue(value float64) bool {
	return value >= 0 && value <= 10
}

// Create records the actor's rating for a post.
func (s *RatingService) Create(ctx context.Context, actor *entities.User, postID interfaces.ID, value float64) (*entities.Rating, error) {
	if _, err := s.posts.GetByID(ctx, postID); err != nil {
		if errors.Is(err, interfaces.ErrNotFound) {
			return nil, notFound("Post record not found")
		}
		s.logger.Errorw("failed to load post", "post_id", postID, "error", err)
		return nil, storage(err)
	}

	if !validRatingValue(value) {
		return nil, invalid("Rating must be between 0 and 10.")
	}

	_, err := s.ratings.FindOne(ctx, &interfaces.Query{
		Where: []interfaces.Filter{
			{Field: "author_id", Value: int64(actor.ID)},
			{Field: "post_id", Value: int64(postID)},
		},
	})
	if err == nil {
		return nil, conflict("You have already rated this post.")
	}
	if !errors.Is(err, interfaces.ErrNotFound) {
		s.logger.Errorw("failed to check for existing rating", "post_id", postID, "error", err)
		return nil, storage(err)
	}

	rating := &entities.Rating{PostID: postID, AuthorID: actor.ID, Value: value}

	var row interfaces.Row
	err = s.database.Transaction(ctx, func(ctx context.Context) error {
		var err error
		row, err = s.ratings.Create(ctx, rating.Row())
		return err
	})
	if err != nil {
		if errors.Is(err, interfaces.ErrUniqueConstraint) {
			return nil, conflict("You have already rated this post.")
		}
		s.logger.Errorw("failed to create rating", "post_id", postID, "error", err)
		return nil, storage(err)
	}

	return entities.RatingFromRow(row), nil
}

// Edit changes the actor's rating. Author only.
func (s *RatingService) Edit(ctx context.Context, actor *entities.User, id interfaces.ID, value float64) (*entities.Rating, error) {
	rating, err := s.resolve(ctx, id)
	if err != nil {
		return nil, err
	}
	if !authz.CanModifyRating(actor, rating) {
		return nil, forbidden("You are not allowed to edit this rating!")
	}
	if !validRatingValue(value) {
		return nil, invalid("Rating must be between 0 and 10.")
	}

	var row interfaces.Row
	err = s.database.Transaction(ctx, func(ctx context.Context) error {
		var err error
		row, err = s.ratings.Update(ctx, id, interfaces.Row{"value": value})
		return err
	})
	if err != nil {
		s.logger.Errorw("failed to update rating", "rating_id", id, "error", err)
		return nil, storage(err)
	}

	return entities.RatingFromRow(row), nil
}

// Delete removes the actor's rating. Author only.
func (s *RatingService) Delete(ctx context.Context, actor *entities.User, id interfaces.ID) (*entities.Rating, error) {
	rating, err := s.resolve(ctx, id)
	if err != nil {
		return nil, err
	}
	if !authz.CanModifyRating(actor, rating) {
		return nil, forbidden("You are not allowed to delete this rating!")
	}

	err = s.database.Transaction(ctx, func(ctx context.Context) error {
		return s.ratings.Delete(ctx, id)
	})
	if err != nil {
		s.logger.Errorw("failed to delete rating", "rating_id", id, "error", err)
		return nil, storage(err)
	}

	return rating, nil
}

// GetOwn loads a rating for its author, for the edit form.
func (s *RatingService) GetOwn(ctx context.Context, actor *entities.User, id interfaces.ID) (*entities.Rating, error) {
	rating, err := s.resolve(ctx, id)
	if err != nil {
		return nil, err
	}
	if !authz.CanModifyRating(actor, rating) {
		return nil, forbidden("You are not allowed to edit this rating!")
	}
	return rating, nil
}

// ListByAuthor returns the actor's ratings, for the dashboard.
func (s *RatingService) ListByAuthor(ctx context.Context, authorID interfaces.ID) ([]*entities.Rating, error) {
	result, err := s.ratings.FindMany(ctx, &interfaces.Query{
		Where:   []interfaces.Filter{{Field: "author_id", Value: int64(authorID)}},
		OrderBy: []interfaces.OrderBy{{Field: "id", Direction: "desc"}},
	})
	if err != nil {
		s.logger.Errorw("failed to list ratings by author", "author_id", authorID, "error", err)
		return nil, storage(err)
	}

	ratings := make([]*entities.Rating, 0, len(result.Data))
	for _, row := range result.Data {
		ratings = append(ratings, entities.RatingFromRow(row))
	}
	return ratings, nil
}

func (s *RatingService) resolve(ctx context.Context, id interfaces.ID) (*entities.Rating, error) {
	row, err := s.ratings.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, interfaces.ErrNotFound) {
			return nil, notFound("Rating record not found")
		}
		s.logger.Errorw("failed to load rating", "rating_id", id, "error", err)
		return nil, storage(err)
	}
	return entities.RatingFromRow(row), nil
}
