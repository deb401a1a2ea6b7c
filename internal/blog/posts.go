package blog

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/osstd/The-Blog/internal/authz"
	"github.com/osstd/The-Blog/internal/db/entities"
	"github.com/osstd/The-Blog/internal/db/interfaces"
)

// PostInput carries the editable fields of a post.
type PostInput struct {
	Title    string
	Subtitle string
	Body     string
	ImgURL   string
}

// CommentView pairs a comment with its author's display name.
type CommentView struct {
	Comment    *entities.Comment
	AuthorName string
}

/// PostView is a post page: the post, its author, its comments and the mean
// rating (0 when unrated).
type PostView struct {
	Post       *entities.Post
	AuthorName string
	Comments   []CommentView
	Ratings    []*entities.Rating
	MeanRating float64
}

// PostService handles post CRUD.
type PostService struct {
	database interfaces.Database
	posts    interfaces.Repository
	comments interfaces.Repository
	ratings  interfaces.Repository
	users    interfaces.Repository
	logger   *zap.SugaredLogger
}

// NewPostService creates a post service over the given database.
func NewPostService(database interfaces.Database, logger *zap.SugaredLogger) *PostService {
	return &PostService{
		database: database,
		posts:    database.Repository(entities.PostSchema()),
		comments: database.Repository(entities.CommentSchema()),
		ratings:  database.Repository(entities.RatingSchema()),
		users:    database.Repository(entities.UserSchema()),
		logger:   logger,
	}
}

// List returns all posts, newest first. World-readable.
func (s *PostService) List(ctx context.Context) ([]*entities.Post, error) {
	result, err := s.posts.FindMany(ctx, &interfaces.Query{
		OrderBy: []interfaces.OrderBy{{Field: "id", Direction: "desc"}},
	})
	if err != nil {
		s.logger.Errorw("failed to list posts", "error", err)
		return nil, storage(err)
	}

	posts := make([]*entities.Post, 0, len(result.Data))
	for _, row := range result.Data {
		posts = append(posts, entities.PostFromRow(row))
	}
	return posts, nil
}

// Get returns the full post page data. The mean rating is computed here at
// read time rather than stored.
func (s *PostService) Get(ctx context.Context, id interfaces.ID) (*PostView, error) {
	post, err := s.resolve(ctx, id)
	if err != nil {
		return nil, err
	}

	view := &PostView{Post: post}

	if author, err := s.users.GetByID(ctx, post.AuthorID); err == nil {
		view.AuthorName = entities.UserFromRow(author).Name
	}

	byPost := &interfaces.Query{
		Where:   []interfaces.Filter{{Field: "post_id", Value: int64(id)}},
		OrderBy: []interfaces.OrderBy{{Field: "id", Direction: "asc"}},
	}

	commentRows, err := s.comments.FindMany(ctx, byPost)
	if err != nil {
		s.logger.Errorw("failed to load comments", "post_id", id, "error", err)
		return nil, storage(err)
	}
	for _, row := range commentRows.Data {
		comment := entities.CommentFromRow(row)
		cv := CommentView{Comment: comment}
		if author, err := s.users.GetByID(ctx, comment.AuthorID); err == nil {
			cv.AuthorName = entities.UserFromRow(author).Name
		}
		view.Comments = append(view.Comments, cv)
	}

	ratingRows, err := s.ratings.FindMany(ctx, byPost)
	if err != nil {
		s.logger.Errorw("failed to load ratings", "post_id", id, "error", err)
		return nil, storage(err)
	}
	var sum float64
	for _, row := range ratingRows.Data {
		rating := entities.RatingFromRow(row)
		view.Ratings = append(view.Ratings, rating)
		sum += rating.Value
	}
	if len(view.Ratings) > 0 {
		view.MeanRating = sum / float64(len(view.Ratings))
	}

	return view, nil
}

// Create publishes a new post by the actor. The display date is fixed at
// creation time.
func (s *PostService) Create(ctx context.Context, actor *entities.User, input PostInput) (*entities.Post, error) {
	if !authz.CanCreatePost(actor) {
		return nil, forbidden("You are not allowed to add posts, you can request permission on the home page.")
	}
	if err := validatePostInput(&input); err != nil {
		return nil, err
	}

	post := &entities.Post{
		AuthorID: actor.ID,
		Title:    input.Title,
		Subtitle: input.Subtitle,
		Body:     input.Body,
		ImgURL:   input.ImgURL,
		Date:     time.Now().Format("January 2, 2006"),
	}

	var row interfaces.Row
	err := s.database.Transaction(ctx, func(ctx context.Context) error {
		var err error
		row, err = s.posts.Create(ctx, post.Row())
		return err
	})
	if err != nil {
		if errors.Is(err, interfaces.ErrUniqueConstraint) {
			return nil, conflict("This title already exists.")
		}
		s.logger.Errorw("failed to create post", "author_id", actor.ID, "error", err)
		return nil, storage(err)
	}

	return entities.PostFromRow(row), nil
}

// Update edits an existing post. The author or an admin may edit; the
// display date is left unchanged.
func (s *PostService) Update(ctx context.Context, actor *entities.User, id interfaces.ID, input PostInput) (*entities.Post, error) {
	post, err := s.resolve(ctx, id)
	if err != nil {
		return nil, err
	}
	if !authz.CanModifyPost(actor, post) {
		return nil, forbidden("You are not allowed to edit this post!")
	}
	if err := validatePostInput(&input); err != nil {
		return nil, err
	}

	var row interfaces.Row
	err = s.database.Transaction(ctx, func(ctx context.Context) error {
		var err error
		row, err = s.posts.Update(ctx, id, interfaces.Row{
			"title":    input.Title,
			"subtitle": input.Subtitle,
			"body":     input.Body,
			"img_url":  input.ImgURL,
		})
		return err
	})
	if err != nil {
		if errors.Is(err, interfaces.ErrUniqueConstraint) {
			return nil, conflict("This title already exists.")
		}
		s.logger.Errorw("failed to update post", "post_id", id, "error", err)
		return nil, storage(err)
	}

	return entities.PostFromRow(row), nil
}

// Delete removes a post and, by cascade, its comments and ratings.
func (s *PostService) Delete(ctx context.Context, actor *entities.User, id interfaces.ID) error {
	post, err := s.resolve(ctx, id)
	if err != nil {
		return err
	}
	if !authz.CanModifyPost(actor, post) {
		return forbidden("You are not allowed to delete this post!")
	}

	err = s.database.Transaction(ctx, func(ctx context.Context) error {
		return s.posts.Delete(ctx, id)
	})
	if err != nil {
		if errors.Is(err, interfaces.ErrNotFound) {
			return notFound("Post record not found")
		}
		s.logger.Errorw("failed to delete post", "post_id", id, "error", err)
		return storage(err)
	}

	return nil
}

// ListByAuthor returns the actor's own posts, for the dashboard.
func (s *PostService) ListByAuthor(ctx context.Context, authorID interfaces.ID) ([]*entities.Post, error) {
	result, err := s.posts.FindMany(ctx, &interfaces.Query{
		Where:   []interfaces.Filter{{Field: "author_id", Value: int64(authorID)}},
		OrderBy: []interfaces.OrderBy{{Field: "id", Direction: "desc"}},
	})
	if err != nil {
		s.logger.Errorw("failed to list posts by author", "author_id", authorID, "error", err)
		return nil, storage(err)
	}

	posts := make([]*entities.Post, 0, len(result.Data))
	for _, row := range result.Data {
		posts = append(posts, entities.PostFromRow(row))
	}
	return posts, nil
}

func (s *PostService) resolve(ctx context.Context, id interfaces.ID) (*entities.Post, error) {
	row, err := s.posts.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, interfaces.ErrNotFound) {
			return nil, notFound("Post record not found")
		}
		s.logger.Errorw("failed to load post", "post_id", id, "error", err)
		return nil, storage(err)
	}
	return entities.PostFromRow(row), nil
}

func validatePostInput(input *PostInput) error {
	input.Title = SanitizeInput(input.Title)
	input.Subtitle = SanitizeInput(input.Subtitle)
	input.Body = SanitizeInput(input.Body)
	input.ImgURL = strings.TrimSpace(input.ImgURL)

	if input.Title == "" || input.Subtitle == "" || input.Body == "" {
		return invalid("All fields are required.")
	}
	if !ValidURL(input.ImgURL) {
		return invalid("Please provide a valid image URL.")
	}
	return nil
}
