package blog

import (
	"context"
	"errors"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/osstd/The-Blog/internal/db/entities"
	"github.com/osstd/The-Blog/internal/db/interfaces"
)

// AccountService handles registration and authentication.
type AccountService struct {
	database interfaces.Database
	users    interfaces.Repository
	logger   *zap.SugaredLogger
}

// NewAccountService creates an account service over the given database.
func NewAccountService(database interfaces.Database, logger *zap.SugaredLogger) *AccountService {
	return &AccountService{
		database: database,
		users:    database.Repository(entities.UserSchema()),
		logger:   logger,
	}
}

// Register creates a new member account. The email is normalized before
// storage; a duplicate surfaces as a Conflict telling the user to log in.
func (s *AccountService) Register(ctx context.Context, email, password, name string) (*entities.User, error) {
	email = NormalizeEmail(email)
	if !ValidEmail(email) {
		return nil, invalid("Please enter a valid email address.")
	}
	if !ValidPassword(password) {
		return nil, invalid("Password must be at least 8 characters with upper and lower case letters and a number.")
	}
	name = SanitizeInput(name)
	if name == "" {
		return nil, invalid("Please enter your name.")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, storage(err)
	}

	user := &entities.User{
		Email:        email,
		PasswordHash: string(hash),
		Name:         name,
		Role:         entities.RoleMember,
	}

	var row interfaces.Row
	err = s.database.Transaction(ctx, func(ctx context.Context) error {
		var err error
		row, err = s.users.Create(ctx, user.Row())
		return err
	})
	if err != nil {
		if errors.Is(err, interfaces.ErrUniqueConstraint) {
			return nil, conflict("You've already signed up with that email, log in instead!")
		}
		s.logger.Errorw("failed to register user", "email", email, "error", err)
		return nil, storage(err)
	}

	return entities.UserFromRow(row), nil
}

// Authenticate verifies credentials and returns the account. The two
// failure modes carry distinct messages.
func (s *AccountService) Authenticate(ctx context.Context, email, password string) (*entities.User, error) {
	email = NormalizeEmail(email)

	row, err := s.users.FindOne(ctx, &interfaces.Query{
		Where: []interfaces.Filter{{Field: "email", Value: email}},
	})
	if err != nil {
		if errors.Is(err, interfaces.ErrNotFound) {
			return nil, notFound("That email does not exist, please try again.")
		}
		s.logger.Errorw("failed to look up user", "email", email, "error", err)
		return nil, storage(err)
	}

	user := entities.UserFromRow(row)
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return nil, forbidden("Password incorrect, please try again.")
	}

	return user, nil
}

// GetByID loads an account, for session restoration.
func (s *AccountService) GetByID(ctx context.Context, id interfaces.ID) (*entities.User, error) {
	row, err := s.users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, interfaces.ErrNotFound) {
			return nil, notFound("User record can not be retrieved")
		}
		s.logger.Errorw("failed to load user", "id", id, "error", err)
		return nil, storage(err)
	}
	return entities.UserFromRow(row), nil
}
