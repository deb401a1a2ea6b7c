package blog

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/osstd/The-Blog/internal/authz"
	"github.com/osstd/The-Blog/internal/db/entities"
	"github.com/osstd/The-Blog/internal/db/interfaces"
	"github.com/osstd/The-Blog/internal/notify"
)

// PermissionService handles the posting-permission workflow: members request
// the right to post, admins approve or deny. State changes always commit;
// notification outcomes only influence the flash message.
type PermissionService struct {
	database   interfaces.Database
	users      interfaces.Repository
	mailer     notify.Mailer
	sms        notify.SMSSender
	dispatcher *notify.Dispatcher
	logger     *zap.SugaredLogger
}

// NewPermissionService creates a permission service.
func NewPermissionService(
	database interfaces.Database,
	mailer notify.Mailer,
	sms notify.SMSSender,
	dispatcher *notify.Dispatcher,
	logger *zap.SugaredLogger,
) *PermissionService {
	return &PermissionService{
		database:   database,
		users:      database.Repository(entities.UserSchema()),
		mailer:     mailer,
		sms:        sms,
		dispatcher: dispatcher,
		logger:     logger,
	}
}

// Request marks the actor as having a pending posting request and notifies
// the site owner by email and SMS in the background. A failed SMS falls back
// to a second email so the owner always hears about the request somehow.
func (s *PermissionService) Request(ctx context.Context, actor *entities.User, reason string) error {
	reason = SanitizeInput(reason)
	if reason == "" {
		return invalid("Please tell us why you would like to post.")
	}

	err := s.database.Transaction(ctx, func(ctx context.Context) error {
		_, err := s.users.Update(ctx, actor.ID, interfaces.Row{"has_pending_request": true})
		return err
	})
	if err != nil {
		if errors.Is(err, interfaces.ErrNotFound) {
			return notFound("User record can not be retrieved")
		}
		s.logger.Errorw("failed to record posting request", "user_id", actor.ID, "error", err)
		return storage(err)
	}

	subject := fmt.Sprintf("New request to post from %s", actor.Name)
	body := fmt.Sprintf("Name: %s\nEmail: %s\n\nReason:\n%s", actor.Name, actor.Email, reason)

	s.dispatcher.Go("request-email", func(ctx context.Context) error {
		return s.mailer.Send(ctx, notify.Message{Subject: subject, Body: body})
	}, nil)

	s.dispatcher.Go("request-sms", func(ctx context.Context) error {
		result := s.sms.Send(ctx, "You have a request to post pending.")
		if result.Success {
			s.logger.Infow("request sms sent", "sid", result.SID, "status", result.Status)
			return nil
		}
		// Fall back to email so the owner still hears about the request.
		fallback := notify.Message{
			Subject: "Text message could not be sent",
			Body: fmt.Sprintf("An SMS about a pending posting request was not delivered.\nError %d: %s",
				result.ErrorCode, result.ErrorMessage),
		}
		if err := s.mailer.Send(ctx, fallback); err != nil {
			return err
		}
		return fmt.Errorf("sms failed with code %d: %s", result.ErrorCode, result.ErrorMessage)
	}, nil)

	return nil
}

// Decide approves or denies a pending request. Only admins may decide. The
// state change commits regardless of whether the decision email reaches the
// user; the returned flag tells the caller which flash to show.
func (s *PermissionService) Decide(ctx context.Context, actor *entities.User, userID interfaces.ID, approve bool) (notified bool, err error) {
	if !authz.CanApproveRequests(actor) {
		return false, forbidden("You are not allowed to manage posting requests!")
	}

	row, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, interfaces.ErrNotFound) {
			return false, notFound("User record can not be retrieved")
		}
		s.logger.Errorw("failed to load user", "user_id", userID, "error", err)
		return false, storage(err)
	}
	user := entities.UserFromRow(row)

	err = s.database.Transaction(ctx, func(ctx context.Context) error {
		_, err := s.users.Update(ctx, userID, interfaces.Row{
			"can_post":            approve,
			"has_pending_request": false,
		})
		return err
	})
	if err != nil {
		s.logger.Errorw("failed to update posting permission", "user_id", userID, "error", err)
		return false, storage(err)
	}

	var msg notify.Message
	if approve {
		msg = notify.Message{
			Subject:   "Your posting request was accepted",
			Body:      fmt.Sprintf("Hello %s,\n\nYour request to post has been accepted. You can now add posts from the home page.", user.Name),
			Recipient: user.Email,
		}
	} else {
		msg = notify.Message{
			Subject:   "Your posting request was denied",
			Body:      fmt.Sprintf("Hello %s,\n\nYour request to post has been denied. You are welcome to request again.", user.Name),
			Recipient: user.Email,
		}
	}

	sendErr := s.dispatcher.Do(ctx, "decision-email", func(ctx context.Context) error {
		return s.mailer.Send(ctx, msg)
	})

	return sendErr == nil, nil
}

// PendingRequests returns users awaiting a decision. Admin only.
func (s *PermissionService) PendingRequests(ctx context.Context, actor *entities.User) ([]*entities.User, error) {
	if !authz.CanApproveRequests(actor) {
		return nil, forbidden("You are not allowed to manage posting requests!")
	}
	return s.listByFlag(ctx, "has_pending_request")
}

// Authors returns users currently allowed to post. Admin only.
func (s *PermissionService) Authors(ctx context.Context, actor *entities.User) ([]*entities.User, error) {
	if !authz.CanApproveRequests(actor) {
		return nil, forbidden("You are not allowed to manage posting requests!")
	}
	return s.listByFlag(ctx, "can_post")
}

func (s *PermissionService) listByFlag(ctx context.Context, field string) ([]*entities.User, error) {
	result, err := s.users.FindMany(ctx, &interfaces.Query{
		Where:   []interfaces.Filter{{Field: field, Value: true}},
		OrderBy: []interfaces.OrderBy{{Field: "id", Direction: "asc"}},
	})
	if err != nil {
		s.logger.Errorw("failed to list users by flag", "field", field, "error", err)
		return nil, storage(err)
	}

	users := make([]*entities.User, 0, len(result.Data))
	for _, row := range result.Data {
		users = append(users, entities.UserFromRow(row))
	}
	return users, nil
}
