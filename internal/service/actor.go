package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/itsmenoahpoli/brgykonek-backend/internal/domain"
	"github.com/itsmenoahpoli/brgykonek-backend/internal/events"
	"github.com/itsmenoahpoli/brgykonek-backend/internal/rbac"
	apperrors "github.com/itsmenoahpoli/brgykonek-backend/pkg/util"
)

// Actor is the authenticated caller of a service operation.
type Actor struct {
	UserID string
	Role   domain.Role
}

// ActorFromUser builds an Actor for u.
func ActorFromUser(u *domain.User) Actor {
	return Actor{UserID: u.ID, Role: u.Role}
}

// Can reports whether the actor's role grants action.
func (a Actor) Can(action rbac.Action) bool {
	return rbac.Can(a.Role, action)
}

func (a Actor) require(action rbac.Action) error {
	if a.UserID == "" {
		return apperrors.NewUnauthorized("authentication required")
	}
	if !a.Can(action) {
		return apperrors.NewForbidden("insufficient permissions")
	}
	return nil
}

func (a Actor) eventActor() events.Actor {
	return events.Actor{UserID: a.UserID, Role: a.Role}
}

// validID rejects ids that can never exist so they do not reach the database
// as malformed uuid literals.
func validID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

func publishEvent(ctx context.Context, dispatcher events.Dispatcher, logger *zap.Logger, event events.Event) {
	if dispatcher == nil {
		return
	}
	if err := dispatcher.Publish(ctx, event); err != nil {
		logger.Warn("publish event failed", zap.String("event_type", string(event.Type)), zap.Error(err))
	}
}

func utcNow() time.Time {
	return time.Now().UTC()
}

func ptr[T any](v T) *T {
	return &v
}
