package server

import (
	"errors"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/shanebarringer/ultracoach-sub001/internal/domain"
	apperrors "github.com/shanebarringer/ultracoach-sub001/internal/errors"
)

// currentUser returns the authenticated user placed on the context by
// requireAuth.
func currentUser(c echo.Context) (*domain.User, error) {
	user, ok := c.Get("user").(*domain.User)
	if !ok || user == nil {
		return nil, apperrors.InternalError("no user in request context", nil)
	}
	return user, nil
}

// pathUUID parses a :param path segment as a UUID.
func pathUUID(c echo.Context, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		return uuid.Nil, apperrors.ValidationError("invalid " + name).WithField(name, c.Param(name))
	}
	return id, nil
}

// mapDomainErr translates service errors into structured HTTP errors. Domain
// sentinels carry the status semantics; anything unrecognized is internal.
func mapDomainErr(err error, action string) error {
	var structured *apperrors.Error
	if errors.As(err, &structured) {
		return err
	}

	switch {
	case errors.Is(err, domain.ErrUserNotFound),
		errors.Is(err, domain.ErrWorkoutNotFound),
		errors.Is(err, domain.ErrPlanNotFound),
		errors.Is(err, domain.ErrConversationNotFound),
		errors.Is(err, domain.ErrRelationshipNotFound),
		errors.Is(err, domain.ErrInvitationNotFound),
		errors.Is(err, domain.ErrRaceNotFound),
		errors.Is(err, domain.ErrNotificationNotFound),
		errors.Is(err, domain.ErrIntegrationNotFound),
		errors.Is(err, domain.ErrSettingsNotFound):
		return apperrors.NotFoundError(err.Error())
	case errors.Is(err, domain.ErrInvalidCredentials):
		return apperrors.UnauthorizedError("invalid credentials")
	case errors.Is(err, domain.ErrInvalidInput):
		return apperrors.ValidationError(err.Error())
	case errors.Is(err, domain.ErrNotConversationPeer):
		return apperrors.ForbiddenError(err.Error())
	case errors.Is(err, domain.ErrInvalidTransition),
		errors.Is(err, domain.ErrInvitationNotOpen),
		errors.Is(err, domain.ErrRelationshipExists),
		errors.Is(err, domain.ErrRelationshipEnded),
		errors.Is(err, domain.ErrDuplicateActivity):
		return apperrors.ConflictError(err.Error())
	default:
		return apperrors.InternalError(action, err)
	}
}
