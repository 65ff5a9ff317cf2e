package domain

import "errors"

var (
	ErrUserNotFound         = errors.New("user not found")
	ErrWorkoutNotFound      = errors.New("workout not found")
	ErrPlanNotFound         = errors.New("training plan not found")
	ErrConversationNotFound = errors.New("conversation not found")
	ErrRelationshipNotFound = errors.New("relationship not found")
	ErrInvitationNotFound   = errors.New("invitation not found")
	ErrRaceNotFound         = errors.New("race not found")
	ErrNotificationNotFound = errors.New("notification not found")
	ErrIntegrationNotFound  = errors.New("integration account not found")
	ErrSettingsNotFound     = errors.New("settings not found")

	ErrInvalidCredentials  = errors.New("invalid credentials")
	ErrInvalidInput        = errors.New("invalid input")
	ErrInvalidTransition   = errors.New("invalid status transition")
	ErrInvitationNotOpen   = errors.New("invitation is no longer pending")
	ErrRelationshipExists  = errors.New("active relationship already exists")
	ErrRelationshipEnded   = errors.New("relationship has ended")
	ErrNotConversationPeer = errors.New("user is not a member of this conversation")
	ErrDuplicateActivity   = errors.New("activity already imported")
)
