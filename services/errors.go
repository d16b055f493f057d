package services

import (
	"errors"

	"eventhub/apperror"
	"eventhub/models"
)

// Client-facing messages shared across services.
const (
	msgInvalidCredentials = "Invalid credentials."
	msgEventNotFound      = "Event not found."
	msgUserNotFound       = "User not found."
	msgNotCreator         = "You do not have permission to modify this event."
	msgNotRegistered      = "You are not registered for this event."
	msgAlreadyRegistered  = "You are already registered for this event."
	msgInvalidToken       = "Token is invalid or expired."
)

// notFound maps models.ErrNotFound onto a NotFound error with msg; anything else is internal.
func notFound(err error, msg string) error {
	if errors.Is(err, models.ErrNotFound) {
		return apperror.NewNotFound(msg)
	}
	return apperror.NewInternal(err)
}

// IsNotRegistered reports whether err is the "no attendance row" failure.
func IsNotRegistered(err error) bool {
	ae := apperror.From(err)
	return ae != nil && ae.Kind == apperror.BadRequest && ae.Message == msgNotRegistered
}
