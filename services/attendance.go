package services

import (
	"context"
	"errors"

	"eventhub/apperror"
	"eventhub/models"
)

// AttendanceService moves a (user, event) pair between not registered, pending and
// confirmed. Every operation requires the event to exist.
type AttendanceService struct {
	events    models.EventRepository
	attendees models.AttendeeRepository
}

func NewAttendanceService(events models.EventRepository, attendees models.AttendeeRepository) *AttendanceService {
	return &AttendanceService{events: events, attendees: attendees}
}

func (s *AttendanceService) requireEvent(ctx context.Context, eventID int64) error {
	if _, err := s.events.GetByID(ctx, eventID); err != nil {
		return notFound(err, msgEventNotFound)
	}
	return nil
}

func notRegistered(err error) error {
	if errors.Is(err, models.ErrNotFound) {
		return apperror.NewBadRequest(msgNotRegistered, nil)
	}
	return apperror.NewInternal(err)
}

// missingReference covers a user or event removed between the checks and the insert.
func missingReference(err error) error {
	if errors.Is(err, models.ErrMissingReference) {
		return apperror.NewNotFound(msgEventNotFound)
	}
	return apperror.NewInternal(err)
}

// Attend registers the user as pending unless a row already exists. created is false
// for a repeat call, which returns the existing row untouched.
func (s *AttendanceService) Attend(ctx context.Context, userID, eventID int64) (a *models.Attendee, created bool, err error) {
	if err := s.requireEvent(ctx, eventID); err != nil {
		return nil, false, err
	}
	a, created, err = s.attendees.GetOrCreate(ctx, userID, eventID)
	if err != nil {
		return nil, false, missingReference(err)
	}
	return a, created, nil
}

// Register is the strict form of Attend: a duplicate is a Conflict.
func (s *AttendanceService) Register(ctx context.Context, userID, eventID int64) (*models.Attendee, error) {
	if err := s.requireEvent(ctx, eventID); err != nil {
		return nil, err
	}
	a, err := s.attendees.Create(ctx, userID, eventID)
	if errors.Is(err, models.ErrAlreadyRegistered) {
		return nil, apperror.NewConflict(msgAlreadyRegistered, err)
	}
	if err != nil {
		return nil, missingReference(err)
	}
	return a, nil
}

func (s *AttendanceService) setConfirmed(ctx context.Context, userID, eventID int64, confirmed bool) (*models.Attendee, error) {
	if err := s.requireEvent(ctx, eventID); err != nil {
		return nil, err
	}
	a, err := s.attendees.SetConfirmed(ctx, userID, eventID, confirmed)
	if err != nil {
		return nil, notRegistered(err)
	}
	return a, nil
}

func (s *AttendanceService) Confirm(ctx context.Context, userID, eventID int64) (*models.Attendee, error) {
	return s.setConfirmed(ctx, userID, eventID, true)
}

func (s *AttendanceService) Decline(ctx context.Context, userID, eventID int64) (*models.Attendee, error) {
	return s.setConfirmed(ctx, userID, eventID, false)
}

func (s *AttendanceService) Cancel(ctx context.Context, userID, eventID int64) error {
	if err := s.requireEvent(ctx, eventID); err != nil {
		return err
	}
	if err := s.attendees.Delete(ctx, userID, eventID); err != nil {
		return notRegistered(err)
	}
	return nil
}

func (s *AttendanceService) ListAttendees(ctx context.Context, eventID int64) ([]models.Attendee, error) {
	if err := s.requireEvent(ctx, eventID); err != nil {
		return nil, err
	}
	out, err := s.attendees.ListByEvent(ctx, eventID)
	if err != nil {
		return nil, apperror.NewInternal(err)
	}
	return out, nil
}
