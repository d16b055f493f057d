package services

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"eventhub/apperror"
	"eventhub/models"
	"eventhub/validation"
)

type EventService struct {
	events models.EventRepository
	loc    *time.Location
	order  models.SortOrder
}

type EventServiceConfig struct {
	Events    models.EventRepository
	Location  *time.Location
	SortOrder string
}

func NewEventService(cfg EventServiceConfig) *EventService {
	loc := cfg.Location
	if loc == nil {
		loc = time.UTC
	}
	order := models.SortDesc
	if strings.EqualFold(cfg.SortOrder, string(models.SortAsc)) {
		order = models.SortAsc
	}
	return &EventService{events: cfg.Events, loc: loc, order: order}
}

// Location is the zone event dates and times are expressed in.
func (s *EventService) Location() *time.Location { return s.loc }

// EventInput carries create and update payloads. The instant is given either as date plus
// time, or as a single RFC 3339 date_time.
type EventInput struct {
	Title       models.Optional[string] `json:"title"`
	Description models.Optional[string] `json:"description"`
	Location    models.Optional[string] `json:"location"`
	Date        models.Optional[string] `json:"date"`
	Time        models.Optional[string] `json:"time"`
	DateTime    models.Optional[string] `json:"date_time"`
}

type ListQuery struct {
	Search string
	Date   string
}

type fieldErrors []apperror.FieldError

func (f *fieldErrors) add(field, msg string) {
	*f = append(*f, apperror.FieldError{Field: field, Message: msg})
}

func (f fieldErrors) err() error {
	if len(f) == 0 {
		return nil
	}
	return apperror.NewValidation("Invalid input.", f...)
}

// checkText validates a patchable text field and reports whether it carries a value to apply.
func checkText(fields *fieldErrors, name string, v models.Optional[string], limit int, required bool) bool {
	if !v.Set {
		return false
	}
	if v.Null {
		if required {
			fields.add(name, "This field may not be null.")
			return false
		}
		return true
	}
	if required && strings.TrimSpace(v.Value) == "" {
		fields.add(name, "This field may not be blank.")
		return false
	}
	if limit > 0 && utf8.RuneCountInString(v.Value) > limit {
		fields.add(name, "Ensure this field has no more than "+strconv.Itoa(limit)+" characters.")
		return false
	}
	return true
}

// instant resolves the event start from the input. current is the stored instant for
// updates and zero for creation; ok is false when the input leaves the instant unchanged.
func (s *EventService) instant(fields *fieldErrors, in EventInput, current time.Time) (at time.Time, ok bool) {
	if in.DateTime.Set {
		if in.Date.Set || in.Time.Set {
			fields.add("date_time", "Provide either date_time or date and time, not both.")
			return time.Time{}, false
		}
		if in.DateTime.Null {
			fields.add("date_time", "This field may not be null.")
			return time.Time{}, false
		}
		t, err := validation.ParseDateTime(in.DateTime.Value)
		if err != nil {
			fields.add("date_time", apperror.From(err).Fields[0].Message)
			return time.Time{}, false
		}
		return t, true
	}

	if !in.Date.Set && !in.Time.Set {
		if current.IsZero() {
			fields.add("date", "Both date and time are required for creation.")
		}
		return time.Time{}, false
	}
	if current.IsZero() && !(in.Date.Set && in.Time.Set) {
		fields.add("date", "Both date and time are required for creation.")
		return time.Time{}, false
	}

	local := current.In(s.loc)
	date, clock := local, local
	valid := true
	if in.Date.Set {
		if in.Date.Null {
			fields.add("date", "This field may not be null.")
			valid = false
		} else if d, err := validation.ParseDate(in.Date.Value); err != nil {
			fields.add("date", apperror.From(err).Fields[0].Message)
			valid = false
		} else {
			date = d
		}
	}
	if in.Time.Set {
		if in.Time.Null {
			fields.add("time", "This field may not be null.")
			valid = false
		} else if c, err := validation.ParseClock(in.Time.Value); err != nil {
			fields.add("time", apperror.From(err).Fields[0].Message)
			valid = false
		} else {
			clock = c
		}
	}
	if !valid {
		return time.Time{}, false
	}
	return validation.Combine(date, clock, s.loc), true
}

func (s *EventService) List(ctx context.Context, viewerID int64, q ListQuery) ([]models.EventDetail, error) {
	f := models.EventFilter{ViewerID: viewerID, Search: q.Search, Order: s.order}
	if strings.TrimSpace(q.Date) != "" {
		d, err := validation.ParseDate(q.Date)
		if err != nil {
			return nil, err
		}
		f.From, f.To = validation.DayRange(d, s.loc)
	}
	return s.list(ctx, f)
}

func (s *EventService) ListMine(ctx context.Context, userID int64) ([]models.EventDetail, error) {
	return s.list(ctx, models.EventFilter{ViewerID: userID, CreatedBy: userID, Order: s.order})
}

func (s *EventService) ListAttending(ctx context.Context, userID int64) ([]models.EventDetail, error) {
	return s.list(ctx, models.EventFilter{ViewerID: userID, AttendeeID: userID, Order: s.order})
}

func (s *EventService) list(ctx context.Context, f models.EventFilter) ([]models.EventDetail, error) {
	out, err := s.events.List(ctx, f)
	if err != nil {
		return nil, apperror.NewInternal(err)
	}
	return out, nil
}

func (s *EventService) Get(ctx context.Context, viewerID, id int64) (*models.EventDetail, error) {
	d, err := s.events.Detail(ctx, id, viewerID)
	if err != nil {
		return nil, notFound(err, msgEventNotFound)
	}
	return d, nil
}

func (s *EventService) Create(ctx context.Context, creatorID int64, in EventInput) (*models.EventDetail, error) {
	if creatorID <= 0 {
		return nil, apperror.NewUnauthorized("User must be authenticated to create an event.", nil)
	}

	var fields fieldErrors
	if !in.Title.Set {
		fields.add("title", "This field is required.")
	}
	if !in.Location.Set {
		fields.add("location", "This field is required.")
	}
	checkText(&fields, "title", in.Title, 200, true)
	checkText(&fields, "location", in.Location, 255, true)
	at, _ := s.instant(&fields, in, time.Time{})
	if err := fields.err(); err != nil {
		return nil, err
	}

	e := &models.Event{
		Title:       in.Title.Value,
		Description: in.Description.Value,
		Location:    in.Location.Value,
		StartsAt:    at,
		CreatedBy:   creatorID,
	}
	if err := s.events.Create(ctx, e); err != nil {
		if errors.Is(err, models.ErrMissingReference) {
			return nil, apperror.NewUnauthorized(msgUserNotFound, err)
		}
		return nil, apperror.NewInternal(err)
	}
	return s.Get(ctx, creatorID, e.ID)
}

// owned loads an event and checks that userID created it.
func (s *EventService) owned(ctx context.Context, userID, id int64) (*models.Event, error) {
	e, err := s.events.GetByID(ctx, id)
	if err != nil {
		return nil, notFound(err, msgEventNotFound)
	}
	if e.CreatedBy != userID {
		return nil, apperror.NewForbidden(msgNotCreator)
	}
	return e, nil
}

func (s *EventService) Update(ctx context.Context, userID, id int64, in EventInput) (*models.EventDetail, error) {
	e, err := s.owned(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	var fields fieldErrors
	if checkText(&fields, "title", in.Title, 200, true) {
		e.Title = in.Title.Value
	}
	if checkText(&fields, "description", in.Description, 0, false) {
		e.Description = in.Description.Value
	}
	if checkText(&fields, "location", in.Location, 255, true) {
		e.Location = in.Location.Value
	}
	if at, ok := s.instant(&fields, in, e.StartsAt); ok {
		e.StartsAt = at
	}
	if err := fields.err(); err != nil {
		return nil, err
	}

	if err := s.events.Update(ctx, e); err != nil {
		return nil, notFound(err, msgEventNotFound)
	}
	return s.Get(ctx, userID, id)
}

func (s *EventService) Delete(ctx context.Context, userID, id int64) error {
	if _, err := s.owned(ctx, userID, id); err != nil {
		return err
	}
	if err := s.events.Delete(ctx, id); err != nil {
		return notFound(err, msgEventNotFound)
	}
	return nil
}
