// Package mocks provides in-memory repositories for service and handler tests. They share
// one Store so joins, cascades and uniqueness behave like the SQL implementations.
package mocks

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"eventhub/models"
)

type Store struct {
	mu        sync.Mutex
	nextID    int64
	users     map[int64]models.User
	profiles  map[int64]models.UserProfile
	events    map[int64]models.Event
	attendees map[int64]models.Attendee

	Users     *UserRepo
	Events    *EventRepo
	Attendees *AttendeeRepo
	Stats     *StatsRepo
}

func NewStore() *Store {
	s := &Store{
		users:     map[int64]models.User{},
		profiles:  map[int64]models.UserProfile{},
		events:    map[int64]models.Event{},
		attendees: map[int64]models.Attendee{},
	}
	s.Users = &UserRepo{s}
	s.Events = &EventRepo{s}
	s.Attendees = &AttendeeRepo{s}
	s.Stats = &StatsRepo{s}
	return s
}

func (s *Store) id() int64 {
	s.nextID++
	return s.nextID
}

// AttendeeRows returns the number of stored attendance rows.
func (s *Store) AttendeeRows() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.attendees)
}

func (s *Store) userLocked(id int64) (models.User, bool) {
	u, ok := s.users[id]
	if !ok {
		return u, false
	}
	if p, ok := s.profiles[id]; ok {
		p := p
		u.Profile = &p
	}
	return u, true
}

func (s *Store) findAttendee(userID, eventID int64) (models.Attendee, bool) {
	for _, a := range s.attendees {
		if a.UserID == userID && a.EventID == eventID {
			return a, true
		}
	}
	return models.Attendee{}, false
}

// ===== Users =====

type UserRepo struct{ s *Store }

func (r *UserRepo) Create(_ context.Context, u *models.User, phone *string) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, x := range s.users {
		if x.Username == u.Username {
			return models.ErrDuplicateUsername
		}
		if strings.EqualFold(x.Email, u.Email) {
			return models.ErrDuplicateEmail
		}
	}
	u.ID = s.id()
	u.DateJoined = time.Now()
	stored := *u
	stored.Profile = nil
	s.users[u.ID] = stored
	s.profiles[u.ID] = models.UserProfile{UserID: u.ID, Phone: phone}
	u.Profile = &models.UserProfile{UserID: u.ID, Phone: phone}
	return nil
}

func (r *UserRepo) GetByID(_ context.Context, id int64) (*models.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u, ok := r.s.userLocked(id)
	if !ok {
		return nil, models.ErrNotFound
	}
	return &u, nil
}

func (r *UserRepo) find(match func(models.User) bool) (*models.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for id, x := range r.s.users {
		if match(x) {
			u, _ := r.s.userLocked(id)
			return &u, nil
		}
	}
	return nil, models.ErrNotFound
}

func (r *UserRepo) GetByUsername(_ context.Context, username string) (*models.User, error) {
	return r.find(func(u models.User) bool { return u.Username == username })
}

func (r *UserRepo) GetByEmail(_ context.Context, email string) (*models.User, error) {
	return r.find(func(u models.User) bool { return u.Email == strings.ToLower(email) })
}

func (r *UserRepo) UsernameExists(ctx context.Context, username string) (bool, error) {
	_, err := r.GetByUsername(ctx, username)
	return err == nil, nil
}

func (r *UserRepo) EmailExists(ctx context.Context, email string) (bool, error) {
	_, err := r.GetByEmail(ctx, email)
	return err == nil, nil
}

func (r *UserRepo) UpdateProfile(_ context.Context, u *models.User, profile *models.UserProfile) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	x, ok := s.users[u.ID]
	if !ok {
		return models.ErrNotFound
	}
	x.FirstName, x.LastName = u.FirstName, u.LastName
	s.users[u.ID] = x
	if profile != nil {
		s.profiles[u.ID] = models.UserProfile{UserID: u.ID, Phone: profile.Phone}
		u.Profile = profile
	}
	return nil
}

func (r *UserRepo) UpdatePassword(_ context.Context, id int64, hash string) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	x, ok := s.users[id]
	if !ok {
		return models.ErrNotFound
	}
	x.PasswordHash = hash
	s.users[id] = x
	return nil
}

// Delete cascades to the profile, created events and attendance rows.
func (r *UserRepo) Delete(_ context.Context, id int64) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[id]; !ok {
		return models.ErrNotFound
	}
	delete(s.users, id)
	delete(s.profiles, id)
	for eid, e := range s.events {
		if e.CreatedBy == id {
			s.deleteEventLocked(eid)
		}
	}
	for aid, a := range s.attendees {
		if a.UserID == id {
			delete(s.attendees, aid)
		}
	}
	return nil
}

// ===== Events =====

type EventRepo struct{ s *Store }

func (r *EventRepo) Create(_ context.Context, e *models.Event) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[e.CreatedBy]; !ok {
		return models.ErrMissingReference
	}
	e.ID = s.id()
	e.CreatedAt = time.Now()
	e.UpdatedAt = e.CreatedAt
	s.events[e.ID] = *e
	return nil
}

func (r *EventRepo) GetByID(_ context.Context, id int64) (*models.Event, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	e, ok := r.s.events[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	return &e, nil
}

func (r *EventRepo) Update(_ context.Context, e *models.Event) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	x, ok := s.events[e.ID]
	if !ok {
		return models.ErrNotFound
	}
	x.Title, x.Description, x.Location, x.StartsAt = e.Title, e.Description, e.Location, e.StartsAt
	x.UpdatedAt = time.Now()
	s.events[e.ID] = x
	e.UpdatedAt = x.UpdatedAt
	return nil
}

func (s *Store) deleteEventLocked(id int64) {
	delete(s.events, id)
	for aid, a := range s.attendees {
		if a.EventID == id {
			delete(s.attendees, aid)
		}
	}
}

func (r *EventRepo) Delete(_ context.Context, id int64) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.events[id]; !ok {
		return models.ErrNotFound
	}
	s.deleteEventLocked(id)
	return nil
}

func (s *Store) detailLocked(e models.Event, viewerID int64) models.EventDetail {
	d := models.EventDetail{Event: e, ViewerStatus: models.StatusNotRegistered}
	d.Creator, _ = s.userLocked(e.CreatedBy)
	for _, a := range s.attendees {
		if a.EventID != e.ID {
			continue
		}
		d.AttendeeCount++
		if a.Confirmed {
			d.ConfirmedCount++
		} else {
			d.PendingCount++
		}
		if a.UserID == viewerID {
			d.ViewerStatus = a.Status()
		}
	}
	return d
}

func (r *EventRepo) Detail(_ context.Context, id, viewerID int64) (*models.EventDetail, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	e, ok := r.s.events[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	d := r.s.detailLocked(e, viewerID)
	return &d, nil
}

func containsFold(s, sub string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(sub))
}

func (r *EventRepo) List(_ context.Context, f models.EventFilter) ([]models.EventDetail, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()

	term := strings.TrimSpace(f.Search)
	out := make([]models.EventDetail, 0)
	for _, e := range s.events {
		if !f.From.IsZero() && e.StartsAt.Before(f.From) {
			continue
		}
		if !f.To.IsZero() && !e.StartsAt.Before(f.To) {
			continue
		}
		if f.CreatedBy != 0 && e.CreatedBy != f.CreatedBy {
			continue
		}
		if f.AttendeeID != 0 {
			if _, ok := s.findAttendee(f.AttendeeID, e.ID); !ok {
				continue
			}
		}
		if term != "" {
			creator := s.users[e.CreatedBy]
			if !containsFold(e.Title, term) && !containsFold(creator.Username, term) &&
				!containsFold(e.Description, term) && !containsFold(e.Location, term) {
				continue
			}
		}
		out = append(out, s.detailLocked(e, f.ViewerID))
	}

	before := func(a, b models.EventDetail) bool {
		return a.StartsAt.Before(b.StartsAt) || (a.StartsAt.Equal(b.StartsAt) && a.ID < b.ID)
	}
	sort.Slice(out, func(i, j int) bool {
		if f.Order == models.SortAsc {
			return before(out[i], out[j])
		}
		return before(out[j], out[i])
	})
	return out, nil
}

// ===== Attendees =====

type AttendeeRepo struct{ s *Store }

func (r *AttendeeRepo) insertLocked(userID, eventID int64) models.Attendee {
	a := models.Attendee{ID: r.s.id(), UserID: userID, EventID: eventID, CreatedAt: time.Now()}
	r.s.attendees[a.ID] = a
	return a
}

// referencesLocked mirrors the attendees foreign keys.
func (r *AttendeeRepo) referencesLocked(userID, eventID int64) bool {
	_, userOK := r.s.users[userID]
	_, eventOK := r.s.events[eventID]
	return userOK && eventOK
}

func (r *AttendeeRepo) GetOrCreate(_ context.Context, userID, eventID int64) (*models.Attendee, bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if a, ok := r.s.findAttendee(userID, eventID); ok {
		return &a, false, nil
	}
	if !r.referencesLocked(userID, eventID) {
		return nil, false, models.ErrMissingReference
	}
	a := r.insertLocked(userID, eventID)
	return &a, true, nil
}

func (r *AttendeeRepo) Create(_ context.Context, userID, eventID int64) (*models.Attendee, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.findAttendee(userID, eventID); ok {
		return nil, models.ErrAlreadyRegistered
	}
	if !r.referencesLocked(userID, eventID) {
		return nil, models.ErrMissingReference
	}
	a := r.insertLocked(userID, eventID)
	return &a, nil
}

func (r *AttendeeRepo) Get(_ context.Context, userID, eventID int64) (*models.Attendee, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	a, ok := r.s.findAttendee(userID, eventID)
	if !ok {
		return nil, models.ErrNotFound
	}
	return &a, nil
}

func (r *AttendeeRepo) SetConfirmed(_ context.Context, userID, eventID int64, confirmed bool) (*models.Attendee, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	a, ok := r.s.findAttendee(userID, eventID)
	if !ok {
		return nil, models.ErrNotFound
	}
	a.Confirmed = confirmed
	r.s.attendees[a.ID] = a
	return &a, nil
}

func (r *AttendeeRepo) Delete(_ context.Context, userID, eventID int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	a, ok := r.s.findAttendee(userID, eventID)
	if !ok {
		return models.ErrNotFound
	}
	delete(r.s.attendees, a.ID)
	return nil
}

func (r *AttendeeRepo) ListByEvent(_ context.Context, eventID int64) ([]models.Attendee, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := make([]models.Attendee, 0)
	for _, a := range r.s.attendees {
		if a.EventID != eventID {
			continue
		}
		if u, ok := r.s.userLocked(a.UserID); ok {
			a.User = &u
		}
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// ===== Stats =====

type StatsRepo struct{ s *Store }

func (r *StatsRepo) UserStats(_ context.Context, userID int64, now time.Time) (*models.UserStats, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	var st models.UserStats
	for _, e := range s.events {
		if e.CreatedBy == userID {
			st.CreatedEvents++
		}
	}
	for _, a := range s.attendees {
		if a.UserID != userID {
			continue
		}
		e := s.events[a.EventID]
		upcoming := !e.StartsAt.Before(now)
		st.AttendingEvents++
		if a.Confirmed {
			st.ConfirmedEvents++
		}
		if !a.Confirmed && upcoming {
			st.PendingEvents++
		}
		if upcoming {
			st.UpcomingEvents++
		}
	}
	return &st, nil
}

var (
	_ models.UserRepository     = (*UserRepo)(nil)
	_ models.EventRepository    = (*EventRepo)(nil)
	_ models.AttendeeRepository = (*AttendeeRepo)(nil)
	_ models.StatsRepository    = (*StatsRepo)(nil)
)
