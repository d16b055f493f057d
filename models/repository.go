package models

import (
	"context"
	"time"
)

// ===== Users =====

type User struct {
	ID           int64
	Username     string
	Email        string
	PasswordHash string
	FirstName    string
	LastName     string
	DateJoined   time.Time
	Profile      *UserProfile // nil when the user has no profile row
}

// Phone returns the profile phone, or nil when there is no profile or no phone.
func (u *User) Phone() *string {
	if u.Profile == nil {
		return nil
	}
	return u.Profile.Phone
}

type UserProfile struct {
	UserID int64
	Phone  *string
}

type UserRepository interface {
	// Create inserts the user and its profile in one transaction.
	Create(ctx context.Context, u *User, phone *string) error
	GetByID(ctx context.Context, id int64) (*User, error)
	GetByUsername(ctx context.Context, username string) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	UsernameExists(ctx context.Context, username string) (bool, error)
	EmailExists(ctx context.Context, email string) (bool, error)
	// UpdateProfile saves first/last name and, when profile is non-nil, upserts it.
	UpdateProfile(ctx context.Context, u *User, profile *UserProfile) error
	UpdatePassword(ctx context.Context, id int64, hash string) error
	Delete(ctx context.Context, id int64) error
}

// ===== Events =====

type Event struct {
	ID          int64
	Title       string
	Description string
	Location    string
	StartsAt    time.Time
	CreatedBy   int64
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// EventDetail is an event joined with its creator and attendance aggregates, as seen
// by one viewer.
type EventDetail struct {
	Event
	Creator        User
	AttendeeCount  int
	ConfirmedCount int
	PendingCount   int
	ViewerStatus   AttendanceStatus
}

type SortOrder string

const (
	SortDesc SortOrder = "desc"
	SortAsc  SortOrder = "asc"
)

// EventFilter selects events for listing. Zero values mean "no constraint".
type EventFilter struct {
	ViewerID   int64
	Search     string
	From       time.Time // inclusive
	To         time.Time // exclusive
	CreatedBy  int64
	AttendeeID int64
	Order      SortOrder
}

type EventRepository interface {
	Create(ctx context.Context, e *Event) error
	GetByID(ctx context.Context, id int64) (*Event, error)
	Update(ctx context.Context, e *Event) error
	Delete(ctx context.Context, id int64) error
	Detail(ctx context.Context, id, viewerID int64) (*EventDetail, error)
	List(ctx context.Context, f EventFilter) ([]EventDetail, error)
}

// ===== Attendance =====

type AttendanceStatus string

const (
	StatusNotRegistered AttendanceStatus = "not_registered"
	StatusPending       AttendanceStatus = "pending"
	StatusConfirmed     AttendanceStatus = "confirmed"
)

type Attendee struct {
	ID        int64
	UserID    int64
	EventID   int64
	Confirmed bool
	CreatedAt time.Time
	User      *User
}

// Status reports the attendance state a row represents; a nil row is not registered.
func (a *Attendee) Status() AttendanceStatus {
	switch {
	case a == nil:
		return StatusNotRegistered
	case a.Confirmed:
		return StatusConfirmed
	default:
		return StatusPending
	}
}

type AttendeeRepository interface {
	// GetOrCreate returns the (user, event) row, creating it unconfirmed if absent.
	// created reports whether this call inserted it.
	GetOrCreate(ctx context.Context, userID, eventID int64) (a *Attendee, created bool, err error)
	// Create inserts a new row and fails with ErrAlreadyRegistered on a duplicate.
	Create(ctx context.Context, userID, eventID int64) (*Attendee, error)
	Get(ctx context.Context, userID, eventID int64) (*Attendee, error)
	SetConfirmed(ctx context.Context, userID, eventID int64, confirmed bool) (*Attendee, error)
	Delete(ctx context.Context, userID, eventID int64) error
	ListByEvent(ctx context.Context, eventID int64) ([]Attendee, error)
}

// ===== Stats =====

type UserStats struct {
	CreatedEvents   int `json:"created_events"`
	AttendingEvents int `json:"attending_events"`
	ConfirmedEvents int `json:"confirmed_events"`
	PendingEvents   int `json:"pending_events"`
	UpcomingEvents  int `json:"upcoming_events"`
}

type StatsRepository interface {
	// UserStats counts relative to now; "upcoming" means starts_at >= now.
	UserStats(ctx context.Context, userID int64, now time.Time) (*UserStats, error)
}
