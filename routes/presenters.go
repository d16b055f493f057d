package routes

import (
	"time"

	"eventhub/models"
	"eventhub/validation"
)

type userResponse struct {
	ID         int64     `json:"id"`
	Username   string    `json:"username"`
	Email      string    `json:"email"`
	FirstName  string    `json:"first_name"`
	LastName   string    `json:"last_name"`
	Phone      *string   `json:"phone"`
	DateJoined time.Time `json:"date_joined"`
}

func presentUser(u *models.User) userResponse {
	return userResponse{
		ID:         u.ID,
		Username:   u.Username,
		Email:      u.Email,
		FirstName:  u.FirstName,
		LastName:   u.LastName,
		Phone:      u.Phone(),
		DateJoined: u.DateJoined,
	}
}

type eventResponse struct {
	ID                   int64                   `json:"id"`
	Title                string                  `json:"title"`
	Description          string                  `json:"description"`
	Date                 string                  `json:"date"`
	Time                 string                  `json:"time"`
	DateTime             string                  `json:"date_time"`
	Location             string                  `json:"location"`
	CreatedBy            userResponse            `json:"created_by"`
	CreatedByUsername    string                  `json:"created_by_username"`
	AttendeeCount        int                     `json:"attendee_count"`
	ConfirmedCount       int                     `json:"confirmed_count"`
	PendingCount         int                     `json:"pending_count"`
	UserAttendanceStatus models.AttendanceStatus `json:"user_attendance_status"`
}

// presentEvent renders the instant in the event time zone.
func presentEvent(d *models.EventDetail, loc *time.Location) eventResponse {
	at := d.StartsAt.In(loc)
	return eventResponse{
		ID:                   d.ID,
		Title:                d.Title,
		Description:          d.Description,
		Date:                 at.Format(validation.DateLayout),
		Time:                 at.Format(validation.TimeLayout),
		DateTime:             at.Format(time.RFC3339),
		Location:             d.Location,
		CreatedBy:            presentUser(&d.Creator),
		CreatedByUsername:    d.Creator.Username,
		AttendeeCount:        d.AttendeeCount,
		ConfirmedCount:       d.ConfirmedCount,
		PendingCount:         d.PendingCount,
		UserAttendanceStatus: d.ViewerStatus,
	}
}

func presentEvents(list []models.EventDetail, loc *time.Location) []eventResponse {
	out := make([]eventResponse, 0, len(list))
	for i := range list {
		out = append(out, presentEvent(&list[i], loc))
	}
	return out
}

type attendeeResponse struct {
	ID        int64                   `json:"id"`
	EventID   int64                   `json:"event"`
	User      *userResponse           `json:"user,omitempty"`
	Confirmed bool                    `json:"confirmed"`
	Status    models.AttendanceStatus `json:"status"`
	CreatedAt time.Time               `json:"created_at"`
}

func presentAttendee(a *models.Attendee) attendeeResponse {
	r := attendeeResponse{
		ID:        a.ID,
		EventID:   a.EventID,
		Confirmed: a.Confirmed,
		Status:    a.Status(),
		CreatedAt: a.CreatedAt,
	}
	if a.User != nil {
		u := presentUser(a.User)
		r.User = &u
	}
	return r
}
