package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"eventhub/models"
)

type attendanceOp func(c *gin.Context, userID, eventID int64) (*models.Attendee, error)

// attendanceAction runs op for the caller on :id and answers 200 with msg.
func (d *deps) attendanceAction(msg string, op attendanceOp) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := eventID(c)
		if !ok {
			return
		}
		a, err := op(c, userID(c), id)
		if err != nil {
			d.respondError(c, err)
			return
		}
		body := gin.H{"message": msg}
		if a != nil {
			body["attendee"] = presentAttendee(a)
		}
		c.JSON(http.StatusOK, body)
	}
}

// POST /events/:id/attend
func (d *deps) attend(c *gin.Context) {
	id, ok := eventID(c)
	if !ok {
		return
	}
	a, created, err := d.Attendance.Attend(c.Request.Context(), userID(c), id)
	if err != nil {
		d.respondError(c, err)
		return
	}
	if !created {
		c.JSON(http.StatusOK, gin.H{"message": "You are already registered for this event.", "attendee": presentAttendee(a)})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "Successfully registered for the event.", "attendee": presentAttendee(a)})
}

// POST /events/:id/confirm-attendance
func (d *deps) confirmAttendance(c *gin.Context) {
	d.attendanceAction("Attendance confirmed.", func(c *gin.Context, uid, eid int64) (*models.Attendee, error) {
		return d.Attendance.Confirm(c.Request.Context(), uid, eid)
	})(c)
}

// POST /events/:id/decline-attendance
func (d *deps) declineAttendance(c *gin.Context) {
	d.attendanceAction("Attendance declined.", func(c *gin.Context, uid, eid int64) (*models.Attendee, error) {
		return d.Attendance.Decline(c.Request.Context(), uid, eid)
	})(c)
}

// POST /events/:id/cancel-attendance
func (d *deps) cancelAttendance(c *gin.Context) {
	d.attendanceAction("Attendance cancelled.", func(c *gin.Context, uid, eid int64) (*models.Attendee, error) {
		return nil, d.Attendance.Cancel(c.Request.Context(), uid, eid)
	})(c)
}

// GET /events/:id/attendees
func (d *deps) getAttendees(c *gin.Context) {
	id, ok := eventID(c)
	if !ok {
		return
	}
	list, err := d.Attendance.ListAttendees(c.Request.Context(), id)
	if err != nil {
		d.respondError(c, err)
		return
	}
	out := make([]attendeeResponse, 0, len(list))
	for i := range list {
		out = append(out, presentAttendee(&list[i]))
	}
	c.JSON(http.StatusOK, out)
}

// POST /events/:id/attendees
func (d *deps) registerAttendee(c *gin.Context) {
	id, ok := eventID(c)
	if !ok {
		return
	}
	a, err := d.Attendance.Register(c.Request.Context(), userID(c), id)
	if err != nil {
		d.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, presentAttendee(a))
}
