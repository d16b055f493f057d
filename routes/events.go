package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"eventhub/services"
)

// GET /events?search=&date=
func (d *deps) getEvents(c *gin.Context) {
	list, err := d.Events.List(c.Request.Context(), userID(c), services.ListQuery{
		Search: c.Query("search"),
		Date:   c.Query("date"),
	})
	if err != nil {
		d.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, presentEvents(list, d.Events.Location()))
}

// GET /events/my-events
func (d *deps) getMyEvents(c *gin.Context) {
	list, err := d.Events.ListMine(c.Request.Context(), userID(c))
	if err != nil {
		d.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, presentEvents(list, d.Events.Location()))
}

// GET /events/my-attending
func (d *deps) getMyAttending(c *gin.Context) {
	list, err := d.Events.ListAttending(c.Request.Context(), userID(c))
	if err != nil {
		d.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, presentEvents(list, d.Events.Location()))
}

// GET /events/:id
func (d *deps) getEvent(c *gin.Context) {
	id, ok := eventID(c)
	if !ok {
		return
	}
	ev, err := d.Events.Get(c.Request.Context(), userID(c), id)
	if err != nil {
		d.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, presentEvent(ev, d.Events.Location()))
}

// POST /events
func (d *deps) createEvent(c *gin.Context) {
	var in services.EventInput
	if !bindJSON(c, &in) {
		return
	}
	ev, err := d.Events.Create(c.Request.Context(), userID(c), in)
	if err != nil {
		d.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, presentEvent(ev, d.Events.Location()))
}

// PUT /events/:id
func (d *deps) updateEvent(c *gin.Context) {
	id, ok := eventID(c)
	if !ok {
		return
	}
	var in services.EventInput
	if !bindJSON(c, &in) {
		return
	}
	ev, err := d.Events.Update(c.Request.Context(), userID(c), id, in)
	if err != nil {
		d.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, presentEvent(ev, d.Events.Location()))
}

// DELETE /events/:id
func (d *deps) deleteEvent(c *gin.Context) {
	id, ok := eventID(c)
	if !ok {
		return
	}
	if err := d.Events.Delete(c.Request.Context(), userID(c), id); err != nil {
		d.respondError(c, err)
		return
	}
	noContent(c, http.StatusNoContent)
}
