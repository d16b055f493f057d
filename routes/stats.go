package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// GET /stats/user
func (d *deps) getUserStats(c *gin.Context) {
	st, err := d.Stats.UserStats(c.Request.Context(), userID(c))
	if err != nil {
		d.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, st)
}
