package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"eventhub/services"
)

type refreshRequest struct {
	Refresh string `json:"refresh"`
}

// POST /auth/signup
func (d *deps) signup(c *gin.Context) {
	var req services.SignupRequest
	if !bindJSON(c, &req) {
		return
	}
	res, err := d.Auth.Signup(c.Request.Context(), req)
	if err != nil {
		d.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"message": "User created successfully",
		"user":    presentUser(res.User),
		"tokens":  res.Tokens,
	})
}

// POST /auth/signin
func (d *deps) signin(c *gin.Context) {
	var req services.SigninRequest
	if !bindJSON(c, &req) {
		return
	}
	res, err := d.Auth.Signin(c.Request.Context(), req)
	if err != nil {
		d.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message": "User signed in successfully",
		"user":    presentUser(res.User),
		"tokens":  res.Tokens,
	})
}

// POST /auth/token/refresh
func (d *deps) refreshToken(c *gin.Context) {
	var req refreshRequest
	if !bindOptionalJSON(c, &req) {
		return
	}
	pair, err := d.Auth.Refresh(c.Request.Context(), req.Refresh)
	if err != nil {
		d.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, pair)
}

// GET /auth/profile
func (d *deps) getProfile(c *gin.Context) {
	u, err := d.Profile.Get(c.Request.Context(), userID(c))
	if err != nil {
		d.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, presentUser(u))
}

// PUT /auth/profile
func (d *deps) updateProfile(c *gin.Context) {
	var req services.ProfileUpdate
	if !bindJSON(c, &req) {
		return
	}
	u, err := d.Profile.Update(c.Request.Context(), userID(c), req)
	if err != nil {
		d.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, presentUser(u))
}

// PUT /auth/password-update
func (d *deps) updatePassword(c *gin.Context) {
	var req services.PasswordUpdateRequest
	if !bindJSON(c, &req) {
		return
	}
	pair, err := d.Auth.UpdatePassword(c.Request.Context(), userID(c), req)
	if err != nil {
		d.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Password updated successfully", "tokens": pair})
}

// POST /auth/logout
func (d *deps) logout(c *gin.Context) {
	var req refreshRequest
	if !bindOptionalJSON(c, &req) {
		return
	}
	if err := d.Auth.Logout(c.Request.Context(), userID(c), req.Refresh); err != nil {
		d.respondError(c, err)
		return
	}
	noContent(c, http.StatusResetContent)
}

// DELETE /auth/delete-account
func (d *deps) deleteAccount(c *gin.Context) {
	var req refreshRequest
	if !bindOptionalJSON(c, &req) {
		return
	}
	if err := d.Auth.DeleteAccount(c.Request.Context(), userID(c), req.Refresh); err != nil {
		d.respondError(c, err)
		return
	}
	noContent(c, http.StatusNoContent)
}
