package routes

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"eventhub/apperror"
	"eventhub/config"
	"eventhub/middlewares"
	"eventhub/services"
	"eventhub/utils"
)

type Services struct {
	Auth       *services.AuthService
	Profile    *services.ProfileService
	Events     *services.EventService
	Attendance *services.AttendanceService
	Stats      *services.StatsService
}

type Options struct {
	Tokens *utils.TokenManager
	// Users lets authentication reject tokens of deleted accounts.
	Users  middlewares.UserLookup
	Redis  *redis.Client
	Limits config.LimitsConfig
	Logger *slog.Logger
	// Health reports whether backing stores are reachable; nil means always healthy.
	Health func(ctx context.Context) error
}

type deps struct {
	Services
	logger *slog.Logger
}

// RegisterRoutes mounts every endpoint on server. The returned func stops the rate
// limiters' background sweepers.
func RegisterRoutes(server *gin.Engine, svc Services, opts Options) (stop func()) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	d := &deps{Services: svc, logger: logger}
	lim := opts.Limits

	// per-IP limit on everything
	globalLimiter := middlewares.NewRateLimiter(middlewares.LimiterConfig{
		RPS: lim.RPS, Burst: lim.Burst, IdleTTL: lim.LimiterIdleTTL,
	})
	server.Use(globalLimiter.Middleware(func(c *gin.Context) string {
		return "ip:" + c.ClientIP()
	}))

	// credential endpoints get a much stricter bucket
	authLimiter := middlewares.NewRateLimiter(middlewares.LimiterConfig{
		RPS: lim.AuthRPS, Burst: lim.AuthBurst, IdleTTL: lim.LimiterIdleTTL,
	})
	byIP := func(prefix string) gin.HandlerFunc {
		return authLimiter.Middleware(func(c *gin.Context) string { return prefix + c.ClientIP() })
	}

	server.GET("/healthz", func(c *gin.Context) {
		if opts.Health != nil {
			if err := opts.Health(c.Request.Context()); err != nil {
				logger.Error("health check failed", slog.Any("error", err))
				c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	server.POST("/auth/signup", byIP("signup:"), d.signup)
	server.POST("/auth/signin", byIP("signin:"), d.signin)
	server.POST("/auth/token", byIP("signin:"), d.signin)
	server.POST("/auth/token/refresh", byIP("refresh:"), d.refreshToken)

	// authenticated: per-user limit plus the daily quota
	auth := server.Group("/")
	auth.Use(middlewares.Authenticate(opts.Tokens, opts.Users))

	userLimiter := middlewares.NewRateLimiter(middlewares.LimiterConfig{
		RPS: lim.RPS, Burst: lim.Burst, IdleTTL: lim.LimiterIdleTTL,
	})
	auth.Use(userLimiter.Middleware(func(c *gin.Context) string {
		return "u:" + strconv.FormatInt(c.GetInt64(middlewares.UserIDKey), 10)
	}))
	if opts.Redis != nil {
		auth.Use(middlewares.Quota(opts.Redis, middlewares.QuotaRule{
			Limit:  lim.DailyQuota,
			Window: lim.QuotaWindow,
			KeyFn:  middlewares.UserQuotaKey,
		}))
	}

	auth.GET("/auth/profile", d.getProfile)
	auth.PUT("/auth/profile", d.updateProfile)
	auth.PUT("/auth/password-update", d.updatePassword)
	auth.POST("/auth/logout", d.logout)
	auth.DELETE("/auth/delete-account", d.deleteAccount)

	auth.GET("/events", d.getEvents)
	auth.POST("/events", d.createEvent)
	auth.GET("/events/my-events", d.getMyEvents)
	auth.GET("/events/my-attending", d.getMyAttending)
	auth.GET("/events/:id", d.getEvent)
	auth.PUT("/events/:id", d.updateEvent)
	auth.DELETE("/events/:id", d.deleteEvent)

	auth.POST("/events/:id/attend", d.attend)
	auth.POST("/events/:id/cancel-attendance", d.cancelAttendance)
	auth.POST("/events/:id/confirm-attendance", d.confirmAttendance)
	auth.POST("/events/:id/decline-attendance", d.declineAttendance)
	auth.GET("/events/:id/attendees", d.getAttendees)
	auth.POST("/events/:id/attendees", d.registerAttendee)

	auth.GET("/stats/user", d.getUserStats)

	return func() {
		globalLimiter.Close()
		authLimiter.Close()
		userLimiter.Close()
	}
}

/* -------------------- helpers -------------------- */

func userID(c *gin.Context) int64 {
	return c.GetInt64(middlewares.UserIDKey)
}

// respondError writes the safe part of err; internal causes only reach the log.
func (d *deps) respondError(c *gin.Context, err error) {
	ae := apperror.From(err)
	if ae.Kind == apperror.Internal {
		d.logger.Error("request failed",
			slog.String("path", c.FullPath()),
			slog.String("request_id", c.GetString(middlewares.RequestIDKey)),
			slog.Any("error", ae.Err),
		)
	}
	c.JSON(ae.StatusCode(), ae.ToResponse())
}

// bindJSON decodes the body into dst, answering 400 itself on failure.
func bindJSON(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Could not parse request data."})
		return false
	}
	return true
}

// eventID parses :id; anything that is not a positive integer cannot name an event.
func eventID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusNotFound, gin.H{"message": "Event not found."})
		return 0, false
	}
	return id, true
}

// noContent sends a bodiless status such as 204 or 205.
func noContent(c *gin.Context, status int) {
	c.Status(status)
	c.Writer.WriteHeaderNow()
}

// bindOptionalJSON is bindJSON for endpoints whose body may be empty.
func bindOptionalJSON(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil && !errors.Is(err, io.EOF) {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Could not parse request data."})
		return false
	}
	return true
}
