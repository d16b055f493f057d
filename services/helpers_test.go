package services

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"eventhub/config"
	"eventhub/mocks"
	"eventhub/models"
	"eventhub/utils"
)

type fixture struct {
	store      *mocks.Store
	tokens     *utils.TokenManager
	auth       *AuthService
	profile    *ProfileService
	events     *EventService
	attendance *AttendanceService
	stats      *StatsService
	now        time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	store := mocks.NewStore()
	tokens := utils.NewTokenManager(config.AuthConfig{
		JWTSecret:  "test-secret",
		Issuer:     "eventhub-test",
		AccessTTL:  15 * time.Minute,
		RefreshTTL: 24 * time.Hour,
	})
	f := &fixture{
		store:  store,
		tokens: tokens,
		now:    time.Date(2025, 8, 1, 12, 0, 0, 0, time.UTC),
	}
	f.auth = NewAuthService(AuthServiceConfig{
		Users:      store.Users,
		Tokens:     tokens,
		Blacklist:  utils.NewRedisBlacklist(rdb),
		BcryptCost: bcrypt.MinCost,
	})
	f.profile = NewProfileService(store.Users)
	f.events = NewEventService(EventServiceConfig{Events: store.Events, Location: time.UTC, SortOrder: "desc"})
	f.attendance = NewAttendanceService(store.Events, store.Attendees)
	f.stats = NewStatsService(store.Stats, func() time.Time { return f.now })
	return f
}

func (f *fixture) signup(t *testing.T, username string) *AuthResult {
	t.Helper()
	res, err := f.auth.Signup(context.Background(), SignupRequest{
		Username:        username,
		Email:           username + "@example.com",
		Password:        "Secret!pw",
		PasswordConfirm: "Secret!pw",
		FirstName:       "First",
		LastName:        "Last",
	})
	require.NoError(t, err)
	return res
}

func (f *fixture) createEvent(t *testing.T, creatorID int64, title, date, clock string) *models.EventDetail {
	t.Helper()
	d, err := f.events.Create(context.Background(), creatorID, EventInput{
		Title:       models.Some(title),
		Description: models.Some("about " + title),
		Location:    models.Some("Hall A"),
		Date:        models.Some(date),
		Time:        models.Some(clock),
	})
	require.NoError(t, err)
	return d
}
