package routes

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/bcrypt"

	"eventhub/config"
	"eventhub/mocks"
	"eventhub/services"
	"eventhub/utils"
)

/* ---------- helpers ---------- */

type serverDeps struct {
	s     *gin.Engine
	store *mocks.Store
}

func testLimits() config.LimitsConfig {
	return config.LimitsConfig{
		RPS: 1000, Burst: 1000, AuthRPS: 1000, AuthBurst: 1000,
		DailyQuota: 0, QuotaWindow: time.Hour, LimiterIdleTTL: time.Minute,
	}
}

func setupServer(t *testing.T, limits config.LimitsConfig, health func(context.Context) error) serverDeps {
	t.Helper()
	gin.SetMode(gin.TestMode)

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	store := mocks.NewStore()
	tokens := utils.NewTokenManager(config.AuthConfig{
		JWTSecret: "routes-secret", Issuer: "eventhub-test",
		AccessTTL: 15 * time.Minute, RefreshTTL: time.Hour,
	})
	svc := Services{
		Auth: services.NewAuthService(services.AuthServiceConfig{
			Users: store.Users, Tokens: tokens, Blacklist: utils.NewRedisBlacklist(rdb), BcryptCost: bcrypt.MinCost,
		}),
		Profile:    services.NewProfileService(store.Users),
		Events:     services.NewEventService(services.EventServiceConfig{Events: store.Events, Location: time.UTC}),
		Attendance: services.NewAttendanceService(store.Events, store.Attendees),
		Stats: services.NewStatsService(store.Stats, func() time.Time {
			return time.Date(2025, 8, 1, 0, 0, 0, 0, time.UTC)
		}),
	}

	s := gin.New()
	stop := RegisterRoutes(s, svc, Options{Tokens: tokens, Users: store.Users, Redis: rdb, Limits: limits, Health: health})
	t.Cleanup(stop)
	return serverDeps{s: s, store: store}
}

func setupServerWithDeps(t *testing.T) serverDeps {
	return setupServer(t, testLimits(), nil)
}

func doReq(s *gin.Engine, method, path, body, token string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	s.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(w.Body.Bytes(), &v); err != nil {
		t.Fatalf("unmarshal %q: %v", w.Body.String(), err)
	}
	return v
}

type authBody struct {
	Message string          `json:"message"`
	User    userResponse    `json:"user"`
	Tokens  utils.TokenPair `json:"tokens"`
}

func signup(t *testing.T, s *gin.Engine, username string) authBody {
	t.Helper()
	body := `{"username":"` + username + `","email":"` + username + `@example.com",` +
		`"password":"Secret!pw","password_confirm":"Secret!pw","first_name":"F","last_name":"L"}`
	w := doReq(s, http.MethodPost, "/auth/signup", body, "")
	if w.Code != http.StatusCreated {
		t.Fatalf("signup got %d body=%s", w.Code, w.Body.String())
	}
	return decode[authBody](t, w)
}

func createEvent(t *testing.T, s *gin.Engine, token, title string) eventResponse {
	t.Helper()
	body := `{"title":"` + title + `","description":"d","location":"Hall","date":"2025-08-03","time":"18:00"}`
	w := doReq(s, http.MethodPost, "/events", body, token)
	if w.Code != http.StatusCreated {
		t.Fatalf("create event got %d body=%s", w.Code, w.Body.String())
	}
	return decode[eventResponse](t, w)
}

/* ---------- auth ---------- */

func TestSignupAndSignin(t *testing.T) {
	deps := setupServerWithDeps(t)
	s := deps.s

	res := signup(t, s, "alice")
	if res.Tokens.Access == "" || res.Tokens.Refresh == "" || res.User.Username != "alice" {
		t.Fatalf("unexpected signup body: %+v", res)
	}
	if res.User.Phone != nil {
		t.Fatalf("phone should be null, got %v", *res.User.Phone)
	}

	w := doReq(s, http.MethodPost, "/auth/signin", `{"username_or_email":"alice@example.com","password":"Secret!pw"}`, "")
	if w.Code != 200 {
		t.Fatalf("signin got %d body=%s", w.Code, w.Body.String())
	}
}

func TestSignup_ValidationErrors_400(t *testing.T) {
	deps := setupServerWithDeps(t)
	body := `{"username":"bob","email":"bob@example.com","password":"secret","password_confirm":"secret"}`
	w := doReq(deps.s, http.MethodPost, "/auth/signup", body, "")
	if w.Code != http.StatusBadRequest {
		t.Fatalf("want 400, got %d", w.Code)
	}
	got := decode[struct {
		Message string `json:"message"`
		Errors  []struct {
			Field   string `json:"field"`
			Message string `json:"message"`
		} `json:"errors"`
	}](t, w)
	if len(got.Errors) == 0 || got.Errors[0].Field != "password" {
		t.Fatalf("want a password field error, got %+v", got)
	}
}

// /auth/token is the token-obtain alias of /auth/signin.
func TestTokenObtainAlias(t *testing.T) {
	deps := setupServerWithDeps(t)
	signup(t, deps.s, "alice")

	w := doReq(deps.s, http.MethodPost, "/auth/token", `{"username_or_email":"alice","password":"Secret!pw"}`, "")
	if w.Code != http.StatusOK {
		t.Fatalf("want 200, got %d body=%s", w.Code, w.Body.String())
	}
	if got := decode[authBody](t, w); got.Tokens.Access == "" || got.User.Username != "alice" {
		t.Fatalf("unexpected body: %+v", got)
	}
}

// Wrong password on signin → 401.
func TestSignin_BadPassword_401(t *testing.T) {
	deps := setupServerWithDeps(t)
	signup(t, deps.s, "alice")

	w := doReq(deps.s, http.MethodPost, "/auth/signin", `{"username_or_email":"alice","password":"wrong"}`, "")
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("want 401, got %d body=%s", w.Code, w.Body.String())
	}
}

func TestProtectedRoutes_RequireToken(t *testing.T) {
	deps := setupServerWithDeps(t)
	for _, p := range []string{"/auth/profile", "/events", "/stats/user", "/events/1"} {
		w := doReq(deps.s, http.MethodGet, p, "", "")
		if w.Code != http.StatusUnauthorized {
			t.Fatalf("%s: want 401, got %d", p, w.Code)
		}
	}
}

func TestProfile_GetAndUpdate(t *testing.T) {
	deps := setupServerWithDeps(t)
	res := signup(t, deps.s, "alice")

	w := doReq(deps.s, http.MethodPut, "/auth/profile", `{"first_name":"Alice","phone":"+15550100"}`, res.Tokens.Access)
	if w.Code != 200 {
		t.Fatalf("update got %d body=%s", w.Code, w.Body.String())
	}

	w = doReq(deps.s, http.MethodGet, "/auth/profile", "", res.Tokens.Access)
	got := decode[userResponse](t, w)
	if got.FirstName != "Alice" || got.LastName != "L" || got.Phone == nil || *got.Phone != "+15550100" {
		t.Fatalf("unexpected profile: %+v", got)
	}
}

func TestRefreshLogoutAndDeleteAccount(t *testing.T) {
	deps := setupServerWithDeps(t)
	res := signup(t, deps.s, "alice")
	refreshBody := `{"refresh":"` + res.Tokens.Refresh + `"}`

	w := doReq(deps.s, http.MethodPost, "/auth/token/refresh", refreshBody, "")
	if w.Code != 200 {
		t.Fatalf("refresh got %d body=%s", w.Code, w.Body.String())
	}
	pair := decode[utils.TokenPair](t, w)
	if pair.Access == "" || pair.Refresh != res.Tokens.Refresh {
		t.Fatalf("unexpected refresh response: %+v", pair)
	}

	w = doReq(deps.s, http.MethodPost, "/auth/logout", "", res.Tokens.Access)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("logout without token: want 400, got %d", w.Code)
	}

	w = doReq(deps.s, http.MethodPost, "/auth/logout", refreshBody, res.Tokens.Access)
	if w.Code != http.StatusResetContent {
		t.Fatalf("logout: want 205, got %d body=%s", w.Code, w.Body.String())
	}

	w = doReq(deps.s, http.MethodPost, "/auth/token/refresh", refreshBody, "")
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("refresh after logout: want 401, got %d", w.Code)
	}

	// a fresh session is needed to delete the account
	w = doReq(deps.s, http.MethodPost, "/auth/signin", `{"username_or_email":"alice","password":"Secret!pw"}`, "")
	again := decode[authBody](t, w)
	w = doReq(deps.s, http.MethodDelete, "/auth/delete-account", `{"refresh":"`+again.Tokens.Refresh+`"}`, again.Tokens.Access)
	if w.Code != http.StatusNoContent {
		t.Fatalf("delete account: want 204, got %d body=%s", w.Code, w.Body.String())
	}
	w = doReq(deps.s, http.MethodGet, "/auth/profile", "", again.Tokens.Access)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("profile of deleted user: want 401, got %d", w.Code)
	}
}

// An access token issued before the account was deleted no longer authenticates.
func TestDeletedAccount_AccessTokenRejected(t *testing.T) {
	deps := setupServerWithDeps(t)
	host := signup(t, deps.s, "host")
	ev := createEvent(t, deps.s, host.Tokens.Access, "Party")
	ghost := signup(t, deps.s, "ghost")

	w := doReq(deps.s, http.MethodDelete, "/auth/delete-account", `{"refresh":"`+ghost.Tokens.Refresh+`"}`, ghost.Tokens.Access)
	if w.Code != http.StatusNoContent {
		t.Fatalf("delete account: want 204, got %d", w.Code)
	}

	cases := []struct{ method, path, body string }{
		{http.MethodPost, "/events", `{"title":"x","location":"y","date":"2025-08-03","time":"10:00"}`},
		{http.MethodPost, "/events/" + itoa(ev.ID) + "/attend", ""},
		{http.MethodPost, "/events/" + itoa(ev.ID) + "/attendees", ""},
		{http.MethodGet, "/stats/user", ""},
	}
	for _, tc := range cases {
		w := doReq(deps.s, tc.method, tc.path, tc.body, ghost.Tokens.Access)
		if w.Code != http.StatusUnauthorized {
			t.Fatalf("%s %s: want 401, got %d body=%s", tc.method, tc.path, w.Code, w.Body.String())
		}
		if got := decode[map[string]string](t, w); got["message"] != "User not found." {
			t.Fatalf("%s %s: unexpected message %q", tc.method, tc.path, got["message"])
		}
	}
	if n := deps.store.AttendeeRows(); n != 0 {
		t.Fatalf("want no attendee rows, got %d", n)
	}
}

/* ---------- events ---------- */

func TestEvents_ListEmpty(t *testing.T) {
	deps := setupServerWithDeps(t)
	res := signup(t, deps.s, "alice")

	w := doReq(deps.s, http.MethodGet, "/events", "", res.Tokens.Access)
	if w.Code != 200 {
		t.Fatalf("GET /events code=%d body=%s", w.Code, w.Body.String())
	}
	if got := decode[[]eventResponse](t, w); len(got) != 0 {
		t.Fatalf("want empty list, got %d", len(got))
	}
}

func TestEvents_CreateGetAndFilter(t *testing.T) {
	deps := setupServerWithDeps(t)
	res := signup(t, deps.s, "alice")
	ev := createEvent(t, deps.s, res.Tokens.Access, "Meetup")

	if ev.Date != "2025-08-03" || ev.Time != "18:00:00" || ev.DateTime != "2025-08-03T18:00:00Z" {
		t.Fatalf("unexpected instant fields: %+v", ev)
	}
	if ev.CreatedByUsername != "alice" || ev.UserAttendanceStatus != "not_registered" {
		t.Fatalf("unexpected event: %+v", ev)
	}

	w := doReq(deps.s, http.MethodGet, "/events/"+itoa(ev.ID), "", res.Tokens.Access)
	if w.Code != 200 {
		t.Fatalf("GET /events/:id code=%d", w.Code)
	}

	w = doReq(deps.s, http.MethodGet, "/events?date=2025-08-03", "", res.Tokens.Access)
	if got := decode[[]eventResponse](t, w); len(got) != 1 {
		t.Fatalf("date filter: want 1, got %d", len(got))
	}
	w = doReq(deps.s, http.MethodGet, "/events?date=2025-08-04", "", res.Tokens.Access)
	if got := decode[[]eventResponse](t, w); len(got) != 0 {
		t.Fatalf("date filter: want 0, got %d", len(got))
	}
	w = doReq(deps.s, http.MethodGet, "/events?date=bogus", "", res.Tokens.Access)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("bad date: want 400, got %d", w.Code)
	}
	w = doReq(deps.s, http.MethodGet, "/events?search=meet", "", res.Tokens.Access)
	if got := decode[[]eventResponse](t, w); len(got) != 1 {
		t.Fatalf("search: want 1, got %d", len(got))
	}

	w = doReq(deps.s, http.MethodGet, "/events/my-events", "", res.Tokens.Access)
	if got := decode[[]eventResponse](t, w); len(got) != 1 {
		t.Fatalf("my-events: want 1, got %d", len(got))
	}
}

// Malformed JSON → 400.
func TestCreateEvent_BadJSON_400(t *testing.T) {
	deps := setupServerWithDeps(t)
	res := signup(t, deps.s, "alice")

	w := doReq(deps.s, http.MethodPost, "/events", `{ bad json`, res.Tokens.Access)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("want 400, got %d; body=%s", w.Code, w.Body.String())
	}
	w = doReq(deps.s, http.MethodPost, "/events", `{"title":"x"}`, res.Tokens.Access)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("missing fields: want 400, got %d", w.Code)
	}
}

func TestEvents_NotFound_404(t *testing.T) {
	deps := setupServerWithDeps(t)
	res := signup(t, deps.s, "alice")

	for _, p := range []string{"/events/999", "/events/does-not-exist"} {
		w := doReq(deps.s, http.MethodGet, p, "", res.Tokens.Access)
		if w.Code != http.StatusNotFound {
			t.Fatalf("%s: want 404, got %d", p, w.Code)
		}
	}
	w := doReq(deps.s, http.MethodPut, "/events/999", `{"title":"x"}`, res.Tokens.Access)
	if w.Code != http.StatusNotFound {
		t.Fatalf("PUT missing: want 404, got %d", w.Code)
	}
}

func TestEvents_OnlyCreatorMayModify(t *testing.T) {
	deps := setupServerWithDeps(t)
	owner := signup(t, deps.s, "owner")
	other := signup(t, deps.s, "other")
	ev := createEvent(t, deps.s, owner.Tokens.Access, "Mine")
	path := "/events/" + itoa(ev.ID)

	if w := doReq(deps.s, http.MethodPut, path, `{"title":"Hijack"}`, other.Tokens.Access); w.Code != http.StatusForbidden {
		t.Fatalf("PUT by other: want 403, got %d", w.Code)
	}
	if w := doReq(deps.s, http.MethodDelete, path, "", other.Tokens.Access); w.Code != http.StatusForbidden {
		t.Fatalf("DELETE by other: want 403, got %d", w.Code)
	}

	w := doReq(deps.s, http.MethodPut, path, `{"time":"20:15"}`, owner.Tokens.Access)
	if w.Code != 200 {
		t.Fatalf("PUT by owner: want 200, got %d body=%s", w.Code, w.Body.String())
	}
	if got := decode[eventResponse](t, w); got.Time != "20:15:00" || got.Date != "2025-08-03" || got.Title != "Mine" {
		t.Fatalf("unexpected update result: %+v", got)
	}

	if w := doReq(deps.s, http.MethodDelete, path, "", owner.Tokens.Access); w.Code != http.StatusNoContent {
		t.Fatalf("DELETE by owner: want 204, got %d", w.Code)
	}
}

/* ---------- attendance ---------- */

func TestAttendanceFlow(t *testing.T) {
	deps := setupServerWithDeps(t)
	host := signup(t, deps.s, "host")
	a := signup(t, deps.s, "usera")
	ev := createEvent(t, deps.s, host.Tokens.Access, "Party")
	base := "/events/" + itoa(ev.ID)

	if w := doReq(deps.s, http.MethodPost, base+"/confirm-attendance", "", a.Tokens.Access); w.Code != http.StatusBadRequest {
		t.Fatalf("confirm before attend: want 400, got %d", w.Code)
	}

	if w := doReq(deps.s, http.MethodPost, base+"/attend", "", a.Tokens.Access); w.Code != http.StatusCreated {
		t.Fatalf("attend: want 201, got %d body=%s", w.Code, w.Body.String())
	}
	w := doReq(deps.s, http.MethodPost, base+"/attend", "", a.Tokens.Access)
	if w.Code != http.StatusOK {
		t.Fatalf("attend again: want 200, got %d", w.Code)
	}
	if got := decode[map[string]any](t, w); got["message"] != "You are already registered for this event." {
		t.Fatalf("unexpected message: %v", got["message"])
	}
	if n := deps.store.AttendeeRows(); n != 1 {
		t.Fatalf("want 1 attendee row, got %d", n)
	}

	w = doReq(deps.s, http.MethodPost, base+"/attendees", "", a.Tokens.Access)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("strict register duplicate: want 400, got %d", w.Code)
	}
	if got := decode[map[string]any](t, w); got["message"] != "You are already registered for this event." {
		t.Fatalf("unexpected message: %v", got["message"])
	}

	if w := doReq(deps.s, http.MethodPost, base+"/confirm-attendance", "", a.Tokens.Access); w.Code != 200 {
		t.Fatalf("confirm: want 200, got %d", w.Code)
	}
	w = doReq(deps.s, http.MethodGet, base, "", a.Tokens.Access)
	got := decode[eventResponse](t, w)
	if got.AttendeeCount != 1 || got.ConfirmedCount != 1 || got.UserAttendanceStatus != "confirmed" {
		t.Fatalf("unexpected counts: %+v", got)
	}

	w = doReq(deps.s, http.MethodGet, base+"/attendees", "", host.Tokens.Access)
	list := decode[[]attendeeResponse](t, w)
	if len(list) != 1 || list[0].User == nil || list[0].User.Username != "usera" || list[0].Status != "confirmed" {
		t.Fatalf("unexpected attendees: %+v", list)
	}

	w = doReq(deps.s, http.MethodGet, "/stats/user", "", a.Tokens.Access)
	stats := decode[map[string]int](t, w)
	if stats["attending_events"] != 1 || stats["confirmed_events"] != 1 || stats["upcoming_events"] != 1 {
		t.Fatalf("unexpected stats: %v", stats)
	}

	if w := doReq(deps.s, http.MethodPost, base+"/cancel-attendance", "", a.Tokens.Access); w.Code != 200 {
		t.Fatalf("cancel: want 200, got %d", w.Code)
	}
	if w := doReq(deps.s, http.MethodPost, base+"/decline-attendance", "", a.Tokens.Access); w.Code != http.StatusBadRequest {
		t.Fatalf("decline after cancel: want 400, got %d", w.Code)
	}
	if w := doReq(deps.s, http.MethodPost, "/events/999/attend", "", a.Tokens.Access); w.Code != http.StatusNotFound {
		t.Fatalf("attend unknown event: want 404, got %d", w.Code)
	}
}

/* ---------- limits & health ---------- */

func TestAuthEndpoints_RateLimited(t *testing.T) {
	limits := testLimits()
	limits.AuthRPS, limits.AuthBurst = 0.001, 1
	deps := setupServer(t, limits, nil)

	body := `{"username_or_email":"nobody","password":"x"}`
	if w := doReq(deps.s, http.MethodPost, "/auth/signin", body, ""); w.Code != http.StatusUnauthorized {
		t.Fatalf("first signin: want 401, got %d", w.Code)
	}
	if w := doReq(deps.s, http.MethodPost, "/auth/signin", body, ""); w.Code != http.StatusTooManyRequests {
		t.Fatalf("second signin: want 429, got %d", w.Code)
	}
}

func TestHealthz(t *testing.T) {
	deps := setupServerWithDeps(t)
	if w := doReq(deps.s, http.MethodGet, "/healthz", "", ""); w.Code != 200 {
		t.Fatalf("healthz: want 200, got %d", w.Code)
	}

	down := setupServer(t, testLimits(), func(context.Context) error { return errors.New("db down") })
	if w := doReq(down.s, http.MethodGet, "/healthz", "", ""); w.Code != http.StatusServiceUnavailable {
		t.Fatalf("healthz down: want 503, got %d", w.Code)
	}
}

func itoa(n int64) string {
	b, _ := json.Marshal(n)
	return string(b)
}
