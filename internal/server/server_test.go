package server

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/crypto/bcrypt"

	"github.com/me/chorewheel/internal/config"
	"github.com/me/chorewheel/internal/metrics"
	"github.com/me/chorewheel/internal/store"
	"github.com/me/chorewheel/internal/tracker"
	"github.com/me/chorewheel/pkg/model"
)

var today = time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(&bytes.Buffer{}, &slog.HandlerOptions{Level: slog.LevelError}))
}

func testServerWith(t *testing.T, cfg config.ServerConfig, opts ...Option) *Server {
	t.Helper()
	logger := testLogger()
	st, err := store.NewSQLiteStore(":memory:", logger)
	if err != nil {
		t.Fatalf("NewSQLiteStore: %v", err)
	}
	if err := st.Migrate(context.Background()); err != nil {
		t.Fatalf("Migrate: %v", err)
	}
	t.Cleanup(func() { st.Close() })

	svc := tracker.New(st, logger,
		tracker.WithClock(tracker.ClockFunc(func() time.Time { return today })),
		tracker.WithHorizon(cfg.Horizon),
		tracker.WithMaxHorizon(cfg.MaxHorizon),
		tracker.WithSessionTTL(cfg.SessionTTL),
		tracker.WithPasswordCost(bcrypt.MinCost))
	return New(cfg, svc, logger, opts...)
}

func testServer(t *testing.T) *Server {
	t.Helper()
	cfg := config.DefaultServerConfig()
	cfg.RatePerSec = 0
	return testServerWith(t, cfg)
}

// envelope is used to decode the standard response envelope.
type envelope struct {
	Status     string            `json:"status"`
	RequestID  string            `json:"request_id"`
	Timestamp  string            `json:"timestamp"`
	Data       json.RawMessage   `json:"data"`
	Pagination *model.Pagination `json:"pagination"`
	Error      *model.APIError   `json:"error"`
}

func do(t *testing.T, srv *Server, method, path, body string, wantStatus int) envelope {
	t.Helper()
	return doAs(t, srv, "", method, path, body, wantStatus)
}

// doAs sends a request carrying token as a bearer token, unless it is empty.
func doAs(t *testing.T, srv *Server, token, method, path, body string, wantStatus int) envelope {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	srv.ServeHTTP(w, req)
	if w.Code != wantStatus {
		t.Fatalf("%s %s: status=%d, want %d, body=%s", method, path, w.Code, wantStatus, w.Body.String())
	}
	var env envelope
	if err := json.Unmarshal(w.Body.Bytes(), &env); err != nil {
		t.Fatalf("%s %s: invalid JSON: %v", method, path, err)
	}
	return env
}

func doGet(t *testing.T, srv *Server, path string) envelope {
	t.Helper()
	return do(t, srv, "GET", path, "", http.StatusOK)
}

func decode[T any](t *testing.T, env envelope) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(env.Data, &v); err != nil {
		t.Fatalf("decode data: %v (%s)", err, env.Data)
	}
	return v
}

func getAs(t *testing.T, srv *Server, token, path string) envelope {
	t.Helper()
	return doAs(t, srv, token, "GET", path, "", http.StatusOK)
}

const testPassword = "hunter2hunter2"

// account registers a user and logs in, returning the user id and token.
func account(t *testing.T, srv *Server, email string) (string, string) {
	t.Helper()
	env := do(t, srv, "POST", "/api/v1/users/",
		`{"email":"`+email+`","name":"x","password":"`+testPassword+`"}`, http.StatusCreated)
	id := decode[model.User](t, env).ID
	env = do(t, srv, "POST", "/api/v1/users/login",
		`{"email":"`+email+`","password":"`+testPassword+`"}`, http.StatusOK)
	login := decode[loginResponse](t, env)
	if login.Token == "" || login.User == nil || login.User.ID != id {
		t.Fatalf("login = %+v, want a token for %s", login, id)
	}
	return id, login.Token
}

// household creates a root space owned by the first token's user and
// brings the others in through accepted membership requests.
func household(t *testing.T, srv *Server, owner string, others ...string) spaceDetail {
	t.Helper()
	env := doAs(t, srv, owner, "POST", "/api/v1/spaces/", `{"name":"home"}`, http.StatusCreated)
	space := decode[spaceDetail](t, env)
	for _, tok := range others {
		me := decode[model.User](t, getAs(t, srv, tok, "/api/v1/users/me"))
		env = doAs(t, srv, owner, "POST", "/api/v1/requests/",
			`{"space_id":"`+space.ID+`","email":"`+me.Email+`"}`, http.StatusCreated)
		mr := decode[model.MembershipRequest](t, env)
		doAs(t, srv, tok, "POST", "/api/v1/requests/"+mr.ID+"/accept", "", http.StatusOK)
	}
	return decode[spaceDetail](t, getAs(t, srv, owner, "/api/v1/spaces/"+space.ID))
}

type stubScheduler struct {
	last    time.Time
	carried int
}

func (s *stubScheduler) Start(ctx context.Context) error { <-ctx.Done(); return ctx.Err() }
func (s *stubScheduler) Stop() error                     { return nil }
func (s *stubScheduler) Tick(context.Context) error      { return nil }
func (s *stubScheduler) Stats() (time.Time, int)         { return s.last, s.carried }

func TestDiscovery(t *testing.T) {
	srv := testServer(t)
	env := doGet(t, srv, "/api/v1/")
	if env.Status != "ok" {
		t.Errorf("status = %q, want ok", env.Status)
	}
	if env.RequestID == "" {
		t.Error("request_id is empty")
	}

	data := decode[discoveryResponse](t, env)
	if data.Name != "chorewheel API" {
		t.Errorf("name = %q, want chorewheel API", data.Name)
	}
	if len(data.Endpoints) < 10 {
		t.Errorf("endpoints count = %d, want >= 10", len(data.Endpoints))
	}
}

func TestHealth(t *testing.T) {
	srv := testServer(t)
	data := decode[healthResponse](t, doGet(t, srv, "/api/v1/health"))
	if data.Status != "healthy" {
		t.Errorf("health status = %q, want healthy", data.Status)
	}
	if data.Version != Version {
		t.Errorf("version = %q, want %s", data.Version, Version)
	}
	if data.Today != "2026-03-10" {
		t.Errorf("today = %q, want 2026-03-10", data.Today)
	}
	if data.Horizon != 90 || data.MaxHorizon != 3650 {
		t.Errorf("horizon = %d/%d, want 90/3650", data.Horizon, data.MaxHorizon)
	}
	if data.Scheduler != "disabled" || data.LastRollover != nil {
		t.Errorf("scheduler = %q last=%v, want disabled without a rollover", data.Scheduler, data.LastRollover)
	}
}

func TestHealth_SchedulerStats(t *testing.T) {
	cfg := config.DefaultServerConfig()
	cfg.RatePerSec = 0
	ran := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	srv := testServerWith(t, cfg, WithScheduler(&stubScheduler{last: ran, carried: 4}))

	data := decode[healthResponse](t, doGet(t, srv, "/api/v1/health"))
	if data.Scheduler != "enabled" {
		t.Errorf("scheduler = %q, want enabled", data.Scheduler)
	}
	if data.LastRollover == nil || !data.LastRollover.Equal(ran) {
		t.Errorf("last_rollover = %v, want %v", data.LastRollover, ran)
	}
	if data.Carried != 4 {
		t.Errorf("carried = %d, want 4", data.Carried)
	}
}

func TestAuth_Required(t *testing.T) {
	srv := testServer(t)
	for _, path := range []string{"/api/v1/users/", "/api/v1/spaces/", "/api/v1/chores/", "/api/v1/requests/", "/api/v1/users/me"} {
		env := do(t, srv, "GET", path, "", http.StatusUnauthorized)
		if env.Error == nil || env.Error.Code != model.ErrUnauthorized {
			t.Errorf("GET %s: error = %v, want UNAUTHORIZED", path, env.Error)
		}
	}
	doAs(t, srv, "cwt_forged", "GET", "/api/v1/users/me", "", http.StatusUnauthorized)

	// Both schemes are accepted.
	_, token := account(t, srv, "a@example.com")
	req := httptest.NewRequest("GET", "/api/v1/users/me", nil)
	req.Header.Set("Authorization", "Token "+token)
	w := httptest.NewRecorder()
	srv.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Errorf("Token scheme: status = %d, want 200", w.Code)
	}
}

func TestLoginAndLogout(t *testing.T) {
	srv := testServer(t)
	a, token := account(t, srv, "a@example.com")

	env := do(t, srv, "POST", "/api/v1/users/login", `{"email":"a@example.com","password":"nope-nope"}`, http.StatusUnauthorized)
	if env.Error == nil || env.Error.Code != model.ErrUnauthorized {
		t.Errorf("error = %v, want UNAUTHORIZED", env.Error)
	}

	me := decode[model.User](t, getAs(t, srv, token, "/api/v1/users/me"))
	if me.ID != a {
		t.Errorf("me = %s, want %s", me.ID, a)
	}
	if strings.Contains(string(getAs(t, srv, token, "/api/v1/users/me").Data), "password") {
		t.Error("user JSON leaks the password hash")
	}

	doAs(t, srv, token, "POST", "/api/v1/users/logout", "", http.StatusOK)
	doAs(t, srv, token, "GET", "/api/v1/users/me", "", http.StatusUnauthorized)
}

func TestCreateUser_Errors(t *testing.T) {
	srv := testServer(t)
	_, token := account(t, srv, "a@example.com")

	env := do(t, srv, "POST", "/api/v1/users/", `{"email":"A@example.com","password":"`+testPassword+`"}`, http.StatusConflict)
	if env.Status != "error" || env.Error.Code != model.ErrConflict {
		t.Errorf("error = %+v, want CONFLICT", env.Error)
	}

	env = do(t, srv, "POST", "/api/v1/users/", `{"email":"b@example.com","password":"short"}`, http.StatusBadRequest)
	if env.Error == nil || env.Error.Code != model.ErrValidation {
		t.Errorf("error code = %v, want VALIDATION_ERROR", env.Error)
	}

	env = do(t, srv, "POST", "/api/v1/users/", "not json", http.StatusBadRequest)
	if env.Error == nil || env.Error.Code != model.ErrValidation {
		t.Errorf("error code = %v, want VALIDATION_ERROR", env.Error)
	}

	env = doAs(t, srv, token, "GET", "/api/v1/users/usr_nope", "", http.StatusNotFound)
	if env.Error == nil || env.Error.Code != model.ErrNotFound {
		t.Errorf("error code = %v, want NOT_FOUND", env.Error)
	}
}

func TestListUsers_Pagination(t *testing.T) {
	srv := testServer(t)
	var token string
	for _, e := range []string{"a@x.io", "b@x.io", "c@x.io"} {
		_, token = account(t, srv, e)
	}
	env := getAs(t, srv, token, "/api/v1/users/?limit=2")
	if env.Pagination == nil {
		t.Fatal("expected pagination")
	}
	if env.Pagination.Total != 3 || !env.Pagination.HasMore {
		t.Errorf("pagination = %+v, want total 3 with more", env.Pagination)
	}
	if users := decode[[]model.User](t, env); len(users) != 2 {
		t.Errorf("len = %d, want 2", len(users))
	}
}

func TestUpdateMe(t *testing.T) {
	srv := testServer(t)
	a, token := account(t, srv, "a@example.com")
	b, _ := account(t, srv, "b@example.com")

	u := decode[model.User](t, doAs(t, srv, token, "PUT", "/api/v1/users/me",
		`{"name":"Alice","password":"brand new pass"}`, http.StatusOK))
	if u.ID != a || u.Name != "Alice" {
		t.Errorf("user = %+v, want Alice", u)
	}
	do(t, srv, "POST", "/api/v1/users/login", `{"email":"a@example.com","password":"brand new pass"}`, http.StatusOK)

	env := doAs(t, srv, token, "PUT", "/api/v1/users/"+b, `{"name":"Mallory"}`, http.StatusForbidden)
	if env.Error == nil || env.Error.Code != model.ErrForbidden {
		t.Errorf("error = %v, want FORBIDDEN", env.Error)
	}
}

func TestChoreLifecycle(t *testing.T) {
	srv := testServer(t)
	a, ta := account(t, srv, "a@example.com")
	b, tb := account(t, srv, "b@example.com")

	space := household(t, srv, ta, tb)
	if len(space.Members) != 2 {
		t.Fatalf("members = %d, want 2", len(space.Members))
	}

	env := doAs(t, srv, ta, "POST", "/api/v1/chores/",
		`{"space_id":"`+space.ID+`","name":"dishes","interval":2,"start_date":"2026-03-10"}`, http.StatusCreated)
	chore := decode[model.Chore](t, env)
	if chore.NextUserID != a {
		t.Errorf("next = %s, want %s", chore.NextUserID, a)
	}

	env = doAs(t, srv, ta, "POST", "/api/v1/chores/"+chore.ID+"/complete", `{}`, http.StatusCreated)
	if comp := decode[model.Completion](t, env); comp.VWork != 1 || comp.UserID != a {
		t.Errorf("completion = %+v, want vwork 1 by %s", comp, a)
	}

	chore = decode[model.Chore](t, getAs(t, srv, tb, "/api/v1/chores/"+chore.ID))
	if chore.NextUserID != b || chore.LastUserID != a {
		t.Errorf("next/last = %s/%s, want %s/%s", chore.NextUserID, chore.LastUserID, b, a)
	}
	if got := chore.NextDate.Format(model.DateFormat); got != "2026-03-12" {
		t.Errorf("next date = %s, want 2026-03-12", got)
	}

	cal := decode[[]model.Occurrence](t, getAs(t, srv, ta, "/api/v1/chores/"+chore.ID+"/calendar?days=6"))
	wantUsers := []string{b, a, b}
	if len(cal) != len(wantUsers) {
		t.Fatalf("calendar len = %d, want %d", len(cal), len(wantUsers))
	}
	for i, u := range wantUsers {
		if cal[i].UserID != u {
			t.Errorf("calendar[%d] = %s, want %s", i, cal[i].UserID, u)
		}
	}

	mine := decode[[]model.Occurrence](t, getAs(t, srv, ta, "/api/v1/users/me/calendar?days=6&mine=true"))
	if len(mine) != 1 || mine[0].Date.Format(model.DateFormat) != "2026-03-14" {
		t.Errorf("mine = %+v, want a single turn on 2026-03-14", mine)
	}
	doAs(t, srv, ta, "GET", "/api/v1/users/"+b+"/calendar", "", http.StatusForbidden)

	// Any participant may set a weight; only b may mark b away.
	p := decode[model.Participant](t, doAs(t, srv, ta, "PUT", "/api/v1/chores/"+chore.ID+"/participants/"+b,
		`{"weight":3}`, http.StatusOK))
	if p.Weight != 3 {
		t.Errorf("participant = %+v, want weight 3", p)
	}
	doAs(t, srv, ta, "PUT", "/api/v1/chores/"+chore.ID+"/participants/"+b, `{"available":false}`, http.StatusForbidden)
	p = decode[model.Participant](t, doAs(t, srv, tb, "PUT", "/api/v1/chores/"+chore.ID+"/participants/me",
		`{"available":false}`, http.StatusOK))
	if p.UserID != b || p.Available {
		t.Errorf("participant = %+v, want %s unavailable", p, b)
	}

	parts := decode[[]model.Participant](t, getAs(t, srv, ta, "/api/v1/chores/"+chore.ID+"/participants"))
	if len(parts) != 2 {
		t.Errorf("participants = %d, want 2", len(parts))
	}

	comps := decode[[]model.Completion](t, getAs(t, srv, ta, "/api/v1/chores/"+chore.ID+"/completions"))
	if len(comps) != 1 || comps[0].UserID != a {
		t.Errorf("completions = %+v", comps)
	}

	env = getAs(t, srv, ta, "/api/v1/chores/?space_id="+space.ID)
	if env.Pagination == nil || env.Pagination.Total != 1 {
		t.Errorf("pagination = %+v, want total 1", env.Pagination)
	}

	chore = decode[model.Chore](t, doAs(t, srv, ta, "PUT", "/api/v1/chores/"+chore.ID, `{"interval":4}`, http.StatusOK))
	if chore.Interval != 4 {
		t.Errorf("interval = %d, want 4", chore.Interval)
	}
}

func TestListings_ScopedToCaller(t *testing.T) {
	srv := testServer(t)
	_, ta := account(t, srv, "a@example.com")
	_, tb := account(t, srv, "b@example.com")

	home := household(t, srv, ta)
	doAs(t, srv, ta, "POST", "/api/v1/chores/", `{"space_id":"`+home.ID+`","name":"dishes"}`, http.StatusCreated)
	flat := decode[spaceDetail](t, doAs(t, srv, tb, "POST", "/api/v1/spaces/", `{"name":"flat"}`, http.StatusCreated))
	doAs(t, srv, tb, "POST", "/api/v1/chores/", `{"space_id":"`+flat.ID+`","name":"bins"}`, http.StatusCreated)
	doAs(t, srv, tb, "POST", "/api/v1/chores/", `{"space_id":"`+flat.ID+`","name":"mop"}`, http.StatusCreated)

	spaces := decode[[]model.Space](t, getAs(t, srv, ta, "/api/v1/spaces/"))
	if len(spaces) != 1 || spaces[0].ID != home.ID {
		t.Errorf("a's spaces = %+v, want only home", spaces)
	}
	if env := getAs(t, srv, tb, "/api/v1/chores/"); env.Pagination == nil || env.Pagination.Total != 2 {
		t.Errorf("b's chores pagination = %+v, want total 2", env.Pagination)
	}
	// The filter cannot be widened to someone else.
	if env := getAs(t, srv, tb, "/api/v1/chores/?user_id=anyone"); env.Pagination.Total != 2 {
		t.Errorf("b's chores with user_id = %+v, want total 2", env.Pagination)
	}
}

func TestAccessControl(t *testing.T) {
	srv := testServer(t)
	_, ta := account(t, srv, "a@example.com")
	_, outsider := account(t, srv, "z@example.com")

	space := household(t, srv, ta)
	chore := decode[model.Chore](t, doAs(t, srv, ta, "POST", "/api/v1/chores/",
		`{"space_id":"`+space.ID+`","name":"dishes"}`, http.StatusCreated))

	forbidden := []struct {
		method, path, body string
	}{
		{"GET", "/api/v1/spaces/" + space.ID, ""},
		{"PUT", "/api/v1/spaces/" + space.ID, `{"name":"mine"}`},
		{"POST", "/api/v1/spaces/", `{"name":"annex","parent_id":"` + space.ID + `"}`},
		{"POST", "/api/v1/chores/", `{"space_id":"` + space.ID + `","name":"sneaky"}`},
		{"GET", "/api/v1/chores/" + chore.ID, ""},
		{"POST", "/api/v1/chores/" + chore.ID + "/complete", `{}`},
		{"GET", "/api/v1/chores/" + chore.ID + "/calendar", ""},
		{"POST", "/api/v1/requests/", `{"space_id":"` + space.ID + `","email":"z@example.com"}`},
	}
	for _, tc := range forbidden {
		env := doAs(t, srv, outsider, tc.method, tc.path, tc.body, http.StatusForbidden)
		if env.Error == nil || env.Error.Code != model.ErrForbidden {
			t.Errorf("%s %s: error = %v, want FORBIDDEN", tc.method, tc.path, env.Error)
		}
	}
	doAs(t, srv, outsider, "GET", "/api/v1/chores/chr_nope", "", http.StatusNotFound)
}

func TestMembershipRequests(t *testing.T) {
	srv := testServer(t)
	_, ta := account(t, srv, "a@example.com")
	b, tb := account(t, srv, "b@example.com")
	space := household(t, srv, ta)

	mr := decode[model.MembershipRequest](t, doAs(t, srv, ta, "POST", "/api/v1/requests/",
		`{"space_id":"`+space.ID+`","email":"b@example.com"}`, http.StatusCreated))
	if mr.ToUserID != b || mr.Status != model.RequestPending {
		t.Errorf("request = %+v, want pending for %s", mr, b)
	}
	doAs(t, srv, ta, "POST", "/api/v1/requests/", `{"space_id":"`+space.ID+`","email":"b@example.com"}`, http.StatusConflict)
	doAs(t, srv, ta, "POST", "/api/v1/requests/", `{"space_id":"`+space.ID+`"}`, http.StatusBadRequest)
	doAs(t, srv, ta, "POST", "/api/v1/requests/", `{"space_id":"`+space.ID+`","email":"ghost@example.com"}`, http.StatusNotFound)

	inbox := decode[[]model.MembershipRequest](t, getAs(t, srv, tb, "/api/v1/requests/"))
	if len(inbox) != 1 || inbox[0].ID != mr.ID {
		t.Errorf("inbox = %+v, want the one request", inbox)
	}

	doAs(t, srv, ta, "POST", "/api/v1/requests/"+mr.ID+"/accept", "", http.StatusForbidden)
	doAs(t, srv, tb, "GET", "/api/v1/spaces/"+space.ID, "", http.StatusForbidden)

	mr = decode[model.MembershipRequest](t, doAs(t, srv, tb, "POST", "/api/v1/requests/"+mr.ID+"/decline", "", http.StatusOK))
	if mr.Status != model.RequestDeclined {
		t.Errorf("status = %s, want declined", mr.Status)
	}
	doAs(t, srv, tb, "POST", "/api/v1/requests/"+mr.ID+"/accept", "", http.StatusConflict)
	doAs(t, srv, tb, "GET", "/api/v1/spaces/"+space.ID, "", http.StatusForbidden)
	doAs(t, srv, tb, "POST", "/api/v1/requests/mrq_nope/accept", "", http.StatusNotFound)
}

func TestSpaceAvailability(t *testing.T) {
	srv := testServer(t)
	_, ta := account(t, srv, "a@example.com")
	b, tb := account(t, srv, "b@example.com")
	space := household(t, srv, ta, tb)
	child := decode[spaceDetail](t, doAs(t, srv, ta, "POST", "/api/v1/spaces/",
		`{"name":"garden","parent_id":"`+space.ID+`"}`, http.StatusCreated))
	if child.FullName != "home/garden" || len(child.Members) != 2 {
		t.Errorf("child = %q with %d members, want home/garden with 2", child.FullName, len(child.Members))
	}

	doAs(t, srv, tb, "PUT", "/api/v1/spaces/"+space.ID+"/members/me/availability", `{"available":false}`, http.StatusOK)
	child = decode[spaceDetail](t, getAs(t, srv, ta, "/api/v1/spaces/"+child.ID))
	for _, m := range child.Members {
		if m.UserID == b && m.Available {
			t.Errorf("child member %s still available", b)
		}
	}

	doAs(t, srv, tb, "PUT", "/api/v1/spaces/"+space.ID+"/members/"+b+"/availability", `{}`, http.StatusBadRequest)
	doAs(t, srv, ta, "PUT", "/api/v1/spaces/"+space.ID+"/members/"+b+"/availability", `{"available":true}`, http.StatusForbidden)
}

func TestUpdateSpace(t *testing.T) {
	srv := testServer(t)
	_, ta := account(t, srv, "a@example.com")
	space := household(t, srv, ta)
	child := decode[spaceDetail](t, doAs(t, srv, ta, "POST", "/api/v1/spaces/",
		`{"name":"garden","parent_id":"`+space.ID+`"}`, http.StatusCreated))

	got := decode[spaceDetail](t, doAs(t, srv, ta, "PUT", "/api/v1/spaces/"+space.ID, `{"name":"cottage"}`, http.StatusOK))
	if got.FullName != "cottage" || len(got.Members) != 1 {
		t.Errorf("space = %+v, want cottage with its member", got)
	}
	child = decode[spaceDetail](t, getAs(t, srv, ta, "/api/v1/spaces/"+child.ID))
	if child.FullName != "cottage/garden" {
		t.Errorf("child full name = %q, want cottage/garden", child.FullName)
	}

	doAs(t, srv, ta, "PUT", "/api/v1/spaces/"+space.ID, `{"name":"a/b"}`, http.StatusBadRequest)
	doAs(t, srv, ta, "PUT", "/api/v1/spaces/"+space.ID, `{"parent_id":"`+child.ID+`"}`, http.StatusBadRequest)
}

func TestCompleteChore_Validation(t *testing.T) {
	srv := testServer(t)
	a, ta := account(t, srv, "a@example.com")
	space := household(t, srv, ta)
	chore := decode[model.Chore](t, doAs(t, srv, ta, "POST", "/api/v1/chores/",
		`{"space_id":"`+space.ID+`","name":"mop"}`, http.StatusCreated))

	doAs(t, srv, ta, "POST", "/api/v1/chores/"+chore.ID+"/complete", `not json`, http.StatusBadRequest)
	doAs(t, srv, ta, "POST", "/api/v1/chores/"+chore.ID+"/complete", `{"date":"yesterday"}`, http.StatusBadRequest)
	doAs(t, srv, ta, "POST", "/api/v1/chores/"+chore.ID+"/complete", `{"date":"2026-03-11"}`, http.StatusBadRequest)
	doAs(t, srv, ta, "POST", "/api/v1/chores/chr_nope/complete", `{}`, http.StatusNotFound)
	doAs(t, srv, ta, "GET", "/api/v1/chores/"+chore.ID+"/calendar?days=-1", "", http.StatusBadRequest)
	doAs(t, srv, ta, "PUT", "/api/v1/chores/"+chore.ID+"/participants/"+a, `{}`, http.StatusBadRequest)
	doAs(t, srv, ta, "PUT", "/api/v1/chores/"+chore.ID+"/participants/"+a, `{"weight":0}`, http.StatusBadRequest)

	// An empty body completes today's turn.
	doAs(t, srv, ta, "POST", "/api/v1/chores/"+chore.ID+"/complete", "", http.StatusCreated)
}

func TestCalendar_DaysLimit(t *testing.T) {
	srv := testServer(t)
	_, ta := account(t, srv, "a@example.com")
	space := household(t, srv, ta)
	chore := decode[model.Chore](t, doAs(t, srv, ta, "POST", "/api/v1/chores/",
		`{"space_id":"`+space.ID+`","name":"daily","interval":1}`, http.StatusCreated))

	cal := decode[[]model.Occurrence](t, getAs(t, srv, ta, "/api/v1/chores/"+chore.ID+"/calendar?days=3650"))
	if len(cal) != 3651 {
		t.Errorf("calendar len = %d, want 3651", len(cal))
	}

	for _, days := range []string{"3651", "9007199254740993", "99999999999999999999"} {
		for _, path := range []string{"/api/v1/chores/" + chore.ID + "/calendar", "/api/v1/users/me/calendar"} {
			env := doAs(t, srv, ta, "GET", path+"?days="+days, "", http.StatusBadRequest)
			if env.Error == nil || env.Error.Code != model.ErrValidation {
				t.Errorf("%s days=%s: error = %v, want VALIDATION_ERROR", path, days, env.Error)
			}
		}
	}
}

func TestRateLimit(t *testing.T) {
	cfg := config.DefaultServerConfig()
	cfg.RatePerSec = 0.001
	cfg.RateBurst = 2
	srv := testServerWith(t, cfg)

	doGet(t, srv, "/api/v1/health")
	doGet(t, srv, "/api/v1/health")
	env := do(t, srv, "GET", "/api/v1/health", "", http.StatusTooManyRequests)
	if env.Error == nil || env.Error.Code != model.ErrRateLimited {
		t.Errorf("error = %v, want RATE_LIMITED", env.Error)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	reg := prometheus.NewRegistry()
	prom, err := metrics.NewPrometheus(reg, "test")
	if err != nil {
		t.Fatalf("NewPrometheus: %v", err)
	}
	cfg := config.DefaultServerConfig()
	cfg.RatePerSec = 0
	srv := testServerWith(t, cfg, WithMetrics(prom, promhttp.HandlerFor(reg, promhttp.HandlerOpts{})))

	doGet(t, srv, "/api/v1/health")

	req := httptest.NewRequest("GET", "/metrics", nil)
	w := httptest.NewRecorder()
	srv.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("GET /metrics: status=%d", w.Code)
	}
	if !strings.Contains(w.Body.String(), `test_http_requests_total{method="GET",status="200"} 1`) {
		t.Errorf("metrics output missing request counter:\n%s", w.Body.String())
	}
}
