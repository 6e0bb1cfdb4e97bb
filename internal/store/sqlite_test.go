package store

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/me/chorewheel/pkg/model"
)

func testStore(t *testing.T) *SQLiteStore {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(&bytes.Buffer{}, &slog.HandlerOptions{Level: slog.LevelError}))
	st, err := NewSQLiteStore(":memory:", logger)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	if err := st.Migrate(context.Background()); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	t.Cleanup(func() { st.Close() })
	return st
}

func day(s string) time.Time {
	d, err := model.ParseDay(s)
	if err != nil {
		panic(err)
	}
	return d
}

func seedUser(t *testing.T, st *SQLiteStore, id, email string) *model.User {
	t.Helper()
	u := &model.User{ID: id, Email: email, Name: id, CreatedAt: time.Now().UTC()}
	if err := st.CreateUser(context.Background(), u); err != nil {
		t.Fatalf("create user %s: %v", id, err)
	}
	return u
}

func seedSpace(t *testing.T, st *SQLiteStore, id, parentID string) *model.Space {
	t.Helper()
	sp := &model.Space{ID: id, Name: id, FullName: id, ParentID: parentID, CreatedAt: time.Now().UTC()}
	if err := st.CreateSpace(context.Background(), sp); err != nil {
		t.Fatalf("create space %s: %v", id, err)
	}
	return sp
}

func seedChore(t *testing.T, st *SQLiteStore, id, spaceID string) *model.Chore {
	t.Helper()
	now := time.Now().UTC().Truncate(time.Millisecond)
	c := &model.Chore{
		ID:        id,
		SpaceID:   spaceID,
		Name:      "chore " + id,
		Interval:  7,
		StartDate: day("2026-01-01"),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := st.CreateChore(context.Background(), c); err != nil {
		t.Fatalf("create chore %s: %v", id, err)
	}
	return c
}

// --- Migration tests ---

func TestMigrate_Idempotent(t *testing.T) {
	st := testStore(t)
	if err := st.Migrate(context.Background()); err != nil {
		t.Fatalf("second migrate: %v", err)
	}
}

// --- Users ---

func TestCreateAndGetUser(t *testing.T) {
	st := testStore(t)
	ctx := context.Background()
	u := seedUser(t, st, "usr_1", "ann@example.com")

	got, err := st.GetUser(ctx, u.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got == nil || got.Email != u.Email {
		t.Fatalf("got %+v, want email %s", got, u.Email)
	}

	byEmail, err := st.GetUserByEmail(ctx, "ANN@example.com")
	if err != nil {
		t.Fatalf("get by email: %v", err)
	}
	if byEmail == nil || byEmail.ID != u.ID {
		t.Errorf("by email = %+v, want %s", byEmail, u.ID)
	}

	missing, err := st.GetUser(ctx, "usr_missing")
	if err != nil || missing != nil {
		t.Errorf("missing user = %+v, %v; want nil, nil", missing, err)
	}
}

func TestCreateUser_DuplicateEmail(t *testing.T) {
	st := testStore(t)
	seedUser(t, st, "usr_1", "dup@example.com")
	err := st.CreateUser(context.Background(), &model.User{ID: "usr_2", Email: "dup@example.com"})
	if err == nil {
		t.Fatal("expected unique constraint error")
	}
}

func TestListUsers_Pagination(t *testing.T) {
	st := testStore(t)
	seedUser(t, st, "usr_b", "b@example.com")
	seedUser(t, st, "usr_a", "a@example.com")
	seedUser(t, st, "usr_c", "c@example.com")

	users, total, err := st.ListUsers(context.Background(), model.ListOptions{Limit: 2})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if total != 3 {
		t.Errorf("total = %d, want 3", total)
	}
	if len(users) != 2 || users[0].Email != "a@example.com" {
		t.Errorf("users = %+v", users)
	}
}

// --- Spaces and membership ---

func TestSpaces_Tree(t *testing.T) {
	st := testStore(t)
	ctx := context.Background()
	seedSpace(t, st, "spc_root", "")
	seedSpace(t, st, "spc_b", "spc_root")
	seedSpace(t, st, "spc_a", "spc_root")

	root, err := st.GetSpace(ctx, "spc_root")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if !root.IsRoot() {
		t.Error("root space has a parent")
	}

	children, err := st.ListChildSpaces(ctx, "spc_root")
	if err != nil {
		t.Fatalf("children: %v", err)
	}
	if len(children) != 2 || children[0].ID != "spc_a" || children[0].ParentID != "spc_root" {
		t.Errorf("children = %+v", children)
	}

	root.Name = "home"
	root.FullName = "home"
	if err := st.UpdateSpace(ctx, root); err != nil {
		t.Fatalf("update: %v", err)
	}
	if err := st.UpdateSpace(ctx, &model.Space{ID: "spc_nope", Name: "x"}); !errors.Is(err, sql.ErrNoRows) {
		t.Errorf("update missing = %v, want ErrNoRows", err)
	}
}

func TestSpaceMembers(t *testing.T) {
	st := testStore(t)
	ctx := context.Background()
	seedSpace(t, st, "spc_1", "")
	seedSpace(t, st, "spc_2", "")
	seedUser(t, st, "usr_1", "one@example.com")

	m := &model.SpaceMember{SpaceID: "spc_1", UserID: "usr_1", Available: true, JoinedAt: time.Now().UTC()}
	if err := st.AddSpaceMember(ctx, m); err != nil {
		t.Fatalf("add: %v", err)
	}
	// Adding twice is a no-op.
	if err := st.AddSpaceMember(ctx, m); err != nil {
		t.Fatalf("add again: %v", err)
	}

	members, err := st.ListSpaceMembers(ctx, "spc_1")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(members) != 1 || !members[0].Available {
		t.Fatalf("members = %+v", members)
	}

	m.Available = false
	if err := st.UpdateSpaceMember(ctx, m); err != nil {
		t.Fatalf("update: %v", err)
	}
	got, err := st.GetSpaceMember(ctx, "spc_1", "usr_1")
	if err != nil || got == nil || got.Available {
		t.Errorf("member = %+v, %v; want unavailable", got, err)
	}

	spaces, total, err := st.ListSpaces(ctx, model.ListOptions{UserID: "usr_1"})
	if err != nil {
		t.Fatalf("list spaces: %v", err)
	}
	if total != 1 || spaces[0].ID != "spc_1" {
		t.Errorf("spaces for user = %+v (total %d)", spaces, total)
	}
}

// --- Chores ---

func TestCreateAndGetChore(t *testing.T) {
	st := testStore(t)
	ctx := context.Background()
	seedSpace(t, st, "spc_1", "")
	c := seedChore(t, st, "chr_1", "spc_1")

	got, err := st.GetChore(ctx, c.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Interval != 7 || got.NextDate != nil || got.LastDate != nil {
		t.Errorf("chore = %+v", got)
	}
	if got.StartDate.Format(model.DateFormat) != "2026-01-01" {
		t.Errorf("start = %v", got.StartDate)
	}

	next := day("2026-01-08")
	last := day("2026-01-01")
	got.NextDate, got.LastDate = &next, &last
	got.NextUserID, got.LastUserID = "usr_2", "usr_1"
	got.MinVWork = 1.5
	if err := st.UpdateChore(ctx, got); err != nil {
		t.Fatalf("update: %v", err)
	}

	again, _ := st.GetChore(ctx, c.ID)
	if again.NextDate == nil || !again.NextDate.Equal(next) {
		t.Errorf("next date = %v, want %v", again.NextDate, next)
	}
	if again.NextUserID != "usr_2" || again.MinVWork != 1.5 {
		t.Errorf("chore after update = %+v", again)
	}
}

func TestListChores_Filters(t *testing.T) {
	st := testStore(t)
	ctx := context.Background()
	seedSpace(t, st, "spc_1", "")
	seedSpace(t, st, "spc_2", "")
	seedUser(t, st, "usr_1", "one@example.com")
	seedChore(t, st, "chr_a", "spc_1")
	seedChore(t, st, "chr_b", "spc_1")
	seedChore(t, st, "chr_c", "spc_2")

	if err := st.CreateParticipant(ctx, &model.Participant{ChoreID: "chr_c", UserID: "usr_1", Weight: 1, Available: true}); err != nil {
		t.Fatalf("participant: %v", err)
	}

	chores, total, err := st.ListChores(ctx, model.ListOptions{SpaceID: "spc_1"})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if total != 2 || len(chores) != 2 {
		t.Errorf("space filter: total=%d len=%d", total, len(chores))
	}

	chores, total, err = st.ListChores(ctx, model.ListOptions{UserID: "usr_1"})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if total != 1 || chores[0].ID != "chr_c" {
		t.Errorf("user filter = %+v", chores)
	}
}

func TestListOverdueChores(t *testing.T) {
	st := testStore(t)
	ctx := context.Background()
	seedSpace(t, st, "spc_1", "")
	for id, next := range map[string]string{"chr_past": "2026-03-01", "chr_today": "2026-03-05", "chr_future": "2026-03-09"} {
		c := seedChore(t, st, id, "spc_1")
		d := day(next)
		c.NextDate = &d
		if err := st.UpdateChore(ctx, c); err != nil {
			t.Fatalf("update %s: %v", id, err)
		}
	}
	seedChore(t, st, "chr_unscheduled", "spc_1")

	overdue, err := st.ListOverdueChores(ctx, day("2026-03-05"))
	if err != nil {
		t.Fatalf("overdue: %v", err)
	}
	if len(overdue) != 1 || overdue[0].ID != "chr_past" {
		t.Errorf("overdue = %+v", overdue)
	}
}

// --- Participants and completions ---

func TestParticipants(t *testing.T) {
	st := testStore(t)
	ctx := context.Background()
	seedSpace(t, st, "spc_1", "")
	seedChore(t, st, "chr_1", "spc_1")
	for _, id := range []string{"usr_c", "usr_a", "usr_b"} {
		seedUser(t, st, id, id+"@example.com")
		if err := st.CreateParticipant(ctx, &model.Participant{ChoreID: "chr_1", UserID: id, Weight: 1, Available: true}); err != nil {
			t.Fatalf("create participant: %v", err)
		}
	}

	parts, err := st.ListParticipants(ctx, "chr_1")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(parts) != 3 || parts[0].UserID != "usr_c" || parts[2].UserID != "usr_b" {
		t.Errorf("participants not in insertion order: %+v", parts)
	}

	p := parts[1]
	p.VWork, p.Work, p.Weight, p.Available = 2.5, 2, 1.25, false
	if err := st.UpdateParticipant(ctx, p); err != nil {
		t.Fatalf("update: %v", err)
	}
	got, err := st.GetParticipant(ctx, "chr_1", "usr_a")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.VWork != 2.5 || got.Work != 2 || got.Weight != 1.25 || got.Available {
		t.Errorf("participant = %+v", got)
	}

	byUser, err := st.ListParticipantsByUser(ctx, "usr_a")
	if err != nil || len(byUser) != 1 {
		t.Errorf("by user = %+v, %v", byUser, err)
	}

	missing, err := st.GetParticipant(ctx, "chr_1", "usr_zz")
	if err != nil || missing != nil {
		t.Errorf("missing participant = %+v, %v", missing, err)
	}
}

func TestCompletions(t *testing.T) {
	st := testStore(t)
	ctx := context.Background()
	seedSpace(t, st, "spc_1", "")
	seedChore(t, st, "chr_1", "spc_1")

	for i, on := range []string{"2026-02-01", "2026-02-08", "2026-02-15"} {
		c := &model.Completion{
			ID:          model.NewID(model.PrefixCompletion),
			ChoreID:     "chr_1",
			UserID:      "usr_1",
			CompletedOn: day(on),
			VWork:       float64(i + 1),
			RecordedAt:  time.Now().UTC(),
		}
		if err := st.CreateCompletion(ctx, c); err != nil {
			t.Fatalf("create completion: %v", err)
		}
	}

	got, err := st.ListCompletions(ctx, "chr_1", 2)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("len = %d, want 2", len(got))
	}
	if got[0].CompletedOn.Format(model.DateFormat) != "2026-02-15" || got[0].VWork != 3 {
		t.Errorf("newest = %+v", got[0])
	}
}

// --- Accounts ---

func TestUpdateUser_PasswordHash(t *testing.T) {
	st := testStore(t)
	ctx := context.Background()
	u := seedUser(t, st, "usr_1", "ann@example.com")

	u.Name = "Ann"
	u.PasswordHash = "$2a$04$hash"
	if err := st.UpdateUser(ctx, u); err != nil {
		t.Fatalf("update: %v", err)
	}
	got, err := st.GetUserByEmail(ctx, "ann@example.com")
	if err != nil || got == nil {
		t.Fatalf("get: %+v, %v", got, err)
	}
	if got.Name != "Ann" || got.PasswordHash != "$2a$04$hash" {
		t.Errorf("user = %+v", got)
	}

	err = st.UpdateUser(ctx, &model.User{ID: "usr_missing"})
	if !errors.Is(err, sql.ErrNoRows) {
		t.Errorf("update missing = %v, want sql.ErrNoRows", err)
	}
}

func TestSessions(t *testing.T) {
	st := testStore(t)
	ctx := context.Background()
	seedUser(t, st, "usr_1", "ann@example.com")
	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

	live := &model.Session{TokenHash: "live", UserID: "usr_1", CreatedAt: now, ExpiresAt: now.Add(time.Hour)}
	stale := &model.Session{TokenHash: "stale", UserID: "usr_1", CreatedAt: now, ExpiresAt: now.Add(-time.Nanosecond)}
	for _, sess := range []*model.Session{live, stale} {
		if err := st.CreateSession(ctx, sess); err != nil {
			t.Fatalf("create %s: %v", sess.TokenHash, err)
		}
	}

	got, err := st.GetSession(ctx, "live")
	if err != nil || got == nil {
		t.Fatalf("get: %+v, %v", got, err)
	}
	if got.UserID != "usr_1" || !got.ExpiresAt.Equal(live.ExpiresAt) {
		t.Errorf("session = %+v", got)
	}

	n, err := st.DeleteExpiredSessions(ctx, now)
	if err != nil || n != 1 {
		t.Fatalf("delete expired = %d, %v; want 1", n, err)
	}
	if got, _ := st.GetSession(ctx, "stale"); got != nil {
		t.Errorf("stale session survived: %+v", got)
	}

	if err := st.DeleteSession(ctx, "live"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if got, err := st.GetSession(ctx, "live"); err != nil || got != nil {
		t.Errorf("deleted session = %+v, %v; want nil, nil", got, err)
	}
}

func TestMembershipRequests(t *testing.T) {
	st := testStore(t)
	ctx := context.Background()
	seedSpace(t, st, "spc_1", "")
	seedUser(t, st, "usr_1", "one@example.com")
	seedUser(t, st, "usr_2", "two@example.com")
	seedUser(t, st, "usr_3", "three@example.com")
	now := time.Now().UTC()

	r := &model.MembershipRequest{
		ID: "mrq_1", SpaceID: "spc_1", FromUserID: "usr_1", ToUserID: "usr_2",
		Status: model.RequestPending, CreatedAt: now,
	}
	if err := st.CreateRequest(ctx, r); err != nil {
		t.Fatalf("create: %v", err)
	}

	pending, err := st.FindPendingRequest(ctx, "spc_1", "usr_2")
	if err != nil || pending == nil || pending.ID != "mrq_1" {
		t.Fatalf("pending = %+v, %v", pending, err)
	}
	if pending.RespondedAt != nil {
		t.Errorf("responded_at = %v, want nil", pending.RespondedAt)
	}

	for _, uid := range []string{"usr_1", "usr_2"} {
		list, err := st.ListRequests(ctx, uid)
		if err != nil || len(list) != 1 {
			t.Errorf("requests for %s = %+v, %v", uid, list, err)
		}
	}
	if list, _ := st.ListRequests(ctx, "usr_3"); len(list) != 0 {
		t.Errorf("requests for outsider = %+v", list)
	}

	r.Status = model.RequestAccepted
	r.RespondedAt = &now
	if err := st.UpdateRequest(ctx, r); err != nil {
		t.Fatalf("update: %v", err)
	}
	got, err := st.GetRequest(ctx, "mrq_1")
	if err != nil || got == nil || got.Status != model.RequestAccepted || got.RespondedAt == nil {
		t.Fatalf("request = %+v, %v", got, err)
	}
	if again, _ := st.FindPendingRequest(ctx, "spc_1", "usr_2"); again != nil {
		t.Errorf("answered request still pending: %+v", again)
	}
}
