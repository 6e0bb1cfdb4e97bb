package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/me/chorewheel/pkg/model"

	_ "modernc.org/sqlite"
)

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewSQLiteStore opens (or creates) a SQLite database at dbPath and returns a Store.
// Use ":memory:" for an in-memory database (useful in tests).
func NewSQLiteStore(dbPath string, logger *slog.Logger) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", dbPath, err)
	}
	// Every connection to ":memory:" is a separate database.
	if dbPath == ":memory:" {
		db.SetMaxOpenConns(1)
	}

	// Enable WAL mode for better concurrent read performance.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("pragma wal: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("pragma fk: %w", err)
	}

	return &SQLiteStore{
		db:     db,
		logger: logger.With("component", "store"),
	}, nil
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Migrate creates all required tables and indexes.
func (s *SQLiteStore) Migrate(ctx context.Context) error {
	s.logger.Debug("sql", "op", "migrate")
	return migrate(ctx, s.db)
}

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

// sortableTime is fixed width so that stored values compare as strings.
const sortableTime = "2006-01-02T15:04:05.000000000Z07:00"

func formatSortable(t time.Time) string {
	return t.UTC().Format(sortableTime)
}

func parseTime(s string) time.Time {
	t, _ := time.Parse(time.RFC3339Nano, s)
	return t
}

func formatDay(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.Format(model.DateFormat)
}

func parseDay(ns sql.NullString) *time.Time {
	if !ns.Valid || ns.String == "" {
		return nil
	}
	d, err := model.ParseDay(ns.String)
	if err != nil {
		return nil
	}
	return &d
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// --- Users ---

const userColumns = `id, email, name, created_at, password_hash`

func scanUser(row rowScanner) (*model.User, error) {
	var u model.User
	var createdAt string
	if err := row.Scan(&u.ID, &u.Email, &u.Name, &createdAt, &u.PasswordHash); err != nil {
		return nil, err
	}
	u.CreatedAt = parseTime(createdAt)
	return &u, nil
}

func (s *SQLiteStore) CreateUser(ctx context.Context, u *model.User) error {
	s.logger.Debug("sql", "op", "insert", "table", "users", "id", u.ID)
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO users (id, email, name, created_at, password_hash) VALUES (?, ?, ?, ?, ?)`,
		u.ID, u.Email, u.Name, formatTime(u.CreatedAt), u.PasswordHash,
	)
	return err
}

// UpdateUser stores a user's name and password hash.
func (s *SQLiteStore) UpdateUser(ctx context.Context, u *model.User) error {
	s.logger.Debug("sql", "op", "update", "table", "users", "id", u.ID)
	res, err := s.db.ExecContext(ctx,
		`UPDATE users SET name = ?, password_hash = ? WHERE id = ?`,
		u.Name, u.PasswordHash, u.ID)
	if err != nil {
		return err
	}
	return expectOneRow(res, "user", u.ID)
}

func (s *SQLiteStore) GetUser(ctx context.Context, id string) (*model.User, error) {
	s.logger.Debug("sql", "op", "select", "table", "users", "id", id)
	u, err := scanUser(s.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = ?`, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return u, err
}

func (s *SQLiteStore) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	s.logger.Debug("sql", "op", "select_by_email", "table", "users")
	u, err := scanUser(s.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE email = ? COLLATE NOCASE`, email))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return u, err
}

func (s *SQLiteStore) ListUsers(ctx context.Context, opts model.ListOptions) ([]*model.User, int, error) {
	s.logger.Debug("sql", "op", "list", "table", "users", "limit", opts.Limit, "offset", opts.Offset)
	opts.Clamp()

	var total int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT `+userColumns+` FROM users ORDER BY email LIMIT ? OFFSET ?`,
		opts.Limit, opts.Offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var users []*model.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, 0, err
		}
		users = append(users, u)
	}
	return users, total, rows.Err()
}

// --- Sessions ---

func (s *SQLiteStore) CreateSession(ctx context.Context, sess *model.Session) error {
	s.logger.Debug("sql", "op", "insert", "table", "sessions", "user_id", sess.UserID)
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO sessions (token_hash, user_id, created_at, expires_at) VALUES (?, ?, ?, ?)`,
		sess.TokenHash, sess.UserID, formatTime(sess.CreatedAt), formatSortable(sess.ExpiresAt))
	return err
}

func (s *SQLiteStore) GetSession(ctx context.Context, tokenHash string) (*model.Session, error) {
	s.logger.Debug("sql", "op", "select", "table", "sessions")
	var sess model.Session
	var createdAt, expiresAt string
	err := s.db.QueryRowContext(ctx,
		`SELECT token_hash, user_id, created_at, expires_at FROM sessions WHERE token_hash = ?`, tokenHash,
	).Scan(&sess.TokenHash, &sess.UserID, &createdAt, &expiresAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	sess.CreatedAt = parseTime(createdAt)
	sess.ExpiresAt = parseTime(expiresAt)
	return &sess, nil
}

// DeleteSession removes a session. Deleting an unknown session is a no-op.
func (s *SQLiteStore) DeleteSession(ctx context.Context, tokenHash string) error {
	s.logger.Debug("sql", "op", "delete", "table", "sessions")
	_, err := s.db.ExecContext(ctx, `DELETE FROM sessions WHERE token_hash = ?`, tokenHash)
	return err
}

// DeleteExpiredSessions removes sessions that expired at or before now and
// returns how many were removed.
func (s *SQLiteStore) DeleteExpiredSessions(ctx context.Context, now time.Time) (int, error) {
	s.logger.Debug("sql", "op", "delete_expired", "table", "sessions")
	res, err := s.db.ExecContext(ctx, `DELETE FROM sessions WHERE expires_at <= ?`, formatSortable(now))
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	return int(n), err
}

// --- Spaces ---

const spaceColumns = `id, name, full_name, parent_id, created_at`

func scanSpace(row rowScanner) (*model.Space, error) {
	var sp model.Space
	var parentID sql.NullString
	var createdAt string
	if err := row.Scan(&sp.ID, &sp.Name, &sp.FullName, &parentID, &createdAt); err != nil {
		return nil, err
	}
	sp.ParentID = parentID.String
	sp.CreatedAt = parseTime(createdAt)
	return &sp, nil
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func (s *SQLiteStore) CreateSpace(ctx context.Context, sp *model.Space) error {
	s.logger.Debug("sql", "op", "insert", "table", "spaces", "id", sp.ID)
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO spaces (id, name, full_name, parent_id, created_at) VALUES (?, ?, ?, ?, ?)`,
		sp.ID, sp.Name, sp.FullName, nullable(sp.ParentID), formatTime(sp.CreatedAt),
	)
	return err
}

func (s *SQLiteStore) GetSpace(ctx context.Context, id string) (*model.Space, error) {
	s.logger.Debug("sql", "op", "select", "table", "spaces", "id", id)
	sp, err := scanSpace(s.db.QueryRowContext(ctx,
		`SELECT `+spaceColumns+` FROM spaces WHERE id = ?`, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return sp, err
}

// ListSpaces lists spaces ordered by full name. When opts.UserID is set only
// spaces the user is a member of are returned.
func (s *SQLiteStore) ListSpaces(ctx context.Context, opts model.ListOptions) ([]*model.Space, int, error) {
	s.logger.Debug("sql", "op", "list", "table", "spaces", "limit", opts.Limit, "offset", opts.Offset)
	opts.Clamp()

	where := ""
	var args []any
	if opts.UserID != "" {
		where = ` WHERE id IN (SELECT space_id FROM space_members WHERE user_id = ?)`
		args = append(args, opts.UserID)
	}

	var total int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM spaces`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT `+spaceColumns+` FROM spaces`+where+` ORDER BY full_name LIMIT ? OFFSET ?`,
		append(args, opts.Limit, opts.Offset)...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var spaces []*model.Space
	for rows.Next() {
		sp, err := scanSpace(rows)
		if err != nil {
			return nil, 0, err
		}
		spaces = append(spaces, sp)
	}
	return spaces, total, rows.Err()
}

func (s *SQLiteStore) ListChildSpaces(ctx context.Context, parentID string) ([]*model.Space, error) {
	s.logger.Debug("sql", "op", "list_children", "table", "spaces", "parent_id", parentID)
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+spaceColumns+` FROM spaces WHERE parent_id = ? ORDER BY name`, parentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var spaces []*model.Space
	for rows.Next() {
		sp, err := scanSpace(rows)
		if err != nil {
			return nil, err
		}
		spaces = append(spaces, sp)
	}
	return spaces, rows.Err()
}

func (s *SQLiteStore) UpdateSpace(ctx context.Context, sp *model.Space) error {
	s.logger.Debug("sql", "op", "update", "table", "spaces", "id", sp.ID)
	res, err := s.db.ExecContext(ctx,
		`UPDATE spaces SET name = ?, full_name = ?, parent_id = ? WHERE id = ?`,
		sp.Name, sp.FullName, nullable(sp.ParentID), sp.ID)
	if err != nil {
		return err
	}
	return expectOneRow(res, "space", sp.ID)
}

// --- Membership ---

const memberColumns = `space_id, user_id, available, joined_at`

func scanMember(row rowScanner) (*model.SpaceMember, error) {
	var m model.SpaceMember
	var available int
	var joinedAt string
	if err := row.Scan(&m.SpaceID, &m.UserID, &available, &joinedAt); err != nil {
		return nil, err
	}
	m.Available = available != 0
	m.JoinedAt = parseTime(joinedAt)
	return &m, nil
}

// AddSpaceMember inserts a membership. Adding an existing member is a no-op.
func (s *SQLiteStore) AddSpaceMember(ctx context.Context, m *model.SpaceMember) error {
	s.logger.Debug("sql", "op", "insert", "table", "space_members", "space_id", m.SpaceID, "user_id", m.UserID)
	_, err := s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO space_members (space_id, user_id, available, joined_at) VALUES (?, ?, ?, ?)`,
		m.SpaceID, m.UserID, boolInt(m.Available), formatTime(m.JoinedAt))
	return err
}

func (s *SQLiteStore) GetSpaceMember(ctx context.Context, spaceID, userID string) (*model.SpaceMember, error) {
	s.logger.Debug("sql", "op", "select", "table", "space_members", "space_id", spaceID, "user_id", userID)
	m, err := scanMember(s.db.QueryRowContext(ctx,
		`SELECT `+memberColumns+` FROM space_members WHERE space_id = ? AND user_id = ?`, spaceID, userID))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return m, err
}

func (s *SQLiteStore) ListSpaceMembers(ctx context.Context, spaceID string) ([]*model.SpaceMember, error) {
	s.logger.Debug("sql", "op", "list", "table", "space_members", "space_id", spaceID)
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+memberColumns+` FROM space_members WHERE space_id = ? ORDER BY rowid`, spaceID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var members []*model.SpaceMember
	for rows.Next() {
		m, err := scanMember(rows)
		if err != nil {
			return nil, err
		}
		members = append(members, m)
	}
	return members, rows.Err()
}

func (s *SQLiteStore) UpdateSpaceMember(ctx context.Context, m *model.SpaceMember) error {
	s.logger.Debug("sql", "op", "update", "table", "space_members", "space_id", m.SpaceID, "user_id", m.UserID)
	res, err := s.db.ExecContext(ctx,
		`UPDATE space_members SET available = ? WHERE space_id = ? AND user_id = ?`,
		boolInt(m.Available), m.SpaceID, m.UserID)
	if err != nil {
		return err
	}
	return expectOneRow(res, "space member", m.SpaceID+"/"+m.UserID)
}

// --- Membership requests ---

const requestColumns = `id, space_id, from_user_id, to_user_id, status, created_at, responded_at`

func scanRequest(row rowScanner) (*model.MembershipRequest, error) {
	var r model.MembershipRequest
	var status, createdAt string
	var respondedAt sql.NullString
	if err := row.Scan(&r.ID, &r.SpaceID, &r.FromUserID, &r.ToUserID, &status, &createdAt, &respondedAt); err != nil {
		return nil, err
	}
	r.Status = model.RequestStatus(status)
	r.CreatedAt = parseTime(createdAt)
	if respondedAt.Valid && respondedAt.String != "" {
		t := parseTime(respondedAt.String)
		r.RespondedAt = &t
	}
	return &r, nil
}

func formatOptionalTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return formatTime(*t)
}

func (s *SQLiteStore) CreateRequest(ctx context.Context, r *model.MembershipRequest) error {
	s.logger.Debug("sql", "op", "insert", "table", "membership_requests", "id", r.ID)
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO membership_requests (id, space_id, from_user_id, to_user_id, status, created_at, responded_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.SpaceID, r.FromUserID, r.ToUserID, string(r.Status),
		formatTime(r.CreatedAt), formatOptionalTime(r.RespondedAt))
	return err
}

func (s *SQLiteStore) GetRequest(ctx context.Context, id string) (*model.MembershipRequest, error) {
	s.logger.Debug("sql", "op", "select", "table", "membership_requests", "id", id)
	r, err := scanRequest(s.db.QueryRowContext(ctx,
		`SELECT `+requestColumns+` FROM membership_requests WHERE id = ?`, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return r, err
}

// FindPendingRequest returns the open request inviting toUserID into
// spaceID, if any.
func (s *SQLiteStore) FindPendingRequest(ctx context.Context, spaceID, toUserID string) (*model.MembershipRequest, error) {
	s.logger.Debug("sql", "op", "select_pending", "table", "membership_requests", "space_id", spaceID, "to_user_id", toUserID)
	r, err := scanRequest(s.db.QueryRowContext(ctx,
		`SELECT `+requestColumns+` FROM membership_requests
		 WHERE space_id = ? AND to_user_id = ? AND status = ? LIMIT 1`,
		spaceID, toUserID, string(model.RequestPending)))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return r, err
}

// ListRequests returns the requests sent by or to a user, newest first.
func (s *SQLiteStore) ListRequests(ctx context.Context, userID string) ([]*model.MembershipRequest, error) {
	s.logger.Debug("sql", "op", "list", "table", "membership_requests", "user_id", userID)
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+requestColumns+` FROM membership_requests
		 WHERE from_user_id = ? OR to_user_id = ? ORDER BY rowid DESC`, userID, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*model.MembershipRequest
	for rows.Next() {
		r, err := scanRequest(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) UpdateRequest(ctx context.Context, r *model.MembershipRequest) error {
	s.logger.Debug("sql", "op", "update", "table", "membership_requests", "id", r.ID)
	res, err := s.db.ExecContext(ctx,
		`UPDATE membership_requests SET status = ?, responded_at = ? WHERE id = ?`,
		string(r.Status), formatOptionalTime(r.RespondedAt), r.ID)
	if err != nil {
		return err
	}
	return expectOneRow(res, "membership request", r.ID)
}

// --- Chores ---

const choreColumns = `id, space_id, name, interval_days, next_user_id, last_user_id,
	next_date, last_date, start_date, min_vwork, created_at, updated_at`

func scanChore(row rowScanner) (*model.Chore, error) {
	var c model.Chore
	var nextDate, lastDate sql.NullString
	var startDate, createdAt, updatedAt string
	if err := row.Scan(&c.ID, &c.SpaceID, &c.Name, &c.Interval, &c.NextUserID, &c.LastUserID,
		&nextDate, &lastDate, &startDate, &c.MinVWork, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	c.NextDate = parseDay(nextDate)
	c.LastDate = parseDay(lastDate)
	if d := parseDay(sql.NullString{String: startDate, Valid: true}); d != nil {
		c.StartDate = *d
	}
	c.CreatedAt = parseTime(createdAt)
	c.UpdatedAt = parseTime(updatedAt)
	return &c, nil
}

func (s *SQLiteStore) CreateChore(ctx context.Context, c *model.Chore) error {
	s.logger.Debug("sql", "op", "insert", "table", "chores", "id", c.ID)
	start := model.Day(c.StartDate)
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO chores (id, space_id, name, interval_days, next_user_id, last_user_id,
			next_date, last_date, start_date, min_vwork, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		c.ID, c.SpaceID, c.Name, c.Interval, c.NextUserID, c.LastUserID,
		formatDay(c.NextDate), formatDay(c.LastDate), formatDay(&start), c.MinVWork,
		formatTime(c.CreatedAt), formatTime(c.UpdatedAt),
	)
	return err
}

func (s *SQLiteStore) GetChore(ctx context.Context, id string) (*model.Chore, error) {
	s.logger.Debug("sql", "op", "select", "table", "chores", "id", id)
	c, err := scanChore(s.db.QueryRowContext(ctx,
		`SELECT `+choreColumns+` FROM chores WHERE id = ?`, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return c, err
}

// ListChores lists chores ordered by name, optionally filtered by space and
// by participant.
func (s *SQLiteStore) ListChores(ctx context.Context, opts model.ListOptions) ([]*model.Chore, int, error) {
	s.logger.Debug("sql", "op", "list", "table", "chores", "space_id", opts.SpaceID, "user_id", opts.UserID)
	opts.Clamp()

	var conds []string
	var args []any
	if opts.SpaceID != "" {
		conds = append(conds, "space_id = ?")
		args = append(args, opts.SpaceID)
	}
	if opts.UserID != "" {
		conds = append(conds, "id IN (SELECT chore_id FROM participants WHERE user_id = ?)")
		args = append(args, opts.UserID)
	}
	where := ""
	if len(conds) > 0 {
		where = " WHERE " + strings.Join(conds, " AND ")
	}

	var total int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM chores`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT `+choreColumns+` FROM chores`+where+` ORDER BY name, id LIMIT ? OFFSET ?`,
		append(args, opts.Limit, opts.Offset)...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var chores []*model.Chore
	for rows.Next() {
		c, err := scanChore(rows)
		if err != nil {
			return nil, 0, err
		}
		chores = append(chores, c)
	}
	return chores, total, rows.Err()
}

func (s *SQLiteStore) UpdateChore(ctx context.Context, c *model.Chore) error {
	s.logger.Debug("sql", "op", "update", "table", "chores", "id", c.ID)
	res, err := s.db.ExecContext(ctx,
		`UPDATE chores SET name = ?, interval_days = ?, next_user_id = ?, last_user_id = ?,
			next_date = ?, last_date = ?, min_vwork = ?, updated_at = ?
		 WHERE id = ?`,
		c.Name, c.Interval, c.NextUserID, c.LastUserID,
		formatDay(c.NextDate), formatDay(c.LastDate), c.MinVWork, formatTime(c.UpdatedAt),
		c.ID)
	if err != nil {
		return err
	}
	return expectOneRow(res, "chore", c.ID)
}

// ListOverdueChores returns chores whose next date lies strictly before the
// given day.
func (s *SQLiteStore) ListOverdueChores(ctx context.Context, before time.Time) ([]*model.Chore, error) {
	day := model.Day(before)
	s.logger.Debug("sql", "op", "list_overdue", "table", "chores", "before", day.Format(model.DateFormat))
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+choreColumns+` FROM chores WHERE next_date IS NOT NULL AND next_date < ? ORDER BY next_date, id`,
		day.Format(model.DateFormat))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var chores []*model.Chore
	for rows.Next() {
		c, err := scanChore(rows)
		if err != nil {
			return nil, err
		}
		chores = append(chores, c)
	}
	return chores, rows.Err()
}

// --- Participants ---

const participantColumns = `chore_id, user_id, vwork, work, weight, available`

func scanParticipant(row rowScanner) (*model.Participant, error) {
	var p model.Participant
	var available int
	if err := row.Scan(&p.ChoreID, &p.UserID, &p.VWork, &p.Work, &p.Weight, &available); err != nil {
		return nil, err
	}
	p.Available = available != 0
	return &p, nil
}

func (s *SQLiteStore) CreateParticipant(ctx context.Context, p *model.Participant) error {
	s.logger.Debug("sql", "op", "insert", "table", "participants", "chore_id", p.ChoreID, "user_id", p.UserID)
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO participants (chore_id, user_id, vwork, work, weight, available) VALUES (?, ?, ?, ?, ?, ?)`,
		p.ChoreID, p.UserID, p.VWork, p.Work, p.Weight, boolInt(p.Available))
	return err
}

func (s *SQLiteStore) GetParticipant(ctx context.Context, choreID, userID string) (*model.Participant, error) {
	s.logger.Debug("sql", "op", "select", "table", "participants", "chore_id", choreID, "user_id", userID)
	p, err := scanParticipant(s.db.QueryRowContext(ctx,
		`SELECT `+participantColumns+` FROM participants WHERE chore_id = ? AND user_id = ?`, choreID, userID))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return p, err
}

// ListParticipants returns a chore's participants in insertion order.
func (s *SQLiteStore) ListParticipants(ctx context.Context, choreID string) ([]*model.Participant, error) {
	s.logger.Debug("sql", "op", "list", "table", "participants", "chore_id", choreID)
	return s.queryParticipants(ctx,
		`SELECT `+participantColumns+` FROM participants WHERE chore_id = ? ORDER BY rowid`, choreID)
}

func (s *SQLiteStore) ListParticipantsByUser(ctx context.Context, userID string) ([]*model.Participant, error) {
	s.logger.Debug("sql", "op", "list_by_user", "table", "participants", "user_id", userID)
	return s.queryParticipants(ctx,
		`SELECT `+participantColumns+` FROM participants WHERE user_id = ? ORDER BY rowid`, userID)
}

func (s *SQLiteStore) queryParticipants(ctx context.Context, query string, args ...any) ([]*model.Participant, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*model.Participant
	for rows.Next() {
		p, err := scanParticipant(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) UpdateParticipant(ctx context.Context, p *model.Participant) error {
	s.logger.Debug("sql", "op", "update", "table", "participants", "chore_id", p.ChoreID, "user_id", p.UserID)
	res, err := s.db.ExecContext(ctx,
		`UPDATE participants SET vwork = ?, work = ?, weight = ?, available = ? WHERE chore_id = ? AND user_id = ?`,
		p.VWork, p.Work, p.Weight, boolInt(p.Available), p.ChoreID, p.UserID)
	if err != nil {
		return err
	}
	return expectOneRow(res, "participant", p.ChoreID+"/"+p.UserID)
}

// --- Completions ---

func (s *SQLiteStore) CreateCompletion(ctx context.Context, c *model.Completion) error {
	s.logger.Debug("sql", "op", "insert", "table", "completions", "id", c.ID)
	on := model.Day(c.CompletedOn)
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO completions (id, chore_id, user_id, completed_on, vwork, recorded_at) VALUES (?, ?, ?, ?, ?, ?)`,
		c.ID, c.ChoreID, c.UserID, formatDay(&on), c.VWork, formatTime(c.RecordedAt))
	return err
}

// ListCompletions returns up to limit completions of a chore, newest first.
func (s *SQLiteStore) ListCompletions(ctx context.Context, choreID string, limit int) ([]*model.Completion, error) {
	s.logger.Debug("sql", "op", "list", "table", "completions", "chore_id", choreID, "limit", limit)
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, chore_id, user_id, completed_on, vwork, recorded_at FROM completions
		 WHERE chore_id = ? ORDER BY completed_on DESC, recorded_at DESC LIMIT ?`, choreID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*model.Completion
	for rows.Next() {
		var c model.Completion
		var completedOn, recordedAt string
		if err := rows.Scan(&c.ID, &c.ChoreID, &c.UserID, &completedOn, &c.VWork, &recordedAt); err != nil {
			return nil, err
		}
		if d, err := model.ParseDay(completedOn); err == nil {
			c.CompletedOn = d
		}
		c.RecordedAt = parseTime(recordedAt)
		out = append(out, &c)
	}
	return out, rows.Err()
}

func expectOneRow(res sql.Result, entity, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%s %s: %w", entity, id, sql.ErrNoRows)
	}
	return nil
}
