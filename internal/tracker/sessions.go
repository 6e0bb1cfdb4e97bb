package tracker

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/me/chorewheel/pkg/model"
)

// tokenPrefix marks chorewheel bearer tokens so they are easy to spot in
// config files and logs.
const tokenPrefix = "cwt_"

func newToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return tokenPrefix + hex.EncodeToString(b), nil
}

func hashToken(token string) string {
	h := sha256.Sum256([]byte(token))
	return hex.EncodeToString(h[:])
}

func badCredentials() error {
	return model.NewUnauthorizedError("invalid email or password")
}

// Login checks a user's password and opens a session. The returned token is
// the only copy; the store keeps its hash.
func (s *Service) Login(ctx context.Context, email, password string) (*model.Session, string, error) {
	u, err := s.store.GetUserByEmail(ctx, normalizeEmail(email))
	if err != nil {
		return nil, "", fmt.Errorf("get user by email: %w", err)
	}
	if u == nil {
		return nil, "", badCredentials()
	}
	ok, err := verifyPassword(u, password)
	if err != nil {
		return nil, "", err
	}
	if !ok {
		s.logger.Warn("login failed", "user_id", u.ID)
		return nil, "", badCredentials()
	}

	token, err := newToken()
	if err != nil {
		return nil, "", fmt.Errorf("generate token: %w", err)
	}
	now := s.now()
	sess := &model.Session{
		TokenHash: hashToken(token),
		UserID:    u.ID,
		CreatedAt: now,
		ExpiresAt: now.Add(s.sessionTTL),
	}
	if err := s.store.CreateSession(ctx, sess); err != nil {
		return nil, "", fmt.Errorf("create session: %w", err)
	}
	s.logger.Info("user logged in", "user_id", u.ID, "expires_at", sess.ExpiresAt)
	return sess, token, nil
}

// Authenticate resolves a bearer token to its user. Unknown and expired
// tokens are unauthorized; an expired session is removed on sight.
func (s *Service) Authenticate(ctx context.Context, token string) (*model.User, error) {
	if token == "" {
		return nil, model.NewUnauthorizedError("authentication required")
	}
	h := hashToken(token)
	sess, err := s.store.GetSession(ctx, h)
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}
	if sess == nil {
		return nil, model.NewUnauthorizedError("invalid token")
	}
	if sess.IsExpired(s.now()) {
		if err := s.store.DeleteSession(ctx, h); err != nil {
			s.logger.Warn("delete expired session", "user_id", sess.UserID, "error", err)
		}
		return nil, model.NewUnauthorizedError("token expired")
	}
	u, err := s.store.GetUser(ctx, sess.UserID)
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	if u == nil {
		return nil, model.NewUnauthorizedError("invalid token")
	}
	return u, nil
}

// Logout ends the session behind token.
func (s *Service) Logout(ctx context.Context, token string) error {
	if err := s.store.DeleteSession(ctx, hashToken(token)); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

// PruneSessions deletes expired sessions and returns how many went.
func (s *Service) PruneSessions(ctx context.Context) (int, error) {
	n, err := s.store.DeleteExpiredSessions(ctx, s.now())
	if err != nil {
		return 0, fmt.Errorf("prune sessions: %w", err)
	}
	if n > 0 {
		s.logger.Info("expired sessions pruned", "count", n)
	}
	return n, nil
}
