package tracker

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"golang.org/x/crypto/bcrypt"

	"github.com/me/chorewheel/pkg/model"
)

// MinPasswordLength is the shortest password accepted at registration.
const MinPasswordLength = 8

// CreateUserInput describes a new account.
type CreateUserInput struct {
	Email    string
	Name     string
	Password string
}

// UpdateUserInput holds the account fields that may change. Nil fields are
// left alone.
type UpdateUserInput struct {
	Name     *string
	Password *string
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func checkPassword(pw string) *model.FieldError {
	if utf8.RuneCountInString(pw) < MinPasswordLength {
		return &model.FieldError{Field: "password",
			Message: fmt.Sprintf("must be at least %d characters", MinPasswordLength)}
	}
	// bcrypt only reads the first 72 bytes.
	if len(pw) > 72 {
		return &model.FieldError{Field: "password", Message: "must be at most 72 bytes"}
	}
	return nil
}

func (s *Service) hashPassword(pw string) (string, error) {
	h, err := bcrypt.GenerateFromPassword([]byte(pw), s.passwordCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(h), nil
}

// CreateUser registers a user. Emails are case-insensitive and unique.
func (s *Service) CreateUser(ctx context.Context, in CreateUserInput) (*model.User, error) {
	email := normalizeEmail(in.Email)
	var details []model.FieldError
	if email == "" || !strings.Contains(email, "@") {
		details = append(details, model.FieldError{Field: "email", Message: "a valid email address is required"})
	}
	if fe := checkPassword(in.Password); fe != nil {
		details = append(details, *fe)
	}
	if len(details) > 0 {
		return nil, model.NewValidationError("Invalid user", details...)
	}

	hash, err := s.hashPassword(in.Password)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	existing, err := s.store.GetUserByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("get user by email: %w", err)
	}
	if existing != nil {
		return nil, model.NewConflictError(fmt.Sprintf("user with email '%s' already exists", email))
	}

	u := &model.User{
		ID:           model.NewID(model.PrefixUser),
		Email:        email,
		Name:         strings.TrimSpace(in.Name),
		PasswordHash: hash,
		CreatedAt:    s.now(),
	}
	if err := s.store.CreateUser(ctx, u); err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}
	s.logger.Info("user created", "user_id", u.ID)
	return u, nil
}

// UpdateUser changes a user's display name or password.
func (s *Service) UpdateUser(ctx context.Context, id string, in UpdateUserInput) (*model.User, error) {
	if in.Password != nil {
		if fe := checkPassword(*in.Password); fe != nil {
			return nil, model.NewValidationError("Invalid user update", *fe)
		}
	}
	var hash string
	if in.Password != nil {
		var err error
		if hash, err = s.hashPassword(*in.Password); err != nil {
			return nil, err
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	u, err := s.mustUser(ctx, id)
	if err != nil {
		return nil, err
	}
	if in.Name != nil {
		u.Name = strings.TrimSpace(*in.Name)
	}
	if hash != "" {
		u.PasswordHash = hash
	}
	if err := s.store.UpdateUser(ctx, u); err != nil {
		return nil, fmt.Errorf("update user: %w", err)
	}
	s.logger.Info("user updated", "user_id", u.ID, "password_changed", hash != "")
	return u, nil
}

// GetUser returns a user by id.
func (s *Service) GetUser(ctx context.Context, id string) (*model.User, error) {
	return s.mustUser(ctx, id)
}

// ListUsers returns a page of users and the total count.
func (s *Service) ListUsers(ctx context.Context, opts model.ListOptions) ([]*model.User, int, error) {
	return s.store.ListUsers(ctx, opts)
}

// verifyPassword reports whether pw matches the user's stored hash.
func verifyPassword(u *model.User, pw string) (bool, error) {
	if u.PasswordHash == "" {
		return false, nil
	}
	err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(pw))
	if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("compare password: %w", err)
	}
	return true, nil
}
