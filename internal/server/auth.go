package server

import (
	"context"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/me/chorewheel/internal/tracker"
	"github.com/me/chorewheel/pkg/model"
)

const ctxKeyUserAuth ctxKey = "user_auth"

// UserContext holds authenticated user info for a request.
type UserContext struct {
	User  *model.User
	Token string // raw bearer token, needed to log out
}

// UserFromContext extracts the UserContext from request context.
func UserFromContext(ctx context.Context) *UserContext {
	if uc, ok := ctx.Value(ctxKeyUserAuth).(*UserContext); ok {
		return uc
	}
	return nil
}

// callerID returns the authenticated user's id, or "" outside the auth
// middleware.
func callerID(r *http.Request) string {
	if uc := UserFromContext(r.Context()); uc != nil && uc.User != nil {
		return uc.User.ID
	}
	return ""
}

// apiAuthMiddleware resolves the bearer token to a user and rejects the
// request with 401 when it cannot.
func apiAuthMiddleware(svc *tracker.Service) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			reqID := RequestIDFromContext(r.Context())

			token := extractToken(r)
			if token == "" {
				respondError(w, reqID, http.StatusUnauthorized,
					model.NewUnauthorizedError("authentication required"))
				return
			}
			user, err := svc.Authenticate(r.Context(), token)
			if err != nil {
				if apiErr, ok := model.AsAPIError(err); ok {
					respondError(w, reqID, statusFor(apiErr.Code), apiErr)
					return
				}
				respondError(w, reqID, http.StatusInternalServerError, &model.APIError{
					Code:    model.ErrInternal,
					Message: "authentication error",
				})
				return
			}

			ctx := context.WithValue(r.Context(), ctxKeyUserAuth, &UserContext{User: user, Token: token})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// extractToken reads "Authorization: Bearer <t>" or "Authorization: Token
// <t>". Returns "" if no token is found.
func extractToken(r *http.Request) string {
	auth := strings.TrimSpace(r.Header.Get("Authorization"))
	if auth == "" {
		return ""
	}
	for _, scheme := range []string{"Bearer ", "Token "} {
		if len(auth) > len(scheme) && strings.EqualFold(auth[:len(scheme)], scheme) {
			return strings.TrimSpace(auth[len(scheme):])
		}
	}
	return ""
}

// userParam reads a user id from the URL, where "me" names the caller.
func userParam(r *http.Request, name string) string {
	id := chi.URLParam(r, name)
	if id == "me" {
		return callerID(r)
	}
	return id
}

// requireSelf rejects requests whose user parameter is not the caller.
func requireSelf(param string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if userParam(r, param) != callerID(r) {
				respondError(w, RequestIDFromContext(r.Context()), http.StatusForbidden,
					model.NewForbiddenError("you may only act for yourself"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// spaceAccess admits members of the space named by the {id} parameter.
func (s *Server) spaceAccess(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := s.tracker.RequireMember(r.Context(), chi.URLParam(r, "id"), callerID(r)); err != nil {
			s.respondErr(w, RequestIDFromContext(r.Context()), err)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// choreAccess admits participants of the chore named by the {id} parameter.
func (s *Server) choreAccess(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := s.tracker.RequireParticipant(r.Context(), chi.URLParam(r, "id"), callerID(r)); err != nil {
			s.respondErr(w, RequestIDFromContext(r.Context()), err)
			return
		}
		next.ServeHTTP(w, r)
	})
}
