package server

import (
	"net/http"
	"time"

	"github.com/me/chorewheel/internal/tracker"
	"github.com/me/chorewheel/pkg/model"
)

type loginResponse struct {
	Token     string      `json:"token"`
	User      *model.User `json:"user"`
	ExpiresAt time.Time   `json:"expires_at"`
}

func (s *Server) handleCreateUser(w http.ResponseWriter, r *http.Request) {
	reqID := RequestIDFromContext(r.Context())

	var req struct {
		Email    string `json:"email"`
		Name     string `json:"name"`
		Password string `json:"password"`
	}
	if !decodeBody(w, r, reqID, &req) {
		return
	}

	u, err := s.tracker.CreateUser(r.Context(), tracker.CreateUserInput{
		Email:    req.Email,
		Name:     req.Name,
		Password: req.Password,
	})
	if err != nil {
		s.respondErr(w, reqID, err)
		return
	}
	respondCreated(w, reqID, u)
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	reqID := RequestIDFromContext(r.Context())

	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if !decodeBody(w, r, reqID, &req) {
		return
	}

	sess, token, err := s.tracker.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		s.respondErr(w, reqID, err)
		return
	}
	u, err := s.tracker.GetUser(r.Context(), sess.UserID)
	if err != nil {
		s.respondErr(w, reqID, err)
		return
	}
	respondOK(w, reqID, loginResponse{Token: token, User: u, ExpiresAt: sess.ExpiresAt})
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	reqID := RequestIDFromContext(r.Context())

	if err := s.tracker.Logout(r.Context(), UserFromContext(r.Context()).Token); err != nil {
		s.respondErr(w, reqID, err)
		return
	}
	respondOK(w, reqID, map[string]string{"status": "logged out"})
}

func (s *Server) handleListUsers(w http.ResponseWriter, r *http.Request) {
	reqID := RequestIDFromContext(r.Context())
	opts := listOptions(r)

	users, total, err := s.tracker.ListUsers(r.Context(), opts)
	if err != nil {
		s.respondErr(w, reqID, err)
		return
	}
	if users == nil {
		users = []*model.User{}
	}
	respondList(w, reqID, users, model.NewPagination(opts, len(users), total))
}

func (s *Server) handleGetUser(w http.ResponseWriter, r *http.Request) {
	reqID := RequestIDFromContext(r.Context())

	u, err := s.tracker.GetUser(r.Context(), userParam(r, "id"))
	if err != nil {
		s.respondErr(w, reqID, err)
		return
	}
	respondOK(w, reqID, u)
}

func (s *Server) handleUpdateUser(w http.ResponseWriter, r *http.Request) {
	reqID := RequestIDFromContext(r.Context())

	var req struct {
		Name     *string `json:"name"`
		Password *string `json:"password"`
	}
	if !decodeBody(w, r, reqID, &req) {
		return
	}

	u, err := s.tracker.UpdateUser(r.Context(), callerID(r), tracker.UpdateUserInput{
		Name:     req.Name,
		Password: req.Password,
	})
	if err != nil {
		s.respondErr(w, reqID, err)
		return
	}
	respondOK(w, reqID, u)
}

func (s *Server) handleUserCalendar(w http.ResponseWriter, r *http.Request) {
	reqID := RequestIDFromContext(r.Context())

	days, apiErr := s.daysQuery(r)
	if apiErr != nil {
		respondError(w, reqID, http.StatusBadRequest, apiErr)
		return
	}
	mine := r.URL.Query().Get("mine") == "true"

	occ, err := s.tracker.UserCalendar(r.Context(), callerID(r), days, mine)
	if err != nil {
		s.respondErr(w, reqID, err)
		return
	}
	if occ == nil {
		occ = []model.Occurrence{}
	}
	respondOK(w, reqID, occ)
}
