package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/me/chorewheel/internal/tracker"
	"github.com/me/chorewheel/pkg/model"
)

func (s *Server) handleCreateRequest(w http.ResponseWriter, r *http.Request) {
	reqID := RequestIDFromContext(r.Context())

	var req struct {
		SpaceID string `json:"space_id"`
		Email   string `json:"email"`
	}
	if !decodeBody(w, r, reqID, &req) {
		return
	}
	var details []model.FieldError
	if req.SpaceID == "" {
		details = append(details, model.FieldError{Field: "space_id", Message: "space_id is required"})
	}
	if req.Email == "" {
		details = append(details, model.FieldError{Field: "email", Message: "email is required"})
	}
	if len(details) > 0 {
		respondError(w, reqID, http.StatusBadRequest,
			model.NewValidationError("missing required field", details...))
		return
	}

	mr, err := s.tracker.RequestMembership(r.Context(), tracker.RequestMembershipInput{
		SpaceID:    req.SpaceID,
		FromUserID: callerID(r),
		ToEmail:    req.Email,
	})
	if err != nil {
		s.respondErr(w, reqID, err)
		return
	}
	respondCreated(w, reqID, mr)
}

func (s *Server) handleListRequests(w http.ResponseWriter, r *http.Request) {
	reqID := RequestIDFromContext(r.Context())

	reqs, err := s.tracker.ListRequests(r.Context(), callerID(r))
	if err != nil {
		s.respondErr(w, reqID, err)
		return
	}
	if reqs == nil {
		reqs = []*model.MembershipRequest{}
	}
	respondOK(w, reqID, reqs)
}

func (s *Server) handleAcceptRequest(w http.ResponseWriter, r *http.Request) {
	s.respondRequest(w, r, true)
}

func (s *Server) handleDeclineRequest(w http.ResponseWriter, r *http.Request) {
	s.respondRequest(w, r, false)
}

func (s *Server) respondRequest(w http.ResponseWriter, r *http.Request, accept bool) {
	reqID := RequestIDFromContext(r.Context())

	mr, err := s.tracker.RespondRequest(r.Context(), chi.URLParam(r, "id"), callerID(r), accept)
	if err != nil {
		s.respondErr(w, reqID, err)
		return
	}
	respondOK(w, reqID, mr)
}
