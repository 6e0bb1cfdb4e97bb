package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/me/chorewheel/internal/tracker"
	"github.com/me/chorewheel/pkg/model"
)

type spaceDetail struct {
	*model.Space
	Members []*model.SpaceMember `json:"members"`
}

func (s *Server) handleCreateSpace(w http.ResponseWriter, r *http.Request) {
	reqID := RequestIDFromContext(r.Context())

	var req struct {
		Name     string `json:"name"`
		ParentID string `json:"parent_id"`
	}
	if !decodeBody(w, r, reqID, &req) {
		return
	}

	// Only members of the parent may add a sub-space; anyone may found a
	// root space and becomes its first member.
	in := tracker.CreateSpaceInput{Name: req.Name, ParentID: req.ParentID}
	if req.ParentID == "" {
		in.CreatorID = callerID(r)
	} else if err := s.tracker.RequireMember(r.Context(), req.ParentID, callerID(r)); err != nil {
		s.respondErr(w, reqID, err)
		return
	}

	sp, err := s.tracker.CreateSpace(r.Context(), in)
	if err != nil {
		s.respondErr(w, reqID, err)
		return
	}
	s.respondSpace(w, r, reqID, sp, http.StatusCreated)
}

func (s *Server) handleListSpaces(w http.ResponseWriter, r *http.Request) {
	reqID := RequestIDFromContext(r.Context())
	opts := listOptions(r)
	opts.UserID = callerID(r)

	spaces, total, err := s.tracker.ListSpaces(r.Context(), opts)
	if err != nil {
		s.respondErr(w, reqID, err)
		return
	}
	if spaces == nil {
		spaces = []*model.Space{}
	}
	respondList(w, reqID, spaces, model.NewPagination(opts, len(spaces), total))
}

func (s *Server) handleGetSpace(w http.ResponseWriter, r *http.Request) {
	reqID := RequestIDFromContext(r.Context())

	sp, err := s.tracker.GetSpace(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.respondErr(w, reqID, err)
		return
	}
	s.respondSpace(w, r, reqID, sp, http.StatusOK)
}

func (s *Server) respondSpace(w http.ResponseWriter, r *http.Request, reqID string, sp *model.Space, status int) {
	members, err := s.tracker.ListMembers(r.Context(), sp.ID)
	if err != nil {
		s.respondErr(w, reqID, err)
		return
	}
	if members == nil {
		members = []*model.SpaceMember{}
	}
	respondJSON(w, status, reqID, spaceDetail{Space: sp, Members: members}, nil, nil)
}

func (s *Server) handleUpdateSpace(w http.ResponseWriter, r *http.Request) {
	reqID := RequestIDFromContext(r.Context())

	var req struct {
		Name     *string `json:"name"`
		ParentID *string `json:"parent_id"`
	}
	if !decodeBody(w, r, reqID, &req) {
		return
	}
	if req.ParentID != nil && *req.ParentID != "" {
		if err := s.tracker.RequireMember(r.Context(), *req.ParentID, callerID(r)); err != nil {
			s.respondErr(w, reqID, err)
			return
		}
	}

	sp, err := s.tracker.UpdateSpace(r.Context(), chi.URLParam(r, "id"), tracker.UpdateSpaceInput{
		Name:     req.Name,
		ParentID: req.ParentID,
	})
	if err != nil {
		s.respondErr(w, reqID, err)
		return
	}
	s.respondSpace(w, r, reqID, sp, http.StatusOK)
}

func (s *Server) handleSpaceAvailability(w http.ResponseWriter, r *http.Request) {
	reqID := RequestIDFromContext(r.Context())

	var req struct {
		Available *bool `json:"available"`
	}
	if !decodeBody(w, r, reqID, &req) {
		return
	}
	if req.Available == nil {
		respondError(w, reqID, http.StatusBadRequest,
			model.NewValidationError("missing required field",
				model.FieldError{Field: "available", Message: "available is required"}))
		return
	}

	spaceID, userID := chi.URLParam(r, "id"), callerID(r)
	if err := s.tracker.SetSpaceAvailability(r.Context(), spaceID, userID, *req.Available); err != nil {
		s.respondErr(w, reqID, err)
		return
	}
	respondOK(w, reqID, map[string]any{
		"space_id":  spaceID,
		"user_id":   userID,
		"available": *req.Available,
	})
}
