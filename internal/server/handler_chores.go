package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/me/chorewheel/internal/tracker"
	"github.com/me/chorewheel/pkg/model"
)

func (s *Server) handleCreateChore(w http.ResponseWriter, r *http.Request) {
	reqID := RequestIDFromContext(r.Context())

	var req struct {
		SpaceID   string `json:"space_id"`
		Name      string `json:"name"`
		Interval  int    `json:"interval"`
		StartDate string `json:"start_date"`
	}
	if !decodeBody(w, r, reqID, &req) {
		return
	}
	if req.SpaceID == "" {
		respondError(w, reqID, http.StatusBadRequest,
			model.NewValidationError("missing required field",
				model.FieldError{Field: "space_id", Message: "space_id is required"}))
		return
	}
	start, apiErr := parseDate("start_date", req.StartDate)
	if apiErr != nil {
		respondError(w, reqID, http.StatusBadRequest, apiErr)
		return
	}
	if err := s.tracker.RequireMember(r.Context(), req.SpaceID, callerID(r)); err != nil {
		s.respondErr(w, reqID, err)
		return
	}

	c, err := s.tracker.CreateChore(r.Context(), tracker.CreateChoreInput{
		SpaceID:   req.SpaceID,
		Name:      req.Name,
		Interval:  req.Interval,
		StartDate: start,
	})
	if err != nil {
		s.respondErr(w, reqID, err)
		return
	}
	respondCreated(w, reqID, c)
}

func (s *Server) handleListChores(w http.ResponseWriter, r *http.Request) {
	reqID := RequestIDFromContext(r.Context())
	opts := listOptions(r)
	opts.UserID = callerID(r)

	chores, total, err := s.tracker.ListChores(r.Context(), opts)
	if err != nil {
		s.respondErr(w, reqID, err)
		return
	}
	if chores == nil {
		chores = []*model.Chore{}
	}
	respondList(w, reqID, chores, model.NewPagination(opts, len(chores), total))
}

func (s *Server) handleGetChore(w http.ResponseWriter, r *http.Request) {
	reqID := RequestIDFromContext(r.Context())

	c, err := s.tracker.GetChore(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.respondErr(w, reqID, err)
		return
	}
	respondOK(w, reqID, c)
}

func (s *Server) handleUpdateChore(w http.ResponseWriter, r *http.Request) {
	reqID := RequestIDFromContext(r.Context())

	var req struct {
		Name     *string `json:"name"`
		Interval *int    `json:"interval"`
	}
	if !decodeBody(w, r, reqID, &req) {
		return
	}

	c, err := s.tracker.UpdateChore(r.Context(), chi.URLParam(r, "id"), tracker.UpdateChoreInput{
		Name:     req.Name,
		Interval: req.Interval,
	})
	if err != nil {
		s.respondErr(w, reqID, err)
		return
	}
	respondOK(w, reqID, c)
}

func (s *Server) handleCompleteChore(w http.ResponseWriter, r *http.Request) {
	reqID := RequestIDFromContext(r.Context())

	var req struct {
		Date string `json:"date"`
	}
	if r.ContentLength != 0 && !decodeBody(w, r, reqID, &req) {
		return
	}
	on, apiErr := parseDate("date", req.Date)
	if apiErr != nil {
		respondError(w, reqID, http.StatusBadRequest, apiErr)
		return
	}

	comp, err := s.tracker.CompleteChore(r.Context(), chi.URLParam(r, "id"), callerID(r), on)
	if err != nil {
		s.respondErr(w, reqID, err)
		return
	}
	respondCreated(w, reqID, comp)
}

func (s *Server) handleListParticipants(w http.ResponseWriter, r *http.Request) {
	reqID := RequestIDFromContext(r.Context())

	parts, err := s.tracker.ListParticipants(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.respondErr(w, reqID, err)
		return
	}
	if parts == nil {
		parts = []*model.Participant{}
	}
	respondOK(w, reqID, parts)
}

func (s *Server) handleUpdateParticipant(w http.ResponseWriter, r *http.Request) {
	reqID := RequestIDFromContext(r.Context())

	var req struct {
		Weight    *float64 `json:"weight"`
		Available *bool    `json:"available"`
	}
	if !decodeBody(w, r, reqID, &req) {
		return
	}
	if req.Weight == nil && req.Available == nil {
		respondError(w, reqID, http.StatusBadRequest,
			model.NewValidationError("nothing to update",
				model.FieldError{Message: "weight or available is required"}))
		return
	}

	choreID, userID := chi.URLParam(r, "id"), userParam(r, "uid")
	// Any participant may tune weights; availability is the user's own call.
	if req.Available != nil && userID != callerID(r) {
		respondError(w, reqID, http.StatusForbidden,
			model.NewForbiddenError("you may only change your own availability"))
		return
	}
	var (
		p   *model.Participant
		err error
	)
	if req.Weight != nil {
		if p, err = s.tracker.SetWeight(r.Context(), choreID, userID, *req.Weight); err != nil {
			s.respondErr(w, reqID, err)
			return
		}
	}
	if req.Available != nil {
		if p, err = s.tracker.SetChoreAvailability(r.Context(), choreID, userID, *req.Available); err != nil {
			s.respondErr(w, reqID, err)
			return
		}
	}
	respondOK(w, reqID, p)
}

func (s *Server) handleChoreCalendar(w http.ResponseWriter, r *http.Request) {
	reqID := RequestIDFromContext(r.Context())

	days, apiErr := s.daysQuery(r)
	if apiErr != nil {
		respondError(w, reqID, http.StatusBadRequest, apiErr)
		return
	}

	occ, err := s.tracker.ChoreCalendar(r.Context(), chi.URLParam(r, "id"), days)
	if err != nil {
		s.respondErr(w, reqID, err)
		return
	}
	respondOK(w, reqID, occ)
}

func (s *Server) handleListCompletions(w http.ResponseWriter, r *http.Request) {
	reqID := RequestIDFromContext(r.Context())

	limit, apiErr := intQuery(r, "limit", 20)
	if apiErr != nil {
		respondError(w, reqID, http.StatusBadRequest, apiErr)
		return
	}

	comps, err := s.tracker.ListCompletions(r.Context(), chi.URLParam(r, "id"), limit)
	if err != nil {
		s.respondErr(w, reqID, err)
		return
	}
	if comps == nil {
		comps = []*model.Completion{}
	}
	respondOK(w, reqID, comps)
}
