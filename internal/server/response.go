package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/me/chorewheel/pkg/model"
)

// requestID generates a unique request identifier.
func requestID() string {
	return "req_" + uuid.New().String()[:8]
}

// respondOK writes a success response with the standard envelope.
func respondOK(w http.ResponseWriter, reqID string, data any) {
	respondJSON(w, http.StatusOK, reqID, data, nil, nil)
}

// respondCreated writes a 201 response with the standard envelope.
func respondCreated(w http.ResponseWriter, reqID string, data any) {
	respondJSON(w, http.StatusCreated, reqID, data, nil, nil)
}

// respondList writes a success response with pagination.
func respondList(w http.ResponseWriter, reqID string, data any, pg *model.Pagination) {
	respondJSON(w, http.StatusOK, reqID, data, pg, nil)
}

// respondError writes an error response with the standard envelope.
func respondError(w http.ResponseWriter, reqID string, status int, apiErr *model.APIError) {
	respondJSON(w, status, reqID, nil, nil, apiErr)
}

// respondErr maps an error from the tracker to a status code. Errors that
// carry no APIError are reported as internal errors.
func (s *Server) respondErr(w http.ResponseWriter, reqID string, err error) {
	apiErr, ok := model.AsAPIError(err)
	if !ok {
		s.logger.Error("request failed", "request_id", reqID, "error", err)
		respondError(w, reqID, http.StatusInternalServerError,
			&model.APIError{Code: model.ErrInternal, Message: err.Error()})
		return
	}
	respondError(w, reqID, statusFor(apiErr.Code), apiErr)
}

func statusFor(code model.ErrorCode) int {
	switch code {
	case model.ErrValidation:
		return http.StatusBadRequest
	case model.ErrUnauthorized:
		return http.StatusUnauthorized
	case model.ErrForbidden:
		return http.StatusForbidden
	case model.ErrNotFound:
		return http.StatusNotFound
	case model.ErrConflict:
		return http.StatusConflict
	case model.ErrRateLimited:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

func respondJSON(w http.ResponseWriter, status int, reqID string, data any, pg *model.Pagination, apiErr *model.APIError) {
	resp := model.Response{
		RequestID:  reqID,
		Timestamp:  time.Now().UTC(),
		Data:       data,
		Pagination: pg,
		Error:      apiErr,
	}
	if apiErr != nil {
		resp.Status = "error"
	} else {
		resp.Status = "ok"
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(resp)
}

// decodeBody decodes a JSON request body into v, writing a 400 response on
// failure.
func decodeBody(w http.ResponseWriter, r *http.Request, reqID string, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		respondError(w, reqID, http.StatusBadRequest, &model.APIError{
			Code:    model.ErrValidation,
			Message: "Invalid JSON body: " + err.Error(),
		})
		return false
	}
	return true
}

// listOptions reads limit, offset and the optional filters from the query.
func listOptions(r *http.Request) model.ListOptions {
	q := r.URL.Query()
	opts := model.DefaultListOptions()
	if v, err := strconv.Atoi(q.Get("limit")); err == nil {
		opts.Limit = v
	}
	if v, err := strconv.Atoi(q.Get("offset")); err == nil {
		opts.Offset = v
	}
	opts.SpaceID = q.Get("space_id")
	opts.Clamp()
	return opts
}

// intQuery parses an integer query parameter. A missing value yields def.
func intQuery(r *http.Request, name string, def int) (int, *model.APIError) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		return 0, model.NewValidationError("Invalid query parameter",
			model.FieldError{Field: name, Message: "must be a non-negative integer"})
	}
	return v, nil
}

// daysQuery reads the calendar length. Values above the service maximum
// are rejected rather than clamped.
func (s *Server) daysQuery(r *http.Request) (int, *model.APIError) {
	days, apiErr := intQuery(r, "days", 0)
	if apiErr != nil {
		return 0, apiErr
	}
	if limit := s.tracker.MaxHorizon(); days > limit {
		return 0, model.NewValidationError("Invalid query parameter",
			model.FieldError{Field: "days", Message: fmt.Sprintf("must be at most %d", limit)})
	}
	return days, nil
}

// parseDate parses an optional YYYY-MM-DD field.
func parseDate(field, raw string) (*time.Time, *model.APIError) {
	if raw == "" {
		return nil, nil
	}
	d, err := model.ParseDay(raw)
	if err != nil {
		return nil, model.NewValidationError("Invalid date",
			model.FieldError{Field: field, Message: "expected " + model.DateFormat})
	}
	return &d, nil
}
