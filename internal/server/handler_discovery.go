package server

import "net/http"

type endpointInfo struct {
	Path        string   `json:"path"`
	Methods     []string `json:"methods"`
	Description string   `json:"description"`
}

type discoveryResponse struct {
	Name        string         `json:"name"`
	Version     string         `json:"version"`
	Description string         `json:"description"`
	Endpoints   []endpointInfo `json:"endpoints"`
}

func (s *Server) handleDiscovery(w http.ResponseWriter, r *http.Request) {
	reqID := RequestIDFromContext(r.Context())
	respondOK(w, reqID, discoveryResponse{
		Name:        "chorewheel API",
		Version:     "v1",
		Description: "Fair rotation of shared chores between the members of a space",
		Endpoints: []endpointInfo{
			{"/api/v1/users", []string{"GET", "POST"}, "List users, or register with email, name and password"},
			{"/api/v1/users/login", []string{"POST"}, "Exchange email and password for a bearer token"},
			{"/api/v1/users/logout", []string{"POST"}, "Revoke the current token"},
			{"/api/v1/users/{id}", []string{"GET", "PUT"}, "Single User; \"me\" names the caller. PUT changes your name or password"},
			{"/api/v1/users/me/calendar", []string{"GET"}, "Your upcoming turns across your chores. ?days=N&mine=true"},
			{"/api/v1/spaces", []string{"GET", "POST"}, "Your spaces"},
			{"/api/v1/spaces/{id}", []string{"GET", "PUT"}, "Single Space with members. PUT renames or moves it"},
			{"/api/v1/spaces/{id}/members/me/availability", []string{"PUT"}, "Mark yourself away or back"},
			{"/api/v1/requests", []string{"GET", "POST"}, "Membership requests you sent or received"},
			{"/api/v1/requests/{id}/accept", []string{"POST"}, "Join the space you were invited to"},
			{"/api/v1/requests/{id}/decline", []string{"POST"}, "Turn down an invitation"},
			{"/api/v1/chores", []string{"GET", "POST"}, "Your chores. ?space_id= filter"},
			{"/api/v1/chores/{id}", []string{"GET", "PUT"}, "Single Chore"},
			{"/api/v1/chores/{id}/complete", []string{"POST"}, "Record a turn you finished"},
			{"/api/v1/chores/{id}/participants", []string{"GET"}, "Participants with their fairness counters"},
			{"/api/v1/chores/{id}/participants/{uid}", []string{"PUT"}, "Change a weight, or your own availability"},
			{"/api/v1/chores/{id}/calendar", []string{"GET"}, "Projected upcoming turns. ?days=N"},
			{"/api/v1/chores/{id}/completions", []string{"GET"}, "Recent completions"},
			{"/api/v1/health", []string{"GET"}, "Server health and version"},
		},
	})
}
