package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/me/chorewheel/pkg/model"
)

// Client is an HTTP client for the chorewheel API.
type Client struct {
	BaseURL    string
	Token      string // bearer token; empty for the open endpoints
	HTTPClient *http.Client
	Logger     *slog.Logger
}

// NewClient creates a chorewheel API client.
func NewClient(baseURL, token string, logger *slog.Logger) *Client {
	return &Client{
		BaseURL:    baseURL,
		Token:      token,
		HTTPClient: &http.Client{Timeout: 30 * time.Second},
		Logger:     logger,
	}
}

// apiResponse is the parsed envelope.
type apiResponse struct {
	Status     string            `json:"status"`
	RequestID  string            `json:"request_id"`
	Data       json.RawMessage   `json:"data"`
	Pagination *model.Pagination `json:"pagination"`
	Error      *model.APIError   `json:"error"`
}

// do performs an HTTP request and returns the parsed envelope.
func (c *Client) do(method, path string, body any) (*apiResponse, error) {
	reqURL := c.BaseURL + path

	var bodyReader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("marshal request: %w", err)
		}
		bodyReader = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, reqURL, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.Token)
	}

	c.Logger.Debug("HTTP request", "method", method, "url", reqURL)

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	c.Logger.Debug("HTTP response", "status", resp.StatusCode, "body", string(respBody))

	var apiResp apiResponse
	if err := json.Unmarshal(respBody, &apiResp); err != nil {
		return nil, fmt.Errorf("parse response (status %d): %w\nbody: %s", resp.StatusCode, err, string(respBody))
	}

	if apiResp.Status == "error" && apiResp.Error != nil {
		return &apiResp, apiResp.Error
	}

	return &apiResp, nil
}

// call performs a request and decodes the envelope's data into a T.
func call[T any](c *Client, method, path string, body any) (T, *model.Pagination, error) {
	var v T
	resp, err := c.do(method, path, body)
	if err != nil {
		return v, nil, err
	}
	if err := json.Unmarshal(resp.Data, &v); err != nil {
		return v, nil, fmt.Errorf("parse response: %w", err)
	}
	return v, resp.Pagination, nil
}

// LoginResult is a freshly issued bearer token.
type LoginResult struct {
	Token     string      `json:"token"`
	User      *model.User `json:"user"`
	ExpiresAt time.Time   `json:"expires_at"`
}

// SpaceDetail is a space together with its members.
type SpaceDetail struct {
	model.Space
	Members []model.SpaceMember `json:"members"`
}

// ChoreInput describes a chore to create.
type ChoreInput struct {
	SpaceID   string `json:"space_id"`
	Name      string `json:"name"`
	Interval  int    `json:"interval,omitempty"`
	StartDate string `json:"start_date,omitempty"`
}

// --- accounts ---

// Register creates an account.
func (c *Client) Register(email, name, password string) (*model.User, error) {
	u, _, err := call[*model.User](c, "POST", "/api/v1/users/", map[string]string{
		"email": email, "name": name, "password": password,
	})
	return u, err
}

// Login exchanges credentials for a token.
func (c *Client) Login(email, password string) (*LoginResult, error) {
	res, _, err := call[*LoginResult](c, "POST", "/api/v1/users/login", map[string]string{
		"email": email, "password": password,
	})
	return res, err
}

// Logout revokes the client's token.
func (c *Client) Logout() error {
	_, err := c.do("POST", "/api/v1/users/logout", nil)
	return err
}

// Me returns the authenticated user.
func (c *Client) Me() (*model.User, error) {
	u, _, err := call[*model.User](c, "GET", "/api/v1/users/me", nil)
	return u, err
}

// UpdateMe changes the caller's name or password. Nil fields are left alone.
func (c *Client) UpdateMe(name, password *string) (*model.User, error) {
	u, _, err := call[*model.User](c, "PUT", "/api/v1/users/me", map[string]*string{
		"name": name, "password": password,
	})
	return u, err
}

// ListUsers returns the first limit users.
func (c *Client) ListUsers(limit int) ([]model.User, *model.Pagination, error) {
	return call[[]model.User](c, "GET", "/api/v1/users/?limit="+strconv.Itoa(limit), nil)
}

// --- spaces ---

// CreateSpace creates a root space, or a sub-space when parentID is set.
func (c *Client) CreateSpace(name, parentID string) (*SpaceDetail, error) {
	sp, _, err := call[*SpaceDetail](c, "POST", "/api/v1/spaces/", map[string]string{
		"name": name, "parent_id": parentID,
	})
	return sp, err
}

// ListSpaces returns the caller's spaces.
func (c *Client) ListSpaces() ([]model.Space, *model.Pagination, error) {
	return call[[]model.Space](c, "GET", "/api/v1/spaces/?limit=100", nil)
}

// UpdateSpace renames or moves a space. Nil fields are left alone.
func (c *Client) UpdateSpace(id string, name, parentID *string) (*SpaceDetail, error) {
	sp, _, err := call[*SpaceDetail](c, "PUT", "/api/v1/spaces/"+id, map[string]*string{
		"name": name, "parent_id": parentID,
	})
	return sp, err
}

// SetSpaceAvailability marks the caller away or back in a space tree.
func (c *Client) SetSpaceAvailability(spaceID string, available bool) error {
	_, err := c.do("PUT", "/api/v1/spaces/"+spaceID+"/members/me/availability",
		map[string]bool{"available": available})
	return err
}

// --- membership requests ---

// Invite asks the user with the given email to join a space.
func (c *Client) Invite(spaceID, email string) (*model.MembershipRequest, error) {
	mr, _, err := call[*model.MembershipRequest](c, "POST", "/api/v1/requests/", map[string]string{
		"space_id": spaceID, "email": email,
	})
	return mr, err
}

// ListRequests returns requests the caller sent or received.
func (c *Client) ListRequests() ([]model.MembershipRequest, error) {
	reqs, _, err := call[[]model.MembershipRequest](c, "GET", "/api/v1/requests/", nil)
	return reqs, err
}

// RespondRequest accepts or declines an invitation.
func (c *Client) RespondRequest(id string, accept bool) (*model.MembershipRequest, error) {
	action := "decline"
	if accept {
		action = "accept"
	}
	mr, _, err := call[*model.MembershipRequest](c, "POST", "/api/v1/requests/"+id+"/"+action, nil)
	return mr, err
}

// --- chores ---

// CreateChore creates a chore in one of the caller's spaces.
func (c *Client) CreateChore(in ChoreInput) (*model.Chore, error) {
	ch, _, err := call[*model.Chore](c, "POST", "/api/v1/chores/", in)
	return ch, err
}

// ListChores returns the caller's chores, optionally limited to a space.
func (c *Client) ListChores(spaceID string) ([]model.Chore, *model.Pagination, error) {
	q := url.Values{"limit": {"100"}}
	if spaceID != "" {
		q.Set("space_id", spaceID)
	}
	return call[[]model.Chore](c, "GET", "/api/v1/chores/?"+q.Encode(), nil)
}

// GetChore returns a chore.
func (c *Client) GetChore(id string) (*model.Chore, error) {
	ch, _, err := call[*model.Chore](c, "GET", "/api/v1/chores/"+id, nil)
	return ch, err
}

// ListParticipants returns a chore's participants.
func (c *Client) ListParticipants(choreID string) ([]model.Participant, error) {
	parts, _, err := call[[]model.Participant](c, "GET", "/api/v1/chores/"+choreID+"/participants", nil)
	return parts, err
}

// CompleteChore records a turn by the caller. An empty date means today.
func (c *Client) CompleteChore(choreID, date string) (*model.Completion, error) {
	body := map[string]string{}
	if date != "" {
		body["date"] = date
	}
	comp, _, err := call[*model.Completion](c, "POST", "/api/v1/chores/"+choreID+"/complete", body)
	return comp, err
}

// SetWeight changes a participant's weight.
func (c *Client) SetWeight(choreID, userID string, weight float64) (*model.Participant, error) {
	p, _, err := call[*model.Participant](c, "PUT", "/api/v1/chores/"+choreID+"/participants/"+userID,
		map[string]float64{"weight": weight})
	return p, err
}

// SetChoreAvailability marks the caller away or back for one chore.
func (c *Client) SetChoreAvailability(choreID string, available bool) (*model.Participant, error) {
	p, _, err := call[*model.Participant](c, "PUT", "/api/v1/chores/"+choreID+"/participants/me",
		map[string]bool{"available": available})
	return p, err
}

// --- calendars ---

// ChoreCalendar projects a chore's upcoming turns. days <= 0 uses the
// server default.
func (c *Client) ChoreCalendar(choreID string, days int) ([]model.Occurrence, error) {
	occ, _, err := call[[]model.Occurrence](c, "GET", "/api/v1/chores/"+choreID+"/calendar"+daysQuery(days, false), nil)
	return occ, err
}

// MyCalendar merges the calendars of the caller's chores; with mine set
// only the caller's own turns are returned.
func (c *Client) MyCalendar(days int, mine bool) ([]model.Occurrence, error) {
	occ, _, err := call[[]model.Occurrence](c, "GET", "/api/v1/users/me/calendar"+daysQuery(days, mine), nil)
	return occ, err
}

func daysQuery(days int, mine bool) string {
	q := url.Values{}
	if days > 0 {
		q.Set("days", strconv.Itoa(days))
	}
	if mine {
		q.Set("mine", "true")
	}
	if len(q) == 0 {
		return ""
	}
	return "?" + q.Encode()
}
