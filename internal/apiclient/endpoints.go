package apiclient

import (
	"context"
	"net/url"
	"strings"

	"elearning_go/internal/domain"
)

// SearchUsers queries GET /users/search/. An empty query returns no results
// without a round trip.
func (c *Client) SearchUsers(ctx context.Context, query string, role domain.Role) ([]domain.UserSummary, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, nil
	}
	q := url.Values{}
	q.Set("q", query)
	if role != "" {
		q.Set("role", role.Param())
	}
	var resp domain.SearchResponse
	if err := c.get(ctx, "/users/search/", q, &resp); err != nil {
		return nil, err
	}
	return resp.Results, nil
}

// GetProfile fetches GET /api/users/<username>/?format=json.
func (c *Client) GetProfile(ctx context.Context, username string) (*domain.Profile, error) {
	q := url.Values{}
	q.Set("format", "json")
	var p domain.Profile
	if err := c.get(ctx, "/api/users/"+url.PathEscape(username)+"/", q, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// LegacyProfile fetches GET /accounts/profile/<user_id>/.
func (c *Client) LegacyProfile(ctx context.Context, userID domain.ID) (*domain.LegacyProfile, error) {
	var p domain.LegacyProfile
	if err := c.get(ctx, "/accounts/profile/"+userID.String()+"/", nil, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// ListConversations fetches GET /chat/conversations/.
func (c *Client) ListConversations(ctx context.Context) ([]domain.ConversationSummary, error) {
	var resp domain.ConversationsResponse
	if err := c.get(ctx, "/chat/conversations/", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Conversations, nil
}

// History fetches GET /chat/history/<conversation_id>/.
func (c *Client) History(ctx context.Context, conversationID domain.ID) ([]domain.Message, error) {
	var resp domain.HistoryResponse
	if err := c.get(ctx, "/chat/history/"+conversationID.String()+"/", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Messages, nil
}

// StartConversation fetches GET /chat/start/<user_id>/ and returns the id of
// the existing or newly created direct conversation.
func (c *Client) StartConversation(ctx context.Context, userID domain.ID) (domain.ID, error) {
	var resp domain.StartResponse
	if err := c.get(ctx, "/chat/start/"+userID.String()+"/", nil, &resp); err != nil {
		return 0, err
	}
	return resp.ConversationID, nil
}

// SendMessage posts a message over HTTP for callers without an inbox socket.
func (c *Client) SendMessage(ctx context.Context, conversationID domain.ID, text string) (*domain.InboxFrame, error) {
	if strings.TrimSpace(text) == "" {
		return nil, domain.ErrEmptyMessage
	}
	var f domain.InboxFrame
	if err := c.post(ctx, "/chat/send/"+conversationID.String()+"/", domain.LegacySendFrame{Message: text}, &f); err != nil {
		return nil, err
	}
	return &f, nil
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Login exchanges credentials for a bearer token and starts using it.
func (c *Client) Login(ctx context.Context, username, password string) (*domain.AuthToken, error) {
	var tok domain.AuthToken
	if err := c.post(ctx, "/api/auth/login", loginRequest{Username: username, Password: password}, &tok); err != nil {
		return nil, err
	}
	c.SetToken(tok.AccessToken)
	return &tok, nil
}
