// Package client is a typed wrapper over the remarks REST API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/nasermirzaei89/remarks/accounts"
	"github.com/nasermirzaei89/remarks/discuss"
)

const DefaultTimeout = 10 * time.Second

type Client struct {
	baseURL    string
	httpClient *http.Client
}

type Option func(c *Client)

func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// WithTimeout sets the timeout on a copy of the HTTP client, leaving a
// shared client such as http.DefaultClient untouched.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		httpClient := *c.httpClient
		httpClient.Timeout = timeout
		c.httpClient = &httpClient
	}
}

func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: DefaultTimeout},
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

type CreateCommentRequest struct {
	Content    string  `json:"content"`
	Score      int     `json:"score"`
	UserID     int64   `json:"userId"`
	ParentID   *int64  `json:"parentId,omitempty"`
	ReplyingTo *string `json:"replyingTo,omitempty"`
}

// UpdateCommentRequest replaces the stored record, so nil fields clear it.
type UpdateCommentRequest struct {
	Content    string  `json:"content"`
	Score      int     `json:"score"`
	ReplyingTo *string `json:"replyingTo,omitempty"`
	ParentID   *int64  `json:"parentId,omitempty"`
}

type CreateUserRequest struct {
	Username string `json:"username"`
	Avatar   string `json:"avatar,omitempty"`
}

type UpdateUserRequest struct {
	Username string `json:"username"`
	Avatar   string `json:"avatar,omitempty"`
}

func (c *Client) ListComments(ctx context.Context) ([]discuss.Comment, error) {
	var comments []discuss.Comment

	err := c.do(ctx, http.MethodGet, "/comments", nil, &comments)
	if err != nil {
		return nil, fmt.Errorf("failed to list comments: %w", err)
	}

	return comments, nil
}

func (c *Client) CreateComment(ctx context.Context, req CreateCommentRequest) (*discuss.Comment, error) {
	var comment discuss.Comment

	err := c.do(ctx, http.MethodPost, "/comments", req, &comment)
	if err != nil {
		return nil, fmt.Errorf("failed to create comment: %w", err)
	}

	return &comment, nil
}

func (c *Client) UpdateComment(ctx context.Context, commentID int64, req UpdateCommentRequest) (*discuss.Comment, error) {
	var comment discuss.Comment

	err := c.do(ctx, http.MethodPatch, "/comments/"+strconv.FormatInt(commentID, 10), req, &comment)
	if err != nil {
		return nil, fmt.Errorf("failed to update comment: %w", err)
	}

	return &comment, nil
}

func (c *Client) DeleteComment(ctx context.Context, commentID int64) error {
	err := c.do(ctx, http.MethodDelete, "/comments/"+strconv.FormatInt(commentID, 10), nil, nil)
	if err != nil {
		return fmt.Errorf("failed to delete comment: %w", err)
	}

	return nil
}

func (c *Client) ListUsers(ctx context.Context) ([]accounts.User, error) {
	var users []accounts.User

	err := c.do(ctx, http.MethodGet, "/users", nil, &users)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}

	return users, nil
}

// GetUser looks a user up by numeric id or by username.
func (c *Client) GetUser(ctx context.Context, identifier string) (*accounts.User, error) {
	var user accounts.User

	err := c.do(ctx, http.MethodGet, "/users/"+url.PathEscape(identifier), nil, &user)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	return &user, nil
}

func (c *Client) GetUserByID(ctx context.Context, userID int64) (*accounts.User, error) {
	return c.GetUser(ctx, strconv.FormatInt(userID, 10))
}

func (c *Client) CreateUser(ctx context.Context, req CreateUserRequest) (*accounts.User, error) {
	var user accounts.User

	err := c.do(ctx, http.MethodPost, "/users", req, &user)
	if err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	return &user, nil
}

func (c *Client) UpdateUser(ctx context.Context, userID int64, req UpdateUserRequest) (*accounts.User, error) {
	var user accounts.User

	err := c.do(ctx, http.MethodPatch, "/users/"+strconv.FormatInt(userID, 10), req, &user)
	if err != nil {
		return nil, fmt.Errorf("failed to update user: %w", err)
	}

	return &user, nil
}

func (c *Client) DeleteUser(ctx context.Context, userID int64) error {
	err := c.do(ctx, http.MethodDelete, "/users/"+strconv.FormatInt(userID, 10), nil, nil)
	if err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}

	return nil
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reqBody io.Reader

	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}

		reqBody = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Accept", "application/json")

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}

	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeError(resp)
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}

	err = json.NewDecoder(resp.Body).Decode(out)
	if err != nil {
		return fmt.Errorf("failed to decode response body: %w", err)
	}

	return nil
}

func decodeError(resp *http.Response) error {
	apiErr := &Error{StatusCode: resp.StatusCode, Message: http.StatusText(resp.StatusCode)}

	var payload struct {
		Error string `json:"error"`
	}

	err := json.NewDecoder(resp.Body).Decode(&payload)
	if err == nil && payload.Error != "" {
		apiErr.Message = payload.Error
	}

	return apiErr
}
