// file: internal/gateway/gateway.go
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"replyhub/internal/models"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"
)

// Config holds gateway configuration.
type Config struct {
	BaseURL string
	Token   string
	Timeout time.Duration

	// Connectivity probe at startup. Mutations themselves are never
	// retried; a failed mutation is reported once and rolled back.
	MaxConnectAttempts uint64
}

// DefaultConfig returns default gateway configuration.
func DefaultConfig() *Config {
	return &Config{
		Timeout:            15 * time.Second,
		MaxConnectAttempts: 5,
	}
}

// Client is the Server Sync Gateway: a pure adapter translating coordinator
// operations into single request/response pairs against the REST
// collaborator and normalizing responses into entity shapes. No retries, no
// caching, no batching.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
	logger  *zap.Logger

	maxConnectAttempts uint64
}

// NewClient creates a gateway client.
func NewClient(cfg *Config, logger *zap.Logger) (*Client, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("gateway: base URL is required")
	}
	if _, err := url.Parse(cfg.BaseURL); err != nil {
		return nil, fmt.Errorf("gateway: invalid base URL: %w", err)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	attempts := cfg.MaxConnectAttempts
	if attempts == 0 {
		attempts = 5
	}
	return &Client{
		baseURL:            strings.TrimRight(cfg.BaseURL, "/"),
		token:              cfg.Token,
		http:               &http.Client{Timeout: timeout},
		logger:             logger,
		maxConnectAttempts: attempts,
	}, nil
}

// ===============================
// COMMENT OPERATIONS
// ===============================

// FetchComments loads the full comment collection for a post.
func (c *Client) FetchComments(ctx context.Context, postID string) ([]*models.Comment, error) {
	var out commentsEnvelope
	path := fmt.Sprintf("/posts/%s/comments", url.PathEscape(postID))
	if err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return normalizeComments(out.Comments), nil
}

// CreateComment posts a new top-level comment.
func (c *Client) CreateComment(ctx context.Context, postID, text string) (*models.Comment, error) {
	var out commentEnvelope
	path := fmt.Sprintf("/posts/%s/comment", url.PathEscape(postID))
	if err := c.do(ctx, http.MethodPost, path, createCommentRequest{Text: text}, &out); err != nil {
		return nil, err
	}
	if out.Comment == nil {
		return nil, fmt.Errorf("gateway: create comment response missing comment")
	}
	return normalizeComment(out.Comment), nil
}

// CreateReply posts a reply, already flattened onto its owning comment.
func (c *Client) CreateReply(ctx context.Context, postID, commentID, content string, taggedUser *string) (*models.Reply, error) {
	var out replyEnvelope
	path := fmt.Sprintf("/posts/%s/comment/reply", url.PathEscape(postID))
	body := createReplyRequest{CommentID: commentID, Content: content, TaggedUser: taggedUser}
	if err := c.do(ctx, http.MethodPost, path, body, &out); err != nil {
		return nil, err
	}
	if out.Reply == nil {
		return nil, fmt.Errorf("gateway: create reply response missing reply")
	}
	return normalizeReply(out.Reply), nil
}

// UpdateComment edits a comment's content and returns the server-normalized
// content.
func (c *Client) UpdateComment(ctx context.Context, postID, commentID, content string) (string, error) {
	var out commentEnvelope
	path := fmt.Sprintf("/posts/%s/comment/%s", url.PathEscape(postID), url.PathEscape(commentID))
	if err := c.do(ctx, http.MethodPut, path, editRequest{Content: content}, &out); err != nil {
		return "", err
	}
	if out.Comment == nil {
		return content, nil
	}
	return out.Comment.Content, nil
}

// UpdateReply edits a reply's content and returns the server-normalized
// content.
func (c *Client) UpdateReply(ctx context.Context, postID, commentID, replyID, content string) (string, error) {
	var out replyEnvelope
	path := fmt.Sprintf("/posts/%s/comment/%s/reply/%s",
		url.PathEscape(postID), url.PathEscape(commentID), url.PathEscape(replyID))
	if err := c.do(ctx, http.MethodPut, path, editRequest{Content: content}, &out); err != nil {
		return "", err
	}
	if out.Reply == nil {
		return content, nil
	}
	return out.Reply.Content, nil
}

// DeleteComment deletes a comment. Any 2xx counts as success, no body
// required.
func (c *Client) DeleteComment(ctx context.Context, postID, commentID string) error {
	path := fmt.Sprintf("/posts/%s/comment/%s", url.PathEscape(postID), url.PathEscape(commentID))
	return c.do(ctx, http.MethodDelete, path, nil, nil)
}

// DeleteReply deletes a reply.
func (c *Client) DeleteReply(ctx context.Context, postID, commentID, replyID string) error {
	path := fmt.Sprintf("/posts/%s/comment/%s/reply/%s",
		url.PathEscape(postID), url.PathEscape(commentID), url.PathEscape(replyID))
	return c.do(ctx, http.MethodDelete, path, nil, nil)
}

// LikeComment toggles the like in the given direction. The returned likes
// array is authoritative and replaces the locally-toggled set.
func (c *Client) LikeComment(ctx context.Context, postID, commentID string, like bool) (models.LikeSet, error) {
	var out likesEnvelope
	path := fmt.Sprintf("/posts/%s/comment/%s", url.PathEscape(postID), likeAction(like))
	if err := c.do(ctx, http.MethodPost, path, likeRequest{CommentID: commentID}, &out); err != nil {
		return nil, err
	}
	return normalizeLikes(out.Likes), nil
}

// LikeReply toggles a reply like in the given direction.
func (c *Client) LikeReply(ctx context.Context, postID, commentID, replyID string, like bool) (models.LikeSet, error) {
	var out likesEnvelope
	path := fmt.Sprintf("/posts/%s/comment/reply/%s", url.PathEscape(postID), likeAction(like))
	body := likeRequest{CommentID: commentID, ReplyID: replyID}
	if err := c.do(ctx, http.MethodPost, path, body, &out); err != nil {
		return nil, err
	}
	return normalizeLikes(out.Likes), nil
}

func likeAction(like bool) string {
	if like {
		return "like"
	}
	return "unlike"
}

// ===============================
// CONNECTIVITY
// ===============================

// Ping checks that the API is reachable.
func (c *Client) Ping(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, "/health", nil, nil)
}

// WaitForAPI pings the API with exponential backoff until it answers or the
// configured attempts run out.
func (c *Client) WaitForAPI(ctx context.Context) error {
	operation := func() error {
		return c.Ping(ctx)
	}

	b := backoff.NewExponentialBackOff()
	err := backoff.RetryNotify(
		operation,
		backoff.WithContext(backoff.WithMaxRetries(b, c.maxConnectAttempts), ctx),
		func(err error, d time.Duration) {
			c.logger.Warn("API not reachable yet",
				zap.Error(err),
				zap.Duration("backoff", d))
		},
	)
	if err != nil {
		return fmt.Errorf("API unreachable after %d attempts: %w", c.maxConnectAttempts, err)
	}
	return nil
}

// ===============================
// TRANSPORT
// ===============================

// do issues one authenticated request and decodes a 2xx JSON response into
// out (when out is non-nil). Non-2xx responses become *APIError.
func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("gateway: encode request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("gateway: build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("gateway: %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	c.logger.Debug("Request completed",
		zap.String("method", method),
		zap.String("path", path),
		zap.Int("status", resp.StatusCode),
		zap.Duration("duration", time.Since(start)),
	)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return newAPIError(resp)
	}

	if out == nil {
		io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("gateway: decode response: %w", err)
	}
	return nil
}
