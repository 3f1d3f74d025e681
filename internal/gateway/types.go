// file: internal/gateway/types.go
package gateway

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"replyhub/internal/models"
)

// ===============================
// ERRORS
// ===============================

// APIError is any non-2xx response from the REST collaborator.
type APIError struct {
	StatusCode int    `json:"status_code"`
	Message    string `json:"message"`
}

// Error implements the error interface
func (e *APIError) Error() string {
	return fmt.Sprintf("api error %d: %s", e.StatusCode, e.Message)
}

// IsNotFound reports a 404, e.g. editing a reply the server no longer has.
func (e *APIError) IsNotFound() bool {
	return e.StatusCode == http.StatusNotFound
}

func newAPIError(resp *http.Response) *APIError {
	apiErr := &APIError{StatusCode: resp.StatusCode, Message: resp.Status}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err != nil || len(body) == 0 {
		return apiErr
	}

	var payload struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if json.Unmarshal(body, &payload) == nil {
		if payload.Error != "" {
			apiErr.Message = payload.Error
		} else if payload.Message != "" {
			apiErr.Message = payload.Message
		}
	}
	return apiErr
}

// ===============================
// WIRE SHAPES
// ===============================

type createCommentRequest struct {
	Text string `json:"text"`
}

type createReplyRequest struct {
	CommentID  string  `json:"commentId"`
	Content    string  `json:"content"`
	TaggedUser *string `json:"taggedUser,omitempty"`
}

type editRequest struct {
	Content string `json:"content"`
}

type likeRequest struct {
	CommentID string `json:"commentId"`
	ReplyID   string `json:"replyId,omitempty"`
}

type commentEnvelope struct {
	Comment *wireComment `json:"comment"`
}

type commentsEnvelope struct {
	Comments []*wireComment `json:"comments"`
}

type replyEnvelope struct {
	Reply *wireReply `json:"reply"`
}

type likesEnvelope struct {
	Likes []string `json:"likes"`
}

type wireUser struct {
	ID          string  `json:"id"`
	Username    string  `json:"username"`
	DisplayName string  `json:"display_name"`
	AvatarURL   *string `json:"avatar_url,omitempty"`
	ProfileURL  *string `json:"profile_url,omitempty"`
}

type wireComment struct {
	ID        string       `json:"id"`
	Author    wireUser     `json:"author"`
	Content   string       `json:"content"`
	CreatedAt jsonTime     `json:"created_at"`
	Likes     []string     `json:"likes"`
	Replies   []*wireReply `json:"replies"`
}

type wireReply struct {
	ID         string   `json:"id"`
	Author     wireUser `json:"author"`
	Content    string   `json:"content"`
	CreatedAt  jsonTime `json:"created_at"`
	Likes      []string `json:"likes"`
	TaggedUser *string  `json:"tagged_user,omitempty"`
}

// ===============================
// NORMALIZATION
// ===============================

func normalizeUser(u wireUser) models.UserSummary {
	return models.UserSummary{
		ID:          u.ID,
		Username:    u.Username,
		DisplayName: u.DisplayName,
		AvatarURL:   u.AvatarURL,
		ProfileURL:  u.ProfileURL,
	}
}

func normalizeLikes(likes []string) models.LikeSet {
	out := make(models.LikeSet, 0, len(likes))
	for _, id := range likes {
		if !out.Has(id) {
			out = append(out, id)
		}
	}
	return out
}

func normalizeReply(w *wireReply) *models.Reply {
	return &models.Reply{
		ID:         w.ID,
		Author:     normalizeUser(w.Author),
		Content:    w.Content,
		CreatedAt:  w.CreatedAt.Time,
		Likes:      normalizeLikes(w.Likes),
		TaggedUser: w.TaggedUser,
	}
}

func normalizeComment(w *wireComment) *models.Comment {
	replies := make([]*models.Reply, 0, len(w.Replies))
	for _, r := range w.Replies {
		replies = append(replies, normalizeReply(r))
	}
	return &models.Comment{
		ID:        w.ID,
		Author:    normalizeUser(w.Author),
		Content:   w.Content,
		CreatedAt: w.CreatedAt.Time,
		Likes:     normalizeLikes(w.Likes),
		Replies:   replies,
	}
}

func normalizeComments(ws []*wireComment) []*models.Comment {
	out := make([]*models.Comment, 0, len(ws))
	for _, w := range ws {
		out = append(out, normalizeComment(w))
	}
	return out
}
