// file: internal/gateway/gateway_test.go
package gateway

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"replyhub/internal/models"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// recordedRequest captures what the client actually sent.
type recordedRequest struct {
	Method string
	Path   string
	Auth   string
	Body   map[string]interface{}
}

// newTestServer runs a stub REST collaborator that records the last request
// and answers with the configured status and payload.
func newTestServer(t *testing.T, status int, payload interface{}) (*Client, *recordedRequest) {
	t.Helper()

	rec := &recordedRequest{}
	capture := func(w http.ResponseWriter, r *http.Request) {
		rec.Method = r.Method
		rec.Path = r.URL.Path
		rec.Auth = r.Header.Get("Authorization")
		rec.Body = nil
		if r.Body != nil {
			var body map[string]interface{}
			if err := json.NewDecoder(r.Body).Decode(&body); err == nil {
				rec.Body = body
			}
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		if payload != nil {
			_ = json.NewEncoder(w).Encode(payload)
		}
	}

	r := chi.NewRouter()
	r.HandleFunc("/*", capture)
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)

	client, err := NewClient(&Config{
		BaseURL: srv.URL,
		Token:   "test-token",
		Timeout: 2 * time.Second,
	}, zap.NewNop())
	require.NoError(t, err)
	return client, rec
}

func TestClient_CreateComment(t *testing.T) {
	client, rec := newTestServer(t, http.StatusCreated, map[string]interface{}{
		"comment": map[string]interface{}{
			"id":         "c1",
			"author":     map[string]interface{}{"id": "u1", "username": "alice"},
			"content":    "hello",
			"created_at": "2025-06-01T12:00:00Z",
			"likes":      []string{},
			"replies":    []interface{}{},
		},
	})

	comment, err := client.CreateComment(context.Background(), "p1", "hello")
	require.NoError(t, err)

	assert.Equal(t, http.MethodPost, rec.Method)
	assert.Equal(t, "/posts/p1/comment", rec.Path)
	assert.Equal(t, "Bearer test-token", rec.Auth)
	assert.Equal(t, "hello", rec.Body["text"])

	assert.Equal(t, "c1", comment.ID)
	assert.Equal(t, "alice", comment.Author.Username)
	assert.Equal(t, models.LikeSet{}, comment.Likes)
	assert.NotNil(t, comment.Replies)
}

func TestClient_CreateReply(t *testing.T) {
	client, rec := newTestServer(t, http.StatusCreated, map[string]interface{}{
		"reply": map[string]interface{}{
			"id":          "r1",
			"author":      map[string]interface{}{"id": "u1", "username": "alice"},
			"content":     "disagree",
			"created_at":  "2025-06-01T12:00:00Z",
			"likes":       []string{},
			"tagged_user": "Bob",
		},
	})

	tagged := "Bob"
	reply, err := client.CreateReply(context.Background(), "p1", "c1", "disagree", &tagged)
	require.NoError(t, err)

	assert.Equal(t, http.MethodPost, rec.Method)
	assert.Equal(t, "/posts/p1/comment/reply", rec.Path)
	assert.Equal(t, "c1", rec.Body["commentId"])
	assert.Equal(t, "disagree", rec.Body["content"])
	assert.Equal(t, "Bob", rec.Body["taggedUser"])

	assert.Equal(t, "r1", reply.ID)
	require.NotNil(t, reply.TaggedUser)
	assert.Equal(t, "Bob", *reply.TaggedUser)
}

func TestClient_CreateReply_OmitsTaggedUserWhenUnset(t *testing.T) {
	client, rec := newTestServer(t, http.StatusCreated, map[string]interface{}{
		"reply": map[string]interface{}{"id": "r1", "content": "hi"},
	})

	_, err := client.CreateReply(context.Background(), "p1", "c1", "hi", nil)
	require.NoError(t, err)

	_, present := rec.Body["taggedUser"]
	assert.False(t, present)
}

func TestClient_UpdateComment(t *testing.T) {
	client, rec := newTestServer(t, http.StatusOK, map[string]interface{}{
		"comment": map[string]interface{}{"id": "c1", "content": "normalized text"},
	})

	content, err := client.UpdateComment(context.Background(), "p1", "c1", "raw text")
	require.NoError(t, err)

	assert.Equal(t, http.MethodPut, rec.Method)
	assert.Equal(t, "/posts/p1/comment/c1", rec.Path)
	assert.Equal(t, "raw text", rec.Body["content"])
	assert.Equal(t, "normalized text", content)
}

func TestClient_UpdateComment_EmptyResponseKeepsLocalContent(t *testing.T) {
	client, _ := newTestServer(t, http.StatusOK, map[string]interface{}{})

	content, err := client.UpdateComment(context.Background(), "p1", "c1", "local text")
	require.NoError(t, err)
	assert.Equal(t, "local text", content)
}

func TestClient_UpdateReply(t *testing.T) {
	client, rec := newTestServer(t, http.StatusOK, map[string]interface{}{
		"reply": map[string]interface{}{"id": "r1", "content": "normalized"},
	})

	content, err := client.UpdateReply(context.Background(), "p1", "c1", "r1", "raw")
	require.NoError(t, err)

	assert.Equal(t, http.MethodPut, rec.Method)
	assert.Equal(t, "/posts/p1/comment/c1/reply/r1", rec.Path)
	assert.Equal(t, "normalized", content)
}

func TestClient_DeleteComment(t *testing.T) {
	client, rec := newTestServer(t, http.StatusNoContent, nil)

	require.NoError(t, client.DeleteComment(context.Background(), "p1", "c1"))
	assert.Equal(t, http.MethodDelete, rec.Method)
	assert.Equal(t, "/posts/p1/comment/c1", rec.Path)
}

func TestClient_DeleteReply(t *testing.T) {
	client, rec := newTestServer(t, http.StatusNoContent, nil)

	require.NoError(t, client.DeleteReply(context.Background(), "p1", "c1", "r1"))
	assert.Equal(t, http.MethodDelete, rec.Method)
	assert.Equal(t, "/posts/p1/comment/c1/reply/r1", rec.Path)
}

func TestClient_LikeComment(t *testing.T) {
	client, rec := newTestServer(t, http.StatusOK, map[string]interface{}{
		"likes": []string{"u1", "u2"},
	})

	likes, err := client.LikeComment(context.Background(), "p1", "c1", true)
	require.NoError(t, err)

	assert.Equal(t, http.MethodPost, rec.Method)
	assert.Equal(t, "/posts/p1/comment/like", rec.Path)
	assert.Equal(t, "c1", rec.Body["commentId"])
	assert.Equal(t, models.LikeSet{"u1", "u2"}, likes)
}

func TestClient_UnlikeComment(t *testing.T) {
	client, rec := newTestServer(t, http.StatusOK, map[string]interface{}{
		"likes": []string{},
	})

	likes, err := client.LikeComment(context.Background(), "p1", "c1", false)
	require.NoError(t, err)
	assert.Equal(t, "/posts/p1/comment/unlike", rec.Path)
	assert.Empty(t, likes)
}

func TestClient_LikeReply(t *testing.T) {
	client, rec := newTestServer(t, http.StatusOK, map[string]interface{}{
		"likes": []string{"u1"},
	})

	likes, err := client.LikeReply(context.Background(), "p1", "c1", "r1", true)
	require.NoError(t, err)

	assert.Equal(t, "/posts/p1/comment/reply/like", rec.Path)
	assert.Equal(t, "c1", rec.Body["commentId"])
	assert.Equal(t, "r1", rec.Body["replyId"])
	assert.Equal(t, models.LikeSet{"u1"}, likes)
}

func TestClient_FetchComments(t *testing.T) {
	client, rec := newTestServer(t, http.StatusOK, map[string]interface{}{
		"comments": []interface{}{
			map[string]interface{}{
				"id":      "c1",
				"author":  map[string]interface{}{"id": "u1", "username": "alice"},
				"content": "hello",
				// Unix millisecond timestamps are accepted too.
				"created_at": 1748779200000,
				"likes":      []string{"u1", "u1", "u2"},
				"replies": []interface{}{
					map[string]interface{}{
						"id":      "r1",
						"author":  map[string]interface{}{"id": "u2", "username": "bob"},
						"content": "hey",
						"likes":   nil,
					},
				},
			},
		},
	})

	comments, err := client.FetchComments(context.Background(), "p1")
	require.NoError(t, err)

	assert.Equal(t, http.MethodGet, rec.Method)
	assert.Equal(t, "/posts/p1/comments", rec.Path)

	require.Len(t, comments, 1)
	c := comments[0]
	assert.Equal(t, "c1", c.ID)
	assert.False(t, c.CreatedAt.IsZero())
	// Duplicate like entries are collapsed.
	assert.Equal(t, models.LikeSet{"u1", "u2"}, c.Likes)
	require.Len(t, c.Replies, 1)
	assert.Equal(t, "r1", c.Replies[0].ID)
	assert.Equal(t, models.LikeSet{}, c.Replies[0].Likes)
}

func TestClient_ErrorResponses(t *testing.T) {
	t.Run("decodes error payload", func(t *testing.T) {
		client, _ := newTestServer(t, http.StatusNotFound, map[string]interface{}{
			"error": "comment not found",
		})

		_, err := client.CreateComment(context.Background(), "p1", "hi")
		require.Error(t, err)

		var apiErr *APIError
		require.ErrorAs(t, err, &apiErr)
		assert.Equal(t, http.StatusNotFound, apiErr.StatusCode)
		assert.Equal(t, "comment not found", apiErr.Message)
		assert.True(t, apiErr.IsNotFound())
	})

	t.Run("decodes message payload", func(t *testing.T) {
		client, _ := newTestServer(t, http.StatusUnprocessableEntity, map[string]interface{}{
			"message": "content too long",
		})

		err := client.DeleteComment(context.Background(), "p1", "c1")
		var apiErr *APIError
		require.ErrorAs(t, err, &apiErr)
		assert.Equal(t, "content too long", apiErr.Message)
		assert.False(t, apiErr.IsNotFound())
	})

	t.Run("empty body falls back to status", func(t *testing.T) {
		client, _ := newTestServer(t, http.StatusInternalServerError, nil)

		err := client.Ping(context.Background())
		var apiErr *APIError
		require.ErrorAs(t, err, &apiErr)
		assert.Equal(t, http.StatusInternalServerError, apiErr.StatusCode)
		assert.NotEmpty(t, apiErr.Message)
	})
}

func TestClient_PathEscaping(t *testing.T) {
	client, rec := newTestServer(t, http.StatusNoContent, nil)

	require.NoError(t, client.DeleteComment(context.Background(), "p1", "weird id"))
	assert.Equal(t, "/posts/p1/comment/weird id", rec.Path)
}

func TestClient_Ping(t *testing.T) {
	client, rec := newTestServer(t, http.StatusOK, map[string]interface{}{"status": "ok"})

	require.NoError(t, client.Ping(context.Background()))
	assert.Equal(t, "/health", rec.Path)
}

func TestNewClient_Validation(t *testing.T) {
	_, err := NewClient(&Config{}, zap.NewNop())
	require.Error(t, err)

	client, err := NewClient(&Config{BaseURL: "http://localhost:9999/"}, zap.NewNop())
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:9999", client.baseURL)
}
