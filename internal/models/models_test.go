package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLikeSet_Toggle(t *testing.T) {
	t.Run("absent id is added", func(t *testing.T) {
		likes := LikeSet{"u1"}
		toggled, liked := likes.Toggle("u2")
		assert.True(t, liked)
		assert.Equal(t, LikeSet{"u1", "u2"}, toggled)
	})

	t.Run("present id is removed", func(t *testing.T) {
		likes := LikeSet{"u1", "u2"}
		toggled, liked := likes.Toggle("u1")
		assert.False(t, liked)
		assert.Equal(t, LikeSet{"u2"}, toggled)
	})

	t.Run("double toggle returns to the original set", func(t *testing.T) {
		original := LikeSet{"u1", "u2"}
		once, _ := original.Toggle("u3")
		twice, _ := once.Toggle("u3")
		assert.Equal(t, original, twice)

		once, _ = original.Toggle("u1")
		twice, _ = once.Toggle("u1")
		assert.ElementsMatch(t, original, twice)
	})

	t.Run("toggle does not mutate the receiver", func(t *testing.T) {
		original := LikeSet{"u1"}
		_, _ = original.Toggle("u2")
		assert.Equal(t, LikeSet{"u1"}, original)
	})
}

func TestComment_Clone(t *testing.T) {
	tagged := "alice"
	c := &Comment{
		ID:        "c1",
		Author:    UserSummary{ID: "u1", DisplayName: "Alice"},
		Content:   "hello",
		CreatedAt: time.Now(),
		Likes:     LikeSet{"u2"},
		Replies: []*Reply{
			{ID: "r1", Content: "hi", Likes: LikeSet{"u3"}, TaggedUser: &tagged},
		},
	}

	clone := c.Clone()
	require.Equal(t, c, clone)

	// Mutating the clone must not touch the original.
	clone.Content = "changed"
	clone.Likes, _ = clone.Likes.Toggle("u9")
	clone.Replies[0].Content = "changed too"
	*clone.Replies[0].TaggedUser = "bob"

	assert.Equal(t, "hello", c.Content)
	assert.Equal(t, LikeSet{"u2"}, c.Likes)
	assert.Equal(t, "hi", c.Replies[0].Content)
	assert.Equal(t, "alice", *c.Replies[0].TaggedUser)
}

func TestComment_Confirm(t *testing.T) {
	placeholder := NewPendingComment(UserSummary{ID: "u1", DisplayName: "Alice"}, "hi")
	require.True(t, placeholder.Pending)
	tempID := placeholder.ID
	require.NotEmpty(t, tempID)

	server := &Comment{
		ID:        "c1",
		Author:    UserSummary{ID: "u1", DisplayName: "Alice"},
		Content:   "hi",
		CreatedAt: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
		Likes:     LikeSet{},
	}
	placeholder.Confirm(server)

	assert.Equal(t, "c1", placeholder.ID)
	assert.False(t, placeholder.Pending)
	assert.Equal(t, server.CreatedAt, placeholder.CreatedAt)
	assert.NotEqual(t, tempID, placeholder.ID)
}

func TestReply_Confirm_KeepsLocalTaggedUser(t *testing.T) {
	tagged := "Bob"
	placeholder := NewPendingReply(UserSummary{ID: "u1"}, "sure", &tagged)

	// Server response without the tagged_user field.
	placeholder.Confirm(&Reply{ID: "r1", Content: "sure"})

	require.NotNil(t, placeholder.TaggedUser)
	assert.Equal(t, "Bob", *placeholder.TaggedUser)
	assert.False(t, placeholder.Pending)
}

func TestReply_DisplayContent(t *testing.T) {
	r := &Reply{Content: "agreed"}
	assert.Equal(t, "agreed", r.DisplayContent())

	tagged := "Alice"
	r.TaggedUser = &tagged
	assert.Equal(t, "@Alice agreed", r.DisplayContent())
}

func TestNewPendingID_Unique(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		id := NewPendingID()
		assert.False(t, seen[id])
		seen[id] = true
	}
}

func TestUserSummary_Name(t *testing.T) {
	assert.Equal(t, "Alice", UserSummary{Username: "alice", DisplayName: "Alice"}.Name())
	assert.Equal(t, "alice", UserSummary{Username: "alice"}.Name())
}
