// file: internal/models/models.go
package models

import (
	"time"

	"github.com/gofrs/uuid"
)

// ===============================
// CORE ENTITIES
// ===============================

// UserSummary is the author reference attached to comments and replies.
type UserSummary struct {
	ID          string  `json:"id" validate:"required"`
	Username    string  `json:"username"`
	DisplayName string  `json:"display_name"`
	AvatarURL   *string `json:"avatar_url,omitempty"`
	ProfileURL  *string `json:"profile_url,omitempty"`
}

// Name returns the best display name available for the user.
func (u UserSummary) Name() string {
	if u.DisplayName != "" {
		return u.DisplayName
	}
	return u.Username
}

// Comment represents a top-level comment on a post.
//
// Replies are kept newest-first and are always exactly one level deep:
// a reply never carries replies of its own.
type Comment struct {
	ID        string      `json:"id"`
	Author    UserSummary `json:"author"`
	Content   string      `json:"content"`
	CreatedAt time.Time   `json:"created_at"`
	Likes     LikeSet     `json:"likes"`
	Replies   []*Reply    `json:"replies"`

	// Pending marks an entity whose optimistic create/edit has not yet been
	// confirmed or rolled back. While Pending is true the ID is a locally
	// generated placeholder, never a server id.
	Pending bool `json:"pending,omitempty"`
}

// Reply is structurally a Comment minus nested replies.
type Reply struct {
	ID        string      `json:"id"`
	Author    UserSummary `json:"author"`
	Content   string      `json:"content"`
	CreatedAt time.Time   `json:"created_at"`
	Likes     LikeSet     `json:"likes"`

	// TaggedUser is the display name of the user being addressed. It is set
	// only when the reply was created by flattening a reply-to-a-reply.
	TaggedUser *string `json:"tagged_user,omitempty"`

	Pending bool `json:"pending,omitempty"`
}

// ===============================
// CONSTRUCTION
// ===============================

// NewPendingID generates a placeholder id for an optimistic entity.
func NewPendingID() string {
	return uuid.Must(uuid.NewV4()).String()
}

// NewPendingComment builds the local placeholder inserted before the server
// has confirmed a create.
func NewPendingComment(author UserSummary, content string) *Comment {
	return &Comment{
		ID:        NewPendingID(),
		Author:    author,
		Content:   content,
		CreatedAt: time.Now(),
		Likes:     LikeSet{},
		Replies:   []*Reply{},
		Pending:   true,
	}
}

// NewPendingReply builds the local placeholder for an optimistic reply.
func NewPendingReply(author UserSummary, content string, taggedUser *string) *Reply {
	return &Reply{
		ID:         NewPendingID(),
		Author:     author,
		Content:    content,
		CreatedAt:  time.Now(),
		Likes:      LikeSet{},
		TaggedUser: taggedUser,
		Pending:    true,
	}
}

// ===============================
// EQUALITY & COPYING
// ===============================

// Equal reports identity equality; comments are the same entity when their
// ids match, regardless of field state.
func (c *Comment) Equal(other *Comment) bool {
	return other != nil && c.ID == other.ID
}

// Equal reports identity equality by id.
func (r *Reply) Equal(other *Reply) bool {
	return other != nil && r.ID == other.ID
}

// Clone returns a deep copy of the comment, including replies and likes.
// Snapshots taken for rollback must never alias live state.
func (c *Comment) Clone() *Comment {
	if c == nil {
		return nil
	}
	cp := *c
	cp.Likes = c.Likes.Clone()
	cp.Replies = make([]*Reply, len(c.Replies))
	for i, r := range c.Replies {
		cp.Replies[i] = r.Clone()
	}
	return &cp
}

// Clone returns a deep copy of the reply.
func (r *Reply) Clone() *Reply {
	if r == nil {
		return nil
	}
	cp := *r
	cp.Likes = r.Likes.Clone()
	if r.TaggedUser != nil {
		tagged := *r.TaggedUser
		cp.TaggedUser = &tagged
	}
	return &cp
}

// CloneComments deep-copies a whole collection.
func CloneComments(comments []*Comment) []*Comment {
	out := make([]*Comment, len(comments))
	for i, c := range comments {
		out[i] = c.Clone()
	}
	return out
}

// ===============================
// PARTIAL UPDATES
// ===============================

// SetContent replaces only the text body, leaving every other field intact.
func (c *Comment) SetContent(content string) { c.Content = content }

// SetContent replaces only the text body.
func (r *Reply) SetContent(content string) { r.Content = content }

// ReplaceLikes swaps in a server-authoritative like set.
func (c *Comment) ReplaceLikes(likes LikeSet) { c.Likes = likes.Clone() }

// ReplaceLikes swaps in a server-authoritative like set.
func (r *Reply) ReplaceLikes(likes LikeSet) { r.Likes = likes.Clone() }

// Confirm replaces the placeholder fields with the server-confirmed
// representation and clears the pending marker. Position in the owning
// collection is the caller's concern and is not touched here.
func (c *Comment) Confirm(server *Comment) {
	c.ID = server.ID
	c.Content = server.Content
	if !server.CreatedAt.IsZero() {
		c.CreatedAt = server.CreatedAt
	}
	if server.Author.ID != "" {
		c.Author = server.Author
	}
	if server.Likes != nil {
		c.Likes = server.Likes.Clone()
	}
	c.Pending = false
}

// Confirm applies the server-confirmed representation to a pending reply.
// A tagged user already present locally survives a server response that
// omits the field.
func (r *Reply) Confirm(server *Reply) {
	r.ID = server.ID
	r.Content = server.Content
	if !server.CreatedAt.IsZero() {
		r.CreatedAt = server.CreatedAt
	}
	if server.Author.ID != "" {
		r.Author = server.Author
	}
	if server.Likes != nil {
		r.Likes = server.Likes.Clone()
	}
	if server.TaggedUser != nil {
		r.TaggedUser = server.TaggedUser
	}
	r.Pending = false
}

// ===============================
// DISPLAY HELPERS
// ===============================

// DisplayContent formats the reply body for rendering, prefixing the
// @mention when the reply addresses a tagged user. Storage keeps the tag
// separate from the body; this is the only place the two are combined.
func (r *Reply) DisplayContent() string {
	if r.TaggedUser != nil && *r.TaggedUser != "" {
		return "@" + *r.TaggedUser + " " + r.Content
	}
	return r.Content
}

// ReplyCount returns the total number of replies, independent of how many
// are currently disclosed.
func (c *Comment) ReplyCount() int {
	return len(c.Replies)
}
