package thread

import (
	"fmt"
	"sort"
	"sync"

	"replyhub/internal/models"
)

// Store owns the comment collection for a single post. There is one local
// actor per session, so the store is the single source of truth for the
// view: every optimistic mutation lands here first and every rollback
// restores it here.
//
// Reads return deep copies; callers never alias live state.
type Store struct {
	mu       sync.Mutex
	postID   string
	comments []*models.Comment
	inflight map[string]struct{}
}

// NewStore creates an empty store for the given post.
func NewStore(postID string) *Store {
	return &Store{
		postID:   postID,
		comments: []*models.Comment{},
		inflight: make(map[string]struct{}),
	}
}

// PostID returns the id of the post this store belongs to.
func (s *Store) PostID() string { return s.postID }

// Hydrate replaces the collection with server-loaded comments, ordered
// newest-first regardless of server-side storage order. Reply lists are
// ordered the same way.
func (s *Store) Hydrate(comments []*models.Comment) {
	cloned := models.CloneComments(comments)
	for _, c := range cloned {
		if c.Likes == nil {
			c.Likes = models.LikeSet{}
		}
		if c.Replies == nil {
			c.Replies = []*models.Reply{}
		}
		sort.SliceStable(c.Replies, func(i, j int) bool {
			return c.Replies[i].CreatedAt.After(c.Replies[j].CreatedAt)
		})
	}
	sort.SliceStable(cloned, func(i, j int) bool {
		return cloned[i].CreatedAt.After(cloned[j].CreatedAt)
	})

	s.mu.Lock()
	defer s.mu.Unlock()
	s.comments = cloned
}

// Comments returns a deep copy of the collection, newest-first.
func (s *Store) Comments() []*models.Comment {
	s.mu.Lock()
	defer s.mu.Unlock()
	return models.CloneComments(s.comments)
}

// Len returns the number of top-level comments.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.comments)
}

// ===============================
// IN-FLIGHT GATE
// ===============================

// Claim reserves an entity for a single in-flight mutation. It fails when a
// previous mutation for the same entity has not yet been confirmed or
// rolled back, which is what guarantees that a rollback always restores the
// state immediately prior to its own operation.
func (s *Store) Claim(entityID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, busy := s.inflight[entityID]; busy {
		return false
	}
	s.inflight[entityID] = struct{}{}
	return true
}

// Release frees an entity's in-flight reservation.
func (s *Store) Release(entityID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.inflight, entityID)
}

// InFlight reports whether an entity has an unresolved mutation.
func (s *Store) InFlight(entityID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, busy := s.inflight[entityID]
	return busy
}

// ===============================
// COMMENT ACCESS & MUTATION
// ===============================

// GetComment returns a deep copy of a comment.
func (s *Store) GetComment(commentID string) (*models.Comment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range s.comments {
		if c.ID == commentID {
			return c.Clone(), nil
		}
	}
	return nil, NewNotFoundError(fmt.Sprintf("comment %s not found", commentID))
}

// GetReply returns a deep copy of a reply within a comment.
func (s *Store) GetReply(commentID, replyID string) (*models.Reply, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := s.find(commentID)
	if c == nil {
		return nil, NewNotFoundError(fmt.Sprintf("comment %s not found", commentID))
	}
	for _, r := range c.Replies {
		if r.ID == replyID {
			return r.Clone(), nil
		}
	}
	return nil, NewNotFoundError(fmt.Sprintf("reply %s not found", replyID))
}

// PrependComment inserts a comment at the head of the collection
// (newest-first ordering).
func (s *Store) PrependComment(c *models.Comment) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.comments = append([]*models.Comment{c.Clone()}, s.comments...)
}

// RemoveComment removes a comment, returning the removed entity and its
// index so a failed delete can restore it in place.
func (s *Store) RemoveComment(commentID string) (*models.Comment, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, c := range s.comments {
		if c.ID == commentID {
			removed := c
			s.comments = append(s.comments[:i], s.comments[i+1:]...)
			return removed, i, nil
		}
	}
	return nil, 0, NewNotFoundError(fmt.Sprintf("comment %s not found", commentID))
}

// InsertCommentAt restores a comment at a specific index, clamped to the
// current collection bounds.
func (s *Store) InsertCommentAt(c *models.Comment, index int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if index < 0 {
		index = 0
	}
	if index > len(s.comments) {
		index = len(s.comments)
	}
	s.comments = append(s.comments[:index], append([]*models.Comment{c.Clone()}, s.comments[index:]...)...)
}

// UpdateComment applies a partial update to a comment under the store lock.
func (s *Store) UpdateComment(commentID string, fn func(*models.Comment)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := s.find(commentID)
	if c == nil {
		return NewNotFoundError(fmt.Sprintf("comment %s not found", commentID))
	}
	fn(c)
	return nil
}

// ===============================
// REPLY ACCESS & MUTATION
// ===============================

// PrependReply inserts a reply at the head of its owning comment's reply
// list and returns the new total reply count.
func (s *Store) PrependReply(commentID string, r *models.Reply) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := s.find(commentID)
	if c == nil {
		return 0, NewNotFoundError(fmt.Sprintf("comment %s not found", commentID))
	}
	c.Replies = append([]*models.Reply{r.Clone()}, c.Replies...)
	return len(c.Replies), nil
}

// RemoveReply removes a reply, returning the removed entity and its index.
func (s *Store) RemoveReply(commentID, replyID string) (*models.Reply, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := s.find(commentID)
	if c == nil {
		return nil, 0, NewNotFoundError(fmt.Sprintf("comment %s not found", commentID))
	}
	for i, r := range c.Replies {
		if r.ID == replyID {
			removed := r
			c.Replies = append(c.Replies[:i], c.Replies[i+1:]...)
			return removed, i, nil
		}
	}
	return nil, 0, NewNotFoundError(fmt.Sprintf("reply %s not found", replyID))
}

// InsertReplyAt restores a reply at a specific index within its owning
// comment, clamped to bounds.
func (s *Store) InsertReplyAt(commentID string, r *models.Reply, index int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := s.find(commentID)
	if c == nil {
		return NewNotFoundError(fmt.Sprintf("comment %s not found", commentID))
	}
	if index < 0 {
		index = 0
	}
	if index > len(c.Replies) {
		index = len(c.Replies)
	}
	c.Replies = append(c.Replies[:index], append([]*models.Reply{r.Clone()}, c.Replies[index:]...)...)
	return nil
}

// UpdateReply applies a partial update to a reply under the store lock.
func (s *Store) UpdateReply(commentID, replyID string, fn func(*models.Reply)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := s.find(commentID)
	if c == nil {
		return NewNotFoundError(fmt.Sprintf("comment %s not found", commentID))
	}
	for _, r := range c.Replies {
		if r.ID == replyID {
			fn(r)
			return nil
		}
	}
	return NewNotFoundError(fmt.Sprintf("reply %s not found", replyID))
}

// ReplyCount returns the total reply count for a comment, zero when the
// comment is unknown.
func (s *Store) ReplyCount(commentID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if c := s.find(commentID); c != nil {
		return len(c.Replies)
	}
	return 0
}

// find locates a live comment by id. Caller must hold s.mu.
func (s *Store) find(commentID string) *models.Comment {
	for _, c := range s.comments {
		if c.ID == commentID {
			return c
		}
	}
	return nil
}
