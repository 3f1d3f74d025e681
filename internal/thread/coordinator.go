package thread

import (
	"context"
	"strings"

	"replyhub/internal/events"
	"replyhub/internal/models"
	"replyhub/internal/validation"

	"go.uber.org/zap"
)

// Gateway is the thin adapter toward the REST collaborator. It performs no
// retries, no caching and no batching, and is replaced by a deterministic
// fake in tests.
type Gateway interface {
	CreateComment(ctx context.Context, postID, text string) (*models.Comment, error)
	CreateReply(ctx context.Context, postID, commentID, content string, taggedUser *string) (*models.Reply, error)
	UpdateComment(ctx context.Context, postID, commentID, content string) (string, error)
	UpdateReply(ctx context.Context, postID, commentID, replyID, content string) (string, error)
	DeleteComment(ctx context.Context, postID, commentID string) error
	DeleteReply(ctx context.Context, postID, commentID, replyID string) error
	LikeComment(ctx context.Context, postID, commentID string, like bool) (models.LikeSet, error)
	LikeReply(ctx context.Context, postID, commentID, replyID string, like bool) (models.LikeSet, error)
}

// Coordinator wraps every mutating operation in the snapshot → apply →
// confirm/rollback protocol. Local state is mutated immediately; on server
// failure the pre-mutation snapshot is restored and the error surfaced to
// the caller. No partial mutation is ever left visible.
type Coordinator struct {
	store      *Store
	gateway    Gateway
	disclosure *Disclosure
	bus        events.EventBus
	actor      models.UserSummary
	logger     *zap.Logger
}

// NewCoordinator creates a coordinator for the store's post, acting as the
// given local user.
func NewCoordinator(
	store *Store,
	gateway Gateway,
	disclosure *Disclosure,
	bus events.EventBus,
	actor models.UserSummary,
	logger *zap.Logger,
) *Coordinator {
	if logger == nil {
		logger = zap.NewNop()
	}
	if disclosure == nil {
		disclosure = NewDisclosure()
	}
	return &Coordinator{
		store:      store,
		gateway:    gateway,
		disclosure: disclosure,
		bus:        bus,
		actor:      actor,
		logger:     logger,
	}
}

// Store returns the underlying comment collection.
func (c *Coordinator) Store() *Store { return c.store }

// Disclosure returns the disclosure controller for this thread.
func (c *Coordinator) Disclosure() *Disclosure { return c.disclosure }

// Actor returns the local user all mutations are issued as.
func (c *Coordinator) Actor() models.UserSummary { return c.actor }

// ===============================
// REQUESTS
// ===============================

// AddCommentRequest carries a new top-level comment submission.
type AddCommentRequest struct {
	Content string `json:"content" validate:"required,max=10000"`
}

// AddReplyRequest carries a reply submission against a comment or against
// one of its replies. ReplyID set means reply-to-a-reply; TaggedAuthor is
// the last-known display name of the addressed author, used when the target
// reply has been deleted locally in the meantime.
type AddReplyRequest struct {
	CommentID    string  `json:"comment_id" validate:"required"`
	ReplyID      *string `json:"reply_id,omitempty"`
	TaggedAuthor *string `json:"tagged_author,omitempty"`
	Content      string  `json:"content" validate:"required,max=10000"`
}

// EditRequest carries a content edit for a comment or reply.
type EditRequest struct {
	CommentID string  `json:"comment_id" validate:"required"`
	ReplyID   *string `json:"reply_id,omitempty"`
	Content   string  `json:"content" validate:"required,max=10000"`
}

// ===============================
// ADD COMMENT
// ===============================

// AddComment optimistically prepends a pending comment, then confirms it
// against the server. On failure the placeholder is removed again.
func (c *Coordinator) AddComment(ctx context.Context, req AddCommentRequest) (*models.Comment, error) {
	req.Content = strings.TrimSpace(req.Content)
	if err := validation.ValidateStruct(&req); err != nil {
		return nil, NewValidationError("invalid comment submission", err)
	}

	placeholder := models.NewPendingComment(c.actor, req.Content)
	if !c.store.Claim(placeholder.ID) {
		return nil, NewConflictError("comment submission already in flight", "MUTATION_IN_FLIGHT")
	}
	defer c.store.Release(placeholder.ID)

	c.store.PrependComment(placeholder)

	server, err := c.gateway.CreateComment(ctx, c.store.PostID(), req.Content)
	if err != nil {
		c.rollbackCreateComment(ctx, placeholder.ID, err)
		return nil, NewSyncError("failed to create comment", err)
	}

	_ = c.store.UpdateComment(placeholder.ID, func(cm *models.Comment) {
		cm.Confirm(server)
	})
	c.publish(ctx, events.NewCommentEvent(events.TypeCommentCreated, c.store.PostID(), server.ID, "", c.actor.ID))

	confirmed, err := c.store.GetComment(server.ID)
	if err != nil {
		return nil, NewInternalError("confirmed comment missing from collection")
	}
	c.logger.Info("Comment created",
		zap.String("post_id", c.store.PostID()),
		zap.String("comment_id", server.ID),
	)
	return confirmed, nil
}

func (c *Coordinator) rollbackCreateComment(ctx context.Context, placeholderID string, cause error) {
	_, _, _ = c.store.RemoveComment(placeholderID)
	c.logger.Warn("Comment create rolled back",
		zap.String("post_id", c.store.PostID()),
		zap.Error(cause),
	)
	c.publish(ctx, events.NewMutationRolledBackEvent(c.store.PostID(), "add_comment", placeholderID, cause.Error()))
}

// ===============================
// ADD REPLY
// ===============================

// AddReply flattens the submission onto its owning comment, optimistically
// prepends a pending reply there, then confirms against the server. Once the
// reply is confirmed the owning comment is auto-expanded so the new reply is
// visible; a failed add leaves the disclosure state untouched.
func (c *Coordinator) AddReply(ctx context.Context, req AddReplyRequest) (*models.Reply, error) {
	req.Content = strings.TrimSpace(req.Content)
	if err := validation.ValidateStruct(&req); err != nil {
		return nil, NewValidationError("invalid reply submission", err)
	}

	flat := Flatten(c.store.Comments(), FlattenInput{
		CommentID:    req.CommentID,
		ReplyID:      req.ReplyID,
		TaggedAuthor: req.TaggedAuthor,
		Body:         req.Content,
	})

	placeholder := models.NewPendingReply(c.actor, flat.Content, flat.TaggedUser)
	if !c.store.Claim(placeholder.ID) {
		return nil, NewConflictError("reply submission already in flight", "MUTATION_IN_FLIGHT")
	}
	defer c.store.Release(placeholder.ID)

	// The owning comment may have been deleted locally; the server stays
	// authoritative on placement, so the request is still issued.
	_, applyErr := c.store.PrependReply(flat.OwnerCommentID, placeholder)
	applied := applyErr == nil

	server, err := c.gateway.CreateReply(ctx, c.store.PostID(), flat.OwnerCommentID, flat.Content, flat.TaggedUser)
	if err != nil {
		if applied {
			_, _, _ = c.store.RemoveReply(flat.OwnerCommentID, placeholder.ID)
		}
		c.logger.Warn("Reply create rolled back",
			zap.String("comment_id", flat.OwnerCommentID),
			zap.Error(err),
		)
		c.publish(ctx, events.NewMutationRolledBackEvent(c.store.PostID(), "add_reply", placeholder.ID, err.Error()))
		return nil, NewSyncError("failed to create reply", err)
	}

	if applied {
		// The owning comment can also disappear between apply and confirm.
		// When the confirm lands, expand the comment so the new reply is
		// visible without a manual click.
		if err := c.store.UpdateReply(flat.OwnerCommentID, placeholder.ID, func(r *models.Reply) {
			r.Confirm(server)
		}); err == nil {
			c.disclosure.MarkAutoExpanded(flat.OwnerCommentID, c.store.ReplyCount(flat.OwnerCommentID))
		}
	}
	c.publish(ctx, events.NewCommentEvent(events.TypeReplyCreated, c.store.PostID(), flat.OwnerCommentID, server.ID, c.actor.ID))

	c.logger.Info("Reply created",
		zap.String("comment_id", flat.OwnerCommentID),
		zap.String("reply_id", server.ID),
		zap.Bool("flattened", req.ReplyID != nil),
	)

	if applied {
		if confirmed, err := c.store.GetReply(flat.OwnerCommentID, server.ID); err == nil {
			return confirmed, nil
		}
	}
	return server.Clone(), nil
}

// ===============================
// EDIT
// ===============================

// EditComment overwrites a comment's content optimistically and restores
// the previous content on failure.
func (c *Coordinator) EditComment(ctx context.Context, req EditRequest) error {
	req.Content = strings.TrimSpace(req.Content)
	if err := validation.ValidateStruct(&req); err != nil {
		return NewValidationError("invalid edit", err)
	}
	if req.ReplyID != nil {
		return c.editReply(ctx, req)
	}

	if !c.store.Claim(req.CommentID) {
		return NewConflictError("another mutation for this comment is in flight", "MUTATION_IN_FLIGHT")
	}
	defer c.store.Release(req.CommentID)

	prev, err := c.store.GetComment(req.CommentID)
	if err != nil {
		return err
	}

	_ = c.store.UpdateComment(req.CommentID, func(cm *models.Comment) {
		cm.SetContent(req.Content)
		cm.Pending = true
	})

	normalized, err := c.gateway.UpdateComment(ctx, c.store.PostID(), req.CommentID, req.Content)
	if err != nil {
		_ = c.store.UpdateComment(req.CommentID, func(cm *models.Comment) {
			cm.SetContent(prev.Content)
			cm.Pending = prev.Pending
		})
		c.publish(ctx, events.NewMutationRolledBackEvent(c.store.PostID(), "edit_comment", req.CommentID, err.Error()))
		return NewSyncError("failed to edit comment", err)
	}

	_ = c.store.UpdateComment(req.CommentID, func(cm *models.Comment) {
		cm.SetContent(normalized)
		cm.Pending = false
	})
	c.publish(ctx, events.NewCommentEvent(events.TypeCommentUpdated, c.store.PostID(), req.CommentID, "", c.actor.ID))
	return nil
}

func (c *Coordinator) editReply(ctx context.Context, req EditRequest) error {
	replyID := *req.ReplyID
	if !c.store.Claim(replyID) {
		return NewConflictError("another mutation for this reply is in flight", "MUTATION_IN_FLIGHT")
	}
	defer c.store.Release(replyID)

	prev, err := c.store.GetReply(req.CommentID, replyID)
	if err != nil {
		return err
	}

	_ = c.store.UpdateReply(req.CommentID, replyID, func(r *models.Reply) {
		r.SetContent(req.Content)
		r.Pending = true
	})

	normalized, err := c.gateway.UpdateReply(ctx, c.store.PostID(), req.CommentID, replyID, req.Content)
	if err != nil {
		_ = c.store.UpdateReply(req.CommentID, replyID, func(r *models.Reply) {
			r.SetContent(prev.Content)
			r.Pending = prev.Pending
		})
		c.publish(ctx, events.NewMutationRolledBackEvent(c.store.PostID(), "edit_reply", replyID, err.Error()))
		return NewSyncError("failed to edit reply", err)
	}

	_ = c.store.UpdateReply(req.CommentID, replyID, func(r *models.Reply) {
		r.SetContent(normalized)
		r.Pending = false
	})
	c.publish(ctx, events.NewCommentEvent(events.TypeReplyUpdated, c.store.PostID(), req.CommentID, replyID, c.actor.ID))
	return nil
}

// ===============================
// DELETE
// ===============================

// DeleteComment removes a comment optimistically and re-inserts it at its
// previous position if the server rejects the delete.
func (c *Coordinator) DeleteComment(ctx context.Context, commentID string) error {
	if !c.store.Claim(commentID) {
		return NewConflictError("another mutation for this comment is in flight", "MUTATION_IN_FLIGHT")
	}
	defer c.store.Release(commentID)

	removed, index, err := c.store.RemoveComment(commentID)
	if err != nil {
		return err
	}

	if err := c.gateway.DeleteComment(ctx, c.store.PostID(), commentID); err != nil {
		c.store.InsertCommentAt(removed, index)
		c.publish(ctx, events.NewMutationRolledBackEvent(c.store.PostID(), "delete_comment", commentID, err.Error()))
		return NewSyncError("failed to delete comment", err)
	}

	c.disclosure.Forget(commentID)
	c.publish(ctx, events.NewCommentEvent(events.TypeCommentDeleted, c.store.PostID(), commentID, "", c.actor.ID))
	return nil
}

// DeleteReply removes a reply optimistically with the same rollback rule.
func (c *Coordinator) DeleteReply(ctx context.Context, commentID, replyID string) error {
	if !c.store.Claim(replyID) {
		return NewConflictError("another mutation for this reply is in flight", "MUTATION_IN_FLIGHT")
	}
	defer c.store.Release(replyID)

	removed, index, err := c.store.RemoveReply(commentID, replyID)
	if err != nil {
		return err
	}

	if err := c.gateway.DeleteReply(ctx, c.store.PostID(), commentID, replyID); err != nil {
		_ = c.store.InsertReplyAt(commentID, removed, index)
		c.publish(ctx, events.NewMutationRolledBackEvent(c.store.PostID(), "delete_reply", replyID, err.Error()))
		return NewSyncError("failed to delete reply", err)
	}

	c.publish(ctx, events.NewCommentEvent(events.TypeReplyDeleted, c.store.PostID(), commentID, replyID, c.actor.ID))
	return nil
}

// ===============================
// LIKE / UNLIKE
// ===============================

// ToggleCommentLike flips the local actor's membership in the comment's
// like set, then replaces the set with the server's authoritative response.
// On failure the previous set is restored.
func (c *Coordinator) ToggleCommentLike(ctx context.Context, commentID string) (models.LikeSet, error) {
	if !c.store.Claim(commentID) {
		return nil, NewConflictError("another mutation for this comment is in flight", "MUTATION_IN_FLIGHT")
	}
	defer c.store.Release(commentID)

	prev, err := c.store.GetComment(commentID)
	if err != nil {
		return nil, err
	}

	toggled, liked := prev.Likes.Toggle(c.actor.ID)
	_ = c.store.UpdateComment(commentID, func(cm *models.Comment) {
		cm.ReplaceLikes(toggled)
	})

	server, err := c.gateway.LikeComment(ctx, c.store.PostID(), commentID, liked)
	if err != nil {
		_ = c.store.UpdateComment(commentID, func(cm *models.Comment) {
			cm.ReplaceLikes(prev.Likes)
		})
		c.publish(ctx, events.NewMutationRolledBackEvent(c.store.PostID(), "like_comment", commentID, err.Error()))
		return nil, NewSyncError("failed to toggle comment like", err)
	}

	_ = c.store.UpdateComment(commentID, func(cm *models.Comment) {
		cm.ReplaceLikes(server)
	})
	c.publish(ctx, events.NewCommentEvent(events.TypeLikeToggled, c.store.PostID(), commentID, "", c.actor.ID))
	return server.Clone(), nil
}

// ToggleReplyLike is ToggleCommentLike for a reply.
func (c *Coordinator) ToggleReplyLike(ctx context.Context, commentID, replyID string) (models.LikeSet, error) {
	if !c.store.Claim(replyID) {
		return nil, NewConflictError("another mutation for this reply is in flight", "MUTATION_IN_FLIGHT")
	}
	defer c.store.Release(replyID)

	prev, err := c.store.GetReply(commentID, replyID)
	if err != nil {
		return nil, err
	}

	toggled, liked := prev.Likes.Toggle(c.actor.ID)
	_ = c.store.UpdateReply(commentID, replyID, func(r *models.Reply) {
		r.ReplaceLikes(toggled)
	})

	server, err := c.gateway.LikeReply(ctx, c.store.PostID(), commentID, replyID, liked)
	if err != nil {
		_ = c.store.UpdateReply(commentID, replyID, func(r *models.Reply) {
			r.ReplaceLikes(prev.Likes)
		})
		c.publish(ctx, events.NewMutationRolledBackEvent(c.store.PostID(), "like_reply", replyID, err.Error()))
		return nil, NewSyncError("failed to toggle reply like", err)
	}

	_ = c.store.UpdateReply(commentID, replyID, func(r *models.Reply) {
		r.ReplaceLikes(server)
	})
	c.publish(ctx, events.NewCommentEvent(events.TypeLikeToggled, c.store.PostID(), commentID, replyID, c.actor.ID))
	return server.Clone(), nil
}

// publish sends an event if a bus is wired. Event delivery is best-effort;
// a failing subscriber never fails the mutation.
func (c *Coordinator) publish(ctx context.Context, event events.Event) {
	if c.bus == nil {
		return
	}
	if err := c.bus.Publish(ctx, event); err != nil {
		c.logger.Warn("Failed to publish event",
			zap.String("event_type", event.GetEventType()),
			zap.Error(err),
		)
	}
}
