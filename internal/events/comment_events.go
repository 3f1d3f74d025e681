package events

import "time"

// Event types published by the thread coordinator.
const (
	TypeCommentCreated     = "comment.created"
	TypeCommentUpdated     = "comment.updated"
	TypeCommentDeleted     = "comment.deleted"
	TypeReplyCreated       = "reply.created"
	TypeReplyUpdated       = "reply.updated"
	TypeReplyDeleted       = "reply.deleted"
	TypeLikeToggled        = "like.toggled"
	TypeMutationRolledBack = "mutation.rolled_back"
)

// CommentEvent describes a confirmed mutation on a comment or reply.
// ReplyID is empty for comment-level events.
type CommentEvent struct {
	BaseEvent
	PostID    string `json:"post_id"`
	CommentID string `json:"comment_id"`
	ReplyID   string `json:"reply_id,omitempty"`
	ActorID   string `json:"actor_id"`
}

// MutationRolledBackEvent is published after a failed mutation has been
// restored to its pre-operation snapshot.
type MutationRolledBackEvent struct {
	BaseEvent
	PostID    string `json:"post_id"`
	Operation string `json:"operation"`
	EntityID  string `json:"entity_id"`
	Reason    string `json:"reason"`
}

// NewCommentEvent builds a CommentEvent of the given type.
func NewCommentEvent(eventType, postID, commentID, replyID, actorID string) *CommentEvent {
	return &CommentEvent{
		BaseEvent: BaseEvent{
			EventID:   GenerateEventID(),
			EventType: eventType,
			Timestamp: time.Now(),
		},
		PostID:    postID,
		CommentID: commentID,
		ReplyID:   replyID,
		ActorID:   actorID,
	}
}

// NewMutationRolledBackEvent builds a rollback event.
func NewMutationRolledBackEvent(postID, operation, entityID, reason string) *MutationRolledBackEvent {
	return &MutationRolledBackEvent{
		BaseEvent: BaseEvent{
			EventID:   GenerateEventID(),
			EventType: TypeMutationRolledBack,
			Timestamp: time.Now(),
		},
		PostID:    postID,
		Operation: operation,
		EntityID:  entityID,
		Reason:    reason,
	}
}
