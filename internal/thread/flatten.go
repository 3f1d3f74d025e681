package thread

import "replyhub/internal/models"

// FlattenInput describes a reply submission before flattening. ReplyID is
// nil when the reply targets the comment directly; TaggedAuthor carries the
// last-known display name of the addressed reply's author, used when the
// target is no longer present locally.
type FlattenInput struct {
	CommentID    string
	ReplyID      *string
	TaggedAuthor *string
	Body         string
}

// FlattenedReply is the normalized result: always attached to a comment,
// never to a reply, which is what keeps nesting depth at exactly one.
type FlattenedReply struct {
	OwnerCommentID string
	Content        string
	TaggedUser     *string
}

// Flatten collapses a reply-to-a-reply into a top-level reply on the owning
// comment. When the target reply still exists in the collection its author's
// current display name wins; otherwise the caller-supplied last-known name
// is used. The server is authoritative on final placement either way.
func Flatten(comments []*models.Comment, in FlattenInput) FlattenedReply {
	out := FlattenedReply{
		OwnerCommentID: in.CommentID,
		Content:        in.Body,
	}

	if in.ReplyID == nil {
		return out
	}

	if name := replyAuthorName(comments, in.CommentID, *in.ReplyID); name != "" {
		out.TaggedUser = &name
		return out
	}

	// Target deleted out from under us; tag with the last-known name.
	if in.TaggedAuthor != nil && *in.TaggedAuthor != "" {
		out.TaggedUser = in.TaggedAuthor
	}
	return out
}

func replyAuthorName(comments []*models.Comment, commentID, replyID string) string {
	for _, c := range comments {
		if c.ID != commentID {
			continue
		}
		for _, r := range c.Replies {
			if r.ID == replyID {
				return r.Author.Name()
			}
		}
	}
	return ""
}
