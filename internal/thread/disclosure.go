package thread

import "sync"

// ReplyBatchSize is the number of replies revealed per disclosure step.
const ReplyBatchSize = 3

// DisclosureState tracks how many of a comment's replies are rendered.
type DisclosureState struct {
	Expanded bool `json:"expanded"`
	Shown    int  `json:"shown"`
}

// Disclosure is the per-comment state machine governing progressive reply
// disclosure. It only affects which already-loaded replies count as shown;
// the reply affordance always displays the total count.
type Disclosure struct {
	mu           sync.Mutex
	states       map[string]*DisclosureState
	autoExpanded map[string]struct{}
	hidden       map[string]struct{}
}

// NewDisclosure creates an empty disclosure controller.
func NewDisclosure() *Disclosure {
	return &Disclosure{
		states:       make(map[string]*DisclosureState),
		autoExpanded: make(map[string]struct{}),
		hidden:       make(map[string]struct{}),
	}
}

func (d *Disclosure) state(commentID string) *DisclosureState {
	st, ok := d.states[commentID]
	if !ok {
		st = &DisclosureState{}
		d.states[commentID] = st
	}
	return st
}

// State returns the current disclosure state for a comment. Unknown
// comments are collapsed with nothing shown.
func (d *Disclosure) State(commentID string) DisclosureState {
	d.mu.Lock()
	defer d.mu.Unlock()
	if st, ok := d.states[commentID]; ok {
		return *st
	}
	return DisclosureState{}
}

// ViewReplies expands a comment and reveals the first batch of replies.
// A manual view clears the manual-hide marker.
func (d *Disclosure) ViewReplies(commentID string, total int) DisclosureState {
	d.mu.Lock()
	defer d.mu.Unlock()

	delete(d.hidden, commentID)
	st := d.state(commentID)
	st.Expanded = true
	st.Shown = minInt(ReplyBatchSize, total)
	return *st
}

// ShowMore reveals the next batch, clamped to the total reply count.
func (d *Disclosure) ShowMore(commentID string, total int) DisclosureState {
	d.mu.Lock()
	defer d.mu.Unlock()

	st := d.state(commentID)
	st.Shown = minInt(st.Shown+ReplyBatchSize, total)
	return *st
}

// Hide collapses a comment's replies and removes it from auto-expand
// tracking so unrelated updates do not silently re-expand it.
func (d *Disclosure) Hide(commentID string) DisclosureState {
	d.mu.Lock()
	defer d.mu.Unlock()

	delete(d.autoExpanded, commentID)
	d.hidden[commentID] = struct{}{}
	st := d.state(commentID)
	st.Expanded = false
	st.Shown = 0
	return *st
}

// MarkAutoExpanded records that a comment received a new reply and should be
// expanded so the just-added reply (prepended, newest-first) is visible
// without a manual click. Comments the user has manually hidden stay hidden.
func (d *Disclosure) MarkAutoExpanded(commentID string, total int) DisclosureState {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, manuallyHidden := d.hidden[commentID]; manuallyHidden {
		return *d.state(commentID)
	}

	d.autoExpanded[commentID] = struct{}{}
	st := d.state(commentID)
	if !st.Expanded {
		st.Expanded = true
		st.Shown = minInt(ReplyBatchSize, total)
	} else if st.Shown < minInt(ReplyBatchSize, total) {
		st.Shown = minInt(ReplyBatchSize, total)
	}
	return *st
}

// ClearAutoExpanded removes a comment from auto-expand tracking without
// touching its disclosure state.
func (d *Disclosure) ClearAutoExpanded(commentID string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.autoExpanded, commentID)
}

// IsAutoExpanded reports whether a comment is currently auto-expand tracked.
func (d *Disclosure) IsAutoExpanded(commentID string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	_, ok := d.autoExpanded[commentID]
	return ok
}

// VisibleCount returns how many replies should be rendered for a comment,
// clamped to the total currently loaded.
func (d *Disclosure) VisibleCount(commentID string, total int) int {
	st := d.State(commentID)
	if !st.Expanded {
		return 0
	}
	return minInt(st.Shown, total)
}

// Forget drops all tracking for a comment, used when the comment itself is
// removed from the collection.
func (d *Disclosure) Forget(commentID string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.states, commentID)
	delete(d.autoExpanded, commentID)
	delete(d.hidden, commentID)
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
