package shopping

import (
	"sync"
	"time"
)

// NoticeBoard tracks per-session dismissals of the stale-list notice. A
// dismissal is keyed to the plan's modified_at value observed when the user
// dismissed; any later touch of the plan reinstates the notice. Nothing here
// is persisted — it is display state, not domain state.
type NoticeBoard struct {
	mu        sync.Mutex
	dismissed map[string]map[int64]time.Time
}

// NewNoticeBoard creates an empty notice board.
func NewNoticeBoard() *NoticeBoard {
	return &NoticeBoard{dismissed: make(map[string]map[int64]time.Time)}
}

// Dismiss suppresses the notice for one list in one session, as of the given
// plan modification time.
func (b *NoticeBoard) Dismiss(sessionID string, listID int64, planModifiedAt time.Time) {
	b.mu.Lock()
	defer b.mu.Unlock()

	lists, ok := b.dismissed[sessionID]
	if !ok {
		lists = make(map[int64]time.Time)
		b.dismissed[sessionID] = lists
	}
	lists[listID] = planModifiedAt
}

// Suppressed reports whether the session dismissed the notice for this list
// at the plan's current modification time. A plan touched after dismissal is
// no longer suppressed.
func (b *NoticeBoard) Suppressed(sessionID string, listID int64, planModifiedAt time.Time) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	dismissedAt, ok := b.dismissed[sessionID][listID]
	return ok && dismissedAt.Equal(planModifiedAt)
}

// Forget drops all dismissals for a session.
func (b *NoticeBoard) Forget(sessionID string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.dismissed, sessionID)
}

// ForgetList drops every session's dismissal of one list, for when the list
// itself is deleted.
func (b *NoticeBoard) ForgetList(listID int64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, lists := range b.dismissed {
		delete(lists, listID)
	}
}
