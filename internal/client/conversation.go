package client

import (
	"fmt"
	"time"
)

// ConversationState tracks whether history has been loaded yet.
type ConversationState int

const (
	// StateLoading means the initial history fetch is still in flight.
	StateLoading ConversationState = iota
	// StateReady means the list is populated and accepting mutations.
	StateReady
)

// Item is one message as displayed: either derived from persisted
// history, synthesized on optimistic send, or synthesized on relay
// arrival. FromSelf is always computed locally; the relay payload
// carries bare text with no sender information.
type Item struct {
	FromSelf  bool
	Body      string
	Timestamp time.Time
}

// Conversation holds the ordered message list for the active chat.
//
// It merges three independent event sources: the REST history fetch,
// optimistic local appends, and relay-delivered arrivals. Display order
// is strictly append order; items are never re-sorted by timestamp.
//
// A Conversation is owned by a single goroutine (the UI event loop) and
// is not safe for concurrent use. Edits and unsends mutate only this
// in-memory list; they are intentionally never written back to the
// server, so they vanish on reload or chat switch.
type Conversation struct {
	contactID string
	state     ConversationState
	items     []Item
	now       func() time.Time
}

// NewConversation starts an empty conversation in the Loading state.
func NewConversation(contactID string) *Conversation {
	return &Conversation{
		contactID: contactID,
		state:     StateLoading,
		now:       time.Now,
	}
}

// ContactID returns the other participant's user id.
func (cv *Conversation) ContactID() string {
	return cv.contactID
}

// State returns the current conversation state.
func (cv *Conversation) State() ConversationState {
	return cv.state
}

// Load replaces the list wholesale with fetched history and marks the
// conversation ready. Any pending optimistic, relay-only or locally
// edited state is discarded.
func (cv *Conversation) Load(items []Item) {
	cv.items = append([]Item(nil), items...)
	cv.state = StateReady
}

// AppendLocal appends an optimistic entry for a message the user just
// submitted, before any persistence or delivery confirmation. If the
// persist call later fails the entry stays: the caller surfaces the
// error elsewhere, the list is not rolled back.
func (cv *Conversation) AppendLocal(body string) Item {
	item := Item{FromSelf: true, Body: body, Timestamp: cv.now()}
	cv.items = append(cv.items, item)
	return item
}

// ApplyArrival appends an entry for relay-delivered text. The timestamp
// is the arrival time; the relay does not carry the send time.
func (cv *Conversation) ApplyArrival(text string) Item {
	item := Item{FromSelf: false, Body: text, Timestamp: cv.now()}
	cv.items = append(cv.items, item)
	return item
}

// EditAt replaces the body of the item at the given position. Local-only:
// the change is not propagated to the server or the other participant.
// Returns false if the index is out of range.
func (cv *Conversation) EditAt(i int, body string) bool {
	if i < 0 || i >= len(cv.items) {
		return false
	}
	cv.items[i].Body = body
	return true
}

// UnsendAt removes the item at the given position. Local-only, same
// caveats as EditAt.
func (cv *Conversation) UnsendAt(i int) bool {
	if i < 0 || i >= len(cv.items) {
		return false
	}
	cv.items = append(cv.items[:i], cv.items[i+1:]...)
	return true
}

// Items returns the display list in append order. The returned slice is
// a copy; mutating it does not touch the conversation.
func (cv *Conversation) Items() []Item {
	return append([]Item(nil), cv.items...)
}

// Len returns the number of displayed messages.
func (cv *Conversation) Len() int {
	return len(cv.items)
}

// StartBanner renders the conversation-start banner from the first
// item's timestamp, or "" when the list is empty.
func (cv *Conversation) StartBanner(now time.Time) string {
	if len(cv.items) == 0 {
		return ""
	}
	return formatStartBanner(cv.items[0].Timestamp, now)
}

func formatStartBanner(first, now time.Time) string {
	clock := first.Format("15:04")
	switch {
	case sameDay(first, now):
		return fmt.Sprintf("Today at %s user started the chat", clock)
	case sameDay(first, now.AddDate(0, 0, -1)):
		return fmt.Sprintf("Yesterday at %s user started the chat", clock)
	default:
		return fmt.Sprintf("%s at %s user started the chat", first.Format("1/2/2006"), clock)
	}
}

// FormatMessageTime renders the per-message clock shown next to each entry.
func FormatMessageTime(t time.Time) string {
	return t.Format("15:04")
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
