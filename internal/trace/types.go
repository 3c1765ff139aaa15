// Package trace provides dispatch trace events and the recorded-syscall
// format consumed by the replay tool.
package trace

import (
	"time"

	"github.com/google/uuid"
)

// Tag labels a dispatch trace event.
// Tags are stored without # prefix; the prefix is added on rendering.
type Tag string

// Standard tags for dispatch events.
const (
	PreHook  Tag = "pre"
	PostHook Tag = "post"
	Skipped  Tag = "skip"
	Rewrite  Tag = "rewrite"
	NoHook   Tag = "nohook"
	Failed   Tag = "error"
)

// Tags is a collection of tags with helper methods.
type Tags []Tag

// Has returns true if the tag collection contains the given tag.
func (t Tags) Has(tag Tag) bool {
	for _, x := range t {
		if x == tag {
			return true
		}
	}
	return false
}

// Add adds a tag if not already present.
func (t *Tags) Add(tag Tag) {
	if !t.Has(tag) {
		*t = append(*t, tag)
	}
}

// Strings returns tags as strings with # prefix for display.
func (t Tags) Strings() []string {
	out := make([]string, len(t))
	for i, tag := range t {
		out[i] = "#" + string(tag)
	}
	return out
}

// Event records one syscall's trip through dispatch.
type Event struct {
	Seq       int       // position in the replayed trace
	Num       int       // syscall number
	Name      string    // symbolic name, if the recording carries one
	Tags      Tags      // first tag is primary
	Args      []int64   // effective arguments after pre-dispatch
	Ret       int64     // effective return value
	Detail    string    // extra context, e.g. rewritten fields
	Timestamp time.Time // when dispatch ran
}

// NewEvent creates a trace event for one dispatched syscall.
func NewEvent(seq, num int, name string) *Event {
	return &Event{
		Seq:       seq,
		Num:       num,
		Name:      name,
		Timestamp: time.Now(),
	}
}

// AddTag adds a tag to the event.
func (e *Event) AddTag(tag Tag) {
	e.Tags.Add(tag)
}

// PrimaryTag returns the primary (first) tag with # prefix.
func (e *Event) PrimaryTag() string {
	if len(e.Tags) > 0 {
		return "#" + string(e.Tags[0])
	}
	return ""
}

// Session groups the events of one replay run under a unique identity.
type Session struct {
	ID      uuid.UUID
	Started time.Time
	Events  []*Event
}

// NewSession creates a session with a fresh identity.
func NewSession() *Session {
	return &Session{
		ID:      uuid.New(),
		Started: time.Now(),
	}
}

// Add appends an event to the session.
func (s *Session) Add(e *Event) {
	s.Events = append(s.Events, e)
}

// Count returns the number of events carrying the given tag.
func (s *Session) Count(tag Tag) int {
	n := 0
	for _, e := range s.Events {
		if e.Tags.Has(tag) {
			n++
		}
	}
	return n
}
