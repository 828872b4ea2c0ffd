package registry

import (
	"time"

	"github.com/google/uuid"
)

// GroupInfo describes one load batch.
type GroupInfo struct {
	ID int
	// Source is the document (or operation) that opened the group.
	Source string
	// LoadID correlates the log lines of one load.
	LoadID   string
	LoadedAt time.Time
}

// Sequencer hands out group ids. The next id is never negative; it grows
// with every load and shrinks when the most recent groups are unloaded.
type Sequencer struct {
	next   int
	groups map[int]GroupInfo
	now    func() time.Time
}

func NewSequencer() *Sequencer {
	return &Sequencer{groups: make(map[int]GroupInfo), now: time.Now}
}

// Next opens a new group for source.
func (s *Sequencer) Next(source string) GroupInfo {
	info := GroupInfo{
		ID:       s.next,
		Source:   source,
		LoadID:   uuid.NewString(),
		LoadedAt: s.now(),
	}
	s.groups[info.ID] = info
	s.next++
	return info
}

// Peek returns the id Next would allocate.
func (s *Sequencer) Peek() int {
	return s.next
}

// Rewind gives back the most recent group.
func (s *Sequencer) Rewind() {
	if s.next == 0 {
		return
	}
	s.next--
	delete(s.groups, s.next)
}

// Reset forgets every group.
func (s *Sequencer) Reset() {
	s.next = 0
	s.groups = make(map[int]GroupInfo)
}

// Info returns the description of group id.
func (s *Sequencer) Info(id int) (GroupInfo, bool) {
	info, ok := s.groups[id]
	return info, ok
}

// Groups returns the open groups in ascending order.
func (s *Sequencer) Groups() []GroupInfo {
	out := make([]GroupInfo, 0, len(s.groups))
	for id := 0; id < s.next; id++ {
		if info, ok := s.groups[id]; ok {
			out = append(out, info)
		}
	}
	return out
}
