package memory

import "sync"

// ShortTermStore keeps a bounded buffer of recent turns per channel.
// It is a purely in-process structure shared by every concurrent turn;
// a single RWMutex guards all channels, which is fine because critical
// sections are short and bounded by the buffer capacity.
type ShortTermStore struct {
	mu       sync.RWMutex
	channels map[int64][]Turn
	capacity int
}

func NewShortTermStore(capacity int) *ShortTermStore {
	if capacity <= 0 {
		capacity = 20
	}
	return &ShortTermStore{
		channels: make(map[int64][]Turn),
		capacity: capacity,
	}
}

// Push appends a turn to the channel's buffer and returns any turns
// evicted from the front, oldest first. The returned slice is empty when
// the buffer had room.
func (s *ShortTermStore) Push(channelID int64, turn Turn) []Turn {
	s.mu.Lock()
	defer s.mu.Unlock()

	buf := append(s.channels[channelID], turn)

	var overflow []Turn
	for len(buf) > s.capacity {
		overflow = append(overflow, buf[0])
		buf = buf[1:]
	}

	s.channels[channelID] = buf
	return overflow
}

// Context returns a copy of the channel's buffer in insertion order,
// oldest first. Unknown channels yield an empty slice.
func (s *ShortTermStore) Context(channelID int64) []Turn {
	s.mu.RLock()
	defer s.mu.RUnlock()

	buf := s.channels[channelID]
	out := make([]Turn, len(buf))
	copy(out, buf)
	return out
}

// Capacity reports the per-channel buffer limit.
func (s *ShortTermStore) Capacity() int {
	return s.capacity
}
