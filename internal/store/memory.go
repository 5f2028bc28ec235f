package store

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/unilife/qa-bot/internal"
)

// MemoryStore keeps the conversation shown to the caller. Answering never reads it.
type MemoryStore struct {
	mu    sync.Mutex
	turns []internal.Turn
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{turns: make([]internal.Turn, 0, 64)}
}

// Append records a turn and returns it with ID and timestamp filled in.
func (s *MemoryStore) Append(mode internal.Mode, user, bot string) internal.Turn {
	turn := internal.Turn{
		ID:        uuid.New(),
		User:      user,
		Bot:       bot,
		Mode:      mode,
		CreatedAt: time.Now(),
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.turns = append(s.turns, turn)
	return turn
}

func (s *MemoryStore) All() []internal.Turn {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := make([]internal.Turn, len(s.turns))
	copy(cp, s.turns)
	return cp
}

func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.turns)
}

func (s *MemoryStore) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.turns = s.turns[:0]
}

// Transcript renders the history as plain text, oldest first.
func (s *MemoryStore) Transcript() string {
	turns := s.All()
	blocks := make([]string, len(turns))
	for i, t := range turns {
		blocks[i] = fmt.Sprintf("You: %s\nBot: %s", t.User, t.Bot)
	}
	return strings.Join(blocks, "\n\n")
}
