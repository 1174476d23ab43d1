package state

import (
	"context"
	"sync"

	contractx "github.com/tanpawarit/link-companion-assistant/agent/contract"
)

type memorySession struct {
	mu    sync.Mutex
	turns []contractx.Turn
}

// MemoryStore keeps transcripts in process. Appends to the same session are
// serialized; different sessions never contend.
type MemoryStore struct {
	sessions sync.Map // session id -> *memorySession
}

var _ contractx.HistoryStore = (*MemoryStore)(nil)

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (m *MemoryStore) session(sessionID string) *memorySession {
	v, _ := m.sessions.LoadOrStore(sessionID, &memorySession{})
	return v.(*memorySession)
}

func (m *MemoryStore) History(_ context.Context, sessionID string) ([]contractx.Turn, error) {
	if err := validateSession(sessionID); err != nil {
		return nil, err
	}
	v, ok := m.sessions.Load(sessionID)
	if !ok {
		return []contractx.Turn{}, nil
	}
	s := v.(*memorySession)
	s.mu.Lock()
	defer s.mu.Unlock()
	return Truncate(s.turns), nil
}

func (m *MemoryStore) Append(ctx context.Context, sessionID string, turns ...contractx.Turn) ([]contractx.Turn, error) {
	if err := validateSession(sessionID); err != nil {
		return nil, err
	}
	if err := validateTurns(turns); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s := m.session(sessionID)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.turns = Truncate(append(s.turns, turns...))
	return Truncate(s.turns), nil
}

func (m *MemoryStore) Delete(_ context.Context, sessionID string) error {
	if err := validateSession(sessionID); err != nil {
		return err
	}
	m.sessions.Delete(sessionID)
	return nil
}
