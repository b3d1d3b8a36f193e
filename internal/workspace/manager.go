package workspace

import (
	"log"
	"sync"
	"time"

	"floorplan-detect/internal/plan"

	"github.com/google/uuid"
)

// ============================================================
// Workspace Manager
// ============================================================

type Manager struct {
	mu       sync.Mutex
	items    map[string]*Workspace
	registry *plan.Registry
	ttl      time.Duration
	now      func() time.Time
}

func NewManager(registry *plan.Registry, ttl time.Duration) *Manager {
	return &Manager{
		items:    make(map[string]*Workspace),
		registry: registry,
		ttl:      ttl,
		now:      time.Now,
	}
}

func (m *Manager) Create() *Workspace {
	m.mu.Lock()
	defer m.mu.Unlock()

	ws := newWorkspace(uuid.NewString(), m.registry, m.now())
	m.items[ws.ID] = ws
	return ws
}

// Get находит сессию и продлевает её жизнь.
func (m *Manager) Get(id string) (*Workspace, bool) {
	m.mu.Lock()
	ws, ok := m.items[id]
	m.mu.Unlock()

	if ok {
		ws.touch(m.now())
	}
	return ws, ok
}

// Delete удаляет сессию, отменяя идущий анализ.
func (m *Manager) Delete(id string) bool {
	m.mu.Lock()
	ws, ok := m.items[id]
	delete(m.items, id)
	m.mu.Unlock()

	if ok {
		ws.Reset()
	}
	return ok
}

func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.items)
}

// Sweep удаляет сессии, простаивающие дольше ttl. Идущий анализ не даёт удалить сессию.
func (m *Manager) Sweep() int {
	if m.ttl <= 0 {
		return 0
	}

	now := m.now()
	var stale []*Workspace

	m.mu.Lock()
	for id, ws := range m.items {
		if ws.idleSince(now) > m.ttl {
			stale = append(stale, ws)
			delete(m.items, id)
		}
	}
	m.mu.Unlock()

	for _, ws := range stale {
		ws.Reset()
	}
	if len(stale) > 0 {
		log.Printf("[WORKSPACE] swept %d idle workspaces", len(stale))
	}
	return len(stale)
}
