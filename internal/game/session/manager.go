package session

import "sync"

// Manager tracks every open scene.
// All methods are safe for concurrent use.
type Manager struct {
	mu     sync.RWMutex
	scenes map[string]*Scene // scene id → scene
}

// NewManager creates an empty session Manager.
func NewManager() *Manager {
	return &Manager{scenes: make(map[string]*Scene)}
}

// Scene returns the scene with id, opening it on first use.
//
// Precondition: id must be non-empty.
// Postcondition: Returns the same *Scene for the same id.
func (m *Manager) Scene(id string) *Scene {
	m.mu.RLock()
	s, ok := m.scenes[id]
	m.mu.RUnlock()
	if ok {
		return s
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.scenes[id]; ok {
		return s
	}
	s = &Scene{id: id}
	m.scenes[id] = s
	return s
}

// Lookup returns the scene with id without opening it.
//
// Postcondition: Returns (scene, true) if open, or (nil, false) otherwise.
func (m *Manager) Lookup(id string) (*Scene, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.scenes[id]
	return s, ok
}
