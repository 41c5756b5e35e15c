// Package session tracks per-game-session state. The only state a scene
// carries is the character id of its active Bestial Spirit.
package session

import "sync"

// Scene is the state of one game session.
// All methods are safe for concurrent use.
type Scene struct {
	id string

	mu     sync.RWMutex
	target string
}

// ID returns the scene identifier.
func (s *Scene) ID() string {
	return s.id
}

// ActiveTarget returns the character id of the active Bestial Spirit.
//
// Postcondition: ok is false when no target is set.
func (s *Scene) ActiveTarget() (characterID string, ok bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.target, s.target != ""
}

// SetActiveTarget makes characterID the active target, replacing any
// previous one.
//
// Precondition: characterID must be non-empty.
// Postcondition: Returns the previous target, or "".
func (s *Scene) SetActiveTarget(characterID string) (previous string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	previous, s.target = s.target, characterID
	return previous
}

// ClearActiveTarget removes the active target.
//
// Postcondition: Returns the cleared target, or "" if none was set.
func (s *Scene) ClearActiveTarget() (previous string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	previous, s.target = s.target, ""
	return previous
}

// ClearActiveTargetIf removes the active target only when it equals
// characterID.
//
// Postcondition: Returns true iff the target was cleared.
func (s *Scene) ClearActiveTargetIf(characterID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.target == "" || s.target != characterID {
		return false
	}
	s.target = ""
	return true
}
