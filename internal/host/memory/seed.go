package memory

import (
	"github.com/cory-johannsen/summonbeast/internal/host"
	"github.com/cory-johannsen/summonbeast/internal/host/fixture"
)

// Seed creates the fixture's character and attributes in h.
//
// Postcondition: Returns the created character, or the first error.
func (h *Host) Seed(f *fixture.SheetFixture) (*host.Character, error) {
	c, err := h.CreateCharacter(f.ID, f.Name)
	if err != nil {
		return nil, err
	}
	for _, a := range f.Flatten() {
		if _, err := h.SetAttribute(c.ID, a.Name, a.Current, a.Max); err != nil {
			return nil, err
		}
	}
	return c, nil
}
