// Package fixture loads character sheets from YAML files for seeding a host.
package fixture

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// ActionRowPrefix is the attribute-name prefix of NPC action rows.
const ActionRowPrefix = "repeating_npcaction_"

// AttributeFixture is one plain attribute of a sheet fixture.
type AttributeFixture struct {
	Name    string `yaml:"name"`
	Current string `yaml:"current"`
	Max     string `yaml:"max"`
}

// ActionFixture is one NPC action row. Every entry in Fields becomes an
// attribute named "repeating_npcaction_<ID>_<field>"; Name and
// Description become the "name" and "description" fields.
type ActionFixture struct {
	ID          string            `yaml:"id"`
	Name        string            `yaml:"name"`
	Description string            `yaml:"description"`
	Fields      map[string]string `yaml:"fields"`
}

// SheetFixture is a character sheet loaded from YAML.
type SheetFixture struct {
	ID         string             `yaml:"id"`
	Name       string             `yaml:"name"`
	Attributes []AttributeFixture `yaml:"attributes"`
	Actions    []ActionFixture    `yaml:"actions"`
}

// Validate checks that the fixture satisfies basic invariants.
//
// Postcondition: Returns nil iff Name is non-empty, every attribute has a
// name, and every action has an id without underscores.
func (f *SheetFixture) Validate() error {
	if f.Name == "" {
		return fmt.Errorf("sheet fixture %q: name must not be empty", f.ID)
	}
	for i, a := range f.Attributes {
		if a.Name == "" {
			return fmt.Errorf("sheet fixture %q: attribute %d has no name", f.Name, i)
		}
	}
	seen := make(map[string]bool, len(f.Actions))
	for i, a := range f.Actions {
		if a.ID == "" || strings.Contains(a.ID, "_") {
			return fmt.Errorf("sheet fixture %q: action %d id %q must be non-empty and contain no underscores", f.Name, i, a.ID)
		}
		if seen[a.ID] {
			return fmt.Errorf("sheet fixture %q: duplicate action id %q", f.Name, a.ID)
		}
		seen[a.ID] = true
	}
	return nil
}

// LoadSheetFromBytes parses a single sheet fixture from raw YAML bytes.
//
// Postcondition: Returns a validated *SheetFixture, or an error.
func LoadSheetFromBytes(data []byte) (*SheetFixture, error) {
	var f SheetFixture
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parsing sheet YAML: %w", err)
	}
	if err := f.Validate(); err != nil {
		return nil, err
	}
	return &f, nil
}

// LoadSheets reads every *.yaml file in dir.
//
// Precondition: dir must be a readable directory.
// Postcondition: Returns all fixtures or an error on the first failure.
func LoadSheets(dir string) ([]*SheetFixture, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading sheet dir %q: %w", dir, err)
	}

	var sheets []*SheetFixture
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".yaml") {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading %q: %w", path, err)
		}
		f, err := LoadSheetFromBytes(data)
		if err != nil {
			return nil, fmt.Errorf("loading %q: %w", path, err)
		}
		sheets = append(sheets, f)
	}
	return sheets, nil
}

// Flatten returns every attribute the sheet defines, plain attributes first,
// then each action row's fields as "repeating_npcaction_<id>_<field>".
//
// Postcondition: Action fields appear in action order, "name" and
// "description" first and the remaining fields sorted by name.
func (f *SheetFixture) Flatten() []AttributeFixture {
	out := make([]AttributeFixture, 0, len(f.Attributes)+4*len(f.Actions))
	out = append(out, f.Attributes...)
	for _, act := range f.Actions {
		for _, kv := range act.rowFields() {
			out = append(out, AttributeFixture{Name: ActionRowPrefix + act.ID + "_" + kv[0], Current: kv[1]})
		}
	}
	return out
}

func (a ActionFixture) rowFields() [][2]string {
	out := make([][2]string, 0, len(a.Fields)+2)
	if a.Name != "" {
		out = append(out, [2]string{"name", a.Name})
	}
	if a.Description != "" {
		out = append(out, [2]string{"description", a.Description})
	}
	keys := make([]string, 0, len(a.Fields))
	for k := range a.Fields {
		if (k == "name" && a.Name != "") || (k == "description" && a.Description != "") {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		out = append(out, [2]string{k, a.Fields[k]})
	}
	return out
}
