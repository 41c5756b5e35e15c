package fixture

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

const spiritYAML = `
id: spirit
name: Bestial Spirit
attributes:
  - name: npc_ac
    current: "11"
  - name: hp
    current: "30"
    max: "30"
actions:
  - id: -Mmulti
    name: Multiattack
    description: The beast makes 1 attack.
  - id: -Mmaul
    name: Maul
    fields:
      attack_tohit: "0"
      attack_damage: 1d8+4
      attack_flag: "on"
`

func TestLoadSheetFromBytes(t *testing.T) {
	f, err := LoadSheetFromBytes([]byte(spiritYAML))
	require.NoError(t, err)
	assert.Equal(t, "spirit", f.ID)
	assert.Equal(t, "Bestial Spirit", f.Name)
	assert.Len(t, f.Attributes, 2)
	require.Len(t, f.Actions, 2)
	assert.Equal(t, "1d8+4", f.Actions[1].Fields["attack_damage"])
}

func TestLoadSheetFromBytes_Invalid(t *testing.T) {
	cases := map[string]string{
		"no name":           "id: x\n",
		"attribute no name": "name: A\nattributes:\n  - current: \"1\"\n",
		"underscore id":     "name: A\nactions:\n  - id: a_b\n",
		"empty id":          "name: A\nactions:\n  - name: Maul\n",
		"duplicate id":      "name: A\nactions:\n  - id: a\n  - id: a\n",
		"bad yaml":          "name: [",
	}
	for name, doc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := LoadSheetFromBytes([]byte(doc))
			assert.Error(t, err)
		})
	}
}

func TestFlatten(t *testing.T) {
	f, err := LoadSheetFromBytes([]byte(spiritYAML))
	require.NoError(t, err)

	var names []string
	for _, a := range f.Flatten() {
		names = append(names, a.Name)
	}
	assert.Equal(t, []string{
		"npc_ac",
		"hp",
		"repeating_npcaction_-Mmulti_name",
		"repeating_npcaction_-Mmulti_description",
		"repeating_npcaction_-Mmaul_name",
		"repeating_npcaction_-Mmaul_attack_damage",
		"repeating_npcaction_-Mmaul_attack_flag",
		"repeating_npcaction_-Mmaul_attack_tohit",
	}, names)
}

func TestFlatten_FieldNameUsedWhenStructNameEmpty(t *testing.T) {
	f := &SheetFixture{Name: "A", Actions: []ActionFixture{
		{ID: "x", Fields: map[string]string{"name": "Bite"}},
		{ID: "y", Name: "Claw", Fields: map[string]string{"name": "ignored"}},
	}}
	got := f.Flatten()
	require.Len(t, got, 2)
	assert.Equal(t, AttributeFixture{Name: "repeating_npcaction_x_name", Current: "Bite"}, got[0])
	assert.Equal(t, AttributeFixture{Name: "repeating_npcaction_y_name", Current: "Claw"}, got[1])
}

func TestLoadSheets(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "spirit.yaml"), []byte(spiritYAML), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "README.md"), []byte("ignored"), 0o644))

	sheets, err := LoadSheets(dir)
	require.NoError(t, err)
	require.Len(t, sheets, 1)
	assert.Equal(t, "Bestial Spirit", sheets[0].Name)
}

func TestLoadSheets_Errors(t *testing.T) {
	_, err := LoadSheets(filepath.Join(t.TempDir(), "missing"))
	assert.Error(t, err)

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "bad.yaml"), []byte("id: x\n"), 0o644))
	_, err = LoadSheets(dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad.yaml")
}

func TestPropertyFlattenCount(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		n := rapid.IntRange(0, 5).Draw(t, "actions")
		f := &SheetFixture{Name: "A"}
		want := 0
		for i := 0; i < n; i++ {
			fields := rapid.MapOfN(
				rapid.StringMatching(`attack_[a-z]{1,6}`),
				rapid.StringMatching(`[0-9d+]{0,4}`),
				0, 4,
			).Draw(t, "fields")
			f.Actions = append(f.Actions, ActionFixture{ID: rapid.StringMatching(`-M[a-z]{3}`).Draw(t, "id"), Name: "Row", Fields: fields})
			want += 1 + len(fields)
		}
		if got := len(f.Flatten()); got != want {
			t.Fatalf("Flatten produced %d attributes, want %d", got, want)
		}
	})
}
