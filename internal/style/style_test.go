package style

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompose(t *testing.T) {
	t.Run("blank free text returns the style prompt untouched", func(t *testing.T) {
		assert.Equal(t, "paint it", Compose("paint it", ""))
		assert.Equal(t, "paint it", Compose("paint it", "   "))
	})

	t.Run("free text is trimmed and joined with one space", func(t *testing.T) {
		assert.Equal(t, "paint it add smile", Compose("paint it", "  add smile  "))
	})
}

func TestCatalog(t *testing.T) {
	catalog := Catalog()
	require.NotEmpty(t, catalog)

	t.Run("default is the first entry", func(t *testing.T) {
		assert.Equal(t, catalog[0], Default())
		assert.Equal(t, "renaissance", Default().ID)
	})

	t.Run("entries are complete", func(t *testing.T) {
		seen := make(map[string]bool)
		for _, p := range catalog {
			assert.NotEmpty(t, p.ID)
			assert.NotEmpty(t, p.Name)
			assert.NotEmpty(t, p.Description)
			assert.NotEmpty(t, p.Prompt)
			assert.False(t, seen[p.ID], "duplicate id %s", p.ID)
			seen[p.ID] = true
		}
	})

	t.Run("lookup by id", func(t *testing.T) {
		p, ok := ByID("anime")
		require.True(t, ok)
		assert.Equal(t, "Anime", p.Name)

		_, ok = ByID("vaporwave")
		assert.False(t, ok)
	})

	t.Run("catalog is stable across calls", func(t *testing.T) {
		again := Catalog()
		require.Equal(t, len(catalog), len(again))
		for i := range catalog {
			assert.Equal(t, catalog[i].ID, again[i].ID)
		}
	})
}
