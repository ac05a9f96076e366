package theme

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mapKV map[string]string

func (m mapKV) Get(key string) string { return m[key] }
func (m mapKV) Set(key, value string) { m[key] = value }

func TestCatalog(t *testing.T) {
	assert.Len(t, All(), 16)
	assert.Len(t, ByKind(KindLight), 8)
	dark := ByKind(KindDark)
	require.Len(t, dark, 8)
	names := make([]string, 0, len(dark))
	for _, th := range dark {
		names = append(names, th.Name)
	}
	assert.Equal(t, []string{"dark", "synthwave", "cyberpunk", "dracula", "night", "forest", "luxury", "coffee"}, names)
}

func TestStoreDefaultsToLight(t *testing.T) {
	store := NewStore(mapKV{})
	assert.Equal(t, "light", store.Current().Name)

	corrupted := NewStore(mapKV{StorageKey: "{not json"})
	assert.Equal(t, "light", corrupted.Current().Name)
}

func TestStorePersistsSelection(t *testing.T) {
	kv := mapKV{}
	store := NewStore(kv)

	th, err := store.Set("dracula")
	require.NoError(t, err)
	assert.True(t, th.Dark())
	assert.JSONEq(t, `{"state":{"theme":"dracula"},"version":0}`, kv[StorageKey])

	reloaded := NewStore(kv)
	assert.Equal(t, "dracula", reloaded.Current().Name)
}

func TestStoreRejectsUnknownTheme(t *testing.T) {
	kv := mapKV{}
	store := NewStore(kv)
	_, err := store.Set("solarized")
	require.ErrorIs(t, err, ErrUnknownTheme)
	assert.Empty(t, kv)
}

func TestRootAttributes(t *testing.T) {
	attrs := RootAttributes("coffee")
	assert.Equal(t, Attributes{DataTheme: "coffee", Dark: true}, attrs)
	assert.Equal(t, `data-theme="coffee" class="dark"`, string(attrs.HTML()))

	attrs = RootAttributes("winter")
	assert.False(t, attrs.Dark)
	assert.Equal(t, `data-theme="winter"`, string(attrs.HTML()))

	assert.Equal(t, "light", RootAttributes("bogus").DataTheme)
}
