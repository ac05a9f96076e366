// Package theme holds the colour theme catalog and the signed-in user's
// theme preference.
package theme

import (
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
)

// Kind separates light from dark themes.
type Kind string

const (
	KindLight Kind = "light"
	KindDark  Kind = "dark"
)

// Theme is one selectable colour scheme.
type Theme struct {
	Name  string
	Label string
	Kind  Kind
}

// Dark reports whether the theme needs the dark class on the root element.
func (t Theme) Dark() bool { return t.Kind == KindDark }

// Default is applied when nothing was persisted.
const Default = "light"

// StorageKey is the persisted preference key.
const StorageKey = "theme-storage"

// ErrUnknownTheme is returned for names outside the catalog.
var ErrUnknownTheme = errors.New("unknown theme")

var catalog = []Theme{
	{Name: "light", Label: "Light", Kind: KindLight},
	{Name: "cupcake", Label: "Cupcake", Kind: KindLight},
	{Name: "emerald", Label: "Emerald", Kind: KindLight},
	{Name: "corporate", Label: "Corporate", Kind: KindLight},
	{Name: "garden", Label: "Garden", Kind: KindLight},
	{Name: "lofi", Label: "Lo-Fi", Kind: KindLight},
	{Name: "pastel", Label: "Pastel", Kind: KindLight},
	{Name: "winter", Label: "Winter", Kind: KindLight},
	{Name: "dark", Label: "Dark", Kind: KindDark},
	{Name: "synthwave", Label: "Synthwave", Kind: KindDark},
	{Name: "cyberpunk", Label: "Cyberpunk", Kind: KindDark},
	{Name: "dracula", Label: "Dracula", Kind: KindDark},
	{Name: "night", Label: "Night", Kind: KindDark},
	{Name: "forest", Label: "Forest", Kind: KindDark},
	{Name: "luxury", Label: "Luxury", Kind: KindDark},
	{Name: "coffee", Label: "Coffee", Kind: KindDark},
}

// All returns every theme, light ones first.
func All() []Theme {
	return append([]Theme(nil), catalog...)
}

// ByKind returns the themes of one kind.
func ByKind(kind Kind) []Theme {
	var out []Theme
	for _, t := range catalog {
		if t.Kind == kind {
			out = append(out, t)
		}
	}
	return out
}

// Lookup finds a theme by name.
func Lookup(name string) (Theme, bool) {
	for _, t := range catalog {
		if t.Name == name {
			return t, true
		}
	}
	return Theme{}, false
}

// Attributes is what the root <html> element needs to render a theme.
type Attributes struct {
	DataTheme string
	Dark      bool
}

// HTML renders the attributes for the root element.
func (a Attributes) HTML() template.HTMLAttr {
	attr := fmt.Sprintf(`data-theme="%s"`, template.HTMLEscapeString(a.DataTheme))
	if a.Dark {
		attr += ` class="dark"`
	}
	return template.HTMLAttr(attr)
}

// RootAttributes returns the root element attributes for name, falling back
// to the default theme for unknown names.
func RootAttributes(name string) Attributes {
	t, ok := Lookup(name)
	if !ok {
		t, _ = Lookup(Default)
	}
	return Attributes{DataTheme: t.Name, Dark: t.Dark()}
}

// KV is the persistent key/value store a preference lives in. A session
// satisfies it.
type KV interface {
	Get(key string) string
	Set(key, value string)
}

type persisted struct {
	State struct {
		Theme string `json:"theme"`
	} `json:"state"`
	Version int `json:"version"`
}

// Store reads and writes the theme preference.
type Store struct {
	kv KV
}

// NewStore binds a Store to kv.
func NewStore(kv KV) *Store {
	return &Store{kv: kv}
}

// Current returns the persisted theme, or the default when nothing valid was
// stored.
func (s *Store) Current() Theme {
	def, _ := Lookup(Default)
	if s == nil || s.kv == nil {
		return def
	}
	raw := s.kv.Get(StorageKey)
	if raw == "" {
		return def
	}
	var p persisted
	if err := json.Unmarshal([]byte(raw), &p); err != nil {
		return def
	}
	if t, ok := Lookup(p.State.Theme); ok {
		return t
	}
	return def
}

// Set validates and persists name.
func (s *Store) Set(name string) (Theme, error) {
	t, ok := Lookup(name)
	if !ok {
		return Theme{}, fmt.Errorf("%w: %q", ErrUnknownTheme, name)
	}
	var p persisted
	p.State.Theme = t.Name
	raw, err := json.Marshal(p)
	if err != nil {
		return Theme{}, err
	}
	s.kv.Set(StorageKey, string(raw))
	return t, nil
}
