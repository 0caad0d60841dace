package theme

import (
	"errors"
	"fmt"
	"sync"

	"github.com/charmbracelet/lipgloss"
)

// ErrUnknownTheme is returned by Apply for a key outside Palettes.
var ErrUnknownTheme = errors.New("unknown theme")

// Palette is a named pair of primary and accent colors.
type Palette struct {
	Key     string
	Name    string
	Primary string
	Accent  string
}

// Palettes lists the selectable themes in display order.
var Palettes = []Palette{
	{Key: "indigo", Name: "Indigo", Primary: "#6366F1", Accent: "#F59E0B"},
	{Key: "blue", Name: "Ocean Blue", Primary: "#3B82F6", Accent: "#10B981"},
	{Key: "purple", Name: "Royal Purple", Primary: "#8B5CF6", Accent: "#F59E0B"},
	{Key: "pink", Name: "Rose Pink", Primary: "#EC4899", Accent: "#06B6D4"},
	{Key: "green", Name: "Forest Green", Primary: "#10B981", Accent: "#F59E0B"},
	{Key: "orange", Name: "Sunset Orange", Primary: "#F97316", Accent: "#8B5CF6"},
	{Key: "red", Name: "Cherry Red", Primary: "#EF4444", Accent: "#10B981"},
	{Key: "teal", Name: "Ocean Teal", Primary: "#14B8A6", Accent: "#F59E0B"},
}

// Lookup returns the palette for key.
func Lookup(key string) (Palette, bool) {
	for _, p := range Palettes {
		if p.Key == key {
			return p, true
		}
	}
	return Palette{}, false
}

// Persister stores the applied theme key.
type Persister interface {
	SaveTheme(key string) error
}

// Styles are the palette-dependent styles.
type Styles struct {
	Header    lipgloss.Style
	Tab       lipgloss.Style
	ActiveTab lipgloss.Style
	Selected  lipgloss.Style
	Accent    lipgloss.Style
	Today     lipgloss.Style
	Panel     lipgloss.Style
}

func newStyles(p Palette) Styles {
	primary := lipgloss.Color(p.Primary)
	accent := lipgloss.Color(p.Accent)

	return Styles{
		Header: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FFFFFF")).
			Background(primary).
			Padding(0, 1),
		Tab: lipgloss.NewStyle().
			Foreground(ColorGray).
			Padding(0, 2),
		ActiveTab: lipgloss.NewStyle().
			Bold(true).
			Foreground(primary).
			Padding(0, 2).
			Border(lipgloss.NormalBorder(), false, false, true, false).
			BorderForeground(primary),
		Selected: lipgloss.NewStyle().
			PaddingLeft(1).
			Bold(true).
			Foreground(primary).
			Border(lipgloss.NormalBorder(), false, false, false, true).
			BorderForeground(primary),
		Accent: lipgloss.NewStyle().
			Bold(true).
			Foreground(accent),
		Today: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FFFFFF")).
			Background(primary),
		Panel: lipgloss.NewStyle().
			Padding(1, 2).
			Border(lipgloss.RoundedBorder()).
			BorderForeground(primary),
	}
}

// Context is the theme handed to every view. It is safe for concurrent use.
type Context struct {
	persist Persister

	mu      sync.RWMutex
	palette Palette
	styles  Styles
}

// NewContext starts with key, or the first palette when key is unknown.
// persist may be nil.
func NewContext(key string, persist Persister) *Context {
	p, ok := Lookup(key)
	if !ok {
		p = Palettes[0]
	}
	return &Context{persist: persist, palette: p, styles: newStyles(p)}
}

// Apply switches to the palette for key and persists the key. When
// persisting fails the new colors stay applied and the error is
// returned.
func (c *Context) Apply(key string) error {
	p, ok := Lookup(key)
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownTheme, key)
	}

	c.mu.Lock()
	c.palette = p
	c.styles = newStyles(p)
	c.mu.Unlock()

	if c.persist == nil {
		return nil
	}
	if err := c.persist.SaveTheme(key); err != nil {
		return fmt.Errorf("saving theme %q: %w", key, err)
	}
	return nil
}

// Palette returns the applied palette.
func (c *Context) Palette() Palette {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.palette
}

// Styles returns the styles of the applied palette.
func (c *Context) Styles() Styles {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.styles
}
