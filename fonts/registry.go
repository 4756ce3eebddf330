package fonts

import (
	"fmt"
	"slices"
	"strings"
	"sync"
)

// Generic is a generic font family with its own fallback chain.
type Generic uint8

const (
	// GenericNone marks a font reachable only by name.
	GenericNone Generic = iota
	SansSerif
	Monospace
	Emoji

	numGenerics
)

// String returns the CSS keyword of the generic family.
func (g Generic) String() string {
	switch g {
	case SansSerif:
		return "sans-serif"
	case Monospace:
		return "monospace"
	case Emoji:
		return "emoji"
	default:
		return "none"
	}
}

// Class maps a family name to the generic family used as its fallback.
// Any name that is not monospace or emoji falls back to sans-serif.
func Class(family string) Generic {
	switch normalizeName(family) {
	case "monospace", "mono", "ui-monospace":
		return Monospace
	case "emoji", "color-emoji":
		return Emoji
	default:
		return SansSerif
	}
}

// ParseGeneric parses the generic family a registered font belongs to.
// The empty string is GenericNone.
func ParseGeneric(s string) (Generic, error) {
	switch normalizeName(s) {
	case "":
		return GenericNone, nil
	case "sans-serif":
		return SansSerif, nil
	case "monospace":
		return Monospace, nil
	case "emoji":
		return Emoji, nil
	}
	return GenericNone, fmt.Errorf("fonts: unknown generic family %q: want sans-serif, monospace or emoji", s)
}

func isGenericName(name string) bool {
	switch normalizeName(name) {
	case "sans-serif", "serif", "system-ui", "ui-sans-serif", "ui-serif",
		"monospace", "mono", "ui-monospace", "emoji", "color-emoji":
		return true
	}
	return false
}

func normalizeName(name string) string {
	return strings.ToLower(strings.Trim(strings.TrimSpace(name), `"'`))
}

// Builder accumulates font resources. It is append-only; Freeze hands the
// result to renders as a read-only Registry.
type Builder struct {
	mu       sync.Mutex
	frozen   bool
	all      []*Resource
	byName   map[string][]*Resource
	generics [numGenerics][]*Resource
}

// NewBuilder returns an empty builder.
func NewBuilder() *Builder {
	return &Builder{byName: make(map[string][]*Resource)}
}

// Register parses data and adds it under name and its family name.
//
// When generic is set the font becomes the primary of that generic family;
// fonts registered earlier for the same family remain as fallbacks behind it.
func (b *Builder) Register(data []byte, name string, generic Generic) (*Resource, error) {
	r, err := NewResource(data, name, generic)
	if err != nil {
		return nil, err
	}
	if err := b.Add(r); err != nil {
		return nil, err
	}
	return r, nil
}

// Add registers an already parsed resource.
func (b *Builder) Add(r *Resource) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.frozen {
		return ErrRegistryFrozen
	}

	b.all = append(b.all, r)
	for _, key := range []string{normalizeName(r.name), normalizeName(r.family)} {
		if key == "" || slices.Contains(b.byName[key], r) {
			continue
		}
		b.byName[key] = append(b.byName[key], r)
	}
	if r.generic != GenericNone && r.generic < numGenerics {
		b.generics[r.generic] = append([]*Resource{r}, b.generics[r.generic]...)
	}

	logger().Debug("fonts: registered",
		"name", r.name, "family", r.family, "weight", r.weight,
		"generic", r.generic.String(), "color", r.HasColor())
	return nil
}

// Freeze returns the read-only registry. Later Register calls fail.
func (b *Builder) Freeze() *Registry {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.frozen = true
	reg := &Registry{
		all:    slices.Clone(b.all),
		byName: make(map[string][]*Resource, len(b.byName)),
	}
	for k, v := range b.byName {
		reg.byName[k] = slices.Clone(v)
	}
	for g := range b.generics {
		reg.generics[g] = slices.Clone(b.generics[g])
	}
	return reg
}

// Registry is a frozen set of fonts. It is safe for concurrent use.
type Registry struct {
	all      []*Resource
	byName   map[string][]*Resource
	generics [numGenerics][]*Resource
}

// Extend returns a builder holding every font of r, so more fonts can be
// layered on top without touching r.
func (r *Registry) Extend() *Builder {
	b := NewBuilder()
	for _, res := range r.all {
		// b is fresh and unfrozen.
		_ = b.Add(res)
	}
	return b
}

// Resources returns every registered font in registration order.
func (r *Registry) Resources() []*Resource { return slices.Clone(r.all) }

// Lookup returns the fonts registered under name, case-insensitively.
func (r *Registry) Lookup(name string) []*Resource {
	return slices.Clone(r.byName[normalizeName(name)])
}

// Generic returns the fallback chain of g, primary first.
func (r *Registry) Generic(g Generic) []*Resource {
	if g >= numGenerics {
		return nil
	}
	return slices.Clone(r.generics[g])
}

// Resolve builds the fallback chain for a CSS font-family list at weight.
//
// The chain holds the named fonts in list order, then the generic family
// matching the list (sans-serif unless it names monospace or emoji), then
// the emoji family. Each group is ordered by distance to weight; ties keep
// registration priority.
func (r *Registry) Resolve(family string, weight int) Chain {
	var list []*Resource
	class := SansSerif
	classSet := false

	for _, name := range strings.Split(family, ",") {
		if normalizeName(name) == "" {
			continue
		}
		if isGenericName(name) {
			if !classSet {
				class, classSet = Class(name), true
			}
			continue
		}
		list = append(list, byWeight(r.Lookup(name), weight)...)
	}
	list = append(list, byWeight(r.generics[class], weight)...)
	list = append(list, byWeight(r.generics[Emoji], weight)...)
	return NewChain(list...)
}

func byWeight(list []*Resource, weight int) []*Resource {
	out := slices.Clone(list)
	slices.SortStableFunc(out, func(a, b *Resource) int {
		return weightDistance(a.weight, weight) - weightDistance(b.weight, weight)
	})
	return out
}

func weightDistance(a, b int) int {
	if a > b {
		return a - b
	}
	return b - a
}
