package fonts

import (
	"errors"
	"image/color"
	"math"
	"slices"
	"testing"

	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/gomono"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/sfnt"
)

func newTestRegistry(t *testing.T) *Registry {
	t.Helper()
	b := NewBuilder()
	if err := RegisterBundled(b); err != nil {
		t.Fatalf("RegisterBundled: %v", err)
	}
	return b.Freeze()
}

func TestNewResource(t *testing.T) {
	r, err := NewResource(goregular.TTF, "", SansSerif)
	if err != nil {
		t.Fatalf("NewResource: %v", err)
	}
	if r.Family() != "Go" {
		t.Errorf("Family() = %q, want %q", r.Family(), "Go")
	}
	if r.Name() != "Go" {
		t.Errorf("Name() = %q, want family name as fallback", r.Name())
	}
	if r.Weight() != 400 {
		t.Errorf("Weight() = %d, want 400", r.Weight())
	}
	m := r.Metrics()
	if m.UnitsPerEm <= 0 || m.Ascent <= 0 || m.Descent <= 0 {
		t.Errorf("Metrics() = %+v", m)
	}
	if r.HasColor() {
		t.Error("HasColor() = true for an outline font")
	}

	bold, err := NewResource(gobold.TTF, "Go Bold", GenericNone)
	if err != nil {
		t.Fatalf("NewResource(bold): %v", err)
	}
	if bold.Weight() != 700 {
		t.Errorf("bold Weight() = %d, want 700", bold.Weight())
	}
}

func TestNewResource_Invalid(t *testing.T) {
	tests := []struct {
		name string
		data []byte
	}{
		{"empty", nil},
		{"garbage", []byte("definitely not a font file")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewResource(tt.data, "broken", SansSerif)
			var le *LoadError
			if !errors.As(err, &le) {
				t.Fatalf("err = %v, want *LoadError", err)
			}
			if le.Name != "broken" {
				t.Errorf("LoadError.Name = %q", le.Name)
			}
		})
	}

	_, err := NewResource(nil, "", SansSerif)
	if !errors.Is(err, ErrEmptyFontData) {
		t.Errorf("err = %v, want ErrEmptyFontData", err)
	}
}

func TestBuilder_Frozen(t *testing.T) {
	b := NewBuilder()
	b.Freeze()
	if _, err := b.Register(goregular.TTF, "late", SansSerif); !errors.Is(err, ErrRegistryFrozen) {
		t.Errorf("Register after Freeze: err = %v, want ErrRegistryFrozen", err)
	}
}

func TestBuilder_LastRegisteredIsPrimary(t *testing.T) {
	b := NewBuilder()
	first, err := b.Register(gomono.TTF, "first", SansSerif)
	if err != nil {
		t.Fatal(err)
	}
	second, err := b.Register(goregular.TTF, "second", SansSerif)
	if err != nil {
		t.Fatal(err)
	}
	reg := b.Freeze()

	got := reg.Generic(SansSerif)
	if len(got) != 2 || got[0] != second || got[1] != first {
		t.Errorf("Generic(SansSerif) = %v, want [second first]", names(got))
	}
}

func names(list []*Resource) []string {
	out := make([]string, len(list))
	for i, r := range list {
		out[i] = r.Name()
	}
	return out
}

func TestRegistry_Resolve(t *testing.T) {
	reg := newTestRegistry(t)

	tests := []struct {
		family string
		weight int
		want   string
	}{
		{"sans-serif", 400, "Go"},
		{"sans-serif", 700, "Go Bold"},
		{"monospace", 400, "Go Mono"},
		{"mono", 700, "Go Mono Bold"},
		{"Inter", 400, "Go"},
		{"Go Mono", 400, "Go Mono"},
		{`"Go Mono", sans-serif`, 400, "Go Mono"},
		{"Unknown, monospace", 400, "Go Mono"},
		{"", 400, "Go"},
	}
	for _, tt := range tests {
		t.Run(tt.family, func(t *testing.T) {
			c := reg.Resolve(tt.family, tt.weight)
			p := c.Primary()
			if p == nil {
				t.Fatal("Primary() = nil")
			}
			if p.Name() != tt.want {
				t.Errorf("Resolve(%q, %d).Primary() = %q, want %q (chain %v)",
					tt.family, tt.weight, p.Name(), tt.want, names(c.Fonts()))
			}
		})
	}
}

func TestRegistry_ResolveNamedBeforeGeneric(t *testing.T) {
	reg := newTestRegistry(t)
	c := reg.Resolve("Go Mono", 400)
	got := names(c.Fonts())
	if len(got) < 2 || got[0] != "Go Mono" {
		t.Fatalf("chain = %v, want Go Mono first", got)
	}
	idx := slices.Index(got, "Go")
	if idx <= 0 {
		t.Errorf("chain = %v, want the sans-serif fallback after the named font", got)
	}
}

func TestClass(t *testing.T) {
	tests := map[string]Generic{
		"monospace":  Monospace,
		"Mono":       Monospace,
		"emoji":      Emoji,
		"sans-serif": SansSerif,
		"serif":      SansSerif,
		"Inter":      SansSerif,
	}
	for in, want := range tests {
		if got := Class(in); got != want {
			t.Errorf("Class(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestParseGeneric(t *testing.T) {
	tests := map[string]Generic{
		"":           GenericNone,
		"sans-serif": SansSerif,
		"Monospace":  Monospace,
		" emoji ":    Emoji,
	}
	for in, want := range tests {
		got, err := ParseGeneric(in)
		if err != nil || got != want {
			t.Errorf("ParseGeneric(%q) = %v, %v, want %v", in, got, err, want)
		}
	}
	for _, in := range []string{"serif", "mono", "Inter", "cursive"} {
		if _, err := ParseGeneric(in); err == nil {
			t.Errorf("ParseGeneric(%q) succeeded, want error", in)
		}
	}
}

func TestChain_For(t *testing.T) {
	reg := newTestRegistry(t)
	c := reg.Resolve("sans-serif", 400)

	if r := c.For('A'); r == nil || r.Name() != "Go" {
		t.Errorf("For('A') = %v, want Go", r)
	}
	// The Go fonts have no CJK coverage.
	if r := c.For('中'); r != nil {
		t.Errorf("For('中') = %q, want nil", r.Name())
	}
	if r := (Chain{}).For('A'); r != nil {
		t.Error("empty chain resolved a font")
	}
}

func TestShape(t *testing.T) {
	reg := newTestRegistry(t)
	c := reg.Resolve("sans-serif", 400)

	s := Shape(c, "Hello", 32)
	if len(s.Glyphs) != 5 {
		t.Fatalf("len(Glyphs) = %d, want 5", len(s.Glyphs))
	}
	for i, g := range s.Glyphs {
		if g.Font == nil || g.Missing || g.GID == 0 {
			t.Errorf("glyph %d = %+v, want a resolved glyph", i, g)
		}
		if g.Cluster != i {
			t.Errorf("glyph %d Cluster = %d", i, g.Cluster)
		}
	}
	if w := s.Width(); w <= 0 || w > 5*32 {
		t.Errorf("Width() = %v", w)
	}

	// Width scales linearly with size.
	s2 := Shape(c, "Hello", 64)
	if math.Abs(s2.Width()-2*s.Width()) > 1 {
		t.Errorf("Width at 64 = %v, want ~%v", s2.Width(), 2*s.Width())
	}
}

func TestShape_ControlAndMissing(t *testing.T) {
	reg := newTestRegistry(t)
	c := reg.Resolve("sans-serif", 400)

	s := Shape(c, "a\n中", 20)
	if len(s.Glyphs) != 3 {
		t.Fatalf("len(Glyphs) = %d, want 3", len(s.Glyphs))
	}
	if !s.Glyphs[1].IsControl() || s.Glyphs[1].Advance != 0 {
		t.Errorf("newline glyph = %+v, want zero-width control", s.Glyphs[1])
	}
	miss := s.Glyphs[2]
	if !miss.Missing || miss.Advance != 20*MissingAdvance {
		t.Errorf("CJK glyph = %+v, want missing box", miss)
	}
	if s.Text[miss.Cluster] != '中' {
		t.Errorf("missing cluster points at %q", s.Text[miss.Cluster])
	}
}

func TestShape_Empty(t *testing.T) {
	reg := newTestRegistry(t)
	s := Shape(reg.Resolve("", 400), "", 16)
	if len(s.Glyphs) != 0 || s.Width() != 0 {
		t.Errorf("Shape(\"\") = %+v", s)
	}
}

func TestResource_Outline(t *testing.T) {
	r, err := NewResource(goregular.TTF, "Go", SansSerif)
	if err != nil {
		t.Fatal(err)
	}
	gid, ok := r.GlyphIndex('O')
	if !ok {
		t.Fatal("no glyph for 'O'")
	}
	var buf sfnt.Buffer
	segs, err := r.Outline(&buf, gid, 100)
	if err != nil {
		t.Fatalf("Outline: %v", err)
	}
	if len(segs) == 0 {
		t.Fatal("no segments for 'O'")
	}
	// Glyph outlines sit above the baseline, which is y < 0 in the
	// y-down space.
	var minY float64
	for _, s := range segs {
		minY = math.Min(minY, float64(s.Args[0].Y)/64)
	}
	if minY > -50 {
		t.Errorf("top of 'O' at y=%v, want well above baseline", minY)
	}
}

func TestBundledEmoji(t *testing.T) {
	r, err := NewResource(emojiTTF, "", Emoji)
	if err != nil {
		t.Fatalf("NewResource: %v", err)
	}
	if r.Family() != "Ogimage Emoji" {
		t.Errorf("Family() = %q", r.Family())
	}
	if !r.HasColor() {
		t.Fatal("HasColor() = false")
	}

	gid, ok := r.GlyphIndex('\U0001F600')
	if !ok {
		t.Fatal("no glyph for U+1F600")
	}
	layers := r.ColorLayers(gid)
	if len(layers) != 3 {
		t.Fatalf("ColorLayers(face) = %d layers, want 3", len(layers))
	}
	if want := (color.NRGBA{0xFF, 0xCC, 0x4D, 0xFF}); layers[0].Color != want {
		t.Errorf("face color = %v, want %v", layers[0].Color, want)
	}
	var buf sfnt.Buffer
	for _, l := range layers {
		segs, err := r.Outline(&buf, l.GlyphID, 64)
		if err != nil || len(segs) == 0 {
			t.Errorf("layer %d outline: %d segments, err %v", l.GlyphID, len(segs), err)
		}
	}

	for _, ch := range []rune{'❤', '\U0001F680', '\U0001F1FA', '⭐', '\U0001FAE0'} {
		g, ok := r.GlyphIndex(ch)
		if !ok || len(r.ColorLayers(g)) == 0 {
			t.Errorf("U+%04X: no color glyph", ch)
		}
	}
	for _, ch := range []rune{'\u200D', '\uFE0F', '\U0001F3FD'} {
		if !r.Covers(ch) {
			t.Errorf("U+%04X not covered", ch)
		}
	}
	if r.Covers('A') {
		t.Error("emoji font covers 'A'")
	}
}

func TestBundled_EmojiChain(t *testing.T) {
	reg := newTestRegistry(t)
	emoji := reg.Generic(Emoji)
	if len(emoji) == 0 || emoji[len(emoji)-1].Name() != "Ogimage Emoji" {
		t.Fatalf("Generic(Emoji) = %v, want the compiled-in font as last fallback", names(emoji))
	}

	c := reg.Resolve("sans-serif", 400)
	s := Shape(c, "hi 😀", 32)
	last := s.Glyphs[len(s.Glyphs)-1]
	if last.Font == nil || last.Font.Generic() != Emoji || last.Missing {
		t.Fatalf("emoji glyph = %+v, want the emoji font", last)
	}
	if math.Abs(last.Advance-32) > 0.5 {
		t.Errorf("emoji advance = %v, want one em", last.Advance)
	}
	if s.Glyphs[0].Font.Generic() != SansSerif {
		t.Errorf("'h' drawn from %q", s.Glyphs[0].Font.Name())
	}

	// The whole family sequence stays in the emoji font.
	s = Shape(c, "\U0001F468\u200D\U0001F469\u200D\U0001F467", 32)
	colored := 0
	for _, g := range s.Glyphs {
		if g.Font == nil || g.Font.Generic() != Emoji || g.Missing {
			t.Errorf("glyph %+v not from the emoji font", g)
			continue
		}
		if len(g.Font.ColorLayers(g.GID)) > 0 {
			colored++
		}
	}
	if colored != 3 {
		t.Errorf("colored glyphs = %d, want 3", colored)
	}
}
