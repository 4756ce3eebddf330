package layout

import (
	"bytes"
	"errors"
	"image"
	"image/png"
	"strings"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/gogpu/ogimage/fonts"
	"github.com/gogpu/ogimage/node"
)

var (
	regOnce sync.Once
	testReg *fonts.Registry
)

func registry(t *testing.T) *fonts.Registry {
	t.Helper()
	regOnce.Do(func() {
		b := fonts.NewBuilder()
		if err := fonts.RegisterBundled(b); err != nil {
			t.Fatalf("RegisterBundled: %v", err)
		}
		testReg = b.Freeze()
	})
	return testReg
}

var approx = cmpopts.EquateApprox(0, 1e-6)

func box(w, h float64, children ...node.Node) *node.Container {
	c := node.NewContainer(children...)
	if w >= 0 {
		c.Style.Width = node.Px(w)
	}
	if h >= 0 {
		c.Style.Height = node.Px(h)
	}
	return c
}

func compute(t *testing.T, root node.Node, w, h int) *Positioned {
	t.Helper()
	p, err := Compute(root, Viewport{Width: w, Height: h}, registry(t))
	if err != nil {
		t.Fatalf("Compute: %v", err)
	}
	return p
}

func boxes(p *Positioned) []Rect {
	var out []Rect
	p.Walk(func(q *Positioned) bool {
		out = append(out, q.Box)
		return true
	})
	return out
}

func TestCompute_RootSizing(t *testing.T) {
	root := box(-1, -1)
	root.Style.Padding = node.Uniform(node.Px(10))

	p := compute(t, root, 300, 200)
	want := Rect{Width: 300, Height: 20}
	if diff := cmp.Diff(want, p.Box, approx); diff != "" {
		t.Errorf("root box mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(Rect{X: 10, Y: 10, Width: 280}, p.Content, approx); diff != "" {
		t.Errorf("root content mismatch (-want +got):\n%s", diff)
	}
}

func TestCompute_RowFixedChildren(t *testing.T) {
	root := box(400, 100, box(50, 20), box(70, 30))
	root.Style.Gap = 10
	root.Style.AlignItems = node.AlignStart

	got := boxes(compute(t, root, 400, 100))
	want := []Rect{
		{Width: 400, Height: 100},
		{X: 0, Y: 0, Width: 50, Height: 20},
		{X: 60, Y: 0, Width: 70, Height: 30},
	}
	if diff := cmp.Diff(want, got, approx); diff != "" {
		t.Errorf("boxes mismatch (-want +got):\n%s", diff)
	}
}

func TestCompute_Justify(t *testing.T) {
	tests := []struct {
		justify node.Justify
		xs      []float64
	}{
		{node.JustifyStart, []float64{0, 20}},
		{node.JustifyCenter, []float64{40, 60}},
		{node.JustifyEnd, []float64{80, 100}},
		{node.JustifySpaceBetween, []float64{0, 100}},
		{node.JustifySpaceAround, []float64{20, 80}},
		{node.JustifySpaceEvenly, []float64{80.0 / 3, 160.0/3 + 20}},
	}
	for _, tt := range tests {
		root := box(120, 20, box(20, 20), box(20, 20))
		root.Style.JustifyContent = tt.justify
		p := compute(t, root, 120, 20)
		got := []float64{p.Children[0].Box.X, p.Children[1].Box.X}
		if diff := cmp.Diff(tt.xs, got, approx); diff != "" {
			t.Errorf("justify %d mismatch (-want +got):\n%s", tt.justify, diff)
		}
	}
}

func TestCompute_AlignItems(t *testing.T) {
	tests := []struct {
		align node.Align
		y, h  float64
	}{
		{node.AlignStretch, 0, 100},
		{node.AlignStart, 0, 0},
		{node.AlignCenter, 50, 0},
		{node.AlignEnd, 100, 0},
	}
	for _, tt := range tests {
		child := box(30, -1)
		root := box(100, 100, child)
		root.Style.AlignItems = tt.align
		p := compute(t, root, 100, 100)
		c := p.Children[0].Box
		if diff := cmp.Diff([]float64{tt.y, tt.h}, []float64{c.Y, c.Height}, approx); diff != "" {
			t.Errorf("align %d mismatch (-want +got):\n%s", tt.align, diff)
		}
	}
}

func TestCompute_FlexGrow(t *testing.T) {
	a, b := box(-1, 10), box(-1, 10)
	a.Style.FlexGrow = 1
	b.Style.FlexGrow = 3
	root := box(400, 10, a, b)

	p := compute(t, root, 400, 10)
	got := []Rect{p.Children[0].Box, p.Children[1].Box}
	want := []Rect{{Width: 100, Height: 10}, {X: 100, Width: 300, Height: 10}}
	if diff := cmp.Diff(want, got, approx); diff != "" {
		t.Errorf("grow mismatch (-want +got):\n%s", diff)
	}
}

func TestCompute_FlexShrink(t *testing.T) {
	a, b := box(80, 10), box(120, 10)
	b.Style.FlexShrink = 0
	root := box(150, 10, a, b)

	p := compute(t, root, 150, 10)
	if got := p.Children[0].Box.Width; got != 30 {
		t.Errorf("shrinkable width = %v, want 30", got)
	}
	if got := p.Children[1].Box.Width; got != 120 {
		t.Errorf("rigid width = %v, want 120", got)
	}
}

func TestCompute_ShrinkRespectsMinWidth(t *testing.T) {
	a, b := box(100, 10), box(100, 10)
	a.Style.MinWidth = node.Px(90)
	root := box(120, 10, a, b)

	p := compute(t, root, 120, 10)
	if got := p.Children[0].Box.Width; got != 90 {
		t.Errorf("min-clamped width = %v, want 90", got)
	}
	if got := p.Children[1].Box.Width; got != 30 {
		t.Errorf("remaining width = %v, want 30", got)
	}
}

func TestCompute_Percentages(t *testing.T) {
	half := box(-1, -1)
	half.Style.Width = node.Percent(50)
	half.Style.Height = node.Percent(25)
	root := box(200, 400, half)
	root.Style.AlignItems = node.AlignStart

	p := compute(t, root, 200, 400)
	if diff := cmp.Diff(Rect{Width: 100, Height: 100}, p.Children[0].Box, approx); diff != "" {
		t.Errorf("percent box mismatch (-want +got):\n%s", diff)
	}

	// A percentage of an auto height resolves to 0.
	inner := box(-1, -1)
	inner.Style.Height = node.Percent(50)
	auto := box(100, -1, inner)
	auto.Style.AlignItems = node.AlignStart
	outer := box(200, 200, auto)
	outer.Style.AlignItems = node.AlignStart
	p = compute(t, outer, 200, 200)
	if got := p.Children[0].Children[0].Box.Height; got != 0 {
		t.Errorf("percent of indefinite height = %v, want 0", got)
	}
}

func TestCompute_ColumnStretchAndPadding(t *testing.T) {
	child := box(-1, 40)
	root := box(300, 200, child, box(-1, 20))
	root.Style.FlexDirection = node.Column
	root.Style.Padding = node.Edges{Top: node.Px(5), Right: node.Px(10), Bottom: node.Px(5), Left: node.Px(20)}
	root.Style.Border = node.Border{Width: 2}

	p := compute(t, root, 300, 200)
	want := []Rect{
		{Width: 300, Height: 200},
		{X: 22, Y: 7, Width: 266, Height: 40},
		{X: 22, Y: 47, Width: 266, Height: 20},
	}
	if diff := cmp.Diff(want, boxes(p), approx); diff != "" {
		t.Errorf("boxes mismatch (-want +got):\n%s", diff)
	}
}

func TestCompute_ColumnGrow(t *testing.T) {
	header, body := box(-1, 50), box(-1, -1)
	body.Style.FlexGrow = 1
	root := box(100, 300, header, body)
	root.Style.FlexDirection = node.Column

	p := compute(t, root, 100, 300)
	if diff := cmp.Diff(Rect{Y: 50, Width: 100, Height: 250}, p.Children[1].Box, approx); diff != "" {
		t.Errorf("grown box mismatch (-want +got):\n%s", diff)
	}
}

func TestCompute_AutoSizeFitsContent(t *testing.T) {
	inner := box(-1, -1, box(40, 30), box(60, 10))
	inner.Style.AlignItems = node.AlignStart
	root := box(500, 500, inner)
	root.Style.AlignItems = node.AlignStart

	p := compute(t, root, 500, 500)
	if diff := cmp.Diff(Rect{Width: 100, Height: 30}, p.Children[0].Box, approx); diff != "" {
		t.Errorf("auto box mismatch (-want +got):\n%s", diff)
	}
	if p.Children[0].Clip {
		t.Error("auto-sized container should not clip")
	}
	if !p.Clip {
		t.Error("explicitly sized root should clip")
	}
}

func TestCompute_MinMax(t *testing.T) {
	c := box(-1, -1)
	c.Style.MinHeight = node.Px(40)
	c.Style.MaxWidth = node.Px(60)
	c.Style.FlexGrow = 1
	root := box(200, 100, c)
	root.Style.AlignItems = node.AlignStart

	p := compute(t, root, 200, 100)
	if diff := cmp.Diff(Rect{Width: 60, Height: 40}, p.Children[0].Box, approx); diff != "" {
		t.Errorf("clamped box mismatch (-want +got):\n%s", diff)
	}
}

func TestCompute_Margins(t *testing.T) {
	c := box(50, 50)
	c.Style.Margin = node.Edges{Top: node.Px(5), Left: node.Percent(10)}
	root := box(200, 100, c)
	root.Style.AlignItems = node.AlignStart

	p := compute(t, root, 200, 100)
	if diff := cmp.Diff(Rect{X: 20, Y: 5, Width: 50, Height: 50}, p.Children[0].Box, approx); diff != "" {
		t.Errorf("margin box mismatch (-want +got):\n%s", diff)
	}
}

func TestCompute_PaintOrder(t *testing.T) {
	root := box(100, 100,
		box(10, 10, box(5, 5), box(5, 5)),
		box(10, 10),
	)
	p := compute(t, root, 100, 100)

	var orders []int
	p.Walk(func(q *Positioned) bool {
		orders = append(orders, q.Order)
		return true
	})
	if diff := cmp.Diff([]int{0, 1, 2, 3, 4}, orders); diff != "" {
		t.Errorf("paint order mismatch (-want +got):\n%s", diff)
	}
}

func TestCompute_TextWrapsInNarrowViewport(t *testing.T) {
	txt := node.NewText(strings.Repeat("The quick brown fox jumps over the lazy dog. ", 4))
	txt.Style.Font.Size = 20
	root := node.NewContainer(txt)

	p := compute(t, root, 200, 100)
	tp := p.Children[0]
	if len(tp.Lines) < 2 {
		t.Fatalf("got %d lines, want wrapping", len(tp.Lines))
	}
	for i, l := range tp.Lines {
		if l.Width > 200+epsilon {
			t.Errorf("line %d width %v exceeds viewport", i, l.Width)
		}
	}
	lh := 20 * node.DefaultLineHeight
	if want := float64(len(tp.Lines)) * lh; tp.Box.Height < want-epsilon {
		t.Errorf("text height %v, want %v", tp.Box.Height, want)
	}
	if tp.Box.Width > 200 {
		t.Errorf("text width %v exceeds viewport", tp.Box.Width)
	}
	for i := 1; i < len(tp.Lines); i++ {
		if d := tp.Lines[i].Baseline - tp.Lines[i-1].Baseline; d < lh-epsilon || d > lh+epsilon {
			t.Errorf("baseline step %v, want %v", d, lh)
		}
	}
}

func TestCompute_TextHardBreaks(t *testing.T) {
	txt := node.NewText("one\ntwo\n\nfour")
	p := compute(t, box(1000, 1000, txt), 1000, 1000)
	if got := len(p.Children[0].Lines); got != 4 {
		t.Errorf("got %d lines, want 4", got)
	}
}

func TestCompute_TextAlign(t *testing.T) {
	left := node.NewText("Hi")
	center := node.NewText("Hi")
	center.Style.Font.Align = node.TextAlignCenter
	right := node.NewText("Hi")
	right.Style.Font.Align = node.TextAlignRight

	root := box(300, 300, left, center, right)
	root.Style.FlexDirection = node.Column

	p := compute(t, root, 300, 300)
	l, c, r := p.Children[0].Lines[0], p.Children[1].Lines[0], p.Children[2].Lines[0]
	if l.X != 0 {
		t.Errorf("left X = %v, want 0", l.X)
	}
	if want := (300 - c.Width) / 2; c.X < want-epsilon || c.X > want+epsilon {
		t.Errorf("center X = %v, want %v", c.X, want)
	}
	if want := 300 - r.Width; r.X < want-epsilon || r.X > want+epsilon {
		t.Errorf("right X = %v, want %v", r.X, want)
	}
}

func pngData(t *testing.T, w, h int) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, image.NewNRGBA(image.Rect(0, 0, w, h))); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func TestCompute_ImageIntrinsicSize(t *testing.T) {
	data := pngData(t, 40, 20)

	natural := node.NewImage(data)
	scaled := node.NewImage(data)
	scaled.Style.Width = node.Px(100)
	root := box(500, 500, natural, scaled)
	root.Style.AlignItems = node.AlignStart

	p := compute(t, root, 500, 500)
	if diff := cmp.Diff(Rect{Width: 40, Height: 20}, p.Children[0].Box, approx); diff != "" {
		t.Errorf("natural image mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(Rect{X: 40, Width: 100, Height: 50}, p.Children[1].Box, approx); diff != "" {
		t.Errorf("scaled image mismatch (-want +got):\n%s", diff)
	}
}

func TestCompute_ImageFromResources(t *testing.T) {
	img := &node.Image{Style: node.DefaultStyle(), Src: "logo"}
	root := box(500, 500, img)
	root.Style.AlignItems = node.AlignStart

	p, err := Compute(root, Viewport{Width: 500, Height: 500}, registry(t),
		WithResources(map[string][]byte{"logo": pngData(t, 8, 6)}))
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(Rect{Width: 8, Height: 6}, p.Children[0].Box, approx); diff != "" {
		t.Errorf("resource image mismatch (-want +got):\n%s", diff)
	}
}

func TestCompute_Errors(t *testing.T) {
	var be *BuildError

	_, err := Compute(nil, Viewport{Width: 10, Height: 10}, registry(t))
	if !errors.As(err, &be) || !errors.Is(err, ErrNilNode) {
		t.Errorf("nil root: err = %v", err)
	}

	_, err = Compute(box(10, 10, nil), Viewport{Width: 10, Height: 10}, registry(t))
	if !errors.As(err, &be) || be.Path != "root.children[0]" {
		t.Errorf("nil child: err = %v", err)
	}

	_, err = Compute(box(10, 10), Viewport{Width: 10, Height: 10}, nil)
	if !errors.Is(err, ErrNoRegistry) {
		t.Errorf("nil registry: err = %v", err)
	}
}

func TestFindBreakOpportunities(t *testing.T) {
	const (
		no  = BreakNo
		ok  = BreakAllowed
		nl  = BreakMandatory
		wc  = node.WrapWordChar
		chr = node.WrapChar
	)
	tests := []struct {
		text string
		mode node.WrapMode
		want []BreakOpportunity
	}{
		{"ab cd", wc, []BreakOpportunity{no, no, no, ok, no}},
		{"a-b", wc, []BreakOpportunity{no, no, ok}},
		{"(a)", wc, []BreakOpportunity{no, no, no}},
		{"a\nb", wc, []BreakOpportunity{no, no, nl}},
		{"中文", wc, []BreakOpportunity{no, ok}},
		{"a, b", wc, []BreakOpportunity{no, no, no, ok}},
		{"a/b", wc, []BreakOpportunity{no, ok, ok}},
		{"abc", chr, []BreakOpportunity{no, ok, ok}},
		{"a b.", chr, []BreakOpportunity{no, no, ok, no}},
		{"ab cd", node.WrapNone, []BreakOpportunity{no, no, no, no, no}},
		{"a\nb", node.WrapNone, []BreakOpportunity{no, no, nl}},
	}
	for _, tt := range tests {
		got := findBreakOpportunities([]rune(tt.text), tt.mode)
		if diff := cmp.Diff(tt.want, got); diff != "" {
			t.Errorf("findBreakOpportunities(%q, %v) mismatch (-want +got):\n%s", tt.text, tt.mode, diff)
		}
	}
}

func TestWrap_Modes(t *testing.T) {
	chain := registry(t).Resolve("sans-serif", 400)
	s := fonts.Shape(chain, "ab abcdefghijklmnopqrstuvwxyz cd", 20)
	word := s.Width() / 4

	// A word longer than the line overflows in word mode and is split in
	// the default mode.
	wordLines := wrap(s, word, node.WrapWord)
	if len(wordLines) != 3 {
		t.Errorf("WrapWord: got %d lines, want 3", len(wordLines))
	}
	if w := lineWidth(s, wordLines[1]); w <= word {
		t.Errorf("WrapWord: long word width %v should overflow %v", w, word)
	}
	if got := wrap(s, word, node.WrapWordChar); len(got) <= 3 {
		t.Errorf("WrapWordChar: got %d lines, want the long word split", len(got))
	}

	if got := wrap(s, word, node.WrapNone); len(got) != 1 {
		t.Errorf("WrapNone: got %d lines, want 1", len(got))
	}

	nl := fonts.Shape(chain, "ab\ncd", 20)
	if got := wrap(nl, 1000, node.WrapNone); len(got) != 2 {
		t.Errorf("WrapNone with newline: got %d lines, want 2", len(got))
	}
}

func TestCompute_WhiteSpaceNowrap(t *testing.T) {
	txt := node.NewText("one two three")
	txt.Style.Width = node.Px(40)
	txt.Style.Font.Wrap = node.WrapNone

	p := compute(t, node.NewContainer(txt), 400, 100)
	if got := len(p.Children[0].Lines); got != 1 {
		t.Errorf("nowrap text: got %d lines, want 1", got)
	}
}

func TestWrap_LongWordBreaksByCharacter(t *testing.T) {
	chain := registry(t).Resolve("sans-serif", 400)
	s := fonts.Shape(chain, "abcdefghijklmnopqrstuvwxyz", 20)
	lines := wrap(s, 60, node.WrapWordChar)
	if len(lines) < 3 {
		t.Fatalf("got %d lines, want the word split", len(lines))
	}
	n := 0
	for _, l := range lines {
		if w := lineWidth(s, l); w > 60+epsilon && len(l) > 1 {
			t.Errorf("line width %v exceeds limit", w)
		}
		n += len(l)
	}
	if n != len(s.Glyphs) {
		t.Errorf("lines hold %d glyphs, want %d", n, len(s.Glyphs))
	}
}
