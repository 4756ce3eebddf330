package node

import (
	"errors"
	"image/color"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
)

func TestParseColor(t *testing.T) {
	tests := []struct {
		in   string
		want color.NRGBA
	}{
		{"#f00", color.NRGBA{R: 255, A: 255}},
		{"#f008", color.NRGBA{R: 255, A: 136}},
		{"#1e90ff", color.NRGBA{R: 30, G: 144, B: 255, A: 255}},
		{"#1E90FF80", color.NRGBA{R: 30, G: 144, B: 255, A: 128}},
		{"rgb(10, 20, 30)", color.NRGBA{R: 10, G: 20, B: 30, A: 255}},
		{"rgba(10, 20, 30, 0.5)", color.NRGBA{R: 10, G: 20, B: 30, A: 128}},
		{"rgb(100% 0% 0% / 50%)", color.NRGBA{R: 255, A: 128}},
		{"  White ", color.NRGBA{R: 255, G: 255, B: 255, A: 255}},
		{"red", color.NRGBA{R: 255, A: 255}},
		{"transparent", color.NRGBA{}},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			c, err := ParseColor(tt.in)
			if err != nil {
				t.Fatalf("ParseColor(%q): %v", tt.in, err)
			}
			if got := c.NRGBA(); got != tt.want {
				t.Errorf("ParseColor(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestParseColor_Invalid(t *testing.T) {
	for _, in := range []string{"", "#12", "#12345", "#ggg", "rgb(1,2)", "rgb(a,b,c)", "notacolor"} {
		if _, err := ParseColor(in); err == nil {
			t.Errorf("ParseColor(%q) succeeded, want error", in)
		}
	}
}

func TestDimension_Resolve(t *testing.T) {
	tests := []struct {
		name     string
		d        Dimension
		base     float64
		definite bool
		want     float64
		ok       bool
	}{
		{"px", Px(40), 200, true, 40, true},
		{"percent", Percent(25), 200, true, 50, true},
		{"percent of indefinite", Percent(25), 200, false, 0, true},
		{"auto", Auto, 200, true, 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := tt.d.Resolve(tt.base, tt.definite)
			if got != tt.want || ok != tt.ok {
				t.Errorf("Resolve = (%v, %v), want (%v, %v)", got, ok, tt.want, tt.ok)
			}
		})
	}
}

func TestDecode_Tree(t *testing.T) {
	src := `{
		"type": "container",
		"style": {
			"width": 1200, "height": "630px",
			"padding": "8px 16px",
			"flexDirection": "column",
			"justifyContent": "space-between",
			"alignItems": "center",
			"backgroundColor": "#fff",
			"border": "2px solid red",
			"borderRadius": 12,
			"opacity": 1.5,
			"fontSize": 24,
			"color": "white"
		},
		"children": [
			{"type": "text", "text": "Hello", "fontWeight": "bold"},
			{"type": "image", "src": "logo", "style": {"width": "50%", "objectFit": "cover"}}
		]
	}`
	root, err := Decode([]byte(src))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	c, ok := root.(*Container)
	if !ok {
		t.Fatalf("root = %T, want *Container", root)
	}

	want := DefaultStyle()
	want.Width = Px(1200)
	want.Height = Px(630)
	want.Padding = Edges{Top: Px(8), Right: Px(16), Bottom: Px(8), Left: Px(16)}
	want.FlexDirection = Column
	want.JustifyContent = JustifySpaceBetween
	want.AlignItems = AlignCenter
	want.Background = White
	want.Border = Border{Width: 2, Color: RGB(1, 0, 0)}
	want.BorderRadius = 12
	want.Opacity = 1
	want.Font.Size = 24
	want.Font.Color = White
	if diff := cmp.Diff(want, c.Style, cmpopts.EquateApprox(0, 1e-9)); diff != "" {
		t.Errorf("container style mismatch (-want +got):\n%s", diff)
	}

	if len(c.Children) != 2 {
		t.Fatalf("children = %d, want 2", len(c.Children))
	}
	txt, ok := c.Children[0].(*Text)
	if !ok {
		t.Fatalf("child 0 = %T, want *Text", c.Children[0])
	}
	if txt.Value != "Hello" || txt.Style.Font.Weight != 700 {
		t.Errorf("text = %q weight %d, want Hello weight 700", txt.Value, txt.Style.Font.Weight)
	}
	// Font properties are inherited from the parent.
	if txt.Style.Font.Size != 24 || txt.Style.Font.Color != White {
		t.Errorf("inherited font = %+v", txt.Style.Font)
	}

	img, ok := c.Children[1].(*Image)
	if !ok {
		t.Fatalf("child 1 = %T, want *Image", c.Children[1])
	}
	if img.Src != "logo" || img.Fit != FitCover || img.Style.Width != Percent(50) {
		t.Errorf("image = %+v", img)
	}
}

func TestDecode_Errors(t *testing.T) {
	tests := []struct {
		name     string
		src      string
		path     string
		sentinel error
	}{
		{"empty", ``, "", ErrEmptyTree},
		{"null", `null`, "", ErrEmptyTree},
		{"syntax", `{"type": `, "", nil},
		{"no type", `{"children": []}`, "root.type", ErrMissingField},
		{"unknown type", `{"type": "video"}`, "root.type", ErrUnknownType},
		{"bad child", `{"type": "container", "children": [{"type": "text"}]}`, "root.children[0].text", ErrMissingField},
		{"bad color", `{"type": "container", "style": {"backgroundColor": "nope"}}`, "root.style.backgroundColor", nil},
		{"negative gap", `{"type": "container", "style": {"gap": -4}}`, "root.style.gap", nil},
		{"image without source", `{"type": "image"}`, "root.src", ErrMissingField},
		{"bad fit", `{"type": "image", "src": "a", "objectFit": "tile"}`, "root.objectFit", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode([]byte(tt.src))
			var pe *ParseError
			if !errors.As(err, &pe) {
				t.Fatalf("err = %v, want *ParseError", err)
			}
			if pe.Path != tt.path {
				t.Errorf("Path = %q, want %q", pe.Path, tt.path)
			}
			if tt.sentinel != nil && !errors.Is(err, tt.sentinel) {
				t.Errorf("err = %v, want %v", err, tt.sentinel)
			}
		})
	}
}

func TestDecode_ImageData(t *testing.T) {
	root, err := Decode([]byte(`{"type": "img", "data": "aGVsbG8="}`))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	img := root.(*Image)
	if string(img.Data) != "hello" {
		t.Errorf("Data = %q, want hello", img.Data)
	}
}

func TestImage_Bytes(t *testing.T) {
	res := map[string][]byte{"logo": []byte("png")}
	tests := []struct {
		name    string
		img     *Image
		want    string
		wantErr error
	}{
		{"inline", &Image{Data: []byte("raw"), Src: "logo"}, "raw", nil},
		{"data uri", &Image{Src: "data:text/plain;base64,aGk="}, "hi", nil},
		{"data uri plain", &Image{Src: "data:,a%20b"}, "a b", nil},
		{"resource", &Image{Src: "logo"}, "png", nil},
		{"missing", &Image{Src: "https://example.com/a.png"}, "", ErrUnresolvedImage},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.img.Bytes(res)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("err = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("Bytes: %v", err)
			}
			if string(got) != tt.want {
				t.Errorf("Bytes = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestImage_IsRemote(t *testing.T) {
	if !(&Image{Src: "https://example.com/a.png"}).IsRemote() {
		t.Error("https source not remote")
	}
	if (&Image{Src: "https://example.com/a.png", Data: []byte{1}}).IsRemote() {
		t.Error("inline data reported remote")
	}
	if (&Image{Src: "logo"}).IsRemote() {
		t.Error("resource key reported remote")
	}
}

func TestWalk_PreOrder(t *testing.T) {
	a := NewText("a")
	b := NewText("b")
	inner := NewContainer(b)
	root := NewContainer(a, inner)

	var got []Node
	Walk(root, func(n Node) bool {
		got = append(got, n)
		return true
	})
	want := []Node{root, a, inner, b}
	if len(got) != len(want) {
		t.Fatalf("visited %d nodes, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("node %d = %v, want %v", i, got[i].Kind(), want[i].Kind())
		}
	}

	var count int
	Walk(root, func(n Node) bool {
		count++
		return n != inner
	})
	if count != 3 {
		t.Errorf("pruned walk visited %d nodes, want 3", count)
	}
}

func TestDecode_ShorthandThenLonghand(t *testing.T) {
	src := []byte(`{"type": "container", "style": {
		"border": "4px solid red", "borderColor": "blue",
		"padding": "10px", "paddingLeft": 0,
		"background": "white", "backgroundColor": "black"
	}}`)
	want := Border{Width: 4, Color: RGB(0, 0, 1)}
	wantPad := Edges{Top: Px(10), Right: Px(10), Bottom: Px(10), Left: Px(0)}

	// Map iteration order varies between runs; decode repeatedly.
	for i := range 64 {
		root, err := Decode(src)
		if err != nil {
			t.Fatalf("Decode: %v", err)
		}
		s := root.(*Container).Style
		if s.Border != want {
			t.Fatalf("iteration %d: Border = %+v, want %+v", i, s.Border, want)
		}
		if s.Padding != wantPad {
			t.Fatalf("iteration %d: Padding = %+v, want %+v", i, s.Padding, wantPad)
		}
		if s.Background != Black {
			t.Fatalf("iteration %d: Background = %+v, want black", i, s.Background)
		}
	}
}

func TestDecode_NonFinite(t *testing.T) {
	tests := []struct {
		name  string
		style string
		path  string
	}{
		{"nan width", `{"width": "nan"}`, "root.style.width"},
		{"inf height", `{"height": "inf"}`, "root.style.height"},
		{"infinite percent", `{"width": "-Infinity%"}`, "root.style.width"},
		{"nan font size", `{"fontSize": "NaN"}`, "root.style.fontSize"},
		{"nan opacity", `{"opacity": "nan"}`, "root.style.opacity"},
		{"nan padding", `{"padding": "1px nan"}`, "root.style.padding"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode([]byte(`{"type": "container", "style": ` + tt.style + `}`))
			var pe *ParseError
			if !errors.As(err, &pe) {
				t.Fatalf("err = %v, want *ParseError", err)
			}
			if pe.Path != tt.path {
				t.Errorf("Path = %q, want %q", pe.Path, tt.path)
			}
			if !errors.Is(err, ErrNonFinite) {
				t.Errorf("err = %v, want %v", err, ErrNonFinite)
			}
		})
	}

	if _, err := ParseColor("rgb(nan, 0, 0)"); err == nil {
		t.Error("ParseColor accepted a NaN channel")
	}
}

func TestDecode_WrapMode(t *testing.T) {
	tests := []struct {
		style string
		want  WrapMode
	}{
		{`{}`, WrapWordChar},
		{`{"whiteSpace": "nowrap"}`, WrapNone},
		{`{"wordBreak": "break-all"}`, WrapChar},
		{`{"wordBreak": "keep-all"}`, WrapWord},
		{`{"whiteSpace": "nowrap", "wordBreak": "break-all"}`, WrapNone},
	}
	for _, tt := range tests {
		t.Run(tt.style, func(t *testing.T) {
			root, err := Decode([]byte(`{"type": "text", "text": "a", "style": ` + tt.style + `}`))
			if err != nil {
				t.Fatalf("Decode: %v", err)
			}
			if got := root.(*Text).Style.Font.Wrap; got != tt.want {
				t.Errorf("Wrap = %v, want %v", got, tt.want)
			}
		})
	}

	// white-space is inherited and can be reset by a child.
	root, err := Decode([]byte(`{"type": "container", "style": {"whiteSpace": "nowrap"}, "children": [
		{"type": "text", "text": "a"},
		{"type": "text", "text": "b", "style": {"whiteSpace": "normal"}}
	]}`))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	kids := root.(*Container).Children
	if got := kids[0].(*Text).Style.Font.Wrap; got != WrapNone {
		t.Errorf("inherited Wrap = %v, want none", got)
	}
	if got := kids[1].(*Text).Style.Font.Wrap; got != WrapWordChar {
		t.Errorf("reset Wrap = %v, want word-char", got)
	}
}
