package node

// Unit is the unit of a Dimension.
type Unit uint8

const (
	// UnitAuto means the size is derived from content or the parent.
	UnitAuto Unit = iota

	// UnitPx is a definite size in pixels.
	UnitPx

	// UnitPercent is relative to the parent's resolved size.
	UnitPercent
)

// Dimension is a length that is definite pixels, auto, or a percentage.
type Dimension struct {
	Unit  Unit
	Value float64
}

// Auto is the auto dimension.
var Auto = Dimension{Unit: UnitAuto}

// Px returns a definite pixel dimension.
func Px(v float64) Dimension { return Dimension{Unit: UnitPx, Value: v} }

// Percent returns a percentage dimension. Percent(50) is half of the parent.
func Percent(v float64) Dimension { return Dimension{Unit: UnitPercent, Value: v} }

// IsAuto reports whether d is auto.
func (d Dimension) IsAuto() bool { return d.Unit == UnitAuto }

// Resolve returns the pixel value of d against base.
//
// ok is false for auto. A percentage of an indefinite base (definite false)
// resolves to 0 rather than failing.
func (d Dimension) Resolve(base float64, definite bool) (v float64, ok bool) {
	switch d.Unit {
	case UnitPx:
		return d.Value, true
	case UnitPercent:
		if !definite {
			return 0, true
		}
		return base * d.Value / 100, true
	default:
		return 0, false
	}
}

// Edges holds per-side dimensions for margin and padding.
type Edges struct {
	Top, Right, Bottom, Left Dimension
}

// Uniform returns edges with the same dimension on every side.
func Uniform(d Dimension) Edges {
	return Edges{Top: d, Right: d, Bottom: d, Left: d}
}

// Border is a solid border drawn inside the node's box.
type Border struct {
	Width float64
	Color Color
}

// FlexDirection is the main axis of a container.
type FlexDirection uint8

const (
	// Row lays children out left to right.
	Row FlexDirection = iota

	// Column lays children out top to bottom.
	Column
)

// Justify distributes leftover space along the main axis.
type Justify uint8

const (
	JustifyStart Justify = iota
	JustifyCenter
	JustifyEnd
	JustifySpaceBetween
	JustifySpaceAround
	JustifySpaceEvenly
)

// Align positions children along the cross axis.
type Align uint8

const (
	// AlignStretch stretches auto-sized children to the line's cross size.
	AlignStretch Align = iota
	AlignStart
	AlignCenter
	AlignEnd
)

// TextAlign aligns wrapped lines inside a text node's content box.
type TextAlign uint8

const (
	TextAlignLeft TextAlign = iota
	TextAlignCenter
	TextAlignRight
)

// WrapMode controls where a text node's lines may break.
type WrapMode uint8

const (
	// WrapWordChar breaks at word boundaries and falls back to
	// character boundaries for words wider than the line.
	WrapWordChar WrapMode = iota

	// WrapNone keeps the text on one line; only hard breaks apply.
	WrapNone

	// WrapWord breaks at word boundaries only. Long words overflow.
	WrapWord

	// WrapChar breaks between any two characters.
	WrapChar
)

// String returns the mode name.
func (m WrapMode) String() string {
	switch m {
	case WrapNone:
		return "none"
	case WrapWord:
		return "word"
	case WrapChar:
		return "char"
	default:
		return "word-char"
	}
}

// Fit is the policy for scaling an image into its box.
type Fit uint8

const (
	// FitStretch scales both axes independently to fill the box.
	FitStretch Fit = iota

	// FitContain scales uniformly so the whole image fits inside the box.
	FitContain

	// FitCover scales uniformly to fill the box and crops the overflow.
	FitCover
)

// String returns the CSS object-fit keyword.
func (f Fit) String() string {
	switch f {
	case FitContain:
		return "contain"
	case FitCover:
		return "cover"
	default:
		return "fill"
	}
}

// Font describes how a text node selects and draws its font.
type Font struct {
	// Family names a registered font or a generic family
	// (sans-serif, monospace, emoji). Empty means sans-serif.
	Family string

	// Size is the font size in pixels.
	Size float64

	// Weight is the CSS weight class, 100 through 900.
	Weight int

	// LineHeight is a multiple of Size.
	LineHeight float64

	Color Color
	Align TextAlign
	Wrap  WrapMode
}

// Style is the full style record of a node. Fields that do not apply to a
// node kind are ignored.
type Style struct {
	Width, Height       Dimension
	MinWidth, MinHeight Dimension
	MaxWidth, MaxHeight Dimension

	Margin  Edges
	Padding Edges

	FlexDirection  FlexDirection
	FlexGrow       float64
	FlexShrink     float64
	FlexBasis      Dimension
	Gap            float64
	JustifyContent Justify
	AlignItems     Align

	Background   Color
	Border       Border
	BorderRadius float64
	Opacity      float64

	Font Font
}

// Default style values.
const (
	DefaultFontSize   = 16.0
	DefaultFontWeight = 400
	DefaultLineHeight = 1.2
)

// DefaultStyle returns the style every node starts from before its own
// declarations are applied.
func DefaultStyle() Style {
	return Style{
		FlexShrink: 1,
		Opacity:    1,
		Font: Font{
			Family:     "sans-serif",
			Size:       DefaultFontSize,
			Weight:     DefaultFontWeight,
			LineHeight: DefaultLineHeight,
			Color:      Black,
		},
	}
}
