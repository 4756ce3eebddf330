// Package node defines the declarative input tree rendered by ogimage.
//
// A tree is built from three node kinds:
//
//   - Container: a flex box holding child nodes
//   - Text: a run of text drawn with a resolved font chain
//   - Image: an encoded raster image fitted into its box
//
// The kind set is closed. Node is a sealed interface and every consumer
// dispatches with a type switch, so adding a kind forces each switch to be
// revisited.
//
// Trees are immutable once handed to a render and may be shared by
// concurrent renders.
package node

// Kind identifies a node variant.
type Kind uint8

const (
	// KindContainer is a flex container.
	KindContainer Kind = iota

	// KindText is a text run.
	KindText

	// KindImage is an embedded or referenced image.
	KindImage
)

// String returns the kind name as used in the JSON schema.
func (k Kind) String() string {
	switch k {
	case KindContainer:
		return "container"
	case KindText:
		return "text"
	case KindImage:
		return "image"
	default:
		return "unknown"
	}
}

// Node is a single element of the input tree.
type Node interface {
	// Kind returns the node variant.
	Kind() Kind

	// Styles returns the node's style record.
	Styles() *Style

	// sealed prevents implementations outside this package.
	sealed()
}

// Container lays its children out along a flex axis.
type Container struct {
	Style    Style
	Children []Node
}

// Text is a run of text. Long text wraps at the available width.
type Text struct {
	Style Style
	Value string
}

// Image draws encoded image data into its box.
//
// The pixels come from Data when set. Otherwise Src is resolved: a data URI
// is decoded inline and anything else is looked up in the resources handed
// to the render.
type Image struct {
	Style Style
	Src   string
	Data  []byte
	Fit   Fit
}

// Kind implements Node.
func (*Container) Kind() Kind { return KindContainer }

// Kind implements Node.
func (*Text) Kind() Kind { return KindText }

// Kind implements Node.
func (*Image) Kind() Kind { return KindImage }

// Styles implements Node.
func (c *Container) Styles() *Style { return &c.Style }

// Styles implements Node.
func (t *Text) Styles() *Style { return &t.Style }

// Styles implements Node.
func (i *Image) Styles() *Style { return &i.Style }

func (*Container) sealed() {}
func (*Text) sealed()      {}
func (*Image) sealed()     {}

// NewContainer returns a container with default style and the given children.
func NewContainer(children ...Node) *Container {
	return &Container{Style: DefaultStyle(), Children: children}
}

// NewText returns a text node with default style.
func NewText(value string) *Text {
	return &Text{Style: DefaultStyle(), Value: value}
}

// NewImage returns an image node for data with default style.
func NewImage(data []byte) *Image {
	return &Image{Style: DefaultStyle(), Data: data, Fit: FitStretch}
}

// Walk calls fn for n and each descendant in pre-order.
// Traversal of a subtree stops early when fn returns false.
func Walk(n Node, fn func(Node) bool) {
	if n == nil || !fn(n) {
		return
	}
	if c, ok := n.(*Container); ok {
		for _, child := range c.Children {
			Walk(child, fn)
		}
	}
}
