package layout

import (
	"fmt"
	"math"

	"github.com/gogpu/ogimage/node"
)

// flexItem is one child during flex resolution. Sizes are border-box sizes
// along the container's axes.
type flexItem struct {
	n    node.Node
	s    *node.Style
	path string

	margin edges
	base   float64
	main   float64
	p      *Positioned
}

// layoutFlex lays the children of c out on one flex line.
//
// innerW and innerH are the content box size, valid only when wDef and hDef
// are set. availW caps an auto content width. It returns the content size
// the children need and the children positioned relative to the content box.
func (e *engine) layoutFlex(c *node.Container, innerW, innerH float64, wDef, hDef bool, availW float64, path string) (float64, float64, []*Positioned, error) {
	s := &c.Style
	if len(c.Children) == 0 {
		return 0, 0, nil, nil
	}

	items := make([]flexItem, len(c.Children))
	for i, ch := range c.Children {
		p := fmt.Sprintf("%s.children[%d]", path, i)
		if ch == nil {
			return 0, 0, nil, &BuildError{Path: p, Err: ErrNilNode}
		}
		items[i] = flexItem{
			n:      ch,
			s:      ch.Styles(),
			path:   p,
			margin: resolveEdges(ch.Styles().Margin, innerW, wDef),
		}
	}

	if s.FlexDirection == node.Column {
		return e.layoutColumn(s, items, innerW, innerH, wDef, hDef, availW)
	}
	return e.layoutRow(s, items, innerW, innerH, wDef, hDef, availW)
}

func (e *engine) childConstraint(innerW, innerH float64, wDef, hDef bool) constraint {
	return constraint{
		width: -1, height: -1,
		availW: inf,
		cbW:    innerW, cbH: innerH,
		cbWDef: wDef, cbHDef: hDef,
	}
}

func (e *engine) layoutRow(s *node.Style, items []flexItem, innerW, innerH float64, wDef, hDef bool, availW float64) (float64, float64, []*Positioned, error) {
	cc := e.childConstraint(innerW, innerH, wDef, hDef)
	gaps := s.Gap * float64(len(items)-1)

	// Base sizes.
	used := gaps
	for i := range items {
		it := &items[i]
		if v, ok := it.s.FlexBasis.Resolve(innerW, wDef); ok {
			it.base = v
		} else if v, ok := it.s.Width.Resolve(innerW, wDef); ok {
			it.base = v
		} else {
			p, err := e.layout(it.n, cc, it.path)
			if err != nil {
				return 0, 0, nil, err
			}
			it.base = p.Box.Width
		}
		it.base = clampSize(it.base, it.s.MinWidth, it.s.MaxWidth, innerW, wDef)
		used += it.base + it.margin.horizontal()
	}

	mainSize := innerW
	if !wDef {
		mainSize = min(used, availW)
	}
	resolveFlexible(items, mainSize-used, func(it *flexItem) (node.Dimension, node.Dimension) {
		return it.s.MinWidth, it.s.MaxWidth
	}, innerW, wDef)

	// Cross sizes: stretch to a definite container height right away,
	// otherwise measure first and stretch to the tallest item.
	stretch := func(it *flexItem) bool {
		return s.AlignItems == node.AlignStretch && it.s.Height.IsAuto()
	}
	crossSize := 0.0
	for i := range items {
		it := &items[i]
		ic := cc
		ic.width = it.main
		if hDef && stretch(it) {
			ic.height = max(0, innerH-it.margin.vertical())
		}
		p, err := e.layout(it.n, ic, it.path)
		if err != nil {
			return 0, 0, nil, err
		}
		it.p = p
		crossSize = max(crossSize, p.Box.Height+it.margin.vertical())
	}
	if hDef {
		crossSize = innerH
	} else {
		for i := range items {
			it := &items[i]
			target := max(0, crossSize-it.margin.vertical())
			if !stretch(it) || math.Abs(it.p.Box.Height-target) < epsilon {
				continue
			}
			ic := cc
			ic.width, ic.height = it.main, target
			p, err := e.layout(it.n, ic, it.path)
			if err != nil {
				return 0, 0, nil, err
			}
			it.p = p
		}
	}

	// Main axis placement.
	total := gaps
	for _, it := range items {
		total += it.main + it.margin.horizontal()
	}
	pos, between := justify(s.JustifyContent, mainSize-total, len(items))
	kids := make([]*Positioned, len(items))
	for i := range items {
		it := &items[i]
		x := pos + it.margin.left
		y := alignOffset(s.AlignItems, crossSize, it.p.Box.Height, it.margin.top, it.margin.bottom)
		it.p.translate(x, y)
		kids[i] = it.p
		pos = x + it.main + it.margin.right + s.Gap + between
	}
	return mainSize, crossSize, kids, nil
}

func (e *engine) layoutColumn(s *node.Style, items []flexItem, innerW, innerH float64, wDef, hDef bool, availW float64) (float64, float64, []*Positioned, error) {
	cc := e.childConstraint(innerW, innerH, wDef, hDef)
	gaps := s.Gap * float64(len(items)-1)

	stretch := func(it *flexItem) bool {
		return s.AlignItems == node.AlignStretch && it.s.Width.IsAuto()
	}

	// Cross size: a definite width, or the widest child capped by the
	// available width.
	crossSize := innerW
	if !wDef {
		crossSize = 0
		for i := range items {
			it := &items[i]
			ic := cc
			ic.availW = math.Max(0, availW-it.margin.horizontal())
			p, err := e.layout(it.n, ic, it.path)
			if err != nil {
				return 0, 0, nil, err
			}
			crossSize = max(crossSize, p.Box.Width+it.margin.horizontal())
		}
		crossSize = min(crossSize, availW)
	}
	itemConstraint := func(it *flexItem) constraint {
		ic := cc
		ic.availW = max(0, crossSize-it.margin.horizontal())
		if stretch(it) {
			ic.width = ic.availW
		}
		return ic
	}

	// Base sizes along the column.
	used := gaps
	for i := range items {
		it := &items[i]
		if v, ok := it.s.FlexBasis.Resolve(innerH, hDef); ok {
			it.base = v
		} else if v, ok := it.s.Height.Resolve(innerH, hDef); ok {
			it.base = v
		} else {
			p, err := e.layout(it.n, itemConstraint(it), it.path)
			if err != nil {
				return 0, 0, nil, err
			}
			it.base = p.Box.Height
			it.p = p
		}
		it.base = clampSize(it.base, it.s.MinHeight, it.s.MaxHeight, innerH, hDef)
		used += it.base + it.margin.vertical()
	}

	mainSize := used
	if hDef {
		mainSize = innerH
		resolveFlexible(items, mainSize-used, func(it *flexItem) (node.Dimension, node.Dimension) {
			return it.s.MinHeight, it.s.MaxHeight
		}, innerH, hDef)
	} else {
		for i := range items {
			items[i].main = items[i].base
		}
	}

	for i := range items {
		it := &items[i]
		if it.p != nil && math.Abs(it.p.Box.Height-it.main) < epsilon {
			continue
		}
		ic := itemConstraint(it)
		ic.height = it.main
		p, err := e.layout(it.n, ic, it.path)
		if err != nil {
			return 0, 0, nil, err
		}
		it.p = p
	}

	total := gaps
	for _, it := range items {
		total += it.main + it.margin.vertical()
	}
	pos, between := justify(s.JustifyContent, mainSize-total, len(items))
	kids := make([]*Positioned, len(items))
	for i := range items {
		it := &items[i]
		y := pos + it.margin.top
		x := alignOffset(s.AlignItems, crossSize, it.p.Box.Width, it.margin.left, it.margin.right)
		it.p.translate(x, y)
		kids[i] = it.p
		pos = y + it.main + it.margin.bottom + s.Gap + between
	}
	return crossSize, mainSize, kids, nil
}

// resolveFlexible sets item.main from item.base by sharing free space:
// positive space by FlexGrow, negative space by FlexShrink weighted by the
// base size. Items that hit a min or max limit are frozen and the rest is
// redistributed.
func resolveFlexible(items []flexItem, free float64, limits func(*flexItem) (node.Dimension, node.Dimension), base float64, definite bool) {
	for i := range items {
		items[i].main = items[i].base
	}
	if math.Abs(free) < epsilon {
		return
	}

	frozen := make([]bool, len(items))
	for range items {
		var weight float64
		for i := range items {
			if frozen[i] {
				continue
			}
			if free > 0 {
				weight += items[i].s.FlexGrow
			} else {
				weight += items[i].s.FlexShrink * items[i].base
			}
		}
		if weight <= 0 {
			return
		}

		remaining := free
		violated := false
		for i := range items {
			if frozen[i] {
				continue
			}
			it := &items[i]
			var share float64
			if free > 0 {
				share = free * it.s.FlexGrow / weight
			} else {
				share = free * it.s.FlexShrink * it.base / weight
			}
			target := it.main + share
			lo, hi := limits(it)
			clamped := clampSize(target, lo, hi, base, definite)
			if math.Abs(clamped-target) > epsilon {
				frozen[i] = true
				violated = true
			}
			remaining -= clamped - it.main
			it.main = clamped
		}
		if !violated || math.Abs(remaining) < epsilon {
			return
		}
		free = remaining
	}
}

// justify returns the offset of the first item and the extra space between
// items for leftover main-axis space. Overflow always starts at the
// container start.
func justify(j node.Justify, left float64, n int) (start, between float64) {
	if left <= 0 || n == 0 {
		return 0, 0
	}
	switch j {
	case node.JustifyCenter:
		return left / 2, 0
	case node.JustifyEnd:
		return left, 0
	case node.JustifySpaceBetween:
		if n == 1 {
			return 0, 0
		}
		return 0, left / float64(n-1)
	case node.JustifySpaceAround:
		gap := left / float64(n)
		return gap / 2, gap
	case node.JustifySpaceEvenly:
		gap := left / float64(n+1)
		return gap, gap
	default:
		return 0, 0
	}
}

// alignOffset places an item of outer size along the cross axis.
func alignOffset(a node.Align, cross, size, marginStart, marginEnd float64) float64 {
	left := cross - size - marginStart - marginEnd
	switch a {
	case node.AlignCenter:
		return marginStart + left/2
	case node.AlignEnd:
		return marginStart + left
	default:
		return marginStart
	}
}
