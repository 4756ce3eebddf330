package node

import (
	"bytes"
	"cmp"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"math"
	"slices"
	"strconv"
	"strings"
)

// Decode parses a JSON tree description.
//
// Every node is an object tagged by "type" (container, text, image) with an
// optional "style" object. Style keys may also appear directly on the node;
// keys inside "style" win. Font properties are inherited from the parent
// container as in CSS.
func Decode(data []byte) (Node, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil, &ParseError{Err: ErrEmptyTree}
	}
	var v any
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&v); err != nil {
		return nil, &ParseError{Err: err}
	}
	return FromValue(v)
}

// FromValue builds a tree from an already-decoded JSON value
// (maps, slices, strings, numbers, booleans).
func FromValue(v any) (Node, error) {
	if v == nil {
		return nil, &ParseError{Err: ErrEmptyTree}
	}
	return decodeNode(v, "root", DefaultStyle().Font)
}

func decodeNode(v any, path string, inherited Font) (Node, error) {
	obj, ok := v.(map[string]any)
	if !ok {
		return nil, &ParseError{Path: path, Err: fmt.Errorf("expected object, got %s", jsonType(v))}
	}

	rawType, ok := obj["type"]
	if !ok {
		return nil, &ParseError{Path: path + ".type", Err: ErrMissingField}
	}
	typ, ok := rawType.(string)
	if !ok {
		return nil, &ParseError{Path: path + ".type", Err: fmt.Errorf("expected string, got %s", jsonType(rawType))}
	}

	style := DefaultStyle()
	style.Font = inherited
	if err := applyStyle(&style, obj, path); err != nil {
		return nil, err
	}
	if raw, ok := obj["style"]; ok && raw != nil {
		sobj, ok := raw.(map[string]any)
		if !ok {
			return nil, &ParseError{Path: path + ".style", Err: fmt.Errorf("expected object, got %s", jsonType(raw))}
		}
		if err := applyStyle(&style, sobj, path+".style"); err != nil {
			return nil, err
		}
	}

	switch strings.ToLower(typ) {
	case "container", "div":
		return decodeContainer(obj, path, style)
	case "text":
		return decodeText(obj, path, style)
	case "image", "img":
		return decodeImage(obj, path, style)
	default:
		return nil, &ParseError{Path: path + ".type", Err: fmt.Errorf("%w %q", ErrUnknownType, typ)}
	}
}

func decodeContainer(obj map[string]any, path string, style Style) (Node, error) {
	c := &Container{Style: style}
	raw, ok := obj["children"]
	if !ok || raw == nil {
		return c, nil
	}
	list, ok := raw.([]any)
	if !ok {
		return nil, &ParseError{Path: path + ".children", Err: fmt.Errorf("expected array, got %s", jsonType(raw))}
	}
	c.Children = make([]Node, 0, len(list))
	for i, item := range list {
		child, err := decodeNode(item, fmt.Sprintf("%s.children[%d]", path, i), style.Font)
		if err != nil {
			return nil, err
		}
		c.Children = append(c.Children, child)
	}
	return c, nil
}

func decodeText(obj map[string]any, path string, style Style) (Node, error) {
	raw, ok := obj["text"]
	if !ok {
		raw, ok = obj["value"]
	}
	if !ok {
		return nil, &ParseError{Path: path + ".text", Err: ErrMissingField}
	}
	s, err := toString(raw)
	if err != nil {
		return nil, &ParseError{Path: path + ".text", Err: err}
	}
	return &Text{Style: style, Value: s}, nil
}

func decodeImage(obj map[string]any, path string, style Style) (Node, error) {
	img := &Image{Style: style, Fit: FitStretch}

	if raw, ok := obj["src"]; ok {
		s, ok := raw.(string)
		if !ok {
			return nil, &ParseError{Path: path + ".src", Err: fmt.Errorf("expected string, got %s", jsonType(raw))}
		}
		img.Src = s
	}
	if raw, ok := obj["data"]; ok {
		s, ok := raw.(string)
		if !ok {
			return nil, &ParseError{Path: path + ".data", Err: fmt.Errorf("expected base64 string, got %s", jsonType(raw))}
		}
		data, err := base64.StdEncoding.DecodeString(s)
		if err != nil {
			return nil, &ParseError{Path: path + ".data", Err: err}
		}
		img.Data = data
	}
	if img.Src == "" && len(img.Data) == 0 {
		return nil, &ParseError{Path: path + ".src", Err: ErrMissingField}
	}

	fit, err := fitFrom(obj)
	if err != nil {
		return nil, &ParseError{Path: path + ".objectFit", Err: err}
	}
	img.Fit = fit
	return img, nil
}

func fitFrom(obj map[string]any) (Fit, error) {
	var raw any
	ok := false
	if s, sok := obj["style"].(map[string]any); sok {
		raw, ok = s["objectFit"]
	}
	if !ok {
		raw, ok = obj["objectFit"]
	}
	if !ok {
		return FitStretch, nil
	}
	s, _ := raw.(string)
	switch strings.ToLower(s) {
	case "fill", "stretch":
		return FitStretch, nil
	case "contain", "scale-down":
		return FitContain, nil
	case "cover":
		return FitCover, nil
	default:
		return FitStretch, fmt.Errorf("unknown fit %v", raw)
	}
}

// applyStyle copies recognized keys of obj into s. Unrecognized keys are
// ignored so that trees written for richer renderers still decode.
//
// Keys are applied in a fixed order: shorthands first, then longhands,
// each group sorted by name. A longhand therefore always overrides the
// shorthand that covers it, regardless of JSON key order.
func applyStyle(s *Style, obj map[string]any, path string) error {
	keys := make([]string, 0, len(obj))
	for key := range obj {
		keys = append(keys, key)
	}
	slices.SortFunc(keys, func(a, b string) int {
		if c := cmp.Compare(styleRank(a), styleRank(b)); c != 0 {
			return c
		}
		return strings.Compare(a, b)
	})

	for _, key := range keys {
		raw := obj[key]
		if raw == nil {
			continue
		}
		if err := applyStyleKey(s, key, raw); err != nil {
			return parseErr(path+"."+key, err)
		}
	}
	return nil
}

func styleRank(key string) int {
	switch key {
	case "border", "margin", "padding", "background":
		return 0
	default:
		return 1
	}
}

func applyStyleKey(s *Style, key string, raw any) error {
	var err error
	switch key {
	case "width":
		s.Width, err = toDimension(raw)
	case "height":
		s.Height, err = toDimension(raw)
	case "minWidth":
		s.MinWidth, err = toDimension(raw)
	case "minHeight":
		s.MinHeight, err = toDimension(raw)
	case "maxWidth":
		s.MaxWidth, err = toDimension(raw)
	case "maxHeight":
		s.MaxHeight, err = toDimension(raw)
	case "margin":
		s.Margin, err = toEdges(raw)
	case "padding":
		s.Padding, err = toEdges(raw)
	case "marginTop":
		s.Margin.Top, err = toDimension(raw)
	case "marginRight":
		s.Margin.Right, err = toDimension(raw)
	case "marginBottom":
		s.Margin.Bottom, err = toDimension(raw)
	case "marginLeft":
		s.Margin.Left, err = toDimension(raw)
	case "paddingTop":
		s.Padding.Top, err = toDimension(raw)
	case "paddingRight":
		s.Padding.Right, err = toDimension(raw)
	case "paddingBottom":
		s.Padding.Bottom, err = toDimension(raw)
	case "paddingLeft":
		s.Padding.Left, err = toDimension(raw)
	case "flexDirection":
		s.FlexDirection, err = toFlexDirection(raw)
	case "flexGrow":
		s.FlexGrow, err = toNonNegative(raw)
	case "flexShrink":
		s.FlexShrink, err = toNonNegative(raw)
	case "flexBasis":
		s.FlexBasis, err = toDimension(raw)
	case "gap":
		s.Gap, err = toNonNegative(raw)
	case "justifyContent":
		s.JustifyContent, err = toJustify(raw)
	case "alignItems":
		s.AlignItems, err = toAlign(raw)
	case "backgroundColor", "background":
		s.Background, err = toColor(raw)
	case "borderWidth":
		s.Border.Width, err = toNonNegative(raw)
	case "borderColor":
		s.Border.Color, err = toColor(raw)
	case "border":
		s.Border, err = toBorder(raw)
	case "borderRadius":
		s.BorderRadius, err = toNonNegative(raw)
	case "opacity":
		var f float64
		f, err = toFloat(raw)
		s.Opacity = min(max(f, 0), 1)
	case "fontFamily":
		s.Font.Family, err = toString(raw)
	case "fontSize":
		s.Font.Size, err = toNonNegative(raw)
	case "fontWeight":
		s.Font.Weight, err = toWeight(raw)
	case "lineHeight":
		s.Font.LineHeight, err = toNonNegative(raw)
	case "color":
		s.Font.Color, err = toColor(raw)
	case "textAlign":
		s.Font.Align, err = toTextAlign(raw)
	case "whiteSpace":
		s.Font.Wrap, err = toWhiteSpace(raw, s.Font.Wrap)
	case "wordBreak":
		var m WrapMode
		if m, err = toWordBreak(raw); err == nil && s.Font.Wrap != WrapNone {
			s.Font.Wrap = m
		}
	}
	return err
}

func toString(raw any) (string, error) {
	switch v := raw.(type) {
	case string:
		return v, nil
	case json.Number:
		return v.String(), nil
	default:
		return "", fmt.Errorf("expected string, got %s", jsonType(raw))
	}
}

func toFloat(raw any) (float64, error) {
	var (
		f   float64
		err error
	)
	switch v := raw.(type) {
	case json.Number:
		f, err = v.Float64()
	case float64:
		f = v
	case int:
		f = float64(v)
	case string:
		f, err = strconv.ParseFloat(strings.TrimSuffix(strings.TrimSpace(v), "px"), 64)
	default:
		return 0, fmt.Errorf("expected number, got %s", jsonType(raw))
	}
	if err != nil {
		return 0, err
	}
	return finite(f)
}

func finite(f float64) (float64, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("%w %v", ErrNonFinite, f)
	}
	return f, nil
}

func toNonNegative(raw any) (float64, error) {
	f, err := toFloat(raw)
	if err != nil {
		return 0, err
	}
	if f < 0 {
		return 0, fmt.Errorf("negative value %v", f)
	}
	return f, nil
}

func toDimension(raw any) (Dimension, error) {
	s, isString := raw.(string)
	if !isString {
		f, err := toFloat(raw)
		if err != nil {
			return Auto, err
		}
		return Px(f), nil
	}
	return parseDimension(s)
}

func parseDimension(s string) (Dimension, error) {
	s = strings.TrimSpace(strings.ToLower(s))
	switch {
	case s == "auto" || s == "":
		return Auto, nil
	case strings.HasSuffix(s, "%"):
		f, err := strconv.ParseFloat(strings.TrimSuffix(s, "%"), 64)
		if err != nil {
			return Auto, fmt.Errorf("invalid percentage %q", s)
		}
		if f, err = finite(f); err != nil {
			return Auto, err
		}
		return Percent(f), nil
	default:
		f, err := strconv.ParseFloat(strings.TrimSuffix(s, "px"), 64)
		if err != nil {
			return Auto, fmt.Errorf("invalid length %q", s)
		}
		if f, err = finite(f); err != nil {
			return Auto, err
		}
		return Px(f), nil
	}
}

// toEdges accepts a number, a CSS shorthand string of one to four values,
// or an object with top/right/bottom/left keys.
func toEdges(raw any) (Edges, error) {
	switch v := raw.(type) {
	case string:
		fields := strings.Fields(v)
		dims := make([]Dimension, len(fields))
		for i, f := range fields {
			d, err := parseDimension(f)
			if err != nil {
				return Edges{}, err
			}
			dims[i] = d
		}
		switch len(dims) {
		case 1:
			return Uniform(dims[0]), nil
		case 2:
			return Edges{Top: dims[0], Right: dims[1], Bottom: dims[0], Left: dims[1]}, nil
		case 3:
			return Edges{Top: dims[0], Right: dims[1], Bottom: dims[2], Left: dims[1]}, nil
		case 4:
			return Edges{Top: dims[0], Right: dims[1], Bottom: dims[2], Left: dims[3]}, nil
		default:
			return Edges{}, fmt.Errorf("invalid edge shorthand %q", v)
		}
	case map[string]any:
		var e Edges
		for key, side := range map[string]*Dimension{
			"top": &e.Top, "right": &e.Right, "bottom": &e.Bottom, "left": &e.Left,
		} {
			if r, ok := v[key]; ok {
				d, err := toDimension(r)
				if err != nil {
					return Edges{}, fmt.Errorf("%s: %w", key, err)
				}
				*side = d
			}
		}
		return e, nil
	default:
		d, err := toDimension(raw)
		if err != nil {
			return Edges{}, err
		}
		return Uniform(d), nil
	}
}

func toColor(raw any) (Color, error) {
	s, ok := raw.(string)
	if !ok {
		return Color{}, fmt.Errorf("expected color string, got %s", jsonType(raw))
	}
	return ParseColor(s)
}

// toBorder parses the "1px solid #000" shorthand. The line style keyword is
// accepted and ignored since only solid borders are drawn.
func toBorder(raw any) (Border, error) {
	s, ok := raw.(string)
	if !ok {
		w, err := toNonNegative(raw)
		return Border{Width: w}, err
	}
	var b Border
	for _, f := range strings.Fields(s) {
		switch f {
		case "solid", "dashed", "dotted", "double", "none":
			continue
		}
		if d, err := parseDimension(f); err == nil && d.Unit == UnitPx {
			b.Width = d.Value
			continue
		}
		c, err := ParseColor(f)
		if err != nil {
			return Border{}, fmt.Errorf("invalid border %q", s)
		}
		b.Color = c
	}
	return b, nil
}

func toWeight(raw any) (int, error) {
	if s, ok := raw.(string); ok {
		switch strings.ToLower(s) {
		case "normal":
			return 400, nil
		case "bold":
			return 700, nil
		}
	}
	f, err := toFloat(raw)
	if err != nil {
		return 0, err
	}
	if f < 1 || f > 1000 {
		return 0, fmt.Errorf("font weight %v out of range", f)
	}
	return int(f), nil
}

func toWhiteSpace(raw any, cur WrapMode) (WrapMode, error) {
	kw, err := toKeyword(raw)
	if err != nil {
		return cur, err
	}
	switch kw {
	case "nowrap", "pre":
		return WrapNone, nil
	case "normal", "pre-wrap", "pre-line":
		if cur == WrapNone {
			return WrapWordChar, nil
		}
		return cur, nil
	default:
		return cur, fmt.Errorf("unsupported white-space %q", kw)
	}
}

func toWordBreak(raw any) (WrapMode, error) {
	kw, err := toKeyword(raw)
	if err != nil {
		return WrapWordChar, err
	}
	switch kw {
	case "normal", "break-word":
		return WrapWordChar, nil
	case "keep-all":
		return WrapWord, nil
	case "break-all":
		return WrapChar, nil
	default:
		return WrapWordChar, fmt.Errorf("unsupported word-break %q", kw)
	}
}

func toKeyword(raw any) (string, error) {
	s, ok := raw.(string)
	if !ok {
		return "", fmt.Errorf("expected keyword, got %s", jsonType(raw))
	}
	return strings.ToLower(strings.TrimSpace(s)), nil
}

func toFlexDirection(raw any) (FlexDirection, error) {
	kw, err := toKeyword(raw)
	if err != nil {
		return Row, err
	}
	switch kw {
	case "row":
		return Row, nil
	case "column":
		return Column, nil
	default:
		return Row, fmt.Errorf("unsupported flex direction %q", kw)
	}
}

func toJustify(raw any) (Justify, error) {
	kw, err := toKeyword(raw)
	if err != nil {
		return JustifyStart, err
	}
	switch kw {
	case "start", "flex-start", "left", "normal":
		return JustifyStart, nil
	case "center":
		return JustifyCenter, nil
	case "end", "flex-end", "right":
		return JustifyEnd, nil
	case "space-between":
		return JustifySpaceBetween, nil
	case "space-around":
		return JustifySpaceAround, nil
	case "space-evenly":
		return JustifySpaceEvenly, nil
	default:
		return JustifyStart, fmt.Errorf("unsupported justify-content %q", kw)
	}
}

func toAlign(raw any) (Align, error) {
	kw, err := toKeyword(raw)
	if err != nil {
		return AlignStretch, err
	}
	switch kw {
	case "stretch", "normal":
		return AlignStretch, nil
	case "start", "flex-start":
		return AlignStart, nil
	case "center":
		return AlignCenter, nil
	case "end", "flex-end":
		return AlignEnd, nil
	default:
		return AlignStretch, fmt.Errorf("unsupported align-items %q", kw)
	}
}

func toTextAlign(raw any) (TextAlign, error) {
	kw, err := toKeyword(raw)
	if err != nil {
		return TextAlignLeft, err
	}
	switch kw {
	case "left", "start", "justify":
		return TextAlignLeft, nil
	case "center":
		return TextAlignCenter, nil
	case "right", "end":
		return TextAlignRight, nil
	default:
		return TextAlignLeft, fmt.Errorf("unsupported text-align %q", kw)
	}
}

func jsonType(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case map[string]any:
		return "object"
	case []any:
		return "array"
	case string:
		return "string"
	case json.Number, float64, int:
		return "number"
	case bool:
		return "boolean"
	default:
		return fmt.Sprintf("%T", v)
	}
}
