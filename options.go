package ogimage

import (
	"github.com/gogpu/ogimage/encode"
	"github.com/gogpu/ogimage/fonts"
)

// Request defaults.
const (
	DefaultFormat = encode.PNG

	// QualityDefault asks for the format's default quality.
	QualityDefault = -1
)

// RequestOption configures a Request during NewRequest.
//
// Example:
//
//	req, err := ogimage.NewRequest(root, 1200, 630,
//	    ogimage.WithFormat("webp"),
//	    ogimage.WithQuality(80),
//	)
type RequestOption func(*requestOptions)

type requestOptions struct {
	format    string
	quality   int
	registry  *fonts.Registry
	resources map[string][]byte
	fonts     []fontData
}

type fontData struct {
	name    string
	data    []byte
	generic fonts.Generic
}

func defaultOptions() requestOptions {
	return requestOptions{
		format:  DefaultFormat.String(),
		quality: QualityDefault,
	}
}

// WithFormat selects the output format by name: png, jpeg, jpg or webp,
// in any case. An empty name keeps DefaultFormat.
func WithFormat(name string) RequestOption {
	return func(o *requestOptions) {
		if name != "" {
			o.format = name
		}
	}
}

// WithQuality sets the lossy quality in [0, 100]. Values outside the range
// select the format default. PNG ignores it.
func WithQuality(q int) RequestOption {
	return func(o *requestOptions) {
		o.quality = q
	}
}

// WithRegistry renders against reg instead of fonts.Bundled.
func WithRegistry(reg *fonts.Registry) RequestOption {
	return func(o *requestOptions) {
		o.registry = reg
	}
}

// WithResources supplies image bytes keyed by the Src of image nodes.
func WithResources(res map[string][]byte) RequestOption {
	return func(o *requestOptions) {
		o.resources = res
	}
}

// WithFont layers an extra font over the registry. Fonts given this way
// are parsed by NewRequest; a parse failure is a font stage error.
func WithFont(name string, data []byte, generic fonts.Generic) RequestOption {
	return func(o *requestOptions) {
		o.fonts = append(o.fonts, fontData{name: name, data: data, generic: generic})
	}
}
