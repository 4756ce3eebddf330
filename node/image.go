package node

import (
	"encoding/base64"
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// ErrUnresolvedImage is returned when an image source is neither inline
// data nor present in the render's resources.
var ErrUnresolvedImage = errors.New("node: unresolved image source")

// Bytes returns the encoded image data of i. Inline Data wins; a data URI
// in Src is decoded; any other Src is looked up in resources.
func (i *Image) Bytes(resources map[string][]byte) ([]byte, error) {
	if len(i.Data) > 0 {
		return i.Data, nil
	}
	if strings.HasPrefix(i.Src, "data:") {
		return DecodeDataURI(i.Src)
	}
	if b, ok := resources[i.Src]; ok && len(b) > 0 {
		return b, nil
	}
	return nil, fmt.Errorf("%w %q", ErrUnresolvedImage, i.Src)
}

// IsRemote reports whether Src must be fetched before rendering.
func (i *Image) IsRemote() bool {
	return len(i.Data) == 0 &&
		(strings.HasPrefix(i.Src, "http://") || strings.HasPrefix(i.Src, "https://"))
}

// DecodeDataURI decodes an RFC 2397 data URI.
func DecodeDataURI(uri string) ([]byte, error) {
	rest, ok := strings.CutPrefix(uri, "data:")
	if !ok {
		return nil, fmt.Errorf("node: not a data URI")
	}
	meta, payload, ok := strings.Cut(rest, ",")
	if !ok {
		return nil, fmt.Errorf("node: malformed data URI")
	}
	if strings.HasSuffix(meta, ";base64") {
		b, err := base64.StdEncoding.DecodeString(payload)
		if err != nil {
			// Some encoders emit unpadded or URL-safe base64.
			if b2, err2 := base64.RawURLEncoding.DecodeString(strings.TrimRight(payload, "=")); err2 == nil {
				return b2, nil
			}
			return nil, fmt.Errorf("node: data URI: %w", err)
		}
		return b, nil
	}
	s, err := url.PathUnescape(payload)
	if err != nil {
		return nil, fmt.Errorf("node: data URI: %w", err)
	}
	return []byte(s), nil
}
