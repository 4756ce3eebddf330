package fonts

import (
	_ "embed"
	"os"
	"sync"

	"github.com/flopp/go-findfont"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/gomono"
	"golang.org/x/image/font/gofont/gomonobold"
	"golang.org/x/image/font/gofont/goregular"
)

// emojiTTF is a COLR color emoji font generated by data/genemoji.py. It
// draws every emoji codepoint as one of a few layered pictograms.
//
//go:embed data/emoji.ttf
var emojiTTF []byte

// EmojiFontEnv names an emoji font file that takes precedence over the
// system search.
const EmojiFontEnv = "OGIMAGE_EMOJI_FONT"

// emojiCandidates are searched in the system font directories in order.
var emojiCandidates = []string{
	"NotoColorEmoji.ttf",
	"TwemojiMozilla.ttf",
	"Twemoji.Mozilla.ttf",
	"seguiemj.ttf",
}

var (
	bundledOnce sync.Once
	bundled     *Registry
)

// Bundled returns the process-wide default registry, built on first use.
//
// It holds the Go fonts as sans-serif and monospace and the compiled-in
// emoji font. An emoji font named by $OGIMAGE_EMOJI_FONT or found on the
// system is registered on top and becomes the emoji primary.
func Bundled() *Registry {
	bundledOnce.Do(func() {
		b := NewBuilder()
		if err := RegisterBundled(b); err != nil {
			// The fonts are compiled in; failing to parse them is a
			// broken build.
			panic(err)
		}
		if path := FindEmojiFont(); path != "" {
			if _, err := loadInto(b, path, "emoji", Emoji); err != nil {
				logger().Warn("fonts: emoji font unusable", "path", path, "err", err)
			}
		}
		bundled = b.Freeze()
	})
	return bundled
}

// RegisterBundled adds the compiled-in fonts to b: the Go fonts and the
// emoji font. Register order makes the regular weights the generic
// primaries.
func RegisterBundled(b *Builder) error {
	for _, f := range []struct {
		data    []byte
		name    string
		generic Generic
	}{
		{gobold.TTF, "Go Bold", SansSerif},
		{goregular.TTF, "Go", SansSerif},
		{gomonobold.TTF, "Go Mono Bold", Monospace},
		{gomono.TTF, "Go Mono", Monospace},
		{emojiTTF, "Ogimage Emoji", Emoji},
	} {
		if _, err := b.Register(f.data, f.name, f.generic); err != nil {
			return err
		}
	}
	return nil
}

// FindEmojiFont returns the path of a usable emoji font, or "" if none is
// installed.
func FindEmojiFont() string {
	if p := os.Getenv(EmojiFontEnv); p != "" {
		if _, err := os.Stat(p); err == nil {
			return p
		}
		logger().Warn("fonts: emoji font from environment not found", "path", p)
	}
	for _, name := range emojiCandidates {
		if p, err := findfont.Find(name); err == nil {
			return p
		}
	}
	return ""
}

// RegisterFile loads the font at path into b.
func RegisterFile(b *Builder, path, name string, generic Generic) (*Resource, error) {
	return loadInto(b, path, name, generic)
}

func loadInto(b *Builder, path, name string, generic Generic) (*Resource, error) {
	r, err := LoadFile(path, name, generic)
	if err != nil {
		return nil, err
	}
	if err := b.Add(r); err != nil {
		return nil, err
	}
	return r, nil
}
