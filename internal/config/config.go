// Package config loads the TOML configuration of the ogimage command.
//
// A missing file is not an error; every field has a default. Example:
//
//	[render]
//	width = 1200
//	height = 630
//	format = "png"
//	max_width = 4096
//	max_height = 4096
//
//	[server]
//	addr = ":8080"
//	timeout = "10s"
//
//	[cache]
//	backend = "redis"
//	ttl = "1h"
//	[cache.redis]
//	addr = "localhost:6379"
//
//	[fetch]
//	enabled = true
//	allow_hosts = ["images.example.com"]
//
//	[[fonts.extra]]
//	path = "/usr/share/fonts/Inter-Bold.ttf"
//	name = "Inter"
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/gogpu/ogimage/canvas"
	"github.com/gogpu/ogimage/fonts"
)

// EnvFile names a config file used when no path is given.
const EnvFile = "OGIMAGE_CONFIG"

// Duration is a time.Duration written as a string such as "10s".
type Duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// Config is the full configuration.
type Config struct {
	Render Render `toml:"render"`
	Server Server `toml:"server"`
	Cache  Cache  `toml:"cache"`
	Fetch  Fetch  `toml:"fetch"`
	Fonts  Fonts  `toml:"fonts"`
}

// Render holds defaults for requests that leave them out, and the
// largest viewport a request may ask for.
type Render struct {
	Width     int    `toml:"width"`
	Height    int    `toml:"height"`
	Format    string `toml:"format"`
	Quality   int    `toml:"quality"`
	MaxWidth  int    `toml:"max_width"`
	MaxHeight int    `toml:"max_height"`
}

// Server configures the HTTP service.
type Server struct {
	Addr         string   `toml:"addr"`
	Timeout      Duration `toml:"timeout"`
	MaxBodyBytes int64    `toml:"max_body_bytes"`
}

// Cache selects the output cache backend: "memory", "redis" or "none".
type Cache struct {
	Backend  string   `toml:"backend"`
	TTL      Duration `toml:"ttl"`
	MaxBytes int64    `toml:"max_bytes"`
	Redis    Redis    `toml:"redis"`
}

// Redis locates the Redis server for the redis backend.
type Redis struct {
	Addr     string `toml:"addr"`
	Password string `toml:"password"`
	DB       int    `toml:"db"`
	Prefix   string `toml:"prefix"`
}

// Fetch configures downloads of remote image sources. It is off unless
// enabled, and private addresses stay unreachable unless allow_private
// is set.
type Fetch struct {
	Enabled      bool     `toml:"enabled"`
	Timeout      Duration `toml:"timeout"`
	Attempts     int      `toml:"attempts"`
	MaxBytes     int64    `toml:"max_bytes"`
	Concurrency  int      `toml:"concurrency"`
	AllowHosts   []string `toml:"allow_hosts"`
	AllowPrivate bool     `toml:"allow_private"`
}

// Fonts adds fonts on top of the bundled set.
type Fonts struct {
	// Emoji overrides the emoji font search.
	Emoji string     `toml:"emoji"`
	Extra []FontFile `toml:"extra"`
}

// FontFile is one extra font.
type FontFile struct {
	Path string `toml:"path"`
	Name string `toml:"name"`

	// Generic is "sans-serif", "monospace", "emoji" or empty.
	Generic string `toml:"generic"`
}

// Default returns the configuration used when no file is present.
func Default() Config {
	return Config{
		Render: Render{
			Width:     1200,
			Height:    630,
			Format:    "png",
			Quality:   -1,
			MaxWidth:  4096,
			MaxHeight: 4096,
		},
		Server: Server{
			Addr:         ":8080",
			Timeout:      Duration{10 * time.Second},
			MaxBodyBytes: 4 << 20,
		},
		Cache: Cache{
			Backend:  "memory",
			TTL:      Duration{time.Hour},
			MaxBytes: 64 << 20,
			Redis:    Redis{Addr: "localhost:6379", Prefix: "ogimage:"},
		},
		Fetch: Fetch{
			Timeout:     Duration{10 * time.Second},
			Attempts:    3,
			MaxBytes:    10 << 20,
			Concurrency: 4,
		},
	}
}

// Load reads path over the defaults. An empty path falls back to
// $OGIMAGE_CONFIG; a path that does not exist yields the defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		path = os.Getenv(EnvFile)
	}
	if path == "" {
		return cfg, nil
	}
	md, err := toml.DecodeFile(path, &cfg)
	if errors.Is(err, fs.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return Config{}, fmt.Errorf("config: %s: %w", path, err)
	}
	if keys := md.Undecoded(); len(keys) > 0 {
		names := make([]string, len(keys))
		for i, k := range keys {
			names[i] = k.String()
		}
		return Config{}, fmt.Errorf("config: %s: unknown keys: %s", path, strings.Join(names, ", "))
	}
	return cfg, cfg.Validate()
}

// Parse decodes TOML text over the defaults.
func Parse(text string) (Config, error) {
	cfg := Default()
	if _, err := toml.Decode(text, &cfg); err != nil {
		return Config{}, fmt.Errorf("config: %w", err)
	}
	return cfg, cfg.Validate()
}

// Validate reports the first invalid setting.
func (c Config) Validate() error {
	switch c.Cache.Backend {
	case "memory", "redis", "none", "":
	default:
		return fmt.Errorf("config: cache.backend %q: want memory, redis or none", c.Cache.Backend)
	}
	for _, d := range []struct {
		key string
		v   int
	}{
		{"render.max_width", c.Render.MaxWidth},
		{"render.max_height", c.Render.MaxHeight},
		{"render.width", c.Render.Width},
		{"render.height", c.Render.Height},
	} {
		if d.v < 0 || d.v > canvas.MaxDimension {
			return fmt.Errorf("config: %s %d: want 0 to %d", d.key, d.v, canvas.MaxDimension)
		}
	}
	if c.Render.MaxWidth > 0 && c.Render.Width > c.Render.MaxWidth {
		return fmt.Errorf("config: render.width %d exceeds render.max_width %d", c.Render.Width, c.Render.MaxWidth)
	}
	if c.Render.MaxHeight > 0 && c.Render.Height > c.Render.MaxHeight {
		return fmt.Errorf("config: render.height %d exceeds render.max_height %d", c.Render.Height, c.Render.MaxHeight)
	}
	for i, f := range c.Fonts.Extra {
		if f.Path == "" {
			return fmt.Errorf("config: fonts.extra[%d]: path is required", i)
		}
		if _, err := fonts.ParseGeneric(f.Generic); err != nil {
			return fmt.Errorf("config: fonts.extra[%d].generic: %w", i, err)
		}
	}
	if c.Fetch.Concurrency < 0 {
		return fmt.Errorf("config: fetch.concurrency must not be negative")
	}
	if c.Server.Timeout.Duration < 0 {
		return fmt.Errorf("config: server.timeout must not be negative")
	}
	return nil
}
