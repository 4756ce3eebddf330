package cli

import (
	"bytes"
	"context"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCLI(stdin string) (*CLI, *bytes.Buffer, *bytes.Buffer) {
	var logs, out bytes.Buffer
	c := New(&logs)
	c.in = strings.NewReader(stdin)
	c.out = &out
	return c, &out, &logs
}

const tree = `{"type": "container", "style": {"backgroundColor": "#1e293b"}, "children": [
	{"type": "text", "value": "Hello", "style": {"color": "white", "fontSize": 24}}
]}`

func TestRender_FileToFile(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "card.json")
	require.NoError(t, os.WriteFile(in, []byte(tree), 0o600))

	c, _, logs := newTestCLI("")
	err := c.Execute(context.Background(), []string{"render", "-i", in, "-W", "120", "-H", "60", "--config", filepath.Join(dir, "none.toml")})
	require.NoError(t, err, logs.String())

	f, err := os.Open(filepath.Join(dir, "card.png"))
	require.NoError(t, err)
	defer f.Close()
	cfg, format, err := image.DecodeConfig(f)
	require.NoError(t, err)
	assert.Equal(t, "png", format)
	assert.Equal(t, 120, cfg.Width)
	assert.Equal(t, 60, cfg.Height)
	assert.Contains(t, logs.String(), "rendered")
}

func TestRender_StdinToStdoutJPEG(t *testing.T) {
	c, out, logs := newTestCLI(tree)
	err := c.Execute(context.Background(), []string{"render", "-o", "-", "-f", "jpg", "-W", "50", "-H", "20"})
	require.NoError(t, err, logs.String())

	cfg, format, err := image.DecodeConfig(out)
	require.NoError(t, err)
	assert.Equal(t, "jpeg", format)
	assert.Equal(t, 50, cfg.Width)
}

func TestRender_FormatFromExtension(t *testing.T) {
	dir := t.TempDir()
	dst := filepath.Join(dir, "out.jpeg")
	c, _, logs := newTestCLI(tree)
	require.NoError(t, c.Execute(context.Background(), []string{"render", "-o", dst, "-W", "30", "-H", "30"}), logs.String())

	data, err := os.ReadFile(dst)
	require.NoError(t, err)
	_, format, err := image.DecodeConfig(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, "jpeg", format)
}

func TestRender_Errors(t *testing.T) {
	tests := []struct {
		name  string
		stdin string
		args  []string
		want  string
	}{
		{"bad tree", `{"type": "nope"}`, []string{"render", "-o", "-"}, "unknown node type"},
		{"bad format", tree, []string{"render", "-o", "-", "-f", "gif"}, "unsupported format"},
		{"bad resource", tree, []string{"render", "-o", "-", "-r", "logo"}, "key=path"},
		{"too wide", tree, []string{"render", "-o", "-", "-W", "5000"}, "exceeds the 4096x4096 limit"},
		{
			"private image source",
			`{"type": "image", "src": "http://127.0.0.1:9/a.png", "style": {"width": 10, "height": 10}}`,
			[]string{"render", "-o", "-", "--fetch"},
			"address not allowed",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, out, _ := newTestCLI(tt.stdin)
			err := c.Execute(context.Background(), tt.args)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
			assert.Zero(t, out.Len(), "no partial output")
		})
	}
}

func TestFontsCommand(t *testing.T) {
	c, out, _ := newTestCLI("")
	require.NoError(t, c.Execute(context.Background(), []string{"fonts"}))
	assert.Contains(t, out.String(), "NAME")
	assert.Contains(t, out.String(), "Go Mono")
	assert.Contains(t, out.String(), "sans-serif")
	assert.Contains(t, out.String(), "Ogimage Emoji")
	assert.Contains(t, out.String(), "KiB")
}

func TestHumanBytes(t *testing.T) {
	assert.Equal(t, "512 B", humanBytes(512))
	assert.Equal(t, "11.7 KiB", humanBytes(12000))
	assert.Equal(t, "1.5 MiB", humanBytes(3<<19))
}

func TestConfigInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.toml")
	require.NoError(t, os.WriteFile(path, []byte("[cache]\nbackend = \"disk\"\n"), 0o600))
	c, _, _ := newTestCLI("")
	err := c.Execute(context.Background(), []string{"fonts", "--config", path})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cache.backend")
}

func TestFormatFromPath(t *testing.T) {
	assert.Equal(t, "png", formatFromPath("a/b.PNG"))
	assert.Equal(t, "webp", formatFromPath("x.webp"))
	assert.Equal(t, "", formatFromPath("-"))
	assert.Equal(t, "card.webp", defaultOutput("card.json", "webp"))
	assert.Equal(t, "-", defaultOutput("-", "png"))
}
