package cli

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/gogpu/ogimage"
	"github.com/gogpu/ogimage/internal/fetch"
	"github.com/gogpu/ogimage/node"
)

type renderOptions struct {
	input     string
	output    string
	width     int
	height    int
	format    string
	quality   int
	resources []string
	fetch     bool
}

func (c *CLI) renderCommand() *cobra.Command {
	var opts renderOptions
	cmd := &cobra.Command{
		Use:   "render",
		Short: "Render a node tree to an image file",
		Example: `  ogimage render -i card.json -o card.png
  ogimage render -i card.json -o card.webp -W 1200 -H 630 -q 80
  cat card.json | ogimage render -o - > card.png`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("fetch") {
				opts.fetch = c.cfg.Fetch.Enabled
			}
			return c.runRender(cmd, opts)
		},
	}
	f := cmd.Flags()
	f.StringVarP(&opts.input, "input", "i", "-", "JSON tree file, - for stdin")
	f.StringVarP(&opts.output, "output", "o", "", "output file, - for stdout (default derived from input)")
	f.IntVarP(&opts.width, "width", "W", 0, "image width in pixels (default from config)")
	f.IntVarP(&opts.height, "height", "H", 0, "image height in pixels (default from config)")
	f.StringVarP(&opts.format, "format", "f", "", "png, jpeg or webp (default from output extension or config)")
	f.IntVarP(&opts.quality, "quality", "q", -1, "lossy quality 0-100")
	f.StringArrayVarP(&opts.resources, "resource", "r", nil, "image resource as key=path, repeatable")
	f.BoolVar(&opts.fetch, "fetch", false, "download http(s) image sources (default from config)")
	return cmd
}

func (c *CLI) runRender(cmd *cobra.Command, opts renderOptions) error {
	start := time.Now()
	data, err := c.readInput(opts.input)
	if err != nil {
		return err
	}
	root, err := node.Decode(data)
	if err != nil {
		return err
	}

	resources := make(map[string][]byte, len(opts.resources))
	for _, kv := range opts.resources {
		key, path, ok := strings.Cut(kv, "=")
		if !ok {
			return fmt.Errorf("--resource %q: want key=path", kv)
		}
		b, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		resources[key] = b
	}
	if opts.fetch {
		f := c.fetcher()
		if resources, err = f.Prefetch(cmd.Context(), root, resources); err != nil {
			return err
		}
	}

	reg, err := c.registry()
	if err != nil {
		return err
	}
	format := opts.format
	if format == "" {
		format = formatFromPath(opts.output)
	}
	if format == "" {
		format = c.cfg.Render.Format
	}
	quality := opts.quality
	if quality < 0 {
		quality = c.cfg.Render.Quality
	}
	width := orDefault(opts.width, c.cfg.Render.Width)
	height := orDefault(opts.height, c.cfg.Render.Height)
	if rc := c.cfg.Render; (rc.MaxWidth > 0 && width > rc.MaxWidth) || (rc.MaxHeight > 0 && height > rc.MaxHeight) {
		return fmt.Errorf("%dx%d exceeds the %dx%d limit (render.max_width, render.max_height)",
			width, height, rc.MaxWidth, rc.MaxHeight)
	}
	req, err := ogimage.NewRequest(root, width, height,
		ogimage.WithFormat(format),
		ogimage.WithQuality(quality),
		ogimage.WithRegistry(reg),
		ogimage.WithResources(resources),
	)
	if err != nil {
		return err
	}
	out, err := ogimage.RenderContext(cmd.Context(), req)
	if err != nil {
		return err
	}

	dst := opts.output
	if dst == "" {
		dst = defaultOutput(opts.input, req.Format.String())
	}
	if err := c.writeOutput(dst, out); err != nil {
		return err
	}
	c.Logger.Info("rendered",
		"output", dst, "size", fmt.Sprintf("%dx%d", req.Width, req.Height),
		"format", req.Format.String(), "bytes", len(out),
		"elapsed", time.Since(start).Round(time.Millisecond))
	return nil
}

func (c *CLI) fetcher() *fetch.Fetcher {
	fc := c.cfg.Fetch
	opts := []fetch.Option{
		fetch.WithLogger(c.slogger()),
		fetch.WithAllowPrivate(fc.AllowPrivate),
		fetch.WithAllowHosts(fc.AllowHosts...),
	}
	if fc.Timeout.Duration > 0 {
		opts = append(opts, fetch.WithTimeout(fc.Timeout.Duration))
	}
	if fc.Concurrency > 0 {
		opts = append(opts, fetch.WithConcurrency(fc.Concurrency))
	}
	if fc.Attempts > 0 {
		opts = append(opts, fetch.WithRetry(fc.Attempts, fetch.DefaultDelay))
	}
	if fc.MaxBytes > 0 {
		opts = append(opts, fetch.WithMaxBytes(fc.MaxBytes))
	}
	return fetch.New(opts...)
}

func (c *CLI) readInput(path string) ([]byte, error) {
	if path == "-" || path == "" {
		return io.ReadAll(c.in)
	}
	return os.ReadFile(path)
}

func (c *CLI) writeOutput(path string, data []byte) error {
	if path == "-" {
		_, err := c.out.Write(data)
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func formatFromPath(path string) string {
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".png", ".jpg", ".jpeg", ".webp":
		return ext[1:]
	default:
		return ""
	}
}

func defaultOutput(input, format string) string {
	if input == "-" || input == "" {
		return "-"
	}
	return strings.TrimSuffix(input, filepath.Ext(input)) + "." + format
}

func orDefault(v, def int) int {
	if v == 0 {
		return def
	}
	return v
}
