// Package cli implements the ogimage command-line interface.
//
// # Commands
//
//   - render: render a JSON node tree to a PNG, JPEG or WebP file
//   - serve: run the HTTP rendering service
//   - fonts: list the fonts available to renders
//
// Every command reads the TOML file named by --config (or $OGIMAGE_CONFIG)
// and logs to stderr through charmbracelet/log; --verbose enables debug
// output, including the library's own stage timings.
package cli

import (
	"context"
	"io"
	"log/slog"
	"os"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/gogpu/ogimage"
	"github.com/gogpu/ogimage/fonts"
	"github.com/gogpu/ogimage/internal/config"
)

const appName = "ogimage"

// CLI holds state shared by all commands.
type CLI struct {
	Logger *log.Logger

	out        io.Writer
	in         io.Reader
	configPath string
	verbose    bool
	cfg        config.Config
}

// New returns a CLI logging to w at info level.
func New(w io.Writer) *CLI {
	return &CLI{
		Logger: log.NewWithOptions(w, log.Options{
			ReportTimestamp: true,
			TimeFormat:      "15:04:05.00",
			Level:           log.InfoLevel,
			Prefix:          appName,
		}),
		out: os.Stdout,
		in:  os.Stdin,
	}
}

// RootCommand builds the command tree.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           appName,
		Short:         "Render social card images from a JSON node tree",
		Version:       ogimage.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if c.verbose {
				c.Logger.SetLevel(log.DebugLevel)
				ogimage.SetLogger(slog.New(c.Logger))
			}
			cfg, err := config.Load(c.configPath)
			if err != nil {
				return err
			}
			c.cfg = cfg
			c.Logger.Debug("config loaded", "path", c.configPath)
			return nil
		},
	}
	root.SetOut(c.out)
	root.PersistentFlags().StringVar(&c.configPath, "config", "", "TOML config file (default $"+config.EnvFile+")")
	root.PersistentFlags().BoolVarP(&c.verbose, "verbose", "v", false, "enable debug logging")

	root.AddCommand(c.renderCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.fontsCommand())
	return root
}

// Execute runs the CLI with args.
func (c *CLI) Execute(ctx context.Context, args []string) error {
	root := c.RootCommand()
	root.SetArgs(args)
	err := root.ExecuteContext(ctx)
	if err != nil {
		c.Logger.Error(err.Error())
	}
	return err
}

// registry returns the fonts configured for this run.
func (c *CLI) registry() (*fonts.Registry, error) {
	fc := c.cfg.Fonts
	if fc.Emoji == "" && len(fc.Extra) == 0 {
		return fonts.Bundled(), nil
	}

	var b *fonts.Builder
	if fc.Emoji != "" {
		b = fonts.NewBuilder()
		if err := fonts.RegisterBundled(b); err != nil {
			return nil, err
		}
		if _, err := fonts.RegisterFile(b, fc.Emoji, "emoji", fonts.Emoji); err != nil {
			return nil, err
		}
	} else {
		b = fonts.Bundled().Extend()
	}
	for _, f := range fc.Extra {
		generic, err := fonts.ParseGeneric(f.Generic)
		if err != nil {
			return nil, err
		}
		if _, err := fonts.RegisterFile(b, f.Path, f.Name, generic); err != nil {
			return nil, err
		}
		c.Logger.Debug("font loaded", "path", f.Path, "name", f.Name)
	}
	return b.Freeze(), nil
}
