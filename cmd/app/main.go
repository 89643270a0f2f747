package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	_ "github.com/joho/godotenv/autoload"
	"github.com/urfave/cli/v3"

	"github.com/starford/stickit/internal"
	"github.com/starford/stickit/internal/markdown"
	"github.com/starford/stickit/internal/render"
	pkgconfig "github.com/starford/stickit/pkg/config"
)

var version = "dev"

func loadConfig(cmd *cli.Command) (*internal.Config, error) {
	configPath := cmd.String("config")

	cfg := internal.NewDefaultConfig()
	loaded, err := pkgconfig.LoadIfExists(configPath, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if !loaded {
		slog.Debug("config file not found, using defaults", slog.String("path", configPath))
	}
	return cfg, nil
}

func serve(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	opts := []internal.Option{
		internal.WithConfig(cfg),
		internal.WithVersion(version),
	}

	if err := internal.Run(ctx, opts...); err != nil {
		return fmt.Errorf("app run error: %w", err)
	}

	return nil
}

func serveMCP(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if err := internal.RunMCP(ctx, internal.WithConfig(cfg), internal.WithVersion(version)); err != nil {
		return fmt.Errorf("mcp run error: %w", err)
	}
	return nil
}

// renderFile prints a markdown file with the terminal or HTML renderer.
// With --toggle the checkbox at that node index is flipped and the file is
// rewritten before rendering, keeping its line ending style.
func renderFile(_ context.Context, cmd *cli.Command) error {
	path := cmd.Args().First()
	if path == "" {
		return fmt.Errorf("render: file argument is required")
	}

	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(os.Stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return fmt.Errorf("render: %w", err)
	}
	eol, consistent := markdown.LineEnding(string(data))
	text := markdown.NormalizeNewlines(string(data))

	var commit render.CommitFunc
	if path != "-" {
		commit = func(updated string) error {
			return os.WriteFile(path, []byte(markdown.RestoreLineEndings(updated, eol)), 0o644)
		}
	}
	session := render.NewSession(text, commit)

	if cmd.IsSet("toggle") {
		if !consistent {
			return fmt.Errorf("render: %s mixes line endings, refusing to rewrite it", path)
		}
		if err := session.Toggle(int(cmd.Int("toggle"))); err != nil {
			return fmt.Errorf("render: %w", err)
		}
	}

	limit := int(cmd.Int("limit"))
	var out string
	if cmd.Bool("html") {
		out = render.NewHTMLRenderer(render.WithLimit(limit)).Render(session)
	} else {
		out = render.NewTerminalRenderer(render.WithLimit(limit)).Render(session)
	}
	_, err = fmt.Fprintln(os.Stdout, out)
	return err
}

func main() {
	cmd := &cli.Command{
		Name:    "stickit",
		Usage:   "Sticky notes with checkbox markdown, a REST API and MCP tools",
		Version: version,
		Action:  serve,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "config",
				Aliases:     []string{"c"},
				Usage:       "Path to config file",
				DefaultText: "config/config.yaml",
				Value:       "config/config.yaml",
				Sources:     cli.EnvVars("APP_CONFIG_FILE"),
			},
		},
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "Run the HTTP server, vault watcher and event stream",
				Action: serve,
			},
			{
				Name:   "mcp",
				Usage:  "Serve MCP tools on stdin/stdout",
				Action: serveMCP,
			},
			{
				Name:      "render",
				Usage:     "Render a markdown file (- for stdin)",
				ArgsUsage: "<file>",
				Action:    renderFile,
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:  "limit",
						Usage: "Render only the first N nodes (0 for all)",
					},
					&cli.BoolFlag{
						Name:  "html",
						Usage: "Print sanitized HTML instead of terminal output",
					},
					&cli.IntFlag{
						Name:  "toggle",
						Usage: "Flip the checkbox at this node index and save the file",
					},
				},
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		slog.Error("application error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
