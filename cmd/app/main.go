package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	_ "github.com/joho/godotenv/autoload"
	"github.com/urfave/cli/v3"

	"github.com/mossdal/loom/internal"
	"github.com/mossdal/loom/internal/archive"
	"github.com/mossdal/loom/internal/bind"
	"github.com/mossdal/loom/internal/format"
	"github.com/mossdal/loom/internal/mcpserver"
	"github.com/mossdal/loom/internal/prepare"
	"github.com/mossdal/loom/internal/render"
	"github.com/mossdal/loom/internal/tangle"
	"github.com/mossdal/loom/internal/weave"
	pkgconfig "github.com/mossdal/loom/pkg/config"
)

func newLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(os.Stderr, nil))
}

// inputFlags are shared by the commands that accept either a single file
// or a whole directory tree.
func inputFlags(withOutput bool) []cli.Flag {
	flags := []cli.Flag{
		&cli.StringFlag{
			Name:  "file",
			Usage: "Process a single file",
		},
		&cli.StringFlag{
			Name:  "folder",
			Usage: "Process a directory tree",
		},
	}
	if withOutput {
		flags = append(flags, &cli.StringFlag{
			Name:    "output",
			Aliases: []string{"o"},
			Usage:   "Output directory",
			Value:   "output",
		})
	}
	return flags
}

// inputArgs validates the --file/--folder pair and returns whichever was set.
func inputArgs(cmd *cli.Command) (file, folder string, err error) {
	file = cmd.String("file")
	folder = cmd.String("folder")
	if (file == "") == (folder == "") {
		return "", "", fmt.Errorf("exactly one of --file or --folder is required")
	}
	return file, folder, nil
}

func serve(ctx context.Context, cmd *cli.Command) error {
	configPath := cmd.String("config")

	cfg := internal.NewDefaultConfig()
	if err := pkgconfig.Load(configPath, cfg); err != nil {
		return fmt.Errorf("failed to parse config: %w", err)
	}

	opts := []internal.Option{
		internal.WithConfig(cfg),
	}

	if err := internal.Run(ctx, opts...); err != nil {
		return fmt.Errorf("app run error: %w", err)
	}

	return nil
}

func main() {
	cmd := &cli.Command{
		Name:  "loom",
		Usage: "Literate programming toolchain: weave code into Markdown books and tangle them back",
		Commands: []*cli.Command{
			{
				Name:  "weave",
				Usage: "Convert source code into literate Markdown documents with a content index",
				Flags: inputFlags(true),
				Action: func(ctx context.Context, cmd *cli.Command) error {
					file, folder, err := inputArgs(cmd)
					if err != nil {
						return err
					}
					output := cmd.String("output")
					if folder != "" {
						_, err := weave.ConvertTree(folder, output, newLogger())
						return err
					}
					if err := os.MkdirAll(output, 0o755); err != nil {
						return err
					}
					_, err = weave.ConvertFile(file, output)
					return err
				},
			},
			{
				Name:  "tangle",
				Usage: "Extract source files from literate Markdown documents",
				Flags: inputFlags(true),
				Action: func(ctx context.Context, cmd *cli.Command) error {
					file, folder, err := inputArgs(cmd)
					if err != nil {
						return err
					}
					output := cmd.String("output")
					if folder != "" {
						return tangle.Tree(folder, output, newLogger())
					}
					files, err := tangle.File(file)
					if err != nil {
						return err
					}
					if err := os.MkdirAll(output, 0o755); err != nil {
						return err
					}
					for name, code := range files {
						if err := os.WriteFile(filepath.Join(output, name), []byte(code), 0o644); err != nil {
							return err
						}
					}
					return nil
				},
			},
			{
				Name:  "bind",
				Usage: "Collect Markdown documents with placeholders resolved against the full source tree",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "folder",
						Usage:    "Source tree to bind",
						Required: true,
					},
					&cli.StringFlag{
						Name:     "output",
						Aliases:  []string{"o"},
						Usage:    "Output directory",
						Required: true,
					},
				},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					return bind.Tree(cmd.String("folder"), cmd.String("output"), newLogger())
				},
			},
			{
				Name:  "prepare",
				Usage: "Create or extend per-directory README files with placeholder mentions",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "folder",
						Usage:    "Tree to prepare",
						Required: true,
					},
				},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					return prepare.Tree(cmd.String("folder"), newLogger())
				},
			},
			{
				Name:  "fmt",
				Usage: "Format fenced code blocks in Markdown files with black and rustfmt",
				Flags: inputFlags(false),
				Action: func(ctx context.Context, cmd *cli.Command) error {
					file, folder, err := inputArgs(cmd)
					if err != nil {
						return err
					}
					if folder != "" {
						return format.Tree(folder, format.ExternalRunner, newLogger())
					}
					return format.File(file, format.ExternalRunner, newLogger())
				},
			},
			{
				Name:  "render",
				Usage: "Render woven Markdown documents into a static HTML site",
				Flags: append(inputFlags(true), &cli.StringFlag{
					Name:  "css",
					Usage: "Path to a stylesheet inlined into every page",
				}),
				Action: func(ctx context.Context, cmd *cli.Command) error {
					file, folder, err := inputArgs(cmd)
					if err != nil {
						return err
					}
					output := cmd.String("output")
					if folder != "" {
						_, err := render.Tree(folder, output, cmd.String("css"), newLogger())
						return err
					}
					if err := os.MkdirAll(output, 0o755); err != nil {
						return err
					}
					var css string
					if path := cmd.String("css"); path != "" {
						data, err := os.ReadFile(path)
						if err != nil {
							return err
						}
						css = string(data)
					}
					stem := strings.TrimSuffix(filepath.Base(file), filepath.Ext(file))
					return render.File(file, filepath.Join(output, stem+".html"), css)
				},
			},
			{
				Name:      "save",
				Usage:     "Archive file contents in the SQLite document archive",
				ArgsUsage: "<file>...",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "db",
						Usage: "Path to the archive database",
						Value: "loom.db",
					},
				},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					files := cmd.Args().Slice()
					if len(files) == 0 {
						return fmt.Errorf("expected at least one file to archive")
					}
					store, err := archive.Open(cmd.String("db"))
					if err != nil {
						return err
					}
					defer store.Close()
					return store.SaveFiles(files)
				},
			},
			{
				Name:  "serve",
				Usage: "Serve the woven documentation with live rebuild, search API, and SSE updates",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:        "config",
						Aliases:     []string{"c"},
						Usage:       "Path to config file",
						DefaultText: "config/config.yaml",
						Value:       "config/config.yaml",
						Sources:     cli.EnvVars("LOOM_CONFIG_FILE"),
					},
				},
				Action: serve,
			},
			{
				Name:  "mcp",
				Usage: "Serve literate-programming tools over the Model Context Protocol on stdio",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "db",
						Usage: "Path to the archive database",
						Value: "loom.db",
					},
				},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					store, err := archive.Open(cmd.String("db"))
					if err != nil {
						return err
					}
					defer store.Close()
					return mcpserver.New(store).ServeStdio()
				},
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		slog.Error("application error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
