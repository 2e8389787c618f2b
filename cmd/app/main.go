package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	_ "github.com/joho/godotenv/autoload"
	"github.com/urfave/cli/v3"

	"github.com/starford/dou/internal"
	"github.com/starford/dou/internal/projectservice"
	pkgconfig "github.com/starford/dou/pkg/config"
)

func loadConfig(cmd *cli.Command) (*internal.Config, error) {
	cfg := internal.NewDefaultConfig()
	if err := pkgconfig.Load(cmd.String("config"), cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return cfg, nil
}

func serve(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if err := internal.Run(ctx, internal.WithConfig(cfg)); err != nil {
		return fmt.Errorf("app run error: %w", err)
	}
	return nil
}

func serveMCP(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	return internal.RunMCP(ctx, internal.WithConfig(cfg), internal.WithLogOutput(os.Stderr))
}

func projectArg(cmd *cli.Command) (string, error) {
	project := cmd.Args().First()
	if project == "" {
		return "", fmt.Errorf("project path is required")
	}
	return project, nil
}

func paths(ctx context.Context, cmd *cli.Command) error {
	project, err := projectArg(cmd)
	if err != nil {
		return err
	}
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	opts := []internal.Option{internal.WithConfig(cfg), internal.WithLogOutput(os.Stderr)}
	if q := cmd.String("question"); q != "" {
		return internal.PrintPrompt(ctx, os.Stdout, project, cmd.String("path"), q, opts...)
	}
	return internal.PrintPaths(ctx, os.Stdout, project, opts...)
}

func export(ctx context.Context, cmd *cli.Command) error {
	project, err := projectArg(cmd)
	if err != nil {
		return err
	}
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	var w io.Writer = os.Stdout
	if out := cmd.String("output"); out != "" {
		f, err := os.Create(out)
		if err != nil {
			return fmt.Errorf("create output: %w", err)
		}
		defer f.Close()
		w = f
	}
	return internal.ExportMarkdown(ctx, w, project, internal.WithConfig(cfg), internal.WithLogOutput(os.Stderr))
}

func main() {
	cmd := &cli.Command{
		Name:   "dou",
		Usage:  "Sticky-note canvas whose connected notes become prompt context",
		Action: serve,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "config",
				Aliases:     []string{"c"},
				Usage:       "Path to config file (.yaml or .toml)",
				DefaultText: "config/config.yaml",
				Value:       "config/config.yaml",
				Sources:     cli.EnvVars("APP_CONFIG_FILE"),
			},
		},
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "Run the HTTP API",
				Action: serve,
			},
			{
				Name:   "mcp",
				Usage:  "Serve MCP tools on stdin/stdout",
				Action: serveMCP,
			},
			{
				Name:      "paths",
				Usage:     "Print the traversal paths of a project, or a prompt built from them",
				ArgsUsage: "<project.dou>",
				Action:    paths,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "question",
						Aliases: []string{"q"},
						Usage:   "Print the prompt for this question instead of the paths",
					},
					&cli.StringFlag{
						Name:  "path",
						Usage: "Path number used as prompt context, or \"all\"",
						Value: projectservice.PathAll,
					},
				},
			},
			{
				Name:      "export",
				Usage:     "Export a project as Markdown",
				ArgsUsage: "<project.dou>",
				Action:    export,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   "Write to this file instead of stdout",
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
