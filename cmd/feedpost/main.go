package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	_ "github.com/joho/godotenv/autoload"
	"github.com/urfave/cli/v3"

	"github.com/starford/feedpost/internal"
	"github.com/starford/feedpost/internal/assemble"
	"github.com/starford/feedpost/internal/microfeed"
	pkgconfig "github.com/starford/feedpost/pkg/config"
)

// open loads the config file if present, applies flag overrides and opens
// the application.
func open(cmd *cli.Command) (*internal.Application, error) {
	configPath := cmd.String("config")

	cfg := internal.NewDefaultConfig()
	if _, err := pkgconfig.LoadOptional(configPath, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if cmd.IsSet("vault") {
		cfg.Vault.Path = cmd.String("vault")
	}
	if cmd.IsSet("api-url") {
		cfg.Microfeed.URL = cmd.String("api-url")
	}
	if cmd.IsSet("api-key") {
		cfg.Microfeed.APIKey = cmd.String("api-key")
	}

	return internal.Open(internal.WithConfig(cfg))
}

// withApp opens the application around fn.
func withApp(fn func(ctx context.Context, cmd *cli.Command, app *internal.Application) error) cli.ActionFunc {
	return func(ctx context.Context, cmd *cli.Command) error {
		app, err := open(cmd)
		if err != nil {
			return err
		}
		defer app.Close()
		return fn(ctx, cmd, app)
	}
}

func overrides(cmd *cli.Command) (assemble.Overrides, error) {
	var ov assemble.Overrides
	if cmd.IsSet("status") {
		st, ok := microfeed.ParseStatus(cmd.String("status"))
		if !ok {
			return ov, fmt.Errorf("invalid status %q", cmd.String("status"))
		}
		ov.Status = &st
	}
	if cmd.IsSet("title") {
		v := cmd.String("title")
		ov.Title = &v
	}
	if cmd.IsSet("image") {
		v := cmd.String("image")
		ov.Image = &v
	}
	if cmd.IsSet("url") {
		v := cmd.String("url")
		ov.URL = &v
	}
	if cmd.IsSet("published-at") {
		t, err := time.Parse(time.RFC3339, cmd.String("published-at"))
		if err != nil {
			return ov, fmt.Errorf("invalid published-at: %w", err)
		}
		ov.PublishedAt = &t
	}
	return ov, nil
}

func requireArgs(cmd *cli.Command, n int) error {
	if cmd.Args().Len() < n {
		return fmt.Errorf("%s: expected a note path", cmd.Name)
	}
	return nil
}

func main() {
	cmd := &cli.Command{
		Name:    "feedpost",
		Usage:   "Publish Markdown notes as Microfeed items",
		Version: internal.Version,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "config",
				Aliases:     []string{"c"},
				Usage:       "Path to config file (optional)",
				DefaultText: "feedpost.yaml",
				Value:       "feedpost.yaml",
				Sources:     cli.EnvVars("FEEDPOST_CONFIG"),
			},
			&cli.StringFlag{
				Name:    "vault",
				Usage:   "Vault root directory",
				Sources: cli.EnvVars("FEEDPOST_VAULT"),
			},
			&cli.StringFlag{
				Name:    "api-url",
				Usage:   "Microfeed base URL",
				Sources: cli.EnvVars("MICROFEED_API_URL"),
			},
			&cli.StringFlag{
				Name:    "api-key",
				Usage:   "Microfeed API key",
				Sources: cli.EnvVars("MICROFEED_API_KEY"),
			},
		},
		Commands: []*cli.Command{
			{
				Name:      "publish",
				Usage:     "Publish notes, creating or updating their items",
				ArgsUsage: "<note.md>...",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "status", Usage: "published, unpublished or unlisted"},
					&cli.StringFlag{Name: "title", Usage: "Override the item title"},
					&cli.StringFlag{Name: "image", Usage: "Override the item image URL"},
					&cli.StringFlag{Name: "url", Usage: "Override the item link"},
					&cli.StringFlag{Name: "published-at", Usage: "Publication time (RFC 3339)"},
				},
				Action: withApp(func(ctx context.Context, cmd *cli.Command, app *internal.Application) error {
					if err := requireArgs(cmd, 1); err != nil {
						return err
					}
					ov, err := overrides(cmd)
					if err != nil {
						return err
					}
					return app.Publish(ctx, cmd.Args().Slice(), ov)
				}),
			},
			{
				Name:  "sync",
				Usage: "Publish every note under a folder that changed since its last publish",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "folder", Usage: "Vault folder (default: whole vault)"},
				},
				Action: withApp(func(ctx context.Context, cmd *cli.Command, app *internal.Application) error {
					return app.Sync(ctx, cmd.String("folder"))
				}),
			},
			{
				Name:      "preview",
				Usage:     "Show what publishing a note would send, without network calls",
				ArgsUsage: "<note.md>",
				Action: withApp(func(ctx context.Context, cmd *cli.Command, app *internal.Application) error {
					if err := requireArgs(cmd, 1); err != nil {
						return err
					}
					return app.Preview(cmd.Args().First())
				}),
			},
			{
				Name:  "watch",
				Usage: "Republish notes when they change",
				Action: withApp(func(ctx context.Context, cmd *cli.Command, app *internal.Application) error {
					return app.Watch(ctx)
				}),
			},
			{
				Name:  "mcp",
				Usage: "Serve publishing tools over MCP stdio",
				Action: withApp(func(ctx context.Context, cmd *cli.Command, app *internal.Application) error {
					return app.ServeMCP()
				}),
			},
			{
				Name:  "ping",
				Usage: "Check the Microfeed URL and API key",
				Action: withApp(func(ctx context.Context, cmd *cli.Command, app *internal.Application) error {
					return app.Ping(ctx)
				}),
			},
			{
				Name:      "thumbnail",
				Usage:     "Render a cover image for a note",
				ArgsUsage: "<note.md>",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "style", Usage: "Style id (see `feedpost styles`)"},
					&cli.StringFlag{Name: "out", Aliases: []string{"o"}, Value: "thumbnail.png", Usage: "Output PNG path"},
				},
				Action: withApp(func(ctx context.Context, cmd *cli.Command, app *internal.Application) error {
					if err := requireArgs(cmd, 1); err != nil {
						return err
					}
					return app.Thumbnail(cmd.Args().First(), cmd.String("style"), cmd.String("out"))
				}),
			},
			{
				Name:  "styles",
				Usage: "List thumbnail styles",
				Action: withApp(func(ctx context.Context, cmd *cli.Command, app *internal.Application) error {
					return app.Styles()
				}),
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		slog.Error("application error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
