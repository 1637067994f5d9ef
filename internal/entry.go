// Package internal provides the application wiring behind the feedpost
// commands.
package internal

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path"
	"path/filepath"
	"syscall"
	"text/tabwriter"

	"golang.org/x/sync/errgroup"

	"github.com/starford/feedpost/internal/assemble"
	"github.com/starford/feedpost/internal/crosspost"
	"github.com/starford/feedpost/internal/ledger"
	"github.com/starford/feedpost/internal/mcpserver"
	"github.com/starford/feedpost/internal/microfeed"
	"github.com/starford/feedpost/internal/parser"
	"github.com/starford/feedpost/internal/publisher"
	"github.com/starford/feedpost/internal/storage"
	"github.com/starford/feedpost/internal/thumbnail"
	"github.com/starford/feedpost/internal/watch"
	pkgconfig "github.com/starford/feedpost/pkg/config"
)

// Version is reported by the CLI and the MCP server.
const Version = "0.1.0"

// Application holds the components shared by every command.
type Application struct {
	config *Config
	out    io.Writer
	logger *slog.Logger

	vault  *storage.FS
	ledger *ledger.DB
	pub    *publisher.Service
}

// Open validates the configuration and opens the vault and ledger. The
// content service is only contacted by commands that need it.
func Open(opts ...Option) (*Application, error) {
	app := &Application{out: os.Stdout}
	for _, opt := range opts {
		opt(app)
	}
	if app.config == nil {
		return nil, fmt.Errorf("config is required")
	}
	cfg := app.config
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	// Stdout carries command output and the MCP stream, so logs go to stderr.
	if app.logger == nil {
		app.logger = slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
			Level: cfg.App.LogLevel,
		}))
	}
	slog.SetDefault(app.logger)

	vault, err := storage.NewFS(cfg.Vault.Path)
	if err != nil {
		return nil, fmt.Errorf("init vault: %w", err)
	}
	app.vault = vault

	if cfg.Ledger.Enabled() {
		dsn := cfg.Ledger.Path
		if !filepath.IsAbs(dsn) {
			dsn = filepath.Join(cfg.Vault.Path, dsn)
		}
		db, err := ledger.Open(dsn)
		if err != nil {
			return nil, fmt.Errorf("init ledger: %w", err)
		}
		app.ledger = db
	}

	app.logger.Debug("configuration loaded",
		slog.String("vault_path", cfg.Vault.Path),
		slog.String("ledger_path", cfg.Ledger.Path),
		slog.String("microfeed_url", cfg.Microfeed.URL),
		slog.String("log_level", cfg.App.LogLevel.String()))
	return app, nil
}

// Close releases the ledger.
func (a *Application) Close() error {
	if a.ledger != nil {
		return a.ledger.Close()
	}
	return nil
}

func (a *Application) ledgerStore() ledger.Store {
	if a.ledger == nil {
		return nil
	}
	return a.ledger
}

// publisher builds the publishing pipeline on first use. It fails with a
// configuration error before any work when the service is not configured.
func (a *Application) publisher() (*publisher.Service, error) {
	if a.pub != nil {
		return a.pub, nil
	}
	cfg := a.config
	if err := cfg.Microfeed.Ready(); err != nil {
		return nil, err
	}

	client, err := microfeed.New(cfg.Microfeed.URL, cfg.Microfeed.APIKey,
		microfeed.WithTimeout(cfg.Microfeed.Timeout),
		microfeed.WithLogger(a.logger))
	if err != nil {
		return nil, err
	}

	asmOpts := []assemble.Option{
		assemble.WithDefaultStatus(cfg.Publish.Status()),
		assemble.WithExtensionPrefixes(cfg.Publish.ExtensionPrefixes...),
		assemble.WithLogger(a.logger),
	}
	if cfg.Publish.AutoImage {
		synth, err := a.synthesizer(cfg.Publish.ThumbnailStyle)
		if err != nil {
			return nil, err
		}
		asmOpts = append(asmOpts, assemble.WithSynthesizer(synth))
	}

	pubOpts := []publisher.Option{publisher.WithLogger(a.logger)}
	if a.ledger != nil {
		pubOpts = append(pubOpts, publisher.WithLedger(a.ledger))
	}
	if cfg.CrossPost.Enabled {
		cc, err := crosspost.NewClient(cfg.CrossPost.BaseURL, cfg.CrossPost.Token, cfg.Microfeed.Timeout)
		if err != nil {
			return nil, err
		}
		poster, err := crosspost.NewPoster(cfg.CrossPost.Formatter(), cc, a.logger)
		if err != nil {
			return nil, err
		}
		pubOpts = append(pubOpts, publisher.WithAnnouncer(poster))
	}

	a.pub = publisher.New(a.vault, assemble.New(a.vault, client, asmOpts...), client, pubOpts...)
	return a.pub, nil
}

func (a *Application) catalog() (thumbnail.Catalog, error) {
	file := a.config.Publish.StylesFile
	if file == "" {
		return thumbnail.DefaultCatalog(), nil
	}
	var c thumbnail.Catalog
	if err := pkgconfig.Load(file, &c); err != nil {
		return nil, fmt.Errorf("load styles: %w", err)
	}
	return c, nil
}

func (a *Application) synthesizer(styleID string) (*thumbnail.Synthesizer, error) {
	c, err := a.catalog()
	if err != nil {
		return nil, err
	}
	return thumbnail.New(c, thumbnail.WithStyle(styleID))
}

// Publish sends each note in order. A failing note does not stop the
// rest; all failures are returned together.
func (a *Application) Publish(ctx context.Context, notePaths []string, ov assemble.Overrides) error {
	pub, err := a.publisher()
	if err != nil {
		return err
	}
	var errs []error
	for _, p := range notePaths {
		res, err := pub.Publish(ctx, p, ov)
		if err != nil {
			a.logger.Error("publish failed", slog.String("path", p), slog.String("error", err.Error()))
			errs = append(errs, err)
			continue
		}
		if err := a.print(res); err != nil {
			return err
		}
	}
	return errors.Join(errs...)
}

// Sync publishes every note under folder whose content changed since it
// was last published.
func (a *Application) Sync(ctx context.Context, folder string) error {
	pub, err := a.publisher()
	if err != nil {
		return err
	}
	notes, err := a.vault.List(folder)
	if err != nil {
		return err
	}
	var errs []error
	for _, n := range notes {
		res, err := pub.PublishIfChanged(ctx, n.Path)
		if err != nil {
			a.logger.Error("publish failed", slog.String("path", n.Path), slog.String("error", err.Error()))
			errs = append(errs, err)
			continue
		}
		if !res.Skipped {
			if err := a.print(res); err != nil {
				return err
			}
		}
	}
	return errors.Join(errs...)
}

// Preview prints what publishing notePath would send. No network calls.
func (a *Application) Preview(notePath string) error {
	p, err := publisher.New(a.vault, nil, nil, publisher.WithLedger(a.ledgerStore())).Preview(notePath)
	if err != nil {
		return err
	}
	return a.print(p)
}

// Watch republishes changed notes until ctx is cancelled or a shutdown
// signal arrives.
func (a *Application) Watch(ctx context.Context) error {
	pub, err := a.publisher()
	if err != nil {
		return err
	}
	cfg := a.config

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	w := watch.New(cfg.Vault.Path, func(ctx context.Context, rel string) error {
		_, err := pub.PublishIfChanged(ctx, rel)
		return err
	},
		watch.WithFolder(cfg.Watch.Folder),
		watch.WithDebounce(cfg.Watch.Debounce),
		watch.WithLogger(a.logger))

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return w.Run(gCtx)
	})

	// Handle shutdown signals.
	g.Go(func() error {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(quit)

		select {
		case sig := <-quit:
			a.logger.Info("Received shutdown signal", slog.String("signal", sig.String()))
			cancel()
		case <-gCtx.Done():
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		a.logger.Error("watch error", slog.String("error", err.Error()))
		return err
	}
	a.logger.Info("watch stopped")
	return nil
}

// ServeMCP runs the MCP server on stdio.
func (a *Application) ServeMCP() error {
	pub, err := a.publisher()
	if err != nil {
		return err
	}
	return mcpserver.New(a.vault, pub, a.ledgerStore(), Version).ServeStdio()
}

// Ping checks connectivity and credentials.
func (a *Application) Ping(ctx context.Context) error {
	if err := a.config.Microfeed.Ready(); err != nil {
		return err
	}
	client, err := microfeed.New(a.config.Microfeed.URL, a.config.Microfeed.APIKey,
		microfeed.WithTimeout(a.config.Microfeed.Timeout),
		microfeed.WithLogger(a.logger))
	if err != nil {
		return err
	}
	if err := client.Ping(ctx); err != nil {
		return err
	}
	_, err = fmt.Fprintln(a.out, "ok")
	return err
}

// Thumbnail renders a cover for notePath into outPath. An empty styleID
// uses the configured style, else a random one.
func (a *Application) Thumbnail(notePath, styleID, outPath string) error {
	data, err := a.vault.Read(notePath)
	if err != nil {
		return err
	}
	if styleID == "" {
		styleID = a.config.Publish.ThumbnailStyle
	}
	synth, err := a.synthesizer(styleID)
	if err != nil {
		return err
	}
	note := parser.Parse(data, path.Base(notePath))
	style := synth.Style()
	img, err := thumbnail.Render(style, note.Title, note.Body)
	if err != nil {
		return err
	}
	if err := os.WriteFile(outPath, img, 0o644); err != nil {
		return fmt.Errorf("write thumbnail: %w", err)
	}
	a.logger.Info("thumbnail written", slog.String("path", outPath), slog.String("style", style.ID))
	return nil
}

// Styles lists the thumbnail styles.
func (a *Application) Styles() error {
	c, err := a.catalog()
	if err != nil {
		return err
	}
	tw := tabwriter.NewWriter(a.out, 0, 0, 2, ' ', 0)
	for _, s := range c {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", s.ID, s.Name, s.Primary)
	}
	return tw.Flush()
}

func (a *Application) print(v any) error {
	enc := json.NewEncoder(a.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
