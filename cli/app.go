package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/santiagomed/pagegen/config"
	"github.com/santiagomed/pagegen/core"
	"github.com/santiagomed/pagegen/fs"
	"github.com/santiagomed/pagegen/llm"
	"github.com/santiagomed/pagegen/logger"
	"github.com/santiagomed/pagegen/store"
	"github.com/santiagomed/pagegen/wordpress"
)

// app holds everything a command needs, built from the loaded configuration.
type app struct {
	cfg       *config.Config
	logger    logger.Logger
	templates store.Repository
	postgres  *store.PostgresStore
	wordpress *wordpress.Client
	service   *core.Service
	model     llm.Model
	closers   []io.Closer
}

func newApp(ctx context.Context, configPath string) (*app, error) {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	model, err := llm.ParseModel(cfg.AI.DefaultModel)
	if err != nil {
		return nil, err
	}

	log, logFile, err := logger.InitLogger(cfg.Log.Dir, cfg.Log.Level)
	if err != nil {
		return nil, err
	}
	a := &app{cfg: cfg, logger: log, model: model, closers: []io.Closer{logFile}}

	if err := a.openTemplates(ctx); err != nil {
		a.Close()
		return nil, err
	}

	opts := core.Options{
		Templates:    a.templates,
		LLM:          cfg.LLM(),
		DefaultModel: model,
		Branding:     llm.Branding{PrimaryColor: cfg.Pages.PrimaryColor, SecondaryColor: cfg.Pages.SecondaryColor},
		PageStatus:   cfg.Pages.Status,
		Workers:      cfg.Server.Workers,
		Logger:       log,
	}
	if cfg.WordPress.URL != "" {
		a.wordpress, err = wordpress.NewClient(cfg.WordPress.URL, cfg.WordPress.Username, cfg.WordPress.AppPassword, log)
		if err != nil {
			a.Close()
			return nil, err
		}
		opts.Documents = a.wordpress
	}
	if a.postgres != nil {
		opts.Recorder = a.postgres
		opts.Pages = a.postgres
	}
	a.service = core.NewService(opts)
	return a, nil
}

// openTemplates picks the template repository: Postgres when configured,
// then a template directory, then the built-in templates in memory. A redis
// address adds a read-through cache in front of it.
func (a *app) openTemplates(ctx context.Context) error {
	var repo store.Repository
	switch {
	case a.cfg.Postgres.DSN() != "":
		pg, err := store.NewPostgres(a.cfg.Postgres.DSN())
		if err != nil {
			return err
		}
		a.closers = append(a.closers, pg)
		if err := pg.Migrate(ctx); err != nil {
			return err
		}
		a.postgres = pg
		repo = pg
	case a.cfg.Templates.Dir != "":
		repo = store.NewFileStore(fs.NewOsFileSystem(), a.cfg.Templates.Dir)
	default:
		mem, err := store.NewDefaultStore()
		if err != nil {
			return err
		}
		a.templates = a.cached(mem)
		return nil
	}

	defaults, err := store.Defaults()
	if err != nil {
		return err
	}
	installed, err := store.Install(ctx, repo, defaults)
	if err != nil {
		return err
	}
	if len(installed) > 0 {
		a.logger.WithField("templates", installed).Info("Installed default templates")
	}
	a.templates = a.cached(repo)
	return nil
}

func (a *app) cached(repo store.Repository) store.Repository {
	if a.cfg.Redis.Address == "" {
		return repo
	}
	client := store.NewRedis(a.cfg.Redis.Address, a.cfg.Redis.Password, a.cfg.Redis.DB)
	a.closers = append(a.closers, client)
	return store.NewCachedTemplates(repo, client, a.cfg.Redis.TTL, a.logger)
}

func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i].Close(); err != nil {
			a.logger.WithField("error", err).Warn("Failed to close resource")
		}
	}
	a.closers = nil
}

func (a *app) requirePostgres() error {
	if a.postgres == nil {
		return fmt.Errorf("page history needs a postgres connection (set postgres.host)")
	}
	return nil
}
