package cmd

import (
	"log/slog"

	"github.com/spf13/cobra"
	"golang.org/x/time/rate"

	"github.com/Johannes-Berggren/hydrasect/internal/config"
	"github.com/Johannes-Berggren/hydrasect/internal/git"
	"github.com/Johannes-Berggren/hydrasect/internal/gogit"
	"github.com/Johannes-Berggren/hydrasect/internal/history"
	"github.com/Johannes-Berggren/hydrasect/internal/hydra"
)

// app is the configured state a command works with.
type app struct {
	cfg         config.Config
	repo        git.Repository
	historyPath string
	logger      *slog.Logger
	env         *env
}

func newApp(cmd *cobra.Command, opts *options, e *env) (*app, error) {
	cfg, err := loadConfig(cmd, opts, e.getenv)
	if err != nil {
		return nil, err
	}

	historyPath, err := cfg.HistoryPath(e.getenv)
	if err != nil {
		return nil, err
	}

	repo, err := openRepo(cfg.Backend, opts.dir)
	if err != nil {
		return nil, err
	}

	return &app{
		cfg:         cfg,
		repo:        repo,
		historyPath: historyPath,
		logger:      slog.Default(),
		env:         e,
	}, nil
}

// loadConfig reads the config file and applies the flags that were given.
func loadConfig(cmd *cobra.Command, opts *options, getenv func(string) string) (config.Config, error) {
	path, mustExist := opts.configPath, true
	if path == "" {
		mustExist = false
		p, err := config.Path(getenv)
		if err != nil {
			slog.Debug("no config file location", "error", err)
		}
		path = p
	}

	cfg := config.Default()
	if path != "" {
		var err error
		if cfg, err = config.Load(path, mustExist); err != nil {
			return config.Config{}, err
		}
	}

	flags := cmd.Flags()
	if flags.Changed("backend") {
		cfg.Backend = opts.backend
	}
	if flags.Changed("source") {
		cfg.Source = opts.source
	}
	if flags.Changed("history-file") {
		cfg.HistoryFile = opts.historyFile
	}
	if flags.Changed("max-age") {
		cfg.MaxAge = opts.maxAge
	}
	if err := cfg.Validate(); err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}

func openRepo(backend, dir string) (git.Repository, error) {
	switch backend {
	case config.BackendGoGit:
		if dir == "" {
			dir = "."
		}
		return gogit.Open(dir)
	default:
		return git.New(dir), nil
	}
}

// refresher returns the configured history source. progress may be nil.
func (a *app) refresher(progress func(page, last int)) history.Refresher {
	if a.cfg.Source == config.SourceHydra {
		h := a.cfg.Hydra
		return &hydra.Scraper{
			BaseURL:  h.URL,
			Project:  h.Project,
			Jobset:   h.Jobset,
			Input:    h.Input,
			Limiter:  rate.NewLimiter(rate.Limit(h.RequestsPerSecond), 1),
			Progress: progress,
			Logger:   a.logger,
		}
	}
	return &hydra.ChannelHistory{
		URL:    a.cfg.ChannelURL,
		Logger: a.logger,
	}
}

func (a *app) policy() *history.Policy {
	return &history.Policy{
		Path:      a.historyPath,
		Ancestry:  a.repo,
		Refresher: a.refresher(nil),
		MaxAge:    a.cfg.MaxAge,
		Logger:    a.logger,
	}
}
