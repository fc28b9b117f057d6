// Package config loads hydrasect's optional YAML configuration file.
package config

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/Johannes-Berggren/hydrasect/internal/history"
	"github.com/Johannes-Berggren/hydrasect/internal/hydra"
)

// Backends and history sources understood by the command line.
const (
	BackendExec  = "exec"
	BackendGoGit = "go-git"

	SourceChannel = "channel"
	SourceHydra   = "hydra"
)

// Config holds all settings. Zero values are never used; Default fills
// every field before a file is applied on top.
type Config struct {
	// HistoryFile overrides the cache location.
	HistoryFile string        `yaml:"history_file"`
	MaxAge      time.Duration `yaml:"max_age" validate:"gt=0"`
	Backend     string        `yaml:"backend" validate:"oneof=exec go-git"`
	Source      string        `yaml:"source" validate:"oneof=channel hydra"`
	ChannelURL  string        `yaml:"channel_url" validate:"url"`
	Hydra       Hydra         `yaml:"hydra"`
}

// Hydra configures the evaluation scraper.
type Hydra struct {
	URL               string  `yaml:"url" validate:"url"`
	Project           string  `yaml:"project" validate:"required"`
	Jobset            string  `yaml:"jobset" validate:"required"`
	Input             string  `yaml:"input" validate:"required"`
	RequestsPerSecond float64 `yaml:"requests_per_second" validate:"gt=0"`
}

// Default returns the built-in settings.
func Default() Config {
	return Config{
		MaxAge:     history.DefaultMaxAge,
		Backend:    BackendExec,
		Source:     SourceChannel,
		ChannelURL: hydra.DefaultChannelURL,
		Hydra: Hydra{
			URL:               hydra.DefaultURL,
			Project:           hydra.DefaultProject,
			Jobset:            hydra.DefaultJobset,
			Input:             hydra.DefaultInput,
			RequestsPerSecond: 4,
		},
	}
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("yaml"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Validate checks every field, reporting them by their YAML names.
func (c Config) Validate() error {
	err := validate.Struct(c)
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}

	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		// Namespace is "Config.hydra.url"; drop the type name.
		_, field, _ := strings.Cut(fe.Namespace(), ".")
		msg := fmt.Sprintf("%s: failed %s check", field, fe.Tag())
		if fe.Param() != "" {
			msg = fmt.Sprintf("%s: must satisfy %s=%s", field, fe.Tag(), fe.Param())
		}
		msgs = append(msgs, msg)
	}
	return fmt.Errorf("invalid config: %s", strings.Join(msgs, "; "))
}

// Read applies the YAML document in r on top of the defaults. Unknown keys
// are an error. An empty document yields the defaults.
func Read(r io.Reader) (Config, error) {
	cfg := Default()
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Load reads the file at path. A missing file yields the defaults unless
// mustExist is set.
func Load(path string, mustExist bool) (Config, error) {
	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) && !mustExist {
		return Default(), nil
	} else if err != nil {
		return Config{}, fmt.Errorf("opening config: %w", err)
	}
	defer f.Close()

	cfg, err := Read(f)
	if err != nil {
		return Config{}, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Path returns the default config file location,
// $XDG_CONFIG_HOME/hydrasect/config.yaml or ~/.config/hydrasect/config.yaml.
func Path(getenv func(string) string) (string, error) {
	dir, err := baseDir(getenv, "XDG_CONFIG_HOME", ".config")
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "hydrasect", "config.yaml"), nil
}

// HistoryPath returns the location of the evaluation history cache,
// $XDG_CACHE_HOME/hydrasect/hydra-eval-history or ~/.cache/....
func HistoryPath(getenv func(string) string) (string, error) {
	dir, err := baseDir(getenv, "XDG_CACHE_HOME", ".cache")
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "hydrasect", "hydra-eval-history"), nil
}

// HistoryPath returns the configured history file, falling back to the
// cache location.
func (c Config) HistoryPath(getenv func(string) string) (string, error) {
	if c.HistoryFile != "" {
		return c.HistoryFile, nil
	}
	return HistoryPath(getenv)
}

func baseDir(getenv func(string) string, xdgVar, homeSub string) (string, error) {
	if dir := getenv(xdgVar); dir != "" {
		return dir, nil
	}
	if home := getenv("HOME"); home != "" {
		return filepath.Join(home, homeSub), nil
	}
	return "", fmt.Errorf("%s and HOME are both unset or empty", xdgVar)
}
