package hydra

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"time"
)

// DefaultChannelURL publishes "<revision> <unix time>" for every
// nixpkgs-unstable channel bump, oldest first.
const DefaultChannelURL = "https://channels.nix.gsc.io/nixpkgs-unstable/history"

// ChannelHistory downloads a channel history file, sending a conditional
// request when a copy already exists.
type ChannelHistory struct {
	URL    string
	Client *http.Client
	Logger *slog.Logger
}

// Refresh brings the file at path up to date. A Not Modified reply leaves
// the contents alone but bumps the modification time, so the copy counts
// as recently checked.
func (c *ChannelHistory) Refresh(ctx context.Context, path string) error {
	url := c.URL
	if url == "" {
		url = DefaultChannelURL
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", UserAgent)

	info, err := os.Stat(path)
	switch {
	case err == nil:
		req.Header.Set("If-Modified-Since", info.ModTime().UTC().Format(http.TimeFormat))
	case !errors.Is(err, fs.ErrNotExist):
		return fmt.Errorf("checking history file: %w", err)
	}

	resp, err := client(c.Client).Do(req)
	if err != nil {
		return fmt.Errorf("fetching %s: %w", url, err)
	}
	defer resp.Body.Close()

	log := logger(c.Logger)
	switch resp.StatusCode {
	case http.StatusNotModified:
		log.Debug("channel history not modified", "url", url)
		now := time.Now()
		if err := os.Chtimes(path, now, now); err != nil {
			return fmt.Errorf("touching history file: %w", err)
		}
		return nil
	case http.StatusOK:
	default:
		return fmt.Errorf("fetching %s: unexpected status %s", url, resp.Status)
	}

	return replaceFile(path, func(w io.Writer) error {
		n, err := io.Copy(w, resp.Body)
		if err != nil {
			return fmt.Errorf("downloading %s: %w", url, err)
		}
		log.Debug("downloaded channel history", "url", url, "bytes", n)
		return nil
	})
}
