package hydra

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"golang.org/x/time/rate"

	"github.com/Johannes-Berggren/hydrasect/internal/models"
)

// Defaults for scraping hydra.nixos.org.
const (
	DefaultURL     = "https://hydra.nixos.org"
	DefaultProject = "nixos"
	DefaultJobset  = "unstable-small"
	DefaultInput   = "nixpkgs"
)

// Scraper rebuilds the history file from every evaluation of a jobset.
type Scraper struct {
	BaseURL string
	Project string
	Jobset  string
	// Input names the jobset input whose revision is recorded.
	Input string

	Client *http.Client
	// Limiter paces page requests, retries included. Nil means no limit.
	Limiter *rate.Limiter
	// BackOff returns the retry policy for one page. Nil means
	// exponential backoff giving up after backoff's default elapsed time.
	BackOff func() backoff.BackOff
	// Progress is called after each page with the page number and the
	// number of the last page, 0 while unknown.
	Progress func(page, last int)
	Logger   *slog.Logger
}

type evalsPage struct {
	Evals []eval `json:"evals"`
	Next  string `json:"next"`
	Last  string `json:"last"`
}

type eval struct {
	ID     int64                `json:"id"`
	Inputs map[string]evalInput `json:"jobsetevalinputs"`
}

type evalInput struct {
	Revision string `json:"revision"`
}

type record struct {
	revision string
	evalID   int64
}

// errRetryable marks responses worth asking for again.
var errRetryable = errors.New("retryable status")

// Refresh fetches all pages and replaces the file at path. Hydra lists
// evaluations newest first; the file is written oldest first so its last
// record is the newest evaluation.
func (s *Scraper) Refresh(ctx context.Context, path string) error {
	log := logger(s.Logger)
	log.Info("scraping evaluations", "url", s.baseURL(), "project", s.project(), "jobset", s.jobset())

	var records []record
	suffix := ""
	last := 0
	for {
		page, err := s.fetchPage(ctx, suffix)
		if err != nil {
			return err
		}

		if last == 0 {
			last, _ = ParsePage(page.Last)
		}
		n, ok := ParsePage(suffix)
		if !ok {
			n = 1
		}
		if s.Progress != nil {
			s.Progress(n, last)
		}
		log.Debug("fetched page", "page", n, "last", last, "evals", len(page.Evals))

		for _, e := range page.Evals {
			in, ok := e.Inputs[s.input()]
			if !ok {
				return fmt.Errorf("eval %d has no %s input", e.ID, s.input())
			}
			if _, err := models.ParseOid(in.Revision); err != nil || in.Revision == "" {
				return fmt.Errorf("eval %d: invalid revision %q", e.ID, in.Revision)
			}
			records = append(records, record{revision: in.Revision, evalID: e.ID})
		}

		if page.Next == "" {
			break
		}
		if page.Next == suffix {
			return fmt.Errorf("page %q links to itself", suffix)
		}
		suffix = page.Next
	}

	log.Info("replacing history file", "path", path, "evals", len(records))
	return replaceFile(path, func(w io.Writer) error {
		for i := len(records) - 1; i >= 0; i-- {
			if _, err := fmt.Fprintf(w, "%s %d\n", records[i].revision, records[i].evalID); err != nil {
				return fmt.Errorf("writing history: %w", err)
			}
		}
		return nil
	})
}

func (s *Scraper) fetchPage(ctx context.Context, suffix string) (*evalsPage, error) {
	url := fmt.Sprintf("%s/jobset/%s/%s/evals%s", strings.TrimSuffix(s.baseURL(), "/"), s.project(), s.jobset(), suffix)

	var b backoff.BackOff
	if s.BackOff != nil {
		b = s.BackOff()
	} else {
		b = backoff.NewExponentialBackOff()
	}

	var page *evalsPage
	op := func() error {
		if s.Limiter != nil {
			if err := s.Limiter.Wait(ctx); err != nil {
				return backoff.Permanent(err)
			}
		}
		p, err := s.get(ctx, url)
		if err != nil {
			return err
		}
		page = p
		return nil
	}
	notify := func(err error, wait time.Duration) {
		logger(s.Logger).Warn("retrying page", "url", url, "error", err, "wait", wait)
	}

	if err := backoff.RetryNotify(op, backoff.WithContext(b, ctx), notify); err != nil {
		return nil, fmt.Errorf("fetching %s: %w", url, err)
	}
	return page, nil
}

// get performs one attempt. Errors that should not be retried are
// wrapped with backoff.Permanent.
func (s *Scraper) get(ctx context.Context, url string) (*evalsPage, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, backoff.Permanent(fmt.Errorf("creating request: %w", err))
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", UserAgent)

	resp, err := client(s.Client).Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, backoff.Permanent(ctx.Err())
		}
		return nil, err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
		io.Copy(io.Discard, resp.Body)
		return nil, fmt.Errorf("%w %s", errRetryable, resp.Status)
	default:
		return nil, backoff.Permanent(fmt.Errorf("unexpected status %s", resp.Status))
	}

	var page evalsPage
	if err := json.NewDecoder(resp.Body).Decode(&page); err != nil {
		return nil, backoff.Permanent(fmt.Errorf("decoding response: %w", err))
	}
	return &page, nil
}

// ParsePage extracts N from a "?page=N" link.
func ParsePage(suffix string) (int, bool) {
	_, n, ok := strings.Cut(suffix, "=")
	if !ok {
		return 0, false
	}
	page, err := strconv.ParseUint(n, 10, 31)
	if err != nil {
		return 0, false
	}
	return int(page), true
}

func (s *Scraper) baseURL() string { return orDefault(s.BaseURL, DefaultURL) }
func (s *Scraper) project() string { return orDefault(s.Project, DefaultProject) }
func (s *Scraper) jobset() string  { return orDefault(s.Jobset, DefaultJobset) }
func (s *Scraper) input() string   { return orDefault(s.Input, DefaultInput) }

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
