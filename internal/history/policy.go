package history

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/Johannes-Berggren/hydrasect/internal/models"
)

// DefaultMaxAge is how long a history file that does not cover the bad
// commit is trusted before it is downloaded again.
const DefaultMaxAge = 15 * time.Minute

// ErrHistoryMissing is returned when there is no history file at all. The
// file is never created implicitly; the operator populates it once.
var ErrHistoryMissing = errors.New("history file not available, run `hydrasect scrape` first")

// Ancestry answers `git merge-base --is-ancestor` questions.
type Ancestry interface {
	IsAncestor(ctx context.Context, ancestor, descendant string) (bool, error)
}

// Refresher replaces the history file at path with an up to date copy.
type Refresher interface {
	Refresh(ctx context.Context, path string) error
}

// Policy opens the history file, refreshing it first when it is stale.
type Policy struct {
	Path      string
	Ancestry  Ancestry
	Refresher Refresher

	// MaxAge defaults to DefaultMaxAge.
	MaxAge time.Duration
	// Now defaults to time.Now.
	Now func() time.Time
	// Logger defaults to slog.Default().
	Logger *slog.Logger
}

// Load opens the history file through Open and parses every record.
func (p *Policy) Load(ctx context.Context, bad string) (models.OidSet, error) {
	f, err := p.Open(ctx, bad)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	set, err := Read(f)
	if err != nil {
		return nil, fmt.Errorf("reading history file: %w", err)
	}
	p.logger().Debug("loaded evaluation history", "path", p.Path, "commits", set.Len())
	return set, nil
}

// Open returns the history file positioned at its start. bad names the
// current bad commit: if the newest recorded evaluation descends from it,
// the file is used as is. Otherwise a file younger than MaxAge is still
// used, and an older one is refreshed once.
func (p *Policy) Open(ctx context.Context, bad string) (*os.File, error) {
	f, err := os.Open(p.Path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %w", ErrHistoryMissing, err)
	}
	if err != nil {
		return nil, fmt.Errorf("opening history file: %w", err)
	}

	fresh, err := p.isFresh(ctx, f, bad)
	if err != nil {
		f.Close()
		return nil, err
	}
	if fresh {
		if _, err := f.Seek(0, io.SeekStart); err != nil {
			f.Close()
			return nil, fmt.Errorf("rewinding history file: %w", err)
		}
		return f, nil
	}
	f.Close()

	if err := p.Refresher.Refresh(ctx, p.Path); err != nil {
		return nil, fmt.Errorf("updating history file: %w", err)
	}

	f, err = os.Open(p.Path)
	if err != nil {
		return nil, fmt.Errorf("opening updated history file: %w", err)
	}
	return f, nil
}

func (p *Policy) isFresh(ctx context.Context, f *os.File, bad string) (bool, error) {
	log := p.logger()

	record, err := LastRecord(f)
	if err != nil {
		return false, fmt.Errorf("reading last line of history file: %w", err)
	}
	last, err := ParseRecord(record)
	if err != nil {
		return false, fmt.Errorf("parsing last line of history file: %w", err)
	}

	if last.Len() > 0 {
		covered, err := p.Ancestry.IsAncestor(ctx, bad, last.String())
		if err != nil {
			return false, fmt.Errorf("checking history freshness: %w", err)
		}
		if covered {
			log.Debug("history covers the bad commit", "bad", bad, "latest", last)
			return true, nil
		}
	}

	info, err := f.Stat()
	if err != nil {
		return false, fmt.Errorf("checking history file metadata: %w", err)
	}
	modified := info.ModTime()
	if p.now().Sub(modified) < p.maxAge() {
		log.Debug("history is recent enough", "modified", humanize.Time(modified))
		return true, nil
	}

	log.Info("history is stale, refreshing", "path", p.Path, "modified", humanize.Time(modified))
	return false, nil
}

func (p *Policy) maxAge() time.Duration {
	if p.MaxAge > 0 {
		return p.MaxAge
	}
	return DefaultMaxAge
}

func (p *Policy) now() time.Time {
	if p.Now != nil {
		return p.Now()
	}
	return time.Now()
}

func (p *Policy) logger() *slog.Logger {
	if p.Logger != nil {
		return p.Logger
	}
	return slog.Default()
}
