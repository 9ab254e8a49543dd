package origin

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/pfrederiksen/pagedeco/internal/logger"
)

// IndexFile is served for paths ending in "/".
const IndexFile = "index.html"

// Dir serves resources from a local export of a site.
type Dir struct {
	root string
}

// NewDir creates an origin rooted at dir. A leading "~/" is expanded to the
// user's home directory.
func NewDir(dir string) (*Dir, error) {
	if strings.HasPrefix(dir, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		dir = filepath.Join(home, dir[2:])
	}

	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("opening site directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("site directory %s is not a directory", dir)
	}

	return &Dir{root: dir}, nil
}

// Root returns the directory being served.
func (d *Dir) Root() string {
	return d.root
}

// Fetch reads the file behind path. Query strings and fragments are ignored,
// absolute URLs are reduced to their path.
func (d *Dir) Fetch(ctx context.Context, p string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	file, err := d.filePath(p)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(file)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			logger.IncrCounter("origin.fetch.not_found")
			return nil, fmt.Errorf("fetching %s: %w", p, ErrNotFound)
		}
		logger.IncrCounter("origin.fetch.error")
		return nil, fmt.Errorf("reading %s: %w", p, err)
	}

	logger.IncrCounter("origin.fetch.ok")
	return data, nil
}

func (d *Dir) filePath(p string) (string, error) {
	u, err := url.Parse(p)
	if err != nil {
		return "", fmt.Errorf("parsing path %q: %w", p, err)
	}

	clean := path.Clean("/" + u.Path)
	if strings.HasSuffix(u.Path, "/") {
		clean = path.Join(clean, IndexFile)
	}
	// path.Clean of a rooted path cannot climb above "/".
	return filepath.Join(d.root, filepath.FromSlash(strings.TrimPrefix(clean, "/"))), nil
}
