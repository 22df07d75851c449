package audio

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// ErrEmptyCatalog is returned when the media directory holds no playable file.
var ErrEmptyCatalog = errors.New("no playable tracks found")

// Catalog is the ordered list of track files found at boot.
// Track numbers are indexes into it.
type Catalog struct {
	paths []string
}

// LoadCatalog lists the files in dir whose extension is in exts, sorted by
// name. Subdirectories are not scanned.
func LoadCatalog(dir string, exts []string) (Catalog, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return Catalog{}, fmt.Errorf("read media dir: %w", err)
	}

	allowed := make(map[string]bool, len(exts))
	for _, e := range exts {
		allowed[strings.ToLower(e)] = true
	}

	var paths []string
	for _, e := range entries {
		if e.IsDir() || strings.HasPrefix(e.Name(), ".") {
			continue
		}
		if allowed[strings.ToLower(filepath.Ext(e.Name()))] {
			paths = append(paths, filepath.Join(dir, e.Name()))
		}
	}
	if len(paths) == 0 {
		return Catalog{}, fmt.Errorf("%s: %w", dir, ErrEmptyCatalog)
	}
	sort.Strings(paths)
	return Catalog{paths: paths}, nil
}

// NewCatalog builds a catalog from explicit paths.
func NewCatalog(paths ...string) Catalog {
	return Catalog{paths: append([]string(nil), paths...)}
}

// Len returns the number of tracks.
func (c Catalog) Len() int {
	return len(c.paths)
}

// Path returns the file of track i, or "" when out of range.
func (c Catalog) Path(i int) string {
	if i < 0 || i >= len(c.paths) {
		return ""
	}
	return c.paths[i]
}

// Name returns the file name of track i without its extension.
func (c Catalog) Name(i int) string {
	p := c.Path(i)
	if p == "" {
		return ""
	}
	base := filepath.Base(p)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// Names lists every track name in order.
func (c Catalog) Names() []string {
	names := make([]string, c.Len())
	for i := range names {
		names[i] = c.Name(i)
	}
	return names
}
