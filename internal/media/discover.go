package media

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/afero"
	"golang.org/x/sync/errgroup"

	"longform/internal/timeline"
)

// Scan lists files under dir whose extension matches ext, ignoring case.
// A missing directory yields an empty list. Subdirectories are only walked
// when recursive is set. Results are sorted by path.
func Scan(fsys afero.Fs, dir, ext string, recursive bool) ([]string, error) {
	if fsys == nil {
		fsys = afero.NewOsFs()
	}
	ext = strings.ToLower(ext)

	exists, err := afero.DirExists(fsys, dir)
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", dir, err)
	}
	if !exists {
		return nil, nil
	}

	var files []string
	if !recursive {
		entries, err := afero.ReadDir(fsys, dir)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", dir, err)
		}
		for _, entry := range entries {
			if entry.IsDir() || !matchExt(entry.Name(), ext) {
				continue
			}
			files = append(files, filepath.Join(dir, entry.Name()))
		}
	} else {
		err := afero.Walk(fsys, dir, func(p string, info fs.FileInfo, err error) error {
			if err != nil {
				return err
			}
			if info.IsDir() || !matchExt(info.Name(), ext) {
				return nil
			}
			files = append(files, p)
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("walk %s: %w", dir, err)
		}
	}

	sort.Strings(files)
	return files, nil
}

func matchExt(name, ext string) bool {
	if strings.HasPrefix(name, ".") {
		return false
	}
	return strings.ToLower(filepath.Ext(name)) == ext
}

// Reporter receives notifications as files are probed. Calls may come from
// several goroutines.
type Reporter interface {
	Start(path string)
	Complete(path string, item timeline.MediaItem, err error)
}

// Options controls discovery.
type Options struct {
	Concurrency int
	Reporter    Reporter
}

// Measurer turns a path into a timeline item.
type Measurer interface {
	Item(ctx context.Context, path string) (timeline.MediaItem, error)
}

// Discover measures every file and returns the items in the order of files.
// Probing runs with bounded concurrency and stops at the first failure.
func Discover(ctx context.Context, m Measurer, files []string, opts Options) ([]timeline.MediaItem, error) {
	if len(files) == 0 {
		return nil, nil
	}
	if m == nil {
		return nil, errors.New("discover: no measurer")
	}
	limit := opts.Concurrency
	if limit <= 0 {
		limit = 1
	}

	items := make([]timeline.MediaItem, len(files))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)

	for i, path := range files {
		g.Go(func() error {
			if opts.Reporter != nil {
				opts.Reporter.Start(path)
			}
			item, err := m.Item(gctx, path)
			if opts.Reporter != nil {
				opts.Reporter.Complete(path, item, err)
			}
			if err != nil {
				return err
			}
			items[i] = item
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return items, nil
}

// Pool describes one directory of media to discover.
type Pool struct {
	Dir       string
	Extension string
	Recursive bool
}
