package crawler

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"gdinfer/internal/project"
	"gdinfer/internal/syntax"

	"golang.org/x/sync/errgroup"
)

// File is one script found on disk.
type File struct {
	FSPath  string
	ResPath string
}

// Crawler scans a directory for GDScript files.
type Crawler struct {
	ignored []string
	workers int
	logger  *slog.Logger
}

type Option func(*Crawler)

// WithIgnored adds directory names to skip.
func WithIgnored(names ...string) Option {
	return func(c *Crawler) { c.ignored = append(c.ignored, names...) }
}

// WithWorkers bounds the number of files parsed concurrently.
func WithWorkers(n int) Option {
	return func(c *Crawler) {
		if n > 0 {
			c.workers = n
		}
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(c *Crawler) {
		if l != nil {
			c.logger = l
		}
	}
}

// NewCrawler creates a new crawler instance.
func NewCrawler(opts ...Option) *Crawler {
	c := &Crawler{
		ignored: []string{".git", ".godot", ".import", "addons"},
		workers: 8,
		logger:  slog.Default(),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Discover walks root and lists every .gd file, in walk order.
func (c *Crawler) Discover(root string) ([]File, error) {
	var files []File
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		// Skip ignored directories
		if d.IsDir() {
			for _, ign := range c.ignored {
				if d.Name() == ign && path != root {
					return filepath.SkipDir
				}
			}
			return nil
		}

		if !strings.HasSuffix(d.Name(), ".gd") {
			return nil
		}

		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		files = append(files, File{FSPath: path, ResPath: project.ResPath(rel)})
		return nil
	})
	return files, err
}

// ParseFile reads, fingerprints and parses one script.
func ParseFile(f File) (*project.Script, error) {
	src, err := os.ReadFile(f.FSPath)
	if err != nil {
		return nil, err
	}
	file, err := syntax.Parse(f.ResPath, string(src))
	if err != nil {
		return nil, err
	}
	return project.NewScript(file, project.Fingerprint(src)), nil
}

// ScanProject walks root and parses every script in parallel. Scripts are
// streamed to onScript from a single goroutine, in discovery order. Files
// that fail to parse are logged and skipped.
func (c *Crawler) ScanProject(ctx context.Context, root string, onScript func(*project.Script)) error {
	files, err := c.Discover(root)
	if err != nil {
		return err
	}
	c.logger.Info("crawl.discovered", "root", root, "files", len(files))

	scripts := make([]*project.Script, len(files))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.workers)
	for i, f := range files {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			s, err := ParseFile(f)
			if err != nil {
				c.logger.Warn("crawl.skip", "file", f.ResPath, "err", err)
				return nil
			}
			scripts[i] = s
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	parsed := 0
	for _, s := range scripts {
		if s == nil {
			continue
		}
		parsed++
		onScript(s)
	}
	c.logger.Info("crawl.done", "parsed", parsed, "skipped", len(files)-parsed)
	return nil
}

// Load scans root into a fresh project.
func (c *Crawler) Load(ctx context.Context, root string) (*project.Project, error) {
	p := project.New(root)
	if err := c.ScanProject(ctx, root, p.Put); err != nil {
		return nil, err
	}
	return p, nil
}
