// Package pipeline keeps the stored reports in step with the scripts on disk.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"time"

	"gdinfer/internal/analysis"
	"gdinfer/internal/crawler"
	"gdinfer/internal/git"
	"gdinfer/internal/graph"
	"gdinfer/internal/inference"
	"gdinfer/internal/project"
	"gdinfer/internal/storage"
)

var (
	ErrNilEngine = errors.New("pipeline: engine is required")
	ErrNilStore  = errors.New("pipeline: store is required")
)

// IncrementalSync refreshes an engine's project from disk and persists the
// reports a change can affect.
type IncrementalSync struct {
	engine  *inference.Engine
	store   storage.Store
	crawler *crawler.Crawler
	logger  *slog.Logger
	// GitRef selects changes from `git diff GitRef` instead of fingerprints.
	GitRef string
}

type Option func(*IncrementalSync)

func WithCrawler(c *crawler.Crawler) Option {
	return func(s *IncrementalSync) {
		if c != nil {
			s.crawler = c
		}
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(s *IncrementalSync) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithGitRef makes Run detect changes with git instead of fingerprints.
func WithGitRef(ref string) Option {
	return func(s *IncrementalSync) { s.GitRef = ref }
}

func NewIncrementalSync(engine *inference.Engine, store storage.Store, opts ...Option) (*IncrementalSync, error) {
	if engine == nil {
		return nil, ErrNilEngine
	}
	if store == nil {
		return nil, ErrNilStore
	}
	s := &IncrementalSync{
		engine:  engine,
		store:   store,
		crawler: crawler.NewCrawler(),
		logger:  slog.Default(),
	}
	for _, o := range opts {
		o(s)
	}
	return s, nil
}

// SyncResult summarizes one run.
type SyncResult struct {
	FullResync bool
	Updated    []string // res:// paths re-read from disk
	Deleted    []string
	Affected   []graph.MethodKey
	Saved      int
	Removed    int
	Duration   time.Duration
}

type updatePlan struct {
	Changes    []git.ChangedFile
	Hashes     map[string]string // res:// path -> fingerprint on disk
	FullResync bool
}

// Run detects changed scripts, applies them to the project and persists
// every affected report. A store without fingerprints, or force, triggers a
// full resync.
func (s *IncrementalSync) Run(ctx context.Context, force bool) (*SyncResult, error) {
	start := time.Now()
	stored, err := s.store.FileHashes(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load file hashes: %w", err)
	}

	plan, err := s.detectChangesStage(stored, force)
	if err != nil {
		return nil, err
	}

	var result *SyncResult
	if plan.FullResync {
		result, err = s.fullSyncStage(ctx, stored)
	} else {
		result, err = s.incrementalStage(ctx, plan)
	}
	if err != nil {
		return nil, err
	}
	result.Duration = time.Since(start)
	s.logger.Info("sync.done",
		"full", result.FullResync,
		"updated", len(result.Updated),
		"deleted", len(result.Deleted),
		"saved", result.Saved,
		"removed", result.Removed,
		"elapsed", result.Duration)
	return result, nil
}

func (s *IncrementalSync) root() string {
	if root := s.engine.Project().Root; root != "" {
		return root
	}
	return "."
}

func (s *IncrementalSync) detectChangesStage(stored map[string]string, force bool) (*updatePlan, error) {
	hashes, err := s.diskHashes()
	if err != nil {
		return nil, fmt.Errorf("failed to fingerprint scripts: %w", err)
	}
	plan := &updatePlan{Hashes: hashes, FullResync: force || len(stored) == 0}
	if plan.FullResync {
		return plan, nil
	}

	if s.GitRef != "" {
		changes, err := git.GetChangedFiles(s.root(), s.GitRef)
		if err != nil {
			return nil, fmt.Errorf("failed to get git changes: %w", err)
		}
		plan.Changes = changes
		s.logger.Info("sync.changes", "source", "git", "ref", s.GitRef, "files", len(changes))
		return plan, nil
	}

	plan.Changes = fingerprintChanges(stored, hashes)
	s.logger.Info("sync.changes", "source", "fingerprint", "files", len(plan.Changes))
	return plan, nil
}

func (s *IncrementalSync) diskHashes() (map[string]string, error) {
	files, err := s.crawler.Discover(s.root())
	if err != nil {
		return nil, err
	}
	hashes := make(map[string]string, len(files))
	for _, f := range files {
		data, err := os.ReadFile(f.FSPath)
		if err != nil {
			return nil, err
		}
		hashes[f.ResPath] = project.Fingerprint(data)
	}
	return hashes, nil
}

// fingerprintChanges compares stored and on-disk fingerprints. Paths are
// relative to the project root, as git reports them.
func fingerprintChanges(stored, onDisk map[string]string) []git.ChangedFile {
	var changes []git.ChangedFile
	for path, hash := range onDisk {
		if stored[path] != hash {
			changes = append(changes, git.ChangedFile{Path: project.RelPath(path)})
		}
	}
	for path := range stored {
		if _, ok := onDisk[path]; !ok {
			changes = append(changes, git.ChangedFile{Path: project.RelPath(path), Deleted: true})
		}
	}
	sort.Slice(changes, func(i, j int) bool { return changes[i].Path < changes[j].Path })
	return changes
}

// applyChange re-reads one script into the project, or drops it, and
// invalidates the engine caches that depend on it.
func (s *IncrementalSync) applyChange(change git.ChangedFile) (string, bool, []graph.MethodKey) {
	res := project.ResPath(change.Path)
	p := s.engine.Project()

	deleted := change.Deleted
	if !deleted {
		data, err := os.ReadFile(filepath.Join(s.root(), filepath.FromSlash(change.Path)))
		switch {
		case os.IsNotExist(err):
			deleted = true
		case err != nil:
			s.logger.Warn("sync.skip", "file", res, "err", err)
			return res, false, nil
		default:
			if _, err := p.AddSource(res, string(data)); err != nil {
				s.logger.Warn("sync.parse_errors", "file", res, "err", err)
			}
		}
	}
	if deleted {
		p.Remove(res)
	}
	return res, deleted, s.engine.InvalidateFile(res)
}

func (s *IncrementalSync) incrementalStage(ctx context.Context, plan *updatePlan) (*SyncResult, error) {
	result := &SyncResult{}
	if len(plan.Changes) == 0 {
		return result, nil
	}

	affected := make(map[graph.MethodKey]bool)
	for _, change := range plan.Changes {
		res, deleted, keys := s.applyChange(change)
		if deleted {
			result.Deleted = append(result.Deleted, res)
		} else {
			result.Updated = append(result.Updated, res)
		}
		for _, k := range keys {
			affected[k] = true
		}
	}

	impact := analysis.NewAnalyzer(s.engine.Graph()).AnalyzeImpact(plan.Changes)
	s.logger.Info("sync.impact",
		"direct", len(impact.DirectlyAffected),
		"indirect", len(impact.IndirectlyAffected))
	for _, k := range impact.All() {
		affected[k] = true
	}

	result.Affected = make([]graph.MethodKey, 0, len(affected))
	for k := range affected {
		result.Affected = append(result.Affected, k)
	}
	graph.SortKeys(result.Affected)

	var reports []*inference.MethodReport
	var gone []graph.MethodKey
	for _, k := range result.Affected {
		if r, ok := s.engine.GetMethodReport(k.Type, k.Method); ok {
			reports = append(reports, r)
		} else {
			gone = append(gone, k)
		}
	}

	for _, path := range result.Deleted {
		if err := s.store.DeleteFile(ctx, path); err != nil {
			return nil, fmt.Errorf("failed to delete %s: %w", path, err)
		}
	}
	if err := s.persistStage(ctx, reports, gone); err != nil {
		return nil, err
	}
	for _, path := range result.Updated {
		if err := s.store.UpsertFile(ctx, path, plan.Hashes[path]); err != nil {
			return nil, fmt.Errorf("failed to save hash of %s: %w", path, err)
		}
	}
	result.Saved = len(reports)
	result.Removed = len(gone)
	return result, nil
}

func (s *IncrementalSync) fullSyncStage(ctx context.Context, stored map[string]string) (*SyncResult, error) {
	result := &SyncResult{FullResync: true}
	p := s.engine.Project()

	fresh := project.New(p.Root)
	if err := s.crawler.ScanProject(ctx, s.root(), fresh.Put); err != nil {
		return nil, fmt.Errorf("full sync scan failed: %w", err)
	}
	for _, sc := range p.Scripts() {
		if !hasScript(fresh, sc.Path) {
			p.Remove(sc.Path)
		}
	}
	for _, sc := range fresh.Scripts() {
		p.Put(sc)
		result.Updated = append(result.Updated, sc.Path)
	}
	s.engine.Invalidate()

	for path := range stored {
		if !hasScript(p, path) {
			result.Deleted = append(result.Deleted, path)
			if err := s.store.DeleteFile(ctx, path); err != nil {
				return nil, fmt.Errorf("failed to delete %s: %w", path, err)
			}
		}
	}
	sort.Strings(result.Deleted)

	reports := s.engine.BuildAll()
	if err := s.persistStage(ctx, reports, nil); err != nil {
		return nil, err
	}
	for _, sc := range p.Scripts() {
		if err := s.store.UpsertFile(ctx, sc.Path, sc.Hash); err != nil {
			return nil, fmt.Errorf("failed to save hash of %s: %w", sc.Path, err)
		}
	}
	for _, r := range reports {
		result.Affected = append(result.Affected, r.Key)
	}
	result.Saved = len(reports)
	return result, nil
}

// persistStage writes reports, drops vanished methods and refreshes the
// order and cycles, which any change can shift.
func (s *IncrementalSync) persistStage(ctx context.Context, reports []*inference.MethodReport, gone []graph.MethodKey) error {
	if err := s.store.DeleteMethods(ctx, gone); err != nil {
		return fmt.Errorf("failed to delete methods: %w", err)
	}
	if err := s.store.SaveReports(ctx, reports); err != nil {
		return fmt.Errorf("failed to save reports: %w", err)
	}
	if err := s.store.UpdateOrder(ctx, s.engine.Order()); err != nil {
		return fmt.Errorf("failed to update order: %w", err)
	}
	if err := s.store.SaveCycles(ctx, s.engine.Cycles()); err != nil {
		return fmt.Errorf("failed to save cycles: %w", err)
	}
	return nil
}

func hasScript(p *project.Project, path string) bool {
	_, ok := p.Script(path)
	return ok
}
