package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"gdinfer/internal/catalog"
	"gdinfer/internal/config"
	"gdinfer/internal/crawler"
	"gdinfer/internal/inference"
	"gdinfer/internal/project"
	"gdinfer/internal/resolver"
	"gdinfer/internal/storage"

	"github.com/spf13/cobra"
)

var (
	rootCmd = &cobra.Command{
		Use:   "gdinfer",
		Short: "Cross-file type inference for GDScript projects",
	}
	configPath string
	dbPath     string
	rootPath   string
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "gdinfer.yaml", "Path to the config file")
	rootCmd.PersistentFlags().StringVarP(&dbPath, "db", "d", "", "Path to the report database (SQLite), overrides storage.db")
	rootCmd.PersistentFlags().StringVarP(&rootPath, "root", "r", "", "Project root, overrides project.root")

	rootCmd.AddCommand(scanCmd)
	rootCmd.AddCommand(updateCmd)
	rootCmd.AddCommand(reportCmd)
	rootCmd.AddCommand(cyclesCmd)
	rootCmd.AddCommand(orderCmd)
	rootCmd.AddCommand(valueCmd)
	rootCmd.AddCommand(replCmd)
}

// app carries the loaded configuration shared by every command.
type app struct {
	cfg    *config.Config
	logger *slog.Logger
}

func setup() (*app, error) {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if dbPath != "" {
		cfg.Storage.DB = dbPath
	}
	if rootPath != "" {
		cfg.Project.Root = rootPath
	}

	opts := &slog.HandlerOptions{Level: cfg.Level()}
	var handler slog.Handler = slog.NewTextHandler(os.Stderr, opts)
	if cfg.Log.Format == "json" {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	}
	logger := slog.New(handler)
	slog.SetDefault(logger)

	return &app{cfg: cfg, logger: logger}, nil
}

func (a *app) crawler() *crawler.Crawler {
	return crawler.NewCrawler(
		crawler.WithIgnored(a.cfg.Project.Ignore...),
		crawler.WithWorkers(a.cfg.Inference.Workers),
		crawler.WithLogger(a.logger),
	)
}

// newEngine wires the catalog, extra catalogs included, and the engine
// around p.
func (a *app) newEngine(p *project.Project) (*inference.Engine, error) {
	var extra []catalog.Provider
	for _, path := range a.cfg.Catalog.Extra {
		prov, err := catalog.LoadYAMLFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to load catalog %s: %w", path, err)
		}
		extra = append(extra, prov)
	}
	c, err := catalog.ForProject(p, extra...)
	if err != nil {
		return nil, fmt.Errorf("failed to build catalog: %w", err)
	}
	return inference.NewEngine(p, c, inference.WithLogger(a.logger))
}

// loadEngine scans the project root and returns an engine over it.
func (a *app) loadEngine(ctx context.Context) (*inference.Engine, error) {
	p, err := a.crawler().Load(ctx, a.cfg.Project.Root)
	if err != nil {
		return nil, fmt.Errorf("failed to scan project: %w", err)
	}
	return a.newEngine(p)
}

func (a *app) newResolver(e *inference.Engine) (*resolver.Resolver, error) {
	return resolver.New(e.Project(), e.Catalog(), e.Collector(),
		resolver.WithMaxDepth(a.cfg.Inference.MaxValueDepth))
}

func (a *app) initStore() (*storage.SQLiteStore, error) {
	return storage.NewSQLiteStore(a.cfg.Storage.DB)
}
