package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	"gdinfer/internal/graph"
	"gdinfer/internal/pipeline"
	"gdinfer/internal/project"
	"gdinfer/internal/storage"

	"github.com/spf13/cobra"
)

var (
	gitRef     string
	fromStored bool
)

func init() {
	updateCmd.Flags().StringVar(&gitRef, "git", "", "Detect changes with `git diff <ref>` instead of file fingerprints")
	reportCmd.Flags().BoolVar(&fromStored, "stored", false, "Read reports from the database instead of inferring them")
}

func mustSetup() *app {
	a, err := setup()
	if err != nil {
		log.Fatalf("Setup failed: %v", err)
	}
	return a
}

var scanCmd = &cobra.Command{
	Use:   "scan [path]",
	Short: "Infer every method of the project and store the reports",
	Args:  cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		a := mustSetup()
		if len(args) > 0 {
			a.cfg.Project.Root = args[0]
		}
		ctx := context.Background()

		fmt.Printf("📂 Scanning directory: %s\n", a.cfg.Project.Root)
		store, err := a.initStore()
		if err != nil {
			log.Fatalf("Failed to initialize database: %v", err)
		}
		defer store.Close()

		engine, err := a.newEngine(project.New(a.cfg.Project.Root))
		if err != nil {
			log.Fatalf("Failed to create engine: %v", err)
		}
		syncer, err := pipeline.NewIncrementalSync(engine, store,
			pipeline.WithCrawler(a.crawler()),
			pipeline.WithLogger(a.logger))
		if err != nil {
			log.Fatalf("Failed to create pipeline: %v", err)
		}

		fmt.Println("🚀 Inferring signatures...")
		res, err := syncer.Run(ctx, true)
		if err != nil {
			log.Fatalf("Scan failed: %v", err)
		}
		stats := engine.Graph().Stats()
		fmt.Printf("✅ %d scripts, %d methods inferred in %v.\n", len(res.Updated), res.Saved, res.Duration.Round(time.Millisecond))
		fmt.Printf("  -> %d edges, %d cycles, %d unresolved calls\n", stats.Edges, stats.Cycles, stats.Unresolved)
		fmt.Printf("🎉 Scan complete! Database: %s\n", a.cfg.Storage.DB)
	},
}

var updateCmd = &cobra.Command{
	Use:   "update",
	Short: "Re-infer the methods affected by changed scripts",
	Run: func(cmd *cobra.Command, args []string) {
		a := mustSetup()
		ctx := context.Background()

		store, err := a.initStore()
		if err != nil {
			log.Fatalf("Failed to initialize database: %v", err)
		}
		defer store.Close()

		fmt.Println("🔄 Loading project...")
		engine, err := a.loadEngine(ctx)
		if err != nil {
			log.Fatalf("Failed to load project: %v", err)
		}
		opts := []pipeline.Option{pipeline.WithCrawler(a.crawler()), pipeline.WithLogger(a.logger)}
		if gitRef != "" {
			opts = append(opts, pipeline.WithGitRef(gitRef))
		}
		syncer, err := pipeline.NewIncrementalSync(engine, store, opts...)
		if err != nil {
			log.Fatalf("Failed to create pipeline: %v", err)
		}

		res, err := syncer.Run(ctx, false)
		if err != nil {
			log.Fatalf("Update failed: %v", err)
		}
		switch {
		case res.FullResync:
			fmt.Printf("🧭 No stored reports. Ran a full sync: %d methods.\n", res.Saved)
		case len(res.Updated)+len(res.Deleted) == 0:
			fmt.Println("✅ No changes detected.")
		default:
			fmt.Printf("📝 %d changed, %d deleted scripts.\n", len(res.Updated), len(res.Deleted))
			fmt.Printf("  -> %d methods re-inferred, %d removed\n", res.Saved, res.Removed)
		}
	},
}

var reportCmd = &cobra.Command{
	Use:   "report <Class> [method]",
	Short: "Show inferred parameter and return types",
	Args:  cobra.RangeArgs(1, 2),
	Run: func(cmd *cobra.Command, args []string) {
		a := mustSetup()
		ctx := context.Background()
		class := args[0]
		method := ""
		if len(args) > 1 {
			method = args[1]
		}

		var records []*storage.MethodRecord
		if fromStored {
			store, err := a.initStore()
			if err != nil {
				log.Fatalf("Failed to initialize database: %v", err)
			}
			defer store.Close()
			if records, err = storedRecords(ctx, store, class, method); err != nil {
				log.Fatalf("Failed to read reports: %v", err)
			}
		} else {
			engine, err := a.loadEngine(ctx)
			if err != nil {
				log.Fatalf("Failed to load project: %v", err)
			}
			for _, r := range engine.BuildAll() {
				if r.Key.Type == class && (method == "" || r.Key.Method == method) {
					records = append(records, storage.RecordFromReport(r))
				}
			}
		}

		if len(records) == 0 {
			fmt.Printf("No methods found for %s %s\n", class, method)
			os.Exit(1)
		}
		for _, rec := range records {
			printRecord(os.Stdout, rec)
		}
	},
}

func storedRecords(ctx context.Context, store storage.ReportStore, class, method string) ([]*storage.MethodRecord, error) {
	if method != "" {
		rec, err := store.GetMethod(ctx, graph.MethodKey{Type: class, Method: method})
		if errors.Is(err, storage.ErrNotFound) {
			return nil, nil
		}
		if err != nil {
			return nil, err
		}
		return []*storage.MethodRecord{rec}, nil
	}
	all, err := store.ListMethods(ctx, "")
	if err != nil {
		return nil, err
	}
	var out []*storage.MethodRecord
	for _, rec := range all {
		if rec.Key.Type == class {
			out = append(out, rec)
		}
	}
	return out, nil
}

var cyclesCmd = &cobra.Command{
	Use:   "cycles",
	Short: "List groups of mutually dependent methods",
	Run: func(cmd *cobra.Command, args []string) {
		a := mustSetup()
		engine, err := a.loadEngine(context.Background())
		if err != nil {
			log.Fatalf("Failed to load project: %v", err)
		}
		printCycles(os.Stdout, engine.Cycles())
	},
}

var orderCmd = &cobra.Command{
	Use:   "order",
	Short: "Print the inference order",
	Run: func(cmd *cobra.Command, args []string) {
		a := mustSetup()
		engine, err := a.loadEngine(context.Background())
		if err != nil {
			log.Fatalf("Failed to load project: %v", err)
		}
		printOrder(os.Stdout, engine.Order())
	},
}

var valueCmd = &cobra.Command{
	Use:   "value <Class> <CONSTANT>",
	Short: "Resolve the compile-time values of a constant",
	Args:  cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		a := mustSetup()
		engine, err := a.loadEngine(context.Background())
		if err != nil {
			log.Fatalf("Failed to load project: %v", err)
		}
		r, err := a.newResolver(engine)
		if err != nil {
			log.Fatalf("Failed to create resolver: %v", err)
		}
		printValues(os.Stdout, r.ResolveConstant(args[0], args[1]))
	},
}

var replCmd = &cobra.Command{
	Use:   "repl",
	Short: "Query the inference engine interactively",
	Run: func(cmd *cobra.Command, args []string) {
		a := mustSetup()
		engine, err := a.loadEngine(context.Background())
		if err != nil {
			log.Fatalf("Failed to load project: %v", err)
		}
		r, err := a.newResolver(engine)
		if err != nil {
			log.Fatalf("Failed to create resolver: %v", err)
		}
		runREPL(newSession(engine, r, os.Stdout))
	},
}
