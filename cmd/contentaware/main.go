package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/TobiSchelling/contentaware/internal/analyze"
	"github.com/TobiSchelling/contentaware/internal/cluster"
	"github.com/TobiSchelling/contentaware/internal/config"
	"github.com/TobiSchelling/contentaware/internal/database"
	"github.com/TobiSchelling/contentaware/internal/pipeline"
	"github.com/TobiSchelling/contentaware/internal/report"
	"github.com/TobiSchelling/contentaware/internal/scan"
	"github.com/TobiSchelling/contentaware/internal/site"
)

var version = "dev"

var (
	verbose    bool
	configPath string
	cfg        *config.Config
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:     "contentaware",
	Short:   "Content-aware file analysis and organization",
	Long:    "contentaware classifies files by content, scores their complexity, groups related files, and reorganizes directories by category.",
	Version: version,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if verbose {
			log.SetFlags(log.LstdFlags | log.Lshortfile)
		} else {
			log.SetFlags(log.LstdFlags)
		}

		// Skip config loading for init and version
		if cmd.Name() == "init" || cmd.Name() == "version" {
			return nil
		}

		path, err := config.ResolveConfigPath(configPath)
		if err != nil {
			return err
		}
		cfg, err = config.Load(path)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}

		for _, f := range cfg.LoadEnv() {
			log.Printf("Loaded environment from %s", f)
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to config file")

	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(scanCmd)
	rootCmd.AddCommand(classifyCmd)
	rootCmd.AddCommand(clusterCmd)
	rootCmd.AddCommand(organizeCmd)
	rootCmd.AddCommand(undoCmd)
	rootCmd.AddCommand(reportCmd)
	rootCmd.AddCommand(siteCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(keysCmd)
	rootCmd.AddCommand(cacheCmd)
	rootCmd.AddCommand(runCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("contentaware", version)
	},
}

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize configuration in ~/.config/contentaware/",
	RunE: func(cmd *cobra.Command, args []string) error {
		target := filepath.Join(config.ConfigDir(), "config.yaml")
		if _, err := os.Stat(target); err == nil {
			fmt.Printf("Config already exists: %s\n", target)
			return nil
		}

		if err := os.MkdirAll(config.ConfigDir(), 0o755); err != nil {
			return fmt.Errorf("creating config directory: %w", err)
		}

		if err := os.WriteFile(target, config.DefaultConfigYAML, 0o644); err != nil {
			return fmt.Errorf("writing config: %w", err)
		}

		fmt.Printf("Created config: %s\n", target)
		fmt.Println("Edit it to configure scan roots, the classifier, and the organize destination.")
		return nil
	},
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show database and system status",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		stats, err := db.GetStats()
		if err != nil {
			return fmt.Errorf("getting stats: %w", err)
		}

		fmt.Println(headerStyle.Render("Index"))
		fmt.Printf("  Files: %d\n", stats.Files)
		fmt.Printf("  Cached analyses: %d\n", stats.Insights)
		if stats.StaleInsight > 0 {
			fmt.Printf("  Stale analyses: %s\n", warnStyle.Render(fmt.Sprint(stats.StaleInsight)))
		}
		fmt.Printf("  Runs: %d\n", stats.Runs)
		fmt.Printf("  Clusters: %d\n", stats.Clusters)

		if len(stats.Moves) > 0 {
			fmt.Println()
			fmt.Println(headerStyle.Render("Moves"))
			for _, status := range []string{database.MovePlanned, database.MoveMoved, database.MoveSkipped, database.MoveFailed, database.MoveUndone} {
				if n := stats.Moves[status]; n > 0 {
					fmt.Printf("  %s: %d\n", status, n)
				}
			}
		}

		latest, err := db.GetLatestRun()
		if err != nil {
			return err
		}
		if latest != nil {
			fmt.Println()
			fmt.Println(headerStyle.Render("Latest run"))
			fmt.Printf("  %s %s\n", latest.ID, mutedStyle.Render(latest.Root))
			fmt.Printf("  %d files, %d analyzed, %d from cache, %d errors\n",
				latest.Files, latest.Analyzed, latest.CacheHits, latest.Errors)
		}

		fmt.Println()
		fmt.Println(headerStyle.Render("Classifier"))
		fmt.Printf("  Mode: %s (provider %s)\n", cfg.Classifier.Mode, cfg.Classifier.Provider)
		fmt.Printf("  Database: %s\n", db.Path())
		return nil
	},
}

// --- scan command ---

var scanCmd = &cobra.Command{
	Use:   "scan [dir...]",
	Short: "Analyze every file under the given directories (default: configured roots)",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		classifier, err := pipeline.SelectClassifier(cfg)
		if err != nil {
			return err
		}
		opts := scan.OptionsFromConfig(cfg.Scan)
		opts.SkipDirs = []string{cfg.GetDataDir()}
		scanner := scan.NewScanner(db, analyze.New(db, classifier), opts)

		roots := args
		if len(roots) == 0 {
			roots = cfg.Scan.Roots
		}
		if len(roots) == 0 {
			return fmt.Errorf("no directories given and no scan roots configured")
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()

		for _, root := range roots {
			fmt.Printf("Scanning %s with %s classifier...\n", root, classifier.Name())
			result, err := scanner.Scan(ctx, root)
			if err != nil {
				return err
			}
			fmt.Printf("\n%s %s\n", headerStyle.Render("Run"), result.RunID)
			fmt.Printf("  Files: %d\n", result.Files)
			fmt.Printf("  Analyzed: %d\n", result.Analyzed)
			fmt.Printf("  From cache: %d\n", result.CacheHits)
			fmt.Printf("  Skipped: %d\n", result.Skipped)
			if result.Errors > 0 {
				fmt.Printf("  Errors: %s\n", errStyle.Render(fmt.Sprint(result.Errors)))
			}
		}
		return nil
	},
}

// --- classify command ---

var classifyJSON bool

var classifyCmd = &cobra.Command{
	Use:   "classify <file...>",
	Short: "Analyze individual files and print the result",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		classifier, err := pipeline.SelectClassifier(cfg)
		if err != nil {
			return err
		}
		analyzer := analyze.New(db, classifier)
		ctx := context.Background()

		var results []*database.FileAnalysis
		for _, path := range args {
			abs, err := filepath.Abs(path)
			if err != nil {
				return err
			}
			fa, cached, err := analyzer.AnalyzeFile(ctx, filepath.Dir(abs), abs)
			if err != nil {
				fmt.Printf("%s %s: %v\n", errStyle.Render("error"), path, err)
				continue
			}
			if classifyJSON {
				results = append(results, fa)
				continue
			}
			printAnalysis(fa, cached)
		}

		if classifyJSON {
			data, err := json.MarshalIndent(results, "", "  ")
			if err != nil {
				return err
			}
			fmt.Println(string(data))
		}
		return nil
	},
}

func init() {
	classifyCmd.Flags().BoolVar(&classifyJSON, "json", false, "Print results as JSON")
}

func printAnalysis(fa *database.FileAnalysis, cached bool) {
	source := fa.Classifier
	if cached {
		source += ", cached"
	}
	conf := confidenceStyle(fa.Confidence, cfg.Organize.MinConfidence).Render(fmt.Sprintf("%.0f%%", fa.Confidence*100))

	fmt.Println(headerStyle.Render(fa.Path))
	fmt.Printf("  Content type: %s (%s)\n", fa.ContentType, conf)
	fmt.Printf("  Purpose:      %s\n", fa.Purpose)
	fmt.Printf("  Language:     %s\n", fa.Language)
	fmt.Printf("  Complexity:   %.2f %s\n", fa.ComplexityScore, mutedStyle.Render(fa.Scorer))
	if len(fa.Patterns) > 0 {
		fmt.Printf("  Patterns:     %v\n", fa.Patterns)
	}
	if len(fa.Tags) > 0 {
		fmt.Printf("  Tags:         %v\n", fa.Tags)
	}
	if fa.Summary != "" {
		fmt.Printf("  Summary:      %s\n", fa.Summary)
	}
	for _, rec := range fa.Recommendations {
		fmt.Printf("  %s %s\n", warnStyle.Render("!"), rec)
	}
	fmt.Printf("  %s\n\n", mutedStyle.Render(source))
}

// --- cluster command ---

var clusterCmd = &cobra.Command{
	Use:   "cluster [run-id]",
	Short: "Group the files of a run into content clusters (default: latest run)",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		run, err := resolveRun(db, args)
		if err != nil {
			return err
		}

		clusterer := cluster.NewClusterer(db, pipeline.Embedder(cfg), cfg.Cluster.MinOverlap, cfg.Cluster.DistanceThreshold)
		result, err := clusterer.ClusterRun(context.Background(), run.ID)
		if err != nil {
			return err
		}

		fmt.Printf("Created %d clusters from %d files\n\n", result.ClusterCount, result.FileCount)
		for _, g := range result.Groups {
			label := headerStyle.Render(g.Label)
			if g.Label == cluster.UnclusteredLabel {
				label = mutedStyle.Render(g.Label)
			}
			fmt.Printf("  %s %s (%d files)\n", label, mutedStyle.Render(g.ContentType), len(g.Paths))
		}
		return nil
	},
}

// --- report command ---

var reportJSON bool

var reportCmd = &cobra.Command{
	Use:   "report [run-id]",
	Short: "Write Markdown and JSON reports for a run (default: latest run)",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		run, err := resolveRun(db, args)
		if err != nil {
			return err
		}
		rep, err := report.Build(db, run.ID)
		if err != nil {
			return err
		}

		if reportJSON {
			data, err := rep.JSON()
			if err != nil {
				return err
			}
			fmt.Println(string(data))
			return nil
		}

		mdPath, jsonPath, err := rep.Write(cfg.ReportsDir())
		if err != nil {
			return err
		}
		fmt.Printf("Report written:\n  %s\n  %s\n", mdPath, jsonPath)
		return nil
	},
}

func init() {
	reportCmd.Flags().BoolVar(&reportJSON, "json", false, "Print the JSON report to stdout instead of writing files")
}

// --- site command ---

var siteOut string

var siteCmd = &cobra.Command{
	Use:   "site [run-id]",
	Short: "Generate a static HTML browser for a run (default: latest run)",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		run, err := resolveRun(db, args)
		if err != nil {
			return err
		}

		out := siteOut
		if out == "" {
			out = filepath.Join(cfg.SiteDir(), run.ID)
		}

		gen, err := site.NewGenerator(db)
		if err != nil {
			return err
		}
		result, err := gen.Generate(run.ID, out)
		if err != nil {
			return err
		}
		fmt.Printf("Wrote %d pages to %s\n", result.Pages, result.Dir)
		fmt.Printf("Open %s\n", result.Index)
		return nil
	},
}

func init() {
	siteCmd.Flags().StringVarP(&siteOut, "out", "o", "", "Output directory")
}

// --- run command ---

var (
	dryRun   bool
	runApply bool
)

var runCmd = &cobra.Command{
	Use:   "run [dir]",
	Short: "Run the full pipeline: scan -> cluster -> report -> organize",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		root := ""
		if len(args) == 1 {
			root = args[0]
		} else if len(cfg.Scan.Roots) > 0 {
			root = cfg.Scan.Roots[0]
		} else {
			return fmt.Errorf("no directory given and no scan roots configured")
		}

		pipe, err := pipeline.New(cfg, db)
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()

		var result *pipeline.Result
		if dryRun {
			result = pipe.DryRun(root)
		} else {
			result = pipe.Run(ctx, root, runApply)
		}

		for i, step := range result.Steps {
			fmt.Printf("\n%s\n", headerStyle.Render(fmt.Sprintf("Step %d/4: %s", i+1, step.Name)))
			if step.Err != nil {
				fmt.Printf("  %s %v\n", errStyle.Render("Error:"), step.Err)
			} else {
				fmt.Printf("  %s\n", step.Summary)
			}
		}

		if !dryRun && !result.Failed() {
			fmt.Printf("\nPipeline complete! Run 'contentaware serve' to browse run %s.\n", result.RunID)
		}
		return nil
	},
}

func init() {
	runCmd.Flags().BoolVar(&dryRun, "dry-run", false, "Show what would be done without executing")
	runCmd.Flags().BoolVar(&runApply, "apply", false, "Move files instead of only planning the moves")
}

func openDB() (*database.DB, error) {
	dataDir := cfg.GetDataDir()
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}
	dbPath := filepath.Join(dataDir, "contentaware.db")
	return database.Open(dbPath)
}

// resolveRun returns the run named in args, or the latest run.
func resolveRun(db *database.DB, args []string) (*database.Run, error) {
	var run *database.Run
	var err error
	if len(args) > 0 {
		run, err = db.GetRun(args[0])
	} else {
		run, err = db.GetLatestRun()
	}
	if err != nil {
		return nil, err
	}
	if run == nil {
		if len(args) > 0 {
			return nil, fmt.Errorf("run %s not found", args[0])
		}
		return nil, fmt.Errorf("no runs yet; run 'contentaware scan <dir>' first")
	}
	return run, nil
}
