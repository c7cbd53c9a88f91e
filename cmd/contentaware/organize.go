package main

import (
	"errors"
	"fmt"
	"path/filepath"
	"sort"

	"github.com/spf13/cobra"

	"github.com/TobiSchelling/contentaware/internal/config"
	"github.com/TobiSchelling/contentaware/internal/organize"
	"github.com/TobiSchelling/contentaware/internal/server"
)

// --- organize command ---

var (
	organizeApply bool
	organizeNav   bool
	organizeDest  string
)

var organizeCmd = &cobra.Command{
	Use:   "organize [run-id]",
	Short: "Plan (or with --apply, perform) category moves for a run (default: latest run)",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if organizeApply && organizeNav {
			return errors.New("--apply and --nav are mutually exclusive")
		}

		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		run, err := resolveRun(db, args)
		if err != nil {
			return err
		}

		opts := organize.OptionsFromConfig(cfg.Organize, cfg.BackupsDir())
		opts.Apply = organizeApply
		if organizeDest != "" {
			opts.Destination = config.ExpandHome(organizeDest)
		}

		analyses, err := db.GetAnalysesForRun(run.ID)
		if err != nil {
			return err
		}
		plan := organize.BuildPlan(run.ID, run.Root, analyses, opts)

		if organizeNav {
			path, err := organize.WriteNavigation(plan, plan.Destination)
			if err != nil {
				return err
			}
			fmt.Printf("Wrote %s (%d files to organize, nothing moved)\n", path, len(plan.Actionable()))
			return nil
		}

		printPlan(plan, opts.MinConfidence)

		result, err := organize.NewOrganizer(db, opts).Execute(plan)
		if err != nil {
			return err
		}

		fmt.Println()
		if result.DryRun {
			fmt.Printf("%s %d moves planned, %d skipped, %d kept in place\n",
				warnStyle.Render("Dry run:"), result.Planned, result.Skipped, result.Kept)
			fmt.Println("Re-run with --apply to move the files.")
		} else {
			fmt.Printf("%s %d moved, %d skipped, %d failed, %d kept in place\n",
				okStyle.Render("Applied:"), result.Moved, result.Skipped, result.Failed, result.Kept)
			fmt.Printf("Undo with: contentaware undo %s\n", run.ID)
		}
		if result.BackupPath != "" {
			fmt.Printf("Move log: %s\n", result.BackupPath)
		}
		return nil
	},
}

func init() {
	organizeCmd.Flags().BoolVar(&organizeApply, "apply", false, "Move the files (default is a dry run)")
	organizeCmd.Flags().BoolVar(&organizeNav, "nav", false, "Write "+organize.NavigationFile+" describing the structure without moving anything")
	organizeCmd.Flags().StringVarP(&organizeDest, "dest", "d", "", "Destination root (default: config or the scanned directory)")
}

func printPlan(plan *organize.Plan, minConf float64) {
	counts := plan.Categories()
	categories := make([]string, 0, len(counts))
	for c := range counts {
		categories = append(categories, c)
	}
	sort.Strings(categories)

	fmt.Printf("%s %s\n", headerStyle.Render("Destination"), plan.Destination)
	for _, c := range categories {
		fmt.Printf("  %-20s %d files\n", c+"/", counts[c])
	}

	fmt.Println()
	for _, m := range plan.Moves {
		rel, _ := filepath.Rel(plan.Root, m.Source)
		target, _ := filepath.Rel(plan.Destination, m.Target)
		if m.Reason != nil {
			fmt.Printf("  %s %s (%v)\n", mutedStyle.Render("skip"), rel, m.Reason)
			continue
		}
		conf := confidenceStyle(m.Confidence, minConf).Render(fmt.Sprintf("%3.0f%%", m.Confidence*100))
		fmt.Printf("  %s %s -> %s\n", conf, rel, target)
	}
	if len(plan.Kept) > 0 {
		fmt.Printf("\n  %s\n", mutedStyle.Render(fmt.Sprintf("%d files below %.0f%% confidence stay in place", len(plan.Kept), minConf*100)))
	}
}

// --- undo command ---

var undoCmd = &cobra.Command{
	Use:   "undo <run-id>",
	Short: "Move the files of an applied run back to where they were",
	Args:  cobra.ExactArgs(1),
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

		result, err := organize.Undo(db, run.ID)
		if err != nil {
			return err
		}
		if result.Restored == 0 && result.Failed == 0 {
			fmt.Printf("Nothing to undo for run %s\n", run.ID)
			return nil
		}
		fmt.Printf("Restored %d files", result.Restored)
		if result.Failed > 0 {
			fmt.Printf(", %s", errStyle.Render(fmt.Sprintf("%d failed", result.Failed)))
		}
		fmt.Println()
		return nil
	},
}

// --- serve command ---

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the local web server",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}

		fmt.Printf("Starting server at http://localhost:%d\n", port)
		fmt.Println("Press Ctrl+C to stop")
		return server.Serve(db, organize.OptionsFromConfig(cfg.Organize, cfg.BackupsDir()), port)
	},
}

func init() {
	serveCmd.Flags().IntVarP(&servePort, "port", "p", 0, "Port to run server on (default: config, 8000)")
}
