package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/TobiSchelling/contentaware/internal/config"
	"github.com/TobiSchelling/contentaware/internal/report"
)

// --- keys command ---

var keysCmd = &cobra.Command{
	Use:   "keys",
	Short: "List known API services and whether their keys are set",
	Run: func(cmd *cobra.Command, args []string) {
		configured := 0
		for _, s := range config.Services {
			state := mutedStyle.Render("missing")
			if s.Configured() {
				state = okStyle.Render("set")
				configured++
			}
			name := s.Name
			if !s.Enabled {
				name = mutedStyle.Render(name)
			}
			fmt.Printf("  %-24s %-24s %s\n", name, s.EnvVar, state)
		}
		fmt.Printf("\n%d of %d keys set\n", configured, len(config.Services))
	},
}

// --- cache command ---

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Inspect or reset the analysis cache",
}

var cacheStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show cache statistics",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		stats, err := db.GetStats()
		if err != nil {
			return err
		}
		fmt.Printf("Cached analyses: %d\n", stats.Insights)
		fmt.Printf("Stale (old schema): %d\n", stats.StaleInsight)
		fmt.Printf("Indexed files: %d\n", stats.Files)
		return nil
	},
}

var cacheExportPath string

var cacheExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write the cache as " + report.InsightsFile,
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		path := cacheExportPath
		if path == "" {
			path = filepath.Join(cfg.GetDataDir(), report.InsightsFile)
		}
		n, err := report.ExportInsights(db, path)
		if err != nil {
			return err
		}
		fmt.Printf("Exported %d analyses to %s\n", n, path)
		return nil
	},
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete every cached analysis",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		n, err := db.ClearInsights()
		if err != nil {
			return err
		}
		fmt.Printf("Removed %d cached analyses\n", n)
		return nil
	},
}

func init() {
	cacheExportCmd.Flags().StringVarP(&cacheExportPath, "out", "o", "", "Output file")

	cacheCmd.AddCommand(cacheStatsCmd)
	cacheCmd.AddCommand(cacheExportCmd)
	cacheCmd.AddCommand(cacheClearCmd)
}
