package config

import (
	"log"
	"path/filepath"
	"sort"

	"github.com/joho/godotenv"
)

// LoadEnv loads API keys from the configured dotenv files. Patterns may use
// globs and a leading "~". Variables already present in the process
// environment are never overwritten. Returns the files that were loaded.
func (c *Config) LoadEnv() []string {
	var loaded []string
	for _, pattern := range c.Env.Files {
		matches, err := filepath.Glob(ExpandHome(pattern))
		if err != nil {
			log.Printf("Invalid env pattern %q: %v", pattern, err)
			continue
		}
		sort.Strings(matches)
		for _, path := range matches {
			if err := godotenv.Load(path); err != nil {
				log.Printf("Skipping env file %s: %v", path, err)
				continue
			}
			loaded = append(loaded, path)
		}
	}
	return loaded
}
