package config

import (
	"os"

	"github.com/joho/godotenv"
)

// loadEnvFiles applies the given .env files when present. Variables already
// set in the process environment win. Parse errors are ignored.
func loadEnvFiles(paths ...string) {
	existing := make([]string, 0, len(paths))
	for _, path := range paths {
		if info, err := os.Stat(path); err == nil && !info.IsDir() {
			existing = append(existing, path)
		}
	}
	if len(existing) == 0 {
		return
	}
	_ = godotenv.Load(existing...)
}
