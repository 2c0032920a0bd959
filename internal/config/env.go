package config

import (
	"os"

	"github.com/joho/godotenv"
)

// LoadEnv loads variables from the given dotenv files (default ".env").
// Files that do not exist are skipped; variables already set in the process
// environment are kept. It returns the files that were loaded.
func LoadEnv(files ...string) ([]string, error) {
	if len(files) == 0 {
		files = []string{".env"}
	}
	loaded := make([]string, 0, len(files))
	for _, file := range files {
		if _, err := os.Stat(file); err != nil {
			continue
		}
		if err := godotenv.Load(file); err != nil {
			return loaded, err
		}
		loaded = append(loaded, file)
	}
	return loaded, nil
}
