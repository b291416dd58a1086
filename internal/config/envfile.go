package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/subosito/gotenv"
)

// LoadEnvFiles merges KEY=VALUE files in order; later files win. Missing files
// are skipped unless required is set.
func LoadEnvFiles(paths []string, required bool) (map[string]string, error) {
	merged := make(map[string]string)
	for _, path := range paths {
		values, err := loadEnvFile(path)
		if err != nil {
			if !required && errors.Is(err, os.ErrNotExist) {
				continue
			}
			return nil, err
		}
		for k, v := range values {
			merged[k] = v
		}
	}
	return merged, nil
}

// ResolveRoot returns the working directory for child processes: root when
// set (relative to the Procfile's directory), otherwise the Procfile's
// directory.
func ResolveRoot(procfilePath, root string) (string, error) {
	absProcfile, err := filepath.Abs(procfilePath)
	if err != nil {
		return "", fmt.Errorf("resolve procfile path: %w", err)
	}
	base := filepath.Dir(absProcfile)
	if root == "" {
		return base, nil
	}
	root = os.ExpandEnv(root)
	if filepath.IsAbs(root) {
		return filepath.Clean(root), nil
	}
	return filepath.Clean(filepath.Join(base, root)), nil
}

// loadEnvFile reads one dotenv file: KEY=VALUE lines with optional export,
// # comments, literal single quotes, double quotes with \n escapes, and $VAR
// expansion from the environment or earlier keys.
func loadEnvFile(path string) (map[string]string, error) {
	values, err := gotenv.Read(path)
	if err != nil {
		return nil, fmt.Errorf("load env file %q: %w", path, err)
	}
	return values, nil
}
