package configutil

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/titanous/json5"
)

func splitExt(f string) (string, string) {
	for i := len(f) - 1; i >= 0; i-- {
		if f[i] == '.' {
			return f[0:i], f[i+1:]
		}
	}
	return f, ""
}

// LocalPath returns the path of the local override file for `name`,
// ex. `config.json5` -> `config.local.json5`
func LocalPath(name string) string {
	prefixname, ext := splitExt(filepath.Base(name))
	return filepath.Join(
		filepath.Dir(name),
		fmt.Sprintf("%s.local.%s", prefixname, ext),
	)
}

// ReadConfigInto reads a configuration file on top of the values already in `out`,
// keys that are not present in the file keep their current value.
// `name` should come with a file extension, it will automatically be lopped off
// to produce the other extensions.
// this function will apply the following files, where higher number is more prioritized.
// 1. <name>.<ext>
// 2. <name>.local.<ext>
func ReadConfigInto[T any](name string, out *T) error {
	allNotFound := true

	defaultFile, err := os.ReadFile(name)
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	if len(defaultFile) > 0 {
		err = json5.Unmarshal(defaultFile, out)
		if err != nil {
			return fmt.Errorf("parse %s: %w", name, err)
		}
		allNotFound = false
	}

	localFilepath := LocalPath(name)
	localFile, err := os.ReadFile(localFilepath)
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	if len(localFile) > 0 {
		err = json5.Unmarshal(localFile, out)
		if err != nil {
			return fmt.Errorf("parse %s: %w", localFilepath, err)
		}
		slog.Info("merging config with local overrides", "local", localFilepath)
		allNotFound = false
	}

	if allNotFound {
		return os.ErrNotExist
	}
	return nil
}

// ReadConfig is ReadConfigInto starting from the zero value of T.
func ReadConfig[T any](name string) (T, error) {
	var out T
	err := ReadConfigInto(name, &out)
	return out, err
}

// ReadConfig but it recursively goes up the filesystem until the root
// to find a configuration file matching the name.
func ReadRecursively[T any](name string) (T, error) {
	var defaultOut T

	current, err := os.Getwd()
	if err != nil {
		return defaultOut, err
	}

	for {
		config, err := ReadConfig[T](filepath.Join(current, name))
		if err == nil {
			return config, nil
		}
		if !os.IsNotExist(err) {
			return defaultOut, err
		}

		parent := filepath.Dir(current)
		if parent == current {
			break
		}
		current = parent
	}

	return defaultOut, os.ErrNotExist
}
