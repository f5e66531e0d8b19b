package configutil

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"dario.cat/mergo"
	"github.com/titanous/json5"
)

func splitExt(f string) (string, string) {
	ext := filepath.Ext(f)
	return strings.TrimSuffix(f, ext), strings.TrimPrefix(ext, ".")
}

// ReadConfig reads a json5 configuration file on top of `defaults`, `name` should come
// with a file extension, it will automatically be lopped off to produce the other extensions.
// files are merged in the following order, higher number wins.
// 0. defaults
// 1. <name>.<ext>
// 2. <name>.local.<ext>
//
// os.ErrNotExist is returned (along with the defaults) when neither file exists.
func ReadConfig[T any](name string, defaults T) (T, error) {
	out := defaults
	allNotFound := true

	dirname := filepath.Dir(name)
	prefixname, ext := splitExt(filepath.Base(name))

	paths := []string{
		name,
		filepath.Join(dirname, fmt.Sprintf("%s.local.%s", prefixname, ext)),
	}
	for i, path := range paths {
		contents, err := os.ReadFile(path)
		if os.IsNotExist(err) {
			continue
		}
		if err != nil {
			return defaults, err
		}
		allNotFound = false
		if len(contents) == 0 {
			continue
		}

		var override T
		err = json5.Unmarshal(contents, &override)
		if err != nil {
			return defaults, fmt.Errorf("parse %s: %w", path, err)
		}
		err = mergo.Merge(&out, override, mergo.WithOverride)
		if err != nil {
			return defaults, fmt.Errorf("merge %s: %w", path, err)
		}
		if i > 0 {
			slog.Info("merging config with local overrides", "local", path)
		}
	}

	if allNotFound {
		return out, os.ErrNotExist
	}
	return out, nil
}

// ReadRecursively is ReadConfig but it goes up the filesystem from the cwd until the root
// to find a configuration file matching the name.
func ReadRecursively[T any](name string, defaults T) (T, error) {
	root, err := filepath.Abs("/")
	if err != nil {
		return defaults, err
	}
	current, err := os.Getwd()
	if err != nil {
		return defaults, err
	}

	for {
		config, err := ReadConfig(filepath.Join(current, name), defaults)
		if err == nil || !os.IsNotExist(err) {
			return config, err
		}
		if current == root {
			return defaults, os.ErrNotExist
		}
		current = filepath.Dir(current)
	}
}
