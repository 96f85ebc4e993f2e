// Copyright 2024 Canonical Ltd.
// Licensed under Apache 2.0, see LICENCE file for details.

package main

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	configFile    = "sqlnorm.yaml"
	defaultOutput = "sqlnorm_handlers.go"
)

// config holds the settings of a generator run. Empty fields are derived
// from the package being generated.
type config struct {
	// Package is the name of the package. It must match the package clause
	// of the parsed files.
	Package string `yaml:"package"`
	// ImportPath is the site under which handlers are registered.
	ImportPath string `yaml:"import_path"`
	// Output is the name of the generated file, relative to the package
	// directory.
	Output string `yaml:"output"`
}

// loadConfig reads the configuration file of the package in dir. A missing
// file is an empty configuration.
func loadConfig(dir string) (*config, error) {
	cfg := &config{}
	data, err := os.ReadFile(filepath.Join(dir, configFile))
	if errors.Is(err, fs.ErrNotExist) {
		return cfg, nil
	} else if err != nil {
		return nil, fmt.Errorf("cannot read config: %w", err)
	}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("cannot parse %s: %w", configFile, err)
	}
	return cfg, nil
}

// importPath derives the import path of the package in dir from the module
// declared by the closest go.mod file above it.
func importPath(dir string) (string, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", err
	}
	for d := abs; ; {
		gomod := filepath.Join(d, "go.mod")
		data, err := os.ReadFile(gomod)
		if err == nil {
			mod := modulePath(data)
			if mod == "" {
				return "", fmt.Errorf("no module directive in %s", gomod)
			}
			rel, err := filepath.Rel(d, abs)
			if err != nil {
				return "", err
			}
			return path.Join(mod, filepath.ToSlash(rel)), nil
		}
		if !errors.Is(err, fs.ErrNotExist) {
			return "", err
		}
		parent := filepath.Dir(d)
		if parent == d {
			return "", fmt.Errorf("cannot find go.mod for %s, use -pkg", abs)
		}
		d = parent
	}
}

// modulePath returns the path of the module directive of a go.mod file.
func modulePath(gomod []byte) string {
	for _, line := range strings.Split(string(gomod), "\n") {
		rest, ok := strings.CutPrefix(strings.TrimSpace(line), "module")
		if !ok || rest == "" || (rest[0] != ' ' && rest[0] != '\t') {
			continue
		}
		rest = strings.TrimSpace(rest)
		if i := strings.Index(rest, "//"); i >= 0 {
			rest = strings.TrimSpace(rest[:i])
		}
		if unquoted, err := strconv.Unquote(rest); err == nil {
			return unquoted
		}
		return rest
	}
	return ""
}
