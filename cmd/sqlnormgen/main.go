// Copyright 2024 Canonical Ltd.
// Licensed under Apache 2.0, see LICENCE file for details.

// Command sqlnormgen writes handlers for the sqlnorm templates of a Go
// package, so that they are bound and decoded without reflection.
//
// Usage:
//
//	sqlnormgen [-dir D] [-pkg import/path] [-o file] [-v]
//
// Every call to sqlnorm.Prepare or sqlnorm.MustPrepare whose statement is a
// constant string gets a handler. The handlers are registered from an init
// function of the generated file, so templates must be prepared once package
// initialization is done to use them. A handler is only used by templates
// prepared with the placeholder style its call passes to sqlnorm.WithDialect,
// sqlnorm.Question without one.
//
// Fields of types from other packages are checked by loading those packages
// from source: types with Value or Scan methods must have the one their use
// needs, and the others must have a builtin integer, float, string or bool
// underlying type.
//
// Settings can also be given in a sqlnorm.yaml file in the package directory:
//
//	package: store
//	import_path: example.com/shop/store
//	output: sqlnorm_handlers.go
//
// Flags override the file.
package main

import (
	"errors"
	"flag"
	"io"
	"os"

	"github.com/sirupsen/logrus"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stderr))
}

func run(args []string, stderr io.Writer) int {
	log := logrus.New()
	log.SetOutput(stderr)
	log.SetFormatter(&logrus.TextFormatter{DisableTimestamp: true})

	flags := flag.NewFlagSet("sqlnormgen", flag.ContinueOnError)
	flags.SetOutput(stderr)
	dir := flags.String("dir", ".", "directory of the package")
	pkg := flags.String("pkg", "", "import path of the package, derived from go.mod by default")
	out := flags.String("o", "", "name of the generated file (default "+defaultOutput+")")
	verbose := flags.Bool("v", false, "log every generated handler")
	if err := flags.Parse(args); err != nil {
		return 2
	}
	if *verbose {
		log.SetLevel(logrus.DebugLevel)
	}

	cfg, err := loadConfig(*dir)
	if err != nil {
		log.Error(err)
		return 1
	}
	if *pkg != "" {
		cfg.ImportPath = *pkg
	}
	if *out != "" {
		cfg.Output = *out
	}

	result, err := generate(*dir, cfg, log)
	var ps problems
	if errors.As(err, &ps) {
		for _, e := range flatten(ps) {
			log.Error(e)
		}
		return 1
	} else if err != nil {
		log.Error(err)
		return 1
	}
	if result == nil {
		log.WithField("dir", *dir).Warn("no templates found")
		return 0
	}
	if err := os.WriteFile(result.Path, result.Source, 0o644); err != nil {
		log.Error(err)
		return 1
	}
	log.WithFields(logrus.Fields{"file": result.Path, "handlers": result.Handlers}).Info("generated handlers")
	return 0
}

// flatten returns the problems in ps, expanding the nested lists.
func flatten(ps problems) []error {
	var all []error
	for _, e := range ps {
		var nested problems
		if errors.As(e, &nested) {
			all = append(all, flatten(nested)...)
			continue
		}
		all = append(all, e)
	}
	return all
}
