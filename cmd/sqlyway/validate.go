package main

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/fatih/color"

	"github.com/shibukawa/sqlyway/config"
	"github.com/shibukawa/sqlyway/loader"
	"github.com/shibukawa/sqlyway/twoway"
)

// ValidateCmd parses every ".sql" template under the configured SQL
// directory with an empty binding set, catching directive and syntax
// errors (unterminated comments, unbalanced %if/%end, unknown directives)
// before a caller ever runs the template against a database.
type ValidateCmd struct {
	Input string `short:"i" help:"Template directory, overriding the config file's sql_dir" default:""`
}

func (v *ValidateCmd) Run(ctx *Context) error {
	cfg, err := config.Load(ctx.Config)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	dir := cfg.SQLDir
	if v.Input != "" {
		dir = v.Input
	}

	if ctx.Verbose {
		color.Blue("Validating templates in %s", dir)
	}

	l := loader.New(dir)
	d := cfg.DialectValue()

	var failures int
	err = filepath.WalkDir(dir, func(path string, entry fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if entry.IsDir() || !strings.HasSuffix(path, ".sql") {
			return nil
		}

		rel, err := filepath.Rel(dir, path)
		if err != nil {
			rel = path
		}

		data, err := os.ReadFile(path)
		if err != nil {
			failures++
			fmt.Fprintf(os.Stderr, "%s: read error: %v\n", rel, err)
			return nil
		}

		_, err = twoway.Parse(string(data), twoway.Bindings{}, twoway.Options{
			Dialect: d,
			Include: l.AsResolver(),
		})
		if err != nil {
			failures++
			fmt.Fprintf(os.Stderr, "%s: %v\n", rel, err)
			return nil
		}

		if ctx.Verbose {
			fmt.Printf("  ok  %s\n", rel)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("walk %s: %w", dir, err)
	}

	if failures > 0 {
		color.Red("%d template(s) failed validation", failures)
		os.Exit(1)
	}

	if !ctx.Quiet {
		color.Green("Validation completed successfully")
	}
	return nil
}
