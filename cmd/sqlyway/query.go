package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/fatih/color"

	"github.com/shibukawa/sqlyway"
	"github.com/shibukawa/sqlyway/config"
)

// QueryCmd runs a template against a configured database environment and
// prints the result in one of several output formats, mirroring the
// teacher's "query" subcommand and query/executor.go's OutputFormat set.
type QueryCmd struct {
	File        string `arg:"" help:"Template file path, relative to the config's sql_dir"`
	Environment string `help:"Database environment name from the config file" default:"development"`
	Params      string `help:"JSON object of parameter bindings" default:"{}"`
	Format      string `help:"Output format: table, json, csv, yaml, markdown" default:"table" enum:"table,json,csv,yaml,markdown"`
	Timeout     string `help:"Query timeout" default:"30s"`
}

func (cmd *QueryCmd) Run(ctx *Context) error {
	cfg, err := config.Load(ctx.Config)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	dbCfg, ok := cfg.Databases[cmd.Environment]
	if !ok {
		return fmt.Errorf("no database configured for environment %q", cmd.Environment)
	}

	var params map[string]any
	if err := json.Unmarshal([]byte(cmd.Params), &params); err != nil {
		return fmt.Errorf("invalid --params JSON: %w", err)
	}

	db, err := sqlyway.OpenWithDialect(dbCfg.Driver, dbCfg.Connection, cfg.DialectValue(), cfg.SQLDir)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()

	if err := db.Raw().Ping(); err != nil {
		return fmt.Errorf("failed to ping database: %w", err)
	}

	if ctx.Verbose {
		color.Blue("Connected to %s (%s)", cmd.Environment, dbCfg.Driver)
	}

	timeout, err := time.ParseDuration(cmd.Timeout)
	if err != nil {
		return fmt.Errorf("invalid timeout duration: %w", err)
	}
	runCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	start := time.Now()
	columns, rows, sqlText, err := db.QueryRaw(runCtx, cmd.File, params)
	duration := time.Since(start)
	if err != nil {
		return fmt.Errorf("query execution failed: %w", err)
	}

	if ctx.Verbose {
		color.Blue("%s\n-- %d row(s) in %s", sqlText, len(rows), duration)
	}

	if err := writeRows(os.Stdout, outputFormat(cmd.Format), columns, rows); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	if !ctx.Quiet {
		color.Green("%d row(s)", len(rows))
	}
	return nil
}
