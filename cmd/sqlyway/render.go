package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/fatih/color"

	"github.com/shibukawa/sqlyway/dialect"
	"github.com/shibukawa/sqlyway/loader"
	"github.com/shibukawa/sqlyway/twoway"
)

// RenderCmd renders one template file to the SQL a caller would actually
// send to the database, with params supplied as a JSON object, useful for
// checking what a template produces without touching a live connection.
type RenderCmd struct {
	File    string `arg:"" help:"Template file path" type:"path"`
	Dialect string `help:"Dialect id (sqlite, postgresql, mysql, oracle)" default:"sqlite"`
	Params  string `help:"JSON object of parameter bindings" default:"{}"`
}

func (cmd *RenderCmd) Run(ctx *Context) error {
	var params map[string]any
	if err := json.Unmarshal([]byte(cmd.Params), &params); err != nil {
		return fmt.Errorf("invalid --params JSON: %w", err)
	}

	data, err := os.ReadFile(cmd.File)
	if err != nil {
		return fmt.Errorf("read %s: %w", cmd.File, err)
	}

	d := dialect.ParseID(cmd.Dialect)
	l := loader.New(".")

	if ctx.Verbose {
		color.Blue("Rendering %s for dialect %s", cmd.File, d.ID())
	}

	result, err := twoway.Parse(string(data), twoway.Bindings(params), twoway.Options{
		Dialect: d,
		Include: l.AsResolver(),
	})
	if err != nil {
		return fmt.Errorf("render %s: %w", cmd.File, err)
	}

	fmt.Println(result.SQL)
	if len(result.Params) > 0 {
		fmt.Fprintf(os.Stdout, "-- params: %v\n", result.Params)
	}
	for _, diag := range result.Diagnostics {
		fmt.Fprintf(os.Stderr, "diagnostic: %s\n", diag)
	}

	if !ctx.Quiet {
		color.Green("Rendered %s", cmd.File)
	}
	return nil
}
