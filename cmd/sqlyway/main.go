// Command sqlyway is the project's template-authoring and ad-hoc query
// tool: render a template to bound SQL plus params, validate every template under
// a directory, or run a template against a configured database and print
// the result, grounded on the teacher's cmd/snapsql/main.go CLI shape.
package main

import (
	"fmt"
	"os"

	"github.com/alecthomas/kong"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/mattn/go-sqlite3"
)

// Context is the global state every subcommand's Run receives, the same
// split the teacher's CLI uses between global flags and per-command flags.
type Context struct {
	Config  string
	Verbose bool
	Quiet   bool
}

// CLI is the root kong command tree.
var CLI struct {
	Config   string      `help:"Configuration file path" default:"sqlyway.yaml"`
	Verbose  bool        `help:"Enable verbose output" short:"v"`
	Quiet    bool        `help:"Suppress output" short:"q"`
	Render   RenderCmd   `cmd:"" help:"Render a template to bound SQL and its parameter values"`
	Query    QueryCmd    `cmd:"" help:"Run a template against a configured database and print the result"`
	Validate ValidateCmd `cmd:"" help:"Validate every template under the configured SQL directory"`
	Version  VersionCmd  `cmd:"" help:"Show version information"`
}

// VersionCmd prints the tool's version.
type VersionCmd struct{}

// Run prints the version string.
func (cmd *VersionCmd) Run(_ *Context) error {
	fmt.Println("sqlyway v0.1.0")
	return nil
}

func main() {
	k := kong.Parse(&CLI)

	appCtx := &Context{
		Config:  CLI.Config,
		Verbose: CLI.Verbose,
		Quiet:   CLI.Quiet,
	}

	if err := k.Run(appCtx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
