// Package twoway implements the two-way SQL template core: a template that
// is simultaneously valid standalone SQL and a parameterized source the
// engine binds caller values into. Parse stages the template through a
// tokenizer-adjacent line assembler, a tree builder, directive resolution,
// parameter evaluation, removal propagation, SQL rewriting, and dialect
// binding.
package twoway

import "github.com/shibukawa/sqlyway/dialect"

// ParseResult is the output of Parse: the rewritten SQL, its positional and
// named parameter forms, and any diagnostics the evaluator recorded.
type ParseResult struct {
	SQL         string
	Params      []any
	NamedParams map[string]any
	Diagnostics []string
}

// Options configures a Parse call. A zero Options uses the "?" dialect and
// disables %include.
type Options struct {
	Dialect dialect.Dialect
	Include IncludeResolver
}

// Parse compiles template against bindings into a ParseResult, per spec §6.
func Parse(template string, bindings Bindings, opts Options) (*ParseResult, error) {
	d := opts.Dialect
	if d.Placeholder() == "" {
		d = dialect.Default
	}
	if bindings == nil {
		bindings = Bindings{}
	}

	expanded, err := expandIncludes(template, opts.Include, d.ID(), nil)
	if err != nil {
		return nil, err
	}

	units, err := assembleLines(expanded)
	if err != nil {
		return nil, err
	}

	buildTree(units)
	markCTEHeaders(units)

	if err := processBlockDirectives(units, bindings); err != nil {
		return nil, err
	}

	var diags []string
	ctx := evalContext{bindings: bindings, dialect: d, diags: &diags}

	for _, u := range units {
		if u.Removed || u.IsEmpty() || u.Kind == FragmentDirective {
			continue
		}
		resolved, err := applyInlineDirectives(u.Content, bindings)
		if err != nil {
			return nil, withLine(err, u.LineNumber)
		}
		u.Content = resolved
		if err := evaluateLine(u, ctx); err != nil {
			return nil, err
		}
	}

	propagateRemoval(rootsOf(units))

	text := rewriteSQL(units)

	var binds []bindEntry
	for _, u := range units {
		if u.Removed {
			continue
		}
		binds = append(binds, u.Binds...)
	}

	sql, positional, named, err := bindDialect(text, binds, d)
	if err != nil {
		return nil, err
	}

	return &ParseResult{
		SQL:         sql,
		Params:      positional,
		NamedParams: named,
		Diagnostics: diags,
	}, nil
}

// rootsOf returns the top-level lines of the tree (no parent), in original
// order, which propagateRemoval walks depth-first.
func rootsOf(units []*LogicalLine) []*LogicalLine {
	var roots []*LogicalLine
	for _, u := range units {
		if u.IsEmpty() {
			continue
		}
		if u.Parent == nil {
			roots = append(roots, u)
		}
	}
	return roots
}
