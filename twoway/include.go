package twoway

import (
	"regexp"
	"strings"

	"github.com/shibukawa/sqlyway/dialect"
)

// IncludeResolver loads the raw text of a referenced template by its
// logical path, per spec §6's loader collaborator contract.
type IncludeResolver func(path string, dialectID dialect.ID) (string, error)

var includeDirectivePattern = regexp.MustCompile(`/\*\s*%include\s+"([^"]+)"\s*\*/`)

// expandIncludes textually substitutes every /*%include "path" */ with the
// resolver's text for that path, recursively, before the template reaches
// the line assembler. visited tracks the chain of paths from the root template
// to the current point, so a genuine cycle is caught without rejecting a
// harmless diamond include of the same file from two different branches.
func expandIncludes(template string, resolver IncludeResolver, d dialect.ID, visited map[string]bool) (string, error) {
	if resolver == nil {
		return template, nil
	}

	matches := includeDirectivePattern.FindAllStringSubmatchIndex(template, -1)
	if matches == nil {
		return template, nil
	}

	var sb strings.Builder
	last := 0
	for _, m := range matches {
		path := template[m[2]:m[3]]
		sb.WriteString(template[last:m[0]])

		if visited[path] {
			return "", newParseError(KindIncludeCycle, 0, path, path)
		}

		included, err := resolver(path, d)
		if err != nil {
			return "", err
		}

		chain := make(map[string]bool, len(visited)+1)
		for k := range visited {
			chain[k] = true
		}
		chain[path] = true

		expanded, err := expandIncludes(included, resolver, d, chain)
		if err != nil {
			return "", err
		}
		sb.WriteString(expanded)
		last = m[1]
	}
	sb.WriteString(template[last:])
	return sb.String(), nil
}
