package ir

import (
	"regexp"
	"strings"
)

var (
	colonParam = regexp.MustCompile(`(^|/):([A-Za-z_][A-Za-z0-9_]*)`)
	braceParam = regexp.MustCompile(`\{([^{}/]+)\}`)
)

// NormalizePath rewrites ":name" segments to "{name}" and returns the rewritten
// path together with the parameter names in order. A "{name:regexp}"
// token contributes "name".
func NormalizePath(p string) (string, []string) {
	p = colonParam.ReplaceAllString(p, "${1}{${2}}")
	var names []string
	for _, m := range braceParam.FindAllStringSubmatch(p, -1) {
		name, _, _ := strings.Cut(m[1], ":")
		names = append(names, name)
	}
	return p, names
}

// JoinPath prefixes p with group, avoiding doubled or missing slashes.
func JoinPath(group, p string) string {
	if group == "" {
		return p
	}
	return strings.TrimSuffix(group, "/") + "/" + strings.TrimPrefix(p, "/")
}
