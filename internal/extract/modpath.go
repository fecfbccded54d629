package extract

import (
	"path/filepath"
	"strings"
)

// rootSentinels are file stems that name their directory's module rather than a child module.
var rootSentinels = map[string]bool{
	"lib": true,
	"mod": true,
}

// ModulePath maps a file path relative to the source root to its `::`-joined module path.
//
//	jws/alg/hmac.rs -> "jws::alg::hmac"
//	jws/mod.rs      -> "jws"
//	lib.rs          -> ""
func ModulePath(relPath string) string {
	relPath = filepath.ToSlash(filepath.Clean(relPath))

	var parts []string
	for _, part := range strings.Split(relPath, "/") {
		if part != "" && part != "." {
			parts = append(parts, part)
		}
	}
	if len(parts) == 0 {
		return ""
	}

	file := parts[len(parts)-1]
	parts = parts[:len(parts)-1]

	stem := strings.TrimSuffix(file, filepath.Ext(file))
	if !rootSentinels[stem] {
		parts = append(parts, stem)
	}

	return strings.Join(parts, "::")
}

// childModule appends an inline module name to a module path.
func childModule(parent, name string) string {
	if parent == "" {
		return name
	}
	return parent + "::" + name
}
