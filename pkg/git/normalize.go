package git

import (
	"path"
	"sort"
	"strconv"
	"strings"
)

// MaxSegmentLength is the longest path segment accepted.
const MaxSegmentLength = 255

// NormalizePath decodes a path token as printed by git (optionally quoted with
// C-style and octal escapes) into a forward-slash repository-relative path.
// Tokens that decode to traversal patterns, empty segments or otherwise
// invalid segments are rejected with ok == false.
func NormalizePath(raw string) (string, bool) {
	p := strings.TrimRight(raw, "\r\n")
	if len(p) >= 2 && p[0] == '"' && p[len(p)-1] == '"' {
		decoded, err := strconv.Unquote(p)
		if err != nil {
			return "", false
		}
		p = decoded
	}
	if p == "" {
		return "", false
	}
	p = strings.ReplaceAll(p, `\`, "/")
	for _, seg := range strings.Split(p, "/") {
		if !ValidSegment(seg) {
			return "", false
		}
	}
	return p, true
}

// ValidSegment reports whether seg can be a single path component.
func ValidSegment(seg string) bool {
	switch {
	case seg == "", seg == ".", seg == "..":
		return false
	case len(seg) > MaxSegmentLength:
		return false
	case strings.TrimSpace(seg) != seg:
		return false
	case strings.ContainsRune(seg, 0):
		return false
	}
	return true
}

// NormalizePaths applies NormalizePath to every entry, dropping rejects.
func NormalizePaths(raw []string) []string {
	out := make([]string, 0, len(raw))
	for _, r := range raw {
		if p, ok := NormalizePath(r); ok {
			out = append(out, p)
		}
	}
	return out
}

var extToLang = map[string]string{
	".ts":    "ts",
	".tsx":   "ts",
	".js":    "js",
	".jsx":   "js",
	".mjs":   "js",
	".cjs":   "js",
	".php":   "php",
	".py":    "py",
	".rb":    "rb",
	".java":  "java",
	".cs":    "cs",
	".go":    "go",
	".rs":    "rs",
	".swift": "swift",
	".kt":    "kt",
	".m":     "objc",
	".mm":    "objc",
	".sql":   "sql",
	".sh":    "sh",
	".yml":   "yml",
	".yaml":  "yml",
	".json":  "json",
	".md":    "md",
	".css":   "css",
	".scss":  "scss",
	".less":  "less",
	".html":  "html",
}

// Language returns the language tag for p's extension, or "".
func Language(p string) string {
	return extToLang[strings.ToLower(path.Ext(p))]
}

// Languages returns the sorted set of language tags present in paths.
func Languages(paths []string) []string {
	seen := make(map[string]bool)
	for _, p := range paths {
		if lang := Language(p); lang != "" {
			seen[lang] = true
		}
	}
	langs := make([]string, 0, len(seen))
	for lang := range seen {
		langs = append(langs, lang)
	}
	sort.Strings(langs)
	return langs
}

// ServiceMap maps each top-level directory to its own name.
func ServiceMap(paths []string) map[string]string {
	m := make(map[string]string)
	for _, p := range paths {
		if i := strings.Index(p, "/"); i > 0 {
			m[p[:i]] = p[:i]
		}
	}
	return m
}
