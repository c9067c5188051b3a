package git

import (
	"strings"
)

// CodeSet is a set of single-letter change codes drawn from A, M, D, R, C, U.
type CodeSet uint8

const codeLetters = "AMDRCU"

// Add inserts code; letters outside the closed set are ignored.
func (c *CodeSet) Add(code byte) {
	if i := strings.IndexByte(codeLetters, code); i >= 0 {
		*c |= 1 << i
	}
}

// Has reports whether code is in the set.
func (c CodeSet) Has(code byte) bool {
	i := strings.IndexByte(codeLetters, code)
	return i >= 0 && c&(1<<i) != 0
}

// String lists the codes in canonical order.
func (c CodeSet) String() string {
	var b strings.Builder
	for i := 0; i < len(codeLetters); i++ {
		if c&(1<<i) != 0 {
			b.WriteByte(codeLetters[i])
		}
	}
	return b.String()
}

// Flags are the status signals attached to one path.
type Flags struct {
	Merge     bool
	Staged    bool
	Unstaged  bool
	Untracked bool
	Codes     CodeSet
}

// Any reports whether at least one signal is set.
func (f Flags) Any() bool {
	return f.Merge || f.Staged || f.Unstaged || f.Untracked || f.Codes != 0
}

// Union returns the combination of f and o.
func (f Flags) Union(o Flags) Flags {
	return Flags{
		Merge:     f.Merge || o.Merge,
		Staged:    f.Staged || o.Staged,
		Unstaged:  f.Unstaged || o.Unstaged,
		Untracked: f.Untracked || o.Untracked,
		Codes:     f.Codes | o.Codes,
	}
}

// Change is one entry of `git status --porcelain=v1`.
type Change struct {
	Path     string
	OrigPath string
	X, Y     byte
}

// Status groups working-copy changes the way an editor's SCM view does.
type Status struct {
	Index       []Change
	WorkingTree []Change
	Merge       []Change
	Untracked   []string
}

var mergeStates = map[string]bool{
	"DD": true, "AU": true, "UD": true, "UA": true, "DU": true, "AA": true, "UU": true,
}

// ParsePorcelain parses NUL-separated porcelain v1 output (`status -z`).
func ParsePorcelain(out string) Status {
	var st Status
	entries := strings.Split(out, "\x00")
	for i := 0; i < len(entries); i++ {
		entry := entries[i]
		if len(entry) < 4 {
			continue
		}
		xy := entry[:2]
		p, ok := NormalizePath(entry[3:])
		if !ok {
			continue
		}
		ch := Change{Path: p, X: xy[0], Y: xy[1]}
		// Either side of a rename or copy is followed by the original path.
		if ch.X == 'R' || ch.X == 'C' || ch.Y == 'R' || ch.Y == 'C' {
			if i+1 < len(entries) {
				i++
				if orig, ok := NormalizePath(entries[i]); ok {
					ch.OrigPath = orig
				}
			}
		}
		switch {
		case xy == "??":
			st.Untracked = append(st.Untracked, p)
		case xy == "!!":
		case mergeStates[xy]:
			st.Merge = append(st.Merge, ch)
		default:
			if ch.X != ' ' {
				st.Index = append(st.Index, ch)
			}
			if ch.Y != ' ' {
				st.WorkingTree = append(st.WorkingTree, ch)
			}
		}
	}
	return st
}

// Lookup builds the per-path flag table consumed by the tree builder.
func (s Status) Lookup() map[string]Flags {
	m := make(map[string]Flags)
	for _, c := range s.Index {
		f := m[c.Path]
		f.Staged = true
		f.Codes.Add(c.X)
		m[c.Path] = f
	}
	for _, c := range s.WorkingTree {
		f := m[c.Path]
		f.Unstaged = true
		f.Codes.Add(c.Y)
		m[c.Path] = f
	}
	for _, c := range s.Merge {
		f := m[c.Path]
		f.Merge = true
		f.Codes.Add('U')
		m[c.Path] = f
	}
	for _, p := range s.Untracked {
		f := m[p]
		f.Untracked = true
		m[p] = f
	}
	return m
}

// NameStatus is one line of `git diff --name-status`.
type NameStatus struct {
	Code     string
	Path     string
	OrigPath string
}

// Token is the path as shown to the summarizer: "old -> new" for renames.
func (n NameStatus) Token() string {
	if n.OrigPath != "" && strings.HasPrefix(n.Code, "R") {
		return n.OrigPath + " -> " + n.Path
	}
	return n.Path
}

// ParseNameStatus parses tab-separated name-status lines.
func ParseNameStatus(out string) []NameStatus {
	var entries []NameStatus
	for _, line := range strings.Split(out, "\n") {
		parts := strings.Split(strings.TrimRight(line, "\r"), "\t")
		if len(parts) < 2 || parts[0] == "" {
			continue
		}
		target, ok := NormalizePath(parts[len(parts)-1])
		if !ok {
			continue
		}
		ns := NameStatus{Code: parts[0], Path: target}
		if len(parts) >= 3 {
			if orig, ok := NormalizePath(parts[1]); ok {
				ns.OrigPath = orig
			}
		}
		entries = append(entries, ns)
	}
	return entries
}
