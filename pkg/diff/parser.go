package diff

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/johnstilia/commitscope/pkg/clip"
	"github.com/johnstilia/commitscope/pkg/git"
)

const fileBoundary = "diff --git "

// Block is a single file's segment of a unified diff.
type Block struct {
	Path    string // destination ("b/") path
	Text    string // raw diff lines for this file, boundary line included
	Added   int    // lines added
	Removed int    // lines removed
}

// FileDiffs maps file paths to their diff blocks, preserving diff order.
type FileDiffs struct {
	order  []string
	blocks map[string]*Block
}

// Paths returns the file paths in the order they appear in the diff.
func (f *FileDiffs) Paths() []string {
	return append([]string(nil), f.order...)
}

// Get returns the block for path.
func (f *FileDiffs) Get(path string) (*Block, bool) {
	b, ok := f.blocks[path]
	return b, ok
}

// Len returns the number of files.
func (f *FileDiffs) Len() int { return len(f.order) }

// Blocks returns the blocks in diff order.
func (f *FileDiffs) Blocks() []*Block {
	out := make([]*Block, 0, len(f.order))
	for _, p := range f.order {
		out = append(out, f.blocks[p])
	}
	return out
}

// Filter drops every file for which keep returns false.
func (f *FileDiffs) Filter(keep func(path string) bool) {
	order := f.order[:0]
	for _, p := range f.order {
		if keep(p) {
			order = append(order, p)
		} else {
			delete(f.blocks, p)
		}
	}
	f.order = order
}

// CapBlocks clips every block to at most maxBytes bytes, on a rune boundary. maxBytes <= 0 is a no-op.
func (f *FileDiffs) CapBlocks(maxBytes int) {
	if maxBytes <= 0 {
		return
	}
	for _, b := range f.blocks {
		b.Text = clip.Bytes(b.Text, maxBytes)
	}
}

// String joins the blocks back into one diff text.
func (f *FileDiffs) String() string {
	parts := make([]string, 0, len(f.order))
	for _, p := range f.order {
		parts = append(parts, f.blocks[p].Text)
	}
	return strings.Join(parts, "\n")
}

func newFileDiffs() *FileDiffs {
	return &FileDiffs{blocks: make(map[string]*Block)}
}

func (f *FileDiffs) add(b *Block) {
	if _, dup := f.blocks[b.Path]; !dup {
		f.order = append(f.order, b.Path)
	}
	f.blocks[b.Path] = b
}

// ParseByFile splits a unified diff into per-file blocks. Lines before the
// first boundary are ignored; a diff without boundaries yields no files.
func ParseByFile(text string) *FileDiffs {
	result := newFileDiffs()
	if text == "" {
		return result
	}

	var current *Block
	var buf []string
	flush := func() {
		if current != nil && current.Path != "" && len(buf) > 0 {
			current.Text = strings.Join(buf, "\n")
			result.add(current)
		}
	}

	for _, line := range strings.Split(text, "\n") {
		if strings.HasPrefix(line, fileBoundary) {
			flush()
			current = &Block{Path: pathFromBoundary(line)}
			buf = []string{line}
			continue
		}
		if current == nil {
			continue
		}
		buf = append(buf, line)
		switch {
		case strings.HasPrefix(line, "+") && !strings.HasPrefix(line, "+++"):
			current.Added++
		case strings.HasPrefix(line, "-") && !strings.HasPrefix(line, "---"):
			current.Removed++
		}
	}
	flush()
	return result
}

// pathFromBoundary extracts the destination path from a "diff --git" line,
// handling git's quoted form for unusual file names.
func pathFromBoundary(line string) string {
	rest := strings.TrimPrefix(line, fileBoundary)
	var raw string
	if strings.HasSuffix(rest, `"`) {
		i := strings.LastIndex(rest, ` "b/`)
		if i < 0 {
			return ""
		}
		unq, err := strconv.Unquote(rest[i+1:])
		if err != nil {
			return ""
		}
		raw = strings.TrimPrefix(unq, "b/")
	} else {
		i := strings.Index(rest, " b/")
		if i < 0 {
			return ""
		}
		raw = rest[i+len(" b/"):]
	}
	p, ok := git.NormalizePath(raw)
	if !ok {
		return ""
	}
	return p
}

// Hunk is one hunk's location on the new-file side.
type Hunk struct {
	Header string `json:"header"`
	Start  int    `json:"start"`
	Count  int    `json:"count"`
}

// FileHunks groups the hunks of one file.
type FileHunks struct {
	File  string `json:"file"`
	Hunks []Hunk `json:"hunks"`
}

var hunkHeader = regexp.MustCompile(`^@@ -\d+(?:,\d+)? \+(\d+)(?:,(\d+))? @@`)

// ParseHunks lists the hunks of every file in diff order. It is meant for
// zero-context diffs, where each hunk is exactly one changed region.
func ParseHunks(text string) []FileHunks {
	var entries []FileHunks
	if text == "" {
		return entries
	}
	cur := -1
	for _, line := range strings.Split(text, "\n") {
		if strings.HasPrefix(line, fileBoundary) {
			entries = append(entries, FileHunks{File: pathFromBoundary(line)})
			cur = len(entries) - 1
			continue
		}
		if cur < 0 || !strings.HasPrefix(line, "@@ ") {
			continue
		}
		m := hunkHeader.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		start, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		count := 1
		if m[2] != "" {
			if n, err := strconv.Atoi(m[2]); err == nil {
				count = n
			}
		}
		entries[cur].Hunks = append(entries[cur].Hunks, Hunk{Header: line, Start: start, Count: count})
	}
	return entries
}
