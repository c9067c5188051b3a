package tree

import (
	"fmt"
	"reflect"
	"strings"
	"testing"

	"github.com/johnstilia/commitscope/pkg/git"
)

func flags(codes string, mod func(*git.Flags)) git.Flags {
	var f git.Flags
	for i := 0; i < len(codes); i++ {
		f.Codes.Add(codes[i])
	}
	if mod != nil {
		mod(&f)
	}
	return f
}

func sampleSet() FileSet {
	return FileSet{
		Tracked:   []string{"README.md", "api/handler.go", "api/util.go", "docs/guide.md"},
		Untracked: []string{"web/app.ts"},
		Status: map[string]git.Flags{
			"api/handler.go": flags("M", func(f *git.Flags) { f.Unstaged = true }),
			"web/app.ts":     flags("", func(f *git.Flags) { f.Untracked = true }),
			"README.md":      flags("A", func(f *git.Flags) { f.Staged = true }),
		},
	}
}

func TestBuildChangedView(t *testing.T) {
	got := Build(sampleSet(), 100)
	want := []string{
		"├─ api/ [Modified]",
		"│  └─ handler.go [Modified]",
		"├─ web/ [New]",
		"│  └─ app.ts [New]",
		"└─ README.md [New, Staged]",
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("unexpected tree:\n%s", strings.Join(got, "\n"))
	}
}

func TestBuildFallsBackToFullSet(t *testing.T) {
	fs := FileSet{Tracked: []string{"b.txt", "a/x.go"}}
	got := Build(fs, 100)
	want := []string{"├─ a/", "│  └─ x.go", "└─ b.txt"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("unexpected tree:\n%s", strings.Join(got, "\n"))
	}

	full := sampleSet()
	full.FullTree = true
	if lines := Build(full, 100); len(lines) != 8 {
		t.Fatalf("expected full tree with 8 lines, got %d:\n%s", len(lines), strings.Join(lines, "\n"))
	}
}

func TestBuildIdempotent(t *testing.T) {
	a := strings.Join(Build(sampleSet(), 100), "\n")
	b := strings.Join(Build(sampleSet(), 100), "\n")
	if a != b {
		t.Fatalf("rendering differs between runs:\n%s\n---\n%s", a, b)
	}
}

func TestBuildNeverExceedsMaxEntries(t *testing.T) {
	var fs FileSet
	for i := 0; i < 50; i++ {
		fs.Tracked = append(fs.Tracked, fmt.Sprintf("d%d/e/f/g/file%d.go", i%3, i))
	}
	deep := strings.Repeat("x/", MaxDepth-1) + "leaf.go"
	fs.Tracked = append(fs.Tracked, deep)

	for _, max := range []int{0, 1, 2, 7, 40, 1000} {
		if got := Build(fs, max); len(got) > max {
			t.Fatalf("maxEntries=%d produced %d lines", max, len(got))
		}
	}
}

func TestBuildRejectsBadPaths(t *testing.T) {
	tooDeep := strings.Repeat("x/", MaxDepth) + "leaf.go"
	fs := FileSet{Tracked: []string{"ok.go", tooDeep, "a//b", "bad/../path"}}
	got := Build(fs, 100)
	if !reflect.DeepEqual(got, []string{"└─ ok.go"}) {
		t.Fatalf("expected only ok.go, got %v", got)
	}
}

func TestDirectoryFlagsAreUnionOfDescendants(t *testing.T) {
	fs := FileSet{
		Tracked: []string{"a/b/mod.go", "a/c/clean.go", "z/clean.go"},
		Status: map[string]git.Flags{
			"a/b/mod.go":   flags("M", nil),
			"a/c/clean.go": {},
			"z/clean.go":   {},
		},
		FullTree: true,
	}
	root := newDir("", "")
	for _, p := range Candidates(fs) {
		f := fs.Status[p]
		root.insert(p, &f)
	}
	propagate(root, make(map[string]bool), 0)

	a := root.Children["a"]
	if !a.Flags.Codes.Has('M') || !a.Children["b"].Flags.Codes.Has('M') {
		t.Fatalf("expected Modified to propagate to a and a/b")
	}
	if a.Children["c"].Flags.Codes.Has('M') || root.Children["z"].Flags.Codes.Has('M') {
		t.Fatalf("Modified must not appear on directories without modified descendants")
	}
}

func TestRenderSurvivesCycle(t *testing.T) {
	root := newDir("", "")
	loop := newDir("loop", "loop")
	root.Children["loop"] = loop
	loop.Children["again"] = loop

	r := renderer{max: 100, visited: make(map[string]bool)}
	r.walk(root, "", 0)
	if len(r.lines) != 1 {
		t.Fatalf("expected cycle to be cut after one line, got %v", r.lines)
	}
	propagate(root, make(map[string]bool), 0)
}

func TestLabelsOrder(t *testing.T) {
	f := flags("DMU", func(f *git.Flags) { f.Merge = true; f.Staged = true; f.Unstaged = true })
	got := Labels(f)
	want := []string{"Modified", "Deleted", "Unmerged", "Conflict", "Staged"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
}
