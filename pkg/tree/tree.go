package tree

import (
	"sort"
	"strings"

	"github.com/johnstilia/commitscope/pkg/git"
)

const (
	// MaxDepth is the deepest path (in segments) accepted into the tree.
	MaxDepth = 20
	// maxRenderDepth stops rendering runaway structures.
	maxRenderDepth = MaxDepth + 1
)

// FileSet is everything the builder knows about the working copy.
type FileSet struct {
	Tracked   []string
	Untracked []string
	Status    map[string]git.Flags
	// FullTree renders every tracked and untracked file even when some
	// paths carry status signals.
	FullTree bool
}

// Node is one path segment of the project tree.
type Node struct {
	Name     string
	FullPath string
	IsDir    bool
	Children map[string]*Node
	Info     *git.Flags // leaves only
	Flags    git.Flags  // aggregated over the subtree
}

// Candidates returns the sorted paths to render: the changed paths, or the
// whole tracked+untracked set when nothing carries a signal.
func Candidates(fs FileSet) []string {
	all := make(map[string]bool)
	for _, p := range fs.Tracked {
		all[p] = true
	}
	for _, p := range fs.Untracked {
		all[p] = true
	}
	for p := range fs.Status {
		all[p] = true
	}

	var changed, every []string
	for p := range all {
		every = append(every, p)
		if f, ok := fs.Status[p]; ok && f.Any() {
			changed = append(changed, p)
		}
	}

	out := every
	if !fs.FullTree && len(changed) > 0 {
		out = changed
	}
	sort.Strings(out)
	return out
}

// Build renders the project tree as display lines, never more than maxEntries.
func Build(fs FileSet, maxEntries int) []string {
	if maxEntries <= 0 {
		return nil
	}
	files := Candidates(fs)
	if len(files) > maxEntries {
		files = files[:maxEntries]
	}

	root := newDir("", "")
	for _, p := range files {
		var info *git.Flags
		if f, ok := fs.Status[p]; ok {
			info = &f
		}
		root.insert(p, info)
	}
	propagate(root, make(map[string]bool), 0)

	r := renderer{max: maxEntries, visited: make(map[string]bool)}
	r.walk(root, "", 0)
	return r.lines
}

func newDir(name, full string) *Node {
	return &Node{Name: name, FullPath: full, IsDir: true, Children: make(map[string]*Node)}
}

// insert adds path below n, creating directories on demand. Paths that are
// too deep, have invalid segments, or collide with an existing entry of the
// other kind are dropped.
func (n *Node) insert(path string, info *git.Flags) bool {
	segments := strings.Split(path, "/")
	if len(segments) > MaxDepth {
		return false
	}
	for _, seg := range segments {
		if !git.ValidSegment(seg) {
			return false
		}
	}

	cur := n
	for i, seg := range segments {
		full := strings.Join(segments[:i+1], "/")
		last := i == len(segments)-1
		child, ok := cur.Children[seg]
		if !ok {
			if last {
				child = &Node{Name: seg, FullPath: full, Info: info}
			} else {
				child = newDir(seg, full)
			}
			cur.Children[seg] = child
		} else if child.IsDir == last {
			return false
		}
		cur = child
	}
	return true
}

// propagate computes aggregated flags bottom-up, once per node.
func propagate(n *Node, visited map[string]bool, depth int) git.Flags {
	if depth > maxRenderDepth || visited[n.FullPath] {
		return git.Flags{}
	}
	visited[n.FullPath] = true

	var flags git.Flags
	if !n.IsDir && n.Info != nil {
		flags = *n.Info
	}
	for _, child := range n.Children {
		flags = flags.Union(propagate(child, visited, depth+1))
	}
	n.Flags = flags
	return flags
}

// Labels turns aggregated flags into de-duplicated human labels.
func Labels(f git.Flags) []string {
	var labels []string
	add := func(cond bool, label string) {
		if cond {
			labels = append(labels, label)
		}
	}
	add(f.Codes.Has('A') || f.Untracked, "New")
	add(f.Codes.Has('M') || f.Unstaged, "Modified")
	add(f.Codes.Has('D'), "Deleted")
	add(f.Codes.Has('R'), "Renamed")
	add(f.Codes.Has('C'), "Copied")
	add(f.Codes.Has('U'), "Unmerged")
	add(f.Merge, "Conflict")
	add(f.Staged, "Staged")
	return labels
}

type renderer struct {
	max     int
	lines   []string
	visited map[string]bool
}

func (r *renderer) full() bool { return len(r.lines) >= r.max }

func (r *renderer) walk(n *Node, prefix string, depth int) {
	if depth > maxRenderDepth || r.full() {
		return
	}
	children := sortedChildren(n)
	for i, child := range children {
		if r.full() {
			return
		}
		if r.visited[child.FullPath] {
			continue
		}
		r.visited[child.FullPath] = true

		last := i == len(children)-1
		connector, cont := "├─ ", "│  "
		if last {
			connector, cont = "└─ ", "   "
		}
		r.lines = append(r.lines, prefix+connector+displayName(child))
		if child.IsDir {
			r.walk(child, prefix+cont, depth+1)
		}
	}
}

func displayName(n *Node) string {
	name := n.Name
	if n.IsDir {
		name += "/"
	}
	if labels := Labels(n.Flags); len(labels) > 0 {
		name += " [" + strings.Join(labels, ", ") + "]"
	}
	return name
}

// sortedChildren orders directories before files, each group by name.
func sortedChildren(n *Node) []*Node {
	out := make([]*Node, 0, len(n.Children))
	for _, c := range n.Children {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].IsDir != out[j].IsDir {
			return out[i].IsDir
		}
		return out[i].Name < out[j].Name
	})
	return out
}
