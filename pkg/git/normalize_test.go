package git

import (
	"reflect"
	"strings"
	"testing"
)

func TestNormalizePath(t *testing.T) {
	tests := []struct {
		raw    string
		want   string
		wantOK bool
	}{
		{"valid/path.ts", "valid/path.ts", true},
		{"a/../b", "", false},
		{"a//b", "", false},
		{"../escape", "", false},
		{"/abs/path", "", false},
		{"dir/", "", false},
		{"./a", "", false},
		{"a/ b", "", false},
		{"a/b ", "", false},
		{"", "", false},
		{`"caf\303\251.txt"`, "café.txt", true},
		{`"with \"quote\".md"`, `with "quote".md`, true},
		{`"bad\q"`, "", false},
		{`win\style\path.go`, "win/style/path.go", true},
		{strings.Repeat("x", 256), "", false},
		{strings.Repeat("x", 255), strings.Repeat("x", 255), true},
	}
	for _, tt := range tests {
		got, ok := NormalizePath(tt.raw)
		if ok != tt.wantOK || got != tt.want {
			t.Errorf("NormalizePath(%q) = (%q, %v), want (%q, %v)", tt.raw, got, ok, tt.want, tt.wantOK)
		}
	}
}

func TestNormalizePathNeverYieldsTraversal(t *testing.T) {
	inputs := []string{"a/./b", "x/..", "..", "a\\..\\b", `"a/\056\056/b"`, "a///b"}
	for _, in := range inputs {
		if p, ok := NormalizePath(in); ok {
			for _, seg := range strings.Split(p, "/") {
				if seg == ".." || seg == "" {
					t.Fatalf("NormalizePath(%q) produced %q", in, p)
				}
			}
		}
	}
}

func TestLanguages(t *testing.T) {
	got := Languages([]string{"web/app.TSX", "api/main.go", "README.md", "Makefile", "x.unknown", "b.go"})
	want := []string{"go", "md", "ts"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
}

func TestServiceMap(t *testing.T) {
	got := ServiceMap([]string{"api/a.go", "api/b.go", "web/x.ts", "root.txt"})
	want := map[string]string{"api": "api", "web": "web"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
}
