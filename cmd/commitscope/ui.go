package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/johnstilia/commitscope/pkg/ai"
	"github.com/johnstilia/commitscope/pkg/apperr"
	"github.com/johnstilia/commitscope/pkg/git"
)

// terminalUI prints the run in a TUI-like format and asks yes/no questions
// on its input.
type terminalUI struct {
	in  *bufio.Reader
	out io.Writer
}

func newTerminalUI(in io.Reader, out io.Writer) *terminalUI {
	return &terminalUI{in: bufio.NewReader(in), out: out}
}

// header prints the branch and the counts of staged and pending files,
// then the staged files themselves.
func (u *terminalUI) header(branch string, st git.Status) {
	if branch == "" {
		branch = "HEAD"
	}
	fmt.Fprintf(u.out, " commitscope (%s|●%d", branch, len(st.Index))
	if pending := len(st.WorkingTree) + len(st.Untracked) + len(st.Merge); pending > 0 {
		fmt.Fprintf(u.out, "✚%d", pending)
	}
	fmt.Fprintln(u.out, ")")
	fmt.Fprintln(u.out, "┌   commitscope")
	fmt.Fprintln(u.out, "│")
	if len(st.Index) == 0 {
		return
	}
	fmt.Fprintf(u.out, "◇  Detected %d staged files:\n", len(st.Index))
	for _, c := range st.Index {
		fmt.Fprintf(u.out, "     %s\n", c.Path)
	}
	fmt.Fprintln(u.out, "│")
}

// progress reports the steps that take noticeable time.
func (u *terminalUI) progress(_, to ai.State) {
	switch to {
	case ai.StateContextCollection:
		fmt.Fprintln(u.out, "◇  Collecting context...")
	case ai.StateInFlight:
		fmt.Fprintln(u.out, "◇  Analyzing changes...")
	case ai.StateCommitAssembly:
		fmt.Fprintln(u.out, "◇  ✓ Changes analyzed")
		fmt.Fprintln(u.out, "│")
	}
}

// message shows an assembled message, indented under a title.
func (u *terminalUI) message(title, msg string) {
	fmt.Fprintf(u.out, "◆  %s\n\n", title)
	fmt.Fprintf(u.out, "   %s\n\n", strings.ReplaceAll(msg, "\n", "\n   "))
}

func (u *terminalUI) done(msg string) {
	fmt.Fprintf(u.out, "\033[1;32m✓ %s\033[0m\n", msg)
}

func (u *terminalUI) note(msg string) {
	fmt.Fprintf(u.out, "\033[38;5;244m%s\033[0m\n", msg)
}

// Confirm asks question and reads one line. An empty answer means yes; end
// of input without an answer means no.
func (u *terminalUI) Confirm(ctx context.Context, question string) (bool, error) {
	fmt.Fprintf(u.out, "◆  %s\n", question)
	fmt.Fprintln(u.out, "│  ● Yes / ○ No")
	fmt.Fprint(u.out, "   > ")

	type answer struct {
		line string
		err  error
	}
	ch := make(chan answer, 1)
	go func() {
		line, err := u.in.ReadString('\n')
		ch <- answer{line, err}
	}()

	select {
	case <-ctx.Done():
		return false, apperr.Cancelled(ctx.Err())
	case a := <-ch:
		if a.err != nil && !errors.Is(a.err, io.EOF) {
			return false, a.err
		}
		if errors.Is(a.err, io.EOF) && strings.TrimSpace(a.line) == "" {
			fmt.Fprintln(u.out)
			return false, nil
		}
		response := strings.ToLower(strings.TrimSpace(a.line))
		return response == "" || response == "y" || response == "yes", nil
	}
}
