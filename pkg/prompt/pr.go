package prompt

import (
	"fmt"
	"strings"

	"github.com/johnstilia/commitscope/pkg/clip"
	"github.com/johnstilia/commitscope/pkg/collect"
)

// PRTaskBlock closes every pull-request prompt.
const PRTaskBlock = "Generate JSON: {title, body}."

// RenderPR renders the pull-request prompt. Patches are deduplicated by path
// and concatenated until maxPatchBytes; when the bound is hit the
// concatenation is cut there and a note says so. maxPatchBytes <= 0 is
// unbounded.
func RenderPR(pr *collect.PRContext, maxPatchBytes int) string {
	var sb strings.Builder
	sb.WriteString("Write a pull request title and description for the changes below.\n\n")

	fmt.Fprintf(&sb, "BRANCHES\n- base: %s\n- head: %s\n\n", pr.Base, pr.Head)

	sb.WriteString("COMMITS\n")
	if len(pr.Commits) == 0 {
		sb.WriteString(None)
	} else {
		for i, c := range pr.Commits {
			if i > 0 {
				sb.WriteString("\n")
			}
			sb.WriteString("- " + c)
		}
	}
	sb.WriteString("\n\nLINKED_ISSUES\n")
	sb.WriteString(lines(pr.Issues, None))

	sb.WriteString("\n\nDIFFS\n")
	sb.WriteString(patches(pr.Patches, maxPatchBytes))

	sb.WriteString("\n\n")
	sb.WriteString(PRTaskBlock)
	return sb.String()
}

func patches(ps []collect.PRPatch, maxBytes int) string {
	seen := make(map[string]bool)
	var sb strings.Builder
	for _, p := range ps {
		if seen[p.Path] || p.Patch == "" {
			continue
		}
		seen[p.Path] = true
		chunk := p.Patch
		if sb.Len() > 0 {
			chunk = "\n" + chunk
		}
		if maxBytes > 0 && sb.Len()+len(chunk) > maxBytes {
			sb.WriteString(clip.Bytes(chunk, maxBytes-sb.Len()))
			fmt.Fprintf(&sb, "\n(diff truncated at %d bytes)", maxBytes)
			return sb.String()
		}
		sb.WriteString(chunk)
	}
	if sb.Len() == 0 {
		return Empty
	}
	return sb.String()
}
