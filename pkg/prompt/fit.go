package prompt

import "github.com/johnstilia/commitscope/pkg/collect"

// TokenCounter counts the tokens of a rendered prompt.
type TokenCounter func(text string) int

// maxFitPasses bounds how often a prompt is re-rendered to meet a token
// ceiling before falling back to the smallest rendering.
const maxFitPasses = 6

// Fit renders the commit prompt under maxBytes and, when maxTokens > 0, keeps
// lowering the byte budget until count reports at most maxTokens. Only
// section bodies shrink: every header and the task block stay in place.
func Fit(c *collect.Context, maxBytes, maxTokens int, count TokenCounter) (string, *Budget) {
	var budget *Budget
	render := func(limit int) string {
		budget = NewBudget(limit)
		return Render(c, budget)
	}
	out := shrink(render, maxBytes, skeletonBytes(), maxTokens, count)
	return out, budget
}

// FitPR renders the pull-request prompt and, when maxTokens > 0, lowers the
// patch bound until count reports at most maxTokens.
func FitPR(pr *collect.PRContext, maxPatchBytes, maxTokens int, count TokenCounter) string {
	render := func(limit int) string { return RenderPR(pr, limit) }
	return shrink(render, maxPatchBytes, 1, maxTokens, count)
}

// skeletonBytes is the size of the commit prompt with every body dropped.
func skeletonBytes() int {
	n := len(intro) + len(TaskBlock)
	for _, title := range Sections {
		n += len(title) + len("\n") + len("\n\n")
	}
	return n
}

// shrink calls render with a decreasing byte limit until the output fits
// maxTokens or limit reaches floor. A token is never shorter than one byte,
// so output of at most maxTokens bytes is accepted without counting.
func shrink(render func(limit int) string, limit, floor, maxTokens int, count TokenCounter) string {
	out := render(limit)
	if maxTokens <= 0 || count == nil {
		return out
	}
	if limit <= 0 || limit > len(out) {
		limit = len(out)
	}
	for pass := 0; pass < maxFitPasses; pass++ {
		if len(out) <= maxTokens {
			return out
		}
		tokens := count(out)
		if tokens <= maxTokens || limit <= floor {
			return out
		}
		// Aim 5% under the bytes that fit at this prompt's bytes-per-token ratio.
		target := maxTokens * len(out) / tokens
		target -= target / 20
		next := limit - (len(out) - target)
		if next >= limit {
			next = limit - 1
		}
		if next < floor {
			next = floor
		}
		limit = next
		out = render(limit)
	}
	if len(out) > maxTokens && count(out) > maxTokens {
		return render(floor)
	}
	return out
}
