package ai

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/johnstilia/commitscope/pkg/apperr"
	"github.com/johnstilia/commitscope/pkg/logging"
	"github.com/johnstilia/commitscope/pkg/prompt"
)

// PRResult is the outcome of a successful pull-request generation.
type PRResult struct {
	Message PRMessage
	Kind    ResponseKind
	Raw     string
	System  string
	User    string
}

// GeneratePR writes a pull-request title and description for the commits
// between base and HEAD. It does not touch the working copy.
func (g *Generator) GeneratePR(ctx context.Context, base string) (res *PRResult, err error) {
	g.state = StateIdle
	defer func() { g.finish(err) }()

	g.to(StateContextCollection)
	pr, err := g.collector.CollectPR(ctx, base)
	if err != nil {
		return nil, err
	}
	if len(pr.Commits) == 0 && len(pr.Patches) == 0 {
		return nil, apperr.New(apperr.ErrCodeNoStagedChanges, "no commits between "+pr.Base+" and HEAD")
	}

	g.to(StatePromptBuild)
	system := prompt.System(prompt.PRSystemPrompt, "", g.cfg.Context.Language)
	user := prompt.FitPR(pr, g.cfg.PR.MaxPatchBytes, g.tokenLimit(), g.count)
	req := BuildRequest(g.cfg, system, user, PRSchema)
	g.record(req, system, user)

	resp, err := g.post(ctx, req)
	if err != nil {
		return nil, err
	}

	g.to(StateResponseCoercion)
	text := resp.Text()
	logging.SectionAt(g.log, zerolog.DebugLevel, "model-output", logging.Truncate(text, g.cfg.Context.MaxLoggedPromptChars))

	g.to(StateJSONRecovery)
	m := RecoverJSON(text)
	if m == nil {
		g.logViolation(text)
		return nil, apperr.InvalidResponse("model response was not valid JSON")
	}

	g.to(StateCommitAssembly)
	msg, err := AssemblePR(m)
	if err != nil {
		g.logViolation(text)
		return nil, err
	}

	return &PRResult{Message: msg, Kind: resp.Kind, Raw: resp.Raw, System: system, User: user}, nil
}
