package ai

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/johnstilia/commitscope/pkg/apperr"
	"github.com/johnstilia/commitscope/pkg/collect"
	"github.com/johnstilia/commitscope/pkg/config"
	"github.com/johnstilia/commitscope/pkg/git"
	"github.com/johnstilia/commitscope/pkg/logging"
	"github.com/johnstilia/commitscope/pkg/prompt"
	"github.com/johnstilia/commitscope/pkg/session"
	"github.com/johnstilia/commitscope/pkg/tokenizer"
)

// State is a step of one generation run.
type State string

const (
	StateIdle              State = "idle"
	StateStagingCheck      State = "staging_check"
	StateContextCollection State = "context_collection"
	StatePromptBuild       State = "prompt_build"
	StateInFlight          State = "in_flight"
	StateResponseCoercion  State = "response_coercion"
	StateJSONRecovery      State = "json_recovery"
	StateCommitAssembly    State = "commit_assembly"
	StateDone              State = "done"
	StateFailed            State = "failed"
	StateCancelled         State = "cancelled"
)

// Confirmer asks the user a yes/no question.
type Confirmer interface {
	Confirm(ctx context.Context, question string) (bool, error)
}

// ConfirmFunc adapts a function to Confirmer.
type ConfirmFunc func(ctx context.Context, question string) (bool, error)

// Confirm calls f.
func (f ConfirmFunc) Confirm(ctx context.Context, question string) (bool, error) {
	return f(ctx, question)
}

// SourceControl is the working copy as the generation flow mutates it: the
// only writes are the confirmed stage-all and the final commit message.
type SourceControl interface {
	Status(ctx context.Context) string
	StageAll(ctx context.Context) error
	SetCommitMessage(ctx context.Context, message string) error
}

// Contexter collects what the prompt is rendered from. *collect.Collector
// implements it.
type Contexter interface {
	Collect(ctx context.Context) (*collect.Context, error)
	CollectPR(ctx context.Context, base string) (*collect.PRContext, error)
}

// Result is the outcome of a successful commit generation.
type Result struct {
	Message   string
	Reply     Reply
	Kind      ResponseKind
	Raw       string
	System    string
	User      string
	Context   *collect.Context
	Truncated bool
}

// Generator runs the commit and pull-request flows. A Generator runs one
// flow at a time.
type Generator struct {
	cfg       *config.Config
	collector Contexter
	sc        SourceControl
	transport Transport
	confirm   Confirmer
	session   *session.Session
	log       zerolog.Logger
	observe   func(from, to State)
	count     prompt.TokenCounter
	state     State
}

// Option configures a Generator.
type Option func(*Generator)

// WithLogger sets the generator's logger.
func WithLogger(log zerolog.Logger) Option {
	return func(g *Generator) { g.log = log }
}

// WithTransport replaces the transport chosen from the configuration.
func WithTransport(t Transport) Option {
	return func(g *Generator) { g.transport = t }
}

// WithConfirmer sets who is asked before staging everything.
func WithConfirmer(c Confirmer) Option {
	return func(g *Generator) { g.confirm = c }
}

// WithSession sets the session the payload is recorded into.
func WithSession(s *session.Session) Option {
	return func(g *Generator) { g.session = s }
}

// WithObserver is called on every state transition.
func WithObserver(fn func(from, to State)) Option {
	return func(g *Generator) { g.observe = fn }
}

// WithTokenCounter replaces the tiktoken counter used for the token ceiling.
func WithTokenCounter(count prompt.TokenCounter) Option {
	return func(g *Generator) { g.count = count }
}

// NewGenerator creates a generator. Without a confirmer, staging everything
// is declined whenever confirmation is required.
func NewGenerator(cfg *config.Config, collector Contexter, sc SourceControl, opts ...Option) *Generator {
	g := &Generator{
		cfg:       cfg,
		collector: collector,
		sc:        sc,
		log:       zerolog.Nop(),
		state:     StateIdle,
	}
	for _, opt := range opts {
		opt(g)
	}
	if g.transport == nil {
		g.transport = NewTransport(cfg, g.log)
	}
	if g.confirm == nil {
		g.confirm = ConfirmFunc(func(context.Context, string) (bool, error) { return false, nil })
	}
	if g.session == nil {
		g.session = session.New(cfg.Context.MaxTerminalLines)
	}
	if g.count == nil {
		model := NormalizeModel(cfg.AI.Model)
		g.count = func(text string) int { return tokenizer.CountTokens(text, model) }
	}
	return g
}

// State returns the state the last run reached.
func (g *Generator) State() State { return g.state }

func (g *Generator) to(next State) {
	prev := g.state
	g.state = next
	g.log.Debug().Str("from", string(prev)).Str("to", string(next)).Msg("state")
	if g.observe != nil {
		g.observe(prev, next)
	}
}

// finish moves to the terminal state matching err. Cancellation is only a
// distinct outcome while the request is in flight; elsewhere it fails the run.
func (g *Generator) finish(err error) {
	switch {
	case err == nil:
		g.to(StateDone)
	case apperr.IsCancelled(err) && g.state == StateInFlight:
		g.log.Info().Msg("generation cancelled")
		g.to(StateCancelled)
	default:
		g.log.Error().Err(err).Str("state", string(g.state)).Msg("generation failed")
		g.to(StateFailed)
	}
}

// Generate produces a commit message for the staged changes and hands it to
// the source control. Nothing is retried.
func (g *Generator) Generate(ctx context.Context) (res *Result, err error) {
	g.state = StateIdle
	defer func() { g.finish(err) }()

	g.to(StateStagingCheck)
	if err := g.ensureStaged(ctx); err != nil {
		return nil, err
	}

	g.to(StateContextCollection)
	c, err := g.collector.Collect(ctx)
	if err != nil {
		return nil, err
	}

	g.to(StatePromptBuild)
	system := prompt.System(prompt.SystemPrompt, g.cfg.AI.SystemPrompt, g.cfg.Context.Language)
	user, budget := prompt.Fit(c, g.cfg.Context.MaxPromptBytes, g.tokenLimit(), g.count)
	req := BuildRequest(g.cfg, system, user, CommitSchema)
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
	reply := DecodeReply(m)
	msg, err := Assemble(reply)
	if err != nil {
		g.logViolation(text)
		return nil, err
	}
	if err := g.sc.SetCommitMessage(ctx, msg); err != nil {
		return nil, fmt.Errorf("set commit message: %w", err)
	}
	if reply.Rationale != "" {
		logging.Section(g.log, "rationale", reply.Rationale)
	}

	return &Result{
		Message:   msg,
		Reply:     reply,
		Kind:      resp.Kind,
		Raw:       resp.Raw,
		System:    system,
		User:      user,
		Context:   c,
		Truncated: c.DiffTruncated || budget.Clipped(),
	}, nil
}

// ensureStaged passes when something is staged. Otherwise, if the working
// copy has changes, it stages everything once confirmed.
func (g *Generator) ensureStaged(ctx context.Context) error {
	st := git.ParsePorcelain(g.sc.Status(ctx))
	if len(st.Index) > 0 {
		return nil
	}
	pending := len(st.WorkingTree) + len(st.Untracked) + len(st.Merge)
	if pending == 0 {
		return apperr.NoStagedChanges()
	}

	if g.cfg.UI.ConfirmStageAll {
		ok, err := g.confirm.Confirm(ctx, fmt.Sprintf("No staged changes. Stage all %d changed files?", pending))
		if err != nil {
			return err
		}
		if !ok {
			g.log.Info().Msg("aborted: no staged changes")
			return apperr.NoStagedChanges()
		}
	}
	if err := g.sc.StageAll(ctx); err != nil {
		return apperr.Wrap(err, apperr.ErrCodeNoStagedChanges, "stage all failed")
	}
	if st := git.ParsePorcelain(g.sc.Status(ctx)); len(st.Index) == 0 {
		return apperr.NoStagedChanges()
	}
	return nil
}

// tokenLimit is the token ceiling of the user prompt: max_prompt_tokens when
// set, otherwise the model's input limit.
func (g *Generator) tokenLimit() int {
	if limit := g.cfg.Context.MaxPromptTokens; limit > 0 {
		return limit
	}
	return tokenizer.ModelTokenLimit(NormalizeModel(g.cfg.AI.Model))
}

func (g *Generator) record(req Request, system, user string) {
	g.session.RecordPayload(req.Payload, system, user)
	g.log.Info().
		Str("model", NormalizeModel(g.cfg.AI.Model)).
		Str("endpoint", req.Endpoint).
		Str("transport", string(g.cfg.AI.Transport)).
		Int("prompt_bytes", len(system)+len(user)).
		Msg("sending request")
	logging.SectionAt(g.log, zerolog.DebugLevel, "prompt", logging.Truncate(user, g.cfg.Context.MaxLoggedPromptChars))
}

func (g *Generator) post(ctx context.Context, req Request) (Response, error) {
	g.to(StateInFlight)
	resp, err := g.transport.Post(ctx, req)
	if err != nil {
		return Response{}, err
	}
	if ctx.Err() != nil {
		return Response{}, apperr.Cancelled(ctx.Err())
	}
	return resp, nil
}

func (g *Generator) logViolation(text string) {
	logging.SectionAt(g.log, zerolog.WarnLevel, "raw-model-output", logging.Truncate(text, g.cfg.Context.MaxLoggedPromptChars))
}
