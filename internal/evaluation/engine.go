// Package evaluation runs the multi-phase scoring protocol against a text provider.
package evaluation

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"evaluator-backend/internal/llm"
	"evaluator-backend/internal/questions"
)

// Observer receives engine events. Implementations must be safe for concurrent use.
type Observer interface {
	ProviderCall(provider string, phase Phase, err error)
	Parsed(phase Phase, strategy Strategy, sentinels int)
	Completed(label PhaseCompleted)
}

type nopObserver struct{}

func (nopObserver) ProviderCall(string, Phase, error) {}
func (nopObserver) Parsed(Phase, Strategy, int)       {}
func (nopObserver) Completed(PhaseCompleted)          {}

// Engine evaluates passages against question sets. It holds no per-run state and is
// safe to share between goroutines.
type Engine struct {
	client   llm.Client
	provider string
	logger   *zap.Logger
	observer Observer
	now      func() time.Time

	sequentialDual bool
	dualDelay      time.Duration
}

// Option configures an Engine.
type Option func(*Engine)

func WithLogger(l *zap.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

func WithObserver(o Observer) Option {
	return func(e *Engine) {
		if o != nil {
			e.observer = o
		}
	}
}

// WithClock overrides the timestamp source.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		if now != nil {
			e.now = now
		}
	}
}

// WithSequentialDual runs the two sides of a comparison one after the other, pausing
// for delay between them.
func WithSequentialDual(delay time.Duration) Option {
	return func(e *Engine) {
		e.sequentialDual = true
		if delay > 0 {
			e.dualDelay = delay
		}
	}
}

// New builds an Engine around a provider client. provider is the label written to
// result metadata.
func New(client llm.Client, provider string, opts ...Option) (*Engine, error) {
	if client == nil {
		return nil, ErrMissingClient
	}
	e := &Engine{
		client:   client,
		provider: strings.TrimSpace(provider),
		logger:   zap.NewNop(),
		observer: nopObserver{},
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// Provider returns the metadata label of the provider.
func (e *Engine) Provider() string { return e.provider }

type run struct {
	set          questions.Set
	passage      string
	analysisType string
	conversation []llm.Turn
	results      map[Phase]PhaseResult
	promptHash   string
	logger       *zap.Logger
}

// Evaluate scores one passage. The only error after argument validation is
// ErrPhaseOneFailed; later phase failures degrade to the last completed result.
func (e *Engine) Evaluate(ctx context.Context, passage string, set questions.Set, analysisType string) (Result, error) {
	if strings.TrimSpace(passage) == "" {
		return Result{}, ErrEmptyPassage
	}
	if set.Len() == 0 {
		return Result{}, ErrEmptyQuestionSet
	}
	if analysisType == "" {
		analysisType = set.Name()
	}

	r := &run{
		set:          set,
		passage:      passage,
		analysisType: analysisType,
		results:      make(map[Phase]PhaseResult, 3),
		logger: e.logger.With(
			zap.String("provider", e.provider),
			zap.String("analysis_type", analysisType),
			zap.Int("questions", set.Len()),
		),
	}

	state := Phase1Pending
	var outcome Outcome
	for {
		var phaseErr error
		if phase, ok := state.Pending(); ok {
			result, err := e.runPhase(ctx, r, phase)
			outcome = Outcome{OK: err == nil}
			if err == nil {
				r.results[phase] = result
				outcome.MinScore, _ = result.MinScore(set)
			}
			phaseErr = err
		}

		step := Advance(state, outcome)
		if phaseErr != nil && step.Next == Accepted {
			r.logger.Warn("evaluation degraded",
				zap.Stringer("from", state),
				zap.String("phase_completed", string(step.Completed)),
				zap.Error(phaseErr),
			)
		} else {
			r.logger.Debug("evaluation transition",
				zap.Stringer("from", state),
				zap.Stringer("to", step.Next),
			)
		}

		switch step.Next {
		case Aborted:
			r.logger.Error("evaluation aborted", zap.Error(phaseErr))
			return Result{}, fmt.Errorf("%w: %w", ErrPhaseOneFailed, phaseErr)
		case Accepted:
			e.observer.Completed(step.Completed)
			return Result{
				Scores: r.results[step.Carry].clone(),
				Metadata: Metadata{
					Provider:       e.provider,
					AnalysisType:   analysisType,
					PhaseCompleted: step.Completed,
					Timestamp:      e.timestamp(),
				},
				Transcript: llm.Clone(r.conversation),
				PromptHash: r.promptHash,
			}, nil
		}
		state = step.Next
	}
}

// runPhase performs one provider round-trip. The conversation grows by the prompt and
// the reply only when the round succeeds.
func (e *Engine) runPhase(ctx context.Context, r *run, phase Phase) (PhaseResult, error) {
	prompt, err := BuildPrompt(phase, r.set, r.passage, r.results[phase-1])
	if err != nil {
		return nil, err
	}
	if phase == Phase1 {
		r.promptHash = llm.HashConversation([]llm.Turn{{Role: llm.RoleUser, Content: prompt}})
	}

	conversation := append(llm.Clone(r.conversation), llm.Turn{Role: llm.RoleUser, Content: prompt})
	started := time.Now()
	raw, err := e.client.Complete(ctx, conversation)
	e.observer.ProviderCall(e.provider, phase, err)
	if err != nil {
		return nil, fmt.Errorf("phase %d: %w", phase, err)
	}

	parsed := Parse(raw, r.set)
	e.observer.Parsed(phase, parsed.Strategy, parsed.Sentinels)
	r.logger.Info("phase parsed",
		zap.Int("phase", int(phase)),
		zap.String("strategy", string(parsed.Strategy)),
		zap.Int("recovered", parsed.Recovered),
		zap.Int("sentinels", parsed.Sentinels),
		zap.Duration("elapsed", time.Since(started)),
	)
	if parsed.Recovered == 0 {
		return nil, fmt.Errorf("phase %d: %w", phase, ErrUnparseable)
	}

	r.conversation = append(conversation, llm.Turn{Role: llm.RoleAssistant, Content: raw})
	return parsed.Result, nil
}

func (e *Engine) timestamp() string {
	return e.now().UTC().Format(time.RFC3339)
}
