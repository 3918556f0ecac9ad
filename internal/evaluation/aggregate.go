package evaluation

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"evaluator-backend/internal/questions"
)

// EvaluateDual scores two passages under the same question set and merges them per
// question. The two runs share no state. Unless the engine was built with
// WithSequentialDual they execute concurrently.
func (e *Engine) EvaluateDual(ctx context.Context, passageA, passageB string, set questions.Set, analysisType string) (DualResult, error) {
	if analysisType == "" {
		analysisType = set.Name()
	}

	var a, b Result
	if e.sequentialDual {
		var err error
		if a, err = e.Evaluate(ctx, passageA, set, analysisType); err != nil {
			return DualResult{}, fmt.Errorf("passage A: %w", err)
		}
		if e.dualDelay > 0 {
			timer := time.NewTimer(e.dualDelay)
			select {
			case <-ctx.Done():
				timer.Stop()
				return DualResult{}, ctx.Err()
			case <-timer.C:
			}
		}
		if b, err = e.Evaluate(ctx, passageB, set, analysisType); err != nil {
			return DualResult{}, fmt.Errorf("passage B: %w", err)
		}
	} else {
		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			res, err := e.Evaluate(gctx, passageA, set, analysisType)
			if err != nil {
				return fmt.Errorf("passage A: %w", err)
			}
			a = res
			return nil
		})
		g.Go(func() error {
			res, err := e.Evaluate(gctx, passageB, set, analysisType)
			if err != nil {
				return fmt.Errorf("passage B: %w", err)
			}
			b = res
			return nil
		})
		if err := g.Wait(); err != nil {
			return DualResult{}, err
		}
	}

	e.logger.Info("comparison merged",
		zap.String("analysis_type", analysisType),
		zap.String("phase_completed_a", string(a.Metadata.PhaseCompleted)),
		zap.String("phase_completed_b", string(b.Metadata.PhaseCompleted)),
	)
	return DualResult{
		Scores: Merge(set, a.Scores, b.Scores),
		Metadata: DualMetadata{
			Provider:        e.provider,
			AnalysisType:    analysisType,
			PhaseCompletedA: a.Metadata.PhaseCompleted,
			PhaseCompletedB: b.Metadata.PhaseCompleted,
			Timestamp:       e.timestamp(),
		},
		TranscriptA: a.Transcript,
		TranscriptB: b.Transcript,
	}, nil
}

// Merge pairs two results by question index. Every index of set is present; a side
// missing an index gets the fallback entry. Question text always comes from set.
func Merge(set questions.Set, a, b PhaseResult) map[string]DualEntry {
	out := make(map[string]DualEntry, set.Len())
	for i, question := range set.Questions() {
		key := questions.Key(i)
		out[key] = DualEntry{
			Question: question,
			PassageA: sideEntry(a, key, question),
			PassageB: sideEntry(b, key, question),
		}
	}
	return out
}

func sideEntry(r PhaseResult, key, question string) ScoreEntry {
	entry, ok := r[key]
	if !ok {
		return fallbackEntry(question)
	}
	entry.Question = question
	return entry
}
