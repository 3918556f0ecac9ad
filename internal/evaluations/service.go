package evaluations

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"evaluator-backend/internal/evaluation"
	"evaluator-backend/internal/llm"
	"evaluator-backend/internal/questions"
	"evaluator-backend/internal/queue"
	"evaluator-backend/internal/shared/metrics"
	"evaluator-backend/internal/shared/storage/object"
	"evaluator-backend/internal/shared/telemetry"
)

// Service contains business logic for evaluation jobs.
type Service struct {
	Repo     Repo
	Engine   *evaluation.Engine
	Registry *questions.Registry
	// Store archives uploads and transcripts. Optional.
	Store object.Store
	// Queue hands jobs to a worker. When nil, Create processes in a background goroutine.
	Queue queue.Client
	Model string
	Now   func() time.Time

	inflight sync.WaitGroup
}

// Create persists a queued evaluation and dispatches it for asynchronous processing.
func (s *Service) Create(ctx context.Context, in CreateInput) (Evaluation, error) {
	ev, err := s.prepare(ctx, in)
	if err != nil {
		return Evaluation{}, err
	}

	if s.Queue != nil {
		msg := queue.NewMessage(ev.ID, RequestIDFromContext(ctx), s.now())
		if err := s.Queue.Send(ctx, msg); err != nil {
			sendErr := fmt.Errorf("%w: enqueue evaluation %s: %w", ErrStorage, ev.ID, err)
			if recordErr := s.fail(ctx, ev, sendErr, nil); recordErr != nil {
				telemetry.Error("evaluation.record_failed", map[string]any{"evaluation_id": ev.ID, "error": recordErr})
			}
			return Evaluation{}, sendErr
		}
		telemetry.Info("evaluation.enqueued", map[string]any{
			"request_id":    RequestIDFromContext(ctx),
			"evaluation_id": ev.ID,
			"mode":          ev.Mode,
		})
		return ev, nil
	}

	s.inflight.Add(1)
	go func(ctx context.Context, id string) {
		defer s.inflight.Done()
		if err := s.ProcessEvaluation(ctx, id); err != nil {
			telemetry.Error("evaluation.process_failed", map[string]any{
				"request_id":    RequestIDFromContext(ctx),
				"evaluation_id": id,
				"error":         err,
			})
		}
	}(backgroundWithRequestID(ctx), ev.ID)
	return ev, nil
}

// Run creates an evaluation and processes it before returning. The returned error is the
// evaluation failure, if any; the failed record is returned alongside it.
func (s *Service) Run(ctx context.Context, in CreateInput) (Evaluation, error) {
	ev, err := s.prepare(ctx, in)
	if err != nil {
		return Evaluation{}, err
	}
	runErr, err := s.process(ctx, ev.ID)
	if err != nil {
		return Evaluation{}, err
	}
	stored, err := s.Repo.GetByID(context.WithoutCancel(ctx), ev.ID)
	if err != nil {
		return Evaluation{}, err
	}
	return stored, runErr
}

// ProcessEvaluation runs a queued evaluation to completion. Calling it again for a finished
// or in-flight evaluation is a no-op. Evaluation failures are recorded on the job; the
// returned error only reports that the outcome could not be stored.
func (s *Service) ProcessEvaluation(ctx context.Context, id string) error {
	_, err := s.process(ctx, id)
	return err
}

// Get returns an evaluation by ID.
func (s *Service) Get(ctx context.Context, id string) (Evaluation, error) {
	if strings.TrimSpace(id) == "" {
		return Evaluation{}, fmt.Errorf("%w: evaluation id is required", ErrValidation)
	}
	if _, err := uuid.Parse(id); err != nil {
		return Evaluation{}, ErrNotFound
	}
	return s.Repo.GetByID(ctx, id)
}

// List returns evaluations newest-first.
func (s *Service) List(ctx context.Context, limit, offset int) ([]Evaluation, error) {
	return s.Repo.List(ctx, limit, offset)
}

// QuestionSets exposes the registry backing this service.
func (s *Service) QuestionSets() *questions.Registry {
	return s.Registry
}

// Wait blocks until background evaluations started by Create have finished.
func (s *Service) Wait() {
	s.inflight.Wait()
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}

func (s *Service) prepare(ctx context.Context, in CreateInput) (Evaluation, error) {
	if s.Engine == nil || s.Registry == nil || s.Repo == nil {
		return Evaluation{}, errors.New("evaluation service is not configured")
	}
	set, err := s.Registry.Get(in.AnalysisType)
	if err != nil {
		return Evaluation{}, fmt.Errorf("%w: %w", ErrValidation, err)
	}
	if err := validatePassage("passage", in.PassageA); err != nil {
		return Evaluation{}, err
	}
	mode := ModeSingle
	if in.PassageB != "" {
		if err := validatePassage("passageB", in.PassageB); err != nil {
			return Evaluation{}, err
		}
		mode = ModeDual
	}

	ev := Evaluation{
		ID:           uuid.NewString(),
		Mode:         mode,
		AnalysisType: set.Name(),
		Provider:     s.Engine.Provider(),
		Model:        s.Model,
		Status:       StatusQueued,
		PassageA:     in.PassageA,
		PassageB:     in.PassageB,
		CreatedAt:    s.now(),
	}
	ev.UpdatedAt = ev.CreatedAt

	if err := s.storeUploads(ctx, ev.ID, in.Uploads); err != nil {
		return Evaluation{}, err
	}
	if err := s.Repo.Create(ctx, ev); err != nil {
		return Evaluation{}, fmt.Errorf("%w: create evaluation: %w", ErrStorage, err)
	}
	telemetry.Info("evaluation.status", map[string]any{
		"request_id":    RequestIDFromContext(ctx),
		"evaluation_id": ev.ID,
		"analysis_type": ev.AnalysisType,
		"mode":          ev.Mode,
		"status":        StatusQueued,
	})
	return ev, nil
}

func validatePassage(field, text string) error {
	if strings.TrimSpace(text) == "" {
		return fmt.Errorf("%w: %s is required", ErrValidation, field)
	}
	if n := utf8.RuneCountInString(text); n > MaxPassageChars {
		return fmt.Errorf("%w: %s has %d characters, limit is %d", ErrValidation, field, n, MaxPassageChars)
	}
	return nil
}

func (s *Service) storeUploads(ctx context.Context, id string, uploads []Upload) error {
	if len(uploads) == 0 || s.Store == nil {
		return nil
	}
	for _, up := range uploads {
		key, err := object.UploadKey(id, up.Side, up.FileName)
		if err != nil {
			return fmt.Errorf("%w: %w", ErrValidation, err)
		}
		if _, err := s.Store.Put(ctx, key, up.ContentType, bytes.NewReader(up.Data)); err != nil {
			return fmt.Errorf("%w: store upload %s: %w", ErrStorage, key, err)
		}
	}
	return nil
}

// process returns the evaluation failure (already recorded) and, separately, any error that
// kept the outcome from being recorded.
func (s *Service) process(ctx context.Context, id string) (runErr error, err error) {
	startedAt := s.now()
	claimed, err := s.Repo.Claim(ctx, id, startedAt)
	if err != nil {
		return nil, fmt.Errorf("claim evaluation %s: %w", id, err)
	}
	if !claimed {
		telemetry.Info("evaluation.skipped", map[string]any{
			"request_id":    RequestIDFromContext(ctx),
			"evaluation_id": id,
		})
		return nil, nil
	}

	ev, err := s.Repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load evaluation %s: %w", id, err)
	}
	metrics.IncEvaluationStarted()
	telemetry.Info("evaluation.status", map[string]any{
		"request_id":        RequestIDFromContext(ctx),
		"evaluation_id":     ev.ID,
		"mode":              ev.Mode,
		"status":            StatusProcessing,
		"status_transition": "queued->processing",
	})

	if runErr := s.execute(ctx, ev, startedAt); runErr != nil {
		return runErr, s.fail(ctx, ev, runErr, &startedAt)
	}
	return nil, nil
}

type transcriptDoc struct {
	EvaluationID string     `json:"evaluationId"`
	Mode         string     `json:"mode"`
	AnalysisType string     `json:"analysisType"`
	Provider     string     `json:"provider"`
	Model        string     `json:"model,omitempty"`
	PromptHash   string     `json:"promptHash,omitempty"`
	PassageA     []llm.Turn `json:"passageA"`
	PassageB     []llm.Turn `json:"passageB,omitempty"`
	ArchivedAt   string     `json:"archivedAt"`
}

func (s *Service) execute(ctx context.Context, ev Evaluation, startedAt time.Time) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()

	set, err := s.Registry.Get(ev.AnalysisType)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrValidation, err)
	}

	var payload any
	var phase string
	doc := transcriptDoc{
		EvaluationID: ev.ID,
		Mode:         ev.Mode,
		AnalysisType: ev.AnalysisType,
		Provider:     ev.Provider,
		Model:        ev.Model,
	}
	switch ev.Mode {
	case ModeDual:
		res, err := s.Engine.EvaluateDual(ctx, ev.PassageA, ev.PassageB, set, ev.AnalysisType)
		if err != nil {
			return err
		}
		payload = res
		phase = string(res.Metadata.PhaseCompletedA) + "/" + string(res.Metadata.PhaseCompletedB)
		doc.PassageA, doc.PassageB = res.TranscriptA, res.TranscriptB
	default:
		res, err := s.Engine.Evaluate(ctx, ev.PassageA, set, ev.AnalysisType)
		if err != nil {
			return err
		}
		payload = res
		phase = string(res.Metadata.PhaseCompleted)
		doc.PassageA, doc.PromptHash = res.Transcript, res.PromptHash
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode result: %w", err)
	}
	transcriptKey := s.archiveTranscript(ctx, doc)

	completedAt := s.now()
	update := Update{
		Status:         StatusCompleted,
		Result:         raw,
		PhaseCompleted: phase,
		TranscriptKey:  transcriptKey,
		CompletedAt:    &completedAt,
	}
	if err := s.Repo.Finish(context.WithoutCancel(ctx), ev.ID, update); err != nil {
		return fmt.Errorf("%w: record result: %w", ErrStorage, err)
	}

	metrics.IncEvaluationCompleted()
	metrics.ObserveEvaluationDurationMs(durationMs(&startedAt, &completedAt))
	telemetry.Info("evaluation.status", map[string]any{
		"request_id":        RequestIDFromContext(ctx),
		"evaluation_id":     ev.ID,
		"status":            StatusCompleted,
		"status_transition": "processing->completed",
		"phase_completed":   phase,
		"duration_ms":       durationMs(&startedAt, &completedAt),
	})
	return nil
}

// archiveTranscript writes the provider conversation to the object store. Failures are
// logged and yield an empty key.
func (s *Service) archiveTranscript(ctx context.Context, doc transcriptDoc) string {
	if s.Store == nil {
		return ""
	}
	doc.ArchivedAt = s.now().Format(time.RFC3339)
	body, err := json.Marshal(doc)
	if err != nil {
		telemetry.Warn("evaluation.transcript_failed", map[string]any{"evaluation_id": doc.EvaluationID, "error": err})
		return ""
	}
	key := object.TranscriptKey(doc.EvaluationID)
	if _, err := s.Store.Put(ctx, key, "application/json", bytes.NewReader(body)); err != nil {
		telemetry.Warn("evaluation.transcript_failed", map[string]any{
			"request_id":    RequestIDFromContext(ctx),
			"evaluation_id": doc.EvaluationID,
			"key":           key,
			"error":         err,
		})
		return ""
	}
	return key
}

func (s *Service) fail(ctx context.Context, ev Evaluation, cause error, startedAt *time.Time) error {
	code := classifyFailure(cause)
	msg := sanitizeError(cause)
	completedAt := s.now()
	update := Update{
		Status:       StatusFailed,
		ErrorCode:    &code,
		ErrorMessage: &msg,
		CompletedAt:  &completedAt,
	}
	var recordErr error
	if err := s.Repo.Finish(context.WithoutCancel(ctx), ev.ID, update); err != nil {
		recordErr = fmt.Errorf("record failure of evaluation %s: %w", ev.ID, err)
	}

	metrics.IncEvaluationFailed()
	if startedAt != nil {
		metrics.ObserveEvaluationDurationMs(durationMs(startedAt, &completedAt))
	}
	telemetry.Info("evaluation.status", map[string]any{
		"request_id":        RequestIDFromContext(ctx),
		"evaluation_id":     ev.ID,
		"status":            StatusFailed,
		"status_transition": "processing->failed",
		"error_code":        code,
		"error":             cause,
		"duration_ms":       durationMs(startedAt, &completedAt),
	})
	return recordErr
}

func durationMs(startedAt, completedAt *time.Time) float64 {
	if startedAt == nil || completedAt == nil {
		return 0
	}
	return float64(completedAt.Sub(*startedAt).Microseconds()) / 1000.0
}

func classifyFailure(err error) string {
	switch {
	case err == nil:
		return ErrorCodeInternal
	case errors.Is(err, ErrValidation),
		errors.Is(err, questions.ErrUnknownSet),
		errors.Is(err, evaluation.ErrEmptyPassage),
		errors.Is(err, evaluation.ErrEmptyQuestionSet):
		return ErrorCodeValidation
	case errors.Is(err, llm.ErrProviderUnavailable),
		errors.Is(err, llm.ErrMissingCredential),
		errors.Is(err, context.DeadlineExceeded):
		return ErrorCodeProviderUnavailable
	case errors.Is(err, evaluation.ErrPhaseOneFailed):
		return ErrorCodePhaseOneFailed
	case errors.Is(err, ErrStorage):
		return ErrorCodeStorage
	default:
		return ErrorCodeInternal
	}
}

func sanitizeError(err error) string {
	if err == nil {
		return ""
	}
	msg := strings.ReplaceAll(err.Error(), "\n", " ")
	msg = strings.ReplaceAll(msg, "\r", " ")
	msg = strings.TrimSpace(msg)
	const maxLen = 500
	if len(msg) > maxLen {
		cut := maxLen
		for cut > 0 && !utf8.RuneStart(msg[cut]) {
			cut--
		}
		msg = msg[:cut]
	}
	return msg
}
