package evaluation

import "errors"

var (
	// ErrPhaseOneFailed is the only failure an evaluation surfaces: the first round
	// produced nothing to degrade to.
	ErrPhaseOneFailed   = errors.New("phase one failed")
	ErrEmptyPassage     = errors.New("passage text is empty")
	ErrEmptyQuestionSet = errors.New("question set is empty")
	ErrMissingClient    = errors.New("provider client is required")
	ErrUnparseable      = errors.New("no question could be recovered from provider response")
	ErrUnknownPhase     = errors.New("unknown phase")
	ErrMissingPrior     = errors.New("prior phase scores are required")
)
