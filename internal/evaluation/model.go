package evaluation

import (
	"evaluator-backend/internal/llm"
	"evaluator-backend/internal/questions"
)

// ScoreEntry is one provider judgment for one question. A score of N means that
// (100-N) out of 100 comparable works are judged superior on that dimension.
type ScoreEntry struct {
	Question    string  `json:"question"`
	Score       float64 `json:"score"`
	Quotation   string  `json:"quotation"`
	Explanation string  `json:"explanation"`
}

const (
	SentinelQuotation   = "PARSING FAILED — PROVIDER RESPONSE INVALID"
	SentinelExplanation = "Unable to parse provider response"
	ManualExplanation   = "Manually extracted from response"

	FallbackScore       = 50
	FallbackQuotation   = "Analysis unavailable"
	FallbackExplanation = "Fallback"
)

// Sentinel marks a question whose score could not be recovered from the provider reply.
func Sentinel(question string) ScoreEntry {
	return ScoreEntry{
		Question:    question,
		Score:       0,
		Quotation:   SentinelQuotation,
		Explanation: SentinelExplanation,
	}
}

// IsSentinel reports whether the entry was synthesized because parsing failed.
func (e ScoreEntry) IsSentinel() bool {
	return e.Quotation == SentinelQuotation && e.Explanation == SentinelExplanation
}

func fallbackEntry(question string) ScoreEntry {
	return ScoreEntry{
		Question:    question,
		Score:       FallbackScore,
		Quotation:   FallbackQuotation,
		Explanation: FallbackExplanation,
	}
}

// PhaseResult maps a stringified question index ("0", "1", ...) to its entry.
type PhaseResult map[string]ScoreEntry

// MinScore returns the lowest score and its key, scanning in question order.
func (r PhaseResult) MinScore(set questions.Set) (float64, string) {
	return r.extreme(set, func(a, b float64) bool { return a < b })
}

// MaxScore returns the highest score and its key, scanning in question order.
func (r PhaseResult) MaxScore(set questions.Set) (float64, string) {
	return r.extreme(set, func(a, b float64) bool { return a > b })
}

func (r PhaseResult) extreme(set questions.Set, better func(a, b float64) bool) (float64, string) {
	best, bestKey := 0.0, ""
	for _, key := range set.Keys() {
		entry, ok := r[key]
		if !ok {
			continue
		}
		if bestKey == "" || better(entry.Score, best) {
			best, bestKey = entry.Score, key
		}
	}
	return best, bestKey
}

func (r PhaseResult) clone() PhaseResult {
	out := make(PhaseResult, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// PhaseCompleted labels which phases produced the accepted result.
type PhaseCompleted string

const (
	CompletedPhaseOneAccepted PhaseCompleted = "1_and_4"
	CompletedPhaseOneOnly     PhaseCompleted = "1_only"
	CompletedThroughPhaseTwo  PhaseCompleted = "1_and_2"
	CompletedAllFour          PhaseCompleted = "all_four"
)

// Metadata accompanies every accepted result.
type Metadata struct {
	Provider       string         `json:"provider"`
	AnalysisType   string         `json:"analysis_type"`
	PhaseCompleted PhaseCompleted `json:"phase_completed"`
	Timestamp      string         `json:"timestamp"`
}

// Result is the terminal output of a single-passage evaluation.
type Result struct {
	Scores   PhaseResult `json:"scores"`
	Metadata Metadata    `json:"metadata"`

	// Transcript is the full conversation with the provider. PromptHash fingerprints
	// the phase-one prompt.
	Transcript []llm.Turn `json:"-"`
	PromptHash string     `json:"-"`
}

// DualEntry pairs the judgments of both passages for one question.
type DualEntry struct {
	Question string     `json:"question"`
	PassageA ScoreEntry `json:"passageA"`
	PassageB ScoreEntry `json:"passageB"`
}

// DualMetadata accompanies a comparison result.
type DualMetadata struct {
	Provider        string         `json:"provider"`
	AnalysisType    string         `json:"analysis_type"`
	PhaseCompletedA PhaseCompleted `json:"phase_completed_a"`
	PhaseCompletedB PhaseCompleted `json:"phase_completed_b"`
	Timestamp       string         `json:"timestamp"`
}

// DualResult is the merged output of a two-passage comparison.
type DualResult struct {
	Scores   map[string]DualEntry `json:"scores"`
	Metadata DualMetadata         `json:"metadata"`

	TranscriptA []llm.Turn `json:"-"`
	TranscriptB []llm.Turn `json:"-"`
}
