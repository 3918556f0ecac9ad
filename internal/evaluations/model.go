package evaluations

import (
	"encoding/json"
	"time"
)

const (
	ModeSingle = "single"
	ModeDual   = "dual"
)

const (
	StatusQueued     = "queued"
	StatusProcessing = "processing"
	StatusCompleted  = "completed"
	StatusFailed     = "failed"
)

// MaxPassageChars bounds the size of a single passage, counted in characters.
const MaxPassageChars = 200_000

// Evaluation is a persisted evaluation job. Result holds either an evaluation.Result or an
// evaluation.DualResult depending on Mode.
type Evaluation struct {
	ID             string          `json:"id"`
	Mode           string          `json:"mode"`
	AnalysisType   string          `json:"analysisType"`
	Provider       string          `json:"provider"`
	Model          string          `json:"model,omitempty"`
	Status         string          `json:"status"`
	PassageA       string          `json:"-"`
	PassageB       string          `json:"-"`
	Result         json.RawMessage `json:"result,omitempty"`
	PhaseCompleted string          `json:"phaseCompleted,omitempty"`
	TranscriptKey  string          `json:"transcriptKey,omitempty"`
	ErrorCode      *string         `json:"errorCode,omitempty"`
	ErrorMessage   *string         `json:"errorMessage,omitempty"`
	CreatedAt      time.Time       `json:"createdAt"`
	StartedAt      *time.Time      `json:"startedAt,omitempty"`
	CompletedAt    *time.Time      `json:"completedAt,omitempty"`
	UpdatedAt      time.Time       `json:"updatedAt"`
}

// Terminal reports whether the evaluation will not change any more.
func (e Evaluation) Terminal() bool {
	return e.Status == StatusCompleted || e.Status == StatusFailed
}

// Update carries the fields written when an evaluation finishes. Zero values leave the
// stored column untouched.
type Update struct {
	Status         string
	Result         json.RawMessage
	PhaseCompleted string
	TranscriptKey  string
	ErrorCode      *string
	ErrorMessage   *string
	CompletedAt    *time.Time
}

// Upload is a source file submitted alongside an evaluation.
type Upload struct {
	Side        string
	FileName    string
	ContentType string
	Data        []byte
}

// CreateInput describes a new evaluation. PassageB switches the evaluation to comparison mode.
type CreateInput struct {
	AnalysisType string
	PassageA     string
	PassageB     string
	Uploads      []Upload
}
