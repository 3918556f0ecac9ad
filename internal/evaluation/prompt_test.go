package evaluation

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"evaluator-backend/internal/questions"
)

func TestBuildPhaseOnePrompt(t *testing.T) {
	prompt, err := BuildPrompt(Phase1, twoQuestions, "The passage body.", nil)
	require.NoError(t, err)

	for _, want := range []string{
		"0. IS IT INSIGHTFUL?",
		"1. IS IT ORIGINAL?",
		"<<<\nThe passage body.\n>>>",
		"SNIPER FAIRNESS RULE",
		"95-100",
		"COMPARATOR-POPULATION SANITY CHECK",
		`from "0" to "1"`,
	} {
		assert.Contains(t, prompt, want)
	}

	again, _ := BuildPrompt(Phase1, twoQuestions, "The passage body.", nil)
	assert.Equal(t, prompt, again)
}

func TestBuildPushbackPromptUsesPriorExtremes(t *testing.T) {
	prior := PhaseResult{
		"0": {Question: "IS IT INSIGHTFUL?", Score: 83},
		"1": {Question: "IS IT ORIGINAL?", Score: 97},
	}
	prompt, err := BuildPrompt(Phase2, twoQuestions, "ignored", prior)
	require.NoError(t, err)

	assert.Contains(t, prompt, "lowest score was 83 for question 0")
	assert.Contains(t, prompt, "17 out of 100")
	assert.Contains(t, prompt, "highest score was 97 for question 1")
	assert.Contains(t, prompt, "3 out of 100")
	assert.Contains(t, prompt, "de novo")
	assert.Contains(t, prompt, "1. IS IT ORIGINAL?")
	assert.NotContains(t, prompt, "ignored")
}

func TestBuildComparatorPromptTargetsLowestScore(t *testing.T) {
	prior := PhaseResult{
		"0": {Question: "IS IT INSIGHTFUL?", Score: 90},
		"1": {Question: "IS IT ORIGINAL?", Score: 88.5},
	}
	prompt, err := BuildPrompt(Phase3, twoQuestions, "", prior)
	require.NoError(t, err)

	assert.Contains(t, prompt, "score of 88.5 for question 1")
	assert.Contains(t, prompt, "11.5 out of 100")
	assert.True(t, strings.Contains(prompt, "Name concrete examples"))
}

func TestBuildPromptErrors(t *testing.T) {
	_, err := BuildPrompt(Phase2, twoQuestions, "p", nil)
	assert.True(t, errors.Is(err, ErrMissingPrior))

	_, err = BuildPrompt(Phase(4), twoQuestions, "p", nil)
	assert.True(t, errors.Is(err, ErrUnknownPhase))

	_, err = BuildPrompt(Phase1, questions.Set{}, "p", nil)
	assert.True(t, errors.Is(err, ErrEmptyQuestionSet))
}
