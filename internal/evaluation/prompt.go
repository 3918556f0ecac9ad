package evaluation

import (
	"fmt"
	"strconv"
	"strings"

	"evaluator-backend/internal/questions"
)

// Phase numbers a provider round-trip. Phase 4 is not a round-trip: it is acceptance of
// whichever result is current, so it has no prompt.
type Phase int

const (
	Phase1 Phase = 1
	Phase2 Phase = 2
	Phase3 Phase = 3
)

// AcceptThreshold is the score at or above which no pushback is issued.
const AcceptThreshold = 95.0

const scoreSemantics = `SCORING SEMANTICS
A score of N out of 100 means that (100-N) out of 100 comparable works are superior to this passage on the dimension in question. A score of 83 is therefore the claim that 17 out of 100 comparable authors outperform this author on that dimension. Every score you give is a claim about a comparator population and must be defensible as such.`

const sniperRule = `SNIPER FAIRNESS RULE
Do not penalize a claim for being unconventional if it is correct. A passage that states a true but unfashionable position bluntly is not deficient for lacking institutional "balance", hedging, or a survey of opposing views. Judge whether the points are true, sharp and well developed, not whether they conform to consensus.`

const scoreBands = `SCORE BANDS
95-100: exceptional; the passage does something that very few comparable works do.
80-94: strong, with identifiable friction (a real, nameable weakness).
Below 80: degrees of mediocrity; reserve these for passages that are conventional, padded, evasive or confused.`

const comparatorCheck = `COMPARATOR-POPULATION SANITY CHECK
Before assigning any score below 95, state concretely what the superior comparator group knows or does that this author does not. The description must be specific enough to be falsifiable. If you cannot describe the superior group concretely, you are not entitled to claim it exists, and the score must be raised.`

// BuildPrompt renders the prompt for the given phase. Phase 2 requires the phase-1 result
// as prior; phase 3 requires the phase-2 result. The output is a pure function of its inputs.
func BuildPrompt(phase Phase, set questions.Set, passage string, prior PhaseResult) (string, error) {
	if set.Len() == 0 {
		return "", ErrEmptyQuestionSet
	}
	switch phase {
	case Phase1:
		return buildPhaseOne(set, passage), nil
	case Phase2:
		if len(prior) == 0 {
			return "", fmt.Errorf("%w: phase 2", ErrMissingPrior)
		}
		return buildPushback(set, prior), nil
	case Phase3:
		if len(prior) == 0 {
			return "", fmt.Errorf("%w: phase 3", ErrMissingPrior)
		}
		return buildComparatorEnforcement(set, prior), nil
	default:
		return "", fmt.Errorf("%w: %d", ErrUnknownPhase, phase)
	}
}

func buildPhaseOne(set questions.Set, passage string) string {
	var b strings.Builder
	b.WriteString("You are evaluating a passage of text. Answer each question below about the passage.\n\n")
	b.WriteString(scoreSemantics)
	b.WriteString("\n\n")
	b.WriteString(sniperRule)
	b.WriteString("\n\n")
	b.WriteString(scoreBands)
	b.WriteString("\n\n")
	b.WriteString(comparatorCheck)
	b.WriteString("\n\nQUESTIONS\n")
	writeQuestions(&b, set)
	b.WriteString("\nPASSAGE\n<<<\n")
	b.WriteString(passage)
	b.WriteString("\n>>>\n\n")
	writeOutputFormat(&b, set)
	return b.String()
}

func buildPushback(set questions.Set, prior PhaseResult) string {
	low, lowKey := prior.MinScore(set)
	high, highKey := prior.MaxScore(set)

	var b strings.Builder
	b.WriteString("Look again at your scores.\n\n")
	fmt.Fprintf(&b, "Your lowest score was %s for question %s (%q). That is the claim that %s out of 100 comparable authors outperform this author on that dimension.\n",
		formatScore(low), lowKey, prior[lowKey].Question, formatScore(outperform(low)))
	fmt.Fprintf(&b, "Your highest score was %s for question %s (%q). Even there you claim that %s out of 100 comparable authors do better.\n\n",
		formatScore(high), highKey, prior[highKey].Question, formatScore(outperform(high)))
	b.WriteString("Who are these authors, concretely? What do they know that this author does not? ")
	b.WriteString("If you cannot say, the claim is unsupported.\n\n")
	b.WriteString(sniperRule)
	b.WriteString("\n\n")
	b.WriteString(comparatorCheck)
	b.WriteString("\n\nAnswer every question again de novo. Do not anchor on your previous numbers; justify each score from the passage.\n\n")
	b.WriteString("QUESTIONS ALREADY ASKED\n")
	writeQuestions(&b, set)
	b.WriteString("\n")
	writeOutputFormat(&b, set)
	return b.String()
}

func buildComparatorEnforcement(set questions.Set, prior PhaseResult) string {
	low, lowKey := prior.MinScore(set)

	var b strings.Builder
	b.WriteString("Final round.\n\n")
	fmt.Fprintf(&b, "You still maintain a score of %s for question %s (%q): the claim that %s out of 100 comparable authors outperform this author on that dimension.\n\n",
		formatScore(low), lowKey, prior[lowKey].Question, formatScore(outperform(low)))
	b.WriteString("Name concrete examples of that superior population: specific authors or works, and exactly what they do on this dimension that the passage does not. ")
	b.WriteString("Apply the same test to every score below 95. Where you cannot name such examples, raise the score to what you can substantiate.\n\n")
	b.WriteString(scoreSemantics)
	b.WriteString("\n\n")
	b.WriteString(scoreBands)
	b.WriteString("\n\nGive your final, justified scores.\n\n")
	b.WriteString("QUESTIONS ALREADY ASKED\n")
	writeQuestions(&b, set)
	b.WriteString("\n")
	writeOutputFormat(&b, set)
	return b.String()
}

func writeQuestions(b *strings.Builder, set questions.Set) {
	for i, q := range set.Questions() {
		fmt.Fprintf(b, "%d. %s\n", i, q)
	}
}

func writeOutputFormat(b *strings.Builder, set questions.Set) {
	b.WriteString("OUTPUT FORMAT\n")
	b.WriteString("Respond with a single JSON object and nothing else. Keys are the question numbers as strings, ")
	fmt.Fprintf(b, "from \"0\" to \"%d\". Each value is an object with the fields ", set.Len()-1)
	b.WriteString("\"question\" (the question text), \"score\" (a number from 0 to 100), ")
	b.WriteString("\"quotation\" (a verbatim quotation from the passage supporting the score) and \"explanation\".\n")
	b.WriteString("Example:\n")
	fmt.Fprintf(b, "{\"0\": {\"question\": %q, \"score\": 88, \"quotation\": \"...\", \"explanation\": \"...\"}}\n", set.Question(0))
}

func outperform(score float64) float64 {
	return 100 - score
}

func formatScore(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
