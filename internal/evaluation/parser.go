package evaluation

import (
	"encoding/json"
	"errors"
	"math"
	"regexp"
	"strconv"
	"strings"

	"evaluator-backend/internal/questions"
)

// Strategy names a parse strategy. Strategies run in declaration order.
type Strategy string

const (
	StrategyDirect    Strategy = "direct"
	StrategyFenced    Strategy = "fenced"
	StrategyBraceSpan Strategy = "brace_span"
	StrategyRegex     Strategy = "regex"
)

// ParseOutcome is a complete PhaseResult plus how it was obtained.
type ParseOutcome struct {
	Result    PhaseResult
	Strategy  Strategy
	Recovered int
	Sentinels int
}

var errNotStructured = errors.New("response is not a structured score object")

type structuredStrategy struct {
	name Strategy
	fn   func(raw string, set questions.Set) (PhaseResult, error)
}

var cascade = []structuredStrategy{
	{name: StrategyDirect, fn: parseDirect},
	{name: StrategyFenced, fn: parseFenced},
	{name: StrategyBraceSpan, fn: parseBraceSpan},
}

// Parse converts raw provider text into a PhaseResult containing every index of set.
// It never fails: when nothing structured is found it falls back to per-question regex
// extraction, and questions that cannot be recovered get the sentinel entry.
func Parse(raw string, set questions.Set) ParseOutcome {
	for _, s := range cascade {
		result, err := s.fn(raw, set)
		if err != nil {
			continue
		}
		return newOutcome(result, s.name)
	}
	return newOutcome(parseRegex(raw, set), StrategyRegex)
}

func newOutcome(result PhaseResult, strategy Strategy) ParseOutcome {
	out := ParseOutcome{Result: result, Strategy: strategy}
	for _, entry := range result {
		if entry.IsSentinel() {
			out.Sentinels++
		} else {
			out.Recovered++
		}
	}
	return out
}

func parseDirect(raw string, set questions.Set) (PhaseResult, error) {
	return decodeStructured(strings.TrimSpace(raw), set)
}

var fencePattern = regexp.MustCompile("(?s)```(?:[jJ][sS][oO][nN])?[ \t]*\\r?\\n?(.*?)```")

func parseFenced(raw string, set questions.Set) (PhaseResult, error) {
	for _, m := range fencePattern.FindAllStringSubmatch(raw, -1) {
		if result, err := decodeStructured(strings.TrimSpace(m[1]), set); err == nil {
			return result, nil
		}
	}
	return nil, errNotStructured
}

func parseBraceSpan(raw string, set questions.Set) (PhaseResult, error) {
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start < 0 || end <= start {
		return nil, errNotStructured
	}
	return decodeStructured(raw[start:end+1], set)
}

// decodeStructured accepts an object keyed by question index. At least one index must
// carry a usable score; indices that are absent or malformed become sentinels.
func decodeStructured(text string, set questions.Set) (PhaseResult, error) {
	if text == "" {
		return nil, errNotStructured
	}
	var top map[string]json.RawMessage
	if err := json.Unmarshal([]byte(text), &top); err != nil {
		return nil, errNotStructured
	}
	result := make(PhaseResult, set.Len())
	recovered := 0
	for i, question := range set.Questions() {
		key := questions.Key(i)
		entry, ok := decodeEntry(top[key], question)
		if !ok {
			result[key] = Sentinel(question)
			continue
		}
		result[key] = entry
		recovered++
	}
	if recovered == 0 {
		return nil, errNotStructured
	}
	return result, nil
}

func decodeEntry(raw json.RawMessage, question string) (ScoreEntry, bool) {
	if len(raw) == 0 {
		return ScoreEntry{}, false
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return ScoreEntry{}, false
	}
	score, ok := decodeScore(fields["score"])
	if !ok {
		return ScoreEntry{}, false
	}
	return ScoreEntry{
		Question:    question,
		Score:       score,
		Quotation:   decodeText(fields["quotation"]),
		Explanation: decodeText(fields["explanation"]),
	}, true
}

func decodeScore(raw json.RawMessage) (float64, bool) {
	if len(raw) == 0 || string(raw) == "null" {
		return 0, false
	}
	var n float64
	if err := json.Unmarshal(raw, &n); err == nil {
		return clampScore(n)
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return 0, false
	}
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, "%")
	if i := strings.Index(s, "/"); i > 0 {
		s = s[:i]
	}
	n, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, false
	}
	return clampScore(n)
}

func clampScore(n float64) (float64, bool) {
	if math.IsNaN(n) || math.IsInf(n, 0) {
		return 0, false
	}
	return math.Max(0, math.Min(100, n)), true
}

func decodeText(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	if string(raw) == "null" {
		return ""
	}
	return string(raw)
}

const regexLookahead = 4000

var (
	anyKeyPattern         = regexp.MustCompile(`"\d+"\s*:\s*\{`)
	scoreFieldPattern     = regexp.MustCompile(`"score"\s*:\s*"?(\d+(?:\.\d+)?)`)
	quotationFieldPattern = regexp.MustCompile(`"quotation"\s*:\s*"((?:[^"\\]|\\.)*)"`)
)

// parseRegex extracts each question independently from text that is not valid JSON,
// such as truncated or commented output. It always returns every index.
func parseRegex(raw string, set questions.Set) PhaseResult {
	result := make(PhaseResult, set.Len())
	for i, question := range set.Questions() {
		key := questions.Key(i)
		entry, ok := extractEntry(raw, key, question)
		if !ok {
			result[key] = Sentinel(question)
			continue
		}
		result[key] = entry
	}
	return result
}

func extractEntry(raw, key, question string) (ScoreEntry, bool) {
	keyPattern := regexp.MustCompile(`"` + regexp.QuoteMeta(key) + `"\s*:\s*\{`)
	loc := keyPattern.FindStringIndex(raw)
	if loc == nil {
		return ScoreEntry{}, false
	}
	window := raw[loc[1]:]
	if len(window) > regexLookahead {
		window = window[:regexLookahead]
	}
	// Stop at the next question object so its fields are not borrowed.
	if next := anyKeyPattern.FindStringIndex(window); next != nil {
		window = window[:next[0]]
	}

	scoreMatch := scoreFieldPattern.FindStringSubmatch(window)
	quoteMatch := quotationFieldPattern.FindStringSubmatch(window)
	if scoreMatch == nil || quoteMatch == nil {
		return ScoreEntry{}, false
	}
	n, err := strconv.ParseFloat(scoreMatch[1], 64)
	if err != nil {
		return ScoreEntry{}, false
	}
	score, ok := clampScore(n)
	if !ok {
		return ScoreEntry{}, false
	}
	return ScoreEntry{
		Question:    question,
		Score:       score,
		Quotation:   unescape(quoteMatch[1]),
		Explanation: ManualExplanation,
	}, true
}

func unescape(s string) string {
	if out, err := strconv.Unquote(`"` + s + `"`); err == nil {
		return out
	}
	return s
}
