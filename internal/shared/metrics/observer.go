package metrics

import (
	"strconv"

	"evaluator-backend/internal/evaluation"
)

// EngineObserver feeds evaluation engine events into the process counters.
type EngineObserver struct{}

var _ evaluation.Observer = EngineObserver{}

func (EngineObserver) ProviderCall(provider string, _ evaluation.Phase, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	IncProviderCall(provider, outcome)
}

func (EngineObserver) Parsed(phase evaluation.Phase, strategy evaluation.Strategy, sentinels int) {
	IncParseStrategy(strconv.Itoa(int(phase)), string(strategy))
	AddParseSentinels(sentinels)
}

func (EngineObserver) Completed(label evaluation.PhaseCompleted) {
	IncPhaseCompleted(string(label))
}
