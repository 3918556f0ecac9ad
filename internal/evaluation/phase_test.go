package evaluation

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAdvance(t *testing.T) {
	tests := []struct {
		name    string
		state   State
		outcome Outcome
		want    Step
	}{
		{name: "phase 1 fails", state: Phase1Pending, outcome: Outcome{}, want: Step{Next: Aborted}},
		{name: "phase 1 succeeds", state: Phase1Pending, outcome: Outcome{OK: true, MinScore: 40}, want: Step{Next: Phase1Done}},
		{name: "phase 1 all high", state: Phase1Done, outcome: Outcome{OK: true, MinScore: 95}, want: Step{Next: Accepted, Completed: CompletedPhaseOneAccepted, Carry: Phase1}},
		{name: "phase 1 below threshold", state: Phase1Done, outcome: Outcome{OK: true, MinScore: 94.9}, want: Step{Next: Phase2Pending}},
		{name: "phase 2 fails", state: Phase2Pending, outcome: Outcome{}, want: Step{Next: Accepted, Completed: CompletedPhaseOneOnly, Carry: Phase1}},
		{name: "phase 2 succeeds", state: Phase2Pending, outcome: Outcome{OK: true, MinScore: 99}, want: Step{Next: Phase2Done}},
		{name: "phase 3 always follows phase 2", state: Phase2Done, outcome: Outcome{OK: true, MinScore: 99}, want: Step{Next: Phase3Pending}},
		{name: "phase 3 fails", state: Phase3Pending, outcome: Outcome{}, want: Step{Next: Accepted, Completed: CompletedThroughPhaseTwo, Carry: Phase2}},
		{name: "phase 3 succeeds", state: Phase3Pending, outcome: Outcome{OK: true}, want: Step{Next: Phase3Done}},
		{name: "phase 3 done", state: Phase3Done, outcome: Outcome{OK: true}, want: Step{Next: Accepted, Completed: CompletedAllFour, Carry: Phase3}},
		{name: "accepted is terminal", state: Accepted, outcome: Outcome{OK: true}, want: Step{Next: Accepted}},
		{name: "aborted is terminal", state: Aborted, outcome: Outcome{}, want: Step{Next: Aborted}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Advance(tt.state, tt.outcome))
		})
	}
}

func TestAdvanceAlwaysTerminates(t *testing.T) {
	for _, ok := range []bool{true, false} {
		for _, minScore := range []float64{0, 50, 95, 100} {
			state := Phase1Pending
			for i := 0; i < 10 && !state.Terminal(); i++ {
				state = Advance(state, Outcome{OK: ok, MinScore: minScore}).Next
			}
			assert.True(t, state.Terminal(), "ok=%v min=%v ended in %s", ok, minScore, state)
		}
	}
}

func TestStatePending(t *testing.T) {
	phase, ok := Phase2Pending.Pending()
	assert.True(t, ok)
	assert.Equal(t, Phase2, phase)

	_, ok = Phase2Done.Pending()
	assert.False(t, ok)
	assert.Equal(t, "phase3_pending", Phase3Pending.String())
}
