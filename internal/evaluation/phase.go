package evaluation

// State is a position in the escalation protocol for one passage.
type State int

const (
	Phase1Pending State = iota
	Phase1Done
	Phase2Pending
	Phase2Done
	Phase3Pending
	Phase3Done
	Accepted
	// Aborted is reached only when phase one produced nothing usable.
	Aborted
)

func (s State) String() string {
	switch s {
	case Phase1Pending:
		return "phase1_pending"
	case Phase1Done:
		return "phase1_done"
	case Phase2Pending:
		return "phase2_pending"
	case Phase2Done:
		return "phase2_done"
	case Phase3Pending:
		return "phase3_pending"
	case Phase3Done:
		return "phase3_done"
	case Accepted:
		return "accepted"
	case Aborted:
		return "aborted"
	default:
		return "unknown"
	}
}

// Terminal reports whether no further transition is possible.
func (s State) Terminal() bool {
	return s == Accepted || s == Aborted
}

// Pending returns the phase a pending state calls the provider for.
func (s State) Pending() (Phase, bool) {
	switch s {
	case Phase1Pending:
		return Phase1, true
	case Phase2Pending:
		return Phase2, true
	case Phase3Pending:
		return Phase3, true
	default:
		return 0, false
	}
}

// Outcome is what the most recent provider round produced. MinScore is taken over
// that round's own result.
type Outcome struct {
	OK       bool
	MinScore float64
}

// Step is a transition. When Next is Accepted, Completed labels the result and Carry
// names the phase whose result is final.
type Step struct {
	Next      State
	Completed PhaseCompleted
	Carry     Phase
}

// Advance is the escalation policy. It performs no I/O; the engine feeds it the
// outcome of the round it just ran.
func Advance(s State, o Outcome) Step {
	switch s {
	case Phase1Pending:
		if !o.OK {
			return Step{Next: Aborted}
		}
		return Step{Next: Phase1Done}
	case Phase1Done:
		if o.MinScore >= AcceptThreshold {
			return Step{Next: Accepted, Completed: CompletedPhaseOneAccepted, Carry: Phase1}
		}
		return Step{Next: Phase2Pending}
	case Phase2Pending:
		if !o.OK {
			return Step{Next: Accepted, Completed: CompletedPhaseOneOnly, Carry: Phase1}
		}
		return Step{Next: Phase2Done}
	case Phase2Done:
		return Step{Next: Phase3Pending}
	case Phase3Pending:
		if !o.OK {
			return Step{Next: Accepted, Completed: CompletedThroughPhaseTwo, Carry: Phase2}
		}
		return Step{Next: Phase3Done}
	case Phase3Done:
		return Step{Next: Accepted, Completed: CompletedAllFour, Carry: Phase3}
	default:
		return Step{Next: s}
	}
}
