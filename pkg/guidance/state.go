package guidance

// State is the monitoring state of the engine. It is the single source of
// truth for what the UI should display and is mutated only by the engine
// itself.
type State int

const (
	// StateIdle means no procedure is configured or the session ended.
	StateIdle State = iota

	// StateMonitoring means the engine is watching the user and will poll
	// the verifier when the gate conditions hold.
	StateMonitoring

	// StateChecking means a verification call is in flight.
	StateChecking

	// StateComplete means the current step was verified complete; the
	// engine advances automatically after a short delay.
	StateComplete

	// StateMistake means the verifier flagged an error; monitoring resumes
	// after the cool-down unless a newer mistake supersedes it.
	StateMistake
)

// String returns the state name for logging and dashboards.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateMonitoring:
		return "monitoring"
	case StateChecking:
		return "checking"
	case StateComplete:
		return "complete"
	case StateMistake:
		return "mistake"
	default:
		return "unknown"
	}
}

// MarshalJSON encodes the state by name so stream consumers never see
// bare ordinals.
func (s State) MarshalJSON() ([]byte, error) {
	return []byte(`"` + s.String() + `"`), nil
}

// Snapshot is a read-only view of the engine for UI binding. It is safe to
// hand out across goroutines; nothing in it aliases engine internals.
type Snapshot struct {
	State          State   `json:"state"`
	StepIndex      int     `json:"step_index"`
	StepTitle      string  `json:"step_title"`
	TotalSteps     int     `json:"total_steps"`
	Terminal       bool    `json:"terminal"`
	EngagedSeconds float64 `json:"engaged_seconds"`
	BufferedFrames int     `json:"buffered_frames"`
	Confidence     float64 `json:"confidence"`
	MistakeReason  string  `json:"mistake_reason,omitempty"`
}
