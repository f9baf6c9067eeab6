package components

// EmitterPhase is the lifecycle state of one emitter.
//
//	Idle → Emitting → (Emitting again after a loop wrap | Capped)
type EmitterPhase int

const (
	EmitterIdle     EmitterPhase = iota // waiting for the start delay
	EmitterEmitting                     // inside the emission timeline
	EmitterCapped                       // non-looping emitter past its duration
)

func (p EmitterPhase) String() string {
	switch p {
	case EmitterIdle:
		return "idle"
	case EmitterEmitting:
		return "emitting"
	case EmitterCapped:
		return "capped"
	}
	return "unknown"
}

// EmitterComponent is the runtime state of one emitter. One exists per
// emitter and all of them are reset whenever the engine resets.
//
// This is a pure data component - the engine owns the behaviour.
type EmitterComponent struct {
	// Time is the emitter-local simulation time in seconds. Elapsed time is
	// Time - StartDelay; looping emitters wrap Time back to StartDelay.
	Time float64

	Phase EmitterPhase

	// SpawnAccumulator carries the fractional particle between steps for
	// rate-based emission.
	SpawnAccumulator float64

	// Burst tracking
	BurstCycle    int     // bursts fired in the current loop iteration
	LastBurstTime float64 // elapsed time of the last burst

	// HasPrewarmed is set once a prewarm pass finished for this emitter.
	HasPrewarmed bool

	// LoopCount counts completed wraps (informational, shown by the preview).
	LoopCount int
}

// Reset returns the component to its freshly-created state.
func (e *EmitterComponent) Reset() {
	*e = EmitterComponent{}
}
