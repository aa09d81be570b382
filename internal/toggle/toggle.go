// Package toggle implements the per-post raw/formatted state machine.
//
// Transition is pure: it maps a state and an event to the next state and
// the effect the caller must apply to the document. Nothing here touches
// the document, so the policy is testable without one.
package toggle

// State is the display state of one post.
type State int

// Toggle states.
const (
	Raw       State = iota // host markup shown
	Loading                // formatting request in flight
	Formatted              // formatted markup shown
	Error                  // last request failed; shows host markup
)

// String returns the lowercase state name, also used as an attribute value.
func (s State) String() string {
	switch s {
	case Raw:
		return "raw"
	case Loading:
		return "loading"
	case Formatted:
		return "formatted"
	case Error:
		return "error"
	default:
		return "unknown"
	}
}

// Event drives a transition.
type Event int

// Toggle events.
const (
	Activate        Event = iota // user pressed the control
	EngineSucceeded              // formatting returned markup
	EngineFailed                 // formatting returned an error
)

// String returns the event name.
func (e Event) String() string {
	switch e {
	case Activate:
		return "activate"
	case EngineSucceeded:
		return "engine-succeeded"
	case EngineFailed:
		return "engine-failed"
	default:
		return "unknown"
	}
}

// Effect is the document change required by a transition.
type Effect int

// Effects, applied by the controller.
const (
	// EffectNone leaves the document as is.
	EffectNone Effect = iota
	// EffectBeginRender captures the region, shows the busy control and
	// starts a formatting request.
	EffectBeginRender
	// EffectShowFormatted writes the formatted markup and the revert control.
	EffectShowFormatted
	// EffectShowRaw restores the captured markup and the initial control.
	EffectShowRaw
	// EffectResetControl restores the initial control, region untouched.
	EffectResetControl
)

// String returns the effect name.
func (e Effect) String() string {
	switch e {
	case EffectNone:
		return "none"
	case EffectBeginRender:
		return "begin-render"
	case EffectShowFormatted:
		return "show-formatted"
	case EffectShowRaw:
		return "show-raw"
	case EffectResetControl:
		return "reset-control"
	default:
		return "unknown"
	}
}

// Transition returns the next state and effect for event e in state s.
// Activation while Loading is ignored, so a post never has two requests in
// flight. Engine results outside Loading are stale and ignored.
func Transition(s State, e Event) (State, Effect) {
	switch s {
	case Raw, Error:
		if e == Activate {
			return Loading, EffectBeginRender
		}
	case Loading:
		switch e {
		case EngineSucceeded:
			return Formatted, EffectShowFormatted
		case EngineFailed:
			return Error, EffectResetControl
		}
	case Formatted:
		if e == Activate {
			return Raw, EffectShowRaw
		}
	}
	return s, EffectNone
}

// Machine holds the state of one post and the data captured on the way out
// of Raw.
type Machine struct {
	state          State
	originalMarkup string
	sourceText     string
}

// State returns the current state.
func (m *Machine) State() State {
	return m.state
}

// Fire applies event e and returns the effect to perform.
func (m *Machine) Fire(e Event) Effect {
	next, effect := Transition(m.state, e)
	m.state = next
	return effect
}

// Capture stores the region's markup and plain text. It only has an effect
// while Loading, right after EffectBeginRender, so the restore value is
// always the content shown before formatting.
func (m *Machine) Capture(markup, text string) {
	if m.state != Loading {
		return
	}
	m.originalMarkup = markup
	m.sourceText = text
}

// OriginalMarkup returns the markup to restore when leaving Formatted.
func (m *Machine) OriginalMarkup() string {
	return m.originalMarkup
}

// SourceText returns the plain text sent to the formatter.
func (m *Machine) SourceText() string {
	return m.sourceText
}

// Label returns the control text for a state.
func Label(s State) string {
	switch s {
	case Loading:
		return "…"
	case Formatted:
		return "TXT"
	default:
		return "MD"
	}
}
