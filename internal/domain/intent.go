package domain

// ResultKind tells the caller of a dispatch what to do with the reply.
type ResultKind int

const (
	// ResultNone means there is nothing to say (blank input).
	ResultNone ResultKind = iota
	// ResultSpeak means Text should be printed and spoken.
	ResultSpeak
	// ResultInterrupted means the user asked for silence; speak nothing.
	ResultInterrupted
	// ResultExit means the user asked to leave. Text is the farewell.
	ResultExit
)

// String returns a human-readable result kind.
func (k ResultKind) String() string {
	switch k {
	case ResultSpeak:
		return "speak"
	case ResultInterrupted:
		return "interrupted"
	case ResultExit:
		return "exit"
	default:
		return "none"
	}
}

// Result is what one command-dispatch cycle produced.
type Result struct {
	Kind ResultKind
	Text string
}

// Speak is shorthand for a ResultSpeak result.
func Speak(text string) Result {
	return Result{Kind: ResultSpeak, Text: text}
}

// Role constants for chat turns.
const (
	RoleUser  = "user"
	RoleModel = "model"
)

// Turn is one entry in the conversation history.
type Turn struct {
	Role string
	Text string
}
