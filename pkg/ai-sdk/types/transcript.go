package types

import "time"

// SpeakerUser is the speaker of the task turn that seeds every transcript
const SpeakerUser = "user"

// TurnKind distinguishes the variants a transcript entry can take
type TurnKind string

const (
	TurnKindTask    TurnKind = "task"
	TurnKindMessage TurnKind = "message"
	TurnKindTool    TurnKind = "tool"
)

// Turn is a single entry of a shared conversation.
// For tool turns Speaker is the tool name, Caller the agent that invoked it and
// Content the tool result. Stop on a message turn asks the team to end the run.
type Turn struct {
	Speaker   string    `json:"speaker"`
	Kind      TurnKind  `json:"kind"`
	Content   string    `json:"content"`
	Caller    string    `json:"caller,omitempty"`
	ToolCall  *ToolCall `json:"tool_call,omitempty"`
	IsError   bool      `json:"is_error,omitempty"`
	Stop      bool      `json:"stop,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

func (t Turn) IsMessage() bool {
	return t.Kind == TurnKindMessage
}

func (t Turn) IsTool() bool {
	return t.Kind == TurnKindTool
}

func TaskTurn(task string) Turn {
	return Turn{
		Speaker:   SpeakerUser,
		Kind:      TurnKindTask,
		Content:   task,
		Timestamp: time.Now(),
	}
}

func MessageTurn(speaker, content string) Turn {
	return Turn{
		Speaker:   speaker,
		Kind:      TurnKindMessage,
		Content:   content,
		Timestamp: time.Now(),
	}
}

func ToolTurn(caller string, call ToolCall, result ToolResult) Turn {
	c := call

	return Turn{
		Speaker:   call.Name,
		Kind:      TurnKindTool,
		Content:   result.Content,
		Caller:    caller,
		ToolCall:  &c,
		IsError:   result.IsError,
		Timestamp: time.Now(),
	}
}

// Transcript is an append-only, ordered sequence of turns owned by a single run.
// It is not safe for concurrent use; turn-taking within a run is sequential.
type Transcript struct {
	turns []Turn
}

func NewTranscript() *Transcript {
	return &Transcript{}
}

func (t *Transcript) Append(turn Turn) {
	t.turns = append(t.turns, turn)
}

func (t *Transcript) Len() int {
	return len(t.turns)
}

// Turns returns a copy of the recorded turns
func (t *Transcript) Turns() []Turn {
	out := make([]Turn, len(t.turns))
	copy(out, t.turns)
	return out
}
