package conversation

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/teemow/auraflow/internal/model"
	"github.com/teemow/auraflow/internal/toolerr"
)

// Phase is the orchestrator state.
type Phase int

const (
	PhaseBuildingPrompt Phase = iota
	PhaseAwaitingModel
	PhaseExecutingTools
	PhaseDone
	PhaseFailed
)

func (p Phase) String() string {
	switch p {
	case PhaseBuildingPrompt:
		return "BUILDING_PROMPT"
	case PhaseAwaitingModel:
		return "AWAITING_MODEL"
	case PhaseExecutingTools:
		return "EXECUTING_TOOLS"
	case PhaseDone:
		return "DONE"
	case PhaseFailed:
		return "FAILED"
	default:
		return fmt.Sprintf("Phase(%d)", int(p))
	}
}

// ToolArgumentParseError is recorded for a tool call whose arguments are not
// a JSON object. The call is never dispatched.
type ToolArgumentParseError = toolerr.ArgumentParseError

// ToolFailure is the payload of a failed ToolResult.
type ToolFailure struct {
	Error string `json:"error"`
}

// ToolResult is the outcome of one tool call.
type ToolResult struct {
	ToolCallID string
	Success    bool
	// Payload is the tool's result on success and a ToolFailure otherwise.
	Payload any
}

type successEnvelope struct {
	Success bool `json:"success"`
	Result  any  `json:"result"`
}

type failureEnvelope struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

// Content renders the tool message sent back to the model.
func (r ToolResult) Content() (string, error) {
	var v any
	if r.Success {
		v = successEnvelope{Success: true, Result: r.Payload}
	} else {
		text := ""
		if f, ok := r.Payload.(ToolFailure); ok {
			text = f.Error
		}
		v = failureEnvelope{Success: false, Error: text}
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return "", err
	}
	return string(bytes.TrimRight(buf.Bytes(), "\n")), nil
}

// ExecutedTool is the audit entry for one tool call.
type ExecutedTool struct {
	ToolName   string `json:"toolName"`
	ToolCallID string `json:"toolCallId"`
	Round      int    `json:"round"`
	Success    bool   `json:"success"`
	Result     any    `json:"result,omitempty"`
	Error      string `json:"error,omitempty"`
}

// State is the mutable state of one turn.
type State struct {
	Phase         Phase
	Messages      []model.Message
	Round         int
	ExecutedTools []ExecutedTool
}

// Result is what a turn returns, on success and on failure.
type Result struct {
	TurnID    string
	FinalText string
	Model     string
	Rounds    int
	Phase     Phase
	// CapReached is set when the turn ended on the round cap.
	CapReached    bool
	Messages      []model.Message
	ExecutedTools []ExecutedTool
}
