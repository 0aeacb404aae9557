package model

// Role is the author of a Message.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
)

// Message is one entry of a conversation sent to the model. Empty Content
// and nil ToolCalls are sent as null.
type Message struct {
	Role       Role
	Content    string
	ToolCalls  []ToolCall
	ToolCallID string
}

// ToolCall is a function call emitted by the model. RawArguments is the
// unparsed, untrusted argument text.
type ToolCall struct {
	ID           string
	Name         string
	RawArguments string
}

// ToolSpec describes a callable tool to the backend.
type ToolSpec struct {
	Name        string
	Description string
	Parameters  map[string]any
}

// Request is a completion request.
type Request struct {
	// Model may be empty; the gateway then picks the catalog default.
	Model      string
	Messages   []Message
	Tools      []ToolSpec
	ToolChoice string
	// Round tags telemetry with the orchestrator round.
	Round int
}

// Response is the normalised result of a completion.
type Response struct {
	Content   string
	ToolCalls []ToolCall
	Model     string
}

// HasToolCalls reports whether the model asked for tools.
func (r *Response) HasToolCalls() bool {
	return r != nil && len(r.ToolCalls) > 0
}

// ModelInfo is a catalog entry.
type ModelInfo struct {
	ID      string `json:"id"`
	Object  string `json:"object,omitempty"`
	OwnedBy string `json:"owned_by,omitempty"`
}

// LastUserText returns the content of the last user message.
func LastUserText(msgs []Message) string {
	for i := len(msgs) - 1; i >= 0; i-- {
		if msgs[i].Role == RoleUser {
			return msgs[i].Content
		}
	}
	return ""
}
