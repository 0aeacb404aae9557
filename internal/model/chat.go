package model

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/google/uuid"
)

// ChatBackend talks to OpenAI-compatible chat-completions endpoints.
type ChatBackend struct {
	t *httpTransport
}

// NewChatBackend creates a chat backend for o.BaseURL.
func NewChatBackend(o HTTPOptions) (*ChatBackend, error) {
	t, err := newHTTPTransport("chat", o)
	if err != nil {
		return nil, err
	}
	return &ChatBackend{t: t}, nil
}

func (b *ChatBackend) Name() string { return b.t.name }

type chatRequest struct {
	Model      string        `json:"model"`
	Messages   []chatMessage `json:"messages"`
	Tools      []chatTool    `json:"tools,omitempty"`
	ToolChoice string        `json:"tool_choice,omitempty"`
}

type chatMessage struct {
	Role       string         `json:"role"`
	Content    *string        `json:"content"`
	ToolCalls  []chatToolCall `json:"tool_calls,omitempty"`
	ToolCallID string         `json:"tool_call_id,omitempty"`
}

type chatToolCall struct {
	ID       string           `json:"id"`
	Type     string           `json:"type"`
	Function chatFunctionCall `json:"function"`
}

type chatFunctionCall struct {
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

type chatTool struct {
	Type     string          `json:"type"`
	Function chatFunctionDef `json:"function"`
}

type chatFunctionDef struct {
	Name        string         `json:"name"`
	Description string         `json:"description,omitempty"`
	Parameters  map[string]any `json:"parameters,omitempty"`
}

type chatResponse struct {
	Model   string        `json:"model"`
	Choices *[]chatChoice `json:"choices"`
}

type chatChoice struct {
	Message      *chatResponseMessage `json:"message"`
	FinishReason string               `json:"finish_reason"`
}

type chatResponseMessage struct {
	Content   json.RawMessage `json:"content"`
	ToolCalls []struct {
		ID       string `json:"id"`
		Function struct {
			Name      string          `json:"name"`
			Arguments json.RawMessage `json:"arguments"`
		} `json:"function"`
	} `json:"tool_calls"`
}

func toChatMessages(msgs []Message) []chatMessage {
	out := make([]chatMessage, 0, len(msgs))
	for _, m := range msgs {
		cm := chatMessage{Role: string(m.Role), ToolCallID: m.ToolCallID}
		if m.Content != "" {
			content := m.Content
			cm.Content = &content
		}
		for _, tc := range m.ToolCalls {
			cm.ToolCalls = append(cm.ToolCalls, chatToolCall{
				ID:       tc.ID,
				Type:     "function",
				Function: chatFunctionCall{Name: tc.Name, Arguments: tc.RawArguments},
			})
		}
		out = append(out, cm)
	}
	return out
}

func toChatTools(specs []ToolSpec) []chatTool {
	if len(specs) == 0 {
		return nil
	}
	out := make([]chatTool, 0, len(specs))
	for _, s := range specs {
		out = append(out, chatTool{
			Type:     "function",
			Function: chatFunctionDef{Name: s.Name, Description: s.Description, Parameters: s.Parameters},
		})
	}
	return out
}

// Complete posts the full conversation and tool catalog to
// /v1/chat/completions and normalises the first choice.
func (b *ChatBackend) Complete(ctx context.Context, req Request) (*Response, error) {
	payload := chatRequest{
		Model:    req.Model,
		Messages: toChatMessages(req.Messages),
		Tools:    toChatTools(req.Tools),
	}
	if len(payload.Tools) > 0 {
		payload.ToolChoice = req.ToolChoice
		if payload.ToolChoice == "" {
			payload.ToolChoice = "auto"
		}
	}

	raw, err := b.t.do(ctx, http.MethodPost, "/v1/chat/completions", payload)
	if err != nil {
		return nil, err
	}

	var parsed chatResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, b.t.invalid("body is not JSON", raw)
	}
	if parsed.Choices == nil {
		return nil, b.t.invalid("missing choices", raw)
	}
	if len(*parsed.Choices) == 0 {
		return nil, b.t.invalid("empty choices", raw)
	}
	msg := (*parsed.Choices)[0].Message
	if msg == nil {
		return nil, b.t.invalid("first choice has no message", raw)
	}

	resp := &Response{Content: contentText(msg.Content), Model: parsed.Model}
	if resp.Model == "" {
		resp.Model = req.Model
	}
	for _, tc := range msg.ToolCalls {
		id := tc.ID
		if id == "" {
			id = "call_" + uuid.NewString()
		}
		resp.ToolCalls = append(resp.ToolCalls, ToolCall{
			ID:           id,
			Name:         tc.Function.Name,
			RawArguments: argumentsText(tc.Function.Arguments),
		})
	}
	return resp, nil
}

// contentText reads a message content that is a string, null or a list of
// text parts.
func contentText(raw json.RawMessage) string {
	if len(raw) == 0 || string(raw) == "null" {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var parts []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	}
	if err := json.Unmarshal(raw, &parts); err == nil {
		var b strings.Builder
		for _, p := range parts {
			b.WriteString(p.Text)
		}
		return b.String()
	}
	return string(raw)
}

// argumentsText returns the arguments verbatim. Most servers send a JSON
// string holding the object; some send the object itself.
func argumentsText(raw json.RawMessage) string {
	if len(raw) == 0 || string(raw) == "null" {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return string(raw)
}

type modelList struct {
	Data *[]ModelInfo `json:"data"`
}

// ListModels fetches /v1/models.
func (b *ChatBackend) ListModels(ctx context.Context) ([]ModelInfo, error) {
	raw, err := b.t.do(ctx, http.MethodGet, "/v1/models", nil)
	if err != nil {
		return nil, err
	}
	var list modelList
	if err := json.Unmarshal(raw, &list); err != nil {
		return nil, b.t.invalid("model list is not JSON", raw)
	}
	if list.Data == nil {
		return nil, b.t.invalid("model list has no data", raw)
	}
	return *list.Data, nil
}
