package model

import (
	"context"
	"hash/fnv"
)

// MockModelID is the only model the mock backend lists.
const MockModelID = "mock"

var cannedResponses = []string{
	"I'm here to help you plan a calm, focused day. What would you like to work on first?",
	"Let's take this one step at a time. Would you like me to look at your calendar or your tasks?",
	"A short break between meetings can do wonders. Shall I find some focus time for you?",
	"Got it. Remember to breathe; you have more time than it feels like.",
	"I can create events, update tasks and find gaps for deep work. Just tell me what you need.",
}

// MockBackend answers with canned text and never touches the network.
type MockBackend struct{}

// NewMockBackend returns the offline backend.
func NewMockBackend() *MockBackend {
	return &MockBackend{}
}

func (*MockBackend) Name() string { return "mock" }

// Complete picks a canned response from a hash of the last user message, so
// the same input always gets the same answer.
func (*MockBackend) Complete(ctx context.Context, req Request) (*Response, error) {
	if err := ctx.Err(); err != nil {
		return nil, &UnavailableError{Backend: "mock", Err: err}
	}
	h := fnv.New32a()
	_, _ = h.Write([]byte(LastUserText(req.Messages)))
	return &Response{
		Content: cannedResponses[h.Sum32()%uint32(len(cannedResponses))],
		Model:   MockModelID,
	}, nil
}

func (*MockBackend) ListModels(context.Context) ([]ModelInfo, error) {
	return []ModelInfo{{ID: MockModelID, Object: "model", OwnedBy: "auraflow"}}, nil
}

// CannedResponses returns the mock backend's fixed answers.
func CannedResponses() []string {
	return append([]string(nil), cannedResponses...)
}
