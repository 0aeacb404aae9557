package model

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"
)

// InferenceBackend talks to Hugging Face style single-turn inference
// endpoints. Only the last user message is sent and no tools are offered.
type InferenceBackend struct {
	t      *httpTransport
	models []string
}

// NewInferenceBackend creates an inference backend for o.BaseURL.
func NewInferenceBackend(o HTTPOptions) (*InferenceBackend, error) {
	t, err := newHTTPTransport("inference", o)
	if err != nil {
		return nil, err
	}
	return &InferenceBackend{t: t, models: append([]string(nil), o.Models...)}, nil
}

func (b *InferenceBackend) Name() string { return b.t.name }

type inferenceRequest struct {
	Inputs string `json:"inputs"`
}

type generatedText struct {
	GeneratedText *string `json:"generated_text"`
}

// Complete posts {"inputs": text} to /models/{model}.
func (b *InferenceBackend) Complete(ctx context.Context, req Request) (*Response, error) {
	prompt := LastUserText(req.Messages)
	raw, err := b.t.do(ctx, http.MethodPost, "/models/"+escapeModelPath(req.Model), inferenceRequest{Inputs: prompt})
	if err != nil {
		return nil, err
	}

	text, ok := parseGeneratedText(raw)
	if !ok {
		return nil, b.t.invalid("no generated_text in response", raw)
	}
	return &Response{Content: stripEcho(text, prompt), Model: req.Model}, nil
}

// escapeModelPath escapes each segment of an "org/name" model id.
func escapeModelPath(id string) string {
	segments := strings.Split(id, "/")
	for i, s := range segments {
		segments[i] = url.PathEscape(s)
	}
	return strings.Join(segments, "/")
}

// parseGeneratedText accepts [{"generated_text": ...}] and
// {"generated_text": ...}.
func parseGeneratedText(raw []byte) (string, bool) {
	var list []generatedText
	if err := json.Unmarshal(raw, &list); err == nil {
		if len(list) > 0 && list[0].GeneratedText != nil {
			return *list[0].GeneratedText, true
		}
		return "", false
	}
	var single generatedText
	if err := json.Unmarshal(raw, &single); err == nil && single.GeneratedText != nil {
		return *single.GeneratedText, true
	}
	return "", false
}

// stripEcho removes the prompt when the endpoint repeats it before the
// continuation.
func stripEcho(text, prompt string) string {
	if prompt != "" && strings.HasPrefix(text, prompt) {
		text = text[len(prompt):]
	}
	return strings.TrimSpace(text)
}

// ListModels returns the configured model list without a network call.
func (b *InferenceBackend) ListModels(context.Context) ([]ModelInfo, error) {
	out := make([]ModelInfo, 0, len(b.models))
	for _, id := range b.models {
		out = append(out, ModelInfo{ID: id, Object: "model"})
	}
	return out, nil
}
