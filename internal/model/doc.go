// Package model is the gateway to the language model.
//
// Three backends normalise different wire shapes into one Response:
//
//   - MockBackend answers with canned text and never uses the network.
//   - InferenceBackend posts the last user message to a Hugging Face style
//     /models/{model} endpoint. It never returns tool calls.
//   - ChatBackend speaks the OpenAI-compatible /v1/chat/completions
//     protocol, including tool calls.
//
// A Gateway wraps a backend with a per-call timeout, telemetry and a
// Catalog. Every failure leaving the gateway is an *UnavailableError or a
// *ResponseInvalidError.
package model
