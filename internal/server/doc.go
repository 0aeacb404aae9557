// Package server exposes the conversation runtime over HTTP and websockets.
//
// ServerContext owns the per-process runtime: the orchestrator, the model
// catalog and the chat history store. HandleMessage is the one entry point
// every surface goes through; it loads the user's recent history, runs the
// turn and stores the exchange when the turn succeeds.
//
// Routes served by HTTPServer:
//
//	POST /api/chat         {message, model?} -> {response, toolResults, turnId}
//	GET  /api/models       model catalog and the selected default
//	GET  /ws               websocket carrying chat_message / chat_response frames
//	GET  /healthz          liveness
//	GET  /readyz           readiness
//	GET  /healthz/detailed uptime and catalog state
//
// The caller's identity is taken from the X-User-* headers, which an
// authenticating proxy in front of the server is trusted to set. Model
// gateway failures answer 502 with "AI service unavailable".
//
// MetricsServer serves /metrics on a separate port.
package server
