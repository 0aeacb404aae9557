// Package logging holds the slog conventions shared across auraflow.
//
// Every component logs through *slog.Logger with the attribute keys defined
// here, so a single conversation turn can be followed through the
// orchestrator, the model gateway and the tool executors by its turn_id.
//
//	logger := logging.WithTurn(base, turnID, userID)
//	logger.Info("tool executed", logging.Tool(name), logging.Round(2))
//
// User identifiers are hashed before they reach a log line and credentials
// are reduced to their length. Raw model traffic is only logged at
// LevelTrace.
package logging
