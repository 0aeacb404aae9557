// Package cmd implements the command-line interface for auraflow.
//
// This package provides the following commands:
//   - chat: Talk to the assistant in the terminal, interactively or one-shot
//   - serve: Run the HTTP chat API, the websocket endpoint and the metrics server
//   - mcp: Expose the Calendar and Tasks tools over MCP stdio
//   - models: List the model catalog and the selected default
//   - auth: Authorize Google Calendar and Tasks access for the configured user
//   - generate-docs: Generate markdown documentation for all tools
//   - version: Display version information
//
// Configuration is read from a YAML file, then the environment (a .env file
// is loaded first), then command flags.
package cmd
