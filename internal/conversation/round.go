package conversation

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"github.com/teemow/auraflow/internal/logging"
	"github.com/teemow/auraflow/internal/model"
	"github.com/teemow/auraflow/internal/toolerr"
	"github.com/teemow/auraflow/internal/tools"
)

type roundOutcome struct {
	done    bool
	content string
	model   string
}

// runRound asks the model for the next reply and, if it requested tools,
// executes them and appends the assistant and tool messages. The first
// round and every follow-up go through here.
func (o *Orchestrator) runRound(ctx context.Context, logger *slog.Logger, st *State, userID, modelID string) (roundOutcome, error) {
	st.Phase = PhaseAwaitingModel
	mctx, cancel := context.WithTimeout(ctx, o.modelTimeout)
	resp, err := o.gateway.Complete(mctx, model.Request{
		Model:    modelID,
		Messages: slices.Clone(st.Messages),
		Tools:    o.specs,
		Round:    st.Round,
	})
	cancel()
	if err != nil {
		if !model.IsGatewayError(err) {
			err = &model.UnavailableError{Backend: "gateway", Err: err}
		}
		return roundOutcome{}, err
	}
	if resp == nil {
		return roundOutcome{}, &model.ResponseInvalidError{Backend: "gateway", Reason: "nil response"}
	}

	out := roundOutcome{model: resp.Model}
	if !resp.HasToolCalls() {
		st.Messages = append(st.Messages, model.Message{Role: model.RoleAssistant, Content: resp.Content})
		out.done = true
		out.content = resp.Content
		return out, nil
	}

	st.Phase = PhaseExecutingTools
	logger.Debug("executing tool calls", logging.Round(st.Round), slog.Int("count", len(resp.ToolCalls)))

	results := make([]ToolResult, 0, len(resp.ToolCalls))
	for _, call := range resp.ToolCalls {
		results = append(results, o.execute(ctx, logger, st, userID, call))
	}

	st.Messages = append(st.Messages, model.Message{
		Role:      model.RoleAssistant,
		Content:   resp.Content,
		ToolCalls: slices.Clone(resp.ToolCalls),
	})
	for _, r := range results {
		content, err := r.Content()
		if err != nil {
			r = o.failure(r.ToolCallID, fmt.Errorf("result could not be encoded: %w", err))
			content, _ = r.Content()
		}
		st.Messages = append(st.Messages, model.Message{Role: model.RoleTool, ToolCallID: r.ToolCallID, Content: content})
	}
	st.Round++
	return out, nil
}

// execute runs one tool call and always returns a result for it.
func (o *Orchestrator) execute(ctx context.Context, logger *slog.Logger, st *State, userID string, call model.ToolCall) ToolResult {
	payload, err := o.dispatch(ctx, st.Round, userID, call)

	entry := ExecutedTool{ToolName: call.Name, ToolCallID: call.ID, Round: st.Round}
	var res ToolResult
	if err != nil {
		res = o.failure(call.ID, err)
		entry.Error = res.Payload.(ToolFailure).Error
		logger.Debug("tool call failed",
			logging.Tool(call.Name),
			logging.CallID(call.ID),
			slog.String("kind", toolerr.KindOf(err).String()),
			logging.Err(err))
	} else {
		res = ToolResult{ToolCallID: call.ID, Success: true, Payload: payload}
		entry.Success = true
		entry.Result = payload
	}
	st.ExecutedTools = append(st.ExecutedTools, entry)
	return res
}

func (o *Orchestrator) failure(callID string, err error) ToolResult {
	return ToolResult{ToolCallID: callID, Payload: ToolFailure{Error: o.classifier.Classify(err)}}
}

// dispatch parses the arguments, pins userId and runs the tool under the
// per-tool timeout.
func (o *Orchestrator) dispatch(ctx context.Context, round int, userID string, call model.ToolCall) (any, error) {
	parsed, err := parseArguments(call)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	args := make(map[string]any, len(parsed)+1)
	for k, v := range parsed {
		args[k] = v
	}
	args["userId"] = userID

	tctx, cancel := context.WithTimeout(ctx, o.toolTimeout)
	defer cancel()
	tctx = tools.WithCall(tctx, tools.CallInfo{ID: call.ID, Round: round})

	type outcome struct {
		v   any
		err error
	}
	done := make(chan outcome, 1)
	go func() {
		v, err := o.tools.Dispatch(tctx, call.Name, args)
		done <- outcome{v, err}
	}()

	select {
	case r := <-done:
		return r.v, r.err
	case <-tctx.Done():
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, toolerr.Wrap(toolerr.KindTimeout, call.Name, tctx.Err())
	}
}

// parseArguments decodes the raw arguments as a JSON object. Empty input
// is an empty object.
func parseArguments(call model.ToolCall) (map[string]any, error) {
	raw := strings.TrimSpace(call.RawArguments)
	if raw == "" {
		return map[string]any{}, nil
	}
	var v any
	if err := json.Unmarshal([]byte(raw), &v); err != nil {
		return nil, &ToolArgumentParseError{Tool: call.Name, Err: err}
	}
	m, ok := v.(map[string]any)
	if !ok {
		return nil, &ToolArgumentParseError{Tool: call.Name, Err: fmt.Errorf("expected a JSON object, got %s", jsonKind(v))}
	}
	return m, nil
}

func jsonKind(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case []any:
		return "an array"
	case string:
		return "a string"
	case float64:
		return "a number"
	case bool:
		return "a boolean"
	default:
		return fmt.Sprintf("%T", v)
	}
}
