package server

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/teemow/auraflow/internal/classify"
	"github.com/teemow/auraflow/internal/conversation"
	"github.com/teemow/auraflow/internal/history"
	"github.com/teemow/auraflow/internal/logging"
	"github.com/teemow/auraflow/internal/model"
	"github.com/teemow/auraflow/internal/prompt"
)

// ErrShutdown is returned for messages that arrive after Shutdown.
var ErrShutdown = errors.New("server is shutting down")

// Runner runs conversation turns.
type Runner interface {
	Run(ctx context.Context, turn conversation.Turn) (*conversation.Result, error)
}

// ModelLister lists the model catalog and its default.
type ModelLister interface {
	ListModels(ctx context.Context) ([]model.ModelInfo, error)
	DefaultModel(ctx context.Context) (string, error)
}

// Reply is the outcome of one chat message as sent to clients.
type Reply struct {
	Response    string                      `json:"response"`
	ToolResults []conversation.ExecutedTool `json:"toolResults"`
	TurnID      string                      `json:"turnId,omitempty"`
	Model       string                      `json:"model,omitempty"`
	Rounds      int                         `json:"rounds"`
}

// ServerContext ties the conversation runtime to the HTTP, websocket, CLI
// and MCP surfaces.
type ServerContext struct {
	ctx    context.Context
	cancel context.CancelFunc

	runner       Runner
	models       ModelLister
	history      history.Store
	historyLimit int
	classifier   classify.Classifier
	logger       *slog.Logger

	mu       sync.RWMutex
	shutdown bool
}

// NewServerContext creates a server context. A nil store keeps no history.
func NewServerContext(ctx context.Context, runner Runner, models ModelLister, store history.Store, logger *slog.Logger) *ServerContext {
	shutdownCtx, cancel := context.WithCancel(ctx)
	if store == nil {
		store = history.NewMemoryStore(0)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &ServerContext{
		ctx:          shutdownCtx,
		cancel:       cancel,
		runner:       runner,
		models:       models,
		history:      store,
		historyLimit: prompt.DefaultHistoryLimit,
		classifier:   classify.New(),
		logger:       logging.WithComponent(logger, "server"),
	}
}

// SetHistoryLimit sets how many past exchanges are loaded per turn.
func (sc *ServerContext) SetHistoryLimit(n int) {
	if n > 0 {
		sc.historyLimit = n
	}
}

// Context returns the server context. It is cancelled on Shutdown.
func (sc *ServerContext) Context() context.Context {
	return sc.ctx
}

// Models returns the model lister.
func (sc *ServerContext) Models() ModelLister {
	return sc.models
}

// History returns the history store.
func (sc *ServerContext) History() history.Store {
	return sc.history
}

// HandleMessage runs one turn for user and stores the exchange. On failure
// the Reply carries the user-facing error text and whatever tools ran.
func (sc *ServerContext) HandleMessage(ctx context.Context, user prompt.UserContext, message, modelID string) (*Reply, error) {
	if sc.IsShutdown() {
		return &Reply{Response: sc.classifier.UserMessage(ErrShutdown)}, ErrShutdown
	}

	past, err := sc.history.Recent(ctx, user.ID, sc.historyLimit)
	if err != nil {
		sc.logger.Warn("failed to load history", logging.UserHash(user.ID), logging.Err(err))
		past = nil
	}

	res, err := sc.runner.Run(ctx, conversation.Turn{
		User:    user,
		Message: message,
		Model:   modelID,
		History: past,
	})
	reply := &Reply{ToolResults: []conversation.ExecutedTool{}}
	if res != nil {
		reply.TurnID = res.TurnID
		reply.Model = res.Model
		reply.Rounds = res.Rounds
		if res.ExecutedTools != nil {
			reply.ToolResults = res.ExecutedTools
		}
	}
	if err != nil {
		reply.Response = sc.classifier.UserMessage(err)
		return reply, err
	}
	reply.Response = res.FinalText

	if err := sc.history.Append(ctx, history.Exchange{
		UserID:           user.ID,
		UserMessage:      message,
		AssistantMessage: res.FinalText,
		CreatedAt:        time.Now(),
	}); err != nil {
		sc.logger.Warn("failed to save exchange", logging.UserHash(user.ID), logging.Err(err))
	}
	return reply, nil
}

// IsShutdown reports whether Shutdown was called.
func (sc *ServerContext) IsShutdown() bool {
	sc.mu.RLock()
	defer sc.mu.RUnlock()
	return sc.shutdown
}

// Shutdown cancels the server context and closes the history store.
func (sc *ServerContext) Shutdown() error {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	if sc.shutdown {
		return nil
	}
	sc.shutdown = true
	sc.cancel()
	return sc.history.Close()
}
