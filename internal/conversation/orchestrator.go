package conversation

import (
	"context"
	"log/slog"
	"slices"
	"time"

	"github.com/google/uuid"

	"github.com/teemow/auraflow/internal/classify"
	"github.com/teemow/auraflow/internal/history"
	"github.com/teemow/auraflow/internal/instrumentation"
	"github.com/teemow/auraflow/internal/logging"
	"github.com/teemow/auraflow/internal/model"
	"github.com/teemow/auraflow/internal/prompt"
	"github.com/teemow/auraflow/internal/tools"
)

const (
	// DefaultMaxRounds caps the tool rounds of a turn.
	DefaultMaxRounds = 5
	// DefaultToolTimeout bounds one tool dispatch.
	DefaultToolTimeout = 30 * time.Second
	// DefaultModelTimeout bounds one model call.
	DefaultModelTimeout = 60 * time.Second

	// FallbackText is the reply when the round cap is reached.
	FallbackText = "reached the maximum number of operations; please check the results"
)

// Gateway completes model requests.
type Gateway interface {
	Complete(ctx context.Context, req model.Request) (*model.Response, error)
}

// Dispatcher executes tools by name.
type Dispatcher interface {
	Definitions() []tools.ToolDefinition
	Dispatch(ctx context.Context, name string, args map[string]any) (any, error)
}

// Turn is one inbound user message.
type Turn struct {
	User    prompt.UserContext
	Message string
	// Model overrides the orchestrator's default model. Empty lets the
	// gateway choose.
	Model   string
	History []history.Exchange
}

// Orchestrator runs turns. It is safe for concurrent use; every Run owns
// its own State.
type Orchestrator struct {
	gateway    Gateway
	tools      Dispatcher
	prompts    *prompt.Builder
	classifier classify.Classifier

	specs     []model.ToolSpec
	toolNames []string

	model        string
	maxRounds    int
	modelTimeout time.Duration
	toolTimeout  time.Duration

	metrics *instrumentation.Metrics
	logger  *slog.Logger
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithMaxRounds sets the tool round cap.
func WithMaxRounds(n int) Option {
	return func(o *Orchestrator) {
		if n > 0 {
			o.maxRounds = n
		}
	}
}

// WithToolTimeout sets the per-dispatch timeout.
func WithToolTimeout(d time.Duration) Option {
	return func(o *Orchestrator) {
		if d > 0 {
			o.toolTimeout = d
		}
	}
}

// WithModelTimeout sets the per-completion timeout.
func WithModelTimeout(d time.Duration) Option {
	return func(o *Orchestrator) {
		if d > 0 {
			o.modelTimeout = d
		}
	}
}

// WithModel sets the model used when a Turn names none.
func WithModel(id string) Option {
	return func(o *Orchestrator) { o.model = id }
}

// WithPromptBuilder replaces the default prompt builder.
func WithPromptBuilder(b *prompt.Builder) Option {
	return func(o *Orchestrator) {
		if b != nil {
			o.prompts = b
		}
	}
}

// WithMetrics records turn metrics.
func WithMetrics(m *instrumentation.Metrics) Option {
	return func(o *Orchestrator) { o.metrics = m }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(o *Orchestrator) { o.logger = l }
}

// New creates an Orchestrator.
func New(gw Gateway, d Dispatcher, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		gateway:      gw,
		tools:        d,
		prompts:      prompt.NewBuilder(),
		classifier:   classify.New(),
		maxRounds:    DefaultMaxRounds,
		modelTimeout: DefaultModelTimeout,
		toolTimeout:  DefaultToolTimeout,
		logger:       slog.Default(),
	}
	for _, opt := range opts {
		opt(o)
	}
	o.logger = logging.WithComponent(o.logger, "conversation")

	for _, def := range d.Definitions() {
		o.specs = append(o.specs, model.ToolSpec{
			Name:        def.Name,
			Description: def.Description,
			Parameters:  def.Parameters(),
		})
		o.toolNames = append(o.toolNames, def.Name)
	}
	return o
}

// MaxRounds returns the configured round cap.
func (o *Orchestrator) MaxRounds() int { return o.maxRounds }

// Run executes one turn. On a gateway failure it returns the partial Result
// together with the error so executed tools are not lost.
func (o *Orchestrator) Run(ctx context.Context, turn Turn) (*Result, error) {
	turnID := uuid.NewString()
	ctx, span := instrumentation.StartTurnSpan(ctx, turnID)
	o.metrics.TurnStarted(ctx)
	defer o.metrics.TurnFinished(ctx)

	logger := logging.WithTurn(o.logger, turnID, turn.User.ID)
	ctx = tools.WithLocation(ctx, turn.User.Location())
	start := time.Now()

	st := &State{Phase: PhaseBuildingPrompt}
	st.Messages = o.prompts.Build(turn.User, o.toolNames, turn.History)
	st.Messages = append(st.Messages, model.Message{Role: model.RoleUser, Content: turn.Message})

	modelID := turn.Model
	if modelID == "" {
		modelID = o.model
	}

	res := &Result{TurnID: turnID}
	for {
		out, err := o.runRound(ctx, logger, st, turn.User.ID, modelID)
		if out.model != "" {
			res.Model = out.model
		}
		if err != nil {
			st.Phase = PhaseFailed
			o.finish(res, st, "")
			o.metrics.RecordTurn(ctx, instrumentation.OutcomeFailed, st.Round)
			instrumentation.EndSpan(span, err)
			logger.Warn("turn failed",
				logging.Phase(st.Phase),
				logging.Round(st.Round),
				logging.Duration(time.Since(start)),
				logging.Err(err))
			return res, err
		}
		if out.done {
			st.Phase = PhaseDone
			o.finish(res, st, out.content)
			o.metrics.RecordTurn(ctx, instrumentation.OutcomeDone, st.Round)
			break
		}
		if st.Round >= o.maxRounds {
			st.Phase = PhaseDone
			st.Messages = append(st.Messages, model.Message{Role: model.RoleAssistant, Content: FallbackText})
			o.finish(res, st, FallbackText)
			res.CapReached = true
			o.metrics.RecordTurn(ctx, instrumentation.OutcomeCapReached, st.Round)
			logger.Warn("round cap reached", logging.Round(st.Round))
			break
		}
	}

	instrumentation.EndSpan(span, nil)
	logger.Info("turn completed",
		logging.Round(res.Rounds),
		logging.Model(res.Model),
		slog.Int("executed_tools", len(res.ExecutedTools)),
		logging.Duration(time.Since(start)))
	return res, nil
}

func (o *Orchestrator) finish(res *Result, st *State, final string) {
	res.FinalText = final
	res.Phase = st.Phase
	res.Rounds = st.Round
	res.Messages = slices.Clone(st.Messages)
	res.ExecutedTools = slices.Clone(st.ExecutedTools)
}
