package engine

import (
	"context"
	"log/slog"
	"strings"

	"github.com/germanamz/physbot/pkg/agent"
	"github.com/germanamz/physbot/pkg/gate"
	"github.com/germanamz/physbot/pkg/modeladapter"
	"github.com/google/uuid"
)

// EmptyInputNotice is shown when the user submits blank text.
const EmptyInputNotice = "Please enter a question first."

// FailureNotice is shown when the model call fails.
const FailureNotice = "Sorry, something went wrong while getting an answer. Please try again."

// Outcome classifies a Reply.
type Outcome string

const (
	OutcomeAnswer   Outcome = "answer"   // The model answered.
	OutcomeEmpty    Outcome = "empty"    // Blank input; no model call.
	OutcomeRejected Outcome = "rejected" // Failed the keyword gate; no model call.
	OutcomeFailed   Outcome = "failed"   // The model call failed.
)

// Reply is the display text for one request plus how it was produced.
type Reply struct {
	Outcome Outcome
	Text    string
	Err     error // Set only for OutcomeFailed.
}

// Engine gates questions and forwards the in-domain ones to the agent. All
// its state is read-only after New, so Handle may be called concurrently.
type Engine struct {
	cfg       Config
	keywords  *gate.KeywordSet
	completer modeladapter.Completer
	agent     *agent.Agent
	log       *slog.Logger
}

// New validates cfg and builds the gate, the completer and the agent. Any
// error is a startup error: the caller must not serve requests.
// A nil log discards all records.
func New(cfg Config, log *slog.Logger) (*Engine, error) {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}

	cfg = cfg.withDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	timeout, err := cfg.Agent.timeout()
	if err != nil {
		return nil, err
	}

	completer, err := buildCompleter(cfg.Provider)
	if err != nil {
		return nil, err
	}

	mws := []agent.Middleware{
		agent.Recovery(),
		agent.Logger(log, cfg.Agent.Name),
	}
	if timeout > 0 {
		mws = append(mws, agent.Timeout(timeout))
	}
	mws = append(mws, agent.OutputGuardrail(agent.RequireText))

	e := &Engine{
		cfg:       cfg,
		keywords:  gate.NewKeywordSet(cfg.Gate.Keywords...),
		completer: completer,
		agent:     agent.New(cfg.Agent.Name, cfg.Agent.Instructions, completer, agent.Options{Middleware: mws}),
		log:       log,
	}

	log.Info("engine ready",
		"provider", cfg.Provider.Kind,
		"model", cfg.Provider.Model,
		"keywords", e.keywords.Len(),
	)

	return e, nil
}

// Config returns the effective configuration, defaults included.
func (e *Engine) Config() Config { return e.cfg }

// Keywords returns the domain gate's keyword set.
func (e *Engine) Keywords() *gate.KeywordSet { return e.keywords }

// Handle turns the user's raw text into display text. Blank text and
// out-of-domain text are answered locally; only text that passes the gate
// reaches the model. Errors never escape: a failed call yields
// OutcomeFailed with a generic notice and the cause in Reply.Err.
func (e *Engine) Handle(ctx context.Context, raw string) Reply {
	log := e.log.With("request_id", uuid.NewString())

	if strings.TrimSpace(raw) == "" {
		log.DebugContext(ctx, "empty question")
		return Reply{Outcome: OutcomeEmpty, Text: EmptyInputNotice}
	}

	matched := e.keywords.Matched(raw)
	if len(matched) == 0 {
		log.InfoContext(ctx, "question rejected by gate", "length", len(raw))
		return Reply{Outcome: OutcomeRejected, Text: e.cfg.Gate.Refusal}
	}

	log.DebugContext(ctx, "question accepted", "keywords", matched)

	answer, err := e.agent.Answer(ctx, raw)
	if err != nil {
		log.ErrorContext(ctx, "answer failed", "error", err)
		return Reply{Outcome: OutcomeFailed, Text: FailureNotice, Err: err}
	}

	if ur, ok := e.completer.(modeladapter.UsageReporter); ok {
		if last, ok := ur.UsageTracker().Last(); ok {
			log.DebugContext(ctx, "token usage",
				"model", ur.ModelName(),
				"last", last.String(),
				"total", ur.UsageTracker().Total().String(),
			)
		}
	}

	return Reply{Outcome: OutcomeAnswer, Text: answer}
}
