// Package agent runs a single-turn question against a language model: one
// system instruction, one user query, one completion.
package agent

import (
	"context"
	"errors"

	"github.com/germanamz/physbot/pkg/chats/chat"
	"github.com/germanamz/physbot/pkg/chats/message"
	"github.com/germanamz/physbot/pkg/chats/role"
	"github.com/germanamz/physbot/pkg/modeladapter"
)

// ErrEmptyAnswer is returned when the model replies without any text.
var ErrEmptyAnswer = errors.New("agent: empty answer")

// Options configures an Agent.
type Options struct {
	Middleware []Middleware // Applied around each completion, first is outermost.
}

// Agent pairs a completer with fixed system instructions. It keeps no state
// between calls and is safe for concurrent use when its completer is.
type Agent struct {
	name         string
	instructions string
	completer    modeladapter.Completer
	options      Options
}

// New creates an Agent.
func New(name, instructions string, completer modeladapter.Completer, opts Options) *Agent {
	return &Agent{
		name:         name,
		instructions: instructions,
		completer:    completer,
		options:      opts,
	}
}

// Name returns the agent's name.
func (a *Agent) Name() string { return a.name }

// Instructions returns the system instructions sent with every query.
func (a *Agent) Instructions() string { return a.instructions }

// Completer returns the agent's completer.
func (a *Agent) Completer() modeladapter.Completer { return a.completer }

// Answer sends query to the model once and returns the text of its reply.
// It performs no domain check; callers gate the query first. Failures are
// returned as-is and never retried.
func (a *Agent) Answer(ctx context.Context, query string) (string, error) {
	c := a.newChat(query)

	var runner Runner = RunnerFunc(a.complete)

	for i := len(a.options.Middleware) - 1; i >= 0; i-- {
		runner = a.options.Middleware[i](runner)
	}

	reply, err := runner.Run(ctx, c)
	if err != nil {
		return "", err
	}

	text := reply.TextContent()
	if text == "" {
		return "", ErrEmptyAnswer
	}

	return text, nil
}

func (a *Agent) newChat(query string) *chat.Chat {
	c := chat.New()
	if a.instructions != "" {
		c.Append(message.NewText(a.name, role.System, a.instructions))
	}
	c.Append(message.NewText("", role.User, query))
	return c
}

func (a *Agent) complete(ctx context.Context, c *chat.Chat) (message.Message, error) {
	return a.completer.Complete(ctx, c)
}
