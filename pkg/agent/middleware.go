package agent

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/germanamz/physbot/pkg/chats/chat"
	"github.com/germanamz/physbot/pkg/chats/message"
)

// Runner produces the model's reply for a request chat.
type Runner interface {
	Run(ctx context.Context, c *chat.Chat) (message.Message, error)
}

// RunnerFunc adapts a plain function to the Runner interface.
type RunnerFunc func(ctx context.Context, c *chat.Chat) (message.Message, error)

// Run calls the underlying function.
func (f RunnerFunc) Run(ctx context.Context, c *chat.Chat) (message.Message, error) {
	return f(ctx, c)
}

// Middleware wraps a Runner, returning a new Runner with added behaviour.
type Middleware func(next Runner) Runner

// --- Timeout middleware ---

// Timeout returns a Middleware that wraps the runner's context with a deadline.
func Timeout(d time.Duration) Middleware {
	return func(next Runner) Runner {
		return RunnerFunc(func(ctx context.Context, c *chat.Chat) (message.Message, error) {
			ctx, cancel := context.WithTimeout(ctx, d)
			defer cancel()

			return next.Run(ctx, c)
		})
	}
}

// --- Recovery middleware ---

// Recovery returns a Middleware that catches panics and converts them to errors.
func Recovery() Middleware {
	return func(next Runner) Runner {
		return RunnerFunc(func(ctx context.Context, c *chat.Chat) (msg message.Message, err error) {
			defer func() {
				if r := recover(); r != nil {
					err = fmt.Errorf("agent panicked: %v", r)
				}
			}()

			return next.Run(ctx, c)
		})
	}
}

// --- Logger middleware ---

// Logger returns a Middleware that logs the call, its duration, and any error.
func Logger(log *slog.Logger, name string) Middleware {
	return func(next Runner) Runner {
		return RunnerFunc(func(ctx context.Context, c *chat.Chat) (message.Message, error) {
			log.DebugContext(ctx, "agent call started", "agent", name, "messages", c.Len())

			start := time.Now()

			msg, err := next.Run(ctx, c)

			duration := time.Since(start)

			if err != nil {
				log.ErrorContext(ctx, "agent call failed",
					"agent", name,
					"duration", duration,
					"error", err,
				)
			} else {
				log.InfoContext(ctx, "agent call finished",
					"agent", name,
					"duration", duration,
					"answer_len", len(msg.TextContent()),
				)
			}

			return msg, err
		})
	}
}

// --- OutputGuardrail middleware ---

// OutputGuardrail returns a Middleware that validates the reply. If check
// returns an error, that error is returned instead of the message.
func OutputGuardrail(check func(message.Message) error) Middleware {
	return func(next Runner) Runner {
		return RunnerFunc(func(ctx context.Context, c *chat.Chat) (message.Message, error) {
			msg, err := next.Run(ctx, c)
			if err != nil {
				return msg, err
			}

			if checkErr := check(msg); checkErr != nil {
				return message.Message{}, checkErr
			}

			return msg, nil
		})
	}
}

// RequireText is an OutputGuardrail check that rejects replies without text.
func RequireText(msg message.Message) error {
	if msg.TextContent() == "" {
		return ErrEmptyAnswer
	}
	return nil
}
