// Package modeladapter defines how the agent talks to a language model.
//
// It contains:
//   - [Completer], the single-call interface every provider implements
//   - [ModelAdapter], an embeddable base with model settings, auth, custom
//     headers, a JSON-over-HTTP helper and a usage tracker
//   - [github.com/germanamz/physbot/pkg/modeladapter/usage]: thread-safe token usage tracker
//
// Provider-specific code lives in the packages under pkg/providers.
package modeladapter
