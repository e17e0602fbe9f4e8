// Package providers groups the language-model adapters.
//
// Sub-packages:
//   - [github.com/germanamz/physbot/pkg/providers/openai]: OpenAI-compatible Chat Completions (also Gemini's compatibility endpoint), via the openai-go SDK
//   - [github.com/germanamz/physbot/pkg/providers/gemini]: native Gemini generateContent over [github.com/germanamz/physbot/pkg/modeladapter.ModelAdapter]
//
// Every adapter implements [github.com/germanamz/physbot/pkg/modeladapter.Completer].
package providers
