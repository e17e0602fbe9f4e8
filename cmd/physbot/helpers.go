package main

import (
	"errors"
	"os"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/germanamz/physbot/pkg/engine"
	"github.com/joho/godotenv"
	"github.com/mattn/go-runewidth"
)

const defaultConfigFile = "physbot.yaml"

// mdRenderer renders markdown to terminal-formatted output.
var mdRenderer *glamour.TermRenderer

func initMarkdownRenderer(width int) {
	if width <= 0 {
		width = 100
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return
	}
	mdRenderer = r
}

// renderMarkdown converts markdown text to terminal-formatted output.
func renderMarkdown(text string) string {
	if mdRenderer == nil {
		return text
	}
	out, err := mdRenderer.Render(text)
	if err != nil {
		return text
	}
	return strings.TrimRight(out, "\n")
}

// renderReply formats a reply for the terminal according to its outcome.
func renderReply(r engine.Reply) string {
	switch r.Outcome {
	case engine.OutcomeAnswer:
		return answerPrefixStyle.Render("✅ Here's your answer:") + "\n" + renderMarkdown(r.Text)
	case engine.OutcomeEmpty:
		return warnStyle.Render("⚠️  " + r.Text)
	case engine.OutcomeRejected:
		return rejectStyle.Render("❌ " + r.Text)
	default:
		return errorBlockStyle.Render(r.Text)
	}
}

// truncate shortens s to at most width display cells, appending "..." when
// cut. Newlines become spaces for single-line display.
func truncate(s string, width int) string {
	s = strings.ReplaceAll(s, "\n", " ")
	if width <= 0 || runewidth.StringWidth(s) <= width {
		return s
	}
	return runewidth.Truncate(s, width, "...")
}

// loadDotEnv loads environment variables from path. Missing files are ignored.
func loadDotEnv(path string) error {
	err := godotenv.Load(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}

// resolveConfigPath returns the config file to use. Priority:
// 1. Explicit --config flag (non-empty)
// 2. physbot.yaml in the working directory (if it exists)
// 3. "" for the built-in default
func resolveConfigPath(explicit string) string {
	if explicit != "" {
		return explicit
	}

	if _, err := os.Stat(defaultConfigFile); err == nil {
		return defaultConfigFile
	}

	return ""
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
