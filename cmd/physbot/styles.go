package main

import "github.com/charmbracelet/lipgloss"

// Centralized style definitions for the TUI.
var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("5")) // magenta

	// User message styles.
	userPrefixStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("4")) // blue
	userBlockStyle  = lipgloss.NewStyle().PaddingLeft(1)

	// Reply styles.
	answerPrefixStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("2")) // green
	warnStyle         = lipgloss.NewStyle().Foreground(lipgloss.Color("3"))            // yellow
	rejectStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))            // red

	spinnerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("5")) // magenta
	dimStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("8")) // gray

	errorBlockStyle = lipgloss.NewStyle().
			PaddingLeft(1).
			BorderLeft(true).
			BorderStyle(lipgloss.ThickBorder()).
			BorderForeground(lipgloss.Color("1"))
)
