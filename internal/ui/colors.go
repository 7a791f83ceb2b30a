package ui

import (
	"github.com/charmbracelet/lipgloss"
)

var (
	// Base styles - will be initialized based on terminal support
	successStyle lipgloss.Style
	errorStyle   lipgloss.Style
	warningStyle lipgloss.Style
	infoStyle    lipgloss.Style
	dimStyle     lipgloss.Style
	showStyle    lipgloss.Style
	targetStyle  lipgloss.Style
	promptStyle  lipgloss.Style
	pathStyle    lipgloss.Style
)

func init() {
	initStyles()
}

func initStyles() {
	if !IsTerminal() {
		plain := lipgloss.NewStyle()
		successStyle = plain
		errorStyle = plain
		warningStyle = plain
		infoStyle = plain
		dimStyle = plain
		showStyle = plain
		targetStyle = plain
		promptStyle = plain
		pathStyle = plain
		return
	}

	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Bold(true)
	errorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true)
	warningStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	infoStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("12"))
	dimStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	showStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("5"))
	targetStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	promptStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("12")).Bold(true)
	pathStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("15"))
}

func Success(text string) string {
	return successStyle.Render(text)
}

func Error(text string) string {
	return errorStyle.Render(text)
}

func Warning(text string) string {
	return warningStyle.Render(text)
}

func Info(text string) string {
	return infoStyle.Render(text)
}

func Dim(text string) string {
	return dimStyle.Render(text)
}

// Show styles a canonical show name.
func Show(text string) string {
	return showStyle.Render(text)
}

// Target styles a proposed destination filename.
func Target(text string) string {
	return targetStyle.Render(text)
}

func Prompt(text string) string {
	return promptStyle.Render(text)
}

func Path(text string) string {
	return pathStyle.Render(text)
}
