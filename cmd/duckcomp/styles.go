package main

import (
	"fmt"
	"os"

	"github.com/charmbracelet/lipgloss"
)

// Color palette
var (
	primaryColor = lipgloss.Color("#E8A33D") // amber
	mutedColor   = lipgloss.Color("#888888")
	textColor    = lipgloss.Color("#FFFFFF")
	errorColor   = lipgloss.Color("#D03030")
)

// Styles
var (
	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(primaryColor).
			MarginBottom(1)

	HeaderStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(primaryColor)

	ErrorStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(errorColor)

	KeyStyle = lipgloss.NewStyle().
			Foreground(mutedColor)

	ValueStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(textColor)
)

// PrintTitle prints a section title.
func PrintTitle(title string) {
	fmt.Println(TitleStyle.Render(title))
}

// PrintKV prints one aligned key-value line.
func PrintKV(key string, value string) {
	fmt.Printf("%s %s\n", KeyStyle.Width(22).Render(key+":"), ValueStyle.Render(value))
}

// Cell renders text in style, padded to width.
func Cell(style lipgloss.Style, width int, text string) string {
	return style.Width(width).Render(text)
}

// PrintError prints an error message
func PrintError(message string) {
	fmt.Fprintf(os.Stderr, "%s %s\n", ErrorStyle.Render("Error:"), message)
}
