package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

const ruleWidth = 60

var (
	redColor    = lipgloss.Color("#CF222E")
	greenColor  = lipgloss.Color("#2DA44E")
	orangeColor = lipgloss.Color("#D29922")
	dimColor    = lipgloss.Color("#6E7681")
	linkColor   = lipgloss.Color("#58A6FF")

	HeaderStyle = lipgloss.NewStyle().
			Foreground(redColor).
			Bold(true).
			Width(ruleWidth).
			Align(lipgloss.Center)

	SectionStyle = lipgloss.NewStyle().
			Bold(true)

	SuccessStyle = lipgloss.NewStyle().
			Foreground(greenColor).
			Bold(true)

	WarningStyle = lipgloss.NewStyle().
			Foreground(orangeColor)

	ErrorStyle = lipgloss.NewStyle().
			Foreground(redColor).
			Bold(true)

	DimStyle = lipgloss.NewStyle().
			Foreground(dimColor)

	LinkStyle = lipgloss.NewStyle().
			Foreground(linkColor).
			Underline(true)
)

// Rule returns a horizontal line of ch.
func Rule(ch string) string {
	return DimStyle.Render(strings.Repeat(ch, ruleWidth))
}

// Header returns title centered between two rules.
func Header(title string) string {
	return strings.Join([]string{Rule("="), HeaderStyle.Render(title), Rule("=")}, "\n")
}

// Section returns a section heading followed by a thin rule.
func Section(title string) string {
	return SectionStyle.Render(title) + "\n" + Rule("-")
}

// OK marks a successful line.
func OK(msg string) string {
	return SuccessStyle.Render("✓") + " " + msg
}

// Warn marks a warning line.
func Warn(msg string) string {
	return WarningStyle.Render("⚠ " + msg)
}

// Fail marks a failed line.
func Fail(msg string) string {
	return ErrorStyle.Render("✗") + " " + msg
}
