package ui

import (
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/lipgloss"
)

var (
	HeaderStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("205"))
	FileStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("244"))
	DoneStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	ErrorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	HelpStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("241")).MarginTop(1)
)

const (
	labelWidth = 28
	barWidth   = 30
)

func newSpinner() spinner.Model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))
	return s
}

func newBar() progress.Model {
	return progress.New(
		progress.WithDefaultGradient(),
		progress.WithWidth(barWidth),
		progress.WithoutPercentage(),
	)
}

// DoneMsg tells a model that the work it shows has finished.
type DoneMsg struct {
	Err error
}
