package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/rescp17/mediaTransfer/internal/util"
)

// ProgressMsg reports the bytes of an upload sent so far.
type ProgressMsg struct {
	Current int64
	Total   int64
}

// UploadModel shows the progress of a single upload. Feed it ProgressMsg
// from the upload's progress callback and a DoneMsg at the end.
type UploadModel struct {
	name     string
	bar      progress.Model
	current  int64
	total    int64
	err      error
	finished bool
	cancel   func()
}

// NewUploadModel creates the view for uploading name. cancel is called when
// the user quits before the upload finishes.
func NewUploadModel(name string, cancel func()) *UploadModel {
	return &UploadModel{
		name:   name,
		bar:    newBar(),
		cancel: cancel,
	}
}

func (m *UploadModel) Init() tea.Cmd {
	return nil
}

func (m *UploadModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case ProgressMsg:
		m.current, m.total = msg.Current, msg.Total
	case DoneMsg:
		m.err = msg.Err
		m.finished = true
		return m, tea.Quit
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" || msg.String() == "q" {
			if m.cancel != nil {
				m.cancel()
			}
			return m, tea.Quit
		}
	}
	return m, nil
}

func (m *UploadModel) Percent() float64 {
	if m.total <= 0 {
		return 0
	}
	return float64(m.current) / float64(m.total)
}

func (m *UploadModel) View() string {
	var b strings.Builder
	b.WriteString(util.PadRight(m.name, labelWidth))
	b.WriteString(" ")
	b.WriteString(m.bar.ViewAs(m.Percent()))
	b.WriteString(" ")
	switch {
	case m.finished && m.err != nil:
		b.WriteString(ErrorStyle.Render("✘ " + m.err.Error()))
	case m.finished:
		b.WriteString(DoneStyle.Render("✔ sent"))
	default:
		b.WriteString(FileStyle.Render(fmt.Sprintf("%s / %s", util.FormatSize(m.current), util.FormatSize(m.total))))
	}
	b.WriteString("\n")
	return b.String()
}
