// Package ui renders transfer progress in the terminal.
package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/rescp17/mediaTransfer/internal/util"
	"github.com/rescp17/mediaTransfer/pkg/transfer"
)

// StatusSource is where the download view reads job statuses from.
// *transfer.JobRegistry implements it.
type StatusSource interface {
	Subscribe() (<-chan transfer.JobStatus, func())
	List() []transfer.JobStatus
}

// Stopper stops every running and queued transfer.
type Stopper interface {
	StopTransmission()
}

type jobStatusMsg transfer.JobStatus

type statusClosedMsg struct{}

// DownloadModel shows one progress line per download job. Jobs are listed
// in the order they were first seen.
type DownloadModel struct {
	updates     <-chan transfer.JobStatus
	unsubscribe func()
	source      StatusSource
	stopper     Stopper

	order    []string
	jobs     map[string]transfer.JobStatus
	bar      progress.Model
	spinner  spinner.Model
	stopped  bool
	finished bool
}

// NewDownloadModel subscribes to source right away so that no status sent
// before the program starts is missed.
func NewDownloadModel(source StatusSource, stopper Stopper) *DownloadModel {
	updates, unsubscribe := source.Subscribe()
	m := &DownloadModel{
		updates:     updates,
		unsubscribe: unsubscribe,
		source:      source,
		stopper:     stopper,
		jobs:        make(map[string]transfer.JobStatus),
		bar:         newBar(),
		spinner:     newSpinner(),
	}
	for _, s := range source.List() {
		m.track(s)
	}
	return m
}

func (m *DownloadModel) waitForStatus() tea.Cmd {
	return func() tea.Msg {
		s, ok := <-m.updates
		if !ok {
			return statusClosedMsg{}
		}
		return jobStatusMsg(s)
	}
}

func (m *DownloadModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.waitForStatus())
}

func (m *DownloadModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case jobStatusMsg:
		m.track(transfer.JobStatus(msg))
		return m, m.waitForStatus()

	case statusClosedMsg:
		return m, nil

	case DoneMsg:
		// Updates may have been dropped; the registry has the final word.
		for _, s := range m.source.List() {
			m.track(s)
		}
		m.finished = true
		m.unsubscribe()
		return m, tea.Quit

	case tea.KeyMsg:
		switch msg.String() {
		case "s":
			if !m.stopped && m.stopper != nil {
				m.stopper.StopTransmission()
				m.stopped = true
			}
			return m, nil
		case "ctrl+c", "q":
			if m.stopper != nil {
				m.stopper.StopTransmission()
			}
			m.unsubscribe()
			return m, tea.Quit
		}

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

// track records s unless a newer status of the same job is already known.
func (m *DownloadModel) track(s transfer.JobStatus) {
	prev, seen := m.jobs[s.ID]
	if !seen {
		m.order = append(m.order, s.ID)
	} else if prev.State.IsTerminal() || prev.UpdatedAt.After(s.UpdatedAt) {
		return
	}
	m.jobs[s.ID] = s
}

// Counts returns how many jobs are tracked and how many have finished.
func (m *DownloadModel) Counts() (total, finished int) {
	for _, s := range m.jobs {
		if s.State.IsTerminal() {
			finished++
		}
	}
	return len(m.jobs), finished
}

func (m *DownloadModel) View() string {
	var b strings.Builder

	total, finished := m.Counts()
	if m.finished {
		b.WriteString(HeaderStyle.Render(fmt.Sprintf("Downloaded %d of %d", m.completed(), total)))
	} else {
		b.WriteString(fmt.Sprintf("%s %s", m.spinner.View(),
			HeaderStyle.Render(fmt.Sprintf("Downloading %d/%d", finished, total))))
	}
	b.WriteString("\n\n")

	for _, id := range m.order {
		b.WriteString(m.jobLine(m.jobs[id]))
		b.WriteString("\n")
	}

	if !m.finished {
		help := "s: stop all • q: quit"
		if m.stopped {
			help = "stopping... • q: quit"
		}
		b.WriteString(HelpStyle.Render(help))
		b.WriteString("\n")
	}
	return b.String()
}

func (m *DownloadModel) completed() int {
	n := 0
	for _, s := range m.jobs {
		if s.State == transfer.JobStateCompleted {
			n++
		}
	}
	return n
}

func (m *DownloadModel) jobLine(s transfer.JobStatus) string {
	label := util.PadRight(fmt.Sprintf("%s %s", s.Kind, s.FileID), labelWidth)

	switch s.State {
	case transfer.JobStateCompleted:
		return fmt.Sprintf("%s %s %s", label, m.bar.ViewAs(1), DoneStyle.Render("✔ "+s.Path))
	case transfer.JobStateFailed:
		msg := "failed"
		if s.Err != nil {
			msg = s.Err.Error()
		}
		return fmt.Sprintf("%s %s", label, ErrorStyle.Render("✘ "+msg))
	case transfer.JobStateCancelled:
		return fmt.Sprintf("%s %s", label, FileStyle.Render("cancelled"))
	case transfer.JobStateQueued:
		return fmt.Sprintf("%s %s", label, FileStyle.Render("queued"))
	}

	if s.TotalBytes <= 0 {
		return fmt.Sprintf("%s %s", label, FileStyle.Render(util.FormatSize(s.BytesDone)))
	}
	return fmt.Sprintf("%s %s %s", label, m.bar.ViewAs(s.GetProgressPercentage()/100),
		FileStyle.Render(fmt.Sprintf("%s / %s", util.FormatSize(s.BytesDone), util.FormatSize(s.TotalBytes))))
}
