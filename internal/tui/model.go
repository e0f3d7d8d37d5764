// Package tui provides the Bubble Tea caption viewer.
package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/verte-zerg/livecap/internal/model"
)

const (
	maxCaptions = 500
	opacityStep = 5
	timeLayout  = "15:04:05"
)

var (
	captionStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#F0F0F0"))
	latestStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#C89A3A"))
	stampStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#6E6E6E"))
	headerStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#8C8C8C"))
	runningStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#73D13D")).Bold(true)
	stoppedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#8C8C8C")).Bold(true)
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF4D4F"))
	emptyStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#4A4A4A"))
	modalStyle   = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder(), true).
			BorderForeground(lipgloss.Color("#C89A3A")).
			Padding(1, 2)
	modalTitleStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#F0F0F0")).Bold(true)
)

// Controller is the capture surface the viewer drives.
type Controller interface {
	Start(ctx context.Context) error
	Stop(confirm func() bool)
	SetPosition(model.Position)
	SetOpacity(model.Opacity) error
	SetLanguage(string) error
	ClearHistory()
	Status() model.Status
}

// Model implements the Bubble Tea caption viewer. Controller calls run inside
// commands so the update loop never blocks on a launch wait.
type Model struct {
	ctrl Controller

	status   model.Status
	captions []model.CaptionEvent
	errMsg   string

	keys       keyMap
	help       help.Model
	viewport   viewport.Model
	confirming bool

	width  int
	height int
}

// NewModel constructs a caption viewer for ctrl.
func NewModel(ctrl Controller) *Model {
	return &Model{
		ctrl:     ctrl,
		status:   ctrl.Status(),
		keys:     defaultKeyMap(),
		help:     help.New(),
		viewport: viewport.New(0, 0),
	}
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.resize()
		return m, nil
	case CaptionMsg:
		m.appendCaption(msg.Event)
		return m, nil
	case StatusMsg:
		m.status = msg.Status
		if msg.Status.Err != nil {
			m.errMsg = msg.Status.Err.Error()
		}
		return m, nil
	case actionErrMsg:
		m.errMsg = msg.err.Error()
		return m, nil
	case tea.KeyMsg:
		if m.confirming {
			return m.updateConfirm(msg)
		}
		return m.updateKeys(msg)
	}
	return m, nil
}

func (m *Model) updateKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
		m.resize()
		return m, nil
	case key.Matches(msg, m.keys.Start):
		m.errMsg = ""
		return m, m.startCmd()
	case key.Matches(msg, m.keys.Stop):
		if m.status.Running {
			m.confirming = true
		}
		return m, nil
	case key.Matches(msg, m.keys.Clear):
		m.captions = nil
		m.errMsg = ""
		m.refreshContent()
		return m, m.do(func() error { m.ctrl.ClearHistory(); return nil })
	case key.Matches(msg, m.keys.NextPos):
		pos := m.status.Position.Next()
		return m, m.do(func() error { m.ctrl.SetPosition(pos); return nil })
	case key.Matches(msg, m.keys.PrevPos):
		pos := m.status.Position.Prev()
		return m, m.do(func() error { m.ctrl.SetPosition(pos); return nil })
	case key.Matches(msg, m.keys.OpacityUp):
		opacity := m.status.Opacity.Step(opacityStep)
		return m, m.do(func() error { return m.ctrl.SetOpacity(opacity) })
	case key.Matches(msg, m.keys.OpacityDown):
		opacity := m.status.Opacity.Step(-opacityStep)
		return m, m.do(func() error { return m.ctrl.SetOpacity(opacity) })
	case key.Matches(msg, m.keys.Language):
		lang := model.NextLanguage(m.status.Language)
		return m, m.do(func() error { return m.ctrl.SetLanguage(lang) })
	}
	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

func (m *Model) updateConfirm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "y", "Y":
		m.confirming = false
		return m, m.stopCmd(true)
	case "n", "N":
		m.confirming = false
		return m, m.stopCmd(false)
	case "esc":
		m.confirming = false
	case "ctrl+c":
		return m, tea.Quit
	}
	return m, nil
}

func (m *Model) startCmd() tea.Cmd {
	ctrl := m.ctrl
	return func() tea.Msg {
		if err := ctrl.Start(context.Background()); err != nil {
			return actionErrMsg{err: err}
		}
		return nil
	}
}

func (m *Model) stopCmd(terminate bool) tea.Cmd {
	ctrl := m.ctrl
	return func() tea.Msg {
		ctrl.Stop(func() bool { return terminate })
		return nil
	}
}

func (m *Model) do(fn func() error) tea.Cmd {
	return func() tea.Msg {
		if err := fn(); err != nil {
			return actionErrMsg{err: err}
		}
		return nil
	}
}

func (m *Model) appendCaption(ev model.CaptionEvent) {
	m.captions = append(m.captions, ev)
	if len(m.captions) > maxCaptions {
		m.captions = append([]model.CaptionEvent(nil), m.captions[len(m.captions)-maxCaptions:]...)
	}
	m.refreshContent()
}

func (m *Model) resize() {
	if m.width == 0 || m.height == 0 {
		return
	}
	header := lipgloss.Height(m.renderHeader())
	footer := lipgloss.Height(m.renderFooter())
	m.viewport.Width = m.width
	m.viewport.Height = max(1, m.height-header-footer)
	m.help.Width = m.width
	m.refreshContent()
}

func (m *Model) refreshContent() {
	follow := m.viewport.AtBottom()
	m.viewport.SetContent(m.renderCaptions(m.viewport.Width))
	if follow {
		m.viewport.GotoBottom()
	}
}

func (m *Model) renderCaptions(width int) string {
	if len(m.captions) == 0 {
		return emptyStyle.Render("No captions yet. Press s to start.")
	}
	lines := make([]string, 0, len(m.captions))
	for i, ev := range m.captions {
		style := captionStyle
		if i == len(m.captions)-1 {
			style = latestStyle
		}
		runes := buildStyledRunes(ev.Time.Local().Format(timeLayout), ev.Text, style)
		lines = append(lines, wrapStyledRunes(runes, width))
	}
	return strings.Join(lines, "\n")
}

func (m *Model) renderHeader() string {
	labelStyle := stoppedStyle
	if m.status.Running {
		labelStyle = runningStyle
	}
	parts := []string{
		labelStyle.Render(m.status.Label()),
		headerStyle.Render(fmt.Sprintf("lang %s", m.status.Language)),
		headerStyle.Render(fmt.Sprintf("pos %s", m.status.Position)),
		headerStyle.Render(fmt.Sprintf("opacity %d%%", int(m.status.Opacity))),
	}
	line := strings.Join(parts, headerStyle.Render("  |  "))
	if m.errMsg != "" {
		line += "\n" + errorStyle.Render(m.errMsg)
	}
	return line
}

func (m *Model) renderFooter() string {
	return m.help.View(m.keys)
}

func (m *Model) renderConfirm() string {
	body := []string{
		modalTitleStyle.Render("Stop capturing"),
		"",
		"Also close Live Captions?",
		headerStyle.Render("y yes / n no / esc cancel"),
	}
	box := modalStyle.Render(strings.Join(body, "\n"))
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, box)
}

// View implements tea.Model.
func (m *Model) View() string {
	if m.width == 0 || m.height == 0 {
		return ""
	}
	if m.confirming {
		return m.renderConfirm()
	}
	return strings.Join([]string{m.renderHeader(), m.viewport.View(), m.renderFooter()}, "\n")
}
