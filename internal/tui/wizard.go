// Package tui drives a survey session from the terminal.
package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"surveywizard/internal/model"
	"surveywizard/internal/service"
	"surveywizard/internal/view"
)

var (
	styleTitle     = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("63"))
	styleSubtitle  = lipgloss.NewStyle().Foreground(lipgloss.Color("244"))
	styleError     = lipgloss.NewStyle().Foreground(lipgloss.Color("160")).Bold(true)
	stylePrompt    = lipgloss.NewStyle().Foreground(lipgloss.Color("86"))
	styleHighlight = lipgloss.NewStyle().Foreground(lipgloss.Color("205")).Bold(true)
	styleButton    = lipgloss.NewStyle().Padding(0, 1).Background(lipgloss.Color("63")).Foreground(lipgloss.Color("230"))
	styleDisabled  = lipgloss.NewStyle().Padding(0, 1).Background(lipgloss.Color("238")).Foreground(lipgloss.Color("244"))
)

// resultMsg carries the outcome of a controller operation run as a command
type resultMsg struct {
	snap model.Snapshot
	err  error
}

type wizardModel struct {
	ctrl *service.SurveyController
	meta view.Meta

	snap     model.Snapshot
	view     view.View
	question *model.Question

	input   textinput.Model
	cursor  int
	checked []bool

	busy      bool
	cancelled bool
}

// Run shows the wizard until the respondent finishes or quits, and returns
// the last session snapshot
func Run(ctrl *service.SurveyController, meta view.Meta) (model.Snapshot, error) {
	prog := tea.NewProgram(newWizardModel(ctrl, meta))
	result, err := prog.Run()
	if err != nil {
		return model.Snapshot{}, err
	}

	finalModel, ok := result.(wizardModel)
	if !ok {
		return model.Snapshot{}, fmt.Errorf("wizard failed to return results")
	}
	return finalModel.snap, nil
}

func newWizardModel(ctrl *service.SurveyController, meta view.Meta) wizardModel {
	input := textinput.New()
	input.Placeholder = "Type your answer"
	input.CharLimit = 500
	input.Width = 60

	m := wizardModel{
		ctrl:  ctrl,
		meta:  meta,
		input: input,
	}
	m.apply(ctrl.Snapshot(), nil)
	return m
}

func (m wizardModel) Init() tea.Cmd {
	return textinput.Blink
}

func (m wizardModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		if msg.Width > 8 {
			m.input.Width = msg.Width - 8
		}
		return m, nil

	case resultMsg:
		m.busy = false
		m.apply(msg.snap, msg.err)
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "esc":
			m.cancelled = true
			return m, tea.Quit
		}
		if m.busy {
			return m, nil
		}
		return m.handleKey(msg)
	}

	if m.view.Screen == view.ScreenSurvey && m.question != nil && m.question.Kind == model.KindText {
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m wizardModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch m.view.Screen {
	case view.ScreenWelcome:
		switch msg.String() {
		case "q":
			m.cancelled = true
			return m, tea.Quit
		case "enter":
			return m.run(func(ctx context.Context) (model.Snapshot, error) {
				return m.ctrl.Start(ctx)
			})
		}
		return m, nil

	case view.ScreenFinished:
		switch msg.String() {
		case "q", "enter":
			return m, tea.Quit
		case "r":
			snap, err := m.ctrl.Reset()
			m.apply(snap, err)
		}
		return m, nil
	}

	if m.question == nil {
		return m, nil
	}

	if m.question.Kind == model.KindText {
		if msg.Type == tea.KeyEnter {
			return m.submit(model.ControlSnapshot{Text: m.input.Value()})
		}
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	}

	switch msg.String() {
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(m.checked)-1 {
			m.cursor++
		}
	case " ", "x":
		m.toggle()
	case "enter":
		return m.submit(model.ControlSnapshot{Checked: append([]bool(nil), m.checked...)})
	}
	return m, nil
}

func (m *wizardModel) toggle() {
	if m.question.Kind == model.KindSingleChoice {
		for i := range m.checked {
			m.checked[i] = i == m.cursor
		}
		return
	}
	m.checked[m.cursor] = !m.checked[m.cursor]
}

func (m wizardModel) submit(controls model.ControlSnapshot) (tea.Model, tea.Cmd) {
	return m.run(func(ctx context.Context) (model.Snapshot, error) {
		return m.ctrl.SubmitControls(ctx, controls)
	})
}

// run executes a controller operation off the update loop. The view shows
// the in-flight state until the result arrives.
func (m wizardModel) run(op func(ctx context.Context) (model.Snapshot, error)) (tea.Model, tea.Cmd) {
	m.busy = true
	m.view.Button = view.Button{Label: view.SubmittingLabel}
	m.view.Loading = true
	m.view.Error = ""
	return m, func() tea.Msg {
		snap, err := op(context.Background())
		return resultMsg{snap: snap, err: err}
	}
}

// apply takes a new snapshot, resetting the controls when the question changed
func (m *wizardModel) apply(snap model.Snapshot, err error) {
	if !sameQuestion(m.question, snap.Question) {
		m.question = snap.Question
		m.cursor = 0
		m.checked = nil
		m.input.Reset()
		if snap.Question != nil {
			m.checked = make([]bool, len(snap.Question.Options))
			if snap.Question.Kind == model.KindText {
				m.input.Focus()
			} else {
				m.input.Blur()
			}
		}
	}
	m.snap = snap
	m.view = view.Render(m.meta, snap, err)
}

func sameQuestion(a, b *model.Question) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.ID == b.ID && a.Prompt == b.Prompt
}

func (m wizardModel) View() string {
	if m.cancelled {
		return ""
	}

	var b strings.Builder
	b.WriteString(styleTitle.Render(m.meta.Title) + "\n\n")

	switch m.view.Screen {
	case view.ScreenWelcome:
		if m.meta.Welcome != "" {
			b.WriteString(styleSubtitle.Render(m.meta.Welcome) + "\n\n")
		}
	case view.ScreenSurvey:
		b.WriteString(styleSubtitle.Render(fmt.Sprintf("Question %d", m.view.Answered+1)) + "\n")
		b.WriteString(stylePrompt.Render(m.view.Prompt) + "\n\n")
		b.WriteString(m.controlsView() + "\n")
	case view.ScreenFinished:
		thanks := m.meta.ThankYou
		if thanks == "" {
			thanks = "Thank you!"
		}
		b.WriteString(styleHighlight.Render(thanks) + "\n\n")
	}

	if m.view.Error != "" {
		b.WriteString(styleError.Render(m.view.Error) + "\n\n")
	}

	button := styleButton
	if !m.view.Button.Enabled || m.busy {
		button = styleDisabled
	}
	b.WriteString(button.Render(m.view.Button.Label) + "\n\n")
	b.WriteString(styleSubtitle.Render(m.help()))
	return b.String()
}

func (m wizardModel) controlsView() string {
	if m.question == nil {
		return ""
	}
	if m.question.Kind == model.KindText {
		return m.input.View() + "\n"
	}

	var b strings.Builder
	for i, c := range m.view.Controls {
		mark := " "
		if i < len(m.checked) && m.checked[i] {
			mark = "x"
		}
		box := "[" + mark + "]"
		if c.Type == view.ControlRadio {
			box = "(" + mark + ")"
		}
		line := fmt.Sprintf("%s %s", box, c.Label)
		if i == m.cursor {
			line = styleHighlight.Render("> " + line)
		} else {
			line = "  " + line
		}
		b.WriteString(line + "\n")
	}
	return b.String()
}

func (m wizardModel) help() string {
	switch m.view.Screen {
	case view.ScreenWelcome:
		return "enter: start • q: quit"
	case view.ScreenFinished:
		return "r: take again • enter/q: quit"
	}
	if m.question != nil && m.question.Kind.IsChoice() {
		return "↑/↓: move • space: select • enter: submit • esc: quit"
	}
	return "enter: submit • esc: quit"
}
