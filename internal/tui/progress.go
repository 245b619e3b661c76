package tui

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/pedrogrisolia/maps-business-finder/internal/model"
)

// RunFunc executes the scan, pushing progress into sink, and returns
// the terminal payload.
type RunFunc func(ctx context.Context, sink model.ProgressSink) model.RunResult

// sharedState holds data shared between the scan goroutine and the
// TUI. Lives behind a pointer so it survives bubbletea's value copies.
type sharedState struct {
	mu     sync.Mutex
	cancel context.CancelFunc
	latest model.ProgressEvent
}

func (s *sharedState) setCancel(c context.CancelFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cancel = c
}

func (s *sharedState) getCancel() context.CancelFunc {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cancel
}

func (s *sharedState) record(e model.ProgressEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.latest = e
}

func (s *sharedState) last() model.ProgressEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.latest
}

// Model renders one scan's progress.
type Model struct {
	term      string
	run       RunFunc
	progress  progress.Model
	startTime time.Time

	done        bool
	confirmQuit bool
	result      model.RunResult
	width       int
	height      int
	shared      *sharedState
}

type progressTickMsg time.Time

type scanCompleteMsg struct {
	Result model.RunResult
}

func NewModel(term string, run RunFunc) Model {
	return Model{
		term: term,
		run:  run,
		progress: progress.New(
			progress.WithDefaultGradient(),
			progress.WithWidth(50),
		),
		startTime: time.Now(),
		shared:    &sharedState{},
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(m.startScan(), tickCmd())
}

func tickCmd() tea.Cmd {
	return tea.Tick(300*time.Millisecond, func(t time.Time) tea.Msg {
		return progressTickMsg(t)
	})
}

func (m Model) startScan() tea.Cmd {
	shared := m.shared
	run := m.run

	return func() tea.Msg {
		ctx, cancel := context.WithCancel(context.Background())
		shared.setCancel(cancel)
		defer cancel()

		res := run(ctx, func(e model.ProgressEvent) {
			shared.record(e)
		})
		return scanCompleteMsg{Result: res}
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			if cancel := m.shared.getCancel(); cancel != nil {
				cancel()
			}
			return m, tea.Quit
		case "esc":
			if m.done {
				return m, tea.Quit
			}
			if m.confirmQuit {
				if cancel := m.shared.getCancel(); cancel != nil {
					cancel()
				}
				return m, nil
			}
			m.confirmQuit = true
			return m, nil
		case "enter":
			if m.done {
				return m, tea.Quit
			}
			if m.confirmQuit {
				m.confirmQuit = false
				return m, nil
			}
		}
		if m.confirmQuit {
			m.confirmQuit = false
		}
	case progressTickMsg:
		if m.done {
			return m, nil
		}
		return m, tickCmd()
	case scanCompleteMsg:
		m.done = true
		m.result = msg.Result
		return m, nil
	}

	var cmd tea.Cmd
	var pModel tea.Model
	pModel, cmd = m.progress.Update(msg)
	m.progress = pModel.(progress.Model)
	return m, cmd
}

func (m Model) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render(fmt.Sprintf("Scanning: %q", m.term)))
	b.WriteString("\n\n")

	b.WriteString(statsBox.Render(m.renderStats()))
	b.WriteString("\n\n")

	event := m.shared.last()
	pct := event.Progress / 100
	if pct < 0 {
		pct = 0
	}
	if m.done && m.result.Success {
		pct = 1
	}
	b.WriteString(m.progress.ViewAs(pct))
	b.WriteString("\n\n")

	switch {
	case m.done && !m.result.Success:
		b.WriteString(errorText.Render(fmt.Sprintf("Error: %s", m.result.Error)))
		b.WriteString("\n\n")
		b.WriteString(statusBar.Render("enter exit • esc exit"))
	case m.done:
		b.WriteString(successText.Render(
			fmt.Sprintf("Complete! %d businesses ranked", m.result.Results.Total)))
		if len(m.result.Session.Warnings) > 0 {
			b.WriteString("\n")
			b.WriteString(warningText.Render(
				fmt.Sprintf("%d warnings, see log", len(m.result.Session.Warnings))))
		}
		b.WriteString("\n\n")
		b.WriteString(statusBar.Render("enter exit • esc exit"))
	case m.confirmQuit:
		b.WriteString(errorText.Render("Press ESC again to stop the scan"))
		b.WriteString("\n")
		b.WriteString(statusBar.Render("esc confirm stop • any key continue"))
	default:
		b.WriteString(statusBar.Render("esc cancel • ctrl+c quit"))
	}

	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Top, b.String())
}

func stageLabel(stage model.Stage) string {
	if stage == "" {
		return "starting"
	}
	return strings.ReplaceAll(string(stage), "_", " ")
}

func (m Model) renderStats() string {
	var sb strings.Builder
	elapsed := time.Since(m.startTime).Truncate(time.Second)
	event := m.shared.last()

	row := func(label, value string) {
		sb.WriteString(statLabel.Render(label))
		sb.WriteString(statValue.Render(value))
		sb.WriteString("\n")
	}

	row("Stage:", stageLabel(event.Stage))
	if cell, ok := event.Data["cell"].(string); ok {
		row("Cell:", cell)
	}
	if attempt, ok := event.Data["attempt"].(int); ok {
		row("Scrolls:", fmt.Sprintf("%d", attempt))
	}
	row("Elapsed:", elapsed.String())
	if event.SessionID != "" {
		sb.WriteString(mutedText.Render(event.SessionID))
		sb.WriteString("\n")
	}
	return sb.String()
}

// Run drives the scan under a fullscreen TUI and returns its result.
func Run(term string, run RunFunc) (model.RunResult, error) {
	p := tea.NewProgram(NewModel(term, run), tea.WithAltScreen())
	final, err := p.Run()
	if err != nil {
		return model.RunResult{}, err
	}
	m, ok := final.(Model)
	if !ok || !m.done {
		return model.RunResult{}, fmt.Errorf("scan interrupted")
	}
	return m.result, nil
}
